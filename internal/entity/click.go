package entity

import (
	"time"

	"github.com/google/uuid"
)

// Device is the coarse class of the visitor's device.
type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
)

// ClientInfo is the classification of a visitor derived from its user agent and IP.
// Country and City are empty when the location is unknown.
type ClientInfo struct {
	Device  Device
	Browser string
	OS      string
	Country string
	City    string
}

// RequestContext describes the visitor side of a redirect after IP extraction.
type RequestContext struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ClickEvent is one immutable record of a resolved visit to a link.
type ClickEvent struct {
	ID        int64
	ShortCode string
	OwnerID   uuid.UUID // OwnerID is copied from the link at click time.
	ClickedAt time.Time
	ClientIP  string
	UserAgent string
	ClientInfo
	Referrer string
	IsUnique bool // IsUnique is fixed when the event is written and never revised.
}
