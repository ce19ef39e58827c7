// Package entity defines the domain types shared by every layer of the service:
// links, click events, resolution outcomes and analytics reports, together with
// the sentinel errors the layers exchange.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Link is a short code (or custom alias) mapped to a destination URL.
type Link struct {
	ID           int64      // ID is the storage identifier of the link.
	ShortCode    string     // ShortCode resolves the link; equals CustomAlias when one was chosen.
	CustomAlias  string     // CustomAlias is the user-chosen code, empty for generated codes.
	OriginalURL  string     // OriginalURL is the redirect destination.
	OwnerID      uuid.UUID  // OwnerID is uuid.Nil for anonymous links.
	PasswordHash string     // PasswordHash is a bcrypt hash, empty when the link is unprotected.
	Description  string     // Description is free text supplied by the owner.
	Category     string     // Category is a free-form label supplied by the owner.
	IsActive     bool       // IsActive is false once the owner disables the link.
	ExpiresAt    *time.Time // ExpiresAt is nil for links that never expire.
	LinkStats               // LinkStats holds the counters updated on every redirect.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LinkStats contains the aggregate counters of a link.
// UniqueClicks never exceeds ClickCount.
type LinkStats struct {
	ClickCount    int64
	UniqueClicks  int64
	LastClickedAt *time.Time
}

// HasPassword reports whether the link is gated behind a password.
func (l *Link) HasPassword() bool {
	return l.PasswordHash != ""
}

// IsExpired reports whether the link expired strictly before now.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// IsAnonymous reports whether the link was created without an owner.
func (l *Link) IsAnonymous() bool {
	return l.OwnerID == uuid.Nil
}

// NewLink carries the caller-supplied fields of a link to be created.
type NewLink struct {
	OwnerID     uuid.UUID
	OriginalURL string
	CustomAlias string
	Password    string
	Description string
	Category    string
	ExpiresAt   *time.Time
}

// LinkUpdate lists the owner-editable fields of a link. Nil fields are left unchanged.
// The short code and alias are immutable.
type LinkUpdate struct {
	OriginalURL *string
	Description *string
	Category    *string
	IsActive    *bool
	ExpiresAt   *time.Time
	// ClearExpiry removes the expiry altogether and takes precedence over ExpiresAt.
	ClearExpiry bool
}

// Empty reports whether the update changes nothing.
func (u LinkUpdate) Empty() bool {
	return u.OriginalURL == nil && u.Description == nil && u.Category == nil &&
		u.IsActive == nil && u.ExpiresAt == nil && !u.ClearExpiry
}
