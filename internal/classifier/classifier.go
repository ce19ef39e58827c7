// Package classifier turns the raw visitor attributes of a redirect request
// (user agent and client IP) into the device, browser, OS and location
// dimensions stored with each click event.
//
// Classification is pure: no network calls are made, and the optional geo
// lookup reads a local database. Missing geo data is not an error.
package classifier

import (
	"net"
	"strings"
	"unicode/utf8"

	"github.com/mssola/useragent"
	"github.com/vadimbarashkov/vortex/internal/entity"
)

// Unknown is used for browser and OS names that cannot be detected.
const Unknown = "Unknown"

// Upper bounds, in characters, of the classified dimensions. They match the
// click_events column widths.
const (
	MaxNameLength    = 128
	MaxCountryLength = 8
)

var tabletTokens = []string{"iPad", "Tablet", "Kindle", "Silk", "PlayBook"}

// Location is a resolved geographic position.
type Location struct {
	Country string
	City    string
}

// Locator resolves a public IP address to a location.
type Locator interface {
	Locate(ip net.IP) (Location, bool)
}

// Classifier classifies visitors. A nil locator disables geo lookup.
type Classifier struct {
	locator Locator
}

func New(locator Locator) *Classifier {
	return &Classifier{locator: locator}
}

// Classify derives the visitor dimensions from the user agent and client IP.
func (c *Classifier) Classify(userAgent, clientIP string) entity.ClientInfo {
	ua := useragent.New(userAgent)

	info := entity.ClientInfo{
		Device:  detectDevice(ua, userAgent),
		Browser: browserName(ua),
		OS:      osName(ua),
	}

	if loc, ok := c.locate(clientIP); ok {
		info.Country = truncate(loc.Country, MaxCountryLength)
		info.City = truncate(loc.City, MaxNameLength)
	}

	return info
}

func (c *Classifier) locate(clientIP string) (Location, bool) {
	if c.locator == nil {
		return Location{}, false
	}

	ip := net.ParseIP(clientIP)
	if ip == nil || !isPublic(ip) {
		return Location{}, false
	}

	return c.locator.Locate(ip)
}

func detectDevice(ua *useragent.UserAgent, raw string) entity.Device {
	for _, token := range tabletTokens {
		if strings.Contains(raw, token) {
			return entity.DeviceTablet
		}
	}

	// Android tablets omit the "Mobile" token.
	if strings.Contains(raw, "Android") && !strings.Contains(raw, "Mobile") {
		return entity.DeviceTablet
	}

	if ua.Mobile() || strings.Contains(raw, "Mobi") || strings.Contains(raw, "iPhone") {
		return entity.DeviceMobile
	}

	return entity.DeviceDesktop
}

func browserName(ua *useragent.UserAgent) string {
	name, version := ua.Browser()
	return joinNameVersion(name, version)
}

func osName(ua *useragent.UserAgent) string {
	info := ua.OSInfo()
	return joinNameVersion(info.Name, info.Version)
}

func joinNameVersion(name, version string) string {
	if name == "" {
		name = Unknown
	}

	return truncate(strings.TrimSpace(name+" "+version), MaxNameLength)
}

// truncate drops invalid UTF-8 and cuts s to at most n characters.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return strings.TrimSpace(string([]rune(s)[:n]))
}

func isPublic(ip net.IP) bool {
	return !(ip.IsPrivate() ||
		ip.IsLoopback() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast())
}

// ClientIP picks the visitor address used for geo lookup and click
// de-duplication: the first X-Forwarded-For entry when present, else the
// transport peer address. The header is client controlled, so uniqueness
// can be skewed by spoofing unless a trusted proxy rewrites it.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}

	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}

	return "127.0.0.1"
}
