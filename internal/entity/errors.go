package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrShortCodeExists is returned when a generated short code collides with an existing link.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrAliasExists is returned when a custom alias is already taken by another link.
	ErrAliasExists = errors.New("alias already exists")
	// ErrLinkNotFound is returned when no link (visible to the caller) matches the short code.
	ErrLinkNotFound = errors.New("link not found")
	// ErrCodeSpaceExhausted is returned when every generation attempt collided.
	// It means the configured code length is too small for the current link volume.
	ErrCodeSpaceExhausted = errors.New("short code space exhausted")
	// ErrInvalidPeriod is returned for an analytics period outside of the supported set.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrInvalidCredentials is returned when an owner token cannot be authenticated.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError describes input rejected by a use case before touching storage.
type ValidationError struct {
	Field string
	Issue string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Issue)
}
