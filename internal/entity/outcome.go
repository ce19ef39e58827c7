package entity

import "time"

// RedirectOutcome is the result of resolving a short code for a visitor.
// It is one of NotFound, Expired, Deactivated, PasswordRequired or Redirect.
type RedirectOutcome interface {
	redirectOutcome()
}

// VerifyOutcome is the result of submitting a password for a protected link.
// It is one of InvalidOrUnprotected, IncorrectPassword, Expired, Deactivated or Redirect.
type VerifyOutcome interface {
	verifyOutcome()
}

// NotFound means no link resolves from the code.
type NotFound struct{}

// Expired means the link exists but its expiry has passed.
type Expired struct {
	ExpiredAt time.Time
}

// Deactivated means the link exists but its owner disabled it.
type Deactivated struct{}

// PasswordRequired means the visitor must pass the verification flow first.
// No click is recorded for this outcome.
type PasswordRequired struct {
	ShortCode string
}

// Redirect carries the destination the visitor should be sent to.
type Redirect struct {
	URL string
	// Click is the recorded event; nil on the password path, which only counts.
	Click *ClickEvent
}

// InvalidOrUnprotected means the link does not exist or has no password.
type InvalidOrUnprotected struct{}

// IncorrectPassword means the submitted password does not match.
type IncorrectPassword struct{}

func (NotFound) redirectOutcome()         {}
func (Expired) redirectOutcome()          {}
func (Deactivated) redirectOutcome()      {}
func (PasswordRequired) redirectOutcome() {}
func (Redirect) redirectOutcome()         {}

func (InvalidOrUnprotected) verifyOutcome() {}
func (IncorrectPassword) verifyOutcome()    {}
func (Expired) verifyOutcome()              {}
func (Deactivated) verifyOutcome()          {}
func (Redirect) verifyOutcome()             {}
