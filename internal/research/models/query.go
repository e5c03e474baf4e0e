package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInputRejected marks a registration identifier that failed validation.
// It is the only error a research run surfaces as a hard failure; everything
// downstream of input validation degrades into evidence gaps instead.
var ErrInputRejected = errors.New("input rejected")

// US registrations: the N prefix followed by 1-5 alphanumerics.
var tailPattern = regexp.MustCompile(`^N[0-9A-Z]{1,5}$`)

// RegistrationQuery is a validated, canonical aircraft registration identifier.
type RegistrationQuery struct {
	// Raw is the identifier as the caller supplied it.
	Raw string
	// Tail is the canonical uppercase form used for lookups and cache keys.
	Tail string
}

// NewRegistrationQuery normalizes raw input into canonical form. The input is
// rejected before any provider is contacted if it does not match the
// registration pattern.
func NewRegistrationQuery(raw string) (RegistrationQuery, error) {
	tail := strings.ToUpper(strings.TrimSpace(raw))
	tail = strings.ReplaceAll(tail, "-", "")
	if !tailPattern.MatchString(tail) {
		return RegistrationQuery{}, fmt.Errorf("registration %q is not a valid tail number: %w", raw, ErrInputRejected)
	}
	return RegistrationQuery{Raw: raw, Tail: tail}, nil
}
