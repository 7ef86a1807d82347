// Package phone canonicalizes user-supplied phone numbers into the
// 2547XXXXXXXX wire format expected by the mobile-money gateway.
package phone

import (
	"errors"
	"strings"
)

// ErrInvalidFormat is returned when a number cannot be canonicalized.
var ErrInvalidFormat = errors.New("invalid phone number format")

// Normalize canonicalizes a phone number. Accepted inputs:
//
//	+2547XXXXXXXX, 2547XXXXXXXX, 07XXXXXXXX, 7XXXXXXXX
//
// All map to 2547XXXXXXXX. Anything else fails with ErrInvalidFormat.
func Normalize(raw string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")

	p = strings.TrimPrefix(p, "+")

	if !isDigits(p) {
		return "", ErrInvalidFormat
	}

	switch {
	case strings.HasPrefix(p, "0") && len(p) == 10:
		return "254" + p[1:], nil
	case strings.HasPrefix(p, "7") && len(p) == 9:
		return "254" + p, nil
	case strings.HasPrefix(p, "254") && len(p) == 12:
		return p, nil
	}

	return "", ErrInvalidFormat
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
