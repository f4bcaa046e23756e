// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxIdentityLen = 36
)

var (
	ErrIdentityTooLong = errors.New("identity too long")
	ErrIdentityEmpty   = errors.New("identity empty")
	ErrIdentityInvalid = errors.New("identity contains " + chatIDSeparator)
)

// Identity is the display name a session announces itself as.
// Several sessions (tabs, devices) may share one identity.
type Identity string

// NewIdentity trims and validates a raw display name. The chat id
// separator is rejected so that ChatID stays unambiguous.
func NewIdentity(raw string) (Identity, error) {
	name := strings.TrimSpace(raw)
	if len(name) == 0 {
		return "", ErrIdentityEmpty
	}
	if len(name) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	if strings.Contains(name, chatIDSeparator) {
		return "", ErrIdentityInvalid
	}
	return Identity(name), nil
}
