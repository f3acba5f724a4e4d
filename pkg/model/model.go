// Package model defines the core domain types for linechat.
package model

import (
	"fmt"
	"strings"
)

// AccountStatus is the result of an account lookup.
type AccountStatus int

const (
	StatusUnknown AccountStatus = iota // no such account, or the store could not be read
	StatusActive                       // may log in
	StatusLocked                       // exists but may not log in
)

func (s AccountStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Valid reports whether s can be stored on an account record.
// Unknown is a lookup result, never a stored status.
func (s AccountStatus) Valid() bool {
	return s == StatusActive || s == StatusLocked
}

// Code returns the numeric form used by the flat account file
// (1 = active, 0 = locked, -1 otherwise).
func (s AccountStatus) Code() int {
	switch s {
	case StatusActive:
		return 1
	case StatusLocked:
		return 0
	default:
		return -1
	}
}

// StatusFromCode maps a flat-file status number to a status. Anything other
// than 1 or 0 is treated as an unknown account.
func StatusFromCode(code int) AccountStatus {
	switch code {
	case 1:
		return StatusActive
	case 0:
		return StatusLocked
	default:
		return StatusUnknown
	}
}

// ParseStatus converts "active" or "locked" (case-insensitive) to a status.
func ParseStatus(s string) (AccountStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StatusActive, nil
	case "locked":
		return StatusLocked, nil
	default:
		return StatusUnknown, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// SessionState is the authentication state of one connection.
type SessionState int

const (
	LoggedOut SessionState = iota
	LoggedIn
)

func (s SessionState) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}
