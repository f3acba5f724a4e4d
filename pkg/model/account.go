package model

import (
	"errors"
	"fmt"
	"unicode"
)

// MaxUsernameLength matches the widest token the flat account file parser reads.
const MaxUsernameLength = 1024

var ErrUsernameEmpty = errors.New("username must not be empty")
var ErrUsernameTooLong = fmt.Errorf("username must not exceed %d bytes", MaxUsernameLength)
var ErrUsernameInvalidChars = errors.New("username must not contain whitespace or control characters")
var ErrInvalidStatus = errors.New("invalid account status: must be active or locked")

// Account is one row of the account store.
type Account struct {
	Username string        `json:"username"`
	Status   AccountStatus `json:"status"`
}

// Validate checks the username and that the status is storable.
func (a Account) Validate() error {
	if err := ValidateUsername(a.Username); err != nil {
		return err
	}
	if !a.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// ValidateUsername checks that a username can be sent as a single protocol
// token: non-empty, at most MaxUsernameLength bytes, and free of whitespace
// and control characters.
func ValidateUsername(name string) error {
	if len(name) == 0 {
		return ErrUsernameEmpty
	}
	if len(name) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrUsernameInvalidChars
		}
	}
	return nil
}
