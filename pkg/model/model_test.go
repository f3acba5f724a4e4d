package model

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid simple", "alice", nil},
		{"valid with numbers", "user123", nil},
		{"valid punctuation", "first.last@example", nil},
		{"valid unicode", "ñoño", nil},
		{"valid max length", strings.Repeat("a", MaxUsernameLength), nil},
		{"empty", "", ErrUsernameEmpty},
		{"too long", strings.Repeat("a", MaxUsernameLength+1), ErrUsernameTooLong},
		{"contains space", "has space", ErrUsernameInvalidChars},
		{"tab character", "user\tname", ErrUsernameInvalidChars},
		{"carriage return", "user\rname", ErrUsernameInvalidChars},
		{"newline", "user\nname", ErrUsernameInvalidChars},
		{"nul byte", "user\x00", ErrUsernameInvalidChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.input)
			if err != tt.wantErr {
				t.Errorf("ValidateUsername(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestStatusFromCode(t *testing.T) {
	tests := []struct {
		code int
		want AccountStatus
	}{
		{1, StatusActive},
		{0, StatusLocked},
		{2, StatusUnknown},
		{-1, StatusUnknown},
		{42, StatusUnknown},
	}

	for _, tt := range tests {
		if got := StatusFromCode(tt.code); got != tt.want {
			t.Errorf("StatusFromCode(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestStatusCodeRoundTrip(t *testing.T) {
	for _, s := range []AccountStatus{StatusActive, StatusLocked} {
		if got := StatusFromCode(s.Code()); got != s {
			t.Errorf("StatusFromCode(%v.Code()) = %v", s, got)
		}
	}
	if StatusUnknown.Valid() {
		t.Errorf("StatusUnknown must not be storable")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    AccountStatus
		wantErr bool
	}{
		{"active", StatusActive, false},
		{"LOCKED", StatusLocked, false},
		{" Active ", StatusActive, false},
		{"unknown", StatusUnknown, true},
		{"", StatusUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidStatus) {
				t.Fatalf("ParseStatus(%q) error = %v, want ErrInvalidStatus", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAccountValidate(t *testing.T) {
	if err := (Account{Username: "alice", Status: StatusActive}).Validate(); err != nil {
		t.Fatalf("Validate: unexpected error: %v", err)
	}
	if err := (Account{Username: "alice", Status: StatusUnknown}).Validate(); err != ErrInvalidStatus {
		t.Fatalf("Validate: got %v, want ErrInvalidStatus", err)
	}
	if err := (Account{Username: "a b", Status: StatusLocked}).Validate(); err != ErrUsernameInvalidChars {
		t.Fatalf("Validate: got %v, want ErrUsernameInvalidChars", err)
	}
}

func TestSessionStateString(t *testing.T) {
	if LoggedOut.String() != "logged_out" || LoggedIn.String() != "logged_in" {
		t.Fatalf("unexpected state names: %s %s", LoggedOut, LoggedIn)
	}
}
