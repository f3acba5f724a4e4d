// Package store provides read-only account lookup backends.
//
// The chat core only ever needs AccountLookup. The other interfaces exist for
// administrative tooling (import/export) and are never used while serving.
package store

import (
	"fmt"

	"github.com/NicolasHaas/linechat/pkg/model"
)

// AccountLookup resolves a username to its account status. Implementations
// must be safe for concurrent use and must never fail: an unreadable backend
// answers StatusUnknown.
type AccountLookup interface {
	Lookup(username string) model.AccountStatus
}

// AccountLister enumerates stored accounts.
type AccountLister interface {
	ListAccounts() ([]model.Account, error)
}

// AccountWriter provisions accounts.
type AccountWriter interface {
	PutAccount(acc model.Account) error
}

// Backend is a lookup store the server can own and close.
type Backend interface {
	AccountLookup
	AccountLister
	Close() error
}

// Supported backend drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Compile-time checks.
var (
	_ Backend       = (*File)(nil)
	_ Backend       = (*Memory)(nil)
	_ Backend       = (*SQL)(nil)
	_ AccountWriter = (*Memory)(nil)
	_ AccountWriter = (*SQL)(nil)
)

// Open returns the backend for driver at path.
func Open(driver, path string) (Backend, error) {
	switch driver {
	case DriverFile, "":
		return NewFile(path), nil
	case DriverSQLite:
		return NewSQL(path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q (valid: %s, %s)", driver, DriverFile, DriverSQLite)
	}
}
