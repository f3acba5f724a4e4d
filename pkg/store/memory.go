package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/NicolasHaas/linechat/pkg/model"
)

// Memory is a map-backed account store for tests and embedding.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]model.AccountStatus
}

// NewMemory creates a Memory store seeded with accounts. Later duplicates
// of a username are ignored, mirroring the first-match rule of the file store.
func NewMemory(accounts ...model.Account) *Memory {
	m := &Memory{accounts: make(map[string]model.AccountStatus, len(accounts))}
	for _, a := range accounts {
		if _, exists := m.accounts[a.Username]; !exists {
			m.accounts[a.Username] = a.Status
		}
	}
	return m
}

// Lookup returns the stored status or StatusUnknown.
func (m *Memory) Lookup(username string) model.AccountStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.accounts[username]
	if !ok || !status.Valid() {
		return model.StatusUnknown
	}
	return status
}

// PutAccount creates or replaces an account.
func (m *Memory) PutAccount(acc model.Account) error {
	if err := acc.Validate(); err != nil {
		return fmt.Errorf("store: put account: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.Username] = acc.Status
	return nil
}

// ListAccounts returns all accounts sorted by username.
func (m *Memory) ListAccounts() ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Account, 0, len(m.accounts))
	for name, status := range m.accounts {
		if status.Valid() {
			out = append(out, model.Account{Username: name, Status: status})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Username < out[j].Username
	})
	return out, nil
}

// Close is a no-op for Memory.
func (m *Memory) Close() error {
	return nil
}
