package store

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/linechat/pkg/model"
)

// AccountYAML represents an account in YAML import/export.
type AccountYAML struct {
	Username string `yaml:"username"`
	Status   string `yaml:"status"`
}

// AccountsFile is the top-level YAML document.
type AccountsFile struct {
	Accounts []AccountYAML `yaml:"accounts"`
}

// ExportAccountsYAML exports all accounts as YAML.
func ExportAccountsYAML(l AccountLister) ([]byte, error) {
	accounts, err := l.ListAccounts()
	if err != nil {
		return nil, err
	}
	doc := AccountsFile{Accounts: make([]AccountYAML, 0, len(accounts))}
	for _, a := range accounts {
		doc.Accounts = append(doc.Accounts, AccountYAML{
			Username: a.Username,
			Status:   a.Status.String(),
		})
	}
	return yaml.Marshal(&doc)
}

// LoadAccountsYAML reads a YAML accounts file and writes every entry to w.
func LoadAccountsYAML(path string, w AccountWriter) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from CLI
	if err != nil {
		return 0, fmt.Errorf("store: read accounts yaml: %w", err)
	}
	return ImportAccountsYAML(data, w)
}

// ImportAccountsYAML parses YAML data and writes every entry to w. Invalid
// entries are logged and skipped; the count of imported accounts is returned.
func ImportAccountsYAML(data []byte, w AccountWriter) (int, error) {
	var doc AccountsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("store: parse accounts yaml: %w", err)
	}

	imported := 0
	for _, entry := range doc.Accounts {
		status, err := model.ParseStatus(entry.Status)
		if err != nil {
			slog.Error("skipping account", "user", entry.Username, "err", err)
			continue
		}
		if err := w.PutAccount(model.Account{Username: entry.Username, Status: status}); err != nil {
			slog.Error("skipping account", "user", entry.Username, "err", err)
			continue
		}
		imported++
	}
	slog.Info("imported accounts from YAML", "count", imported)
	return imported, nil
}
