package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/NicolasHaas/linechat/pkg/model"
)

// SQL stores accounts in a SQLite database.
type SQL struct {
	db *sql.DB
}

// NewSQL opens (or creates) a SQLite database and runs migrations.
func NewSQL(dbPath string) (*SQL, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open DB: %w", err)
	}

	ctx := context.Background()

	// WAL lets lookups from many connections proceed during an import.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set busy_timeout: %w", err)
	}

	s := &SQL{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) migrate(ctx context.Context) error {
	migrations := []struct {
		version    int
		statements []string
	}{
		{
			version: 1,
			statements: []string{`
			CREATE TABLE IF NOT EXISTS accounts (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				username   TEXT    NOT NULL UNIQUE CHECK(length(username) > 0 AND length(username) <= 1024),
				status     INTEGER NOT NULL CHECK(status IN (0, 1)),
				created_at TEXT    NOT NULL DEFAULT (datetime('now'))
			)`},
		},
		{
			version: 2,
			statements: []string{
				"ALTER TABLE accounts ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''",
			},
		},
	}

	if err := s.ensureSchemaMigrations(ctx); err != nil {
		return err
	}
	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("store: migrate v%d: %w", m.version, err)
			}
		}
		if _, err := s.db.ExecContext(ctx, "UPDATE schema_migrations SET version = ?", m.version); err != nil {
			return fmt.Errorf("store: update schema version: %w", err)
		}
	}
	return nil
}

func (s *SQL) ensureSchemaMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL)"); err != nil {
		return fmt.Errorf("store: create schema_migrations: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return fmt.Errorf("store: check schema_migrations: %w", err)
	}
	if count == 0 {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (0)"); err != nil {
			return fmt.Errorf("store: init schema_migrations: %w", err)
		}
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *SQL) SchemaVersion() (int, error) {
	return s.schemaVersion(context.Background())
}

func (s *SQL) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_migrations LIMIT 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("store: read schema version: %w", err)
	}
	return version, nil
}

// Lookup returns the stored status. Query failures are logged and answered
// with StatusUnknown.
func (s *SQL) Lookup(username string) model.AccountStatus {
	var code int
	err := s.db.QueryRowContext(context.Background(), "SELECT status FROM accounts WHERE username = ?", username).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StatusUnknown
	}
	if err != nil {
		slog.Warn("account lookup failed, treating account as unknown", "user", username, "err", err)
		return model.StatusUnknown
	}
	return model.StatusFromCode(code)
}

// PutAccount inserts an account or updates the status of an existing one.
func (s *SQL) PutAccount(acc model.Account) error {
	if err := acc.Validate(); err != nil {
		return fmt.Errorf("store: put account: %w", err)
	}
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO accounts (username, status) VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET status = excluded.status, updated_at = datetime('now')`,
		acc.Username, acc.Status.Code())
	if err != nil {
		return fmt.Errorf("store: put account: %w", err)
	}
	return nil
}

// ListAccounts returns all accounts sorted by username.
func (s *SQL) ListAccounts() ([]model.Account, error) {
	rows, err := s.db.QueryContext(context.Background(), "SELECT username, status FROM accounts ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("store: list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		var code int
		if err := rows.Scan(&a.Username, &code); err != nil {
			return nil, fmt.Errorf("store: scan account: %w", err)
		}
		a.Status = model.StatusFromCode(code)
		out = append(out, a)
	}
	return out, rows.Err()
}
