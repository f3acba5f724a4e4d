package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/NicolasHaas/linechat/pkg/model"
)

// record is one username/status pair as written in the account file.
// code keeps the raw number so that a first match with an unrecognised
// status still shadows later records.
type record struct {
	username string
	code     int
}

// File is the flat account file store. The file holds whitespace-separated
// "<username> <status>" pairs, where status 1 is active and 0 is locked:
//
//	alice 1
//	eve 0
//
// Without a running Watch, every Lookup re-reads the file, so edits are seen
// immediately. While Watch runs, lookups are served from a snapshot that is
// reloaded whenever the file changes.
type File struct {
	path string

	mu       sync.RWMutex
	watching bool
	snapshot []record
}

// NewFile returns a store backed by the account file at path. The file does
// not have to exist yet.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the account file path.
func (f *File) Path() string {
	return f.path
}

// Lookup returns the status of the first record whose username matches
// exactly. A missing or unreadable file answers StatusUnknown.
func (f *File) Lookup(username string) model.AccountStatus {
	records, ok := f.records()
	if !ok {
		return model.StatusUnknown
	}
	for _, r := range records {
		if r.username == username {
			return model.StatusFromCode(r.code)
		}
	}
	return model.StatusUnknown
}

// ListAccounts returns the effective accounts in file order: shadowed
// duplicates and records with an unrecognised status are skipped.
func (f *File) ListAccounts() ([]model.Account, error) {
	records, err := readAccountFile(f.path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(records))
	var out []model.Account
	for _, r := range records {
		if seen[r.username] {
			continue
		}
		seen[r.username] = true
		if status := model.StatusFromCode(r.code); status.Valid() {
			out = append(out, model.Account{Username: r.username, Status: status})
		}
	}
	return out, nil
}

// Close is a no-op for File.
func (f *File) Close() error {
	return nil
}

// Watching reports whether lookups are currently served from a snapshot.
func (f *File) Watching() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.watching
}

// Watch keeps an in-memory snapshot of the file and reloads it on every
// change until ctx is cancelled. The parent directory is watched so that
// editors which replace the file by rename are handled.
func (f *File) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("store: watch accounts: %w", err)
	}
	defer func() { _ = w.Close() }()

	dir := filepath.Dir(f.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("store: watch accounts dir %s: %w", dir, err)
	}

	f.mu.Lock()
	f.snapshot = f.load()
	f.watching = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.watching = false
		f.snapshot = nil
		f.mu.Unlock()
	}()

	slog.Info("watching account file", "path", f.path)
	target := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			snap := f.load()
			f.mu.Lock()
			f.snapshot = snap
			f.mu.Unlock()
			slog.Debug("account file reloaded", "path", f.path, "records", len(snap), "op", ev.Op.String())
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("account watcher error", "path", f.path, "err", err)
		}
	}
}

// records returns the current record set, from the snapshot when watching.
func (f *File) records() ([]record, bool) {
	f.mu.RLock()
	if f.watching {
		snap := f.snapshot
		f.mu.RUnlock()
		return snap, true
	}
	f.mu.RUnlock()

	records, err := readAccountFile(f.path)
	if err != nil {
		slog.Warn("account file unreadable, treating accounts as unknown", "path", f.path, "err", err)
		return nil, false
	}
	return records, true
}

// load reads the file for a snapshot. An unreadable file yields an empty
// snapshot so every lookup degrades to unknown.
func (f *File) load() []record {
	records, err := readAccountFile(f.path)
	if err != nil {
		slog.Warn("account file unreadable, treating accounts as unknown", "path", f.path, "err", err)
		return nil
	}
	return records
}

func readAccountFile(path string) ([]record, error) {
	fh, err := os.Open(path) //nolint:gosec // path from server config
	if err != nil {
		return nil, fmt.Errorf("store: open accounts: %w", err)
	}
	defer func() { _ = fh.Close() }()
	return parseAccounts(fh)
}

// parseAccounts reads username/status pairs until EOF or the first malformed
// pair: a status that is not an integer, or a token too long to be a
// username. A dangling username without a status is ignored.
func parseAccounts(r io.Reader) ([]record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)
	sc.Split(bufio.ScanWords)

	var out []record
	for sc.Scan() {
		name := sc.Text()
		if len(name) > model.MaxUsernameLength {
			break
		}
		if !sc.Scan() {
			break
		}
		code, err := strconv.Atoi(sc.Text())
		if err != nil {
			break
		}
		out = append(out, record{username: name, code: code})
	}
	// An over-long token ends the records like any other malformed pair.
	if err := sc.Err(); err != nil && !errors.Is(err, bufio.ErrTooLong) {
		return nil, fmt.Errorf("store: parse accounts: %w", err)
	}
	return out, nil
}
