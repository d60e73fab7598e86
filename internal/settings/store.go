// Package settings is the durable key/value store for ttcsync preferences
// and the destination handle. Observers are notified synchronously after
// every successful write, in commit order.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/warpdl/ttcsync/pkg/logger"
	_ "modernc.org/sqlite"
)

const busyTimeout = 5 * time.Second

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("settings: store closed")

// Change describes one successful write. Deleted is true when the key was
// removed, in which case Value is empty.
type Change struct {
	Key     string
	Value   string
	Deleted bool
}

type observer struct {
	id int
	fn func(Change)
}

// Store is a sqlite-backed settings store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	log  logger.Logger

	// writeMu is held from commit through observer delivery so observers
	// see changes in the order they were committed.
	writeMu sync.Mutex

	mu        sync.Mutex
	observers []observer
	nextID    int
	closed    bool
}

// Open opens (creating if needed) the settings database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("settings: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", int(busyTimeout.Milliseconds())),
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("settings: apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`); err != nil {
		db.Close()
		return nil, fmt.Errorf("settings: apply schema: %w", err)
	}
	return &Store{db: db, path: path, log: logger.NewNopLogger()}, nil
}

// SetLogger replaces the logger used for recoverable read problems.
func (s *Store) SetLogger(l logger.Logger) {
	if l != nil {
		s.log = l
	}
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database. Subsequent operations return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Get returns the value stored under key. ok is false when the key is unset.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", false, ErrClosed
	}
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("settings: get %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts key. The value is durable when Set returns.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO settings (key, value, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(key) DO UPDATE SET
            value = excluded.value,
            updated_at = CURRENT_TIMESTAMP`, key, value)
	obs := s.snapshotObservers()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("settings: set %q: %w", key, err)
	}
	notify(obs, Change{Key: key, Value: value})
	return nil
}

// Delete removes key. Deleting an unset key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
	obs := s.snapshotObservers()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("settings: delete %q: %w", key, err)
	}
	notify(obs, Change{Key: key, Deleted: true})
	return nil
}

// Subscribe registers fn to be called after every successful write, in
// subscription order, on the writing goroutine. fn may read the store but
// must not write to it. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// snapshotObservers must be called with s.mu held.
func (s *Store) snapshotObservers() []observer {
	if len(s.observers) == 0 {
		return nil
	}
	out := make([]observer, len(s.observers))
	copy(out, s.observers)
	return out
}

func notify(obs []observer, c Change) {
	for _, o := range obs {
		o.fn(c)
	}
}
