package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/warpdl/ttcsync/internal/api"
	"github.com/warpdl/ttcsync/internal/secscope"
	"github.com/warpdl/ttcsync/internal/settings"
	"github.com/warpdl/ttcsync/internal/updater"
)

const testSecret = "test-rpc-secret"

type dirResolver struct{}

func (dirResolver) Bookmark(path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return []byte(path), nil
}

func (dirResolver) Resolve(token []byte) (string, bool, error) { return string(token), false, nil }

type nopAccess struct{}

func (nopAccess) Stop() error { return nil }

func (dirResolver) StartAccess(string) (secscope.Access, error) { return nopAccess{}, nil }

// newTestApi returns an Api over a fresh settings store whose default
// search root is an empty temp dir.
func newTestApi(t *testing.T) (*api.Api, *settings.Store, string) {
	t.Helper()
	store, err := settings.Open(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("settings.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	root := t.TempDir()
	upd := updater.New(store, dirResolver{}, updater.Options{StageDir: t.TempDir()})
	a := api.NewApi(context.Background(), api.Config{
		Store:        store,
		Updater:      upd,
		Resolver:     dirResolver{},
		DefaultRoots: func() []string { return []string{root} },
		Version:      "1.0.0",
		Commit:       "abc123",
		BuildType:    "release",
	})
	t.Cleanup(func() { a.Close() })
	return a, store, root
}
