//go:build unix

package secscope

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestResolver(t *testing.T) *SealedResolver {
	t.Helper()
	r, err := NewSealedResolver(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatalf("NewSealedResolver: %v", err)
	}
	return r
}

func makeDest(t *testing.T) (parent, dest string) {
	t.Helper()
	parent = t.TempDir()
	dest = filepath.Join(parent, "TamrielTradeCentre")
	if err := os.Mkdir(dest, 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	return parent, dest
}

func TestSealedResolver_Roundtrip(t *testing.T) {
	r := newTestResolver(t)
	_, dest := makeDest(t)

	h, err := Create(r, dest)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if bytes.Contains(h.Token, []byte(dest)) {
		t.Fatal("token must not carry the path in the clear")
	}
	path, stale, err := r.Resolve(h.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != dest || stale {
		t.Fatalf("Resolve = %q, %v; want %q, false", path, stale, dest)
	}
}

func TestSealedResolver_StaleAfterTTL(t *testing.T) {
	r := newTestResolver(t)
	_, dest := makeDest(t)
	token, err := r.Bookmark(dest)
	if err != nil {
		t.Fatalf("Bookmark: %v", err)
	}

	r.now = func() time.Time { return time.Now().Add(DefaultTTL + time.Hour) }
	path, stale, err := r.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != dest || !stale {
		t.Fatalf("Resolve = %q, %v; want %q, true", path, stale, dest)
	}
}

func TestSealedResolver_RenamedInParentIsStale(t *testing.T) {
	r := newTestResolver(t)
	parent, dest := makeDest(t)
	token, err := r.Bookmark(dest)
	if err != nil {
		t.Fatalf("Bookmark: %v", err)
	}

	moved := filepath.Join(parent, "TTC-renamed")
	if err := os.Rename(dest, moved); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	path, stale, err := r.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != moved || !stale {
		t.Fatalf("Resolve = %q, %v; want %q, true", path, stale, moved)
	}
}

func TestSealedResolver_Gone(t *testing.T) {
	r := newTestResolver(t)
	_, dest := makeDest(t)
	token, _ := r.Bookmark(dest)
	if err := os.Remove(dest); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	_, _, err := r.Resolve(token)
	if !errors.Is(err, ErrGone) {
		t.Fatalf("expected ErrGone, got %v", err)
	}
}

func TestSealedResolver_ReplacedObject(t *testing.T) {
	r := newTestResolver(t)
	_, dest := makeDest(t)
	token, _ := r.Bookmark(dest)

	// Keep the original alive elsewhere so its inode cannot be reused.
	if err := os.Rename(dest, filepath.Join(t.TempDir(), "old")); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if err := os.Mkdir(dest, 0755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	_, _, err := r.Resolve(token)
	var ue *UnresolvableResourceError
	if !errors.As(err, &ue) || !errors.Is(err, ErrReplaced) {
		t.Fatalf("expected ErrReplaced, got %v", err)
	}
}

func TestSealedResolver_ForeignToken(t *testing.T) {
	r := newTestResolver(t)
	_, dest := makeDest(t)
	token, _ := r.Bookmark(dest)

	other, err := NewSealedResolver(bytes.Repeat([]byte{0x01}, 32))
	if err != nil {
		t.Fatalf("NewSealedResolver: %v", err)
	}
	if _, _, err := other.Resolve(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign key, got %v", err)
	}
	if _, _, err := r.Resolve([]byte("garbage")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestSealedResolver_BookmarkMissing(t *testing.T) {
	r := newTestResolver(t)
	_, err := Create(r, filepath.Join(t.TempDir(), "missing"))
	var ue *UnresolvableResourceError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnresolvableResourceError, got %v", err)
	}
}

func TestStartAccess_LockAndDoubleStop(t *testing.T) {
	_, dest := makeDest(t)

	a, err := startAccess(dest)
	if err != nil {
		t.Fatalf("startAccess: %v", err)
	}
	if _, err := startAccess(dest); !errors.Is(err, ErrAccessBusy) {
		t.Fatalf("expected ErrAccessBusy while locked, got %v", err)
	}
	if err := a.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := a.Stop(); !errors.Is(err, ErrAccessClosed) {
		t.Fatalf("expected ErrAccessClosed on second Stop, got %v", err)
	}

	b, err := startAccess(dest)
	if err != nil {
		t.Fatalf("startAccess after release: %v", err)
	}
	b.Stop()
}

func TestStartAccess_NotDirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := startAccess(f)
	var ie *InaccessibleResourceError
	if !errors.As(err, &ie) || !errors.Is(err, ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", err)
	}
}

func TestWithAccess_SealedEndToEnd(t *testing.T) {
	r := newTestResolver(t)
	parent, dest := makeDest(t)
	h, err := Create(r, dest)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	moved := filepath.Join(parent, "Moved")
	if err := os.Rename(dest, moved); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	var persisted *Handle
	n, err := WithAccess(r, h, func(path string) (int, error) {
		return 1, os.WriteFile(filepath.Join(path, "PriceTable.lua"), []byte("x"), 0644)
	}, func(nh *Handle) error { persisted = nh; return nil })
	if err != nil || n != 1 {
		t.Fatalf("WithAccess = %d, %v", n, err)
	}
	if persisted == nil || persisted.Path != moved {
		t.Fatalf("expected refreshed handle for %q, got %+v", moved, persisted)
	}
	if _, _, err := r.Resolve(persisted.Token); err != nil {
		t.Fatalf("refreshed token must resolve: %v", err)
	}
}
