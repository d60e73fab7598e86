package keyring

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

// swapKeyring replaces the keyring hooks with an in-memory map for one test.
func swapKeyring(t *testing.T, failWith error) map[string]string {
	t.Helper()
	origSet, origGet, origDelete := keyringSet, keyringGet, keyringDelete
	t.Cleanup(func() {
		keyringSet, keyringGet, keyringDelete = origSet, origGet, origDelete
	})

	mem := map[string]string{}
	keyringSet = func(app, key, value string) error {
		if failWith != nil {
			return failWith
		}
		mem[app+"/"+key] = value
		return nil
	}
	keyringGet = func(app, key string) (string, error) {
		if failWith != nil {
			return "", failWith
		}
		v, ok := mem[app+"/"+key]
		if !ok {
			return "", keyring.ErrNotFound
		}
		return v, nil
	}
	keyringDelete = func(app, key string) error {
		delete(mem, app+"/"+key)
		return nil
	}
	return mem
}

func TestKeyring_SetGetRoundtrip(t *testing.T) {
	mem := swapKeyring(t, nil)

	kr := NewKeyring()
	key, err := kr.SetKey()
	if err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	if mem["ttcsync/master"] != hex.EncodeToString(key) {
		t.Fatalf("expected hex key stored, got %q", mem["ttcsync/master"])
	}

	got, err := kr.GetKey()
	if err != nil {
		t.Fatalf("GetKey: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatalf("roundtrip failed: set %x, got %x", key, got)
	}

	if err := kr.DeleteKey(); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	if _, err := kr.GetKey(); !errors.Is(err, keyring.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestKeyring_GetKeyInvalidHex(t *testing.T) {
	mem := swapKeyring(t, nil)
	mem["ttcsync/master"] = "not-valid-hex!"

	if _, err := NewKeyring().GetKey(); err == nil {
		t.Fatal("expected error for invalid hex string")
	}
}

type recordingLogger struct{ warnings int }

func (r *recordingLogger) Warning(string, ...interface{}) { r.warnings++ }

func TestFallbackProvider_UsesFileWhenKeyringFails(t *testing.T) {
	swapKeyring(t, errors.New("dbus: no session bus"))
	dir := t.TempDir()
	l := &recordingLogger{}

	p := New(dir, l)
	if _, err := p.GetKey(); err == nil {
		t.Fatal("expected error before any key exists")
	}
	key, err := p.SetKey()
	if err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	got, err := NewFileKeyStore(dir).GetKey()
	if err != nil {
		t.Fatalf("file store GetKey: %v", err)
	}
	if !bytes.Equal(got, key) {
		t.Fatal("expected key to be written to the fallback file")
	}
	if l.warnings != 1 {
		t.Fatalf("expected exactly one degrade warning, got %d", l.warnings)
	}
}

func TestFallbackProvider_PrefersKeyring(t *testing.T) {
	mem := swapKeyring(t, nil)
	dir := t.TempDir()

	p := New(dir, nil)
	key, err := p.SetKey()
	if err != nil {
		t.Fatalf("SetKey: %v", err)
	}
	if mem["ttcsync/master"] == "" {
		t.Fatal("expected key in system keyring")
	}
	if _, err := NewFileKeyStore(dir).GetKey(); err == nil {
		t.Fatal("expected no key file when the keyring works")
	}
	got, err := p.GetKey()
	if err != nil || !bytes.Equal(got, key) {
		t.Fatalf("GetKey = %x, %v", got, err)
	}
}
