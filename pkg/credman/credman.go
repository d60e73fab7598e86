// Package credman owns the ttcsync master key and the per-purpose keys
// derived from it.
package credman

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/warpdl/ttcsync/pkg/credman/keyring"
	zkeyring "github.com/zalando/go-keyring"
	"golang.org/x/crypto/hkdf"
)

const KeySize = 32

// Purposes for DeriveKey. Changing one invalidates everything sealed under it.
const (
	PurposeResourceHandle = "ttcsync resource handle v1"
	PurposeRPCSecret      = "ttcsync rpc secret v1"
)

// MasterKey returns the stored master key, generating and storing one on
// first use.
func MasterKey(p keyring.Provider) ([]byte, error) {
	key, err := p.GetKey()
	if err == nil {
		if len(key) != KeySize {
			return nil, fmt.Errorf("master key has length %d, want %d", len(key), KeySize)
		}
		return key, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("load master key: %w", err)
	}
	key, err = p.SetKey()
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return key, nil
}

// DeriveKey expands master into a KeySize key bound to purpose.
func DeriveKey(master []byte, purpose string) ([]byte, error) {
	if len(master) == 0 {
		return nil, errors.New("empty master key")
	}
	out := make([]byte, KeySize)
	r := hkdf.New(sha256.New, master, nil, []byte(purpose))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, zkeyring.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
