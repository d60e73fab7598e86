package secscope

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/warpdl/ttcsync/pkg/credman"
	"github.com/warpdl/ttcsync/pkg/credman/encryption"
)

// DefaultTTL is how long a token is used before it is reissued.
const DefaultTTL = 7 * 24 * time.Hour

var tokenAAD = []byte("ttcsync/secscope/token")

type tokenPayload struct {
	Path     string    `json:"path"`
	Dev      uint64    `json:"dev"`
	Ino      uint64    `json:"ino"`
	IssuedAt time.Time `json:"issuedAt"`
}

// SealedResolver binds tokens to the identity (device and inode) of the
// object they were minted for and seals them with a key derived from the
// master key, so a token cannot be forged or moved to another object.
type SealedResolver struct {
	key []byte
	// TTL after which Resolve reports a token as stale.
	TTL time.Duration
	now func() time.Time
}

// NewSealedResolver derives the sealing key from master.
func NewSealedResolver(master []byte) (*SealedResolver, error) {
	key, err := credman.DeriveKey(master, credman.PurposeResourceHandle)
	if err != nil {
		return nil, fmt.Errorf("derive handle key: %w", err)
	}
	return &SealedResolver{key: key, TTL: DefaultTTL, now: time.Now}, nil
}

func (r *SealedResolver) Bookmark(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	id, err := fileIdentity(abs)
	if err != nil {
		return nil, err
	}
	plain, err := json.Marshal(tokenPayload{
		Path:     abs,
		Dev:      id.dev,
		Ino:      id.ino,
		IssuedAt: r.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return encryption.Seal(plain, r.key, tokenAAD)
}

func (r *SealedResolver) Resolve(token []byte) (string, bool, error) {
	plain, err := encryption.Open(token, r.key, tokenAAD)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var p tokenPayload
	if err := json.Unmarshal(plain, &p); err != nil || p.Path == "" {
		return "", false, ErrInvalidToken
	}
	want := identity{dev: p.Dev, ino: p.Ino}
	stale := r.TTL > 0 && r.now().Sub(p.IssuedAt) > r.TTL

	id, err := fileIdentity(p.Path)
	switch {
	case err == nil:
		if !id.same(want) {
			return "", false, &UnresolvableResourceError{Path: p.Path, Err: ErrReplaced}
		}
		return p.Path, stale, nil
	case errors.Is(err, os.ErrNotExist):
		moved, ok := findInDir(filepath.Dir(p.Path), want)
		if !ok {
			return "", false, &UnresolvableResourceError{Path: p.Path, Err: ErrGone}
		}
		return moved, true, nil
	default:
		return "", false, &UnresolvableResourceError{Path: p.Path, Err: err}
	}
}

func (r *SealedResolver) StartAccess(path string) (Access, error) {
	return startAccess(path)
}

type identity struct {
	dev, ino uint64
}

// same treats a zero identity as unknown, which only happens on platforms
// without inode numbers.
func (i identity) same(o identity) bool {
	if i == (identity{}) || o == (identity{}) {
		return true
	}
	return i == o
}

func findInDir(dir string, want identity) (string, bool) {
	if want == (identity{}) {
		return "", false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		id, err := fileIdentity(p)
		if err == nil && id == want {
			return p, true
		}
	}
	return "", false
}
