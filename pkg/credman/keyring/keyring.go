// Package keyring stores the ttcsync master key in the operating system's
// keyring service, falling back to a private key file when no keyring
// daemon is reachable (headless machines, containers).
package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/zalando/go-keyring"
)

// Provider stores and retrieves a 32-byte key.
type Provider interface {
	SetKey() ([]byte, error)
	GetKey() ([]byte, error)
	DeleteKey() error
}

// Logger is the subset of logger.Logger the fallback needs.
type Logger interface {
	Warning(format string, args ...interface{})
}

type Keyring struct {
	AppName  string
	KeyField string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
	randRead      = rand.Read
)

func NewKeyring() *Keyring {
	return &Keyring{
		AppName:  "ttcsync",
		KeyField: "master",
	}
}

func (k *Keyring) SetKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := randRead(key); err != nil {
		return nil, err
	}
	if err := keyringSet(k.AppName, k.KeyField, hex.EncodeToString(key)); err != nil {
		return nil, err
	}
	return key, nil
}

func (k *Keyring) GetKey() ([]byte, error) {
	keyHex, err := keyringGet(k.AppName, k.KeyField)
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	return key, nil
}

func (k *Keyring) DeleteKey() error {
	return keyringDelete(k.AppName, k.KeyField)
}

// fallbackProvider prefers the system keyring and switches to the file
// store for the rest of its life the first time the keyring fails.
type fallbackProvider struct {
	primary  Provider
	fallback Provider
	log      Logger
	degraded bool
}

// New returns a Provider backed by the system keyring with a FileKeyStore
// in configDir as fallback.
func New(configDir string, l Logger) Provider {
	return &fallbackProvider{
		primary:  NewKeyring(),
		fallback: NewFileKeyStore(configDir),
		log:      l,
	}
}

func (p *fallbackProvider) degrade(op string, err error) {
	if !p.degraded && p.log != nil {
		p.log.Warning("system keyring unavailable (%s: %v), using key file", op, err)
	}
	p.degraded = true
}

func (p *fallbackProvider) SetKey() ([]byte, error) {
	if !p.degraded {
		key, err := p.primary.SetKey()
		if err == nil {
			return key, nil
		}
		p.degrade("set", err)
	}
	return p.fallback.SetKey()
}

func (p *fallbackProvider) GetKey() ([]byte, error) {
	if !p.degraded {
		key, err := p.primary.GetKey()
		if err == nil {
			return key, nil
		}
		if err != keyring.ErrNotFound {
			p.degrade("get", err)
		}
	}
	return p.fallback.GetKey()
}

func (p *fallbackProvider) DeleteKey() error {
	if p.degraded {
		return p.fallback.DeleteKey()
	}
	return p.primary.DeleteKey()
}
