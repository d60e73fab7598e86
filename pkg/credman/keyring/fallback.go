package keyring

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	keyFileName = "ttcsync.key"
	keyFileMode = 0600
)

// FileKeyStore keeps the key hex-encoded in configDir/ttcsync.key with
// 0600 permissions. It is the fallback when the system keyring is unavailable.
type FileKeyStore struct {
	configDir string
}

var (
	fileRandRead  = rand.Read
	fileReadFile  = os.ReadFile
	fileRemove    = os.Remove
	fileRename    = os.Rename
	fileMkdirAll  = os.MkdirAll
	fileCreateTmp = os.CreateTemp
)

func NewFileKeyStore(configDir string) *FileKeyStore {
	return &FileKeyStore{configDir: configDir}
}

func (f *FileKeyStore) keyPath() string {
	return filepath.Join(f.configDir, keyFileName)
}

// SetKey generates a fresh random key and replaces the key file atomically.
func (f *FileKeyStore) SetKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := fileRandRead(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	if err := WriteFileAtomic(f.keyPath(), []byte(hex.EncodeToString(key)), keyFileMode); err != nil {
		return nil, err
	}
	return key, nil
}

// GetKey reads and validates the stored key. A missing file yields an
// error satisfying os.IsNotExist.
func (f *FileKeyStore) GetKey() ([]byte, error) {
	data, err := fileReadFile(f.keyPath())
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid key format: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid key length: expected 32, got %d", len(key))
	}
	return key, nil
}

func (f *FileKeyStore) DeleteKey() error {
	return fileRemove(f.keyPath())
}

// WriteFileAtomic writes data next to path under a temporary name, sets mode
// and renames it into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fileMkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp, err := fileCreateTmp(dir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fileRemove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fileRemove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		fileRemove(tmpPath)
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := fileRename(tmpPath, path); err != nil {
		fileRemove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
