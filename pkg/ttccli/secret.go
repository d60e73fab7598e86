package ttccli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warpdl/ttcsync/common"
)

// LoadSecret returns the bearer token from $TTCSYNC_RPC_SECRET, or from
// the rpc.secret file the daemon writes into the config directory.
func LoadSecret() (string, error) {
	if s := os.Getenv(common.RPCSecretEnv); s != "" {
		return s, nil
	}
	dir, err := common.ConfigDir()
	if err != nil {
		return "", err
	}
	return ReadSecretFile(filepath.Join(dir, common.SecretFile))
}

func ReadSecretFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoSecret
		}
		return "", fmt.Errorf("error reading rpc secret: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", ErrNoSecret
	}
	return s, nil
}
