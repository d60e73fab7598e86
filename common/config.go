package common

import (
	"os"
	"path/filepath"
	"strconv"
)

// File names inside the configuration directory.
const (
	SettingsFile = "settings.db"
	SecretFile   = "rpc.secret"
	PidFile      = "daemon.pid"
	StagingDir   = "staging"
)

// ConfigDir returns the ttcsync configuration directory: $TTCSYNC_CONFIG_DIR
// if set, otherwise <user config dir>/ttcsync.
func ConfigDir() (string, error) {
	if dir := os.Getenv(ConfigDirEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "ttcsync"), nil
}

// RPCPort returns the daemon port from $TTCSYNC_RPC_PORT or DefaultRPCPort.
func RPCPort() int {
	if v := os.Getenv(RPCPortEnv); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p < 65536 {
			return p
		}
	}
	return DefaultRPCPort
}

// DebugEnabled reports whether $TTCSYNC_DEBUG is set to a true value.
func DebugEnabled() bool {
	v, _ := strconv.ParseBool(os.Getenv(DebugEnv))
	return v
}
