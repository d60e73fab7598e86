// Package common provides shared types and constants used across the
// ttcsync daemon, its RPC server and the CLI client.
package common

// Environment variable names for configuration.
const (
	// ConfigDirEnv overrides the configuration directory.
	ConfigDirEnv = "TTCSYNC_CONFIG_DIR"

	// RPCPortEnv overrides the loopback port the daemon listens on.
	RPCPortEnv = "TTCSYNC_RPC_PORT"

	// RPCSecretEnv sets the bearer token instead of the rpc.secret file.
	RPCSecretEnv = "TTCSYNC_RPC_SECRET"

	// ServiceDomainEnv overrides tamrieltradecentre.com.
	ServiceDomainEnv = "TTCSYNC_SERVICE_DOMAIN"

	// KeyEnv supplies the master key as 64 hex characters, bypassing the keyring.
	KeyEnv = "TTCSYNC_KEY"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "TTCSYNC_DEBUG"
)

const DefaultRPCPort = 7737
