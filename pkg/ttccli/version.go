package ttccli

import (
	"context"
	"fmt"
	"io"
	"os"
)

// VersionCheckEnv suppresses version mismatch warnings when set to any
// non-empty value.
const VersionCheckEnv = "TTCSYNC_SUPPRESS_VERSION_CHECK"

// CheckVersionMismatch warns on w when the daemon runs a different
// version than expectedVersion. It never fails the caller.
func (c *Client) CheckVersionMismatch(ctx context.Context, w io.Writer, expectedVersion string) {
	if expectedVersion == "" || os.Getenv(VersionCheckEnv) != "" {
		return
	}

	v, err := c.GetDaemonVersion(ctx)
	if err != nil {
		fmt.Fprintf(w, "Warning: could not verify daemon version: %v\n", err)
		return
	}
	if v.Version != expectedVersion {
		fmt.Fprintf(w, "Warning: CLI version (%s) differs from daemon version (%s)\n",
			expectedVersion, v.Version)
		fmt.Fprintf(w, "Run 'ttcsync stop-daemon' to restart the daemon with the new version.\n")
	}
}
