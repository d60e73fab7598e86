package ttccli

import (
	"errors"
	"fmt"

	"github.com/creachadair/jrpc2"
	"github.com/warpdl/ttcsync/common"
)

var (
	ErrUnauthorized  = errors.New("daemon rejected the rpc secret")
	ErrDisconnected  = errors.New("daemon connection closed")
	ErrNoSecret      = errors.New("rpc secret not found, is the daemon running?")
	ErrBusy          = errors.New("operation already in progress")
	ErrNotConfigured = errors.New("not configured")
	ErrNotFound      = errors.New("not found")
	ErrInvalidParams = errors.New("invalid params")
)

// RemoteError is an error reported by the daemon.
type RemoteError struct {
	Method  string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

// Unwrap maps the daemon's error code onto the package sentinels.
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case common.CodeBusy:
		return ErrBusy
	case common.CodeNotConfigured:
		return ErrNotConfigured
	case common.CodeNotFound:
		return ErrNotFound
	case common.CodeInvalidParams:
		return ErrInvalidParams
	}
	return nil
}

func callError(method string, err error) error {
	var je *jrpc2.Error
	if errors.As(err, &je) {
		return &RemoteError{Method: method, Code: int(je.Code), Message: je.Message}
	}
	return fmt.Errorf("failed to invoke %s: %w", method, err)
}
