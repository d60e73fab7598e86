package secscope

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken = errors.New("invalid or foreign token")
	ErrGone         = errors.New("resource no longer exists")
	ErrReplaced     = errors.New("a different object now occupies the path")
	ErrNotDirectory = errors.New("resource is not a directory")
	ErrAccessBusy   = errors.New("resource is locked by another process")
	ErrAccessClosed = errors.New("access already closed")
)

// UnresolvableResourceError means a handle can no longer be turned into a
// path. The user has to grant access again.
type UnresolvableResourceError struct {
	Path string
	Err  error
}

func (e *UnresolvableResourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unresolvable resource: %v", e.Err)
	}
	return fmt.Sprintf("unresolvable resource %s: %v", e.Path, e.Err)
}

func (e *UnresolvableResourceError) Unwrap() error { return e.Err }

// InaccessibleResourceError means the handle resolved but the access
// window could not be opened.
type InaccessibleResourceError struct {
	Path string
	Err  error
}

func (e *InaccessibleResourceError) Error() string {
	return fmt.Sprintf("inaccessible resource %s: %v", e.Path, e.Err)
}

func (e *InaccessibleResourceError) Unwrap() error { return e.Err }
