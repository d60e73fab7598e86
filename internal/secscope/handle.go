// Package secscope implements persistable, revalidatable handles to a
// filesystem location the process must re-authorize on every use.
//
// A Handle carries an opaque token minted by a Resolver. Every use goes
// through WithAccess, which resolves the token, transparently replaces a
// stale one, and brackets the caller's action in an access window that is
// closed exactly once.
package secscope

import (
	"errors"
	"fmt"
)

// Handle is the persisted form of an access grant. Handles are values:
// a refresh produces a new Handle, it never mutates the old one.
type Handle struct {
	// Path is the logical location, for display and comparison only.
	Path string `json:"path"`
	// Token is opaque to everything but the Resolver that minted it.
	Token []byte `json:"token"`
}

// Valid reports whether the handle carries a token at all.
func (h *Handle) Valid() bool {
	return h != nil && len(h.Token) > 0
}

// Resolver mints and checks handle tokens and opens access windows.
type Resolver interface {
	// Bookmark captures a token for the object currently at path.
	Bookmark(path string) ([]byte, error)
	// Resolve returns the current path of the object token refers to.
	// stale is true when the token still works but should be replaced.
	Resolve(token []byte) (path string, stale bool, err error)
	// StartAccess opens an access window on path.
	StartAccess(path string) (Access, error)
}

// Access is an open access window.
type Access interface {
	Stop() error
}

// Create mints a new handle for path.
func Create(r Resolver, path string) (*Handle, error) {
	token, err := r.Bookmark(path)
	if err != nil {
		return nil, asUnresolvable(path, err)
	}
	return &Handle{Path: path, Token: token}, nil
}

// WithAccess resolves h, refreshes it when stale, opens an access window
// and runs action with the resolved path.
//
// onRefresh receives the replacement handle exactly once, before action
// runs; an error from it aborts the call. If the window cannot be opened,
// action is not called. The window is closed exactly once on every exit
// path, including a panic in action.
func WithAccess[T any](r Resolver, h *Handle, action func(path string) (T, error), onRefresh func(*Handle) error) (result T, err error) {
	if !h.Valid() {
		var path string
		if h != nil {
			path = h.Path
		}
		return result, &UnresolvableResourceError{Path: path, Err: ErrInvalidToken}
	}

	path, stale, err := r.Resolve(h.Token)
	if err != nil {
		return result, asUnresolvable(h.Path, err)
	}

	if stale {
		fresh, err := Create(r, path)
		if err != nil {
			return result, err
		}
		if onRefresh != nil {
			if err := onRefresh(fresh); err != nil {
				return result, fmt.Errorf("persist refreshed handle: %w", err)
			}
		}
	}

	access, err := r.StartAccess(path)
	if err != nil {
		var ia *InaccessibleResourceError
		if errors.As(err, &ia) {
			return result, err
		}
		return result, &InaccessibleResourceError{Path: path, Err: err}
	}
	defer func() {
		if stopErr := access.Stop(); stopErr != nil && err == nil {
			err = fmt.Errorf("close access to %s: %w", path, stopErr)
		}
	}()

	return action(path)
}

func asUnresolvable(path string, err error) error {
	var ue *UnresolvableResourceError
	if errors.As(err, &ue) {
		return err
	}
	return &UnresolvableResourceError{Path: path, Err: err}
}
