//go:build !unix

package secscope

import (
	"os"
	"sync/atomic"
)

func fileIdentity(path string) (identity, error) {
	if _, err := os.Stat(path); err != nil {
		return identity{}, err
	}
	return identity{}, nil
}

type statAccess struct {
	closed atomic.Bool
}

func startAccess(path string) (Access, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, &InaccessibleResourceError{Path: path, Err: err}
	}
	if !fi.IsDir() {
		return nil, &InaccessibleResourceError{Path: path, Err: ErrNotDirectory}
	}
	return &statAccess{}, nil
}

func (a *statAccess) Stop() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrAccessClosed
	}
	return nil
}
