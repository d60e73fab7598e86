//go:build unix

package secscope

import (
	"errors"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

func fileIdentity(path string) (identity, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return identity{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return identity{dev: uint64(st.Dev), ino: uint64(st.Ino)}, nil
}

// dirAccess holds an exclusive advisory lock on an open directory.
type dirAccess struct {
	fd     int
	closed atomic.Bool
}

func startAccess(path string) (Access, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		if errors.Is(err, unix.ENOTDIR) {
			return nil, &InaccessibleResourceError{Path: path, Err: ErrNotDirectory}
		}
		return nil, &InaccessibleResourceError{Path: path, Err: err}
	}
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		unix.Close(fd)
		if errors.Is(err, unix.EWOULDBLOCK) {
			err = ErrAccessBusy
		}
		return nil, &InaccessibleResourceError{Path: path, Err: err}
	}
	if err := unix.Access(path, unix.W_OK); err != nil {
		unix.Flock(fd, unix.LOCK_UN)
		unix.Close(fd)
		return nil, &InaccessibleResourceError{Path: path, Err: err}
	}
	return &dirAccess{fd: fd}, nil
}

func (a *dirAccess) Stop() error {
	if !a.closed.CompareAndSwap(false, true) {
		return ErrAccessClosed
	}
	unix.Flock(a.fd, unix.LOCK_UN)
	return unix.Close(a.fd)
}
