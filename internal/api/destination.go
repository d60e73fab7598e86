package api

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/warpdl/ttcsync/common"
	"github.com/warpdl/ttcsync/internal/finder"
	"github.com/warpdl/ttcsync/internal/secscope"
)

// SearchDestination looks for the TamrielTradeCentre folder below roots,
// or below the default AddOns locations when roots is empty, and stores a
// handle for it. Only one search runs at a time.
func (a *Api) SearchDestination(ctx context.Context, roots []string) (string, error) {
	if !a.searching.CompareAndSwap(false, true) {
		return "", ErrSearchInProgress
	}
	defer a.searching.Store(false)

	if len(roots) == 0 {
		roots = a.roots()
	}
	a.push(common.NotifySearchState, &common.SearchStateNotification{Searching: true})
	a.log.Info("api: searching %d roots for %s", len(roots), finder.TargetName)

	path, err := finder.Find(ctx, a.fs, roots)
	if err == nil {
		err = a.grant(ctx, path)
	}

	done := &common.SearchStateNotification{Path: path}
	if err != nil {
		done.Path = ""
		done.Error = err.Error()
	}
	a.push(common.NotifySearchState, done)
	if err != nil {
		return "", err
	}
	return path, nil
}

// SetDestination stores a handle for an explicitly chosen folder.
func (a *Api) SetDestination(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := a.grant(ctx, abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (a *Api) ClearDestination(ctx context.Context) error {
	return a.store.ClearDestination(ctx)
}

// grant stores a handle for path, which must be a directory.
func (a *Api) grant(ctx context.Context, path string) error {
	fi, err := a.fs.Stat(path)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	h, err := secscope.Create(a.resolver, path)
	if err != nil {
		return err
	}
	if err := a.store.SetDestination(ctx, h); err != nil {
		return err
	}
	a.log.Info("api: destination set to %s", path)
	return nil
}
