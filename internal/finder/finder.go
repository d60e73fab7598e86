// Package finder locates the TamrielTradeCentre add-on folder below a set
// of root directories.
package finder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// TargetName is the folder the price table is extracted into.
const TargetName = "TamrielTradeCentre"

var ErrNotFound = errors.New(TargetName + " folder not found")

// errFound stops the walk at the first match.
var errFound = errors.New("found")

// packageExts are directories that are opaque bundles, not folders a user
// keeps add-ons in.
var packageExts = map[string]bool{
	".app":       true,
	".bundle":    true,
	".framework": true,
	".plugin":    true,
	".pkg":       true,
}

// Find walks each root in order and returns the first directory named
// exactly TargetName. Files with that name are passed over. Hidden entries and package bundles are skipped, as are
// unreadable subdirectories. Missing roots are ignored.
func Find(ctx context.Context, fs afero.Fs, roots []string) (string, error) {
	for _, root := range roots {
		if ok, _ := afero.DirExists(fs, root); !ok {
			continue
		}
		var found string
		err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			name := info.Name()
			if path != root && skip(name, info.IsDir()) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if name == TargetName && info.IsDir() {
				found = path
				return errFound
			}
			return nil
		})
		switch {
		case errors.Is(err, errFound):
			return found, nil
		case err != nil:
			return "", err
		}
	}
	return "", ErrNotFound
}

func skip(name string, dir bool) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return dir && packageExts[strings.ToLower(filepath.Ext(name))]
}
