package updater

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// maxExtractedSize bounds the total uncompressed size of an archive.
const maxExtractedSize = 1 << 30

var ErrUnsafeEntry = errors.New("entry escapes the destination")

// extractArchive unpacks the zip at src on srcFs into dest, overwriting
// files with the same name. dest is expected to be rooted at the
// destination folder, so every entry name is relative to it.
func extractArchive(srcFs afero.Fs, src string, dest afero.Fs) (int, error) {
	f, err := srcFs.Open(src)
	if err != nil {
		return 0, &ExtractionError{Err: err}
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return 0, &ExtractionError{Err: err}
	}
	zr, err := zip.NewReader(f, fi.Size())
	if errors.Is(err, zip.ErrInsecurePath) {
		err = fmt.Errorf("%w: %v", ErrUnsafeEntry, err)
	}
	if err != nil {
		return 0, &ExtractionError{Err: err}
	}

	var (
		files   int
		written int64
	)
	for _, zf := range zr.File {
		name, err := entryPath(zf.Name)
		if err != nil {
			return files, &ExtractionError{Entry: zf.Name, Err: err}
		}
		if zf.FileInfo().IsDir() {
			if err := dest.MkdirAll(name, 0755); err != nil {
				return files, &ExtractionError{Entry: zf.Name, Err: err}
			}
			continue
		}
		if !zf.Mode().IsRegular() {
			return files, &ExtractionError{Entry: zf.Name, Err: fmt.Errorf("unsupported file mode %s", zf.Mode())}
		}
		n, err := extractFile(zf, dest, name, maxExtractedSize-written)
		if err != nil {
			return files, &ExtractionError{Entry: zf.Name, Err: err}
		}
		written += n
		files++
	}
	return files, nil
}

func extractFile(zf *zip.File, dest afero.Fs, name string, budget int64) (int64, error) {
	if dir := filepath.Dir(name); dir != "." {
		if err := dest.MkdirAll(dir, 0755); err != nil {
			return 0, err
		}
	}
	rc, err := zf.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	out, err := dest.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, io.LimitReader(rc, budget+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}
	if n > budget {
		return n, errors.New("archive expands beyond size limit")
	}
	return n, nil
}

// entryPath validates a zip entry name and converts it to a relative
// OS path.
func entryPath(name string) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if slashed == "" || path.IsAbs(slashed) || filepath.VolumeName(slashed) != "" {
		return "", ErrUnsafeEntry
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrUnsafeEntry
	}
	return filepath.FromSlash(cleaned), nil
}
