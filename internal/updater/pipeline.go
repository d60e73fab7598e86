package updater

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/warpdl/ttcsync/internal/secscope"
)

func (u *Updater) pipeline(ctx context.Context) error {
	handle, err := u.store.Destination(ctx)
	if err != nil {
		return fmt.Errorf("read destination: %w", err)
	}
	if !handle.Valid() {
		return ErrNoDestination
	}
	region, err := u.store.Region(ctx)
	if err != nil {
		return fmt.Errorf("read region: %w", err)
	}
	endpoint, err := u.opts.Endpoint(region)
	if err != nil {
		return err
	}

	data, err := u.download(ctx, endpoint)
	if err != nil {
		return &StepError{Step: StepDownload, Err: err}
	}

	staged, err := u.stage(data)
	if err != nil {
		return &StepError{Step: StepStage, Err: err}
	}
	defer u.unstage(staged)

	n, err := secscope.WithAccess(u.resolver, handle, func(dest string) (int, error) {
		return extractArchive(u.opts.StageFs, staged, afero.NewBasePathFs(u.opts.DestFs, dest))
	}, func(fresh *secscope.Handle) error {
		u.log.Info("update: refreshing destination handle for %s", fresh.Path)
		return u.store.SetDestination(ctx, fresh)
	})
	if err != nil {
		return &StepError{Step: StepExtract, Err: err}
	}
	u.log.Debug("update: extracted %d files", n)

	if err := u.store.SetLastUpdate(ctx, u.opts.Now()); err != nil {
		return &StepError{Step: StepCommit, Err: err}
	}
	return nil
}

func (u *Updater) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, u.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", u.opts.UserAgent)
	req.Header.Set("Accept", "application/zip, application/octet-stream")

	u.log.Info("update: downloading %s", url)
	resp, err := u.opts.Client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > MaxArchiveSize {
		return nil, fmt.Errorf("%w: %s", ErrArchiveTooLarge, humanize.IBytes(uint64(resp.ContentLength)))
	}

	var body io.Reader = io.LimitReader(resp.Body, MaxArchiveSize+1)
	if u.opts.Progress != nil {
		body = &progressReader{r: body, total: resp.ContentLength, fn: u.opts.Progress}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	if len(data) > MaxArchiveSize {
		return nil, fmt.Errorf("%w: more than %s", ErrArchiveTooLarge, humanize.IBytes(MaxArchiveSize))
	}
	u.log.Debug("update: downloaded %s", humanize.IBytes(uint64(len(data))))
	return data, nil
}

func (u *Updater) stage(data []byte) (string, error) {
	fs := u.opts.StageFs
	if err := fs.MkdirAll(u.opts.StageDir, 0700); err != nil {
		return "", fmt.Errorf("create staging directory: %w", err)
	}
	name := filepath.Join(u.opts.StageDir, uuid.NewString()+".zip")
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		fs.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		fs.Remove(name)
		return "", err
	}
	return name, nil
}

func (u *Updater) unstage(name string) {
	if err := u.opts.StageFs.Remove(name); err != nil && !os.IsNotExist(err) {
		u.log.Warning("update: remove staged archive %s: %v", name, err)
	}
}

type progressReader struct {
	r     io.Reader
	read  int64
	total int64
	fn    func(read, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.fn(p.read, p.total)
	}
	return n, err
}
