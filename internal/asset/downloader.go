package asset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pageloader/internal/fetch"
	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/naming"
)

const (
	// dirPerm is the permission of the assets directory.
	dirPerm = 0o755

	// filePerm is the permission of saved asset files.
	filePerm = 0o644
)

// binaryExtensions is the allowlist of image formats recorded as binary.
// The stored bytes do not depend on it.
var binaryExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".png":  true,
	".svg":  true,
}

// Progress receives per-asset events.
// Implementations must be safe for concurrent use when the downloader runs
// with a concurrency above one.
type Progress interface {
	AssetStarted(a *model.Asset)
	AssetSaved(a *model.Asset)
	AssetFailed(a *model.Asset, err error)
}

// nopProgress ignores every event.
type nopProgress struct{}

func (nopProgress) AssetStarted(*model.Asset)       {}
func (nopProgress) AssetSaved(*model.Asset)         {}
func (nopProgress) AssetFailed(*model.Asset, error) {}

// Downloader saves discovered assets into an assets directory.
type Downloader struct {
	// fetcher retrieves asset bodies.
	fetcher fetch.Fetcher

	// concurrency is the number of assets fetched at the same time.
	// One keeps strict document order.
	concurrency int

	// progress receives per-asset events.
	progress Progress
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithConcurrency sets how many assets are fetched at the same time.
// Values below one are ignored.
func WithConcurrency(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithProgress sets the receiver of per-asset events.
func WithProgress(p Progress) Option {
	return func(d *Downloader) {
		if p != nil {
			d.progress = p
		}
	}
}

// NewDownloader creates a Downloader that fetches through f.
func NewDownloader(f fetch.Fetcher, opts ...Option) *Downloader {
	d := &Downloader{
		fetcher:     f,
		concurrency: 1,
		progress:    nopProgress{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// job is one distinct asset URL and every element referencing it.
type job struct {
	url    string
	name   string
	assets []*model.Asset
}

// Download fetches and saves assets under dirPath and rewrites each element
// to "<dirName>/<file name>".
//
// No directory is created when assets is empty. An existing dirPath fails
// with model.ErrOutputExists. The first failure stops the download: a fetch
// error is returned exactly as the fetcher produced it, files saved before
// the failure stay on disk, and nothing is written for the failing asset.
func (d *Downloader) Download(ctx context.Context, assets []*model.Asset, dirName, dirPath string) error {
	if len(assets) == 0 {
		return nil
	}

	if err := os.Mkdir(dirPath, dirPerm); err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return fmt.Errorf("%w: %s", model.ErrOutputExists, dirPath)
		case errors.Is(err, fs.ErrPermission):
			return fmt.Errorf("%w: %s", model.ErrPermissionDenied, dirPath)
		default:
			return fmt.Errorf("failed to create assets directory: %w", err)
		}
	}

	jobs := plan(assets)
	if d.concurrency == 1 {
		for _, j := range jobs {
			if err := d.save(ctx, j, dirName, dirPath); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return d.save(gctx, j, dirName, dirPath)
		})
	}
	return g.Wait()
}

// plan groups assets by URL, keeping the order of first appearance.
func plan(assets []*model.Asset) []*job {
	jobs := make([]*job, 0, len(assets))
	byURL := make(map[string]*job, len(assets))
	for _, a := range assets {
		if j, ok := byURL[a.URL]; ok {
			j.assets = append(j.assets, a)
			continue
		}
		j := &job{url: a.URL, name: FileName(a.URL), assets: []*model.Asset{a}}
		byURL[a.URL] = j
		jobs = append(jobs, j)
	}
	return jobs
}

// save fetches one URL, writes it and rewrites every element referencing it.
func (d *Downloader) save(ctx context.Context, j *job, dirName, dirPath string) error {
	primary := j.assets[0]
	for _, a := range j.assets {
		d.progress.AssetStarted(a)
	}

	resp, err := d.fetcher.Fetch(ctx, j.url)
	if err != nil {
		d.progress.AssetFailed(primary, err)
		return err
	}

	path := naming.GeneratePath(dirPath, j.name)
	if err := writeFile(path, resp.Body); err != nil {
		d.progress.AssetFailed(primary, err)
		return err
	}

	digest := model.Digest(resp.Body)
	localPath := dirName + "/" + j.name
	for _, a := range j.assets {
		a.FileName = j.name
		a.LocalPath = localPath
		a.Binary = IsBinary(j.name)
		a.Size = int64(len(resp.Body))
		a.Digest = digest
		a.SetReference(localPath)
	}
	// Only the first element owns the bytes on disk.
	for _, a := range j.assets[1:] {
		a.Size = 0
	}

	for _, a := range j.assets {
		d.progress.AssetSaved(a)
	}
	return nil
}

// writeFile creates path exclusively and writes body to it.
// A partially written file is removed.
func writeFile(path string, body []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm) //nolint:gosec // path is built from a sanitized name
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", model.ErrOutputExists, path)
		}
		return fmt.Errorf("failed to create asset file: %w", err)
	}
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to write asset file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close asset file: %w", err)
	}
	return nil
}

// FileName returns the name an asset URL is saved under.
// URLs without an extension are saved as HTML.
func FileName(assetURL string) string {
	if naming.Extension(assetURL) == "" {
		return naming.GenerateName(assetURL, naming.PageExtension)
	}
	return naming.GenerateName(assetURL, "")
}

// IsBinary reports whether a file name belongs to the binary image allowlist.
func IsBinary(name string) bool {
	return binaryExtensions[strings.ToLower(filepath.Ext(name))]
}
