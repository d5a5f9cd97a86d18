package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/pageloader/internal/asset"
	"github.com/nao1215/pageloader/internal/fetch"
	"github.com/nao1215/pageloader/internal/htmldoc"
	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/naming"
	"github.com/nao1215/pageloader/internal/pipeline"
	"github.com/nao1215/pageloader/internal/urlnorm"
)

// Step names, in execution order.
const (
	StepCheckDestination = "check-destination"
	StepNormalize        = "normalize"
	StepFetchPage        = "fetch-page"
	StepPlanOutput       = "plan-output"
	StepParse            = "parse"
	StepDiscover         = "discover"
	StepDownloadAssets   = "download-assets"
	StepRender           = "render"
	StepWritePage        = "write-page"
)

// pagePerm is the permission of the written page file.
const pagePerm = 0o644

// steps returns the download pipeline steps bound to l.
func (l *Loader) steps() []pipeline.Step {
	return []pipeline.Step{
		pipeline.NewStepFunc(StepCheckDestination, l.checkDestination),
		pipeline.NewStepFunc(StepNormalize, l.normalize),
		pipeline.NewStepFunc(StepFetchPage, l.fetchPage),
		pipeline.NewStepFunc(StepPlanOutput, l.planOutput),
		pipeline.NewStepFunc(StepParse, l.parse),
		pipeline.NewStepFunc(StepDiscover, l.discover),
		pipeline.NewStepFunc(StepDownloadAssets, l.downloadAssets),
		pipeline.NewStepFunc(StepRender, l.render),
		pipeline.NewStepFunc(StepWritePage, l.writePage),
	}
}

// checkDestination verifies that the destination is an existing, writable
// directory. Writability is probed by creating and removing a temporary file,
// which also catches read-only filesystems.
func (l *Loader) checkDestination(_ context.Context, run *model.Run) error {
	dir := run.Request.DestinationDir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", model.ErrDirectoryNotFound, dir, err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", model.ErrDirectoryNotFound, abs)
	}

	probe, err := os.CreateTemp(abs, ".pageloader-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s", model.ErrPermissionDenied, abs)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	run.OutputDir = abs
	return nil
}

func (l *Loader) normalize(_ context.Context, run *model.Run) error {
	pageURL, err := urlnorm.NormalizePageURL(run.Request.URL)
	if err != nil {
		return err
	}
	run.PageURL = pageURL
	return nil
}

// fetchPage downloads the page. Fetch errors are returned unchanged.
func (l *Loader) fetchPage(ctx context.Context, run *model.Run) error {
	resp, err := l.fetcher.Fetch(ctx, run.PageURL)
	if err != nil {
		return err
	}

	run.Page = &model.Page{
		URL:         run.PageURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType,
		Raw:         resp.Body,
	}
	run.Page.ComputeHash()
	l.observer.PageFetched(run)
	return nil
}

// planOutput names the page file and refuses to overwrite an existing one.
func (l *Loader) planOutput(_ context.Context, run *model.Run) error {
	run.PageName = naming.GenerateName(run.PageURL, naming.PageExtension)
	run.PagePath = naming.GeneratePath(run.OutputDir, run.PageName)

	if _, err := os.Lstat(run.PagePath); err == nil {
		return fmt.Errorf("%w: %s", model.ErrOutputExists, run.PagePath)
	}
	return nil
}

// parse names the assets directory and builds the parse tree from the
// charset-decoded body. The page is rendered as UTF-8, so its charset
// declarations are rewritten to match.
func (l *Loader) parse(_ context.Context, run *model.Run) error {
	run.AssetsDirName = naming.GenerateName(run.PageURL, naming.AssetsDirSuffix)
	run.AssetsDirPath = naming.GeneratePath(run.OutputDir, run.AssetsDirName)

	if !run.Page.IsHTML() {
		l.logger.Warn("page is not HTML, parsing anyway",
			"url", run.PageURL,
			"content_type", run.Page.ContentType,
		)
	}

	resp := &fetch.Response{URL: run.PageURL, ContentType: run.Page.ContentType, Body: run.Page.Raw}
	r, err := resp.Reader()
	if err != nil {
		return err
	}
	doc, err := htmldoc.Parse(r)
	if err != nil {
		return err
	}
	if n := htmldoc.DeclareUTF8(doc); n > 0 {
		l.logger.Debug("charset declaration rewritten to utf-8",
			"url", run.PageURL,
			"elements", n,
		)
	}
	run.Document = doc
	return nil
}

func (l *Loader) discover(_ context.Context, run *model.Run) error {
	run.Assets = asset.Discover(run.Document, run.PageURL)
	l.observer.AssetsDiscovered(run)
	return nil
}

func (l *Loader) downloadAssets(ctx context.Context, run *model.Run) error {
	d := asset.NewDownloader(l.fetcher,
		asset.WithConcurrency(l.concurrency),
		asset.WithProgress(l.observer),
	)
	return d.Download(ctx, run.Assets, run.AssetsDirName, run.AssetsDirPath)
}

func (l *Loader) render(_ context.Context, run *model.Run) error {
	b, err := htmldoc.RenderBytes(run.Document)
	if err != nil {
		return err
	}
	run.Rendered = b
	return nil
}

// writePage creates the page file exclusively, so a file that appeared
// after planning is not overwritten either.
func (l *Loader) writePage(_ context.Context, run *model.Run) error {
	f, err := os.OpenFile(run.PagePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, pagePerm) //nolint:gosec // path is built from a sanitized name
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return fmt.Errorf("%w: %s", model.ErrOutputExists, run.PagePath)
		case errors.Is(err, fs.ErrPermission):
			return fmt.Errorf("%w: %s", model.ErrPermissionDenied, run.PagePath)
		default:
			return fmt.Errorf("failed to create page file: %w", err)
		}
	}
	if _, err := f.Write(run.Rendered); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write page file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close page file: %w", err)
	}

	l.observer.PageWritten(run)
	return nil
}
