// Package pageloader saves a single web page for offline viewing.
//
// Download fetches the page, saves every image, stylesheet, script and
// linked resource hosted on the page's own domain into a sibling
// "<name>_files" directory, rewrites the page to reference those local
// copies, and writes it as "<name>.html":
//
//	path, err := pageloader.Download(ctx, "https://ru.hexlet.io/courses", "/tmp")
//	// path == "/tmp/ru-hexlet-io-courses.html"
//
// Existing output is never overwritten. Failures are classified by KindOf.
package pageloader

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/pageloader/internal/fetch"
	"github.com/nao1215/pageloader/internal/loader"
	"github.com/nao1215/pageloader/internal/model"
)

// Errors returned by Download. Use errors.Is to test for them.
var (
	ErrDirectoryNotFound = model.ErrDirectoryNotFound
	ErrPermissionDenied  = model.ErrPermissionDenied
	ErrOutputExists      = model.ErrOutputExists
	ErrInvalidURL        = model.ErrInvalidURL
	ErrTransport         = fetch.ErrTransport
	ErrHTTPStatus        = fetch.ErrHTTPStatus
)

// Kind classifies a Download error.
type Kind = loader.Kind

// Failure kinds.
const (
	KindUnknown             = loader.KindUnknown
	KindDirectoryNotFound   = loader.KindDirectoryNotFound
	KindPermissionDenied    = loader.KindPermissionDenied
	KindTransportFailure    = loader.KindTransportFailure
	KindHTTPStatusFailure   = loader.KindHTTPStatusFailure
	KindOutputAlreadyExists = loader.KindOutputAlreadyExists
	KindInvalidURL          = loader.KindInvalidURL
)

// KindOf classifies an error returned by Download.
func KindOf(err error) Kind {
	return loader.KindOf(err)
}

// options holds Download settings.
type options struct {
	concurrency int
	logger      *slog.Logger
	client      []fetch.Option
}

// Option configures Download.
type Option func(*options)

// WithConcurrency sets how many assets are fetched at the same time.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.client = append(o.client, fetch.WithTimeout(d))
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.client = append(o.client, fetch.WithUserAgent(ua))
	}
}

// WithProxy routes requests through a SOCKS5 proxy at "host:port".
func WithProxy(address string) Option {
	return func(o *options) {
		o.client = append(o.client, fetch.WithProxy(address))
	}
}

// WithLogger logs run events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Download saves the page at url into destinationDir and returns the
// absolute path of the written page file. An empty destinationDir means the
// current working directory. A url without a scheme is fetched over https.
func Download(ctx context.Context, url, destinationDir string, opts ...Option) (string, error) {
	o := &options{concurrency: 1}
	for _, opt := range opts {
		opt(o)
	}

	client, err := fetch.NewClient(o.client...)
	if err != nil {
		return "", err
	}

	loaderOpts := []loader.Option{loader.WithConcurrency(o.concurrency)}
	if o.logger != nil {
		loaderOpts = append(loaderOpts,
			loader.WithLogger(o.logger),
			loader.WithObserver(loader.NewLogObserver(o.logger)),
		)
	}

	return loader.New(client, loaderOpts...).Download(ctx, model.Request{
		URL:            url,
		DestinationDir: destinationDir,
	})
}
