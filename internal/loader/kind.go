package loader

import (
	"errors"

	"github.com/nao1215/pageloader/internal/fetch"
	"github.com/nao1215/pageloader/internal/model"
)

// Kind classifies why a download failed.
type Kind int

const (
	// KindUnknown covers errors outside the taxonomy, such as cancellation
	// or an unexpected filesystem failure.
	KindUnknown Kind = iota

	// KindDirectoryNotFound means the destination does not exist or is not a directory.
	KindDirectoryNotFound

	// KindPermissionDenied means files cannot be created in the destination.
	KindPermissionDenied

	// KindTransportFailure means no HTTP response could be obtained.
	KindTransportFailure

	// KindHTTPStatusFailure means a response had a non-2xx status.
	KindHTTPStatusFailure

	// KindOutputAlreadyExists means the page file or assets directory already exists.
	KindOutputAlreadyExists

	// KindInvalidURL means the page URL cannot be parsed or has no host.
	KindInvalidURL
)

// KindOf classifies err. A nil error is KindUnknown.
func KindOf(err error) Kind {
	var (
		transportErr *fetch.TransportError
		statusErr    *fetch.StatusError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, model.ErrDirectoryNotFound):
		return KindDirectoryNotFound
	case errors.Is(err, model.ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, model.ErrOutputExists):
		return KindOutputAlreadyExists
	case errors.Is(err, model.ErrInvalidURL):
		return KindInvalidURL
	case errors.As(err, &statusErr):
		return KindHTTPStatusFailure
	case errors.As(err, &transportErr):
		return KindTransportFailure
	default:
		return KindUnknown
	}
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDirectoryNotFound:
		return "DirectoryNotFound"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindTransportFailure:
		return "TransportFailure"
	case KindHTTPStatusFailure:
		return "HTTPStatusFailure"
	case KindOutputAlreadyExists:
		return "OutputAlreadyExists"
	case KindInvalidURL:
		return "InvalidURL"
	default:
		return "Unknown"
	}
}
