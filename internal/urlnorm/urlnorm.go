// Package urlnorm normalizes page and asset URLs and classifies assets
// as same-domain or foreign.
//
// Every URL used for fetching or domain comparison passes through this
// package first, so it always carries an explicit scheme.
package urlnorm

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/pageloader/internal/model"
)

// DefaultScheme is prepended to page URLs given without a scheme.
const DefaultScheme = "https"

// NormalizePageURL trims the input and prepends the default scheme when
// none is present. It fails with model.ErrInvalidURL only when the result
// cannot be parsed or has no host; reachability is not checked.
func NormalizePageURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, "//"):
		s = DefaultScheme + ":" + s
	case !strings.Contains(s, "://"):
		s = DefaultScheme + "://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", model.ErrInvalidURL, raw, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", model.ErrInvalidURL, raw)
	}
	return s, nil
}

// NormalizeAssetURL makes an asset reference absolute relative to the page.
//
//   - relative references are resolved against the root of the page's
//     scheme and host, with dot segments removed and query and fragment kept
//   - scheme-relative references ("//host/x") get the page's scheme
//   - absolute URLs with a host are returned unchanged
//   - opaque URLs such as data:, javascript: or mailto: are returned unchanged
//
// Unparsable input is returned unchanged as well; it never classifies
// as same-domain.
func NormalizeAssetURL(assetURL, pageURL string) string {
	ref, err := url.Parse(strings.TrimSpace(assetURL))
	if err != nil {
		return assetURL
	}
	page, err := url.Parse(pageURL)
	if err != nil {
		return assetURL
	}

	switch {
	case ref.Scheme != "":
		// Absolute, or opaque (data:, javascript:, mailto:).
		return assetURL
	case ref.Host != "":
		ref.Scheme = page.Scheme
		return ref.String()
	}

	root := &url.URL{Scheme: page.Scheme, Host: page.Host, Path: "/"}
	return root.ResolveReference(ref).String()
}

// Domain returns the lower-cased host of a URL, port included.
// It returns an empty string when the URL has no host.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// IsSameDomain reports whether an asset reference, once normalized against
// the page, points at the page's own host.
func IsSameDomain(assetURL, pageURL string) bool {
	d := Domain(NormalizeAssetURL(assetURL, pageURL))
	return d != "" && d == Domain(pageURL)
}
