// Package naming derives filesystem-safe names from URLs.
//
// The same rule names the page file, the assets directory and every asset,
// so the functions here are pure: identical input always yields identical
// output and nothing touches the filesystem.
package naming

import (
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Extension overrides used by the loader.
const (
	// PageExtension is appended to the generated page file name.
	PageExtension = ".html"

	// AssetsDirSuffix is appended to the generated assets directory name.
	AssetsDirSuffix = "_files"

	// fallbackStem is used when a URL yields no usable characters at all.
	fallbackStem = "index"
)

var (
	// separatorRun matches every run of characters that are not ASCII letters
	// or digits. Underscores are separators too.
	separatorRun = regexp.MustCompile(`[^A-Za-z0-9]+`)

	// validExtension is the shape an existing extension must have to be kept.
	validExtension = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

	// schemePrefix matches a scheme at the start of an unparsable URL.
	schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)
)

// GenerateName maps a URL to a file or directory name.
//
// The extension of the URL's final path segment is kept unless ext is
// non-empty, in which case ext replaces it (or is added when there was none).
// The scheme and fragment are dropped, the host is converted to ASCII,
// Latin diacritics are folded, and every run of other characters becomes a
// single hyphen.
//
//	GenerateName("https://ru.hexlet.io/courses", ".html") // "ru-hexlet-io-courses.html"
//	GenerateName("https://ru.hexlet.io/courses", "_files") // "ru-hexlet-io-courses_files"
//	GenerateName("https://ru.hexlet.io/a/b.png", "")       // "ru-hexlet-io-a-b.png"
func GenerateName(rawURL, ext string) string {
	stem, existing := split(strings.TrimSpace(rawURL))
	if ext == "" {
		ext = existing
	}

	stem = separatorRun.ReplaceAllString(fold(stem), "-")
	stem = strings.Trim(stem, "-")
	if stem == "" {
		stem = fallbackStem
	}
	return stem + ext
}

// GeneratePath joins a directory and a generated name.
// It does not access the filesystem.
func GeneratePath(dir, name string) string {
	return filepath.Join(dir, name)
}

// Extension returns the extension of the URL's final path segment,
// or an empty string when it has none.
func Extension(rawURL string) string {
	_, ext := split(strings.TrimSpace(rawURL))
	return ext
}

// split returns the name stem of a URL (host, path without extension and
// query) together with the path's extension.
func split(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		s := schemePrefix.ReplaceAllString(rawURL, "")
		s = strings.TrimPrefix(s, "//")
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = s[:i]
		}
		ext := extension(s)
		return strings.TrimSuffix(s, ext), ext
	}

	var sb strings.Builder
	sb.WriteString(asciiHost(u))

	p := u.Path
	if u.Opaque != "" {
		p = u.Opaque
	}
	ext := ""
	if p != "" {
		ext = extension(p)
		p = strings.TrimSuffix(p, ext)
	}
	sb.WriteString(strings.TrimPrefix(p, "//"))

	if u.RawQuery != "" {
		sb.WriteString("?")
		sb.WriteString(u.RawQuery)
	}
	return sb.String(), ext
}

// extension returns the extension of the last path segment if it looks like one.
func extension(p string) string {
	ext := path.Ext(p)
	if !validExtension.MatchString(ext) {
		return ""
	}
	return ext
}

// asciiHost returns the URL host with internationalized labels in punycode.
func asciiHost(u *url.URL) string {
	host := u.Hostname()
	if host == "" {
		return ""
	}
	if ascii, err := idna.ToASCII(host); err == nil {
		host = ascii
	}
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	return host
}

// fold removes combining marks so that "café" becomes "cafe".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
