package fetch

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// Response is a fully read HTTP response.
type Response struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status code.
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, exactly as received.
	Body []byte
}

// Reader returns a reader over the body decoded to UTF-8.
// The encoding is taken from the Content-Type header, then from a BOM or
// <meta> declaration, falling back to windows-1252 as browsers do.
func (r *Response) Reader() (io.Reader, error) {
	reader, err := charset.NewReader(bytes.NewReader(r.Body), r.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to detect charset of %s: %w", r.URL, err)
	}
	return reader, nil
}

// Text returns the body decoded to a UTF-8 string.
func (r *Response) Text() (string, error) {
	reader, err := r.Reader()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode body of %s: %w", r.URL, err)
	}
	return string(b), nil
}
