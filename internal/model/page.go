package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Page represents the fetched page that is being mirrored.
// It holds the response metadata together with the raw body bytes.
type Page struct {
	// URL is the normalized URL the page was fetched from.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// Raw contains the raw response body bytes.
	Raw []byte `json:"-"`

	// Hash is the SHA3-256 hash of the raw content.
	Hash string `json:"hash"`
}

// ComputeHash calculates and sets the hash of the page's raw content.
// This should be called after setting the Raw field.
func (p *Page) ComputeHash() {
	p.Hash = Digest(p.Raw)
}

// IsHTML returns true if the page content type indicates HTML.
// An empty content type is treated as HTML because many servers omit it
// for the documents this tool is pointed at.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(p.ContentType))
	if ct == "" {
		return true
	}
	return strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}

// Digest returns the hex encoded SHA3-256 digest of b.
// It returns an empty string for empty input.
func Digest(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	sum := sha3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
