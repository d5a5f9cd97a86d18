package model

import "errors"

// Filesystem and input errors shared by the loader packages.
// Each is wrapped with the offending path or URL, so callers should use
// errors.Is rather than comparing error values directly.
//
// Transport and HTTP status failures are not listed here: they are created
// by the fetch package and travel up unchanged.
var (
	// ErrDirectoryNotFound is returned when the destination directory does not
	// exist or is not a directory.
	ErrDirectoryNotFound = errors.New("destination directory not found")

	// ErrPermissionDenied is returned when the destination directory exists
	// but files cannot be created in it.
	ErrPermissionDenied = errors.New("destination directory is not writable")

	// ErrOutputExists is returned when the page file or the assets directory
	// already exists. Prior output is never overwritten.
	ErrOutputExists = errors.New("output already exists")

	// ErrInvalidURL is returned when the page URL cannot be parsed or has no host.
	ErrInvalidURL = errors.New("invalid page URL")
)
