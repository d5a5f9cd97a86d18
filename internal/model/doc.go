// Package model defines the core data structures shared by the page loader.
//
// This package contains the following main types:
//   - Request: The immutable input of one run (URL and destination directory)
//   - Page: The fetched page response
//   - Asset: A same-domain resource referenced from the page's parse tree
//   - Run: The mutable state threaded through the loader pipeline
//   - Summary: The serializable record of a finished run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The asset, loader, report and history packages all need these
// types, so centralizing them prevents import cycles.
//
// The error taxonomy shared by those packages (missing destination, permission
// problems, existing output) also lives here for the same reason.
package model
