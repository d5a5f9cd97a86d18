// Package pipeline runs the steps of a page download in sequence.
//
// Each step receives the shared *model.Run and fills in the part of it that
// later steps depend on: the normalized URL, the fetched page, the output
// plan, the parse tree, the discovered assets, and finally the rendered page.
//
// The pipeline never retries and never skips a failed step. The first error
// ends the run and is returned exactly as the step produced it, so callers
// can classify it with errors.Is and errors.As.
package pipeline
