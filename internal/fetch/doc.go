// Package fetch provides the HTTP transport used to download pages and assets.
//
// A Client performs exactly one GET per call. It never retries: a transport
// failure is reported as a *TransportError and a non-2xx answer as a
// *StatusError, and callers are expected to pass both up unchanged.
//
// Optional behavior is configured with functional options:
//
//   - WithProxy routes every connection through a SOCKS5 proxy
//   - WithRateLimit spaces requests with a token bucket
//   - WithHeaders, WithCookie, WithUserAgent and WithHostRule add request headers
//   - WithMaxBodySize rejects bodies larger than a limit instead of truncating them
//
// The Fetcher interface is what the rest of the module depends on, so tests
// can substitute an in-memory implementation with FetcherFunc.
package fetch
