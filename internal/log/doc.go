// Package log builds the application's slog loggers.
//
// Every logger wraps its handler in a SecureHandler, which masks values that
// should not end up in a log: cookies and auth headers from site
// configuration, bearer and JWT tokens, and the secret parts of URLs
// (userinfo passwords and query parameters such as token or signature).
// Masking applies in verbose mode too.
//
// # Usage
//
//	logger, closer, err := log.New(os.Stderr, log.Options{Verbose: true})
//	if err != nil {
//		return err
//	}
//	defer closer.Close()
//
//	logger.Debug("request sent",
//		"cookie", "session=abc123", // logged as ***REDACTED***
//		"url", "https://example.com/a.png?token=abc", // token value masked
//	)
//
// With Options.File set, output goes to a size-rotated file managed by
// lumberjack instead of the writer.
package log
