package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/pageloader/internal/fetch"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "pageloader"

	// DefaultTimeout bounds each HTTP request, including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency downloads assets one at a time in document order.
	DefaultConcurrency = 1

	// DefaultRateLimit of zero disables request rate limiting.
	DefaultRateLimit = 0

	// DefaultUserAgent identifies pageloader in HTTP requests.
	DefaultUserAgent = "pageloader/1.0 (+https://github.com/nao1215/pageloader)"

	// DefaultMaxBodySize rejects responses larger than 50MB so a single huge
	// asset cannot exhaust memory. Zero disables the limit.
	DefaultMaxBodySize = 50 * 1024 * 1024

	// LogFormatText is the human-readable log format.
	LogFormatText = "text"

	// LogFormatJSON is the JSON log format.
	LogFormatJSON = "json"
)

// Config holds all configuration options for one invocation.
// It is populated from CLI flags and passed down explicitly.
type Config struct {
	// URL is the page to download. A missing scheme defaults to https.
	URL string

	// OutputDir is the destination directory. Empty means the current directory.
	OutputDir string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// Concurrency is the number of assets fetched at the same time.
	Concurrency int

	// RateLimit is the maximum number of requests per second. Zero disables it.
	RateLimit float64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes. Zero disables it.
	MaxBodySize int64

	// Verbose enables debug logging. When false only warnings and errors are logged.
	Verbose bool

	// LogFormat is "text" or "json".
	LogFormat string

	// LogFile, when set, sends logs to a size-rotated file instead of stderr.
	LogFile string

	// NoProgress disables the terminal progress bar.
	NoProgress bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// SiteConfigs holds per-host settings loaded from the config file.
	SiteConfigs *File

	// Summary prints a plain-text run summary after the download.
	Summary bool

	// JSONReport prints the run summary as JSON. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the run summary as Markdown. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the summary to a file instead of stdout.
	ReportFile string

	// DBDir is the directory of the run history database.
	DBDir string

	// SaveToDB records each run in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		RateLimit:   DefaultRateLimit,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		LogFormat:   LogFormatText,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,
	}
}

// XDGDataDir returns the XDG data directory for pageloader.
// On Linux: ~/.local/share/pageloader
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pageloader.
// On Linux: ~/.config/pageloader
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// WantsReport reports whether a run summary should be printed.
func (c *Config) WantsReport() bool {
	return c.Summary || c.JSONReport || c.MarkdownReport || c.ReportFile != ""
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flag parsing, before any network access.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrNoTarget
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.ProxyAddress != "" {
		if err := fetch.ValidateProxyAddress(c.ProxyAddress); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidProxyAddress, c.ProxyAddress)
		}
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLogFormat, c.LogFormat)
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
