package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageloader/internal/config"
	"github.com/nao1215/pageloader/internal/fetch"
	"github.com/nao1215/pageloader/internal/history"
	"github.com/nao1215/pageloader/internal/loader"
	pllog "github.com/nao1215/pageloader/internal/log"
	"github.com/nao1215/pageloader/internal/model"
	"github.com/nao1215/pageloader/internal/progress"
	"github.com/nao1215/pageloader/internal/report"
)

// NewDownloadCmd creates the download command. It behaves exactly like the
// root command with a URL argument.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download a web page and its same-domain assets",
		Long: `Download saves the page at <url> into the output directory.

Images, stylesheets and scripts hosted on the page's own domain are saved to
<name>_files/ next to the page and the page is rewritten to reference them.
Resources on other domains are left untouched. A URL without a scheme is
fetched over https.

Configuration file (.pageloader) example:
  defaults:
    headers:
      Accept-Language: "en-US"
  sites:
    ru.hexlet.io:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"`,
		Example: `  pageloader download https://ru.hexlet.io/courses
  pageloader download -o /var/tmp --json https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runDownloadCmd,
	}
	addDownloadFlags(cmd)
	return cmd
}

// addDownloadFlags registers the download flags on cmd.
func addDownloadFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	// Output
	flags.StringP("output", "o", "",
		"Destination directory (default: current directory)")

	// Request behavior
	flags.IntP("concurrency", "c", config.DefaultConcurrency,
		"Number of assets downloaded at the same time")
	flags.Float64("rate", config.DefaultRateLimit,
		"Maximum requests per second (0 disables the limit)")
	flags.DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	flags.String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	flags.String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	flags.Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum size in bytes of a single response (0 disables the limit)")

	// Configuration file
	flags.String("config", "",
		"Configuration file path (default: .pageloader in current or home directory)")

	// Report flags
	flags.BoolP("summary", "s", false,
		"Print a run summary after the download")
	flags.BoolP("json", "j", false,
		"Print the run summary as JSON (mutually exclusive with --markdown)")
	flags.BoolP("markdown", "m", false,
		"Print the run summary as Markdown (mutually exclusive with --json)")
	flags.String("report-file", "",
		"Write the run summary to the specified file instead of stdout")

	// Behavior toggles
	flags.Bool("no-history", false,
		"Do not record the run in the history database")
	flags.Bool("no-progress", false,
		"Disable the progress bar")
	addHistoryDirFlag(cmd)

	// Logging
	flags.String("log-file", "",
		"Write logs to a size-rotated file instead of stderr")
	flags.String("log-format", config.LogFormatText,
		"Log format: text or json")
}

// runDownloadCmd executes a download for the URL argument.
func runDownloadCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", errConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errConfiguration, err)
	}

	logger, closer, err := pllog.New(cmd.ErrOrStderr(), pllog.Options{
		Verbose: cfg.Verbose,
		Format:  cfg.LogFormat,
		File:    cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errConfiguration, err)
	}
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runDownload(ctx, cmd, cfg, logger)
}

// commandContext returns the command's context, or the background context
// when the command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the
// configuration file.
func buildConfig(cmd *cobra.Command, url string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.URL = url
	cfg.Verbose = getVerboseFlag(cmd)

	flags := cmd.Flags()
	var err error

	if cfg.OutputDir, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.Summary, err = flags.GetBool("summary"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	if cfg.DBDir, err = flags.GetString(historyDirFlag); err != nil {
		return nil, err
	}
	if cfg.NoProgress, err = flags.GetBool("no-progress"); err != nil {
		return nil, err
	}
	if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
		return nil, err
	}
	if cfg.LogFormat, err = flags.GetString("log-format"); err != nil {
		return nil, err
	}

	// An explicitly given config file must exist; otherwise a missing file
	// just means no site settings.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	// The file's default user agent applies unless the flag was given.
	if !flags.Changed("user-agent") && cfg.SiteConfigs.Defaults.UserAgent != "" {
		cfg.UserAgent = cfg.SiteConfigs.Defaults.UserAgent
	}

	return cfg, nil
}

// clientOptions converts the configuration into HTTP client options.
// Defaults from the config file apply to every host; site entries become
// host rules layered on top of them.
func clientOptions(cfg *config.Config) []fetch.Option {
	opts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithRateLimit(cfg.RateLimit, 1),
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, fetch.WithProxy(cfg.ProxyAddress))
	}

	if cfg.SiteConfigs == nil {
		return opts
	}
	defaults := cfg.SiteConfigs.Defaults
	opts = append(opts,
		fetch.WithHeaders(defaults.Headers),
		fetch.WithCookie(defaults.Cookie),
	)
	for host, site := range cfg.SiteConfigs.Sites {
		opts = append(opts, fetch.WithHostRule(host, fetch.Rule{
			Headers:   site.Headers,
			Cookie:    site.Cookie,
			UserAgent: site.UserAgent,
		}))
	}
	return opts
}

// runDownload performs the download, records it and prints the outcome.
// Download errors are returned unchanged so exitCode can classify them.
func runDownload(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	client, err := fetch.NewClient(clientOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("%w: %w", errConfiguration, err)
	}

	observers := []loader.Observer{loader.NewLogObserver(logger)}
	if !cfg.NoProgress {
		observers = append(observers,
			progress.New(cmd.ErrOrStderr(), progress.WithTerminal(isTerminal(cmd.ErrOrStderr()))))
	}

	l := loader.New(client,
		loader.WithLogger(logger),
		loader.WithObserver(loader.MultiObserver(observers...)),
		loader.WithConcurrency(cfg.Concurrency),
	)

	logger.Debug("starting download",
		"url", cfg.URL,
		"output", cfg.OutputDir,
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	run, runErr := l.Run(ctx, model.Request{URL: cfg.URL, DestinationDir: cfg.OutputDir})

	kind := ""
	if runErr != nil {
		kind = loader.KindOf(runErr).String()
	}
	summary := model.NewSummary(run, kind, runErr)

	if cfg.SaveToDB {
		// Record interrupted runs too.
		saveHistory(context.WithoutCancel(ctx), cfg.DBDir, summary, logger)
	}

	if cfg.WantsReport() {
		if err := outputReport(cmd, cfg, summary); err != nil {
			if runErr != nil {
				logger.Error("failed to write report", "error", err)
				return runErr
			}
			return err
		}
	}

	if runErr != nil {
		return runErr
	}

	// Keep stdout parseable when a machine-readable report is printed there.
	out := cmd.OutOrStdout()
	if (cfg.JSONReport || cfg.MarkdownReport) && cfg.ReportFile == "" {
		out = cmd.ErrOrStderr()
	}
	fmt.Fprintf(out, "Page was downloaded as %s\n", run.PagePath)
	return nil
}

// saveHistory records the run. A failure is logged but never fails the
// command.
func saveHistory(ctx context.Context, dir string, summary *model.Summary, logger *slog.Logger) {
	store, err := history.Open(dir, history.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open history database", "dir", dir, "error", err)
		return
	}
	defer store.Close()

	if err := store.Save(ctx, summary); err != nil {
		logger.Warn("failed to save run history", "id", summary.ID, "error", err)
		return
	}
	logger.Debug("run saved to history", "id", summary.ID, "db", store.Path())
}

// outputReport writes the run summary in the requested format.
func outputReport(cmd *cobra.Command, cfg *config.Config, summary *model.Summary) error {
	var output io.Writer = cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		f, err := createReportFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	_, err := newReportWriter(output, cfg.JSONReport, cfg.MarkdownReport, cfg.Verbose).Write(summary)
	return err
}

// createReportFile creates or truncates path, creating parent directories.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // user-provided report path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// newReportWriter selects the report format.
func newReportWriter(w io.Writer, jsonFormat, markdownFormat, verbose bool) report.Writer {
	switch {
	case jsonFormat:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case markdownFormat:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(verbose))
	}
}

// isTerminal reports whether w is a character device.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
