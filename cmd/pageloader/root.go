package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageloader/internal/loader"
)

// Exit codes. Each download failure kind has its own code so scripts can
// tell them apart.
const (
	exitOK                  = 0
	exitUnknown             = 1
	exitConfiguration       = 2
	exitDirectoryNotFound   = 3
	exitPermissionDenied    = 4
	exitTransportFailure    = 5
	exitHTTPStatusFailure   = 6
	exitOutputAlreadyExists = 7
	exitInvalidURL          = 8
)

// errConfiguration marks errors found before any network access.
var errConfiguration = errors.New("configuration error")

// NewRootCmd creates the root command for pageloader.
// Without a subcommand it downloads the page given as argument.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pageloader [flags] <url>",
		Short: "Save a web page and its assets for offline viewing",
		Long: `pageloader downloads a web page together with the images, stylesheets
and scripts it loads from its own domain, and rewrites the page to use the
local copies.

The page is saved as <name>.html and its assets in <name>_files/, where
<name> is derived from the URL: https://ru.hexlet.io/courses becomes
ru-hexlet-io-courses.html. Existing files are never overwritten.`,
		Example: `  pageloader https://ru.hexlet.io/courses
  pageloader -o /var/tmp ru.hexlet.io/courses
  pageloader --summary -c 4 https://example.com/blog/`,
		Version:       getVersion(),
		Args:          cobra.MaximumNArgs(1),
		RunE:          runDownloadCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	addDownloadFlags(cmd)

	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with a code describing the outcome.
func Execute() {
	err := NewRootCmd().ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errConfiguration) {
		return exitConfiguration
	}

	switch loader.KindOf(err) {
	case loader.KindDirectoryNotFound:
		return exitDirectoryNotFound
	case loader.KindPermissionDenied:
		return exitPermissionDenied
	case loader.KindTransportFailure:
		return exitTransportFailure
	case loader.KindHTTPStatusFailure:
		return exitHTTPStatusFailure
	case loader.KindOutputAlreadyExists:
		return exitOutputAlreadyExists
	case loader.KindInvalidURL:
		return exitInvalidURL
	default:
		return exitUnknown
	}
}
