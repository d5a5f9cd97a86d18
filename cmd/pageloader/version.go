package main

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageloader/internal/config"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

const (
	develVersion   = "(devel)"
	unknownValue   = "unknown"
	shortCommitLen = 7
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	UserAgent string `json:"user_agent"`
}

// readBuildInfo returns the build information of the running binary.
func readBuildInfo() buildInfo {
	bi, _ := debug.ReadBuildInfo()
	return resolveBuildInfo(version, commit, date, bi)
}

// resolveBuildInfo merges ldflags values with the module build info.
// Values given through ldflags win; empty ones fall back to the main module
// version and the vcs settings, then to placeholders. bi may be nil.
func resolveBuildInfo(ldVersion, ldCommit, ldDate string, bi *debug.BuildInfo) buildInfo {
	info := buildInfo{
		Version:   ldVersion,
		Commit:    ldCommit,
		Date:      ldDate,
		GoVersion: runtime.Version(),
		UserAgent: config.DefaultUserAgent,
	}

	if bi != nil {
		if info.Version == "" {
			info.Version = bi.Main.Version
		}
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = shortRevision(setting.Value)
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = setting.Value
				}
			case "vcs.modified":
				info.Modified = setting.Value == "true"
			}
		}
	}

	if info.Version == "" {
		info.Version = develVersion
	}
	if info.Commit == "" {
		info.Commit = unknownValue
	}
	if info.Date == "" {
		info.Date = unknownValue
	}
	return info
}

func shortRevision(rev string) string {
	if len(rev) > shortCommitLen {
		return rev[:shortCommitLen]
	}
	return rev
}

// getVersion returns the version shown by --version and recorded in reports.
func getVersion() string {
	return readBuildInfo().Version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash, build date, Go version and default
User-Agent of pageloader.`,
		Args: cobra.NoArgs,
		RunE: runVersionCmd,
	}
	cmd.Flags().Bool("json", false, "Print version information as JSON")
	cmd.Flags().Bool("short", false, "Print only the version")
	cmd.MarkFlagsMutuallyExclusive("json", "short")
	return cmd
}

func runVersionCmd(cmd *cobra.Command, _ []string) error {
	info := readBuildInfo()
	out := cmd.OutOrStdout()

	if short, _ := cmd.Flags().GetBool("short"); short {
		fmt.Fprintln(out, info.Version)
		return nil
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	commitText := info.Commit
	if info.Modified {
		commitText += " (modified)"
	}
	fmt.Fprintf(out, "pageloader version %s\n", info.Version)
	fmt.Fprintf(out, "  commit: %s\n", commitText)
	fmt.Fprintf(out, "  built:  %s\n", info.Date)
	fmt.Fprintf(out, "  go:     %s\n", info.GoVersion)
	fmt.Fprintf(out, "  agent:  %s\n", info.UserAgent)
	return nil
}
