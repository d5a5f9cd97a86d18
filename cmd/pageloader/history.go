package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageloader/internal/config"
	"github.com/nao1215/pageloader/internal/history"
	"github.com/nao1215/pageloader/internal/model"
)

// historyDirFlag names the flag that overrides the history database directory.
const historyDirFlag = "history-dir"

// addHistoryDirFlag registers the history directory flag on cmd.
func addHistoryDirFlag(cmd *cobra.Command) {
	cmd.Flags().String(historyDirFlag, config.XDGDataDir(),
		"Directory of the run history database")
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "List recorded downloads",
		Long: `History lists past downloads, newest first.

Every download is recorded in a SQLite database in the XDG data directory
(~/.local/share/pageloader on Linux) unless --no-history was given.

Examples:
  # Show the last 20 downloads
  pageloader history

  # Show downloads of one page
  pageloader history https://ru.hexlet.io/courses

  # Show one run in detail
  pageloader history show 5f0c8a2e-...

  # Forget a run
  pageloader history delete 5f0c8a2e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryListCmd,
	}

	cmd.Flags().IntP("limit", "n", history.DefaultListLimit,
		"Maximum number of runs to show")
	addHistoryFormatFlags(cmd)
	addHistoryDirFlag(cmd)

	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryDeleteCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the summary of a recorded download",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	}
	addHistoryFormatFlags(cmd)
	addHistoryDirFlag(cmd)
	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Remove a recorded download from the history",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDeleteCmd,
	}
	addHistoryDirFlag(cmd)
	return cmd
}

func addHistoryFormatFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
}

// openHistory opens the existing history database. It returns nil and no
// error when nothing has been recorded yet.
func openHistory(cmd *cobra.Command) (*history.Store, error) {
	dir, err := cmd.Flags().GetString(historyDirFlag)
	if err != nil {
		return nil, err
	}
	store, err := history.Open(dir, history.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, history.ErrStoreNotFound) {
		return nil, nil //nolint:nilnil // no database yet is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}

func historyWriterFlags(cmd *cobra.Command) (jsonFormat, markdownFormat bool, err error) {
	if jsonFormat, err = cmd.Flags().GetBool("json"); err != nil {
		return false, false, err
	}
	if markdownFormat, err = cmd.Flags().GetBool("markdown"); err != nil {
		return false, false, err
	}
	return jsonFormat, markdownFormat, nil
}

func runHistoryListCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonFormat, markdownFormat, err := historyWriterFlags(cmd)
	if err != nil {
		return err
	}

	url := ""
	if len(args) == 1 {
		url = args[0]
	}

	var runs []*model.Summary
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		if runs, err = store.List(commandContext(cmd), url, limit); err != nil {
			return err
		}
	}

	w := newReportWriter(cmd.OutOrStdout(), jsonFormat, markdownFormat, getVerboseFlag(cmd))
	_, err = w.WriteHistory(runs)
	return err
}

func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	jsonFormat, markdownFormat, err := historyWriterFlags(cmd)
	if err != nil {
		return err
	}

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("%w: %s", history.ErrNotFound, args[0])
	}
	defer store.Close()

	summary, err := store.Get(commandContext(cmd), args[0])
	if err != nil {
		return err
	}

	w := newReportWriter(cmd.OutOrStdout(), jsonFormat, markdownFormat, true)
	_, err = w.Write(summary)
	return err
}

func runHistoryDeleteCmd(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("%w: %s", history.ErrNotFound, args[0])
	}
	defer store.Close()

	if err := store.Delete(commandContext(cmd), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
	return nil
}
