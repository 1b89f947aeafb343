package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/hatgram/internal/ir"
	"github.com/roach88/hatgram/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database   string
	Limit      int
	TargetHash string
}

// HistoryEntry is one logged utterance.
type HistoryEntry struct {
	Seq        int64       `json:"seq"`
	ID         string      `json:"id"`
	Phrase     string      `json:"phrase"`
	Action     string      `json:"action,omitempty"`
	TargetHash string      `json:"target_hash"`
	Target     ir.IRObject `json:"target"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show logged utterances",
		Long: `Show the utterance history, oldest first.

The database defaults to history.db from the config. With --target, only
utterances that resolved to the target tree with that hash are shown.

Examples:
  hatgram history --limit 20
  hatgram history --db ./hatgram.db --format json
  hatgram history --target 3f5a...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite history database")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show only the most recent N utterances (0 = all)")
	cmd.Flags().StringVar(&opts.TargetHash, "target", "", "filter by target hash")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db := opts.Database
	if db == "" {
		cfg, err := opts.loadConfig(opts.logger(cmd.ErrOrStderr()))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
		}
		db = cfg.History.DB
	}
	if db == "" {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, "no history database: set history.db or pass --db", nil)
	}
	// store.Open would create an empty database
	if _, err := os.Stat(db); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("history database not found: %s", db), nil)
	}

	st, err := store.Open(db)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, err.Error(), nil)
	}
	defer st.Close()

	var utterances []ir.Utterance
	if opts.TargetHash != "" {
		utterances, err = st.ReadByTarget(ctx, opts.TargetHash)
		if err == nil && opts.Limit > 0 && len(utterances) > opts.Limit {
			utterances = utterances[len(utterances)-opts.Limit:]
		}
	} else {
		utterances, err = st.ListUtterances(ctx, opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeHistory, err.Error(), nil)
	}

	entries := make([]HistoryEntry, len(utterances))
	for i, u := range utterances {
		entries[i] = HistoryEntry{
			Seq:        u.Seq,
			ID:         u.ID,
			Phrase:     u.Phrase,
			Action:     u.Action,
			TargetHash: u.TargetHash,
			Target:     u.Target,
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No utterances logged.")
		return nil
	}
	for _, e := range entries {
		action := e.Action
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(formatter.Writer, "%6d  %-16s %-12.12s %s\n", e.Seq, action, e.TargetHash, e.Phrase)
	}
	return nil
}
