package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/hatgram/internal/terms"
)

// TermsOptions holds flags for the terms command.
type TermsOptions struct {
	*RootOptions
	Export string // directory to write one CSV per domain
}

// TermEntry is one spoken form in a listing.
type TermEntry struct {
	Domain     string `json:"domain"`
	List       string `json:"list"`
	SpokenForm string `json:"spoken_form"`
	Identifier string `json:"identifier"`
}

// NewTermsCommand creates the terms command.
func NewTermsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TermsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "terms [domain]...",
		Short: "List the live term tables",
		Long: `List every spoken form after overrides and hat enablement are applied.

With --export, each listed domain is written to <dir>/<domain>.csv in the
override file format instead.

Examples:
  hatgram terms
  hatgram terms actions special_marks
  hatgram terms --export ./snapshot`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerms(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Export, "export", "", "write each domain as an override CSV into this directory")

	return cmd
}

func runTerms(opts *TermsOptions, domains []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	cfg, err := opts.loadConfig(logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sess, err := openSession(ctx, cfg, logger, sessionOptions{})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSession, err.Error(), nil)
	}
	defer sess.Close()

	all := sess.Terms.Domains()
	if len(domains) == 0 {
		domains = all
	}
	for _, d := range domains {
		if !slices.Contains(all, d) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("unknown domain %q", d), all)
		}
	}

	var entries []TermEntry
	for _, d := range domains {
		reg, err := sess.Terms.Registry(d)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
		entries = append(entries, domainEntries(d, reg.Vocabulary())...)
	}

	if opts.Export != "" {
		return exportTerms(formatter, opts.Export, domains, entries)
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}
	list := ""
	for _, e := range entries {
		if key := e.Domain + "." + e.List; key != list {
			fmt.Fprintf(formatter.Writer, "%s:\n", key)
			list = key
		}
		fmt.Fprintf(formatter.Writer, "  %-16s %s\n", e.SpokenForm, e.Identifier)
	}
	return nil
}

// domainEntries flattens a vocabulary, sorted by list then spoken form.
func domainEntries(domain string, v *terms.Vocabulary) []TermEntry {
	var out []TermEntry
	for _, list := range v.ListNames() {
		entries := v.List(list)
		spoken := make([]string, 0, len(entries))
		for s := range entries {
			spoken = append(spoken, s)
		}
		slices.Sort(spoken)
		for _, s := range spoken {
			out = append(out, TermEntry{Domain: domain, List: list, SpokenForm: s, Identifier: entries[s]})
		}
	}
	return out
}

func exportTerms(formatter *OutputFormatter, dir string, domains []string, entries []TermEntry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}
	written := make([]string, 0, len(domains))
	for _, d := range domains {
		var rows [][]string
		for _, e := range entries {
			if e.Domain == d {
				rows = append(rows, []string{e.SpokenForm, e.Identifier})
			}
		}
		path := filepath.Join(dir, d+".csv")
		if err := terms.WriteOverrides(path, rows); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
		}
		formatter.VerboseLog("wrote %d row(s) to %s", len(rows), path)
		written = append(written, path)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"files": written})
	}
	fmt.Fprintf(formatter.Writer, "✓ Exported %d domain(s) to %s\n", len(written), dir)
	return nil
}
