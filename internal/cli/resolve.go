package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/hatgram/internal/engine"
	"github.com/roach88/hatgram/internal/grammar"
	"github.com/roach88/hatgram/internal/ir"
	"github.com/roach88/hatgram/internal/target"
)

// ResolveOutput is the JSON payload of a resolved phrase.
type ResolveOutput struct {
	Phrase string      `json:"phrase"`
	Action string      `json:"action,omitempty"`
	Seq    int64       `json:"seq"`
	Output ir.IRObject `json:"output"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <phrase>...",
		Short: "Resolve one phrase to its target tree",
		Long: `Resolve one spoken phrase against the current term tables and print
the target tree. All arguments are joined into a single phrase.

The phrase is logged to the history database when history.db is set.

Exit codes:
  0 - Phrase resolved
  1 - Phrase did not resolve
  2 - Command error (bad config, unreadable overrides, etc.)

Examples:
  hatgram resolve blue air
  hatgram resolve take blue air past green bat --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, strings.Join(args, " "), cmd)
		},
	}
	return cmd
}

func runResolve(opts *RootOptions, phrase string, cmd *cobra.Command) error {
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

	sess, err := openSession(ctx, cfg, logger, sessionOptions{history: true})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSession, err.Error(), nil)
	}
	defer sess.Close()

	res, err := sess.Engine.ResolveNow(ctx, phrase)
	if err != nil {
		return resolveFailure(formatter, err)
	}
	return outputResolved(formatter, res)
}

// resolveFailure reports a phrase that did not resolve. Grammar and lookup
// errors are the caller's problem (exit 1); anything else is ours (exit 2).
func resolveFailure(formatter *OutputFormatter, err error) error {
	var pe *grammar.ParseError
	if errors.As(err, &pe) {
		return formatter.Fail(ExitFailure, ErrCodeUnresolved, err.Error(), map[string]any{
			"code":     pe.Code,
			"position": pe.Position,
			"word":     pe.Word,
		})
	}
	var le *target.LookupError
	if errors.As(err, &le) {
		return formatter.Fail(ExitFailure, ErrCodeUnresolved, err.Error(), map[string]any{
			"table":      le.Table,
			"identifier": le.Identifier,
		})
	}
	var re *engine.RuntimeError
	if errors.As(err, &re) && re.Code == engine.ErrCodeEmptyPhrase {
		return formatter.Fail(ExitFailure, ErrCodeUnresolved, err.Error(), nil)
	}
	return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

func outputResolved(formatter *OutputFormatter, res engine.Result) error {
	if formatter.Format == "json" {
		return formatter.Success(ResolveOutput{
			Phrase: res.Utterance.Phrase,
			Action: res.Utterance.Action,
			Seq:    res.Utterance.Seq,
			Output: res.Output,
		})
	}

	data, err := ir.MarshalCanonical(res.Output)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("encode target: %v", err), nil)
	}
	fmt.Fprintln(formatter.Writer, string(data))
	return nil
}
