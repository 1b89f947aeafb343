package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hatgram/internal/compiler"
	"github.com/roach88/hatgram/internal/terms"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Defaults []compiler.ValidationError `json:"defaults,omitempty"`
	Domains  []DomainReport             `json:"domains,omitempty"`
}

// DomainReport is the outcome of loading one override file.
type DomainReport struct {
	Domain      string     `json:"domain"`
	Path        string     `json:"path,omitempty"`
	Applied     int        `json:"applied"`
	Skipped     int        `json:"skipped"`
	HeaderError string     `json:"header_error,omitempty"`
	Rejected    []RowIssue `json:"rejected,omitempty"`
}

// RowIssue is one rejected override row.
type RowIssue struct {
	Line       int    `json:"line"`
	SpokenForm string `json:"spoken_form"`
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [customization-dir]",
		Short: "Check the defaults and every override file",
		Long: `Validate the default tables and load every override file without
writing anything. Rejected rows are listed with a suggested identifier.

The customization directory defaults to customization_dir from the config.

Exit codes:
  0 - Everything loads cleanly
  1 - Rows rejected or a file ignored for its header
  2 - Command error (broken defaults, bad config, etc.)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	cfg, err := opts.loadConfig(logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	if dir != "" {
		cfg.CustomizationDir = dir
	}
	cfg.CreateMissing = false

	defaults, err := loadDefaults(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBuildFailed, err.Error(), nil)
	}
	if defaults == nil {
		if defaults, err = compiler.Builtin(); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeBuildFailed, err.Error(), nil)
		}
	}
	if verrs := compiler.Validate(defaults); len(verrs) > 0 {
		return outputValidationErrors(formatter, ValidationResult{Defaults: verrs}, ExitCommandError)
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

	result := ValidationResult{Valid: true}
	for _, r := range sess.Reports {
		formatter.VerboseLog("loaded %s: %d applied, %d skipped, %d rejected", r.Domain, r.Applied, r.Skipped, len(r.Rejected))
		dr := domainReport(r)
		if dr.HeaderError != "" || len(dr.Rejected) > 0 {
			result.Valid = false
		}
		result.Domains = append(result.Domains, dr)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result, ExitFailure)
	}
	return outputValidateSuccess(formatter, result)
}

func domainReport(r terms.LoadReport) DomainReport {
	dr := DomainReport{Domain: r.Domain, Path: r.Path, Applied: r.Applied, Skipped: r.Skipped}
	if r.HeaderError != nil {
		dr.HeaderError = r.HeaderError.Error()
	}
	for _, rej := range r.Rejected {
		dr.Rejected = append(dr.Rejected, RowIssue{
			Line:       rej.Line,
			SpokenForm: rej.SpokenForm,
			Identifier: rej.Identifier,
			Reason:     rej.Reason,
			Suggestion: rej.Suggestion,
		})
	}
	return dr
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d domain(s) valid\n", len(result.Domains))
	return nil
}

// outputValidationErrors outputs defaults errors or rejected rows.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult, exitCode int) error {
	code, message := validationSummary(result)

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: code, Message: message},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return reportedExitError(exitCode, message)
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, e := range result.Defaults {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", e.Code, e.Field, e.Message)
	}
	for _, d := range result.Domains {
		if d.HeaderError != "" {
			fmt.Fprintf(formatter.Writer, "%s: file ignored: %s\n", d.Domain, d.HeaderError)
		}
		for _, r := range d.Rejected {
			fmt.Fprintf(formatter.Writer, "%s:%d: %s", d.Path, r.Line, r.Reason)
			if r.Suggestion != "" {
				fmt.Fprintf(formatter.Writer, " (did you mean %q?)", r.Suggestion)
			}
			fmt.Fprintln(formatter.Writer)
		}
	}

	return reportedExitError(exitCode, message)
}

func validationSummary(result ValidationResult) (string, string) {
	if len(result.Defaults) > 0 {
		return ErrCodeBuildFailed, fmt.Sprintf("defaults invalid with %d error(s)", len(result.Defaults))
	}
	rejected, ignored := 0, 0
	for _, d := range result.Domains {
		rejected += len(d.Rejected)
		if d.HeaderError != "" {
			ignored++
		}
	}
	if rejected > 0 {
		return ErrCodeRejectedRows, fmt.Sprintf("%d row(s) rejected, %d file(s) ignored", rejected, ignored)
	}
	return ErrCodeBadHeader, fmt.Sprintf("%d file(s) ignored", ignored)
}
