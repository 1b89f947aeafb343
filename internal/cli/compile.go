package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/hatgram/internal/compiler"
	"github.com/roach88/hatgram/internal/terms"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledDefaults is the JSON form of a compiled defaults set.
type CompiledDefaults struct {
	Domains        map[string]terms.Tables `json:"domains"`
	Hats           CompiledHats            `json:"hats"`
	LineDirections map[string]string       `json:"line_directions"`
}

// CompiledHats is the JSON form of the hat style tables.
type CompiledHats struct {
	Colors          map[string]string `json:"colors"`
	Shapes          map[string]string `json:"shapes"`
	ColorEnablement map[string]bool   `json:"color_enablement"`
	ShapeEnablement map[string]bool   `json:"shape_enablement"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	Domains    int `json:"domains"`
	Lists      int `json:"lists"`
	Terms      int `json:"terms"`
	Colors     int `json:"colors"`
	Shapes     int `json:"shapes"`
	Directions int `json:"directions"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [defaults-dir]",
		Short: "Compile CUE default tables",
		Long: `Compile a CUE defaults package and check it.

Without an argument the built-in defaults are compiled. A defaults
directory uses the same layout as the built-in tables:

  domain: <name>: list: <list>: { <spoken form>: <identifier> }
  hats: colors|shapes: { <spoken form>: <identifier> }
  hats: enablement: colors|shapes: { <identifier>: bool }
  lines: direction: { <spoken form>: row|up|down }

Point defaults_dir in the config at a directory to use it.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // we handle our own error output
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runCompile(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled tables as JSON")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var defaults *compiler.Defaults
	var err error
	if dir == "" {
		formatter.VerboseLog("Compiling built-in defaults")
		defaults, err = compiler.Builtin()
	} else {
		files, ferr := findCUEFiles(dir)
		if ferr != nil {
			return outputCompileError(formatter, ErrCodeNotFound, ferr.Error())
		}
		formatter.VerboseLog("Found %d CUE file(s) in %s", len(files), dir)
		defaults, err = compiler.CompileDir(dir)
	}
	if err != nil {
		return outputCompileError(formatter, ErrCodeBuildFailed, describeCompileError(err))
	}

	if verrs := compiler.Validate(defaults); len(verrs) > 0 {
		return outputValidationErrors(formatter, ValidationResult{Defaults: verrs}, ExitCommandError)
	}

	result := toCompiled(defaults)
	stats := calculateStats(result)

	if opts.Output != "" {
		if err := writeCompiled(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, stats, opts.Output)
}

// findCUEFiles lists the .cue files directly in dir.
func findCUEFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("defaults directory not found: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}
	return files, nil
}

func toCompiled(d *compiler.Defaults) *CompiledDefaults {
	return &CompiledDefaults{
		Domains: d.Domains,
		Hats: CompiledHats{
			Colors:          d.Hats.Colors,
			Shapes:          d.Hats.Shapes,
			ColorEnablement: d.Hats.ColorEnablement,
			ShapeEnablement: d.Hats.ShapeEnablement,
		},
		LineDirections: d.LineDirections,
	}
}

// calculateStats computes summary statistics from the compiled tables.
func calculateStats(result *CompiledDefaults) CompilationStats {
	stats := CompilationStats{
		Domains:    len(result.Domains),
		Colors:     len(result.Hats.Colors),
		Shapes:     len(result.Hats.Shapes),
		Directions: len(result.LineDirections),
	}
	for _, tables := range result.Domains {
		stats.Lists += len(tables)
		for _, list := range tables {
			stats.Terms += len(list)
		}
	}
	return stats
}

// describeCompileError renders a compile error with its CUE position.
func describeCompileError(err error) string {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) && compileErr.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", compileErr.Pos.Filename(), compileErr.Pos.Line(), compileErr.Pos.Column(), compileErr.Message)
	}
	return err.Error()
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompiledDefaults, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"stats": stats, "output": outputFile})
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d domain(s), %d list(s), %d term(s)\n",
		stats.Domains, stats.Lists, stats.Terms)
	fmt.Fprintf(formatter.Writer, "  hats: %d color(s), %d shape(s)\n", stats.Colors, stats.Shapes)
	fmt.Fprintf(formatter.Writer, "  lines: %d direction(s)\n", stats.Directions)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote compiled tables to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	// Compilation errors are command-level errors (exit code 2)
	return formatter.Fail(ExitCommandError, code, message, nil)
}

// writeCompiled writes the compiled tables as indented JSON.
func writeCompiled(result *CompiledDefaults, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling defaults: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
