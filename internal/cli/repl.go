package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/roach88/hatgram/internal/engine"
	"github.com/roach88/hatgram/internal/ir"
	"github.com/roach88/hatgram/internal/metrics"
	"github.com/roach88/hatgram/internal/terms"
)

const (
	replPrompt      = "hat> "
	replHistoryFile = ".hatgram_history"
)

// ReplOptions holds flags for the repl command.
type ReplOptions struct {
	*RootOptions
	MetricsAddr string
}

// NewReplCommand creates the repl command.
func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Resolve phrases interactively",
		Long: `Start an interactive session. Each line is resolved as one phrase.

Override files and the settings file are watched while the session runs;
edits take effect without a restart.

Commands:
  :rejected  list rejected override rows
  :help      show this help
  :quit      exit

Examples:
  hatgram repl
  hatgram repl --metrics-addr :9464`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

func runRepl(opts *ReplOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	cfg, err := opts.loadConfig(logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	m := metrics.New()
	sess, err := openSession(ctx, cfg, logger, sessionOptions{watch: true, history: true, metrics: m})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSession, err.Error(), nil)
	}
	defer sess.Close()

	if opts.MetricsAddr != "" {
		stop := serveMetrics(opts.MetricsAddr, m, logger)
		defer stop()
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- sess.Run(ctx) }()

	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	closeLiner := sync.OnceFunc(func() { _ = ln.Close() })
	defer closeLiner()
	histPath := replHistoryPath()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM)
	defer signal.Stop(sigc)
	go func() {
		select {
		case <-sigc:
			cancel()
			closeLiner()
		case <-ctx.Done():
		}
	}()

	repl := &replSession{
		resolve:  func(phrase string) (engine.Result, error) { return sess.Resolve(ctx, phrase, true) },
		rejected: sess.Rejected,
		out:      formatter.Writer,
		errOut:   formatter.GetErrWriter(),
	}
	fmt.Fprintln(formatter.Writer, "hatgram repl. Type :help for commands, :quit to exit.")
	repl.run(ln)

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}
	closeLiner()

	cancel()
	if err := <-loopDone; err != nil {
		return WrapExitError(ExitCommandError, "engine loop", err)
	}
	return nil
}

func replHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, replHistoryFile)
}

// serveMetrics serves /metrics in the background and returns a shutdown func.
func serveMetrics(addr string, m *metrics.Metrics, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// lineReader is the part of liner.State the loop uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// replSession is the read-resolve-print loop, independent of the terminal.
type replSession struct {
	resolve  func(phrase string) (engine.Result, error)
	rejected func() []terms.RowError
	out      io.Writer
	errOut   io.Writer
}

func (r *replSession) run(in lineReader) {
	for {
		line, err := in.Prompt(replPrompt)
		if err != nil {
			// io.EOF, liner.ErrPromptAborted or a closed terminal
			fmt.Fprintln(r.out)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		in.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			if r.command(line) {
				return
			}
			continue
		}
		r.resolveLine(line)
	}
}

// command runs a colon command and reports whether to exit.
func (r *replSession) command(line string) bool {
	switch strings.ToLower(line) {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(r.out, "Type a phrase to resolve it. :rejected lists rejected override rows. :quit exits.")
	case ":rejected":
		rows := r.rejected()
		if len(rows) == 0 {
			fmt.Fprintln(r.out, "no rejected rows")
		}
		for _, row := range rows {
			fmt.Fprintln(r.out, row.Error())
		}
	default:
		fmt.Fprintf(r.out, "unknown command %s. Type :help.\n", line)
	}
	return false
}

func (r *replSession) resolveLine(phrase string) {
	res, err := r.resolve(phrase)
	if err != nil {
		fmt.Fprintf(r.errOut, "error: %v\n", err)
		return
	}
	data, err := ir.MarshalCanonical(res.Output)
	if err != nil {
		fmt.Fprintf(r.errOut, "error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "#%d %s\n", res.Utterance.Seq, data)
}
