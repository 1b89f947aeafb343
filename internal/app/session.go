package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/hatgram/internal/compiler"
	"github.com/roach88/hatgram/internal/engine"
	"github.com/roach88/hatgram/internal/grammar"
	"github.com/roach88/hatgram/internal/hats"
	"github.com/roach88/hatgram/internal/metrics"
	"github.com/roach88/hatgram/internal/store"
	"github.com/roach88/hatgram/internal/target"
	"github.com/roach88/hatgram/internal/terms"
	"github.com/roach88/hatgram/internal/watch"
)

// Options configures Open. The zero value is a defaults-only session with
// no customization files, no watching and no history.
type Options struct {
	// Defaults replaces the built-in tables when set.
	Defaults *compiler.Defaults

	CustomizationDir string
	SettingsPath     string
	CreateMissing    bool

	FastDelay time.Duration
	SlowDelay time.Duration
	Scheduler hats.Scheduler

	FullLineNumbers bool
	Snapshot        target.SnapshotSignal

	// Watch subscribes to override and settings files.
	Watch bool

	Store   *store.Store
	IDs     engine.IDGenerator
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Session is an assembled pipeline.
type Session struct {
	Defaults *compiler.Defaults
	Terms    *terms.Manager
	Hats     *hats.Controller
	Grammar  *grammar.Grammar
	Engine   *engine.Engine

	// Reports holds the load report of every domain, hat_styles last.
	Reports []terms.LoadReport

	watcher *watch.Watcher
	logger  *slog.Logger
}

// Open loads every domain and wires the pipeline. The engine loop is not
// started; call Run, or use ResolveNow for one-shot work.
func Open(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	defaults := opts.Defaults
	if defaults == nil {
		var err error
		defaults, err = compiler.Builtin()
		if err != nil {
			return nil, fmt.Errorf("compile built-in defaults: %w", err)
		}
	}
	if verrs := compiler.Validate(defaults); len(verrs) > 0 {
		return nil, fmt.Errorf("invalid defaults: %w", verrs[0])
	}

	s := &Session{Defaults: defaults, logger: logger}

	termOpts := []terms.Option{
		terms.WithLogger(logger),
		terms.WithMetrics(opts.Metrics),
		terms.WithCreateMissing(opts.CreateMissing),
	}
	if opts.Watch {
		w, err := watch.New(logger)
		if err != nil {
			return nil, fmt.Errorf("start watcher: %w", err)
		}
		s.watcher = w
		termOpts = append(termOpts, terms.WithWatch(w.Watch))
	}
	s.Terms = terms.NewManager(opts.CustomizationDir, termOpts...)

	resolverOpts := []target.ResolverOption{}
	if opts.Snapshot != nil {
		resolverOpts = append(resolverOpts, target.WithSnapshotSignal(opts.Snapshot))
	}
	s.Grammar = grammar.New(s.Terms,
		grammar.WithResolver(target.NewResolver(resolverOpts...)),
		grammar.WithLineDirections(defaults.LineDirections),
		grammar.WithFullLineNumbers(opts.FullLineNumbers),
	)

	engOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMetrics(opts.Metrics),
	}
	if opts.IDs != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(opts.IDs))
	}
	if opts.Store != nil {
		seq, err := opts.Store.LatestSeq(ctx)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("resume history clock: %w", err)
		}
		engOpts = append(engOpts, engine.WithStore(opts.Store), engine.WithClock(engine.NewClockAt(seq)))
	}
	s.Engine = engine.New(s.Grammar, engOpts...)
	s.Terms.SetDispatcher(s.Engine.Dispatch)

	for _, name := range defaults.DomainNames() {
		_, report, err := s.Terms.Load(name, defaults.Domain(name), nil)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Reports = append(s.Reports, report)
	}

	s.Hats = hats.NewController(hats.Config{
		Hats:         defaults.Hats,
		SettingsPath: opts.SettingsPath,
		Terms:        s.Terms,
		Scheduler:    opts.Scheduler,
		FastDelay:    opts.FastDelay,
		SlowDelay:    opts.SlowDelay,
		Dispatch:     s.Engine.Dispatch,
		Logger:       logger,
		Metrics:      opts.Metrics,
	})
	report, err := s.Hats.Setup()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Reports = append(s.Reports, report)

	if s.watcher != nil {
		if err := s.Hats.Watch(s.watcher.Watch); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Run drives the engine loop until ctx is cancelled or Close is called.
func (s *Session) Run(ctx context.Context) error {
	err := s.Engine.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Resolve resolves one phrase. With the loop running it goes through the
// queue; otherwise pending reloads are applied first and the phrase is
// resolved inline.
func (s *Session) Resolve(ctx context.Context, phrase string, looping bool) (engine.Result, error) {
	if looping {
		return s.Engine.Resolve(ctx, phrase)
	}
	s.Engine.RunPending(ctx)
	return s.Engine.ResolveNow(ctx, phrase)
}

// Rejected returns every rejected override row across the load reports.
func (s *Session) Rejected() []terms.RowError {
	var out []terms.RowError
	for _, r := range s.Reports {
		out = append(out, r.Rejected...)
	}
	return out
}

// Close stops timers, releases watches and stops the engine. The store is
// owned by the caller.
func (s *Session) Close() error {
	if s.Hats != nil {
		s.Hats.Close()
	}
	if s.Terms != nil {
		s.Terms.Close()
	}
	if s.Engine != nil {
		s.Engine.Stop()
	}
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
