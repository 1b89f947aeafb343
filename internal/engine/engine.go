package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/hatgram/internal/ir"
	"github.com/roach88/hatgram/internal/metrics"
	"github.com/roach88/hatgram/internal/store"
	"github.com/roach88/hatgram/internal/target"
)

// PhraseResolver turns a phrase into a command. *grammar.Grammar implements it.
type PhraseResolver interface {
	Resolve(phrase string) (target.Command, error)
}

// IDGenerator generates unique utterance IDs.
// Implemented by UUIDv7Generator (production) and testutil.FixedIDs (tests).
type IDGenerator interface {
	Generate() string
}

// Result is one resolved utterance.
type Result struct {
	// Utterance is the history record.
	Utterance ir.Utterance

	// Output is the wire form: the target tree, or {action, targets}
	// when the phrase began with an action.
	Output ir.IRObject
}

// Engine is the single-writer event loop.
//
// Thread-safety model:
//   - Post, Resolve, Stop: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - ResolveNow: only while Run is not running
type Engine struct {
	resolver PhraseResolver
	store    *store.Store
	ids      IDGenerator
	clock    *Clock
	queue    *eventQueue
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore appends every resolved utterance to s.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithIDGenerator replaces the default UUIDv7 generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithClock sets the logical clock, e.g. one resumed from the history.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithMetrics records resolution counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine around a phrase resolver.
func New(r PhraseResolver, opts ...Option) *Engine {
	e := &Engine{
		resolver: r,
		ids:      UUIDv7Generator{},
		clock:    NewClock(),
		queue:    newEventQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Post submits a task to run on the loop goroutine.
// Returns false if the engine has been stopped.
func (e *Engine) Post(task func()) bool {
	if task == nil {
		return true
	}
	return e.queue.Enqueue(Event{Type: EventTypeTask, Task: task})
}

// Dispatch posts task and drops it if the engine is stopped.
// It has the shape of terms.Dispatcher.
func (e *Engine) Dispatch(task func()) {
	if !e.Post(task) {
		e.logger.Debug("task dropped: engine stopped")
	}
}

// Resolve enqueues phrase and waits for the loop to resolve it.
func (e *Engine) Resolve(ctx context.Context, phrase string) (Result, error) {
	req := &utteranceRequest{phrase: phrase, reply: make(chan reply, 1)}
	if !e.queue.Enqueue(Event{Type: EventTypeUtterance, Utterance: req}) {
		return Result{}, newStoppedError(phrase)
	}

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-req.reply:
		return r.result, r.err
	}
}

// ResolveNow resolves phrase on the calling goroutine.
// Use it only when Run is not running.
func (e *Engine) ResolveNow(ctx context.Context, phrase string) (Result, error) {
	return e.resolve(ctx, phrase)
}

// RunPending processes every queued event on the calling goroutine and
// returns how many ran. Like ResolveNow it is for callers with no loop
// running: the scenario harness uses it to apply posted reloads.
func (e *Engine) RunPending(ctx context.Context) int {
	n := 0
	for {
		event, ok := e.queue.TryDequeue()
		if !ok {
			return n
		}
		e.processEvent(ctx, event)
		n++
	}
}

// Run starts the event loop.
// Blocks until context is cancelled or Stop() is called.
//
// Utterances still queued when the loop exits are answered with an
// ENGINE_STOPPED error so no caller waits forever.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")
	defer e.rejectPending()

	for {
		event, ok := e.queue.TryDequeue()
		if ok {
			e.processEvent(ctx, event)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue.
			if e.queue.Len() == 0 && e.queue.Closed() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue, which causes Run to return.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) rejectPending() {
	for _, ev := range e.queue.Drain() {
		if ev.Type == EventTypeUtterance && ev.Utterance != nil {
			ev.Utterance.reply <- reply{err: newStoppedError(ev.Utterance.phrase)}
		}
	}
}

// processEvent routes an event to its handler.
// Called only from the Run goroutine.
func (e *Engine) processEvent(ctx context.Context, event Event) {
	switch event.Type {
	case EventTypeUtterance:
		req := event.Utterance
		if req == nil {
			e.logger.Error("utterance event missing request")
			return
		}
		res, err := e.resolve(ctx, req.phrase)
		req.reply <- reply{result: res, err: err}

	case EventTypeTask:
		if err := e.runTask(event.Task); err != nil {
			e.logger.Error("task failed", "error", err)
		}

	default:
		e.logger.Error("unknown event type", "type", int(event.Type))
	}
}

// runTask runs a posted task, turning a panic into an error so one bad
// reload cannot take the loop down.
func (e *Engine) runTask(task func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RuntimeError{
				Code:    ErrCodeTaskPanic,
				Message: fmt.Sprint(r),
			}
		}
	}()
	task()
	return nil
}

func (e *Engine) resolve(ctx context.Context, phrase string) (Result, error) {
	normalized := strings.Join(strings.Fields(phrase), " ")
	if normalized == "" {
		return Result{}, &RuntimeError{
			Code:    ErrCodeEmptyPhrase,
			Message: "phrase has no words",
		}
	}

	start := time.Now()
	cmd, err := e.resolver.Resolve(normalized)
	e.metrics.Utterance(time.Since(start), err)
	if err != nil {
		e.logger.Debug("phrase rejected", "phrase", normalized, "error", err)
		return Result{}, err
	}

	tree := cmd.Target.ToIR()
	hash, err := ir.TargetHash(tree)
	if err != nil {
		return Result{}, fmt.Errorf("hash target: %w", err)
	}

	u := ir.Utterance{
		ID:         e.ids.Generate(),
		Phrase:     normalized,
		Action:     cmd.Action,
		Target:     tree,
		TargetHash: hash,
		Seq:        e.clock.Next(),
		IRVersion:  ir.IRVersion,
	}

	if e.store != nil {
		// A failed history write does not fail the utterance.
		if err := e.store.WriteUtterance(ctx, u); err != nil {
			e.logger.Error("write utterance history",
				"id", u.ID,
				"seq", u.Seq,
				"error", err,
			)
		}
	}

	e.logger.Debug("phrase resolved",
		"id", u.ID,
		"phrase", u.Phrase,
		"action", u.Action,
		"seq", u.Seq,
	)

	return Result{Utterance: u, Output: cmd.ToIR()}, nil
}
