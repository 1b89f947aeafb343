package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hatgram/internal/ir"
	"github.com/roach88/hatgram/internal/metrics"
	"github.com/roach88/hatgram/internal/store"
	"github.com/roach88/hatgram/internal/target"
	"github.com/roach88/hatgram/internal/testutil"
)

var errNoParse = errors.New("no parse")

// fakeResolver maps phrases to fixed commands.
type fakeResolver map[string]target.Command

func (f fakeResolver) Resolve(phrase string) (target.Command, error) {
	cmd, ok := f[phrase]
	if !ok {
		return target.Command{}, errNoParse
	}
	return cmd, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func blueAir() target.Command {
	return target.Command{
		Target: target.PrimitiveFromMark(target.DecoratedSymbol{SymbolColor: "blue", Character: "a"}),
	}
}

func takeThis() target.Command {
	return target.Command{
		Action: "setSelection",
		Target: target.PrimitiveFromMark(target.SpecialMark{Kind: target.MarkCursor}),
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	r := fakeResolver{"blue air": blueAir(), "take this": takeThis()}
	base := []Option{WithIDGenerator(testutil.NewFixedIDs("utt")), WithLogger(testLogger())}
	return New(r, append(base, opts...)...)
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func runEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Error("engine did not stop")
		}
	})
}

func TestResolveNow_BareTarget(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.ResolveNow(context.Background(), "  blue   air ")
	require.NoError(t, err)

	u := res.Utterance
	assert.Equal(t, "utt-0001", u.ID)
	assert.Equal(t, "blue air", u.Phrase, "whitespace is normalized")
	assert.Equal(t, "", u.Action)
	assert.Equal(t, int64(1), u.Seq)
	assert.Equal(t, ir.IRVersion, u.IRVersion)
	assert.Equal(t, ir.MustTargetHash(u.Target), u.TargetHash)
	assert.Equal(t, u.Target, res.Output, "bare target output is the tree itself")
}

func TestResolveNow_ActionEnvelope(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.ResolveNow(context.Background(), "take this")
	require.NoError(t, err)

	assert.Equal(t, "setSelection", res.Utterance.Action)
	assert.Equal(t, ir.IRString("setSelection"), res.Output["action"])
	targets, ok := res.Output["targets"].(ir.IRArray)
	require.True(t, ok)
	require.Len(t, targets, 1)
	assert.Equal(t, res.Utterance.Target, targets[0])
}

func TestResolveNow_Errors(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.ResolveNow(context.Background(), "zebra")
	assert.ErrorIs(t, err, errNoParse)

	_, err = e.ResolveNow(context.Background(), "   ")
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeEmptyPhrase, re.Code)

	assert.Equal(t, int64(0), e.Clock().Current(), "failed phrases do not advance the clock")
}

func TestResolveNow_WritesHistory(t *testing.T) {
	s := setupTestStore(t)
	e := newTestEngine(t, WithStore(s))
	ctx := context.Background()

	_, err := e.ResolveNow(ctx, "blue air")
	require.NoError(t, err)
	_, err = e.ResolveNow(ctx, "take this")
	require.NoError(t, err)

	history, err := s.ListUtterances(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "blue air", history[0].Phrase)
	assert.Equal(t, "setSelection", history[1].Action)
	assert.Equal(t, int64(2), history[1].Seq)
}

func TestResolveNow_ClockResume(t *testing.T) {
	e := newTestEngine(t, WithClock(NewClockAt(10)))

	res, err := e.ResolveNow(context.Background(), "blue air")
	require.NoError(t, err)
	assert.Equal(t, int64(11), res.Utterance.Seq)
}

func TestResolveNow_Metrics(t *testing.T) {
	m := metrics.New()
	e := newTestEngine(t, WithMetrics(m))

	_, _ = e.ResolveNow(context.Background(), "blue air")
	_, _ = e.ResolveNow(context.Background(), "zebra")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRun_ResolveThroughLoop(t *testing.T) {
	e := newTestEngine(t)
	runEngine(t, e)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := e.Resolve(ctx, "blue air")
	require.NoError(t, err)
	assert.Equal(t, "blue air", res.Utterance.Phrase)
}

func TestRun_TasksAndUtterancesStayOrdered(t *testing.T) {
	e := newTestEngine(t)

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}

	require.True(t, e.Post(func() { record("reload-1") }))
	e.Dispatch(func() { record("reload-2") })
	runEngine(t, e)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := e.Resolve(ctx, "blue air")
	require.NoError(t, err)
	record("resolved")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"reload-1", "reload-2", "resolved"}, order)
}

func TestRun_TaskPanicDoesNotStopLoop(t *testing.T) {
	e := newTestEngine(t)
	e.Post(func() { panic("bad reload") })
	runEngine(t, e)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := e.Resolve(ctx, "blue air")
	assert.NoError(t, err)
}

func TestRun_StopRejectsLaterWork(t *testing.T) {
	e := newTestEngine(t)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	e.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}

	_, err := e.Resolve(context.Background(), "blue air")
	assert.True(t, IsStopped(err))
	assert.False(t, e.Post(func() {}))
}

func TestRun_ContextCancelAnswersPending(t *testing.T) {
	e := newTestEngine(t)

	// Queue an utterance before the loop exists, then cancel the loop
	// before it can be served.
	req := &utteranceRequest{phrase: "blue air", reply: make(chan reply, 1)}
	e.queue.Enqueue(Event{Type: EventTypeUtterance, Utterance: req})
	e.queue.Close()
	e.rejectPending()

	select {
	case r := <-req.reply:
		assert.True(t, IsStopped(r.err))
	default:
		t.Fatal("pending utterance was not answered")
	}
}

func TestResolve_CallerContextCancelled(t *testing.T) {
	e := newTestEngine(t) // loop never runs

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Resolve(ctx, "blue air")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunPending(t *testing.T) {
	e := newTestEngine(t)

	ran := 0
	e.Post(func() { ran++ })
	e.Post(func() { ran++ })
	e.Post(nil) // ignored

	assert.Equal(t, 2, e.RunPending(context.Background()))
	assert.Equal(t, 2, ran)
	assert.Equal(t, 0, e.RunPending(context.Background()))
}

func TestRuntimeError_Message(t *testing.T) {
	err := &RuntimeError{Code: ErrCodeTaskPanic, Message: "boom", Phrase: "blue air", Err: errNoParse}
	assert.Equal(t, `TASK_PANIC: boom (phrase="blue air"): no parse`, err.Error())
	assert.ErrorIs(t, err, errNoParse)
}
