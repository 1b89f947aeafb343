package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/hatgram/internal/app"
	"github.com/roach88/hatgram/internal/config"
	"github.com/roach88/hatgram/internal/engine"
	"github.com/roach88/hatgram/internal/grammar"
	"github.com/roach88/hatgram/internal/ir"
	"github.com/roach88/hatgram/internal/store"
	"github.com/roach88/hatgram/internal/target"
	"github.com/roach88/hatgram/internal/terms"
	"github.com/roach88/hatgram/internal/testutil"
)

// ErrCodeLookup is the trace error code for a term table lookup failure.
const ErrCodeLookup = "LOOKUP_FAILED"

// Harness holds the per-run state of one scenario.
type Harness struct {
	session      *app.Session
	store        *store.Store
	scheduler    *testutil.ManualScheduler
	customDir    string
	settingsPath string
	slowDelay    time.Duration
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh temp directory with an in-memory history,
// fixed utterance IDs and a manual scheduler.
//
// Execution flow:
// 1. Write initial overrides and settings
// 2. Open a session over them
// 3. Execute steps, checking expect clauses
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "hatgram-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	h := &Harness{
		customDir:    filepath.Join(dir, "customization"),
		settingsPath: filepath.Join(dir, "settings.json"),
		scheduler:    testutil.NewManualScheduler(),
		slowDelay:    config.DefaultConfig().Reload.Slow,
	}
	if err := os.MkdirAll(h.customDir, 0o755); err != nil {
		return nil, fmt.Errorf("create customization dir: %w", err)
	}

	for domain, rows := range scenario.Overrides {
		if err := h.writeOverride(domain, rows); err != nil {
			return nil, err
		}
	}
	for domain, raw := range scenario.RawOverrides {
		if err := os.WriteFile(h.overridePath(domain), []byte(raw), 0o644); err != nil {
			return nil, fmt.Errorf("write %s override: %w", domain, err)
		}
	}
	if scenario.Settings != nil {
		if err := h.writeSettings(scenario.Settings); err != nil {
			return nil, err
		}
	}

	h.store, err = store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer h.store.Close()

	defaults := config.DefaultConfig()
	h.session, err = app.Open(ctx, app.Options{
		CustomizationDir: h.customDir,
		SettingsPath:     h.settingsPath,
		FastDelay:        defaults.Reload.Fast,
		SlowDelay:        h.slowDelay,
		Scheduler:        h.scheduler,
		FullLineNumbers:  scenario.FullLineNumbers,
		Store:            h.store,
		IDs:              testutil.NewFixedIDs("utt"),
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer h.session.Close()

	result := NewResult()
	result.Rejected = h.session.Rejected()

	for i, step := range scenario.Steps {
		if err := h.runStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	result.History, err = h.store.ListUtterances(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(a, result); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return result, nil
}

func (h *Harness) runStep(ctx context.Context, n int, step Step, result *Result) error {
	switch {
	case step.Say != "":
		h.say(ctx, n, step, result)
		return nil

	case step.Settings != nil:
		if err := h.writeSettings(step.Settings); err != nil {
			return err
		}
		h.session.Hats.SettingsChanged()
		h.scheduler.Advance(h.slowDelay)
		h.session.Engine.RunPending(ctx)
		result.Trace = append(result.Trace, TraceEvent{Kind: EventSettings, Step: n})
		return nil

	case step.Override != nil:
		if err := h.writeOverride(step.Override.Domain, step.Override.Rows); err != nil {
			return err
		}
		reg, err := h.session.Terms.Registry(step.Override.Domain)
		if err != nil {
			return err
		}
		report, err := reg.Reload()
		if err != nil {
			return err
		}
		result.Rejected = append(result.Rejected, report.Rejected...)
		result.Trace = append(result.Trace, TraceEvent{
			Kind:     EventOverride,
			Step:     n,
			Domain:   step.Override.Domain,
			Applied:  report.Applied,
			Rejected: len(report.Rejected),
		})
		return nil
	}
	return fmt.Errorf("empty step")
}

func (h *Harness) say(ctx context.Context, n int, step Step, result *Result) {
	res, err := h.session.Resolve(ctx, step.Say, false)
	if err != nil {
		code := errorCode(err)
		result.Trace = append(result.Trace, TraceEvent{Kind: EventError, Step: n, Phrase: step.Say, Error: code})
		switch {
		case step.Expect == nil || step.Expect.Error == "":
			result.AddError(fmt.Sprintf("step %d %q: unexpected error: %v", n, step.Say, err))
		case step.Expect.Error != code:
			result.AddError(fmt.Sprintf("step %d %q: error code = %s, want %s", n, step.Say, code, step.Expect.Error))
		}
		return
	}

	result.Trace = append(result.Trace, TraceEvent{
		Kind:   EventUtterance,
		Step:   n,
		Seq:    res.Utterance.Seq,
		Phrase: res.Utterance.Phrase,
		Action: res.Utterance.Action,
		Output: res.Output,
	})

	if step.Expect == nil {
		return
	}
	if step.Expect.Error != "" {
		result.AddError(fmt.Sprintf("step %d %q: expected error %s, got success", n, step.Say, step.Expect.Error))
		return
	}
	if step.Expect.Action != "" && step.Expect.Action != res.Utterance.Action {
		result.AddError(fmt.Sprintf("step %d %q: action = %q, want %q", n, step.Say, res.Utterance.Action, step.Expect.Action))
	}
	if step.Expect.Output != nil {
		if msg := compareOutput(step.Expect.Output, res.Output); msg != "" {
			result.AddError(fmt.Sprintf("step %d %q: %s", n, step.Say, msg))
		}
	}
}

// compareOutput compares canonical encodings and returns "" on a match.
func compareOutput(want map[string]any, got ir.IRObject) string {
	wantJSON, err := ir.MarshalCanonical(want)
	if err != nil {
		return fmt.Sprintf("invalid expected output: %v", err)
	}
	gotJSON, err := ir.MarshalCanonical(got)
	if err != nil {
		return fmt.Sprintf("unencodable output: %v", err)
	}
	if string(wantJSON) != string(gotJSON) {
		return fmt.Sprintf("output mismatch\n  want: %s\n  got:  %s", wantJSON, gotJSON)
	}
	return ""
}

// errorCode maps a resolution error to its trace code.
func errorCode(err error) string {
	var pe *grammar.ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	if target.IsLookupError(err) {
		return ErrCodeLookup
	}
	var re *engine.RuntimeError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	return "ERROR"
}

func (h *Harness) overridePath(domain string) string {
	return filepath.Join(h.customDir, domain+".csv")
}

func (h *Harness) writeOverride(domain string, rows [][]string) error {
	if err := terms.WriteOverrides(h.overridePath(domain), rows); err != nil {
		return fmt.Errorf("write %s override: %w", domain, err)
	}
	return nil
}

func (h *Harness) writeSettings(doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(h.settingsPath, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
