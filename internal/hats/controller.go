// Package hats keeps the hat style vocabulary in step with the editor's
// hat enablement settings.
//
// A settings change does not reload immediately. The controller cancels any
// pending jobs and schedules two: a fast one (500ms) that picks up the
// common case, and a slow one (10s) that catches editors which write the
// settings file in several steps. Both run the same reconfiguration.
//
//	idle --change--> pending --fast--> applied --slow--> idle
//	                    ^                 |
//	                    +-----change------+
package hats

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/hatgram/internal/compiler"
	"github.com/roach88/hatgram/internal/metrics"
	"github.com/roach88/hatgram/internal/terms"
)

// Default reload delays.
const (
	DefaultFastDelay = 500 * time.Millisecond
	DefaultSlowDelay = 10 * time.Second
)

// Scheduler runs fn after d. The returned stop function cancels the call
// and reports whether it did; stopping a fired timer is a no-op.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// RealScheduler schedules with time.AfterFunc.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// State is the controller's reload state.
type State int

const (
	StateIdle State = iota
	StatePending
	StateApplied
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateApplied:
		return "applied"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config configures a Controller.
type Config struct {
	Hats         compiler.Hats
	SettingsPath string
	Terms        *terms.Manager

	Scheduler Scheduler     // defaults to RealScheduler
	FastDelay time.Duration // defaults to DefaultFastDelay
	SlowDelay time.Duration // defaults to DefaultSlowDelay

	// Dispatch runs reconfiguration jobs; defaults to running inline on
	// the timer goroutine.
	Dispatch terms.Dispatcher

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Controller reloads the hat_styles domain when enablement settings change.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	gen      uint64
	stopFast func() bool
	stopSlow func() bool
	state    State
	cancel   func()
}

// NewController creates a controller. Call Setup to load the initial
// vocabulary.
func NewController(cfg Config) *Controller {
	if cfg.Scheduler == nil {
		cfg.Scheduler = RealScheduler{}
	}
	if cfg.FastDelay == 0 {
		cfg.FastDelay = DefaultFastDelay
	}
	if cfg.SlowDelay == 0 {
		cfg.SlowDelay = DefaultSlowDelay
	}
	if cfg.Dispatch == nil {
		cfg.Dispatch = func(task func()) { task() }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{cfg: cfg, logger: logger}
}

// Setup runs the reconfiguration immediately.
func (c *Controller) Setup() (terms.LoadReport, error) {
	return c.reconfigure("initial")
}

// Watch subscribes to the settings file through fn.
func (c *Controller) Watch(fn terms.WatchFunc) error {
	if c.cfg.SettingsPath == "" {
		return nil
	}
	cancel, err := fn(c.cfg.SettingsPath, c.SettingsChanged)
	if err != nil {
		return fmt.Errorf("watch settings: %w", err)
	}
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	return nil
}

// SettingsChanged cancels pending jobs and schedules the fast and slow
// reloads.
func (c *Controller) SettingsChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelJobsLocked()

	gen := c.gen
	c.stopFast = c.cfg.Scheduler.AfterFunc(c.cfg.FastDelay, func() { c.fire(jobFast, gen) })
	c.stopSlow = c.cfg.Scheduler.AfterFunc(c.cfg.SlowDelay, func() { c.fire(jobSlow, gen) })
	c.state = StatePending

	c.logger.Debug("hat style reload scheduled", "fast", c.cfg.FastDelay, "slow", c.cfg.SlowDelay)
}

const (
	jobFast = "fast"
	jobSlow = "slow"
)

// fire runs on the timer goroutine. A job from an earlier generation was
// cancelled after its timer fired and is ignored.
func (c *Controller) fire(job string, gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	switch job {
	case jobFast:
		c.stopFast = nil
	case jobSlow:
		c.stopSlow = nil
	}
	if c.stopFast == nil && c.stopSlow == nil {
		c.state = StateIdle
	} else {
		c.state = StateApplied
	}
	c.mu.Unlock()

	c.cfg.Dispatch(func() {
		if _, err := c.reconfigure(job); err != nil {
			c.logger.Error("hat style reload failed", "job", job, "error", err)
		}
	})
}

// cancelJobsLocked stops both timers. Cancelling a job that is not
// scheduled is a no-op.
func (c *Controller) cancelJobsLocked() {
	c.gen++
	if c.stopFast != nil {
		c.stopFast()
		c.stopFast = nil
	}
	if c.stopSlow != nil {
		c.stopSlow()
		c.stopSlow = nil
	}
}

// State returns the current reload state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close cancels pending jobs and releases the settings watch.
func (c *Controller) Close() {
	c.mu.Lock()
	c.cancelJobsLocked()
	c.state = StateIdle
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// reconfigure recomputes the enabled styles and reloads the hat_styles
// domain. Unreadable settings fall back to the defaults.
func (c *Controller) reconfigure(job string) (terms.LoadReport, error) {
	settings, err := LoadSettings(c.cfg.SettingsPath)
	if err != nil {
		c.logger.Warn("settings unreadable, using default hat enablement", "path", c.cfg.SettingsPath, "error", err)
		settings = Settings{}
	}

	_, report, err := c.cfg.Terms.Load(compiler.DomainHatStyles, ActiveStyles(c.cfg.Hats, settings), StyleIdentifiers(c.cfg.Hats))
	if err != nil {
		return report, err
	}
	c.cfg.Metrics.HatReload(job)
	c.logger.Info("hat styles reloaded", "job", job)
	return report, nil
}
