package terms

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/roach88/hatgram/internal/metrics"
)

// WatchFunc subscribes onChange to changes of path and returns a cancel
// function. watch.Watcher.Watch satisfies it.
type WatchFunc func(path string, onChange func()) (cancel func(), err error)

// Dispatcher runs a task. The engine installs one that queues the task on
// its event loop; the default runs the task inline.
type Dispatcher func(task func())

// Manager owns the registries of every loaded domain.
type Manager struct {
	dir           string
	createMissing bool
	logger        *slog.Logger
	metrics       *metrics.Metrics
	watch         WatchFunc

	mu         sync.Mutex
	dispatch   Dispatcher
	registries map[string]*Registry
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics records reloads and rejected rows.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithWatch enables live reload through fn.
func WithWatch(fn WatchFunc) Option {
	return func(m *Manager) { m.watch = fn }
}

// WithCreateMissing writes a defaults file for domains that have none.
func WithCreateMissing(on bool) Option {
	return func(m *Manager) { m.createMissing = on }
}

// NewManager creates a manager reading override files from dir. An empty
// dir disables overrides: every domain serves its defaults.
func NewManager(dir string, opts ...Option) *Manager {
	m := &Manager{
		dir:        dir,
		dispatch:   func(task func()) { task() },
		registries: make(map[string]*Registry),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// SetDispatcher routes watch-triggered reloads through d.
func (m *Manager) SetDispatcher(d Dispatcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatch = d
}

// Load merges defaults with the domain's override file, publishes the
// result and, when watching is enabled, subscribes to the file.
//
// allowed lists extra identifiers that are valid in the override file even
// though no default list currently carries them; their rows are skipped.
// Loading a domain that is already loaded releases the previous watch first.
func (m *Manager) Load(domain string, defaults Tables, allowed []string) (*Registry, LoadReport, error) {
	m.mu.Lock()
	prev := m.registries[domain]
	m.mu.Unlock()
	if prev != nil {
		prev.Unsubscribe()
	}

	reg := &Registry{
		domain:        domain,
		defaults:      defaults.Clone(),
		allowed:       make(map[string]struct{}, len(allowed)),
		createMissing: m.createMissing,
		logger:        m.logger,
		metrics:       m.metrics,
	}
	for _, id := range allowed {
		reg.allowed[id] = struct{}{}
	}
	if m.dir != "" {
		reg.path = filepath.Join(m.dir, domain+".csv")
	}

	report, err := reg.Reload()
	if err != nil {
		return nil, report, fmt.Errorf("load %s: %w", domain, err)
	}

	m.mu.Lock()
	m.registries[domain] = reg
	m.mu.Unlock()

	if m.watch != nil && reg.path != "" {
		cancel, err := m.watch(reg.path, func() { m.post(reg) })
		if err != nil {
			m.logger.Error("watch override file", "domain", domain, "path", reg.path, "error", err)
		} else {
			reg.setWatch(cancel)
		}
	}

	return reg, report, nil
}

func (m *Manager) post(reg *Registry) {
	m.mu.Lock()
	dispatch := m.dispatch
	m.mu.Unlock()

	dispatch(func() {
		if _, err := reg.Reload(); err != nil {
			m.logger.Error("reload term domain", "domain", reg.domain, "error", err)
		}
	})
}

// Registry returns the registry for domain.
func (m *Manager) Registry(domain string) (*Registry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.registries[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return reg, nil
}

// Domains returns the loaded domain names in sorted order.
func (m *Manager) Domains() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.registries))
	for name := range m.registries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Lookup finds spoken in the named list, whichever domain defines it.
func (m *Manager) Lookup(list, spoken string) (string, bool) {
	for _, v := range m.snapshots() {
		if v.HasList(list) {
			return v.Lookup(list, spoken)
		}
	}
	return "", false
}

// List returns a copy of the named list, or nil when no domain defines it.
func (m *Manager) List(list string) map[string]string {
	for _, v := range m.snapshots() {
		if v.HasList(list) {
			return v.List(list)
		}
	}
	return nil
}

func (m *Manager) snapshots() []*Vocabulary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Vocabulary, 0, len(m.registries))
	for _, reg := range m.registries {
		out = append(out, reg.Vocabulary())
	}
	return out
}

// Close releases every watch. Vocabularies stay readable.
func (m *Manager) Close() {
	m.mu.Lock()
	regs := make([]*Registry, 0, len(m.registries))
	for _, reg := range m.registries {
		regs = append(regs, reg)
	}
	m.mu.Unlock()

	for _, reg := range regs {
		reg.Unsubscribe()
	}
}
