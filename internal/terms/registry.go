package terms

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/roach88/hatgram/internal/metrics"
)

// LoadReport summarizes one load or reload of a domain.
type LoadReport struct {
	Domain string
	Path   string

	// Created is true when the override file was missing and has been
	// written from the defaults.
	Created bool

	// HeaderError is set when the override file was ignored because of a
	// bad header.
	HeaderError error

	Applied  int
	Skipped  int
	Rejected []RowError
}

// Registry holds the live vocabulary of one domain.
type Registry struct {
	domain        string
	path          string
	defaults      Tables
	allowed       map[string]struct{}
	createMissing bool
	logger        *slog.Logger
	metrics       *metrics.Metrics

	vocab atomic.Pointer[Vocabulary]

	reloadMu sync.Mutex

	cancelMu    sync.Mutex
	cancelWatch func()
	released    bool
}

// Domain returns the registry's domain name.
func (r *Registry) Domain() string {
	return r.domain
}

// Path returns the override file path, or "" when the domain has none.
func (r *Registry) Path() string {
	return r.path
}

// Vocabulary returns the current snapshot. Never nil after a load.
func (r *Registry) Vocabulary() *Vocabulary {
	return r.vocab.Load()
}

// Reload re-reads the override file and replaces the vocabulary.
//
// Row problems are reported, not returned. An error means the file could
// not be read at all; the previous vocabulary stays in place.
func (r *Registry) Reload() (LoadReport, error) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	report := LoadReport{Domain: r.domain, Path: r.path}

	tables, err := r.merged(&report)
	if err != nil {
		return report, err
	}

	r.vocab.Store(newVocabulary(r.domain, tables))
	r.metrics.TermReload(r.domain, len(report.Rejected))

	for _, rej := range report.Rejected {
		r.logger.Warn("override row rejected",
			"domain", r.domain,
			"file", rej.File,
			"row", rej.Line,
			"identifier", rej.Identifier,
			"reason", rej.Reason,
			"suggestion", rej.Suggestion)
	}
	r.logger.Info("term domain loaded",
		"domain", r.domain,
		"applied", report.Applied,
		"skipped", report.Skipped,
		"rejected", len(report.Rejected))

	return report, nil
}

func (r *Registry) merged(report *LoadReport) (Tables, error) {
	if r.path == "" {
		return r.defaults.Clone(), nil
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		if r.createMissing {
			if err := r.writeDefaults(); err != nil {
				return nil, err
			}
			report.Created = true
			r.logger.Info("created override file", "domain", r.domain, "path", r.path)
		}
		return r.defaults.Clone(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read overrides for %s: %w", r.domain, err)
	}

	rows, rejected, err := readOverrides(bytes.NewReader(data), r.domain, r.path)
	if errors.Is(err, ErrBadHeader) {
		report.HeaderError = err
		r.logger.Warn("override file ignored", "domain", r.domain, "path", r.path, "error", err)
		return r.defaults.Clone(), nil
	}
	if err != nil {
		return nil, err
	}

	res := merge(r.domain, r.path, r.defaults, r.allowed, rows)
	report.Applied = res.applied
	report.Skipped = res.skipped
	report.Rejected = append(rejected, res.rejected...)
	return res.tables, nil
}

func (r *Registry) writeDefaults() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create override dir: %w", err)
	}
	var buf bytes.Buffer
	if err := writeDefaults(&buf, r.defaults); err != nil {
		return fmt.Errorf("encode defaults for %s: %w", r.domain, err)
	}
	if err := os.WriteFile(r.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write overrides for %s: %w", r.domain, err)
	}
	return nil
}

// Unsubscribe releases the file watch. Safe to call more than once.
// The last vocabulary stays readable.
func (r *Registry) Unsubscribe() {
	r.cancelMu.Lock()
	cancel := r.cancelWatch
	r.cancelWatch = nil
	r.released = true
	r.cancelMu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// subscribed reports whether the registry still holds a watch.
func (r *Registry) subscribed() bool {
	r.cancelMu.Lock()
	defer r.cancelMu.Unlock()
	return r.cancelWatch != nil
}

func (r *Registry) setWatch(cancel func()) {
	r.cancelMu.Lock()
	if !r.released {
		r.cancelWatch = cancel
		cancel = nil
	}
	r.cancelMu.Unlock()

	// released before the watch was installed
	if cancel != nil {
		cancel()
	}
}
