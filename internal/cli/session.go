package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/hatgram/internal/app"
	"github.com/roach88/hatgram/internal/compiler"
	"github.com/roach88/hatgram/internal/config"
	"github.com/roach88/hatgram/internal/metrics"
	"github.com/roach88/hatgram/internal/store"
)

// sessionOptions selects the optional parts of a CLI session.
type sessionOptions struct {
	watch   bool
	history bool
	metrics *metrics.Metrics
}

// cliSession is an assembled pipeline plus the history store it owns.
type cliSession struct {
	*app.Session
	store *store.Store
}

// Close closes the session, then the store.
func (s *cliSession) Close() error {
	err := s.Session.Close()
	if s.store != nil {
		if cerr := s.store.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// loadDefaults compiles cfg.DefaultsDir, or returns nil for the built-in tables.
func loadDefaults(cfg *config.Config) (*compiler.Defaults, error) {
	if cfg.DefaultsDir == "" {
		return nil, nil
	}
	d, err := compiler.CompileDir(cfg.DefaultsDir)
	if err != nil {
		return nil, fmt.Errorf("compile defaults %s: %w", cfg.DefaultsDir, err)
	}
	return d, nil
}

// openSession assembles a session from the config.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, so sessionOptions) (*cliSession, error) {
	defaults, err := loadDefaults(cfg)
	if err != nil {
		return nil, err
	}

	var st *store.Store
	if so.history && cfg.History.DB != "" {
		st, err = store.Open(cfg.History.DB)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		logger.Debug("history opened", "db", cfg.History.DB)
	}

	sess, err := app.Open(ctx, app.Options{
		Defaults:         defaults,
		CustomizationDir: cfg.CustomizationDir,
		SettingsPath:     cfg.SettingsPath,
		CreateMissing:    cfg.CreateMissing,
		FastDelay:        cfg.Reload.Fast,
		SlowDelay:        cfg.Reload.Slow,
		FullLineNumbers:  cfg.Grammar.FullLineNumbers,
		Watch:            so.watch,
		Store:            st,
		Metrics:          so.metrics,
		Logger:           logger,
	})
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, err
	}
	return &cliSession{Session: sess, store: st}, nil
}
