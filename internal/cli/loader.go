package cli

import (
	"fmt"
	"log/slog"

	"github.com/roach88/progression/internal/catalog"
	"github.com/roach88/progression/internal/config"
	"github.com/roach88/progression/internal/engine"
	"github.com/roach88/progression/internal/store"
)

// session is an opened database plus the engine built on it. Every command
// that touches user state opens one and closes it before returning.
type session struct {
	cfg    config.Config
	store  *store.Store
	engine *engine.Engine
	log    *slog.Logger
}

// loadConfig reads the environment (or opts.Env) and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if opts.Env != nil {
		cfg, err = config.ParseMap(opts.Env)
	} else {
		cfg, err = config.ParseEnv()
	}
	if err != nil {
		return config.Config{}, err
	}

	// Flags win over environment
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}
	if opts.CatalogPath != "" {
		cfg.CatalogPath = opts.CatalogPath
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadCatalog returns the embedded catalog when path is empty.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.Load(path)
}

// openSession loads configuration and the catalog, opens the store (creating
// it if needed) and builds the engine. Failures are reported through f and
// returned as ExitCommandError.
func openSession(opts *RootOptions, f *OutputFormatter) (*session, error) {
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}

	fail := func(code, message string, err error) (*session, error) {
		if outErr := f.Error(code, fmt.Sprintf("%s: %v", message, err), nil); outErr != nil {
			return nil, outErr
		}
		return nil, WrapExitError(ExitCommandError, message, err)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fail(ErrCodeConfig, "invalid configuration", err)
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return fail(ErrCodeCatalog, "failed to load catalog", err)
	}

	logger.Debug("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fail(ErrCodeStore, "failed to open database", err)
	}

	engOpts := append(cfg.EngineOptions(), engine.WithLogger(logger))
	if opts.Clock != nil {
		engOpts = append(engOpts, engine.WithClock(opts.Clock))
	}
	if opts.IDs != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(opts.IDs))
	}

	return &session{
		cfg:    cfg,
		store:  st,
		engine: engine.New(st, cat, engOpts...),
		log:    logger,
	}, nil
}

// Close closes the store, logging rather than masking a primary error.
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Error("error closing database", "error", err)
	}
}

// withSession opens a session, runs fn and closes the session.
func withSession(opts *RootOptions, f *OutputFormatter, fn func(*session) error) error {
	s, err := openSession(opts, f)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
