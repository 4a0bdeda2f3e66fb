package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/receipts/internal/config"
	"github.com/cleared-dev/receipts/internal/fixtures"
	"github.com/cleared-dev/receipts/internal/logging"
	"github.com/cleared-dev/receipts/internal/store"
	"github.com/cleared-dev/receipts/internal/store/postgres"
)

var errNoDatabase = errors.New("no database configured (set database.url or " + config.EnvDatabaseURL + ")")

type globalFlags struct {
	dir       string
	logLevel  string
	logFormat string
}

// project is a loaded project directory.
type project struct {
	dir string
	cfg *config.Config
	log zerolog.Logger
}

// loadProject reads receipts.yaml from the project directory, falling back to
// defaults when it does not exist, and applies env and flag overrides.
func loadProject(g *globalFlags) (*project, error) {
	dir, err := filepath.Abs(g.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(dir); err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.Resolve(dir)

	log, err := logging.New(cfg.Log.Level, logging.Format(cfg.Log.Format))
	if err != nil {
		return nil, err
	}
	return &project{dir: dir, cfg: cfg, log: log}, nil
}

// context attaches the project logger to ctx.
func (p *project) context(ctx context.Context) context.Context {
	return logging.WithContext(ctx, p.log)
}

// openStore connects to the configured database, or builds an in-memory
// store seeded from fixturesDir when one is given.
func (p *project) openStore(ctx context.Context, fixturesDir string) (store.Store, error) {
	if fixturesDir != "" {
		mem := store.NewMemory()
		err := store.WithTx(ctx, mem, func(q store.Querier) error {
			s, err := fixtures.LoadDir(ctx, q, fixturesDir)
			if err != nil {
				return err
			}
			p.log.Debug().
				Int("payment_methods", s.PaymentMethods).
				Int("vendors", s.Vendors).
				Int("aliases", s.Aliases).
				Msg("loaded fixtures into memory store")
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("loading fixtures: %w", err)
		}
		return mem, nil
	}
	if p.cfg.Database.URL == "" {
		return nil, errNoDatabase
	}
	pg, err := postgres.Open(ctx, p.cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	return pg, nil
}
