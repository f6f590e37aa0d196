package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sthwalo/acc/internal/auditlog"
	"github.com/sthwalo/acc/internal/balance"
	"github.com/sthwalo/acc/internal/config"
	"github.com/sthwalo/acc/internal/journal"
	"github.com/sthwalo/acc/internal/pipeline"
	"github.com/sthwalo/acc/internal/registry"
	"github.com/sthwalo/acc/internal/rules"
	"github.com/sthwalo/acc/internal/store"
)

// app wires the services for one workspace directory. Every command
// except init goes through openApp.
type app struct {
	dir   string
	cfg   *config.Config
	db    *store.DB
	reg   *registry.Service
	rules *rules.Service
	jour  *journal.Service
	calc  *balance.Calculator
	audit *auditlog.Service
	coord *pipeline.Coordinator
}

// openApp loads acc.yaml from dir and opens the database. ACC_CONFIG
// and ACC_DB override the config and database paths.
func openApp(dir string) (*app, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfgPath := filepath.Join(absDir, "acc.yaml")
	if p := os.Getenv("ACC_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Storage.DBPath
	if p := os.Getenv("ACC_DB"); p != "" {
		dbPath = p
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(absDir, dbPath)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	reg := registry.NewService(db, registry.NewTaxonomy(cfg.Taxonomy))
	rl := rules.NewService(db, rules.NewCache())
	jour := journal.NewService(db, reg, journal.Config{
		BankAccount:           cfg.Ledger.BankAccount,
		OpeningBalanceAccount: cfg.Ledger.OpeningBalanceAccount,
		OpeningBalanceMarker:  cfg.Ledger.OpeningBalanceMarker,
	})
	audit := auditlog.NewService(db)

	return &app{
		dir:   absDir,
		cfg:   cfg,
		db:    db,
		reg:   reg,
		rules: rl,
		jour:  jour,
		calc:  balance.NewCalculator(db, reg),
		audit: audit,
		coord: pipeline.New(db, reg, rl, jour, audit),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func (a *app) companyID() string {
	return a.cfg.Company.ID
}
