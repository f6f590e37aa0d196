package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sthwalo/acc/internal/model"
)

// Config represents the top-level acc.yaml configuration.
type Config struct {
	Company  CompanyConfig   `yaml:"company"`
	Ledger   LedgerConfig    `yaml:"ledger"`
	Storage  StorageConfig   `yaml:"storage"`
	Taxonomy []TaxonomyRange `yaml:"taxonomy"`
}

// CompanyConfig identifies the company whose books these are.
type CompanyConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// LedgerConfig sets the fixed accounts the generator posts against.
type LedgerConfig struct {
	BankAccount           int    `yaml:"bank_account"`
	OpeningBalanceAccount int    `yaml:"opening_balance_account"`
	OpeningBalanceMarker  string `yaml:"opening_balance_marker"`
}

// StorageConfig locates the database and the seed rule file.
type StorageConfig struct {
	DBPath    string `yaml:"db_path"`
	RulesPath string `yaml:"rules_path"`
}

// TaxonomyRange maps an account-code range to its category and normal
// balance side. The table is fixed configuration: codes outside every
// range are a validation error, never silently defaulted.
type TaxonomyRange struct {
	From     int                   `yaml:"from"`
	To       int                   `yaml:"to"`
	Category model.AccountCategory `yaml:"category"`
	Side     model.NormalSide      `yaml:"side"`
}

// Load reads an acc.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the standard chart taxonomy for a new
// set of books.
func Default(companyID, companyName string) *Config {
	return &Config{
		Company: CompanyConfig{
			ID:   companyID,
			Name: companyName,
		},
		Ledger: LedgerConfig{
			BankAccount:           1100,
			OpeningBalanceAccount: 3100,
			OpeningBalanceMarker:  "BALANCE BROUGHT FORWARD",
		},
		Storage: StorageConfig{
			DBPath:    "ledger.db",
			RulesPath: "rules/classification-rules.yaml",
		},
		Taxonomy: DefaultTaxonomy(),
	}
}

// DefaultTaxonomy is the standard code-range convention.
func DefaultTaxonomy() []TaxonomyRange {
	return []TaxonomyRange{
		{From: 1000, To: 1999, Category: model.CategoryAsset, Side: model.SideDebit},
		{From: 2000, To: 2999, Category: model.CategoryLiability, Side: model.SideCredit},
		{From: 3000, To: 3999, Category: model.CategoryEquity, Side: model.SideCredit},
		{From: 4000, To: 4999, Category: model.CategoryRevenue, Side: model.SideCredit},
		{From: 5000, To: 5999, Category: model.CategoryCostOfSales, Side: model.SideDebit},
		{From: 6000, To: 6999, Category: model.CategoryOtherIncome, Side: model.SideCredit},
		{From: 8000, To: 8999, Category: model.CategoryExpense, Side: model.SideDebit},
		{From: 9000, To: 9999, Category: model.CategoryFinanceCost, Side: model.SideDebit},
	}
}
