package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sthwalo/acc/internal/model"
)

// SeedRule is one entry in the classification-rules.yaml seed file.
type SeedRule struct {
	Pattern  string          `yaml:"pattern"`
	Kind     model.MatchKind `yaml:"kind"`
	Account  int             `yaml:"account"`
	Priority int             `yaml:"priority,omitempty"`
}

// SeedFile is the on-disk shape of the seed rule file.
type SeedFile struct {
	Rules []SeedRule `yaml:"rules"`
}

// DefaultSeed returns starter rules for common statement descriptions,
// targeting the default chart.
func DefaultSeed() SeedFile {
	sub := func(pattern string, account int) SeedRule {
		return SeedRule{Pattern: pattern, Kind: model.MatchSubstring, Account: account}
	}
	return SeedFile{Rules: []SeedRule{
		sub("SALARIES", 8100),
		sub("SALARY", 8100),
		sub("WAGES", 8100),
		sub("RENT", 8200),
		sub("ELECTRICITY", 8300),
		sub("WATER", 8300),
		sub("TELEPHONE", 8400),
		sub("INTERNET", 8400),
		sub("BANK CHARGES", 8500),
		sub("SERVICE FEE", 8500),
		sub("ACCOUNTING", 8600),
		sub("LEGAL", 8600),
		sub("REPAIRS", 8700),
		sub("MAINTENANCE", 8700),
		sub("INSURANCE", 8800),
		sub("PREMIUM", 8800),
		sub("INTEREST RECEIVED", 6100),
		sub("INTEREST CHARGED", 9100),
	}}
}

// SaveSeedFile writes a seed file as YAML.
func SaveSeedFile(path string, sf SeedFile) error {
	data, err := yaml.Marshal(sf)
	if err != nil {
		return fmt.Errorf("marshaling seed rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing seed rules: %w", err)
	}
	return nil
}

// LoadSeedFile reads a YAML seed file.
func LoadSeedFile(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("reading seed rules: %w", err)
	}
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return SeedFile{}, fmt.Errorf("parsing seed rules: %w", err)
	}
	return sf, nil
}

// SeedFromFile loads a seed file and inserts its rules for a company.
// Existing rules with the same pattern are left untouched, so seeding is
// idempotent and never undoes a learned correction.
func (s *Service) SeedFromFile(path, companyID string) (int, error) {
	sf, err := LoadSeedFile(path)
	if err != nil {
		return 0, err
	}

	for _, r := range sf.Rules {
		priority := r.Priority
		if priority == 0 {
			priority = SeedPriority
		}
		kind := r.Kind
		if kind == "" {
			kind = model.MatchSubstring
		}
		if err := s.Add(companyID, r.Pattern, kind, priority, r.Account); err != nil {
			return 0, err
		}
	}
	return len(sf.Rules), nil
}
