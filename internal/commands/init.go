package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sthwalo/acc/internal/config"
	"github.com/sthwalo/acc/internal/registry"
	"github.com/sthwalo/acc/internal/rules"
	"github.com/sthwalo/acc/internal/store"
)

func newInitCommand() *cobra.Command {
	var name string
	var companyID string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new set of books",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if companyID == "" {
				companyID = slug(name)
			}
			return runInit(absDir, companyID, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "company name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&companyID, "company", "", "company identifier (defaults to a slug of the name)")

	return cmd
}

func runInit(dir, companyID, name string) error {
	// Create directory structure.
	dirs := []string{
		"rules",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write acc.yaml.
	cfg := config.Default(companyID, name)
	if err := config.Save(filepath.Join(dir, "acc.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write the seed classification rules.
	rulesPath := filepath.Join(dir, cfg.Storage.RulesPath)
	if err := rules.SaveSeedFile(rulesPath, rules.DefaultSeed()); err != nil {
		return fmt.Errorf("writing seed rules: %w", err)
	}

	// Create the database, chart of accounts, and seed rules.
	db, err := store.Open(filepath.Join(dir, cfg.Storage.DBPath))
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	reg := registry.NewService(db, registry.NewTaxonomy(cfg.Taxonomy))
	if err := reg.InitializeChart(companyID); err != nil {
		return fmt.Errorf("initializing chart of accounts: %w", err)
	}

	rl := rules.NewService(db, rules.NewCache())
	seeded, err := rl.SeedFromFile(rulesPath, companyID)
	if err != nil {
		return fmt.Errorf("seeding rules: %w", err)
	}

	fmt.Printf("Initialized books for %s at %s (%d seed rules)\n", name, dir, seeded)
	return nil
}

// slug lowercases a name and keeps only letters, digits, and hyphens.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
