package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sthwalo/acc/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "acc",
		Short:   "Bank statement classification and double-entry ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Optional .env for ACC_CONFIG and ACC_DB overrides.
			_ = godotenv.Load()
		},
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(),
		newClassifyCommand(),
		newCorrectCommand(),
		newGenerateCommand(),
		newReprocessCommand(),
		newBalanceCommand(),
		newTrialBalanceCommand(),
		newApproveCommand(),
		newUnlockCommand(),
		newHistoryCommand(),
	)

	return rootCmd
}
