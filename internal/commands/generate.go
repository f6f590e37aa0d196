package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGenerateCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "generate <period>",
		Short: "Generate journal entries for a period's classified transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(dir)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.coord.GenerateAll(a.companyID(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Generated %d entries (%d already posted, %d awaiting classification)\n",
				result.Generated, result.SkippedExisting, result.SkippedUnclassified)
			for _, f := range result.Failures {
				fmt.Printf("  failed: %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")

	return cmd
}

func newReprocessCommand() *cobra.Command {
	var dir string
	var unlock bool

	cmd := &cobra.Command{
		Use:   "reprocess <period>",
		Short: "Atomically re-classify and regenerate a period",
		Long: `Reprocess deletes a period's system-generated journal entries,
re-classifies every transaction against the current rule set, and
regenerates the entries in one transaction. Manual entries survive.
Any failure rolls the whole operation back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(dir)
			if err != nil {
				return err
			}
			defer a.Close()

			companyID, periodID := a.companyID(), args[0]
			if unlock {
				if err := a.coord.Unlock(companyID, periodID); err != nil {
					return err
				}
			}

			result, err := a.coord.ReprocessPeriod(companyID, periodID)
			if err != nil {
				return err
			}

			fmt.Printf("Reprocessed %s: %d entries, %d awaiting review\n",
				periodID, result.Generated, result.Unclassified)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().BoolVar(&unlock, "unlock", false, "unlock an approved period before reprocessing")

	return cmd
}
