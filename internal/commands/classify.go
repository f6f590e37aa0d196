package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newClassifyCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "classify <period>",
		Short: "Classify a period's transactions against the rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(dir)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.coord.ClassifyAll(a.companyID(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Processed %d transactions: %d classified, %d awaiting review\n",
				result.Processed, result.Classified, result.Unclassified)
			for _, f := range result.Failures {
				fmt.Printf("  failed: %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")

	return cmd
}

func newCorrectCommand() *cobra.Command {
	var dir string
	var applySimilar bool

	cmd := &cobra.Command{
		Use:   "correct <transaction-id> <account-code>",
		Short: "Manually classify a transaction and learn a rule from it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q", args[0])
			}
			accountCode, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid account code %q", args[1])
			}

			a, err := openApp(dir)
			if err != nil {
				return err
			}
			defer a.Close()

			corr, err := a.coord.Correct(txID, accountCode, applySimilar)
			if err != nil {
				return err
			}

			fmt.Printf("Learned %s rule %q -> %d", corr.Kind, corr.Pattern, accountCode)
			if applySimilar {
				fmt.Printf(", re-classified %d similar transactions", corr.Reclassified)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().BoolVar(&applySimilar, "apply-similar", false, "re-classify pending transactions matching the learned rule")

	return cmd
}
