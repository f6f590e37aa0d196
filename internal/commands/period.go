package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newApproveCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "approve <period>",
		Short: "Approve a processed period, locking it against reprocessing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(dir)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.coord.Approve(a.companyID(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Approved %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")

	return cmd
}

func newUnlockCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "unlock <period>",
		Short: "Return an approved period to processed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(dir)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.coord.Unlock(a.companyID(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Unlocked %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")

	return cmd
}

func newHistoryCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the audit trail of batch operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(dir)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.audit.Read(a.companyID())
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s  %-12s %s  %s\n",
					e.Timestamp.Format("2006-01-02 15:04:05"), e.Operation, e.PeriodID, e.Details)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")

	return cmd
}
