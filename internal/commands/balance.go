package commands

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sthwalo/acc/internal/model"
)

func newBalanceCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "balance <account-code> <period>",
		Short: "Show one account's balance for a period",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid account code %q", args[0])
			}

			a, err := openApp(dir)
			if err != nil {
				return err
			}
			defer a.Close()

			bal, ok, err := a.calc.ComputeBalance(a.companyID(), code, args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("account %d does not exist", code)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Account\t%d %s\n", bal.AccountCode, bal.AccountName)
			fmt.Fprintf(w, "Period\t%s\n", bal.PeriodID)
			fmt.Fprintf(w, "Opening\t%s\n", bal.Opening.StringFixed(2))
			fmt.Fprintf(w, "Debits\t%s\n", bal.Debits.StringFixed(2))
			fmt.Fprintf(w, "Credits\t%s\n", bal.Credits.StringFixed(2))
			fmt.Fprintf(w, "Closing\t%s %s\n", bal.Closing.StringFixed(2), strings.ToUpper(string(bal.Side)))
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")

	return cmd
}

func newTrialBalanceCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "trial-balance <period>",
		Short: "Show the trial balance for a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(dir)
			if err != nil {
				return err
			}
			defer a.Close()

			tb, err := a.calc.TrialBalance(a.companyID(), args[0])
			if err != nil {
				return err
			}
			sort.Slice(tb.Rows, func(i, j int) bool {
				return tb.Rows[i].AccountCode < tb.Rows[j].AccountCode
			})

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "Code\tAccount\tDebit\tCredit\t")
			for _, row := range tb.Rows {
				debit, credit := "", ""
				if row.Side == model.SideDebit {
					debit = row.Closing.StringFixed(2)
				} else {
					credit = row.Closing.StringFixed(2)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n", row.AccountCode, row.AccountName, debit, credit)
			}
			fmt.Fprintf(w, "\tTOTAL\t%s\t%s\t\n",
				tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2))
			if err := w.Flush(); err != nil {
				return err
			}

			if !tb.Balanced() {
				return fmt.Errorf("trial balance does not balance: %s debit vs %s credit",
					tb.TotalDebits.StringFixed(2), tb.TotalCredits.StringFixed(2))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")

	return cmd
}
