package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sthwalo/acc/internal/model"
)

// IntegrityError reports a would-be entry that violates a ledger
// invariant. It aborts only the offending operation; other entries in a
// batch are untouched.
type IntegrityError struct {
	TransactionID int64
	EntryRef      string
	Imbalance     decimal.Decimal
	Reason        string
}

func (e IntegrityError) Error() string {
	if !e.Imbalance.IsZero() {
		return fmt.Sprintf("entry %s (transaction %d): %s (imbalance %s)",
			e.EntryRef, e.TransactionID, e.Reason, e.Imbalance.StringFixed(2))
	}
	return fmt.Sprintf("entry %s (transaction %d): %s", e.EntryRef, e.TransactionID, e.Reason)
}

// Accounts is the registry surface the generator needs.
type Accounts interface {
	GetOrCreateAccount(companyID string, code int, name string) (model.Account, error)
	Get(companyID string, code int) (model.Account, bool, error)
	Exists(companyID string, code int) bool
}

// ValidateEntry enforces the entry invariants before anything is
// written: debits equal credits exactly, every line carries exactly one
// side, amounts have at most two decimal places, and every account
// exists in the chart.
func ValidateEntry(e model.JournalEntry, accounts Accounts) error {
	if len(e.Lines) < 2 {
		return IntegrityError{
			TransactionID: e.SourceTransactionID,
			EntryRef:      e.Ref,
			Reason:        fmt.Sprintf("entry has %d lines, need at least 2", len(e.Lines)),
		}
	}

	totalDebit := e.TotalDebits()
	totalCredit := e.TotalCredits()
	if !totalDebit.Equal(totalCredit) {
		return IntegrityError{
			TransactionID: e.SourceTransactionID,
			EntryRef:      e.Ref,
			Imbalance:     totalDebit.Sub(totalCredit),
			Reason:        fmt.Sprintf("debits (%s) != credits (%s)", totalDebit.StringFixed(2), totalCredit.StringFixed(2)),
		}
	}

	cents := decimal.NewFromInt(100)
	for _, l := range e.Lines {
		hasDebit := !l.Debit.IsZero()
		hasCredit := !l.Credit.IsZero()
		if hasDebit == hasCredit {
			return IntegrityError{
				TransactionID: e.SourceTransactionID,
				EntryRef:      e.Ref,
				Reason:        fmt.Sprintf("line on account %d must have exactly one of debit or credit", l.AccountCode),
			}
		}

		amount := l.Debit
		if hasCredit {
			amount = l.Credit
		}
		if !amount.Mul(cents).Equal(amount.Mul(cents).Floor()) {
			return IntegrityError{
				TransactionID: e.SourceTransactionID,
				EntryRef:      e.Ref,
				Reason:        fmt.Sprintf("amount %s on account %d has more than 2 decimal places", amount, l.AccountCode),
			}
		}

		if !accounts.Exists(e.CompanyID, l.AccountCode) {
			return IntegrityError{
				TransactionID: e.SourceTransactionID,
				EntryRef:      e.Ref,
				Reason:        fmt.Sprintf("unknown account %d", l.AccountCode),
			}
		}
	}

	return nil
}
