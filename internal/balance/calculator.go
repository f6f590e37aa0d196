// Package balance derives per-account balances and the trial balance
// from posted journal lines. Balances are computed on demand; nothing
// here is a source of truth.
package balance

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sthwalo/acc/internal/model"
	"github.com/sthwalo/acc/internal/store"
)

// AccountSource is the registry surface the calculator needs.
type AccountSource interface {
	Get(companyID string, code int) (model.Account, bool, error)
	All(companyID string) ([]model.Account, error)
}

// Calculator computes balances honoring each account's normal side.
type Calculator struct {
	db  store.Querier
	acc AccountSource
}

// NewCalculator creates a Calculator.
func NewCalculator(db store.Querier, acc AccountSource) *Calculator {
	return &Calculator{db: db, acc: acc}
}

// WithTx returns a Calculator bound to a transaction.
func (c *Calculator) WithTx(tx *sql.Tx, acc AccountSource) *Calculator {
	return &Calculator{db: tx, acc: acc}
}

// ComputeBalance returns one account's balance for a period: the opening
// carried from all earlier periods, the period's movements, and the
// closing combined per normal side. The side-flip rule is authoritative:
// a net position against the account's normal side is reported as a
// positive magnitude on the opposite side label.
func (c *Calculator) ComputeBalance(companyID string, accountCode int, periodID string) (model.AccountBalance, bool, error) {
	acct, ok, err := c.acc.Get(companyID, accountCode)
	if err != nil {
		return model.AccountBalance{}, false, err
	}
	if !ok {
		return model.AccountBalance{}, false, nil
	}
	bal, err := c.compute(acct, periodID)
	if err != nil {
		return model.AccountBalance{}, false, err
	}
	return bal, true, nil
}

// TrialBalance returns ordered statement lines for every account with
// activity or a carried balance, plus the debit/credit closing totals
// whose equality is the primary correctness check.
func (c *Calculator) TrialBalance(companyID, periodID string) (model.TrialBalance, error) {
	accounts, err := c.acc.All(companyID)
	if err != nil {
		return model.TrialBalance{}, err
	}

	tb := model.TrialBalance{
		CompanyID:    companyID,
		PeriodID:     periodID,
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}
	for _, acct := range accounts {
		bal, err := c.compute(acct, periodID)
		if err != nil {
			return model.TrialBalance{}, err
		}
		if bal.Closing.IsZero() && bal.Opening.IsZero() && bal.Debits.IsZero() && bal.Credits.IsZero() {
			continue
		}
		tb.Rows = append(tb.Rows, bal)
		if bal.Side == model.SideDebit {
			tb.TotalDebits = tb.TotalDebits.Add(bal.Closing)
		} else {
			tb.TotalCredits = tb.TotalCredits.Add(bal.Closing)
		}
	}
	return tb, nil
}

func (c *Calculator) compute(acct model.Account, periodID string) (model.AccountBalance, error) {
	openDebits, openCredits, err := c.sumLines(acct.CompanyID, acct.Code, periodID, true)
	if err != nil {
		return model.AccountBalance{}, err
	}
	debits, credits, err := c.sumLines(acct.CompanyID, acct.Code, periodID, false)
	if err != nil {
		return model.AccountBalance{}, err
	}

	// Signed values are relative to the account's normal side: positive
	// means the balance sits on its natural side.
	var opening, closing decimal.Decimal
	if acct.Side == model.SideDebit {
		opening = openDebits.Sub(openCredits)
		closing = opening.Add(debits).Sub(credits)
	} else {
		opening = openCredits.Sub(openDebits)
		closing = opening.Add(credits).Sub(debits)
	}

	side := acct.Side
	if closing.IsNegative() {
		side = side.Opposite()
		closing = closing.Abs()
	}

	return model.AccountBalance{
		CompanyID:   acct.CompanyID,
		AccountCode: acct.Code,
		AccountName: acct.Name,
		PeriodID:    periodID,
		Opening:     opening,
		Debits:      debits,
		Credits:     credits,
		Closing:     closing,
		Side:        side,
	}, nil
}

// sumLines totals posted debits and credits for one account, either in
// periods strictly before periodID (the carried opening) or within it.
// Sums are taken in Go with exact decimals; SQLite's numeric SUM would
// round.
func (c *Calculator) sumLines(companyID string, accountCode int, periodID string, before bool) (debits, credits decimal.Decimal, err error) {
	cmp := "="
	if before {
		cmp = "<"
	}
	rows, err := c.db.Query(
		`SELECT l.debit, l.credit
		 FROM journal_entry_lines l
		 JOIN journal_entries e
		   ON e.company_id = l.company_id AND e.ref = l.entry_ref
		 WHERE l.company_id = ? AND l.account_code = ? AND e.period_id `+cmp+` ?`,
		companyID, accountCode, periodID,
	)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("summing lines for account %d: %w", accountCode, err)
	}
	defer rows.Close()

	debits, credits = decimal.Zero, decimal.Zero
	for rows.Next() {
		var d, cr string
		if err := rows.Scan(&d, &cr); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("scanning line amounts: %w", err)
		}
		dd, err := decimal.NewFromString(d)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("parsing debit %q: %w", d, err)
		}
		cc, err := decimal.NewFromString(cr)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("parsing credit %q: %w", cr, err)
		}
		debits = debits.Add(dd)
		credits = credits.Add(cc)
	}
	return debits, credits, rows.Err()
}
