package model

import "github.com/shopspring/decimal"

// AccountBalance is a derived per-account, per-period statement line.
// Closing is always a positive magnitude; Side says which side it sits
// on. A debit-normal account driven into a net credit position reports
// Side == SideCredit with the absolute value (and vice versa).
type AccountBalance struct {
	CompanyID   string
	AccountCode int
	AccountName string
	PeriodID    string
	Opening     decimal.Decimal
	Debits      decimal.Decimal
	Credits     decimal.Decimal
	Closing     decimal.Decimal
	Side        NormalSide
}

// TrialBalance is the per-period report whose debit and credit totals
// must agree.
type TrialBalance struct {
	CompanyID    string
	PeriodID     string
	Rows         []AccountBalance
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
}

// Balanced reports whether total debit-side closings equal total
// credit-side closings.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebits.Equal(tb.TotalCredits)
}
