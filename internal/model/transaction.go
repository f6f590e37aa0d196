package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one normalized bank-statement row. Transactions are
// read-only inputs: once loaded they are never mutated by the engine.
// Exactly one of Debit/Credit is non-zero; statement convention is
// debit = money out, credit = money in.
type Transaction struct {
	ID             int64
	CompanyID      string
	PeriodID       string
	Date           time.Time
	Description    string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	RunningBalance decimal.Decimal
}

// Amount returns the transaction's magnitude regardless of direction.
func (t Transaction) Amount() decimal.Decimal {
	if !t.Debit.IsZero() {
		return t.Debit
	}
	return t.Credit
}

// MoneyIn reports whether the transaction credits the bank account
// (money flowing in).
func (t Transaction) MoneyIn() bool {
	return !t.Credit.IsZero()
}
