package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryOrigin records who created a journal entry. Reprocessing clears
// only system entries; manual adjustments survive.
type EntryOrigin string

const (
	OriginSystem EntryOrigin = "system"
	OriginManual EntryOrigin = "manual"
)

// JournalEntry is a balanced set of debit/credit lines recorded for one
// economic event. System entries trace back to exactly one source
// transaction; manual entries have none.
type JournalEntry struct {
	Ref                 string // "YYYY-MM-NNN" within a period
	CompanyID           string
	PeriodID            string
	Date                time.Time
	Description         string
	Origin              EntryOrigin
	SourceTransactionID int64 // 0 for manual and carried-over entries
	Lines               []JournalLine
}

// JournalLine is one side of a double entry. Exactly one of Debit/Credit
// is non-zero.
type JournalLine struct {
	EntryRef            string
	AccountCode         int
	Debit               decimal.Decimal
	Credit              decimal.Decimal
	Counterparty        string
	SourceTransactionID int64 // 0 for opening-balance and manual lines
}

// TotalDebits sums the entry's debit lines.
func (e JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredits sums the entry's credit lines.
func (e JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// Balanced reports whether debits equal credits.
func (e JournalEntry) Balanced() bool {
	return e.TotalDebits().Equal(e.TotalCredits())
}
