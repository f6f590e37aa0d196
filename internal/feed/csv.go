package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// StatementCSVParser parses the normalized statement format:
// date,description,debit,credit,balance with an ISO date and exactly one
// of debit/credit populated per row.
type StatementCSVParser struct{}

const (
	csvDateFormat = "2006-01-02"
	csvNumFields  = 5
	colDate       = 0
	colDesc       = 1
	colDebit      = 2
	colCredit     = 3
	colBalance    = 4
)

// Format returns the parser name.
func (p *StatementCSVParser) Format() string { return "statement" }

// Parse reads a normalized statement CSV and returns Rows.
func (p *StatementCSVParser) Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = csvNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (Row, error) {
	date, err := time.Parse(csvDateFormat, rec[colDate])
	if err != nil {
		return Row{}, fmt.Errorf("parsing date %q: %w", rec[colDate], err)
	}

	debit, err := parseAmount(rec[colDebit])
	if err != nil {
		return Row{}, fmt.Errorf("parsing debit %q: %w", rec[colDebit], err)
	}
	credit, err := parseAmount(rec[colCredit])
	if err != nil {
		return Row{}, fmt.Errorf("parsing credit %q: %w", rec[colCredit], err)
	}

	if debit.IsZero() == credit.IsZero() {
		return Row{}, fmt.Errorf("exactly one of debit/credit must be set (got %q and %q)", rec[colDebit], rec[colCredit])
	}
	if debit.IsNegative() || credit.IsNegative() {
		return Row{}, fmt.Errorf("amounts must be positive (got %q and %q)", rec[colDebit], rec[colCredit])
	}

	balance, err := parseAmount(rec[colBalance])
	if err != nil {
		return Row{}, fmt.Errorf("parsing balance %q: %w", rec[colBalance], err)
	}

	return Row{
		Date:           date,
		Description:    rec[colDesc],
		Debit:          debit,
		Credit:         credit,
		RunningBalance: balance,
	}, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
