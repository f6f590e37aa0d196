// Package auditlog records every batch operation and manual correction
// so a period's history can be reviewed after the fact.
package auditlog

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sthwalo/acc/internal/store"
)

// Entry is one row in the audit log.
type Entry struct {
	Timestamp time.Time
	CompanyID string
	PeriodID  string
	Operation string
	Details   string
}

// Service appends to and reads the audit_log table.
type Service struct {
	db store.Querier
}

// NewService creates an auditlog Service.
func NewService(db store.Querier) *Service {
	return &Service{db: db}
}

// WithTx returns a Service bound to a transaction so audit rows commit
// or roll back with the operation they describe.
func (s *Service) WithTx(tx *sql.Tx) *Service {
	return &Service{db: tx}
}

// Append writes one entry. A zero Timestamp is filled with the current
// time.
func (s *Service) Append(e Entry) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if _, err := s.db.Exec(
		`INSERT INTO audit_log (logged_at, company_id, period_id, operation, details)
		 VALUES (?, ?, ?, ?, ?)`,
		ts.Format(time.RFC3339), e.CompanyID, e.PeriodID, e.Operation, e.Details,
	); err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// Read returns a company's audit entries, oldest first.
func (s *Service) Read(companyID string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT logged_at, company_id, period_id, operation, details
		 FROM audit_log WHERE company_id = ? ORDER BY id`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&ts, &e.CompanyID, &e.PeriodID, &e.Operation, &e.Details); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp %q: %w", ts, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
