package model

import (
	"fmt"
	"time"
)

// PeriodStatus is the lifecycle state of an accounting period.
//
//	open -> processed -> (reprocess) -> open -> processed -> ...
//
// An approved period requires an explicit unlock before it may be
// reprocessed again.
type PeriodStatus string

const (
	PeriodOpen      PeriodStatus = "open"
	PeriodProcessed PeriodStatus = "processed"
	PeriodApproved  PeriodStatus = "approved"
)

// Period identifies one monthly accounting period, "YYYY-MM".
type Period struct {
	CompanyID string
	ID        string
	Status    PeriodStatus
}

// PeriodStart returns the first day of a "YYYY-MM" period.
func PeriodStart(periodID string) (time.Time, error) {
	t, err := time.Parse("2006-01", periodID)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period id %q: %w", periodID, err)
	}
	return t, nil
}

// PeriodOf returns the "YYYY-MM" period containing a date.
func PeriodOf(date time.Time) string {
	return date.Format("2006-01")
}
