package pipeline

import (
	"errors"
	"fmt"

	"github.com/sthwalo/acc/internal/model"
)

// ErrPeriodApproved is returned when a reprocess would touch an
// approved period and the policy forbids it.
var ErrPeriodApproved = errors.New("period is approved; unlock before reprocessing")

// ApprovalPolicy decides whether a period may be reprocessed. It is a
// governance hook: the core never silently overrides an approval.
type ApprovalPolicy interface {
	AllowReprocess(p model.Period) error
}

// StrictPolicy refuses to reprocess approved periods.
type StrictPolicy struct{}

// AllowReprocess implements ApprovalPolicy.
func (StrictPolicy) AllowReprocess(p model.Period) error {
	if p.Status == model.PeriodApproved {
		return fmt.Errorf("period %s: %w", p.ID, ErrPeriodApproved)
	}
	return nil
}

// UnlockedPolicy permits reprocessing regardless of approval. Used by
// explicit unlock flows.
type UnlockedPolicy struct{}

// AllowReprocess implements ApprovalPolicy.
func (UnlockedPolicy) AllowReprocess(model.Period) error { return nil }
