package core

import (
	"context"
	"fmt"

	"mycocore/pkg/domain"
)

// NewFlushImmutabilityRule returns the in-transaction rule guaranteeing that
// a grow's committed flush history is append-only: an update may add flushes
// but never edit or drop the ones already recorded.
func NewFlushImmutabilityRule() domain.Rule {
	return flushImmutabilityRule{}
}

type flushImmutabilityRule struct{}

func (flushImmutabilityRule) Name() string { return "flush_immutability" }

func (flushImmutabilityRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityGrow || change.Action != domain.ActionUpdate {
			continue
		}
		before, okBefore := change.Before.(domain.Grow)
		after, okAfter := change.After.(domain.Grow)
		if !okBefore || !okAfter {
			continue
		}
		if len(after.Flushes) < len(before.Flushes) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "flush_immutability",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("grow %s dropped %d committed flushes", after.ID, len(before.Flushes)-len(after.Flushes)),
				Entity:   domain.EntityGrow,
				EntityID: after.ID,
			})
			continue
		}
		for i, prev := range before.Flushes {
			if after.Flushes[i] != prev {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "flush_immutability",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("grow %s flush %d edited after commit", after.ID, i),
					Entity:   domain.EntityGrow,
					EntityID: after.ID,
				})
				break
			}
		}
	}
	return res, nil
}
