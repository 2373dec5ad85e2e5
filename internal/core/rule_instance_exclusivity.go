package core

import (
	"context"
	"fmt"

	"mycocore/pkg/domain"
)

// NewInstanceExclusivityRule returns the in-transaction rule enforcing the
// usage-reference contract on instances: a usage ref present iff in_use, so
// no instance can be claimed by more than one active consumer.
func NewInstanceExclusivityRule() domain.Rule {
	return instanceExclusivityRule{}
}

type instanceExclusivityRule struct{}

func (instanceExclusivityRule) Name() string { return "instance_exclusivity" }

func (instanceExclusivityRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityInstance || change.Action == domain.ActionDelete {
			continue
		}
		inst, ok := change.After.(domain.LabItemInstance)
		if !ok {
			continue
		}
		inUse := inst.Status == domain.InstanceInUse
		hasRef := inst.UsageRef != nil
		if inUse != hasRef {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "instance_exclusivity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("instance %s status %s with usage ref present=%t", inst.ID, inst.Status, hasRef),
				Entity:   domain.EntityInstance,
				EntityID: inst.ID,
			})
		}
	}
	return res, nil
}
