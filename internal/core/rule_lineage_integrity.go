package core

import (
	"context"
	"fmt"

	"mycocore/pkg/domain"
)

// NewLineageIntegrityRule returns the in-transaction rule holding the culture
// lineage forest consistent: no self-parenting, no cycles, generation zero
// iff detached and parent generation plus one otherwise. Attach already
// guards these; the rule is defense in depth over whatever a transaction
// wrote.
func NewLineageIntegrityRule() domain.Rule {
	return lineageIntegrityRule{}
}

type lineageIntegrityRule struct{}

func (lineageIntegrityRule) Name() string { return "lineage_integrity" }

func (lineageIntegrityRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityCulture || change.Action == domain.ActionDelete {
			continue
		}
		culture, ok := change.After.(domain.Culture)
		if !ok {
			continue
		}
		res.Merge(checkCultureLineage(view, culture))
	}
	return res, nil
}

func checkCultureLineage(view domain.TransactionView, culture domain.Culture) domain.Result {
	res := domain.Result{}
	violate := func(msg string) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "lineage_integrity",
			Severity: domain.SeverityBlock,
			Message:  msg,
			Entity:   domain.EntityCulture,
			EntityID: culture.ID,
		})
	}

	if culture.ParentID == nil {
		if culture.Generation != 0 {
			violate(fmt.Sprintf("culture %s has no parent but generation %d", culture.ID, culture.Generation))
		}
		return res
	}
	parentID := *culture.ParentID
	if parentID == culture.ID {
		violate(fmt.Sprintf("culture %s is its own parent", culture.ID))
		return res
	}
	parent, ok := view.FindCulture(parentID)
	if !ok {
		violate(fmt.Sprintf("culture %s references missing parent %s", culture.ID, parentID))
		return res
	}
	if culture.Generation != parent.Generation+1 {
		violate(fmt.Sprintf("culture %s generation %d, expected parent %d + 1", culture.ID, culture.Generation, parent.Generation))
	}

	// Ancestor walk with a visited guard; reaching the culture again means
	// the stored graph has a cycle.
	visited := map[string]struct{}{culture.ID: {}}
	current := parent
	for {
		if _, seen := visited[current.ID]; seen {
			violate(fmt.Sprintf("culture %s is its own ancestor", culture.ID))
			return res
		}
		visited[current.ID] = struct{}{}
		if current.ParentID == nil {
			return res
		}
		next, found := view.FindCulture(*current.ParentID)
		if !found {
			return res
		}
		current = next
	}
}
