package core

import (
	"context"
	"fmt"

	"mycocore/pkg/domain"
)

// NewLotConservationRule returns the in-transaction rule holding every touched
// lot to the quantity conservation bounds: quantity within
// [0, originalQuantity] and inUseQuantity within what disposal has left.
func NewLotConservationRule() domain.Rule {
	return lotConservationRule{}
}

type lotConservationRule struct{}

func (lotConservationRule) Name() string { return "lot_conservation" }

func (lotConservationRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityLot {
			continue
		}
		lot, ok := change.After.(domain.InventoryLot)
		if !ok {
			continue
		}
		if lot.Quantity < 0 || lot.Quantity > lot.OriginalQuantity {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lot_conservation",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("lot %s quantity %g outside [0, %g]", lot.ID, lot.Quantity, lot.OriginalQuantity),
				Entity:   domain.EntityLot,
				EntityID: lot.ID,
			})
		}
		if lot.InUseQuantity < 0 || lot.InUseQuantity > lot.OriginalQuantity-lot.DisposedQuantity {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lot_conservation",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("lot %s in-use quantity %g exceeds usable pool %g", lot.ID, lot.InUseQuantity, lot.OriginalQuantity-lot.DisposedQuantity),
				Entity:   domain.EntityLot,
				EntityID: lot.ID,
			})
		}
	}
	return res, nil
}
