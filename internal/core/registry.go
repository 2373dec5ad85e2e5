package core

import (
	"context"
	"sort"
	"time"

	"mycocore/pkg/domain"
)

// InstanceTrackingCap is the per-lot ceiling on individually tracked units.
// Lots above the cap stay quantity-only; the engine refuses to provision past
// it rather than silently falling back.
const InstanceTrackingCap = 100

// Selection is the outcome of a multi-instance allocation request. Partial is
// set when fewer instances were assignable than requested; the caller decides
// whether a short allocation is acceptable.
type Selection struct {
	Instances []LabItemInstance
	Requested int
	Shortfall int
	Partial   bool
}

// ProvisionInstances creates count instances for a lot, numbered contiguously
// after the lot's current maximum. Provisioning past the tracking cap fails
// with LimitExceededError and creates nothing.
func (s *Service) ProvisionInstances(ctx context.Context, lotID string, count int) ([]LabItemInstance, Result, error) {
	var created []LabItemInstance
	res, err := s.instrument(ctx, "provision_instances", EntityInstance, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = provisionInstances(tx, lotID, count)
			return err
		})
		return lotID, res, err
	})
	return created, res, err
}

func provisionInstances(tx Transaction, lotID string, count int) ([]LabItemInstance, error) {
	view := tx.Snapshot()
	lot, ok := view.FindLot(lotID)
	if !ok {
		return nil, domain.NotFoundError{Entity: EntityLot, ID: lotID}
	}
	existing := 0
	maxNumber := 0
	for _, inst := range view.ListInstances() {
		if inst.LotID != lotID {
			continue
		}
		existing++
		if inst.InstanceNumber > maxNumber {
			maxNumber = inst.InstanceNumber
		}
	}
	if count <= 0 {
		return nil, nil
	}
	if existing+count > InstanceTrackingCap {
		return nil, domain.LimitExceededError{LotID: lotID, Requested: count, Limit: InstanceTrackingCap}
	}
	created := make([]LabItemInstance, 0, count)
	for i := 1; i <= count; i++ {
		inst, err := tx.CreateInstance(LabItemInstance{
			LotID:          lotID,
			ItemID:         lot.ItemID,
			InstanceNumber: maxNumber + i,
			Status:         domain.InstanceAvailable,
			UnitCost:       lot.UnitCost,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, inst)
	}
	return created, nil
}

// AssignInstance places an instance in exclusive use by the referenced
// consumer. Legal only from available or sterilized; the owning lot's
// inUseQuantity is incremented in the same transaction.
func (s *Service) AssignInstance(ctx context.Context, instanceID string, ref UsageRef) (LabItemInstance, Result, error) {
	var updated LabItemInstance
	res, err := s.instrument(ctx, "assign_instance", EntityInstance, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = assignInstance(tx, instanceID, ref, s.clock.Now())
			return err
		})
		return instanceID, res, err
	})
	return updated, res, err
}

func assignInstance(tx Transaction, instanceID string, ref UsageRef, now time.Time) (LabItemInstance, error) {
	updated, err := tx.UpdateInstance(instanceID, func(i *LabItemInstance) error {
		if i.Status == domain.InstanceDisposed {
			return domain.InstanceDisposedError{InstanceID: instanceID}
		}
		if i.Status != domain.InstanceAvailable && i.Status != domain.InstanceSterilized {
			return domain.NotAvailableError{InstanceID: instanceID, Status: i.Status}
		}
		i.Status = domain.InstanceInUse
		i.UsageRef = &ref
		i.UsageCount++
		i.LastUsedAt = &now
		return nil
	})
	if err != nil {
		return LabItemInstance{}, err
	}
	if _, err := tx.UpdateLot(updated.LotID, func(l *InventoryLot) error {
		l.InUseQuantity++
		return nil
	}); err != nil {
		return LabItemInstance{}, err
	}
	return updated, nil
}

// ReleaseInstance returns an in-use instance to the available pool, clearing
// its usage reference and decrementing the lot's inUseQuantity.
func (s *Service) ReleaseInstance(ctx context.Context, instanceID string) (LabItemInstance, Result, error) {
	var updated LabItemInstance
	res, err := s.instrument(ctx, "release_instance", EntityInstance, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = releaseInstance(tx, instanceID)
			return err
		})
		return instanceID, res, err
	})
	return updated, res, err
}

func releaseInstance(tx Transaction, instanceID string) (LabItemInstance, error) {
	updated, err := tx.UpdateInstance(instanceID, func(i *LabItemInstance) error {
		if i.Status == domain.InstanceDisposed {
			return domain.InstanceDisposedError{InstanceID: instanceID}
		}
		if i.Status != domain.InstanceInUse {
			return domain.InvalidTransitionError{Entity: EntityInstance, ID: instanceID, State: string(i.Status), Event: "release"}
		}
		i.Status = domain.InstanceAvailable
		i.UsageRef = nil
		return nil
	})
	if err != nil {
		return LabItemInstance{}, err
	}
	if _, err := tx.UpdateLot(updated.LotID, func(l *InventoryLot) error {
		if l.InUseQuantity > 0 {
			l.InUseQuantity--
		}
		return nil
	}); err != nil {
		return LabItemInstance{}, err
	}
	return updated, nil
}

// DisposeInstance permanently retires an instance. Disposal is terminal and
// does not return quantity to the lot; the unit is counted in the lot's
// disposedQuantity for reporting. An in-use instance must be released first.
func (s *Service) DisposeInstance(ctx context.Context, instanceID string) (LabItemInstance, Result, error) {
	var updated LabItemInstance
	res, err := s.instrument(ctx, "dispose_instance", EntityInstance, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateInstance(instanceID, func(i *LabItemInstance) error {
				if i.Status == domain.InstanceDisposed {
					return domain.InstanceDisposedError{InstanceID: instanceID}
				}
				if i.Status == domain.InstanceInUse {
					return domain.InvalidTransitionError{Entity: EntityInstance, ID: instanceID, State: string(i.Status), Event: "dispose"}
				}
				i.Status = domain.InstanceDisposed
				return nil
			})
			if err != nil {
				return err
			}
			_, err = tx.UpdateLot(updated.LotID, func(l *InventoryLot) error {
				l.DisposedQuantity++
				return nil
			})
			return err
		})
		return instanceID, res, err
	})
	return updated, res, err
}

// SetInstanceStatus applies a free-form status change among the non-exclusive
// states. Transitions into or out of in_use must go through assign/release so
// lot accounting stays consistent; setting disposed runs the same terminal
// accounting as DisposeInstance.
func (s *Service) SetInstanceStatus(ctx context.Context, instanceID string, status InstanceStatus) (LabItemInstance, Result, error) {
	if status == domain.InstanceDisposed {
		return s.DisposeInstance(ctx, instanceID)
	}
	var updated LabItemInstance
	res, err := s.instrument(ctx, "set_instance_status", EntityInstance, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateInstance(instanceID, func(i *LabItemInstance) error {
				if i.Status == domain.InstanceDisposed {
					return domain.InstanceDisposedError{InstanceID: instanceID}
				}
				if i.Status == domain.InstanceInUse || status == domain.InstanceInUse {
					return domain.InvalidTransitionError{Entity: EntityInstance, ID: instanceID, State: string(i.Status), Event: Event("set_status:" + string(status))}
				}
				switch status {
				case domain.InstanceAvailable, domain.InstanceDirty, domain.InstanceSterilized, domain.InstanceDamaged:
				default:
					return domain.InvalidTransitionError{Entity: EntityInstance, ID: instanceID, State: string(i.Status), Event: Event("set_status:" + string(status))}
				}
				if status == domain.InstanceSterilized {
					now := s.clock.Now()
					i.LastSterilizedAt = &now
				}
				i.Status = status
				return nil
			})
			return err
		})
		return instanceID, res, err
	})
	return updated, res, err
}

// SelectInstances picks up to count instances from a lot for allocation,
// preferring the lowest instance numbers among available units, then
// sterilized ones. A short pool yields a flagged partial selection rather
// than an error, so callers can warn instead of silently under-allocating.
func (s *Service) SelectInstances(ctx context.Context, lotID string, count int) (Selection, error) {
	sel := Selection{Requested: count}
	err := s.store.View(ctx, func(view TransactionView) error {
		sel.Instances = selectFromView(view, lotID, count)
		return nil
	})
	if err != nil {
		return Selection{}, err
	}
	sel.Shortfall = count - len(sel.Instances)
	sel.Partial = sel.Shortfall > 0
	if sel.Partial {
		s.logger.Warn("instance selection short", "lot", lotID, "requested", count, "selected", len(sel.Instances))
	}
	return sel, nil
}

func selectFromView(view TransactionView, lotID string, count int) []LabItemInstance {
	var available, sterilized []LabItemInstance
	for _, inst := range view.ListInstances() {
		if inst.LotID != lotID {
			continue
		}
		switch inst.Status {
		case domain.InstanceAvailable:
			available = append(available, inst)
		case domain.InstanceSterilized:
			sterilized = append(sterilized, inst)
		}
	}
	byNumber := func(list []LabItemInstance) {
		sort.Slice(list, func(a, b int) bool { return list[a].InstanceNumber < list[b].InstanceNumber })
	}
	byNumber(available)
	byNumber(sterilized)

	picked := make([]LabItemInstance, 0, count)
	for _, pool := range [][]LabItemInstance{available, sterilized} {
		for _, inst := range pool {
			if len(picked) == count {
				return picked
			}
			picked = append(picked, inst)
		}
	}
	return picked
}
