package core

import (
	"context"
	"fmt"
	"time"

	"mycocore/pkg/domain"
)

// CreateLot registers a newly acquired inventory lot. OriginalQuantity is
// pinned to the opening quantity and the opening acquisition adjustment is
// recorded so the adjustment trail reconstructs the full history.
func (s *Service) CreateLot(ctx context.Context, lot InventoryLot) (InventoryLot, Result, error) {
	var created InventoryLot
	res, err := s.instrument(ctx, "create_lot", EntityLot, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if lot.ItemID != "" {
				if _, ok := tx.Snapshot().FindItem(lot.ItemID); !ok {
					return domain.NotFoundError{Entity: EntityItem, ID: lot.ItemID}
				}
			}
			if lot.Quantity < 0 {
				return fmt.Errorf("lot opening quantity %g is negative", lot.Quantity)
			}
			lot.OriginalQuantity = lot.Quantity
			lot.InUseQuantity = 0
			lot.DisposedQuantity = 0
			lot.Status = domain.DeriveLotStatus("", lot.Quantity, lot.ReorderPoint)
			lot.Adjustments = []LotAdjustment{{
				Delta:      lot.Quantity,
				Reason:     domain.ReasonAcquisition,
				AdjustedAt: s.clock.Now(),
			}}
			var err error
			created, err = tx.CreateLot(lot)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// AdjustQuantity applies a signed quantity delta to a lot. The adjustment is
// all-or-nothing: a delta that would drive quantity negative fails with
// InsufficientStockError and leaves the lot untouched. Status is recomputed
// from the resulting quantity, and the adjustment is appended to the lot's
// attributed trail.
func (s *Service) AdjustQuantity(ctx context.Context, lotID string, delta float64, reason AdjustmentReason, relatedEntityID string) (InventoryLot, Result, error) {
	var updated InventoryLot
	res, err := s.instrument(ctx, "adjust_quantity", EntityLot, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = adjustLot(tx, lotID, delta, reason, relatedEntityID, s.clock.Now())
			return err
		})
		return lotID, res, err
	})
	return updated, res, err
}

// MarkLotExpired drives a lot to the sticky expired status. Quantity is
// untouched; expired lots no longer rederive status from quantity.
func (s *Service) MarkLotExpired(ctx context.Context, lotID string) (InventoryLot, Result, error) {
	var updated InventoryLot
	res, err := s.instrument(ctx, "mark_lot_expired", EntityLot, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateLot(lotID, func(l *InventoryLot) error {
				l.Status = domain.LotStatusExpired
				return nil
			})
			return err
		})
		return lotID, res, err
	})
	return updated, res, err
}

// adjustLot applies one attributed ledger adjustment inside a transaction.
// Shared by AdjustQuantity and the saga steps so compensations follow the
// exact same arithmetic.
func adjustLot(tx Transaction, lotID string, delta float64, reason AdjustmentReason, relatedEntityID string, now time.Time) (InventoryLot, error) {
	return tx.UpdateLot(lotID, func(l *InventoryLot) error {
		next := l.Quantity + delta
		if next < 0 {
			return domain.InsufficientStockError{LotID: lotID, Requested: delta, Available: l.Quantity}
		}
		l.Quantity = next
		l.Status = domain.DeriveLotStatus(l.Status, next, l.ReorderPoint)
		l.Adjustments = append(l.Adjustments, LotAdjustment{
			Delta:           delta,
			Reason:          reason,
			RelatedEntityID: relatedEntityID,
			AdjustedAt:      now,
		})
		return nil
	})
}
