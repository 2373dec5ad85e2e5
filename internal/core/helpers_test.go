package core_test

import (
	"context"
	"errors"
	"testing"

	"mycocore/internal/core"
	"mycocore/pkg/domain"
)

// newTestService builds a service over a fresh in-memory store with the
// default rules registered.
func newTestService(t *testing.T, opts ...core.Option) *core.Service {
	t.Helper()
	return core.NewInMemoryService(core.NewDefaultRulesEngine(), opts...)
}

// seedLot creates a lot through the ledger so OriginalQuantity and the
// acquisition adjustment are in place.
func seedLot(t *testing.T, svc *core.Service, quantity, reorderPoint, unitCost float64) domain.InventoryLot {
	t.Helper()
	lot, _, err := svc.CreateLot(context.Background(), domain.InventoryLot{
		Quantity:     quantity,
		ReorderPoint: reorderPoint,
		UnitCost:     unitCost,
	})
	if err != nil {
		t.Fatalf("seed lot: %v", err)
	}
	return lot
}

// seedCulture creates a generation-zero culture with the given status.
func seedCulture(t *testing.T, svc *core.Service, strainID string, status domain.CultureStatus) domain.Culture {
	t.Helper()
	culture, _, err := svc.CreateCulture(context.Background(), domain.Culture{
		Type:     domain.CultureAgarPlate,
		StrainID: strainID,
		Status:   status,
	})
	if err != nil {
		t.Fatalf("seed culture: %v", err)
	}
	return culture
}

// seedPreparedSpawn writes a prepared batch directly into the store,
// bypassing the preparation saga.
func seedPreparedSpawn(t *testing.T, svc *core.Service, status domain.PreparedSpawnStatus) domain.PreparedSpawn {
	t.Helper()
	var created domain.PreparedSpawn
	_, err := svc.Store().RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreatePreparedSpawn(domain.PreparedSpawn{
			Type:           domain.PreparedGrainJar,
			ContainerCount: 4,
			Status:         status,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed prepared spawn: %v", err)
	}
	return created
}

// seedGrainSpawn writes a grain spawn batch directly into the store.
func seedGrainSpawn(t *testing.T, svc *core.Service, strainID string, status domain.GrainSpawnStatus) domain.GrainSpawn {
	t.Helper()
	var created domain.GrainSpawn
	_, err := svc.Store().RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateGrainSpawn(domain.GrainSpawn{
			StrainID: strainID,
			Status:   status,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed grain spawn: %v", err)
	}
	return created
}

// seedGrow writes a grow directly into the store.
func seedGrow(t *testing.T, svc *core.Service, stage domain.GrowStage) domain.Grow {
	t.Helper()
	var created domain.Grow
	_, err := svc.Store().RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateGrow(domain.Grow{
			StrainID:        "strain-1",
			CurrentStage:    stage,
			SubstrateWeight: 3000,
			SpawnWeight:     1000,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed grow: %v", err)
	}
	return created
}

// AsRuleViolation unwraps a RuleViolationError from an error chain.
func AsRuleViolation(err error, target *domain.RuleViolationError) bool {
	return errors.As(err, target)
}
