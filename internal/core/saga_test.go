package core_test

import (
	"context"
	"errors"
	"testing"

	"mycocore/internal/core"
	"mycocore/pkg/domain"
)

func TestPrepareSpawnHappyPath(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	containers := seedLot(t, svc, 20, 0, 2)
	grain := seedLot(t, svc, 5000, 0, 0.01)
	supplement := seedLot(t, svc, 1000, 0, 0.05)

	batch, _, err := svc.PrepareSpawn(ctx, core.PrepareSpawnRequest{
		Type:           domain.PreparedGrainJar,
		ContainerLotID: containers.ID,
		ContainerCount: 4,
		Ingredients: []domain.IngredientUsage{
			{LotID: grain.ID, Quantity: 1000},
			{LotID: supplement.ID, Quantity: 40},
		},
	})
	if err != nil {
		t.Fatalf("prepare spawn: %v", err)
	}
	if batch.Status != domain.PreparedPreparing || batch.ContainerCount != 4 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	// 4 containers at 2 + 1000 grain at 0.01 + 40 supplement at 0.05
	if batch.ProductionCost != 4*2+1000*0.01+40*0.05 {
		t.Fatalf("production cost = %v, want 20", batch.ProductionCost)
	}

	if lot, _ := svc.GetLot(containers.ID); lot.Quantity != 16 {
		t.Fatalf("container lot quantity = %v, want 16", lot.Quantity)
	}
	if lot, _ := svc.GetLot(grain.ID); lot.Quantity != 4000 {
		t.Fatalf("grain lot quantity = %v, want 4000", lot.Quantity)
	}
	if lot, _ := svc.GetLot(supplement.ID); lot.Quantity != 960 {
		t.Fatalf("supplement lot quantity = %v, want 960", lot.Quantity)
	}
}

func TestPrepareSpawnBindsInstances(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	containers := seedLot(t, svc, 20, 0, 2)
	if _, _, err := svc.ProvisionInstances(ctx, containers.ID, 5); err != nil {
		t.Fatalf("provision: %v", err)
	}

	batch, _, err := svc.PrepareSpawn(ctx, core.PrepareSpawnRequest{
		Type:           domain.PreparedGrainJar,
		ContainerLotID: containers.ID,
		ContainerCount: 3,
		BindInstances:  true,
	})
	if err != nil {
		t.Fatalf("prepare spawn: %v", err)
	}
	if len(batch.InstanceIDs) != 3 {
		t.Fatalf("bound %d instances, want 3", len(batch.InstanceIDs))
	}
	for _, id := range batch.InstanceIDs {
		inst, ok := svc.GetInstance(id)
		if !ok {
			t.Fatalf("bound instance %s missing", id)
		}
		if inst.Status != domain.InstanceInUse || inst.UsageRef == nil || inst.UsageRef.EntityID != batch.ID {
			t.Fatalf("bound instance not pointing at batch: %+v", inst)
		}
	}
}

func TestPrepareSpawnRollsBackOnIngredientFailure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	containers := seedLot(t, svc, 20, 0, 2)
	grain := seedLot(t, svc, 5000, 0, 0.01)
	water := seedLot(t, svc, 10000, 0, 0)
	scarce := seedLot(t, svc, 5, 0, 0.05)

	_, _, err := svc.PrepareSpawn(ctx, core.PrepareSpawnRequest{
		Type:           domain.PreparedGrainJar,
		ContainerLotID: containers.ID,
		ContainerCount: 4,
		Ingredients: []domain.IngredientUsage{
			{LotID: grain.ID, Quantity: 1000},
			{LotID: water.ID, Quantity: 500},
			{LotID: scarce.ID, Quantity: 50}, // more than on hand
		},
	})
	var sagaErr domain.SagaFailedError
	if !errors.As(err, &sagaErr) {
		t.Fatalf("expected SagaFailedError, got %v", err)
	}
	if sagaErr.Saga != core.SagaPrepareSpawn || !sagaErr.RolledBack {
		t.Fatalf("unexpected saga failure: %+v", sagaErr)
	}
	var stockErr domain.InsufficientStockError
	if !errors.As(sagaErr.Cause, &stockErr) {
		t.Fatalf("cause = %v, want InsufficientStockError", sagaErr.Cause)
	}

	// Every lot touched by earlier steps is restored.
	for _, tc := range []struct {
		lotID string
		want  float64
	}{
		{containers.ID, 20},
		{grain.ID, 5000},
		{water.ID, 10000},
		{scarce.ID, 5},
	} {
		lot, _ := svc.GetLot(tc.lotID)
		if lot.Quantity != tc.want {
			t.Fatalf("lot %s quantity = %v, want %v after rollback", tc.lotID, lot.Quantity, tc.want)
		}
	}
	// Compensations are attributed in the trail, not erased.
	grainLot, _ := svc.GetLot(grain.ID)
	last := grainLot.Adjustments[len(grainLot.Adjustments)-1]
	if last.Reason != domain.ReasonCompensation || last.Delta != 1000 {
		t.Fatalf("expected compensation entry of +1000, got %+v", last)
	}

	// No batch was created.
	if n := len(listPreparedSpawn(t, svc)); n != 0 {
		t.Fatalf("prepared spawn count = %d, want 0", n)
	}
}

func TestPrepareSpawnRollbackRestoresSterilizedInstances(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	containers := seedLot(t, svc, 20, 0, 2)
	scarce := seedLot(t, svc, 5, 0, 0.05)
	provisioned, _, err := svc.ProvisionInstances(ctx, containers.ID, 3)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	// Instance #1 goes through the sterilizer before the saga binds it.
	sterilizedID := provisioned[0].ID
	if _, _, err := svc.SetInstanceStatus(ctx, sterilizedID, domain.InstanceDirty); err != nil {
		t.Fatalf("set dirty: %v", err)
	}
	if _, _, err := svc.SetInstanceStatus(ctx, sterilizedID, domain.InstanceSterilized); err != nil {
		t.Fatalf("set sterilized: %v", err)
	}

	_, _, err = svc.PrepareSpawn(ctx, core.PrepareSpawnRequest{
		Type:           domain.PreparedGrainJar,
		ContainerLotID: containers.ID,
		ContainerCount: 3,
		BindInstances:  true,
		Ingredients: []domain.IngredientUsage{
			{LotID: scarce.ID, Quantity: 50}, // more than on hand
		},
	})
	var sagaErr domain.SagaFailedError
	if !errors.As(err, &sagaErr) {
		t.Fatalf("expected SagaFailedError, got %v", err)
	}
	if !sagaErr.RolledBack {
		t.Fatalf("saga not rolled back: %+v", sagaErr)
	}

	// Rollback is state-neutral: the sterilized jar stays sterilized, the
	// rest return to available, and nothing keeps a usage ref.
	for _, inst := range provisioned {
		got, ok := svc.GetInstance(inst.ID)
		if !ok {
			t.Fatalf("instance %s missing", inst.ID)
		}
		want := domain.InstanceAvailable
		if inst.ID == sterilizedID {
			want = domain.InstanceSterilized
		}
		if got.Status != want {
			t.Fatalf("instance %s status = %s, want %s after rollback", inst.ID, got.Status, want)
		}
		if got.UsageRef != nil {
			t.Fatalf("instance %s kept usage ref %+v", inst.ID, got.UsageRef)
		}
	}
	lot, _ := svc.GetLot(containers.ID)
	if lot.InUseQuantity != 0 {
		t.Fatalf("in-use quantity = %v, want 0 after rollback", lot.InUseQuantity)
	}
}

func TestInoculateHappyPath(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	culture := seedCulture(t, svc, "strain-7", domain.CultureReady)
	prepared := seedPreparedSpawn(t, svc, domain.PreparedReady)

	batch, _, err := svc.Inoculate(ctx, core.InoculateRequest{
		SourceCultureID: culture.ID,
		PreparedSpawnID: prepared.ID,
	})
	if err != nil {
		t.Fatalf("inoculate: %v", err)
	}
	if batch.Status != domain.GrainInoculated || batch.StrainID != "strain-7" {
		t.Fatalf("unexpected grain spawn: %+v", batch)
	}
	if batch.SourceCultureID != culture.ID || batch.PreparedSpawnID != prepared.ID {
		t.Fatalf("provenance not recorded: %+v", batch)
	}
	if batch.InoculatedAt.IsZero() {
		t.Fatalf("inoculation timestamp missing")
	}

	if c, _ := svc.GetCulture(culture.ID); c.UsageCount != 1 {
		t.Fatalf("culture usage count = %d, want 1", c.UsageCount)
	}
	if p, _ := svc.GetPreparedSpawn(prepared.ID); p.Status != domain.PreparedInoculated {
		t.Fatalf("prepared spawn status = %s, want inoculated", p.Status)
	}
}

func TestInoculateRollsBackCultureOnUnreadyBatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	culture := seedCulture(t, svc, "strain-7", domain.CultureActive)
	prepared := seedPreparedSpawn(t, svc, domain.PreparedCooling)

	_, _, err := svc.Inoculate(ctx, core.InoculateRequest{
		SourceCultureID: culture.ID,
		PreparedSpawnID: prepared.ID,
	})
	var sagaErr domain.SagaFailedError
	if !errors.As(err, &sagaErr) {
		t.Fatalf("expected SagaFailedError, got %v", err)
	}
	if sagaErr.StepName != "consume_prepared_spawn" || !sagaErr.RolledBack {
		t.Fatalf("unexpected saga failure: %+v", sagaErr)
	}

	// The culture's usage increment from step one was compensated.
	if c, _ := svc.GetCulture(culture.ID); c.UsageCount != 0 {
		t.Fatalf("culture usage count = %d, want 0 after rollback", c.UsageCount)
	}
	if p, _ := svc.GetPreparedSpawn(prepared.ID); p.Status != domain.PreparedCooling {
		t.Fatalf("prepared spawn status = %s, want cooling", p.Status)
	}
}

func TestInoculateRejectsIneligibleCulture(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	culture := seedCulture(t, svc, "strain-7", domain.CultureContaminated)
	prepared := seedPreparedSpawn(t, svc, domain.PreparedReady)

	_, _, err := svc.Inoculate(ctx, core.InoculateRequest{
		SourceCultureID: culture.ID,
		PreparedSpawnID: prepared.ID,
	})
	var sagaErr domain.SagaFailedError
	if !errors.As(err, &sagaErr) {
		t.Fatalf("expected SagaFailedError, got %v", err)
	}
	if sagaErr.FailedStep != 0 {
		t.Fatalf("failed step = %d, want 0", sagaErr.FailedStep)
	}
	if p, _ := svc.GetPreparedSpawn(prepared.ID); p.Status != domain.PreparedReady {
		t.Fatalf("prepared spawn touched by failed first step: %s", p.Status)
	}
}

func TestSpawnToBulkHappyPath(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := seedGrainSpawn(t, svc, "strain-7", domain.GrainFullyColonized)
	b := seedGrainSpawn(t, svc, "strain-7", domain.GrainFullyColonized)

	grow, _, err := svc.SpawnToBulk(ctx, core.SpawnToBulkRequest{
		GrainSpawnIDs:   []string{a.ID, b.ID},
		SubstrateWeight: 3000,
		SpawnWeight:     1000,
	})
	if err != nil {
		t.Fatalf("spawn to bulk: %v", err)
	}
	if grow.CurrentStage != domain.GrowSpawning || grow.StrainID != "strain-7" {
		t.Fatalf("unexpected grow: %+v", grow)
	}
	if grow.SpawnRate() != 0.25 {
		t.Fatalf("spawn rate = %v, want 0.25", grow.SpawnRate())
	}
	for _, id := range []string{a.ID, b.ID} {
		if batch, _ := svc.GetGrainSpawn(id); batch.Status != domain.GrainSpawnedToBulk {
			t.Fatalf("grain spawn %s status = %s, want spawned_to_bulk", id, batch.Status)
		}
	}
}

func TestSpawnToBulkRejectsStrainMismatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := seedGrainSpawn(t, svc, "strain-7", domain.GrainFullyColonized)
	b := seedGrainSpawn(t, svc, "strain-8", domain.GrainFullyColonized)

	_, _, err := svc.SpawnToBulk(ctx, core.SpawnToBulkRequest{
		GrainSpawnIDs: []string{a.ID, b.ID},
	})
	var sagaErr domain.SagaFailedError
	if !errors.As(err, &sagaErr) {
		t.Fatalf("expected SagaFailedError, got %v", err)
	}
	if sagaErr.StepName != "validate_strains" {
		t.Fatalf("failed step = %s, want validate_strains", sagaErr.StepName)
	}
	// Validation runs before any mutation.
	for _, id := range []string{a.ID, b.ID} {
		if batch, _ := svc.GetGrainSpawn(id); batch.Status != domain.GrainFullyColonized {
			t.Fatalf("grain spawn %s mutated by failed validation: %s", id, batch.Status)
		}
	}
}

func TestSpawnToBulkRollsBackConsumedBatches(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := seedGrainSpawn(t, svc, "strain-7", domain.GrainFullyColonized)
	b := seedGrainSpawn(t, svc, "strain-7", domain.GrainColonizing) // not spawnable

	_, _, err := svc.SpawnToBulk(ctx, core.SpawnToBulkRequest{
		GrainSpawnIDs: []string{a.ID, b.ID},
	})
	var sagaErr domain.SagaFailedError
	if !errors.As(err, &sagaErr) {
		t.Fatalf("expected SagaFailedError, got %v", err)
	}
	if !sagaErr.RolledBack {
		t.Fatalf("expected rollback to complete: %+v", sagaErr)
	}

	if batch, _ := svc.GetGrainSpawn(a.ID); batch.Status != domain.GrainFullyColonized {
		t.Fatalf("batch a status = %s, want fully_colonized restored", batch.Status)
	}
	if batch, _ := svc.GetGrainSpawn(b.ID); batch.Status != domain.GrainColonizing {
		t.Fatalf("batch b status = %s, want colonizing untouched", batch.Status)
	}
	if n := len(svc.ListGrows()); n != 0 {
		t.Fatalf("grow count = %d, want 0", n)
	}
}

func TestRunSagaDispatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	containers := seedLot(t, svc, 20, 0, 2)

	out, _, err := svc.RunSaga(ctx, core.SagaPrepareSpawn, map[string]any{
		"type":             string(domain.PreparedGrainJar),
		"container_lot_id": containers.ID,
		"container_count":  2,
	})
	if err != nil {
		t.Fatalf("run saga: %v", err)
	}
	batch, ok := out.(domain.PreparedSpawn)
	if !ok {
		t.Fatalf("result type %T, want PreparedSpawn", out)
	}
	if batch.ContainerCount != 2 {
		t.Fatalf("unexpected batch: %+v", batch)
	}

	if _, _, err := svc.RunSaga(ctx, "compost", nil); err == nil {
		t.Fatalf("expected unknown saga to fail")
	}
}

// listPreparedSpawn reads all prepared batches through a store view.
func listPreparedSpawn(t *testing.T, svc *core.Service) []domain.PreparedSpawn {
	t.Helper()
	var out []domain.PreparedSpawn
	if err := svc.Store().View(context.Background(), func(view domain.TransactionView) error {
		out = view.ListPreparedSpawns()
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	return out
}
