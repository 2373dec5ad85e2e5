package core_test

import (
	"context"
	"errors"
	"testing"

	"mycocore/pkg/domain"
)

func TestCultureLifecyclePath(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	culture := seedCulture(t, svc, "strain-1", domain.CultureColonizing)

	next, _, err := svc.Transition(ctx, domain.EntityCulture, culture.ID, domain.EventActivate)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if next != string(domain.CultureActive) {
		t.Fatalf("state = %s, want active", next)
	}
	next, _, err = svc.Transition(ctx, domain.EntityCulture, culture.ID, domain.EventMature)
	if err != nil {
		t.Fatalf("mature: %v", err)
	}
	if next != string(domain.CultureReady) {
		t.Fatalf("state = %s, want ready", next)
	}

	// Contamination short-circuits from any non-terminal state.
	next, _, err = svc.Transition(ctx, domain.EntityCulture, culture.ID, domain.EventContaminate)
	if err != nil {
		t.Fatalf("contaminate: %v", err)
	}
	if next != string(domain.CultureContaminated) {
		t.Fatalf("state = %s, want contaminated", next)
	}

	// A contaminated culture can still be archived, but never reactivated.
	var transitionErr domain.InvalidTransitionError
	if _, _, err := svc.Transition(ctx, domain.EntityCulture, culture.ID, domain.EventActivate); !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError reactivating contaminated culture, got %v", err)
	}
	if _, _, err := svc.Transition(ctx, domain.EntityCulture, culture.ID, domain.EventArchive); err != nil {
		t.Fatalf("archive contaminated culture: %v", err)
	}
	if _, _, err := svc.Transition(ctx, domain.EntityCulture, culture.ID, domain.EventContaminate); !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError on archived culture, got %v", err)
	}
}

func TestIllegalTransitionPerformsNoMutation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	grow := seedGrow(t, svc, domain.GrowSpawning)

	var transitionErr domain.InvalidTransitionError
	if _, _, err := svc.Transition(ctx, domain.EntityGrow, grow.ID, domain.EventHarvest); !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transitionErr.State != string(domain.GrowSpawning) || transitionErr.Event != domain.EventHarvest {
		t.Fatalf("unexpected error detail: %+v", transitionErr)
	}
	current, _ := svc.GetGrow(grow.ID)
	if current.CurrentStage != domain.GrowSpawning {
		t.Fatalf("stage mutated by illegal transition: %s", current.CurrentStage)
	}
}

func TestTransitionUnknownKind(t *testing.T) {
	svc := newTestService(t)
	if _, _, err := svc.Transition(context.Background(), domain.EntityLot, "x", domain.EventActivate); err == nil {
		t.Fatalf("expected error for kind without a machine")
	}
}

func TestShakeArmsOneProgressReset(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	batch := seedGrainSpawn(t, svc, "strain-1", domain.GrainShakeReady)

	if _, _, err := svc.SetColonizationProgress(ctx, batch.ID, 60); err != nil {
		t.Fatalf("set progress 60: %v", err)
	}

	// Progress is monotonic until a shake event arms a single reset.
	if _, _, err := svc.SetColonizationProgress(ctx, batch.ID, 40); err == nil {
		t.Fatalf("expected decrease to be rejected before shake")
	}

	next, _, err := svc.Transition(ctx, domain.EntityGrainSpawn, batch.ID, domain.EventShake)
	if err != nil {
		t.Fatalf("shake: %v", err)
	}
	if next != string(domain.GrainShaken) {
		t.Fatalf("state = %s, want shaken", next)
	}
	shaken, _ := svc.GetGrainSpawn(batch.ID)
	if shaken.ShakeCount != 1 {
		t.Fatalf("shake count = %d, want 1", shaken.ShakeCount)
	}

	updated, _, err := svc.SetColonizationProgress(ctx, batch.ID, 30)
	if err != nil {
		t.Fatalf("post-shake reset: %v", err)
	}
	if updated.ColonizationProgress != 30 {
		t.Fatalf("progress = %d, want 30", updated.ColonizationProgress)
	}

	// The reset is one-shot.
	if _, _, err := svc.SetColonizationProgress(ctx, batch.ID, 20); err == nil {
		t.Fatalf("expected second decrease to be rejected")
	}
	if _, _, err := svc.SetColonizationProgress(ctx, batch.ID, 85); err != nil {
		t.Fatalf("increase after reset: %v", err)
	}
}

func TestColonizationProgressRange(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	batch := seedGrainSpawn(t, svc, "strain-1", domain.GrainColonizing)

	if _, _, err := svc.SetColonizationProgress(ctx, batch.ID, 101); err == nil {
		t.Fatalf("expected 101 to be rejected")
	}
	if _, _, err := svc.SetColonizationProgress(ctx, batch.ID, -1); err == nil {
		t.Fatalf("expected -1 to be rejected")
	}
}

func TestRecordFlushAppendOnly(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	grow := seedGrow(t, svc, domain.GrowHarvesting)

	first, _, err := svc.RecordFlush(ctx, grow.ID, domain.Flush{WetWeightG: 450, DryWeightG: 45})
	if err != nil {
		t.Fatalf("record flush: %v", err)
	}
	if len(first.Flushes) != 1 || first.Flushes[0].HarvestedAt.IsZero() {
		t.Fatalf("flush not recorded with timestamp: %+v", first.Flushes)
	}

	// Corrections are additional flushes flagged as adjustments.
	second, _, err := svc.RecordFlush(ctx, grow.ID, domain.Flush{WetWeightG: -50, IsAdjustment: true})
	if err != nil {
		t.Fatalf("record adjustment flush: %v", err)
	}
	if len(second.Flushes) != 2 || !second.Flushes[1].IsAdjustment {
		t.Fatalf("adjustment flush not appended: %+v", second.Flushes)
	}

	// Raw writes cannot rewrite history.
	_, err = svc.Store().RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateGrow(grow.ID, func(g *domain.Grow) error {
			g.Flushes = g.Flushes[:1]
			return nil
		})
		return err
	})
	var violationErr domain.RuleViolationError
	if !AsRuleViolation(err, &violationErr) {
		t.Fatalf("expected rule violation truncating flushes, got %v", err)
	}
	if violationErr.Result.Violations[0].Rule != "flush_immutability" {
		t.Fatalf("unexpected violations: %+v", violationErr.Result.Violations)
	}
}

func TestRecordFlushRejectedOnFailedGrow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	grow := seedGrow(t, svc, domain.GrowFruiting)

	if _, _, err := svc.Transition(ctx, domain.EntityGrow, grow.ID, domain.EventContaminate); err != nil {
		t.Fatalf("contaminate: %v", err)
	}
	var transitionErr domain.InvalidTransitionError
	if _, _, err := svc.RecordFlush(ctx, grow.ID, domain.Flush{WetWeightG: 100}); !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidTransitionError recording flush on contaminated grow, got %v", err)
	}
}
