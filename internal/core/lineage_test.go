package core_test

import (
	"context"
	"errors"
	"testing"

	"mycocore/pkg/domain"
)

func TestAttachLineageSetsGeneration(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	root := seedCulture(t, svc, "strain-1", domain.CultureActive)
	child := seedCulture(t, svc, "strain-1", domain.CultureActive)
	grandchild := seedCulture(t, svc, "strain-1", domain.CultureActive)

	attached, _, err := svc.AttachLineage(ctx, child.ID, root.ID)
	if err != nil {
		t.Fatalf("attach child: %v", err)
	}
	if attached.Generation != 1 || attached.ParentID == nil || *attached.ParentID != root.ID {
		t.Fatalf("unexpected child after attach: %+v", attached)
	}

	attached, _, err = svc.AttachLineage(ctx, grandchild.ID, child.ID)
	if err != nil {
		t.Fatalf("attach grandchild: %v", err)
	}
	if attached.Generation != 2 {
		t.Fatalf("grandchild generation = %d, want 2", attached.Generation)
	}

	ancestors, err := svc.Ancestors(ctx, grandchild.ID)
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	if len(ancestors) != 2 || ancestors[0].ID != root.ID || ancestors[1].ID != child.ID {
		t.Fatalf("ancestors not root-first: %+v", ancestors)
	}

	descendants, err := svc.Descendants(ctx, root.ID)
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	if len(descendants) != 2 {
		t.Fatalf("descendant count = %d, want 2", len(descendants))
	}
}

func TestAttachLineageRejectsCycles(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := seedCulture(t, svc, "strain-1", domain.CultureActive)
	b := seedCulture(t, svc, "strain-1", domain.CultureActive)
	c := seedCulture(t, svc, "strain-1", domain.CultureActive)

	if _, _, err := svc.AttachLineage(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("attach b under a: %v", err)
	}
	if _, _, err := svc.AttachLineage(ctx, c.ID, b.ID); err != nil {
		t.Fatalf("attach c under b: %v", err)
	}

	var cycleErr domain.CycleDetectedError
	if _, _, err := svc.AttachLineage(ctx, a.ID, c.ID); !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleDetectedError closing a->c, got %v", err)
	}
	if _, _, err := svc.AttachLineage(ctx, a.ID, a.ID); !errors.As(err, &cycleErr) {
		t.Fatalf("expected CycleDetectedError on self-parent, got %v", err)
	}

	// The failed attach must not have mutated a.
	current, _ := svc.GetCulture(a.ID)
	if current.ParentID != nil || current.Generation != 0 {
		t.Fatalf("culture a mutated by rejected attach: %+v", current)
	}
}

func TestDetachLineageLeavesDescendantsStale(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	a := seedCulture(t, svc, "strain-1", domain.CultureActive)
	b := seedCulture(t, svc, "strain-1", domain.CultureActive)
	c := seedCulture(t, svc, "strain-1", domain.CultureActive)
	if _, _, err := svc.AttachLineage(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("attach b: %v", err)
	}
	if _, _, err := svc.AttachLineage(ctx, c.ID, b.ID); err != nil {
		t.Fatalf("attach c: %v", err)
	}

	detached, _, err := svc.DetachLineage(ctx, b.ID)
	if err != nil {
		t.Fatalf("detach b: %v", err)
	}
	if detached.ParentID != nil || detached.Generation != 0 {
		t.Fatalf("unexpected b after detach: %+v", detached)
	}

	// Descendant generations are snapshots; c keeps its stored value.
	current, _ := svc.GetCulture(c.ID)
	if current.Generation != 2 || current.ParentID == nil || *current.ParentID != b.ID {
		t.Fatalf("c should keep stale generation 2 under b, got %+v", current)
	}
}

func TestCreateCultureForcesGenerationFromParent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	parent := seedCulture(t, svc, "strain-1", domain.CultureReady)

	pid := parent.ID
	child, _, err := svc.CreateCulture(ctx, domain.Culture{
		Type:       domain.CultureLiquid,
		StrainID:   "strain-1",
		Status:     domain.CultureColonizing,
		ParentID:   &pid,
		Generation: 99,
	})
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if child.Generation != 1 {
		t.Fatalf("generation = %d, want 1 regardless of the requested value", child.Generation)
	}

	missing := "missing"
	var notFound domain.NotFoundError
	if _, _, err := svc.CreateCulture(ctx, domain.Culture{StrainID: "strain-1", Status: domain.CultureColonizing, ParentID: &missing}); !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for dangling parent, got %v", err)
	}
}

func TestLineageIntegrityRuleBlocksRawInconsistentWrite(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	parent := seedCulture(t, svc, "strain-1", domain.CultureActive)
	child := seedCulture(t, svc, "strain-1", domain.CultureActive)

	// Writing a parent pointer with the wrong generation must not commit.
	_, err := svc.Store().RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateCulture(child.ID, func(c *domain.Culture) error {
			pid := parent.ID
			c.ParentID = &pid
			c.Generation = 5
			return nil
		})
		return err
	})
	var violationErr domain.RuleViolationError
	if !AsRuleViolation(err, &violationErr) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if violationErr.Result.Violations[0].Rule != "lineage_integrity" {
		t.Fatalf("unexpected violations: %+v", violationErr.Result.Violations)
	}
}
