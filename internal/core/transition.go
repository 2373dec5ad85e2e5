package core

import (
	"context"
	"fmt"

	"mycocore/pkg/domain"
)

// Transition applies a lifecycle event to a stateful entity and returns the
// resulting state. An illegal (state, event) pair fails with
// InvalidTransitionError and performs no mutation. A shake event arms the one
// sanctioned colonization-progress reset on grain spawn.
func (s *Service) Transition(ctx context.Context, kind EntityType, id string, event Event) (string, Result, error) {
	var next string
	res, err := s.instrument(ctx, "transition", kind, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			next, err = applyTransition(tx, kind, id, event)
			return err
		})
		return id, res, err
	})
	return next, res, err
}

func applyTransition(tx Transaction, kind EntityType, id string, event Event) (string, error) {
	machine, ok := domain.MachineFor(kind)
	if !ok {
		return "", fmt.Errorf("entity kind %s has no lifecycle machine", kind)
	}
	switch kind {
	case EntityCulture:
		updated, err := tx.UpdateCulture(id, func(c *Culture) error {
			next, ok := machine.Next(string(c.Status), event)
			if !ok {
				return domain.InvalidTransitionError{Entity: kind, ID: id, State: string(c.Status), Event: event}
			}
			c.Status = domain.CultureStatus(next)
			return nil
		})
		return string(updated.Status), err
	case EntityPreparedSpawn:
		updated, err := tx.UpdatePreparedSpawn(id, func(p *PreparedSpawn) error {
			next, ok := machine.Next(string(p.Status), event)
			if !ok {
				return domain.InvalidTransitionError{Entity: kind, ID: id, State: string(p.Status), Event: event}
			}
			p.Status = domain.PreparedSpawnStatus(next)
			return nil
		})
		return string(updated.Status), err
	case EntityGrainSpawn:
		updated, err := tx.UpdateGrainSpawn(id, func(g *GrainSpawn) error {
			next, ok := machine.Next(string(g.Status), event)
			if !ok {
				return domain.InvalidTransitionError{Entity: kind, ID: id, State: string(g.Status), Event: event}
			}
			if event == domain.EventShake {
				g.ShakeCount++
				g.ProgressResetArmed = true
			}
			g.Status = domain.GrainSpawnStatus(next)
			return nil
		})
		return string(updated.Status), err
	case EntityGrow:
		updated, err := tx.UpdateGrow(id, func(g *Grow) error {
			next, ok := machine.Next(string(g.CurrentStage), event)
			if !ok {
				return domain.InvalidTransitionError{Entity: kind, ID: id, State: string(g.CurrentStage), Event: event}
			}
			g.CurrentStage = domain.GrowStage(next)
			return nil
		})
		return string(updated.CurrentStage), err
	default:
		return "", fmt.Errorf("entity kind %s has no lifecycle machine", kind)
	}
}

// SetColonizationProgress records grain spawn colonization percentage.
// Progress only increases, except for the first write after a shake event,
// which may reset it downward.
func (s *Service) SetColonizationProgress(ctx context.Context, grainSpawnID string, pct int) (GrainSpawn, Result, error) {
	var updated GrainSpawn
	res, err := s.instrument(ctx, "set_colonization_progress", EntityGrainSpawn, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateGrainSpawn(grainSpawnID, func(g *GrainSpawn) error {
				if pct < 0 || pct > 100 {
					return fmt.Errorf("colonization progress %d out of range [0,100]", pct)
				}
				if pct < g.ColonizationProgress && !g.ProgressResetArmed {
					return fmt.Errorf("colonization progress may not decrease (%d -> %d)", g.ColonizationProgress, pct)
				}
				g.ColonizationProgress = pct
				g.ProgressResetArmed = false
				return nil
			})
			return err
		})
		return grainSpawnID, res, err
	})
	return updated, res, err
}

// RecordFlush appends a harvest event to a grow. Flush history is append-only;
// corrections are themselves flushes flagged as adjustments. Failed grows
// (contaminated, aborted) accept no further flushes.
func (s *Service) RecordFlush(ctx context.Context, growID string, flush Flush) (Grow, Result, error) {
	var updated Grow
	res, err := s.instrument(ctx, "record_flush", EntityGrow, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateGrow(growID, func(g *Grow) error {
				switch g.CurrentStage {
				case domain.GrowContaminated, domain.GrowAborted:
					return domain.InvalidTransitionError{Entity: EntityGrow, ID: growID, State: string(g.CurrentStage), Event: "record_flush"}
				}
				if flush.HarvestedAt.IsZero() {
					flush.HarvestedAt = s.clock.Now()
				}
				g.Flushes = append(g.Flushes, flush)
				return nil
			})
			return err
		})
		return growID, res, err
	})
	return updated, res, err
}
