package core

import (
	"context"
	"encoding/json"
	"fmt"

	"mycocore/pkg/domain"
)

// Saga names accepted by RunSaga.
const (
	SagaPrepareSpawn = "prepare_spawn"
	SagaInoculate    = "inoculate"
	SagaSpawnToBulk  = "spawn_to_bulk"
)

// sagaStep is one reversible unit of a multi-entity allocation. Each step runs
// in its own store transaction; compensate undoes the step's effect and is nil
// for read-only steps.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) (Result, error)
	compensate func(ctx context.Context) error
}

// runSagaSteps executes steps in order. A failure at step k compensates steps
// k-1..0 in reverse before surfacing SagaFailedError. Compensation failures
// are logged and reported through RolledBack=false; they are never retried
// here.
func (s *Service) runSagaSteps(ctx context.Context, name string, steps []sagaStep) (Result, error) {
	var combined Result
	for i, step := range steps {
		res, err := step.run(ctx)
		combined.Merge(res)
		if err == nil {
			continue
		}
		rolledBack := true
		for j := i - 1; j >= 0; j-- {
			if steps[j].compensate == nil {
				continue
			}
			if cErr := steps[j].compensate(ctx); cErr != nil {
				rolledBack = false
				s.logger.Error("saga compensation failed", "saga", name, "step", steps[j].name, "error", cErr)
			}
		}
		return combined, domain.SagaFailedError{
			Saga:       name,
			FailedStep: i,
			StepName:   step.name,
			RolledBack: rolledBack,
			Cause:      err,
		}
	}
	return combined, nil
}

// adjustStep runs one ledger adjustment as its own transaction, for saga
// steps and their compensations.
func (s *Service) adjustStep(ctx context.Context, lotID string, delta float64, reason AdjustmentReason, related string) (Result, error) {
	return s.store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := adjustLot(tx, lotID, delta, reason, related, s.clock.Now())
		return err
	})
}

// PrepareSpawnRequest describes a prepare-spawn allocation: consume container
// stock (optionally binding tracked instances), consume each ingredient lot,
// and create the PreparedSpawn batch.
type PrepareSpawnRequest struct {
	Type           domain.PreparedSpawnType `json:"type"`
	ContainerLotID string                   `json:"container_lot_id"`
	ContainerCount int                      `json:"container_count"`
	BindInstances  bool                     `json:"bind_instances"`
	Ingredients    []IngredientUsage        `json:"ingredients"`
}

// PrepareSpawn runs the prepare-spawn saga. On failure at any step, lots and
// instances touched by earlier steps are restored before the error surfaces.
func (s *Service) PrepareSpawn(ctx context.Context, req PrepareSpawnRequest) (PreparedSpawn, Result, error) {
	var created PreparedSpawn
	res, err := s.instrument(ctx, SagaPrepareSpawn, EntityPreparedSpawn, func(ctx context.Context) (string, Result, error) {
		res, err := s.prepareSpawn(ctx, req, &created)
		return created.ID, res, err
	})
	return created, res, err
}

func (s *Service) prepareSpawn(ctx context.Context, req PrepareSpawnRequest, created *PreparedSpawn) (Result, error) {
	if req.ContainerCount <= 0 {
		return Result{}, fmt.Errorf("container count %d must be positive", req.ContainerCount)
	}

	var boundInstances []string
	priorStatus := map[string]domain.InstanceStatus{}
	steps := []sagaStep{
		{
			name: "decrement_container_lot",
			run: func(ctx context.Context) (Result, error) {
				return s.adjustStep(ctx, req.ContainerLotID, -float64(req.ContainerCount), domain.ReasonPreparation, "")
			},
			compensate: func(ctx context.Context) error {
				_, err := s.adjustStep(ctx, req.ContainerLotID, float64(req.ContainerCount), domain.ReasonCompensation, "")
				return err
			},
		},
	}

	if req.BindInstances {
		steps = append(steps, sagaStep{
			name: "bind_instances",
			run: func(ctx context.Context) (Result, error) {
				return s.store.RunInTransaction(ctx, func(tx Transaction) error {
					picked := selectFromView(tx.Snapshot(), req.ContainerLotID, req.ContainerCount)
					if len(picked) < req.ContainerCount {
						return domain.NotAvailableError{InstanceID: req.ContainerLotID, Status: domain.InstanceAvailable}
					}
					for _, inst := range picked {
						priorStatus[inst.ID] = inst.Status
						if _, err := assignInstance(tx, inst.ID, UsageRef{
							EntityKind: EntityPreparedSpawn,
							Label:      "prepared spawn batch",
						}, s.clock.Now()); err != nil {
							return err
						}
						boundInstances = append(boundInstances, inst.ID)
					}
					return nil
				})
			},
			compensate: func(ctx context.Context) error {
				_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
					for _, id := range boundInstances {
						if _, err := releaseInstance(tx, id); err != nil {
							return err
						}
						// Release lands on available; instances that were
						// sterilized before binding go back to sterilized.
						if priorStatus[id] != domain.InstanceSterilized {
							continue
						}
						if _, err := tx.UpdateInstance(id, func(i *LabItemInstance) error {
							i.Status = domain.InstanceSterilized
							return nil
						}); err != nil {
							return err
						}
					}
					return nil
				})
				return err
			},
		})
	}

	for _, ing := range req.Ingredients {
		ing := ing
		steps = append(steps, sagaStep{
			name: "decrement_ingredient_" + ing.LotID,
			run: func(ctx context.Context) (Result, error) {
				return s.adjustStep(ctx, ing.LotID, -ing.Quantity, domain.ReasonPreparation, "")
			},
			compensate: func(ctx context.Context) error {
				_, err := s.adjustStep(ctx, ing.LotID, ing.Quantity, domain.ReasonCompensation, "")
				return err
			},
		})
	}

	steps = append(steps, sagaStep{
		name: "create_prepared_spawn",
		run: func(ctx context.Context) (Result, error) {
			return s.store.RunInTransaction(ctx, func(tx Transaction) error {
				view := tx.Snapshot()
				cost := 0.0
				if lot, ok := view.FindLot(req.ContainerLotID); ok {
					cost += float64(req.ContainerCount) * lot.UnitCost
				}
				ingredients := make([]IngredientUsage, 0, len(req.Ingredients))
				for _, ing := range req.Ingredients {
					if ing.UnitCost == 0 {
						if lot, ok := view.FindLot(ing.LotID); ok {
							ing.UnitCost = lot.UnitCost
						}
					}
					cost += ing.Quantity * ing.UnitCost
					ingredients = append(ingredients, ing)
				}
				batch, err := tx.CreatePreparedSpawn(PreparedSpawn{
					Type:            req.Type,
					ContainerLotID:  req.ContainerLotID,
					ContainerCount:  req.ContainerCount,
					Status:          domain.PreparedPreparing,
					InstanceIDs:     boundInstances,
					IngredientsUsed: ingredients,
					ProductionCost:  cost,
				})
				if err != nil {
					return err
				}
				// Bound instances were assigned before the batch ID existed;
				// point their usage refs at the created batch.
				for _, id := range boundInstances {
					if _, err := tx.UpdateInstance(id, func(i *LabItemInstance) error {
						if i.UsageRef != nil {
							i.UsageRef.EntityID = batch.ID
						}
						return nil
					}); err != nil {
						return err
					}
				}
				*created = batch
				return nil
			})
		},
	})

	return s.runSagaSteps(ctx, SagaPrepareSpawn, steps)
}

// InoculateRequest describes the inoculation saga: consume a ready (or
// reserved) prepared batch using an inoculation-eligible source culture and
// create the resulting grain spawn bound into the culture's lineage.
type InoculateRequest struct {
	SourceCultureID string `json:"source_culture_id"`
	PreparedSpawnID string `json:"prepared_spawn_id"`
}

// Inoculate runs the inoculation saga.
func (s *Service) Inoculate(ctx context.Context, req InoculateRequest) (GrainSpawn, Result, error) {
	var created GrainSpawn
	res, err := s.instrument(ctx, SagaInoculate, EntityGrainSpawn, func(ctx context.Context) (string, Result, error) {
		res, err := s.inoculate(ctx, req, &created)
		return created.ID, res, err
	})
	return created, res, err
}

func (s *Service) inoculate(ctx context.Context, req InoculateRequest, created *GrainSpawn) (Result, error) {
	var strainID string
	var priorPreparedStatus domain.PreparedSpawnStatus

	steps := []sagaStep{
		{
			name: "consume_culture",
			run: func(ctx context.Context) (Result, error) {
				return s.store.RunInTransaction(ctx, func(tx Transaction) error {
					culture, err := tx.UpdateCulture(req.SourceCultureID, func(c *Culture) error {
						if c.Status != domain.CultureActive && c.Status != domain.CultureReady {
							return domain.InvalidTransitionError{Entity: EntityCulture, ID: req.SourceCultureID, State: string(c.Status), Event: domain.EventInoculate}
						}
						c.UsageCount++
						return nil
					})
					if err != nil {
						return err
					}
					strainID = culture.StrainID
					return nil
				})
			},
			compensate: func(ctx context.Context) error {
				_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
					_, err := tx.UpdateCulture(req.SourceCultureID, func(c *Culture) error {
						if c.UsageCount > 0 {
							c.UsageCount--
						}
						return nil
					})
					return err
				})
				return err
			},
		},
		{
			name: "consume_prepared_spawn",
			run: func(ctx context.Context) (Result, error) {
				return s.store.RunInTransaction(ctx, func(tx Transaction) error {
					_, err := tx.UpdatePreparedSpawn(req.PreparedSpawnID, func(p *PreparedSpawn) error {
						if p.Status != domain.PreparedReady && p.Status != domain.PreparedReserved {
							return domain.InvalidTransitionError{Entity: EntityPreparedSpawn, ID: req.PreparedSpawnID, State: string(p.Status), Event: domain.EventInoculate}
						}
						priorPreparedStatus = p.Status
						p.Status = domain.PreparedInoculated
						return nil
					})
					return err
				})
			},
			compensate: func(ctx context.Context) error {
				_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
					_, err := tx.UpdatePreparedSpawn(req.PreparedSpawnID, func(p *PreparedSpawn) error {
						p.Status = priorPreparedStatus
						return nil
					})
					return err
				})
				return err
			},
		},
		{
			name: "create_grain_spawn",
			run: func(ctx context.Context) (Result, error) {
				return s.store.RunInTransaction(ctx, func(tx Transaction) error {
					batch, err := tx.CreateGrainSpawn(GrainSpawn{
						SourceCultureID: req.SourceCultureID,
						PreparedSpawnID: req.PreparedSpawnID,
						StrainID:        strainID,
						Status:          domain.GrainInoculated,
						InoculatedAt:    s.clock.Now(),
					})
					if err != nil {
						return err
					}
					*created = batch
					return nil
				})
			},
		},
	}

	return s.runSagaSteps(ctx, SagaInoculate, steps)
}

// SpawnToBulkRequest aggregates fully colonized grain spawn batches of one
// strain into a bulk substrate grow.
type SpawnToBulkRequest struct {
	GrainSpawnIDs   []string `json:"grain_spawn_ids"`
	SubstrateWeight float64  `json:"substrate_weight_g"`
	SpawnWeight     float64  `json:"spawn_weight_g"`
}

// SpawnToBulk runs the spawn-to-bulk saga.
func (s *Service) SpawnToBulk(ctx context.Context, req SpawnToBulkRequest) (Grow, Result, error) {
	var created Grow
	res, err := s.instrument(ctx, SagaSpawnToBulk, EntityGrow, func(ctx context.Context) (string, Result, error) {
		res, err := s.spawnToBulk(ctx, req, &created)
		return created.ID, res, err
	})
	return created, res, err
}

func (s *Service) spawnToBulk(ctx context.Context, req SpawnToBulkRequest, created *Grow) (Result, error) {
	if len(req.GrainSpawnIDs) == 0 {
		return Result{}, fmt.Errorf("spawn to bulk requires at least one grain spawn batch")
	}

	var strainID string
	steps := []sagaStep{
		{
			name: "validate_strains",
			run: func(ctx context.Context) (Result, error) {
				err := s.store.View(ctx, func(view TransactionView) error {
					for _, id := range req.GrainSpawnIDs {
						batch, ok := view.FindGrainSpawn(id)
						if !ok {
							return domain.NotFoundError{Entity: EntityGrainSpawn, ID: id}
						}
						if strainID == "" {
							strainID = batch.StrainID
						} else if batch.StrainID != strainID {
							return fmt.Errorf("grain spawn %s strain %s does not match %s", id, batch.StrainID, strainID)
						}
					}
					return nil
				})
				return Result{}, err
			},
		},
	}

	for _, id := range req.GrainSpawnIDs {
		id := id
		steps = append(steps, sagaStep{
			name: "spawn_" + id,
			run: func(ctx context.Context) (Result, error) {
				return s.store.RunInTransaction(ctx, func(tx Transaction) error {
					_, err := applyTransition(tx, EntityGrainSpawn, id, domain.EventSpawn)
					return err
				})
			},
			compensate: func(ctx context.Context) error {
				_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
					_, err := tx.UpdateGrainSpawn(id, func(g *GrainSpawn) error {
						g.Status = domain.GrainFullyColonized
						return nil
					})
					return err
				})
				return err
			},
		})
	}

	steps = append(steps, sagaStep{
		name: "create_grow",
		run: func(ctx context.Context) (Result, error) {
			return s.store.RunInTransaction(ctx, func(tx Transaction) error {
				grow, err := tx.CreateGrow(Grow{
					StrainID:        strainID,
					CurrentStage:    domain.GrowSpawning,
					SubstrateWeight: req.SubstrateWeight,
					SpawnWeight:     req.SpawnWeight,
					GrainSpawnIDs:   append([]string(nil), req.GrainSpawnIDs...),
				})
				if err != nil {
					return err
				}
				*created = grow
				return nil
			})
		},
	})

	return s.runSagaSteps(ctx, SagaSpawnToBulk, steps)
}

// RunSaga dispatches a named saga with loosely typed parameters, for callers
// that marshal commands generically. Params round-trip through JSON into the
// saga's request type.
func (s *Service) RunSaga(ctx context.Context, name string, params any) (any, Result, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, Result{}, fmt.Errorf("encode saga params: %w", err)
	}
	switch name {
	case SagaPrepareSpawn:
		var req PrepareSpawnRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, Result{}, fmt.Errorf("decode %s params: %w", name, err)
		}
		return firstValue(s.PrepareSpawn(ctx, req))
	case SagaInoculate:
		var req InoculateRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, Result{}, fmt.Errorf("decode %s params: %w", name, err)
		}
		return firstValue(s.Inoculate(ctx, req))
	case SagaSpawnToBulk:
		var req SpawnToBulkRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, Result{}, fmt.Errorf("decode %s params: %w", name, err)
		}
		return firstValue(s.SpawnToBulk(ctx, req))
	default:
		return nil, Result{}, fmt.Errorf("unknown saga %q", name)
	}
}

func firstValue[T any](v T, res Result, err error) (any, Result, error) {
	return v, res, err
}
