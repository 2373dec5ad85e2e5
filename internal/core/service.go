// Package core implements the resource lifecycle and inventory allocation
// engine: the quantity ledger, instance registry, lineage graph, entity
// lifecycle machines, and the saga orchestrator that composes them.
package core

import (
	"context"

	"mycocore/internal/infra/persistence/memory"
	"mycocore/pkg/domain"
)

// Service exposes the transactional operations of the engine. All mutations
// run through the persistent store's rules engine; blocking violations abort
// the commit.
type Service struct {
	store   PersistentStore
	clock   Clock
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		clock:   systemClock{},
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// instrument wraps one service operation with tracing, metrics, audit, and
// logging. fn returns the ID of the principal entity touched.
func (s *Service) instrument(ctx context.Context, op string, entity EntityType, fn func(ctx context.Context) (string, Result, error)) (Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	started := s.clock.Now()
	entityID, res, err := fn(ctx)
	duration := s.clock.Now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)

	status := AuditStatusSuccess
	var errMsg string
	if err != nil {
		status = AuditStatusError
		errMsg = err.Error()
	}
	s.audit.Record(ctx, AuditEntry{
		Operation:  op,
		Entity:     entity,
		EntityID:   entityID,
		Status:     status,
		OccurredAt: s.clock.Now(),
		Violations: res.Violations,
		Error:      errMsg,
	})
	if err != nil {
		s.logger.Error(op+" failed", "entity", string(entity), "id", entityID, "error", err)
	} else {
		s.logger.Debug(op, "entity", string(entity), "id", entityID)
	}
	return res, err
}

// CreateItem persists a new catalog item.
func (s *Service) CreateItem(ctx context.Context, item Item) (Item, Result, error) {
	var created Item
	res, err := s.instrument(ctx, "create_item", EntityItem, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateItem(item)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdateItem mutates a catalog item using the provided mutator.
func (s *Service) UpdateItem(ctx context.Context, id string, mutator func(*Item) error) (Item, Result, error) {
	var updated Item
	res, err := s.instrument(ctx, "update_item", EntityItem, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateItem(id, mutator)
			return err
		})
		return id, res, err
	})
	return updated, res, err
}

// CreateStrain persists a new strain.
func (s *Service) CreateStrain(ctx context.Context, strain Strain) (Strain, Result, error) {
	var created Strain
	res, err := s.instrument(ctx, "create_strain", EntityStrain, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateStrain(strain)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// CreateCulture persists a new culture. An attached parent must already exist;
// generation is forced consistent with the parent pointer.
func (s *Service) CreateCulture(ctx context.Context, culture Culture) (Culture, Result, error) {
	var created Culture
	res, err := s.instrument(ctx, "create_culture", EntityCulture, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if culture.ParentID != nil {
				parent, ok := tx.Snapshot().FindCulture(*culture.ParentID)
				if !ok {
					return domain.NotFoundError{Entity: EntityCulture, ID: *culture.ParentID}
				}
				culture.Generation = parent.Generation + 1
			} else {
				culture.Generation = 0
			}
			var err error
			created, err = tx.CreateCulture(culture)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// CreateGrow persists a new grow record.
func (s *Service) CreateGrow(ctx context.Context, grow Grow) (Grow, Result, error) {
	var created Grow
	res, err := s.instrument(ctx, "create_grow", EntityGrow, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateGrow(grow)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// GetLot retrieves a lot by ID.
func (s *Service) GetLot(id string) (InventoryLot, bool) { return s.store.GetLot(id) }

// ListLots returns all lots.
func (s *Service) ListLots() []InventoryLot { return s.store.ListLots() }

// GetInstance retrieves an instance by ID.
func (s *Service) GetInstance(id string) (LabItemInstance, bool) { return s.store.GetInstance(id) }

// ListInstances returns all instances.
func (s *Service) ListInstances() []LabItemInstance { return s.store.ListInstances() }

// GetCulture retrieves a culture by ID.
func (s *Service) GetCulture(id string) (Culture, bool) { return s.store.GetCulture(id) }

// ListCultures returns all cultures.
func (s *Service) ListCultures() []Culture { return s.store.ListCultures() }

// GetPreparedSpawn retrieves a prepared spawn batch by ID.
func (s *Service) GetPreparedSpawn(id string) (PreparedSpawn, bool) {
	return s.store.GetPreparedSpawn(id)
}

// GetGrainSpawn retrieves a grain spawn batch by ID.
func (s *Service) GetGrainSpawn(id string) (GrainSpawn, bool) { return s.store.GetGrainSpawn(id) }

// GetGrow retrieves a grow by ID.
func (s *Service) GetGrow(id string) (Grow, bool) { return s.store.GetGrow(id) }

// ListGrows returns all grows.
func (s *Service) ListGrows() []Grow { return s.store.ListGrows() }
