// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"mycocore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Item aliases domain.Item for in-memory persistence operations.
	Item = domain.Item
	// Strain aliases domain.Strain.
	Strain = domain.Strain
	// InventoryLot aliases domain.InventoryLot.
	InventoryLot = domain.InventoryLot
	// LabItemInstance aliases domain.LabItemInstance.
	LabItemInstance = domain.LabItemInstance
	// Culture aliases domain.Culture.
	Culture = domain.Culture
	// PreparedSpawn aliases domain.PreparedSpawn.
	PreparedSpawn = domain.PreparedSpawn
	// GrainSpawn aliases domain.GrainSpawn.
	GrainSpawn = domain.GrainSpawn
	// Grow aliases domain.Grow.
	Grow = domain.Grow
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	items     map[string]Item
	strains   map[string]Strain
	lots      map[string]InventoryLot
	instances map[string]LabItemInstance
	cultures  map[string]Culture
	prepared  map[string]PreparedSpawn
	grain     map[string]GrainSpawn
	grows     map[string]Grow
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Items     map[string]Item            `json:"items"`
	Strains   map[string]Strain          `json:"strains"`
	Lots      map[string]InventoryLot    `json:"lots"`
	Instances map[string]LabItemInstance `json:"instances"`
	Cultures  map[string]Culture         `json:"cultures"`
	Prepared  map[string]PreparedSpawn   `json:"prepared_spawn"`
	Grain     map[string]GrainSpawn      `json:"grain_spawn"`
	Grows     map[string]Grow            `json:"grows"`
}

func newMemoryState() memoryState {
	return memoryState{
		items:     make(map[string]Item),
		strains:   make(map[string]Strain),
		lots:      make(map[string]InventoryLot),
		instances: make(map[string]LabItemInstance),
		cultures:  make(map[string]Culture),
		prepared:  make(map[string]PreparedSpawn),
		grain:     make(map[string]GrainSpawn),
		grows:     make(map[string]Grow),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.items {
		cloned.items[k] = cloneItem(v)
	}
	for k, v := range s.strains {
		cloned.strains[k] = cloneStrain(v)
	}
	for k, v := range s.lots {
		cloned.lots[k] = cloneLot(v)
	}
	for k, v := range s.instances {
		cloned.instances[k] = cloneInstance(v)
	}
	for k, v := range s.cultures {
		cloned.cultures[k] = cloneCulture(v)
	}
	for k, v := range s.prepared {
		cloned.prepared[k] = clonePrepared(v)
	}
	for k, v := range s.grain {
		cloned.grain[k] = cloneGrain(v)
	}
	for k, v := range s.grows {
		cloned.grows[k] = cloneGrow(v)
	}
	return cloned
}

func cloneItem(i Item) Item {
	cp := i
	if i.Traits.Container != nil {
		c := *i.Traits.Container
		cp.Traits.Container = &c
	}
	if i.Traits.Equipment != nil {
		e := *i.Traits.Equipment
		cp.Traits.Equipment = &e
	}
	if i.Traits.Consumable != nil {
		c := *i.Traits.Consumable
		cp.Traits.Consumable = &c
	}
	return cp
}

func cloneStrain(s Strain) Strain { return s }

func cloneLot(l InventoryLot) InventoryLot {
	cp := l
	cp.Adjustments = append([]domain.LotAdjustment(nil), l.Adjustments...)
	return cp
}

func cloneInstance(i LabItemInstance) LabItemInstance {
	cp := i
	if i.UsageRef != nil {
		ref := *i.UsageRef
		cp.UsageRef = &ref
	}
	cp.LastUsedAt = cloneTime(i.LastUsedAt)
	cp.LastSterilizedAt = cloneTime(i.LastSterilizedAt)
	return cp
}

func cloneCulture(c Culture) Culture {
	cp := c
	if c.ParentID != nil {
		parent := *c.ParentID
		cp.ParentID = &parent
	}
	cp.PreparedAt = cloneTime(c.PreparedAt)
	cp.SterilizedAt = cloneTime(c.SterilizedAt)
	cp.ReceivedAt = cloneTime(c.ReceivedAt)
	return cp
}

func clonePrepared(p PreparedSpawn) PreparedSpawn {
	cp := p
	cp.InstanceIDs = append([]string(nil), p.InstanceIDs...)
	cp.IngredientsUsed = append([]domain.IngredientUsage(nil), p.IngredientsUsed...)
	return cp
}

func cloneGrain(g GrainSpawn) GrainSpawn { return g }

func cloneGrow(g Grow) Grow {
	cp := g
	cp.GrainSpawnIDs = append([]string(nil), g.GrainSpawnIDs...)
	cp.Flushes = append([]domain.Flush(nil), g.Flushes...)
	return cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the store clock, primarily for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState returns a deep-copied snapshot of committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces committed state from a snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}

func snapshotFromState(state memoryState) Snapshot {
	out := Snapshot{
		Items:     make(map[string]Item, len(state.items)),
		Strains:   make(map[string]Strain, len(state.strains)),
		Lots:      make(map[string]InventoryLot, len(state.lots)),
		Instances: make(map[string]LabItemInstance, len(state.instances)),
		Cultures:  make(map[string]Culture, len(state.cultures)),
		Prepared:  make(map[string]PreparedSpawn, len(state.prepared)),
		Grain:     make(map[string]GrainSpawn, len(state.grain)),
		Grows:     make(map[string]Grow, len(state.grows)),
	}
	for k, v := range state.items {
		out.Items[k] = cloneItem(v)
	}
	for k, v := range state.strains {
		out.Strains[k] = cloneStrain(v)
	}
	for k, v := range state.lots {
		out.Lots[k] = cloneLot(v)
	}
	for k, v := range state.instances {
		out.Instances[k] = cloneInstance(v)
	}
	for k, v := range state.cultures {
		out.Cultures[k] = cloneCulture(v)
	}
	for k, v := range state.prepared {
		out.Prepared[k] = clonePrepared(v)
	}
	for k, v := range state.grain {
		out.Grain[k] = cloneGrain(v)
	}
	for k, v := range state.grows {
		out.Grows[k] = cloneGrow(v)
	}
	return out
}

func stateFromSnapshot(snapshot Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range snapshot.Items {
		state.items[k] = cloneItem(v)
	}
	for k, v := range snapshot.Strains {
		state.strains[k] = cloneStrain(v)
	}
	for k, v := range snapshot.Lots {
		state.lots[k] = cloneLot(v)
	}
	for k, v := range snapshot.Instances {
		state.instances[k] = cloneInstance(v)
	}
	for k, v := range snapshot.Cultures {
		state.cultures[k] = cloneCulture(v)
	}
	for k, v := range snapshot.Prepared {
		state.prepared[k] = clonePrepared(v)
	}
	for k, v := range snapshot.Grain {
		state.grain[k] = cloneGrain(v)
	}
	for k, v := range snapshot.Grows {
		state.grows[k] = cloneGrow(v)
	}
	return state
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

var _ domain.Transaction = (*transaction)(nil)

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) transactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The store mutex serializes writers; a returned error discards the copy.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateItem stores a new catalog item within the transaction.
func (tx *transaction) CreateItem(i Item) (Item, error) {
	if i.ID == "" {
		i.ID = tx.store.newID()
	}
	if _, exists := tx.state.items[i.ID]; exists {
		return Item{}, fmt.Errorf("item %q already exists", i.ID)
	}
	i.CreatedAt = tx.now
	i.UpdatedAt = tx.now
	tx.state.items[i.ID] = cloneItem(i)
	tx.recordChange(Change{Entity: domain.EntityItem, Action: domain.ActionCreate, After: cloneItem(i)})
	return cloneItem(i), nil
}

// UpdateItem mutates a catalog item using the provided mutator function.
func (tx *transaction) UpdateItem(id string, mutator func(*Item) error) (Item, error) {
	current, ok := tx.state.items[id]
	if !ok {
		return Item{}, domain.NotFoundError{Entity: domain.EntityItem, ID: id}
	}
	before := cloneItem(current)
	if err := mutator(&current); err != nil {
		return Item{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.items[id] = cloneItem(current)
	tx.recordChange(Change{Entity: domain.EntityItem, Action: domain.ActionUpdate, Before: before, After: cloneItem(current)})
	return cloneItem(current), nil
}

// CreateStrain stores a new strain record.
func (tx *transaction) CreateStrain(st Strain) (Strain, error) {
	if st.ID == "" {
		st.ID = tx.store.newID()
	}
	if _, exists := tx.state.strains[st.ID]; exists {
		return Strain{}, fmt.Errorf("strain %q already exists", st.ID)
	}
	st.CreatedAt = tx.now
	st.UpdatedAt = tx.now
	tx.state.strains[st.ID] = cloneStrain(st)
	tx.recordChange(Change{Entity: domain.EntityStrain, Action: domain.ActionCreate, After: cloneStrain(st)})
	return cloneStrain(st), nil
}

// UpdateStrain mutates a strain record.
func (tx *transaction) UpdateStrain(id string, mutator func(*Strain) error) (Strain, error) {
	current, ok := tx.state.strains[id]
	if !ok {
		return Strain{}, domain.NotFoundError{Entity: domain.EntityStrain, ID: id}
	}
	before := cloneStrain(current)
	if err := mutator(&current); err != nil {
		return Strain{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.strains[id] = cloneStrain(current)
	tx.recordChange(Change{Entity: domain.EntityStrain, Action: domain.ActionUpdate, Before: before, After: cloneStrain(current)})
	return cloneStrain(current), nil
}

// CreateLot stores a new inventory lot.
func (tx *transaction) CreateLot(l InventoryLot) (InventoryLot, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if _, exists := tx.state.lots[l.ID]; exists {
		return InventoryLot{}, fmt.Errorf("lot %q already exists", l.ID)
	}
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	tx.state.lots[l.ID] = cloneLot(l)
	tx.recordChange(Change{Entity: domain.EntityLot, Action: domain.ActionCreate, After: cloneLot(l)})
	return cloneLot(l), nil
}

// UpdateLot mutates an inventory lot.
func (tx *transaction) UpdateLot(id string, mutator func(*InventoryLot) error) (InventoryLot, error) {
	current, ok := tx.state.lots[id]
	if !ok {
		return InventoryLot{}, domain.NotFoundError{Entity: domain.EntityLot, ID: id}
	}
	before := cloneLot(current)
	if err := mutator(&current); err != nil {
		return InventoryLot{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.lots[id] = cloneLot(current)
	tx.recordChange(Change{Entity: domain.EntityLot, Action: domain.ActionUpdate, Before: before, After: cloneLot(current)})
	return cloneLot(current), nil
}

// CreateInstance stores a new lab item instance.
func (tx *transaction) CreateInstance(i LabItemInstance) (LabItemInstance, error) {
	if i.ID == "" {
		i.ID = tx.store.newID()
	}
	if _, exists := tx.state.instances[i.ID]; exists {
		return LabItemInstance{}, fmt.Errorf("instance %q already exists", i.ID)
	}
	i.CreatedAt = tx.now
	i.UpdatedAt = tx.now
	tx.state.instances[i.ID] = cloneInstance(i)
	tx.recordChange(Change{Entity: domain.EntityInstance, Action: domain.ActionCreate, After: cloneInstance(i)})
	return cloneInstance(i), nil
}

// UpdateInstance mutates a lab item instance.
func (tx *transaction) UpdateInstance(id string, mutator func(*LabItemInstance) error) (LabItemInstance, error) {
	current, ok := tx.state.instances[id]
	if !ok {
		return LabItemInstance{}, domain.NotFoundError{Entity: domain.EntityInstance, ID: id}
	}
	before := cloneInstance(current)
	if err := mutator(&current); err != nil {
		return LabItemInstance{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.instances[id] = cloneInstance(current)
	tx.recordChange(Change{Entity: domain.EntityInstance, Action: domain.ActionUpdate, Before: before, After: cloneInstance(current)})
	return cloneInstance(current), nil
}

// DeleteInstance removes an instance record. Used only by saga compensation
// when instance provisioning itself is undone.
func (tx *transaction) DeleteInstance(id string) error {
	current, ok := tx.state.instances[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityInstance, ID: id}
	}
	delete(tx.state.instances, id)
	tx.recordChange(Change{Entity: domain.EntityInstance, Action: domain.ActionDelete, Before: cloneInstance(current)})
	return nil
}

// CreateCulture stores a new culture record.
func (tx *transaction) CreateCulture(c Culture) (Culture, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.cultures[c.ID]; exists {
		return Culture{}, fmt.Errorf("culture %q already exists", c.ID)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.cultures[c.ID] = cloneCulture(c)
	tx.recordChange(Change{Entity: domain.EntityCulture, Action: domain.ActionCreate, After: cloneCulture(c)})
	return cloneCulture(c), nil
}

// UpdateCulture mutates a culture record.
func (tx *transaction) UpdateCulture(id string, mutator func(*Culture) error) (Culture, error) {
	current, ok := tx.state.cultures[id]
	if !ok {
		return Culture{}, domain.NotFoundError{Entity: domain.EntityCulture, ID: id}
	}
	before := cloneCulture(current)
	if err := mutator(&current); err != nil {
		return Culture{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.cultures[id] = cloneCulture(current)
	tx.recordChange(Change{Entity: domain.EntityCulture, Action: domain.ActionUpdate, Before: before, After: cloneCulture(current)})
	return cloneCulture(current), nil
}

// CreatePreparedSpawn stores a prepared spawn batch.
func (tx *transaction) CreatePreparedSpawn(p PreparedSpawn) (PreparedSpawn, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.prepared[p.ID]; exists {
		return PreparedSpawn{}, fmt.Errorf("prepared spawn %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.prepared[p.ID] = clonePrepared(p)
	tx.recordChange(Change{Entity: domain.EntityPreparedSpawn, Action: domain.ActionCreate, After: clonePrepared(p)})
	return clonePrepared(p), nil
}

// UpdatePreparedSpawn mutates a prepared spawn batch.
func (tx *transaction) UpdatePreparedSpawn(id string, mutator func(*PreparedSpawn) error) (PreparedSpawn, error) {
	current, ok := tx.state.prepared[id]
	if !ok {
		return PreparedSpawn{}, domain.NotFoundError{Entity: domain.EntityPreparedSpawn, ID: id}
	}
	before := clonePrepared(current)
	if err := mutator(&current); err != nil {
		return PreparedSpawn{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.prepared[id] = clonePrepared(current)
	tx.recordChange(Change{Entity: domain.EntityPreparedSpawn, Action: domain.ActionUpdate, Before: before, After: clonePrepared(current)})
	return clonePrepared(current), nil
}

// CreateGrainSpawn stores a grain spawn batch.
func (tx *transaction) CreateGrainSpawn(g GrainSpawn) (GrainSpawn, error) {
	if g.ID == "" {
		g.ID = tx.store.newID()
	}
	if _, exists := tx.state.grain[g.ID]; exists {
		return GrainSpawn{}, fmt.Errorf("grain spawn %q already exists", g.ID)
	}
	g.CreatedAt = tx.now
	g.UpdatedAt = tx.now
	tx.state.grain[g.ID] = cloneGrain(g)
	tx.recordChange(Change{Entity: domain.EntityGrainSpawn, Action: domain.ActionCreate, After: cloneGrain(g)})
	return cloneGrain(g), nil
}

// UpdateGrainSpawn mutates a grain spawn batch.
func (tx *transaction) UpdateGrainSpawn(id string, mutator func(*GrainSpawn) error) (GrainSpawn, error) {
	current, ok := tx.state.grain[id]
	if !ok {
		return GrainSpawn{}, domain.NotFoundError{Entity: domain.EntityGrainSpawn, ID: id}
	}
	before := cloneGrain(current)
	if err := mutator(&current); err != nil {
		return GrainSpawn{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.grain[id] = cloneGrain(current)
	tx.recordChange(Change{Entity: domain.EntityGrainSpawn, Action: domain.ActionUpdate, Before: before, After: cloneGrain(current)})
	return cloneGrain(current), nil
}

// CreateGrow stores a grow record.
func (tx *transaction) CreateGrow(g Grow) (Grow, error) {
	if g.ID == "" {
		g.ID = tx.store.newID()
	}
	if _, exists := tx.state.grows[g.ID]; exists {
		return Grow{}, fmt.Errorf("grow %q already exists", g.ID)
	}
	g.CreatedAt = tx.now
	g.UpdatedAt = tx.now
	tx.state.grows[g.ID] = cloneGrow(g)
	tx.recordChange(Change{Entity: domain.EntityGrow, Action: domain.ActionCreate, After: cloneGrow(g)})
	return cloneGrow(g), nil
}

// UpdateGrow mutates a grow record.
func (tx *transaction) UpdateGrow(id string, mutator func(*Grow) error) (Grow, error) {
	current, ok := tx.state.grows[id]
	if !ok {
		return Grow{}, domain.NotFoundError{Entity: domain.EntityGrow, ID: id}
	}
	before := cloneGrow(current)
	if err := mutator(&current); err != nil {
		return Grow{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.grows[id] = cloneGrow(current)
	tx.recordChange(Change{Entity: domain.EntityGrow, Action: domain.ActionUpdate, Before: before, After: cloneGrow(current)})
	return cloneGrow(current), nil
}

// View methods -----------------------------------------------------------------

// ListItems returns all catalog items within the snapshot.
func (v transactionView) ListItems() []Item {
	out := make([]Item, 0, len(v.state.items))
	for _, i := range v.state.items {
		out = append(out, cloneItem(i))
	}
	return out
}

// ListStrains returns all strains within the snapshot.
func (v transactionView) ListStrains() []Strain {
	out := make([]Strain, 0, len(v.state.strains))
	for _, s := range v.state.strains {
		out = append(out, cloneStrain(s))
	}
	return out
}

// ListLots returns all inventory lots within the snapshot.
func (v transactionView) ListLots() []InventoryLot {
	out := make([]InventoryLot, 0, len(v.state.lots))
	for _, l := range v.state.lots {
		out = append(out, cloneLot(l))
	}
	return out
}

// ListInstances returns all lab item instances within the snapshot.
func (v transactionView) ListInstances() []LabItemInstance {
	out := make([]LabItemInstance, 0, len(v.state.instances))
	for _, i := range v.state.instances {
		out = append(out, cloneInstance(i))
	}
	return out
}

// ListCultures returns all cultures within the snapshot.
func (v transactionView) ListCultures() []Culture {
	out := make([]Culture, 0, len(v.state.cultures))
	for _, c := range v.state.cultures {
		out = append(out, cloneCulture(c))
	}
	return out
}

// ListPreparedSpawns returns all prepared spawn batches within the snapshot.
func (v transactionView) ListPreparedSpawns() []PreparedSpawn {
	out := make([]PreparedSpawn, 0, len(v.state.prepared))
	for _, p := range v.state.prepared {
		out = append(out, clonePrepared(p))
	}
	return out
}

// ListGrainSpawns returns all grain spawn batches within the snapshot.
func (v transactionView) ListGrainSpawns() []GrainSpawn {
	out := make([]GrainSpawn, 0, len(v.state.grain))
	for _, g := range v.state.grain {
		out = append(out, cloneGrain(g))
	}
	return out
}

// ListGrows returns all grows within the snapshot.
func (v transactionView) ListGrows() []Grow {
	out := make([]Grow, 0, len(v.state.grows))
	for _, g := range v.state.grows {
		out = append(out, cloneGrow(g))
	}
	return out
}

// FindItem retrieves a catalog item by ID from the snapshot.
func (v transactionView) FindItem(id string) (Item, bool) {
	i, ok := v.state.items[id]
	if !ok {
		return Item{}, false
	}
	return cloneItem(i), true
}

// FindStrain retrieves a strain by ID from the snapshot.
func (v transactionView) FindStrain(id string) (Strain, bool) {
	s, ok := v.state.strains[id]
	if !ok {
		return Strain{}, false
	}
	return cloneStrain(s), true
}

// FindLot retrieves a lot by ID from the snapshot.
func (v transactionView) FindLot(id string) (InventoryLot, bool) {
	l, ok := v.state.lots[id]
	if !ok {
		return InventoryLot{}, false
	}
	return cloneLot(l), true
}

// FindInstance retrieves an instance by ID from the snapshot.
func (v transactionView) FindInstance(id string) (LabItemInstance, bool) {
	i, ok := v.state.instances[id]
	if !ok {
		return LabItemInstance{}, false
	}
	return cloneInstance(i), true
}

// FindCulture retrieves a culture by ID from the snapshot.
func (v transactionView) FindCulture(id string) (Culture, bool) {
	c, ok := v.state.cultures[id]
	if !ok {
		return Culture{}, false
	}
	return cloneCulture(c), true
}

// FindPreparedSpawn retrieves a prepared spawn batch by ID from the snapshot.
func (v transactionView) FindPreparedSpawn(id string) (PreparedSpawn, bool) {
	p, ok := v.state.prepared[id]
	if !ok {
		return PreparedSpawn{}, false
	}
	return clonePrepared(p), true
}

// FindGrainSpawn retrieves a grain spawn batch by ID from the snapshot.
func (v transactionView) FindGrainSpawn(id string) (GrainSpawn, bool) {
	g, ok := v.state.grain[id]
	if !ok {
		return GrainSpawn{}, false
	}
	return cloneGrain(g), true
}

// FindGrow retrieves a grow by ID from the snapshot.
func (v transactionView) FindGrow(id string) (Grow, bool) {
	g, ok := v.state.grows[id]
	if !ok {
		return Grow{}, false
	}
	return cloneGrow(g), true
}

// Read helpers ---------------------------------------------------------------

// GetLot retrieves a lot by ID from committed state.
func (s *Store) GetLot(id string) (InventoryLot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.state.lots[id]
	if !ok {
		return InventoryLot{}, false
	}
	return cloneLot(l), true
}

// ListLots returns all lots from committed state.
func (s *Store) ListLots() []InventoryLot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]InventoryLot, 0, len(s.state.lots))
	for _, l := range s.state.lots {
		out = append(out, cloneLot(l))
	}
	return out
}

// GetInstance retrieves an instance by ID from committed state.
func (s *Store) GetInstance(id string) (LabItemInstance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.state.instances[id]
	if !ok {
		return LabItemInstance{}, false
	}
	return cloneInstance(i), true
}

// ListInstances returns all instances from committed state.
func (s *Store) ListInstances() []LabItemInstance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LabItemInstance, 0, len(s.state.instances))
	for _, i := range s.state.instances {
		out = append(out, cloneInstance(i))
	}
	return out
}

// GetCulture retrieves a culture by ID from committed state.
func (s *Store) GetCulture(id string) (Culture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.cultures[id]
	if !ok {
		return Culture{}, false
	}
	return cloneCulture(c), true
}

// ListCultures returns all cultures from committed state.
func (s *Store) ListCultures() []Culture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Culture, 0, len(s.state.cultures))
	for _, c := range s.state.cultures {
		out = append(out, cloneCulture(c))
	}
	return out
}

// GetPreparedSpawn retrieves a prepared spawn batch from committed state.
func (s *Store) GetPreparedSpawn(id string) (PreparedSpawn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.prepared[id]
	if !ok {
		return PreparedSpawn{}, false
	}
	return clonePrepared(p), true
}

// GetGrainSpawn retrieves a grain spawn batch from committed state.
func (s *Store) GetGrainSpawn(id string) (GrainSpawn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.state.grain[id]
	if !ok {
		return GrainSpawn{}, false
	}
	return cloneGrain(g), true
}

// GetGrow retrieves a grow from committed state.
func (s *Store) GetGrow(id string) (Grow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.state.grows[id]
	if !ok {
		return Grow{}, false
	}
	return cloneGrow(g), true
}

// ListGrows returns all grows from committed state.
func (s *Store) ListGrows() []Grow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Grow, 0, len(s.state.grows))
	for _, g := range s.state.grows {
		out = append(out, cloneGrow(g))
	}
	return out
}
