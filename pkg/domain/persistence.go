package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateItem(Item) (Item, error)
	UpdateItem(id string, mutator func(*Item) error) (Item, error)
	CreateStrain(Strain) (Strain, error)
	UpdateStrain(id string, mutator func(*Strain) error) (Strain, error)
	CreateLot(InventoryLot) (InventoryLot, error)
	UpdateLot(id string, mutator func(*InventoryLot) error) (InventoryLot, error)
	CreateInstance(LabItemInstance) (LabItemInstance, error)
	UpdateInstance(id string, mutator func(*LabItemInstance) error) (LabItemInstance, error)
	CreateCulture(Culture) (Culture, error)
	UpdateCulture(id string, mutator func(*Culture) error) (Culture, error)
	CreatePreparedSpawn(PreparedSpawn) (PreparedSpawn, error)
	UpdatePreparedSpawn(id string, mutator func(*PreparedSpawn) error) (PreparedSpawn, error)
	CreateGrainSpawn(GrainSpawn) (GrainSpawn, error)
	UpdateGrainSpawn(id string, mutator func(*GrainSpawn) error) (GrainSpawn, error)
	CreateGrow(Grow) (Grow, error)
	UpdateGrow(id string, mutator func(*Grow) error) (Grow, error)
	DeleteInstance(id string) error
}

// TransactionView provides read-only access to snapshot data for rules and
// query helpers.
type TransactionView interface {
	ListItems() []Item
	ListStrains() []Strain
	ListLots() []InventoryLot
	ListInstances() []LabItemInstance
	ListCultures() []Culture
	ListPreparedSpawns() []PreparedSpawn
	ListGrainSpawns() []GrainSpawn
	ListGrows() []Grow
	FindItem(id string) (Item, bool)
	FindStrain(id string) (Strain, bool)
	FindLot(id string) (InventoryLot, bool)
	FindInstance(id string) (LabItemInstance, bool)
	FindCulture(id string) (Culture, bool)
	FindPreparedSpawn(id string) (PreparedSpawn, bool)
	FindGrainSpawn(id string) (GrainSpawn, bool)
	FindGrow(id string) (Grow, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetLot(id string) (InventoryLot, bool)
	ListLots() []InventoryLot
	GetInstance(id string) (LabItemInstance, bool)
	ListInstances() []LabItemInstance
	GetCulture(id string) (Culture, bool)
	ListCultures() []Culture
	GetPreparedSpawn(id string) (PreparedSpawn, bool)
	GetGrainSpawn(id string) (GrainSpawn, bool)
	GetGrow(id string) (Grow, bool)
	ListGrows() []Grow
}
