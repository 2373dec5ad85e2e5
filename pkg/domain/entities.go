// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by mycocore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityItem identifies a catalog item record.
	EntityItem EntityType = "item"
	// EntityStrain identifies a strain record.
	EntityStrain EntityType = "strain"
	// EntityLot identifies an inventory lot record.
	EntityLot EntityType = "inventory_lot"
	// EntityInstance identifies a lab item instance record.
	EntityInstance EntityType = "lab_item_instance"
	// EntityCulture identifies a culture record.
	EntityCulture EntityType = "culture"
	// EntityPreparedSpawn identifies a prepared spawn batch record.
	EntityPreparedSpawn EntityType = "prepared_spawn"
	// EntityGrainSpawn identifies a grain spawn batch record.
	EntityGrainSpawn EntityType = "grain_spawn"
	// EntityGrow identifies a bulk substrate grow record.
	EntityGrow EntityType = "grow"
)

// LotStatus is derived from a lot's on-hand quantity relative to its reorder point.
type LotStatus string

// Lot statuses. Except for expired, status is a pure function of quantity.
const (
	LotStatusAvailable LotStatus = "available"
	LotStatusLow       LotStatus = "low"
	LotStatusDepleted  LotStatus = "depleted"
	LotStatusExpired   LotStatus = "expired"
)

// InstanceStatus enumerates states of an individually numbered physical unit.
type InstanceStatus string

// Instance statuses. in_use is entered and left only through assign/release;
// disposed is terminal.
const (
	InstanceAvailable  InstanceStatus = "available"
	InstanceInUse      InstanceStatus = "in_use"
	InstanceSterilized InstanceStatus = "sterilized"
	InstanceDirty      InstanceStatus = "dirty"
	InstanceDamaged    InstanceStatus = "damaged"
	InstanceDisposed   InstanceStatus = "disposed"
)

// CultureStatus enumerates culture lifecycle states.
type CultureStatus string

// Canonical culture statuses.
const (
	CultureColonizing   CultureStatus = "colonizing"
	CultureActive       CultureStatus = "active"
	CultureReady        CultureStatus = "ready"
	CultureContaminated CultureStatus = "contaminated"
	CultureArchived     CultureStatus = "archived"
	CultureDepleted     CultureStatus = "depleted"
)

// CultureType distinguishes propagation media.
type CultureType string

// Supported culture types.
const (
	CultureLiquid       CultureType = "liquid_culture"
	CultureAgarPlate    CultureType = "agar_plate"
	CultureSlant        CultureType = "slant"
	CultureSporeSyringe CultureType = "spore_syringe"
)

// AcquisitionMethod records how a culture entered the lab.
type AcquisitionMethod string

// Acquisition methods.
const (
	AcquisitionMade      AcquisitionMethod = "made"
	AcquisitionPurchased AcquisitionMethod = "purchased"
)

// PreparedSpawnStatus enumerates prepared spawn batch states.
type PreparedSpawnStatus string

// Canonical prepared spawn statuses. inoculated is terminal: a batch is
// consumed exactly once.
const (
	PreparedPreparing    PreparedSpawnStatus = "preparing"
	PreparedSterilizing  PreparedSpawnStatus = "sterilizing"
	PreparedCooling      PreparedSpawnStatus = "cooling"
	PreparedReady        PreparedSpawnStatus = "ready"
	PreparedReserved     PreparedSpawnStatus = "reserved"
	PreparedInoculated   PreparedSpawnStatus = "inoculated"
	PreparedContaminated PreparedSpawnStatus = "contaminated"
	PreparedExpired      PreparedSpawnStatus = "expired"
)

// PreparedSpawnType distinguishes container formats for prepared batches.
type PreparedSpawnType string

// Supported prepared spawn container types.
const (
	PreparedGrainJar PreparedSpawnType = "grain_jar"
	PreparedSpawnBag PreparedSpawnType = "spawn_bag"
	PreparedLCJar    PreparedSpawnType = "lc_jar"
)

// GrainSpawnStatus enumerates grain spawn colonization states.
type GrainSpawnStatus string

// Canonical grain spawn statuses. spawned_to_bulk is terminal.
const (
	GrainInoculated     GrainSpawnStatus = "inoculated"
	GrainColonizing     GrainSpawnStatus = "colonizing"
	GrainShakeReady     GrainSpawnStatus = "shake_ready"
	GrainShaken         GrainSpawnStatus = "shaken"
	GrainFullyColonized GrainSpawnStatus = "fully_colonized"
	GrainSpawnedToBulk  GrainSpawnStatus = "spawned_to_bulk"
	GrainContaminated   GrainSpawnStatus = "contaminated"
	GrainStalled        GrainSpawnStatus = "stalled"
	GrainExpired        GrainSpawnStatus = "expired"
)

// WorkflowStage classifies the handling environment a grain spawn batch
// currently requires. It is derived, never stored.
type WorkflowStage string

// Handling environments.
const (
	StageSterile     WorkflowStage = "sterile"
	StageClean       WorkflowStage = "clean"
	StageObservation WorkflowStage = "observation"
)

// GrowStage enumerates bulk substrate grow stages.
type GrowStage string

// Canonical grow stages.
const (
	GrowSpawning     GrowStage = "spawning"
	GrowColonization GrowStage = "colonization"
	GrowFruiting     GrowStage = "fruiting"
	GrowHarvesting   GrowStage = "harvesting"
	GrowCompleted    GrowStage = "completed"
	GrowContaminated GrowStage = "contaminated"
	GrowAborted      GrowStage = "aborted"
)

// ItemKind tags the behavior variant of a catalog item.
type ItemKind string

// Item behavior kinds.
const (
	ItemContainer  ItemKind = "container"
	ItemEquipment  ItemKind = "equipment"
	ItemConsumable ItemKind = "consumable"
)

// AdjustmentReason attributes a ledger adjustment.
type AdjustmentReason string

// Ledger adjustment reason codes.
const (
	ReasonAcquisition  AdjustmentReason = "acquisition"
	ReasonConsumption  AdjustmentReason = "consumption"
	ReasonPreparation  AdjustmentReason = "preparation"
	ReasonInoculation  AdjustmentReason = "inoculation"
	ReasonDisposal     AdjustmentReason = "disposal"
	ReasonCorrection   AdjustmentReason = "correction"
	ReasonCompensation AdjustmentReason = "compensation"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContainerTraits describe a container item (jars, tubs, bags).
type ContainerTraits struct {
	VolumeML     float64 `json:"volume_ml"`
	Reusable     bool    `json:"reusable"`
	Autoclavable bool    `json:"autoclavable"`
}

// EquipmentTraits describe a durable equipment item (tools, flow hoods).
type EquipmentTraits struct {
	RequiresSterilization bool   `json:"requires_sterilization"`
	ServiceIntervalDays   int    `json:"service_interval_days"`
	PowerRating           string `json:"power_rating,omitempty"`
}

// ConsumableTraits describe a consumed-by-quantity item (grain, substrate, agar).
type ConsumableTraits struct {
	ShelfLifeDays int    `json:"shelf_life_days"`
	StorageNotes  string `json:"storage_notes,omitempty"`
}

// ItemTraits is a tagged variant: exactly the field matching Kind is set.
type ItemTraits struct {
	Kind       ItemKind          `json:"kind"`
	Container  *ContainerTraits  `json:"container,omitempty"`
	Equipment  *EquipmentTraits  `json:"equipment,omitempty"`
	Consumable *ConsumableTraits `json:"consumable,omitempty"`
}

// Item is a catalog entry describing a purchasable kind of thing.
type Item struct {
	Base
	Name                string     `json:"name"`
	Unit                string     `json:"unit"`
	Traits              ItemTraits `json:"traits"`
	DefaultReorderPoint float64    `json:"default_reorder_point"`
}

// Strain identifies a cultivated variety of one species.
type Strain struct {
	Base
	Name    string `json:"name"`
	Species string `json:"species"`
}

// LotAdjustment is one attributed entry in a lot's append-only adjustment trail.
type LotAdjustment struct {
	Delta           float64          `json:"delta"`
	Reason          AdjustmentReason `json:"reason"`
	RelatedEntityID string           `json:"related_entity_id,omitempty"`
	AdjustedAt      time.Time        `json:"adjusted_at"`
}

// InventoryLot is a purchased or acquired batch of a catalog item. Quantity is
// mutated only through ledger adjustments; lots are never deleted, only driven
// to depleted or expired.
type InventoryLot struct {
	Base
	ItemID           string          `json:"item_id"`
	Quantity         float64         `json:"quantity"`
	OriginalQuantity float64         `json:"original_quantity"`
	InUseQuantity    float64         `json:"in_use_quantity"`
	DisposedQuantity float64         `json:"disposed_quantity"`
	ReorderPoint     float64         `json:"reorder_point"`
	UnitCost         float64         `json:"unit_cost"`
	PurchaseCost     float64         `json:"purchase_cost"`
	Status           LotStatus       `json:"status"`
	SupplierRef      string          `json:"supplier_ref,omitempty"`
	PurchaseDate     time.Time       `json:"purchase_date"`
	Adjustments      []LotAdjustment `json:"adjustments"`
}

// DeriveLotStatus computes the status implied by quantity and reorder point.
// An expired lot stays expired regardless of quantity.
func DeriveLotStatus(current LotStatus, quantity, reorderPoint float64) LotStatus {
	if current == LotStatusExpired {
		return LotStatusExpired
	}
	switch {
	case quantity == 0:
		return LotStatusDepleted
	case quantity <= reorderPoint:
		return LotStatusLow
	default:
		return LotStatusAvailable
	}
}

// UsageRef names the single active consumer of an in-use instance.
type UsageRef struct {
	EntityKind EntityType `json:"entity_kind"`
	EntityID   string     `json:"entity_id"`
	Label      string     `json:"label,omitempty"`
}

// LabItemInstance is one physically countable unit drawn from a lot.
// UsageRef is present iff Status == in_use.
type LabItemInstance struct {
	Base
	LotID            string         `json:"lot_id"`
	ItemID           string         `json:"item_id"`
	InstanceNumber   int            `json:"instance_number"`
	Status           InstanceStatus `json:"status"`
	UsageRef         *UsageRef      `json:"usage_ref,omitempty"`
	UsageCount       int            `json:"usage_count"`
	LastUsedAt       *time.Time     `json:"last_used_at,omitempty"`
	LastSterilizedAt *time.Time     `json:"last_sterilized_at,omitempty"`
	UnitCost         float64        `json:"unit_cost"`
}

// Culture is a biological propagation unit. Generation is 0 iff ParentID is
// nil; otherwise it equals the parent's generation plus one, and the
// parent/child relation forms a forest.
type Culture struct {
	Base
	Type              CultureType       `json:"type"`
	StrainID          string            `json:"strain_id"`
	Status            CultureStatus     `json:"status"`
	Generation        int               `json:"generation"`
	ParentID          *string           `json:"parent_id,omitempty"`
	ContainerID       string            `json:"container_id,omitempty"`
	LocationID        string            `json:"location_id,omitempty"`
	HealthRating      int               `json:"health_rating"`
	AcquisitionMethod AcquisitionMethod `json:"acquisition_method"`
	// made path
	RecipeRef    string     `json:"recipe_ref,omitempty"`
	PreparedAt   *time.Time `json:"prepared_at,omitempty"`
	SterilizedAt *time.Time `json:"sterilized_at,omitempty"`
	// purchased path
	SupplierRef string     `json:"supplier_ref,omitempty"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`

	UsageCount int `json:"usage_count"`
}

// IngredientUsage records one lot-referenced consumption inside a prepared batch.
type IngredientUsage struct {
	LotID    string  `json:"lot_id"`
	Quantity float64 `json:"quantity"`
	UnitCost float64 `json:"unit_cost"`
}

// PreparedSpawn is a batch of containers prepared but not yet inoculated.
type PreparedSpawn struct {
	Base
	Type            PreparedSpawnType   `json:"type"`
	ContainerLotID  string              `json:"container_lot_id"`
	ContainerCount  int                 `json:"container_count"`
	Status          PreparedSpawnStatus `json:"status"`
	InstanceIDs     []string            `json:"instance_ids,omitempty"`
	IngredientsUsed []IngredientUsage   `json:"ingredients_used"`
	ProductionCost  float64             `json:"production_cost"`
}

// GrainSpawn is colonizing grain derived from a culture and a prepared batch.
type GrainSpawn struct {
	Base
	SourceCultureID      string           `json:"source_culture_id"`
	PreparedSpawnID      string           `json:"prepared_spawn_id"`
	StrainID             string           `json:"strain_id"`
	Status               GrainSpawnStatus `json:"status"`
	ColonizationProgress int              `json:"colonization_progress"`
	ShakeCount           int              `json:"shake_count"`
	InoculatedAt         time.Time        `json:"inoculated_at"`
	// set by a shake event, cleared by the next progress write; permits the
	// one sanctioned non-monotonic progress update
	ProgressResetArmed bool `json:"progress_reset_armed,omitempty"`
}

// Stage derives the handling environment required by the batch's status.
func (g GrainSpawn) Stage() WorkflowStage {
	switch g.Status {
	case GrainInoculated:
		return StageSterile
	case GrainColonizing, GrainShakeReady, GrainShaken:
		return StageClean
	default:
		return StageObservation
	}
}

// Flush is one harvest event on a grow. Flushes are immutable once appended;
// corrections append an adjustment flush rather than editing history.
type Flush struct {
	HarvestedAt  time.Time `json:"harvested_at"`
	WetWeightG   float64   `json:"wet_weight_g"`
	DryWeightG   float64   `json:"dry_weight_g"`
	Notes        string    `json:"notes,omitempty"`
	IsAdjustment bool      `json:"is_adjustment,omitempty"`
}

// Grow is a bulk-substrate fruiting batch aggregated from grain spawn.
type Grow struct {
	Base
	StrainID        string    `json:"strain_id"`
	CurrentStage    GrowStage `json:"current_stage"`
	SubstrateWeight float64   `json:"substrate_weight_g"`
	SpawnWeight     float64   `json:"spawn_weight_g"`
	GrainSpawnIDs   []string  `json:"grain_spawn_ids"`
	Flushes         []Flush   `json:"flushes"`
}

// SpawnRate derives the spawn-to-total ratio. Never stored.
func (g Grow) SpawnRate() float64 {
	total := g.SpawnWeight + g.SubstrateWeight
	if total == 0 {
		return 0
	}
	return g.SpawnWeight / total
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)
