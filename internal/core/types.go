package core

import "mycocore/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Item               = domain.Item
	ItemTraits         = domain.ItemTraits
	Strain             = domain.Strain
	InventoryLot       = domain.InventoryLot
	LotAdjustment      = domain.LotAdjustment
	AdjustmentReason   = domain.AdjustmentReason
	LabItemInstance    = domain.LabItemInstance
	InstanceStatus     = domain.InstanceStatus
	UsageRef           = domain.UsageRef
	Culture            = domain.Culture
	IngredientUsage    = domain.IngredientUsage
	PreparedSpawn      = domain.PreparedSpawn
	GrainSpawn         = domain.GrainSpawn
	Flush              = domain.Flush
	Grow               = domain.Grow
	Event              = domain.Event
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityItem          = domain.EntityItem
	EntityStrain        = domain.EntityStrain
	EntityLot           = domain.EntityLot
	EntityInstance      = domain.EntityInstance
	EntityCulture       = domain.EntityCulture
	EntityPreparedSpawn = domain.EntityPreparedSpawn
	EntityGrainSpawn    = domain.EntityGrainSpawn
	EntityGrow          = domain.EntityGrow
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
