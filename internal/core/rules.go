package core

import "mycocore/pkg/domain"

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set:
// lot conservation, instance exclusivity, lineage integrity, and flush
// immutability.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewLotConservationRule())
	engine.Register(NewInstanceExclusivityRule())
	engine.Register(NewLineageIntegrityRule())
	engine.Register(NewFlushImmutabilityRule())
	return engine
}
