package domain_test

import (
	"testing"

	"mycocore/pkg/domain"
)

func TestMachineOrdinaryPaths(t *testing.T) {
	cases := []struct {
		kind  domain.EntityType
		from  string
		event domain.Event
		want  string
	}{
		{domain.EntityCulture, string(domain.CultureColonizing), domain.EventActivate, string(domain.CultureActive)},
		{domain.EntityCulture, string(domain.CultureActive), domain.EventMature, string(domain.CultureReady)},
		{domain.EntityPreparedSpawn, string(domain.PreparedPreparing), domain.EventSterilize, string(domain.PreparedSterilizing)},
		{domain.EntityPreparedSpawn, string(domain.PreparedSterilizing), domain.EventCool, string(domain.PreparedCooling)},
		{domain.EntityPreparedSpawn, string(domain.PreparedCooling), domain.EventFinish, string(domain.PreparedReady)},
		{domain.EntityPreparedSpawn, string(domain.PreparedReady), domain.EventReserve, string(domain.PreparedReserved)},
		{domain.EntityPreparedSpawn, string(domain.PreparedReady), domain.EventInoculate, string(domain.PreparedInoculated)},
		{domain.EntityPreparedSpawn, string(domain.PreparedReserved), domain.EventInoculate, string(domain.PreparedInoculated)},
		{domain.EntityGrainSpawn, string(domain.GrainInoculated), domain.EventColonize, string(domain.GrainColonizing)},
		{domain.EntityGrainSpawn, string(domain.GrainColonizing), domain.EventReadyToShake, string(domain.GrainShakeReady)},
		{domain.EntityGrainSpawn, string(domain.GrainShakeReady), domain.EventShake, string(domain.GrainShaken)},
		{domain.EntityGrainSpawn, string(domain.GrainShaken), domain.EventSettle, string(domain.GrainShakeReady)},
		{domain.EntityGrainSpawn, string(domain.GrainShaken), domain.EventComplete, string(domain.GrainFullyColonized)},
		{domain.EntityGrainSpawn, string(domain.GrainShakeReady), domain.EventComplete, string(domain.GrainFullyColonized)},
		{domain.EntityGrainSpawn, string(domain.GrainFullyColonized), domain.EventSpawn, string(domain.GrainSpawnedToBulk)},
		{domain.EntityGrow, string(domain.GrowSpawning), domain.EventBeginColonization, string(domain.GrowColonization)},
		{domain.EntityGrow, string(domain.GrowColonization), domain.EventFruit, string(domain.GrowFruiting)},
		{domain.EntityGrow, string(domain.GrowFruiting), domain.EventHarvest, string(domain.GrowHarvesting)},
		{domain.EntityGrow, string(domain.GrowHarvesting), domain.EventFinishGrow, string(domain.GrowCompleted)},
	}

	for _, tc := range cases {
		machine, ok := domain.MachineFor(tc.kind)
		if !ok {
			t.Fatalf("no machine for %s", tc.kind)
		}
		got, ok := machine.Next(tc.from, tc.event)
		if !ok {
			t.Fatalf("%s: %s + %s rejected, want %s", tc.kind, tc.from, tc.event, tc.want)
		}
		if got != tc.want {
			t.Fatalf("%s: %s + %s = %s, want %s", tc.kind, tc.from, tc.event, got, tc.want)
		}
	}
}

func TestShortCircuitAcceptedFromEveryNonTerminalState(t *testing.T) {
	kinds := []domain.EntityType{
		domain.EntityCulture, domain.EntityPreparedSpawn,
		domain.EntityGrainSpawn, domain.EntityGrow,
	}
	shortCircuits := map[domain.EntityType][]domain.Event{
		domain.EntityCulture:       {domain.EventContaminate, domain.EventArchive, domain.EventDeplete},
		domain.EntityPreparedSpawn: {domain.EventContaminate, domain.EventExpire},
		domain.EntityGrainSpawn:    {domain.EventContaminate, domain.EventStall, domain.EventExpire},
		domain.EntityGrow:          {domain.EventContaminate, domain.EventAbort},
	}

	for _, kind := range kinds {
		machine, _ := domain.MachineFor(kind)
		for state := range machine.States() {
			for _, event := range shortCircuits[kind] {
				next, ok := machine.Next(state, event)
				if machine.IsTerminal(state) {
					if ok {
						t.Fatalf("%s: terminal %s accepted %s", kind, state, event)
					}
					continue
				}
				if !ok {
					// Self-transitions are rejected rather than no-opped.
					if target, has := machine.ShortCircuit[event]; has && target == state {
						continue
					}
					t.Fatalf("%s: non-terminal %s rejected short-circuit %s", kind, state, event)
				}
				if next == state {
					t.Fatalf("%s: %s + %s produced a self-transition", kind, state, event)
				}
			}
		}
	}
}

func TestTerminalStatesRejectEveryEvent(t *testing.T) {
	allEvents := []domain.Event{
		domain.EventActivate, domain.EventMature, domain.EventArchive, domain.EventDeplete,
		domain.EventSterilize, domain.EventCool, domain.EventFinish, domain.EventReserve, domain.EventInoculate,
		domain.EventColonize, domain.EventReadyToShake, domain.EventShake, domain.EventSettle,
		domain.EventComplete, domain.EventSpawn, domain.EventStall,
		domain.EventBeginColonization, domain.EventFruit, domain.EventHarvest, domain.EventFinishGrow,
		domain.EventAbort, domain.EventContaminate, domain.EventExpire,
	}
	kinds := []domain.EntityType{
		domain.EntityCulture, domain.EntityPreparedSpawn,
		domain.EntityGrainSpawn, domain.EntityGrow,
	}
	for _, kind := range kinds {
		machine, _ := domain.MachineFor(kind)
		for state := range machine.Terminal {
			for _, event := range allEvents {
				if _, ok := machine.Next(state, event); ok {
					t.Fatalf("%s: terminal state %s accepted %s", kind, state, event)
				}
			}
		}
	}
}

func TestGrainSpawnFailureStatesStayMovable(t *testing.T) {
	machine, _ := domain.MachineFor(domain.EntityGrainSpawn)

	// Only spawned_to_bulk is terminal; contaminated, stalled and expired
	// batches can still be reclassified between failure states.
	if !machine.IsTerminal(string(domain.GrainSpawnedToBulk)) {
		t.Fatalf("spawned_to_bulk should be terminal")
	}
	for _, state := range []domain.GrainSpawnStatus{
		domain.GrainContaminated, domain.GrainStalled, domain.GrainExpired,
	} {
		if machine.IsTerminal(string(state)) {
			t.Fatalf("%s should not be terminal", state)
		}
	}
	if next, ok := machine.Next(string(domain.GrainStalled), domain.EventContaminate); !ok || next != string(domain.GrainContaminated) {
		t.Fatalf("stalled + contaminate = (%s, %v), want contaminated", next, ok)
	}
}

func TestMachineForUnknownKind(t *testing.T) {
	if _, ok := domain.MachineFor(domain.EntityLot); ok {
		t.Fatalf("inventory lots have no lifecycle machine")
	}
}
