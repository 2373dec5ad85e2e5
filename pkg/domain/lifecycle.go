package domain

// Event names a lifecycle transition request applied to a stateful entity.
type Event string

// Lifecycle events across the four machines. Short-circuit events (contaminate,
// stall, expire, archive, deplete, abort) are accepted from any non-terminal
// state; all other events move along the machine's ordinary path.
const (
	// culture
	EventActivate Event = "activate"
	EventMature   Event = "mature"
	EventArchive  Event = "archive"
	EventDeplete  Event = "deplete"
	// prepared spawn
	EventSterilize Event = "sterilize"
	EventCool      Event = "cool"
	EventFinish    Event = "finish"
	EventReserve   Event = "reserve"
	EventInoculate Event = "inoculate"
	// grain spawn
	EventColonize     Event = "colonize"
	EventReadyToShake Event = "ready_to_shake"
	EventShake        Event = "shake"
	EventSettle       Event = "settle"
	EventComplete     Event = "complete"
	EventSpawn        Event = "spawn"
	EventStall        Event = "stall"
	// grow
	EventBeginColonization Event = "begin_colonization"
	EventFruit             Event = "fruit"
	EventHarvest           Event = "harvest"
	EventFinishGrow        Event = "finish_grow"
	EventAbort             Event = "abort"
	// shared
	EventContaminate Event = "contaminate"
	EventExpire      Event = "expire"
)

// Machine is a lifecycle transition table for one entity kind. Transitions
// holds the ordinary (state, event) -> state edges; ShortCircuit holds events
// legal from every non-terminal state, modelling irrecoverable-failure and
// retirement paths that skip intermediate states.
type Machine struct {
	Entity       EntityType
	Initial      string
	Terminal     map[string]struct{}
	Transitions  map[string]map[Event]string
	ShortCircuit map[Event]string
}

// IsTerminal reports whether no event is accepted in the given state.
func (m Machine) IsTerminal(state string) bool {
	_, ok := m.Terminal[state]
	return ok
}

// Next resolves the target state for an event. The second return is false for
// an illegal pair; callers translate that into InvalidTransitionError and
// perform no mutation.
func (m Machine) Next(state string, event Event) (string, bool) {
	if m.IsTerminal(state) {
		return "", false
	}
	if next, ok := m.Transitions[state][event]; ok {
		return next, true
	}
	if target, ok := m.ShortCircuit[event]; ok && target != state {
		return target, true
	}
	return "", false
}

// States returns the set of states named anywhere in the machine.
func (m Machine) States() map[string]struct{} {
	out := map[string]struct{}{m.Initial: {}}
	for state, edges := range m.Transitions {
		out[state] = struct{}{}
		for _, next := range edges {
			out[next] = struct{}{}
		}
	}
	for _, target := range m.ShortCircuit {
		out[target] = struct{}{}
	}
	for state := range m.Terminal {
		out[state] = struct{}{}
	}
	return out
}

var cultureMachine = Machine{
	Entity:  EntityCulture,
	Initial: string(CultureColonizing),
	Terminal: map[string]struct{}{
		string(CultureArchived): {},
		string(CultureDepleted): {},
	},
	Transitions: map[string]map[Event]string{
		string(CultureColonizing): {EventActivate: string(CultureActive)},
		string(CultureActive):     {EventMature: string(CultureReady)},
	},
	ShortCircuit: map[Event]string{
		EventContaminate: string(CultureContaminated),
		EventArchive:     string(CultureArchived),
		EventDeplete:     string(CultureDepleted),
	},
}

var preparedSpawnMachine = Machine{
	Entity:  EntityPreparedSpawn,
	Initial: string(PreparedPreparing),
	Terminal: map[string]struct{}{
		string(PreparedInoculated):   {},
		string(PreparedContaminated): {},
		string(PreparedExpired):      {},
	},
	Transitions: map[string]map[Event]string{
		string(PreparedPreparing):   {EventSterilize: string(PreparedSterilizing)},
		string(PreparedSterilizing): {EventCool: string(PreparedCooling)},
		string(PreparedCooling):     {EventFinish: string(PreparedReady)},
		string(PreparedReady): {
			EventReserve:   string(PreparedReserved),
			EventInoculate: string(PreparedInoculated),
		},
		string(PreparedReserved): {EventInoculate: string(PreparedInoculated)},
	},
	ShortCircuit: map[Event]string{
		EventContaminate: string(PreparedContaminated),
		EventExpire:      string(PreparedExpired),
	},
}

var grainSpawnMachine = Machine{
	Entity:  EntityGrainSpawn,
	Initial: string(GrainInoculated),
	// spawned_to_bulk is the only state with no exit; contaminated, stalled
	// and expired batches may still be moved between failure states.
	Terminal: map[string]struct{}{
		string(GrainSpawnedToBulk): {},
	},
	Transitions: map[string]map[Event]string{
		string(GrainInoculated): {EventColonize: string(GrainColonizing)},
		string(GrainColonizing): {EventReadyToShake: string(GrainShakeReady)},
		string(GrainShakeReady): {
			EventShake:    string(GrainShaken),
			EventComplete: string(GrainFullyColonized),
		},
		string(GrainShaken): {
			EventSettle:   string(GrainShakeReady),
			EventComplete: string(GrainFullyColonized),
		},
		string(GrainFullyColonized): {EventSpawn: string(GrainSpawnedToBulk)},
	},
	ShortCircuit: map[Event]string{
		EventContaminate: string(GrainContaminated),
		EventStall:       string(GrainStalled),
		EventExpire:      string(GrainExpired),
	},
}

var growMachine = Machine{
	Entity:  EntityGrow,
	Initial: string(GrowSpawning),
	Terminal: map[string]struct{}{
		string(GrowCompleted):    {},
		string(GrowContaminated): {},
		string(GrowAborted):      {},
	},
	Transitions: map[string]map[Event]string{
		string(GrowSpawning):     {EventBeginColonization: string(GrowColonization)},
		string(GrowColonization): {EventFruit: string(GrowFruiting)},
		string(GrowFruiting):     {EventHarvest: string(GrowHarvesting)},
		string(GrowHarvesting):   {EventFinishGrow: string(GrowCompleted)},
	},
	ShortCircuit: map[Event]string{
		EventContaminate: string(GrowContaminated),
		EventAbort:       string(GrowAborted),
	},
}

var machines = map[EntityType]Machine{
	EntityCulture:       cultureMachine,
	EntityPreparedSpawn: preparedSpawnMachine,
	EntityGrainSpawn:    grainSpawnMachine,
	EntityGrow:          growMachine,
}

// MachineFor returns the lifecycle table for a stateful entity kind.
func MachineFor(kind EntityType) (Machine, bool) {
	m, ok := machines[kind]
	return m, ok
}
