// Package canvas implements the interaction core of the editor: the mode
// state machine, the event dispatch bus, the selection subsystem and the
// snapshot-based transform engine. Everything here is single-goroutine,
// UI-thread-bound; failures degrade to "no visible change this tick".
package canvas

// ModeDescriptor declares one interaction mode: its allowed outgoing
// transitions, the side-effect tags run on entry/exit, the toggle fallback
// (press the tool key again to leave the tool) and the resource set mounted
// while the mode is active.
type ModeDescriptor struct {
	ID          string
	Description string

	// Transitions lists the reachable mode ids. Wildcard accepts any
	// outgoing mode instead.
	Transitions []string
	Wildcard    bool

	// ToggleTo, when set, is the mode entered when the active mode is
	// requested again.
	ToggleTo string

	EntryActions []string
	ExitActions  []string

	// Resources names the pointer handlers/overlays live in this mode.
	Resources []string
}

// PointerHandler is a tool's pointer-event handler, invoked by the dispatch
// layer while the tool's mode is active.
type PointerHandler func(*Event)

// ModeRegistry is the runtime-populated table of registered modes. Tools may
// register at any time; resolution of an unregistered id falls back to a
// default descriptor so the UI never crashes on a future or removed tool id.
type ModeRegistry struct {
	descriptors map[string]ModeDescriptor
	handlers    map[string]PointerHandler
}

func NewModeRegistry() *ModeRegistry {
	return &ModeRegistry{
		descriptors: make(map[string]ModeDescriptor),
		handlers:    make(map[string]PointerHandler),
	}
}

// Register adds or replaces a mode. The handler may be nil for modes that
// only contribute overlays.
func (r *ModeRegistry) Register(desc ModeDescriptor, handler PointerHandler) {
	r.descriptors[desc.ID] = desc
	if handler != nil {
		r.handlers[desc.ID] = handler
	} else {
		delete(r.handlers, desc.ID)
	}
}

// Known reports whether the id has been registered.
func (r *ModeRegistry) Known(id string) bool {
	_, ok := r.descriptors[id]
	return ok
}

// Resolve returns the descriptor for a mode id. Unknown ids resolve to a
// default descriptor whose only resource is the id itself.
func (r *ModeRegistry) Resolve(id string) ModeDescriptor {
	if desc, ok := r.descriptors[id]; ok {
		return desc
	}
	return ModeDescriptor{ID: id, Resources: []string{id}}
}

// Handler returns the pointer handler for a mode, or nil.
func (r *ModeRegistry) Handler(id string) PointerHandler {
	return r.handlers[id]
}

// TransitionReason explains a transition result.
type TransitionReason string

const (
	ReasonSwitched TransitionReason = "switched"
	ReasonToggled  TransitionReason = "toggled"
	ReasonNoop     TransitionReason = "noop"
	ReasonDenied   TransitionReason = "denied"
)

// TransitionResult reports the outcome of a transition request. Denied
// transitions are data, not errors.
type TransitionResult struct {
	Changed bool
	Mode    string
	Actions []string
	Reason  TransitionReason
}

// Machine is the single source of truth for which mode is active. The active
// mode is mutated only through Transition.
type Machine struct {
	registry *ModeRegistry
	current  string

	// globalActions run on every allowed switch, between the old mode's
	// exit tags and the new mode's entry tags.
	globalActions []string
}

func NewMachine(registry *ModeRegistry, initial string, globalActions ...string) *Machine {
	return &Machine{
		registry:      registry,
		current:       initial,
		globalActions: globalActions,
	}
}

// Current returns the active mode id.
func (m *Machine) Current() string { return m.current }

// ActiveResources resolves the resource set of the active mode.
func (m *Machine) ActiveResources() []string {
	return m.registry.Resolve(m.current).Resources
}

// Transition requests a mode switch and returns what happened. The caller is
// responsible for executing the returned action tags against live state, in
// order.
func (m *Machine) Transition(requested string) TransitionResult {
	cur := m.registry.Resolve(m.current)

	if requested == m.current {
		if cur.ToggleTo == "" || cur.ToggleTo == m.current {
			return TransitionResult{Mode: m.current, Reason: ReasonNoop}
		}
		return m.switchTo(cur, cur.ToggleTo, ReasonToggled)
	}

	if !cur.Wildcard && !contains(cur.Transitions, requested) {
		return TransitionResult{Mode: m.current, Reason: ReasonDenied}
	}

	return m.switchTo(cur, requested, ReasonSwitched)
}

func (m *Machine) switchTo(from ModeDescriptor, to string, reason TransitionReason) TransitionResult {
	next := m.registry.Resolve(to)

	actions := make([]string, 0, len(from.ExitActions)+len(m.globalActions)+len(next.EntryActions))
	actions = append(actions, from.ExitActions...)
	actions = append(actions, m.globalActions...)
	actions = append(actions, next.EntryActions...)

	m.current = to
	return TransitionResult{
		Changed: true,
		Mode:    to,
		Actions: actions,
		Reason:  reason,
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
