package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorpad/vectorpad/internal/canvas"
)

func newTestRegistry() *canvas.ModeRegistry {
	r := canvas.NewModeRegistry()
	r.Register(canvas.ModeDescriptor{
		ID:           "select",
		Wildcard:     true,
		EntryActions: []string{"enter-select"},
		ExitActions:  []string{"exit-select"},
		Resources:    []string{"select-handler"},
	}, nil)
	r.Register(canvas.ModeDescriptor{
		ID:           "edit",
		Transitions:  []string{"select"},
		EntryActions: []string{"enter-edit"},
		ExitActions:  []string{"exit-edit"},
	}, nil)
	r.Register(canvas.ModeDescriptor{
		ID:          "subpath",
		Transitions: []string{"select", "edit"},
		ToggleTo:    "transformation",
	}, nil)
	r.Register(canvas.ModeDescriptor{
		ID:          "transformation",
		Transitions: []string{"select", "subpath"},
	}, nil)
	return r
}

func TestMachine_WildcardAllowsAnyTarget(t *testing.T) {
	m := canvas.NewMachine(newTestRegistry(), "select")

	res := m.Transition("edit")
	require.True(t, res.Changed)
	assert.Equal(t, "edit", res.Mode)
	assert.Equal(t, canvas.ReasonSwitched, res.Reason)
	assert.Equal(t, "edit", m.Current())
}

func TestMachine_DeniedTransitionKeepsMode(t *testing.T) {
	m := canvas.NewMachine(newTestRegistry(), "edit")

	res := m.Transition("transformation")
	assert.False(t, res.Changed)
	assert.Equal(t, canvas.ReasonDenied, res.Reason)
	assert.Equal(t, "edit", res.Mode)
	assert.Equal(t, "edit", m.Current())
	assert.Empty(t, res.Actions)
}

func TestMachine_SameModeWithoutToggleIsNoop(t *testing.T) {
	m := canvas.NewMachine(newTestRegistry(), "edit")

	res := m.Transition("edit")
	assert.False(t, res.Changed)
	assert.Equal(t, canvas.ReasonNoop, res.Reason)
	assert.Equal(t, "edit", m.Current())
}

func TestMachine_ToggleFallback(t *testing.T) {
	m := canvas.NewMachine(newTestRegistry(), "subpath")

	res := m.Transition("subpath")
	require.True(t, res.Changed)
	assert.Equal(t, canvas.ReasonToggled, res.Reason)
	assert.Equal(t, "transformation", res.Mode)
	assert.Equal(t, "transformation", m.Current())
}

func TestMachine_ActionOrderExitGlobalEntry(t *testing.T) {
	m := canvas.NewMachine(newTestRegistry(), "select", "global-1", "global-2")

	res := m.Transition("edit")
	require.True(t, res.Changed)
	assert.Equal(t, []string{"exit-select", "global-1", "global-2", "enter-edit"}, res.Actions)
}

func TestMachine_UnknownTargetFromWildcard(t *testing.T) {
	m := canvas.NewMachine(newTestRegistry(), "select")

	// Wildcard accepts even ids registered later by plugins; the registry
	// resolves them to a default descriptor.
	res := m.Transition("future-tool")
	require.True(t, res.Changed)
	assert.Equal(t, "future-tool", m.Current())
	assert.Equal(t, []string{"future-tool"}, m.ActiveResources())
}

func TestRegistry_ResolveUnknownFallsBack(t *testing.T) {
	r := canvas.NewModeRegistry()

	desc := r.Resolve("ghost")
	assert.Equal(t, "ghost", desc.ID)
	assert.Equal(t, []string{"ghost"}, desc.Resources)
	assert.False(t, r.Known("ghost"))
}

func TestRegistry_ReRegisterReplacesDescriptor(t *testing.T) {
	r := newTestRegistry()
	r.Register(canvas.ModeDescriptor{ID: "edit", Wildcard: true}, nil)

	m := canvas.NewMachine(r, "edit")
	res := m.Transition("transformation")
	assert.True(t, res.Changed)
}
