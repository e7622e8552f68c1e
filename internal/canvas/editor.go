package canvas

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/geom"
	"github.com/vectorpad/vectorpad/internal/scene"
	"github.com/vectorpad/vectorpad/internal/typeid"
)

// Side-effect tags executed by the editor when a mode transition requests
// them.
const (
	ActionClearGuidelines       = "clear-guidelines"
	ActionClearElementSelection = "clear-element-selection"
	ActionClearSubpathSelection = "clear-subpath-selection"
	ActionClearPointSelection   = "clear-point-selection"
)

// Built-in mode ids. Tools can register more at any time.
const (
	ModeSelect         = "select"
	ModeLasso          = "lasso"
	ModeEdit           = "edit"
	ModeSubpath        = "subpath"
	ModeTransformation = "transformation"
	ModePencil         = "pencil"
)

// GuidelineTolerance is the alignment distance, in scene units, at which a
// transient guideline appears during a move.
const GuidelineTolerance = 1.0

// Guideline is a transient alignment guide shown while dragging.
type Guideline struct {
	Axis   string  `json:"axis"` // "x" or "y"
	Offset float64 `json:"offset"`
}

// Viewport is the screen-to-scene mapping shared with overlays and the
// replication layer.
type Viewport struct {
	Zoom float64 `json:"zoom"`
	PanX float64 `json:"panX"`
	PanY float64 `json:"panY"`
}

// MutationObserver receives every locally produced scene operation, in the
// order it was applied. The rendering, export and replication collaborators
// hang off this hook.
type MutationObserver func(scene.Operation)

// Editor composes the scene store, mode machine, event bus, selection
// subsystem and transform engine into the canvas interaction engine. All
// methods must be called from the single UI goroutine.
type Editor struct {
	store     *scene.Store
	bus       *Bus
	registry  *ModeRegistry
	machine   *Machine
	selection *Selection
	transform *TransformEngine

	drag       DragSession
	modifiers  Modifiers
	viewport   Viewport
	guidelines []Guideline
	stroke     []curve.Point

	strategies map[string]Strategy
	onMutation MutationObserver
}

func NewEditor(store *scene.Store) *Editor {
	e := &Editor{
		store:      store,
		bus:        NewBus(),
		registry:   NewModeRegistry(),
		selection:  NewSelection(store),
		transform:  NewTransformEngine(store),
		viewport:   Viewport{Zoom: 1},
		strategies: make(map[string]Strategy),
	}
	e.machine = NewMachine(e.registry, ModeSelect, ActionClearGuidelines)

	e.registerBuiltinModes()

	// Dispatch order is part of the contract: the active mode's handler
	// first, then the selection subsystem, then the transform engine.
	for _, t := range []EventType{EventPointerDown, EventPointerMove, EventPointerUp} {
		e.bus.Subscribe(t, e.dispatchModeHandler)
	}
	e.bus.Subscribe(EventPointerMove, e.selectionConsumer)
	e.bus.Subscribe(EventPointerUp, e.selectionConsumer)
	e.bus.Subscribe(EventPointerMove, e.transformConsumer)
	e.bus.Subscribe(EventPointerUp, e.transformConsumer)

	return e
}

func (e *Editor) registerBuiltinModes() {
	e.RegisterTool(ModeDescriptor{
		ID:           ModeSelect,
		Description:  "select and move whole elements",
		Wildcard:     true,
		EntryActions: []string{ActionClearSubpathSelection, ActionClearPointSelection},
		Resources:    []string{"select-handler", "selection-overlay"},
	}, e.selectToolHandler)
	e.strategies[ModeSelect] = RectangleStrategy{}

	e.RegisterTool(ModeDescriptor{
		ID:           ModeLasso,
		Description:  "freeform lasso selection",
		Transitions:  []string{ModeSelect, ModeEdit, ModeSubpath, ModeTransformation, ModePencil},
		ToggleTo:     ModeSelect,
		EntryActions: []string{ActionClearSubpathSelection, ActionClearPointSelection},
		Resources:    []string{"lasso-handler", "lasso-overlay"},
	}, e.selectToolHandler)
	e.strategies[ModeLasso] = LassoStrategy{}

	e.RegisterTool(ModeDescriptor{
		ID:           ModeEdit,
		Description:  "edit individual path points",
		Transitions:  []string{ModeSelect, ModeLasso, ModeSubpath, ModeTransformation, ModePencil},
		EntryActions: []string{ActionClearElementSelection, ActionClearSubpathSelection},
		Resources:    []string{"edit-handler", "point-overlay"},
	}, e.selectToolHandler)
	e.strategies[ModeEdit] = PointStrategy{}

	e.RegisterTool(ModeDescriptor{
		ID:           ModeSubpath,
		Description:  "select whole subpaths",
		Transitions:  []string{ModeSelect, ModeLasso, ModeEdit, ModeTransformation, ModePencil},
		ToggleTo:     ModeTransformation,
		EntryActions: []string{ActionClearElementSelection, ActionClearPointSelection},
		Resources:    []string{"subpath-handler", "subpath-overlay"},
	}, e.selectToolHandler)
	e.strategies[ModeSubpath] = SubpathStrategy{}

	e.RegisterTool(ModeDescriptor{
		ID:           ModeTransformation,
		Description:  "transform the selection via handles",
		Transitions:  []string{ModeSelect, ModeLasso, ModeEdit, ModeSubpath, ModePencil},
		ToggleTo:     ModeSelect,
		EntryActions: []string{ActionClearSubpathSelection, ActionClearPointSelection},
		Resources:    []string{"transform-handler", "handle-overlay"},
	}, e.selectToolHandler)
	e.strategies[ModeTransformation] = RectangleStrategy{}

	e.RegisterTool(ModeDescriptor{
		ID:          ModePencil,
		Description: "draw freehand strokes",
		Transitions: []string{ModeSelect, ModeLasso, ModeEdit, ModeSubpath, ModeTransformation},
		ToggleTo:    ModeSelect,
		Resources:   []string{"pencil-handler", "stroke-overlay"},
	}, e.pencilToolHandler)
}

// RegisterTool registers (or replaces) a mode and its pointer handler.
// Registration may happen at any time and is reflected in the next mode
// resolution.
func (e *Editor) RegisterTool(desc ModeDescriptor, handler PointerHandler) {
	e.registry.Register(desc, handler)
}

// SetStrategy overrides the drag-selection strategy a mode resolves with.
func (e *Editor) SetStrategy(modeID string, strategy Strategy) {
	e.strategies[modeID] = strategy
}

// SetMutationObserver installs the hook that receives locally produced
// operations.
func (e *Editor) SetMutationObserver(fn MutationObserver) {
	e.onMutation = fn
}

// Scene exposes read access to the store for rendering and replication.
func (e *Editor) Scene() *scene.Store { return e.store }

// Selection exposes the selection subsystem.
func (e *Editor) Selection() *Selection { return e.selection }

// Transform exposes the transform engine (for feedback display).
func (e *Editor) Transform() *TransformEngine { return e.transform }

// Machine exposes the mode machine.
func (e *Editor) Machine() *Machine { return e.machine }

// Mode returns the active mode id.
func (e *Editor) Mode() string { return e.machine.Current() }

// Guidelines returns the transient alignment guides, if any.
func (e *Editor) Guidelines() []Guideline { return e.guidelines }

// SetViewport and ViewportState manage the screen-to-scene mapping.
func (e *Editor) SetViewport(v Viewport) {
	if v.Zoom <= 0 {
		v.Zoom = 1
	}
	e.viewport = v
}

func (e *Editor) ViewportState() Viewport { return e.viewport }

// ToScene converts a screen-space point into scene space.
func (e *Editor) ToScene(p curve.Point) curve.Point {
	return curve.Pt((p.X-e.viewport.PanX)/e.viewport.Zoom, (p.Y-e.viewport.PanY)/e.viewport.Zoom)
}

// SetMode requests a mode transition. On an allowed switch any in-progress
// transform session is cancelled (snapshots restored), the drag and
// rectangle sessions are aborted, and the transition's side-effect tags run
// against live state.
func (e *Editor) SetMode(id string) TransitionResult {
	res := e.machine.Transition(id)
	if !res.Changed {
		return res
	}
	e.transform.Cancel()
	e.selection.AbortRectangle()
	e.drag.End()
	e.stroke = nil
	for _, tag := range res.Actions {
		e.executeAction(tag)
	}
	return res
}

func (e *Editor) executeAction(tag string) {
	switch tag {
	case ActionClearGuidelines:
		e.guidelines = nil
	case ActionClearElementSelection:
		e.selection.clearElements()
	case ActionClearSubpathSelection:
		e.selection.ClearSubpaths()
	case ActionClearPointSelection:
		e.selection.ClearPoints()
	}
	// Unknown tags are tool-owned; the editor ignores them.
}

// --- Physical event entry points. One call = one bus emission. ---

// PointerDown anchors a drag session and dispatches the event.
func (e *Editor) PointerDown(p curve.Point, target string) {
	e.drag.Begin(p)
	e.bus.Emit(EventPointerDown, e.newEvent(EventPointerDown, p, target, ""))
}

// PointerMove updates the drag threshold state and dispatches the event.
func (e *Editor) PointerMove(p curve.Point) {
	e.drag.Update(p)
	e.bus.Emit(EventPointerMove, e.newEvent(EventPointerMove, p, "", ""))
}

// PointerUp dispatches the event and then runs the global release step:
// the transform session always ends here, even when the pointer was
// released outside the handle that started it.
func (e *Editor) PointerUp(p curve.Point, target string) {
	e.bus.Emit(EventPointerUp, e.newEvent(EventPointerUp, p, target, ""))
	e.finishTransform()
	e.guidelines = nil
	e.drag.End()
}

// KeyDown updates the shared modifier state before dispatch, so selection
// consumers observe modifier changes ahead of any pointer decision.
func (e *Editor) KeyDown(key string) {
	e.applyModifier(key, true)
	e.bus.Emit(EventKeyDown, e.newEvent(EventKeyDown, curve.Point{}, "", key))
}

func (e *Editor) KeyUp(key string) {
	e.applyModifier(key, false)
	e.bus.Emit(EventKeyUp, e.newEvent(EventKeyUp, curve.Point{}, "", key))
}

// SetVirtualShift is the on-screen shift toggle for touch devices.
func (e *Editor) SetVirtualShift(on bool) {
	e.modifiers.VirtualShift = on
}

func (e *Editor) applyModifier(key string, down bool) {
	switch strings.ToLower(key) {
	case "shift":
		e.modifiers.Shift = down
	case "control", "ctrl":
		e.modifiers.Ctrl = down
	case "meta", "cmd":
		e.modifiers.Meta = down
	}
}

// newEvent snapshots ambient state and helper callbacks at emit time.
func (e *Editor) newEvent(t EventType, p curve.Point, target, key string) *Event {
	return &Event{
		Type:      t,
		Point:     p,
		Target:    target,
		Key:       key,
		Mode:      e.machine.Current(),
		Modifiers: e.modifiers,
		Ambient: Ambient{
			IsSelecting:  e.selection.IsSelecting(),
			IsDragging:   e.drag.Active(),
			HasDragMoved: e.drag.Moved(),
			DragStart:    e.drag.Start(),
			DragOwner:    e.drag.Owner(),
		},
		Helpers: Helpers{
			BeginSelectionRect: func(p curve.Point) {
				e.selection.BeginRectangle(p, e.strategyFor(e.machine.Current()))
			},
			UpdateSelectionRect:   e.selection.UpdateRectangle,
			CompleteSelectionRect: func() { e.selection.CompleteRectangle(e.viewport.Zoom, e.modifiers.MultiSelect()) },
			CreatePath:            e.createStrokePath,
			ClaimDrag:             e.drag.Claim,
			StartTransform:        e.startTransform,
		},
	}
}

func (e *Editor) strategyFor(modeID string) Strategy {
	if s, ok := e.strategies[modeID]; ok {
		return s
	}
	return RectangleStrategy{}
}

// --- Bus consumers, in contract order. ---

// dispatchModeHandler forwards the event to the active mode's registered
// pointer handler.
func (e *Editor) dispatchModeHandler(ev *Event) {
	if h := e.registry.Handler(e.machine.Current()); h != nil {
		h(ev)
	}
}

// selectionConsumer advances the rectangle/lasso session. It only acts when
// the drag is claimed by the selection rectangle.
func (e *Editor) selectionConsumer(ev *Event) {
	if e.drag.Owner() != OwnerSelectionRect {
		return
	}
	switch ev.Type {
	case EventPointerMove:
		e.selection.UpdateRectangle(ev.Point)
	case EventPointerUp:
		e.selection.UpdateRectangle(ev.Point)
		e.selection.CompleteRectangle(e.viewport.Zoom, ev.Modifiers.MultiSelect())
	}
}

// transformConsumer drives the active transform session. It only acts when
// the drag is claimed by a transform or element move.
func (e *Editor) transformConsumer(ev *Event) {
	owner := e.drag.Owner()
	if owner != OwnerTransform && owner != OwnerElementMove && owner != OwnerSubpathMove {
		return
	}
	switch ev.Type {
	case EventPointerMove:
		if !e.transform.Active() || !ev.Ambient.HasDragMoved {
			return
		}
		e.transform.Update(ev.Point, ev.Modifiers)
		if owner == OwnerElementMove {
			e.updateGuidelines()
		}
	case EventPointerUp:
		if e.transform.Active() {
			e.transform.Update(ev.Point, ev.Modifiers)
		}
	}
}

// finishTransform emits the final geometry of each affected path as an
// operation and discards the session.
func (e *Editor) finishTransform() {
	if !e.transform.Active() {
		return
	}
	targets := e.transform.Targets()
	moved := e.drag.Moved()
	e.transform.End()
	if !moved {
		// A plain click never changed geometry; nothing to report.
		return
	}
	for _, id := range targets {
		el, ok := e.store.Get(id)
		if !ok {
			continue
		}
		geometry, err := json.Marshal(el.Path)
		if err != nil {
			continue
		}
		e.emit(scene.Operation{
			ID:        typeid.NewOpID(),
			Type:      scene.OpElementGeometry,
			Timestamp: time.Now().UnixMilli(),
			ElementID: id,
			Geometry:  geometry,
		})
	}
}

func (e *Editor) emit(op scene.Operation) {
	if e.onMutation != nil {
		e.onMutation(op)
	}
}

// updateGuidelines recomputes transient alignment guides for the bounds of
// the moving selection against every other top-level element.
func (e *Editor) updateGuidelines() {
	e.guidelines = nil
	moving := e.transform.Targets()
	movingSet := make(map[string]struct{}, len(moving))
	for _, id := range moving {
		movingSet[id] = struct{}{}
	}
	b, ok := e.store.SelectionBounds(moving)
	if !ok {
		return
	}
	for _, id := range e.store.Roots() {
		if _, isMoving := movingSet[id]; isMoving {
			continue
		}
		other, ok := e.store.Bounds(id)
		if !ok {
			continue
		}
		for _, pair := range [][2]float64{{b.X0, other.X0}, {b.X1, other.X1}} {
			if math.Abs(pair[0]-pair[1]) <= GuidelineTolerance {
				e.guidelines = append(e.guidelines, Guideline{Axis: "x", Offset: pair[1]})
			}
		}
		for _, pair := range [][2]float64{{b.Y0, other.Y0}, {b.Y1, other.Y1}} {
			if math.Abs(pair[0]-pair[1]) <= GuidelineTolerance {
				e.guidelines = append(e.guidelines, Guideline{Axis: "y", Offset: pair[1]})
			}
		}
	}
}

// startTransform resolves a transform target: a named element or group, or
// the current multi-selection when targetID is empty.
func (e *Editor) startTransform(targetID string, handle Handle, p curve.Point) {
	var ids []string
	if targetID == "" {
		ids = e.selection.Elements()
	} else {
		ids = []string{targetID}
	}
	e.transform.Start(ids, handle, p)
}

// --- Built-in tool handlers. ---

// selectToolHandler backs the select, lasso, edit, subpath and
// transformation modes: handle hits start transform sessions, element hits
// select and begin a move, empty hits begin a drag selection with the
// mode's strategy. Subpath mode routes path hits to the contour gesture
// instead of whole-element selection.
func (e *Editor) selectToolHandler(ev *Event) {
	if ev.Type != EventPointerDown {
		return
	}

	if handle, ok := strings.CutPrefix(ev.Target, "handle:"); ok {
		if ev.Helpers.ClaimDrag(OwnerTransform) {
			ev.Helpers.StartTransform("", Handle(handle), ev.Point)
		}
		return
	}

	if ev.Mode == ModeSubpath {
		e.subpathDown(ev)
		return
	}

	if hit := e.selection.HitTest(ev.Point, e.viewport.Zoom); hit != "" {
		toggle := ev.Modifiers.MultiSelect()
		if toggle {
			e.selection.SelectElement(hit, true)
		} else if !e.selection.Has(hit) {
			e.selection.SelectElement(hit, false)
		}
		if ev.Helpers.ClaimDrag(OwnerElementMove) {
			e.transform.Start(e.selection.Elements(), HandleMove, ev.Point)
		}
		return
	}

	if ev.Helpers.ClaimDrag(OwnerSelectionRect) {
		ev.Helpers.BeginSelectionRect(ev.Point)
	}
}

// subpathDown handles a press in subpath mode. A hit contour joins the
// subpath selection and begins a move of the selected contours; empty space
// starts a drag selection with the subpath strategy. Whole-element selection
// never engages here.
func (e *Editor) subpathDown(ev *Event) {
	if ref, ok := e.selection.HitTestSubpath(ev.Point, e.viewport.Zoom); ok {
		if ev.Modifiers.MultiSelect() {
			e.selection.SelectSubpath(ref, true)
		} else if !e.selection.HasSubpath(ref) {
			e.selection.SelectSubpath(ref, false)
		}
		if e.selection.HasSubpath(ref) && ev.Helpers.ClaimDrag(OwnerSubpathMove) {
			e.transform.StartSubpaths(e.selection.Subpaths(), ev.Point)
		}
		return
	}

	if ev.Helpers.ClaimDrag(OwnerSelectionRect) {
		ev.Helpers.BeginSelectionRect(ev.Point)
	}
}

// pencilToolHandler records a freehand stroke and creates a path element on
// release.
func (e *Editor) pencilToolHandler(ev *Event) {
	switch ev.Type {
	case EventPointerDown:
		if ev.Helpers.ClaimDrag(OwnerPencil) {
			e.stroke = []curve.Point{ev.Point}
		}
	case EventPointerMove:
		if ev.Ambient.DragOwner == OwnerPencil && len(e.stroke) > 0 {
			e.stroke = append(e.stroke, ev.Point)
		}
	case EventPointerUp:
		if ev.Ambient.DragOwner != OwnerPencil {
			return
		}
		stroke := e.stroke
		e.stroke = nil
		if len(stroke) > 1 {
			if id := e.createStrokePath(stroke); id != "" {
				e.selection.SelectElement(id, false)
			}
		}
	}
}

// createStrokePath materializes a polyline stroke as a new path element via
// the operation pipeline.
func (e *Editor) createStrokePath(points []curve.Point) string {
	if len(points) < 2 {
		return ""
	}
	sp := make(geom.SubPath, 0, len(points))
	sp = append(sp, geom.MoveTo(points[0]))
	for _, p := range points[1:] {
		sp = append(sp, geom.LineTo(p))
	}

	el := scene.Element{
		ID:        typeid.NewElementID(),
		Type:      scene.ElementTypePath,
		Transform: scene.IdentityTransform(),
		Style:     scene.Style{Stroke: "#1a1a2e", StrokeWidth: 2, Opacity: 1},
		Visible:   true,
		Path:      []geom.SubPath{sp},
	}
	payload, err := json.Marshal(&el)
	if err != nil {
		return ""
	}
	op := scene.Operation{
		ID:        typeid.NewOpID(),
		Type:      scene.OpElementCreate,
		Timestamp: time.Now().UnixMilli(),
		Element:   payload,
	}
	if err := e.ApplyLocal(op); err != nil {
		return ""
	}
	return el.ID
}

// ApplyLocal applies a locally produced operation and forwards it to the
// mutation observer.
func (e *Editor) ApplyLocal(op scene.Operation) error {
	if err := e.store.Apply(op); err != nil {
		return err
	}
	e.emit(op)
	return nil
}

// ApplyExternal applies an operation received from the replication layer.
// It runs through exactly the same scene apply path as local edits.
func (e *Editor) ApplyExternal(op scene.Operation) error {
	return e.store.Apply(op)
}

// ReplaceScene swaps in a whole new scene from the storage collaborator and
// resets all interaction state.
func (e *Editor) ReplaceScene(elements []*scene.Element) error {
	if err := e.store.Replace(elements); err != nil {
		return err
	}
	e.transform.End()
	e.selection.AbortRectangle()
	e.selection.ClearSelection()
	e.drag.End()
	e.guidelines = nil
	return nil
}
