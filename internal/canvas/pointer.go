package canvas

import (
	"honnef.co/go/curve"
)

// DragThreshold is the movement in scene units past which a press counts as
// a drag rather than a click.
const DragThreshold = 4.0

// Modifiers is the shared keyboard-modifier state passed into every consumer
// on each delivery. Consumers never track raw key events themselves.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Meta  bool

	// VirtualShift is the on-screen shift toggle for touch devices.
	VirtualShift bool
}

// MultiSelect reports whether additive/toggle selection is active.
func (m Modifiers) MultiSelect() bool { return m.Shift || m.Ctrl }

// EffectiveShift reports whether constrained transforms apply.
func (m Modifiers) EffectiveShift() bool { return m.Shift || m.VirtualShift }

// DragOwner identifies which consumer claimed the current drag.
type DragOwner string

const (
	OwnerNone          DragOwner = ""
	OwnerSelectionRect DragOwner = "selection-rect"
	OwnerElementMove   DragOwner = "element-move"
	OwnerSubpathMove   DragOwner = "subpath-move"
	OwnerTransform     DragOwner = "transform"
	OwnerPencil        DragOwner = "pencil"
)

// DragSession tracks one press-move-release gesture: whether it exceeded the
// drag threshold, its anchor point, and which consumer owns it. Ownership
// arbitrates between the selection subsystem and the transform engine;
// later consumers must check the claim before acting.
type DragSession struct {
	active bool
	start  curve.Point
	moved  bool
	owner  DragOwner
}

// Begin anchors a new drag at p. Any previous claim is discarded.
func (d *DragSession) Begin(p curve.Point) {
	d.active = true
	d.start = p
	d.moved = false
	d.owner = OwnerNone
}

// Update reports whether the drag has (now or previously) exceeded the
// movement threshold.
func (d *DragSession) Update(p curve.Point) bool {
	if !d.active {
		return false
	}
	if !d.moved && p.Sub(d.start).Hypot() > DragThreshold {
		d.moved = true
	}
	return d.moved
}

// Claim assigns the drag to a consumer. It succeeds if the drag is unclaimed
// or already owned by the same consumer.
func (d *DragSession) Claim(owner DragOwner) bool {
	if !d.active {
		return false
	}
	if d.owner == OwnerNone || d.owner == owner {
		d.owner = owner
		return true
	}
	return false
}

func (d *DragSession) Active() bool     { return d.active }
func (d *DragSession) Moved() bool      { return d.moved }
func (d *DragSession) Start() curve.Point { return d.start }
func (d *DragSession) Owner() DragOwner { return d.owner }

// End resets the session.
func (d *DragSession) End() {
	*d = DragSession{}
}

// Ambient is the snapshot of interaction state carried on every event
// payload. It is read from the live session at emit time, never from a
// stale closure.
type Ambient struct {
	IsSelecting  bool
	IsDragging   bool
	HasDragMoved bool
	DragStart    curve.Point
	DragOwner    DragOwner
}

// Helpers are the callbacks tools use to drive the editor from inside a
// pointer handler. They are captured per event so handlers always act on
// current state.
type Helpers struct {
	BeginSelectionRect    func(curve.Point)
	UpdateSelectionRect   func(curve.Point)
	CompleteSelectionRect func()
	CreatePath            func(path []curve.Point) string
	ClaimDrag             func(DragOwner) bool
	StartTransform        func(targetID string, handle Handle, p curve.Point)
}

// Event is the payload delivered once per physical input event. Point is
// already converted to scene space; Target is the hit reference the event
// arrived on (e.g. "canvas", "handle:tl", "elem:<id>").
type Event struct {
	Type      EventType
	Point     curve.Point
	Target    string
	Key       string
	Mode      string
	Modifiers Modifiers
	Ambient   Ambient
	Helpers   Helpers
}
