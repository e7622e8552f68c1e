package canvas

import (
	"math"

	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/geom"
	"github.com/vectorpad/vectorpad/internal/scene"
)

// Handle identifies the hot-spot a transform session started from.
type Handle string

const (
	HandleTopLeft     Handle = "tl"
	HandleTop         Handle = "t"
	HandleTopRight    Handle = "tr"
	HandleRight       Handle = "r"
	HandleBottomRight Handle = "br"
	HandleBottom      Handle = "b"
	HandleBottomLeft  Handle = "bl"
	HandleLeft        Handle = "l"
	HandleRotate      Handle = "rotate"
	HandleMove        Handle = "move"
	HandleSkewH       Handle = "skew-h"
	HandleSkewV       Handle = "skew-v"
)

// SkewClampDeg bounds the skew angle to keep geometry non-degenerate.
const SkewClampDeg = 75.0

// RotationSnapDeg is the rotation increment under effective shift.
const RotationSnapDeg = 15.0

// ResizeSnapUnits is the size increment edge resizes snap to under shift.
const ResizeSnapUnits = 10.0

const epsilon = 1e-9

// Feedback carries the per-tick values the UI displays next to the cursor.
type Feedback struct {
	RotationDeg     float64 `json:"rotationDeg"`
	SnappedRotation bool    `json:"snappedRotation"`
	DeltaX          float64 `json:"deltaX"`
	DeltaY          float64 `json:"deltaY"`
	ScaleX          float64 `json:"scaleX"`
	ScaleY          float64 `json:"scaleY"`
	SkewDeg         float64 `json:"skewDeg"`
	AspectLocked    bool    `json:"aspectLocked"`
	MultipleOfTen   bool    `json:"multipleOfTen"`
}

// TransformEngine runs snapshot-based transform sessions. Every Update
// recomputes the affected geometry from the pre-transform baseline captured
// at Start, never from the previous tick, so repeated updates with the
// same final point always produce identical geometry.
type TransformEngine struct {
	store   *scene.Store
	session *transformSession
}

type transformSession struct {
	handle   Handle
	start    curve.Point
	bounds   curve.Rect
	targets  []string                    // affected path element ids
	groups   []string                    // affected group ids, restored on cancel
	baseline map[string]*scene.Element   // deep copies, the only basis for Update
	subpaths map[string]map[int]struct{} // restricts redraw to these contours, nil for whole elements
	feedback Feedback
}

func NewTransformEngine(store *scene.Store) *TransformEngine {
	return &TransformEngine{store: store}
}

// Active reports whether a session is in progress.
func (t *TransformEngine) Active() bool { return t.session != nil }

// Feedback returns the most recent per-tick feedback values.
func (t *TransformEngine) Feedback() Feedback {
	if t.session == nil {
		return Feedback{}
	}
	return t.session.feedback
}

// Bounds returns the pre-transform bounds of the session target.
func (t *TransformEngine) Bounds() curve.Rect {
	if t.session == nil {
		return curve.Rect{}
	}
	return t.session.bounds
}

// Start opens a session for a single element, a group (all descendants), or,
// when ids lists several elements, the multi-selection. It deep-copies
// the pre-transform state of every affected element. Starting with no
// resolvable target leaves the engine idle; that is not an error.
func (t *TransformEngine) Start(ids []string, handle Handle, p curve.Point) {
	sess := &transformSession{
		handle:   handle,
		start:    p,
		baseline: make(map[string]*scene.Element),
	}

	for _, id := range ids {
		el, ok := t.store.Get(id)
		if !ok {
			continue
		}
		if el.IsGroup() {
			sess.groups = append(sess.groups, id)
			sess.baseline[id] = el.Clone()
			for _, pid := range t.store.PathDescendants(id) {
				if _, seen := sess.baseline[pid]; seen {
					continue
				}
				pel, ok := t.store.Get(pid)
				if !ok {
					continue
				}
				sess.targets = append(sess.targets, pid)
				sess.baseline[pid] = pel.Clone()
			}
		} else {
			if _, seen := sess.baseline[id]; seen {
				continue
			}
			sess.targets = append(sess.targets, id)
			sess.baseline[id] = el.Clone()
		}
	}

	if len(sess.targets) == 0 {
		return
	}

	bounds, ok := t.store.SelectionBounds(ids)
	if !ok {
		return
	}
	sess.bounds = bounds
	t.session = sess
}

// StartSubpaths opens a move session restricted to whole contours. Only the
// listed subpaths are redrawn on Update; the rest of each element keeps its
// baseline geometry.
func (t *TransformEngine) StartSubpaths(refs []SubpathRef, p curve.Point) {
	sess := &transformSession{
		handle:   HandleMove,
		start:    p,
		baseline: make(map[string]*scene.Element),
		subpaths: make(map[string]map[int]struct{}),
	}

	var bounds curve.Rect
	first := true
	for _, ref := range refs {
		el, ok := t.store.Get(ref.ElementID)
		if !ok || !el.IsPath() {
			continue
		}
		if ref.SubpathIndex < 0 || ref.SubpathIndex >= len(el.Path) {
			continue
		}
		if _, seen := sess.baseline[ref.ElementID]; !seen {
			sess.targets = append(sess.targets, ref.ElementID)
			sess.baseline[ref.ElementID] = el.Clone()
			sess.subpaths[ref.ElementID] = make(map[int]struct{})
		}
		sess.subpaths[ref.ElementID][ref.SubpathIndex] = struct{}{}

		b, ok := geom.SubPathBounds(el.Path[ref.SubpathIndex])
		if !ok {
			continue
		}
		b = t.store.WorldMatrix(ref.ElementID).TransformRectBoundingBox(b)
		if first {
			bounds = b
			first = false
		} else {
			bounds = bounds.Union(b)
		}
	}

	if len(sess.targets) == 0 || first {
		return
	}
	sess.bounds = bounds
	t.session = sess
}

// Update recomputes the target geometry for the pointer at p. Degenerate
// math (zero dimensions, NaN) skips the tick and retains the previous valid
// state. Targets deleted mid-drag are dropped silently.
func (t *TransformEngine) Update(p curve.Point, mods Modifiers) {
	sess := t.session
	if sess == nil {
		return
	}

	shift := mods.EffectiveShift()
	perspective := mods.Ctrl || mods.Meta

	var mapPoint func(curve.Point) curve.Point

	switch sess.handle {
	case HandleMove:
		delta := p.Sub(sess.start)
		sess.feedback.DeltaX = delta.X
		sess.feedback.DeltaY = delta.Y
		aff := curve.Translate(delta)
		mapPoint = func(pt curve.Point) curve.Point { return pt.Transform(aff) }

	case HandleRotate:
		center := sess.bounds.Center()
		v0 := sess.start.Sub(center)
		v1 := p.Sub(center)
		if v0.Hypot() < epsilon || v1.Hypot() < epsilon {
			return
		}
		deg := (v1.Angle() - v0.Angle()) * 180 / math.Pi
		snapped := false
		if shift {
			deg = math.Round(deg/RotationSnapDeg) * RotationSnapDeg
			snapped = true
		}
		sess.feedback.RotationDeg = deg
		sess.feedback.SnappedRotation = snapped
		aff := curve.RotateAbout(deg*math.Pi/180, center)
		mapPoint = func(pt curve.Point) curve.Point { return pt.Transform(aff) }

	case HandleSkewH, HandleSkewV:
		deg, ok := sess.skewDegrees(p)
		if !ok {
			return
		}
		sess.feedback.SkewDeg = deg
		center := sess.bounds.Center()
		rad := deg * math.Pi / 180
		var skew curve.Affine
		if sess.handle == HandleSkewH {
			skew = curve.Skew(math.Tan(rad), 0)
		} else {
			skew = curve.Skew(0, math.Tan(rad))
		}
		aff := curve.Translate(curve.Vec(center.X, center.Y)).
			Mul(skew).
			Mul(curve.Translate(curve.Vec(-center.X, -center.Y)))
		mapPoint = func(pt curve.Point) curve.Point { return pt.Transform(aff) }

	default:
		if perspective && isEdgeHandle(sess.handle) {
			fn, ok := sess.perspectiveMap(p)
			if !ok {
				return
			}
			mapPoint = fn
		} else {
			fn, ok := sess.scaleMap(p, shift)
			if !ok {
				return
			}
			mapPoint = fn
		}
	}

	// Redraw every target path in place from its snapshot. Paths stay
	// directly editable afterwards; no transform matrix is introduced.
	live := sess.targets[:0]
	for _, id := range sess.targets {
		el, ok := t.store.Get(id)
		if !ok {
			// Deleted mid-drag by another consumer.
			delete(sess.baseline, id)
			continue
		}
		live = append(live, id)
		base := sess.baseline[id]
		path := geom.ClonePath(base.Path)
		only := sess.subpaths[id] // nil outside subpath sessions
		ok = true
		for si, sp := range path {
			if only != nil {
				if _, sel := only[si]; !sel {
					continue
				}
			}
			for i := range sp {
				for j, pt := range sp[i].Points {
					np := mapPoint(pt)
					if np.IsNaN() || np.IsInf() {
						ok = false
					}
					sp[i].Points[j] = np
				}
			}
		}
		if !ok {
			continue
		}
		el.Path = path
	}
	sess.targets = live
	if len(sess.targets) == 0 {
		t.session = nil
	}
}

// End discards the session. The scene keeps the geometry the updates already
// produced.
func (t *TransformEngine) End() {
	t.session = nil
}

// Cancel restores every affected element to its pre-transform snapshot and
// discards the session. Mode transitions call this mid-drag so no partial
// transform is orphaned.
func (t *TransformEngine) Cancel() {
	sess := t.session
	if sess == nil {
		return
	}
	for id, base := range sess.baseline {
		el, ok := t.store.Get(id)
		if !ok {
			continue
		}
		el.Path = geom.ClonePath(base.Path)
		el.Transform = base.Transform
	}
	t.session = nil
}

// Targets returns the path element ids still affected by the session.
func (t *TransformEngine) Targets() []string {
	if t.session == nil {
		return nil
	}
	out := make([]string, len(t.session.targets))
	copy(out, t.session.targets)
	return out
}

// anchor returns the fixed origin for a handle: the opposite corner or edge
// midpoint, falling back to the center for rotation and unknown handles.
func (sess *transformSession) anchor() curve.Point {
	b := sess.bounds
	cx, cy := b.Center().X, b.Center().Y
	switch sess.handle {
	case HandleTopLeft:
		return curve.Pt(b.X1, b.Y1)
	case HandleTop:
		return curve.Pt(cx, b.Y1)
	case HandleTopRight:
		return curve.Pt(b.X0, b.Y1)
	case HandleRight:
		return curve.Pt(b.X0, cy)
	case HandleBottomRight:
		return curve.Pt(b.X0, b.Y0)
	case HandleBottom:
		return curve.Pt(cx, b.Y0)
	case HandleBottomLeft:
		return curve.Pt(b.X1, b.Y0)
	case HandleLeft:
		return curve.Pt(b.X1, cy)
	default:
		return b.Center()
	}
}

func isEdgeHandle(h Handle) bool {
	switch h {
	case HandleTop, HandleRight, HandleBottom, HandleLeft:
		return true
	}
	return false
}

func isCornerHandle(h Handle) bool {
	switch h {
	case HandleTopLeft, HandleTopRight, HandleBottomRight, HandleBottomLeft:
		return true
	}
	return false
}

// scaleMap derives the scale factors for the active handle from the drag and
// returns the point mapping. The factors are computed once against the
// session bounds and applied uniformly to every target, so group descendants
// get the same factor set as the bounding box itself.
func (sess *transformSession) scaleMap(p curve.Point, shift bool) (func(curve.Point) curve.Point, bool) {
	origin := sess.anchor()
	sx, sy := 1.0, 1.0

	scalesX := sess.handle == HandleLeft || sess.handle == HandleRight || isCornerHandle(sess.handle)
	scalesY := sess.handle == HandleTop || sess.handle == HandleBottom || isCornerHandle(sess.handle)

	if scalesX {
		den := sess.start.X - origin.X
		if math.Abs(den) < epsilon {
			return nil, false
		}
		sx = (p.X - origin.X) / den
	}
	if scalesY {
		den := sess.start.Y - origin.Y
		if math.Abs(den) < epsilon {
			return nil, false
		}
		sy = (p.Y - origin.Y) / den
	}

	sess.feedback.AspectLocked = false
	sess.feedback.MultipleOfTen = false

	if shift {
		if isCornerHandle(sess.handle) {
			// Preserve aspect ratio: follow the dominant axis.
			u := sx
			if math.Abs(sy-1) > math.Abs(sx-1) {
				u = sy
			}
			sx, sy = u, u
			sess.feedback.AspectLocked = true
		} else {
			// Snap the resized dimension to 10-unit increments.
			if scalesX {
				w := sess.bounds.Width() * sx
				snapped := math.Round(w/ResizeSnapUnits) * ResizeSnapUnits
				if sess.bounds.Width() > epsilon {
					sx = snapped / sess.bounds.Width()
				}
				sess.feedback.MultipleOfTen = true
			}
			if scalesY {
				h := sess.bounds.Height() * sy
				snapped := math.Round(h/ResizeSnapUnits) * ResizeSnapUnits
				if sess.bounds.Height() > epsilon {
					sy = snapped / sess.bounds.Height()
				}
				sess.feedback.MultipleOfTen = true
			}
		}
	}

	sess.feedback.ScaleX = sx
	sess.feedback.ScaleY = sy
	sess.feedback.DeltaX = sess.bounds.Width() * (sx - 1)
	sess.feedback.DeltaY = sess.bounds.Height() * (sy - 1)

	aff := curve.Translate(curve.Vec(origin.X, origin.Y)).
		Mul(curve.Scale(sx, sy)).
		Mul(curve.Translate(curve.Vec(-origin.X, -origin.Y)))
	if aff.IsNaN() || aff.IsInf() {
		return nil, false
	}
	return func(pt curve.Point) curve.Point { return pt.Transform(aff) }, true
}

// perspectiveMap implements the 2-corner distort of an edge-midpoint handle
// with the modifier held: the dragged edge both scales along the drag axis
// and tapers toward the fixed edge, approximating perspective.
func (sess *transformSession) perspectiveMap(p curve.Point) (func(curve.Point) curve.Point, bool) {
	origin := sess.anchor()
	b := sess.bounds
	cx, cy := b.Center().X, b.Center().Y

	switch sess.handle {
	case HandleTop, HandleBottom:
		den := sess.start.Y - origin.Y
		if math.Abs(den) < epsilon || b.Width() < epsilon {
			return nil, false
		}
		sy := (p.Y - origin.Y) / den
		taper := 1 + (p.X-sess.start.X)/(b.Width()/2)
		sess.feedback.ScaleX = taper
		sess.feedback.ScaleY = sy
		movedY := origin.Y + den*sy
		if math.Abs(movedY-origin.Y) < epsilon {
			return nil, false
		}
		return func(pt curve.Point) curve.Point {
			ny := origin.Y + (pt.Y-origin.Y)*sy
			// 0 at the fixed edge, 1 at the dragged edge.
			tv := (ny - origin.Y) / (movedY - origin.Y)
			f := 1 + (taper-1)*tv
			return curve.Pt(cx+(pt.X-cx)*f, ny)
		}, true

	case HandleLeft, HandleRight:
		den := sess.start.X - origin.X
		if math.Abs(den) < epsilon || b.Height() < epsilon {
			return nil, false
		}
		sx := (p.X - origin.X) / den
		taper := 1 + (p.Y-sess.start.Y)/(b.Height()/2)
		sess.feedback.ScaleX = sx
		sess.feedback.ScaleY = taper
		movedX := origin.X + den*sx
		if math.Abs(movedX-origin.X) < epsilon {
			return nil, false
		}
		return func(pt curve.Point) curve.Point {
			nx := origin.X + (pt.X-origin.X)*sx
			tv := (nx - origin.X) / (movedX - origin.X)
			f := 1 + (taper-1)*tv
			return curve.Pt(nx, cy+(pt.Y-cy)*f)
		}, true
	}
	return nil, false
}

// skewDegrees converts the drag delta into a skew angle: the delta along the
// skew axis divided by half the perpendicular dimension, read as radians and
// clamped to ±SkewClampDeg.
func (sess *transformSession) skewDegrees(p curve.Point) (float64, bool) {
	var delta, halfDim float64
	if sess.handle == HandleSkewH {
		delta = p.X - sess.start.X
		halfDim = sess.bounds.Height() / 2
	} else {
		delta = p.Y - sess.start.Y
		halfDim = sess.bounds.Width() / 2
	}
	if math.Abs(halfDim) < epsilon {
		return 0, false
	}
	deg := delta / halfDim * 180 / math.Pi
	if deg > SkewClampDeg {
		deg = SkewClampDeg
	}
	if deg < -SkewClampDeg {
		deg = -SkewClampDeg
	}
	return deg, true
}
