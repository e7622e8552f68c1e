package canvas

import (
	"sort"

	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/geom"
	"github.com/vectorpad/vectorpad/internal/scene"
)

// SubpathRef addresses one contour of a path element.
type SubpathRef struct {
	ElementID    string
	SubpathIndex int
}

// PointRef addresses one control point of a path command.
type PointRef struct {
	ElementID    string
	CommandIndex int
	PointIndex   int
}

// StrategyResult is what a selection strategy resolved from a completed drag.
type StrategyResult struct {
	Elements []string
	Subpaths []SubpathRef
	Points   []PointRef
}

// DragShape is the completed drag handed to a strategy: the axis-aligned
// rectangle between anchor and release, plus the freeform path for lasso
// strategies.
type DragShape struct {
	Rect curve.Rect
	Path []curve.Point
}

// Strategy resolves a completed drag against the scene. One strategy is
// active per mode; it is fixed when the rectangle session begins, so a drag
// can never be claimed by two strategies.
type Strategy interface {
	Name() string
	Resolve(store *scene.Store, drag DragShape, zoom float64) StrategyResult
}

// Selection tracks the selected element/subpath/point identifiers. The three
// granularities are mutually exclusive: entering one clears the others.
type Selection struct {
	store *scene.Store

	elements map[string]struct{}
	subpaths map[SubpathRef]struct{}
	points   map[PointRef]struct{}

	rect *rectSession
}

type rectSession struct {
	start    curve.Point
	current  curve.Point
	path     []curve.Point
	strategy Strategy
}

func NewSelection(store *scene.Store) *Selection {
	return &Selection{
		store:    store,
		elements: make(map[string]struct{}),
		subpaths: make(map[SubpathRef]struct{}),
		points:   make(map[PointRef]struct{}),
	}
}

// Elements returns the selected element ids in stable order.
func (s *Selection) Elements() []string {
	out := make([]string, 0, len(s.elements))
	for id := range s.elements {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Selection) Has(id string) bool {
	_, ok := s.elements[id]
	return ok
}

// HasSubpath reports whether the contour is part of the subpath selection.
func (s *Selection) HasSubpath(ref SubpathRef) bool {
	_, ok := s.subpaths[ref]
	return ok
}

// Subpaths returns the selected subpath refs in stable order.
func (s *Selection) Subpaths() []SubpathRef {
	out := make([]SubpathRef, 0, len(s.subpaths))
	for ref := range s.subpaths {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ElementID != out[j].ElementID {
			return out[i].ElementID < out[j].ElementID
		}
		return out[i].SubpathIndex < out[j].SubpathIndex
	})
	return out
}

// Points returns the selected point refs in stable order.
func (s *Selection) Points() []PointRef {
	out := make([]PointRef, 0, len(s.points))
	for ref := range s.points {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ElementID != b.ElementID {
			return a.ElementID < b.ElementID
		}
		if a.CommandIndex != b.CommandIndex {
			return a.CommandIndex < b.CommandIndex
		}
		return a.PointIndex < b.PointIndex
	})
	return out
}

// SelectElement selects a single element. With toggle, membership is
// flipped; without, the selection is replaced by the single id. Selecting an
// element clears subpath and point selections.
func (s *Selection) SelectElement(id string, toggle bool) {
	s.clearSubpaths()
	s.clearPoints()
	if toggle {
		if _, ok := s.elements[id]; ok {
			delete(s.elements, id)
		} else {
			s.elements[id] = struct{}{}
		}
		return
	}
	s.clearElements()
	s.elements[id] = struct{}{}
}

// SelectSubpath selects a subpath, clearing the other granularities.
func (s *Selection) SelectSubpath(ref SubpathRef, toggle bool) {
	s.clearElements()
	s.clearPoints()
	if toggle {
		if _, ok := s.subpaths[ref]; ok {
			delete(s.subpaths, ref)
		} else {
			s.subpaths[ref] = struct{}{}
		}
		return
	}
	s.clearSubpaths()
	s.subpaths[ref] = struct{}{}
}

// SelectPoint selects a command point, clearing the other granularities.
func (s *Selection) SelectPoint(ref PointRef, toggle bool) {
	s.clearElements()
	s.clearSubpaths()
	if toggle {
		if _, ok := s.points[ref]; ok {
			delete(s.points, ref)
		} else {
			s.points[ref] = struct{}{}
		}
		return
	}
	s.clearPoints()
	s.points[ref] = struct{}{}
}

// ClearSelection drops all three granularities.
func (s *Selection) ClearSelection() {
	s.clearElements()
	s.clearSubpaths()
	s.clearPoints()
}

// ClearSubpaths and ClearPoints are the side-effect entry points mode
// transitions execute.
func (s *Selection) ClearSubpaths() { s.clearSubpaths() }
func (s *Selection) ClearPoints()   { s.clearPoints() }

func (s *Selection) clearElements() {
	for id := range s.elements {
		delete(s.elements, id)
	}
}

func (s *Selection) clearSubpaths() {
	for ref := range s.subpaths {
		delete(s.subpaths, ref)
	}
}

func (s *Selection) clearPoints() {
	for ref := range s.points {
		delete(s.points, ref)
	}
}

// IsSelecting reports whether a rectangle/lasso session is in progress.
func (s *Selection) IsSelecting() bool { return s.rect != nil }

// AbortRectangle drops an in-progress session without resolving it.
func (s *Selection) AbortRectangle() { s.rect = nil }

// BeginRectangle starts a drag-selection session with the strategy the
// active mode chose.
func (s *Selection) BeginRectangle(p curve.Point, strategy Strategy) {
	s.rect = &rectSession{
		start:    p,
		current:  p,
		path:     []curve.Point{p},
		strategy: strategy,
	}
}

// UpdateRectangle extends the session to p. Without an active session this
// is a no-op.
func (s *Selection) UpdateRectangle(p curve.Point) {
	if s.rect == nil {
		return
	}
	s.rect.current = p
	s.rect.path = append(s.rect.path, p)
}

// CompleteRectangle resolves the session against the scene and updates the
// element selection. With additive true the result is merged, otherwise it
// replaces the selection; an empty result without additive clears it.
// Completing with no active session is a no-op.
func (s *Selection) CompleteRectangle(zoom float64, additive bool) StrategyResult {
	if s.rect == nil {
		return StrategyResult{}
	}
	sess := s.rect
	s.rect = nil

	drag := DragShape{
		Rect: curve.NewRectFromPoints(sess.start, sess.current),
		Path: sess.path,
	}
	result := sess.strategy.Resolve(s.store, drag, zoom)

	if len(result.Elements) == 0 && len(result.Subpaths) == 0 && len(result.Points) == 0 {
		if !additive {
			s.ClearSelection()
		}
		return result
	}

	switch {
	case len(result.Points) > 0:
		s.clearElements()
		s.clearSubpaths()
		if !additive {
			s.clearPoints()
		}
		for _, ref := range result.Points {
			s.points[ref] = struct{}{}
		}
	case len(result.Subpaths) > 0:
		s.clearElements()
		s.clearPoints()
		if !additive {
			s.clearSubpaths()
		}
		for _, ref := range result.Subpaths {
			s.subpaths[ref] = struct{}{}
		}
	default:
		s.clearSubpaths()
		s.clearPoints()
		if !additive {
			s.clearElements()
		}
		for _, id := range result.Elements {
			s.elements[id] = struct{}{}
		}
	}
	return result
}

// HitTest returns the topmost eligible element at p, honoring stroke width
// at the given zoom. Groups are hit as wholes; hidden and locked elements
// are skipped.
func (s *Selection) HitTest(p curve.Point, zoom float64) string {
	roots := s.store.Roots()
	// Front to back.
	for i := len(roots) - 1; i >= 0; i-- {
		if id := s.hitTestElement(roots[i], p, zoom); id != "" {
			return id
		}
	}
	return ""
}

func (s *Selection) hitTestElement(id string, p curve.Point, zoom float64) string {
	el, ok := s.store.Get(id)
	if !ok || !el.Visible || el.Locked {
		return ""
	}
	b, ok := s.store.Bounds(id)
	if !ok {
		return ""
	}
	b = geom.StrokeBounds(b, el.Style.StrokeWidth, zoom)
	if !b.Contains(p) {
		return ""
	}
	return id
}

// HitTestSubpath returns the topmost contour whose stroke-aware bounds
// contain p, honoring stroke width at the given zoom. Hidden and locked
// elements are skipped.
func (s *Selection) HitTestSubpath(p curve.Point, zoom float64) (SubpathRef, bool) {
	roots := s.store.Roots()
	// Front to back.
	for i := len(roots) - 1; i >= 0; i-- {
		if ref, ok := s.hitTestSubpathIn(roots[i], p, zoom); ok {
			return ref, true
		}
	}
	return SubpathRef{}, false
}

func (s *Selection) hitTestSubpathIn(id string, p curve.Point, zoom float64) (SubpathRef, bool) {
	el, ok := s.store.Get(id)
	if !ok || !el.Visible || el.Locked {
		return SubpathRef{}, false
	}
	if el.IsGroup() {
		for i := len(el.Children) - 1; i >= 0; i-- {
			if ref, ok := s.hitTestSubpathIn(el.Children[i], p, zoom); ok {
				return ref, true
			}
		}
		return SubpathRef{}, false
	}
	m := s.store.WorldMatrix(id)
	for i := len(el.Path) - 1; i >= 0; i-- {
		b, ok := geom.SubPathBounds(el.Path[i])
		if !ok {
			continue
		}
		b = geom.StrokeBounds(m.TransformRectBoundingBox(b), el.Style.StrokeWidth, zoom)
		if b.Contains(p) {
			return SubpathRef{ElementID: id, SubpathIndex: i}, true
		}
	}
	return SubpathRef{}, false
}

// eligible reports whether an element can be picked up by a drag selection.
func eligible(el *scene.Element) bool {
	return el.Visible && !el.Locked
}

// RectangleStrategy selects every eligible top-level element whose
// stroke-aware bounds intersect the drag rectangle. A zero-area rectangle
// matches nothing.
type RectangleStrategy struct{}

func (RectangleStrategy) Name() string { return "rectangle" }

func (RectangleStrategy) Resolve(store *scene.Store, drag DragShape, zoom float64) StrategyResult {
	if drag.Rect.Area() == 0 {
		return StrategyResult{}
	}
	var result StrategyResult
	for _, id := range store.Roots() {
		el, ok := store.Get(id)
		if !ok || !eligible(el) {
			continue
		}
		b, ok := store.Bounds(id)
		if !ok {
			continue
		}
		b = geom.StrokeBounds(b, el.Style.StrokeWidth, zoom)
		if geom.RectsIntersect(drag.Rect, b) {
			result.Elements = append(result.Elements, id)
		}
	}
	return result
}

// LassoStrategy selects every eligible top-level element whose bounds are
// fully enclosed by the freeform drag polygon.
type LassoStrategy struct{}

func (LassoStrategy) Name() string { return "lasso" }

func (LassoStrategy) Resolve(store *scene.Store, drag DragShape, zoom float64) StrategyResult {
	if len(drag.Path) < 3 {
		return StrategyResult{}
	}
	var result StrategyResult
	for _, id := range store.Roots() {
		el, ok := store.Get(id)
		if !ok || !eligible(el) {
			continue
		}
		b, ok := store.Bounds(id)
		if !ok {
			continue
		}
		b = geom.StrokeBounds(b, el.Style.StrokeWidth, zoom)
		if geom.PolygonContainsRect(drag.Path, b) {
			result.Elements = append(result.Elements, id)
		}
	}
	return result
}

// PointStrategy selects the command points inside the drag rectangle. This
// is the granular strategy of the edit mode.
type PointStrategy struct{}

func (PointStrategy) Name() string { return "point" }

func (PointStrategy) Resolve(store *scene.Store, drag DragShape, zoom float64) StrategyResult {
	if drag.Rect.Area() == 0 {
		return StrategyResult{}
	}
	var result StrategyResult
	store.Walk(func(el *scene.Element) {
		if !el.IsPath() || !eligible(el) {
			return
		}
		cmdIndex := 0
		for _, sp := range el.Path {
			for _, cmd := range sp {
				for pi, pt := range cmd.Points {
					if drag.Rect.Contains(pt) {
						result.Points = append(result.Points, PointRef{
							ElementID:    el.ID,
							CommandIndex: cmdIndex,
							PointIndex:   pi,
						})
					}
				}
				cmdIndex++
			}
		}
	})
	return result
}

// SubpathStrategy selects whole subpaths whose bounds fall inside the drag
// rectangle.
type SubpathStrategy struct{}

func (SubpathStrategy) Name() string { return "subpath" }

func (SubpathStrategy) Resolve(store *scene.Store, drag DragShape, zoom float64) StrategyResult {
	if drag.Rect.Area() == 0 {
		return StrategyResult{}
	}
	var result StrategyResult
	store.Walk(func(el *scene.Element) {
		if !el.IsPath() || !eligible(el) {
			return
		}
		for i, sp := range el.Path {
			b, ok := geom.SubPathBounds(sp)
			if !ok {
				continue
			}
			if geom.RectContainsRect(drag.Rect, b) {
				result.Subpaths = append(result.Subpaths, SubpathRef{
					ElementID:    el.ID,
					SubpathIndex: i,
				})
			}
		}
	})
	return result
}
