// Package geom provides the path-command model and the pure measurement
// functions the canvas core runs on. All coordinates are scene-space
// float64s expressed with honnef.co/go/curve types.
package geom

import (
	"encoding/json"
	"fmt"
	"math"

	"honnef.co/go/curve"
)

// Op identifies a path command.
type Op string

const (
	OpMove  Op = "M"
	OpLine  Op = "L"
	OpCubic Op = "C"
	OpClose Op = "Z"
)

// Command is a single path command. Move and Line carry one point, Cubic
// carries two control points followed by the endpoint, Close carries none.
type Command struct {
	Op     Op
	Points []curve.Point
}

// SubPath is one contour of a path element.
type SubPath []Command

// MoveTo, LineTo and CubicTo are convenience constructors.
func MoveTo(p curve.Point) Command  { return Command{Op: OpMove, Points: []curve.Point{p}} }
func LineTo(p curve.Point) Command  { return Command{Op: OpLine, Points: []curve.Point{p}} }
func ClosePath() Command            { return Command{Op: OpClose} }
func CubicTo(c1, c2, p curve.Point) Command {
	return Command{Op: OpCubic, Points: []curve.Point{c1, c2, p}}
}

// End returns the command's endpoint. Close has no endpoint.
func (c Command) End() (curve.Point, bool) {
	if len(c.Points) == 0 {
		return curve.Point{}, false
	}
	return c.Points[len(c.Points)-1], true
}

// MarshalJSON encodes the command as a Canvas2D-style array: ["M", x, y],
// ["C", x1, y1, x2, y2, x, y], ["Z"].
func (c Command) MarshalJSON() ([]byte, error) {
	arr := make([]any, 0, 1+2*len(c.Points))
	arr = append(arr, string(c.Op))
	for _, p := range c.Points {
		arr = append(arr, p.X, p.Y)
	}
	return json.Marshal(arr)
}

// UnmarshalJSON decodes the Canvas2D-style array form.
func (c *Command) UnmarshalJSON(data []byte) error {
	var arr []json.RawMessage
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) == 0 {
		return fmt.Errorf("empty path command")
	}
	var op string
	if err := json.Unmarshal(arr[0], &op); err != nil {
		return fmt.Errorf("path command op: %w", err)
	}
	if (len(arr)-1)%2 != 0 {
		return fmt.Errorf("path command %q has odd coordinate count", op)
	}
	var want int
	switch Op(op) {
	case OpMove, OpLine:
		want = 1
	case OpCubic:
		want = 3
	case OpClose:
		want = 0
	default:
		return fmt.Errorf("unknown path command %q", op)
	}
	if got := (len(arr) - 1) / 2; got != want {
		return fmt.Errorf("path command %q has %d points, want %d", op, got, want)
	}
	points := make([]curve.Point, 0, (len(arr)-1)/2)
	for i := 1; i < len(arr); i += 2 {
		var x, y float64
		if err := json.Unmarshal(arr[i], &x); err != nil {
			return fmt.Errorf("path command %q coordinate: %w", op, err)
		}
		if err := json.Unmarshal(arr[i+1], &y); err != nil {
			return fmt.Errorf("path command %q coordinate: %w", op, err)
		}
		points = append(points, curve.Pt(x, y))
	}
	c.Op = Op(op)
	c.Points = points
	return nil
}

// Clone returns a deep copy of the subpath.
func (sp SubPath) Clone() SubPath {
	out := make(SubPath, len(sp))
	for i, cmd := range sp {
		pts := make([]curve.Point, len(cmd.Points))
		copy(pts, cmd.Points)
		out[i] = Command{Op: cmd.Op, Points: pts}
	}
	return out
}

// ClonePath deep-copies a whole path.
func ClonePath(path []SubPath) []SubPath {
	out := make([]SubPath, len(path))
	for i, sp := range path {
		out[i] = sp.Clone()
	}
	return out
}

// Transform applies an affine to every point of the subpath, in place.
func (sp SubPath) Transform(aff curve.Affine) {
	for i := range sp {
		for j, p := range sp[i].Points {
			sp[i].Points[j] = p.Transform(aff)
		}
	}
}

// TransformPath applies an affine to every subpath of a path, in place.
func TransformPath(path []SubPath, aff curve.Affine) {
	for _, sp := range path {
		sp.Transform(aff)
	}
}

// SubPathBounds returns the exact axis-aligned bounds of a subpath. Cubic
// segments contribute their true extrema, not their control hulls.
func SubPathBounds(sp SubPath) (curve.Rect, bool) {
	var bounds curve.Rect
	var cur curve.Point
	first := true
	for _, cmd := range sp {
		switch cmd.Op {
		case OpMove, OpLine:
			if len(cmd.Points) == 0 {
				continue
			}
			p := cmd.Points[0]
			if first {
				bounds = curve.Rect{X0: p.X, Y0: p.Y, X1: p.X, Y1: p.Y}
				first = false
			} else {
				bounds = bounds.UnionPoint(p)
			}
			cur = p
		case OpCubic:
			if len(cmd.Points) < 3 {
				continue
			}
			seg := curve.CubicBez{P0: cur, P1: cmd.Points[0], P2: cmd.Points[1], P3: cmd.Points[2]}
			bb := seg.BoundingBox()
			if first {
				bounds = bb
				first = false
			} else {
				bounds = bounds.Union(bb)
			}
			cur = cmd.Points[2]
		case OpClose:
		}
	}
	return bounds, !first
}

// PathBounds returns the bounds of all subpaths combined.
func PathBounds(path []SubPath) (curve.Rect, bool) {
	var bounds curve.Rect
	found := false
	for _, sp := range path {
		b, ok := SubPathBounds(sp)
		if !ok {
			continue
		}
		if !found {
			bounds = b
			found = true
		} else {
			bounds = bounds.Union(b)
		}
	}
	return bounds, found
}

// StrokeBounds inflates geometric bounds by half the stroke width in scene
// units at the given zoom, so hit tests see what the user sees.
func StrokeBounds(r curve.Rect, strokeWidth, zoom float64) curve.Rect {
	if strokeWidth <= 0 {
		return r
	}
	if zoom <= 0 {
		zoom = 1
	}
	half := strokeWidth / 2 / zoom
	return r.Inflate(half, half)
}

// RectsIntersect reports whether two rectangles overlap. Degenerate
// rectangles (zero width or height) intersect nothing.
func RectsIntersect(a, b curve.Rect) bool {
	if a.Width() <= 0 || a.Height() <= 0 || b.Width() <= 0 || b.Height() <= 0 {
		return false
	}
	return a.X0 < b.X1 && b.X0 < a.X1 && a.Y0 < b.Y1 && b.Y0 < a.Y1
}

// RectContainsRect reports whether outer fully contains inner.
func RectContainsRect(outer, inner curve.Rect) bool {
	return inner.X0 >= outer.X0 && inner.X1 <= outer.X1 &&
		inner.Y0 >= outer.Y0 && inner.Y1 <= outer.Y1
}

// SegmentDistance returns the distance from p to the segment ab.
func SegmentDistance(p, a, b curve.Point) float64 {
	ab := b.Sub(a)
	ap := p.Sub(a)
	den := ab.Hypot2()
	if den == 0 {
		return ap.Hypot()
	}
	t := ap.Dot(ab) / den
	t = math.Max(0, math.Min(1, t))
	closest := a.Lerp(b, t)
	return p.Distance(closest)
}

// PolygonContains reports whether p lies inside the polygon using the
// even-odd rule. The polygon is treated as closed.
func PolygonContains(poly []curve.Point, p curve.Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) {
			x := pi.X + (p.Y-pi.Y)/(pj.Y-pi.Y)*(pj.X-pi.X)
			if p.X < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PolygonContainsRect reports whether every corner of r is inside the polygon.
func PolygonContainsRect(poly []curve.Point, r curve.Rect) bool {
	corners := []curve.Point{
		curve.Pt(r.X0, r.Y0),
		curve.Pt(r.X1, r.Y0),
		curve.Pt(r.X1, r.Y1),
		curve.Pt(r.X0, r.Y1),
	}
	for _, c := range corners {
		if !PolygonContains(poly, c) {
			return false
		}
	}
	return true
}
