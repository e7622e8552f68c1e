package geom_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/geom"
)

func TestSubPathBounds_CubicUsesTrueExtrema(t *testing.T) {
	// An arch whose control points reach y=100 but whose curve peaks at 75.
	sp := geom.SubPath{
		geom.MoveTo(curve.Pt(0, 0)),
		geom.CubicTo(curve.Pt(0, 100), curve.Pt(100, 100), curve.Pt(100, 0)),
	}

	b, ok := geom.SubPathBounds(sp)
	require.True(t, ok)
	assert.InDelta(t, 0.0, b.X0, 1e-9)
	assert.InDelta(t, 100.0, b.X1, 1e-9)
	assert.InDelta(t, 0.0, b.Y0, 1e-9)
	assert.InDelta(t, 75.0, b.Y1, 1e-9, "control hull would give 100")
}

func TestSubPathBounds_EmptySubpath(t *testing.T) {
	_, ok := geom.SubPathBounds(geom.SubPath{geom.ClosePath()})
	assert.False(t, ok)
}

func TestPathBounds_UnionsSubpaths(t *testing.T) {
	path := []geom.SubPath{
		{geom.MoveTo(curve.Pt(0, 0)), geom.LineTo(curve.Pt(10, 10))},
		{geom.MoveTo(curve.Pt(90, 90)), geom.LineTo(curve.Pt(100, 100))},
	}

	b, ok := geom.PathBounds(path)
	require.True(t, ok)
	assert.InDelta(t, 0.0, b.X0, 1e-9)
	assert.InDelta(t, 100.0, b.X1, 1e-9)
}

func TestStrokeBounds_InflatesByHalfWidthOverZoom(t *testing.T) {
	r := curve.Rect{X0: 10, Y0: 10, X1: 20, Y1: 20}

	inflated := geom.StrokeBounds(r, 8, 2)
	assert.InDelta(t, 8.0, inflated.X0, 1e-9)
	assert.InDelta(t, 22.0, inflated.X1, 1e-9)

	// Zero stroke leaves the rect alone; zero zoom falls back to 1.
	assert.Equal(t, r, geom.StrokeBounds(r, 0, 2))
	assert.InDelta(t, 6.0, geom.StrokeBounds(r, 8, 0).X0, 1e-9)
}

func TestRectsIntersect(t *testing.T) {
	a := curve.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}

	assert.True(t, geom.RectsIntersect(a, curve.Rect{X0: 5, Y0: 5, X1: 15, Y1: 15}))
	assert.False(t, geom.RectsIntersect(a, curve.Rect{X0: 10, Y0: 0, X1: 20, Y1: 10}), "touching edges do not overlap")
	assert.False(t, geom.RectsIntersect(a, curve.Rect{X0: 3, Y0: 3, X1: 3, Y1: 8}), "degenerate rect intersects nothing")
}

func TestRectContainsRect(t *testing.T) {
	outer := curve.Rect{X0: 0, Y0: 0, X1: 100, Y1: 100}

	assert.True(t, geom.RectContainsRect(outer, curve.Rect{X0: 10, Y0: 10, X1: 90, Y1: 90}))
	assert.True(t, geom.RectContainsRect(outer, outer), "containment is inclusive")
	assert.False(t, geom.RectContainsRect(outer, curve.Rect{X0: 10, Y0: 10, X1: 110, Y1: 90}))
}

func TestSegmentDistance(t *testing.T) {
	a, b := curve.Pt(0, 0), curve.Pt(10, 0)

	assert.InDelta(t, 3.0, geom.SegmentDistance(curve.Pt(5, 3), a, b), 1e-9)
	assert.InDelta(t, 5.0, geom.SegmentDistance(curve.Pt(-4, 3), a, b), 1e-9, "clamps to the nearer endpoint")
	assert.InDelta(t, 5.0, geom.SegmentDistance(curve.Pt(3, 4), a, a), 1e-9, "degenerate segment is a point")
}

func TestPolygonContains(t *testing.T) {
	square := []curve.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}

	assert.True(t, geom.PolygonContains(square, curve.Pt(5, 5)))
	assert.False(t, geom.PolygonContains(square, curve.Pt(15, 5)))
	assert.False(t, geom.PolygonContains([]curve.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, curve.Pt(5, 5)), "a segment encloses nothing")
}

func TestPolygonContainsRect(t *testing.T) {
	square := []curve.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}

	assert.True(t, geom.PolygonContainsRect(square, curve.Rect{X0: 10, Y0: 10, X1: 90, Y1: 90}))
	assert.False(t, geom.PolygonContainsRect(square, curve.Rect{X0: 10, Y0: 10, X1: 110, Y1: 90}))
}

func TestCommand_JSONRoundTrip(t *testing.T) {
	sp := geom.SubPath{
		geom.MoveTo(curve.Pt(1, 2)),
		geom.CubicTo(curve.Pt(3, 4), curve.Pt(5, 6), curve.Pt(7, 8)),
		geom.ClosePath(),
	}

	data, err := json.Marshal(sp)
	require.NoError(t, err)
	assert.JSONEq(t, `[["M",1,2],["C",3,4,5,6,7,8],["Z"]]`, string(data))

	var back geom.SubPath
	require.NoError(t, json.Unmarshal(data, &back))
	again, err := json.Marshal(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestCommand_UnmarshalRejectsMalformed(t *testing.T) {
	var cmd geom.Command
	assert.Error(t, cmd.UnmarshalJSON([]byte(`[]`)))
	assert.Error(t, cmd.UnmarshalJSON([]byte(`["L",1]`)), "odd coordinate count")
	assert.Error(t, cmd.UnmarshalJSON([]byte(`["L","x","y"]`)))
}

func TestCommand_UnmarshalRejectsWrongArity(t *testing.T) {
	var cmd geom.Command
	assert.Error(t, cmd.UnmarshalJSON([]byte(`["M"]`)), "move needs a point")
	assert.Error(t, cmd.UnmarshalJSON([]byte(`["L",1,2,3,4]`)), "line takes one point")
	assert.Error(t, cmd.UnmarshalJSON([]byte(`["C",1,2]`)), "cubic needs three points")
	assert.Error(t, cmd.UnmarshalJSON([]byte(`["Z",1,2]`)), "close takes no points")
	assert.Error(t, cmd.UnmarshalJSON([]byte(`["Q",1,2]`)), "unknown op")

	assert.NoError(t, cmd.UnmarshalJSON([]byte(`["C",1,2,3,4,5,6]`)))
	assert.Len(t, cmd.Points, 3)
}

func TestSubPath_TransformInPlace(t *testing.T) {
	sp := geom.SubPath{geom.MoveTo(curve.Pt(10, 10)), geom.LineTo(curve.Pt(20, 10))}
	sp.Transform(curve.Translate(curve.Vec(5, -5)))

	assert.InDelta(t, 15.0, sp[0].Points[0].X, 1e-9)
	assert.InDelta(t, 5.0, sp[0].Points[0].Y, 1e-9)
	assert.InDelta(t, 25.0, sp[1].Points[0].X, 1e-9)
}

func TestClonePath_Isolation(t *testing.T) {
	path := []geom.SubPath{{geom.MoveTo(curve.Pt(1, 1)), geom.LineTo(curve.Pt(2, 2))}}
	clone := geom.ClonePath(path)
	clone[0][0].Points[0] = curve.Pt(99, 99)

	assert.InDelta(t, 1.0, path[0][0].Points[0].X, 1e-9)
}
