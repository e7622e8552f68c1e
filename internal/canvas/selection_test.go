package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/canvas"
	"github.com/vectorpad/vectorpad/internal/geom"
	"github.com/vectorpad/vectorpad/internal/scene"
)

func rectPath(x, y, w, h float64) []geom.SubPath {
	return []geom.SubPath{{
		geom.MoveTo(curve.Pt(x, y)),
		geom.LineTo(curve.Pt(x+w, y)),
		geom.LineTo(curve.Pt(x+w, y+h)),
		geom.LineTo(curve.Pt(x, y+h)),
		geom.ClosePath(),
	}}
}

func pathElement(id string, x, y, w, h float64) *scene.Element {
	return &scene.Element{
		ID:        id,
		Type:      scene.ElementTypePath,
		Transform: scene.IdentityTransform(),
		Style:     scene.Style{Fill: "#000", Opacity: 1},
		Visible:   true,
		Path:      rectPath(x, y, w, h),
	}
}

// Three rectangles: a and b inside (0,0)-(50,50), c far away.
func newTestScene(t *testing.T) *scene.Store {
	t.Helper()
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 10, 10, 20, 20), "", -1))
	require.NoError(t, s.Add(pathElement("b", 30, 30, 15, 15), "", -1))
	require.NoError(t, s.Add(pathElement("c", 200, 200, 20, 20), "", -1))
	return s
}

func TestSelection_GranularityExclusivity(t *testing.T) {
	sel := canvas.NewSelection(newTestScene(t))

	sel.SelectElement("a", false)
	sel.SelectPoint(canvas.PointRef{ElementID: "a", CommandIndex: 1, PointIndex: 0}, false)
	assert.Empty(t, sel.Elements(), "selecting a point must clear elements")
	assert.Len(t, sel.Points(), 1)

	sel.SelectSubpath(canvas.SubpathRef{ElementID: "a", SubpathIndex: 0}, false)
	assert.Empty(t, sel.Points(), "selecting a subpath must clear points")
	assert.Len(t, sel.Subpaths(), 1)

	sel.SelectElement("b", false)
	assert.Empty(t, sel.Subpaths(), "selecting an element must clear subpaths")
	assert.Equal(t, []string{"b"}, sel.Elements())
}

func TestSelection_ElementToggle(t *testing.T) {
	sel := canvas.NewSelection(newTestScene(t))

	sel.SelectElement("a", false)
	sel.SelectElement("b", true)
	assert.Equal(t, []string{"a", "b"}, sel.Elements())

	sel.SelectElement("a", true)
	assert.Equal(t, []string{"b"}, sel.Elements())

	// Without toggle the selection collapses to the single id.
	sel.SelectElement("c", false)
	assert.Equal(t, []string{"c"}, sel.Elements())
}

func TestSelection_RectangleSelectsIntersecting(t *testing.T) {
	sel := canvas.NewSelection(newTestScene(t))

	sel.BeginRectangle(curve.Pt(0, 0), canvas.RectangleStrategy{})
	assert.True(t, sel.IsSelecting())
	sel.UpdateRectangle(curve.Pt(50, 50))
	result := sel.CompleteRectangle(1, false)

	assert.False(t, sel.IsSelecting())
	assert.Equal(t, []string{"a", "b"}, result.Elements)
	assert.Equal(t, []string{"a", "b"}, sel.Elements())
}

func TestSelection_ZeroAreaRectangleSelectsNothing(t *testing.T) {
	sel := canvas.NewSelection(newTestScene(t))
	sel.SelectElement("a", false)

	sel.BeginRectangle(curve.Pt(20, 20), canvas.RectangleStrategy{})
	result := sel.CompleteRectangle(1, false)

	assert.Empty(t, result.Elements)
	assert.Empty(t, sel.Elements(), "empty non-additive result clears the selection")
}

func TestSelection_AdditiveCompleteMerges(t *testing.T) {
	sel := canvas.NewSelection(newTestScene(t))
	sel.SelectElement("c", false)

	sel.BeginRectangle(curve.Pt(0, 0), canvas.RectangleStrategy{})
	sel.UpdateRectangle(curve.Pt(50, 50))
	sel.CompleteRectangle(1, true)

	assert.Equal(t, []string{"a", "b", "c"}, sel.Elements())
}

func TestSelection_CompleteWithoutSessionIsNoop(t *testing.T) {
	sel := canvas.NewSelection(newTestScene(t))
	sel.SelectElement("a", false)

	result := sel.CompleteRectangle(1, false)
	assert.Empty(t, result.Elements)
	assert.Equal(t, []string{"a"}, sel.Elements())
}

func TestSelection_HiddenAndLockedExcluded(t *testing.T) {
	s := newTestScene(t)
	a, _ := s.Get("a")
	a.Visible = false
	b, _ := s.Get("b")
	b.Locked = true

	sel := canvas.NewSelection(s)
	sel.BeginRectangle(curve.Pt(0, 0), canvas.RectangleStrategy{})
	sel.UpdateRectangle(curve.Pt(50, 50))
	result := sel.CompleteRectangle(1, false)

	assert.Empty(t, result.Elements)
}

func TestSelection_StrokeWidthCountsAtLowZoom(t *testing.T) {
	s := scene.NewStore()
	el := pathElement("stroked", 60, 60, 20, 20)
	el.Style.Stroke = "#000"
	el.Style.StrokeWidth = 8
	require.NoError(t, s.Add(el, "", -1))

	sel := canvas.NewSelection(s)

	// The path itself ends at x=60 going left; the rectangle reaches x=58.
	// At zoom 1 the 8-unit stroke extends the bounds by 4 on every side.
	sel.BeginRectangle(curve.Pt(0, 0), canvas.RectangleStrategy{})
	sel.UpdateRectangle(curve.Pt(58, 58))
	result := sel.CompleteRectangle(1, false)
	assert.Equal(t, []string{"stroked"}, result.Elements)

	// At zoom 4 the stroke covers only 1 scene unit, so the same drag misses.
	sel.BeginRectangle(curve.Pt(0, 0), canvas.RectangleStrategy{})
	sel.UpdateRectangle(curve.Pt(58, 58))
	result = sel.CompleteRectangle(4, false)
	assert.Empty(t, result.Elements)
}

func TestLassoStrategy_RequiresFullEnclosure(t *testing.T) {
	s := newTestScene(t)
	sel := canvas.NewSelection(s)

	// A polygon around a only.
	sel.BeginRectangle(curve.Pt(5, 5), canvas.LassoStrategy{})
	for _, p := range []curve.Point{{X: 35, Y: 5}, {X: 35, Y: 35}, {X: 5, Y: 35}} {
		sel.UpdateRectangle(p)
	}
	result := sel.CompleteRectangle(1, false)

	assert.Equal(t, []string{"a"}, result.Elements)
}

func TestLassoStrategy_DegeneratePathSelectsNothing(t *testing.T) {
	sel := canvas.NewSelection(newTestScene(t))

	sel.BeginRectangle(curve.Pt(5, 5), canvas.LassoStrategy{})
	sel.UpdateRectangle(curve.Pt(40, 40))
	result := sel.CompleteRectangle(1, false)

	assert.Empty(t, result.Elements)
}

func TestPointStrategy_SelectsEnclosedPoints(t *testing.T) {
	s := newTestScene(t)
	sel := canvas.NewSelection(s)

	// Around the top-left corner of a: catches the M point at (10,10) and
	// the final L point at (10,30).
	sel.BeginRectangle(curve.Pt(5, 5), canvas.PointStrategy{})
	sel.UpdateRectangle(curve.Pt(15, 35))
	result := sel.CompleteRectangle(1, false)

	require.Len(t, result.Points, 2)
	assert.Equal(t, canvas.PointRef{ElementID: "a", CommandIndex: 0, PointIndex: 0}, result.Points[0])
	assert.Equal(t, canvas.PointRef{ElementID: "a", CommandIndex: 3, PointIndex: 0}, result.Points[1])
	assert.Empty(t, sel.Elements())
	assert.Len(t, sel.Points(), 2)
}

func TestSubpathStrategy_SelectsContainedSubpaths(t *testing.T) {
	s := scene.NewStore()
	el := pathElement("two", 10, 10, 20, 20)
	el.Path = append(el.Path, rectPath(100, 10, 20, 20)...)
	require.NoError(t, s.Add(el, "", -1))

	sel := canvas.NewSelection(s)
	sel.BeginRectangle(curve.Pt(0, 0), canvas.SubpathStrategy{})
	sel.UpdateRectangle(curve.Pt(50, 50))
	result := sel.CompleteRectangle(1, false)

	require.Len(t, result.Subpaths, 1)
	assert.Equal(t, canvas.SubpathRef{ElementID: "two", SubpathIndex: 0}, result.Subpaths[0])
}

func TestHitTest_TopmostWins(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("under", 0, 0, 50, 50), "", -1))
	require.NoError(t, s.Add(pathElement("over", 25, 25, 50, 50), "", -1))

	sel := canvas.NewSelection(s)
	assert.Equal(t, "over", sel.HitTest(curve.Pt(30, 30), 1))
	assert.Equal(t, "under", sel.HitTest(curve.Pt(10, 10), 1))
	assert.Equal(t, "", sel.HitTest(curve.Pt(200, 200), 1))
}

func TestHitTest_SkipsHiddenAndLocked(t *testing.T) {
	s := newTestScene(t)
	a, _ := s.Get("a")
	a.Locked = true

	sel := canvas.NewSelection(s)
	assert.Equal(t, "", sel.HitTest(curve.Pt(15, 15), 1))
}
