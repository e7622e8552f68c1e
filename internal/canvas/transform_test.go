package canvas_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/canvas"
	"github.com/vectorpad/vectorpad/internal/geom"
	"github.com/vectorpad/vectorpad/internal/scene"
)

func pathPoints(el *scene.Element) []curve.Point {
	var out []curve.Point
	for _, sp := range el.Path {
		for _, cmd := range sp {
			out = append(out, cmd.Points...)
		}
	}
	return out
}

func assertPointsEqual(t *testing.T, want, got []curve.Point) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-9, "point %d x", i)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-9, "point %d y", i)
	}
}

func TestTransform_MoveTranslates(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 100, 100), "", -1))
	eng := canvas.NewTransformEngine(s)

	eng.Start([]string{"a"}, canvas.HandleMove, curve.Pt(50, 50))
	require.True(t, eng.Active())
	eng.Update(curve.Pt(80, 70), canvas.Modifiers{})

	el, _ := s.Get("a")
	got := pathPoints(el)
	assert.InDelta(t, 30.0, got[0].X, 1e-9)
	assert.InDelta(t, 20.0, got[0].Y, 1e-9)

	fb := eng.Feedback()
	assert.InDelta(t, 30.0, fb.DeltaX, 1e-9)
	assert.InDelta(t, 20.0, fb.DeltaY, 1e-9)
}

func TestTransform_UpdateIsSnapshotBased(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 100, 100), "", -1))
	eng := canvas.NewTransformEngine(s)

	// Direct path to the final point.
	eng.Start([]string{"a"}, canvas.HandleRight, curve.Pt(100, 50))
	eng.Update(curve.Pt(200, 50), canvas.Modifiers{})
	el, _ := s.Get("a")
	direct := pathPoints(el)
	eng.End()

	// Reset and take a detour through intermediate points.
	el.Path = rectPath(0, 0, 100, 100)
	eng.Start([]string{"a"}, canvas.HandleRight, curve.Pt(100, 50))
	eng.Update(curve.Pt(130, 50), canvas.Modifiers{})
	eng.Update(curve.Pt(20, 50), canvas.Modifiers{})
	eng.Update(curve.Pt(200, 50), canvas.Modifiers{})
	el, _ = s.Get("a")
	assertPointsEqual(t, direct, pathPoints(el))
}

func TestTransform_ScaleAboutOppositeEdge(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 100, 100), "", -1))
	eng := canvas.NewTransformEngine(s)

	eng.Start([]string{"a"}, canvas.HandleRight, curve.Pt(100, 50))
	eng.Update(curve.Pt(200, 50), canvas.Modifiers{})

	el, _ := s.Get("a")
	want := []curve.Point{
		{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 100}, {X: 0, Y: 100},
	}
	assertPointsEqual(t, want, pathPoints(el))
	assert.InDelta(t, 2.0, eng.Feedback().ScaleX, 1e-9)
}

func TestTransform_CornerShiftLocksAspect(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 100, 100), "", -1))
	eng := canvas.NewTransformEngine(s)

	// Drag the bottom-right corner mostly along x; shift makes y follow.
	eng.Start([]string{"a"}, canvas.HandleBottomRight, curve.Pt(100, 100))
	eng.Update(curve.Pt(300, 120), canvas.Modifiers{Shift: true})

	fb := eng.Feedback()
	assert.True(t, fb.AspectLocked)
	assert.InDelta(t, 3.0, fb.ScaleX, 1e-9)
	assert.InDelta(t, 3.0, fb.ScaleY, 1e-9)

	el, _ := s.Get("a")
	got := pathPoints(el)
	assert.InDelta(t, 300.0, got[2].X, 1e-9)
	assert.InDelta(t, 300.0, got[2].Y, 1e-9)
}

func TestTransform_EdgeShiftSnapsToTenUnits(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 100, 100), "", -1))
	eng := canvas.NewTransformEngine(s)

	eng.Start([]string{"a"}, canvas.HandleRight, curve.Pt(100, 50))
	// Raw width would be 143; shift snaps it to 140.
	eng.Update(curve.Pt(143, 50), canvas.Modifiers{Shift: true})

	el, _ := s.Get("a")
	got := pathPoints(el)
	assert.InDelta(t, 140.0, got[1].X, 1e-9)
	assert.True(t, eng.Feedback().MultipleOfTen)
}

func TestTransform_VirtualShiftConstrainsLikeShift(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 100, 100), "", -1))
	eng := canvas.NewTransformEngine(s)

	eng.Start([]string{"a"}, canvas.HandleRight, curve.Pt(100, 50))
	eng.Update(curve.Pt(143, 50), canvas.Modifiers{VirtualShift: true})

	el, _ := s.Get("a")
	assert.InDelta(t, 140.0, pathPoints(el)[1].X, 1e-9)
}

func TestTransform_RotationSnapsUnderShift(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 100, 100), "", -1))
	eng := canvas.NewTransformEngine(s)

	// Start straight above the center, drag to an awkward angle.
	eng.Start([]string{"a"}, canvas.HandleRotate, curve.Pt(50, -20))
	eng.Update(curve.Pt(97, 13), canvas.Modifiers{Shift: true})

	fb := eng.Feedback()
	assert.True(t, fb.SnappedRotation)
	assert.InDelta(t, 0, math.Mod(fb.RotationDeg, canvas.RotationSnapDeg), 1e-9)
}

func TestTransform_SkewClampsAt75Degrees(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 100, 100), "", -1))
	eng := canvas.NewTransformEngine(s)

	// A drag of 300 units against a 50-unit half-height reads as ~344
	// degrees; the applied skew must clamp at 75.
	eng.Start([]string{"a"}, canvas.HandleSkewH, curve.Pt(50, 0))
	eng.Update(curve.Pt(350, 0), canvas.Modifiers{})
	assert.InDelta(t, canvas.SkewClampDeg, eng.Feedback().SkewDeg, 1e-9)

	eng.Update(curve.Pt(-250, 0), canvas.Modifiers{})
	assert.InDelta(t, -canvas.SkewClampDeg, eng.Feedback().SkewDeg, 1e-9)
}

func TestTransform_GroupScalesAsOneUnit(t *testing.T) {
	s := scene.NewStore()
	group := &scene.Element{
		ID:        "g",
		Type:      scene.ElementTypeGroup,
		Transform: scene.IdentityTransform(),
		Visible:   true,
	}
	require.NoError(t, s.Add(group, "", -1))
	require.NoError(t, s.Add(pathElement("left", 0, 0, 50, 50), "g", -1))
	require.NoError(t, s.Add(pathElement("right", 100, 0, 50, 50), "g", -1))

	eng := canvas.NewTransformEngine(s)
	eng.Start([]string{"g"}, canvas.HandleRight, curve.Pt(150, 25))
	eng.Update(curve.Pt(300, 25), canvas.Modifiers{})

	// Both children scale about the shared group anchor (x=0), not about
	// their own bounds: the right child moves away from the origin.
	left, _ := s.Get("left")
	right, _ := s.Get("right")
	assert.InDelta(t, 100.0, pathPoints(left)[1].X, 1e-9)
	assert.InDelta(t, 200.0, pathPoints(right)[0].X, 1e-9)
	assert.InDelta(t, 300.0, pathPoints(right)[1].X, 1e-9)

	assert.ElementsMatch(t, []string{"left", "right"}, eng.Targets())
}

func TestTransform_StartWithNoTargetStaysIdle(t *testing.T) {
	s := scene.NewStore()
	eng := canvas.NewTransformEngine(s)

	eng.Start([]string{"ghost"}, canvas.HandleMove, curve.Pt(0, 0))
	assert.False(t, eng.Active())

	// Updating while idle must not panic or touch anything.
	eng.Update(curve.Pt(10, 10), canvas.Modifiers{})
	eng.End()
}

func TestTransform_CancelRestoresBaseline(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 100, 100), "", -1))
	el, _ := s.Get("a")
	original := geom.ClonePath(el.Path)

	eng := canvas.NewTransformEngine(s)
	eng.Start([]string{"a"}, canvas.HandleMove, curve.Pt(50, 50))
	eng.Update(curve.Pt(500, 500), canvas.Modifiers{})
	eng.Cancel()

	assert.False(t, eng.Active())
	el, _ = s.Get("a")
	wantEl := &scene.Element{Path: original}
	assertPointsEqual(t, pathPoints(wantEl), pathPoints(el))
}

func TestTransform_DeletedTargetDroppedMidDrag(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 50, 50), "", -1))
	require.NoError(t, s.Add(pathElement("b", 100, 0, 50, 50), "", -1))

	eng := canvas.NewTransformEngine(s)
	eng.Start([]string{"a", "b"}, canvas.HandleMove, curve.Pt(0, 0))

	require.NoError(t, s.Remove("b"))
	eng.Update(curve.Pt(10, 0), canvas.Modifiers{})

	assert.Equal(t, []string{"a"}, eng.Targets())
	assert.True(t, eng.Active())

	require.NoError(t, s.Remove("a"))
	eng.Update(curve.Pt(20, 0), canvas.Modifiers{})
	assert.False(t, eng.Active(), "session ends when every target is gone")
}

func TestTransform_EndKeepsGeometry(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(pathElement("a", 0, 0, 100, 100), "", -1))

	eng := canvas.NewTransformEngine(s)
	eng.Start([]string{"a"}, canvas.HandleMove, curve.Pt(0, 0))
	eng.Update(curve.Pt(25, 0), canvas.Modifiers{})
	eng.End()

	el, _ := s.Get("a")
	assert.InDelta(t, 25.0, pathPoints(el)[0].X, 1e-9)
	assert.False(t, eng.Active())
}
