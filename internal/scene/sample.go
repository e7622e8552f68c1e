package scene

import (
	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/geom"
)

// NewSampleStore builds a small demo scene: two loose paths and a group
// holding two more. Used by the playground document and the wasm bridge.
func NewSampleStore() *Store {
	s := NewStore()

	square := &Element{
		ID:        "elem_sample_square",
		Type:      ElementTypePath,
		Transform: IdentityTransform(),
		Style:     Style{Fill: "#4f8ef7", Opacity: 1},
		Visible:   true,
		Path:      []geom.SubPath{rectSubPath(100, 100, 120, 120)},
	}
	s.Add(square, "", -1)

	curvePath := &Element{
		ID:        "elem_sample_wave",
		Type:      ElementTypePath,
		Transform: IdentityTransform(),
		Style:     Style{Stroke: "#e8554d", StrokeWidth: 4, Opacity: 1},
		Visible:   true,
		Path: []geom.SubPath{{
			geom.MoveTo(curve.Pt(300, 200)),
			geom.CubicTo(curve.Pt(340, 120), curve.Pt(380, 280), curve.Pt(420, 200)),
			geom.CubicTo(curve.Pt(460, 120), curve.Pt(500, 280), curve.Pt(540, 200)),
		}},
	}
	s.Add(curvePath, "", -1)

	group := &Element{
		ID:        "elem_sample_group",
		Type:      ElementTypeGroup,
		Transform: IdentityTransform(),
		Style:     Style{Opacity: 1},
		Visible:   true,
	}
	s.Add(group, "", -1)

	left := &Element{
		ID:        "elem_sample_left",
		Type:      ElementTypePath,
		Transform: IdentityTransform(),
		Style:     Style{Fill: "#58c472", Opacity: 1},
		Visible:   true,
		Path:      []geom.SubPath{rectSubPath(120, 320, 80, 80)},
	}
	s.Add(left, group.ID, -1)

	right := &Element{
		ID:        "elem_sample_right",
		Type:      ElementTypePath,
		Transform: IdentityTransform(),
		Style:     Style{Fill: "#d9a441", Opacity: 1},
		Visible:   true,
		Path:      []geom.SubPath{rectSubPath(240, 320, 80, 80)},
	}
	s.Add(right, group.ID, -1)

	return s
}

func rectSubPath(x, y, w, h float64) geom.SubPath {
	return geom.SubPath{
		geom.MoveTo(curve.Pt(x, y)),
		geom.LineTo(curve.Pt(x+w, y)),
		geom.LineTo(curve.Pt(x+w, y+h)),
		geom.LineTo(curve.Pt(x, y+h)),
		geom.ClosePath(),
	}
}
