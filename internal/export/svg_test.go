package export_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/export"
	"github.com/vectorpad/vectorpad/internal/geom"
	"github.com/vectorpad/vectorpad/internal/scene"
)

func rectElement(id string, x, y, w, h float64) *scene.Element {
	return &scene.Element{
		ID:        id,
		Type:      scene.ElementTypePath,
		Transform: scene.IdentityTransform(),
		Style:     scene.Style{Fill: "#112233", Opacity: 1},
		Visible:   true,
		Path: []geom.SubPath{{
			geom.MoveTo(curve.Pt(x, y)),
			geom.LineTo(curve.Pt(x+w, y)),
			geom.LineTo(curve.Pt(x+w, y+h)),
			geom.LineTo(curve.Pt(x, y+h)),
			geom.ClosePath(),
		}},
	}
}

func TestRenderSVG_Document(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(rectElement("square", 10, 10, 20, 20), "", -1))

	svg := string(export.RenderSVG(s, 640, 480))

	assert.Contains(t, svg, `width="640" height="480" viewBox="0 0 640 480"`)
	assert.Contains(t, svg, `d="M 10 10 L 30 10 L 30 30 L 10 30 Z"`)
	assert.Contains(t, svg, `fill="#112233"`)
	assert.True(t, strings.HasSuffix(svg, "</svg>\n"))
}

func TestRenderSVG_IdentityTransformOmitted(t *testing.T) {
	s := scene.NewStore()
	require.NoError(t, s.Add(rectElement("plain", 0, 0, 10, 10), "", -1))

	svg := string(export.RenderSVG(s, 100, 100))
	assert.NotContains(t, svg, "transform=")
}

func TestRenderSVG_GroupCarriesTransform(t *testing.T) {
	s := scene.NewStore()
	group := &scene.Element{
		ID:        "g",
		Type:      scene.ElementTypeGroup,
		Transform: scene.IdentityTransform(),
		Visible:   true,
	}
	group.Transform.X = 50
	require.NoError(t, s.Add(group, "", -1))
	require.NoError(t, s.Add(rectElement("child", 0, 0, 10, 10), "g", -1))

	svg := string(export.RenderSVG(s, 100, 100))
	assert.Contains(t, svg, `<g transform="matrix(1 0 0 1 50 0)">`)
	assert.Contains(t, svg, "</g>")
	assert.Contains(t, svg, "<path")
}

func TestRenderSVG_SkipsHiddenElements(t *testing.T) {
	s := scene.NewStore()
	hidden := rectElement("ghost", 0, 0, 10, 10)
	hidden.Visible = false
	require.NoError(t, s.Add(hidden, "", -1))
	require.NoError(t, s.Add(rectElement("shown", 20, 20, 10, 10), "", -1))

	svg := string(export.RenderSVG(s, 100, 100))
	assert.NotContains(t, svg, "M 0 0")
	assert.Contains(t, svg, "M 20 20")
}

func TestRenderSVG_SkipsUnderfilledCommands(t *testing.T) {
	s := scene.NewStore()
	el := rectElement("partial", 10, 10, 20, 20)
	el.Path = append(el.Path, geom.SubPath{
		{Op: geom.OpMove},
		{Op: geom.OpCubic, Points: []curve.Point{curve.Pt(1, 1)}},
	})
	require.NoError(t, s.Add(el, "", -1))

	svg := string(export.RenderSVG(s, 100, 100))
	assert.Contains(t, svg, `d="M 10 10 L 30 10 L 30 30 L 10 30 Z"`)
	assert.NotContains(t, svg, "C ")
}

func TestRenderSVG_StrokeOnlyPath(t *testing.T) {
	s := scene.NewStore()
	el := rectElement("outline", 0, 0, 10, 10)
	el.Style = scene.Style{Stroke: "#e8554d", StrokeWidth: 2.5, Opacity: 0.5}
	require.NoError(t, s.Add(el, "", -1))

	svg := string(export.RenderSVG(s, 100, 100))
	assert.Contains(t, svg, `fill="none"`)
	assert.Contains(t, svg, `stroke="#e8554d" stroke-width="2.5"`)
	assert.Contains(t, svg, `opacity="0.5"`)
}
