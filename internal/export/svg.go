// Package export renders a scene to standalone SVG.
package export

import (
	"fmt"
	"strings"

	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/geom"
	"github.com/vectorpad/vectorpad/internal/scene"
)

// RenderSVG serializes the store's scene, in z-order, as an SVG document of
// the given size. Hidden elements are skipped; groups become <g> nodes so
// their transform applies to every descendant.
func RenderSVG(store *scene.Store, width, height int) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		width, height, width, height)
	b.WriteByte('\n')
	for _, id := range store.Roots() {
		renderElement(&b, store, id, 1)
	}
	b.WriteString("</svg>\n")
	return []byte(b.String())
}

func renderElement(b *strings.Builder, store *scene.Store, id string, depth int) {
	el, ok := store.Get(id)
	if !ok || !el.Visible {
		return
	}
	indent := strings.Repeat("  ", depth)

	if el.IsGroup() {
		fmt.Fprintf(b, "%s<g%s>\n", indent, transformAttr(el.Transform.Matrix()))
		for _, child := range el.Children {
			renderElement(b, store, child, depth+1)
		}
		fmt.Fprintf(b, "%s</g>\n", indent)
		return
	}

	fmt.Fprintf(b, "%s<path d=\"%s\"%s%s/>\n",
		indent, pathData(el.Path), transformAttr(el.Transform.Matrix()), styleAttrs(el.Style))
}

func transformAttr(aff curve.Affine) string {
	if aff == curve.Identity {
		return ""
	}
	return fmt.Sprintf(` transform="matrix(%s %s %s %s %s %s)"`,
		num(aff.N0), num(aff.N1), num(aff.N2), num(aff.N3), num(aff.N4), num(aff.N5))
}

func styleAttrs(st scene.Style) string {
	var b strings.Builder
	if st.Fill != "" {
		fmt.Fprintf(&b, ` fill="%s"`, st.Fill)
	} else {
		b.WriteString(` fill="none"`)
	}
	if st.Stroke != "" {
		fmt.Fprintf(&b, ` stroke="%s" stroke-width="%s"`, st.Stroke, num(st.StrokeWidth))
	}
	if st.Opacity > 0 && st.Opacity < 1 {
		fmt.Fprintf(&b, ` opacity="%s"`, num(st.Opacity))
	}
	return b.String()
}

func pathData(path []geom.SubPath) string {
	var b strings.Builder
	for _, sp := range path {
		for _, cmd := range sp {
			frag := commandData(cmd)
			if frag == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(frag)
		}
	}
	return b.String()
}

// commandData serializes one command. Commands carrying fewer points than
// their op requires produce nothing instead of broken output.
func commandData(cmd geom.Command) string {
	switch cmd.Op {
	case geom.OpMove:
		if len(cmd.Points) < 1 {
			return ""
		}
		return fmt.Sprintf("M %s %s", num(cmd.Points[0].X), num(cmd.Points[0].Y))
	case geom.OpLine:
		if len(cmd.Points) < 1 {
			return ""
		}
		return fmt.Sprintf("L %s %s", num(cmd.Points[0].X), num(cmd.Points[0].Y))
	case geom.OpCubic:
		if len(cmd.Points) < 3 {
			return ""
		}
		return fmt.Sprintf("C %s %s %s %s %s %s",
			num(cmd.Points[0].X), num(cmd.Points[0].Y),
			num(cmd.Points[1].X), num(cmd.Points[1].Y),
			num(cmd.Points[2].X), num(cmd.Points[2].Y))
	case geom.OpClose:
		return "Z"
	}
	return ""
}

func num(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
