package scene

import (
	"math"

	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/geom"
)

type ElementType string

const (
	ElementTypePath  ElementType = "Path"
	ElementTypeGroup ElementType = "Group"
)

// Transform holds the decomposed affine parameters of a group. Path geometry
// is stored in scene space, so paths normally carry an identity transform;
// groups use this to position their subtree.
type Transform struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	SX    float64 `json:"sx"`
	SY    float64 `json:"sy"`
	R     float64 `json:"r"` // degrees
	SkewX float64 `json:"skewX"`
	SkewY float64 `json:"skewY"`
	AX    float64 `json:"ax"` // anchor: rotation/scale center
	AY    float64 `json:"ay"`
}

// IdentityTransform returns a transform with unit scale and no offset.
func IdentityTransform() Transform {
	return Transform{SX: 1, SY: 1}
}

// Matrix composes Translate(x,y) * Rotate(r) * Skew * Scale(sx,sy) about the
// anchor point.
func (t Transform) Matrix() curve.Affine {
	anchor := curve.Vec(t.AX, t.AY)
	m := curve.Translate(anchor.Negate())
	m = curve.Scale(t.SX, t.SY).Mul(m)
	m = curve.Skew(math.Tan(t.SkewX*math.Pi/180), math.Tan(t.SkewY*math.Pi/180)).Mul(m)
	m = curve.Rotate(t.R * math.Pi / 180).Mul(m)
	m = curve.Translate(curve.Vec(t.X+t.AX, t.Y+t.AY)).Mul(m)
	return m
}

type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
}

// Element is a scene node: a path (subpaths of explicit commands) or a group
// (ordered child ids). Identity is the stable string ID; the store owns all
// elements and groups reference children by id only.
type Element struct {
	ID        string         `json:"id"`
	Type      ElementType    `json:"type"`
	Parent    *string        `json:"parent"`
	Children  []string       `json:"children,omitempty"`
	Transform Transform      `json:"transform"`
	Style     Style          `json:"style"`
	Visible   bool           `json:"visible"`
	Locked    bool           `json:"locked"`
	Path      []geom.SubPath `json:"path,omitempty"`
}

func (e *Element) IsGroup() bool { return e.Type == ElementTypeGroup }
func (e *Element) IsPath() bool  { return e.Type == ElementTypePath }

// Clone returns a deep copy, including path geometry and the children list.
// This is the snapshot primitive the transform engine recomputes from.
func (e *Element) Clone() *Element {
	out := *e
	if e.Parent != nil {
		p := *e.Parent
		out.Parent = &p
	}
	if e.Children != nil {
		out.Children = make([]string, len(e.Children))
		copy(out.Children, e.Children)
	}
	if e.Path != nil {
		out.Path = geom.ClonePath(e.Path)
	}
	return &out
}

// Document is the serialized form of a whole scene: elements in z-order
// (parents before children, roots in stacking order).
type Document struct {
	Name     string     `json:"name"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Elements []*Element `json:"elements"`
}
