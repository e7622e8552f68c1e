package scene

import (
	"encoding/json"
	"fmt"

	"github.com/vectorpad/vectorpad/internal/geom"
)

// Operation types replicated between clients. Local edits and externally
// received operations both go through Store.Apply; there is no separate
// code path for remote mutations.
const (
	OpElementTransform  = "element.transform"
	OpElementGeometry   = "element.geometry"
	OpElementStyle      = "element.style"
	OpElementCreate     = "element.create"
	OpElementDelete     = "element.delete"
	OpElementReparent   = "element.reparent"
	OpElementVisibility = "element.visibility"
	OpElementLocked     = "element.locked"
	OpSceneReplace      = "scene.replace"
)

// Operation is one scene mutation. Only the fields relevant to its Type are
// set; unknown types are rejected by Apply.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ElementID string `json:"elementId,omitempty"`

	// element.transform
	Transform json.RawMessage `json:"transform,omitempty"`

	// element.geometry: full replacement path data
	Geometry json.RawMessage `json:"geometry,omitempty"`

	// element.style
	Style json.RawMessage `json:"style,omitempty"`

	// element.create
	Element  json.RawMessage `json:"element,omitempty"`
	ParentID string          `json:"parentId,omitempty"`
	Index    *int            `json:"index,omitempty"`

	// element.reparent
	NewParentID string `json:"newParentId,omitempty"`
	NewIndex    int    `json:"newIndex,omitempty"`

	// element.visibility / element.locked
	Visible *bool `json:"visible,omitempty"`
	Locked  *bool `json:"locked,omitempty"`

	// scene.replace
	Elements json.RawMessage `json:"elements,omitempty"`
}

// Apply mutates the store according to the operation.
func (s *Store) Apply(op Operation) error {
	switch op.Type {
	case OpElementTransform:
		return s.applyTransform(op)
	case OpElementGeometry:
		return s.applyGeometry(op)
	case OpElementStyle:
		return s.applyStyle(op)
	case OpElementCreate:
		return s.applyCreate(op)
	case OpElementDelete:
		return s.Remove(op.ElementID)
	case OpElementReparent:
		return s.Reparent(op.ElementID, op.NewParentID, op.NewIndex)
	case OpElementVisibility:
		return s.applyVisibility(op)
	case OpElementLocked:
		return s.applyLocked(op)
	case OpSceneReplace:
		return s.applyReplace(op)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func (s *Store) applyTransform(op Operation) error {
	el, ok := s.elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element %s: %w", op.ElementID, ErrNotFound)
	}

	var changes map[string]float64
	if err := json.Unmarshal(op.Transform, &changes); err != nil {
		return fmt.Errorf("invalid transform: %w", err)
	}

	if v, ok := changes["x"]; ok {
		el.Transform.X = v
	}
	if v, ok := changes["y"]; ok {
		el.Transform.Y = v
	}
	if v, ok := changes["sx"]; ok {
		el.Transform.SX = v
	}
	if v, ok := changes["sy"]; ok {
		el.Transform.SY = v
	}
	if v, ok := changes["r"]; ok {
		el.Transform.R = v
	}
	if v, ok := changes["skewX"]; ok {
		el.Transform.SkewX = v
	}
	if v, ok := changes["skewY"]; ok {
		el.Transform.SkewY = v
	}
	if v, ok := changes["ax"]; ok {
		el.Transform.AX = v
	}
	if v, ok := changes["ay"]; ok {
		el.Transform.AY = v
	}
	return nil
}

func (s *Store) applyGeometry(op Operation) error {
	el, ok := s.elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element %s: %w", op.ElementID, ErrNotFound)
	}
	if !el.IsPath() {
		return fmt.Errorf("element %s is not a path", op.ElementID)
	}

	var path []geom.SubPath
	if err := json.Unmarshal(op.Geometry, &path); err != nil {
		return fmt.Errorf("invalid geometry: %w", err)
	}
	el.Path = path
	return nil
}

func (s *Store) applyStyle(op Operation) error {
	el, ok := s.elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element %s: %w", op.ElementID, ErrNotFound)
	}

	var changes map[string]any
	if err := json.Unmarshal(op.Style, &changes); err != nil {
		return fmt.Errorf("invalid style: %w", err)
	}

	if v, ok := changes["fill"].(string); ok {
		el.Style.Fill = v
	}
	if v, ok := changes["stroke"].(string); ok {
		el.Style.Stroke = v
	}
	if v, ok := changes["strokeWidth"].(float64); ok {
		el.Style.StrokeWidth = v
	}
	if v, ok := changes["opacity"].(float64); ok {
		el.Style.Opacity = v
	}
	return nil
}

func (s *Store) applyCreate(op Operation) error {
	var el Element
	if err := json.Unmarshal(op.Element, &el); err != nil {
		return fmt.Errorf("invalid element: %w", err)
	}
	el.Children = nil

	index := -1
	if op.Index != nil {
		index = *op.Index
	}
	return s.Add(&el, op.ParentID, index)
}

func (s *Store) applyVisibility(op Operation) error {
	el, ok := s.elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element %s: %w", op.ElementID, ErrNotFound)
	}
	if op.Visible != nil {
		el.Visible = *op.Visible
	}
	return nil
}

func (s *Store) applyLocked(op Operation) error {
	el, ok := s.elements[op.ElementID]
	if !ok {
		return fmt.Errorf("element %s: %w", op.ElementID, ErrNotFound)
	}
	if op.Locked != nil {
		el.Locked = *op.Locked
	}
	return nil
}

func (s *Store) applyReplace(op Operation) error {
	var elements []*Element
	if err := json.Unmarshal(op.Elements, &elements); err != nil {
		return fmt.Errorf("invalid elements: %w", err)
	}
	return s.Replace(elements)
}
