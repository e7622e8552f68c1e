package scene

import (
	"errors"
	"fmt"

	"honnef.co/go/curve"

	"github.com/vectorpad/vectorpad/internal/geom"
)

var (
	ErrNotFound = errors.New("element not found")
	ErrCycle    = errors.New("element cannot contain itself")
)

// Store owns every element of one scene. Roots are z-ordered bottom to top;
// a group's children list is the z-order among siblings. The store is bound
// to the single UI goroutine; the collab layer adds its own locking on top.
type Store struct {
	elements map[string]*Element
	roots    []string
}

func NewStore() *Store {
	return &Store{elements: make(map[string]*Element)}
}

func (s *Store) Get(id string) (*Element, bool) {
	el, ok := s.elements[id]
	return el, ok
}

func (s *Store) Len() int { return len(s.elements) }

// Roots returns the top-level element ids in z-order.
func (s *Store) Roots() []string {
	out := make([]string, len(s.roots))
	copy(out, s.roots)
	return out
}

// Add inserts an element under the given parent (empty parent = root) at the
// given index; a negative index appends. Containment cycles are rejected.
func (s *Store) Add(el *Element, parentID string, index int) error {
	if _, exists := s.elements[el.ID]; exists {
		return fmt.Errorf("element %s already exists", el.ID)
	}
	if parentID == "" {
		el.Parent = nil
		s.elements[el.ID] = el
		s.roots = insertAt(s.roots, el.ID, index)
		return nil
	}
	parent, ok := s.elements[parentID]
	if !ok {
		return fmt.Errorf("parent %s: %w", parentID, ErrNotFound)
	}
	if !parent.IsGroup() {
		return fmt.Errorf("parent %s is not a group", parentID)
	}
	el.Parent = &parentID
	s.elements[el.ID] = el
	parent.Children = insertAt(parent.Children, el.ID, index)
	return nil
}

// Remove deletes an element and its whole subtree.
func (s *Store) Remove(id string) error {
	el, ok := s.elements[id]
	if !ok {
		return fmt.Errorf("element %s: %w", id, ErrNotFound)
	}
	for _, childID := range append([]string(nil), el.Children...) {
		s.Remove(childID)
	}
	if el.Parent != nil {
		if parent, ok := s.elements[*el.Parent]; ok {
			parent.Children = removeID(parent.Children, id)
		}
	} else {
		s.roots = removeID(s.roots, id)
	}
	delete(s.elements, id)
	return nil
}

// Reparent moves an element under a new parent at the given index. Moving a
// group into its own subtree is rejected.
func (s *Store) Reparent(id, newParentID string, index int) error {
	el, ok := s.elements[id]
	if !ok {
		return fmt.Errorf("element %s: %w", id, ErrNotFound)
	}
	if newParentID != "" {
		if id == newParentID || s.IsAncestor(id, newParentID) {
			return ErrCycle
		}
		newParent, ok := s.elements[newParentID]
		if !ok {
			return fmt.Errorf("new parent %s: %w", newParentID, ErrNotFound)
		}
		if !newParent.IsGroup() {
			return fmt.Errorf("new parent %s is not a group", newParentID)
		}
	}

	if el.Parent != nil {
		if oldParent, ok := s.elements[*el.Parent]; ok {
			oldParent.Children = removeID(oldParent.Children, id)
		}
	} else {
		s.roots = removeID(s.roots, id)
	}

	if newParentID == "" {
		el.Parent = nil
		s.roots = insertAt(s.roots, id, index)
	} else {
		pid := newParentID
		el.Parent = &pid
		parent := s.elements[newParentID]
		parent.Children = insertAt(parent.Children, id, index)
	}
	return nil
}

// IsAncestor reports whether anc is an ancestor of id.
func (s *Store) IsAncestor(anc, id string) bool {
	el, ok := s.elements[id]
	if !ok {
		return false
	}
	for el.Parent != nil {
		if *el.Parent == anc {
			return true
		}
		parent, ok := s.elements[*el.Parent]
		if !ok {
			return false
		}
		el = parent
	}
	return false
}

// Descendants returns the ids of the whole subtree below id, depth-first in
// z-order. The element itself is not included.
func (s *Store) Descendants(id string) []string {
	el, ok := s.elements[id]
	if !ok {
		return nil
	}
	var out []string
	for _, childID := range el.Children {
		out = append(out, childID)
		out = append(out, s.Descendants(childID)...)
	}
	return out
}

// PathDescendants returns the path elements of the subtree below id,
// including id itself when it is a path.
func (s *Store) PathDescendants(id string) []string {
	el, ok := s.elements[id]
	if !ok {
		return nil
	}
	if el.IsPath() {
		return []string{id}
	}
	var out []string
	for _, childID := range el.Children {
		out = append(out, s.PathDescendants(childID)...)
	}
	return out
}

// Walk visits every element depth-first in z-order, parents before children.
func (s *Store) Walk(fn func(*Element)) {
	var visit func(id string)
	visit = func(id string) {
		el, ok := s.elements[id]
		if !ok {
			return
		}
		fn(el)
		for _, childID := range el.Children {
			visit(childID)
		}
	}
	for _, id := range s.roots {
		visit(id)
	}
}

// WorldMatrix accumulates group transforms from the root down to id's parent
// and composes them with id's own transform.
func (s *Store) WorldMatrix(id string) curve.Affine {
	el, ok := s.elements[id]
	if !ok {
		return curve.Identity
	}
	m := el.Transform.Matrix()
	for el.Parent != nil {
		parent, ok := s.elements[*el.Parent]
		if !ok {
			break
		}
		m = parent.Transform.Matrix().Mul(m)
		el = parent
	}
	return m
}

// Bounds returns the world-space bounds of an element. Group bounds are the
// union of descendant path bounds.
func (s *Store) Bounds(id string) (curve.Rect, bool) {
	el, ok := s.elements[id]
	if !ok {
		return curve.Rect{}, false
	}
	if el.IsPath() {
		b, ok := geom.PathBounds(el.Path)
		if !ok {
			return curve.Rect{}, false
		}
		m := s.WorldMatrix(id)
		return m.TransformRectBoundingBox(b), true
	}
	var bounds curve.Rect
	first := true
	for _, pid := range s.PathDescendants(id) {
		b, ok := s.Bounds(pid)
		if !ok {
			continue
		}
		if first {
			bounds = b
			first = false
		} else {
			bounds = bounds.Union(b)
		}
	}
	return bounds, !first
}

// SelectionBounds returns the combined world bounds of a set of element ids,
// descendants included.
func (s *Store) SelectionBounds(ids []string) (curve.Rect, bool) {
	var bounds curve.Rect
	first := true
	for _, id := range ids {
		b, ok := s.Bounds(id)
		if !ok {
			continue
		}
		if first {
			bounds = b
			first = false
		} else {
			bounds = bounds.Union(b)
		}
	}
	return bounds, !first
}

// Replace swaps in a whole new scene. Elements arrive in z-order with parent
// references already set; containment is re-validated.
func (s *Store) Replace(elements []*Element) error {
	next := NewStore()
	for _, el := range elements {
		parentID := ""
		if el.Parent != nil {
			parentID = *el.Parent
		}
		clone := el.Clone()
		clone.Children = nil
		if err := next.Add(clone, parentID, -1); err != nil {
			return fmt.Errorf("replace scene: %w", err)
		}
	}
	s.elements = next.elements
	s.roots = next.roots
	return nil
}

// Snapshot returns the scene as a z-ordered element list (deep copies).
func (s *Store) Snapshot() []*Element {
	var out []*Element
	s.Walk(func(el *Element) {
		out = append(out, el.Clone())
	})
	return out
}

func insertAt(ids []string, id string, index int) []string {
	if index < 0 || index > len(ids) {
		return append(ids, id)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	out = append(out, ids[index:]...)
	return out
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
