package admin

import (
	"slices"

	"github.com/feddict/feddict/internal/model"
)

// Selection is the set of term ids marked for bulk deletion.
type Selection struct {
	ids map[model.TermID]struct{}
}

// NewSelection returns a selection holding ids.
func NewSelection(ids ...model.TermID) *Selection {
	s := &Selection{ids: make(map[model.TermID]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add marks id. Empty ids are ignored.
func (s *Selection) Add(id model.TermID) {
	if id == "" {
		return
	}
	if s.ids == nil {
		s.ids = make(map[model.TermID]struct{})
	}
	s.ids[id] = struct{}{}
}

// Remove unmarks id.
func (s *Selection) Remove(id model.TermID) {
	delete(s.ids, id)
}

// Toggle flips id and reports whether it is now selected.
func (s *Selection) Toggle(id model.TermID) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return s.Has(id)
}

// Has reports whether id is selected.
func (s *Selection) Has(id model.TermID) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }

// IDs returns the selected ids in sorted order.
func (s *Selection) IDs() []model.TermID {
	out := make([]model.TermID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Clear removes every id.
func (s *Selection) Clear() {
	clear(s.ids)
}
