package tenancy

import (
	"slices"

	"github.com/google/uuid"
)

// Selection is an ordered set of module ids being assembled for a company.
// Modules carry no dependencies on each other, so any subset is valid.
type Selection struct {
	ids []uuid.UUID
}

// NewSelection builds a selection from ids, dropping duplicates and keeping
// first-seen order.
func NewSelection(ids ...uuid.UUID) *Selection {
	s := &Selection{ids: make([]uuid.UUID, 0, len(ids))}
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Toggle adds id when absent and removes it when present. It reports whether
// id is selected afterwards.
func (s *Selection) Toggle(id uuid.UUID) bool {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

func (s *Selection) Contains(id uuid.UUID) bool {
	return slices.Contains(s.ids, id)
}

// IDs returns a copy of the selected ids in selection order.
func (s *Selection) IDs() []uuid.UUID {
	return slices.Clone(s.ids)
}

func (s *Selection) Len() int {
	return len(s.ids)
}
