package fsm

import "slices"

// Mask is a set of state ids used for queries. It is never a state itself.
type Mask[S comparable] struct {
	ids []S
}

// Union builds a mask holding each of ids once, in first-seen order.
func Union[S comparable](ids ...S) Mask[S] {
	var m Mask[S]
	for _, id := range ids {
		m = m.With(id)
	}
	return m
}

// With returns a copy of m that also contains id.
func (m Mask[S]) With(id S) Mask[S] {
	if m.Has(id) {
		return m
	}
	ids := make([]S, len(m.ids), len(m.ids)+1)
	copy(ids, m.ids)
	return Mask[S]{ids: append(ids, id)}
}

// Or merges two masks.
func (m Mask[S]) Or(other Mask[S]) Mask[S] {
	for _, id := range other.ids {
		m = m.With(id)
	}
	return m
}

// Has reports whether id is in the mask.
func (m Mask[S]) Has(id S) bool {
	return slices.Contains(m.ids, id)
}

// IDs returns the members of the mask.
func (m Mask[S]) IDs() []S {
	return slices.Clone(m.ids)
}

func (m Mask[S]) Len() int {
	return len(m.ids)
}
