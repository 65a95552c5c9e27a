package achievement

// Set is the ordered collection of unlocked ids. Membership only grows.
// A Set is not safe for concurrent use.
type Set struct {
	ids  []ID
	seen map[ID]struct{}
}

// NewSet creates a set holding ids in order, dropping duplicates and empty ids.
func NewSet(ids ...ID) *Set {
	s := &Set{seen: make(map[ID]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// SetFromStrings rebuilds a set from persisted ids.
func SetFromStrings(ids []string) *Set {
	s := NewSet()
	for _, id := range ids {
		s.Add(ID(id))
	}
	return s
}

// Add inserts id and reports whether it was new.
func (s *Set) Add(id ID) bool {
	if id == "" {
		return false
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Has reports whether id is unlocked.
func (s *Set) Has(id ID) bool {
	_, ok := s.seen[id]
	return ok
}

// Len returns the number of unlocked ids.
func (s *Set) Len() int {
	return len(s.ids)
}

// IDs returns the unlocked ids in unlock order.
func (s *Set) IDs() []ID {
	out := make([]ID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Strings returns the unlocked ids as plain strings in unlock order.
func (s *Set) Strings() []string {
	out := make([]string, len(s.ids))
	for i, id := range s.ids {
		out[i] = string(id)
	}
	return out
}
