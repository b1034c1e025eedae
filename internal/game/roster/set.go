package roster

// Set is an insertion-ordered set of combatant references.
// The zero value is an empty set ready for use.
type Set struct {
	refs []Ref
}

// NewSet builds a Set from refs, dropping duplicates but keeping first-seen order.
func NewSet(refs ...Ref) Set {
	var s Set
	for _, r := range refs {
		s.Add(r)
	}
	return s
}

// Add inserts ref at the end unless it is already present.
//
// Postcondition: Returns true iff ref was newly added.
func (s *Set) Add(ref Ref) bool {
	if s.Contains(ref) {
		return false
	}
	s.refs = append(s.refs, ref)
	return true
}

// Remove deletes ref, preserving the order of the others.
func (s *Set) Remove(ref Ref) bool {
	for i, r := range s.refs {
		if r == ref {
			s.refs = append(s.refs[:i:i], s.refs[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether ref is in the set.
func (s Set) Contains(ref Ref) bool {
	for _, r := range s.refs {
		if r == ref {
			return true
		}
	}
	return false
}

// Len returns the number of references.
func (s Set) Len() int { return len(s.refs) }

// Empty reports whether the set has no references.
func (s Set) Empty() bool { return len(s.refs) == 0 }

// Refs returns a copy of the references in insertion order.
func (s Set) Refs() []Ref {
	out := make([]Ref, len(s.refs))
	copy(out, s.refs)
	return out
}

// Clear removes every reference.
func (s *Set) Clear() { s.refs = nil }
