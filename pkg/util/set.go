package util

// Set tracks membership of comparable values
type Set[K comparable] map[K]struct{}

// SetOf builds a Set from the elements given, dropping duplicates
func SetOf[K comparable](elements ...K) Set[K] {
	res := make(Set[K], len(elements))
	for _, e := range elements {
		res.Add(e)
	}
	return res
}

// Add stores the key in the set
func (s Set[K]) Add(key K) {
	s[key] = struct{}{}
}

// Contains returns whether the key is a member of the set
func (s Set[K]) Contains(key K) bool {
	_, ok := s[key]
	return ok
}

// IsEmpty returns whether the set has no members
func (s Set[K]) IsEmpty() bool {
	return len(s) == 0
}
