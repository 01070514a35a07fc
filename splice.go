package inlay

// Inserted is a hint the view should start displaying.
type Inserted struct {
	ID     ID
	Anchor Anchor
	Hint   Hint
}

// Splice is the minimal set of view changes produced by a cache update.
// Remove must be applied before, or atomically with, Insert.
type Splice struct {
	Remove []ID
	Insert []Inserted
}

// IsEmpty reports whether the splice changes nothing.
func (s Splice) IsEmpty() bool {
	return len(s.Remove) == 0 && len(s.Insert) == 0
}

// Append adds the changes of other after those of s.
func (s *Splice) Append(other Splice) {
	s.Remove = append(s.Remove, other.Remove...)
	s.Insert = append(s.Insert, other.Insert...)
}
