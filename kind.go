package inlay

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind classifies an inlay hint.
type Kind uint8

const (
	// KindOther is used for hints the source reports without a kind.
	KindOther Kind = iota
	// KindType marks inferred type annotations.
	KindType
	// KindParameter marks parameter name annotations.
	KindParameter
)

var kindNames = map[Kind]string{
	KindOther:     "other",
	KindType:      "type",
	KindParameter: "parameter",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses a kind name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	for kind, name := range kindNames {
		if strings.EqualFold(s, name) {
			return kind, nil
		}
	}

	return KindOther, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// UnmarshalYAML accepts kind names.
func (k *Kind) UnmarshalYAML(node *yaml.Node) error {
	kind, err := ParseKind(node.Value)
	if err != nil {
		return err
	}

	*k = kind

	return nil
}

// MarshalYAML writes the kind name.
func (k Kind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// KindSet is a set of hint kinds.
type KindSet uint8

// AllKinds contains every kind.
const AllKinds = KindSet(1<<KindOther | 1<<KindType | 1<<KindParameter)

// NewKindSet builds a set from kinds.
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.Add(k)
	}

	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	return s&(1<<k) != 0
}

// Add returns s with k added.
func (s KindSet) Add(k Kind) KindSet {
	return s | 1<<k
}

// Difference returns the kinds in s that are not in other.
func (s KindSet) Difference(other KindSet) KindSet {
	return s &^ other
}

// IsEmpty reports whether the set holds no kinds.
func (s KindSet) IsEmpty() bool {
	return s == 0
}

// Kinds lists the members in ascending order.
func (s KindSet) Kinds() []Kind {
	var kinds []Kind

	for _, k := range []Kind{KindOther, KindType, KindParameter} {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}

	return kinds
}

func (s KindSet) String() string {
	names := make([]string, 0, 3)
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}

	return "{" + strings.Join(names, ", ") + "}"
}
