// Package clock provides the version stamps that order a buffer's edit history.
//
// A Local timestamp identifies a single edit (or the creation of an anchor) on one
// replica. A Global version vector summarises every edit a buffer snapshot has observed,
// and supports the partial order used to decide whether cached hints are stale.
package clock

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ReplicaID identifies the replica that produced an edit.
type ReplicaID uint16

// Local is a lamport timestamp scoped to one replica.
type Local struct {
	Replica ReplicaID
	Value   uint32
}

// Compare orders timestamps by value, then by replica. The order is total.
func (l Local) Compare(other Local) int {
	if c := cmp.Compare(l.Value, other.Value); c != 0 {
		return c
	}

	return cmp.Compare(l.Replica, other.Replica)
}

func (l Local) String() string {
	return fmt.Sprintf("%d@%d", l.Value, l.Replica)
}

// Tick returns the next timestamp for the same replica.
func (l Local) Tick() Local {
	return Local{Replica: l.Replica, Value: l.Value + 1}
}

// Global is a version vector: the highest observed timestamp value per replica.
// The zero value is the empty version, observed by every other version.
type Global struct {
	values map[ReplicaID]uint32
}

// NewGlobal builds a version from the given timestamps.
func NewGlobal(timestamps ...Local) Global {
	var g Global
	for _, ts := range timestamps {
		g.Observe(ts)
	}

	return g
}

// Get returns the highest observed value for replica.
func (g Global) Get(replica ReplicaID) uint32 {
	return g.values[replica]
}

// Observe records ts in the version.
func (g *Global) Observe(ts Local) {
	if g.values == nil {
		g.values = make(map[ReplicaID]uint32)
	}

	if ts.Value > g.values[ts.Replica] {
		g.values[ts.Replica] = ts.Value
	}
}

// Observed reports whether g has seen everything other has, i.e. g >= other.
func (g Global) Observed(other Global) bool {
	for replica, value := range other.values {
		if g.values[replica] < value {
			return false
		}
	}

	return true
}

// ChangedSince reports whether g contains any edit other has not observed.
func (g Global) ChangedSince(other Global) bool {
	for replica, value := range g.values {
		if value > other.values[replica] {
			return true
		}
	}

	return false
}

// Equal reports whether both versions observed exactly the same edits.
func (g Global) Equal(other Global) bool {
	return g.Observed(other) && other.Observed(g)
}

// Join returns the least version that has observed both g and other.
func (g Global) Join(other Global) Global {
	out := g.Clone()
	for replica, value := range other.values {
		out.Observe(Local{Replica: replica, Value: value})
	}

	return out
}

// Clone returns an independent copy of g.
func (g Global) Clone() Global {
	if g.values == nil {
		return Global{}
	}

	return Global{values: maps.Clone(g.values)}
}

func (g Global) String() string {
	replicas := slices.Sorted(maps.Keys(g.values))

	parts := make([]string, 0, len(replicas))
	for _, replica := range replicas {
		parts = append(parts, Local{Replica: replica, Value: g.values[replica]}.String())
	}

	return "{" + strings.Join(parts, ", ") + "}"
}
