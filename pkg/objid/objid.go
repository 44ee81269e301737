// Package objid defines the stable object identity used throughout burrow's
// storage core.
package objid

import (
	"fmt"
	"sort"
)

// Objid is the stable integer identity of an object. The on-disk wire width
// is a signed 8-byte integer (see pkg/wirecodec); in memory it is carried as
// an int32, which is ample for any world this core will ever hold and keeps
// Set cheap to copy.
type Objid int32

// NOTHING is the distinguished null object reference: "no object".
const NOTHING Objid = -1

// Valid reports whether o is anything other than NOTHING. It does not check
// that the object actually exists in the database.
func (o Objid) Valid() bool {
	return o != NOTHING
}

func (o Objid) String() string {
	if o == NOTHING {
		return "#-1"
	}
	return fmt.Sprintf("#%d", int32(o))
}

// Set is an unordered collection of Objids with set semantics. The zero
// value is an empty set.
type Set struct {
	m map[Objid]struct{}
}

// NewSet builds a Set from the given members.
func NewSet(members ...Objid) Set {
	s := Set{m: make(map[Objid]struct{}, len(members))}
	for _, m := range members {
		s.m[m] = struct{}{}
	}
	return s
}

// Contains reports whether o is a member of the set.
func (s Set) Contains(o Objid) bool {
	if s.m == nil {
		return false
	}
	_, ok := s.m[o]
	return ok
}

// Add inserts o into the set, returning the (possibly new) set. Sets are
// treated as immutable by callers of the working set and global cache, so
// Add always returns a fresh copy rather than mutating in place.
func (s Set) Add(o Objid) Set {
	out := s.clone()
	out.m[o] = struct{}{}
	return out
}

// Remove deletes o from the set, returning a fresh copy.
func (s Set) Remove(o Objid) Set {
	out := s.clone()
	delete(out.m, o)
	return out
}

func (s Set) clone() Set {
	out := Set{m: make(map[Objid]struct{}, len(s.m)+1)}
	for k := range s.m {
		out.m[k] = struct{}{}
	}
	return out
}

// Len returns the number of members.
func (s Set) Len() int {
	return len(s.m)
}

// ToSlice returns the members in ascending numeric order. Canonical
// ordering keeps the wire encoding stable for identical sets, which the
// wirecodec golden tests rely on even though the commit pipeline's apply
// step never compares encoded bytes directly.
func (s Set) ToSlice() []Objid {
	out := make([]Objid, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FromSlice builds a Set from a slice, deduplicating members.
func FromSlice(members []Objid) Set {
	return NewSet(members...)
}
