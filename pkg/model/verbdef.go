package model

import (
	"strings"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/google/uuid"
)

// VerbDef is the metadata for one verb defined on an object: UUID, owner,
// the set of name patterns it matches, its permission flags, binary type,
// and its command argument-spec template. The compiled binary itself lives
// separately in object_verbs, keyed by (object, UUID).
type VerbDef struct {
	UUID       uuid.UUID
	Location   objid.Objid
	Owner      objid.Objid
	Names      []string
	Flags      bitenum.BitEnum[VerbFlag]
	BinaryType BinaryType
	Args       ArgSpec
}

// VerbDefs is the ordered sequence of verb declarations on one object;
// order is creation order and is observable via get_verb_by_index.
type VerbDefs []VerbDef

// FindByUUID returns the entry (if any) with the given UUID.
func (v VerbDefs) FindByUUID(id uuid.UUID) (VerbDef, bool) {
	for _, vd := range v {
		if vd.UUID == id {
			return vd, true
		}
	}
	return VerbDef{}, false
}

// Without returns a copy of v with the entry matching id removed.
func (v VerbDefs) Without(id uuid.UUID) VerbDefs {
	out := make(VerbDefs, 0, len(v))
	for _, vd := range v {
		if vd.UUID != id {
			out = append(out, vd)
		}
	}
	return out
}

// NameMatches reports whether candidate matches any of this verb's name
// patterns under the shell-style wildcard rule: a `*` in a pattern marks
// the point past which the match may truncate. "foo*bar" matches any
// candidate that is a case-insensitive prefix of "foobar" at least as long
// as "foo", e.g. "foo", "foob", "fooba", "foobar". A pattern with no `*`
// requires an exact case-insensitive match, and a bare `*` matches
// anything. These are LambdaMOO's verb matching rules, pinned by the
// golden table in match_test.go.
func (v VerbDef) NameMatches(candidate string) bool {
	candidate = strings.ToLower(candidate)
	for _, pattern := range v.Names {
		if nameMatchesOne(strings.ToLower(pattern), candidate) {
			return true
		}
	}
	return false
}

func nameMatchesOne(pattern, candidate string) bool {
	// A bare star is the catch-all verb name and matches anything.
	if pattern == "*" {
		return true
	}
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return pattern == candidate
	}
	before, after := pattern[:star], pattern[star+1:]
	full := before + after
	if len(candidate) < len(before) {
		return false
	}
	if !strings.HasPrefix(candidate, before) {
		return false
	}
	if len(candidate) > len(full) {
		return false
	}
	// candidate must continue matching `after` from where `before` left off.
	return strings.HasPrefix(after, candidate[len(before):])
}
