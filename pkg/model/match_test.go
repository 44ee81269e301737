package model

import (
	"testing"
)

// TestVerbNameMatching is the golden table for the wildcard rule: a `*`
// marks the point past which the candidate may truncate, so "foo*bar"
// accepts "foo", "foob", ..., "foobar" and nothing else. Extracted from
// the behavior of the LambdaMOO-derived matcher.
func TestVerbNameMatching(t *testing.T) {
	cases := []struct {
		pattern   string
		candidate string
		want      bool
	}{
		// No wildcard: exact, case-insensitive.
		{"look", "look", true},
		{"look", "LOOK", true},
		{"look", "loo", false},
		{"look", "looks", false},

		// Wildcard mid-pattern.
		{"foo*bar", "foo", true},
		{"foo*bar", "foob", true},
		{"foo*bar", "fooba", true},
		{"foo*bar", "foobar", true},
		{"foo*bar", "foobars", false},
		{"foo*bar", "fo", false},
		{"foo*bar", "fooxar", false},
		{"foo*bar", "FOOBAR", true},

		// Trailing wildcard: prefix may not be extended.
		{"look*", "look", true},
		{"look*", "looking", false},

		// Leading wildcard: everything optional down to empty.
		{"*look", "", true},
		{"*look", "l", true},
		{"*look", "look", true},
		{"*look", "loo", true},
		{"*look", "lool", false},

		// A bare star is the catch-all and matches anything.
		{"*", "", true},
		{"*", "x", true},
		{"*", "frobnicate", true},
	}
	for _, tc := range cases {
		vd := VerbDef{Names: []string{tc.pattern}}
		if got := vd.NameMatches(tc.candidate); got != tc.want {
			t.Errorf("pattern %q candidate %q: got %v, want %v", tc.pattern, tc.candidate, got, tc.want)
		}
	}
}

func TestNameMatchesAnyPattern(t *testing.T) {
	vd := VerbDef{Names: []string{"get", "take", "g*et"}}
	for _, name := range []string{"get", "take", "g", "ge"} {
		if !vd.NameMatches(name) {
			t.Errorf("expected %q to match", name)
		}
	}
	if vd.NameMatches("grab") {
		t.Error("grab should not match")
	}
}

func TestArgSpecMatching(t *testing.T) {
	cases := []struct {
		name string
		spec ArgSpec
		args ResolvedArgs
		want bool
	}{
		{
			"any matches everything",
			AnyArgSpec(),
			ResolvedArgs{Dobj: 2, Prep: 7, Iobj: 0},
			true,
		},
		{
			"this requires the verb's own object",
			ArgSpec{Dobj: ObjSpecThis, Prep: PrepSpec{Any: true}, Iobj: ObjSpecAny},
			ResolvedArgs{Dobj: 1, Prep: -1, Iobj: 0},
			true,
		},
		{
			"this rejects another object",
			ArgSpec{Dobj: ObjSpecThis, Prep: PrepSpec{Any: true}, Iobj: ObjSpecAny},
			ResolvedArgs{Dobj: 2, Prep: -1, Iobj: 0},
			false,
		},
		{
			"none requires an empty slot",
			ArgSpec{Dobj: ObjSpecNone, Prep: PrepSpec{Any: true}, Iobj: ObjSpecNone},
			ResolvedArgs{Dobj: 0, Prep: -1, Iobj: 0},
			true,
		},
		{
			"prep set membership",
			ArgSpec{Dobj: ObjSpecAny, Prep: PrepSpec{Preps: []int{2, 3}}, Iobj: ObjSpecAny},
			ResolvedArgs{Dobj: 0, Prep: 3, Iobj: 0},
			true,
		},
		{
			"prep outside the set",
			ArgSpec{Dobj: ObjSpecAny, Prep: PrepSpec{Preps: []int{2, 3}}, Iobj: ObjSpecAny},
			ResolvedArgs{Dobj: 0, Prep: 4, Iobj: 0},
			false,
		},
	}
	for _, tc := range cases {
		if got := tc.spec.Matches(tc.args); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMooCodeMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{ObjectPermissionDenied(), "E_PERM"},
		{PropertyPermissionDenied(), "E_PERM"},
		{VerbPermissionDenied(), "E_PERM"},
		{PropertyNotFound(1, "x"), "E_PROPNF"},
		{VerbNotFound(1, "x"), "E_VERBNF"},
		{RecursiveMove(1, 2), "E_RECMOVE"},
		{PropertyTypeMismatch(), "E_TYPE"},
		{ObjectNotFound(1), "E_INVIND"},
		{DuplicatePropertyDefinition(1, "x"), "E_INVARG"},
		{DatabaseError(nil), ""},
	}
	for _, tc := range cases {
		if got := tc.err.MooCode(); got != tc.want {
			t.Errorf("%v: got %q, want %q", tc.err, got, tc.want)
		}
	}
}
