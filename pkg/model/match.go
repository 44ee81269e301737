package model

// ObjSpec is the match template for one of a verb's object slots
// (direct object / indirect object).
type ObjSpec uint8

const (
	// ObjSpecAny matches regardless of what the command parser resolved.
	ObjSpecAny ObjSpec = iota
	// ObjSpecNone requires that the slot resolved to nothing.
	ObjSpecNone
	// ObjSpecThis requires that the slot resolved to the verb's own object.
	ObjSpecThis
)

// PrepSpec is the match template for a verb's preposition slot: either
// "matches any preposition" or "matches exactly this set of prepositions".
// A verb's own args-spec never has more than one preposition id, but the
// args-spec comparison is defined over a set to accommodate a command's
// parsed tokens matching against several synonym prepositions at once
// (e.g. "on top of" / "on").
type PrepSpec struct {
	Any   bool
	Preps []int
}

func (p PrepSpec) has(id int) bool {
	for _, x := range p.Preps {
		if x == id {
			return true
		}
	}
	return false
}

// Matches reports whether candidate (a single resolved preposition id, or
// a negative value for "no preposition") satisfies this PrepSpec.
func (p PrepSpec) Matches(candidate int) bool {
	if p.Any {
		return true
	}
	return p.has(candidate)
}

// ArgSpec is the (dobj, prep, iobj) command-verb matching template
// attached to a VerbDef.
type ArgSpec struct {
	Dobj ObjSpec
	Prep PrepSpec
	Iobj ObjSpec
}

// AnyArgSpec matches any command invocation regardless of resolved
// objects or preposition; used for non-command (programmatically invoked)
// verbs.
func AnyArgSpec() ArgSpec {
	return ArgSpec{Dobj: ObjSpecAny, Prep: PrepSpec{Any: true}, Iobj: ObjSpecAny}
}

// ResolvedArgs is what the (out-of-scope) command parser hands in when
// asking the core to resolve a command verb: the objects it matched for
// dobj/iobj (compared against ObjSpecThis by identity with the verb's own
// object) and the preposition id it parsed (or -1 for none).
type ResolvedArgs struct {
	Dobj     int // 0 = none, 1 = matches verb's own object, 2 = some other object
	Prep     int
	Iobj     int
}

// Matches reports whether spec accepts the resolved command arguments.
func (spec ArgSpec) Matches(args ResolvedArgs) bool {
	if !objSpecMatches(spec.Dobj, args.Dobj) {
		return false
	}
	if !objSpecMatches(spec.Iobj, args.Iobj) {
		return false
	}
	return spec.Prep.Matches(args.Prep)
}

func objSpecMatches(spec ObjSpec, resolved int) bool {
	switch spec {
	case ObjSpecAny:
		return true
	case ObjSpecNone:
		return resolved == 0
	case ObjSpecThis:
		return resolved == 1
	}
	return false
}
