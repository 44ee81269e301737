package model

import (
	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/google/uuid"
)

// PropDef is the declaration of a property on a definer object: its stable
// UUID, name, owner, and permission flags. Descendants inherit the
// declaration; only the value (pkg/model.PropPerms/object_propvalues) may
// differ per-object.
type PropDef struct {
	UUID    uuid.UUID
	Definer objid.Objid
	Name    string
	Owner   objid.Objid
	Flags   bitenum.BitEnum[PropFlag]
}

// PropDefs is the ordered set of property declarations on one object,
// stored verbatim in object_propdefs. Order is insertion order.
type PropDefs []PropDef

// FindByName returns the first entry (if any) whose Name matches, along
// with whether it was found. Property names are unique along any single
// ancestor chain, so a linear scan within one PropDefs slice suffices.
func (p PropDefs) FindByName(name string) (PropDef, bool) {
	for _, pd := range p {
		if pd.Name == name {
			return pd, true
		}
	}
	return PropDef{}, false
}

// FindByUUID returns the entry (if any) with the given UUID.
func (p PropDefs) FindByUUID(id uuid.UUID) (PropDef, bool) {
	for _, pd := range p {
		if pd.UUID == id {
			return pd, true
		}
	}
	return PropDef{}, false
}

// Without returns a copy of p with the entry matching id removed.
func (p PropDefs) Without(id uuid.UUID) PropDefs {
	out := make(PropDefs, 0, len(p))
	for _, pd := range p {
		if pd.UUID != id {
			out = append(out, pd)
		}
	}
	return out
}

// WithRenamed returns a copy of p with the entry matching id renamed.
func (p PropDefs) WithRenamed(id uuid.UUID, newName string) PropDefs {
	out := make(PropDefs, len(p))
	copy(out, p)
	for i := range out {
		if out[i].UUID == id {
			out[i].Name = newName
		}
	}
	return out
}

// PropPerms is the per-object override of a property's owner/flags,
// keyed alongside the value in object_propflags.
type PropPerms struct {
	Owner objid.Objid
	Flags bitenum.BitEnum[PropFlag]
}
