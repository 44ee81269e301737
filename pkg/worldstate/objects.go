package worldstate

import (
	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/objid"
)

// CreateObject allocates a fresh object under parent, owned by owner (or
// by itself when owner is NOTHING), with the given flags. Requires Read
// and Fertile on parent unless parent is NOTHING. The new object starts
// nowhere (location NOTHING), empty, with no name, carrying clear copies
// of every propdef its parent chain defines.
func (tx *Tx) CreateObject(perms objid.Objid, parent objid.Objid, owner objid.Objid, flags bitenum.BitEnum[model.ObjFlag]) (objid.Objid, error) {
	if parent != objid.NOTHING {
		parentFlags, err := tx.flagsOf(parent)
		if err != nil {
			return objid.NOTHING, err
		}
		parentOwner, err := tx.ownerOf(parent)
		if err != nil {
			return objid.NOTHING, err
		}
		p, err := tx.Perms(perms)
		if err != nil {
			return objid.NOTHING, err
		}
		if err := p.CheckObjectAllows(parentOwner, parentFlags, model.FlagRead); err != nil {
			return objid.NOTHING, err
		}
		if err := p.CheckObjectAllows(parentOwner, parentFlags, model.FlagFertile); err != nil {
			return objid.NOTHING, err
		}
	}

	// TODO: ownership_quota. If the owner defines an integer
	// ownership_quota property, decrement it here and raise E_QUOTA at
	// zero. The scheduler side of quota accounting doesn't exist yet.

	id := tx.t.Database().AllocObjid()
	if owner == objid.NOTHING {
		owner = id
	}

	tx.t.ObjectParent.Put(id, parent)
	if parent != objid.NOTHING {
		siblings, err := tx.childrenOf(parent)
		if err != nil {
			return objid.NOTHING, err
		}
		tx.t.ObjectChildren.Put(parent, siblings.Add(id))
	}
	tx.t.ObjectLocation.Put(id, objid.NOTHING)
	tx.t.ObjectContents.Put(id, objid.NewSet())
	tx.t.ObjectChildren.Put(id, objid.NewSet())
	tx.t.ObjectOwner.Put(id, owner)
	tx.t.ObjectName.Put(id, "")
	tx.t.ObjectFlags.Put(id, flags)
	tx.t.ObjectVerbdefs.Put(id, model.VerbDefs{})

	// The child materializes its parent's full propdef list, every entry
	// clear: resolution will fall through to the nearest explicit value.
	inherited := model.PropDefs{}
	if parent != objid.NOTHING {
		parentDefs, err := tx.propdefsOf(parent)
		if err != nil {
			return objid.NOTHING, err
		}
		inherited = append(inherited, parentDefs...)
	}
	tx.t.ObjectPropdefs.Put(id, inherited)

	return id, nil
}

// RecycleObject destroys obj: children are reparented to obj's parent
// (losing any property values obj itself defined), contents are moved to
// NOTHING, and every relation entry for obj is deleted. Requires Write on
// obj.
func (tx *Tx) RecycleObject(perms objid.Objid, obj objid.Objid) error {
	flags, err := tx.flagsOf(obj)
	if err != nil {
		return err
	}
	owner, err := tx.ownerOf(obj)
	if err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckObjectAllows(owner, flags, model.FlagWrite); err != nil {
		return err
	}

	parent, err := tx.parentOf(obj)
	if err != nil {
		return err
	}
	children, err := tx.childrenOf(obj)
	if err != nil {
		return err
	}
	for _, child := range children.ToSlice() {
		// reparentObject strips obj's own propdefs from the child's
		// subtree, since obj leaves the child's ancestor chain.
		if err := tx.reparentObject(child, parent); err != nil {
			return err
		}
	}

	contents, err := tx.contentsOf(obj)
	if err != nil {
		return err
	}
	for _, item := range contents.ToSlice() {
		if err := tx.relocateObject(item, objid.NOTHING); err != nil {
			return err
		}
	}

	// Detach from our own parent and location.
	if parent != objid.NOTHING {
		siblings, err := tx.childrenOf(parent)
		if err != nil {
			return err
		}
		tx.t.ObjectChildren.Put(parent, siblings.Remove(obj))
	}
	location, err := tx.locationOf(obj)
	if err != nil {
		return err
	}
	if location != objid.NOTHING {
		cohabitants, err := tx.contentsOf(location)
		if err != nil {
			return err
		}
		tx.t.ObjectContents.Put(location, cohabitants.Remove(obj))
	}

	// Delete every keyed entry obj carries: per-UUID values first, then
	// the per-object rows.
	propdefs, err := tx.propdefsOf(obj)
	if err != nil {
		return err
	}
	for _, pd := range propdefs {
		tx.t.ObjectPropvalues.Delete(model.ObjUUID{Obj: obj, UUID: pd.UUID})
		tx.t.ObjectPropflags.Delete(model.ObjUUID{Obj: obj, UUID: pd.UUID})
	}
	verbdefs, err := tx.verbdefsOf(obj)
	if err != nil {
		return err
	}
	for _, vd := range verbdefs {
		tx.t.ObjectVerbs.Delete(model.ObjUUID{Obj: obj, UUID: vd.UUID})
	}

	tx.t.ObjectLocation.Delete(obj)
	tx.t.ObjectContents.Delete(obj)
	tx.t.ObjectFlags.Delete(obj)
	tx.t.ObjectParent.Delete(obj)
	tx.t.ObjectChildren.Delete(obj)
	tx.t.ObjectOwner.Delete(obj)
	tx.t.ObjectName.Delete(obj)
	tx.t.ObjectVerbdefs.Delete(obj)
	tx.t.ObjectPropdefs.Delete(obj)

	return nil
}

// ChangeParent moves obj under newParent in the inheritance forest.
// Requires Write on obj and Write plus Fertile on newParent (unless
// NOTHING). Fails with RecursiveMove if newParent is obj or any of obj's
// transitive children. Property values defined by ancestors obj is
// leaving are stripped from obj and its descendants; propdefs newly
// inherited materialize clear.
func (tx *Tx) ChangeParent(perms objid.Objid, obj objid.Objid, newParent objid.Objid) error {
	if obj == newParent {
		return model.RecursiveMove(obj, newParent)
	}
	objFlags, err := tx.flagsOf(obj)
	if err != nil {
		return err
	}
	owner, err := tx.ownerOf(obj)
	if err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if newParent != objid.NOTHING {
		chain, err := tx.ancestorChain(newParent)
		if err != nil {
			return err
		}
		for _, a := range chain {
			if a == obj {
				return model.RecursiveMove(obj, newParent)
			}
		}
		parentFlags, err := tx.flagsOf(newParent)
		if err != nil {
			return err
		}
		parentOwner, err := tx.ownerOf(newParent)
		if err != nil {
			return err
		}
		if err := p.CheckObjectAllows(parentOwner, parentFlags, model.FlagWrite); err != nil {
			return err
		}
		if err := p.CheckObjectAllows(parentOwner, parentFlags, model.FlagFertile); err != nil {
			return err
		}
	}
	if err := p.CheckObjectAllows(owner, objFlags, model.FlagWrite); err != nil {
		return err
	}
	return tx.reparentObject(obj, newParent)
}

// reparentObject is the unchecked edge rewrite plus property
// re-inheritance behind ChangeParent. Also used by recycle for the
// orphaned children.
func (tx *Tx) reparentObject(obj objid.Objid, newParent objid.Objid) error {
	oldParent, err := tx.parentOf(obj)
	if err != nil {
		return err
	}
	if oldParent == newParent {
		return nil
	}

	// A propdef stays inherited only while its definer remains in the
	// chain: self, or an ancestor under the new parent.
	newAncestors := objid.NewSet()
	if newParent != objid.NOTHING {
		chain, err := tx.ancestorChain(newParent)
		if err != nil {
			return err
		}
		newAncestors = objid.FromSlice(chain)
	}

	carried, err := tx.propdefsOf(obj)
	if err != nil {
		return err
	}
	var lost model.PropDefs
	kept := make(model.PropDefs, 0, len(carried))
	for _, pd := range carried {
		if pd.Definer != obj && !newAncestors.Contains(pd.Definer) {
			lost = append(lost, pd)
		} else {
			kept = append(kept, pd)
		}
	}

	var gained model.PropDefs
	if newParent != objid.NOTHING {
		parentDefs, err := tx.propdefsOf(newParent)
		if err != nil {
			return err
		}
		for _, pd := range parentDefs {
			if _, ok := kept.FindByUUID(pd.UUID); !ok {
				gained = append(gained, pd)
			}
		}
	}

	descendants, err := tx.descendantsOf(obj)
	if err != nil {
		return err
	}
	subtree := append([]objid.Objid{obj}, descendants...)

	for _, member := range subtree {
		defs, err := tx.propdefsOf(member)
		if err != nil {
			return err
		}
		for _, pd := range lost {
			defs = defs.Without(pd.UUID)
			tx.t.ObjectPropvalues.Delete(model.ObjUUID{Obj: member, UUID: pd.UUID})
			tx.t.ObjectPropflags.Delete(model.ObjUUID{Obj: member, UUID: pd.UUID})
		}
		for _, pd := range gained {
			if _, ok := defs.FindByUUID(pd.UUID); !ok {
				defs = append(defs, pd)
			}
		}
		tx.t.ObjectPropdefs.Put(member, defs)
	}

	if oldParent != objid.NOTHING {
		siblings, err := tx.childrenOf(oldParent)
		if err != nil {
			return err
		}
		tx.t.ObjectChildren.Put(oldParent, siblings.Remove(obj))
	}
	tx.t.ObjectParent.Put(obj, newParent)
	if newParent != objid.NOTHING {
		siblings, err := tx.childrenOf(newParent)
		if err != nil {
			return err
		}
		tx.t.ObjectChildren.Put(newParent, siblings.Add(obj))
	}
	return nil
}

// MoveObject relocates obj into newLoc, keeping both sides of the
// location/contents edge consistent. Requires Write on obj; no permission
// or containment-cycle check is made on newLoc; the caller is expected
// to have run the acceptance protocol first.
func (tx *Tx) MoveObject(perms objid.Objid, obj objid.Objid, newLoc objid.Objid) error {
	flags, err := tx.flagsOf(obj)
	if err != nil {
		return err
	}
	owner, err := tx.ownerOf(obj)
	if err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckObjectAllows(owner, flags, model.FlagWrite); err != nil {
		return err
	}
	return tx.relocateObject(obj, newLoc)
}

func (tx *Tx) relocateObject(obj objid.Objid, newLoc objid.Objid) error {
	oldLoc, err := tx.locationOf(obj)
	if err != nil {
		return err
	}
	if oldLoc == newLoc {
		return nil
	}
	if oldLoc != objid.NOTHING {
		contents, err := tx.contentsOf(oldLoc)
		if err != nil {
			return err
		}
		tx.t.ObjectContents.Put(oldLoc, contents.Remove(obj))
	}
	tx.t.ObjectLocation.Put(obj, newLoc)
	if newLoc != objid.NOTHING {
		contents, err := tx.contentsOf(newLoc)
		if err != nil {
			return err
		}
		tx.t.ObjectContents.Put(newLoc, contents.Add(obj))
	}
	return nil
}

// -- attribute queries and setters --

// OwnerOf returns obj's owner.
func (tx *Tx) OwnerOf(obj objid.Objid) (objid.Objid, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return objid.NOTHING, err
	}
	return tx.ownerOf(obj)
}

// SetOwner reassigns obj's owner. Wizard only.
func (tx *Tx) SetOwner(perms objid.Objid, obj objid.Objid, owner objid.Objid) error {
	if _, err := tx.flagsOf(obj); err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckWizard(); err != nil {
		return err
	}
	tx.t.ObjectOwner.Put(obj, owner)
	return nil
}

// FlagsOf returns obj's flag set.
func (tx *Tx) FlagsOf(obj objid.Objid) (bitenum.BitEnum[model.ObjFlag], error) {
	return tx.flagsOf(obj)
}

// SetFlagsOf replaces obj's flag set. Requires Write on obj (owner,
// wizard, or obj carries the Write flag).
func (tx *Tx) SetFlagsOf(perms objid.Objid, obj objid.Objid, flags bitenum.BitEnum[model.ObjFlag]) error {
	objFlags, err := tx.flagsOf(obj)
	if err != nil {
		return err
	}
	owner, err := tx.ownerOf(obj)
	if err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckObjectAllows(owner, objFlags, model.FlagWrite); err != nil {
		return err
	}
	tx.t.ObjectFlags.Put(obj, flags)
	return nil
}

// ParentOf returns obj's parent. No permission check, as in MOO.
func (tx *Tx) ParentOf(obj objid.Objid) (objid.Objid, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return objid.NOTHING, err
	}
	return tx.parentOf(obj)
}

// ChildrenOf returns obj's children. Requires Read on obj.
func (tx *Tx) ChildrenOf(perms objid.Objid, obj objid.Objid) (objid.Set, error) {
	flags, err := tx.flagsOf(obj)
	if err != nil {
		return objid.Set{}, err
	}
	owner, err := tx.ownerOf(obj)
	if err != nil {
		return objid.Set{}, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return objid.Set{}, err
	}
	if err := p.CheckObjectAllows(owner, flags, model.FlagRead); err != nil {
		return objid.Set{}, err
	}
	return tx.childrenOf(obj)
}

// LocationOf returns obj's location. MOO permits this query even on
// unreadable objects, so no permission check.
func (tx *Tx) LocationOf(obj objid.Objid) (objid.Objid, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return objid.NOTHING, err
	}
	return tx.locationOf(obj)
}

// ContentsOf returns obj's contents. MOO does no permission check here
// either.
func (tx *Tx) ContentsOf(obj objid.Objid) (objid.Set, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return objid.Set{}, err
	}
	return tx.contentsOf(obj)
}

// NameOf returns obj's name.
func (tx *Tx) NameOf(obj objid.Objid) (string, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return "", err
	}
	name, _, err := tx.t.ObjectName.Get(obj)
	if err != nil {
		return "", tx.dbErr(err)
	}
	return name, nil
}

// SetName renames obj. Requires Write on obj (owner, wizard, or obj
// carries the Write flag).
func (tx *Tx) SetName(perms objid.Objid, obj objid.Objid, name string) error {
	flags, err := tx.flagsOf(obj)
	if err != nil {
		return err
	}
	owner, err := tx.ownerOf(obj)
	if err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckObjectAllows(owner, flags, model.FlagWrite); err != nil {
		return err
	}
	tx.t.ObjectName.Put(obj, name)
	return nil
}

// NamesOf returns obj's name together with its aliases, read from the
// `aliases` property when the object carries a list-valued one. The name
// needs no permission, as in MOO; the aliases read is checked against
// perms, and an unreadable or missing aliases property yields no aliases.
func (tx *Tx) NamesOf(perms objid.Objid, obj objid.Objid) (string, []string, error) {
	name, err := tx.NameOf(obj)
	if err != nil {
		return "", nil, err
	}
	var aliases []string
	if v, aerr := tx.RetrieveProperty(perms, obj, "aliases"); aerr == nil && v.Kind == moovar.KindList {
		for _, e := range v.List {
			aliases = append(aliases, e.String())
		}
	}
	return name, aliases, nil
}
