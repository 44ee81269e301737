package worldstate

import (
	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/metrics"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/google/uuid"
)

// PropAttrs carries the optional fields of a property-definition update;
// nil fields are left unchanged.
type PropAttrs struct {
	Owner *objid.Objid
	Flags *bitenum.BitEnum[model.PropFlag]
	Name  *string
}

// Properties lists the propdefs obj carries (own and inherited). Requires
// Read on obj.
func (tx *Tx) Properties(perms objid.Objid, obj objid.Objid) (model.PropDefs, error) {
	flags, err := tx.flagsOf(obj)
	if err != nil {
		return nil, err
	}
	owner, err := tx.ownerOf(obj)
	if err != nil {
		return nil, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return nil, err
	}
	if err := p.CheckObjectAllows(owner, flags, model.FlagRead); err != nil {
		return nil, err
	}
	return tx.propdefsOf(obj)
}

// effectivePropPerms resolves the owner/flags that govern pd as seen from
// obj: a per-object override in object_propflags wins over the handle's
// own fields.
func (tx *Tx) effectivePropPerms(obj objid.Objid, pd model.PropDef) (objid.Objid, bitenum.BitEnum[model.PropFlag], error) {
	override, ok, err := tx.t.ObjectPropflags.Get(model.ObjUUID{Obj: obj, UUID: pd.UUID})
	if err != nil {
		return objid.NOTHING, 0, tx.dbErr(err)
	}
	if ok {
		return override.Owner, override.Flags, nil
	}
	return pd.Owner, pd.Flags, nil
}

// DefineProperty declares a new property named pname, recorded on definer
// and cascaded (clear) to location and every descendant of location. The
// initial value, when non-nil, seeds the definer's entry. Requires Write
// on location and the right to own on behalf of propowner. The returned
// UUID is stable for the life of the definer.
func (tx *Tx) DefineProperty(perms objid.Objid, definer objid.Objid, location objid.Objid, pname string, propowner objid.Objid, propflags bitenum.BitEnum[model.PropFlag], initial *moovar.Var) (uuid.UUID, error) {
	locFlags, err := tx.flagsOf(location)
	if err != nil {
		return uuid.UUID{}, err
	}
	locOwner, err := tx.ownerOf(location)
	if err != nil {
		return uuid.UUID{}, err
	}
	if _, err := tx.flagsOf(definer); err != nil {
		return uuid.UUID{}, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return uuid.UUID{}, err
	}
	if err := p.CheckObjectAllows(locOwner, locFlags, model.FlagWrite); err != nil {
		return uuid.UUID{}, err
	}
	if err := p.CheckObjOwnerPerms(propowner); err != nil {
		return uuid.UUID{}, err
	}

	// The name must be free along the whole chain through location: an
	// ancestor already defining it shadows, and a descendant defining it
	// would end up with two same-named handles after the cascade.
	chain, err := tx.ancestorChain(location)
	if err != nil {
		return uuid.UUID{}, err
	}
	descendants, err := tx.descendantsOf(location)
	if err != nil {
		return uuid.UUID{}, err
	}
	for _, o := range append(chain, descendants...) {
		defs, err := tx.propdefsOf(o)
		if err != nil {
			return uuid.UUID{}, err
		}
		if _, ok := defs.FindByName(pname); ok {
			return uuid.UUID{}, model.DuplicatePropertyDefinition(location, pname)
		}
	}

	pd := model.PropDef{
		UUID:    uuid.New(),
		Definer: definer,
		Name:    pname,
		Owner:   propowner,
		Flags:   propflags,
	}

	definerDefs, err := tx.propdefsOf(definer)
	if err != nil {
		return uuid.UUID{}, err
	}
	tx.t.ObjectPropdefs.Put(definer, append(definerDefs, pd))

	cascade := descendants
	if location != definer {
		cascade = append([]objid.Objid{location}, descendants...)
	}
	for _, o := range cascade {
		defs, err := tx.propdefsOf(o)
		if err != nil {
			return uuid.UUID{}, err
		}
		if _, ok := defs.FindByUUID(pd.UUID); !ok {
			tx.t.ObjectPropdefs.Put(o, append(defs, pd))
		}
	}

	if initial != nil {
		tx.t.ObjectPropvalues.Put(model.ObjUUID{Obj: definer, UUID: pd.UUID}, *initial)
	}
	return pd.UUID, nil
}

// resolvePropertyHandle walks obj's parent chain for the first propdef
// named pname.
func (tx *Tx) resolvePropertyHandle(obj objid.Objid, pname string) (model.PropDef, error) {
	chain, err := tx.ancestorChain(obj)
	if err != nil {
		return model.PropDef{}, err
	}
	for _, o := range chain {
		defs, err := tx.propdefsOf(o)
		if err != nil {
			return model.PropDef{}, err
		}
		if pd, ok := defs.FindByName(pname); ok {
			return pd, nil
		}
	}
	return model.PropDef{}, model.PropertyNotFound(obj, pname)
}

// ResolveProperty performs full inheritance resolution: find the handle
// along the chain, then the nearest explicit value from obj upward,
// falling back to the definer's seed entry. Read permission is checked
// against the resolved handle as seen from obj. A chain with no explicit
// value anywhere resolves to Int(0).
func (tx *Tx) ResolveProperty(perms objid.Objid, obj objid.Objid, pname string) (model.PropDef, moovar.Var, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.PropertyResolveDuration)

	if _, err := tx.flagsOf(obj); err != nil {
		return model.PropDef{}, moovar.Var{}, err
	}
	pd, err := tx.resolvePropertyHandle(obj, pname)
	if err != nil {
		return model.PropDef{}, moovar.Var{}, err
	}
	propOwner, propFlags, err := tx.effectivePropPerms(obj, pd)
	if err != nil {
		return model.PropDef{}, moovar.Var{}, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return model.PropDef{}, moovar.Var{}, err
	}
	if err := p.CheckPropertyAllows(propOwner, propFlags, model.PropRead); err != nil {
		return model.PropDef{}, moovar.Var{}, err
	}

	chain, err := tx.ancestorChain(obj)
	if err != nil {
		return model.PropDef{}, moovar.Var{}, err
	}
	for _, o := range chain {
		v, ok, err := tx.t.ObjectPropvalues.Get(model.ObjUUID{Obj: o, UUID: pd.UUID})
		if err != nil {
			return model.PropDef{}, moovar.Var{}, tx.dbErr(err)
		}
		if ok {
			return pd, v, nil
		}
	}
	v, ok, err := tx.t.ObjectPropvalues.Get(model.ObjUUID{Obj: pd.Definer, UUID: pd.UUID})
	if err != nil {
		return model.PropDef{}, moovar.Var{}, tx.dbErr(err)
	}
	if ok {
		return pd, v, nil
	}
	return pd, moovar.Int(0), nil
}

// GetPropertyAt is the no-inheritance read: only obj's own value entry is
// consulted, and absence reports PropertyNotFound, which is how "clear"
// surfaces at this level.
func (tx *Tx) GetPropertyAt(perms objid.Objid, obj objid.Objid, u uuid.UUID) (moovar.Var, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return moovar.Var{}, err
	}
	defs, err := tx.propdefsOf(obj)
	if err != nil {
		return moovar.Var{}, err
	}
	pd, ok := defs.FindByUUID(u)
	if !ok {
		return moovar.Var{}, model.PropertyDefinitionNotFound(obj, u.String())
	}
	propOwner, propFlags, err := tx.effectivePropPerms(obj, pd)
	if err != nil {
		return moovar.Var{}, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return moovar.Var{}, err
	}
	if err := p.CheckPropertyAllows(propOwner, propFlags, model.PropRead); err != nil {
		return moovar.Var{}, err
	}
	v, ok, err := tx.t.ObjectPropvalues.Get(model.ObjUUID{Obj: obj, UUID: u})
	if err != nil {
		return moovar.Var{}, tx.dbErr(err)
	}
	if !ok {
		return moovar.Var{}, model.PropertyNotFound(obj, pd.Name)
	}
	return v, nil
}

// SetPropertyAt writes obj's local value entry for the given propdef, no
// inheritance traversal. Requires Write on the property.
func (tx *Tx) SetPropertyAt(perms objid.Objid, obj objid.Objid, u uuid.UUID, value moovar.Var) error {
	if _, err := tx.flagsOf(obj); err != nil {
		return err
	}
	defs, err := tx.propdefsOf(obj)
	if err != nil {
		return err
	}
	pd, ok := defs.FindByUUID(u)
	if !ok {
		return model.PropertyDefinitionNotFound(obj, u.String())
	}
	propOwner, propFlags, err := tx.effectivePropPerms(obj, pd)
	if err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckPropertyAllows(propOwner, propFlags, model.PropWrite); err != nil {
		return err
	}
	tx.t.ObjectPropvalues.Put(model.ObjUUID{Obj: obj, UUID: u}, value)
	return nil
}

// ClearPropertyAt deletes obj's local value entry, making the property
// clear (inherited) again. Requires Write on the property.
func (tx *Tx) ClearPropertyAt(perms objid.Objid, obj objid.Objid, u uuid.UUID) error {
	if _, err := tx.flagsOf(obj); err != nil {
		return err
	}
	defs, err := tx.propdefsOf(obj)
	if err != nil {
		return err
	}
	pd, ok := defs.FindByUUID(u)
	if !ok {
		return model.PropertyDefinitionNotFound(obj, u.String())
	}
	propOwner, propFlags, err := tx.effectivePropPerms(obj, pd)
	if err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckPropertyAllows(propOwner, propFlags, model.PropWrite); err != nil {
		return err
	}
	tx.t.ObjectPropvalues.Delete(model.ObjUUID{Obj: obj, UUID: u})
	return nil
}

// ClearProperty is ClearPropertyAt by name, resolving the handle on obj's
// own propdef list.
func (tx *Tx) ClearProperty(perms objid.Objid, obj objid.Objid, pname string) error {
	if _, err := tx.flagsOf(obj); err != nil {
		return err
	}
	defs, err := tx.propdefsOf(obj)
	if err != nil {
		return err
	}
	pd, ok := defs.FindByName(pname)
	if !ok {
		return model.PropertyNotFound(obj, pname)
	}
	return tx.ClearPropertyAt(perms, obj, pd.UUID)
}

// IsPropertyClear reports whether obj has no local value entry for pname,
// i.e. whether resolution would inherit. Requires Read on the property.
func (tx *Tx) IsPropertyClear(perms objid.Objid, obj objid.Objid, pname string) (bool, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return false, err
	}
	defs, err := tx.propdefsOf(obj)
	if err != nil {
		return false, err
	}
	pd, ok := defs.FindByName(pname)
	if !ok {
		return false, model.PropertyNotFound(obj, pname)
	}
	propOwner, propFlags, err := tx.effectivePropPerms(obj, pd)
	if err != nil {
		return false, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return false, err
	}
	if err := p.CheckPropertyAllows(propOwner, propFlags, model.PropRead); err != nil {
		return false, err
	}
	_, present, err := tx.t.ObjectPropvalues.Get(model.ObjUUID{Obj: obj, UUID: pd.UUID})
	if err != nil {
		return false, tx.dbErr(err)
	}
	return !present, nil
}

// GetPropertyInfo returns the propdef handle for pname as carried by obj.
// Requires Read on the property.
func (tx *Tx) GetPropertyInfo(perms objid.Objid, obj objid.Objid, pname string) (model.PropDef, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return model.PropDef{}, err
	}
	defs, err := tx.propdefsOf(obj)
	if err != nil {
		return model.PropDef{}, err
	}
	pd, ok := defs.FindByName(pname)
	if !ok {
		return model.PropDef{}, model.PropertyNotFound(obj, pname)
	}
	propOwner, propFlags, err := tx.effectivePropPerms(obj, pd)
	if err != nil {
		return model.PropDef{}, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return model.PropDef{}, err
	}
	if err := p.CheckPropertyAllows(propOwner, propFlags, model.PropRead); err != nil {
		return model.PropDef{}, err
	}
	return pd, nil
}

// SetPropertyInfo updates pname's definition as seen from obj. Requires
// Write on the property.
func (tx *Tx) SetPropertyInfo(perms objid.Objid, obj objid.Objid, pname string, attrs PropAttrs) error {
	if _, err := tx.flagsOf(obj); err != nil {
		return err
	}
	defs, err := tx.propdefsOf(obj)
	if err != nil {
		return err
	}
	pd, ok := defs.FindByName(pname)
	if !ok {
		return model.PropertyNotFound(obj, pname)
	}
	propOwner, propFlags, err := tx.effectivePropPerms(obj, pd)
	if err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckPropertyAllows(propOwner, propFlags, model.PropWrite); err != nil {
		return err
	}
	return tx.updatePropertyDefinition(obj, pd, attrs)
}

// UpdatePropertyDefinition is SetPropertyInfo addressed by UUID, with the
// same Write requirement.
func (tx *Tx) UpdatePropertyDefinition(perms objid.Objid, obj objid.Objid, u uuid.UUID, attrs PropAttrs) error {
	if _, err := tx.flagsOf(obj); err != nil {
		return err
	}
	defs, err := tx.propdefsOf(obj)
	if err != nil {
		return err
	}
	pd, ok := defs.FindByUUID(u)
	if !ok {
		return model.PropertyDefinitionNotFound(obj, u.String())
	}
	propOwner, propFlags, err := tx.effectivePropPerms(obj, pd)
	if err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckPropertyAllows(propOwner, propFlags, model.PropWrite); err != nil {
		return err
	}
	return tx.updatePropertyDefinition(obj, pd, attrs)
}

// updatePropertyDefinition applies attrs. On the definer, owner/flags
// rewrite the handle itself wherever it is carried; on an inheritor they
// become a per-object override in object_propflags. A rename always
// propagates to every carrier below obj.
func (tx *Tx) updatePropertyDefinition(obj objid.Objid, pd model.PropDef, attrs PropAttrs) error {
	rename := attrs.Name != nil && *attrs.Name != pd.Name
	if rename {
		// The new name must not collide along any carrier's chain.
		chain, err := tx.ancestorChain(obj)
		if err != nil {
			return err
		}
		below, err := tx.descendantsOf(obj)
		if err != nil {
			return err
		}
		for _, o := range append(chain, below...) {
			defs, err := tx.propdefsOf(o)
			if err != nil {
				return err
			}
			if other, ok := defs.FindByName(*attrs.Name); ok && other.UUID != pd.UUID {
				return model.DuplicatePropertyDefinition(obj, *attrs.Name)
			}
		}
	}

	if obj == pd.Definer {
		descendants, err := tx.descendantsOf(obj)
		if err != nil {
			return err
		}
		for _, member := range append([]objid.Objid{obj}, descendants...) {
			defs, err := tx.propdefsOf(member)
			if err != nil {
				return err
			}
			changed := false
			for i := range defs {
				if defs[i].UUID != pd.UUID {
					continue
				}
				if attrs.Owner != nil {
					defs[i].Owner = *attrs.Owner
				}
				if attrs.Flags != nil {
					defs[i].Flags = *attrs.Flags
				}
				if attrs.Name != nil {
					defs[i].Name = *attrs.Name
				}
				changed = true
			}
			if changed {
				tx.t.ObjectPropdefs.Put(member, defs)
			}
		}
		return nil
	}

	if attrs.Owner != nil || attrs.Flags != nil {
		owner, flags, err := tx.effectivePropPerms(obj, pd)
		if err != nil {
			return err
		}
		if attrs.Owner != nil {
			owner = *attrs.Owner
		}
		if attrs.Flags != nil {
			flags = *attrs.Flags
		}
		tx.t.ObjectPropflags.Put(model.ObjUUID{Obj: obj, UUID: pd.UUID}, model.PropPerms{Owner: owner, Flags: flags})
	}
	if rename {
		descendants, err := tx.descendantsOf(obj)
		if err != nil {
			return err
		}
		for _, member := range append([]objid.Objid{obj}, descendants...) {
			defs, err := tx.propdefsOf(member)
			if err != nil {
				return err
			}
			if _, ok := defs.FindByUUID(pd.UUID); ok {
				tx.t.ObjectPropdefs.Put(member, defs.WithRenamed(pd.UUID, *attrs.Name))
			}
		}
	}
	return nil
}

// DeleteProperty removes the definition and every carrier's value. Only
// the definer may delete; requires Write on the property.
func (tx *Tx) DeleteProperty(perms objid.Objid, obj objid.Objid, u uuid.UUID) error {
	if _, err := tx.flagsOf(obj); err != nil {
		return err
	}
	defs, err := tx.propdefsOf(obj)
	if err != nil {
		return err
	}
	pd, ok := defs.FindByUUID(u)
	if !ok {
		return model.PropertyDefinitionNotFound(obj, u.String())
	}
	propOwner, propFlags, err := tx.effectivePropPerms(obj, pd)
	if err != nil {
		return err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckPropertyAllows(propOwner, propFlags, model.PropWrite); err != nil {
		return err
	}
	if pd.Definer != obj {
		return model.PropertyPermissionDenied()
	}

	descendants, err := tx.descendantsOf(obj)
	if err != nil {
		return err
	}
	for _, member := range append([]objid.Objid{obj}, descendants...) {
		memberDefs, err := tx.propdefsOf(member)
		if err != nil {
			return err
		}
		if _, ok := memberDefs.FindByUUID(u); !ok {
			continue
		}
		tx.t.ObjectPropdefs.Put(member, memberDefs.Without(u))
		tx.t.ObjectPropvalues.Delete(model.ObjUUID{Obj: member, UUID: u})
		tx.t.ObjectPropflags.Delete(model.ObjUUID{Obj: member, UUID: u})
	}
	return nil
}
