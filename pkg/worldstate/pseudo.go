package worldstate

import (
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/objid"
)

// RetrieveProperty reads a property by name with full inheritance, after
// first dispatching the pseudo-properties: names resolved against the
// object record itself rather than the property relations.
func (tx *Tx) RetrieveProperty(perms objid.Objid, obj objid.Objid, pname string) (moovar.Var, error) {
	ok, err := tx.Valid(obj)
	if err != nil {
		return moovar.Var{}, err
	}
	if !ok {
		return moovar.Var{}, model.ObjectNotFound(obj)
	}

	switch pname {
	case "name":
		name, _, err := tx.NamesOf(perms, obj)
		if err != nil {
			return moovar.Var{}, err
		}
		return moovar.Str(name), nil
	case "owner":
		owner, err := tx.OwnerOf(obj)
		if err != nil {
			return moovar.Var{}, err
		}
		return moovar.Obj(owner), nil
	case "location":
		loc, err := tx.LocationOf(obj)
		if err != nil {
			return moovar.Var{}, err
		}
		return moovar.Obj(loc), nil
	case "contents":
		contents, err := tx.ContentsOf(obj)
		if err != nil {
			return moovar.Var{}, err
		}
		return objSetVar(contents), nil
	case "parent":
		parent, err := tx.ParentOf(obj)
		if err != nil {
			return moovar.Var{}, err
		}
		return moovar.Obj(parent), nil
	case "children":
		children, err := tx.ChildrenOf(perms, obj)
		if err != nil {
			return moovar.Var{}, err
		}
		return objSetVar(children), nil
	case "programmer":
		return tx.flagVar(obj, model.FlagProgrammer)
	case "wizard":
		return tx.flagVar(obj, model.FlagWizard)
	case "r":
		return tx.flagVar(obj, model.FlagRead)
	case "w":
		return tx.flagVar(obj, model.FlagWrite)
	case "f":
		return tx.flagVar(obj, model.FlagFertile)
	}

	_, v, err := tx.ResolveProperty(perms, obj, pname)
	return v, err
}

// UpdateProperty writes a property by name: pseudo-properties adapt onto
// the object record (name, owner, flag bits), structural ones
// (location/contents/parent/children) are refused since move and
// chparent are the only doors to those, and everything else is a local
// value write on the resolved handle.
func (tx *Tx) UpdateProperty(perms objid.Objid, obj objid.Objid, pname string, value moovar.Var) error {
	ok, err := tx.Valid(obj)
	if err != nil {
		return err
	}
	if !ok {
		return model.ObjectNotFound(obj)
	}

	switch pname {
	case "location", "contents", "parent", "children":
		return model.PropertyPermissionDenied()

	case "name":
		if value.Kind != moovar.KindStr {
			return model.PropertyTypeMismatch()
		}
		return tx.SetName(perms, obj, value.Str)

	case "owner":
		if value.Kind != moovar.KindObjid {
			return model.PropertyTypeMismatch()
		}
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
		tx.t.ObjectOwner.Put(obj, value.Obj)
		return nil

	case "r":
		return tx.setFlagBit(perms, obj, model.FlagRead, value)
	case "w":
		return tx.setFlagBit(perms, obj, model.FlagWrite, value)
	case "f":
		return tx.setFlagBit(perms, obj, model.FlagFertile, value)

	case "programmer", "wizard":
		// Wizards only, and the bit only goes on.
		p, err := tx.Perms(perms)
		if err != nil {
			return err
		}
		if err := p.CheckWizard(); err != nil {
			return err
		}
		flags, err := tx.flagsOf(obj)
		if err != nil {
			return err
		}
		if pname == "programmer" {
			flags = flags.With(model.FlagProgrammer)
		} else {
			flags = flags.With(model.FlagWizard)
		}
		tx.t.ObjectFlags.Put(obj, flags)
		return nil
	}

	pd, err := tx.resolvePropertyHandle(obj, pname)
	if err != nil {
		return err
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
	tx.t.ObjectPropvalues.Put(model.ObjUUID{Obj: obj, UUID: pd.UUID}, value)
	return nil
}

func (tx *Tx) flagVar(obj objid.Objid, flag model.ObjFlag) (moovar.Var, error) {
	flags, err := tx.flagsOf(obj)
	if err != nil {
		return moovar.Var{}, err
	}
	if flags.Has(flag) {
		return moovar.Int(1), nil
	}
	return moovar.Int(0), nil
}

func (tx *Tx) setFlagBit(perms objid.Objid, obj objid.Objid, flag model.ObjFlag, value moovar.Var) error {
	if value.Kind != moovar.KindInt {
		return model.PropertyTypeMismatch()
	}
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
	if value.Int == 1 {
		flags = flags.With(flag)
	} else {
		flags = flags.Without(flag)
	}
	tx.t.ObjectFlags.Put(obj, flags)
	return nil
}

func objSetVar(s objid.Set) moovar.Var {
	members := s.ToSlice()
	items := make([]moovar.Var, 0, len(members))
	for _, m := range members {
		items = append(items, moovar.Obj(m))
	}
	return moovar.List(items...)
}
