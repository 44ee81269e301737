package burrow

import (
	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/objid"
)

// scanFlags walks the durable object_flags relation overlaid with this
// transaction's staged flag mutations, backing the whole-world queries.
// Scans record no entries in the read set; a concurrent create can slip
// in between scan and commit.
func (t *Txn) scanFlags(fn func(objid.Objid, bitenum.BitEnum[model.ObjFlag])) error {
	seen := make(map[objid.Objid]struct{})
	err := t.db.objectFlags.ForEachStored(func(o objid.Objid, flags bitenum.BitEnum[model.ObjFlag]) error {
		seen[o] = struct{}{}
		if staged, ok := t.ObjectFlags.Writes()[o]; ok {
			fn(o, staged)
			return nil
		}
		if _, ok := t.ObjectFlags.Deletes()[o]; ok {
			return nil
		}
		fn(o, flags)
		return nil
	})
	if err != nil {
		return err
	}
	for o, flags := range t.ObjectFlags.Writes() {
		if _, ok := seen[o]; !ok {
			fn(o, flags)
		}
	}
	return nil
}

// AllObjects returns every valid object visible to this transaction.
func (t *Txn) AllObjects() (objid.Set, error) {
	var members []objid.Objid
	err := t.scanFlags(func(o objid.Objid, _ bitenum.BitEnum[model.ObjFlag]) {
		members = append(members, o)
	})
	if err != nil {
		return objid.Set{}, err
	}
	return objid.FromSlice(members), nil
}

// Players returns every object carrying the User flag.
func (t *Txn) Players() (objid.Set, error) {
	var members []objid.Objid
	err := t.scanFlags(func(o objid.Objid, flags bitenum.BitEnum[model.ObjFlag]) {
		if flags.Has(model.FlagUser) {
			members = append(members, o)
		}
	})
	if err != nil {
		return objid.Set{}, err
	}
	return objid.FromSlice(members), nil
}

// ObjectSizeBytes sums the encoded length of every relation entry obj
// carries, the rough size-on-disk behind the wizard-only size query.
// Reads go through the working set like any other operation.
func (t *Txn) ObjectSizeBytes(obj objid.Objid) (int64, error) {
	var total int64

	if v, ok, err := t.ObjectLocation.Get(obj); err != nil {
		return 0, err
	} else if ok {
		total += int64(len(encodeObjidVal(v)))
	}
	if v, ok, err := t.ObjectContents.Get(obj); err != nil {
		return 0, err
	} else if ok {
		total += int64(len(encodeObjSetVal(v)))
	}
	if v, ok, err := t.ObjectFlags.Get(obj); err != nil {
		return 0, err
	} else if ok {
		total += int64(len(encodeObjFlagsVal(v)))
	}
	if v, ok, err := t.ObjectParent.Get(obj); err != nil {
		return 0, err
	} else if ok {
		total += int64(len(encodeObjidVal(v)))
	}
	if v, ok, err := t.ObjectChildren.Get(obj); err != nil {
		return 0, err
	} else if ok {
		total += int64(len(encodeObjSetVal(v)))
	}
	if v, ok, err := t.ObjectOwner.Get(obj); err != nil {
		return 0, err
	} else if ok {
		total += int64(len(encodeObjidVal(v)))
	}
	if v, ok, err := t.ObjectName.Get(obj); err != nil {
		return 0, err
	} else if ok {
		total += int64(len(encodeStringVal(v)))
	}

	verbdefs, ok, err := t.ObjectVerbdefs.Get(obj)
	if err != nil {
		return 0, err
	}
	if ok {
		total += int64(len(encodeVerbDefsVal(verbdefs)))
		for _, vd := range verbdefs {
			if bin, ok, err := t.ObjectVerbs.Get(model.ObjUUID{Obj: obj, UUID: vd.UUID}); err != nil {
				return 0, err
			} else if ok {
				total += int64(len(encodeBytesVal(bin)))
			}
		}
	}

	propdefs, ok, err := t.ObjectPropdefs.Get(obj)
	if err != nil {
		return 0, err
	}
	if ok {
		total += int64(len(encodePropDefsVal(propdefs)))
		for _, pd := range propdefs {
			key := model.ObjUUID{Obj: obj, UUID: pd.UUID}
			if v, ok, err := t.ObjectPropvalues.Get(key); err != nil {
				return 0, err
			} else if ok {
				total += int64(len(encodeVarVal(v)))
			}
			if v, ok, err := t.ObjectPropflags.Get(key); err != nil {
				return 0, err
			} else if ok {
				total += int64(len(encodePropPermsVal(v)))
			}
		}
	}

	return total, nil
}
