package worldstate

import (
	"errors"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/metrics"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/google/uuid"
)

// VerbInfo pairs a resolved verb handle with its compiled binary, fetched
// from the handle's defining object.
type VerbInfo struct {
	VerbDef model.VerbDef
	Binary  []byte
}

// VerbAttrs carries the optional fields of a verb update; nil fields are
// left unchanged. Binary replaces the compiled blob when non-nil.
type VerbAttrs struct {
	Owner      *objid.Objid
	Names      []string
	Flags      *bitenum.BitEnum[model.VerbFlag]
	Args       *model.ArgSpec
	BinaryType *model.BinaryType
	Binary     []byte
}

// Verbs lists obj's verb declarations in creation order. Requires Read on
// obj.
func (tx *Tx) Verbs(perms objid.Objid, obj objid.Objid) (model.VerbDefs, error) {
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
	return tx.verbdefsOf(obj)
}

// AddVerb declares a new verb on obj, appending to the end of the verb
// list (order is observable) and storing the binary under a fresh UUID.
// Requires Write on obj.
func (tx *Tx) AddVerb(perms objid.Objid, obj objid.Objid, names []string, owner objid.Objid, flags bitenum.BitEnum[model.VerbFlag], args model.ArgSpec, binary []byte, binaryType model.BinaryType) (uuid.UUID, error) {
	objFlags, err := tx.flagsOf(obj)
	if err != nil {
		return uuid.UUID{}, err
	}
	objOwner, err := tx.ownerOf(obj)
	if err != nil {
		return uuid.UUID{}, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return uuid.UUID{}, err
	}
	if err := p.CheckObjectAllows(objOwner, objFlags, model.FlagWrite); err != nil {
		return uuid.UUID{}, err
	}

	vd := model.VerbDef{
		UUID:       uuid.New(),
		Location:   obj,
		Owner:      owner,
		Names:      names,
		Flags:      flags,
		BinaryType: binaryType,
		Args:       args,
	}
	defs, err := tx.verbdefsOf(obj)
	if err != nil {
		return uuid.UUID{}, err
	}
	tx.t.ObjectVerbdefs.Put(obj, append(defs, vd))
	tx.t.ObjectVerbs.Put(model.ObjUUID{Obj: obj, UUID: vd.UUID}, binary)
	return vd.UUID, nil
}

// RemoveVerb deletes a verb declaration and its binary. Requires Write on
// the verb.
func (tx *Tx) RemoveVerb(perms objid.Objid, obj objid.Objid, u uuid.UUID) error {
	if _, err := tx.flagsOf(obj); err != nil {
		return err
	}
	defs, err := tx.verbdefsOf(obj)
	if err != nil {
		return err
	}
	vd, ok := defs.FindByUUID(u)
	if !ok {
		return model.VerbNotFound(obj, u.String())
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckVerbAllows(vd.Owner, vd.Flags, model.VerbWrite); err != nil {
		return err
	}
	tx.t.ObjectVerbdefs.Put(obj, defs.Without(u))
	tx.t.ObjectVerbs.Delete(model.ObjUUID{Obj: obj, UUID: u})
	return nil
}

// UpdateVerb rewrites the first verb on obj matching vname. Requires
// Write on the verb.
func (tx *Tx) UpdateVerb(perms objid.Objid, obj objid.Objid, vname string, attrs VerbAttrs) error {
	vd, err := tx.getVerbByName(obj, vname)
	if err != nil {
		return err
	}
	return tx.updateVerbChecked(perms, obj, vd, attrs)
}

// UpdateVerbAtIndex rewrites the verb at the given 0-based index.
func (tx *Tx) UpdateVerbAtIndex(perms objid.Objid, obj objid.Objid, index int, attrs VerbAttrs) error {
	vd, err := tx.getVerbByIndex(obj, index)
	if err != nil {
		return err
	}
	return tx.updateVerbChecked(perms, obj, vd, attrs)
}

// UpdateVerbWithID rewrites the verb with the given UUID.
func (tx *Tx) UpdateVerbWithID(perms objid.Objid, obj objid.Objid, u uuid.UUID, attrs VerbAttrs) error {
	if _, err := tx.flagsOf(obj); err != nil {
		return err
	}
	defs, err := tx.verbdefsOf(obj)
	if err != nil {
		return err
	}
	vd, ok := defs.FindByUUID(u)
	if !ok {
		return model.VerbNotFound(obj, u.String())
	}
	return tx.updateVerbChecked(perms, obj, vd, attrs)
}

func (tx *Tx) updateVerbChecked(perms objid.Objid, obj objid.Objid, vd model.VerbDef, attrs VerbAttrs) error {
	p, err := tx.Perms(perms)
	if err != nil {
		return err
	}
	if err := p.CheckVerbAllows(vd.Owner, vd.Flags, model.VerbWrite); err != nil {
		return err
	}
	defs, err := tx.verbdefsOf(obj)
	if err != nil {
		return err
	}
	for i := range defs {
		if defs[i].UUID != vd.UUID {
			continue
		}
		if attrs.Owner != nil {
			defs[i].Owner = *attrs.Owner
		}
		if attrs.Names != nil {
			defs[i].Names = attrs.Names
		}
		if attrs.Flags != nil {
			defs[i].Flags = *attrs.Flags
		}
		if attrs.Args != nil {
			defs[i].Args = *attrs.Args
		}
		if attrs.BinaryType != nil {
			defs[i].BinaryType = *attrs.BinaryType
		}
	}
	tx.t.ObjectVerbdefs.Put(obj, defs)
	if attrs.Binary != nil {
		tx.t.ObjectVerbs.Put(model.ObjUUID{Obj: obj, UUID: vd.UUID}, attrs.Binary)
	}
	return nil
}

func (tx *Tx) getVerbByName(obj objid.Objid, vname string) (model.VerbDef, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return model.VerbDef{}, err
	}
	defs, err := tx.verbdefsOf(obj)
	if err != nil {
		return model.VerbDef{}, err
	}
	for _, vd := range defs {
		if vd.NameMatches(vname) {
			return vd, nil
		}
	}
	return model.VerbDef{}, model.VerbNotFound(obj, vname)
}

func (tx *Tx) getVerbByIndex(obj objid.Objid, index int) (model.VerbDef, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return model.VerbDef{}, err
	}
	defs, err := tx.verbdefsOf(obj)
	if err != nil {
		return model.VerbDef{}, err
	}
	if index < 0 || index >= len(defs) {
		return model.VerbDef{}, model.VerbNotFound(obj, "")
	}
	return defs[index], nil
}

// GetVerb returns the first verb declared on obj itself (no inheritance)
// matching vname. Requires Read on the verb.
func (tx *Tx) GetVerb(perms objid.Objid, obj objid.Objid, vname string) (model.VerbDef, error) {
	vd, err := tx.getVerbByName(obj, vname)
	if err != nil {
		return model.VerbDef{}, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return model.VerbDef{}, err
	}
	if err := p.CheckVerbAllows(vd.Owner, vd.Flags, model.VerbRead); err != nil {
		return model.VerbDef{}, err
	}
	return vd, nil
}

// GetVerbAtIndex returns the verb at the given 0-based creation-order
// index. Requires Read on the verb.
func (tx *Tx) GetVerbAtIndex(perms objid.Objid, obj objid.Objid, index int) (model.VerbDef, error) {
	vd, err := tx.getVerbByIndex(obj, index)
	if err != nil {
		return model.VerbDef{}, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return model.VerbDef{}, err
	}
	if err := p.CheckVerbAllows(vd.Owner, vd.Flags, model.VerbRead); err != nil {
		return model.VerbDef{}, err
	}
	return vd, nil
}

// RetrieveVerb fetches a verb by UUID along with its binary. Requires
// Read on the verb.
func (tx *Tx) RetrieveVerb(perms objid.Objid, obj objid.Objid, u uuid.UUID) (VerbInfo, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return VerbInfo{}, err
	}
	defs, err := tx.verbdefsOf(obj)
	if err != nil {
		return VerbInfo{}, err
	}
	vd, ok := defs.FindByUUID(u)
	if !ok {
		return VerbInfo{}, model.VerbNotFound(obj, u.String())
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return VerbInfo{}, err
	}
	if err := p.CheckVerbAllows(vd.Owner, vd.Flags, model.VerbRead); err != nil {
		return VerbInfo{}, err
	}
	return tx.verbInfo(vd)
}

func (tx *Tx) verbInfo(vd model.VerbDef) (VerbInfo, error) {
	binary, ok, err := tx.t.ObjectVerbs.Get(model.ObjUUID{Obj: vd.Location, UUID: vd.UUID})
	if err != nil {
		return VerbInfo{}, tx.dbErr(err)
	}
	if !ok {
		return VerbInfo{}, model.VerbDecodeError(vd.Location, "binary missing for verb "+vd.UUID.String())
	}
	return VerbInfo{VerbDef: vd, Binary: binary}, nil
}

// resolveVerb walks obj's parent chain for the first verb matching vname
// whose args-spec (when a candidate is supplied) also matches.
func (tx *Tx) resolveVerb(obj objid.Objid, vname string, args *model.ResolvedArgs) (model.VerbDef, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.VerbResolveDuration)

	chain, err := tx.ancestorChain(obj)
	if err != nil {
		return model.VerbDef{}, err
	}
	for _, o := range chain {
		defs, err := tx.verbdefsOf(o)
		if err != nil {
			return model.VerbDef{}, err
		}
		for _, vd := range defs {
			if !vd.NameMatches(vname) {
				continue
			}
			if args != nil && !vd.Args.Matches(*args) {
				continue
			}
			return vd, nil
		}
	}
	return model.VerbDef{}, model.VerbNotFound(obj, vname)
}

// FindMethodVerbOn resolves vname along obj's parent chain and returns it
// with its binary, the programmatic (non-command) dispatch entry point.
// Requires Read on the resolved verb.
func (tx *Tx) FindMethodVerbOn(perms objid.Objid, obj objid.Objid, vname string) (VerbInfo, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return VerbInfo{}, err
	}
	vd, err := tx.resolveVerb(obj, vname, nil)
	if err != nil {
		return VerbInfo{}, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return VerbInfo{}, err
	}
	if err := p.CheckVerbAllows(vd.Owner, vd.Flags, model.VerbRead); err != nil {
		return VerbInfo{}, err
	}
	return tx.verbInfo(vd)
}

// FindCommandVerbOn resolves a command verb against obj: the parser's
// matched dobj/iobj are folded to This/None/Any relative to obj, and prep
// is the parsed preposition id (negative for none). Returns found=false
// rather than an error when nothing matches, since the parser tries
// several candidate objects in turn. Requires Read on obj and on the
// resolved verb.
func (tx *Tx) FindCommandVerbOn(perms objid.Objid, obj objid.Objid, commandVerb string, dobj objid.Objid, prep int, iobj objid.Objid) (VerbInfo, bool, error) {
	ok, err := tx.Valid(obj)
	if err != nil {
		return VerbInfo{}, false, err
	}
	if !ok {
		return VerbInfo{}, false, nil
	}

	objFlags, err := tx.flagsOf(obj)
	if err != nil {
		return VerbInfo{}, false, err
	}
	owner, err := tx.ownerOf(obj)
	if err != nil {
		return VerbInfo{}, false, err
	}
	p, err := tx.Perms(perms)
	if err != nil {
		return VerbInfo{}, false, err
	}
	if err := p.CheckObjectAllows(owner, objFlags, model.FlagRead); err != nil {
		return VerbInfo{}, false, err
	}

	args := model.ResolvedArgs{
		Dobj: foldObjSlot(obj, dobj),
		Prep: prep,
		Iobj: foldObjSlot(obj, iobj),
	}
	vd, err := tx.resolveVerb(obj, commandVerb, &args)
	if err != nil {
		var wErr *model.Error
		if errors.As(err, &wErr) && wErr.Code == model.CodeVerbNotFound {
			return VerbInfo{}, false, nil
		}
		return VerbInfo{}, false, err
	}
	if err := p.CheckVerbAllows(vd.Owner, vd.Flags, model.VerbRead); err != nil {
		return VerbInfo{}, false, err
	}
	info, err := tx.verbInfo(vd)
	if err != nil {
		return VerbInfo{}, false, err
	}
	return info, true, nil
}

// foldObjSlot reduces a parser-resolved object to the ResolvedArgs
// encoding: none, the verb's own object, or some other object.
func foldObjSlot(this objid.Objid, resolved objid.Objid) int {
	switch resolved {
	case objid.NOTHING:
		return 0
	case this:
		return 1
	default:
		return 2
	}
}
