// Package worldstate is the transaction facade: the high-level
// world-state contract (objects, properties, verbs, control) layered
// over one pkg/burrow.Txn. Every mutation performs its permission check
// before touching a working set; every read resolves through the
// transaction's private working sets, so no partial state is ever
// visible outside the transaction until commit.
package worldstate

import (
	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/blog"
	"github.com/burrowdb/burrow/pkg/burrow"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/rs/zerolog"
)

// Tx is one world-state transaction. It wraps the relation-level
// burrow.Txn with the object/property/verb semantics and the permission
// algebra. A Tx is not safe for concurrent use; each concurrent caller
// gets its own Tx from Begin.
type Tx struct {
	t   *burrow.Txn
	log zerolog.Logger
}

// Begin opens a new world-state transaction against db.
func Begin(db *burrow.Database) *Tx {
	t := db.BeginTx()
	return &Tx{
		t:   t,
		log: blog.WithTxn(t.Timestamp()),
	}
}

// Raw exposes the underlying relation-level transaction, for callers (the
// bulk loader, tests) that need to bypass the facade.
func (tx *Tx) Raw() *burrow.Txn { return tx.t }

// Commit hands the transaction's working sets to the commit pipeline and
// blocks for the verdict. On CommitConflictRetry the caller replays the
// whole transaction on a fresh Tx.
func (tx *Tx) Commit() model.CommitResult {
	return tx.t.Commit()
}

// Rollback discards the transaction. Non-blocking, no durable effect.
func (tx *Tx) Rollback() {
	tx.t.Rollback()
}

// Perms loads the permission context for the acting object who.
func (tx *Tx) Perms(who objid.Objid) (Perms, error) {
	flags, err := tx.flagsOf(who)
	if err != nil {
		return Perms{}, err
	}
	return Perms{Who: who, Flags: flags}, nil
}

// dbErr wraps an unrecoverable storage failure. Everything the relation
// layer surfaces below the facade is a DatabaseError by definition;
// permission and not-found outcomes are produced by the facade itself.
func (tx *Tx) dbErr(err error) error {
	if err == nil {
		return nil
	}
	tx.log.Debug().Err(err).Msg("storage failure inside transaction")
	return model.DatabaseError(err)
}

// -- low-level reads shared by every operation --

// flagsOf also doubles as the existence check: every valid object has an
// object_flags entry, and recycle deletes it.
func (tx *Tx) flagsOf(obj objid.Objid) (bitenum.BitEnum[model.ObjFlag], error) {
	if obj == objid.NOTHING {
		return 0, model.ObjectNotFound(obj)
	}
	flags, ok, err := tx.t.ObjectFlags.Get(obj)
	if err != nil {
		return 0, tx.dbErr(err)
	}
	if !ok {
		return 0, model.ObjectNotFound(obj)
	}
	return flags, nil
}

func (tx *Tx) ownerOf(obj objid.Objid) (objid.Objid, error) {
	owner, ok, err := tx.t.ObjectOwner.Get(obj)
	if err != nil {
		return objid.NOTHING, tx.dbErr(err)
	}
	if !ok {
		return objid.NOTHING, model.ObjectNotFound(obj)
	}
	return owner, nil
}

func (tx *Tx) parentOf(obj objid.Objid) (objid.Objid, error) {
	parent, ok, err := tx.t.ObjectParent.Get(obj)
	if err != nil {
		return objid.NOTHING, tx.dbErr(err)
	}
	if !ok {
		return objid.NOTHING, model.ObjectNotFound(obj)
	}
	return parent, nil
}

func (tx *Tx) childrenOf(obj objid.Objid) (objid.Set, error) {
	children, _, err := tx.t.ObjectChildren.Get(obj)
	if err != nil {
		return objid.Set{}, tx.dbErr(err)
	}
	return children, nil
}

func (tx *Tx) locationOf(obj objid.Objid) (objid.Objid, error) {
	loc, ok, err := tx.t.ObjectLocation.Get(obj)
	if err != nil {
		return objid.NOTHING, tx.dbErr(err)
	}
	if !ok {
		return objid.NOTHING, model.ObjectNotFound(obj)
	}
	return loc, nil
}

func (tx *Tx) contentsOf(obj objid.Objid) (objid.Set, error) {
	contents, _, err := tx.t.ObjectContents.Get(obj)
	if err != nil {
		return objid.Set{}, tx.dbErr(err)
	}
	return contents, nil
}

func (tx *Tx) propdefsOf(obj objid.Objid) (model.PropDefs, error) {
	defs, _, err := tx.t.ObjectPropdefs.Get(obj)
	if err != nil {
		return nil, tx.dbErr(err)
	}
	return defs, nil
}

func (tx *Tx) verbdefsOf(obj objid.Objid) (model.VerbDefs, error) {
	defs, _, err := tx.t.ObjectVerbdefs.Get(obj)
	if err != nil {
		return nil, tx.dbErr(err)
	}
	return defs, nil
}

// ancestorChain returns obj followed by its parent chain up to (not
// including) NOTHING, in walk order. obj itself must be valid.
func (tx *Tx) ancestorChain(obj objid.Objid) ([]objid.Objid, error) {
	var chain []objid.Objid
	for o := obj; o != objid.NOTHING; {
		chain = append(chain, o)
		parent, ok, err := tx.t.ObjectParent.Get(o)
		if err != nil {
			return nil, tx.dbErr(err)
		}
		if !ok {
			break
		}
		o = parent
	}
	return chain, nil
}

// descendantsOf returns every transitive child of obj, breadth-first, not
// including obj itself.
func (tx *Tx) descendantsOf(obj objid.Objid) ([]objid.Objid, error) {
	var out []objid.Objid
	queue := []objid.Objid{obj}
	for len(queue) > 0 {
		o := queue[0]
		queue = queue[1:]
		children, err := tx.childrenOf(o)
		if err != nil {
			return nil, err
		}
		for _, c := range children.ToSlice() {
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out, nil
}

// Valid reports whether obj currently exists in the world.
func (tx *Tx) Valid(obj objid.Objid) (bool, error) {
	if obj == objid.NOTHING {
		return false, nil
	}
	_, ok, err := tx.t.ObjectFlags.Get(obj)
	if err != nil {
		return false, tx.dbErr(err)
	}
	return ok, nil
}

// Ancestors returns obj followed by its parent chain, as a set.
func (tx *Tx) Ancestors(obj objid.Objid) (objid.Set, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return objid.Set{}, err
	}
	chain, err := tx.ancestorChain(obj)
	if err != nil {
		return objid.Set{}, err
	}
	return objid.FromSlice(chain), nil
}

// Descendants returns every transitive child of obj.
func (tx *Tx) Descendants(obj objid.Objid) (objid.Set, error) {
	if _, err := tx.flagsOf(obj); err != nil {
		return objid.Set{}, err
	}
	descendants, err := tx.descendantsOf(obj)
	if err != nil {
		return objid.Set{}, err
	}
	return objid.FromSlice(descendants), nil
}

// GetObjects returns every valid object in the world.
func (tx *Tx) GetObjects() (objid.Set, error) {
	objects, err := tx.t.AllObjects()
	if err != nil {
		return objid.Set{}, tx.dbErr(err)
	}
	return objects, nil
}

// Players returns every object carrying the User flag.
func (tx *Tx) Players() (objid.Set, error) {
	players, err := tx.t.Players()
	if err != nil {
		return objid.Set{}, tx.dbErr(err)
	}
	return players, nil
}

// MaxObject returns the largest Objid ever allocated.
func (tx *Tx) MaxObject() objid.Objid {
	return tx.t.Database().MaxObject()
}

// ObjectBytes is the wizard-only rough size-on-disk query: the sum of the
// encoded lengths of the object's entries across all thirteen relations.
func (tx *Tx) ObjectBytes(perms objid.Objid, obj objid.Objid) (int64, error) {
	p, err := tx.Perms(perms)
	if err != nil {
		return 0, err
	}
	if err := p.CheckWizard(); err != nil {
		return 0, err
	}
	if _, err := tx.flagsOf(obj); err != nil {
		return 0, err
	}
	size, err := tx.t.ObjectSizeBytes(obj)
	if err != nil {
		return 0, tx.dbErr(err)
	}
	return size, nil
}

// DbUsage returns the rough on-disk size of the whole database, serviced
// by the commit pipeline thread between commit tuples.
func (tx *Tx) DbUsage() int64 {
	return tx.t.Database().UsageBytes()
}
