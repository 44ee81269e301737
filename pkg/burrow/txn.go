package burrow

import (
	"sync"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/burrowdb/burrow/pkg/txn"
)

// State is a transaction's position in its state machine:
// ACTIVE -> {COMMITTED, CONFLICTED, ABORTED}.
type State int

const (
	StateActive State = iota
	StateCommitted
	StateConflicted
	StateAborted
)

// Txn is one transaction's view of the store: a WorkingSet per relation,
// bound to a single Database and a single monotonic timestamp. It is the
// low-level handle pkg/worldstate.Tx wraps with the world-model logic;
// Txn itself only knows about relations, not objects/properties/verbs.
type Txn struct {
	db *Database
	ts uint64

	mu    sync.Mutex
	state State

	ObjectLocation   *txn.WorkingSet[objid.Objid, objid.Objid]
	ObjectContents   *txn.WorkingSet[objid.Objid, objid.Set]
	ObjectFlags      *txn.WorkingSet[objid.Objid, bitenum.BitEnum[model.ObjFlag]]
	ObjectParent     *txn.WorkingSet[objid.Objid, objid.Objid]
	ObjectChildren   *txn.WorkingSet[objid.Objid, objid.Set]
	ObjectOwner      *txn.WorkingSet[objid.Objid, objid.Objid]
	ObjectName       *txn.WorkingSet[objid.Objid, string]
	ObjectVerbdefs   *txn.WorkingSet[objid.Objid, model.VerbDefs]
	ObjectVerbs      *txn.WorkingSet[model.ObjUUID, []byte]
	ObjectPropdefs   *txn.WorkingSet[objid.Objid, model.PropDefs]
	ObjectPropvalues *txn.WorkingSet[model.ObjUUID, moovar.Var]
	ObjectPropflags  *txn.WorkingSet[model.ObjUUID, model.PropPerms]
}

// Timestamp returns the transaction's monotonic start timestamp.
func (t *Txn) Timestamp() uint64 { return t.ts }

// State returns the transaction's current state-machine position.
func (t *Txn) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Database returns the owning Database, for operations (AllocObjid,
// MaxObject, sequences) that bypass the relation working sets.
func (t *Txn) Database() *Database { return t.db }

// Commit sends this transaction's working sets to the commit pipeline and
// blocks for the result. The transaction becomes terminal either way;
// calling Commit or Rollback again panics, mirroring the state machine's
// "COMMITTED/CONFLICTED/ABORTED are terminal" rule.
func (t *Txn) Commit() model.CommitResult {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		panic("burrow: Commit called on a non-active transaction")
	}
	t.mu.Unlock()

	result := t.db.commit(t)

	t.mu.Lock()
	if result == model.CommitSuccess {
		t.state = StateCommitted
	} else {
		t.state = StateConflicted
	}
	t.mu.Unlock()
	return result
}

// Rollback discards all local mutations. It is non-blocking and has no
// durable effect; the working sets simply stop being referenced.
func (t *Txn) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		panic("burrow: Rollback called on a non-active transaction")
	}
	t.state = StateAborted
}
