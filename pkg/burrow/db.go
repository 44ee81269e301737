// Package burrow assembles the typed relation store (pkg/relation), the
// global version cache (pkg/cache), and the working-set machinery
// (pkg/txn) into the single embeddable database handle, Database, plus
// its per-transaction counterpart Txn. Open binds one bbolt bucket per
// relation; Database's internal committer goroutine is the commit
// pipeline.
package burrow

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/blog"
	"github.com/burrowdb/burrow/pkg/cache"
	"github.com/burrowdb/burrow/pkg/metrics"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/burrowdb/burrow/pkg/relation"
	bolt "go.etcd.io/bbolt"
)

// numSequences is the fixed count of sequence counters: slot 0 is the
// object-id allocator, slot 15 the monotonic tx timestamp, slots 1..14
// reserved for caller use (a task scheduler uses some for task ids).
const numSequences = 16

const (
	seqObjectID   = 0
	seqMonotonic  = 15
)

type commitRequest struct {
	tx    *Txn
	reply chan model.CommitResult
}

// Database is the top-level handle: Component B (global version caches)
// wired to Component A (the bbolt-backed relation store) plus Component E
// (the commit pipeline goroutine).
type Database struct {
	bdb *bolt.DB

	objectLocation   *cache.Global[objid.Objid, objid.Objid]
	objectContents   *cache.Global[objid.Objid, objid.Set]
	objectFlags      *cache.Global[objid.Objid, bitenum.BitEnum[model.ObjFlag]]
	objectParent     *cache.Global[objid.Objid, objid.Objid]
	objectChildren   *cache.Global[objid.Objid, objid.Set]
	objectOwner      *cache.Global[objid.Objid, objid.Objid]
	objectName       *cache.Global[objid.Objid, string]
	objectVerbdefs   *cache.Global[objid.Objid, model.VerbDefs]
	objectVerbs      *cache.Global[model.ObjUUID, []byte]
	objectPropdefs   *cache.Global[objid.Objid, model.PropDefs]
	objectPropvalues *cache.Global[model.ObjUUID, moovar.Var]
	objectPropflags  *cache.Global[model.ObjUUID, model.PropPerms]

	seqStore  *relation.Store[uint8, int64]
	sequences [numSequences]atomic.Int64

	commitCh chan commitRequest
	usageCh  chan chan int64
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// Open opens (or initializes) a burrow database rooted at dir/burrow.db.
// fresh reports whether object_location did not already exist at open
// time, the signal that the external loader must create object #0
// before any user-facing transaction runs.
func Open(dir string) (db *Database, fresh bool, err error) {
	bdb, err := bolt.Open(filepath.Join(dir, "burrow.db"), 0600, nil)
	if err != nil {
		return nil, false, fmt.Errorf("burrow: open bbolt: %w", err)
	}

	d := &Database{bdb: bdb}

	d.objectLocation, fresh, err = openRelation(bdb, "object_location", encodeObjidKey, decodeObjidKey, encodeObjidVal, decodeObjidVal)
	if err != nil {
		return nil, false, err
	}
	if d.objectContents, _, err = openRelation(bdb, "object_contents", encodeObjidKey, decodeObjidKey, encodeObjSetVal, decodeObjSetVal); err != nil {
		return nil, false, err
	}
	if d.objectFlags, _, err = openRelation(bdb, "object_flags", encodeObjidKey, decodeObjidKey, encodeObjFlagsVal, decodeObjFlagsVal); err != nil {
		return nil, false, err
	}
	if d.objectParent, _, err = openRelation(bdb, "object_parent", encodeObjidKey, decodeObjidKey, encodeObjidVal, decodeObjidVal); err != nil {
		return nil, false, err
	}
	if d.objectChildren, _, err = openRelation(bdb, "object_children", encodeObjidKey, decodeObjidKey, encodeObjSetVal, decodeObjSetVal); err != nil {
		return nil, false, err
	}
	if d.objectOwner, _, err = openRelation(bdb, "object_owner", encodeObjidKey, decodeObjidKey, encodeObjidVal, decodeObjidVal); err != nil {
		return nil, false, err
	}
	if d.objectName, _, err = openRelation(bdb, "object_name", encodeObjidKey, decodeObjidKey, encodeStringVal, decodeStringVal); err != nil {
		return nil, false, err
	}
	if d.objectVerbdefs, _, err = openRelation(bdb, "object_verbdefs", encodeObjidKey, decodeObjidKey, encodeVerbDefsVal, decodeVerbDefsVal); err != nil {
		return nil, false, err
	}
	if d.objectVerbs, _, err = openRelation(bdb, "object_verbs", encodeObjUUIDKey, decodeObjUUIDKey, encodeBytesVal, decodeBytesVal); err != nil {
		return nil, false, err
	}
	if d.objectPropdefs, _, err = openRelation(bdb, "object_propdefs", encodeObjidKey, decodeObjidKey, encodePropDefsVal, decodePropDefsVal); err != nil {
		return nil, false, err
	}
	if d.objectPropvalues, _, err = openRelation(bdb, "object_propvalues", encodeObjUUIDKey, decodeObjUUIDKey, encodeVarVal, decodeVarVal); err != nil {
		return nil, false, err
	}
	if d.objectPropflags, _, err = openRelation(bdb, "object_propflags", encodeObjUUIDKey, decodeObjUUIDKey, encodePropPermsVal, decodePropPermsVal); err != nil {
		return nil, false, err
	}

	seqStore, _, err := relation.Open[uint8, int64](bdb, "sequences", encodeSlotKey, decodeSlotKey, encodeInt64Val, decodeInt64Val)
	if err != nil {
		return nil, false, err
	}
	d.seqStore = seqStore
	for slot := uint8(0); slot < numSequences; slot++ {
		v, ok, err := seqStore.Get(slot)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			if slot == seqMonotonic {
				v = 1
			} else {
				v = 0
			}
		}
		d.sequences[slot].Store(v)
	}

	d.commitCh = make(chan commitRequest)
	d.usageCh = make(chan chan int64)
	d.stopCh = make(chan struct{})
	d.wg.Add(1)
	go d.commitLoop()

	return d, fresh, nil
}

func openRelation[K comparable, V any](
	bdb *bolt.DB, name string,
	ek relation.EncodeKeyFunc[K], dk relation.DecodeKeyFunc[K],
	ev relation.EncodeValueFunc[V], dv relation.DecodeValueFunc[V],
) (*cache.Global[K, V], bool, error) {
	store, fresh, err := relation.Open[K, V](bdb, name, ek, dk, ev, dv)
	if err != nil {
		return nil, false, err
	}
	return cache.New[K, V](store), fresh, nil
}

// AllocObjid allocates the next dense Objid via sequence slot 0. It is a
// bare atomic counter outside the MVCC machinery (like every sequence
// slot), so allocation never conflicts across concurrent transactions.
func (d *Database) AllocObjid() objid.Objid {
	next := d.sequences[seqObjectID].Add(1) - 1
	return objid.Objid(next)
}

// MaxObject returns the largest Objid ever allocated, or NOTHING if none.
func (d *Database) MaxObject() objid.Objid {
	return objid.Objid(d.sequences[seqObjectID].Load() - 1)
}

// Sequence reads the current value of an arbitrary caller-reserved
// sequence slot (1..14).
func (d *Database) Sequence(slot uint8) int64 {
	return d.sequences[slot].Load()
}

// SetSequence overwrites a caller-reserved sequence slot.
func (d *Database) SetSequence(slot uint8, val int64) {
	d.sequences[slot].Store(val)
}

// CacheEntryCounts reports the number of resident entries per relation,
// keyed by relation name, for the metrics collector to poll.
func (d *Database) CacheEntryCounts() map[string]int {
	return map[string]int{
		"object_location":   d.objectLocation.Len(),
		"object_contents":   d.objectContents.Len(),
		"object_flags":      d.objectFlags.Len(),
		"object_parent":     d.objectParent.Len(),
		"object_children":   d.objectChildren.Len(),
		"object_owner":      d.objectOwner.Len(),
		"object_name":       d.objectName.Len(),
		"object_verbdefs":   d.objectVerbdefs.Len(),
		"object_verbs":      d.objectVerbs.Len(),
		"object_propdefs":   d.objectPropdefs.Len(),
		"object_propvalues": d.objectPropvalues.Len(),
		"object_propflags":  d.objectPropflags.Len(),
	}
}

// ObjectCount reports the number of valid (non-recycled) objects, by
// counting the durably stored object_flags entries as of the last applied
// commit: every valid object has a flags entry, recycled ones are deleted.
// Used by the metrics collector for burrow_objects_total; for
// authoritative validity checks callers should use pkg/worldstate instead.
func (d *Database) ObjectCount() int {
	n := 0
	_ = d.objectFlags.ForEachStored(func(objid.Objid, bitenum.BitEnum[model.ObjFlag]) error {
		n++
		return nil
	})
	return n
}

// UsageBytes returns the rough on-disk size of the database, from
// bbolt's own page accounting. Serviced by the committer goroutine
// between commit tuples.
func (d *Database) UsageBytes() int64 {
	reply := make(chan int64, 1)
	select {
	case d.usageCh <- reply:
		return <-reply
	case <-d.stopCh:
		return 0
	}
}

// usageBytesSync reads bbolt's page allocation counter, a page-granular
// proxy for disk usage, not logical bytes. For per-object logical
// accounting use Txn.ObjectSizeBytes instead.
func (d *Database) usageBytesSync() int64 {
	stats := d.bdb.Stats()
	return int64(stats.TxStats.PageAlloc)
}

// Close stops the commit pipeline goroutine and closes the backing store.
// Calling it again after it has returned is a no-op.
func (d *Database) Close() error {
	select {
	case <-d.stopCh:
		return nil
	default:
	}
	close(d.stopCh)
	d.wg.Wait()
	return d.bdb.Close()
}

// BeginTx opens a new transaction: one working set per relation, plus a
// freshly allocated monotonic timestamp (sequence slot 15).
func (d *Database) BeginTx() *Txn {
	ts := uint64(d.sequences[seqMonotonic].Add(1) - 1)
	return &Txn{
		db: d,
		ts: ts,

		ObjectLocation:   d.objectLocation.Start(),
		ObjectContents:   d.objectContents.Start(),
		ObjectFlags:      d.objectFlags.Start(),
		ObjectParent:     d.objectParent.Start(),
		ObjectChildren:   d.objectChildren.Start(),
		ObjectOwner:      d.objectOwner.Start(),
		ObjectName:       d.objectName.Start(),
		ObjectVerbdefs:   d.objectVerbdefs.Start(),
		ObjectVerbs:      d.objectVerbs.Start(),
		ObjectPropdefs:   d.objectPropdefs.Start(),
		ObjectPropvalues: d.objectPropvalues.Start(),
		ObjectPropflags:  d.objectPropflags.Start(),
	}
}

// commitLoop is the single committer goroutine. It also services
// UsageBytes queries between commit attempts, on the same thread, to
// keep stat polling off the relation locks.
func (d *Database) commitLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case reply := <-d.usageCh:
			reply <- d.usageBytesSync()
		case req := <-d.commitCh:
			d.processCommit(req)
		}
	}
}

func (d *Database) processCommit(req commitRequest) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CommitDuration)

	tx := req.tx

	olGuard := d.objectLocation.Lock()
	ocGuard := d.objectContents.Lock()
	ofGuard := d.objectFlags.Lock()
	opGuard := d.objectParent.Lock()
	ochGuard := d.objectChildren.Lock()
	ooGuard := d.objectOwner.Lock()
	onGuard := d.objectName.Lock()
	ovdGuard := d.objectVerbdefs.Lock()
	ovGuard := d.objectVerbs.Lock()
	opdGuard := d.objectPropdefs.Lock()
	opvGuard := d.objectPropvalues.Lock()
	opfGuard := d.objectPropflags.Lock()
	release := func() {
		olGuard.Unlock()
		ocGuard.Unlock()
		ofGuard.Unlock()
		opGuard.Unlock()
		ochGuard.Unlock()
		ooGuard.Unlock()
		onGuard.Unlock()
		ovdGuard.Unlock()
		ovGuard.Unlock()
		opdGuard.Unlock()
		opvGuard.Unlock()
		opfGuard.Unlock()
	}

	checks := []error{
		olGuard.Check(tx.ObjectLocation),
		ocGuard.Check(tx.ObjectContents),
		ofGuard.Check(tx.ObjectFlags),
		opGuard.Check(tx.ObjectParent),
		ochGuard.Check(tx.ObjectChildren),
		ooGuard.Check(tx.ObjectOwner),
		onGuard.Check(tx.ObjectName),
		ovdGuard.Check(tx.ObjectVerbdefs),
		ovGuard.Check(tx.ObjectVerbs),
		opdGuard.Check(tx.ObjectPropdefs),
		opvGuard.Check(tx.ObjectPropvalues),
		opfGuard.Check(tx.ObjectPropflags),
	}
	for _, err := range checks {
		if err != nil {
			release()
			metrics.CommitsTotal.WithLabelValues("conflict").Inc()
			req.reply <- model.CommitConflictRetry
			return
		}
	}

	applies := []error{
		olGuard.Apply(tx.ObjectLocation),
		ocGuard.Apply(tx.ObjectContents),
		ofGuard.Apply(tx.ObjectFlags),
		opGuard.Apply(tx.ObjectParent),
		ochGuard.Apply(tx.ObjectChildren),
		ooGuard.Apply(tx.ObjectOwner),
		onGuard.Apply(tx.ObjectName),
		ovdGuard.Apply(tx.ObjectVerbdefs),
		ovGuard.Apply(tx.ObjectVerbs),
		opdGuard.Apply(tx.ObjectPropdefs),
		opvGuard.Apply(tx.ObjectPropvalues),
		opfGuard.Apply(tx.ObjectPropflags),
	}
	for _, err := range applies {
		if err != nil {
			release()
			blog.Logger.Error().Err(err).Msg("commit apply failed after check passed")
			metrics.CommitsTotal.WithLabelValues("conflict").Inc()
			req.reply <- model.CommitConflictRetry
			return
		}
	}
	release()

	// The sequence flush, fsync, and reply all happen off the relation
	// locks; only check and apply need them.
	for slot := uint8(0); slot < numSequences; slot++ {
		if err := d.seqStore.Put(slot, d.sequences[slot].Load()); err != nil {
			blog.Logger.Error().Err(err).Msg("failed to persist sequences")
		}
	}

	if err := relation.Sync(d.bdb); err != nil {
		blog.Logger.Error().Err(err).Msg("fsync failed after commit")
	}

	metrics.CommitsTotal.WithLabelValues("success").Inc()
	metrics.DatabaseUsageBytes.Set(float64(d.usageBytesSync()))
	req.reply <- model.CommitSuccess
}

// commit sends tx's working sets to the committer goroutine and blocks
// for the reply.
func (d *Database) commit(tx *Txn) model.CommitResult {
	reply := make(chan model.CommitResult, 1)
	d.commitCh <- commitRequest{tx: tx, reply: reply}
	return <-reply
}
