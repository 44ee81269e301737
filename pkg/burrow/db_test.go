package burrow

import (
	"testing"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/stretchr/testify/require"
)

func TestOpenFreshThenResumed(t *testing.T) {
	dir := t.TempDir()

	db, fresh, err := Open(dir)
	require.NoError(t, err)
	require.True(t, fresh, "first open must report a fresh database")
	require.NoError(t, db.Close())

	db, fresh, err = Open(dir)
	require.NoError(t, err)
	require.False(t, fresh, "second open must report a resumed database")
	require.NoError(t, db.Close())
}

func TestCommitDurability(t *testing.T) {
	dir := t.TempDir()
	db, _, err := Open(dir)
	require.NoError(t, err)

	obj := db.AllocObjid()
	tx := db.BeginTx()
	tx.ObjectName.Put(obj, "persistent thing")
	tx.ObjectFlags.Put(obj, bitenum.New(model.FlagRead))
	require.Equal(t, model.CommitSuccess, tx.Commit())
	require.NoError(t, db.Close())

	db, _, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()

	tx = db.BeginTx()
	name, ok, err := tx.ObjectName.Get(obj)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "persistent thing", name)
	flags, ok, err := tx.ObjectFlags.Get(obj)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, flags.Has(model.FlagRead))
	tx.Rollback()
}

func TestSequencesSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	db, _, err := Open(dir)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		db.AllocObjid()
	}
	db.SetSequence(3, 99)
	// Sequences persist as part of every commit.
	tx := db.BeginTx()
	tx.ObjectName.Put(objid.Objid(0), "x")
	require.Equal(t, model.CommitSuccess, tx.Commit())
	require.NoError(t, db.Close())

	db, _, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()

	require.Equal(t, objid.Objid(4), db.MaxObject())
	require.Equal(t, int64(99), db.Sequence(3))
	require.Equal(t, objid.Objid(5), db.AllocObjid())
}

func TestConflictOnConcurrentWrite(t *testing.T) {
	db, _, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	key := objid.Objid(1)

	t1 := db.BeginTx()
	_, _, err = t1.ObjectName.Get(key)
	require.NoError(t, err)

	t2 := db.BeginTx()
	_, _, err = t2.ObjectName.Get(key)
	require.NoError(t, err)
	t2.ObjectName.Put(key, "from t2")
	require.Equal(t, model.CommitSuccess, t2.Commit())

	t1.ObjectName.Put(key, "from t1")
	require.Equal(t, model.CommitConflictRetry, t1.Commit())

	// The winner's value stands.
	t3 := db.BeginTx()
	name, ok, err := t3.ObjectName.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "from t2", name)
	t3.Rollback()
}

func TestDisjointWritesBothCommit(t *testing.T) {
	db, _, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	t1 := db.BeginTx()
	t2 := db.BeginTx()
	t1.ObjectName.Put(objid.Objid(1), "one")
	t2.ObjectName.Put(objid.Objid(2), "two")
	require.Equal(t, model.CommitSuccess, t1.Commit())
	require.Equal(t, model.CommitSuccess, t2.Commit())
}

func TestMonotonicTimestamps(t *testing.T) {
	db, _, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	t1 := db.BeginTx()
	t2 := db.BeginTx()
	require.Less(t, t1.Timestamp(), t2.Timestamp())
	t1.Rollback()
	t2.Rollback()
}

func TestUsageBytes(t *testing.T) {
	db, _, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	tx := db.BeginTx()
	tx.ObjectName.Put(objid.Objid(1), "something")
	require.Equal(t, model.CommitSuccess, tx.Commit())

	require.GreaterOrEqual(t, db.UsageBytes(), int64(0))
}

func TestAllObjectsOverlay(t *testing.T) {
	db, _, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	tx := db.BeginTx()
	tx.ObjectFlags.Put(objid.Objid(0), bitenum.New(model.FlagUser))
	tx.ObjectFlags.Put(objid.Objid(1), bitenum.New[model.ObjFlag]())
	require.Equal(t, model.CommitSuccess, tx.Commit())

	// Staged mutations are visible to the scanning transaction only.
	tx = db.BeginTx()
	tx.ObjectFlags.Put(objid.Objid(2), bitenum.New[model.ObjFlag]())
	tx.ObjectFlags.Delete(objid.Objid(1))
	all, err := tx.AllObjects()
	require.NoError(t, err)
	require.Equal(t, []objid.Objid{0, 2}, all.ToSlice())

	players, err := tx.Players()
	require.NoError(t, err)
	require.Equal(t, []objid.Objid{0}, players.ToSlice())
	tx.Rollback()

	tx = db.BeginTx()
	all, err = tx.AllObjects()
	require.NoError(t, err)
	require.Equal(t, []objid.Objid{0, 1}, all.ToSlice())
	tx.Rollback()
}
