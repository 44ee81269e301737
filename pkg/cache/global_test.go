package cache

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/burrowdb/burrow/pkg/relation"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func testStore(t *testing.T) *relation.Store[uint64, string] {
	t.Helper()
	bdb, err := bolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })

	store, fresh, err := relation.Open[uint64, string](bdb, "test",
		func(k uint64) []byte {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], k)
			return b[:]
		},
		func(b []byte) (uint64, error) { return binary.BigEndian.Uint64(b), nil },
		func(v string) []byte { return []byte(v) },
		func(b []byte) (string, error) { return string(b), nil },
	)
	require.NoError(t, err)
	require.True(t, fresh)
	return store
}

func TestSnapshotReadColdMiss(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Put(1, "one"))

	g := New[uint64, string](store)
	version, val, present, err := g.SnapshotRead(1)
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, "one", val)
	require.Equal(t, uint64(0), version)

	// Absent keys also populate at version 0 so negative reads validate.
	version, _, present, err = g.SnapshotRead(2)
	require.NoError(t, err)
	require.False(t, present)
	require.Equal(t, uint64(0), version)
	require.Equal(t, 2, g.Len())
}

func TestCheckDetectsConflict(t *testing.T) {
	store := testStore(t)
	g := New[uint64, string](store)

	// T1 reads key 1 (a miss at version 0).
	ws1 := g.Start()
	_, _, err := ws1.Get(1)
	require.NoError(t, err)

	// T2 writes key 1 and applies.
	ws2 := g.Start()
	_, _, err = ws2.Get(1)
	require.NoError(t, err)
	ws2.Put(1, "from-t2")
	guard := g.Lock()
	require.NoError(t, guard.Check(ws2))
	require.NoError(t, guard.Apply(ws2))
	guard.Unlock()

	// T1's recorded version is now stale.
	guard = g.Lock()
	require.ErrorIs(t, guard.Check(ws1), ErrConflict)
	guard.Unlock()

	// A fresh transaction sees the applied value at the bumped version.
	ws3 := g.Start()
	v, ok, err := ws3.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "from-t2", v)
}

func TestApplyFlushesToStore(t *testing.T) {
	store := testStore(t)
	g := New[uint64, string](store)

	ws := g.Start()
	ws.Put(5, "five")
	ws.Delete(6)
	guard := g.Lock()
	require.NoError(t, guard.Check(ws))
	require.NoError(t, guard.Apply(ws))
	guard.Unlock()

	val, ok, err := store.Get(5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "five", val)

	// A tombstone reads as absent both through the cache and the store.
	_, ok, err = store.Get(6)
	require.NoError(t, err)
	require.False(t, ok)
	_, _, present, err := g.SnapshotRead(6)
	require.NoError(t, err)
	require.False(t, present)
}

func TestCreateThenDeleteBumpsVersion(t *testing.T) {
	store := testStore(t)
	g := New[uint64, string](store)

	ws := g.Start()
	ws.Put(1, "v1")
	guard := g.Lock()
	require.NoError(t, guard.Apply(ws))
	guard.Unlock()

	// Reader observes version 1.
	wsReader := g.Start()
	_, _, err := wsReader.Get(1)
	require.NoError(t, err)

	// Delete bumps to version 2; the reader's check must fail even
	// though the key is once again absent like at version 0.
	wsDel := g.Start()
	wsDel.Delete(1)
	guard = g.Lock()
	require.NoError(t, guard.Apply(wsDel))
	guard.Unlock()

	guard = g.Lock()
	require.ErrorIs(t, guard.Check(wsReader), ErrConflict)
	guard.Unlock()
}
