package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is a SnapshotSource backed by a plain map with a fixed
// version per key.
type fakeSource struct {
	versions map[string]uint64
	values   map[string]int
	reads    int
}

func (f *fakeSource) SnapshotRead(key string) (uint64, int, bool, error) {
	f.reads++
	v, ok := f.values[key]
	return f.versions[key], v, ok, nil
}

func TestGetRecordsReads(t *testing.T) {
	src := &fakeSource{
		versions: map[string]uint64{"a": 3},
		values:   map[string]int{"a": 10},
	}
	ws := New[string, int](src)

	v, ok, err := ws.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, uint64(3), ws.Reads()["a"])

	// Negative reads are recorded too, at the source's version.
	_, ok, err = ws.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
	_, recorded := ws.Reads()["missing"]
	assert.True(t, recorded)
}

func TestReadYourWrites(t *testing.T) {
	src := &fakeSource{versions: map[string]uint64{}, values: map[string]int{}}
	ws := New[string, int](src)

	ws.Put("k", 7)
	v, ok, err := ws.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	// The local write shadows the source entirely.
	assert.Zero(t, src.reads)
	assert.Empty(t, ws.Reads())
}

func TestDeleteShadowsSource(t *testing.T) {
	src := &fakeSource{
		versions: map[string]uint64{"a": 1},
		values:   map[string]int{"a": 10},
	}
	ws := New[string, int](src)

	ws.Delete("a")
	_, ok, err := ws.Get("a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Put after Delete resurrects the key locally.
	ws.Put("a", 20)
	v, ok, err := ws.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20, v)
	assert.Empty(t, ws.DeleteKeys())

	// Delete after Put drops the staged write.
	ws.Delete("a")
	assert.Empty(t, ws.Writes())
	assert.Len(t, ws.DeleteKeys(), 1)
}

func TestDirty(t *testing.T) {
	src := &fakeSource{versions: map[string]uint64{}, values: map[string]int{}}
	ws := New[string, int](src)
	assert.False(t, ws.Dirty())
	ws.Put("a", 1)
	assert.True(t, ws.Dirty())
}
