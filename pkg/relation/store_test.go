package relation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func openTestStore(t *testing.T, bucket string) (*Store[string, string], bool) {
	t.Helper()
	bdb, err := bolt.Open(filepath.Join(t.TempDir(), "rel.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })
	return openOn(t, bdb, bucket)
}

func openOn(t *testing.T, bdb *bolt.DB, bucket string) (*Store[string, string], bool) {
	t.Helper()
	s, fresh, err := Open[string, string](bdb, bucket,
		func(k string) []byte { return []byte(k) },
		func(b []byte) (string, error) { return string(b), nil },
		func(v string) []byte { return []byte(v) },
		func(b []byte) (string, error) { return string(b), nil },
	)
	require.NoError(t, err)
	return s, fresh
}

func TestGetPutDelete(t *testing.T) {
	s, fresh := openTestStore(t, "things")
	require.True(t, fresh)

	_, ok, err := s.Get("a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Put("a", "1"))
	v, ok, err := s.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)

	require.NoError(t, s.Delete("a"))
	_, ok, err = s.Get("a")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFreshnessPerBucket(t *testing.T) {
	bdb, err := bolt.Open(filepath.Join(t.TempDir(), "rel.db"), 0600, nil)
	require.NoError(t, err)
	defer bdb.Close()

	_, fresh := openOn(t, bdb, "things")
	require.True(t, fresh)
	_, fresh = openOn(t, bdb, "things")
	require.False(t, fresh, "reopening an existing bucket must not report fresh")
}

func TestApplyBatch(t *testing.T) {
	s, _ := openTestStore(t, "things")
	require.NoError(t, s.Put("stale", "x"))

	err := s.ApplyBatch(map[string]string{"a": "1", "b": "2"}, []string{"stale"})
	require.NoError(t, err)

	var keys []string
	require.NoError(t, s.ForEach(func(k, v string) error {
		keys = append(keys, k)
		return nil
	}))
	require.ElementsMatch(t, []string{"a", "b"}, keys)
}
