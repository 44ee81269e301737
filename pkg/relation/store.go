// Package relation implements the typed relation store: a named K->V
// mapping, durably backed by one bbolt bucket per relation, opened with
// CreateBucketIfNotExists at startup. Values cross into the bucket
// through pkg/wirecodec's length-prefixed binary codec.
package relation

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// EncodeKeyFunc renders a typed key to its bbolt byte-string form.
type EncodeKeyFunc[K comparable] func(K) []byte

// DecodeKeyFunc is the inverse of EncodeKeyFunc, used by ForEach.
type DecodeKeyFunc[K comparable] func([]byte) (K, error)

// EncodeValueFunc renders a typed value to its wirecodec byte form.
type EncodeValueFunc[V any] func(V) []byte

// DecodeValueFunc is the inverse of EncodeValueFunc.
type DecodeValueFunc[V any] func([]byte) (V, error)

// Store is one typed relation: a K->V mapping backed by a single bbolt
// bucket. It exposes only get/put/delete/bulk-apply; any structured
// search (by name, by UUID) belongs to the layer above, which loads the
// container value and scans it.
type Store[K comparable, V any] struct {
	db     *bolt.DB
	bucket []byte

	encodeKey EncodeKeyFunc[K]
	decodeKey DecodeKeyFunc[K]
	encodeVal EncodeValueFunc[V]
	decodeVal DecodeValueFunc[V]
}

// Open binds a Store to the given bucket name, creating it if absent.
// fresh reports whether the bucket did not already exist; callers use
// this on the canonical object_location relation to distinguish a newly
// initialized database from a resumed one.
func Open[K comparable, V any](
	db *bolt.DB,
	bucket string,
	ek EncodeKeyFunc[K], dk DecodeKeyFunc[K],
	ev EncodeValueFunc[V], dv DecodeValueFunc[V],
) (s *Store[K, V], fresh bool, err error) {
	name := []byte(bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		existing := tx.Bucket(name)
		fresh = existing == nil
		_, e := tx.CreateBucketIfNotExists(name)
		return e
	})
	if err != nil {
		return nil, false, fmt.Errorf("relation: open bucket %q: %w", bucket, err)
	}
	return &Store[K, V]{
		db: db, bucket: name,
		encodeKey: ek, decodeKey: dk,
		encodeVal: ev, decodeVal: dv,
	}, fresh, nil
}

// Get fetches the current disk value for key, if any.
func (s *Store[K, V]) Get(key K) (val V, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		raw := b.Get(s.encodeKey(key))
		if raw == nil {
			return nil
		}
		v, derr := s.decodeVal(raw)
		if derr != nil {
			return derr
		}
		val, ok = v, true
		return nil
	})
	return
}

// Put writes key->val, overwriting any existing entry.
func (s *Store[K, V]) Put(key K, val V) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(s.encodeKey(key), s.encodeVal(val))
	})
}

// Delete removes key, if present.
func (s *Store[K, V]) Delete(key K) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(s.encodeKey(key))
	})
}

// ApplyBatch folds a set of writes and deletes into the bucket inside a
// single bbolt transaction, so a commit's per-relation apply step is
// itself atomic on disk even though the commit as a whole spans 13
// separate buckets.
func (s *Store[K, V]) ApplyBatch(writes map[K]V, deletes []K) error {
	if len(writes) == 0 && len(deletes) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for k, v := range writes {
			if err := b.Put(s.encodeKey(k), s.encodeVal(v)); err != nil {
				return err
			}
		}
		for _, k := range deletes {
			if err := b.Delete(s.encodeKey(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ForEach walks every entry in bbolt cursor order (ascending encoded-key
// bytes), decoding each key and value. Used by whole-relation scans (e.g.
// the object listing behind cmd/burrowd), which overlay a transaction's
// staged writes on top but record no reads.
func (s *Store[K, V]) ForEach(fn func(K, V) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			dk, err := s.decodeKey(k)
			if err != nil {
				return err
			}
			dv, err := s.decodeVal(v)
			if err != nil {
				return err
			}
			if err := fn(dk, dv); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sync fsyncs the backing bbolt file, used by the commit pipeline's
// persist(SyncAll) step.
func Sync(db *bolt.DB) error {
	return db.Sync()
}
