// Package wirecodec implements the self-describing, versionable binary
// encoding used for every relation value: fields are length-prefixed,
// and every record begins with a one-byte format version so future
// revisions can extend a type without breaking old on-disk data.
package wirecodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/google/uuid"
)

// Version is the current format version byte written at the head of every
// encoded record.
const Version byte = 1

// Writer accumulates an encoded record. Every Encode* helper in this
// package appends to one; write errors never occur against a bytes.Buffer,
// so none of these helpers return an error themselves.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns a Writer with the version byte already written.
func NewWriter() *Writer {
	w := &Writer{}
	w.buf.WriteByte(Version)
	return w
}

// Bytes returns the accumulated record.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) Uvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

func (w *Writer) Varint(v int64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

func (w *Writer) Raw(b []byte) {
	w.buf.Write(b)
}

func (w *Writer) Bytes8(b []byte) {
	w.Uvarint(uint64(len(b)))
	w.buf.Write(b)
}

func (w *Writer) String(s string) {
	w.Bytes8([]byte(s))
}

func (w *Writer) Objid(o objid.Objid) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(int64(o)))
	w.buf.Write(tmp[:])
}

func (w *Writer) UUID(u uuid.UUID) {
	w.buf.Write(u[:])
}

func (w *Writer) ObjSet(s objid.Set) {
	members := s.ToSlice()
	w.Uvarint(uint64(len(members)))
	for _, m := range members {
		w.Objid(m)
	}
}

func BitEnumBits[T ~uint8](b bitenum.BitEnum[T]) uint64 { return b.Uint64() }

// Reader consumes an encoded record produced by Writer.
type Reader struct {
	r   *bytes.Reader
	ver byte
}

// NewReader validates the version byte and returns a Reader positioned
// just past it.
func NewReader(data []byte) (*Reader, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("wirecodec: empty record")
	}
	r := &Reader{r: bytes.NewReader(data[1:]), ver: data[0]}
	if r.ver != Version {
		return nil, fmt.Errorf("wirecodec: unsupported format version %d", r.ver)
	}
	return r, nil
}

func (r *Reader) Uvarint() (uint64, error) {
	v, err := binary.ReadUvarint(r.r)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (r *Reader) Varint() (int64, error) {
	return binary.ReadVarint(r.r)
}

func (r *Reader) Byte() (byte, error) {
	return r.r.ReadByte()
}

func (r *Reader) Raw(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) Bytes8() ([]byte, error) {
	n, err := r.Uvarint()
	if err != nil {
		return nil, err
	}
	return r.Raw(int(n))
}

func (r *Reader) String() (string, error) {
	b, err := r.Bytes8()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Reader) Objid() (objid.Objid, error) {
	b, err := r.Raw(8)
	if err != nil {
		return objid.NOTHING, err
	}
	return objid.Objid(int64(binary.BigEndian.Uint64(b))), nil
}

func (r *Reader) UUID() (uuid.UUID, error) {
	b, err := r.Raw(16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], b)
	return u, nil
}

func (r *Reader) ObjSet() (objid.Set, error) {
	n, err := r.Uvarint()
	if err != nil {
		return objid.Set{}, err
	}
	members := make([]objid.Objid, 0, n)
	for i := uint64(0); i < n; i++ {
		o, err := r.Objid()
		if err != nil {
			return objid.Set{}, err
		}
		members = append(members, o)
	}
	return objid.FromSlice(members), nil
}

// Done reports whether every byte of the record has been consumed; callers
// use it to catch truncated or over-long records defensively in tests.
func (r *Reader) Done() bool {
	return r.r.Len() == 0
}
