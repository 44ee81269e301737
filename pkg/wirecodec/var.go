package wirecodec

import (
	"fmt"

	"github.com/burrowdb/burrow/pkg/moovar"
)

// EncodeVar appends the tagged-union encoding of v to w: a one-byte kind
// tag followed by the kind-specific payload. Lists and maps recurse with
// a uvarint element count.
func (w *Writer) EncodeVar(v moovar.Var) {
	w.Byte(byte(v.Kind))
	switch v.Kind {
	case moovar.KindInt:
		w.Varint(v.Int)
	case moovar.KindFloat:
		var bits uint64
		bits = float64bits(v.Float)
		w.Uvarint(bits)
	case moovar.KindStr:
		w.String(v.Str)
	case moovar.KindObjid:
		w.Objid(v.Obj)
	case moovar.KindErr:
		w.String(string(v.Err))
	case moovar.KindList:
		w.Uvarint(uint64(len(v.List)))
		for _, e := range v.List {
			w.EncodeVar(e)
		}
	case moovar.KindMap:
		w.Uvarint(uint64(len(v.Map)))
		for _, e := range v.Map {
			w.EncodeVar(e.Key)
			w.EncodeVar(e.Value)
		}
	}
}

// DecodeVar reads one Var encoded by EncodeVar.
func (r *Reader) DecodeVar() (moovar.Var, error) {
	kb, err := r.Byte()
	if err != nil {
		return moovar.Var{}, err
	}
	kind := moovar.Kind(kb)
	switch kind {
	case moovar.KindInt:
		n, err := r.Varint()
		return moovar.Int(n), err
	case moovar.KindFloat:
		bits, err := r.Uvarint()
		if err != nil {
			return moovar.Var{}, err
		}
		return moovar.Float(float64frombits(bits)), nil
	case moovar.KindStr:
		s, err := r.String()
		return moovar.Str(s), err
	case moovar.KindObjid:
		o, err := r.Objid()
		return moovar.Obj(o), err
	case moovar.KindErr:
		s, err := r.String()
		return moovar.Err(moovar.ErrCode(s)), err
	case moovar.KindList:
		n, err := r.Uvarint()
		if err != nil {
			return moovar.Var{}, err
		}
		items := make([]moovar.Var, 0, n)
		for i := uint64(0); i < n; i++ {
			e, err := r.DecodeVar()
			if err != nil {
				return moovar.Var{}, err
			}
			items = append(items, e)
		}
		return moovar.Var{Kind: moovar.KindList, List: items}, nil
	case moovar.KindMap:
		n, err := r.Uvarint()
		if err != nil {
			return moovar.Var{}, err
		}
		entries := make([]moovar.MapEntry, 0, n)
		for i := uint64(0); i < n; i++ {
			k, err := r.DecodeVar()
			if err != nil {
				return moovar.Var{}, err
			}
			v, err := r.DecodeVar()
			if err != nil {
				return moovar.Var{}, err
			}
			entries = append(entries, moovar.MapEntry{Key: k, Value: v})
		}
		return moovar.Var{Kind: moovar.KindMap, Map: entries}, nil
	}
	return moovar.Var{}, fmt.Errorf("wirecodec: unknown var kind %d", kb)
}
