package burrow

import (
	"encoding/binary"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/burrowdb/burrow/pkg/wirecodec"
	"github.com/google/uuid"
)

// -- key codecs --

func encodeObjidKey(o objid.Objid) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(int64(o)))
	return b[:]
}

func decodeObjidKey(b []byte) (objid.Objid, error) {
	return objid.Objid(int64(binary.BigEndian.Uint64(b))), nil
}

func encodeObjUUIDKey(k model.ObjUUID) []byte {
	out := make([]byte, 24)
	copy(out[0:8], encodeObjidKey(k.Obj))
	copy(out[8:24], k.UUID[:])
	return out
}

func decodeObjUUIDKey(b []byte) (model.ObjUUID, error) {
	o, _ := decodeObjidKey(b[0:8])
	var u uuid.UUID
	copy(u[:], b[8:24])
	return model.ObjUUID{Obj: o, UUID: u}, nil
}

func encodeSlotKey(slot uint8) []byte {
	return []byte{slot}
}

func decodeSlotKey(b []byte) (uint8, error) {
	return b[0], nil
}

// -- value codecs --

func encodeObjidVal(o objid.Objid) []byte {
	w := wirecodec.NewWriter()
	w.Objid(o)
	return w.Bytes()
}

func decodeObjidVal(b []byte) (objid.Objid, error) {
	r, err := wirecodec.NewReader(b)
	if err != nil {
		return objid.NOTHING, err
	}
	return r.Objid()
}

func encodeObjSetVal(s objid.Set) []byte {
	w := wirecodec.NewWriter()
	w.ObjSet(s)
	return w.Bytes()
}

func decodeObjSetVal(b []byte) (objid.Set, error) {
	r, err := wirecodec.NewReader(b)
	if err != nil {
		return objid.Set{}, err
	}
	return r.ObjSet()
}

func encodeObjFlagsVal(f bitenum.BitEnum[model.ObjFlag]) []byte {
	w := wirecodec.NewWriter()
	w.Uvarint(wirecodec.BitEnumBits(f))
	return w.Bytes()
}

func decodeObjFlagsVal(b []byte) (bitenum.BitEnum[model.ObjFlag], error) {
	r, err := wirecodec.NewReader(b)
	if err != nil {
		return 0, err
	}
	bits, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	return bitenum.FromUint64[model.ObjFlag](bits), nil
}

func encodeStringVal(s string) []byte {
	w := wirecodec.NewWriter()
	w.String(s)
	return w.Bytes()
}

func decodeStringVal(b []byte) (string, error) {
	r, err := wirecodec.NewReader(b)
	if err != nil {
		return "", err
	}
	return r.String()
}

func encodeVerbDefsVal(v model.VerbDefs) []byte {
	w := wirecodec.NewWriter()
	w.EncodeVerbDefs(v)
	return w.Bytes()
}

func decodeVerbDefsVal(b []byte) (model.VerbDefs, error) {
	r, err := wirecodec.NewReader(b)
	if err != nil {
		return nil, err
	}
	return r.DecodeVerbDefs()
}

func encodeBytesVal(v []byte) []byte {
	w := wirecodec.NewWriter()
	w.Bytes8(v)
	return w.Bytes()
}

func decodeBytesVal(b []byte) ([]byte, error) {
	r, err := wirecodec.NewReader(b)
	if err != nil {
		return nil, err
	}
	return r.Bytes8()
}

func encodePropDefsVal(v model.PropDefs) []byte {
	w := wirecodec.NewWriter()
	w.EncodePropDefs(v)
	return w.Bytes()
}

func decodePropDefsVal(b []byte) (model.PropDefs, error) {
	r, err := wirecodec.NewReader(b)
	if err != nil {
		return nil, err
	}
	return r.DecodePropDefs()
}

func encodeVarVal(v moovar.Var) []byte {
	w := wirecodec.NewWriter()
	w.EncodeVar(v)
	return w.Bytes()
}

func decodeVarVal(b []byte) (moovar.Var, error) {
	r, err := wirecodec.NewReader(b)
	if err != nil {
		return moovar.Var{}, err
	}
	return r.DecodeVar()
}

func encodePropPermsVal(v model.PropPerms) []byte {
	w := wirecodec.NewWriter()
	w.EncodePropPerms(v)
	return w.Bytes()
}

func decodePropPermsVal(b []byte) (model.PropPerms, error) {
	r, err := wirecodec.NewReader(b)
	if err != nil {
		return model.PropPerms{}, err
	}
	return r.DecodePropPerms()
}

func encodeInt64Val(v int64) []byte {
	w := wirecodec.NewWriter()
	w.Varint(v)
	return w.Bytes()
}

func decodeInt64Val(b []byte) (int64, error) {
	r, err := wirecodec.NewReader(b)
	if err != nil {
		return 0, err
	}
	return r.Varint()
}
