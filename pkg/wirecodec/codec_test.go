package wirecodec

import (
	"testing"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionByteRejected(t *testing.T) {
	w := NewWriter()
	w.Objid(5)
	data := w.Bytes()
	data[0] = 99
	_, err := NewReader(data)
	require.Error(t, err)

	_, err = NewReader(nil)
	require.Error(t, err, "empty record must be rejected")
}

func TestObjidWireWidth(t *testing.T) {
	w := NewWriter()
	w.Objid(objid.NOTHING)
	w.Objid(objid.Objid(1 << 30))
	// Version byte plus two fixed 8-byte ids.
	require.Len(t, w.Bytes(), 1+8+8)

	r, err := NewReader(w.Bytes())
	require.NoError(t, err)
	o, err := r.Objid()
	require.NoError(t, err)
	assert.Equal(t, objid.NOTHING, o, "sign extension must survive the round trip")
	o, err = r.Objid()
	require.NoError(t, err)
	assert.Equal(t, objid.Objid(1<<30), o)
	assert.True(t, r.Done())
}

func TestObjSetCanonicalOrder(t *testing.T) {
	// Two insertion orders, one encoding.
	a := NewWriter()
	a.ObjSet(objid.NewSet(3, 1, 2))
	b := NewWriter()
	b.ObjSet(objid.NewSet(2, 3, 1))
	assert.Equal(t, a.Bytes(), b.Bytes())

	r, err := NewReader(a.Bytes())
	require.NoError(t, err)
	s, err := r.ObjSet()
	require.NoError(t, err)
	assert.Equal(t, []objid.Objid{1, 2, 3}, s.ToSlice())
}

func TestVarRoundTrip(t *testing.T) {
	vars := []moovar.Var{
		moovar.Int(-42),
		moovar.Float(3.25),
		moovar.Str("hello, world"),
		moovar.Str(""),
		moovar.Obj(objid.NOTHING),
		moovar.Err(moovar.EPerm),
		moovar.List(moovar.Int(1), moovar.Str("two"), moovar.List(moovar.Obj(3))),
		moovar.Map(
			moovar.MapEntry{Key: moovar.Str("k"), Value: moovar.Int(1)},
			moovar.MapEntry{Key: moovar.Int(2), Value: moovar.List(moovar.Str("v"))},
		),
	}
	for _, v := range vars {
		w := NewWriter()
		w.EncodeVar(v)
		r, err := NewReader(w.Bytes())
		require.NoError(t, err)
		got, err := r.DecodeVar()
		require.NoError(t, err)
		assert.True(t, v.Equal(got), "round trip of %s", v)
		assert.True(t, r.Done())
	}
}

func TestVerbDefsPreserveOrder(t *testing.T) {
	defs := model.VerbDefs{
		{
			UUID:     uuid.New(),
			Location: 1,
			Owner:    2,
			Names:    []string{"look", "l*ook"},
			Flags:    bitenum.New(model.VerbRead, model.VerbExec),
			Args: model.ArgSpec{
				Dobj: model.ObjSpecThis,
				Prep: model.PrepSpec{Preps: []int{2, 5}},
				Iobj: model.ObjSpecNone,
			},
		},
		{
			UUID:     uuid.New(),
			Location: 1,
			Owner:    2,
			Names:    []string{"get"},
			Args:     model.AnyArgSpec(),
		},
	}

	w := NewWriter()
	w.EncodeVerbDefs(defs)
	r, err := NewReader(w.Bytes())
	require.NoError(t, err)
	got, err := r.DecodeVerbDefs()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, defs, got)
	assert.True(t, r.Done())
}

func TestPropDefsRoundTrip(t *testing.T) {
	defs := model.PropDefs{
		{UUID: uuid.New(), Definer: 7, Name: "color", Owner: 7, Flags: bitenum.New(model.PropRead)},
		{UUID: uuid.New(), Definer: 7, Name: "size", Owner: 8, Flags: bitenum.New(model.PropRead, model.PropWrite, model.PropChown)},
	}
	w := NewWriter()
	w.EncodePropDefs(defs)
	r, err := NewReader(w.Bytes())
	require.NoError(t, err)
	got, err := r.DecodePropDefs()
	require.NoError(t, err)
	assert.Equal(t, defs, got)
}

func TestTruncatedRecord(t *testing.T) {
	w := NewWriter()
	w.EncodeVar(moovar.Str("truncate me"))
	data := w.Bytes()
	r, err := NewReader(data[:len(data)-3])
	require.NoError(t, err)
	_, err = r.DecodeVar()
	require.Error(t, err)
}
