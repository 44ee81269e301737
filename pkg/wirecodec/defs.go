package wirecodec

import (
	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/model"
)

func (w *Writer) EncodeArgSpec(a model.ArgSpec) {
	w.Byte(byte(a.Dobj))
	w.Byte(byte(a.Iobj))
	if a.Prep.Any {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
	w.Uvarint(uint64(len(a.Prep.Preps)))
	for _, p := range a.Prep.Preps {
		w.Varint(int64(p))
	}
}

func (r *Reader) DecodeArgSpec() (model.ArgSpec, error) {
	dobj, err := r.Byte()
	if err != nil {
		return model.ArgSpec{}, err
	}
	iobj, err := r.Byte()
	if err != nil {
		return model.ArgSpec{}, err
	}
	anyByte, err := r.Byte()
	if err != nil {
		return model.ArgSpec{}, err
	}
	n, err := r.Uvarint()
	if err != nil {
		return model.ArgSpec{}, err
	}
	var preps []int
	if n > 0 {
		preps = make([]int, 0, n)
	}
	for i := uint64(0); i < n; i++ {
		p, err := r.Varint()
		if err != nil {
			return model.ArgSpec{}, err
		}
		preps = append(preps, int(p))
	}
	return model.ArgSpec{
		Dobj: model.ObjSpec(dobj),
		Iobj: model.ObjSpec(iobj),
		Prep: model.PrepSpec{Any: anyByte != 0, Preps: preps},
	}, nil
}

// EncodeVerbDefs writes an ordered list of VerbDef, preserving creation
// order, which is observable through indexed verb lookup.
func (w *Writer) EncodeVerbDefs(defs model.VerbDefs) {
	w.Uvarint(uint64(len(defs)))
	for _, d := range defs {
		w.UUID(d.UUID)
		w.Objid(d.Location)
		w.Objid(d.Owner)
		w.Uvarint(uint64(len(d.Names)))
		for _, n := range d.Names {
			w.String(n)
		}
		w.Uvarint(BitEnumBits(d.Flags))
		w.Byte(byte(d.BinaryType))
		w.EncodeArgSpec(d.Args)
	}
}

func (r *Reader) DecodeVerbDefs() (model.VerbDefs, error) {
	n, err := r.Uvarint()
	if err != nil {
		return nil, err
	}
	out := make(model.VerbDefs, 0, n)
	for i := uint64(0); i < n; i++ {
		u, err := r.UUID()
		if err != nil {
			return nil, err
		}
		loc, err := r.Objid()
		if err != nil {
			return nil, err
		}
		owner, err := r.Objid()
		if err != nil {
			return nil, err
		}
		nn, err := r.Uvarint()
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, nn)
		for j := uint64(0); j < nn; j++ {
			s, err := r.String()
			if err != nil {
				return nil, err
			}
			names = append(names, s)
		}
		flagBits, err := r.Uvarint()
		if err != nil {
			return nil, err
		}
		bt, err := r.Byte()
		if err != nil {
			return nil, err
		}
		args, err := r.DecodeArgSpec()
		if err != nil {
			return nil, err
		}
		out = append(out, model.VerbDef{
			UUID:       u,
			Location:   loc,
			Owner:      owner,
			Names:      names,
			Flags:      bitenum.FromUint64[model.VerbFlag](flagBits),
			BinaryType: model.BinaryType(bt),
			Args:       args,
		})
	}
	return out, nil
}

// EncodePropDefs writes an ordered set of PropDef, preserving creation
// order.
func (w *Writer) EncodePropDefs(defs model.PropDefs) {
	w.Uvarint(uint64(len(defs)))
	for _, d := range defs {
		w.UUID(d.UUID)
		w.Objid(d.Definer)
		w.String(d.Name)
		w.Objid(d.Owner)
		w.Uvarint(BitEnumBits(d.Flags))
	}
}

func (r *Reader) DecodePropDefs() (model.PropDefs, error) {
	n, err := r.Uvarint()
	if err != nil {
		return nil, err
	}
	out := make(model.PropDefs, 0, n)
	for i := uint64(0); i < n; i++ {
		u, err := r.UUID()
		if err != nil {
			return nil, err
		}
		definer, err := r.Objid()
		if err != nil {
			return nil, err
		}
		name, err := r.String()
		if err != nil {
			return nil, err
		}
		owner, err := r.Objid()
		if err != nil {
			return nil, err
		}
		flagBits, err := r.Uvarint()
		if err != nil {
			return nil, err
		}
		out = append(out, model.PropDef{
			UUID:    u,
			Definer: definer,
			Name:    name,
			Owner:   owner,
			Flags:   bitenum.FromUint64[model.PropFlag](flagBits),
		})
	}
	return out, nil
}

// EncodePropPerms writes a property's per-object owner/flags override.
func (w *Writer) EncodePropPerms(p model.PropPerms) {
	w.Objid(p.Owner)
	w.Uvarint(BitEnumBits(p.Flags))
}

func (r *Reader) DecodePropPerms() (model.PropPerms, error) {
	owner, err := r.Objid()
	if err != nil {
		return model.PropPerms{}, err
	}
	flagBits, err := r.Uvarint()
	if err != nil {
		return model.PropPerms{}, err
	}
	return model.PropPerms{Owner: owner, Flags: bitenum.FromUint64[model.PropFlag](flagBits)}, nil
}
