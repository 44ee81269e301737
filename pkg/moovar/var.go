// Package moovar implements the dynamic, tagged-union property value type
// ("Var") that property values, pseudo-properties, and verb argument
// defaults carry: int | float | string | objid | error-code | list | map.
package moovar

import (
	"fmt"

	"github.com/burrowdb/burrow/pkg/objid"
)

// Kind discriminates the variant held by a Var. Its numeric value is the
// one-byte tag written by pkg/wirecodec.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindStr
	KindObjid
	KindErr
	KindList
	KindMap
)

// ErrCode is a MOO-style error code value, usable as the payload of a Var
// with Kind == KindErr (e.g. the result of a failed property lookup handed
// back into in-world code).
type ErrCode string

const (
	EPerm    ErrCode = "E_PERM"
	EPropNF  ErrCode = "E_PROPNF"
	EVerbNF  ErrCode = "E_VERBNF"
	EInvArg  ErrCode = "E_INVARG"
	ERecMove ErrCode = "E_RECMOVE"
	EType    ErrCode = "E_TYPE"
	EInvInd  ErrCode = "E_INVIND"
)

// Var is an immutable dynamic value. Exactly one of the typed fields is
// meaningful, selected by Kind. MapEntry pairs preserve insertion order,
// an association-list representation rather than a hash map.
type Var struct {
	Kind  Kind
	Int   int64
	Float float64
	Str   string
	Obj   objid.Objid
	Err   ErrCode
	List  []Var
	Map   []MapEntry
}

// MapEntry is one key/value pair of a Var map, in insertion order.
type MapEntry struct {
	Key   Var
	Value Var
}

func Int(v int64) Var              { return Var{Kind: KindInt, Int: v} }
func Float(v float64) Var          { return Var{Kind: KindFloat, Float: v} }
func Str(v string) Var             { return Var{Kind: KindStr, Str: v} }
func Obj(v objid.Objid) Var        { return Var{Kind: KindObjid, Obj: v} }
func Err(v ErrCode) Var            { return Var{Kind: KindErr, Err: v} }
func List(v ...Var) Var            { return Var{Kind: KindList, List: v} }
func Map(entries ...MapEntry) Var  { return Var{Kind: KindMap, Map: entries} }

// Equal reports deep equality between two Vars.
func (v Var) Equal(o Var) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindStr:
		return v.Str == o.Str
	case KindObjid:
		return v.Obj == o.Obj
	case KindErr:
		return v.Err == o.Err
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for i := range v.Map {
			if !v.Map[i].Key.Equal(o.Map[i].Key) || !v.Map[i].Value.Equal(o.Map[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Var) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindStr:
		return v.Str
	case KindObjid:
		return v.Obj.String()
	case KindErr:
		return string(v.Err)
	case KindList:
		return fmt.Sprintf("%v", v.List)
	case KindMap:
		return fmt.Sprintf("%v", v.Map)
	}
	return "<invalid var>"
}
