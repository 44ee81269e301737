package model

import (
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/google/uuid"
)

// ObjUUID is the composite key type for the three per-(object, UUID)
// relations: object_verbs, object_propvalues, object_propflags. It is a
// plain comparable struct so it can be used directly as a Go map key in
// the working set and global cache, with no encoding needed until the
// value crosses into the on-disk relation store.
type ObjUUID struct {
	Obj  objid.Objid
	UUID uuid.UUID
}
