package worldstate

import (
	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/metrics"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/objid"
)

// Perms is the caller's permission context for one operation: who is
// acting, and the flags of that object at the time the operation began.
type Perms struct {
	Who   objid.Objid
	Flags bitenum.BitEnum[model.ObjFlag]
}

// IsWizard reports whether the acting object carries the Wizard flag.
func (p Perms) IsWizard() bool {
	return p.Flags.Has(model.FlagWizard)
}

// CheckWizard permits only wizards.
func (p Perms) CheckWizard() error {
	if p.IsWizard() {
		return nil
	}
	metrics.PermissionDenialsTotal.WithLabelValues("object").Inc()
	return model.ObjectPermissionDenied()
}

// CheckIsProgrammer permits wizards and objects carrying the Programmer
// flag.
func (p Perms) CheckIsProgrammer() error {
	if p.IsWizard() || p.Flags.Has(model.FlagProgrammer) {
		return nil
	}
	metrics.PermissionDenialsTotal.WithLabelValues("object").Inc()
	return model.ObjectPermissionDenied()
}

// CheckObjOwnerPerms permits acting on behalf of owner: the caller must be
// a wizard or be the owner itself.
func (p Perms) CheckObjOwnerPerms(owner objid.Objid) error {
	if p.IsWizard() || p.Who == owner {
		return nil
	}
	metrics.PermissionDenialsTotal.WithLabelValues("object").Inc()
	return model.ObjectPermissionDenied()
}

// CheckObjectAllows is the object permission algebra: permit iff the
// caller is a wizard, the caller owns the target, or the target's flags
// carry the required bit.
func (p Perms) CheckObjectAllows(owner objid.Objid, flags bitenum.BitEnum[model.ObjFlag], required model.ObjFlag) error {
	if p.IsWizard() || p.Who == owner || flags.Has(required) {
		return nil
	}
	metrics.PermissionDenialsTotal.WithLabelValues("object").Inc()
	return model.ObjectPermissionDenied()
}

// CheckPropertyAllows is the analogous check against a property handle's
// own owner and flags.
func (p Perms) CheckPropertyAllows(owner objid.Objid, flags bitenum.BitEnum[model.PropFlag], required model.PropFlag) error {
	if p.IsWizard() || p.Who == owner || flags.Has(required) {
		return nil
	}
	metrics.PermissionDenialsTotal.WithLabelValues("property").Inc()
	return model.PropertyPermissionDenied()
}

// CheckVerbAllows is the analogous check against a verb handle's own owner
// and flags.
func (p Perms) CheckVerbAllows(owner objid.Objid, flags bitenum.BitEnum[model.VerbFlag], required model.VerbFlag) error {
	if p.IsWizard() || p.Who == owner || flags.Has(required) {
		return nil
	}
	metrics.PermissionDenialsTotal.WithLabelValues("verb").Inc()
	return model.VerbPermissionDenied()
}
