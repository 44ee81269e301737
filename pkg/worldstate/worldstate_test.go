package worldstate_test

import (
	"testing"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/burrow"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/burrowdb/burrow/pkg/worldstate"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) (*burrow.Database, string) {
	t.Helper()
	dir := t.TempDir()
	db, fresh, err := burrow.Open(dir)
	require.NoError(t, err)
	require.True(t, fresh)
	t.Cleanup(func() { _ = db.Close() })
	return db, dir
}

// mkWizard bootstraps the system object the external loader would
// normally create: self-owned, wizard, committed.
func mkWizard(t *testing.T, db *burrow.Database) objid.Objid {
	t.Helper()
	tx := worldstate.Begin(db)
	wiz, err := tx.CreateObject(objid.NOTHING, objid.NOTHING, objid.NOTHING,
		bitenum.New(model.FlagRead, model.FlagWizard))
	require.NoError(t, err)
	require.Equal(t, model.CommitSuccess, tx.Commit())
	return wiz
}

func commitOK(t *testing.T, tx *worldstate.Tx) {
	t.Helper()
	require.Equal(t, model.CommitSuccess, tx.Commit())
}

func errCode(t *testing.T, err error) model.Code {
	t.Helper()
	var wErr *model.Error
	require.ErrorAs(t, err, &wErr)
	return wErr.Code
}

// TestCreateAndParent is the first end-to-end scenario: two objects,
// parent edge, commit, restart, verify both sides of the edge.
func TestCreateAndParent(t *testing.T) {
	db, dir := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	a, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	b, err := tx.CreateObject(wiz, a, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	commitOK(t, tx)

	require.NoError(t, db.Close())
	db2, fresh, err := burrow.Open(dir)
	require.NoError(t, err)
	require.False(t, fresh)
	defer db2.Close()

	tx2 := worldstate.Begin(db2)
	parent, err := tx2.ParentOf(b)
	require.NoError(t, err)
	require.Equal(t, a, parent)
	children, err := tx2.ChildrenOf(wiz, a)
	require.NoError(t, err)
	require.Equal(t, []objid.Objid{b}, children.ToSlice())
	tx2.Rollback()
}

// TestInheritedProperty is the second scenario: define on A, resolve on
// child B, override on B, clear on B.
func TestInheritedProperty(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	a, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	b, err := tx.CreateObject(wiz, a, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	red := moovar.Str("red")
	u, err := tx.DefineProperty(wiz, a, a, "color", wiz, bitenum.New(model.PropRead), &red)
	require.NoError(t, err)
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	_, v, err := tx.ResolveProperty(wiz, b, "color")
	require.NoError(t, err)
	require.Equal(t, moovar.Str("red"), v)
	require.NoError(t, tx.SetPropertyAt(wiz, b, u, moovar.Str("blue")))
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	_, v, err = tx.ResolveProperty(wiz, a, "color")
	require.NoError(t, err)
	require.Equal(t, moovar.Str("red"), v)
	_, v, err = tx.ResolveProperty(wiz, b, "color")
	require.NoError(t, err)
	require.Equal(t, moovar.Str("blue"), v)
	require.NoError(t, tx.ClearPropertyAt(wiz, b, u))
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	_, v, err = tx.ResolveProperty(wiz, b, "color")
	require.NoError(t, err)
	require.Equal(t, moovar.Str("red"), v)
	tx.Rollback()
}

// TestReparentStripsProperties is the third scenario: a child losing its
// ancestor loses the inherited property entirely.
func TestReparentStripsProperties(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	a, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	c, err := tx.CreateObject(wiz, a, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	val := moovar.Int(7)
	_, err = tx.DefineProperty(wiz, a, a, "x", wiz, bitenum.New(model.PropRead), &val)
	require.NoError(t, err)
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	_, _, err = tx.ResolveProperty(wiz, c, "x")
	require.NoError(t, err)
	require.NoError(t, tx.ChangeParent(wiz, c, objid.NOTHING))
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	_, _, err = tx.ResolveProperty(wiz, c, "x")
	require.Error(t, err)
	require.Equal(t, model.CodePropertyNotFound, errCode(t, err))
	tx.Rollback()
}

// TestVerbResolutionByInheritance is the fourth scenario: the nearest
// definition along the chain wins.
func TestVerbResolutionByInheritance(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	p1, p2 := []byte{0x01}, []byte{0x02}

	tx := worldstate.Begin(db)
	a, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	b, err := tx.CreateObject(wiz, a, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	_, err = tx.AddVerb(wiz, a, []string{"look"}, wiz, bitenum.New(model.VerbRead, model.VerbExec),
		model.AnyArgSpec(), p1, model.BinaryTypeLambdaMOO)
	require.NoError(t, err)
	_, err = tx.AddVerb(wiz, b, []string{"look"}, wiz, bitenum.New(model.VerbRead, model.VerbExec),
		model.AnyArgSpec(), p2, model.BinaryTypeLambdaMOO)
	require.NoError(t, err)
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	info, err := tx.FindMethodVerbOn(wiz, b, "look")
	require.NoError(t, err)
	require.Equal(t, b, info.VerbDef.Location)
	require.Equal(t, p2, info.Binary)

	info, err = tx.FindMethodVerbOn(wiz, a, "look")
	require.NoError(t, err)
	require.Equal(t, a, info.VerbDef.Location)
	require.Equal(t, p1, info.Binary)
	tx.Rollback()
}

// TestCommitConflict is the fifth scenario: two transactions racing on
// the same flags entry; the loser retries from scratch and wins.
func TestCommitConflict(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	a, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	commitOK(t, tx)

	f1 := bitenum.New(model.FlagRead)
	f2 := bitenum.New(model.FlagRead, model.FlagWrite)

	t1 := worldstate.Begin(db)
	_, err = t1.FlagsOf(a)
	require.NoError(t, err)

	t2 := worldstate.Begin(db)
	_, err = t2.FlagsOf(a)
	require.NoError(t, err)
	require.NoError(t, t2.SetFlagsOf(wiz, a, f2))
	commitOK(t, t2)

	require.NoError(t, t1.SetFlagsOf(wiz, a, f1))
	require.Equal(t, model.CommitConflictRetry, t1.Commit())

	// Replay the whole transaction on a fresh handle.
	t1 = worldstate.Begin(db)
	_, err = t1.FlagsOf(a)
	require.NoError(t, err)
	require.NoError(t, t1.SetFlagsOf(wiz, a, f1))
	commitOK(t, t1)

	tx = worldstate.Begin(db)
	flags, err := tx.FlagsOf(a)
	require.NoError(t, err)
	require.Equal(t, f1, flags)
	tx.Rollback()
}

// TestRecycleCascade is the sixth scenario: A→B→C with content D in B;
// recycling B reparents C to A and dumps D to NOTHING.
func TestRecycleCascade(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	a, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	b, err := tx.CreateObject(wiz, a, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	c, err := tx.CreateObject(wiz, b, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	d, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	require.NoError(t, tx.MoveObject(wiz, d, b))
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	require.NoError(t, tx.RecycleObject(wiz, b))
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	parent, err := tx.ParentOf(c)
	require.NoError(t, err)
	require.Equal(t, a, parent)
	loc, err := tx.LocationOf(d)
	require.NoError(t, err)
	require.Equal(t, objid.NOTHING, loc)
	valid, err := tx.Valid(b)
	require.NoError(t, err)
	require.False(t, valid)
	children, err := tx.ChildrenOf(wiz, a)
	require.NoError(t, err)
	require.False(t, children.Contains(b))
	require.True(t, children.Contains(c))
	tx.Rollback()
}

// TestRecursiveMove covers the reparent-to-self and reparent-to-child
// boundary cases.
func TestRecursiveMove(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	a, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	b, err := tx.CreateObject(wiz, a, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)

	err = tx.ChangeParent(wiz, a, a)
	require.Equal(t, model.CodeRecursiveMove, errCode(t, err))
	err = tx.ChangeParent(wiz, a, b)
	require.Equal(t, model.CodeRecursiveMove, errCode(t, err))
	tx.Rollback()
}

// TestDuplicatePropertyDefinition covers the name-collision boundary:
// both against an ancestor's definition and a descendant's.
func TestDuplicatePropertyDefinition(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	a, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	b, err := tx.CreateObject(wiz, a, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	c, err := tx.CreateObject(wiz, b, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)

	_, err = tx.DefineProperty(wiz, a, a, "size", wiz, bitenum.New(model.PropRead), nil)
	require.NoError(t, err)

	_, err = tx.DefineProperty(wiz, b, b, "size", wiz, bitenum.New(model.PropRead), nil)
	require.Equal(t, model.CodeDuplicatePropertyDefinition, errCode(t, err))

	_, err = tx.DefineProperty(wiz, c, c, "heft", wiz, bitenum.New(model.PropRead), nil)
	require.NoError(t, err)
	_, err = tx.DefineProperty(wiz, b, b, "heft", wiz, bitenum.New(model.PropRead), nil)
	require.Equal(t, model.CodeDuplicatePropertyDefinition, errCode(t, err))
	tx.Rollback()
}

// TestPropertyReadPermission: Read cleared, caller neither owner nor
// wizard → PropertyPermissionDenied.
func TestPropertyReadPermission(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	a, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New(model.FlagRead))
	require.NoError(t, err)
	secret := moovar.Str("secret")
	_, err = tx.DefineProperty(wiz, a, a, "hidden", wiz, bitenum.New[model.PropFlag](), &secret)
	require.NoError(t, err)
	// An unprivileged bystander.
	joe, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	_, _, err = tx.ResolveProperty(joe, a, "hidden")
	require.Equal(t, model.CodePropertyPermissionDenied, errCode(t, err))
	// The wizard still reads it.
	_, v, err := tx.ResolveProperty(wiz, a, "hidden")
	require.NoError(t, err)
	require.Equal(t, secret, v)
	tx.Rollback()
}

// TestCreateRecycleRoundTrip: create then recycle leaves the world
// unchanged except the id counter.
func TestCreateRecycleRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	before, err := tx.GetObjects()
	require.NoError(t, err)

	o, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	require.NoError(t, tx.RecycleObject(wiz, o))
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	after, err := tx.GetObjects()
	require.NoError(t, err)
	require.Equal(t, before.ToSlice(), after.ToSlice())
	require.Equal(t, o, tx.MaxObject())
	tx.Rollback()
}

// TestDefineDeletePropertyRoundTrip: define then delete restores the
// fresh object's property surface.
func TestDefineDeletePropertyRoundTrip(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	o, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	val := moovar.Int(42)
	u, err := tx.DefineProperty(wiz, o, o, "n", wiz, bitenum.New(model.PropRead), &val)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteProperty(wiz, o, u))

	props, err := tx.Properties(wiz, o)
	require.NoError(t, err)
	require.Empty(t, props)
	_, _, err = tx.ResolveProperty(wiz, o, "n")
	require.Equal(t, model.CodePropertyNotFound, errCode(t, err))
	tx.Rollback()
}

// TestBidirectionalEdges spot-checks universal invariant 1 after a mix
// of moves and reparents.
func TestBidirectionalEdges(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	var objs []objid.Objid
	for i := 0; i < 5; i++ {
		o, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
		require.NoError(t, err)
		objs = append(objs, o)
	}
	require.NoError(t, tx.ChangeParent(wiz, objs[1], objs[0]))
	require.NoError(t, tx.ChangeParent(wiz, objs[2], objs[0]))
	require.NoError(t, tx.ChangeParent(wiz, objs[3], objs[1]))
	require.NoError(t, tx.MoveObject(wiz, objs[4], objs[0]))
	require.NoError(t, tx.MoveObject(wiz, objs[3], objs[0]))
	require.NoError(t, tx.MoveObject(wiz, objs[3], objs[1]))
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	all, err := tx.GetObjects()
	require.NoError(t, err)
	for _, o := range all.ToSlice() {
		if loc, err := tx.LocationOf(o); err == nil && loc != objid.NOTHING {
			contents, err := tx.ContentsOf(loc)
			require.NoError(t, err)
			require.True(t, contents.Contains(o), "%s not in contents of its location %s", o, loc)
		}
		if parent, err := tx.ParentOf(o); err == nil && parent != objid.NOTHING {
			children, err := tx.ChildrenOf(wiz, parent)
			require.NoError(t, err)
			require.True(t, children.Contains(o), "%s not in children of its parent %s", o, parent)
		}
	}
	tx.Rollback()
}

// TestPseudoProperties exercises the object-record adapters.
func TestPseudoProperties(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	o, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	require.NoError(t, tx.UpdateProperty(wiz, o, "name", moovar.Str("thing")))

	v, err := tx.RetrieveProperty(wiz, o, "name")
	require.NoError(t, err)
	require.Equal(t, moovar.Str("thing"), v)

	v, err = tx.RetrieveProperty(wiz, o, "wizard")
	require.NoError(t, err)
	require.Equal(t, moovar.Int(0), v)

	require.NoError(t, tx.UpdateProperty(wiz, o, "wizard", moovar.Int(1)))
	v, err = tx.RetrieveProperty(wiz, o, "wizard")
	require.NoError(t, err)
	require.Equal(t, moovar.Int(1), v)

	require.NoError(t, tx.UpdateProperty(wiz, o, "r", moovar.Int(1)))
	v, err = tx.RetrieveProperty(wiz, o, "r")
	require.NoError(t, err)
	require.Equal(t, moovar.Int(1), v)

	// Type mismatches surface as PropertyTypeMismatch.
	err = tx.UpdateProperty(wiz, o, "name", moovar.Int(3))
	require.Equal(t, model.CodePropertyTypeMismatch, errCode(t, err))
	err = tx.UpdateProperty(wiz, o, "r", moovar.Str("yes"))
	require.Equal(t, model.CodePropertyTypeMismatch, errCode(t, err))

	// Structural pseudo-properties cannot be assigned.
	err = tx.UpdateProperty(wiz, o, "location", moovar.Obj(wiz))
	require.Equal(t, model.CodePropertyPermissionDenied, errCode(t, err))

	// Owner round-trips through the adapter.
	require.NoError(t, tx.UpdateProperty(wiz, o, "owner", moovar.Obj(wiz)))
	v, err = tx.RetrieveProperty(wiz, o, "owner")
	require.NoError(t, err)
	require.Equal(t, moovar.Obj(wiz), v)
	tx.Rollback()
}

// TestPseudoPropertyWizardOnly: setting programmer/wizard requires
// wizard perms.
func TestPseudoPropertyWizardOnly(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	joe, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	err = tx.UpdateProperty(joe, joe, "wizard", moovar.Int(1))
	require.Equal(t, model.CodeObjectPermissionDenied, errCode(t, err))
	err = tx.UpdateProperty(joe, joe, "programmer", moovar.Int(1))
	require.Equal(t, model.CodeObjectPermissionDenied, errCode(t, err))
	tx.Rollback()
}

// TestCommandVerbResolution exercises args-spec matching through
// FindCommandVerbOn.
func TestCommandVerbResolution(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	box, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New(model.FlagRead))
	require.NoError(t, err)
	// "put <anything> in this": dobj Any, iobj This.
	spec := model.ArgSpec{
		Dobj: model.ObjSpecAny,
		Prep: model.PrepSpec{Preps: []int{2}},
		Iobj: model.ObjSpecThis,
	}
	_, err = tx.AddVerb(wiz, box, []string{"put"}, wiz,
		bitenum.New(model.VerbRead, model.VerbExec), spec, []byte{0xaa}, model.BinaryTypeLambdaMOO)
	require.NoError(t, err)
	thing, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	// "put thing in box" matches.
	_, found, err := tx.FindCommandVerbOn(wiz, box, "put", thing, 2, box)
	require.NoError(t, err)
	require.True(t, found)
	// Wrong preposition does not.
	_, found, err = tx.FindCommandVerbOn(wiz, box, "put", thing, 5, box)
	require.NoError(t, err)
	require.False(t, found)
	// iobj pointing elsewhere does not match This.
	_, found, err = tx.FindCommandVerbOn(wiz, box, "put", thing, 2, thing)
	require.NoError(t, err)
	require.False(t, found)
	tx.Rollback()
}

// TestVerbOrderObservable: get_verb_by_index reflects creation order.
func TestVerbOrderObservable(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	o, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	for _, name := range []string{"first", "second", "third"} {
		_, err := tx.AddVerb(wiz, o, []string{name}, wiz,
			bitenum.New(model.VerbRead), model.AnyArgSpec(), nil, model.BinaryTypeLambdaMOO)
		require.NoError(t, err)
	}
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	for i, want := range []string{"first", "second", "third"} {
		vd, err := tx.GetVerbAtIndex(wiz, o, i)
		require.NoError(t, err)
		require.Equal(t, []string{want}, vd.Names)
	}
	_, err = tx.GetVerbAtIndex(wiz, o, 3)
	require.Equal(t, model.CodeVerbNotFound, errCode(t, err))
	tx.Rollback()
}

// TestPropertyRenamePropagates: update_property_definition renames in
// every descendant's propdef list.
func TestPropertyRenamePropagates(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	a, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	b, err := tx.CreateObject(wiz, a, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	val := moovar.Int(1)
	u, err := tx.DefineProperty(wiz, a, a, "old", wiz, bitenum.New(model.PropRead), &val)
	require.NoError(t, err)
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	newName := "new"
	require.NoError(t, tx.UpdatePropertyDefinition(wiz, a, u, worldstate.PropAttrs{Name: &newName}))
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	_, _, err = tx.ResolveProperty(wiz, b, "old")
	require.Equal(t, model.CodePropertyNotFound, errCode(t, err))
	_, v, err := tx.ResolveProperty(wiz, b, "new")
	require.NoError(t, err)
	require.Equal(t, moovar.Int(1), v)
	pd, err := tx.GetPropertyInfo(wiz, b, "new")
	require.NoError(t, err)
	require.Equal(t, u, pd.UUID)
	tx.Rollback()
}

// TestPlayersAndObjects covers the whole-world scans.
func TestPlayersAndObjects(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	user, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New(model.FlagUser))
	require.NoError(t, err)
	_, err = tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	players, err := tx.Players()
	require.NoError(t, err)
	require.Equal(t, []objid.Objid{user}, players.ToSlice())
	all, err := tx.GetObjects()
	require.NoError(t, err)
	require.Equal(t, 3, all.Len())
	tx.Rollback()
}

// TestObjectBytesWizardOnly: the size query needs wizard perms.
func TestObjectBytesWizardOnly(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	joe, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	_, err = tx.ObjectBytes(joe, joe)
	require.Equal(t, model.CodeObjectPermissionDenied, errCode(t, err))
	size, err := tx.ObjectBytes(wiz, joe)
	require.NoError(t, err)
	require.Greater(t, size, int64(0))
	tx.Rollback()
}

// TestCreatePermissions: creating under a parent needs Read and Fertile.
func TestCreatePermissions(t *testing.T) {
	db, _ := openTestDB(t)
	wiz := mkWizard(t, db)

	tx := worldstate.Begin(db)
	parent, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New(model.FlagRead))
	require.NoError(t, err)
	joe, err := tx.CreateObject(wiz, objid.NOTHING, objid.NOTHING, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	_, err = tx.CreateObject(joe, parent, joe, bitenum.New[model.ObjFlag]())
	require.Equal(t, model.CodeObjectPermissionDenied, errCode(t, err))
	tx.Rollback()

	// Granting Fertile unblocks it.
	tx = worldstate.Begin(db)
	require.NoError(t, tx.SetFlagsOf(wiz, parent, bitenum.New(model.FlagRead, model.FlagFertile)))
	commitOK(t, tx)

	tx = worldstate.Begin(db)
	kid, err := tx.CreateObject(joe, parent, joe, bitenum.New[model.ObjFlag]())
	require.NoError(t, err)
	owner, err := tx.OwnerOf(kid)
	require.NoError(t, err)
	require.Equal(t, joe, owner)
	commitOK(t, tx)
}

// TestTerminalTransactionPanics: using a committed handle panics, per
// the state machine's terminal states.
func TestTerminalTransactionPanics(t *testing.T) {
	db, _ := openTestDB(t)

	tx := worldstate.Begin(db)
	commitOK(t, tx)
	require.Panics(t, func() { tx.Commit() })
	require.Panics(t, func() { tx.Rollback() })
}
