package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/blog"
	"github.com/burrowdb/burrow/pkg/burrow"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/burrowdb/burrow/pkg/worldstate"
)

// maxConflictRetries bounds the CLI's replay loop. The core never
// retries on its own; replaying is the caller's job, and for single-shot
// admin commands a handful of attempts is ample.
const maxConflictRetries = 5

func openDB(dir string) (*burrow.Database, bool, error) {
	db, fresh, err := burrow.Open(dir)
	if err != nil {
		return nil, false, fmt.Errorf("open database at %s: %w", dir, err)
	}
	return db, fresh, nil
}

// withTx runs fn inside a transaction, committing afterwards and
// replaying the whole function on conflict.
func withTx(db *burrow.Database, fn func(tx *worldstate.Tx) error) error {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		tx := worldstate.Begin(db)
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		if tx.Commit() == model.CommitSuccess {
			return nil
		}
		blog.Logger.Warn().Int("attempt", attempt+1).Msg("commit conflict, replaying transaction")
	}
	return fmt.Errorf("transaction conflicted %d times, giving up", maxConflictRetries)
}

// bootstrap creates object #0, the system object, on a fresh database.
// #0 owns itself and carries the Wizard and Programmer flags so it can
// act as the administrative principal for every later command.
func bootstrap(db *burrow.Database) (objid.Objid, error) {
	var sys objid.Objid
	err := withTx(db, func(tx *worldstate.Tx) error {
		var err error
		sys, err = tx.CreateObject(objid.NOTHING, objid.NOTHING, objid.NOTHING,
			bitenum.New(model.FlagRead, model.FlagWizard, model.FlagProgrammer))
		if err != nil {
			return err
		}
		return tx.SetName(sys, sys, "System Object")
	})
	return sys, err
}

func parseObjid(s string) (objid.Objid, error) {
	s = strings.TrimPrefix(s, "#")
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return objid.NOTHING, fmt.Errorf("bad object id %q", s)
	}
	return objid.Objid(n), nil
}

// parseValue turns a CLI argument into a Var: an integer, a float, a
// #objid, or a string.
func parseValue(s string) moovar.Var {
	if strings.HasPrefix(s, "#") {
		if o, err := parseObjid(s); err == nil {
			return moovar.Obj(o)
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return moovar.Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return moovar.Float(f)
	}
	return moovar.Str(s)
}

// parseObjFlags parses a compact flag string like "rwf" or "rw,user".
func parseObjFlags(s string) (bitenum.BitEnum[model.ObjFlag], error) {
	var flags bitenum.BitEnum[model.ObjFlag]
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(part) {
		case "":
		case "r":
			flags = flags.With(model.FlagRead)
		case "w":
			flags = flags.With(model.FlagWrite)
		case "f":
			flags = flags.With(model.FlagFertile)
		case "programmer":
			flags = flags.With(model.FlagProgrammer)
		case "wizard":
			flags = flags.With(model.FlagWizard)
		case "user":
			flags = flags.With(model.FlagUser)
		default:
			for _, c := range part {
				switch c {
				case 'r':
					flags = flags.With(model.FlagRead)
				case 'w':
					flags = flags.With(model.FlagWrite)
				case 'f':
					flags = flags.With(model.FlagFertile)
				default:
					return 0, fmt.Errorf("unknown object flag %q", string(c))
				}
			}
		}
	}
	return flags, nil
}

func parsePropFlags(s string) (bitenum.BitEnum[model.PropFlag], error) {
	var flags bitenum.BitEnum[model.PropFlag]
	for _, c := range s {
		switch c {
		case 'r':
			flags = flags.With(model.PropRead)
		case 'w':
			flags = flags.With(model.PropWrite)
		case 'c':
			flags = flags.With(model.PropChown)
		default:
			return 0, fmt.Errorf("unknown property flag %q", string(c))
		}
	}
	return flags, nil
}

func parseVerbFlags(s string) (bitenum.BitEnum[model.VerbFlag], error) {
	var flags bitenum.BitEnum[model.VerbFlag]
	for _, c := range s {
		switch c {
		case 'r':
			flags = flags.With(model.VerbRead)
		case 'w':
			flags = flags.With(model.VerbWrite)
		case 'x':
			flags = flags.With(model.VerbExec)
		case 'd':
			flags = flags.With(model.VerbDebug)
		default:
			return 0, fmt.Errorf("unknown verb flag %q", string(c))
		}
	}
	return flags, nil
}
