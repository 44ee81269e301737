// burrow-migrate replays a line-oriented directive file into a burrow
// database inside a single transaction, the bulk-load path a textdump
// importer would use. The whole file commits atomically; a conflict or a
// bad directive loads nothing.
//
// Directive format, one per line (# starts a comment):
//
//	object <alias> [parent=<ref>] [owner=<ref>] [flags=rwf] [name=<text>]
//	prop <ref> <name> [<value>]      define a property on <ref>
//	set <ref> <name> <value>         write a property (pseudo-props allowed)
//	verb <ref> <names> [hex=<bytes>] add a verb (comma-separated names)
//	move <ref> <ref>                 relocate an object
//	chparent <ref> <ref>             reparent an object
//
// A <ref> is a literal object id (#12) or an alias introduced by an
// earlier object directive. Values parse as int, float, #objid, or
// string.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/burrowdb/burrow/pkg/bitenum"
	"github.com/burrowdb/burrow/pkg/burrow"
	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/burrowdb/burrow/pkg/worldstate"
)

var (
	dataDir = flag.String("data-dir", "/var/lib/burrow", "Burrow data directory")
	input   = flag.String("input", "", "Directive file to replay (required)")
	actAs   = flag.String("as", "#0", "Object id to act as")
	dryRun  = flag.Bool("dry-run", false, "Parse and apply, then roll back instead of committing")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Burrow bulk loader")

	if *input == "" {
		log.Fatal("-input is required")
	}
	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer f.Close()

	db, fresh, err := burrow.Open(*dataDir)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if fresh {
		log.Println("Fresh database; object #0 will come from the directives")
	}

	perms, err := parseRef(nil, *actAs)
	if err != nil {
		log.Fatalf("Bad -as: %v", err)
	}

	loader := &loader{
		tx:      worldstate.Begin(db),
		perms:   perms,
		aliases: make(map[string]objid.Objid),
	}

	scanner := bufio.NewScanner(f)
	lineno := 0
	applied := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := loader.apply(line); err != nil {
			loader.tx.Rollback()
			log.Fatalf("Line %d: %v", lineno, err)
		}
		applied++
	}
	if err := scanner.Err(); err != nil {
		loader.tx.Rollback()
		log.Fatalf("Read error: %v", err)
	}

	if *dryRun {
		loader.tx.Rollback()
		log.Printf("Dry run: %d directives applied and rolled back", applied)
		return
	}

	switch loader.tx.Commit() {
	case model.CommitSuccess:
		log.Printf("✓ Committed %d directives", applied)
	case model.CommitConflictRetry:
		log.Fatal("Commit conflicted; re-run the load")
	}
}

type loader struct {
	tx      *worldstate.Tx
	perms   objid.Objid
	aliases map[string]objid.Objid
}

func (l *loader) apply(line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "object":
		return l.applyObject(fields[1:])
	case "prop":
		return l.applyProp(fields[1:])
	case "set":
		return l.applySet(fields[1:])
	case "verb":
		return l.applyVerb(fields[1:])
	case "move":
		return l.applyEdge(fields[1:], l.tx.MoveObject)
	case "chparent":
		return l.applyEdge(fields[1:], l.tx.ChangeParent)
	default:
		return fmt.Errorf("unknown directive %q", fields[0])
	}
}

func (l *loader) applyObject(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("object: alias required")
	}
	alias := args[0]
	parent, owner := objid.NOTHING, objid.NOTHING
	var flags bitenum.BitEnum[model.ObjFlag]
	name := ""
	for _, kv := range args[1:] {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("object: bad attribute %q", kv)
		}
		var err error
		switch key {
		case "parent":
			parent, err = parseRef(l.aliases, val)
		case "owner":
			owner, err = parseRef(l.aliases, val)
		case "flags":
			flags, err = parseObjFlags(val)
		case "name":
			name = strings.ReplaceAll(val, "_", " ")
		default:
			err = fmt.Errorf("unknown attribute %q", key)
		}
		if err != nil {
			return fmt.Errorf("object: %w", err)
		}
	}

	created, err := l.tx.CreateObject(l.perms, parent, owner, flags)
	if err != nil {
		return err
	}
	if name != "" {
		if err := l.tx.SetName(l.perms, created, name); err != nil {
			return err
		}
	}
	l.aliases[alias] = created
	return nil
}

func (l *loader) applyProp(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("prop: object and name required")
	}
	obj, err := parseRef(l.aliases, args[0])
	if err != nil {
		return err
	}
	var initial *moovar.Var
	if len(args) > 2 {
		v := parseValue(l.aliases, strings.Join(args[2:], " "))
		initial = &v
	}
	_, err = l.tx.DefineProperty(l.perms, obj, obj, args[1], l.perms,
		bitenum.New(model.PropRead), initial)
	return err
}

func (l *loader) applySet(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("set: object, name, and value required")
	}
	obj, err := parseRef(l.aliases, args[0])
	if err != nil {
		return err
	}
	return l.tx.UpdateProperty(l.perms, obj, args[1], parseValue(l.aliases, strings.Join(args[2:], " ")))
}

func (l *loader) applyVerb(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("verb: object and names required")
	}
	obj, err := parseRef(l.aliases, args[0])
	if err != nil {
		return err
	}
	names := strings.Split(args[1], ",")
	var binary []byte
	for _, kv := range args[2:] {
		key, val, ok := strings.Cut(kv, "=")
		if ok && key == "hex" {
			binary, err = decodeHex(val)
			if err != nil {
				return fmt.Errorf("verb: %w", err)
			}
		}
	}
	_, err = l.tx.AddVerb(l.perms, obj, names, l.perms,
		bitenum.New(model.VerbRead, model.VerbExec),
		model.AnyArgSpec(), binary, model.BinaryTypeLambdaMOO)
	return err
}

func (l *loader) applyEdge(args []string, op func(objid.Objid, objid.Objid, objid.Objid) error) error {
	if len(args) != 2 {
		return fmt.Errorf("two object refs required")
	}
	obj, err := parseRef(l.aliases, args[0])
	if err != nil {
		return err
	}
	target, err := parseRef(l.aliases, args[1])
	if err != nil {
		return err
	}
	return op(l.perms, obj, target)
}

func parseRef(aliases map[string]objid.Objid, s string) (objid.Objid, error) {
	if strings.HasPrefix(s, "#") {
		n, err := strconv.ParseInt(s[1:], 10, 32)
		if err != nil {
			return objid.NOTHING, fmt.Errorf("bad object id %q", s)
		}
		return objid.Objid(n), nil
	}
	if o, ok := aliases[s]; ok {
		return o, nil
	}
	return objid.NOTHING, fmt.Errorf("unknown object ref %q", s)
}

func parseValue(aliases map[string]objid.Objid, s string) moovar.Var {
	if o, err := parseRef(aliases, s); err == nil {
		return moovar.Obj(o)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return moovar.Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return moovar.Float(f)
	}
	return moovar.Str(s)
}

func parseObjFlags(s string) (bitenum.BitEnum[model.ObjFlag], error) {
	var flags bitenum.BitEnum[model.ObjFlag]
	for _, c := range s {
		switch c {
		case 'r':
			flags = flags.With(model.FlagRead)
		case 'w':
			flags = flags.With(model.FlagWrite)
		case 'f':
			flags = flags.With(model.FlagFertile)
		case 'p':
			flags = flags.With(model.FlagProgrammer)
		case 'z':
			flags = flags.With(model.FlagWizard)
		case 'u':
			flags = flags.With(model.FlagUser)
		default:
			return 0, fmt.Errorf("unknown flag %q", string(c))
		}
	}
	return flags, nil
}

func decodeHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("odd-length hex string")
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		b, err := strconv.ParseUint(s[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad hex byte at %d", 2*i)
		}
		out[i] = byte(b)
	}
	return out, nil
}
