package main

import (
	"fmt"

	"github.com/burrowdb/burrow/pkg/objid"
	"github.com/burrowdb/burrow/pkg/worldstate"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new burrow database",
	Long: `Initialize a new burrow database in the data directory, creating the
system object #0 as a wizard. Refuses to touch an already-initialized
database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, fresh, err := openDB(dataDir(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		if !fresh {
			return fmt.Errorf("database at %s is already initialized", dataDir(cmd))
		}
		sys, err := bootstrap(db)
		if err != nil {
			return err
		}
		fmt.Printf("Initialized database, system object %s\n", sys)
		return nil
	},
}

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Manage objects",
}

var objectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an object",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(dataDir(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		perms, err := permsFlag(cmd)
		if err != nil {
			return err
		}
		parentStr, _ := cmd.Flags().GetString("parent")
		ownerStr, _ := cmd.Flags().GetString("owner")
		flagsStr, _ := cmd.Flags().GetString("flags")
		name, _ := cmd.Flags().GetString("name")

		parent, err := parseObjid(parentStr)
		if err != nil {
			return err
		}
		owner, err := parseObjid(ownerStr)
		if err != nil {
			return err
		}
		flags, err := parseObjFlags(flagsStr)
		if err != nil {
			return err
		}

		var created objid.Objid
		err = withTx(db, func(tx *worldstate.Tx) error {
			var err error
			created, err = tx.CreateObject(perms, parent, owner, flags)
			if err != nil {
				return err
			}
			if name != "" {
				return tx.SetName(perms, created, name)
			}
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created %s\n", created)
		return nil
	},
}

var objectRecycleCmd = &cobra.Command{
	Use:   "recycle <objid>",
	Short: "Recycle (destroy) an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(dataDir(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		perms, err := permsFlag(cmd)
		if err != nil {
			return err
		}
		obj, err := parseObjid(args[0])
		if err != nil {
			return err
		}
		err = withTx(db, func(tx *worldstate.Tx) error {
			return tx.RecycleObject(perms, obj)
		})
		if err != nil {
			return err
		}
		fmt.Printf("Recycled %s\n", obj)
		return nil
	},
}

var objectMoveCmd = &cobra.Command{
	Use:   "move <objid> <destination>",
	Short: "Move an object into a new location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(dataDir(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		perms, err := permsFlag(cmd)
		if err != nil {
			return err
		}
		obj, err := parseObjid(args[0])
		if err != nil {
			return err
		}
		dest, err := parseObjid(args[1])
		if err != nil {
			return err
		}
		err = withTx(db, func(tx *worldstate.Tx) error {
			return tx.MoveObject(perms, obj, dest)
		})
		if err != nil {
			return err
		}
		fmt.Printf("Moved %s to %s\n", obj, dest)
		return nil
	},
}

var objectChparentCmd = &cobra.Command{
	Use:   "chparent <objid> <new-parent>",
	Short: "Change an object's parent",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(dataDir(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		perms, err := permsFlag(cmd)
		if err != nil {
			return err
		}
		obj, err := parseObjid(args[0])
		if err != nil {
			return err
		}
		parent, err := parseObjid(args[1])
		if err != nil {
			return err
		}
		err = withTx(db, func(tx *worldstate.Tx) error {
			return tx.ChangeParent(perms, obj, parent)
		})
		if err != nil {
			return err
		}
		fmt.Printf("Reparented %s under %s\n", obj, parent)
		return nil
	},
}

var objectShowCmd = &cobra.Command{
	Use:   "show <objid>",
	Short: "Show an object's attributes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(dataDir(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		perms, err := permsFlag(cmd)
		if err != nil {
			return err
		}
		obj, err := parseObjid(args[0])
		if err != nil {
			return err
		}
		return withTx(db, func(tx *worldstate.Tx) error {
			name, err := tx.NameOf(obj)
			if err != nil {
				return err
			}
			owner, err := tx.OwnerOf(obj)
			if err != nil {
				return err
			}
			parent, err := tx.ParentOf(obj)
			if err != nil {
				return err
			}
			location, err := tx.LocationOf(obj)
			if err != nil {
				return err
			}
			contents, err := tx.ContentsOf(obj)
			if err != nil {
				return err
			}
			children, err := tx.ChildrenOf(perms, obj)
			if err != nil {
				return err
			}
			props, err := tx.Properties(perms, obj)
			if err != nil {
				return err
			}
			verbs, err := tx.Verbs(perms, obj)
			if err != nil {
				return err
			}

			fmt.Printf("%s %q\n", obj, name)
			fmt.Printf("  owner:    %s\n", owner)
			fmt.Printf("  parent:   %s\n", parent)
			fmt.Printf("  location: %s\n", location)
			fmt.Printf("  contents: %v\n", contents.ToSlice())
			fmt.Printf("  children: %v\n", children.ToSlice())
			fmt.Printf("  properties (%d):\n", len(props))
			for _, pd := range props {
				fmt.Printf("    %-20s definer=%s owner=%s\n", pd.Name, pd.Definer, pd.Owner)
			}
			fmt.Printf("  verbs (%d):\n", len(verbs))
			for i, vd := range verbs {
				fmt.Printf("    [%d] %v owner=%s\n", i, vd.Names, vd.Owner)
			}
			return nil
		})
	},
}

var objectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all valid objects",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(dataDir(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		return withTx(db, func(tx *worldstate.Tx) error {
			objects, err := tx.GetObjects()
			if err != nil {
				return err
			}
			for _, o := range objects.ToSlice() {
				name, err := tx.NameOf(o)
				if err != nil {
					return err
				}
				fmt.Printf("%s %q\n", o, name)
			}
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, _, err := openDB(dataDir(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Printf("Max object:  %s\n", db.MaxObject())
		fmt.Printf("Objects:     %d\n", db.ObjectCount())
		fmt.Printf("Usage bytes: %d\n", db.UsageBytes())
		return nil
	},
}

func permsFlag(cmd *cobra.Command) (objid.Objid, error) {
	s, _ := cmd.Flags().GetString("as")
	return parseObjid(s)
}

func init() {
	for _, c := range []*cobra.Command{objectCreateCmd, objectRecycleCmd, objectMoveCmd, objectChparentCmd, objectShowCmd} {
		c.Flags().String("as", "#0", "Object id to act as")
	}
	objectCreateCmd.Flags().String("parent", "#-1", "Parent object")
	objectCreateCmd.Flags().String("owner", "#-1", "Owner (defaults to the new object itself)")
	objectCreateCmd.Flags().String("flags", "", "Object flags (r, w, f, programmer, wizard, user)")
	objectCreateCmd.Flags().String("name", "", "Object name")

	objectCmd.AddCommand(objectCreateCmd)
	objectCmd.AddCommand(objectRecycleCmd)
	objectCmd.AddCommand(objectMoveCmd)
	objectCmd.AddCommand(objectChparentCmd)
	objectCmd.AddCommand(objectShowCmd)
	objectCmd.AddCommand(objectListCmd)
}
