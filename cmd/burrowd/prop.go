package main

import (
	"fmt"

	"github.com/burrowdb/burrow/pkg/moovar"
	"github.com/burrowdb/burrow/pkg/worldstate"
	"github.com/spf13/cobra"
)

var propCmd = &cobra.Command{
	Use:   "prop",
	Short: "Manage properties",
}

var propDefineCmd = &cobra.Command{
	Use:   "define <objid> <name> [value]",
	Short: "Define a property on an object",
	Args:  cobra.RangeArgs(2, 3),
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
		flagsStr, _ := cmd.Flags().GetString("flags")
		flags, err := parsePropFlags(flagsStr)
		if err != nil {
			return err
		}
		ownerStr, _ := cmd.Flags().GetString("owner")
		owner, err := parseObjid(ownerStr)
		if err != nil {
			return err
		}
		if !owner.Valid() {
			owner = perms
		}

		var initial *moovar.Var
		if len(args) == 3 {
			v := parseValue(args[2])
			initial = &v
		}
		err = withTx(db, func(tx *worldstate.Tx) error {
			_, err := tx.DefineProperty(perms, obj, obj, args[1], owner, flags, initial)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Printf("Defined %s.%s\n", obj, args[1])
		return nil
	},
}

var propGetCmd = &cobra.Command{
	Use:   "get <objid> <name>",
	Short: "Read a property (with inheritance)",
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
		return withTx(db, func(tx *worldstate.Tx) error {
			v, err := tx.RetrieveProperty(perms, obj, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s.%s = %s\n", obj, args[1], v)
			return nil
		})
	},
}

var propSetCmd = &cobra.Command{
	Use:   "set <objid> <name> <value>",
	Short: "Write a property",
	Args:  cobra.ExactArgs(3),
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
			return tx.UpdateProperty(perms, obj, args[1], parseValue(args[2]))
		})
		if err != nil {
			return err
		}
		fmt.Printf("Set %s.%s\n", obj, args[1])
		return nil
	},
}

var propClearCmd = &cobra.Command{
	Use:   "clear <objid> <name>",
	Short: "Clear a property back to inherited",
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
		err = withTx(db, func(tx *worldstate.Tx) error {
			return tx.ClearProperty(perms, obj, args[1])
		})
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %s.%s\n", obj, args[1])
		return nil
	},
}

var propDeleteCmd = &cobra.Command{
	Use:   "delete <objid> <name>",
	Short: "Delete a property definition (definer only)",
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
		err = withTx(db, func(tx *worldstate.Tx) error {
			pd, err := tx.GetPropertyInfo(perms, obj, args[1])
			if err != nil {
				return err
			}
			return tx.DeleteProperty(perms, obj, pd.UUID)
		})
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %s.%s\n", obj, args[1])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{propDefineCmd, propGetCmd, propSetCmd, propClearCmd, propDeleteCmd} {
		c.Flags().String("as", "#0", "Object id to act as")
	}
	propDefineCmd.Flags().String("flags", "r", "Property flags (r, w, c)")
	propDefineCmd.Flags().String("owner", "#-1", "Property owner (defaults to the acting object)")

	propCmd.AddCommand(propDefineCmd)
	propCmd.AddCommand(propGetCmd)
	propCmd.AddCommand(propSetCmd)
	propCmd.AddCommand(propClearCmd)
	propCmd.AddCommand(propDeleteCmd)
}
