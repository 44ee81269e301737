package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/burrowdb/burrow/pkg/model"
	"github.com/burrowdb/burrow/pkg/worldstate"
	"github.com/spf13/cobra"
)

var verbCmd = &cobra.Command{
	Use:   "verb",
	Short: "Manage verbs",
}

var verbAddCmd = &cobra.Command{
	Use:   "add <objid> <names>",
	Short: "Add a verb to an object",
	Long: `Add a verb to an object. <names> is a space-free comma-separated list
of name patterns ("look,l*ook"). The compiled binary is read from
--binary-file, or empty when omitted.`,
	Args: cobra.ExactArgs(2),
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
		names := strings.Split(args[1], ",")
		flagsStr, _ := cmd.Flags().GetString("flags")
		flags, err := parseVerbFlags(flagsStr)
		if err != nil {
			return err
		}
		var binary []byte
		if path, _ := cmd.Flags().GetString("binary-file"); path != "" {
			binary, err = os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read binary: %w", err)
			}
		}

		err = withTx(db, func(tx *worldstate.Tx) error {
			_, err := tx.AddVerb(perms, obj, names, perms, flags,
				model.AnyArgSpec(), binary, model.BinaryTypeLambdaMOO)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added verb %v to %s\n", names, obj)
		return nil
	},
}

var verbListCmd = &cobra.Command{
	Use:   "list <objid>",
	Short: "List an object's verbs in creation order",
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
			verbs, err := tx.Verbs(perms, obj)
			if err != nil {
				return err
			}
			for i, vd := range verbs {
				fmt.Printf("[%d] %v owner=%s uuid=%s\n", i, vd.Names, vd.Owner, vd.UUID)
			}
			return nil
		})
	},
}

var verbResolveCmd = &cobra.Command{
	Use:   "resolve <objid> <name>",
	Short: "Resolve a verb along the inheritance chain",
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
			info, err := tx.FindMethodVerbOn(perms, obj, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("%s:%v defined on %s (%d bytes)\n",
				obj, info.VerbDef.Names, info.VerbDef.Location, len(info.Binary))
			if len(info.Binary) > 0 && len(info.Binary) <= 64 {
				fmt.Printf("  binary: %s\n", hex.EncodeToString(info.Binary))
			}
			return nil
		})
	},
}

var verbRmCmd = &cobra.Command{
	Use:   "rm <objid> <name>",
	Short: "Remove a verb from an object",
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
			vd, err := tx.GetVerb(perms, obj, args[1])
			if err != nil {
				return err
			}
			return tx.RemoveVerb(perms, obj, vd.UUID)
		})
		if err != nil {
			return err
		}
		fmt.Printf("Removed %s:%s\n", obj, args[1])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{verbAddCmd, verbListCmd, verbResolveCmd, verbRmCmd} {
		c.Flags().String("as", "#0", "Object id to act as")
	}
	verbAddCmd.Flags().String("flags", "rx", "Verb flags (r, w, x, d)")
	verbAddCmd.Flags().String("binary-file", "", "File holding the compiled verb binary")

	verbCmd.AddCommand(verbAddCmd)
	verbCmd.AddCommand(verbListCmd)
	verbCmd.AddCommand(verbResolveCmd)
	verbCmd.AddCommand(verbRmCmd)
}
