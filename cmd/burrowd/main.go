package main

import (
	"fmt"
	"os"

	"github.com/burrowdb/burrow/pkg/blog"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "burrowd",
	Short: "Burrow - transactional object-world database",
	Long: `Burrow is the MVCC storage core of a LambdaMOO-style object world:
objects with inheritable properties and verbs, containment, and an
optimistically validated commit pipeline over a single-file store.

burrowd administers a database directory; every subcommand runs as one
transaction that commits atomically or reports a conflict.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Burrow version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("data-dir", "/var/lib/burrow", "Database directory")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(objectCmd)
	rootCmd.AddCommand(propCmd)
	rootCmd.AddCommand(verbCmd)
	rootCmd.AddCommand(statsCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	blog.Init(blog.Config{
		Level:      blog.Level(logLevel),
		JSONOutput: logJSON,
	})
}

func dataDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("data-dir")
	return dir
}
