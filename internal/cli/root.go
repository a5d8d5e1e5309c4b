// Package cli wires configuration, storage and services into the planner's
// commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "planner",
		Short: "Personal task planner API",
		Long: `planner serves the task planner REST API and runs its background jobs.

Configuration is read from the YAML file given by --config when it exists.
Environment variables always take precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(workerCmd())
	root.AddCommand(versionCmd(version))

	return root
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the planner version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "planner", version)
		},
	}
}
