// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/icspmerge/cmd/icspmerge/handlers"
)

// Root returns the root command for the icspmerge CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "icspmerge",
		Short:         "Merge and reconcile ImageContentSourcePolicy manifests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (default: icspmerge.yaml, searched upwards)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(Merge())
	cmd.AddCommand(Reconcile())
	cmd.AddCommand(Generate())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// globalOptions reads the persistent flags.
func globalOptions(cmd *cobra.Command) handlers.Global {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	return handlers.Global{ConfigPath: configPath, Verbose: verbose}
}
