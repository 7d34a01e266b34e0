package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/icspmerge/cmd/icspmerge/handlers"
)

// Reconcile returns the command that merges and applies to the cluster.
//
// Optional flags:
//
//	--yes, -y: Apply without asking
//	--backup-dir: Directory for backups of the live policies
//	--output, -o: Also write the merged manifest to a file
//
// Environment variables:
//
//	KUBECONFIG: kubeconfig used when none is configured
//	ICSPMERGE_S3_ACCESS_KEY, ICSPMERGE_S3_SECRET_KEY: object storage credentials
func Reconcile() *cobra.Command {
	var opts handlers.ReconcileOptions

	cmd := &cobra.Command{
		Use:   "reconcile [files...]",
		Short: "Merge with the live policies and apply after confirmation",
		Long: `Merge the live ImageContentSourcePolicy resources with local files and apply
the result to the cluster.

The live policies are backed up to backup-<timestamp>/ before anything else
happens. The diff between the live state and the merged policy is shown, and
the policy is applied only after you confirm. Nothing is applied when the
live state already matches.

Examples:
  # Review and apply interactively
  icspmerge reconcile extra-mirrors.yaml

  # Apply without asking, keeping backups in /var/backups/icsp
  icspmerge reconcile extra-mirrors.yaml --yes --backup-dir /var/backups/icsp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Global = globalOptions(cmd)
			opts.Files = args
			return handlers.Reconcile(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Apply without asking for confirmation")
	cmd.Flags().StringVar(&opts.BackupDir, "backup-dir", "", "Directory under which backups are written (default: current directory)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Also write the merged manifest to a file")
	cmd.Flags().StringVar(&opts.Name, "name", "", "metadata.name of the merged manifest (default: merged-0)")

	return cmd
}
