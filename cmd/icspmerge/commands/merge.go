package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/icspmerge/cmd/icspmerge/handlers"
)

// Merge returns the command that merges manifests without changing the
// cluster.
func Merge() *cobra.Command {
	var opts handlers.MergeOptions

	cmd := &cobra.Command{
		Use:   "merge [files...]",
		Short: "Merge policies into one canonical manifest",
		Long: `Merge ImageContentSourcePolicy manifests into one canonical manifest.

Rules with the same source are combined; mirrors keep the order in which they
were first seen and appear once. The result is sorted by source, so repeated
runs produce identical output. Inputs are read in order: the live cluster
policies first (with --cluster), then each file.

Examples:
  # Merge two files to stdout
  icspmerge merge a.yaml b.yaml

  # Merge the live policies with a local file into merged.yaml
  icspmerge merge --cluster extra.yaml -o merged.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Global = globalOptions(cmd)
			opts.Files = args
			return handlers.Merge(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Cluster, "cluster", false, "Read the live policies from the cluster first")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the merged manifest to a file instead of stdout")
	cmd.Flags().StringVar(&opts.Name, "name", "", "metadata.name of the merged manifest (default: merged-0)")

	return cmd
}
