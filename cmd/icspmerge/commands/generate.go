package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/icspmerge/cmd/icspmerge/handlers"
)

// Generate returns the command that builds a policy from an image mapping
// file.
func Generate() *cobra.Command {
	var opts handlers.GenerateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a policy for an offline registry from an image mapping file",
		Long: `Generate an ImageContentSourcePolicy named offline-repo-mirror from a file of
"source=destination" image lines.

Each source image's repository is mirrored to the same path under the
offline registry. With --mapping-out, a mapping file for copying the
destination images from the offline registry is written as well.

Examples:
  icspmerge generate -f mapping.txt --registry offline.example.com:8443 -o icsp.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Global = globalOptions(cmd)
			return handlers.Generate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.MappingFile, "file", "f", "", "File with image mappings (required)")
	cmd.Flags().StringVar(&opts.Registry, "registry", "", "Offline registry host (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the policy to a file instead of stdout")
	cmd.Flags().StringVar(&opts.MappingOut, "mapping-out", "", "Write the offline mapping file")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("registry")

	return cmd
}
