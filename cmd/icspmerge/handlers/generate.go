package handlers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/imamik/icspmerge/internal/generate"
	"github.com/imamik/icspmerge/internal/manifest"
)

// GenerateOptions configures the generate command.
type GenerateOptions struct {
	Global
	// MappingFile holds "source=destination" image lines.
	MappingFile string
	// Registry is the offline registry host.
	Registry string
	Output   string
	// MappingOut receives the mapping file for loading images from the
	// offline registry.
	MappingOut string
}

// Generate writes an ImageContentSourcePolicy for the images of a mapping
// file.
func Generate(_ context.Context, opts GenerateOptions) error {
	log := newLogger(opts.Verbose, stderr)

	log.Info("using file", "path", opts.MappingFile)
	data, err := readFile(opts.MappingFile)
	if err != nil {
		return fmt.Errorf("failed to read mapping file: %w", err)
	}

	entries, err := generate.ParseMappings(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", opts.MappingFile, err)
	}

	policy, err := generate.Policy(entries, opts.Registry)
	if err != nil {
		return err
	}
	log.Info("generated policy", "name", policy.Metadata.Name, "images", len(entries), "rules", len(policy.Rules()))

	out, err := manifest.Marshal(policy)
	if err != nil {
		return err
	}
	if err := writeOutput(opts.Output, out, log); err != nil {
		return err
	}

	if opts.MappingOut != "" {
		if err := writeFile(opts.MappingOut, generate.RewriteMappings(entries, opts.Registry), 0o644); err != nil {
			return fmt.Errorf("failed to write mapping file: %w", err)
		}
		log.Info("mapping file created", "path", opts.MappingOut)
	}
	return nil
}
