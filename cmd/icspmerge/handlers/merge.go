package handlers

import (
	"context"
	"time"

	"github.com/imamik/icspmerge/internal/config"
	"github.com/imamik/icspmerge/internal/manifest"
	"github.com/imamik/icspmerge/internal/merge"
	"github.com/imamik/icspmerge/internal/metrics"
	"github.com/imamik/icspmerge/internal/source"
)

// MergeOptions configures the merge command.
type MergeOptions struct {
	Global
	// Files are merged in order.
	Files []string
	// Cluster reads the live policies first.
	Cluster bool
	Output  string
	Name    string
}

// Merge merges manifests into one canonical manifest and writes it to the
// output file or stdout. The cluster is only read, never changed.
func Merge(ctx context.Context, opts MergeOptions) error {
	start := time.Now()
	log := newLogger(opts.Verbose, stderr)

	cfg, err := resolveConfig(opts.Global, func(c *config.Config) {
		if opts.Name != "" {
			c.MergedName = opts.Name
		}
		if opts.Output != "" {
			c.Output = opts.Output
		}
	})
	if err != nil {
		return err
	}

	var lister source.Lister
	sources := make([]source.Source, 0, len(opts.Files)+1)
	if opts.Cluster {
		client, err := clusterClient(cfg, log)
		if err != nil {
			return err
		}
		lister = client
		sources = append(sources, source.FromCluster(cfg.ResourceType))
	}
	for _, f := range opts.Files {
		sources = append(sources, source.FromFile(f))
	}

	recorder := metrics.NewRecorder()
	defer func() {
		if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Error(err, "failed to write metrics")
		}
	}()
	fail := func(err error) error {
		recorder.RecordRun(metrics.ResultFailed, time.Since(start), time.Now())
		return err
	}

	loader := source.NewLoader(lister, source.WithKind(cfg.Kind), source.WithLogger(log))
	res, err := loader.Load(ctx, sources)
	if err != nil {
		return fail(err)
	}
	recorder.RecordSkipped(len(res.Skipped))

	for _, m := range res.Manifests {
		log.Info("manifest", "name", m.Metadata.Name)
	}
	merged, err := merge.Merge(res.Manifests, merge.WithName(cfg.MergedName))
	if err != nil {
		return fail(err)
	}
	recorder.RecordMerge(len(merged.Rules()), merged.MirrorCount())

	data, err := manifest.Marshal(merged)
	if err != nil {
		return fail(err)
	}
	if err := writeOutput(cfg.Output, data, log); err != nil {
		return fail(err)
	}

	recorder.RecordRun(metrics.ResultMerged, time.Since(start), time.Now())
	return nil
}
