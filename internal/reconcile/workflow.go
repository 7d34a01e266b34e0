package reconcile

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/icspmerge/internal/backup"
	"github.com/imamik/icspmerge/internal/confirm"
	"github.com/imamik/icspmerge/internal/diff"
	"github.com/imamik/icspmerge/internal/manifest"
	"github.com/imamik/icspmerge/internal/merge"
	"github.com/imamik/icspmerge/internal/metrics"
	"github.com/imamik/icspmerge/internal/source"
)

// Loader loads manifests from sources.
type Loader interface {
	Load(ctx context.Context, sources []source.Source) (*source.Result, error)
}

// BackupWriter snapshots live documents.
type BackupWriter interface {
	Backup(ctx context.Context, resourceType string, docs []manifest.Document) (*backup.Set, error)
}

// Confirmer blocks until the operator decides on a diff.
type Confirmer interface {
	Await(ctx context.Context, d *diff.Diff) (confirm.Decision, error)
}

// Applier commits the merged manifest.
type Applier interface {
	Apply(ctx context.Context, m manifest.Manifest) error
}

// Config describes what a run merges.
type Config struct {
	// ResourceType is listed on the cluster and backed up.
	ResourceType string
	// Files are read after the live resources, in order.
	Files []string
	// MergedName is metadata.name of the merged manifest.
	MergedName string
	// OutputPath receives the merged manifest when set.
	OutputPath string
}

// Outcome is the result of a run.
type Outcome struct {
	RunID   string
	State   State
	Merged  manifest.Manifest
	Backup  *backup.Set
	Diff    *diff.Diff
	Skipped []error
	// Unchanged is set when the live state already matches.
	Unchanged bool
}

// Workflow runs the reconciliation.
type Workflow struct {
	cfg       Config
	loader    Loader
	backups   BackupWriter
	confirmer Confirmer
	applier   Applier

	runID        string
	metrics      *metrics.Recorder
	log          logr.Logger
	now          func() time.Time
	writeFile    func(string, []byte, os.FileMode) error
	onTransition func(from, to State)
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithMetrics records run metrics.
func WithMetrics(r *metrics.Recorder) Option {
	return func(w *Workflow) {
		w.metrics = r
	}
}

// WithRunID sets the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(w *Workflow) {
		w.runID = id
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(w *Workflow) {
		w.log = log
	}
}

// WithTransitionHook calls fn on every state change.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(w *Workflow) {
		w.onTransition = fn
	}
}

// New creates a Workflow.
func New(cfg Config, loader Loader, backups BackupWriter, confirmer Confirmer, applier Applier, opts ...Option) *Workflow {
	w := &Workflow{
		cfg:       cfg,
		loader:    loader,
		backups:   backups,
		confirmer: confirmer,
		applier:   applier,
		log:       logr.Discard(),
		now:       time.Now,
		writeFile: os.WriteFile,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// run carries the per-run state.
type run struct {
	*Workflow
	out   *Outcome
	log   logr.Logger
	start time.Time
}

// Run executes one reconciliation. The returned Outcome is never nil; its
// State is terminal. The error is non-nil exactly when the State is Failed.
func (w *Workflow) Run(ctx context.Context) (*Outcome, error) {
	runID := w.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	out := &Outcome{RunID: runID, State: Idle}
	r := &run{
		Workflow: w,
		out:      out,
		log:      w.log.WithValues("run", out.RunID),
		start:    w.now(),
	}
	return out, r.execute(ctx)
}

func (r *run) execute(ctx context.Context) error {
	r.transition(Loading)
	sources := make([]source.Source, 0, len(r.cfg.Files)+1)
	sources = append(sources, source.FromCluster(r.cfg.ResourceType))
	for _, f := range r.cfg.Files {
		sources = append(sources, source.FromFile(f))
	}
	res, err := r.loader.Load(ctx, sources)
	if err != nil {
		return r.fail(fmt.Errorf("failed to load manifests: %w", err))
	}
	r.out.Skipped = res.Skipped
	r.metrics.RecordSkipped(len(res.Skipped))

	r.transition(Merging)
	for _, m := range res.Manifests {
		r.log.Info("manifest", "name", m.Metadata.Name)
	}
	merged, err := merge.Merge(res.Manifests, merge.WithName(r.cfg.MergedName))
	if err != nil {
		return r.fail(err)
	}
	r.out.Merged = merged
	r.metrics.RecordMerge(len(merged.Rules()), merged.MirrorCount())

	if r.cfg.OutputPath != "" {
		if err := r.writeOutput(merged); err != nil {
			return r.fail(err)
		}
	}

	r.transition(BackingUp)
	set, err := r.backups.Backup(ctx, r.cfg.ResourceType, res.LiveDocuments)
	if err != nil {
		return r.fail(err)
	}
	r.out.Backup = set
	r.metrics.RecordBackup(len(set.Files))

	d, err := diff.Compute(r.applyTarget(res.LiveManifests, merged.Metadata.Name), merged)
	if err != nil {
		return r.fail(err)
	}
	r.out.Diff = d

	if d.Empty() {
		r.log.Info("live state already up to date, nothing to apply")
		r.out.Unchanged = true
		r.transition(Aborted)
		r.finish(metrics.ResultUnchanged)
		return nil
	}

	r.transition(AwaitingConfirmation)
	decision, err := r.confirmer.Await(ctx, d)
	if err != nil {
		r.log.Info("confirmation cancelled", "reason", err.Error())
	}
	if decision != confirm.Proceed {
		r.log.Info("aborted by operator, cluster left unchanged", "backup", set.Dir)
		r.transition(Aborted)
		r.finish(metrics.ResultAborted)
		return nil
	}

	r.transition(Applying)
	if err := r.applier.Apply(ctx, merged); err != nil {
		return r.fail(err)
	}

	r.transition(Applied)
	r.finish(metrics.ResultApplied)
	return nil
}

// applyTarget returns the live policies apply will overwrite. Other live
// policies are never pruned, so they stay out of the diff.
func (r *run) applyTarget(live []manifest.Manifest, name string) []manifest.Manifest {
	var target []manifest.Manifest
	for _, m := range live {
		if m.Metadata.Name == name {
			target = append(target, m)
			continue
		}
		r.log.V(1).Info("keeping live policy", "name", m.Metadata.Name)
	}
	return target
}

func (r *run) writeOutput(m manifest.Manifest) error {
	data, err := manifest.Marshal(m)
	if err != nil {
		return err
	}
	if err := r.writeFile(r.cfg.OutputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	r.log.Info("wrote merged manifest", "path", r.cfg.OutputPath)
	return nil
}

func (r *run) transition(to State) {
	from := r.out.State
	r.out.State = to
	r.log.V(1).Info("state transition", "from", from.String(), "to", to.String())
	if r.onTransition != nil {
		r.onTransition(from, to)
	}
}

func (r *run) fail(err error) error {
	r.log.Error(err, "run failed", "state", r.out.State.String())
	r.transition(Failed)
	r.finish(metrics.ResultFailed)
	return err
}

func (r *run) finish(result string) {
	end := r.now()
	r.metrics.RecordRun(result, end.Sub(r.start), end)
}
