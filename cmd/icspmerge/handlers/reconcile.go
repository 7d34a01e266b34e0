package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/imamik/icspmerge/internal/apply"
	"github.com/imamik/icspmerge/internal/backup"
	"github.com/imamik/icspmerge/internal/config"
	"github.com/imamik/icspmerge/internal/confirm"
	"github.com/imamik/icspmerge/internal/metrics"
	"github.com/imamik/icspmerge/internal/reconcile"
	"github.com/imamik/icspmerge/internal/source"
)

// ReconcileOptions configures the reconcile command.
type ReconcileOptions struct {
	Global
	// Files are merged after the live policies, in order.
	Files []string
	// Yes skips the confirmation prompt.
	Yes       bool
	BackupDir string
	Output    string
	Name      string
}

// Reconcile merges the live policies with local files, backs up the live
// state, shows the diff and applies the merged policy once confirmed.
//
// It returns an error only when the run failed; an aborted or unchanged
// run is a success.
func Reconcile(ctx context.Context, opts ReconcileOptions) error {
	log := newLogger(opts.Verbose, stderr)

	cfg, err := resolveConfig(opts.Global, func(c *config.Config) {
		if opts.Name != "" {
			c.MergedName = opts.Name
		}
		if opts.Output != "" {
			c.Output = opts.Output
		}
		if opts.BackupDir != "" {
			c.Backup.Dir = opts.BackupDir
		}
	})
	if err != nil {
		return err
	}

	client, err := clusterClient(cfg, log)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	log = log.WithValues("run", runID)

	backupOpts := []backup.Option{backup.WithLogger(log)}
	if s3cfg := cfg.Backup.S3; s3cfg != nil {
		uploader, err := newS3Uploader(ctx, s3cfg, runID)
		if err != nil {
			return err
		}
		backupOpts = append(backupOpts, backup.WithUploader(uploader, s3cfg.Prefix))
	}

	recorder := metrics.NewRecorder()
	gate := confirm.NewGate()
	wf := reconcile.New(
		reconcile.Config{
			ResourceType: cfg.ResourceType,
			Files:        opts.Files,
			MergedName:   cfg.MergedName,
			OutputPath:   cfg.Output,
		},
		source.NewLoader(client, source.WithKind(cfg.Kind), source.WithLogger(log)),
		backup.NewManager(cfg.Backup.Dir, backupOpts...),
		gate,
		apply.NewApplier(client, log),
		reconcile.WithLogger(log),
		reconcile.WithMetrics(recorder),
		reconcile.WithRunID(runID),
	)

	serveCtx, stopServe := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() {
		served <- confirm.Serve(serveCtx, gate, newDecider(opts.Yes), stdout, colorEnabled())
	}()

	out, runErr := wf.Run(ctx)
	stopServe()
	if err := <-served; err != nil && !errors.Is(err, context.Canceled) {
		log.Error(err, "confirmation prompt failed")
	}

	printOutcome(stdout, out, colorEnabled())

	if err := recorder.WriteTextfile(cfg.MetricsTextfile); err != nil {
		log.Error(err, "failed to write metrics")
	}
	return runErr
}
