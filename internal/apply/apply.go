package apply

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/icspmerge/internal/manifest"
)

// ErrApplyFailed is matched by every error returned from Apply when the
// cluster rejected or could not receive the manifest.
var ErrApplyFailed = errors.New("apply failed")

// Client applies a YAML document stream to the cluster.
type Client interface {
	Apply(ctx context.Context, manifests []byte) error
}

// FailedError describes a failed apply.
type FailedError struct {
	// Name is metadata.name of the manifest that was applied.
	Name string
	// Diagnostic is the text reported by the cluster tool.
	Diagnostic string
	Err        error
}

func (e *FailedError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("failed to apply %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("failed to apply %s: %s", e.Name, e.Diagnostic)
}

func (e *FailedError) Unwrap() error {
	return e.Err
}

// Is reports ErrApplyFailed as matching.
func (e *FailedError) Is(target error) bool {
	return target == ErrApplyFailed
}

// Applier applies manifests through a Client.
type Applier struct {
	client Client
	log    logr.Logger
}

// NewApplier creates an Applier.
func NewApplier(client Client, log logr.Logger) *Applier {
	return &Applier{client: client, log: log}
}

// Apply serializes m and applies it once.
func (a *Applier) Apply(ctx context.Context, m manifest.Manifest) error {
	data, err := manifest.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", m.Metadata.Name, err)
	}

	a.log.Info("applying manifest", "name", m.Metadata.Name, "rules", len(m.Rules()))
	if err := a.client.Apply(ctx, data); err != nil {
		return &FailedError{
			Name:       m.Metadata.Name,
			Diagnostic: diagnostic(err),
			Err:        err,
		}
	}
	a.log.Info("applied manifest", "name", m.Metadata.Name)
	return nil
}

func diagnostic(err error) string {
	var d interface{ Diagnostic() string }
	if errors.As(err, &d) {
		return d.Diagnostic()
	}
	return err.Error()
}
