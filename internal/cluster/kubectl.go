package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/go-logr/logr"

	"github.com/imamik/icspmerge/internal/util/naming"
)

// Runner executes a command and returns its standard output. On failure
// the error carries the command's standard error.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Kubectl is a Client backed by the kubectl (or oc) command line tool.
type Kubectl struct {
	// Binary is the tool to run, "kubectl" if empty.
	Binary string
	// Kubeconfig is passed as --kubeconfig when set.
	Kubeconfig string

	run Runner
	log logr.Logger
}

// NewKubectl creates a Kubectl client. A nil runner executes the binary.
func NewKubectl(binary, kubeconfig string, run Runner, log logr.Logger) *Kubectl {
	if binary == "" {
		binary = "kubectl"
	}
	if run == nil {
		run = execRunner
	}
	return &Kubectl{Binary: binary, Kubeconfig: kubeconfig, run: run, log: log}
}

// List implements Client with `get <type> -o yaml`.
func (k *Kubectl) List(ctx context.Context, resourceType string) ([]byte, error) {
	args := k.args("get", resourceType, "-o", "yaml")
	k.log.V(1).Info("running cluster tool", "binary", k.Binary, "args", args)

	out, err := k.run(ctx, k.Binary, args...)
	if err != nil {
		return nil, asError(k.Binary+" get "+resourceType, err)
	}
	return out, nil
}

// Apply implements Client by writing the manifests to a temporary file and
// running `apply -f` on it once.
func (k *Kubectl) Apply(ctx context.Context, manifests []byte) error {
	tmpfile, err := os.CreateTemp("", naming.TempManifest("icspmerge"))
	if err != nil {
		return fmt.Errorf("failed to create temp manifest file: %w", err)
	}
	// Best-effort cleanup; failure to remove temp file is non-critical
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write(manifests); err != nil {
		_ = tmpfile.Close()
		return fmt.Errorf("failed to write manifest to temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return fmt.Errorf("failed to close temp manifest file: %w", err)
	}

	args := k.args("apply", "-f", tmpfile.Name())
	k.log.V(1).Info("running cluster tool", "binary", k.Binary, "args", args)

	out, err := k.run(ctx, k.Binary, args...)
	if err != nil {
		return asError(k.Binary+" apply", err)
	}
	k.log.Info("applied", "output", strings.TrimSpace(string(out)))
	return nil
}

func (k *Kubectl) args(args ...string) []string {
	if k.Kubeconfig == "" {
		return args
	}
	return append([]string{"--kubeconfig", k.Kubeconfig}, args...)
}

// execRunner runs the command with separate stdout and stderr buffers.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 - binary and arguments come from operator configuration
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), &Error{Output: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.Bytes(), nil
}

// asError labels a runner error with the operation that failed.
func asError(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return &Error{Op: op, Output: e.Output, Err: e.Err}
	}
	return &Error{Op: op, Err: err}
}
