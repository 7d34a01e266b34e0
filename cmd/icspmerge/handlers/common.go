// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"

	"github.com/imamik/icspmerge/internal/backup"
	"github.com/imamik/icspmerge/internal/cluster"
	"github.com/imamik/icspmerge/internal/config"
	"github.com/imamik/icspmerge/internal/confirm"
	"github.com/imamik/icspmerge/internal/logging"
	"github.com/imamik/icspmerge/internal/platform/s3"
	"github.com/imamik/icspmerge/internal/util/prerequisites"
)

// Global holds the options shared by all commands.
type Global struct {
	// ConfigPath is the configuration file; empty searches for icspmerge.yaml.
	ConfigPath string
	Verbose    bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfig resolves the configuration file.
	loadConfig = config.Load

	// newLogger creates the run logger.
	newLogger = logging.New

	// checkClusterTool verifies the cluster command line tool is installed.
	checkClusterTool = prerequisites.CheckClusterTool

	// newClusterClient creates the cluster client for the configured backend.
	newClusterClient = func(cfg config.ClusterConfig, log logr.Logger) (cluster.Client, error) {
		if cfg.Backend == config.BackendAPI {
			return cluster.NewAPI(cfg.Kubeconfig, log)
		}
		return cluster.NewKubectl(cfg.BinaryName(), cfg.Kubeconfig, nil, log), nil
	}

	// newS3Uploader creates the object storage backup mirror.
	newS3Uploader = func(ctx context.Context, cfg *config.S3Config, runID string) (backup.Uploader, error) {
		client, err := s3.NewClient(cfg.Endpoint, cfg.Region, cfg.AccessKey, cfg.SecretKey, cfg.UsePathStyle)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx, cfg.Bucket); err != nil {
			return nil, err
		}
		return s3.NewBucketUploader(client, cfg.Bucket, runID), nil
	}

	// isTerminal reports whether f is an interactive terminal.
	isTerminal = func(f *os.File) bool {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	// writeFile writes data to a file (for testing injection).
	writeFile = os.WriteFile

	// readFile reads a file (for testing injection).
	readFile = os.ReadFile

	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// resolveConfig loads the configuration, applies flag overrides and
// validates the result.
func resolveConfig(g Global, override func(*config.Config)) (*config.Config, error) {
	cfg, err := loadConfig(g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// clusterClient checks prerequisites and creates the cluster client.
func clusterClient(cfg *config.Config, log logr.Logger) (cluster.Client, error) {
	if cfg.Cluster.Backend != config.BackendAPI {
		if err := checkClusterTool(cfg.Cluster.BinaryName()); err != nil {
			return nil, err
		}
	}
	client, err := newClusterClient(cfg.Cluster, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create cluster client: %w", err)
	}
	return client, nil
}

// newDecider picks how the operator is asked.
func newDecider(yes bool) confirm.Decider {
	if yes {
		return confirm.StaticDecider(confirm.Proceed)
	}
	if interactive(stdin) {
		return &confirm.PromptDecider{In: stdin, Out: stdout}
	}
	return &confirm.LineDecider{In: stdin, Out: stdout}
}

// colorEnabled reports whether stdout output may be styled.
func colorEnabled() bool {
	return interactive(stdout)
}

// interactive reports whether v is a terminal file.
func interactive(v any) bool {
	f, ok := v.(*os.File)
	return ok && isTerminal(f)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte, log logr.Logger) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := writeFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Info("wrote manifest", "path", path)
	return nil
}
