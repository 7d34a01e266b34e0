package config

import (
	"errors"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"

	"github.com/imamik/icspmerge/internal/manifest"
	"github.com/imamik/icspmerge/internal/util/naming"
)

// Backend selects how the cluster is reached.
type Backend string

// Backend values.
const (
	BackendKubectl Backend = "kubectl"
	BackendOC      Backend = "oc"
	BackendAPI     Backend = "api"
)

// IsValid returns true if the backend is known.
func (b Backend) IsValid() bool {
	switch b {
	case BackendKubectl, BackendOC, BackendAPI:
		return true
	}
	return false
}

// ValidBackends returns all known backends.
func ValidBackends() []Backend {
	return []Backend{BackendKubectl, BackendOC, BackendAPI}
}

// Config is the icspmerge configuration.
type Config struct {
	// ResourceType is the cluster resource type listed and applied.
	ResourceType string `yaml:"resourceType"`

	// Kind is the manifest kind accepted from inputs.
	Kind string `yaml:"kind"`

	// MergedName is metadata.name of the merged manifest.
	MergedName string `yaml:"mergedName"`

	Cluster ClusterConfig `yaml:"cluster"`
	Backup  BackupConfig  `yaml:"backup"`

	// Output is the path of the canonical output file. Empty disables it.
	Output string `yaml:"output,omitempty"`

	// MetricsTextfile is the path of a node-exporter textfile. Empty
	// disables metrics output.
	MetricsTextfile string `yaml:"metricsTextfile,omitempty"`
}

// ClusterConfig configures cluster access.
type ClusterConfig struct {
	Backend Backend `yaml:"backend"`

	// Binary overrides the executable for the kubectl and oc backends.
	Binary string `yaml:"binary,omitempty"`

	// Kubeconfig is the kubeconfig path. Empty uses the tool default.
	Kubeconfig string `yaml:"kubeconfig,omitempty"`
}

// BinaryName returns the executable used by exec backends.
func (c ClusterConfig) BinaryName() string {
	if c.Binary != "" {
		return c.Binary
	}
	if c.Backend == BackendOC {
		return "oc"
	}
	return "kubectl"
}

// BackupConfig configures backups of live state.
type BackupConfig struct {
	// Dir is the directory under which backup directories are created.
	Dir string `yaml:"dir"`

	// S3 mirrors backups to object storage when set.
	S3 *S3Config `yaml:"s3,omitempty"`
}

// S3Config configures the object storage backup mirror.
type S3Config struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix,omitempty"`
	AccessKey string `yaml:"accessKey,omitempty"`
	SecretKey string `yaml:"secretKey,omitempty"`

	// UsePathStyle selects path-style addressing, needed by most
	// self-hosted services.
	UsePathStyle bool `yaml:"usePathStyle,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ResourceType: manifest.DefaultResourceType,
		Kind:         manifest.DefaultKind,
		MergedName:   naming.MergedPolicy(0),
		Cluster: ClusterConfig{
			Backend: BackendKubectl,
		},
		Backup: BackupConfig{
			Dir: ".",
		},
	}
}

// Validate checks the configuration and returns all problems found.
func (c *Config) Validate() error {
	var errs []error

	if c.ResourceType == "" {
		errs = append(errs, errors.New("resourceType is required"))
	}

	if c.MergedName == "" {
		errs = append(errs, errors.New("mergedName is required"))
	} else if msgs := validation.IsDNS1123Subdomain(c.MergedName); len(msgs) > 0 {
		errs = append(errs, fmt.Errorf("mergedName %q is invalid: %s", c.MergedName, strings.Join(msgs, "; ")))
	}

	if !c.Cluster.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("cluster.backend must be one of: %v", ValidBackends()))
	}

	if c.Backup.Dir == "" {
		errs = append(errs, errors.New("backup.dir is required"))
	}

	if s3 := c.Backup.S3; s3 != nil {
		if s3.Bucket == "" {
			errs = append(errs, errors.New("backup.s3.bucket is required"))
		}
		if s3.Region == "" {
			errs = append(errs, errors.New("backup.s3.region is required"))
		}
		if s3.AccessKey == "" {
			errs = append(errs, fmt.Errorf("%s environment variable required when backup.s3 is set", EnvS3AccessKey))
		}
		if s3.SecretKey == "" {
			errs = append(errs, fmt.Errorf("%s environment variable required when backup.s3 is set", EnvS3SecretKey))
		}
	}

	return errors.Join(errs...)
}
