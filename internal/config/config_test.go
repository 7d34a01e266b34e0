package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, "imagecontentsourcepolicy", cfg.ResourceType)
	assert.Equal(t, "ImageContentSourcePolicy", cfg.Kind)
	assert.Equal(t, "merged-0", cfg.MergedName)
	assert.Equal(t, BackendKubectl, cfg.Cluster.Backend)
	assert.Equal(t, ".", cfg.Backup.Dir)
	assert.Nil(t, cfg.Backup.S3)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Setenv("KUBECONFIG", "/home/op/.kube/a:/home/op/.kube/b")
	t.Setenv(EnvS3AccessKey, "env-access")
	t.Setenv(EnvS3SecretKey, "")

	path := writeConfig(t, t.TempDir(), `
mergedName: mirrors-merged
cluster:
  backend: oc
backup:
  dir: /var/backups/icsp
  s3:
    endpoint: https://fsn1.your-objectstorage.com
    region: fsn1
    bucket: icsp-backups
    prefix: prod
    accessKey: file-access
    secretKey: file-secret
metricsTextfile: /var/lib/node_exporter/icspmerge.prom
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	// Unset fields keep their defaults.
	assert.Equal(t, "imagecontentsourcepolicy", cfg.ResourceType)
	assert.Equal(t, "ImageContentSourcePolicy", cfg.Kind)

	assert.Equal(t, "mirrors-merged", cfg.MergedName)
	assert.Equal(t, BackendOC, cfg.Cluster.Backend)
	assert.Equal(t, "oc", cfg.Cluster.BinaryName())
	assert.Empty(t, cfg.Cluster.Kubeconfig, "KUBECONFIG is not copied into the config")
	assert.Equal(t, "/var/backups/icsp", cfg.Backup.Dir)
	assert.Equal(t, "/var/lib/node_exporter/icspmerge.prom", cfg.MetricsTextfile)

	require.NotNil(t, cfg.Backup.S3)
	assert.Equal(t, "icsp-backups", cfg.Backup.S3.Bucket)
	assert.Equal(t, "prod", cfg.Backup.S3.Prefix)
	assert.Equal(t, "env-access", cfg.Backup.S3.AccessKey, "environment overrides file credentials")
	assert.Equal(t, "file-secret", cfg.Backup.S3.SecretKey, "empty environment keeps file value")
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_KubeconfigFromFile(t *testing.T) {
	t.Setenv("KUBECONFIG", "/env/kubeconfig")

	path := writeConfig(t, t.TempDir(), "cluster:\n  kubeconfig: /file/kubeconfig\n")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/file/kubeconfig", cfg.Cluster.Kubeconfig)
}

func TestApplyEnv_KubeconfigPathList(t *testing.T) {
	t.Setenv("KUBECONFIG", "/home/op/.kube/a:/home/op/.kube/b")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Empty(t, cfg.Cluster.Kubeconfig)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	path := writeConfig(t, t.TempDir(), "cluster: [unclosed\n")
	_, err = LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFindConfigFileFrom(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	want := writeConfig(t, root, "mergedName: x\n")

	got, err := findConfigFileFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	local := writeConfig(t, nested, "mergedName: y\n")
	got, err = findConfigFileFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, local, got, "closest file wins")
}

func TestFindConfigFileFrom_NotFound(t *testing.T) {
	t.Parallel()

	_, err := findConfigFileFrom(t.TempDir())
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{
			name:   "valid default",
			mutate: func(*Config) {},
		},
		{
			name:    "missing resource type",
			mutate:  func(c *Config) { c.ResourceType = "" },
			wantErr: []string{"resourceType is required"},
		},
		{
			name:    "invalid merged name",
			mutate:  func(c *Config) { c.MergedName = "Merged_0" },
			wantErr: []string{`mergedName "Merged_0" is invalid`},
		},
		{
			name:    "empty merged name",
			mutate:  func(c *Config) { c.MergedName = "" },
			wantErr: []string{"mergedName is required"},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Cluster.Backend = "helm" },
			wantErr: []string{"cluster.backend must be one of"},
		},
		{
			name:    "empty backup dir",
			mutate:  func(c *Config) { c.Backup.Dir = "" },
			wantErr: []string{"backup.dir is required"},
		},
		{
			name:   "incomplete s3",
			mutate: func(c *Config) { c.Backup.S3 = &S3Config{} },
			wantErr: []string{
				"backup.s3.bucket is required",
				"backup.s3.region is required",
				EnvS3AccessKey,
				EnvS3SecretKey,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestClusterConfig_BinaryName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "kubectl", ClusterConfig{Backend: BackendKubectl}.BinaryName())
	assert.Equal(t, "kubectl", ClusterConfig{Backend: BackendAPI}.BinaryName())
	assert.Equal(t, "oc", ClusterConfig{Backend: BackendOC}.BinaryName())
	assert.Equal(t, "/usr/local/bin/oc", ClusterConfig{Backend: BackendOC, Binary: "/usr/local/bin/oc"}.BinaryName())
}
