package naming

import (
	"fmt"
	"strings"
	"time"
)

// Naming functions for generated policies and backup artifacts.
// Backup paths are derived from the resource type and name so a restore can
// be done with a plain `kubectl apply -f` on the directory.

// BackupTimeLayout is the timestamp layout used in backup directory names.
const BackupTimeLayout = "20060102-150405"

// GeneratedPolicy is the name of a policy built from an image mapping file.
const GeneratedPolicy = "offline-repo-mirror"

// MergedPolicy returns the name of the canonical merged policy for a run.
func MergedPolicy(runIndex int) string {
	return fmt.Sprintf("merged-%d", runIndex)
}

// BackupDir returns the directory name for a backup taken at t.
func BackupDir(t time.Time) string {
	return fmt.Sprintf("backup-%s", t.Format(BackupTimeLayout))
}

// BackupFile returns the file name holding one backed up resource.
func BackupFile(resourceType, name string) string {
	return fmt.Sprintf("%s-%s.yaml", pathSafe(resourceType), pathSafe(name))
}

// BackupObjectKey returns the object storage key for a backup file.
func BackupObjectKey(prefix, dir, file string) string {
	parts := make([]string, 0, 3)
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, dir, file)
	return strings.Join(parts, "/")
}

// TempManifest returns the pattern for temporary manifest files handed to
// the cluster tool.
func TempManifest(resourceType string) string {
	return fmt.Sprintf("%s-*.yaml", pathSafe(resourceType))
}

func pathSafe(s string) string {
	return strings.ReplaceAll(s, "/", "_")
}
