// Package naming provides consistent names for merged policies and backup
// artifacts.
//
// Merged policies are named merged-{run} and backups are laid out as
// backup-{timestamp}/{resourceType}-{name}.yaml, one resource per file.
package naming
