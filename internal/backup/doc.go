// Package backup snapshots live resources to disk before they are replaced.
//
// Every run writes into a fresh backup-{timestamp} directory, one file per
// resource. Files are created exclusively and never rewritten. A backup
// either completes or fails as a whole; callers must not mutate the
// cluster after a failed backup.
package backup
