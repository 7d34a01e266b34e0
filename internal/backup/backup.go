package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/icspmerge/internal/manifest"
	"github.com/imamik/icspmerge/internal/util/naming"
)

// ErrBackupWriteFailed is returned when any file of a backup could not be
// written or uploaded.
var ErrBackupWriteFailed = errors.New("backup write failed")

// Uploader copies a backup file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte) error
}

// Set describes a completed backup.
type Set struct {
	// Dir is the backup directory.
	Dir string
	// Files lists the written files in write order.
	Files []string
	// Objects lists the uploaded object keys, if an uploader is configured.
	Objects []string
}

// Manager writes backups under a root directory.
type Manager struct {
	root     string
	prefix   string
	uploader Uploader
	now      func() time.Time
	log      logr.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithUploader mirrors every backup file to remote storage under prefix.
func WithUploader(u Uploader, prefix string) Option {
	return func(m *Manager) {
		m.uploader = u
		m.prefix = prefix
	}
}

// WithClock overrides the time source used for directory names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a Manager writing under root ("." if empty).
func NewManager(root string, opts ...Option) *Manager {
	if root == "" {
		root = "."
	}
	m := &Manager{
		root: root,
		now:  time.Now,
		log:  logr.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Backup writes each named document verbatim to its own file. Documents
// without metadata.name are skipped with a warning. The first write or
// upload error aborts the backup with ErrBackupWriteFailed.
func (m *Manager) Backup(ctx context.Context, resourceType string, docs []manifest.Document) (*Set, error) {
	dirName := naming.BackupDir(m.now())
	set := &Set{Dir: filepath.Join(m.root, dirName)}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackupWriteFailed, err)
		}

		name := doc.Name()
		if name == "" {
			m.log.Info("Warning: skipping backup of document without metadata.name", "origin", doc.Origin.String(), "index", doc.Index)
			continue
		}

		data, err := doc.Bytes()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBackupWriteFailed, name, err)
		}

		// The directory is created on the first write only.
		if len(set.Files) == 0 {
			if err := os.MkdirAll(set.Dir, 0o750); err != nil {
				return nil, fmt.Errorf("%w: failed to create backup directory: %v", ErrBackupWriteFailed, err)
			}
		}

		file := naming.BackupFile(resourceType, name)
		path := filepath.Join(set.Dir, file)
		if err := writeOnce(path, data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackupWriteFailed, err)
		}
		set.Files = append(set.Files, path)
		m.log.V(1).Info("backed up resource", "name", name, "path", path)

		if m.uploader != nil {
			key := naming.BackupObjectKey(m.prefix, dirName, file)
			if err := m.uploader.Upload(ctx, key, data); err != nil {
				return nil, fmt.Errorf("%w: failed to upload %s: %v", ErrBackupWriteFailed, key, err)
			}
			set.Objects = append(set.Objects, key)
		}
	}

	if len(set.Files) == 0 {
		m.log.Info("no live resources to back up", "resourceType", resourceType)
		return set, nil
	}
	m.log.Info("backup complete", "dir", set.Dir, "files", len(set.Files))
	return set, nil
}

// writeOnce creates path exclusively so an existing backup is never
// overwritten.
func writeOnce(path string, data []byte) error {
	// #nosec G304 - path is built from the backup root and sanitized names
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
