package export

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/chrissnell/tidalvariance/internal/tide"
	"go.uber.org/zap"
)

const backupTimeLayout = "20060102_150405"

// maxBackupAttempts caps the suffix search when backups share a timestamp
const maxBackupAttempts = 1000

// Rotator moves an existing output file aside before it is replaced
type Rotator struct {
	fs     FileSystem
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewRotator creates a rotator. now defaults to time.Now.
func NewRotator(fsys FileSystem, now func() time.Time, logger *zap.SugaredLogger) *Rotator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Rotator{fs: fsys, now: now, logger: logger}
}

// BackupPath returns the backup name for path at time t:
// <dir>/<stem>.bak_<YYYYmmdd_HHMMSS>_<microseconds><ext>
func BackupPath(path string, t time.Time) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf("%s.bak_%s_%06d%s", stem, t.Format(backupTimeLayout), t.Nanosecond()/1000, ext))
}

// Rotate renames the file at path to a fresh backup name. It returns the
// backup path, or "" when there was nothing to rotate.
func (r *Rotator) Rotate(path string) (string, error) {
	exists, err := r.exists(path)
	if err != nil {
		return "", &tide.ExportError{Op: "stat", Path: path, Err: err}
	}
	if !exists {
		return "", nil
	}

	backup, err := r.freeBackupPath(path)
	if err != nil {
		return "", err
	}

	r.logger.Warnf("%s already exists, renaming existing file to %s", path, backup)
	if err := r.fs.Rename(path, backup); err != nil {
		return "", &tide.ExportError{Op: "rotate", Path: path, Err: err}
	}
	return backup, nil
}

func (r *Rotator) freeBackupPath(path string) (string, error) {
	base := BackupPath(path, r.now())
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := base
	for i := 1; i <= maxBackupAttempts; i++ {
		exists, err := r.exists(candidate)
		if err != nil {
			return "", &tide.ExportError{Op: "stat", Path: candidate, Err: err}
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	return "", &tide.ExportError{Op: "rotate", Path: path, Err: fmt.Errorf("no free backup name after %d attempts", maxBackupAttempts)}
}

func (r *Rotator) exists(path string) (bool, error) {
	_, err := r.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
