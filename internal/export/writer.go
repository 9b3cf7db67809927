package export

import (
	"bytes"
	"path/filepath"
	"time"

	"github.com/chrissnell/tidalvariance/internal/tide"
	"go.uber.org/zap"
)

// Writer encodes datasets and writes them, rotating existing files first
type Writer struct {
	fs      FileSystem
	rotator *Rotator
	logger  *zap.SugaredLogger
}

// NewWriter creates a writer on fsys. now defaults to time.Now.
func NewWriter(fsys FileSystem, now func() time.Time, logger *zap.SugaredLogger) *Writer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Writer{
		fs:      fsys,
		rotator: NewRotator(fsys, now, logger),
		logger:  logger,
	}
}

// Write encodes d in format f and stores it at path. The dataset is encoded
// before anything on disk changes, so an encoding failure leaves the
// existing file in place. It returns the backup path if a file was rotated.
func (w *Writer) Write(path string, f Format, d Dataset) (string, error) {
	enc, err := EncoderFor(f)
	if err != nil {
		return "", &tide.ExportError{Op: "encode", Path: path, Err: err}
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, d); err != nil {
		return "", &tide.ExportError{Op: "encode", Path: path, Err: err}
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return "", &tide.ExportError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	backup, err := w.rotator.Rotate(path)
	if err != nil {
		return "", err
	}

	out, err := w.fs.Create(path)
	if err != nil {
		return backup, &tide.ExportError{Op: "create", Path: path, Err: err}
	}
	if _, err := buf.WriteTo(out); err != nil {
		out.Close()
		return backup, &tide.ExportError{Op: "write", Path: path, Err: err}
	}
	if err := out.Close(); err != nil {
		return backup, &tide.ExportError{Op: "close", Path: path, Err: err}
	}

	w.logger.Infof("data exported to %s", path)
	return backup, nil
}
