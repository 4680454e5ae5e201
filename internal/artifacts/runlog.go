package artifacts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/chxlky/trello-adpiler-sync/internal/models"
)

// RunLogKey is the object key the run log is mirrored under, whatever the
// local file is called.
const RunLogKey = "upload-log.json"

// LogWriter replaces the upload run log in one write at the end of a run.
type LogWriter struct {
	Fs     afero.Fs
	Path   string
	Mirror Mirror
}

func NewLogWriter(fs afero.Fs, path string, mirror Mirror) *LogWriter {
	return &LogWriter{Fs: fs, Path: path, Mirror: mirror}
}

func (l *LogWriter) Write(ctx context.Context, entries []models.UploadLogEntry) error {
	if entries == nil {
		entries = []models.UploadLogEntry{}
	}
	data, err := encode(entries)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(l.Path); dir != "." {
		if err := l.Fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log folder %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(l.Fs, l.Path, data, 0o644); err != nil {
		return fmt.Errorf("write upload log %s: %w", l.Path, err)
	}

	mirror(ctx, l.Mirror, RunLogKey, data)
	return nil
}
