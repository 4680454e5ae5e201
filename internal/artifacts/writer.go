package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/chxlky/trello-adpiler-sync/internal/models"
)

// Mirror receives a copy of every file written, keyed by slash path.
type Mirror interface {
	Put(ctx context.Context, key string, data []byte) error
}

type Writer struct {
	Fs afero.Fs
	// Root is the directory holding one folder per client.
	Root   string
	Mirror Mirror
}

func NewWriter(fs afero.Fs, root string, mirror Mirror) *Writer {
	return &Writer{Fs: fs, Root: root, Mirror: mirror}
}

// WriteCard writes <Root>/<client>/<card id>.json, replacing any earlier file,
// and returns its path.
func (w *Writer) WriteCard(ctx context.Context, client string, artifact models.CardArtifact) (string, error) {
	data, err := encode(artifact)
	if err != nil {
		return "", err
	}

	folder := filepath.Join(w.Root, client)
	if err := w.Fs.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create client folder %s: %w", folder, err)
	}
	file := filepath.Join(folder, artifact.ID+".json")
	if err := afero.WriteFile(w.Fs, file, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", file, err)
	}

	mirror(ctx, w.Mirror, path.Join("clients", client, artifact.ID+".json"), data)
	return file, nil
}

func encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return data, nil
}

func mirror(ctx context.Context, m Mirror, key string, data []byte) {
	if m == nil {
		return
	}
	if err := m.Put(ctx, key, data); err != nil {
		zap.L().Warn("Failed to mirror artifact", zap.String("key", key), zap.Error(err))
	}
}
