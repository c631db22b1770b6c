package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/repositories"
	apperrors "github.com/zatekoja/Medicalqueryreview/pkg/errors"
)

// FileAdapter stores the latest snapshot as a JSON document on local disk
type FileAdapter struct {
	path string
}

// NewFileAdapter creates a file-backed snapshot store
func NewFileAdapter(path string) repositories.SnapshotRepository {
	return &FileAdapter{path: path}
}

// Save writes the snapshot to a temporary file and renames it over the previous one,
// so readers never observe a partial document.
func (a *FileAdapter) Save(ctx context.Context, snapshot *entities.Snapshot) error {
	if snapshot == nil {
		return apperrors.NewInternalError("snapshot is nil", fmt.Errorf("snapshot is nil"))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return apperrors.NewInternalError("failed to encode snapshot", err)
	}

	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewInternalError("failed to create snapshot directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(a.path)+".*.tmp")
	if err != nil {
		return apperrors.NewInternalError("failed to create temporary snapshot file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("failed to write snapshot", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("failed to sync snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewInternalError("failed to close snapshot file", err)
	}
	if err := os.Rename(tmpName, a.path); err != nil {
		return apperrors.NewInternalError("failed to replace snapshot", err)
	}
	return nil
}

// Load reads the stored snapshot. It returns nil when no snapshot has been written.
func (a *FileAdapter) Load(ctx context.Context) (*entities.Snapshot, error) {
	payload, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read snapshot", err)
	}
	return decode(payload)
}

// Ping checks that the snapshot directory is usable
func (a *FileAdapter) Ping(ctx context.Context) error {
	info, err := os.Stat(filepath.Dir(a.path))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(a.path))
	}
	return nil
}

func decode(payload []byte) (*entities.Snapshot, error) {
	var snapshot entities.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, apperrors.NewInternalError("failed to decode snapshot", err)
	}
	return &snapshot, nil
}
