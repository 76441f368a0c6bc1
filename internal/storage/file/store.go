package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	interfaces "github.com/sheikh-saqib/finance-records-ledger/internal/interfaces"
	"github.com/sheikh-saqib/finance-records-ledger/internal/logger"
	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
	"github.com/sheikh-saqib/finance-records-ledger/internal/storage/tabular"
)

// defaultMode is used for a ledger file that does not exist yet.
const defaultMode fs.FileMode = 0644

// FileRecordStore keeps the ledger in a single CSV file.
type FileRecordStore struct {
	path string
}

func NewFileRecordStore(path string) *FileRecordStore {
	return &FileRecordStore{path: path}
}

// Read decodes the file. A missing file is an empty ledger.
func (s *FileRecordStore) Read(ctx context.Context) ([]models.Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger file %q: %w", s.path, err)
	}
	defer f.Close()

	records, err := tabular.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode ledger file %q: %w", s.path, err)
	}
	return records, nil
}

// Write replaces the file content with records. The table is written to a
// temporary file in the same directory and renamed over the old one, keeping
// the permissions of the old file.
func (s *FileRecordStore) Write(ctx context.Context, records []models.Record) error {
	mode := defaultMode
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory for ledger %q: %w", s.path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary ledger file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := tabular.Encode(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("encode ledger file %q: %w", s.path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("set mode of temporary ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary ledger file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace ledger file %q: %w", s.path, err)
	}

	log := logger.FromContext(ctx)
	log.Debug().Str("path", s.path).Int("records", len(records)).Msg("ledger file written")
	return nil
}

var _ interfaces.RecordStore = (*FileRecordStore)(nil)
