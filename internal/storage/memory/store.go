package memory

import (
	"context"
	"slices"
	"sync"

	interfaces "github.com/sheikh-saqib/finance-records-ledger/internal/interfaces"
	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
)

// MemoryRecordStore is an in-memory implementation of interfaces.RecordStore.
// It keeps the last written record set and hands out copies.
type MemoryRecordStore struct {
	mu      sync.Mutex      // protects records and writes
	records []models.Record // last written record set
	writes  int             // number of Write calls, for tests
}

// NewMemoryRecordStore creates a store holding a copy of the given records.
func NewMemoryRecordStore(records ...models.Record) *MemoryRecordStore {
	return &MemoryRecordStore{
		records: slices.Clone(records),
	}
}

// Read returns a copy of the stored records.
func (m *MemoryRecordStore) Read(ctx context.Context) ([]models.Record, error) {
	m.mu.Lock()         // lock to prevent a concurrent Write while reading
	defer m.mu.Unlock() // unlock automatically at the end

	copied := make([]models.Record, len(m.records))
	copy(copied, m.records) // callers can't modify internal state
	return copied, nil
}

// Write replaces the stored records with a copy of records.
func (m *MemoryRecordStore) Write(ctx context.Context, records []models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = slices.Clone(records) // full overwrite, the caller keeps its slice
	m.writes++
	return nil // always succeeds in memory
}

// Writes returns how many times the record set was written.
func (m *MemoryRecordStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Compile-time check: ensure MemoryRecordStore implements RecordStore interface
var _ interfaces.RecordStore = (*MemoryRecordStore)(nil)
