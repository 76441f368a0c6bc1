package interfaces

import (
	"context"

	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
)

// RecordStore persists the whole ordered record set.
// Read on a missing source returns an empty set and no error.
// Write overwrites any prior content.
type RecordStore interface {
	Read(ctx context.Context) ([]models.Record, error)
	Write(ctx context.Context, records []models.Record) error
}
