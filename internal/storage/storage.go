// Package storage selects a record store from a store identifier.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	interfaces "github.com/sheikh-saqib/finance-records-ledger/internal/interfaces"
	"github.com/sheikh-saqib/finance-records-ledger/internal/storage/file"
	"github.com/sheikh-saqib/finance-records-ledger/internal/storage/gcs"
	"github.com/sheikh-saqib/finance-records-ledger/internal/storage/memory"
	"github.com/sheikh-saqib/finance-records-ledger/internal/storage/postgres"
)

// MemoryTarget selects a store that lives as long as the process.
const MemoryTarget = "memory:"

// Open returns the store described by target:
//
//	memory:                        in-memory store
//	gs://bucket/object.csv         CSV object in Google Cloud Storage
//	postgres://... postgresql://.. "records" table in PostgreSQL
//	anything else                  path of a CSV file
func Open(ctx context.Context, target string) (interfaces.RecordStore, error) {
	switch {
	case target == "":
		return nil, fmt.Errorf("empty store identifier")
	case target == MemoryTarget:
		return memory.NewMemoryRecordStore(), nil
	case strings.HasPrefix(target, "gs://"):
		bucket, object, err := gcs.ParseURI(target)
		if err != nil {
			return nil, err
		}
		return gcs.NewGCSRecordStore(ctx, bucket, object)
	case strings.HasPrefix(target, "postgres://"), strings.HasPrefix(target, "postgresql://"):
		return postgres.Open(ctx, target)
	default:
		return file.NewFileRecordStore(target), nil
	}
}

// Close releases the resources held by store, if any.
func Close(store interfaces.RecordStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
