package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	interfaces "github.com/sheikh-saqib/finance-records-ledger/internal/interfaces"
	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
	"github.com/sheikh-saqib/finance-records-ledger/internal/storage/tabular"
)

// GCSRecordStore keeps the ledger as a CSV object in a Google Cloud Storage bucket.
// It assumes Application Default Credentials unless client options say otherwise.
type GCSRecordStore struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSRecordStore creates a store for gs://bucket/object.
func NewGCSRecordStore(ctx context.Context, bucket, object string, opts ...option.ClientOption) (*GCSRecordStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSRecordStore{client: client, bucket: bucket, object: object}, nil
}

// ParseURI splits "gs://bucket/path/to/object.csv" into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// Read downloads and decodes the object. A missing object is an empty ledger.
func (s *GCSRecordStore) Read(ctx context.Context) ([]models.Record, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader gs://%s/%s: %w", s.bucket, s.object, err)
	}
	defer r.Close()

	records, err := tabular.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode GCS object gs://%s/%s: %w", s.bucket, s.object, err)
	}
	return records, nil
}

// Write uploads records, replacing the object.
func (s *GCSRecordStore) Write(ctx context.Context, records []models.Record) error {
	// Cancelling the context aborts the upload and keeps the previous object.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	w.ContentType = "text/csv"

	if err := tabular.Encode(w, records); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("encode GCS object gs://%s/%s: %w", s.bucket, s.object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload gs://%s/%s: %w", s.bucket, s.object, err)
	}
	return nil
}

// Close releases the storage client.
func (s *GCSRecordStore) Close() error {
	return s.client.Close()
}

var _ interfaces.RecordStore = (*GCSRecordStore)(nil)
