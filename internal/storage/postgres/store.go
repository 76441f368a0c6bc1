package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	interfaces "github.com/sheikh-saqib/finance-records-ledger/internal/interfaces" // interface RecordStore
	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
)

const createTable = `CREATE TABLE IF NOT EXISTS records (
	position    INTEGER PRIMARY KEY,
	date        TEXT    NOT NULL,
	category    TEXT    NOT NULL,
	amount      BIGINT  NOT NULL,
	description TEXT    NOT NULL
)`

// undefined_table, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const codeUndefinedTable = "42P01"

// PostgresRecordStore keeps the ledger in a "records" table, one row per
// record, ordered by position.
type PostgresRecordStore struct {
	db *sql.DB
}

func NewPostgresRecordStore(db *sql.DB) *PostgresRecordStore {
	return &PostgresRecordStore{
		db: db,
	}
}

// Open connects to the database described by dsn.
func Open(ctx context.Context, dsn string) (*PostgresRecordStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresRecordStore(db), nil
}

// Read returns the records in position order. A missing table is an empty ledger.
func (p *PostgresRecordStore) Read(ctx context.Context) ([]models.Record, error) {
	const query = `SELECT date, category, amount, description FROM records ORDER BY position`

	rows, err := p.db.QueryContext(ctx, query)
	if isUndefinedTable(err) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		var (
			rec      models.Record
			category string
		)
		if err := rows.Scan(&rec.Date, &category, &rec.Amount, &rec.Description); err != nil {
			return nil, err
		}
		if rec.Category, err = models.ParseCategory(category); err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Write replaces the table content with records in a single transaction.
func (p *PostgresRecordStore) Write(ctx context.Context, records []models.Record) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if _, err = dbTx.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create records table: %w", err)
	}
	if _, err = dbTx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := dbTx.PrepareContext(ctx, pq.CopyIn("records", "position", "date", "category", "amount", "description"))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}
	for i, r := range records {
		if _, err = stmt.ExecContext(ctx, i, r.Date, r.Category.String(), r.Amount, r.Description); err != nil {
			stmt.Close()
			return fmt.Errorf("copy record %d: %w", i, err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return err
	}

	return dbTx.Commit()
}

// Close closes the underlying database.
func (p *PostgresRecordStore) Close() error {
	return p.db.Close()
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUndefinedTable
}

var _ interfaces.RecordStore = (*PostgresRecordStore)(nil)
