package ledger

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	interfaces "github.com/sheikh-saqib/finance-records-ledger/internal/interfaces"
	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
	"github.com/sheikh-saqib/finance-records-ledger/internal/models/events"
)

// Manager owns the ordered records of a ledger and their balance.
// It holds a reference to the storage layer and rewrites the whole record set
// after every successful mutation.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	store     interfaces.RecordStore     // any storage implementation: file, gcs, postgres, memory
	publisher interfaces.EventPublisher // optional, nil disables events
	log       zerolog.Logger
	now       func() time.Time

	records    []models.Record
	balance    int64 // cached sum of signed amounts
	errMsg     string
	statusCode int
}

// Option configures a Manager.
type Option func(*Manager)

// WithPublisher publishes an event after each successful mutation.
func WithPublisher(p interfaces.EventPublisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithLogger sets the logger used by the Manager.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// NewManager loads the records from store and returns a Manager over them.
func NewManager(ctx context.Context, store interfaces.RecordStore, opts ...Option) (*Manager, error) {
	m := &Manager{
		store: store,
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	records, err := store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	balance, ok := sumSigned(records)
	if !ok {
		return nil, fmt.Errorf("load records: %s", msgBalanceOverflow)
	}
	m.records = records
	m.balance = balance

	m.log.Debug().Int("records", len(records)).Int64("balance", m.balance).Msg("ledger loaded")
	return m, nil
}

// Add validates candidate and appends it as a new record.
// It returns http.StatusCreated on success. On failure the ledger is unchanged
// and the error is a *ValidationError or a *PersistenceError.
func (m *Manager) Add(ctx context.Context, candidate models.Fields) (int, error) {
	// Validate the candidate, every rule runs
	rec, violations := validateNew(candidate)
	if len(violations) > 0 {
		return m.fail(&ValidationError{Violations: violations})
	}

	// Build the next record set and make sure its balance still fits
	next := append(slices.Clone(m.records), rec)
	balance, ok := sumSigned(next)
	if !ok {
		return m.fail(&ValidationError{Violations: []string{msgBalanceOverflow}})
	}

	// Persist before touching the in-memory state
	if err := m.persist(ctx, next); err != nil {
		return m.fail(err)
	}

	// Commit
	m.records = next
	m.balance = balance

	m.log.Debug().Int("index", len(next)-1).Str("category", rec.Category.String()).Int64("amount", rec.Amount).Msg("record added")

	// Publish record added event
	m.publish(ctx, events.TypeRecordAdded, events.RecordAdded{
		EventID:     uuid.NewString(),
		Type:        events.TypeRecordAdded,
		Index:       len(next) - 1,
		Date:        rec.Date,
		Category:    rec.Category.String(),
		Amount:      decimal.NewFromInt(rec.Amount),
		Description: rec.Description,
		Balance:     decimal.NewFromInt(m.balance),
		OccurredAt:  m.now(),
	})
	return m.succeed(http.StatusCreated)
}

// UpdateByIndex overlays fields on the record at index and replaces it.
// Fields not given keep their current value. It returns http.StatusOK on
// success; a *RangeError, *ValidationError or *PersistenceError otherwise.
func (m *Manager) UpdateByIndex(ctx context.Context, index int, fields models.Fields) (int, error) {
	if index < 0 || index >= len(m.records) {
		return m.fail(&RangeError{Index: index, Len: len(m.records)})
	}

	// Overlay the fields on the current record and validate the result
	old := m.records[index]
	rec, violations := merge(old, fields)
	if len(violations) > 0 {
		return m.fail(&ValidationError{Violations: violations})
	}

	// Build the next record set and make sure its balance still fits
	next := slices.Clone(m.records)
	next[index] = rec
	balance, ok := sumSigned(next)
	if !ok {
		return m.fail(&ValidationError{Violations: []string{msgBalanceOverflow}})
	}

	// Persist before touching the in-memory state
	if err := m.persist(ctx, next); err != nil {
		return m.fail(err)
	}

	// Commit
	delta := decimal.NewFromInt(balance).Sub(decimal.NewFromInt(m.balance))
	m.records = next
	m.balance = balance

	m.log.Debug().Int("index", index).Str("delta", delta.String()).Msg("record updated")

	// Publish record updated event
	m.publish(ctx, events.TypeRecordUpdated, events.RecordUpdated{
		EventID:     uuid.NewString(),
		Type:        events.TypeRecordUpdated,
		Index:       index,
		Date:        rec.Date,
		Category:    rec.Category.String(),
		Amount:      decimal.NewFromInt(rec.Amount),
		Description: rec.Description,
		Delta:       delta,
		Balance:     decimal.NewFromInt(m.balance),
		OccurredAt:  m.now(),
	})
	return m.succeed(http.StatusOK)
}

// UpdateRecord updates the first record equal to target. It returns a
// *NotFoundError when there is none. Duplicated records cannot be told apart,
// prefer UpdateByIndex.
func (m *Manager) UpdateRecord(ctx context.Context, target models.Record, fields models.Fields) (int, error) {
	index := slices.Index(m.records, target)
	if index < 0 {
		return m.fail(&NotFoundError{})
	}
	return m.UpdateByIndex(ctx, index, fields)
}

// ShowBalance recomputes the balance from the records and returns it.
func (m *Manager) ShowBalance() int64 {
	balance, ok := sumSigned(m.records)
	if !ok {
		// Mutations never commit a record set whose balance overflows.
		m.log.Error().Int64("cached", m.balance).Msg("balance overflows int64, keeping cached value")
		return m.balance
	}
	if balance != m.balance {
		m.log.Warn().Int64("cached", m.balance).Int64("computed", balance).Msg("balance drifted from records, resynced")
		m.balance = balance
	}
	return balance
}

// Records returns a copy of the records in index order.
func (m *Manager) Records() []models.Record {
	return slices.Clone(m.records)
}

// Len returns the number of records.
func (m *Manager) Len() int { return len(m.records) }

// StatusCode returns the status of the last Add or Update call.
func (m *Manager) StatusCode() int { return m.statusCode }

// Err returns the error message of the last failed Add or Update call, or ""
// if the last call succeeded.
func (m *Manager) Err() string { return m.errMsg }

func (m *Manager) persist(ctx context.Context, records []models.Record) error {
	if err := m.store.Write(ctx, records); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

func (m *Manager) publish(ctx context.Context, key string, event any) {
	if m.publisher == nil {
		return
	}
	// The records are already persisted, a lost event is only logged.
	if err := m.publisher.Publish(ctx, key, event); err != nil {
		m.log.Warn().Err(err).Str("event", key).Msg("publish failed")
	}
}

func (m *Manager) fail(err error) (int, error) {
	m.statusCode = StatusOf(err)
	m.errMsg = err.Error()
	m.log.Debug().Err(err).Int("status", m.statusCode).Msg("ledger operation rejected")
	return m.statusCode, err
}

func (m *Manager) succeed(status int) (int, error) {
	m.statusCode = status
	m.errMsg = ""
	return status, nil
}

var (
	minBalance = decimal.NewFromInt(math.MinInt64)
	maxBalance = decimal.NewFromInt(math.MaxInt64)
)

// sumSigned totals income minus cost exactly and reports whether the total
// fits in an int64.
func sumSigned(records []models.Record) (int64, bool) {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(decimal.NewFromInt(r.Amount).Mul(decimal.NewFromInt(r.Category.Sign())))
	}
	if total.LessThan(minBalance) || total.GreaterThan(maxBalance) {
		return 0, false
	}
	return total.IntPart(), true
}
