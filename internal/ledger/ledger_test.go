package ledger

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
	"github.com/sheikh-saqib/finance-records-ledger/internal/models/events"
	"github.com/sheikh-saqib/finance-records-ledger/internal/storage/memory"
)

// failingStore reads fine but refuses every write.
type failingStore struct {
	records []models.Record
}

func (s *failingStore) Read(ctx context.Context) ([]models.Record, error) { return s.records, nil }
func (s *failingStore) Write(ctx context.Context, records []models.Record) error {
	return errors.New("disk full")
}

// brokenStore cannot be read.
type brokenStore struct{}

func (brokenStore) Read(ctx context.Context) ([]models.Record, error) {
	return nil, errors.New("permission denied")
}
func (brokenStore) Write(ctx context.Context, records []models.Record) error { return nil }

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	keys   []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event any) error {
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return p.err
}

func salary() models.Fields {
	return models.Fields{
		"Date":        "2024-05-05",
		"Category":    models.Income,
		"Amount":      500,
		"Description": "Salary",
	}
}

func newTestManager(t *testing.T, records ...models.Record) (*Manager, *memory.MemoryRecordStore) {
	t.Helper()
	store := memory.NewMemoryRecordStore(records...)
	m, err := NewManager(context.Background(), store)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, store
}

func TestNewManager_LoadsBalance(t *testing.T) {
	m, _ := newTestManager(t,
		models.Record{Date: "2024-05-02", Category: models.Cost, Amount: 1500, Description: "Products buying"},
		models.Record{Date: "2024-05-03", Category: models.Income, Amount: 30000, Description: "Salary"},
	)
	if got := m.ShowBalance(); got != 28500 {
		t.Errorf("ShowBalance() = %d, want 28500", got)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}

func TestNewManager_ReadError(t *testing.T) {
	_, err := NewManager(context.Background(), brokenStore{})
	if err == nil {
		t.Fatal("NewManager() error = nil, want error")
	}
}

func TestManager_AddValid(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	status, err := m.Add(ctx, salary())
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if status != http.StatusCreated {
		t.Errorf("Add() status = %d, want %d", status, http.StatusCreated)
	}
	if got := m.ShowBalance(); got != 500 {
		t.Errorf("ShowBalance() = %d, want 500", got)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if m.StatusCode() != http.StatusCreated || m.Err() != "" {
		t.Errorf("last status = %d %q, want 201 \"\"", m.StatusCode(), m.Err())
	}

	persisted, _ := store.Read(ctx)
	want := []models.Record{{Date: "2024-05-05", Category: models.Income, Amount: 500, Description: "Salary"}}
	if diff := cmp.Diff(want, persisted); diff != "" {
		t.Errorf("persisted records mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_AddAcceptsStringCategoryAndSizedInts(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	candidates := []models.Fields{
		{"Date": "2024-05-01", "Category": "Cost", "Amount": int64(1000), "Description": "Groceries"},
		{"Date": "2024-05-05", "Category": "TransactionType.INCOME", "Amount": uint16(2000), "Description": "Freelance work"},
	}
	for _, c := range candidates {
		if status, err := m.Add(ctx, c); err != nil || status != http.StatusCreated {
			t.Fatalf("Add(%v) = %d, %v", c, status, err)
		}
	}
	if got := m.ShowBalance(); got != 1000 {
		t.Errorf("ShowBalance() = %d, want 1000", got)
	}
}

func TestManager_AddRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(f models.Fields)
		wantMsg string
	}{
		{
			name:    "missing date",
			modify:  func(f models.Fields) { delete(f, "Date") },
			wantMsg: "Date is empty",
		},
		{
			name:    "date not a string",
			modify:  func(f models.Fields) { f["Date"] = 20240505 },
			wantMsg: "Date is not a string",
		},
		{
			name:    "empty category",
			modify:  func(f models.Fields) { f["Category"] = "" },
			wantMsg: "Category is empty",
		},
		{
			name:    "unknown category",
			modify:  func(f models.Fields) { f["Category"] = "Transfer" },
			wantMsg: "Category is not recognized",
		},
		{
			name:    "zero amount",
			modify:  func(f models.Fields) { f["Amount"] = 0 },
			wantMsg: "Amount is empty",
		},
		{
			name:    "float amount",
			modify:  func(f models.Fields) { f["Amount"] = 500.0 },
			wantMsg: "Amount is not int",
		},
		{
			name:    "string amount",
			modify:  func(f models.Fields) { f["Amount"] = "500" },
			wantMsg: "Amount is not int",
		},
		{
			name:    "empty description",
			modify:  func(f models.Fields) { f["Description"] = "" },
			wantMsg: "Description is empty",
		},
		{
			name:    "unknown field",
			modify:  func(f models.Fields) { f["Memo"] = "x" },
			wantMsg: `unknown field "Memo"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m, store := newTestManager(t, models.Record{Date: "2024-05-02", Category: models.Cost, Amount: 1500, Description: "Products buying"})

			candidate := salary()
			tt.modify(candidate)

			status, err := m.Add(ctx, candidate)
			if status != http.StatusBadRequest {
				t.Errorf("Add() status = %d, want %d", status, http.StatusBadRequest)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Add() error = %v, want *ValidationError", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Add() error = %q, want %q", err.Error(), tt.wantMsg)
			}
			if m.Err() != tt.wantMsg || m.StatusCode() != http.StatusBadRequest {
				t.Errorf("last status = %d %q", m.StatusCode(), m.Err())
			}
			if m.Len() != 1 {
				t.Errorf("Len() = %d, want 1", m.Len())
			}
			if got := m.ShowBalance(); got != -1500 {
				t.Errorf("ShowBalance() = %d, want -1500", got)
			}
			if store.Writes() != 0 {
				t.Errorf("store written %d times, want 0", store.Writes())
			}
		})
	}
}

func TestManager_AddReportsEveryViolation(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Add(context.Background(), models.Fields{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Add() error = %v, want *ValidationError", err)
	}
	want := []string{"Date is empty", "Category is empty", "Amount is empty", "Amount is not int", "Description is empty"}
	if diff := cmp.Diff(want, verr.Violations); diff != "" {
		t.Errorf("Violations mismatch (-want +got):\n%s", diff)
	}
	if err.Error() != "Date is empty" {
		t.Errorf("Error() = %q, want first violation", err.Error())
	}
}

func TestManager_UpdateByIndex(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	if _, err := m.Add(ctx, salary()); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	status, err := m.UpdateByIndex(ctx, 0, models.Fields{
		"Category":    models.Cost,
		"Amount":      50,
		"Description": "Groceries",
	})
	if err != nil {
		t.Fatalf("UpdateByIndex() error = %v", err)
	}
	if status != http.StatusOK {
		t.Errorf("UpdateByIndex() status = %d, want %d", status, http.StatusOK)
	}
	if got := m.ShowBalance(); got != -50 {
		t.Errorf("ShowBalance() = %d, want -50", got)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	want := []models.Record{{Date: "2024-05-05", Category: models.Cost, Amount: 50, Description: "Groceries"}}
	persisted, _ := store.Read(ctx)
	if diff := cmp.Diff(want, persisted); diff != "" {
		t.Errorf("persisted records mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_UpdateByIndexPartial(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, models.Record{Date: "2024-05-03", Category: models.Income, Amount: 30000, Description: "Salary"})

	if _, err := m.UpdateByIndex(ctx, 0, models.Fields{"Description": "May salary"}); err != nil {
		t.Fatalf("UpdateByIndex() error = %v", err)
	}
	want := models.Record{Date: "2024-05-03", Category: models.Income, Amount: 30000, Description: "May salary"}
	if diff := cmp.Diff(want, m.Records()[0]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if got := m.ShowBalance(); got != 30000 {
		t.Errorf("ShowBalance() = %d, want 30000", got)
	}
}

func TestManager_UpdateByIndexOutOfRange(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	if _, err := m.Add(ctx, salary()); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	for _, index := range []int{5, 1, -1} {
		status, err := m.UpdateByIndex(ctx, index, models.Fields{"Amount": 10})
		if status != http.StatusBadRequest {
			t.Errorf("UpdateByIndex(%d) status = %d, want %d", index, status, http.StatusBadRequest)
		}
		var rerr *RangeError
		if !errors.As(err, &rerr) {
			t.Fatalf("UpdateByIndex(%d) error = %v, want *RangeError", index, err)
		}
		if !strings.Contains(err.Error(), "0 to 0") {
			t.Errorf("UpdateByIndex(%d) error = %q, want the valid range", index, err.Error())
		}
	}
	if m.Len() != 1 || m.ShowBalance() != 500 {
		t.Errorf("ledger changed: len %d balance %d", m.Len(), m.ShowBalance())
	}
	if store.Writes() != 1 {
		t.Errorf("store written %d times, want 1", store.Writes())
	}
}

func TestManager_UpdateByIndexEmptyLedger(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.UpdateByIndex(context.Background(), 0, models.Fields{"Amount": 10})
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("UpdateByIndex() error = %v, want empty ledger range error", err)
	}
}

func TestManager_UpdateByIndexRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		fields  models.Fields
		wantMsg string
	}{
		{"float amount", models.Fields{"Amount": 12.5}, "Amount is not int"},
		{"string amount", models.Fields{"Amount": "12"}, "Amount is not int"},
		{"zero amount", models.Fields{"Amount": 0}, "Amount is empty"},
		{"empty category", models.Fields{"Category": ""}, "Category is empty"},
		{"unknown category", models.Fields{"Category": "Gift"}, "Category is not recognized"},
		{"empty description", models.Fields{"Description": ""}, "Description is empty"},
		{"date not a string", models.Fields{"Date": 5}, "Date is not a string"},
		{"unknown field", models.Fields{"Note": "x"}, `unknown field "Note"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			orig := models.Record{Date: "2024-05-03", Category: models.Income, Amount: 30000, Description: "Salary"}
			m, _ := newTestManager(t, orig)

			status, err := m.UpdateByIndex(ctx, 0, tt.fields)
			if status != http.StatusBadRequest {
				t.Errorf("UpdateByIndex() status = %d, want %d", status, http.StatusBadRequest)
			}
			if err == nil || err.Error() != tt.wantMsg {
				t.Errorf("UpdateByIndex() error = %v, want %q", err, tt.wantMsg)
			}
			if diff := cmp.Diff(orig, m.Records()[0]); diff != "" {
				t.Errorf("record changed (-want +got):\n%s", diff)
			}
			if got := m.ShowBalance(); got != 30000 {
				t.Errorf("ShowBalance() = %d, want 30000", got)
			}
		})
	}
}

func TestManager_UpdateByIndexAllowsEmptyDate(t *testing.T) {
	m, _ := newTestManager(t, models.Record{Date: "2024-05-03", Category: models.Income, Amount: 30000, Description: "Salary"})
	status, err := m.UpdateByIndex(context.Background(), 0, models.Fields{"Date": ""})
	if err != nil || status != http.StatusOK {
		t.Errorf("UpdateByIndex() = %d, %v, want 200", status, err)
	}
}

func TestManager_UpdateRecord(t *testing.T) {
	ctx := context.Background()
	groceries := models.Record{Date: "2024-05-01", Category: models.Cost, Amount: 1000, Description: "Groceries"}
	m, _ := newTestManager(t,
		models.Record{Date: "2024-05-03", Category: models.Income, Amount: 30000, Description: "Salary"},
		groceries,
	)

	status, err := m.UpdateRecord(ctx, groceries, models.Fields{"Amount": 1200})
	if err != nil || status != http.StatusOK {
		t.Fatalf("UpdateRecord() = %d, %v", status, err)
	}
	if got := m.Records()[1].Amount; got != 1200 {
		t.Errorf("updated amount = %d, want 1200", got)
	}
	if got := m.ShowBalance(); got != 28800 {
		t.Errorf("ShowBalance() = %d, want 28800", got)
	}

	status, err = m.UpdateRecord(ctx, groceries, models.Fields{"Amount": 1})
	if status != http.StatusNotFound {
		t.Errorf("UpdateRecord(absent) status = %d, want %d", status, http.StatusNotFound)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateRecord(absent) error = %v, want ErrNotFound", err)
	}
	if m.Err() != "record doesn't exist" {
		t.Errorf("Err() = %q", m.Err())
	}
}

func TestManager_PersistenceFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{records: []models.Record{{Date: "2024-05-03", Category: models.Income, Amount: 30000, Description: "Salary"}}}
	m, err := NewManager(ctx, store)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	status, err := m.Add(ctx, salary())
	if status != http.StatusInternalServerError {
		t.Errorf("Add() status = %d, want %d", status, http.StatusInternalServerError)
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("Add() error = %v, want *PersistenceError", err)
	}

	status, err = m.UpdateByIndex(ctx, 0, models.Fields{"Category": models.Cost})
	if status != http.StatusInternalServerError || !errors.As(err, &perr) {
		t.Errorf("UpdateByIndex() = %d, %v, want persistence failure", status, err)
	}

	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if m.Records()[0].Category != models.Income {
		t.Errorf("record category = %v, want Income", m.Records()[0].Category)
	}
	if got := m.ShowBalance(); got != 30000 {
		t.Errorf("ShowBalance() = %d, want 30000", got)
	}
}

func TestManager_BalanceConsistency(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	ops := []func() (int, error){
		func() (int, error) { return m.Add(ctx, salary()) },
		func() (int, error) {
			return m.Add(ctx, models.Fields{"Date": "2024-05-06", "Category": models.Cost, "Amount": 120, "Description": "Fuel"})
		},
		func() (int, error) { return m.UpdateByIndex(ctx, 1, models.Fields{"Amount": 80}) },
		func() (int, error) { return m.Add(ctx, models.Fields{"Date": "2024-05-07", "Category": models.Cost, "Amount": 3.5}) },
		func() (int, error) { return m.UpdateByIndex(ctx, 0, models.Fields{"Category": models.Cost}) },
		func() (int, error) { return m.UpdateByIndex(ctx, 9, models.Fields{"Amount": 1}) },
		func() (int, error) {
			return m.Add(ctx, models.Fields{"Date": "2024-05-08", "Category": models.Income, "Amount": 1000, "Description": "Bonus"})
		},
	}

	for i, op := range ops {
		op()

		persisted, _ := store.Read(ctx)
		var want int64
		for _, r := range persisted {
			switch r.Category {
			case models.Income:
				want += r.Amount
			case models.Cost:
				want -= r.Amount
			}
		}
		if m.balance != want {
			t.Errorf("after op %d: cached balance = %d, want %d", i, m.balance, want)
		}
		if got := m.ShowBalance(); got != want {
			t.Errorf("after op %d: ShowBalance() = %d, want %d", i, got, want)
		}
	}
	if got := m.ShowBalance(); got != 420 {
		t.Errorf("final ShowBalance() = %d, want 420", got)
	}
}

func TestManager_ShowBalanceResyncs(t *testing.T) {
	m, _ := newTestManager(t, models.Record{Date: "2024-05-03", Category: models.Income, Amount: 300, Description: "Salary"})
	m.balance = 12
	if got := m.ShowBalance(); got != 300 {
		t.Errorf("ShowBalance() = %d, want 300", got)
	}
	if m.balance != 300 {
		t.Errorf("cached balance = %d, want 300", m.balance)
	}
}

func TestManager_RejectsBalanceOverflow(t *testing.T) {
	ctx := context.Background()
	big := func(cat models.Category, amount int64) models.Fields {
		return models.Fields{"Date": "2024-05-05", "Category": cat, "Amount": amount, "Description": "Large"}
	}

	tests := []struct {
		name    string
		seed    []models.Record
		op      func(m *Manager) (int, error)
		wantMsg string
	}{
		{
			name: "add income past max",
			seed: []models.Record{{Date: "2024-05-01", Category: models.Income, Amount: math.MaxInt64, Description: "Large"}},
			op: func(m *Manager) (int, error) {
				return m.Add(ctx, big(models.Income, 1))
			},
			wantMsg: "balance would overflow",
		},
		{
			name: "add cost past min",
			seed: []models.Record{{Date: "2024-05-01", Category: models.Cost, Amount: math.MaxInt64, Description: "Large"}},
			op: func(m *Manager) (int, error) {
				return m.Add(ctx, big(models.Cost, 2))
			},
			wantMsg: "balance would overflow",
		},
		{
			name: "add min int amount",
			op: func(m *Manager) (int, error) {
				return m.Add(ctx, big(models.Cost, math.MinInt64))
			},
			wantMsg: "Amount is out of range",
		},
		{
			name: "update min int amount",
			seed: []models.Record{{Date: "2024-05-01", Category: models.Income, Amount: 5, Description: "Small"}},
			op: func(m *Manager) (int, error) {
				return m.UpdateByIndex(ctx, 0, models.Fields{"Amount": int64(math.MinInt64)})
			},
			wantMsg: "Amount is out of range",
		},
		{
			name: "update category past max",
			seed: []models.Record{
				{Date: "2024-05-01", Category: models.Income, Amount: math.MaxInt64, Description: "Large"},
				{Date: "2024-05-02", Category: models.Cost, Amount: 10, Description: "Small"},
			},
			op: func(m *Manager) (int, error) {
				return m.UpdateByIndex(ctx, 1, models.Fields{"Category": models.Income})
			},
			wantMsg: "balance would overflow",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store := newTestManager(t, tt.seed...)
			before := m.ShowBalance()

			status, err := tt.op(m)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantMsg)
			}
			if got := m.ShowBalance(); got != before {
				t.Errorf("ShowBalance() = %d, want unchanged %d", got, before)
			}
			if store.Writes() != 0 {
				t.Errorf("Writes() = %d, want 0", store.Writes())
			}
		})
	}
}

func TestManager_UpdateAcrossExtremes(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t,
		models.Record{Date: "2024-05-01", Category: models.Income, Amount: math.MaxInt64, Description: "Large"},
	)

	// The signed delta does not fit in an int64 but the resulting balance does.
	status, err := m.UpdateByIndex(ctx, 0, models.Fields{"Category": models.Cost})
	if err != nil || status != http.StatusOK {
		t.Fatalf("UpdateByIndex() = %d, %v, want 200", status, err)
	}
	if got := m.ShowBalance(); got != -math.MaxInt64 {
		t.Errorf("ShowBalance() = %d, want %d", got, int64(-math.MaxInt64))
	}
}

func TestNewManager_OverflowingRecords(t *testing.T) {
	store := memory.NewMemoryRecordStore(
		models.Record{Date: "2024-05-01", Category: models.Income, Amount: math.MaxInt64, Description: "Large"},
		models.Record{Date: "2024-05-02", Category: models.Income, Amount: math.MaxInt64, Description: "Large"},
	)
	if _, err := NewManager(context.Background(), store); err == nil {
		t.Error("NewManager() error = nil, want overflow error")
	}
}

func TestManager_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	m, err := NewManager(ctx, memory.NewMemoryRecordStore(), WithPublisher(pub))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	m.Add(ctx, salary())
	m.Add(ctx, models.Fields{"Date": ""}) // rejected, no event
	m.UpdateByIndex(ctx, 0, models.Fields{"Category": models.Cost, "Amount": 50})

	if diff := cmp.Diff([]string{events.TypeRecordAdded, events.TypeRecordUpdated}, pub.keys); diff != "" {
		t.Fatalf("published keys mismatch (-want +got):\n%s", diff)
	}
	updated, ok := pub.events[1].(events.RecordUpdated)
	if !ok {
		t.Fatalf("second event = %T, want events.RecordUpdated", pub.events[1])
	}
	if updated.Delta.IntPart() != -550 || updated.Balance.IntPart() != -50 {
		t.Errorf("RecordUpdated delta %v balance %v, want -550 -50", updated.Delta, updated.Balance)
	}
	if updated.EventID == "" {
		t.Error("RecordUpdated has no event id")
	}
}

func TestManager_PublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	m, _ := NewManager(ctx, memory.NewMemoryRecordStore(), WithPublisher(pub))

	status, err := m.Add(ctx, salary())
	if err != nil || status != http.StatusCreated {
		t.Errorf("Add() = %d, %v, want 201", status, err)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", &ValidationError{Violations: []string{"x"}}, http.StatusBadRequest},
		{"range", &RangeError{Index: 3, Len: 1}, http.StatusBadRequest},
		{"not found", &NotFoundError{}, http.StatusNotFound},
		{"persistence", &PersistenceError{Err: errors.New("io")}, http.StatusInternalServerError},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf() = %d, want %d", got, tt.want)
			}
		})
	}
}
