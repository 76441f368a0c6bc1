package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types, also used as the kafka message key prefix.
const (
	TypeRecordAdded   = "record_added"
	TypeRecordUpdated = "record_updated"
)

// RecordAdded is published once a new record has been persisted.
type RecordAdded struct {
	EventID     string          `json:"event_id"`
	Type        string          `json:"type"`
	Index       int             `json:"index"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Balance     decimal.Decimal `json:"balance"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// RecordUpdated is published once a record has been replaced at Index.
type RecordUpdated struct {
	EventID     string          `json:"event_id"`
	Type        string          `json:"type"`
	Index       int             `json:"index"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Delta       decimal.Decimal `json:"delta"` // change of the balance
	Balance     decimal.Decimal `json:"balance"`
	OccurredAt  time.Time       `json:"occurred_at"`
}
