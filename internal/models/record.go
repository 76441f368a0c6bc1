package models

import (
	"fmt"
	"strings"
)

// Category tells whether a record adds to or subtracts from the balance.
type Category string

const (
	Income Category = "Income"
	Cost   Category = "Cost"
)

// Field names of a record. They double as the column names of the tabular store.
const (
	FieldDate        = "Date"
	FieldCategory    = "Category"
	FieldAmount      = "Amount"
	FieldDescription = "Description"
)

// Columns is the fixed column set of a persisted ledger, in write order.
var Columns = []string{FieldDate, FieldCategory, FieldAmount, FieldDescription}

func (c Category) String() string { return string(c) }

// Valid reports whether c is one of the recognised categories.
func (c Category) Valid() bool {
	return c == Income || c == Cost
}

// Sign is +1 for Income, -1 for Cost and 0 otherwise.
func (c Category) Sign() int64 {
	switch c {
	case Income:
		return 1
	case Cost:
		return -1
	default:
		return 0
	}
}

// ParseCategory parses the canonical spelling ("Income", "Cost") and the
// legacy enum spelling ("TransactionType.INCOME"), case-insensitively.
func ParseCategory(s string) (Category, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "transactiontype.")
	switch v {
	case "income":
		return Income, nil
	case "cost":
		return Cost, nil
	default:
		return "", fmt.Errorf("unknown category: %q", s)
	}
}

// Record is a single income or cost entry of the ledger.
type Record struct {
	Date        string   `json:"Date"`
	Category    Category `json:"Category"`
	Amount      int64    `json:"Amount"`
	Description string   `json:"Description"`
}

// Fields is a dynamically typed, possibly partial, record. It is the input of
// add, update and search so that type rules on Amount stay checkable.
type Fields map[string]any
