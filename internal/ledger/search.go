package ledger

import (
	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
)

// Search returns the records matching every criterion exactly, in index order.
// Amount criteria must be integers, Category criteria may be a Category or any
// spelling accepted by models.ParseCategory. An unknown field matches nothing.
func (m *Manager) Search(criteria models.Fields) []models.Record {
	result := make([]models.Record, 0)
	for _, r := range m.records {
		if matches(r, criteria) {
			result = append(result, r)
		}
	}
	return result
}

func matches(r models.Record, criteria models.Fields) bool {
	for key, want := range criteria {
		switch key {
		case models.FieldDate:
			if s, ok := want.(string); !ok || s != r.Date {
				return false
			}
		case models.FieldCategory:
			cat, _, ok := asCategory(want)
			if !ok || cat != r.Category {
				return false
			}
		case models.FieldAmount:
			amount, ok := asInt(want)
			if !ok || amount != r.Amount {
				return false
			}
		case models.FieldDescription:
			if s, ok := want.(string); !ok || s != r.Description {
				return false
			}
		default:
			return false
		}
	}
	return true
}
