package ledger

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"

	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
)

const (
	msgDateEmpty           = "Date is empty"
	msgDateNotString       = "Date is not a string"
	msgCategoryEmpty       = "Category is empty"
	msgCategoryUnknown     = "Category is not recognized"
	msgAmountEmpty         = "Amount is empty"
	msgAmountNotInt        = "Amount is not int"
	msgAmountOutOfRange    = "Amount is out of range"
	msgBalanceOverflow     = "balance would overflow"
	msgDescriptionEmpty    = "Description is empty"
	msgDescriptionNotValid = "Description is not a string"
)

// validateNew checks a candidate for add. All rules run; violations are
// returned in rule order.
func validateNew(f models.Fields) (models.Record, []string) {
	var (
		rec        models.Record
		violations []string
	)

	switch date, ok := f[models.FieldDate].(string); {
	case !ok && isPresent(f[models.FieldDate]):
		violations = append(violations, msgDateNotString)
	case date == "":
		violations = append(violations, msgDateEmpty)
	default:
		rec.Date = date
	}

	cat, present, recognised := asCategory(f[models.FieldCategory])
	if !present {
		violations = append(violations, msgCategoryEmpty)
	} else if !recognised {
		violations = append(violations, msgCategoryUnknown)
	}
	rec.Category = cat

	if !isPresent(f[models.FieldAmount]) {
		violations = append(violations, msgAmountEmpty)
	}
	switch amount, ok := asInt(f[models.FieldAmount]); {
	case !ok:
		violations = append(violations, msgAmountNotInt)
	case amount == math.MinInt64:
		violations = append(violations, msgAmountOutOfRange)
	default:
		rec.Amount = amount
	}

	switch desc, ok := f[models.FieldDescription].(string); {
	case !ok && isPresent(f[models.FieldDescription]):
		violations = append(violations, msgDescriptionNotValid)
	case desc == "":
		violations = append(violations, msgDescriptionEmpty)
	default:
		rec.Description = desc
	}

	violations = append(violations, unknownFields(f)...)
	return rec, violations
}

// merge overlays the provided fields on a copy of old and re-validates the
// result. Date is only checked for its type.
func merge(old models.Record, f models.Fields) (models.Record, []string) {
	rec := old
	var violations []string

	if v, ok := f[models.FieldDate]; ok {
		if date, ok := v.(string); ok {
			rec.Date = date
		} else {
			violations = append(violations, msgDateNotString)
		}
	}

	if v, ok := f[models.FieldCategory]; ok {
		cat, _, _ := asCategory(v)
		rec.Category = cat
	}
	if rec.Category == "" {
		violations = append(violations, msgCategoryEmpty)
	} else if !rec.Category.Valid() {
		violations = append(violations, msgCategoryUnknown)
	}

	if v, ok := f[models.FieldAmount]; ok {
		amount, isInt := asInt(v)
		switch {
		case !isInt:
			violations = append(violations, msgAmountNotInt)
		case amount == 0:
			violations = append(violations, msgAmountEmpty)
		case amount == math.MinInt64:
			violations = append(violations, msgAmountOutOfRange)
		default:
			rec.Amount = amount
		}
	}

	if v, ok := f[models.FieldDescription]; ok {
		if desc, ok := v.(string); ok {
			rec.Description = desc
		} else {
			violations = append(violations, msgDescriptionNotValid)
		}
	}
	if rec.Description == "" {
		violations = append(violations, msgDescriptionEmpty)
	}

	violations = append(violations, unknownFields(f)...)
	return rec, violations
}

// isPresent reports whether v is set to something other than its type's zero value.
func isPresent(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.IsValid() && !rv.IsZero()
}

// asInt accepts Go integer kinds only; floats and strings are rejected even
// when they hold an integral value. Unsigned values above MaxInt64 are rejected.
func asInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	default:
		return 0, false
	}
}

// asCategory normalises a Category or a string spelling of one. An
// unrecognised value is returned as-is so that the merged record fails
// validation.
func asCategory(v any) (cat models.Category, present, recognised bool) {
	switch c := v.(type) {
	case models.Category:
		return c, c != "", c.Valid()
	case string:
		if c == "" {
			return "", false, false
		}
		parsed, err := models.ParseCategory(c)
		if err != nil {
			return models.Category(c), true, false
		}
		return parsed, true, true
	case nil:
		return "", false, false
	default:
		return models.Category(fmt.Sprint(c)), isPresent(c), false
	}
}

func unknownFields(f models.Fields) []string {
	var violations []string
	for _, k := range slices.Sorted(maps.Keys(f)) {
		if !slices.Contains(models.Columns, k) {
			violations = append(violations, fmt.Sprintf("unknown field %q", k))
		}
	}
	return violations
}
