// Package tabular encodes a ledger as a CSV table with the columns
// Date, Category, Amount and Description.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
)

// Decode reads a table with a header row. Columns are matched by name and
// unknown columns are ignored. An empty input decodes to an empty table.
func Decode(r io.Reader) ([]models.Record, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		pos[name] = i
	}
	for _, col := range models.Columns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("missing column %q in header %v", col, header)
		}
	}

	records := make([]models.Record, 0)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		amount, err := strconv.ParseInt(strings.TrimSpace(row[pos[models.FieldAmount]]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount %q: %w", line, row[pos[models.FieldAmount]], err)
		}
		cat, err := models.ParseCategory(row[pos[models.FieldCategory]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, models.Record{
			Date:        row[pos[models.FieldDate]],
			Category:    cat,
			Amount:      amount,
			Description: row[pos[models.FieldDescription]],
		})
	}
	return records, nil
}

// Encode writes the header and one row per record. Category is written in its
// canonical form and Amount as a decimal integer.
func Encode(w io.Writer, records []models.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		row := []string{r.Date, r.Category.String(), strconv.FormatInt(r.Amount, 10), r.Description}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
