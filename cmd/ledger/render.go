package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	md "github.com/nao1215/markdown"

	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
)

// renderRecords prints records as a table. indexed adds the record index as
// the first column, which update expects.
func (a *app) renderRecords(records []models.Record, indexed bool) error {
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No records found")
		return nil
	}

	style := glamour.WithAutoStyle()
	if a.style != "" {
		style = glamour.WithStandardStyle(a.style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(recordsMarkdown(records, indexed))
	if err != nil {
		return fmt.Errorf("render records: %w", err)
	}
	fmt.Fprint(a.out, out)
	return nil
}

func recordsMarkdown(records []models.Record, indexed bool) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignRight, md.AlignLeft},
		Header:    []string{"Date", "Category", "Amount", "Description"},
		Rows:      [][]string{},
	}
	if indexed {
		table.Alignment = append([]md.TableAlignment{md.AlignRight}, table.Alignment...)
		table.Header = append([]string{"#"}, table.Header...)
	}
	for i, r := range records {
		row := []string{
			cell(r.Date),
			cell(r.Category.String()),
			strconv.FormatInt(r.Amount, 10),
			cell(r.Description),
		}
		if indexed {
			row = append([]string{strconv.Itoa(i)}, row...)
		}
		table.Rows = append(table.Rows, row)
	}
	doc.Table(table)

	return doc.String()
}

// cellEscaper keeps a value on one table row.
var cellEscaper = strings.NewReplacer(
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	"|", `\|`,
)

func cell(s string) string {
	return cellEscaper.Replace(s)
}
