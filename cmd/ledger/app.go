package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sheikh-saqib/finance-records-ledger/internal/ledger"
	"github.com/sheikh-saqib/finance-records-ledger/internal/models"
)

// app is handed to every subcommand through Commander.Execute.
type app struct {
	mgr   *ledger.Manager
	in    *bufio.Reader
	out   io.Writer
	style string // glamour style, "" picks one from the terminal
}

func newApp(mgr *ledger.Manager, in io.Reader, out io.Writer) *app {
	return &app{mgr: mgr, in: bufio.NewReader(in), out: out}
}

// ask prints label and returns the trimmed answer. io.EOF is returned only
// when the input ended before any answer.
func (a *app) ask(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askCategory asks until the answer is a category, or empty when optional.
func (a *app) askCategory(label string, optional bool) (models.Category, error) {
	for {
		answer, err := a.ask(label)
		if err != nil {
			return "", err
		}
		if answer == "" && optional {
			return "", nil
		}
		cat, err := models.ParseCategory(answer)
		if err == nil {
			return cat, nil
		}
		fmt.Fprintf(a.out, "Invalid category %q, expected Income or Cost\n", answer)
	}
}

// askFields prompts for every record field. Empty answers are left out when
// optional, so that search and update only use what was typed.
func (a *app) askFields(optional bool) (models.Fields, error) {
	fields := make(models.Fields)

	date, err := a.ask("Date (YYYY-MM-DD)")
	if err != nil {
		return nil, err
	}
	if date != "" || !optional {
		fields[models.FieldDate] = date
	}

	cat, err := a.askCategory("Category (Income/Cost)", optional)
	if err != nil {
		return nil, err
	}
	if cat != "" {
		fields[models.FieldCategory] = cat
	}

	amount, err := a.ask("Amount")
	if err != nil {
		return nil, err
	}
	if amount != "" || !optional {
		fields[models.FieldAmount] = parseAmount(amount)
	}

	desc, err := a.ask("Description")
	if err != nil {
		return nil, err
	}
	if desc != "" || !optional {
		fields[models.FieldDescription] = desc
	}
	return fields, nil
}

// printError prints err the way every command reports a failure.
func (a *app) printError(err error) {
	fmt.Fprintf(a.out, "Error: %v (Status Code: %d)\n", err, ledger.StatusOf(err))
}
