package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/subcommands"
)

// action runs one ledger command against a.
type action func(ctx context.Context, a *app) subcommands.ExitStatus

// command adapts an action to subcommands.Command.
type command struct {
	name, synopsis string
	run            action
}

func (c *command) Name() string             { return c.name }
func (c *command) Synopsis() string         { return c.synopsis }
func (c *command) Usage() string            { return c.name + ":\n  " + c.synopsis + "\n" }
func (c *command) SetFlags(_ *flag.FlagSet) {}

func (c *command) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 0 {
		fmt.Fprintf(flag.CommandLine.Output(), "%s takes no arguments\n", c.name)
		return subcommands.ExitUsageError
	}
	a, ok := args[0].(*app)
	if !ok {
		return subcommands.ExitFailure
	}
	return c.run(ctx, a)
}

var ledgerCommands = []*command{
	{name: "add", synopsis: "Add a record", run: runAdd},
	{name: "balance", synopsis: "Show the ledger balance", run: runBalance},
	{name: "search", synopsis: "Search records by exact field values", run: runSearch},
	{name: "update", synopsis: "Update the record at an index", run: runUpdate},
	{name: "list", synopsis: "List all records", run: runList},
}

func register(commander *subcommands.Commander) {
	for _, c := range ledgerCommands {
		commander.Register(c, "ledger")
	}
	commander.Register(&command{name: "shell", synopsis: "Run ledger commands interactively", run: runShell}, "ledger")
}

func runAdd(ctx context.Context, a *app) subcommands.ExitStatus {
	fields, err := a.askFields(false)
	if err != nil {
		return inputFailed(a, err)
	}
	status, err := a.mgr.Add(ctx, fields)
	if err != nil {
		a.printError(err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(a.out, "Record added (Status Code: %d)\n", status)
	return subcommands.ExitSuccess
}

func runBalance(_ context.Context, a *app) subcommands.ExitStatus {
	fmt.Fprintf(a.out, "Balance: %d\n", a.mgr.ShowBalance())
	return subcommands.ExitSuccess
}

func runSearch(_ context.Context, a *app) subcommands.ExitStatus {
	fmt.Fprintln(a.out, "Leave a field empty to match any value.")
	criteria, err := a.askFields(true)
	if err != nil {
		return inputFailed(a, err)
	}
	if err := a.renderRecords(a.mgr.Search(criteria), false); err != nil {
		return inputFailed(a, err)
	}
	return subcommands.ExitSuccess
}

func runUpdate(ctx context.Context, a *app) subcommands.ExitStatus {
	answer, err := a.ask("Index")
	if err != nil {
		return inputFailed(a, err)
	}
	index, err := strconv.Atoi(answer)
	if err != nil {
		fmt.Fprintf(a.out, "Error: index %q is not a number (Status Code: 400)\n", answer)
		return subcommands.ExitFailure
	}

	fmt.Fprintln(a.out, "Leave a field empty to keep its value.")
	fields, err := a.askFields(true)
	if err != nil {
		return inputFailed(a, err)
	}
	status, err := a.mgr.UpdateByIndex(ctx, index, fields)
	if err != nil {
		a.printError(err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(a.out, "Record %d updated (Status Code: %d)\n", index, status)
	return subcommands.ExitSuccess
}

func runList(_ context.Context, a *app) subcommands.ExitStatus {
	if err := a.renderRecords(a.mgr.Records(), true); err != nil {
		return inputFailed(a, err)
	}
	return subcommands.ExitSuccess
}

// runShell reads command names until exit or the end of input. Failed
// commands do not end the session.
func runShell(ctx context.Context, a *app) subcommands.ExitStatus {
	byName := make(map[string]action, len(ledgerCommands))
	names := make([]string, 0, len(ledgerCommands))
	for _, c := range ledgerCommands {
		byName[c.name] = c.run
		names = append(names, c.name)
	}

	for {
		name, err := a.ask("Command (" + strings.Join(names, ", ") + ", exit)")
		if err == io.EOF {
			fmt.Fprintln(a.out)
			return subcommands.ExitSuccess
		}
		if err != nil {
			return inputFailed(a, err)
		}

		switch name {
		case "":
		case "exit", "quit":
			return subcommands.ExitSuccess
		default:
			run, ok := byName[name]
			if !ok {
				fmt.Fprintf(a.out, "Unknown command %q\n", name)
				continue
			}
			if status := run(ctx, a); status == subcommands.ExitUsageError {
				return status
			}
		}
	}
}

// inputFailed reports a read or render error. It is not a ledger error and
// carries no status code.
func inputFailed(a *app, err error) subcommands.ExitStatus {
	if err == io.EOF {
		fmt.Fprintln(a.out, "\nInput ended")
	} else {
		fmt.Fprintf(a.out, "\n%v\n", err)
	}
	return subcommands.ExitUsageError
}

// parseAmount returns the answer as an int64 when it is one. Anything else is
// passed on unchanged for the ledger to reject.
func parseAmount(answer string) any {
	if n, err := strconv.ParseInt(answer, 10, 64); err == nil {
		return n
	}
	return answer
}
