package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"setprotocol/contracts"
	"setprotocol/journal"
)

func (a *app) runTxCommand(ctx context.Context, args []string) int {
	if len(args) == 0 {
		return a.usageError("tx <list|wait> ...")
	}
	switch strings.ToLower(args[0]) {
	case "list":
		return a.runTxList(ctx, args[1:])
	case "wait":
		return a.runTxWait(ctx, args[1:])
	default:
		fmt.Fprintf(a.stderr, "Unknown tx subcommand %q\n", args[0])
		return a.usageError("tx <list|wait> ...")
	}
}

func (a *app) requireJournal() (*journal.Journal, error) {
	j, err := a.txJournal()
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, errors.New("JournalPath is not configured")
	}
	return j, nil
}

func (a *app) runTxList(ctx context.Context, args []string) int {
	fs := newFlagSet("tx list", a.stderr)
	status := fs.String("status", "", "Only show PENDING, MINED or FAILED transactions")
	contract := fs.String("contract", "", "Only show transactions sent to this contract")
	limit := fs.Int("limit", 20, "Maximum number of entries")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	j, err := a.requireJournal()
	if err != nil {
		return a.fail(err)
	}
	filter := journal.Filter{Status: journal.Status(strings.ToUpper(*status)), Limit: *limit}
	if *contract != "" {
		addr, err := contracts.ParseAddress("contract", *contract)
		if err != nil {
			return a.fail(err)
		}
		filter.Contract = addr.Hex()
	}
	entries, err := j.List(ctx, filter)
	if err != nil {
		return a.fail(err)
	}
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HASH\tSTATUS\tKIND\tMETHOD\tCONTRACT\tBLOCK\tCREATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.Hash, e.Status, e.Kind, e.Method, e.Contract, e.BlockNumber, e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if err := w.Flush(); err != nil {
		return a.fail(err)
	}
	return 0
}

func (a *app) runTxWait(ctx context.Context, args []string) int {
	if len(args) != 1 {
		return a.usageError("tx wait <hash>")
	}
	client, err := a.session(ctx, false)
	if err != nil {
		return a.fail(err)
	}
	j, err := a.txJournal()
	if err != nil {
		a.logger.Warn("open journal", "error", err)
	}
	return a.await(ctx, client, j, args[0])
}
