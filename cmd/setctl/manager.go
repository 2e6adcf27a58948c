package main

import (
	"context"
	"fmt"
	"strings"

	"setprotocol/contracts"
	"setprotocol/sdk/setprotocol"
)

const managerUsage = "manager <details|propose|initial-propose|confirm-propose> ..."

func (a *app) runManagerCommand(ctx context.Context, args []string) int {
	if len(args) == 0 {
		return a.usageError(managerUsage)
	}
	rest := args[1:]
	switch strings.ToLower(args[0]) {
	case "details":
		return a.runManagerDetails(ctx, rest)
	case "propose":
		return a.managerTx(ctx, rest, "propose", contracts.KindBTCETHRebalancingManager,
			func(c *setprotocol.Client, manager, set string, opts contracts.TxOpts) (string, error) {
				return c.Manager.Propose(ctx, manager, set, opts)
			})
	case "initial-propose":
		return a.managerTx(ctx, rest, "initialPropose", contracts.KindMACOStrategyManager,
			func(c *setprotocol.Client, manager, set string, opts contracts.TxOpts) (string, error) {
				return c.Manager.InitialPropose(ctx, manager, set, opts)
			})
	case "confirm-propose":
		return a.managerTx(ctx, rest, "confirmPropose", contracts.KindMACOStrategyManager,
			func(c *setprotocol.Client, manager, set string, opts contracts.TxOpts) (string, error) {
				return c.Manager.ConfirmPropose(ctx, manager, set, opts)
			})
	default:
		fmt.Fprintf(a.stderr, "Unknown manager subcommand %q\n", args[0])
		return a.usageError(managerUsage)
	}
}

func (a *app) runManagerDetails(ctx context.Context, args []string) int {
	fs := newFlagSet("manager details", a.stderr)
	kind := fs.String("type", "btceth", "Manager type: btceth or maco")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return a.usageError("manager details [-type btceth|maco] <manager>")
	}
	client, err := a.session(ctx, false)
	if err != nil {
		return a.fail(err)
	}
	var details any
	switch strings.ToLower(*kind) {
	case "btceth":
		details, err = client.Manager.BTCETHDetails(ctx, fs.Arg(0))
	case "maco":
		details, err = client.Manager.MACODetails(ctx, fs.Arg(0))
	default:
		return a.fail(fmt.Errorf("unknown manager type %q", *kind))
	}
	if err != nil {
		return a.fail(err)
	}
	return a.printJSON(details)
}

func (a *app) managerTx(ctx context.Context, args []string, method string, kind contracts.Kind, send func(*setprotocol.Client, string, string, contracts.TxOpts) (string, error)) int {
	if len(args) != 2 {
		return a.usageError("manager <propose|initial-propose|confirm-propose> <manager> <rebalancingSet>")
	}
	return a.submit(ctx, target{kind: kind, contract: args[0], method: method},
		func(c *setprotocol.Client, opts contracts.TxOpts) (string, error) {
			return send(c, args[0], args[1], opts)
		})
}
