package main

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"setprotocol/contracts"
	"setprotocol/sdk/rebalancing"
	"setprotocol/sdk/setprotocol"
)

const rebalancingUsage = "rebalancing <details|state|proposal|progress|bid-price|propose|start|settle|bid|end-failed|withdraw> ..."

func (a *app) runRebalancingCommand(ctx context.Context, args []string) int {
	if len(args) == 0 {
		return a.usageError(rebalancingUsage)
	}
	rest := args[1:]
	switch strings.ToLower(args[0]) {
	case "details":
		return a.rebalancingView(ctx, rest, "details", func(c *setprotocol.Client, set string) (any, error) {
			return c.Rebalancing.Details(ctx, set)
		})
	case "state":
		return a.rebalancingView(ctx, rest, "state", func(c *setprotocol.Client, set string) (any, error) {
			return c.Rebalancing.State(ctx, set)
		})
	case "proposal":
		return a.rebalancingView(ctx, rest, "proposal", func(c *setprotocol.Client, set string) (any, error) {
			return c.Rebalancing.ProposalDetails(ctx, set)
		})
	case "progress":
		return a.rebalancingView(ctx, rest, "progress", func(c *setprotocol.Client, set string) (any, error) {
			return c.Rebalancing.ProgressDetails(ctx, set)
		})
	case "bid-price":
		return a.runBidPrice(ctx, rest)
	case "propose":
		return a.runPropose(ctx, rest)
	case "start":
		return a.rebalancingTx(ctx, rest, "start", "startRebalance", func(c *setprotocol.Client, set string, opts contracts.TxOpts) (string, error) {
			return c.Rebalancing.StartRebalance(ctx, set, opts)
		})
	case "settle":
		return a.rebalancingTx(ctx, rest, "settle", "settleRebalance", func(c *setprotocol.Client, set string, opts contracts.TxOpts) (string, error) {
			return c.Rebalancing.SettleRebalance(ctx, set, opts)
		})
	case "end-failed":
		return a.rebalancingTx(ctx, rest, "end-failed", "endFailedAuction", func(c *setprotocol.Client, set string, opts contracts.TxOpts) (string, error) {
			return c.Rebalancing.EndFailedAuction(ctx, set, opts)
		})
	case "bid":
		return a.runBid(ctx, rest)
	case "withdraw":
		if len(rest) != 1 {
			return a.usageError("rebalancing withdraw <set>")
		}
		return a.submit(ctx, target{kind: contracts.KindRebalanceAuctionModule, method: "withdrawFromFailedRebalance"},
			func(c *setprotocol.Client, opts contracts.TxOpts) (string, error) {
				return c.Rebalancing.WithdrawFromFailedRebalance(ctx, rest[0], opts)
			})
	default:
		fmt.Fprintf(a.stderr, "Unknown rebalancing subcommand %q\n", args[0])
		return a.usageError(rebalancingUsage)
	}
}

func (a *app) rebalancingView(ctx context.Context, args []string, name string, read func(*setprotocol.Client, string) (any, error)) int {
	if len(args) != 1 {
		return a.usageError("rebalancing " + name + " <set>")
	}
	client, err := a.session(ctx, false)
	if err != nil {
		return a.fail(err)
	}
	out, err := read(client, args[0])
	if err != nil {
		return a.fail(err)
	}
	return a.printJSON(out)
}

func (a *app) rebalancingTx(ctx context.Context, args []string, name, method string, send func(*setprotocol.Client, string, contracts.TxOpts) (string, error)) int {
	if len(args) != 1 {
		return a.usageError("rebalancing " + name + " <set>")
	}
	return a.submit(ctx, target{kind: contracts.KindRebalancingSetToken, contract: args[0], method: method},
		func(c *setprotocol.Client, opts contracts.TxOpts) (string, error) {
			return send(c, args[0], opts)
		})
}

func (a *app) runBidPrice(ctx context.Context, args []string) int {
	if len(args) != 2 {
		return a.usageError("rebalancing bid-price <set> <quantity>")
	}
	quantity, err := contracts.ParseAmount("quantity", args[1])
	if err != nil {
		return a.fail(err)
	}
	client, err := a.session(ctx, false)
	if err != nil {
		return a.fail(err)
	}
	flows, err := client.Rebalancing.BidPrice(ctx, args[0], quantity)
	if err != nil {
		return a.fail(err)
	}
	return a.printJSON(flows)
}

func (a *app) runPropose(ctx context.Context, args []string) int {
	fs := newFlagSet("rebalancing propose", a.stderr)
	nextSet := fs.String("next-set", "", "Set to rebalance into")
	library := fs.String("auction-library", "", "Price library driving the auction")
	timeToPivot := fs.String("time-to-pivot", "", "Seconds until the auction pivots")
	startPrice := fs.String("start-price", "", "Auction start price")
	pivotPrice := fs.String("pivot-price", "", "Auction pivot price")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		return a.usageError("rebalancing propose -next-set <set> -auction-library <addr> -time-to-pivot <s> -start-price <p> -pivot-price <p> <rebalancingSet>")
	}
	params := rebalancing.ProposeParams{NextSet: *nextSet, AuctionLibrary: *library}
	for _, field := range []struct {
		name  string
		value string
		dst   **big.Int
	}{
		{"auctionTimeToPivot", *timeToPivot, &params.AuctionTimeToPivot},
		{"auctionStartPrice", *startPrice, &params.AuctionStartPrice},
		{"auctionPivotPrice", *pivotPrice, &params.AuctionPivotPrice},
	} {
		value, err := contracts.ParseAmount(field.name, field.value)
		if err != nil {
			return a.fail(err)
		}
		*field.dst = value
	}
	set := fs.Arg(0)
	return a.submit(ctx, target{kind: contracts.KindRebalancingSetToken, contract: set, method: "propose"},
		func(c *setprotocol.Client, opts contracts.TxOpts) (string, error) {
			return c.Rebalancing.Propose(ctx, set, params, opts)
		})
}

func (a *app) runBid(ctx context.Context, args []string) int {
	fs := newFlagSet("rebalancing bid", a.stderr)
	partial := fs.Bool("partial", false, "Allow the bid to be partially filled")
	withdraw := fs.Bool("withdraw", false, "Withdraw received tokens from the Vault")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		return a.usageError("rebalancing bid [-partial] [-withdraw] <set> <quantity>")
	}
	quantity, err := contracts.ParseAmount("quantity", fs.Arg(1))
	if err != nil {
		return a.fail(err)
	}
	set := fs.Arg(0)
	method := "bid"
	if *withdraw {
		method = "bidAndWithdraw"
	}
	return a.submit(ctx, target{kind: contracts.KindRebalanceAuctionModule, method: method},
		func(c *setprotocol.Client, opts contracts.TxOpts) (string, error) {
			if *withdraw {
				return c.Rebalancing.BidAndWithdraw(ctx, set, quantity, *partial, opts)
			}
			return c.Rebalancing.Bid(ctx, set, quantity, *partial, opts)
		})
}
