package main

import (
	"context"
	"fmt"
	"math/big"

	"setprotocol/contracts"
	"setprotocol/sdk/setprotocol"
)

func (a *app) runBalance(ctx context.Context, args []string) int {
	if len(args) != 2 {
		return a.usageError("balance <token> <owner>")
	}
	client, err := a.session(ctx, false)
	if err != nil {
		return a.fail(err)
	}
	balance, err := client.ERC20.BalanceOf(ctx, args[0], args[1])
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.stdout, balance)
	return 0
}

func (a *app) runSupply(ctx context.Context, args []string) int {
	if len(args) != 1 {
		return a.usageError("supply <token>")
	}
	client, err := a.session(ctx, false)
	if err != nil {
		return a.fail(err)
	}
	supply, err := client.ERC20.TotalSupply(ctx, args[0])
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.stdout, supply)
	return 0
}

func (a *app) runSetDetails(ctx context.Context, args []string) int {
	if len(args) != 1 {
		return a.usageError("set-details <set>")
	}
	client, err := a.session(ctx, false)
	if err != nil {
		return a.fail(err)
	}
	details, err := client.SetToken.Details(ctx, args[0])
	if err != nil {
		return a.fail(err)
	}
	return a.printJSON(details)
}

func (a *app) runRequired(ctx context.Context, args []string) int {
	if len(args) != 2 {
		return a.usageError("required <set> <quantity>")
	}
	quantity, err := contracts.ParseAmount("quantity", args[1])
	if err != nil {
		return a.fail(err)
	}
	client, err := a.session(ctx, false)
	if err != nil {
		return a.fail(err)
	}
	required, err := client.Issuance.RequiredComponents(ctx, args[0], quantity)
	if err != nil {
		return a.fail(err)
	}
	return a.printJSON(required)
}

func (a *app) runIssue(ctx context.Context, args []string) int {
	if len(args) != 2 {
		return a.usageError("issue <set> <quantity>")
	}
	return a.coreTransfer(ctx, "issue", args, func(c *setprotocol.Client, set string, quantity *big.Int, opts contracts.TxOpts) (string, error) {
		return c.Issuance.Issue(ctx, set, quantity, opts)
	})
}

func (a *app) runRedeem(ctx context.Context, args []string) int {
	if len(args) != 2 {
		return a.usageError("redeem <set> <quantity>")
	}
	return a.coreTransfer(ctx, "redeem", args, func(c *setprotocol.Client, set string, quantity *big.Int, opts contracts.TxOpts) (string, error) {
		return c.Issuance.Redeem(ctx, set, quantity, opts)
	})
}

type coreSend func(c *setprotocol.Client, set string, quantity *big.Int, opts contracts.TxOpts) (string, error)

func (a *app) coreTransfer(ctx context.Context, method string, args []string, send coreSend) int {
	quantity, err := contracts.ParseAmount("quantity", args[1])
	if err != nil {
		return a.fail(err)
	}
	return a.submit(ctx, target{kind: contracts.KindCore, method: method},
		func(c *setprotocol.Client, opts contracts.TxOpts) (string, error) {
			return send(c, args[0], quantity, opts)
		})
}

func (a *app) runPrice(ctx context.Context, args []string) int {
	if len(args) != 1 {
		return a.usageError("price <medianizer>")
	}
	client, err := a.session(ctx, false)
	if err != nil {
		return a.fail(err)
	}
	price, err := client.Oracle.Price(ctx, args[0])
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.stdout, price)
	return 0
}
