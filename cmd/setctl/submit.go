package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
	"setprotocol/journal"
	"setprotocol/sdk/setprotocol"
)

// target names the contract a command transacts with, for the journal. A
// blank contract means the session's protocol deployment for kind.
type target struct {
	kind     contracts.Kind
	contract string
	method   string
}

// submit signs and sends a transaction, journals it and optionally waits for
// its receipt.
func (a *app) submit(ctx context.Context, t target, send func(*setprotocol.Client, contracts.TxOpts) (string, error)) int {
	client, err := a.session(ctx, true)
	if err != nil {
		return a.fail(err)
	}
	opts := contracts.TxOpts{From: a.from}
	hash, err := send(client, opts)
	if err != nil {
		return a.fail(err)
	}
	fmt.Fprintln(a.stdout, hash)

	contract := common.HexToAddress(t.contract)
	if t.contract == "" {
		contract = protocolAddress(client.Addresses(), t.kind)
	}
	sender, err := client.Resolver().Sender(opts)
	if err != nil {
		a.logger.Warn("resolve sender", slog.Any("error", err))
	}
	j, err := a.txJournal()
	if err != nil {
		a.logger.Warn("open journal", slog.Any("error", err))
	}
	if j != nil {
		_, err := j.Record(ctx, journal.Entry{
			Hash:     hash,
			Kind:     t.kind.String(),
			Contract: contract.Hex(),
			Method:   t.method,
			Sender:   sender.Hex(),
		})
		if err != nil {
			a.logger.Warn("journal transaction", slog.String("tx", hash), slog.Any("error", err))
		}
	}
	if !a.wait {
		return 0
	}
	return a.await(ctx, client, j, hash)
}

func (a *app) await(ctx context.Context, client *setprotocol.Client, j *journal.Journal, hash string) int {
	receipt, err := client.AwaitTransactionMined(ctx, hash, a.poll)
	if receipt == nil {
		return a.fail(err)
	}
	success := err == nil
	if j != nil {
		var block uint64
		if receipt.BlockNumber != nil {
			block = receipt.BlockNumber.Uint64()
		}
		markErr := j.MarkMined(ctx, hash, success, block, receipt.GasUsed)
		if markErr != nil && !errors.Is(markErr, journal.ErrNotFound) {
			a.logger.Warn("journal receipt", slog.String("tx", hash), slog.Any("error", markErr))
		}
	}
	if !success {
		fmt.Fprintln(a.stdout, journal.StatusFailed)
		return a.fail(err)
	}
	fmt.Fprintln(a.stdout, journal.StatusMined)
	return 0
}

func protocolAddress(addrs setprotocol.Addresses, kind contracts.Kind) common.Address {
	switch kind {
	case contracts.KindCore:
		return addrs.Core
	case contracts.KindVault:
		return addrs.Vault
	case contracts.KindRebalanceAuctionModule:
		return addrs.RebalanceAuctionModule
	case contracts.KindProtocolViewer:
		return addrs.ProtocolViewer
	default:
		return common.Address{}
	}
}
