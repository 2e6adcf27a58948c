// Package oracle reads the protocol's price feeds: medianizers, the daily
// historical price feed and the moving average oracle built on top of it.
package oracle

import (
	"context"
	"math/big"

	"setprotocol/contracts"
)

var (
	medianizerRead    = contracts.Method[*big.Int]{Kind: contracts.KindMedianizer, Name: "read", Decode: contracts.Bytes32Int}
	medianizerPeek    = contracts.Method[Peek]{Kind: contracts.KindMedianizer, Name: "peek", Decode: decodePeek}
	historicalRead    = contracts.Method[[]*big.Int]{Kind: contracts.KindHistoricalPriceFeed, Name: "read", Decode: contracts.BigInts}
	lastUpdatedAt     = contracts.Method[*big.Int]{Kind: contracts.KindHistoricalPriceFeed, Name: "lastUpdatedAt", Decode: contracts.BigInt}
	updateFrequency   = contracts.Method[*big.Int]{Kind: contracts.KindHistoricalPriceFeed, Name: "updateFrequency", Decode: contracts.BigInt}
	movingAverageRead = contracts.Method[*big.Int]{Kind: contracts.KindMovingAverageOracle, Name: "read", Decode: contracts.Bytes32Int}
	sourceMedianizer  = contracts.Method[string]{Kind: contracts.KindMovingAverageOracle, Name: "getSourceMedianizer", Decode: addressHex}

	poke = contracts.Tx{Kind: contracts.KindHistoricalPriceFeed, Name: "poke"}
)

// Peek is a medianizer price together with its validity flag. A medianizer
// with too few fresh sources reports Valid false instead of reverting.
type Peek struct {
	Price *big.Int
	Valid bool
}

func decodePeek(out []any) (Peek, error) {
	raw, err := contracts.Field[[32]byte](out, 0)
	if err != nil {
		return Peek{}, err
	}
	valid, err := contracts.Field[bool](out, 1)
	if err != nil {
		return Peek{}, err
	}
	return Peek{Price: contracts.Bytes32ToInt(raw), Valid: valid}, nil
}

func addressHex(out []any) (string, error) {
	addr, err := contracts.Address(out)
	if err != nil {
		return "", err
	}
	return addr.Hex(), nil
}

// Client reads price feeds.
type Client struct {
	resolver *contracts.Resolver
}

// New wraps resolver.
func New(resolver *contracts.Resolver) *Client {
	return &Client{resolver: resolver}
}

// Price returns the medianizer's current price. The medianizer reverts when
// the price is not valid; use Peek to read it without reverting.
func (c *Client) Price(ctx context.Context, medianizer string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("medianizer", medianizer)
	if err != nil {
		return nil, err
	}
	return medianizerRead.Call(ctx, c.resolver, addr)
}

// Peek returns the medianizer's price and whether it is currently valid.
func (c *Client) Peek(ctx context.Context, medianizer string) (Peek, error) {
	if c == nil {
		return Peek{}, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("medianizer", medianizer)
	if err != nil {
		return Peek{}, err
	}
	return medianizerPeek.Call(ctx, c.resolver, addr)
}

// HistoricalPrices returns the last days daily prices recorded by feed,
// most recent first.
func (c *Client) HistoricalPrices(ctx context.Context, feed string, days *big.Int) ([]*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("priceFeed", feed)
	if err != nil {
		return nil, err
	}
	if err := contracts.RequirePositive("days", days); err != nil {
		return nil, err
	}
	return historicalRead.Call(ctx, c.resolver, addr, days)
}

// MovingAverage returns the simple moving average over the last points
// entries of the oracle's source feed.
func (c *Client) MovingAverage(ctx context.Context, oracle string, points *big.Int) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("movingAverageOracle", oracle)
	if err != nil {
		return nil, err
	}
	if err := contracts.RequirePositive("dataPoints", points); err != nil {
		return nil, err
	}
	return movingAverageRead.Call(ctx, c.resolver, addr, points)
}

// SourceMedianizer returns the address of the medianizer a moving average
// oracle samples.
func (c *Client) SourceMedianizer(ctx context.Context, oracle string) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("movingAverageOracle", oracle)
	if err != nil {
		return "", err
	}
	return sourceMedianizer.Call(ctx, c.resolver, addr)
}

// LastUpdatedAt returns the timestamp of the feed's most recent poke.
func (c *Client) LastUpdatedAt(ctx context.Context, feed string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("priceFeed", feed)
	if err != nil {
		return nil, err
	}
	return lastUpdatedAt.Call(ctx, c.resolver, addr)
}

// UpdateFrequency returns the minimum number of seconds between pokes.
func (c *Client) UpdateFrequency(ctx context.Context, feed string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("priceFeed", feed)
	if err != nil {
		return nil, err
	}
	return updateFrequency.Call(ctx, c.resolver, addr)
}

// Poke asks the historical feed to record the medianizer's current price.
// The feed rejects pokes that arrive before its update frequency has passed.
func (c *Client) Poke(ctx context.Context, feed string, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("priceFeed", feed)
	if err != nil {
		return "", err
	}
	return poke.Send(ctx, c.resolver, addr, opts)
}
