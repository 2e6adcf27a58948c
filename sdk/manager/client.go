// Package manager triggers rebalances through the protocol's automated
// rebalancing managers: the BTC-ETH allocation manager and the moving average
// crossover (MACO) strategy manager.
package manager

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
	"setprotocol/sdk/internal/preflight"
)

var (
	btcEthPropose  = contracts.Tx{Kind: contracts.KindBTCETHRebalancingManager, Name: "propose"}
	initialPropose = contracts.Tx{Kind: contracts.KindMACOStrategyManager, Name: "initialPropose"}
	confirmPropose = contracts.Tx{Kind: contracts.KindMACOStrategyManager, Name: "confirmPropose"}

	medianizerRead       = contracts.Method[*big.Int]{Kind: contracts.KindMedianizer, Name: "read", Decode: contracts.Bytes32Int}
	movingAverageRead    = contracts.Method[*big.Int]{Kind: contracts.KindMovingAverageOracle, Name: "read", Decode: contracts.Bytes32Int}
	sourceMedianizer     = contracts.Method[common.Address]{Kind: contracts.KindMovingAverageOracle, Name: "getSourceMedianizer", Decode: contracts.Address}
	rebalancingCurrent   = contracts.Method[common.Address]{Kind: contracts.KindRebalancingSetToken, Name: "currentSet", Decode: contracts.Address}
	collateralComponents = contracts.Method[[]common.Address]{Kind: contracts.KindSetToken, Name: "getComponents", Decode: contracts.Addresses}
	collateralUnits      = contracts.Method[[]*big.Int]{Kind: contracts.KindSetToken, Name: "getUnits", Decode: contracts.BigInts}
	collateralNatural    = contracts.Method[*big.Int]{Kind: contracts.KindSetToken, Name: "naturalUnit", Decode: contracts.BigInt}
)

// Option configures a Client.
type Option func(*Client)

// WithPreflight toggles the trigger checks run before each proposal.
func WithPreflight(enabled bool) Option {
	return func(c *Client) {
		c.preflightEnabled = enabled
	}
}

// Client drives rebalancing managers.
type Client struct {
	resolver         *contracts.Resolver
	preflightEnabled bool
	checks           *preflight.Checker
}

// New wraps resolver.
func New(resolver *contracts.Resolver, opts ...Option) *Client {
	c := &Client{resolver: resolver, preflightEnabled: true}
	for _, opt := range opts {
		opt(c)
	}
	c.checks = preflight.New(resolver, c.preflightEnabled)
	return c
}

func parseManagerAndSet(manager, set string) (common.Address, common.Address, error) {
	managerAddr, err := contracts.ParseAddress("manager", manager)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	setAddr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return common.Address{}, common.Address{}, err
	}
	return managerAddr, setAddr, nil
}

// requireReady runs the checks every manager proposal shares: the set is
// idle and its rebalance interval has passed.
func (c *Client) requireReady(ctx context.Context, set common.Address) error {
	if err := c.checks.RequireState(ctx, set, contracts.StateDefault); err != nil {
		return err
	}
	return c.checks.RequireIntervalElapsed(ctx, set)
}
