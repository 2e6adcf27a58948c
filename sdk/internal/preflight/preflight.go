// Package preflight reads on-chain state ahead of a transaction and reports
// conditions the contracts would reject, with messages that carry the values
// involved. Every check is a no-op when the checker is disabled.
package preflight

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
)

var (
	rebalanceState         = contracts.Method[contracts.RebalanceState]{Kind: contracts.KindRebalancingSetToken, Name: "rebalanceState", Decode: contracts.RebalanceStateDecoder}
	rebalanceManager       = contracts.Method[common.Address]{Kind: contracts.KindRebalancingSetToken, Name: "manager", Decode: contracts.Address}
	lastRebalanceTimestamp = contracts.Method[*big.Int]{Kind: contracts.KindRebalancingSetToken, Name: "lastRebalanceTimestamp", Decode: contracts.BigInt}
	rebalanceInterval      = contracts.Method[*big.Int]{Kind: contracts.KindRebalancingSetToken, Name: "rebalanceInterval", Decode: contracts.BigInt}
	setNaturalUnit         = contracts.Method[*big.Int]{Kind: contracts.KindSetToken, Name: "naturalUnit", Decode: contracts.BigInt}
)

// Checker runs preflight assertions through a resolver.
type Checker struct {
	resolver *contracts.Resolver
	enabled  bool
}

// New constructs a checker. A disabled checker passes every assertion without
// issuing remote calls.
func New(resolver *contracts.Resolver, enabled bool) *Checker {
	return &Checker{resolver: resolver, enabled: enabled}
}

// Enabled reports whether assertions are evaluated.
func (c *Checker) Enabled() bool {
	return c != nil && c.enabled
}

// RequireState fails unless the rebalancing set at set is in want.
func (c *Checker) RequireState(ctx context.Context, set common.Address, want contracts.RebalanceState) error {
	if !c.Enabled() {
		return nil
	}
	state, err := rebalanceState.Call(ctx, c.resolver, set)
	if err != nil {
		return err
	}
	if state != want {
		return contracts.Assertion(contracts.ErrInvalidState,
			"Rebalancing token at %s must be in %s state to call that function.", set.Hex(), want)
	}
	return nil
}

// RequireManager fails unless caller manages the rebalancing set.
func (c *Checker) RequireManager(ctx context.Context, set, caller common.Address) error {
	if !c.Enabled() {
		return nil
	}
	manager, err := rebalanceManager.Call(ctx, c.resolver, set)
	if err != nil {
		return err
	}
	if manager != caller {
		return contracts.Assertion(contracts.ErrNotManager,
			"Caller %s is not the manager of this Rebalancing Set Token.", caller.Hex())
	}
	return nil
}

// RequireIntervalElapsed fails while the rebalancing set's rebalance interval
// has not passed since its last rebalance.
func (c *Checker) RequireIntervalElapsed(ctx context.Context, set common.Address) error {
	if !c.Enabled() {
		return nil
	}
	last, err := lastRebalanceTimestamp.Call(ctx, c.resolver, set)
	if err != nil {
		return err
	}
	interval, err := rebalanceInterval.Call(ctx, c.resolver, set)
	if err != nil {
		return err
	}
	now, err := c.resolver.ChainTime(ctx)
	if err != nil {
		return err
	}
	next := new(big.Int).Add(last, interval)
	if now.Cmp(next) < 0 {
		return contracts.Assertion(contracts.ErrRebalanceIntervalPending,
			"Attempting to rebalance too soon. Rebalancing next available on %s", FormatTime(next))
	}
	return nil
}

// RequireNaturalUnitMultiple fails unless quantity is a multiple of the set's
// natural unit.
func (c *Checker) RequireNaturalUnitMultiple(ctx context.Context, set common.Address, quantity *big.Int) error {
	if !c.Enabled() {
		return nil
	}
	unit, err := setNaturalUnit.Call(ctx, c.resolver, set)
	if err != nil {
		return err
	}
	if !IsMultiple(quantity, unit) {
		return contracts.Assertion(contracts.ErrNaturalUnit,
			"Quantity of %s must be a multiple of the natural unit %s of Set %s.", quantity, unit, set.Hex())
	}
	return nil
}

// Now returns the latest block timestamp.
func (c *Checker) Now(ctx context.Context) (*big.Int, error) {
	return c.resolver.ChainTime(ctx)
}
