package manager

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
	"setprotocol/sdk/internal/preflight"
)

const maco = contracts.KindMACOStrategyManager

var (
	movingAveragePriceFeed = contracts.Method[common.Address]{Kind: maco, Name: "movingAveragePriceFeed", Decode: contracts.Address}
	stableAssetAddress     = contracts.Method[common.Address]{Kind: maco, Name: "stableAssetAddress", Decode: contracts.Address}
	riskAssetAddress       = contracts.Method[common.Address]{Kind: maco, Name: "riskAssetAddress", Decode: contracts.Address}
	stableCollateral       = contracts.Method[common.Address]{Kind: maco, Name: "stableCollateralAddress", Decode: contracts.Address}
	riskCollateral         = contracts.Method[common.Address]{Kind: maco, Name: "riskCollateralAddress", Decode: contracts.Address}
	macoFactory            = contracts.Method[common.Address]{Kind: maco, Name: "setTokenFactory", Decode: contracts.Address}
	macoCore               = contracts.Method[common.Address]{Kind: maco, Name: "coreAddress", Decode: contracts.Address}
	macoAuctionLibrary     = contracts.Method[common.Address]{Kind: maco, Name: "auctionLibrary", Decode: contracts.Address}
	movingAverageDays      = contracts.Method[*big.Int]{Kind: maco, Name: "movingAverageDays", Decode: contracts.BigInt}
	macoTimeToPivot        = contracts.Method[*big.Int]{Kind: maco, Name: "auctionTimeToPivot", Decode: contracts.BigInt}
	lastCrossover          = contracts.Method[*big.Int]{Kind: maco, Name: "lastCrossoverConfirmationTimestamp", Decode: contracts.BigInt}
	crossoverMinTime       = contracts.Method[*big.Int]{Kind: maco, Name: "crossoverConfirmationMinTime", Decode: contracts.BigInt}
	crossoverMaxTime       = contracts.Method[*big.Int]{Kind: maco, Name: "crossoverConfirmationMaxTime", Decode: contracts.BigInt}
)

// MACOManagerDetails is the configuration of a moving average crossover
// manager.
type MACOManagerDetails struct {
	Core                               common.Address
	MovingAveragePriceFeed             common.Address
	StableAsset                        common.Address
	RiskAsset                          common.Address
	StableCollateral                   common.Address
	RiskCollateral                     common.Address
	SetTokenFactory                    common.Address
	AuctionLibrary                     common.Address
	MovingAverageDays                  *big.Int
	AuctionTimeToPivot                 *big.Int
	LastCrossoverConfirmationTimestamp *big.Int
	CrossoverConfirmationMinTime       *big.Int
	CrossoverConfirmationMaxTime       *big.Int
}

// MACODetails reads a MACO manager's configuration.
func (c *Client) MACODetails(ctx context.Context, manager string) (*MACOManagerDetails, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("manager", manager)
	if err != nil {
		return nil, err
	}
	d := &MACOManagerDetails{}
	addresses := []struct {
		m   contracts.Method[common.Address]
		dst *common.Address
	}{
		{macoCore, &d.Core},
		{movingAveragePriceFeed, &d.MovingAveragePriceFeed},
		{stableAssetAddress, &d.StableAsset},
		{riskAssetAddress, &d.RiskAsset},
		{stableCollateral, &d.StableCollateral},
		{riskCollateral, &d.RiskCollateral},
		{macoFactory, &d.SetTokenFactory},
		{macoAuctionLibrary, &d.AuctionLibrary},
	}
	for _, read := range addresses {
		if *read.dst, err = read.m.Call(ctx, c.resolver, addr); err != nil {
			return nil, err
		}
	}
	values := []struct {
		m   contracts.Method[*big.Int]
		dst **big.Int
	}{
		{movingAverageDays, &d.MovingAverageDays},
		{macoTimeToPivot, &d.AuctionTimeToPivot},
		{lastCrossover, &d.LastCrossoverConfirmationTimestamp},
		{crossoverMinTime, &d.CrossoverConfirmationMinTime},
		{crossoverMaxTime, &d.CrossoverConfirmationMaxTime},
	}
	for _, read := range values {
		if *read.dst, err = read.m.Call(ctx, c.resolver, addr); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// LastCrossoverConfirmation returns when the manager last observed a
// crossover.
func (c *Client) LastCrossoverConfirmation(ctx context.Context, manager string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("manager", manager)
	if err != nil {
		return nil, err
	}
	return lastCrossover.Call(ctx, c.resolver, addr)
}

// InitialPropose records a crossover signal. The manager accepts it only
// once the previous confirmation window has closed and the price sits on the
// far side of the moving average from the current collateral.
func (c *Client) InitialPropose(ctx context.Context, manager, set string, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	managerAddr, setAddr, err := parseManagerAndSet(manager, set)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if c.checks.Enabled() {
		if err := c.requireReady(ctx, setAddr); err != nil {
			return "", err
		}
		last, _, maxTime, err := c.confirmationWindow(ctx, managerAddr)
		if err != nil {
			return "", err
		}
		now, err := c.checks.Now(ctx)
		if err != nil {
			return "", err
		}
		closes := new(big.Int).Add(last, maxTime)
		if now.Cmp(closes) <= 0 {
			return "", contracts.Assertion(contracts.ErrConfirmWindow,
				"Not enough time has passed since the last crossover confirmation. Initial propose can be called after %s",
				preflight.FormatTime(closes))
		}
		if err := c.requireCrossover(ctx, managerAddr, setAddr); err != nil {
			return "", err
		}
	}
	return initialPropose.Send(ctx, c.resolver, managerAddr, opts, setAddr)
}

// ConfirmPropose confirms a crossover signalled by InitialPropose and
// proposes the rebalance. It must land inside the confirmation window that
// InitialPropose opened.
func (c *Client) ConfirmPropose(ctx context.Context, manager, set string, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	managerAddr, setAddr, err := parseManagerAndSet(manager, set)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if c.checks.Enabled() {
		if err := c.requireReady(ctx, setAddr); err != nil {
			return "", err
		}
		last, minTime, maxTime, err := c.confirmationWindow(ctx, managerAddr)
		if err != nil {
			return "", err
		}
		now, err := c.checks.Now(ctx)
		if err != nil {
			return "", err
		}
		opens := new(big.Int).Add(last, minTime)
		closes := new(big.Int).Add(last, maxTime)
		if now.Cmp(opens) < 0 || now.Cmp(closes) > 0 {
			return "", contracts.Assertion(contracts.ErrConfirmWindow,
				"Confirm propose must be called between %s and %s.",
				preflight.FormatTime(opens), preflight.FormatTime(closes))
		}
		if err := c.requireCrossover(ctx, managerAddr, setAddr); err != nil {
			return "", err
		}
	}
	return confirmPropose.Send(ctx, c.resolver, managerAddr, opts, setAddr)
}

func (c *Client) confirmationWindow(ctx context.Context, managerAddr common.Address) (last, minTime, maxTime *big.Int, err error) {
	if last, err = lastCrossover.Call(ctx, c.resolver, managerAddr); err != nil {
		return nil, nil, nil, err
	}
	if minTime, err = crossoverMinTime.Call(ctx, c.resolver, managerAddr); err != nil {
		return nil, nil, nil, err
	}
	if maxTime, err = crossoverMaxTime.Call(ctx, c.resolver, managerAddr); err != nil {
		return nil, nil, nil, err
	}
	return last, minTime, maxTime, nil
}

// requireCrossover checks that the risk asset price has crossed its moving
// average away from the set's current collateral: a set holding the stable
// collateral needs the price above the average, one holding the risk
// collateral needs it below.
func (c *Client) requireCrossover(ctx context.Context, managerAddr, setAddr common.Address) error {
	feed, err := movingAveragePriceFeed.Call(ctx, c.resolver, managerAddr)
	if err != nil {
		return err
	}
	days, err := movingAverageDays.Call(ctx, c.resolver, managerAddr)
	if err != nil {
		return err
	}
	average, err := movingAverageRead.Call(ctx, c.resolver, feed, days)
	if err != nil {
		return err
	}
	medianizer, err := sourceMedianizer.Call(ctx, c.resolver, feed)
	if err != nil {
		return err
	}
	price, err := medianizerRead.Call(ctx, c.resolver, medianizer)
	if err != nil {
		return err
	}
	collateral, err := rebalancingCurrent.Call(ctx, c.resolver, setAddr)
	if err != nil {
		return err
	}
	stable, err := stableCollateral.Call(ctx, c.resolver, managerAddr)
	if err != nil {
		return err
	}

	if collateral == stable {
		if price.Cmp(average) <= 0 {
			return contracts.Assertion(contracts.ErrCrossoverNotMet,
				"Current Price %s must be greater than the moving average %s to rebalance into the risk collateral.", price, average)
		}
		return nil
	}
	if price.Cmp(average) >= 0 {
		return contracts.Assertion(contracts.ErrCrossoverNotMet,
			"Current Price %s must be less than the moving average %s to rebalance into the stable collateral.", price, average)
	}
	return nil
}
