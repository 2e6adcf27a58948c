package manager

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
	"setprotocol/sdk/internal/preflight"
)

const btcEth = contracts.KindBTCETHRebalancingManager

var (
	btcPriceFeed          = contracts.Method[common.Address]{Kind: btcEth, Name: "btcPriceFeed", Decode: contracts.Address}
	ethPriceFeed          = contracts.Method[common.Address]{Kind: btcEth, Name: "ethPriceFeed", Decode: contracts.Address}
	btcAddress            = contracts.Method[common.Address]{Kind: btcEth, Name: "btcAddress", Decode: contracts.Address}
	ethAddress            = contracts.Method[common.Address]{Kind: btcEth, Name: "ethAddress", Decode: contracts.Address}
	btcEthFactory         = contracts.Method[common.Address]{Kind: btcEth, Name: "setTokenFactory", Decode: contracts.Address}
	btcEthCore            = contracts.Method[common.Address]{Kind: btcEth, Name: "coreAddress", Decode: contracts.Address}
	btcEthAuctionLibrary  = contracts.Method[common.Address]{Kind: btcEth, Name: "auctionLibrary", Decode: contracts.Address}
	btcEthTimeToPivot     = contracts.Method[*big.Int]{Kind: btcEth, Name: "auctionTimeToPivot", Decode: contracts.BigInt}
	btcMultiplier         = contracts.Method[*big.Int]{Kind: btcEth, Name: "btcMultiplier", Decode: contracts.BigInt}
	ethMultiplier         = contracts.Method[*big.Int]{Kind: btcEth, Name: "ethMultiplier", Decode: contracts.BigInt}
	maximumLowerThreshold = contracts.Method[*big.Int]{Kind: btcEth, Name: "maximumLowerThreshold", Decode: contracts.BigInt}
	minimumUpperThreshold = contracts.Method[*big.Int]{Kind: btcEth, Name: "minimumUpperThreshold", Decode: contracts.BigInt}
)

// BTC has 8 decimals and ETH 18; BTC units are scaled up before values are
// compared.
var btcDecimalScale = big.NewInt(10_000_000_000)

// BTCETHManagerDetails is the configuration of a BTC-ETH rebalancing manager.
type BTCETHManagerDetails struct {
	Core                  common.Address
	BTCPriceFeed          common.Address
	ETHPriceFeed          common.Address
	BTCAddress            common.Address
	ETHAddress            common.Address
	SetTokenFactory       common.Address
	AuctionLibrary        common.Address
	AuctionTimeToPivot    *big.Int
	BTCMultiplier         *big.Int
	ETHMultiplier         *big.Int
	MaximumLowerThreshold *big.Int
	MinimumUpperThreshold *big.Int
}

// BTCETHDetails reads a BTC-ETH manager's configuration.
func (c *Client) BTCETHDetails(ctx context.Context, manager string) (*BTCETHManagerDetails, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("manager", manager)
	if err != nil {
		return nil, err
	}
	d := &BTCETHManagerDetails{}
	addresses := []struct {
		m   contracts.Method[common.Address]
		dst *common.Address
	}{
		{btcEthCore, &d.Core},
		{btcPriceFeed, &d.BTCPriceFeed},
		{ethPriceFeed, &d.ETHPriceFeed},
		{btcAddress, &d.BTCAddress},
		{ethAddress, &d.ETHAddress},
		{btcEthFactory, &d.SetTokenFactory},
		{btcEthAuctionLibrary, &d.AuctionLibrary},
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
		{btcEthTimeToPivot, &d.AuctionTimeToPivot},
		{btcMultiplier, &d.BTCMultiplier},
		{ethMultiplier, &d.ETHMultiplier},
		{maximumLowerThreshold, &d.MaximumLowerThreshold},
		{minimumUpperThreshold, &d.MinimumUpperThreshold},
	}
	for _, read := range values {
		if *read.dst, err = read.m.Call(ctx, c.resolver, addr); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Propose asks the BTC-ETH manager to propose a rebalance of set. The manager
// only proposes when the BTC share of the collateral's value has left the
// band between its lower and upper thresholds.
func (c *Client) Propose(ctx context.Context, manager, set string, opts contracts.TxOpts) (string, error) {
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
		if err := c.requireAllocationOutsideBounds(ctx, managerAddr, setAddr); err != nil {
			return "", err
		}
	}
	return btcEthPropose.Send(ctx, c.resolver, managerAddr, opts, setAddr)
}

// BTCAllocation returns the BTC share of the set's current collateral value
// in basis points.
func (c *Client) BTCAllocation(ctx context.Context, manager, set string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	managerAddr, setAddr, err := parseManagerAndSet(manager, set)
	if err != nil {
		return nil, err
	}
	return c.btcAllocation(ctx, managerAddr, setAddr)
}

func (c *Client) requireAllocationOutsideBounds(ctx context.Context, managerAddr, setAddr common.Address) error {
	allocation, err := c.btcAllocation(ctx, managerAddr, setAddr)
	if err != nil {
		return err
	}
	lower, err := maximumLowerThreshold.Call(ctx, c.resolver, managerAddr)
	if err != nil {
		return err
	}
	upper, err := minimumUpperThreshold.Call(ctx, c.resolver, managerAddr)
	if err != nil {
		return err
	}
	hundred := big.NewInt(100)
	lowerBps := new(big.Int).Mul(lower, hundred)
	upperBps := new(big.Int).Mul(upper, hundred)
	if allocation.Cmp(lowerBps) >= 0 && allocation.Cmp(upperBps) < 0 {
		return contracts.Assertion(contracts.ErrAllocationWithinBounds,
			"Current BTC allocation %s%% must be outside the bounds %s%% and %s%%.",
			preflight.FormatBasisPoints(allocation), lower, upper)
	}
	return nil
}

func (c *Client) btcAllocation(ctx context.Context, managerAddr, setAddr common.Address) (*big.Int, error) {
	btcFeed, err := btcPriceFeed.Call(ctx, c.resolver, managerAddr)
	if err != nil {
		return nil, err
	}
	ethFeed, err := ethPriceFeed.Call(ctx, c.resolver, managerAddr)
	if err != nil {
		return nil, err
	}
	btcToken, err := btcAddress.Call(ctx, c.resolver, managerAddr)
	if err != nil {
		return nil, err
	}
	ethToken, err := ethAddress.Call(ctx, c.resolver, managerAddr)
	if err != nil {
		return nil, err
	}
	btcPrice, err := medianizerRead.Call(ctx, c.resolver, btcFeed)
	if err != nil {
		return nil, err
	}
	ethPrice, err := medianizerRead.Call(ctx, c.resolver, ethFeed)
	if err != nil {
		return nil, err
	}

	collateral, err := rebalancingCurrent.Call(ctx, c.resolver, setAddr)
	if err != nil {
		return nil, err
	}
	components, err := collateralComponents.Call(ctx, c.resolver, collateral)
	if err != nil {
		return nil, err
	}
	units, err := collateralUnits.Call(ctx, c.resolver, collateral)
	if err != nil {
		return nil, err
	}
	naturalUnit, err := collateralNatural.Call(ctx, c.resolver, collateral)
	if err != nil {
		return nil, err
	}

	btcValue, ethValue := new(big.Int), new(big.Int)
	for i, component := range components {
		if i >= len(units) {
			break
		}
		switch component {
		case btcToken:
			scaled := new(big.Int).Mul(units[i], btcDecimalScale)
			if btcValue, err = preflight.MulDiv(btcPrice, scaled, naturalUnit); err != nil {
				return nil, err
			}
		case ethToken:
			if ethValue, err = preflight.MulDiv(ethPrice, units[i], naturalUnit); err != nil {
				return nil, err
			}
		}
	}
	total := new(big.Int).Add(btcValue, ethValue)
	if total.Sign() == 0 {
		return new(big.Int), nil
	}
	return preflight.MulDiv(btcValue, big.NewInt(10_000), total)
}
