// Package rebalancing drives the RebalancingSetToken lifecycle and bids in
// its auctions through the RebalanceAuctionModule.
package rebalancing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
	"setprotocol/sdk/internal/preflight"
)

const kind = contracts.KindRebalancingSetToken

var (
	propose          = contracts.Tx{Kind: kind, Name: "propose"}
	startRebalance   = contracts.Tx{Kind: kind, Name: "startRebalance"}
	settleRebalance  = contracts.Tx{Kind: kind, Name: "settleRebalance"}
	endFailedAuction = contracts.Tx{Kind: kind, Name: "endFailedAuction"}
	setManager       = contracts.Tx{Kind: kind, Name: "setManager"}

	bid                         = contracts.Tx{Kind: contracts.KindRebalanceAuctionModule, Name: "bid"}
	bidAndWithdraw              = contracts.Tx{Kind: contracts.KindRebalanceAuctionModule, Name: "bidAndWithdraw"}
	withdrawFromFailedRebalance = contracts.Tx{Kind: contracts.KindRebalanceAuctionModule, Name: "withdrawFromFailedRebalance"}

	rebalanceState           = contracts.Method[contracts.RebalanceState]{Kind: kind, Name: "rebalanceState", Decode: contracts.RebalanceStateDecoder}
	manager                  = contracts.Method[common.Address]{Kind: kind, Name: "manager", Decode: contracts.Address}
	currentSet               = contracts.Method[common.Address]{Kind: kind, Name: "currentSet", Decode: contracts.Address}
	nextSet                  = contracts.Method[common.Address]{Kind: kind, Name: "nextSet", Decode: contracts.Address}
	auctionLibrary           = contracts.Method[common.Address]{Kind: kind, Name: "auctionLibrary", Decode: contracts.Address}
	factory                  = contracts.Method[common.Address]{Kind: kind, Name: "factory", Decode: contracts.Address}
	unitShares               = contracts.Method[*big.Int]{Kind: kind, Name: "unitShares", Decode: contracts.BigInt}
	naturalUnit              = contracts.Method[*big.Int]{Kind: kind, Name: "naturalUnit", Decode: contracts.BigInt}
	rebalanceInterval        = contracts.Method[*big.Int]{Kind: kind, Name: "rebalanceInterval", Decode: contracts.BigInt}
	lastRebalanceTimestamp   = contracts.Method[*big.Int]{Kind: kind, Name: "lastRebalanceTimestamp", Decode: contracts.BigInt}
	proposalPeriod           = contracts.Method[*big.Int]{Kind: kind, Name: "proposalPeriod", Decode: contracts.BigInt}
	proposalStartTime        = contracts.Method[*big.Int]{Kind: kind, Name: "proposalStartTime", Decode: contracts.BigInt}
	startingCurrentSetAmount = contracts.Method[*big.Int]{Kind: kind, Name: "startingCurrentSetAmount", Decode: contracts.BigInt}
	totalSupply              = contracts.Method[*big.Int]{Kind: kind, Name: "totalSupply", Decode: contracts.BigInt}
	name                     = contracts.Method[string]{Kind: kind, Name: "name", Decode: contracts.String}
	symbol                   = contracts.Method[string]{Kind: kind, Name: "symbol", Decode: contracts.String}
	combinedTokenArray       = contracts.Method[[]common.Address]{Kind: kind, Name: "getCombinedTokenArray", Decode: contracts.Addresses}
	auctionParameters        = contracts.Method[AuctionParameters]{Kind: kind, Name: "auctionParameters", Decode: decodeAuctionParameters}
	biddingParameters        = contracts.Method[BiddingParameters]{Kind: kind, Name: "biddingParameters", Decode: decodeBiddingParameters}
	bidPrice                 = contracts.Method[[2][]*big.Int]{Kind: kind, Name: "getBidPrice", Decode: decodeBidPrice}
)

// Option configures a Client.
type Option func(*Client)

// WithPreflight toggles the state and timing checks run before each
// transaction.
func WithPreflight(enabled bool) Option {
	return func(c *Client) {
		c.preflightEnabled = enabled
	}
}

// Client drives rebalancing sets.
type Client struct {
	resolver         *contracts.Resolver
	auctionModule    common.Address
	preflightEnabled bool
	checks           *preflight.Checker
}

// New wraps resolver. auctionModule is the RebalanceAuctionModule bids are
// placed through.
func New(resolver *contracts.Resolver, auctionModule common.Address, opts ...Option) *Client {
	c := &Client{resolver: resolver, auctionModule: auctionModule, preflightEnabled: true}
	for _, opt := range opts {
		opt(c)
	}
	c.checks = preflight.New(resolver, c.preflightEnabled)
	return c
}

// ProposeParams describes the rebalance the manager proposes.
type ProposeParams struct {
	NextSet            string
	AuctionLibrary     string
	AuctionTimeToPivot *big.Int
	AuctionStartPrice  *big.Int
	AuctionPivotPrice  *big.Int
}

// Propose moves a Default set into Proposal. Only the set's manager may call
// it, and only once the rebalance interval has passed.
func (c *Client) Propose(ctx context.Context, set string, params ProposeParams, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	setAddr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return "", err
	}
	nextAddr, err := contracts.ParseAddress("nextSet", params.NextSet)
	if err != nil {
		return "", err
	}
	libraryAddr, err := contracts.ParseAddress("auctionLibrary", params.AuctionLibrary)
	if err != nil {
		return "", err
	}
	if err := contracts.RequirePositive("auctionTimeToPivot", params.AuctionTimeToPivot); err != nil {
		return "", err
	}
	if err := contracts.RequireNonNegative("auctionStartPrice", params.AuctionStartPrice); err != nil {
		return "", err
	}
	if err := contracts.RequireNonNegative("auctionPivotPrice", params.AuctionPivotPrice); err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if c.checks.Enabled() {
		sender, err := c.resolver.Sender(opts)
		if err != nil {
			return "", err
		}
		if err := c.checks.RequireManager(ctx, setAddr, sender); err != nil {
			return "", err
		}
		if err := c.checks.RequireState(ctx, setAddr, contracts.StateDefault); err != nil {
			return "", err
		}
		if err := c.checks.RequireIntervalElapsed(ctx, setAddr); err != nil {
			return "", err
		}
	}
	return propose.Send(ctx, c.resolver, setAddr, opts, nextAddr, libraryAddr,
		params.AuctionTimeToPivot, params.AuctionStartPrice, params.AuctionPivotPrice)
}

// StartRebalance moves a Proposal set into Rebalance once the proposal period
// has elapsed.
func (c *Client) StartRebalance(ctx context.Context, set string, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	setAddr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if c.checks.Enabled() {
		if err := c.checks.RequireState(ctx, setAddr, contracts.StateProposal); err != nil {
			return "", err
		}
		start, err := proposalStartTime.Call(ctx, c.resolver, setAddr)
		if err != nil {
			return "", err
		}
		period, err := proposalPeriod.Call(ctx, c.resolver, setAddr)
		if err != nil {
			return "", err
		}
		now, err := c.checks.Now(ctx)
		if err != nil {
			return "", err
		}
		ready := new(big.Int).Add(start, period)
		if now.Cmp(ready) < 0 {
			return "", contracts.Assertion(contracts.ErrRebalanceIntervalPending,
				"Proposal period has not elapsed. Rebalancing can begin at %s", preflight.FormatTime(ready))
		}
	}
	return startRebalance.Send(ctx, c.resolver, setAddr, opts)
}

// SettleRebalance completes a Rebalance once fewer than one minimum bid of
// current sets remain.
func (c *Client) SettleRebalance(ctx context.Context, set string, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	setAddr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if c.checks.Enabled() {
		if err := c.checks.RequireState(ctx, setAddr, contracts.StateRebalance); err != nil {
			return "", err
		}
		bidding, err := biddingParameters.Call(ctx, c.resolver, setAddr)
		if err != nil {
			return "", err
		}
		if bidding.RemainingCurrentSets.Cmp(bidding.MinimumBid) >= 0 {
			return "", contracts.Assertion(contracts.ErrInvalidState,
				"In order to settle rebalance, remainingCurrentSets %s must be less than minimumBid %s.",
				bidding.RemainingCurrentSets, bidding.MinimumBid)
		}
	}
	return settleRebalance.Send(ctx, c.resolver, setAddr, opts)
}

// EndFailedAuction moves a Rebalance whose auction passed its pivot time
// without settling into Drawdown.
func (c *Client) EndFailedAuction(ctx context.Context, set string, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	setAddr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if c.checks.Enabled() {
		if err := c.checks.RequireState(ctx, setAddr, contracts.StateRebalance); err != nil {
			return "", err
		}
		auction, err := auctionParameters.Call(ctx, c.resolver, setAddr)
		if err != nil {
			return "", err
		}
		now, err := c.checks.Now(ctx)
		if err != nil {
			return "", err
		}
		pivot := new(big.Int).Add(auction.StartTime, auction.TimeToPivot)
		if now.Cmp(pivot) < 0 {
			return "", contracts.Assertion(contracts.ErrInvalidState,
				"Pivot time not yet reached. Pivot time starts at %s", preflight.FormatTime(pivot))
		}
		bidding, err := biddingParameters.Call(ctx, c.resolver, setAddr)
		if err != nil {
			return "", err
		}
		if bidding.RemainingCurrentSets.Cmp(bidding.MinimumBid) < 0 {
			return "", contracts.Assertion(contracts.ErrInvalidState,
				"Auction has no remaining bids. Rebalancing set at %s can be settled instead.", setAddr.Hex())
		}
	}
	return endFailedAuction.Send(ctx, c.resolver, setAddr, opts)
}

// UpdateManager hands control of the set to newManager.
func (c *Client) UpdateManager(ctx context.Context, set, newManager string, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	setAddr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return "", err
	}
	managerAddr, err := contracts.ParseAddress("newManager", newManager)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if c.checks.Enabled() {
		sender, err := c.resolver.Sender(opts)
		if err != nil {
			return "", err
		}
		if err := c.checks.RequireManager(ctx, setAddr, sender); err != nil {
			return "", err
		}
	}
	return setManager.Send(ctx, c.resolver, setAddr, opts, managerAddr)
}

// Bid exchanges quantity of the current set for the next set during a
// Rebalance. With allowPartialFill the module fills whatever remains.
func (c *Client) Bid(ctx context.Context, set string, quantity *big.Int, allowPartialFill bool, opts contracts.TxOpts) (string, error) {
	return c.placeBid(ctx, bid, set, quantity, allowPartialFill, opts)
}

// BidAndWithdraw bids like Bid and withdraws the proceeds from the Vault in
// the same transaction.
func (c *Client) BidAndWithdraw(ctx context.Context, set string, quantity *big.Int, allowPartialFill bool, opts contracts.TxOpts) (string, error) {
	return c.placeBid(ctx, bidAndWithdraw, set, quantity, allowPartialFill, opts)
}

func (c *Client) placeBid(ctx context.Context, tx contracts.Tx, set string, quantity *big.Int, allowPartialFill bool, opts contracts.TxOpts) (string, error) {
	if err := c.requireModule(); err != nil {
		return "", err
	}
	setAddr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return "", err
	}
	if err := contracts.RequirePositive("quantity", quantity); err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if err := c.checkBid(ctx, setAddr, quantity, allowPartialFill); err != nil {
		return "", err
	}
	return tx.Send(ctx, c.resolver, c.auctionModule, opts, setAddr, quantity, allowPartialFill)
}

func (c *Client) checkBid(ctx context.Context, setAddr common.Address, quantity *big.Int, allowPartialFill bool) error {
	if !c.checks.Enabled() {
		return nil
	}
	if err := c.checks.RequireState(ctx, setAddr, contracts.StateRebalance); err != nil {
		return err
	}
	bidding, err := biddingParameters.Call(ctx, c.resolver, setAddr)
	if err != nil {
		return err
	}
	if !preflight.IsMultiple(quantity, bidding.MinimumBid) {
		return contracts.Assertion(contracts.ErrBidQuantity,
			"Bid quantity %s must be a multiple of the minimum bid %s.", quantity, bidding.MinimumBid)
	}
	if !allowPartialFill && quantity.Cmp(bidding.RemainingCurrentSets) > 0 {
		return contracts.Assertion(contracts.ErrBidQuantity,
			"The quantity %s must be less than or equal to the remaining current sets %s.", quantity, bidding.RemainingCurrentSets)
	}
	return nil
}

// WithdrawFromFailedRebalance returns the sender's pro-rata share of
// collateral from a set in Drawdown.
func (c *Client) WithdrawFromFailedRebalance(ctx context.Context, set string, opts contracts.TxOpts) (string, error) {
	if err := c.requireModule(); err != nil {
		return "", err
	}
	setAddr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if err := c.checks.RequireState(ctx, setAddr, contracts.StateDrawdown); err != nil {
		return "", err
	}
	return withdrawFromFailedRebalance.Send(ctx, c.resolver, c.auctionModule, opts, setAddr)
}

func (c *Client) requireModule() error {
	if c == nil {
		return contracts.ErrNilClient
	}
	if c.auctionModule == (common.Address{}) {
		return fmt.Errorf("rebalance auction module: %w", contracts.ErrNotConfigured)
	}
	return nil
}
