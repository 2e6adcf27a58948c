package rebalancing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
)

// AuctionParameters are fixed when a rebalance is proposed.
type AuctionParameters struct {
	StartTime   *big.Int
	TimeToPivot *big.Int
	StartPrice  *big.Int
	PivotPrice  *big.Int
}

// BiddingParameters track the open auction.
type BiddingParameters struct {
	MinimumBid           *big.Int
	RemainingCurrentSets *big.Int
}

// Details summarises a rebalancing set.
type Details struct {
	Address           common.Address
	Name              string
	Symbol            string
	Manager           common.Address
	Factory           common.Address
	CurrentSet        common.Address
	State             contracts.RebalanceState
	UnitShares        *big.Int
	NaturalUnit       *big.Int
	TotalSupply       *big.Int
	RebalanceInterval *big.Int
	ProposalPeriod    *big.Int
	LastRebalancedAt  *big.Int
}

// ProposalDetails describes the pending proposal.
type ProposalDetails struct {
	State              contracts.RebalanceState
	NextSet            common.Address
	AuctionLibrary     common.Address
	ProposalStartTime  *big.Int
	AuctionTimeToPivot *big.Int
	AuctionStartPrice  *big.Int
	AuctionPivotPrice  *big.Int
}

// ProgressDetails describes the running auction.
type ProgressDetails struct {
	State                    contracts.RebalanceState
	AuctionLibrary           common.Address
	StartingCurrentSetAmount *big.Int
	Auction                  AuctionParameters
	Bidding                  BiddingParameters
}

// TokenFlow is one non-zero token movement of a bid.
type TokenFlow struct {
	Token  common.Address
	Amount *big.Int
}

// TokenFlowsDetails describes what a bid of a given quantity sends into and
// takes out of the set. Tokens, Inflow and Outflow are index aligned with the
// set's combined token array; Inflows and Outflows hold only the non-zero
// entries, each keyed by token address.
type TokenFlowsDetails struct {
	Tokens   []common.Address
	Inflow   []*big.Int
	Outflow  []*big.Int
	Inflows  []TokenFlow
	Outflows []TokenFlow
}

func decodeAuctionParameters(out []any) (AuctionParameters, error) {
	values, err := bigInts(out, 4)
	if err != nil {
		return AuctionParameters{}, err
	}
	return AuctionParameters{StartTime: values[0], TimeToPivot: values[1], StartPrice: values[2], PivotPrice: values[3]}, nil
}

func decodeBiddingParameters(out []any) (BiddingParameters, error) {
	values, err := bigInts(out, 2)
	if err != nil {
		return BiddingParameters{}, err
	}
	return BiddingParameters{MinimumBid: values[0], RemainingCurrentSets: values[1]}, nil
}

func decodeBidPrice(out []any) ([2][]*big.Int, error) {
	inflow, err := contracts.Field[[]*big.Int](out, 0)
	if err != nil {
		return [2][]*big.Int{}, err
	}
	outflow, err := contracts.Field[[]*big.Int](out, 1)
	if err != nil {
		return [2][]*big.Int{}, err
	}
	return [2][]*big.Int{inflow, outflow}, nil
}

func bigInts(out []any, n int) ([]*big.Int, error) {
	if len(out) != n {
		return nil, fmt.Errorf("expected %d outputs, got %d", n, len(out))
	}
	values := make([]*big.Int, n)
	for i := range values {
		v, err := contracts.Field[*big.Int](out, i)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// State returns the set's rebalance state.
func (c *Client) State(ctx context.Context, set string) (contracts.RebalanceState, error) {
	if c == nil {
		return 0, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return 0, err
	}
	return rebalanceState.Call(ctx, c.resolver, addr)
}

// CurrentSet returns the collateral set currently backing the rebalancing set.
func (c *Client) CurrentSet(ctx context.Context, set string) (common.Address, error) {
	if c == nil {
		return common.Address{}, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return common.Address{}, err
	}
	return currentSet.Call(ctx, c.resolver, addr)
}

// UnitShares returns the current set units backing one natural unit.
func (c *Client) UnitShares(ctx context.Context, set string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return nil, err
	}
	return unitShares.Call(ctx, c.resolver, addr)
}

// Details reads the set's configuration and current state.
func (c *Client) Details(ctx context.Context, set string) (*Details, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return nil, err
	}
	d := &Details{Address: addr}
	reads := []func() error{
		func() (err error) { d.Name, err = name.Call(ctx, c.resolver, addr); return },
		func() (err error) { d.Symbol, err = symbol.Call(ctx, c.resolver, addr); return },
		func() (err error) { d.Manager, err = manager.Call(ctx, c.resolver, addr); return },
		func() (err error) { d.Factory, err = factory.Call(ctx, c.resolver, addr); return },
		func() (err error) { d.CurrentSet, err = currentSet.Call(ctx, c.resolver, addr); return },
		func() (err error) { d.State, err = rebalanceState.Call(ctx, c.resolver, addr); return },
		func() (err error) { d.UnitShares, err = unitShares.Call(ctx, c.resolver, addr); return },
		func() (err error) { d.NaturalUnit, err = naturalUnit.Call(ctx, c.resolver, addr); return },
		func() (err error) { d.TotalSupply, err = totalSupply.Call(ctx, c.resolver, addr); return },
		func() (err error) { d.RebalanceInterval, err = rebalanceInterval.Call(ctx, c.resolver, addr); return },
		func() (err error) { d.ProposalPeriod, err = proposalPeriod.Call(ctx, c.resolver, addr); return },
		func() (err error) {
			d.LastRebalancedAt, err = lastRebalanceTimestamp.Call(ctx, c.resolver, addr)
			return
		},
	}
	for _, read := range reads {
		if err := read(); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// ProposalDetails reads the pending proposal. Fields are zero when the set
// has never been proposed to.
func (c *Client) ProposalDetails(ctx context.Context, set string) (*ProposalDetails, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return nil, err
	}
	d := &ProposalDetails{}
	if d.State, err = rebalanceState.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if d.NextSet, err = nextSet.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if d.AuctionLibrary, err = auctionLibrary.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if d.ProposalStartTime, err = proposalStartTime.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	auction, err := auctionParameters.Call(ctx, c.resolver, addr)
	if err != nil {
		return nil, err
	}
	d.AuctionTimeToPivot = auction.TimeToPivot
	d.AuctionStartPrice = auction.StartPrice
	d.AuctionPivotPrice = auction.PivotPrice
	return d, nil
}

// ProgressDetails reads the state of the running auction.
func (c *Client) ProgressDetails(ctx context.Context, set string) (*ProgressDetails, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return nil, err
	}
	d := &ProgressDetails{}
	if d.State, err = rebalanceState.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if d.AuctionLibrary, err = auctionLibrary.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if d.StartingCurrentSetAmount, err = startingCurrentSetAmount.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if d.Auction, err = auctionParameters.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if d.Bidding, err = biddingParameters.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	return d, nil
}

// BidPrice returns the token flows of bidding quantity at the current auction
// price.
func (c *Client) BidPrice(ctx context.Context, set string, quantity *big.Int) (*TokenFlowsDetails, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return nil, err
	}
	if err := contracts.RequirePositive("quantity", quantity); err != nil {
		return nil, err
	}
	if err := c.checkBid(ctx, addr, quantity, true); err != nil {
		return nil, err
	}
	tokens, err := combinedTokenArray.Call(ctx, c.resolver, addr)
	if err != nil {
		return nil, err
	}
	flows, err := bidPrice.Call(ctx, c.resolver, addr, quantity)
	if err != nil {
		return nil, err
	}
	return NewTokenFlows(tokens, flows[0], flows[1])
}

// NewTokenFlows pairs inflow and outflow arrays with the combined token array
// and extracts the non-zero movements.
func NewTokenFlows(tokens []common.Address, inflow, outflow []*big.Int) (*TokenFlowsDetails, error) {
	if len(inflow) != len(tokens) || len(outflow) != len(tokens) {
		return nil, fmt.Errorf("token flow arrays (%d inflow, %d outflow) do not match %d combined tokens",
			len(inflow), len(outflow), len(tokens))
	}
	details := &TokenFlowsDetails{Tokens: tokens, Inflow: inflow, Outflow: outflow}
	for i, token := range tokens {
		if inflow[i].Sign() != 0 {
			details.Inflows = append(details.Inflows, TokenFlow{Token: token, Amount: inflow[i]})
		}
		if outflow[i].Sign() != 0 {
			details.Outflows = append(details.Outflows, TokenFlow{Token: token, Amount: outflow[i]})
		}
	}
	return details, nil
}
