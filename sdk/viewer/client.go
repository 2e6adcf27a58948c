// Package viewer batches reads through the protocol's ProtocolViewer so that
// several balances, supplies or auction fields arrive in a single call.
package viewer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
)

var (
	batchBalancesOf = contracts.Method[[]*big.Int]{Kind: contracts.KindProtocolViewer, Name: "batchFetchBalancesOf", Decode: contracts.BigInts}
	batchSupplies   = contracts.Method[[]*big.Int]{Kind: contracts.KindProtocolViewer, Name: "batchFetchSupplies", Decode: contracts.BigInts}
	proposalState   = contracts.Method[*ProposalState]{Kind: contracts.KindProtocolViewer, Name: "fetchRebalanceProposalStateAsync", Decode: decodeProposalState}
	auctionState    = contracts.Method[*AuctionState]{Kind: contracts.KindProtocolViewer, Name: "fetchRebalanceAuctionStateAsync", Decode: decodeAuctionState}
)

// ProposalState is the proposal snapshot of a rebalancing set.
type ProposalState struct {
	State              contracts.RebalanceState
	NextSet            common.Address
	AuctionLibrary     common.Address
	ProposalStartTime  *big.Int
	AuctionTimeToPivot *big.Int
	AuctionStartPrice  *big.Int
	AuctionPivotPrice  *big.Int
}

// AuctionState is the auction snapshot of a rebalancing set.
type AuctionState struct {
	State                    contracts.RebalanceState
	StartingCurrentSetAmount *big.Int
	AuctionStartTime         *big.Int
	MinimumBid               *big.Int
	RemainingCurrentSets     *big.Int
}

func decodeProposalState(out []any) (*ProposalState, error) {
	state, err := contracts.RebalanceStateDecoder(out)
	if err != nil {
		return nil, err
	}
	addresses, err := contracts.Field[[]common.Address](out, 1)
	if err != nil {
		return nil, err
	}
	values, err := contracts.Field[[]*big.Int](out, 2)
	if err != nil {
		return nil, err
	}
	if len(addresses) != 2 || len(values) != 4 {
		return nil, fmt.Errorf("proposal state has %d addresses and %d values, want 2 and 4", len(addresses), len(values))
	}
	return &ProposalState{
		State:              state,
		NextSet:            addresses[0],
		AuctionLibrary:     addresses[1],
		ProposalStartTime:  values[0],
		AuctionTimeToPivot: values[1],
		AuctionStartPrice:  values[2],
		AuctionPivotPrice:  values[3],
	}, nil
}

func decodeAuctionState(out []any) (*AuctionState, error) {
	state, err := contracts.RebalanceStateDecoder(out)
	if err != nil {
		return nil, err
	}
	values, err := contracts.Field[[]*big.Int](out, 1)
	if err != nil {
		return nil, err
	}
	if len(values) != 4 {
		return nil, fmt.Errorf("auction state has %d values, want 4", len(values))
	}
	return &AuctionState{
		State:                    state,
		StartingCurrentSetAmount: values[0],
		AuctionStartTime:         values[1],
		MinimumBid:               values[2],
		RemainingCurrentSets:     values[3],
	}, nil
}

// Client reads through a ProtocolViewer deployment.
type Client struct {
	resolver *contracts.Resolver
	viewer   common.Address
}

// New wraps resolver. viewer is the ProtocolViewer address; every method
// fails with contracts.ErrNotConfigured while it is zero.
func New(resolver *contracts.Resolver, viewer common.Address) *Client {
	return &Client{resolver: resolver, viewer: viewer}
}

func (c *Client) ready() error {
	if c == nil {
		return contracts.ErrNilClient
	}
	if c.viewer == (common.Address{}) {
		return fmt.Errorf("protocolViewer: %w", contracts.ErrNotConfigured)
	}
	return nil
}

// BatchBalancesOf returns owner's balance of each token in one call, index
// aligned with tokens.
func (c *Client) BatchBalancesOf(ctx context.Context, tokens []string, owner string) ([]*big.Int, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	tokenAddrs, err := contracts.ParseAddresses("tokens", tokens)
	if err != nil {
		return nil, err
	}
	ownerAddr, err := contracts.ParseAddress("owner", owner)
	if err != nil {
		return nil, err
	}
	balances, err := batchBalancesOf.Call(ctx, c.resolver, c.viewer, tokenAddrs, ownerAddr)
	if err != nil {
		return nil, err
	}
	if len(balances) != len(tokenAddrs) {
		return nil, fmt.Errorf("viewer returned %d balances for %d tokens", len(balances), len(tokenAddrs))
	}
	return balances, nil
}

// BatchSupplies returns the total supply of each token in one call.
func (c *Client) BatchSupplies(ctx context.Context, tokens []string) ([]*big.Int, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	tokenAddrs, err := contracts.ParseAddresses("tokens", tokens)
	if err != nil {
		return nil, err
	}
	supplies, err := batchSupplies.Call(ctx, c.resolver, c.viewer, tokenAddrs)
	if err != nil {
		return nil, err
	}
	if len(supplies) != len(tokenAddrs) {
		return nil, fmt.Errorf("viewer returned %d supplies for %d tokens", len(supplies), len(tokenAddrs))
	}
	return supplies, nil
}

// RebalanceProposalState reads a rebalancing set's proposal fields.
func (c *Client) RebalanceProposalState(ctx context.Context, set string) (*ProposalState, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	addr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return nil, err
	}
	return proposalState.Call(ctx, c.resolver, c.viewer, addr)
}

// RebalanceAuctionState reads a rebalancing set's auction fields.
func (c *Client) RebalanceAuctionState(ctx context.Context, set string) (*AuctionState, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	addr, err := contracts.ParseAddress("rebalancingSet", set)
	if err != nil {
		return nil, err
	}
	return auctionState.Call(ctx, c.resolver, c.viewer, addr)
}
