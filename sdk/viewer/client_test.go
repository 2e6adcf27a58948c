package viewer_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"setprotocol/contracts"
	"setprotocol/contracts/contractstest"
	"setprotocol/sdk/viewer"
)

var (
	viewerAddr = contractstest.Addr(1)
	owner      = contractstest.Addr(2)
	rebalSet   = contractstest.Addr(3)
	nextSet    = contractstest.Addr(4)
	library    = contractstest.Addr(5)
)

func newViewer(t *testing.T) (*contractstest.Backend, *viewer.Client) {
	t.Helper()
	backend := contractstest.New()
	supplies := map[common.Address]int64{contractstest.Addr(10): 1_000, contractstest.Addr(11): 0}
	backend.Deploy(viewerAddr, contracts.ABI(contracts.KindProtocolViewer)).
		On("batchFetchBalancesOf", func(call contractstest.Call) ([]any, error) {
			tokens := call.Args[0].([]common.Address)
			holder := call.Args[1].(common.Address)
			balances := make([]*big.Int, len(tokens))
			for i := range tokens {
				balances[i] = big.NewInt(0)
				if holder == owner {
					balances[i] = big.NewInt(int64(i+1) * 10)
				}
			}
			return []any{balances}, nil
		}).
		On("batchFetchSupplies", func(call contractstest.Call) ([]any, error) {
			tokens := call.Args[0].([]common.Address)
			out := make([]*big.Int, len(tokens))
			for i, token := range tokens {
				out[i] = big.NewInt(supplies[token])
			}
			return []any{out}, nil
		}).
		Returns("fetchRebalanceProposalStateAsync",
			uint8(contracts.StateProposal),
			[]common.Address{nextSet, library},
			contractstest.Units(1_700_000_000, 86_400, 500, 1_500)).
		Returns("fetchRebalanceAuctionStateAsync",
			uint8(contracts.StateRebalance),
			contractstest.Units(4_000, 1_700_003_600, 100, 2_500))
	return backend, viewer.New(contracts.NewResolver(backend), viewerAddr)
}

func TestBatchReadsAreIndexAligned(t *testing.T) {
	_, client := newViewer(t)
	ctx := context.Background()
	tokens := []string{contractstest.Hex(10), contractstest.Hex(11), contractstest.Hex(12)}

	balances, err := client.BatchBalancesOf(ctx, tokens, owner.Hex())
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20, 30}, contractstest.Int64s(balances))

	supplies, err := client.BatchSupplies(ctx, tokens)
	require.NoError(t, err)
	require.Equal(t, []int64{1_000, 0, 0}, contractstest.Int64s(supplies))
}

func TestRebalanceProposalState(t *testing.T) {
	_, client := newViewer(t)

	state, err := client.RebalanceProposalState(context.Background(), rebalSet.Hex())
	require.NoError(t, err)
	require.Equal(t, contracts.StateProposal, state.State)
	require.Equal(t, nextSet, state.NextSet)
	require.Equal(t, library, state.AuctionLibrary)
	require.Equal(t, int64(1_700_000_000), state.ProposalStartTime.Int64())
	require.Equal(t, int64(86_400), state.AuctionTimeToPivot.Int64())
	require.Equal(t, int64(500), state.AuctionStartPrice.Int64())
	require.Equal(t, int64(1_500), state.AuctionPivotPrice.Int64())
}

func TestRebalanceAuctionState(t *testing.T) {
	_, client := newViewer(t)

	state, err := client.RebalanceAuctionState(context.Background(), rebalSet.Hex())
	require.NoError(t, err)
	require.Equal(t, contracts.StateRebalance, state.State)
	require.Equal(t, "Rebalance", state.State.String())
	require.Equal(t, int64(4_000), state.StartingCurrentSetAmount.Int64())
	require.Equal(t, int64(100), state.MinimumBid.Int64())
	require.Equal(t, int64(2_500), state.RemainingCurrentSets.Int64())
}

func TestViewerValidation(t *testing.T) {
	backend, client := newViewer(t)
	ctx := context.Background()

	_, err := client.BatchBalancesOf(ctx, []string{contractstest.Hex(10), "0x12"}, owner.Hex())
	require.ErrorContains(t, err, `invalid tokens[1] "0x12"`)
	_, err = client.RebalanceAuctionState(ctx, "")
	require.ErrorIs(t, err, contracts.ErrInvalidArgument)
	require.Zero(t, backend.CallCount())

	unconfigured := viewer.New(contracts.NewResolver(backend), common.Address{})
	_, err = unconfigured.BatchSupplies(ctx, nil)
	require.ErrorIs(t, err, contracts.ErrNotConfigured)

	var nilClient *viewer.Client
	_, err = nilClient.RebalanceProposalState(ctx, rebalSet.Hex())
	require.ErrorIs(t, err, contracts.ErrNilClient)
}
