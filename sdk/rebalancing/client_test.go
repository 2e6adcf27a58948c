package rebalancing_test

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"setprotocol/contracts"
	"setprotocol/contracts/contractstest"
	"setprotocol/crypto"
	"setprotocol/sdk/rebalancing"
)

var (
	setAddr     = contractstest.Addr(1)
	moduleAddr  = contractstest.Addr(2)
	currentAddr = contractstest.Addr(3)
	nextAddr    = contractstest.Addr(4)
	libraryAddr = contractstest.Addr(5)
	tokenA      = contractstest.Addr(6)
	tokenB      = contractstest.Addr(7)
	tokenC      = contractstest.Addr(8)
)

// chainSet simulates the fields of a rebalancing set the client reads.
type chainSet struct {
	mu        sync.Mutex
	state     contracts.RebalanceState
	manager   common.Address
	last      int64
	interval  int64
	proposed  int64
	period    int64
	minBid    int64
	remaining int64
}

func (s *chainSet) get(f func() any) contractstest.Handler {
	return func(contractstest.Call) ([]any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return []any{f()}, nil
	}
}

type fixture struct {
	backend *contractstest.Backend
	set     *chainSet
	wallet  *crypto.Wallet
	client  *rebalancing.Client
}

func newFixture(t *testing.T, opts ...rebalancing.Option) *fixture {
	t.Helper()
	backend := contractstest.New()
	backend.SetTime(10_000)
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	wallet, err := crypto.NewWallet(backend.ChainID(), key)
	require.NoError(t, err)

	s := &chainSet{
		state:     contracts.StateDefault,
		manager:   wallet.DefaultAccount(),
		last:      5_000,
		interval:  1_000,
		period:    600,
		minBid:    100,
		remaining: 1_000,
	}
	backend.Deploy(setAddr, contracts.ABI(contracts.KindRebalancingSetToken)).
		On("rebalanceState", s.get(func() any { return uint8(s.state) })).
		On("manager", s.get(func() any { return s.manager })).
		On("lastRebalanceTimestamp", s.get(func() any { return big.NewInt(s.last) })).
		On("rebalanceInterval", s.get(func() any { return big.NewInt(s.interval) })).
		On("proposalStartTime", s.get(func() any { return big.NewInt(s.proposed) })).
		On("proposalPeriod", s.get(func() any { return big.NewInt(s.period) })).
		On("biddingParameters", func(contractstest.Call) ([]any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return []any{big.NewInt(s.minBid), big.NewInt(s.remaining)}, nil
		}).
		Returns("auctionParameters", big.NewInt(9_000), big.NewInt(3_600), big.NewInt(500), big.NewInt(1_000)).
		Returns("name", "BTC ETH Rebalancing Set").
		Returns("symbol", "BTCETH").
		Returns("factory", contractstest.Addr(90)).
		Returns("currentSet", currentAddr).
		Returns("nextSet", nextAddr).
		Returns("auctionLibrary", libraryAddr).
		Returns("unitShares", big.NewInt(1_000_000)).
		Returns("naturalUnit", big.NewInt(1_000_000)).
		Returns("totalSupply", big.NewInt(42)).
		Returns("startingCurrentSetAmount", big.NewInt(1_000)).
		Returns("getCombinedTokenArray", []common.Address{tokenA, tokenB, tokenC}).
		Returns("getBidPrice", contractstest.Units(0, 5, 7), contractstest.Units(3, 0, 0)).
		RevertIf("propose", func(contractstest.Call) string {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.state != contracts.StateDefault {
				return "RebalancingSetToken.propose: State must be Default"
			}
			return ""
		}).
		OnSend("propose", func(contractstest.Call) ([]any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.state = contracts.StateProposal
			s.proposed = int64(backend.Time())
			return nil, nil
		})
	backend.Deploy(moduleAddr, contracts.ABI(contracts.KindRebalanceAuctionModule))

	resolver := contracts.NewResolver(backend, contracts.WithSigner(wallet))
	return &fixture{
		backend: backend,
		set:     s,
		wallet:  wallet,
		client:  rebalancing.New(resolver, moduleAddr, opts...),
	}
}

func (f *fixture) setState(state contracts.RebalanceState) {
	f.set.mu.Lock()
	f.set.state = state
	f.set.mu.Unlock()
}

func proposal() rebalancing.ProposeParams {
	return rebalancing.ProposeParams{
		NextSet:            nextAddr.Hex(),
		AuctionLibrary:     libraryAddr.Hex(),
		AuctionTimeToPivot: big.NewInt(3_600),
		AuctionStartPrice:  big.NewInt(500),
		AuctionPivotPrice:  big.NewInt(1_000),
	}
}

func TestProposeThenStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.client.Propose(ctx, setAddr.Hex(), proposal(), contracts.TxOpts{})
	require.NoError(t, err)
	sent := f.backend.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "propose", sent[0].Call.Method)
	require.Equal(t, nextAddr, sent[0].Call.Args[0])

	state, err := f.client.State(ctx, setAddr.Hex())
	require.NoError(t, err)
	require.Equal(t, contracts.StateProposal, state)

	_, err = f.client.StartRebalance(ctx, setAddr.Hex(), contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrRebalanceIntervalPending)
	require.Contains(t, err.Error(), "Proposal period has not elapsed")

	f.backend.SetTime(f.backend.Time() + 600)
	_, err = f.client.StartRebalance(ctx, setAddr.Hex(), contracts.TxOpts{})
	require.NoError(t, err)
}

func TestProposeInWrongStateNamesAddressAndState(t *testing.T) {
	f := newFixture(t)
	f.setState(contracts.StateRebalance)

	_, err := f.client.Propose(context.Background(), setAddr.Hex(), proposal(), contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrInvalidState)
	require.EqualError(t, err, "Rebalancing token at "+setAddr.Hex()+" must be in Default state to call that function.")
	require.Empty(t, f.backend.Sent())
}

func TestProposeWithoutPreflightSurfacesRevert(t *testing.T) {
	f := newFixture(t, rebalancing.WithPreflight(false))
	f.setState(contracts.StateRebalance)

	_, err := f.client.Propose(context.Background(), setAddr.Hex(), proposal(), contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrRemoteRejected)
	require.EqualError(t, err, "RebalancingSetToken.propose: State must be Default")
}

func TestProposeRequiresManager(t *testing.T) {
	f := newFixture(t)
	stranger := contractstest.Hex(77)

	_, err := f.client.Propose(context.Background(), setAddr.Hex(), proposal(), contracts.TxOpts{From: stranger})
	require.ErrorIs(t, err, contracts.ErrNotManager)
	require.Contains(t, err.Error(), stranger)
}

func TestProposeTooSoon(t *testing.T) {
	f := newFixture(t)
	f.backend.SetTime(5_500)

	_, err := f.client.Propose(context.Background(), setAddr.Hex(), proposal(), contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrRebalanceIntervalPending)
	require.EqualError(t, err, "Attempting to rebalance too soon. Rebalancing next available on Thu Jan  1 01:40:00 UTC 1970")
}

func TestBidPriceFiltersZeroFlows(t *testing.T) {
	f := newFixture(t)
	f.setState(contracts.StateRebalance)

	flows, err := f.client.BidPrice(context.Background(), setAddr.Hex(), big.NewInt(200))
	require.NoError(t, err)
	require.Equal(t, []common.Address{tokenA, tokenB, tokenC}, flows.Tokens)
	require.Equal(t, []int64{0, 5, 7}, contractstest.Int64s(flows.Inflow))
	require.Equal(t, []int64{3, 0, 0}, contractstest.Int64s(flows.Outflow))

	require.Len(t, flows.Inflows, 2)
	require.Equal(t, tokenB, flows.Inflows[0].Token)
	require.Equal(t, int64(5), flows.Inflows[0].Amount.Int64())
	require.Equal(t, tokenC, flows.Inflows[1].Token)
	require.Len(t, flows.Outflows, 1)
	require.Equal(t, tokenA, flows.Outflows[0].Token)
}

func TestNewTokenFlowsRejectsMisalignedArrays(t *testing.T) {
	_, err := rebalancing.NewTokenFlows([]common.Address{tokenA}, contractstest.Units(1, 2), contractstest.Units(0))
	require.Error(t, err)
}

func TestBidValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.client.Bid(ctx, setAddr.Hex(), big.NewInt(100), false, contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrInvalidState)
	require.Contains(t, err.Error(), "must be in Rebalance state")

	f.setState(contracts.StateRebalance)
	_, err = f.client.Bid(ctx, setAddr.Hex(), big.NewInt(150), false, contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrBidQuantity)

	_, err = f.client.Bid(ctx, setAddr.Hex(), big.NewInt(2_000), false, contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrBidQuantity)
	require.Contains(t, err.Error(), "remaining current sets 1000")

	_, err = f.client.BidAndWithdraw(ctx, setAddr.Hex(), big.NewInt(300), false, contracts.TxOpts{})
	require.NoError(t, err)
	sent := f.backend.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, moduleAddr, sent[0].Call.To)
	require.Equal(t, "bidAndWithdraw", sent[0].Call.Method)
	require.Equal(t, setAddr, sent[0].Call.Args[0])
	require.Equal(t, false, sent[0].Call.Args[2])
}

func TestSettleAndEndFailedAuctionChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setState(contracts.StateRebalance)

	_, err := f.client.SettleRebalance(ctx, setAddr.Hex(), contracts.TxOpts{})
	require.ErrorContains(t, err, "remainingCurrentSets 1000 must be less than minimumBid 100")

	_, err = f.client.EndFailedAuction(ctx, setAddr.Hex(), contracts.TxOpts{})
	require.ErrorContains(t, err, "Pivot time not yet reached")

	f.backend.SetTime(12_600)
	_, err = f.client.EndFailedAuction(ctx, setAddr.Hex(), contracts.TxOpts{})
	require.NoError(t, err)
}

func TestWithdrawFromFailedRebalanceRequiresDrawdown(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.WithdrawFromFailedRebalance(context.Background(), setAddr.Hex(), contracts.TxOpts{})
	require.EqualError(t, err, "Rebalancing token at "+setAddr.Hex()+" must be in Drawdown state to call that function.")

	f.setState(contracts.StateDrawdown)
	_, err = f.client.WithdrawFromFailedRebalance(context.Background(), setAddr.Hex(), contracts.TxOpts{})
	require.NoError(t, err)
}

func TestDetailsAreStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.client.Details(ctx, setAddr.Hex())
	require.NoError(t, err)
	second, err := f.client.Details(ctx, setAddr.Hex())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, f.wallet.DefaultAccount(), first.Manager)
	require.Equal(t, currentAddr, first.CurrentSet)
	require.Equal(t, contracts.StateDefault, first.State)

	proposal, err := f.client.ProposalDetails(ctx, setAddr.Hex())
	require.NoError(t, err)
	require.Equal(t, nextAddr, proposal.NextSet)
	require.Equal(t, int64(3_600), proposal.AuctionTimeToPivot.Int64())

	progress, err := f.client.ProgressDetails(ctx, setAddr.Hex())
	require.NoError(t, err)
	require.Equal(t, int64(100), progress.Bidding.MinimumBid.Int64())
	require.Equal(t, int64(9_000), progress.Auction.StartTime.Int64())
}

func TestMalformedAddressesMakeNoCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bad := "0x0123"

	_, err := f.client.Details(ctx, bad)
	require.ErrorIs(t, err, contracts.ErrInvalidArgument)
	_, err = f.client.BidPrice(ctx, bad, big.NewInt(1))
	require.ErrorIs(t, err, contracts.ErrInvalidArgument)
	params := proposal()
	params.NextSet = bad
	_, err = f.client.Propose(ctx, setAddr.Hex(), params, contracts.TxOpts{})
	require.ErrorContains(t, err, "nextSet")
	_, err = f.client.UpdateManager(ctx, setAddr.Hex(), bad, contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrInvalidArgument)
	_, err = f.client.Bid(ctx, bad, big.NewInt(1), true, contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrInvalidArgument)

	require.Zero(t, f.backend.CallCount())
}

func TestMalformedSenderRejectedBeforeChainReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.setState(contracts.StateRebalance)
	opts := contracts.TxOpts{From: "0x0123"}

	sends := map[string]func() (string, error){
		"start":  func() (string, error) { return f.client.StartRebalance(ctx, setAddr.Hex(), opts) },
		"settle": func() (string, error) { return f.client.SettleRebalance(ctx, setAddr.Hex(), opts) },
		"end":    func() (string, error) { return f.client.EndFailedAuction(ctx, setAddr.Hex(), opts) },
		"bid":    func() (string, error) { return f.client.Bid(ctx, setAddr.Hex(), big.NewInt(100), false, opts) },
		"bid-withdraw": func() (string, error) {
			return f.client.BidAndWithdraw(ctx, setAddr.Hex(), big.NewInt(100), true, opts)
		},
		"drawdown": func() (string, error) { return f.client.WithdrawFromFailedRebalance(ctx, setAddr.Hex(), opts) },
	}
	for name, send := range sends {
		_, err := send()
		require.ErrorIs(t, err, contracts.ErrInvalidArgument, name)
		require.ErrorContains(t, err, `invalid from "0x0123"`, name)
	}
	require.Zero(t, f.backend.CallCount())
	require.Empty(t, f.backend.Sent())
}
