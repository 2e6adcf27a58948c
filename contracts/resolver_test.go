package contracts_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"setprotocol/contracts"
	"setprotocol/contracts/contractstest"
	"setprotocol/crypto"
)

var (
	balanceOf = contracts.Method[*big.Int]{Kind: contracts.KindERC20, Name: "balanceOf", Decode: contracts.BigInt}
	symbol    = contracts.Method[string]{Kind: contracts.KindERC20, Name: "symbol", Decode: contracts.String}
	transfer  = contracts.Tx{Kind: contracts.KindERC20, Name: "transfer"}
)

func newSession(t *testing.T, opts ...contracts.Option) (*contractstest.Backend, *contracts.Resolver, *crypto.Wallet) {
	t.Helper()
	backend := contractstest.New()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	wallet, err := crypto.NewWallet(backend.ChainID(), key)
	require.NoError(t, err)
	opts = append([]contracts.Option{contracts.WithSigner(wallet)}, opts...)
	return backend, contracts.NewResolver(backend, opts...), wallet
}

func TestResolveReturnsCachedHandle(t *testing.T) {
	_, resolver, _ := newSession(t)
	addr := contractstest.Addr(1)

	first := resolver.Resolve(contracts.KindERC20, addr)
	second := resolver.Resolve(contracts.KindERC20, addr)
	if first != second {
		t.Fatalf("expected identical handles, got %p and %p", first, second)
	}
	require.Equal(t, addr, first.Address())
	require.Equal(t, contracts.KindERC20, first.Kind())

	asSet := resolver.Resolve(contracts.KindSetToken, addr)
	if asSet == first {
		t.Fatal("different kinds at one address must not share a handle")
	}
	require.Equal(t, 2, resolver.Len())
}

func TestResolveConcurrentConstructsOnce(t *testing.T) {
	_, resolver, _ := newSession(t)
	addr := contractstest.Addr(2)

	const workers = 32
	handles := make([]*contracts.Handle, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = resolver.Resolve(contracts.KindRebalancingSetToken, addr)
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if handles[i] != handles[0] {
			t.Fatalf("worker %d observed a different handle", i)
		}
	}
	require.Equal(t, 1, resolver.Len())
}

func TestCloseDiscardsHandles(t *testing.T) {
	_, resolver, _ := newSession(t)
	addr := contractstest.Addr(3)
	before := resolver.Resolve(contracts.KindVault, addr)

	resolver.Close()
	require.Equal(t, 0, resolver.Len())

	after := resolver.Resolve(contracts.KindVault, addr)
	if before == after {
		t.Fatal("expected a fresh handle after Close")
	}
}

func TestMethodCallDecodesOutput(t *testing.T) {
	backend, resolver, _ := newSession(t)
	token := contractstest.Addr(10)
	owner := contractstest.Addr(11)
	backend.Deploy(token, contracts.ABI(contracts.KindERC20)).
		On("balanceOf", func(call contractstest.Call) ([]any, error) {
			if call.Args[0].(common.Address) != owner {
				return []any{big.NewInt(0)}, nil
			}
			return []any{big.NewInt(42)}, nil
		})

	got, err := balanceOf.Call(context.Background(), resolver, token, owner)
	require.NoError(t, err)
	require.Equal(t, int64(42), got.Int64())
}

func TestMethodCallWrapsRevertReason(t *testing.T) {
	backend, resolver, _ := newSession(t)
	token := contractstest.Addr(12)
	backend.Deploy(token, contracts.ABI(contracts.KindERC20)).
		Revert("balanceOf", "Token paused at 0x00000000000000000000000000000000000010aa")

	_, err := balanceOf.Call(context.Background(), resolver, token, contractstest.Addr(13))
	require.Error(t, err)
	require.ErrorIs(t, err, contracts.ErrRemoteRejected)

	var rejected *contracts.RemoteRejected
	require.True(t, errors.As(err, &rejected))
	require.True(t, rejected.Reverted)
	require.Equal(t, "Token paused at 0x00000000000000000000000000000000000010aa", rejected.Message)
	require.Equal(t, rejected.Message, err.Error())
	require.Equal(t, "balanceOf", rejected.Method)
	require.Equal(t, token, rejected.Contract)
}

func TestMethodCallWithoutContract(t *testing.T) {
	_, resolver, _ := newSession(t)

	_, err := balanceOf.Call(context.Background(), resolver, contractstest.Addr(14), contractstest.Addr(15))
	require.ErrorIs(t, err, contracts.ErrRemoteRejected)

	var rejected *contracts.RemoteRejected
	require.True(t, errors.As(err, &rejected))
	require.False(t, rejected.Reverted)
}

func TestMethodCallDecodeMismatch(t *testing.T) {
	backend, resolver, _ := newSession(t)
	token := contractstest.Addr(16)
	backend.Deploy(token, contracts.ABI(contracts.KindERC20)).Returns("symbol", "SET")

	wrong := contracts.Method[*big.Int]{Kind: contracts.KindERC20, Name: "symbol", Decode: contracts.BigInt}
	_, err := wrong.Call(context.Background(), resolver, token)
	require.ErrorIs(t, err, contracts.ErrRemoteRejected)
	require.Contains(t, err.Error(), "decode ERC20.symbol")

	got, err := symbol.Call(context.Background(), resolver, token)
	require.NoError(t, err)
	require.Equal(t, "SET", got)
}

func TestTxSendSubmitsSignedTransaction(t *testing.T) {
	backend, resolver, wallet := newSession(t, contracts.WithGasDefaults(300_000, big.NewInt(2_000_000_000)))
	token := contractstest.Addr(20)
	recipient := contractstest.Addr(21)

	var moved *big.Int
	backend.Deploy(token, contracts.ABI(contracts.KindERC20)).
		OnSend("transfer", func(call contractstest.Call) ([]any, error) {
			moved = call.Args[1].(*big.Int)
			return []any{true}, nil
		})

	hash, err := transfer.Send(context.Background(), resolver, token, contracts.TxOpts{}, recipient, big.NewInt(7))
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	sent := backend.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, hash, sent[0].Hash.Hex())
	require.Equal(t, wallet.DefaultAccount(), sent[0].Call.From)
	require.Equal(t, "transfer", sent[0].Call.Method)
	require.Equal(t, int64(7), moved.Int64())

	receipt, err := backend.TransactionReceipt(context.Background(), common.HexToHash(hash))
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.Status)
}

func TestTxSendEstimatesWhenNoDefaults(t *testing.T) {
	backend, resolver, _ := newSession(t)
	token := contractstest.Addr(22)
	backend.Deploy(token, contracts.ABI(contracts.KindERC20))

	_, err := transfer.Send(context.Background(), resolver, token, contracts.TxOpts{}, contractstest.Addr(23), big.NewInt(1))
	require.NoError(t, err)
	require.Len(t, backend.Sent(), 1)
}

func TestTxSendSurfacesRevertBeforeSubmitting(t *testing.T) {
	backend, resolver, _ := newSession(t, contracts.WithGasDefaults(300_000, big.NewInt(1)))
	token := contractstest.Addr(24)
	backend.Deploy(token, contracts.ABI(contracts.KindERC20)).
		Revert("transfer", "ERC20: transfer amount exceeds balance")

	_, err := transfer.Send(context.Background(), resolver, token, contracts.TxOpts{}, contractstest.Addr(25), big.NewInt(1))
	require.EqualError(t, err, "ERC20: transfer amount exceeds balance")
	require.Empty(t, backend.Sent())
}

func TestTxSendRequiresSigner(t *testing.T) {
	backend := contractstest.New()
	resolver := contracts.NewResolver(backend)

	_, err := transfer.Send(context.Background(), resolver, contractstest.Addr(26), contracts.TxOpts{}, contractstest.Addr(27), big.NewInt(1))
	require.ErrorIs(t, err, contracts.ErrNoSigner)
}

func TestTxSendRejectsMalformedSender(t *testing.T) {
	backend, resolver, _ := newSession(t)

	_, err := transfer.Send(context.Background(), resolver, contractstest.Addr(28), contracts.TxOpts{From: "0x1234"}, contractstest.Addr(29), big.NewInt(1))
	require.ErrorIs(t, err, contracts.ErrInvalidArgument)
	require.Zero(t, backend.CallCount())
}

func TestTxSendUnknownSender(t *testing.T) {
	_, resolver, _ := newSession(t)

	_, err := transfer.Send(context.Background(), resolver, contractstest.Addr(30), contracts.TxOpts{From: contractstest.Hex(31)}, contractstest.Addr(32), big.NewInt(1))
	require.ErrorIs(t, err, crypto.ErrUnknownAccount)
}

func TestRateLimitHonoursContext(t *testing.T) {
	backend, resolver, _ := newSession(t, contracts.WithRateLimit(0.001, 1))
	token := contractstest.Addr(33)
	backend.Deploy(token, contracts.ABI(contracts.KindERC20)).Returns("symbol", "SET")

	_, err := symbol.Call(context.Background(), resolver, token)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = symbol.Call(ctx, resolver, token)
	require.Error(t, err)
	require.Equal(t, 1, backend.CallCount())
}

func TestChainTime(t *testing.T) {
	backend, resolver, _ := newSession(t)
	backend.SetTime(1_650_000_000)

	now, err := resolver.ChainTime(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1_650_000_000), now.Int64())
}
