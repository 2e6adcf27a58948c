package erc20_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"setprotocol/contracts"
	"setprotocol/contracts/contractstest"
	"setprotocol/crypto"
	"setprotocol/sdk/erc20"
)

type fixture struct {
	backend *contractstest.Backend
	client  *erc20.Client
	wallet  *crypto.Wallet
	proxy   common.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := contractstest.New()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	wallet, err := crypto.NewWallet(backend.ChainID(), key)
	require.NoError(t, err)
	proxy := contractstest.Addr(99)
	resolver := contracts.NewResolver(backend, contracts.WithSigner(wallet))
	return &fixture{backend: backend, client: erc20.New(resolver, proxy), wallet: wallet, proxy: proxy}
}

func (f *fixture) deployToken(n int64, balances map[common.Address]*big.Int) common.Address {
	addr := contractstest.Addr(n)
	f.backend.Deploy(addr, contracts.ABI(contracts.KindERC20)).
		Returns("name", "Wrapped Ether").
		Returns("symbol", "WETH").
		Returns("decimals", uint8(18)).
		Returns("totalSupply", big.NewInt(1_000)).
		On("balanceOf", func(call contractstest.Call) ([]any, error) {
			if bal, ok := balances[call.Args[0].(common.Address)]; ok {
				return []any{bal}, nil
			}
			return []any{big.NewInt(0)}, nil
		})
	return addr
}

func TestReadsAreStable(t *testing.T) {
	f := newFixture(t)
	owner := contractstest.Addr(50)
	token := f.deployToken(1, map[common.Address]*big.Int{owner: big.NewInt(77)})
	ctx := context.Background()

	first, err := f.client.BalanceOf(ctx, token.Hex(), owner.Hex())
	require.NoError(t, err)
	second, err := f.client.BalanceOf(ctx, token.Hex(), owner.Hex())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, int64(77), first.Int64())

	name, err := f.client.Name(ctx, token.Hex())
	require.NoError(t, err)
	require.Equal(t, "Wrapped Ether", name)

	symbol, err := f.client.Symbol(ctx, token.Hex())
	require.NoError(t, err)
	require.Equal(t, "WETH", symbol)

	decimals, err := f.client.Decimals(ctx, token.Hex())
	require.NoError(t, err)
	require.Equal(t, uint8(18), decimals)
}

func TestBalancesOfIsIndexAligned(t *testing.T) {
	f := newFixture(t)
	owner := contractstest.Addr(50)
	a := f.deployToken(1, map[common.Address]*big.Int{owner: big.NewInt(5)})
	b := f.deployToken(2, nil)

	balances, err := f.client.BalancesOf(context.Background(), []string{a.Hex(), b.Hex()}, owner.Hex())
	require.NoError(t, err)
	require.Equal(t, []int64{5, 0}, contractstest.Int64s(balances))

	supplies, err := f.client.TotalSupplies(context.Background(), []string{a.Hex(), b.Hex()})
	require.NoError(t, err)
	require.Equal(t, []int64{1_000, 1_000}, contractstest.Int64s(supplies))
}

func TestMalformedAddressesMakeNoCalls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	good := contractstest.Hex(1)
	bad := "0xnot-an-address"

	checks := map[string]func() error{
		"balance token": func() error { _, err := f.client.BalanceOf(ctx, bad, good); return err },
		"balance owner": func() error { _, err := f.client.BalanceOf(ctx, good, bad); return err },
		"balances":      func() error { _, err := f.client.BalancesOf(ctx, []string{good, bad}, good); return err },
		"supply":        func() error { _, err := f.client.TotalSupply(ctx, bad); return err },
		"allowance":     func() error { _, err := f.client.Allowance(ctx, good, good, bad); return err },
		"transfer": func() error {
			_, err := f.client.Transfer(ctx, good, bad, big.NewInt(1), contracts.TxOpts{})
			return err
		},
		"transfer from": func() error {
			_, err := f.client.TransferFrom(ctx, good, bad, good, big.NewInt(1), contracts.TxOpts{})
			return err
		},
		"approve": func() error {
			_, err := f.client.Approve(ctx, bad, good, big.NewInt(1), contracts.TxOpts{})
			return err
		},
		"approve proxy": func() error { _, err := f.client.ApproveProxy(ctx, bad, contracts.TxOpts{}); return err },
		"sender override": func() error {
			_, err := f.client.Transfer(ctx, good, good, big.NewInt(1), contracts.TxOpts{From: bad})
			return err
		},
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			err := check()
			require.ErrorIs(t, err, contracts.ErrInvalidArgument)
			require.Contains(t, err.Error(), bad)
		})
	}
	require.Zero(t, f.backend.CallCount())
	require.Empty(t, f.backend.Sent())
}

func TestApproveProxyGrantsUnlimitedAllowance(t *testing.T) {
	f := newFixture(t)
	token := f.deployToken(3, nil)

	var spender common.Address
	var amount *big.Int
	f.backend.Deploy(token, contracts.ABI(contracts.KindERC20)).
		OnSend("approve", func(call contractstest.Call) ([]any, error) {
			spender = call.Args[0].(common.Address)
			amount = call.Args[1].(*big.Int)
			return []any{true}, nil
		})

	hash, err := f.client.ApproveProxy(context.Background(), token.Hex(), contracts.TxOpts{})
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.Equal(t, f.proxy, spender)
	require.Equal(t, 0, amount.Cmp(erc20.UnlimitedAllowance))
}

func TestApproveProxyRequiresConfiguration(t *testing.T) {
	backend := contractstest.New()
	client := erc20.New(contracts.NewResolver(backend), common.Address{})

	_, err := client.ApproveProxy(context.Background(), contractstest.Hex(1), contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrNotConfigured)
}

func TestNilClient(t *testing.T) {
	var client *erc20.Client
	_, err := client.BalanceOf(context.Background(), contractstest.Hex(1), contractstest.Hex(2))
	require.ErrorIs(t, err, contracts.ErrNilClient)
}
