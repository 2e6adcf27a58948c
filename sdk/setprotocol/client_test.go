package setprotocol_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"setprotocol/contracts"
	"setprotocol/contracts/contractstest"
	"setprotocol/crypto"
	"setprotocol/sdk/issuance"
	"setprotocol/sdk/setprotocol"
)

var (
	token     = contractstest.Addr(1)
	brittle   = contractstest.Addr(2)
	recipient = contractstest.Addr(3)
)

func newSession(t *testing.T, cfg setprotocol.Config) (*contractstest.Backend, *setprotocol.Client) {
	t.Helper()
	backend := contractstest.New()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	wallet, err := crypto.NewWallet(backend.ChainID(), key)
	require.NoError(t, err)

	backend.Deploy(token, contracts.ABI(contracts.KindERC20)).
		Returns("symbol", "WETH").
		Returns("balanceOf", big.NewInt(5))
	backend.Deploy(brittle, contracts.ABI(contracts.KindERC20)).
		OnSend("transfer", func(contractstest.Call) ([]any, error) {
			return nil, errors.New("out of gas")
		})

	client := setprotocol.New(backend, cfg, contracts.WithSigner(wallet))
	t.Cleanup(client.Close)
	return backend, client
}

func TestAwaitTransactionMined(t *testing.T) {
	_, client := newSession(t, setprotocol.Config{})
	ctx := context.Background()

	hash, err := client.ERC20.Transfer(ctx, token.Hex(), recipient.Hex(), big.NewInt(1), contracts.TxOpts{})
	require.NoError(t, err)

	receipt, err := client.AwaitTransactionMined(ctx, hash, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	require.Equal(t, hash, receipt.TxHash.Hex())
}

func TestAwaitTransactionMinedReportsFailure(t *testing.T) {
	_, client := newSession(t, setprotocol.Config{})
	ctx := context.Background()

	hash, err := client.ERC20.Transfer(ctx, brittle.Hex(), recipient.Hex(), big.NewInt(1), contracts.TxOpts{})
	require.NoError(t, err)

	receipt, err := client.AwaitTransactionMined(ctx, hash, time.Millisecond)
	require.ErrorIs(t, err, setprotocol.ErrTransactionFailed)
	require.NotNil(t, receipt)
	require.Equal(t, types.ReceiptStatusFailed, receipt.Status)
}

func TestAwaitTransactionMinedHonoursContext(t *testing.T) {
	_, client := newSession(t, setprotocol.Config{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.AwaitTransactionMined(ctx, common.HexToHash("0x01").Hex(), 5*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = client.AwaitTransactionMined(context.Background(), "0x01", 0)
	require.ErrorIs(t, err, contracts.ErrInvalidArgument)
}

func TestSessionSharesOneResolver(t *testing.T) {
	_, client := newSession(t, setprotocol.Config{})
	ctx := context.Background()

	_, err := client.ERC20.Symbol(ctx, token.Hex())
	require.NoError(t, err)
	_, err = client.ERC20.BalanceOf(ctx, token.Hex(), recipient.Hex())
	require.NoError(t, err)
	require.Equal(t, 1, client.Resolver().Len())

	client.Close()
	require.Zero(t, client.Resolver().Len())
}

func TestSessionWiresConfiguredAddresses(t *testing.T) {
	addrs := setprotocol.Addresses{TransferProxy: contractstest.Addr(40)}
	_, client := newSession(t, setprotocol.Config{Addresses: addrs, GasLimit: 90_000})
	ctx := context.Background()

	require.Equal(t, addrs, client.Addresses())

	_, err := client.Viewer.BatchSupplies(ctx, []string{token.Hex()})
	require.ErrorIs(t, err, contracts.ErrNotConfigured)
	_, err = client.Issuance.Issue(ctx, token.Hex(), big.NewInt(1), contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrNotConfigured)
}

func TestSessionWiresFactories(t *testing.T) {
	addrs := setprotocol.Addresses{Core: contractstest.Addr(41), SetTokenFactory: contractstest.Addr(42)}
	backend, client := newSession(t, setprotocol.Config{Addresses: addrs})
	backend.Deploy(addrs.Core, contracts.ABI(contracts.KindCore))
	ctx := context.Background()

	_, err := client.Issuance.CreateSet(ctx, issuance.CreateSetParams{
		Components:  []string{token.Hex()},
		Units:       contractstest.Units(1),
		NaturalUnit: big.NewInt(1),
		Name:        "WETH Set",
		Symbol:      "WETHS",
	}, contracts.TxOpts{})
	require.NoError(t, err)
	require.Equal(t, addrs.SetTokenFactory, backend.Sent()[0].Call.Args[0])

	_, err = client.Issuance.CreateRebalancingSet(ctx, issuance.CreateRebalancingSetParams{}, contracts.TxOpts{})
	require.ErrorIs(t, err, contracts.ErrNotConfigured)
}

func TestDialRequiresURL(t *testing.T) {
	_, err := setprotocol.Dial(context.Background(), setprotocol.Config{})
	require.ErrorContains(t, err, "rpc url required")
}
