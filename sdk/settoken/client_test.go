package settoken_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"setprotocol/contracts"
	"setprotocol/contracts/contractstest"
	"setprotocol/sdk/settoken"
)

func deploySet(backend *contractstest.Backend, addr common.Address) *contractstest.Contract {
	return backend.Deploy(addr, contracts.ABI(contracts.KindSetToken)).
		Returns("name", "BTC ETH 50/50").
		Returns("symbol", "BTCETH").
		Returns("factory", contractstest.Addr(90)).
		Returns("naturalUnit", big.NewInt(10)).
		Returns("totalSupply", big.NewInt(5_000)).
		Returns("getComponents", []common.Address{contractstest.Addr(2), contractstest.Addr(3)}).
		Returns("getUnits", contractstest.Units(1, 30))
}

func TestDetails(t *testing.T) {
	backend := contractstest.New()
	set := contractstest.Addr(1)
	deploySet(backend, set)
	client := settoken.New(contracts.NewResolver(backend))

	details, err := client.Details(context.Background(), set.Hex())
	require.NoError(t, err)
	require.Equal(t, set, details.Address)
	require.Equal(t, "BTC ETH 50/50", details.Name)
	require.Equal(t, "BTCETH", details.Symbol)
	require.Equal(t, contractstest.Addr(90), details.Factory)
	require.Equal(t, int64(10), details.NaturalUnit.Int64())
	require.Equal(t, []settoken.Component{
		{Address: contractstest.Addr(2), Unit: big.NewInt(1)},
		{Address: contractstest.Addr(3), Unit: big.NewInt(30)},
	}, details.Components)

	again, err := client.Details(context.Background(), set.Hex())
	require.NoError(t, err)
	require.Equal(t, details, again)
}

func TestMismatchedComponentsAndUnits(t *testing.T) {
	backend := contractstest.New()
	set := contractstest.Addr(1)
	deploySet(backend, set).Returns("getUnits", contractstest.Units(1))
	client := settoken.New(contracts.NewResolver(backend))

	_, err := client.Composition(context.Background(), set.Hex())
	require.ErrorContains(t, err, "2 components but 1 units")
}

func TestIsMultipleOfNaturalUnit(t *testing.T) {
	backend := contractstest.New()
	set := contractstest.Addr(1)
	deploySet(backend, set)
	client := settoken.New(contracts.NewResolver(backend))

	ok, err := client.IsMultipleOfNaturalUnit(context.Background(), set.Hex(), big.NewInt(120))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.IsMultipleOfNaturalUnit(context.Background(), set.Hex(), big.NewInt(125))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = client.IsMultipleOfNaturalUnit(context.Background(), set.Hex(), big.NewInt(0))
	require.ErrorIs(t, err, contracts.ErrInvalidArgument)
}

func TestMalformedSetAddress(t *testing.T) {
	backend := contractstest.New()
	client := settoken.New(contracts.NewResolver(backend))

	_, err := client.Details(context.Background(), "0x12")
	var validation *contracts.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "set", validation.Field)
	require.Zero(t, backend.CallCount())
}
