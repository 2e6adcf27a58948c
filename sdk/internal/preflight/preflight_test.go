package preflight

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"setprotocol/contracts"
	"setprotocol/contracts/contractstest"
)

func TestMulDiv(t *testing.T) {
	got, err := MulDiv(big.NewInt(30), big.NewInt(7), big.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, int64(21), got.Int64())

	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	_, err = MulDiv(huge, huge, big.NewInt(1))
	require.ErrorIs(t, err, errOverflow)

	_, err = MulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0))
	require.ErrorIs(t, err, errDivisionByZero)

	_, err = MulDiv(big.NewInt(-1), big.NewInt(1), big.NewInt(1))
	require.Error(t, err)
}

func TestIsMultiple(t *testing.T) {
	require.True(t, IsMultiple(big.NewInt(30), big.NewInt(10)))
	require.False(t, IsMultiple(big.NewInt(35), big.NewInt(10)))
	require.False(t, IsMultiple(big.NewInt(0), big.NewInt(10)))
	require.False(t, IsMultiple(big.NewInt(10), big.NewInt(0)))
}

func TestFormatting(t *testing.T) {
	require.Equal(t, "12.34", FormatBasisPoints(big.NewInt(1234)))
	require.Equal(t, "0.05", FormatBasisPoints(big.NewInt(5)))
	require.Equal(t, "Thu Jan  1 00:00:00 UTC 1970", FormatTime(big.NewInt(0)))
}

func TestRequireStateNamesAddressAndState(t *testing.T) {
	backend := contractstest.New()
	set := contractstest.Addr(1)
	backend.Deploy(set, contracts.ABI(contracts.KindRebalancingSetToken)).
		Returns("rebalanceState", uint8(contracts.StateProposal))

	checker := New(contracts.NewResolver(backend), true)
	err := checker.RequireState(context.Background(), set, contracts.StateDefault)
	require.ErrorIs(t, err, contracts.ErrInvalidState)
	require.EqualError(t, err, "Rebalancing token at "+set.Hex()+" must be in Default state to call that function.")

	require.NoError(t, checker.RequireState(context.Background(), set, contracts.StateProposal))
}

func TestDisabledCheckerSkipsReads(t *testing.T) {
	backend := contractstest.New()
	checker := New(contracts.NewResolver(backend), false)

	require.NoError(t, checker.RequireState(context.Background(), contractstest.Addr(2), contracts.StateRebalance))
	require.NoError(t, checker.RequireIntervalElapsed(context.Background(), contractstest.Addr(2)))
	require.Zero(t, backend.CallCount())
}

func TestRequireIntervalElapsed(t *testing.T) {
	backend := contractstest.New()
	set := contractstest.Addr(3)
	backend.SetTime(1_000)
	backend.Deploy(set, contracts.ABI(contracts.KindRebalancingSetToken)).
		Returns("lastRebalanceTimestamp", big.NewInt(900)).
		Returns("rebalanceInterval", big.NewInt(200))

	checker := New(contracts.NewResolver(backend), true)
	err := checker.RequireIntervalElapsed(context.Background(), set)
	var assertion *contracts.AssertionError
	require.True(t, errors.As(err, &assertion))
	require.ErrorIs(t, err, contracts.ErrRebalanceIntervalPending)
	require.Contains(t, err.Error(), "Thu Jan  1 00:18:20 UTC 1970")

	backend.SetTime(1_100)
	require.NoError(t, checker.RequireIntervalElapsed(context.Background(), set))
}

func TestRequireNaturalUnitMultiple(t *testing.T) {
	backend := contractstest.New()
	set := contractstest.Addr(4)
	backend.Deploy(set, contracts.ABI(contracts.KindSetToken)).Returns("naturalUnit", big.NewInt(10))

	checker := New(contracts.NewResolver(backend), true)
	require.NoError(t, checker.RequireNaturalUnitMultiple(context.Background(), set, big.NewInt(40)))
	require.ErrorIs(t, checker.RequireNaturalUnitMultiple(context.Background(), set, big.NewInt(45)), contracts.ErrNaturalUnit)
}
