package issuance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"setprotocol/contracts"
)

// CreateSetParams describes a SetToken created through the SetToken factory.
type CreateSetParams struct {
	Components  []string
	Units       []*big.Int
	NaturalUnit *big.Int
	Name        string
	Symbol      string
}

// CreateRebalancingSetParams describes a RebalancingSetToken created through
// the RebalancingSetToken factory. The new token starts out holding
// UnitShares of InitialSet per NaturalUnit.
type CreateRebalancingSetParams struct {
	Manager           string
	InitialSet        string
	UnitShares        *big.Int
	NaturalUnit       *big.Int
	ProposalPeriod    *big.Int
	RebalanceInterval *big.Int
	Name              string
	Symbol            string
}

// CreateSet registers a new SetToken with Core. The address of the new token
// is emitted in the transaction's logs.
func (c *Client) CreateSet(ctx context.Context, params CreateSetParams, opts contracts.TxOpts) (string, error) {
	if err := c.requireCore(); err != nil {
		return "", err
	}
	if c.setTokenFactory == (common.Address{}) {
		return "", fmt.Errorf("set token factory: %w", contracts.ErrNotConfigured)
	}
	if len(params.Components) == 0 {
		return "", &contracts.ValidationError{Field: "components", Value: "[]", Reason: "at least one component required"}
	}
	if len(params.Components) != len(params.Units) {
		return "", &contracts.ValidationError{
			Field:  "units",
			Value:  fmt.Sprint(len(params.Units)),
			Reason: fmt.Sprintf("expected %d units to match components", len(params.Components)),
		}
	}
	components, err := contracts.ParseAddresses("components", params.Components)
	if err != nil {
		return "", err
	}
	for i, unit := range params.Units {
		if err := contracts.RequirePositive(fmt.Sprintf("units[%d]", i), unit); err != nil {
			return "", err
		}
	}
	if err := contracts.RequirePositive("naturalUnit", params.NaturalUnit); err != nil {
		return "", err
	}
	name, symbol, err := parseNameSymbol(params.Name, params.Symbol)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	return createSet.Send(ctx, c.resolver, c.core, opts, c.setTokenFactory,
		components, params.Units, params.NaturalUnit, name, symbol, []byte{})
}

// CreateRebalancingSet registers a new RebalancingSetToken with Core. The
// initial set must already be a valid Set.
func (c *Client) CreateRebalancingSet(ctx context.Context, params CreateRebalancingSetParams, opts contracts.TxOpts) (string, error) {
	if err := c.requireCore(); err != nil {
		return "", err
	}
	if c.rebalancingFactory == (common.Address{}) {
		return "", fmt.Errorf("rebalancing set token factory: %w", contracts.ErrNotConfigured)
	}
	managerAddr, err := contracts.ParseAddress("manager", params.Manager)
	if err != nil {
		return "", err
	}
	initialSet, err := contracts.ParseAddress("initialSet", params.InitialSet)
	if err != nil {
		return "", err
	}
	if err := contracts.RequirePositive("unitShares", params.UnitShares); err != nil {
		return "", err
	}
	if err := contracts.RequirePositive("naturalUnit", params.NaturalUnit); err != nil {
		return "", err
	}
	if err := contracts.RequirePositive("proposalPeriod", params.ProposalPeriod); err != nil {
		return "", err
	}
	if err := contracts.RequirePositive("rebalanceInterval", params.RebalanceInterval); err != nil {
		return "", err
	}
	name, symbol, err := parseNameSymbol(params.Name, params.Symbol)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if c.checks.Enabled() {
		valid, err := validSets.Call(ctx, c.resolver, c.core, initialSet)
		if err != nil {
			return "", err
		}
		if !valid {
			return "", contracts.Assertion(contracts.ErrNotValidSet,
				"Contract at %s is not a valid Set token address.", initialSet.Hex())
		}
	}
	callData := RebalancingCallData(managerAddr, params.ProposalPeriod, params.RebalanceInterval)
	return createSet.Send(ctx, c.resolver, c.core, opts, c.rebalancingFactory,
		[]common.Address{initialSet}, []*big.Int{params.UnitShares}, params.NaturalUnit, name, symbol, callData)
}

// RebalancingCallData packs the factory arguments of a RebalancingSetToken:
// manager, proposal period and rebalance interval as consecutive 32 byte
// words.
func RebalancingCallData(manager common.Address, proposalPeriod, rebalanceInterval *big.Int) []byte {
	out := make([]byte, 0, 96)
	out = append(out, common.LeftPadBytes(manager.Bytes(), 32)...)
	out = append(out, math.U256Bytes(new(big.Int).Set(proposalPeriod))...)
	return append(out, math.U256Bytes(new(big.Int).Set(rebalanceInterval))...)
}

func parseNameSymbol(name, symbol string) ([32]byte, [32]byte, error) {
	n, err := stringToBytes32("name", name)
	if err != nil {
		return n, n, err
	}
	s, err := stringToBytes32("symbol", symbol)
	return n, s, err
}

// stringToBytes32 right-pads value with zeros the way Solidity stores short
// strings in bytes32.
func stringToBytes32(field, value string) ([32]byte, error) {
	var out [32]byte
	if value == "" {
		return out, &contracts.ValidationError{Field: field, Value: value, Reason: "must not be empty"}
	}
	if len(value) > len(out) {
		return out, &contracts.ValidationError{Field: field, Value: value, Reason: "must fit in 32 bytes"}
	}
	copy(out[:], value)
	return out, nil
}
