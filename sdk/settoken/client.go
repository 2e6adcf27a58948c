// Package settoken reads the composition of SetTokens.
package settoken

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
	"setprotocol/sdk/internal/preflight"
)

var (
	name          = contracts.Method[string]{Kind: contracts.KindSetToken, Name: "name", Decode: contracts.String}
	symbol        = contracts.Method[string]{Kind: contracts.KindSetToken, Name: "symbol", Decode: contracts.String}
	totalSupply   = contracts.Method[*big.Int]{Kind: contracts.KindSetToken, Name: "totalSupply", Decode: contracts.BigInt}
	factory       = contracts.Method[common.Address]{Kind: contracts.KindSetToken, Name: "factory", Decode: contracts.Address}
	naturalUnit   = contracts.Method[*big.Int]{Kind: contracts.KindSetToken, Name: "naturalUnit", Decode: contracts.BigInt}
	getComponents = contracts.Method[[]common.Address]{Kind: contracts.KindSetToken, Name: "getComponents", Decode: contracts.Addresses}
	getUnits      = contracts.Method[[]*big.Int]{Kind: contracts.KindSetToken, Name: "getUnits", Decode: contracts.BigInts}
)

// Component pairs a component token with its unit per natural unit of the
// set.
type Component struct {
	Address common.Address
	Unit    *big.Int
}

// Details summarises a SetToken.
type Details struct {
	Address     common.Address
	Name        string
	Symbol      string
	Factory     common.Address
	NaturalUnit *big.Int
	TotalSupply *big.Int
	Components  []Component
}

// Client reads SetToken state.
type Client struct {
	resolver *contracts.Resolver
}

// New wraps resolver.
func New(resolver *contracts.Resolver) *Client {
	return &Client{resolver: resolver}
}

// Details reads the set's metadata and composition.
func (c *Client) Details(ctx context.Context, set string) (*Details, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("set", set)
	if err != nil {
		return nil, err
	}
	details := &Details{Address: addr}
	if details.Name, err = name.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if details.Symbol, err = symbol.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if details.Factory, err = factory.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if details.NaturalUnit, err = naturalUnit.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if details.TotalSupply, err = totalSupply.Call(ctx, c.resolver, addr); err != nil {
		return nil, err
	}
	if details.Components, err = c.components(ctx, addr); err != nil {
		return nil, err
	}
	return details, nil
}

// Composition returns the set's components paired with their units.
func (c *Client) Composition(ctx context.Context, set string) ([]Component, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("set", set)
	if err != nil {
		return nil, err
	}
	return c.components(ctx, addr)
}

func (c *Client) components(ctx context.Context, addr common.Address) ([]Component, error) {
	tokens, err := getComponents.Call(ctx, c.resolver, addr)
	if err != nil {
		return nil, err
	}
	units, err := getUnits.Call(ctx, c.resolver, addr)
	if err != nil {
		return nil, err
	}
	if len(tokens) != len(units) {
		return nil, fmt.Errorf("set %s reports %d components but %d units", addr.Hex(), len(tokens), len(units))
	}
	out := make([]Component, len(tokens))
	for i := range tokens {
		out[i] = Component{Address: tokens[i], Unit: units[i]}
	}
	return out, nil
}

// Components returns the set's component token addresses.
func (c *Client) Components(ctx context.Context, set string) ([]common.Address, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("set", set)
	if err != nil {
		return nil, err
	}
	return getComponents.Call(ctx, c.resolver, addr)
}

// Units returns the set's component units, index aligned with Components.
func (c *Client) Units(ctx context.Context, set string) ([]*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("set", set)
	if err != nil {
		return nil, err
	}
	return getUnits.Call(ctx, c.resolver, addr)
}

// NaturalUnit returns the smallest issuable quantity of the set.
func (c *Client) NaturalUnit(ctx context.Context, set string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("set", set)
	if err != nil {
		return nil, err
	}
	return naturalUnit.Call(ctx, c.resolver, addr)
}

// IsMultipleOfNaturalUnit reports whether quantity can be issued or redeemed.
func (c *Client) IsMultipleOfNaturalUnit(ctx context.Context, set string, quantity *big.Int) (bool, error) {
	if err := contracts.RequirePositive("quantity", quantity); err != nil {
		return false, err
	}
	unit, err := c.NaturalUnit(ctx, set)
	if err != nil {
		return false, err
	}
	return preflight.IsMultiple(quantity, unit), nil
}
