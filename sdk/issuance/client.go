// Package issuance issues and redeems Sets through Core and manages the
// caller's Vault balances.
package issuance

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"setprotocol/contracts"
	"setprotocol/sdk/internal/preflight"
)

var (
	issue               = contracts.Tx{Kind: contracts.KindCore, Name: "issue"}
	issueTo             = contracts.Tx{Kind: contracts.KindCore, Name: "issueTo"}
	redeem              = contracts.Tx{Kind: contracts.KindCore, Name: "redeem"}
	redeemAndWithdrawTo = contracts.Tx{Kind: contracts.KindCore, Name: "redeemAndWithdrawTo"}
	deposit             = contracts.Tx{Kind: contracts.KindCore, Name: "deposit"}
	withdraw            = contracts.Tx{Kind: contracts.KindCore, Name: "withdraw"}
	batchDeposit        = contracts.Tx{Kind: contracts.KindCore, Name: "batchDeposit"}
	batchWithdraw       = contracts.Tx{Kind: contracts.KindCore, Name: "batchWithdraw"}
	createSet           = contracts.Tx{Kind: contracts.KindCore, Name: "createSet"}

	validSets       = contracts.Method[bool]{Kind: contracts.KindCore, Name: "validSets", Decode: contracts.Bool}
	setTokens       = contracts.Method[[]common.Address]{Kind: contracts.KindCore, Name: "setTokens", Decode: contracts.Addresses}
	getOwnerBalance = contracts.Method[*big.Int]{Kind: contracts.KindVault, Name: "getOwnerBalance", Decode: contracts.BigInt}

	getComponents = contracts.Method[[]common.Address]{Kind: contracts.KindSetToken, Name: "getComponents", Decode: contracts.Addresses}
	getUnits      = contracts.Method[[]*big.Int]{Kind: contracts.KindSetToken, Name: "getUnits", Decode: contracts.BigInts}
	naturalUnit   = contracts.Method[*big.Int]{Kind: contracts.KindSetToken, Name: "naturalUnit", Decode: contracts.BigInt}
)

// ComponentRequirement is the amount of one component consumed by issuing a
// quantity of a set.
type ComponentRequirement struct {
	Address  common.Address
	Unit     *big.Int
	Quantity *big.Int
}

// Option configures a Client.
type Option func(*Client)

// WithPreflight toggles the natural unit check run before issue and redeem.
func WithPreflight(enabled bool) Option {
	return func(c *Client) {
		c.preflightEnabled = enabled
	}
}

// WithFactories sets the SetToken and RebalancingSetToken factories used by
// CreateSet and CreateRebalancingSet.
func WithFactories(setTokenFactory, rebalancingSetTokenFactory common.Address) Option {
	return func(c *Client) {
		c.setTokenFactory = setTokenFactory
		c.rebalancingFactory = rebalancingSetTokenFactory
	}
}

// Client issues and redeems Sets.
type Client struct {
	resolver           *contracts.Resolver
	core               common.Address
	vault              common.Address
	setTokenFactory    common.Address
	rebalancingFactory common.Address
	preflightEnabled   bool
	checks             *preflight.Checker
}

// New wraps resolver for the Core and Vault deployed at core and vault.
func New(resolver *contracts.Resolver, core, vault common.Address, opts ...Option) *Client {
	c := &Client{resolver: resolver, core: core, vault: vault, preflightEnabled: true}
	for _, opt := range opts {
		opt(c)
	}
	c.checks = preflight.New(resolver, c.preflightEnabled)
	return c
}

func (c *Client) requireCore() error {
	if c == nil {
		return contracts.ErrNilClient
	}
	if c.core == (common.Address{}) {
		return fmt.Errorf("core: %w", contracts.ErrNotConfigured)
	}
	return nil
}

// Issue mints quantity of set to the sender, pulling the required components
// from the sender's Vault balance and wallet.
func (c *Client) Issue(ctx context.Context, set string, quantity *big.Int, opts contracts.TxOpts) (string, error) {
	if err := c.requireCore(); err != nil {
		return "", err
	}
	setAddr, err := parseSetQuantity(set, quantity)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if err := c.checks.RequireNaturalUnitMultiple(ctx, setAddr, quantity); err != nil {
		return "", err
	}
	return issue.Send(ctx, c.resolver, c.core, opts, setAddr, quantity)
}

// IssueTo mints quantity of set to recipient.
func (c *Client) IssueTo(ctx context.Context, recipient, set string, quantity *big.Int, opts contracts.TxOpts) (string, error) {
	if err := c.requireCore(); err != nil {
		return "", err
	}
	recipientAddr, err := contracts.ParseAddress("recipient", recipient)
	if err != nil {
		return "", err
	}
	setAddr, err := parseSetQuantity(set, quantity)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if err := c.checks.RequireNaturalUnitMultiple(ctx, setAddr, quantity); err != nil {
		return "", err
	}
	return issueTo.Send(ctx, c.resolver, c.core, opts, recipientAddr, setAddr, quantity)
}

// Redeem burns quantity of set, crediting its components to the sender's
// Vault balance.
func (c *Client) Redeem(ctx context.Context, set string, quantity *big.Int, opts contracts.TxOpts) (string, error) {
	if err := c.requireCore(); err != nil {
		return "", err
	}
	setAddr, err := parseSetQuantity(set, quantity)
	if err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if err := c.checks.RequireNaturalUnitMultiple(ctx, setAddr, quantity); err != nil {
		return "", err
	}
	return redeem.Send(ctx, c.resolver, c.core, opts, setAddr, quantity)
}

// RedeemAndWithdrawTo burns quantity of set and withdraws its components to
// to. Components whose bit is set in toExclude stay in the Vault.
func (c *Client) RedeemAndWithdrawTo(ctx context.Context, set, to string, quantity, toExclude *big.Int, opts contracts.TxOpts) (string, error) {
	if err := c.requireCore(); err != nil {
		return "", err
	}
	setAddr, err := parseSetQuantity(set, quantity)
	if err != nil {
		return "", err
	}
	toAddr, err := contracts.ParseAddress("to", to)
	if err != nil {
		return "", err
	}
	if toExclude == nil {
		toExclude = new(big.Int)
	}
	if err := contracts.RequireNonNegative("toExclude", toExclude); err != nil {
		return "", err
	}
	if err := opts.Validate(); err != nil {
		return "", err
	}
	if err := c.checks.RequireNaturalUnitMultiple(ctx, setAddr, quantity); err != nil {
		return "", err
	}
	return redeemAndWithdrawTo.Send(ctx, c.resolver, c.core, opts, setAddr, toAddr, quantity, toExclude)
}

// Deposit moves quantity of token from the sender's wallet into the Vault.
func (c *Client) Deposit(ctx context.Context, token string, quantity *big.Int, opts contracts.TxOpts) (string, error) {
	return c.transfer(ctx, deposit, token, quantity, opts)
}

// Withdraw moves quantity of token from the Vault back to the sender.
func (c *Client) Withdraw(ctx context.Context, token string, quantity *big.Int, opts contracts.TxOpts) (string, error) {
	return c.transfer(ctx, withdraw, token, quantity, opts)
}

func (c *Client) transfer(ctx context.Context, tx contracts.Tx, token string, quantity *big.Int, opts contracts.TxOpts) (string, error) {
	if err := c.requireCore(); err != nil {
		return "", err
	}
	tokenAddr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return "", err
	}
	if err := contracts.RequirePositive("quantity", quantity); err != nil {
		return "", err
	}
	return tx.Send(ctx, c.resolver, c.core, opts, tokenAddr, quantity)
}

// BatchDeposit deposits several tokens in one transaction.
func (c *Client) BatchDeposit(ctx context.Context, tokens []string, quantities []*big.Int, opts contracts.TxOpts) (string, error) {
	return c.batch(ctx, batchDeposit, tokens, quantities, opts)
}

// BatchWithdraw withdraws several tokens in one transaction.
func (c *Client) BatchWithdraw(ctx context.Context, tokens []string, quantities []*big.Int, opts contracts.TxOpts) (string, error) {
	return c.batch(ctx, batchWithdraw, tokens, quantities, opts)
}

func (c *Client) batch(ctx context.Context, tx contracts.Tx, tokens []string, quantities []*big.Int, opts contracts.TxOpts) (string, error) {
	if err := c.requireCore(); err != nil {
		return "", err
	}
	if len(tokens) == 0 {
		return "", &contracts.ValidationError{Field: "tokens", Value: "[]", Reason: "at least one token required"}
	}
	if len(tokens) != len(quantities) {
		return "", &contracts.ValidationError{
			Field:  "quantities",
			Value:  fmt.Sprint(len(quantities)),
			Reason: fmt.Sprintf("expected %d quantities to match tokens", len(tokens)),
		}
	}
	tokenAddrs, err := contracts.ParseAddresses("tokens", tokens)
	if err != nil {
		return "", err
	}
	for i, q := range quantities {
		if err := contracts.RequirePositive(fmt.Sprintf("quantities[%d]", i), q); err != nil {
			return "", err
		}
	}
	return tx.Send(ctx, c.resolver, c.core, opts, tokenAddrs, quantities)
}

// VaultBalance returns owner's Vault balance of token.
func (c *Client) VaultBalance(ctx context.Context, token, owner string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	if c.vault == (common.Address{}) {
		return nil, fmt.Errorf("vault: %w", contracts.ErrNotConfigured)
	}
	tokenAddr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return nil, err
	}
	ownerAddr, err := contracts.ParseAddress("owner", owner)
	if err != nil {
		return nil, err
	}
	return getOwnerBalance.Call(ctx, c.resolver, c.vault, tokenAddr, ownerAddr)
}

// VaultBalances returns owner's Vault balance of each token.
func (c *Client) VaultBalances(ctx context.Context, tokens []string, owner string) ([]*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	if c.vault == (common.Address{}) {
		return nil, fmt.Errorf("vault: %w", contracts.ErrNotConfigured)
	}
	tokenAddrs, err := contracts.ParseAddresses("tokens", tokens)
	if err != nil {
		return nil, err
	}
	ownerAddr, err := contracts.ParseAddress("owner", owner)
	if err != nil {
		return nil, err
	}
	balances := make([]*big.Int, len(tokenAddrs))
	for i, addr := range tokenAddrs {
		if balances[i], err = getOwnerBalance.Call(ctx, c.resolver, c.vault, addr, ownerAddr); err != nil {
			return nil, err
		}
	}
	return balances, nil
}

// RequiredComponents computes the component amounts consumed by issuing
// quantity of set: quantity * unit / naturalUnit for every component.
func (c *Client) RequiredComponents(ctx context.Context, set string, quantity *big.Int) ([]ComponentRequirement, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	setAddr, err := parseSetQuantity(set, quantity)
	if err != nil {
		return nil, err
	}
	unit, err := naturalUnit.Call(ctx, c.resolver, setAddr)
	if err != nil {
		return nil, err
	}
	if !preflight.IsMultiple(quantity, unit) {
		return nil, contracts.Assertion(contracts.ErrNaturalUnit,
			"Quantity of %s must be a multiple of the natural unit %s of Set %s.", quantity, unit, setAddr.Hex())
	}
	components, err := getComponents.Call(ctx, c.resolver, setAddr)
	if err != nil {
		return nil, err
	}
	units, err := getUnits.Call(ctx, c.resolver, setAddr)
	if err != nil {
		return nil, err
	}
	if len(components) != len(units) {
		return nil, fmt.Errorf("set %s reports %d components but %d units", setAddr.Hex(), len(components), len(units))
	}
	out := make([]ComponentRequirement, len(components))
	for i := range components {
		required, err := preflight.MulDiv(quantity, units[i], unit)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", components[i].Hex(), err)
		}
		out[i] = ComponentRequirement{Address: components[i], Unit: units[i], Quantity: required}
	}
	return out, nil
}

// IsValidSet reports whether Core tracks set as a valid Set.
func (c *Client) IsValidSet(ctx context.Context, set string) (bool, error) {
	if err := c.requireCore(); err != nil {
		return false, err
	}
	setAddr, err := contracts.ParseAddress("set", set)
	if err != nil {
		return false, err
	}
	return validSets.Call(ctx, c.resolver, c.core, setAddr)
}

// SetTokens lists every Set registered with Core.
func (c *Client) SetTokens(ctx context.Context) ([]common.Address, error) {
	if err := c.requireCore(); err != nil {
		return nil, err
	}
	return setTokens.Call(ctx, c.resolver, c.core)
}

func parseSetQuantity(set string, quantity *big.Int) (common.Address, error) {
	addr, err := contracts.ParseAddress("set", set)
	if err != nil {
		return common.Address{}, err
	}
	if err := contracts.RequirePositive("quantity", quantity); err != nil {
		return common.Address{}, err
	}
	return addr, nil
}
