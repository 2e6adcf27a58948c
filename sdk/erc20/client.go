// Package erc20 reads and moves ERC20 balances, including the component
// tokens held by Sets.
package erc20

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"setprotocol/contracts"
)

var (
	balanceOf   = contracts.Method[*big.Int]{Kind: contracts.KindERC20, Name: "balanceOf", Decode: contracts.BigInt}
	totalSupply = contracts.Method[*big.Int]{Kind: contracts.KindERC20, Name: "totalSupply", Decode: contracts.BigInt}
	allowance   = contracts.Method[*big.Int]{Kind: contracts.KindERC20, Name: "allowance", Decode: contracts.BigInt}
	name        = contracts.Method[string]{Kind: contracts.KindERC20, Name: "name", Decode: contracts.String}
	symbol      = contracts.Method[string]{Kind: contracts.KindERC20, Name: "symbol", Decode: contracts.String}
	decimals    = contracts.Method[uint8]{Kind: contracts.KindERC20, Name: "decimals", Decode: contracts.Uint8}

	transfer     = contracts.Tx{Kind: contracts.KindERC20, Name: "transfer"}
	transferFrom = contracts.Tx{Kind: contracts.KindERC20, Name: "transferFrom"}
	approve      = contracts.Tx{Kind: contracts.KindERC20, Name: "approve"}
)

// UnlimitedAllowance is the allowance granted by ApproveProxy.
var UnlimitedAllowance = new(big.Int).Set(math.MaxBig256)

// Client exposes ERC20 token reads and transfers.
type Client struct {
	resolver      *contracts.Resolver
	transferProxy common.Address
}

// New wraps resolver. transferProxy is the protocol's TransferProxy and may
// be the zero address when ApproveProxy is not needed.
func New(resolver *contracts.Resolver, transferProxy common.Address) *Client {
	return &Client{resolver: resolver, transferProxy: transferProxy}
}

// BalanceOf returns owner's balance of token.
func (c *Client) BalanceOf(ctx context.Context, token, owner string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	tokenAddr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return nil, err
	}
	ownerAddr, err := contracts.ParseAddress("owner", owner)
	if err != nil {
		return nil, err
	}
	return balanceOf.Call(ctx, c.resolver, tokenAddr, ownerAddr)
}

// BalancesOf returns owner's balance of each token, index aligned with tokens.
func (c *Client) BalancesOf(ctx context.Context, tokens []string, owner string) ([]*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
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
		balances[i], err = balanceOf.Call(ctx, c.resolver, addr, ownerAddr)
		if err != nil {
			return nil, err
		}
	}
	return balances, nil
}

// TotalSupply returns the token's total supply.
func (c *Client) TotalSupply(ctx context.Context, token string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return nil, err
	}
	return totalSupply.Call(ctx, c.resolver, addr)
}

// TotalSupplies returns the total supply of each token.
func (c *Client) TotalSupplies(ctx context.Context, tokens []string) ([]*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	addrs, err := contracts.ParseAddresses("tokens", tokens)
	if err != nil {
		return nil, err
	}
	supplies := make([]*big.Int, len(addrs))
	for i, addr := range addrs {
		supplies[i], err = totalSupply.Call(ctx, c.resolver, addr)
		if err != nil {
			return nil, err
		}
	}
	return supplies, nil
}

// Name returns the token name.
func (c *Client) Name(ctx context.Context, token string) (string, error) {
	return c.text(ctx, name, token)
}

// Symbol returns the token symbol.
func (c *Client) Symbol(ctx context.Context, token string) (string, error) {
	return c.text(ctx, symbol, token)
}

func (c *Client) text(ctx context.Context, m contracts.Method[string], token string) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return "", err
	}
	return m.Call(ctx, c.resolver, addr)
}

// Decimals returns the token's decimal places.
func (c *Client) Decimals(ctx context.Context, token string) (uint8, error) {
	if c == nil {
		return 0, contracts.ErrNilClient
	}
	addr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return 0, err
	}
	return decimals.Call(ctx, c.resolver, addr)
}

// Allowance returns how much spender may transfer on owner's behalf.
func (c *Client) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	tokenAddr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return nil, err
	}
	ownerAddr, err := contracts.ParseAddress("owner", owner)
	if err != nil {
		return nil, err
	}
	spenderAddr, err := contracts.ParseAddress("spender", spender)
	if err != nil {
		return nil, err
	}
	return allowance.Call(ctx, c.resolver, tokenAddr, ownerAddr, spenderAddr)
}

// Transfer sends value of token to to and returns the transaction hash.
func (c *Client) Transfer(ctx context.Context, token, to string, value *big.Int, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	tokenAddr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return "", err
	}
	toAddr, err := contracts.ParseAddress("to", to)
	if err != nil {
		return "", err
	}
	if err := contracts.RequireNonNegative("value", value); err != nil {
		return "", err
	}
	return transfer.Send(ctx, c.resolver, tokenAddr, opts, toAddr, value)
}

// TransferFrom moves value of token from from to to using the sender's
// allowance.
func (c *Client) TransferFrom(ctx context.Context, token, from, to string, value *big.Int, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	tokenAddr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return "", err
	}
	fromAddr, err := contracts.ParseAddress("from", from)
	if err != nil {
		return "", err
	}
	toAddr, err := contracts.ParseAddress("to", to)
	if err != nil {
		return "", err
	}
	if err := contracts.RequireNonNegative("value", value); err != nil {
		return "", err
	}
	return transferFrom.Send(ctx, c.resolver, tokenAddr, opts, fromAddr, toAddr, value)
}

// Approve sets spender's allowance over the sender's token balance.
func (c *Client) Approve(ctx context.Context, token, spender string, value *big.Int, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	tokenAddr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return "", err
	}
	spenderAddr, err := contracts.ParseAddress("spender", spender)
	if err != nil {
		return "", err
	}
	if err := contracts.RequireNonNegative("value", value); err != nil {
		return "", err
	}
	return approve.Send(ctx, c.resolver, tokenAddr, opts, spenderAddr, value)
}

// ApproveProxy grants the TransferProxy an unlimited allowance so Core can
// pull the token during issuance and deposits.
func (c *Client) ApproveProxy(ctx context.Context, token string, opts contracts.TxOpts) (string, error) {
	if c == nil {
		return "", contracts.ErrNilClient
	}
	if c.transferProxy == (common.Address{}) {
		return "", contracts.ErrNotConfigured
	}
	tokenAddr, err := contracts.ParseAddress("token", token)
	if err != nil {
		return "", err
	}
	return approve.Send(ctx, c.resolver, tokenAddr, opts, c.transferProxy, UnlimitedAllowance)
}
