// Package setprotocol assembles every facade over one contract resolver. A
// Client is a session: handles resolved through it are cached until Close.
package setprotocol

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"setprotocol/contracts"
	"setprotocol/observability"
	"setprotocol/observability/logging"
	"setprotocol/sdk/erc20"
	"setprotocol/sdk/issuance"
	"setprotocol/sdk/manager"
	"setprotocol/sdk/oracle"
	"setprotocol/sdk/rebalancing"
	"setprotocol/sdk/settoken"
	"setprotocol/sdk/viewer"
)

// DefaultPollInterval is used by AwaitTransactionMined when no interval is
// given.
const DefaultPollInterval = time.Second

var (
	// ErrTransactionFailed is returned when a mined transaction reports a
	// failed status.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrChainIDMismatch is returned by Dial when the node serves a different
	// chain than configured.
	ErrChainIDMismatch = errors.New("chain id mismatch")
)

// Addresses are the well-known protocol deployments a session talks to. Any
// of them may be zero; facades that need a missing one fail with
// contracts.ErrNotConfigured.
type Addresses struct {
	Core                       common.Address
	TransferProxy              common.Address
	Vault                      common.Address
	RebalanceAuctionModule     common.Address
	RebalancingSetTokenFactory common.Address
	SetTokenFactory            common.Address
	ProtocolViewer             common.Address
}

// Config describes a session.
type Config struct {
	RPCURL string
	// ChainID, when set, must match the node's chain id.
	ChainID   *big.Int
	Addresses Addresses

	GasLimit uint64
	GasPrice *big.Int

	RequestsPerSecond float64
	Burst             int

	DisablePreflight bool
}

// Client bundles the facades of one session.
type Client struct {
	ERC20       *erc20.Client
	SetToken    *settoken.Client
	Issuance    *issuance.Client
	Rebalancing *rebalancing.Client
	Manager     *manager.Client
	Oracle      *oracle.Client
	Viewer      *viewer.Client

	addresses Addresses
	resolver  *contracts.Resolver
	closer    func()
}

// Dial connects to cfg.RPCURL and builds a session on top of the connection.
func Dial(ctx context.Context, cfg Config, opts ...contracts.Option) (*Client, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url required")
	}
	conn, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", logging.RedactURL(cfg.RPCURL), err)
	}
	if cfg.ChainID != nil {
		chainID, err := conn.ChainID(ctx)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("fetch chain id: %w", err)
		}
		if chainID.Cmp(cfg.ChainID) != 0 {
			conn.Close()
			return nil, fmt.Errorf("%w: node serves %s, configured %s", ErrChainIDMismatch, chainID, cfg.ChainID)
		}
	}
	c := New(conn, cfg, opts...)
	c.closer = conn.Close
	return c, nil
}

// New builds a session over an existing backend. Resolver options in opts are
// applied after the ones derived from cfg.
func New(backend contracts.Backend, cfg Config, opts ...contracts.Option) *Client {
	resolverOpts := []contracts.Option{
		contracts.WithGasDefaults(cfg.GasLimit, cfg.GasPrice),
		contracts.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
	}
	resolver := contracts.NewResolver(backend, append(resolverOpts, opts...)...)
	preflight := !cfg.DisablePreflight
	addrs := cfg.Addresses
	return &Client{
		ERC20:    erc20.New(resolver, addrs.TransferProxy),
		SetToken: settoken.New(resolver),
		Issuance: issuance.New(resolver, addrs.Core, addrs.Vault,
			issuance.WithPreflight(preflight),
			issuance.WithFactories(addrs.SetTokenFactory, addrs.RebalancingSetTokenFactory)),
		Rebalancing: rebalancing.New(resolver, addrs.RebalanceAuctionModule, rebalancing.WithPreflight(preflight)),
		Manager:     manager.New(resolver, manager.WithPreflight(preflight)),
		Oracle:      oracle.New(resolver),
		Viewer:      viewer.New(resolver, addrs.ProtocolViewer),
		addresses:   addrs,
		resolver:    resolver,
	}
}

// Addresses returns the protocol deployments the session was built with.
func (c *Client) Addresses() Addresses {
	if c == nil {
		return Addresses{}
	}
	return c.addresses
}

// Resolver exposes the session's handle cache.
func (c *Client) Resolver() *contracts.Resolver {
	if c == nil {
		return nil
	}
	return c.resolver
}

// AwaitTransactionMined polls for the receipt of hash every poll interval
// until it is mined or ctx is done. A mined transaction with a failed status
// returns its receipt together with ErrTransactionFailed.
func (c *Client) AwaitTransactionMined(ctx context.Context, hash string, poll time.Duration) (*types.Receipt, error) {
	if c == nil {
		return nil, contracts.ErrNilClient
	}
	txHash, err := contracts.ParseHash("txHash", hash)
	if err != nil {
		return nil, err
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	backend := c.resolver.Backend()
	for {
		receipt, err := backend.TransactionReceipt(ctx, txHash)
		switch {
		case err == nil && receipt != nil:
			success := receipt.Status == types.ReceiptStatusSuccessful
			observability.Events().RecordReceipt(success)
			c.resolver.Logger().Debug("transaction mined",
				"tx", txHash.Hex(),
				"block", receipt.BlockNumber,
				"success", success)
			if !success {
				return receipt, fmt.Errorf("%w: %s", ErrTransactionFailed, txHash.Hex())
			}
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return nil, fmt.Errorf("fetch receipt %s: %w", txHash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close drops every cached handle and, for dialled sessions, the connection.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.resolver.Close()
	if c.closer != nil {
		c.closer()
		c.closer = nil
	}
}
