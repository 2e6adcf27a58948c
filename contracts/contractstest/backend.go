// Package contractstest provides an in-memory chain backend for exercising the
// contract pipeline and facades without a node. Calldata is decoded with the
// real ABIs and results are ABI-encoded, so the same code paths run as against
// a live chain.
package contractstest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultChainID is the chain id used by New.
var DefaultChainID = big.NewInt(1337)

// Call is a decoded invocation delivered to stub handlers.
type Call struct {
	From   common.Address
	To     common.Address
	Method string
	Args   []any
	Value  *big.Int
}

// Handler produces the outputs of a stubbed method.
type Handler func(Call) ([]any, error)

// Sent records a transaction accepted by the backend.
type Sent struct {
	Hash   common.Hash
	Call   Call
	Status uint64
}

// Backend is an auto-mining in-memory chain.
type Backend struct {
	mu        sync.Mutex
	chainID   *big.Int
	contracts map[common.Address]*Contract
	nonces    map[common.Address]uint64
	receipts  map[common.Hash]*types.Receipt
	sent      []Sent
	calls     int
	block     uint64
	time      uint64
	gasPrice  *big.Int
}

// New constructs an empty backend.
func New() *Backend {
	return &Backend{
		chainID:   new(big.Int).Set(DefaultChainID),
		contracts: make(map[common.Address]*Contract),
		nonces:    make(map[common.Address]uint64),
		receipts:  make(map[common.Hash]*types.Receipt),
		block:     1,
		time:      1_700_000_000,
		gasPrice:  big.NewInt(1_000_000_000),
	}
}

// ChainID returns the chain id transactions must be signed for.
func (b *Backend) ChainID() *big.Int { return new(big.Int).Set(b.chainID) }

// Deploy registers a stub contract speaking parsed at address.
func (b *Backend) Deploy(address common.Address, parsed *abi.ABI) *Contract {
	c := &Contract{
		address: address,
		abi:     parsed,
		views:   make(map[string]Handler),
		sends:   make(map[string]Handler),
		guards:  make(map[string]func(Call) string),
	}
	b.mu.Lock()
	b.contracts[address] = c
	b.mu.Unlock()
	return c
}

// SetTime sets the timestamp reported for the latest block.
func (b *Backend) SetTime(ts uint64) {
	b.mu.Lock()
	b.time = ts
	b.mu.Unlock()
}

// Time returns the timestamp of the latest block.
func (b *Backend) Time() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.time
}

// CallCount reports how many eth_call style requests reached the backend.
func (b *Backend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Sent returns the transactions accepted so far.
func (b *Backend) Sent() []Sent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Sent(nil), b.sent...)
}

func (b *Backend) contract(address *common.Address) (*Contract, error) {
	if address == nil {
		return nil, errors.New("contractstest: contract creation not supported")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.contracts[*address], nil
}

// CodeAt reports placeholder code for deployed stubs.
func (b *Backend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return b.PendingCodeAt(ctx, contract)
}

// CodeAtHash reports placeholder code for deployed stubs.
func (b *Backend) CodeAtHash(ctx context.Context, contract common.Address, blockHash common.Hash) ([]byte, error) {
	return b.PendingCodeAt(ctx, contract)
}

// PendingCodeAt reports placeholder code for deployed stubs.
func (b *Backend) PendingCodeAt(_ context.Context, contract common.Address) ([]byte, error) {
	c, err := b.contract(&contract)
	if err != nil || c == nil {
		return nil, err
	}
	return []byte{0x60, 0x80}, nil
}

// CallContract executes a read against the stub at call.To.
func (b *Backend) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	c, err := b.contract(call.To)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	return c.call(call.From, call.Data, call.Value)
}

// CallContractAtHash executes a read against the stub at call.To.
func (b *Backend) CallContractAtHash(ctx context.Context, call ethereum.CallMsg, _ common.Hash) ([]byte, error) {
	return b.CallContract(ctx, call, nil)
}

// PendingCallContract executes a read against the stub at call.To.
func (b *Backend) PendingCallContract(ctx context.Context, call ethereum.CallMsg) ([]byte, error) {
	return b.CallContract(ctx, call, nil)
}

// EstimateGas reports a fixed estimate unless the call would revert.
func (b *Backend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	c, err := b.contract(call.To)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, fmt.Errorf("contractstest: no contract at %s", call.To.Hex())
	}
	decoded, _, err := c.decode(call.From, call.Data, call.Value)
	if err != nil {
		return 0, err
	}
	if reason := c.guard(decoded); reason != "" {
		return 0, NewRevertError(reason)
	}
	return 250_000, nil
}

// SuggestGasPrice returns the backend's fixed gas price.
func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.gasPrice), nil
}

// SuggestGasTipCap returns the backend's fixed gas price.
func (b *Backend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.gasPrice), nil
}

// HeaderByNumber returns the latest header regardless of number. BaseFee is
// left nil so transactions are built as legacy transactions.
func (b *Backend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &types.Header{
		Number: new(big.Int).SetUint64(b.block),
		Time:   b.time,
	}, nil
}

// PendingNonceAt returns the next nonce for account.
func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

// SendTransaction executes and immediately mines tx.
func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	from, err := types.Sender(types.LatestSignerForChainID(b.chainID), tx)
	if err != nil {
		return fmt.Errorf("contractstest: recover sender: %w", err)
	}
	c, err := b.contract(tx.To())
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("contractstest: no contract at %s", tx.To().Hex())
	}
	call, _, err := c.decode(from, tx.Data(), tx.Value())
	if err != nil {
		return err
	}

	status := types.ReceiptStatusSuccessful
	if reason := c.guard(call); reason != "" {
		status = types.ReceiptStatusFailed
	} else if handler := c.sendHandler(call.Method); handler != nil {
		if _, err := handler(call); err != nil {
			status = types.ReceiptStatusFailed
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nonces[from]++
	b.block++
	b.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		BlockNumber: new(big.Int).SetUint64(b.block),
		GasUsed:     21_000,
	}
	b.sent = append(b.sent, Sent{Hash: tx.Hash(), Call: call, Status: status})
	return nil
}

// TransactionReceipt returns the receipt of a mined transaction.
func (b *Backend) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	receipt, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

// FilterLogs returns no logs; the backend does not emit events.
func (b *Backend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

// SubscribeFilterLogs is not supported.
func (b *Backend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("contractstest: log subscriptions not supported")
}

// Contract is a stubbed deployed contract.
type Contract struct {
	address common.Address
	abi     *abi.ABI

	mu     sync.Mutex
	views  map[string]Handler
	sends  map[string]Handler
	guards map[string]func(Call) string
}

// Address returns the stub's address.
func (c *Contract) Address() common.Address { return c.address }

// Returns stubs a view to always return values.
func (c *Contract) Returns(method string, values ...any) *Contract {
	return c.On(method, func(Call) ([]any, error) { return values, nil })
}

// On stubs a view with a dynamic handler.
func (c *Contract) On(method string, h Handler) *Contract {
	c.mu.Lock()
	c.views[method] = h
	c.mu.Unlock()
	return c
}

// OnSend registers the state change applied when a transaction calling method
// is mined. Simulations never run it.
func (c *Contract) OnSend(method string, h Handler) *Contract {
	c.mu.Lock()
	c.sends[method] = h
	c.mu.Unlock()
	return c
}

// Revert makes every call and transaction to method revert with reason.
func (c *Contract) Revert(method, reason string) *Contract {
	return c.RevertIf(method, func(Call) string { return reason })
}

// RevertIf reverts calls to method whenever guard returns a non-empty reason.
func (c *Contract) RevertIf(method string, guard func(Call) string) *Contract {
	c.mu.Lock()
	c.guards[method] = guard
	c.mu.Unlock()
	return c
}

func (c *Contract) viewHandler(method string) Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.views[method]
}

func (c *Contract) sendHandler(method string) Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sends[method]
}

func (c *Contract) guard(call Call) string {
	c.mu.Lock()
	guard := c.guards[call.Method]
	c.mu.Unlock()
	if guard == nil {
		return ""
	}
	return guard(call)
}

func (c *Contract) decode(from common.Address, data []byte, value *big.Int) (Call, *abi.Method, error) {
	if len(data) < 4 {
		return Call{}, nil, errors.New("contractstest: calldata shorter than selector")
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return Call{}, nil, fmt.Errorf("contractstest: %w", err)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return Call{}, nil, fmt.Errorf("contractstest: unpack %s: %w", method.Name, err)
	}
	return Call{From: from, To: c.address, Method: method.Name, Args: args, Value: value}, method, nil
}

func (c *Contract) call(from common.Address, data []byte, value *big.Int) ([]byte, error) {
	call, method, err := c.decode(from, data, value)
	if err != nil {
		return nil, err
	}
	if reason := c.guard(call); reason != "" {
		return nil, NewRevertError(reason)
	}
	if !method.IsConstant() {
		return []byte{}, nil
	}
	handler := c.viewHandler(call.Method)
	if handler == nil {
		return nil, fmt.Errorf("contractstest: no stub for %s", call.Method)
	}
	outputs, err := handler(call)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(outputs...)
}

// RevertError mimics the JSON-RPC error a node returns for a reverted call.
type RevertError struct {
	reason string
	data   string
}

// NewRevertError encodes reason as Error(string) revert data.
func NewRevertError(reason string) *RevertError {
	stringType, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		panic(fmt.Sprintf("contractstest: pack revert reason: %v", err))
	}
	selector := []byte{0x08, 0xc3, 0x79, 0xa0}
	return &RevertError{reason: reason, data: hexutil.Encode(append(selector, packed...))}
}

func (e *RevertError) Error() string { return "execution reverted: " + e.reason }

// ErrorCode matches the code geth uses for reverts.
func (e *RevertError) ErrorCode() int { return 3 }

// ErrorData returns the hex encoded revert payload.
func (e *RevertError) ErrorData() interface{} { return e.data }
