package contracts

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"setprotocol/observability"
)

// Backend is the chain transport handles are bound to. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Signer authorises transactions on behalf of a sender account.
type Signer interface {
	DefaultAccount() common.Address
	TransactOpts(ctx context.Context, from common.Address) (*bind.TransactOpts, error)
}

// Key identifies a cached handle.
type Key struct {
	Kind    Kind
	Address common.Address
}

// Handle is a typed reference to one deployed contract. Handles are immutable
// and owned by the resolver that created them.
type Handle struct {
	kind    Kind
	address common.Address
	abi     *abi.ABI
	bound   *bind.BoundContract
}

// Kind returns the interface the handle was resolved under.
func (h *Handle) Kind() Kind { return h.kind }

// Address returns the contract address.
func (h *Handle) Address() common.Address { return h.address }

// ABI returns the parsed interface shared by every handle of the same kind.
func (h *Handle) ABI() *abi.ABI { return h.abi }

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger installs a structured logger for call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSigner installs the signer used for state-changing transactions.
func WithSigner(s Signer) Option {
	return func(r *Resolver) {
		r.signer = s
	}
}

// WithRateLimit bounds the rate of remote calls issued through the resolver.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(r *Resolver) {
		if perSecond <= 0 {
			r.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithGasDefaults sets the gas limit and price applied to every transaction
// that does not override them. Zero values leave estimation to the node.
func WithGasDefaults(gasLimit uint64, gasPrice *big.Int) Option {
	return func(r *Resolver) {
		r.gasLimit = gasLimit
		if gasPrice != nil {
			r.gasPrice = new(big.Int).Set(gasPrice)
		}
	}
}

// WithTracer overrides the tracer used for call spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Resolver) {
		if t != nil {
			r.tracer = t
		}
	}
}

// Resolver maps (kind, address) pairs to contract handles for the lifetime of
// one client session. A handle is constructed at most once per key.
type Resolver struct {
	backend  Backend
	signer   Signer
	logger   *slog.Logger
	tracer   trace.Tracer
	limiter  *rate.Limiter
	gasLimit uint64
	gasPrice *big.Int

	mu      sync.RWMutex
	handles map[Key]*Handle
}

// NewResolver constructs an empty resolver bound to backend.
func NewResolver(backend Backend, opts ...Option) *Resolver {
	r := &Resolver{
		backend: backend,
		logger:  slog.Default(),
		tracer:  otel.Tracer("setprotocol/contracts"),
		handles: make(map[Key]*Handle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the handle for kind at address, creating it on first use.
// No remote call is made; a missing or mismatched contract surfaces on the
// first method invoked through the handle.
func (r *Resolver) Resolve(kind Kind, address common.Address) *Handle {
	key := Key{Kind: kind, Address: address}

	r.mu.RLock()
	h, ok := r.handles[key]
	r.mu.RUnlock()
	if ok {
		return h
	}

	contractABI := ABI(kind)

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[key]; ok {
		return h
	}
	h = &Handle{
		kind:    kind,
		address: address,
		abi:     contractABI,
		bound:   bind.NewBoundContract(address, *contractABI, r.backend, r.backend, r.backend),
	}
	r.handles[key] = h
	observability.Contracts().AddHandles(1)
	return h
}

// Len reports the number of cached handles.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Close discards every cached handle. The resolver remains usable and will
// rebuild handles on demand.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	observability.Contracts().AddHandles(-len(r.handles))
	r.handles = make(map[Key]*Handle)
}

// Backend exposes the transport handles are bound to.
func (r *Resolver) Backend() Backend { return r.backend }

// Signer returns the configured signer, or nil for read-only sessions.
func (r *Resolver) Signer() Signer { return r.signer }

// Logger returns the resolver's logger.
func (r *Resolver) Logger() *slog.Logger { return r.logger }

// ChainTime returns the timestamp of the latest block.
func (r *Resolver) ChainTime(ctx context.Context) (*big.Int, error) {
	header, err := r.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch head: %w", err)
	}
	if header == nil {
		return nil, fmt.Errorf("fetch head: header unavailable")
	}
	return new(big.Int).SetUint64(header.Time), nil
}
