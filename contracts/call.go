package contracts

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"setprotocol/observability"
)

// TxOpts carries caller supplied transaction metadata. From defaults to the
// signer's default account; zero gas values fall back to the resolver
// defaults and then to node estimation.
type TxOpts struct {
	From     string
	GasLimit uint64
	GasPrice *big.Int
	Nonce    *big.Int
	Value    *big.Int
}

// Validate checks the shape of the options without touching the network.
func (o TxOpts) Validate() error {
	if _, err := ParseOptionalAddress("from", o.From); err != nil {
		return err
	}
	if o.GasPrice != nil && o.GasPrice.Sign() < 0 {
		return &ValidationError{Field: "gasPrice", Value: o.GasPrice.String(), Reason: "must not be negative"}
	}
	if o.Nonce != nil && o.Nonce.Sign() < 0 {
		return &ValidationError{Field: "nonce", Value: o.Nonce.String(), Reason: "must not be negative"}
	}
	if o.Value != nil && o.Value.Sign() < 0 {
		return &ValidationError{Field: "value", Value: o.Value.String(), Reason: "must not be negative"}
	}
	return nil
}

func (r *Resolver) call(ctx context.Context, kind Kind, address common.Address, method string, args ...any) ([]any, error) {
	h := r.Resolve(kind, address)
	var out []any
	err := r.instrument(ctx, h, method, "call", func(ctx context.Context) error {
		return h.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) send(ctx context.Context, kind Kind, address common.Address, method string, opts TxOpts, args ...any) (common.Hash, error) {
	if err := opts.Validate(); err != nil {
		return common.Hash{}, err
	}
	if r.signer == nil {
		return common.Hash{}, ErrNoSigner
	}
	h := r.Resolve(kind, address)
	input, err := h.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: pack %s.%s: %v", ErrInvalidArgument, kind, method, err)
	}

	from, err := r.Sender(opts)
	if err != nil {
		return common.Hash{}, err
	}
	txOpts, err := r.signer.TransactOpts(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("authorise %s: %w", from.Hex(), err)
	}
	txOpts.Context = ctx
	txOpts.GasLimit = opts.GasLimit
	if txOpts.GasLimit == 0 {
		txOpts.GasLimit = r.gasLimit
	}
	switch {
	case opts.GasPrice != nil:
		txOpts.GasPrice = opts.GasPrice
	case r.gasPrice != nil:
		txOpts.GasPrice = new(big.Int).Set(r.gasPrice)
	}
	txOpts.Nonce = opts.Nonce
	txOpts.Value = opts.Value

	var hash common.Hash
	err = r.instrument(ctx, h, method, "send", func(ctx context.Context) error {
		// Simulate first so a revert reason is reported even when the gas
		// limit is fixed and estimation is skipped.
		msg := ethereum.CallMsg{From: from, To: &h.address, Data: input, Value: opts.Value}
		if _, err := r.backend.CallContract(ctx, msg, nil); err != nil {
			return err
		}
		tx, err := h.bound.Transact(txOpts, method, args...)
		if err != nil {
			return err
		}
		hash = tx.Hash()
		return nil
	})
	if err != nil {
		return common.Hash{}, err
	}
	observability.Events().RecordSubmitted(kind.String(), method)
	return hash, nil
}

func (r *Resolver) instrument(ctx context.Context, h *Handle, method, mode string, fn func(context.Context) error) error {
	callID := uuid.NewString()
	ctx, span := r.tracer.Start(ctx, h.kind.String()+"."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("contract.kind", h.kind.String()),
			attribute.String("contract.address", h.address.Hex()),
			attribute.String("call.mode", mode),
			attribute.String("call.id", callID),
		),
	)
	defer span.End()

	if err := r.wait(ctx, h.kind); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	observability.Contracts().Observe(h.kind.String(), method, mode, err, elapsed)

	attrs := []slog.Attr{
		slog.String("call_id", callID),
		slog.String("kind", h.kind.String()),
		slog.String("method", method),
		slog.String("mode", mode),
		slog.String("contract", h.address.Hex()),
		slog.Duration("elapsed", elapsed),
	}
	if err != nil {
		rejected := newRemoteRejected(h, method, err)
		observability.Contracts().RecordRejection(h.kind.String(), rejected.Reverted)
		span.RecordError(rejected)
		span.SetStatus(codes.Error, rejected.Message)
		attrs = append(attrs, slog.Bool("reverted", rejected.Reverted), slog.String("error", rejected.Message))
		r.logger.LogAttrs(ctx, slog.LevelDebug, "contract call rejected", attrs...)
		return rejected
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "contract call", attrs...)
	return nil
}

func (r *Resolver) wait(ctx context.Context, kind Kind) error {
	if r.limiter == nil {
		return nil
	}
	if r.limiter.Tokens() < 1 {
		observability.Contracts().RecordThrottle(kind.String())
	}
	return r.limiter.Wait(ctx)
}

// Sender returns the account a transaction built from opts would be sent
// from.
func (r *Resolver) Sender(opts TxOpts) (common.Address, error) {
	from, err := ParseOptionalAddress("from", opts.From)
	if err != nil {
		return common.Address{}, err
	}
	if from != (common.Address{}) {
		return from, nil
	}
	if r.signer == nil {
		return common.Address{}, ErrNoSigner
	}
	return r.signer.DefaultAccount(), nil
}
