package contracts

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Decoder reshapes the raw outputs of a read into a typed value.
type Decoder[T any] func(out []any) (T, error)

// Method describes a read-only contract method. Facades declare one Method per
// remote view and run it through Call, which resolves the handle, issues the
// call and decodes the outputs.
type Method[T any] struct {
	Kind   Kind
	Name   string
	Decode Decoder[T]
}

// Call invokes the method at address. Decoding failures are reported as
// remote rejections since they indicate a contract that does not match the
// expected interface.
func (m Method[T]) Call(ctx context.Context, r *Resolver, address common.Address, args ...any) (T, error) {
	var zero T
	out, err := r.call(ctx, m.Kind, address, m.Name, args...)
	if err != nil {
		return zero, err
	}
	value, err := m.Decode(out)
	if err != nil {
		h := r.Resolve(m.Kind, address)
		return zero, newRemoteRejected(h, m.Name, fmt.Errorf("decode %s.%s: %w", m.Kind, m.Name, err))
	}
	return value, nil
}

// Tx describes a state-changing contract method.
type Tx struct {
	Kind Kind
	Name string
}

// Send submits the transaction and returns its hash without waiting for it to
// be mined.
func (t Tx) Send(ctx context.Context, r *Resolver, address common.Address, opts TxOpts, args ...any) (string, error) {
	hash, err := r.send(ctx, t.Kind, address, t.Name, opts, args...)
	if err != nil {
		return "", err
	}
	return hash.Hex(), nil
}
