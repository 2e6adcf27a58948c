package contracts

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	// ErrInvalidArgument is wrapped by every local validation failure.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRemoteRejected is wrapped by every failure returned from the chain,
	// whether a revert, a decoding failure or a transport error.
	ErrRemoteRejected = errors.New("remote call rejected")

	// ErrNoSigner is returned when a transaction is requested from a resolver
	// that was built without a signer.
	ErrNoSigner = errors.New("contracts: no signer configured")

	// ErrNotConfigured is returned when a facade needs a well-known protocol
	// address that was not supplied at construction.
	ErrNotConfigured = errors.New("contracts: protocol address not configured")

	// ErrNilClient is returned by facade methods invoked on a nil client.
	ErrNilClient = errors.New("contracts: nil client")
)

// ValidationError reports a malformed caller argument. It is produced before
// any network interaction.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

// RemoteRejected carries a failure reported by the remote contract or the
// transport beneath it. Message is the chain's revert reason when one could be
// decoded and the transport's error text otherwise; it is never rewritten.
type RemoteRejected struct {
	Kind     Kind
	Contract common.Address
	Method   string
	Message  string
	Reverted bool
	Err      error
}

func (e *RemoteRejected) Error() string {
	return e.Message
}

func (e *RemoteRejected) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRemoteRejected}
	}
	return []error{ErrRemoteRejected, e.Err}
}

func newRemoteRejected(h *Handle, method string, err error) *RemoteRejected {
	rejected := &RemoteRejected{
		Kind:     h.kind,
		Contract: h.address,
		Method:   method,
		Message:  err.Error(),
		Err:      err,
	}
	if reason, ok := RevertReason(err); ok {
		rejected.Message = reason
		rejected.Reverted = true
	}
	return rejected
}

// RevertReason extracts the Error(string) reason carried in a JSON-RPC error's
// data field.
func RevertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}
	var data []byte
	switch raw := dataErr.ErrorData().(type) {
	case string:
		decoded, decodeErr := hexutil.Decode(raw)
		if decodeErr != nil {
			return "", false
		}
		data = decoded
	case []byte:
		data = raw
	default:
		return "", false
	}
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		return "", false
	}
	return reason, true
}

// AssertionError reports a preflight check that failed against on-chain
// state read by the client. Message is the human readable explanation and
// Reason one of the sentinel errors below.
type AssertionError struct {
	Reason  error
	Message string
}

func (e *AssertionError) Error() string { return e.Message }

func (e *AssertionError) Unwrap() error { return e.Reason }

// Assertion builds an AssertionError with a formatted message.
func Assertion(reason error, format string, args ...any) *AssertionError {
	return &AssertionError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidState             = errors.New("rebalancing set in wrong state")
	ErrNotManager               = errors.New("caller is not the manager")
	ErrRebalanceIntervalPending = errors.New("rebalance interval has not elapsed")
	ErrAllocationWithinBounds   = errors.New("allocation within bounds")
	ErrCrossoverNotMet          = errors.New("moving average crossover not met")
	ErrConfirmWindow            = errors.New("outside crossover confirmation window")
	ErrNaturalUnit              = errors.New("quantity not a multiple of natural unit")
	ErrBidQuantity              = errors.New("invalid bid quantity")
	ErrNotValidSet              = errors.New("not a valid set")
)
