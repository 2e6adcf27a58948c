package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Field asserts that output i has type T.
func Field[T any](out []any, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(out) {
		return zero, fmt.Errorf("missing output %d of %d", i, len(out))
	}
	value, ok := out[i].(T)
	if !ok {
		return zero, fmt.Errorf("output %d has type %T, want %T", i, out[i], zero)
	}
	return value, nil
}

// Single decodes a method with exactly one output of type T.
func Single[T any](out []any) (T, error) {
	return Field[T](out, 0)
}

// Bytes32Int decodes a single bytes32 output as an unsigned integer, the
// encoding used by medianizer style price feeds.
func Bytes32Int(out []any) (*big.Int, error) {
	raw, err := Field[[32]byte](out, 0)
	if err != nil {
		return nil, err
	}
	return Bytes32ToInt(raw), nil
}

// Bytes32ToInt interprets a bytes32 word as a big-endian unsigned integer.
func Bytes32ToInt(raw [32]byte) *big.Int {
	return new(big.Int).SetBytes(raw[:])
}

// IntToBytes32 is the inverse of Bytes32ToInt. Values wider than 32 bytes are
// truncated to their low-order bytes.
func IntToBytes32(value *big.Int) [32]byte {
	var word [32]byte
	if value == nil {
		return word
	}
	raw := value.Bytes()
	if len(raw) > len(word) {
		raw = raw[len(raw)-len(word):]
	}
	copy(word[len(word)-len(raw):], raw)
	return word
}

// Common decoders shared by facade method tables.
var (
	BigInt    Decoder[*big.Int]         = Single[*big.Int]
	BigInts   Decoder[[]*big.Int]       = Single[[]*big.Int]
	Address   Decoder[common.Address]   = Single[common.Address]
	Addresses Decoder[[]common.Address] = Single[[]common.Address]
	Bool      Decoder[bool]             = Single[bool]
	String    Decoder[string]           = Single[string]
	Uint8     Decoder[uint8]            = Single[uint8]
)
