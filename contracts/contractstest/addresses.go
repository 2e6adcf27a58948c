package contractstest

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Addr returns a deterministic, non-zero address for fixtures.
func Addr(n int64) common.Address {
	return common.BigToAddress(big.NewInt(0x1000 + n))
}

// Hex returns Addr(n) formatted for facade arguments.
func Hex(n int64) string {
	return Addr(n).Hex()
}

// Units builds a slice of big integers from int64 literals.
func Units(values ...int64) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		out[i] = big.NewInt(v)
	}
	return out
}

// Int64s flattens values for comparison in assertions. big.Int zero values do
// not compare equal under reflection depending on how they were built.
func Int64s(values []*big.Int) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = v.Int64()
	}
	return out
}
