package preflight

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"
)

var (
	errOverflow       = errors.New("uint256 overflow")
	errDivisionByZero = errors.New("division by zero")
)

// MulDiv computes a*b/denominator in 256-bit unsigned arithmetic, the same
// width the contracts use, failing rather than wrapping on overflow.
func MulDiv(a, b, denominator *big.Int) (*big.Int, error) {
	x, err := toUint256(a)
	if err != nil {
		return nil, err
	}
	y, err := toUint256(b)
	if err != nil {
		return nil, err
	}
	d, err := toUint256(denominator)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return nil, errDivisionByZero
	}
	product, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, fmt.Errorf("%s * %s: %w", a, b, errOverflow)
	}
	return product.Div(product, d).ToBig(), nil
}

func toUint256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return nil, errors.New("nil operand")
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative operand %s", v)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%s: %w", v, errOverflow)
	}
	return out, nil
}

// IsMultiple reports whether quantity is a non-zero multiple of unit.
func IsMultiple(quantity, unit *big.Int) bool {
	if quantity == nil || unit == nil || unit.Sign() <= 0 || quantity.Sign() <= 0 {
		return false
	}
	return new(big.Int).Mod(quantity, unit).Sign() == 0
}

// FormatTime renders a unix timestamp for assertion messages.
func FormatTime(ts *big.Int) string {
	if ts == nil || !ts.IsInt64() {
		return fmt.Sprint(ts)
	}
	return time.Unix(ts.Int64(), 0).UTC().Format(time.UnixDate)
}

// FormatBasisPoints renders a basis point value as a percentage with two
// decimals, 1234 becoming "12.34".
func FormatBasisPoints(bps *big.Int) string {
	if bps == nil {
		return "0.00"
	}
	whole, frac := new(big.Int).QuoRem(bps, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s.%02d", whole, frac.Int64())
}
