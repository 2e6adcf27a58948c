package contracts

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	hashPattern    = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// IsAddress reports whether value is a 0x-prefixed 20-byte hex string.
func IsAddress(value string) bool {
	return addressPattern.MatchString(value)
}

// ParseAddress validates value as a chain address and names field in the
// returned error when it is malformed.
func ParseAddress(field, value string) (common.Address, error) {
	if !IsAddress(value) {
		return common.Address{}, &ValidationError{
			Field:  field,
			Value:  value,
			Reason: "must be a 0x-prefixed 20-byte hex address",
		}
	}
	return common.HexToAddress(value), nil
}

// ParseHash validates value as a 32-byte transaction hash.
func ParseHash(field, value string) (common.Hash, error) {
	if !hashPattern.MatchString(value) {
		return common.Hash{}, &ValidationError{
			Field:  field,
			Value:  value,
			Reason: "must be a 0x-prefixed 32-byte hex hash",
		}
	}
	return common.HexToHash(value), nil
}

// ParseAddresses validates every entry, naming the offending index.
func ParseAddresses(field string, values []string) ([]common.Address, error) {
	out := make([]common.Address, len(values))
	for i, value := range values {
		addr, err := ParseAddress(fmt.Sprintf("%s[%d]", field, i), value)
		if err != nil {
			return nil, err
		}
		out[i] = addr
	}
	return out, nil
}

// ParseOptionalAddress treats a blank value as the zero address.
func ParseOptionalAddress(field, value string) (common.Address, error) {
	if strings.TrimSpace(value) == "" {
		return common.Address{}, nil
	}
	return ParseAddress(field, value)
}

// RequirePositive rejects nil, zero and negative quantities.
func RequirePositive(field string, value *big.Int) error {
	if value == nil {
		return &ValidationError{Field: field, Value: "<nil>", Reason: "required"}
	}
	if value.Sign() <= 0 {
		return &ValidationError{Field: field, Value: value.String(), Reason: "must be positive"}
	}
	return nil
}

// RequireNonNegative rejects nil and negative quantities.
func RequireNonNegative(field string, value *big.Int) error {
	if value == nil {
		return &ValidationError{Field: field, Value: "<nil>", Reason: "required"}
	}
	if value.Sign() < 0 {
		return &ValidationError{Field: field, Value: value.String(), Reason: "must not be negative"}
	}
	return nil
}

// ParseAmount parses a base-10 integer quantity in the token's smallest unit.
func ParseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, &ValidationError{Field: field, Value: value, Reason: "must be a base-10 integer"}
	}
	if amount.Sign() < 0 {
		return nil, &ValidationError{Field: field, Value: value, Reason: "must not be negative"}
	}
	return amount, nil
}
