package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

var parsedABIs = func() map[Kind]*abi.ABI {
	parsed := make(map[Kind]*abi.ABI, len(abiSources))
	for kind, source := range abiSources {
		contractABI, err := abi.JSON(strings.NewReader(source))
		if err != nil {
			panic(fmt.Sprintf("contracts: parse %s abi: %v", kind, err))
		}
		parsed[kind] = &contractABI
	}
	return parsed
}()

// ABI returns the parsed interface for kind. It panics on an unknown kind,
// which can only happen through a programming error.
func ABI(kind Kind) *abi.ABI {
	contractABI, ok := parsedABIs[kind]
	if !ok {
		panic(fmt.Sprintf("contracts: unknown contract kind %s", kind))
	}
	return contractABI
}
