package contracts

import "fmt"

// RebalanceState mirrors the rebalancing set's on-chain state enum.
type RebalanceState uint8

const (
	StateDefault RebalanceState = iota
	StateProposal
	StateRebalance
	StateDrawdown
)

func (s RebalanceState) String() string {
	switch s {
	case StateDefault:
		return "Default"
	case StateProposal:
		return "Proposal"
	case StateRebalance:
		return "Rebalance"
	case StateDrawdown:
		return "Drawdown"
	default:
		return fmt.Sprintf("RebalanceState(%d)", uint8(s))
	}
}

// MarshalText renders the state by name.
func (s RebalanceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// RebalanceStateDecoder decodes a single uint8 state output.
func RebalanceStateDecoder(out []any) (RebalanceState, error) {
	raw, err := Field[uint8](out, 0)
	if err != nil {
		return 0, err
	}
	if raw > uint8(StateDrawdown) {
		return 0, fmt.Errorf("unknown rebalance state %d", raw)
	}
	return RebalanceState(raw), nil
}
