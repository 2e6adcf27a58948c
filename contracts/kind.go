package contracts

import "fmt"

// Kind names the interface a deployed contract is addressed through. The same
// address may be resolved under several kinds (a SetToken is also an ERC20).
type Kind uint8

const (
	KindERC20 Kind = iota + 1
	KindSetToken
	KindRebalancingSetToken
	KindCore
	KindVault
	KindRebalanceAuctionModule
	KindProtocolViewer
	KindMedianizer
	KindHistoricalPriceFeed
	KindMovingAverageOracle
	KindBTCETHRebalancingManager
	KindMACOStrategyManager
)

var kindNames = map[Kind]string{
	KindERC20:                    "ERC20",
	KindSetToken:                 "SetToken",
	KindRebalancingSetToken:      "RebalancingSetToken",
	KindCore:                     "Core",
	KindVault:                    "Vault",
	KindRebalanceAuctionModule:   "RebalanceAuctionModule",
	KindProtocolViewer:           "ProtocolViewer",
	KindMedianizer:               "Medianizer",
	KindHistoricalPriceFeed:      "HistoricalPriceFeed",
	KindMovingAverageOracle:      "MovingAverageOracle",
	KindBTCETHRebalancingManager: "BTCETHRebalancingManager",
	KindMACOStrategyManager:      "MACOStrategyManager",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Kinds returns every known contract kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := KindERC20; k <= KindMACOStrategyManager; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
