package contracts

// ABI fragments for the deployed protocol contracts. Fragments are joined into
// full JSON arrays by abiSources so interfaces that extend ERC20 share its
// entries.

const erc20Entries = `
	{"type": "function", "name": "name", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "string"}]},
	{"type": "function", "name": "symbol", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "string"}]},
	{"type": "function", "name": "decimals", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint8"}]},
	{"type": "function", "name": "totalSupply", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "balanceOf", "stateMutability": "view",
		"inputs": [{"name": "_owner", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "allowance", "stateMutability": "view",
		"inputs": [{"name": "_owner", "type": "address"}, {"name": "_spender", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "transfer", "stateMutability": "nonpayable",
		"inputs": [{"name": "_to", "type": "address"}, {"name": "_value", "type": "uint256"}],
		"outputs": [{"name": "", "type": "bool"}]},
	{"type": "function", "name": "transferFrom", "stateMutability": "nonpayable",
		"inputs": [{"name": "_from", "type": "address"}, {"name": "_to", "type": "address"}, {"name": "_value", "type": "uint256"}],
		"outputs": [{"name": "", "type": "bool"}]},
	{"type": "function", "name": "approve", "stateMutability": "nonpayable",
		"inputs": [{"name": "_spender", "type": "address"}, {"name": "_value", "type": "uint256"}],
		"outputs": [{"name": "", "type": "bool"}]},
	{"type": "event", "name": "Transfer", "anonymous": false,
		"inputs": [{"indexed": true, "name": "from", "type": "address"}, {"indexed": true, "name": "to", "type": "address"}, {"indexed": false, "name": "value", "type": "uint256"}]},
	{"type": "event", "name": "Approval", "anonymous": false,
		"inputs": [{"indexed": true, "name": "owner", "type": "address"}, {"indexed": true, "name": "spender", "type": "address"}, {"indexed": false, "name": "value", "type": "uint256"}]}`

const setTokenEntries = `
	{"type": "function", "name": "naturalUnit", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "getComponents", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address[]"}]},
	{"type": "function", "name": "getUnits", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256[]"}]},
	{"type": "function", "name": "factory", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "tokenIsComponent", "stateMutability": "view",
		"inputs": [{"name": "_tokenAddress", "type": "address"}],
		"outputs": [{"name": "", "type": "bool"}]}`

const rebalancingSetTokenEntries = `
	{"type": "function", "name": "manager", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "rebalanceState", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint8"}]},
	{"type": "function", "name": "currentSet", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "nextSet", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "auctionLibrary", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "unitShares", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "naturalUnit", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "rebalanceInterval", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "lastRebalanceTimestamp", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "proposalPeriod", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "proposalStartTime", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "factory", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "startingCurrentSetAmount", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "auctionParameters", "stateMutability": "view", "inputs": [],
		"outputs": [{"name": "auctionStartTime", "type": "uint256"}, {"name": "auctionTimeToPivot", "type": "uint256"}, {"name": "auctionStartPrice", "type": "uint256"}, {"name": "auctionPivotPrice", "type": "uint256"}]},
	{"type": "function", "name": "biddingParameters", "stateMutability": "view", "inputs": [],
		"outputs": [{"name": "minimumBid", "type": "uint256"}, {"name": "remainingCurrentSets", "type": "uint256"}]},
	{"type": "function", "name": "getCombinedTokenArray", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address[]"}]},
	{"type": "function", "name": "getCombinedCurrentUnits", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256[]"}]},
	{"type": "function", "name": "getCombinedNextSetUnits", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256[]"}]},
	{"type": "function", "name": "getComponents", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address[]"}]},
	{"type": "function", "name": "getUnits", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256[]"}]},
	{"type": "function", "name": "getBidPrice", "stateMutability": "view",
		"inputs": [{"name": "_quantity", "type": "uint256"}],
		"outputs": [{"name": "inflowUnitArray", "type": "uint256[]"}, {"name": "outflowUnitArray", "type": "uint256[]"}]},
	{"type": "function", "name": "propose", "stateMutability": "nonpayable",
		"inputs": [{"name": "_nextSet", "type": "address"}, {"name": "_auctionLibrary", "type": "address"}, {"name": "_auctionTimeToPivot", "type": "uint256"}, {"name": "_auctionStartPrice", "type": "uint256"}, {"name": "_auctionPivotPrice", "type": "uint256"}],
		"outputs": []},
	{"type": "function", "name": "startRebalance", "stateMutability": "nonpayable", "inputs": [], "outputs": []},
	{"type": "function", "name": "settleRebalance", "stateMutability": "nonpayable", "inputs": [], "outputs": []},
	{"type": "function", "name": "endFailedAuction", "stateMutability": "nonpayable", "inputs": [], "outputs": []},
	{"type": "function", "name": "setManager", "stateMutability": "nonpayable",
		"inputs": [{"name": "_newManager", "type": "address"}],
		"outputs": []}`

const coreABI = `[
	{"type": "function", "name": "issue", "stateMutability": "nonpayable",
		"inputs": [{"name": "_set", "type": "address"}, {"name": "_quantity", "type": "uint256"}],
		"outputs": []},
	{"type": "function", "name": "issueTo", "stateMutability": "nonpayable",
		"inputs": [{"name": "_recipient", "type": "address"}, {"name": "_set", "type": "address"}, {"name": "_quantity", "type": "uint256"}],
		"outputs": []},
	{"type": "function", "name": "redeem", "stateMutability": "nonpayable",
		"inputs": [{"name": "_set", "type": "address"}, {"name": "_quantity", "type": "uint256"}],
		"outputs": []},
	{"type": "function", "name": "redeemAndWithdrawTo", "stateMutability": "nonpayable",
		"inputs": [{"name": "_set", "type": "address"}, {"name": "_to", "type": "address"}, {"name": "_quantity", "type": "uint256"}, {"name": "_toExclude", "type": "uint256"}],
		"outputs": []},
	{"type": "function", "name": "deposit", "stateMutability": "nonpayable",
		"inputs": [{"name": "_token", "type": "address"}, {"name": "_quantity", "type": "uint256"}],
		"outputs": []},
	{"type": "function", "name": "withdraw", "stateMutability": "nonpayable",
		"inputs": [{"name": "_token", "type": "address"}, {"name": "_quantity", "type": "uint256"}],
		"outputs": []},
	{"type": "function", "name": "batchDeposit", "stateMutability": "nonpayable",
		"inputs": [{"name": "_tokens", "type": "address[]"}, {"name": "_quantities", "type": "uint256[]"}],
		"outputs": []},
	{"type": "function", "name": "batchWithdraw", "stateMutability": "nonpayable",
		"inputs": [{"name": "_tokens", "type": "address[]"}, {"name": "_quantities", "type": "uint256[]"}],
		"outputs": []},
	{"type": "function", "name": "createSet", "stateMutability": "nonpayable",
		"inputs": [{"name": "_factory", "type": "address"}, {"name": "_components", "type": "address[]"}, {"name": "_units", "type": "uint256[]"}, {"name": "_naturalUnit", "type": "uint256"}, {"name": "_name", "type": "bytes32"}, {"name": "_symbol", "type": "bytes32"}, {"name": "_callData", "type": "bytes"}],
		"outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "validSets", "stateMutability": "view",
		"inputs": [{"name": "_set", "type": "address"}],
		"outputs": [{"name": "", "type": "bool"}]},
	{"type": "function", "name": "setTokens", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address[]"}]},
	{"type": "function", "name": "vault", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "transferProxy", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]}
]`

const vaultABI = `[
	{"type": "function", "name": "getOwnerBalance", "stateMutability": "view",
		"inputs": [{"name": "_token", "type": "address"}, {"name": "_owner", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]}
]`

const rebalanceAuctionModuleABI = `[
	{"type": "function", "name": "bid", "stateMutability": "nonpayable",
		"inputs": [{"name": "_rebalancingSetToken", "type": "address"}, {"name": "_quantity", "type": "uint256"}, {"name": "_allowPartialFill", "type": "bool"}],
		"outputs": []},
	{"type": "function", "name": "bidAndWithdraw", "stateMutability": "nonpayable",
		"inputs": [{"name": "_rebalancingSetToken", "type": "address"}, {"name": "_quantity", "type": "uint256"}, {"name": "_allowPartialFill", "type": "bool"}],
		"outputs": []},
	{"type": "function", "name": "withdrawFromFailedRebalance", "stateMutability": "nonpayable",
		"inputs": [{"name": "_rebalancingSetToken", "type": "address"}],
		"outputs": []}
]`

const protocolViewerABI = `[
	{"type": "function", "name": "batchFetchBalancesOf", "stateMutability": "view",
		"inputs": [{"name": "_tokenAddresses", "type": "address[]"}, {"name": "_owner", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256[]"}]},
	{"type": "function", "name": "batchFetchSupplies", "stateMutability": "view",
		"inputs": [{"name": "_tokenAddresses", "type": "address[]"}],
		"outputs": [{"name": "", "type": "uint256[]"}]},
	{"type": "function", "name": "fetchRebalanceProposalStateAsync", "stateMutability": "view",
		"inputs": [{"name": "_rebalancingSetToken", "type": "address"}],
		"outputs": [{"name": "", "type": "uint8"}, {"name": "", "type": "address[]"}, {"name": "", "type": "uint256[]"}]},
	{"type": "function", "name": "fetchRebalanceAuctionStateAsync", "stateMutability": "view",
		"inputs": [{"name": "_rebalancingSetToken", "type": "address"}],
		"outputs": [{"name": "", "type": "uint8"}, {"name": "", "type": "uint256[]"}]}
]`

const medianizerABI = `[
	{"type": "function", "name": "read", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "bytes32"}]},
	{"type": "function", "name": "peek", "stateMutability": "view", "inputs": [],
		"outputs": [{"name": "", "type": "bytes32"}, {"name": "", "type": "bool"}]}
]`

const historicalPriceFeedABI = `[
	{"type": "function", "name": "read", "stateMutability": "view",
		"inputs": [{"name": "_dataDays", "type": "uint256"}],
		"outputs": [{"name": "", "type": "uint256[]"}]},
	{"type": "function", "name": "lastUpdatedAt", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "updateFrequency", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "poke", "stateMutability": "nonpayable", "inputs": [], "outputs": []}
]`

const movingAverageOracleABI = `[
	{"type": "function", "name": "read", "stateMutability": "view",
		"inputs": [{"name": "_dataPoints", "type": "uint256"}],
		"outputs": [{"name": "", "type": "bytes32"}]},
	{"type": "function", "name": "getSourceMedianizer", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]}
]`

const btcEthRebalancingManagerABI = `[
	{"type": "function", "name": "propose", "stateMutability": "nonpayable",
		"inputs": [{"name": "_rebalancingSetTokenAddress", "type": "address"}],
		"outputs": []},
	{"type": "function", "name": "btcPriceFeed", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "ethPriceFeed", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "btcAddress", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "ethAddress", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "setTokenFactory", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "coreAddress", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "auctionLibrary", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "auctionTimeToPivot", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "btcMultiplier", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "ethMultiplier", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "maximumLowerThreshold", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "minimumUpperThreshold", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]}
]`

const macoStrategyManagerABI = `[
	{"type": "function", "name": "initialPropose", "stateMutability": "nonpayable",
		"inputs": [{"name": "_rebalancingSetTokenAddress", "type": "address"}],
		"outputs": []},
	{"type": "function", "name": "confirmPropose", "stateMutability": "nonpayable",
		"inputs": [{"name": "_rebalancingSetTokenAddress", "type": "address"}],
		"outputs": []},
	{"type": "function", "name": "movingAveragePriceFeed", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "stableAssetAddress", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "riskAssetAddress", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "stableCollateralAddress", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "riskCollateralAddress", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "setTokenFactory", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "coreAddress", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "auctionLibrary", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "address"}]},
	{"type": "function", "name": "movingAverageDays", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "auctionTimeToPivot", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "lastCrossoverConfirmationTimestamp", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "crossoverConfirmationMinTime", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "crossoverConfirmationMaxTime", "stateMutability": "view", "inputs": [], "outputs": [{"name": "", "type": "uint256"}]}
]`

var abiSources = map[Kind]string{
	KindERC20:                    "[" + erc20Entries + "\n]",
	KindSetToken:                 "[" + erc20Entries + "," + setTokenEntries + "\n]",
	KindRebalancingSetToken:      "[" + erc20Entries + "," + rebalancingSetTokenEntries + "\n]",
	KindCore:                     coreABI,
	KindVault:                    vaultABI,
	KindRebalanceAuctionModule:   rebalanceAuctionModuleABI,
	KindProtocolViewer:           protocolViewerABI,
	KindMedianizer:               medianizerABI,
	KindHistoricalPriceFeed:      historicalPriceFeedABI,
	KindMovingAverageOracle:      movingAverageOracleABI,
	KindBTCETHRebalancingManager: btcEthRebalancingManagerABI,
	KindMACOStrategyManager:      macoStrategyManagerABI,
}
