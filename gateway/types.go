package gateway

// Quantities are rendered as base-10 strings so that 256-bit values survive
// JSON clients that decode numbers as doubles.

type componentResponse struct {
	Address string `json:"address"`
	Unit    string `json:"unit"`
}

type setResponse struct {
	Address     string              `json:"address"`
	Name        string              `json:"name"`
	Symbol      string              `json:"symbol"`
	Factory     string              `json:"factory"`
	NaturalUnit string              `json:"naturalUnit"`
	TotalSupply string              `json:"totalSupply"`
	Components  []componentResponse `json:"components"`
}

type rebalancingResponse struct {
	Address           string `json:"address"`
	Name              string `json:"name"`
	Symbol            string `json:"symbol"`
	Manager           string `json:"manager"`
	Factory           string `json:"factory"`
	CurrentSet        string `json:"currentSet"`
	State             string `json:"state"`
	UnitShares        string `json:"unitShares"`
	NaturalUnit       string `json:"naturalUnit"`
	TotalSupply       string `json:"totalSupply"`
	RebalanceInterval string `json:"rebalanceInterval"`
	ProposalPeriod    string `json:"proposalPeriod"`
	LastRebalancedAt  string `json:"lastRebalancedAt"`
}

type flowResponse struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type bidPriceResponse struct {
	Tokens   []string       `json:"tokens"`
	Inflow   []string       `json:"inflow"`
	Outflow  []string       `json:"outflow"`
	Inflows  []flowResponse `json:"inflows"`
	Outflows []flowResponse `json:"outflows"`
}

type priceResponse struct {
	Oracle string `json:"oracle"`
	Price  string `json:"price"`
}

type balanceResponse struct {
	Token   string `json:"token"`
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Contract string `json:"contract,omitempty"`
	Method   string `json:"method,omitempty"`
	Reverted bool   `json:"reverted,omitempty"`
}
