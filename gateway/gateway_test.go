package gateway_test

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"setprotocol/contracts"
	"setprotocol/contracts/contractstest"
	"setprotocol/gateway"
	"setprotocol/gateway/middleware"
	"setprotocol/sdk/setprotocol"
)

var (
	setAddr     = contractstest.Addr(1)
	rebalAddr   = contractstest.Addr(2)
	medianizer  = contractstest.Addr(3)
	stale       = contractstest.Addr(4)
	tokenAddr   = contractstest.Addr(5)
	owner       = contractstest.Addr(6)
	tokenA      = contractstest.Addr(7)
	tokenB      = contractstest.Addr(8)
	auctionAddr = contractstest.Addr(9)
)

func newServer(t *testing.T, cfg gateway.Config) *httptest.Server {
	t.Helper()
	backend := contractstest.New()
	backend.Deploy(setAddr, contracts.ABI(contracts.KindSetToken)).
		Returns("name", "BTC ETH 50/50").
		Returns("symbol", "BTCETH").
		Returns("factory", contractstest.Addr(90)).
		Returns("naturalUnit", big.NewInt(10)).
		Returns("totalSupply", big.NewInt(5_000)).
		Returns("getComponents", []common.Address{tokenA, tokenB}).
		Returns("getUnits", contractstest.Units(1, 30))
	backend.Deploy(rebalAddr, contracts.ABI(contracts.KindRebalancingSetToken)).
		Returns("name", "BTC ETH Rebalancing Set").
		Returns("symbol", "BTCETHRS").
		Returns("manager", contractstest.Addr(91)).
		Returns("factory", contractstest.Addr(92)).
		Returns("currentSet", setAddr).
		Returns("rebalanceState", uint8(contracts.StateRebalance)).
		Returns("unitShares", big.NewInt(1_000_000)).
		Returns("naturalUnit", big.NewInt(1_000_000)).
		Returns("totalSupply", big.NewInt(42)).
		Returns("rebalanceInterval", big.NewInt(86_400)).
		Returns("proposalPeriod", big.NewInt(3_600)).
		Returns("lastRebalanceTimestamp", big.NewInt(1_700_000_000)).
		Returns("biddingParameters", big.NewInt(100), big.NewInt(1_000)).
		Returns("getCombinedTokenArray", []common.Address{tokenA, tokenB}).
		Returns("getBidPrice", contractstest.Units(0, 5), contractstest.Units(3, 0))
	price := new(big.Int).Mul(big.NewInt(215), big.NewInt(1e18))
	backend.Deploy(medianizer, contracts.ABI(contracts.KindMedianizer)).
		Returns("read", contracts.IntToBytes32(price))
	backend.Deploy(stale, contracts.ABI(contracts.KindMedianizer)).
		Revert("read", "Medianizer.read: price not valid")
	backend.Deploy(tokenAddr, contracts.ABI(contracts.KindERC20)).
		Returns("balanceOf", big.NewInt(7_500))

	client := setprotocol.New(backend, setprotocol.Config{
		Addresses: setprotocol.Addresses{RebalanceAuctionModule: auctionAddr},
	})
	t.Cleanup(client.Close)

	handler, err := gateway.New(client, cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestSetDetails(t *testing.T) {
	srv := newServer(t, gateway.Config{})
	var body struct {
		Name        string `json:"name"`
		NaturalUnit string `json:"naturalUnit"`
		Components  []struct {
			Address string `json:"address"`
			Unit    string `json:"unit"`
		} `json:"components"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/v1/sets/"+setAddr.Hex(), &body))
	require.Equal(t, "BTC ETH 50/50", body.Name)
	require.Equal(t, "10", body.NaturalUnit)
	require.Len(t, body.Components, 2)
	require.Equal(t, tokenB.Hex(), body.Components[1].Address)
	require.Equal(t, "30", body.Components[1].Unit)
}

func TestRebalancingDetails(t *testing.T) {
	srv := newServer(t, gateway.Config{})
	var body map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/v1/rebalancing/"+rebalAddr.Hex(), &body))
	require.Equal(t, "Rebalance", body["state"])
	require.Equal(t, setAddr.Hex(), body["currentSet"])
	require.Equal(t, "1700000000", body["lastRebalancedAt"])
}

func TestBidPrice(t *testing.T) {
	srv := newServer(t, gateway.Config{})
	var body struct {
		Tokens   []string `json:"tokens"`
		Inflow   []string `json:"inflow"`
		Outflow  []string `json:"outflow"`
		Inflows  []struct{ Token, Amount string }
		Outflows []struct{ Token, Amount string }
	}
	path := "/v1/rebalancing/" + rebalAddr.Hex() + "/bid-price?quantity=200"
	require.Equal(t, http.StatusOK, getJSON(t, srv, path, &body))
	require.Equal(t, []string{tokenA.Hex(), tokenB.Hex()}, body.Tokens)
	require.Equal(t, []string{"0", "5"}, body.Inflow)
	require.Equal(t, []string{"3", "0"}, body.Outflow)
	require.Len(t, body.Inflows, 1)
	require.Equal(t, tokenB.Hex(), body.Inflows[0].Token)
	require.Len(t, body.Outflows, 1)
	require.Equal(t, "3", body.Outflows[0].Amount)
}

func TestErrorStatuses(t *testing.T) {
	srv := newServer(t, gateway.Config{})
	cases := []struct {
		name   string
		path   string
		status int
		text   string
	}{
		{"malformed address", "/v1/sets/0x12", http.StatusBadRequest, "invalid set"},
		{"missing quantity", "/v1/rebalancing/" + rebalAddr.Hex() + "/bid-price", http.StatusBadRequest, "quantity"},
		{"bid not multiple", "/v1/rebalancing/" + rebalAddr.Hex() + "/bid-price?quantity=250", http.StatusConflict, "minimum bid 100"},
		{"remote revert", "/v1/oracles/" + stale.Hex() + "/price", http.StatusBadGateway, "Medianizer.read: price not valid"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body struct {
				Error string `json:"error"`
			}
			require.Equal(t, tc.status, getJSON(t, srv, tc.path, &body))
			require.Contains(t, body.Error, tc.text)
		})
	}
}

func TestRemoteRejectionCarriesContract(t *testing.T) {
	srv := newServer(t, gateway.Config{})
	var body struct {
		Error    string `json:"error"`
		Contract string `json:"contract"`
		Method   string `json:"method"`
		Reverted bool   `json:"reverted"`
	}
	require.Equal(t, http.StatusBadGateway, getJSON(t, srv, "/v1/oracles/"+stale.Hex()+"/price", &body))
	require.Equal(t, "Medianizer.read: price not valid", body.Error)
	require.Equal(t, stale.Hex(), body.Contract)
	require.Equal(t, "read", body.Method)
	require.True(t, body.Reverted)
}

func TestOraclePriceAndBalance(t *testing.T) {
	srv := newServer(t, gateway.Config{})
	var price map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/v1/oracles/"+medianizer.Hex()+"/price", &price))
	require.Equal(t, "215000000000000000000", price["price"])

	var balance map[string]string
	path := "/v1/tokens/" + tokenAddr.Hex() + "/balances/" + owner.Hex()
	require.Equal(t, http.StatusOK, getJSON(t, srv, path, &balance))
	require.Equal(t, "7500", balance["balance"])
	require.Equal(t, owner.Hex(), balance["owner"])
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newServer(t, gateway.Config{Observability: middleware.ObservabilityConfig{MetricsPrefix: "settest"}})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), `settest_requests_total{method="GET",route="/healthz",status="200"} 1`))
}

func TestRateLimitedRoutes(t *testing.T) {
	srv := newServer(t, gateway.Config{RateLimit: middleware.RateLimit{RequestsPerMinute: 1, Burst: 1}})
	path := "/v1/tokens/" + tokenAddr.Hex() + "/balances/" + owner.Hex()
	require.Equal(t, http.StatusOK, getJSON(t, srv, path, nil))
	require.Equal(t, http.StatusTooManyRequests, getJSON(t, srv, path, nil))

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewRequiresClient(t *testing.T) {
	_, err := gateway.New(nil, gateway.Config{})
	require.Error(t, err)
}
