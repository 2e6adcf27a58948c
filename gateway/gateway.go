// Package gateway serves read-only Set Protocol views over HTTP.
package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"setprotocol/contracts"
	"setprotocol/gateway/middleware"
	"setprotocol/sdk/setprotocol"
)

// Config controls the router's middleware.
type Config struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	RateLimit      middleware.RateLimit
	Observability  middleware.ObservabilityConfig
}

type server struct {
	client *setprotocol.Client
	logger *slog.Logger
}

// New builds the gateway router over a session client.
func New(client *setprotocol.Client, cfg Config) (http.Handler, error) {
	if client == nil {
		return nil, errors.New("gateway: nil client")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{client: client, logger: logger}
	obs := middleware.NewObservability(cfg.Observability, logger)

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(obs.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", obs.MetricsHandler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(middleware.NewRateLimiter(cfg.RateLimit).Middleware)
		v1.Get("/sets/{address}", s.setDetails)
		v1.Get("/rebalancing/{address}", s.rebalancingDetails)
		v1.Get("/rebalancing/{address}/bid-price", s.bidPrice)
		v1.Get("/oracles/{address}/price", s.oraclePrice)
		v1.Get("/tokens/{address}/balances/{owner}", s.tokenBalance)
	})
	return r, nil
}

func (s *server) setDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.client.SetToken.Details(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := setResponse{
		Address:     details.Address.Hex(),
		Name:        details.Name,
		Symbol:      details.Symbol,
		Factory:     details.Factory.Hex(),
		NaturalUnit: amount(details.NaturalUnit),
		TotalSupply: amount(details.TotalSupply),
		Components:  make([]componentResponse, 0, len(details.Components)),
	}
	for _, c := range details.Components {
		resp.Components = append(resp.Components, componentResponse{Address: c.Address.Hex(), Unit: amount(c.Unit)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) rebalancingDetails(w http.ResponseWriter, r *http.Request) {
	d, err := s.client.Rebalancing.Details(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rebalancingResponse{
		Address:           d.Address.Hex(),
		Name:              d.Name,
		Symbol:            d.Symbol,
		Manager:           d.Manager.Hex(),
		Factory:           d.Factory.Hex(),
		CurrentSet:        d.CurrentSet.Hex(),
		State:             d.State.String(),
		UnitShares:        amount(d.UnitShares),
		NaturalUnit:       amount(d.NaturalUnit),
		TotalSupply:       amount(d.TotalSupply),
		RebalanceInterval: amount(d.RebalanceInterval),
		ProposalPeriod:    amount(d.ProposalPeriod),
		LastRebalancedAt:  amount(d.LastRebalancedAt),
	})
}

func (s *server) bidPrice(w http.ResponseWriter, r *http.Request) {
	quantity, err := contracts.ParseAmount("quantity", r.URL.Query().Get("quantity"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	flows, err := s.client.Rebalancing.BidPrice(r.Context(), chi.URLParam(r, "address"), quantity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := bidPriceResponse{
		Tokens:   hexes(flows.Tokens),
		Inflow:   amounts(flows.Inflow),
		Outflow:  amounts(flows.Outflow),
		Inflows:  []flowResponse{},
		Outflows: []flowResponse{},
	}
	for _, f := range flows.Inflows {
		resp.Inflows = append(resp.Inflows, flowResponse{Token: f.Token.Hex(), Amount: amount(f.Amount)})
	}
	for _, f := range flows.Outflows {
		resp.Outflows = append(resp.Outflows, flowResponse{Token: f.Token.Hex(), Amount: amount(f.Amount)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) oraclePrice(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	price, err := s.client.Oracle.Price(r.Context(), address)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{Oracle: common.HexToAddress(address).Hex(), Price: amount(price)})
}

func (s *server) tokenBalance(w http.ResponseWriter, r *http.Request) {
	token, owner := chi.URLParam(r, "address"), chi.URLParam(r, "owner")
	balance, err := s.client.ERC20.BalanceOf(r.Context(), token, owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		Token:   common.HexToAddress(token).Hex(),
		Owner:   common.HexToAddress(owner).Hex(),
		Balance: amount(balance),
	})
}

// statusFor maps SDK failures onto HTTP statuses.
func statusFor(err error) int {
	var (
		validation *contracts.ValidationError
		assertion  *contracts.AssertionError
		rejected   *contracts.RemoteRejected
	)
	switch {
	case errors.As(err, &validation), errors.Is(err, contracts.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.As(err, &assertion):
		return http.StatusConflict
	case errors.As(err, &rejected), errors.Is(err, contracts.ErrRemoteRejected):
		return http.StatusBadGateway
	case errors.Is(err, contracts.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("gateway request failed",
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Any("error", err))
	}
	resp := errorResponse{Error: err.Error()}
	var rejected *contracts.RemoteRejected
	if errors.As(err, &rejected) {
		resp.Contract = rejected.Contract.Hex()
		resp.Method = rejected.Method
		resp.Reverted = rejected.Reverted
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("write response", slog.Any("error", err))
	}
}

func amount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func amounts(values []*big.Int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = amount(v)
	}
	return out
}

func hexes(addrs []common.Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.Hex()
	}
	return out
}
