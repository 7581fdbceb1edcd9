// Package http serves the sale over a JSON API: snapshots for display,
// quotes, purchase submission and purchase status, plus health and metrics
// endpoints for operators.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	rcxsale "github.com/rcx-labs/rcxsale-go"
	"github.com/rcx-labs/rcxsale-go/purchase"
)

// SnapshotSource provides the composite reads the display endpoints serve.
// *contract.Aggregator satisfies it.
type SnapshotSource interface {
	SaleSnapshot(ctx context.Context) rcxsale.SaleSnapshot
	Stages(ctx context.Context) ([]rcxsale.Stage, error)
	UserSnapshot(ctx context.Context, account common.Address) rcxsale.UserSnapshot
}

// PurchaseAPI is the purchase surface the server exposes.
// *purchase.Orchestrator satisfies it.
type PurchaseAPI interface {
	Quote(ctx context.Context, rcxAmount18 *big.Int, method rcxsale.PaymentMethod) (rcxsale.QuoteResult, error)
	Submit(ctx context.Context, rcxAmount18 *big.Int, method rcxsale.PaymentMethod) (*purchase.Result, error)
	CheckStatus(ctx context.Context) (*purchase.Result, error)
	Phase() rcxsale.TxPhase
}

// Pinger probes the read endpoint for the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the JSON API server.
type Server struct {
	snapshots SnapshotSource
	purchases PurchaseAPI
	pinger    Pinger
	log       *slog.Logger
	metrics   *metricsRegistry
	srv       *http.Server
}

// NewServer builds the server. purchases may be nil for a read-only
// deployment; the purchase endpoints then answer 503.
func NewServer(addr string, snapshots SnapshotSource, purchases PurchaseAPI, pinger Pinger, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		snapshots: snapshots,
		purchases: purchases,
		pinger:    pinger,
		log:       log,
		metrics:   newMetricsRegistry(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sale", s.handleSale)
		r.Get("/stages", s.handleStages)
		r.Get("/user/{address}", s.handleUser)
		r.Get("/quote", s.handleQuote)
		r.Post("/purchase", s.handlePurchase)
		r.Get("/purchase", s.handlePurchaseStatus)
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("api listening", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.metrics.incRequest(r.URL.Path, strconv.Itoa(ww.Status()))
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	var rpcErr string

	if s.pinger != nil {
		start := time.Now()
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		err := s.pinger.Ping(ctx)
		cancel()
		s.metrics.observeRPCLatency(time.Since(start))
		if err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			rpcErr = err.Error()
		}
	}

	writeJSON(w, code, map[string]string{
		"status":    status,
		"rpc_error": rpcErr,
	})
}

func (s *Server) handleSale(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshots.SaleSnapshot(r.Context())
	writeJSON(w, http.StatusOK, saleSnapshotDTO(snap))
}

func (s *Server) handleStages(w http.ResponseWriter, r *http.Request) {
	stages, err := s.snapshots.Stages(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]stageJSON, len(stages))
	for i, st := range stages {
		out[i] = stageDTO(st)
	}
	writeJSON(w, http.StatusOK, map[string]any{"stages": out})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "address")
	if err := rcxsale.ValidateTokenAddress(raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid address"})
		return
	}
	snap := s.snapshots.UserSnapshot(r.Context(), common.HexToAddress(raw))
	writeJSON(w, http.StatusOK, userSnapshotDTO(snap))
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if s.purchases == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorJSON{Error: "purchasing is not enabled"})
		return
	}
	amount, method, ok := parseQuoteParams(w, r.URL.Query().Get("amount"), r.URL.Query().Get("method"))
	if !ok {
		s.metrics.incQuote("bad_request")
		return
	}
	quote, err := s.purchases.Quote(r.Context(), amount, method)
	if err != nil {
		s.metrics.incQuote("error")
		writeError(w, err)
		return
	}
	s.metrics.incQuote("ok")
	writeJSON(w, http.StatusOK, quoteDTO(quote))
}

type purchaseRequest struct {
	Amount string `json:"amount"`
	Method string `json:"method"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	if s.purchases == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorJSON{Error: "purchasing is not enabled"})
		return
	}
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.incPurchase("bad_request")
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: "invalid request body"})
		return
	}
	amount, method, ok := parseQuoteParams(w, req.Amount, req.Method)
	if !ok {
		s.metrics.incPurchase("bad_request")
		return
	}

	res, err := s.purchases.Submit(r.Context(), amount, method)
	switch {
	case err == nil:
		s.metrics.incPurchase("confirmed")
		writeJSON(w, http.StatusOK, resultDTO(res, s.purchases.Phase()))
	case errors.Is(err, rcxsale.ErrConfirmationTimedOut):
		// Submitted but not yet mined; the client polls GET /purchase.
		s.metrics.incPurchase("pending")
		writeJSON(w, http.StatusAccepted, resultDTO(res, s.purchases.Phase()))
	default:
		s.metrics.incPurchase("error")
		writeError(w, err)
	}
}

func (s *Server) handlePurchaseStatus(w http.ResponseWriter, r *http.Request) {
	if s.purchases == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorJSON{Error: "purchasing is not enabled"})
		return
	}
	res, err := s.purchases.CheckStatus(r.Context())
	if res == nil {
		writeError(w, err)
		return
	}
	// A revert still yields the result; the phase in the body tells the story.
	writeJSON(w, http.StatusOK, resultDTO(res, s.purchases.Phase()))
}

func parseQuoteParams(w http.ResponseWriter, amountStr, methodStr string) (*big.Int, rcxsale.PaymentMethod, bool) {
	if methodStr == "" {
		methodStr = string(rcxsale.MethodAuto)
	}
	method, err := rcxsale.ParsePaymentMethod(methodStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: err.Error()})
		return nil, "", false
	}
	amount, err := rcxsale.ParseTokenAmount(amountStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Error: err.Error()})
		return nil, "", false
	}
	return amount, method, true
}

type errorJSON struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, rcxsale.ErrInvalidAmount):
		code = http.StatusBadRequest
	case errors.Is(err, rcxsale.ErrNotPurchasable),
		errors.Is(err, rcxsale.ErrAlreadyInFlight):
		code = http.StatusConflict
	case errors.Is(err, rcxsale.ErrInsufficientFunds):
		code = http.StatusPaymentRequired
	case errors.Is(err, rcxsale.ErrReadUnavailable),
		errors.Is(err, rcxsale.ErrQuoteFailed):
		code = http.StatusBadGateway
	case errors.Is(err, rcxsale.ErrNotConnected),
		errors.Is(err, rcxsale.ErrSessionClosed),
		errors.Is(err, rcxsale.ErrWalletUnavailable):
		code = http.StatusServiceUnavailable
	case errors.Is(err, rcxsale.ErrUserRejected),
		errors.Is(err, rcxsale.ErrNotOwner):
		code = http.StatusForbidden
	case errors.Is(err, rcxsale.ErrTransactionReverted),
		errors.Is(err, rcxsale.ErrApprovalFailed):
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, errorJSON{Error: err.Error()})
}
