package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"MarketPulse/internal/collector"
	apperr "MarketPulse/internal/errors"
	"MarketPulse/internal/logger"
	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
	"MarketPulse/internal/normalizer"
	"MarketPulse/internal/strategy"
)

// Server exposes the collector over a small JSON API.
type Server struct {
	collector *collector.Collector
	metrics   *metrics.Metrics
	router    *mux.Router
}

func NewServer(col *collector.Collector, m *metrics.Metrics) *Server {
	s := &Server{collector: col, metrics: m, router: mux.NewRouter()}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/providers", s.handleProviders).Methods(http.MethodGet)
	a.HandleFunc("/analyze/{symbol}", s.handleAnalyze).Methods(http.MethodGet)
	a.HandleFunc("/scan/{market}", s.handleScan).Methods(http.MethodGet)
	a.HandleFunc("/movers", s.handleMovers).Methods(http.MethodGet)
	a.HandleFunc("/indices", s.handleIndices).Methods(http.MethodGet)
	a.HandleFunc("/roe", s.handleROE).Methods(http.MethodGet)
	a.HandleFunc("/fcf/{symbol}", s.handleCashFlow).Methods(http.MethodGet)
	a.HandleFunc("/margins/{symbol}", s.handleMargins).Methods(http.MethodGet)
	a.HandleFunc("/companies", s.handleCompanies).Methods(http.MethodPost)
	a.Use(logRequests)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Get().Infof("[api] listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Providers())
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	settings := s.collector.Settings()
	q := r.URL.Query()

	provider := settings.Provider
	if v := q.Get("provider"); v != "" {
		provider = model.ProviderKind(strings.ToLower(v))
	}
	period := settings.Period
	if v := q.Get("period"); v != "" {
		p, err := model.ParsePeriod(v)
		if err != nil {
			writeError(w, apperr.Wrap(apperr.ErrCodeInvalidRequest, "bad period", err))
			return
		}
		period = p
	}

	a, err := s.collector.AnalyzeWith(r.Context(), mux.Vars(r)["symbol"], provider, period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, apperr.Newf(apperr.ErrCodeInvalidRequest, "bad limit %q", v))
			return
		}
		limit = n
	}
	report, err := s.collector.ScanMarket(r.Context(), mux.Vars(r)["market"], limit, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMovers(w http.ResponseWriter, r *http.Request) {
	m, err := s.collector.Movers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleIndices(w http.ResponseWriter, r *http.Request) {
	report, err := s.collector.Indices(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleROE(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minROE := collector.DefaultMinROE
	if v := q.Get("min"); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil {
			writeError(w, apperr.Newf(apperr.ErrCodeInvalidRequest, "bad min %q", v))
			return
		}
		minROE = f
	}
	var symbols []string
	if v := q.Get("symbols"); v != "" {
		for _, sym := range strings.Split(v, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				symbols = append(symbols, sym)
			}
		}
	}
	screen, err := s.collector.ScreenROE(r.Context(), symbols, minROE, q.Get("sector"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screen)
}

func (s *Server) handleCashFlow(w http.ResponseWriter, r *http.Request) {
	cf, err := s.collector.FreeCashFlow(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cf)
}

func (s *Server) handleMargins(w http.ResponseWriter, r *http.Request) {
	m, err := s.collector.Margins(r.Context(), mux.Vars(r)["symbol"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type companiesResponse struct {
	Companies []model.Company `json:"companies"`
	Total     int             `json:"total"`
	Dropped   int             `json:"dropped"`
}

// handleCompanies screens a company list CSV posted as the request body.
func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	list, err := normalizer.ParseCompanies(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, companiesResponse{
		Companies: strategy.FilterCompanies(list.Companies),
		Total:     len(list.Companies) + len(list.Dropped),
		Dropped:   len(list.Dropped),
	})
}

const maxUploadSize = 5 << 20

type errorBody struct {
	Code    apperr.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

func statusFor(code apperr.ErrorCode) int {
	switch code {
	case apperr.ErrCodeInvalidRequest, apperr.ErrCodeUnknownProvider:
		return http.StatusBadRequest
	case apperr.ErrCodeMissingCredential:
		return http.StatusPreconditionFailed
	case apperr.ErrCodeProviderRejected, apperr.ErrCodeUnrecognizedPayloadShape:
		return http.StatusBadGateway
	case apperr.ErrCodeTransientFetchFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := apperr.GetCode(err)
	writeJSON(w, statusFor(code), errorBody{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Errorf("[api] encode response: %v", err)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Get().Debugf("[api] %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
