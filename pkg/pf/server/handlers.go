package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/komsit37/pf/pkg/pf/holdings"
	"github.com/komsit37/pf/pkg/pf/market"
	"github.com/komsit37/pf/pkg/pf/pipeline"
	"github.com/komsit37/pf/pkg/pf/types"
	"github.com/komsit37/pf/pkg/pf/valuation"
)

type portfolioResponse struct {
	Currency types.Currency `json:"currency"`
	Result   types.Result   `json:"result"`
	// Error is set when the latest cycle failed and Result is from an
	// earlier one.
	Error string `json:"error,omitempty"`
}

type currencyRequest struct {
	Currency string `json:"currency"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusOf maps dashboard errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, holdings.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrNoHolding):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrNoResult):
		return http.StatusServiceUnavailable
	case errors.Is(err, valuation.ErrNoUsableData), errors.Is(err, market.ErrUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) portfolio(w http.ResponseWriter, res types.Result, err error) {
	out := portfolioResponse{Currency: s.d.Currency(), Result: res}
	if err != nil {
		out.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	res, ok := s.d.Last()
	if !ok {
		err := s.d.LastError()
		if err == nil {
			err = pipeline.ErrNoResult
		}
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.portfolio(w, res, s.d.LastError())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.d.TriggerRefresh(r.Context())
	if err != nil {
		if _, ok := s.d.Last(); !ok {
			s.logger.Warn("refresh failed", zap.Error(err))
			writeError(w, err.Error(), statusOf(err))
			return
		}
	}
	s.portfolio(w, res, err)
}

func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.d.Store().List())
}

func (s *Server) handleUpsertHolding(w http.ResponseWriter, r *http.Request) {
	var h types.Holding
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		writeError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if holdings.Normalize(h.Ticker) == "" {
		writeError(w, "ticker is required", http.StatusBadRequest)
		return
	}
	if err := s.d.AddOrUpdateHolding(h.Ticker, h.Shares, h.CostBasis, h.Domain); err != nil {
		writeError(w, err.Error(), statusOf(err))
		return
	}
	s.recompute()
	saved, _ := s.d.Store().Get(h.Ticker)
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if !s.d.RemoveHolding(ticker) {
		writeError(w, "no such holding: "+holdings.Normalize(ticker), http.StatusNotFound)
		return
	}
	s.recompute()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.d.ResetPortfolio()
	s.recompute()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.d.SetDisplayCurrency(types.Currency(req.Currency)); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := s.d.Recompute()
	if errors.Is(err, pipeline.ErrNoResult) {
		writeJSON(w, http.StatusOK, map[string]types.Currency{"currency": s.d.Currency()})
		return
	}
	s.portfolio(w, res, err)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	s.d.SelectDetailTicker(chi.URLParam(r, "ticker"))
	detail, err := s.d.Detail(r.Context())
	if err != nil {
		writeError(w, err.Error(), statusOf(err))
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleLogo(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	url, err := s.d.Logo(r.Context(), ticker)
	if err != nil {
		writeError(w, err.Error(), statusOf(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ticker": holdings.Normalize(ticker), "logo": url})
}

// recompute refreshes the result after an edit. Before the first fetch there
// is nothing to recompute.
func (s *Server) recompute() {
	if _, err := s.d.Recompute(); err != nil && !errors.Is(err, pipeline.ErrNoResult) {
		s.logger.Warn("recompute failed", zap.Error(err))
	}
}
