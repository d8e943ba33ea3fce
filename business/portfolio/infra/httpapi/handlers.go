package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	liquidityApp "github.com/fd1az/lp-portfolio/business/liquidity/app"
	"github.com/fd1az/lp-portfolio/internal/apperror"
)

// GET /v1/portfolio/{account}
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.portfolio.Report(r.Context(), mux.Vars(r)["account"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

type closeOut struct {
	Strategy string `json:"strategy"`
	CDPID    string `json:"cdpId"`
	Manifest string `json:"manifest"`
	Current  string `json:"current"`
}

// GET /v1/strategies/{account}/closeout
func (s *Server) handleCloseOuts(w http.ResponseWriter, r *http.Request) {
	positions, err := s.portfolio.CloseOuts(r.Context(), mux.Vars(r)["account"])
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]closeOut, 0, len(positions))
	for _, p := range positions {
		out = append(out, closeOut{
			Strategy: p.Strategy,
			CDPID:    p.CDPID,
			Manifest: p.CloseOut,
			Current:  p.Current.String(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"positions": out})
}

// POST /v1/manifests/precision/add
func (s *Server) handlePrecisionAdd(w http.ResponseWriter, r *http.Request) {
	var req liquidityApp.AddRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.fail(w, r, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("request body"), apperror.WithCause(err)))
		return
	}

	plan, err := s.portfolio.PlanPrecisionAdd(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.Wrap(err, apperror.CodeInternalError, r.URL.Path)
	if appErr.StatusCode >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", append([]any{"path", r.URL.Path}, appErr.LogAttrs()...)...)
	}
	respondError(w, r, appErr)
}

func respondError(w http.ResponseWriter, r *http.Request, err *apperror.AppError) {
	if id := RequestID(r.Context()); id != "" {
		err = err.WithTraceID(id)
	}
	respondJSON(w, err.StatusCode, err.ToResponse())
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
