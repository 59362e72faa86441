package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sandrolain/gocalc/pkg/assistant"
	"github.com/sandrolain/gocalc/pkg/catalog"
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/formulas"
	"github.com/sandrolain/gocalc/pkg/history"
	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 16

// writeJSON marshals v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeMessage(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]any{"error": apiError{Kind: kind, Message: msg}})
}

// writeError maps err to a status code and a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	if diag, ok := types.AsDiagnostic(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": diag})
		return
	}
	var ie *formulas.InputError
	if errors.As(err, &ie) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": apiError{Kind: "InvalidInput", Message: ie.Error(), Field: ie.Field},
		})
		return
	}

	switch {
	case errors.Is(err, catalog.ErrUnknownCalculator), errors.Is(err, history.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, history.ErrMissingUser), errors.Is(err, history.ErrInvalidCursor),
		errors.Is(err, assistant.ErrEmptyInput):
		writeMessage(w, http.StatusBadRequest, "BadRequest", err.Error())
	case errors.Is(err, assistant.ErrNotConfigured):
		writeMessage(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
	case errors.Is(err, assistant.ErrAssistantUnavailable):
		writeMessage(w, http.StatusBadGateway, "Unavailable", err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal", "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "BadRequest", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": ServiceName})
}

type evaluateRequest struct {
	Expression     string `json:"expression"`
	AngleMode      string `json:"angle_mode"`
	Locale         string `json:"locale"`
	FractionDigits *int   `json:"fraction_digits"`
}

type evaluateResponse struct {
	Result    float64 `json:"result"`
	Display   string  `json:"display"`
	Formatted string  `json:"formatted"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	set := s.settings.Load()

	mode := set.angle
	if req.AngleMode != "" {
		m, err := evaluator.ParseAngleMode(req.AngleMode)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "BadRequest", err.Error())
			return
		}
		mode = m
	}
	locale := set.locale
	if req.Locale != "" {
		locale = req.Locale
	}
	digits := set.fractionDigits
	if req.FractionDigits != nil {
		digits = *req.FractionDigits
	}

	v, err := s.ev.EvalString(r.Context(), req.Expression, evaluator.NewContextWithMode(mode))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{
		Result:    v,
		Display:   evaluator.Canonical(v),
		Formatted: evaluator.FormatNumber(v, locale, digits),
	})
}

type functionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Builtin     bool   `json:"builtin"`
}

func (s *Server) handleFunctions(w http.ResponseWriter, _ *http.Request) {
	out := make([]functionInfo, 0, len(parser.BuiltinFunctions))
	for _, name := range parser.BuiltinFunctions {
		out = append(out, functionInfo{Name: name, Builtin: true})
	}
	for _, def := range s.ev.Functions() {
		out = append(out, functionInfo{Name: def.Name, Description: def.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Categories())
}

func (s *Server) handleCalculators(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var list []catalog.Calculator
	switch {
	case q.Get("category") != "":
		list = s.catalog.ByCategory(q.Get("category"))
	default:
		list = s.catalog.Calculators()
	}
	if featured, _ := strconv.ParseBool(q.Get("featured")); featured {
		kept := list[:0]
		for _, c := range list {
			if c.Featured {
				kept = append(kept, c)
			}
		}
		list = kept
	}
	if list == nil {
		list = []catalog.Calculator{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCalculator(w http.ResponseWriter, r *http.Request) {
	calc, err := s.catalog.Get(r.PathValue("slug"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	related, _ := s.catalog.Related(calc.Slug)
	writeJSON(w, http.StatusOK, map[string]any{"calculator": calc, "related": related})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	hits := s.catalog.Search(r.URL.Query().Get("q"))
	if hits == nil {
		hits = []catalog.Calculator{}
	}
	writeJSON(w, http.StatusOK, hits)
}

type computeRequest struct {
	Inputs map[string]any `json:"inputs"`
	UserID string         `json:"user_id"`
}

type computeResponse struct {
	*catalog.Computation
	HistoryID string `json:"history_id,omitempty"`
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	inputs := make(formulas.Inputs, len(req.Inputs))
	for k, v := range req.Inputs {
		if v != nil {
			inputs[k] = fmt.Sprint(v)
		}
	}

	out, err := s.catalog.Compute(r.Context(), r.PathValue("slug"), inputs)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := computeResponse{Computation: out}
	if req.UserID != "" {
		if s.history == nil {
			s.logger.Warn("history disabled, computation not saved", zap.String("calculator", out.Slug))
		} else {
			e, err := s.history.Save(r.Context(), history.Entry{
				UserID:          req.UserID,
				CalculatorSlug:  out.Slug,
				CalculatorTitle: out.Title,
				Inputs:          out.Inputs,
				Results:         out.Values(),
			})
			if err != nil {
				s.writeError(w, err)
				return
			}
			resp.HistoryID = e.ID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireHistory(w http.ResponseWriter) bool {
	if s.history == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Unavailable", "history is disabled")
		return false
	}
	return true
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeMessage(w, http.StatusBadRequest, "BadRequest", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	page, err := s.history.List(r.Context(), q.Get("user_id"), limit, q.Get("cursor"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}
	user := r.URL.Query().Get("user_id")
	if user == "" {
		s.writeError(w, history.ErrMissingUser)
		return
	}
	if err := s.history.Delete(r.Context(), user, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if !s.requireHistory(w) {
		return
	}
	n, err := s.history.Clear(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

type explainRequest struct {
	Slug           string `json:"slug"`
	CalculatorName string `json:"calculator_name"`
	Formula        string `json:"formula"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name, formula := req.CalculatorName, req.Formula
	if req.Slug != "" {
		calc, err := s.catalog.Get(req.Slug)
		if err != nil {
			s.writeError(w, err)
			return
		}
		name, formula = calc.Title, calc.FormulaDescription
		if strings.TrimSpace(formula) == "" {
			formula = calc.Article
		}
	}

	text, err := s.assistant.Explain(r.Context(), name, formula)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"explanation": text})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Equation string `json:"equation"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	sol, err := s.assistant.Solve(r.Context(), req.Equation)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

func (s *Server) handleSitemap(w http.ResponseWriter, _ *http.Request) {
	data, err := s.catalog.Sitemap(s.settings.Load().baseURL, time.Now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(data)
}
