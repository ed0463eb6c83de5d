package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"fabricquote/internal/calculator"
	"fabricquote/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	_, res, ok := s.calculate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, res, ok := s.calculate(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCalculation(&buf, p, res, s.now()); err != nil {
		s.logger.Error("Failed to render calculation workbook", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render workbook")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="quote_%s.xlsx"`, res.CacheKey))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// calculate decodes, validates and runs a calculation, writing the error response itself
// when ok is false.
func (s *Server) calculate(w http.ResponseWriter, r *http.Request) (calculator.Params, *calculator.Result, bool) {
	var p calculator.Params
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return p, nil, false
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid calculation request", splitErrors(err)...)
		return p, nil, false
	}

	res, err := s.calc.Calculate(r.Context(), p)
	if err != nil {
		if errors.Is(err, calculator.ErrWindowCoveringNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return p, nil, false
		}
		s.logger.Error("Calculation failed", zap.String("window_covering_id", p.WindowCoveringID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "calculation failed")
		return p, nil, false
	}
	return p, res, true
}

// splitErrors unpacks an errors.Join result into its messages.
func splitErrors(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		msgs := make([]string, 0, len(joined.Unwrap()))
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
