package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"fabricquote/internal/catalog"
	"fabricquote/internal/grid"
)

const msgUnrecognizedGrid = "pricing grid format not recognized"

type normalizeResponse struct {
	Grid       *grid.StandardGrid    `json:"grid"`
	Format     string                `json:"format"`
	Validation grid.ValidationResult `json:"validation"`
}

type lookupRequest struct {
	Grid  json.RawMessage `json:"grid"`
	Width float64         `json:"width"`
	Drop  float64         `json:"drop"`
	Unit  grid.Unit       `json:"unit"`
}

type lookupResponse struct {
	Price float64 `json:"price"`
	Found bool    `json:"found"`
}

type convertRequest struct {
	Grid json.RawMessage `json:"grid"`
	Unit grid.Unit       `json:"unit"`
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.respondNormalized(w, payload)
}

func (s *Server) respondNormalized(w http.ResponseWriter, payload map[string]any) {
	g, format := s.normalizer.NormalizeDetected(payload)
	if g == nil {
		writeError(w, http.StatusUnprocessableEntity, msgUnrecognizedGrid)
		return
	}
	writeJSON(w, http.StatusOK, normalizeResponse{
		Grid:       g,
		Format:     format.String(),
		Validation: grid.Validate(g),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var g grid.StandardGrid
	if err := decodeJSON(w, r, &g); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, grid.Validate(&g))
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Unit == "" {
		req.Unit = grid.UnitCM
	}
	if !req.Unit.Valid() {
		writeError(w, http.StatusBadRequest, "unit must be cm or mm")
		return
	}

	g := s.normalizer.Normalize(req.Grid)
	if g == nil {
		writeError(w, http.StatusUnprocessableEntity, msgUnrecognizedGrid)
		return
	}

	price, found := grid.Lookup(g, req.Width, req.Drop, req.Unit)
	writeJSON(w, http.StatusOK, lookupResponse{Price: price, Found: found})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Unit.Valid() {
		writeError(w, http.StatusBadRequest, "unit must be cm or mm")
		return
	}

	g := s.normalizer.Normalize(req.Grid)
	if g == nil {
		writeError(w, http.StatusUnprocessableEntity, msgUnrecognizedGrid)
		return
	}
	writeJSON(w, http.StatusOK, grid.ConvertUnit(g, req.Unit))
}

// handleImport reads a spreadsheet price list from the multipart field "file". The optional
// "sheet" field picks a sheet other than the active one.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `multipart field "file" is required`)
		return
	}
	defer file.Close()

	payload, err := grid.ReadXLSX(file, r.FormValue("sheet"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondNormalized(w, payload)
}

// handleSaveGrid normalizes the body and stores it on the window covering. Grids that do not
// validate are rejected so lookups never run against a broken grid.
func (s *Server) handleSaveGrid(w http.ResponseWriter, r *http.Request) {
	// chi matches on the escaped path, so an id containing "/" arrives still encoded.
	id := chi.URLParam(r, "id")
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}

	var payload map[string]any
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g := s.normalizer.Normalize(payload)
	if g == nil {
		writeError(w, http.StatusUnprocessableEntity, msgUnrecognizedGrid)
		return
	}
	if result := grid.Validate(g); !result.Valid {
		writeError(w, http.StatusUnprocessableEntity, "pricing grid is invalid", result.Errors...)
		return
	}

	if err := s.grids.SaveWindowCoveringGrid(r.Context(), id, g); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "window covering not found")
			return
		}
		s.logger.Error("Failed to save pricing grid", zap.String("window_covering_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save pricing grid")
		return
	}
	writeJSON(w, http.StatusOK, g)
}
