package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"txdash/internal/filter"
	"txdash/internal/policy/engine"
	presetdomain "txdash/internal/preset/domain"
	presetrepo "txdash/internal/preset/repository"
)

type presetRequest struct {
	Name    string       `json:"name"`
	Filters filter.Model `json:"filters"`
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, engine.ActionManagePresets) {
		return
	}

	presets, err := s.presets.ListByUser(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "list presets failed")
		return
	}
	if presets == nil {
		presets = []presetdomain.Preset{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"data": presets})
}

func (s *Server) handleCreatePreset(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, engine.ActionManagePresets) {
		return
	}

	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p := presetdomain.Preset{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Filters: req.Filters,
	}
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.presets.Create(r.Context(), userFrom(r.Context()).ID, &p); err != nil {
		if errors.Is(err, presetrepo.ErrDuplicateName) {
			respondError(w, http.StatusConflict, "Preset already exists")
			return
		}
		respondError(w, http.StatusInternalServerError, "create preset failed")
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePreset(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, engine.ActionManagePresets) {
		return
	}

	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p := presetdomain.Preset{
		ID:      r.PathValue("id"),
		Name:    req.Name,
		Filters: req.Filters,
	}
	if err := p.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.presets.Update(r.Context(), userFrom(r.Context()).ID, &p); err != nil {
		switch {
		case errors.Is(err, presetrepo.ErrDuplicateName):
			respondError(w, http.StatusConflict, "Preset already exists")
		case errors.Is(err, presetrepo.ErrNotFound):
			respondError(w, http.StatusNotFound, "preset not found")
		default:
			respondError(w, http.StatusInternalServerError, "update preset failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, engine.ActionManagePresets) {
		return
	}

	if err := s.presets.Delete(r.Context(), userFrom(r.Context()).ID, r.PathValue("id")); err != nil {
		if errors.Is(err, presetrepo.ErrNotFound) {
			respondError(w, http.StatusNotFound, "preset not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "delete preset failed")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
