/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the operator HTTP surface: inspecting the live item
// set, asserting and retiring triggers, and requesting reloads.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/seda/internal/models"
	"github.com/friendsincode/seda/internal/orchestrator"
	"github.com/friendsincode/seda/internal/schedule"
	"github.com/friendsincode/seda/internal/telemetry"
	"github.com/friendsincode/seda/internal/triggers"
)

// API exposes HTTP handlers.
type API struct {
	db       *gorm.DB
	orch     *orchestrator.Orchestrator
	mat      *schedule.Materializer
	registry *triggers.Registry
	logger   zerolog.Logger
}

// New creates the API router wrapper.
func New(db *gorm.DB, orch *orchestrator.Orchestrator, mat *schedule.Materializer, registry *triggers.Registry, logger zerolog.Logger) *API {
	return &API{db: db, orch: orch, mat: mat, registry: registry, logger: logger}
}

// Routes mounts all handlers on the router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/items", a.handleItemsList)
		r.Get("/items/{id}", a.handleItemGet)
		r.Post("/items/{id}/cancel", a.handleItemCancel)

		r.Get("/triggers", a.handleTriggersList)
		r.Post("/triggers", a.handleTriggerAssert)
		r.Delete("/triggers/{name}", a.handleTriggerRemove)

		r.Post("/schedule/reload", a.handleScheduleReload)
		r.Post("/schedule/items/{id}/reload", a.handleItemReload)
	})
}

func (a *API) handleItemsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.mat.Items()})
}

func (a *API) handleItemGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	item, ok := a.mat.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "item_not_found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) handleItemCancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	if err := a.orch.Cancel(id); err != nil {
		if errors.Is(err, schedule.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "item_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "cancel_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "canceled", "id": id})
}

func (a *API) handleTriggersList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"triggers": a.registry.List()})
}

type triggerAssertRequest struct {
	Name string `json:"name"`
	// Time is RFC 3339; empty means now.
	Time string `json:"time,omitempty"`
}

func (a *API) handleTriggerAssert(w http.ResponseWriter, r *http.Request) {
	var req triggerAssertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing_name")
		return
	}

	firedAt := time.Now()
	if req.Time != "" {
		parsed, err := time.Parse(time.RFC3339, req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time")
			return
		}
		firedAt = parsed
	}

	record := models.ManualTrigger{Name: name, FiredAt: &firedAt, UpdatedAt: time.Now().UTC()}
	if err := a.db.Save(&record).Error; err != nil {
		a.logger.Warn().Err(err).Str("trigger", name).Msg("manual trigger persist failed")
	}

	a.registry.AddOrReplace(name, &firedAt, models.TriggerManual)
	telemetry.TriggersFiredTotal.WithLabelValues(string(models.TriggerManual)).Inc()
	a.logger.Info().Str("trigger", name).Time("fired_at", firedAt).Msg("manual trigger asserted")

	rec, _ := a.registry.Get(name)
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) handleTriggerRemove(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !a.registry.Contains(name) {
		writeError(w, http.StatusNotFound, "trigger_not_found")
		return
	}
	a.registry.Remove(name)
	if err := a.db.Delete(&models.ManualTrigger{}, "name = ?", name).Error; err != nil {
		a.logger.Warn().Err(err).Str("trigger", name).Msg("manual trigger delete failed")
	}
	a.logger.Info().Str("trigger", name).Msg("trigger removed")
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleScheduleReload(w http.ResponseWriter, r *http.Request) {
	a.orch.ReloadAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "items": len(a.mat.Items())})
}

func (a *API) handleItemReload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	if err := a.orch.ReloadOne(r.Context(), id); err != nil {
		if errors.Is(err, schedule.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "item_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "reload_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "id": id})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
