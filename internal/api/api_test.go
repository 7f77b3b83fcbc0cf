/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/friendsincode/seda/internal/events"
	"github.com/friendsincode/seda/internal/models"
	"github.com/friendsincode/seda/internal/orchestrator"
	"github.com/friendsincode/seda/internal/schedule"
	"github.com/friendsincode/seda/internal/triggers"
)

type stubProber struct{}

func (stubProber) Duration(_ context.Context, _ string) (time.Duration, error) {
	return time.Second, nil
}

type nopPlayer struct{}

func (nopPlayer) Play(_ context.Context, _ string, _ []models.PlaylistEntry) error { return nil }
func (nopPlayer) Stop() error                                                      { return nil }

type testEnv struct {
	api      *API
	router   chi.Router
	db       *gorm.DB
	registry *triggers.Registry
	mat      *schedule.Materializer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.FolderQueueState{}, &models.ManualTrigger{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	dir := t.TempDir()
	schedulePath := filepath.Join(dir, "schedule.yaml")
	scheduleYAML := `
items:
  - name: morning_show
    type: periodic
    calendar: gregorian
    cron: {second: "0", minute: "30", hour: "7", day_of_month: "*", month: "*", day_of_week: "*"}
    trigger_type: immediate
    entries:
      - text: good morning
`
	if err := os.WriteFile(schedulePath, []byte(scheduleYAML), 0o644); err != nil {
		t.Fatalf("write schedule: %v", err)
	}

	bus := events.NewBus()
	queue := schedule.NewQueueStore(db, zerolog.Nop())
	mat := schedule.NewMaterializer(schedulePath, dir, queue, stubProber{}, bus, zerolog.Nop())
	mat.ReloadAll(context.Background())

	registry := triggers.NewRegistry()
	orch := orchestrator.New(mat, registry, nopPlayer{}, bus, 24*time.Hour, zerolog.Nop())

	a := New(db, orch, mat, registry, zerolog.Nop())
	router := chi.NewRouter()
	a.Routes(router)
	return &testEnv{api: a, router: router, db: db, registry: registry, mat: mat}
}

func (e *testEnv) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestItemCancel(t *testing.T) {
	env := newTestEnv(t)
	id := env.mat.Items()[0].ID

	rec := env.request(t, http.MethodPost, "/api/v1/items/"+strconv.Itoa(id)+"/cancel", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := env.mat.Items()[0].Status; got != models.StatusCanceled {
		t.Fatalf("expected canceled status, got %v", got)
	}

	rec = env.request(t, http.MethodPost, "/api/v1/items/999/cancel", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown item, got %d", rec.Code)
	}
	rec = env.request(t, http.MethodPost, "/api/v1/items/abc/cancel", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestItemsList(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/api/v1/items", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Items []models.RuntimeScheduleItem `json:"items"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].Name != "morning_show" {
		t.Fatalf("unexpected items %+v", resp.Items)
	}
}

func TestItemGet(t *testing.T) {
	env := newTestEnv(t)
	id := env.mat.Items()[0].ID

	rec := env.request(t, http.MethodGet, "/api/v1/items/"+strconv.Itoa(id), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/items/9999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = env.request(t, http.MethodGet, "/api/v1/items/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTriggerAssertReplacePersist(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/v1/triggers", `{"name":"azan_zohr","time":"2026-08-28T12:04:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !env.registry.Contains("azan_zohr") {
		t.Fatalf("trigger missing from registry")
	}

	// A second assertion replaces the record, it does not duplicate it.
	rec = env.request(t, http.MethodPost, "/api/v1/triggers", `{"name":"azan_zohr"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got := len(env.registry.List()); got != 1 {
		t.Fatalf("expected 1 trigger record, got %d", got)
	}

	var count int64
	if err := env.db.Model(&models.ManualTrigger{}).Count(&count).Error; err != nil {
		t.Fatalf("count manual triggers: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 persisted trigger, got %d", count)
	}
}

func TestTriggerAssertValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/v1/triggers", `{"time":"2026-08-28T12:04:00Z"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", rec.Code)
	}

	rec = env.request(t, http.MethodPost, "/api/v1/triggers", `{"name":"x","time":"not-a-time"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad time, got %d", rec.Code)
	}
}

func TestTriggerRemove(t *testing.T) {
	env := newTestEnv(t)
	env.request(t, http.MethodPost, "/api/v1/triggers", `{"name":"sunrise"}`)

	rec := env.request(t, http.MethodDelete, "/api/v1/triggers/sunrise", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if env.registry.Contains("sunrise") {
		t.Fatalf("trigger still registered after delete")
	}

	rec = env.request(t, http.MethodDelete, "/api/v1/triggers/sunrise", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing trigger, got %d", rec.Code)
	}
}

func TestScheduleReloadEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/v1/schedule/reload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	id := env.mat.Items()[0].ID
	rec = env.request(t, http.MethodPost, "/api/v1/schedule/items/"+strconv.Itoa(id)+"/reload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = env.request(t, http.MethodPost, "/api/v1/schedule/items/9999/reload", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
