/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/seda/internal/config"
)

type countingReloader struct {
	mu    sync.Mutex
	count int
}

func (r *countingReloader) ReloadAll(_ context.Context) {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
}

func (r *countingReloader) reloads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func TestPollDetectsContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.yaml")
	if err := os.WriteFile(path, []byte("items: []\n"), 0o644); err != nil {
		t.Fatalf("write schedule: %v", err)
	}

	reloader := &countingReloader{}
	w := New(path, time.Minute, reloader, zerolog.Nop())

	ctx := context.Background()
	hash, err := config.HashSchedule(path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	w.lastHash = hash

	// Unchanged content polls quietly.
	w.poll(ctx)
	if reloader.reloads() != 0 {
		t.Fatalf("unchanged source must not reload")
	}

	// A rewrite with identical bytes is still unchanged.
	if err := os.WriteFile(path, []byte("items: []\n"), 0o644); err != nil {
		t.Fatalf("rewrite schedule: %v", err)
	}
	w.poll(ctx)
	if reloader.reloads() != 0 {
		t.Fatalf("identical rewrite must not reload")
	}

	if err := os.WriteFile(path, []byte("items:\n  - name: added\n"), 0o644); err != nil {
		t.Fatalf("change schedule: %v", err)
	}
	w.poll(ctx)
	if reloader.reloads() != 1 {
		t.Fatalf("expected one reload, got %d", reloader.reloads())
	}

	// The new hash is now the baseline.
	w.poll(ctx)
	if reloader.reloads() != 1 {
		t.Fatalf("expected no further reloads, got %d", reloader.reloads())
	}
}

func TestPollHandlesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.yaml")
	if err := os.WriteFile(path, []byte("items: []\n"), 0o644); err != nil {
		t.Fatalf("write schedule: %v", err)
	}

	reloader := &countingReloader{}
	w := New(path, time.Minute, reloader, zerolog.Nop())
	hash, err := config.HashSchedule(path)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	w.lastHash = hash

	// Deleting the file changes the hash to empty, which counts as a change.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove schedule: %v", err)
	}
	w.poll(context.Background())
	if reloader.reloads() != 1 {
		t.Fatalf("expected reload on deletion, got %d", reloader.reloads())
	}
}
