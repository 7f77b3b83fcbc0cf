/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package watcher polls the schedule source for content changes and requests
// a full reload when the hash moves. Polling on content hash, not mtime,
// survives editors and sync tools that rewrite files without changing them.
package watcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/seda/internal/config"
)

// Reloader is the slice of the orchestrator the watcher needs.
type Reloader interface {
	ReloadAll(ctx context.Context)
}

// Watcher polls one schedule source.
type Watcher struct {
	path     string
	interval time.Duration
	reloader Reloader
	logger   zerolog.Logger

	lastHash string
}

// New constructs a watcher over the schedule source.
func New(path string, interval time.Duration, reloader Reloader, logger zerolog.Logger) *Watcher {
	return &Watcher{path: path, interval: interval, reloader: reloader, logger: logger}
}

// Run polls until the context is canceled. The first observation only seeds
// the hash; the initial load is the server's job.
func (w *Watcher) Run(ctx context.Context) error {
	hash, err := config.HashSchedule(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("schedule hash failed")
	}
	w.lastHash = hash

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().Str("path", w.path).Dur("interval", w.interval).Msg("schedule watcher started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	hash, err := config.HashSchedule(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("schedule hash failed")
		return
	}
	if hash == w.lastHash {
		return
	}
	w.logger.Info().Str("path", w.path).Msg("schedule source changed, reloading")
	w.lastHash = hash
	w.reloader.ReloadAll(ctx)
}
