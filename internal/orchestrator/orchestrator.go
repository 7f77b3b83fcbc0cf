/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package orchestrator evaluates the live item set against the clock and the
// trigger registry, arms one-shot playback timers, and drives the player.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendsincode/seda/internal/events"
	"github.com/friendsincode/seda/internal/models"
	"github.com/friendsincode/seda/internal/playout"
	"github.com/friendsincode/seda/internal/recurrence"
	"github.com/friendsincode/seda/internal/schedule"
	"github.com/friendsincode/seda/internal/telemetry"
	"github.com/friendsincode/seda/internal/triggers"
)

// Orchestrator owns the evaluate-arm-fire cycle. It never crashes on a bad
// item; per-item failures are logged and the pass moves on.
type Orchestrator struct {
	mat      *schedule.Materializer
	registry *triggers.Registry
	player   playout.Player
	bus      *events.Bus
	logger   zerolog.Logger

	// lookahead bounds how far ahead a timer may be armed.
	lookahead time.Duration
	tick      time.Duration

	// mu serializes passes against reloads so a pass never sees a live set
	// mid-swap and a reload never races an arming decision.
	mu    sync.Mutex
	arena *timerArena

	runCtx context.Context

	sessMu   sync.Mutex
	sessions map[string]int // playback session id -> item id
}

// New constructs an orchestrator over the given collaborators.
func New(mat *schedule.Materializer, registry *triggers.Registry, player playout.Player, bus *events.Bus, lookahead time.Duration, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		mat:       mat,
		registry:  registry,
		player:    player,
		bus:       bus,
		logger:    logger,
		lookahead: lookahead,
		tick:      time.Second,
		arena:     newTimerArena(),
		sessions:  make(map[string]int),
	}
}

// Run drives evaluation passes until the context is canceled.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.runCtx = ctx

	finished := o.bus.Subscribe(events.EventPlaybackFinished)
	defer o.bus.Unsubscribe(events.EventPlaybackFinished, finished)

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	o.logger.Info().Dur("lookahead", o.lookahead).Msg("orchestrator started")
	for {
		select {
		case <-ctx.Done():
			o.arena.RetireAll()
			_ = o.player.Stop()
			o.logger.Info().Msg("orchestrator stopped")
			return nil
		case payload := <-finished:
			o.handleFinished(payload)
		case <-ticker.C:
			o.pass()
		}
	}
}

// ReloadAll retires every armed timer and stops in-flight playback, then
// rebuilds the live set. Old timers must die first so none fires against an
// item that no longer exists.
func (o *Orchestrator) ReloadAll(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.arena.RetireAll()
	_ = o.player.Stop()
	o.sessMu.Lock()
	o.sessions = make(map[string]int)
	o.sessMu.Unlock()
	o.mat.ReloadAll(ctx)
}

// ReloadOne retires the item's timer, stops it if it is mid-playback, and
// re-resolves just that item.
func (o *Orchestrator) ReloadOne(ctx context.Context, id int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.arena.Retire(id)
	if item, ok := o.mat.Get(id); ok && item.Status == models.StatusPlaying {
		_ = o.player.Stop()
		o.sessMu.Lock()
		for session, itemID := range o.sessions {
			if itemID == id {
				delete(o.sessions, session)
			}
		}
		o.sessMu.Unlock()
	}
	return o.mat.ReloadOne(ctx, id)
}

// Cancel retires the item's timer, stops it if it is mid-playback, and parks
// it in the canceled state. A reload brings it back to waiting.
func (o *Orchestrator) Cancel(id int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	found := false
	wasPlaying := false
	var name string
	o.mat.WithItems(func(items []*models.RuntimeScheduleItem) {
		for _, item := range items {
			if item.ID != id {
				continue
			}
			found = true
			wasPlaying = item.Status == models.StatusPlaying
			name = item.Name
			item.Status = models.StatusCanceled
			item.CurrentPlayingIndex = -1
			return
		}
	})
	if !found {
		return schedule.ErrItemNotFound
	}

	o.arena.Retire(id)
	if wasPlaying {
		_ = o.player.Stop()
		o.sessMu.Lock()
		for session, itemID := range o.sessions {
			if itemID == id {
				delete(o.sessions, session)
			}
		}
		o.sessMu.Unlock()
	}
	o.logger.Info().Str("item", name).Int("id", id).Msg("item canceled")
	return nil
}

// pass evaluates every live item against a single wall-clock snapshot, so all
// decisions within one pass agree on what "now" is.
func (o *Orchestrator) pass() {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	telemetry.OrchestratorPassesTotal.Inc()
	o.mat.WithItems(func(items []*models.RuntimeScheduleItem) {
		for _, item := range items {
			o.evaluate(item, now)
		}
	})
}

func (o *Orchestrator) evaluate(item *models.RuntimeScheduleItem, now time.Time) {
	switch item.Status {
	case models.StatusPlaying, models.StatusCanceled:
		return
	case models.StatusPlayed:
		if item.Type == models.SchedulePeriodic {
			// A periodic item goes straight back to waiting for its next
			// occurrence. Non-periodic items rearm only on a newer trigger.
			item.Status = models.StatusTimeWaiting
		}
	}

	if item.Type == models.SchedulePeriodic {
		o.evaluatePeriodic(item, now)
		return
	}
	o.evaluateNonPeriodic(item, now)
}

func (o *Orchestrator) evaluatePeriodic(item *models.RuntimeScheduleItem, now time.Time) {
	if o.arena.Armed(item.ID) && !item.TriggerTime.Before(now) {
		// The armed start stands until the timer elapses. Step fields
		// resolve relative to their anchor, so recomputing here would slide
		// the start forward on every pass and the timer could never fire.
		return
	}

	resolver := recurrence.ForCalendar(item.Calendar)

	// Anchor on the occurrence that just elapsed when there is one, so step
	// intervals measure occurrence to occurrence rather than from whichever
	// pass observed the playback finish.
	anchor := now
	if !item.NextOccurrence.IsZero() && item.NextOccurrence.Before(now) {
		anchor = item.NextOccurrence
	}
	occurrence, ok := resolver.GetNextOccurrence(item, anchor)
	if ok && !occurrence.After(now) {
		// The grid fell behind the clock (playback outlasted the interval);
		// resume from now.
		occurrence, ok = resolver.GetNextOccurrence(item, now)
	}
	if !ok {
		o.arena.Retire(item.ID)
		return
	}
	if occurrence.Sub(now) > o.lookahead {
		o.arena.Retire(item.ID)
		return
	}

	start := o.anchoredStart(item, occurrence)
	if start.Before(now) {
		// Timed anchoring can push the start into the past; that occurrence
		// is unplayable and waits for the next one.
		o.skip(item, occurrence, start)
		return
	}

	item.NextOccurrence = occurrence
	item.TriggerTime = start
	item.Status = models.StatusTimeWaiting
	o.arm(item.ID, item.Name, start)
}

func (o *Orchestrator) evaluateNonPeriodic(item *models.RuntimeScheduleItem, now time.Time) {
	record, ok := o.registry.Get(item.Trigger)
	if !ok || record.FiredAt == nil {
		o.arena.Retire(item.ID)
		return
	}
	if !record.FiredAt.After(item.LastTriggerAt) {
		// Already consumed this assertion.
		return
	}
	if last, ok := o.registry.LastFired(); !ok || !strings.EqualFold(last.Name, item.Trigger) {
		// Only the most recently asserted registry event wakes an item; an
		// older assertion waits until that event fires again.
		return
	}

	resolver := recurrence.ForCalendar(item.Calendar)
	if !resolver.IsNonPeriodicTriggerValid(item, now) {
		// Consume the assertion so it cannot fire on some later, matching day.
		item.LastTriggerName = record.Name
		item.LastTriggerAt = *record.FiredAt
		o.logger.Info().Str("item", item.Name).Str("trigger", record.Name).Msg("trigger asserted outside item day filters, skipped")
		o.bus.Publish(events.EventItemSkipped, events.Payload{"item": item.Name, "id": item.ID, "reason": "day_filters"})
		return
	}

	occurrence := *record.FiredAt
	if occurrence.Before(now) {
		occurrence = now
	}
	if occurrence.Sub(now) > o.lookahead {
		// A far-future assertion stays parked in the registry until the
		// horizon reaches it; consuming it now would lose it.
		o.arena.Retire(item.ID)
		return
	}

	start := o.anchoredStart(item, occurrence)
	if start.Before(now) {
		item.LastTriggerName = record.Name
		item.LastTriggerAt = *record.FiredAt
		o.skip(item, occurrence, start)
		return
	}

	item.LastTriggerName = record.Name
	item.LastTriggerAt = *record.FiredAt
	item.NextOccurrence = occurrence
	item.TriggerTime = start
	item.Status = models.StatusEventWaiting
	o.bus.Publish(events.EventTriggerFired, events.Payload{
		"item":    item.Name,
		"id":      item.ID,
		"trigger": record.Name,
		"source":  string(record.Source),
	})
	o.arm(item.ID, item.Name, start)
}

// anchoredStart maps an occurrence instant to the playback start instant.
func (o *Orchestrator) anchoredStart(item *models.RuntimeScheduleItem, occurrence time.Time) time.Time {
	switch item.TriggerType {
	case models.TriggerDelayed:
		return occurrence.Add(item.Delay)
	case models.TriggerTimed:
		return occurrence.Add(-item.TotalDuration)
	default:
		return occurrence
	}
}

func (o *Orchestrator) skip(item *models.RuntimeScheduleItem, occurrence, start time.Time) {
	o.arena.Retire(item.ID)
	if item.TriggerTime.Equal(start) {
		return // already reported this unplayable start
	}
	item.TriggerTime = start
	o.logger.Warn().
		Str("item", item.Name).
		Time("occurrence", occurrence).
		Time("start", start).
		Msg("computed start already passed, occurrence skipped")
	o.bus.Publish(events.EventItemSkipped, events.Payload{"item": item.Name, "id": item.ID, "reason": "start_in_past"})
}

func (o *Orchestrator) arm(id int, name string, start time.Time) {
	o.arena.Arm(id, start, func() { o.fire(id) })
	o.logger.Info().Str("item", name).Int("id", id).Time("start", start).Msg("playback timer armed")
}

// fire runs when an item's timer elapses: flip it to playing and hand its
// playlist to the player.
func (o *Orchestrator) fire(id int) {
	o.mu.Lock()
	var entries []models.PlaylistEntry
	var name string
	proceed := false
	o.mat.WithItems(func(items []*models.RuntimeScheduleItem) {
		for _, item := range items {
			if item.ID != id {
				continue
			}
			if item.Status != models.StatusTimeWaiting && item.Status != models.StatusEventWaiting {
				return
			}
			if len(item.PlayList) == 0 {
				o.logger.Warn().Str("item", item.Name).Msg("nothing to play, skipped")
				return
			}
			item.Status = models.StatusPlaying
			item.CurrentPlayingIndex = 0
			entries = append([]models.PlaylistEntry(nil), item.PlayList...)
			name = item.Name
			proceed = true
			return
		}
	})
	o.arena.Retire(id)
	o.mu.Unlock()

	if !proceed {
		return
	}

	session := uuid.NewString()
	o.sessMu.Lock()
	o.sessions[session] = id
	o.sessMu.Unlock()

	o.bus.Publish(events.EventBeforePlayback, events.Payload{"item": name, "id": id, "session": session})

	ctx := o.runCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := o.player.Play(ctx, session, entries); err != nil {
		telemetry.OrchestratorErrorsTotal.WithLabelValues("playback").Inc()
		o.logger.Warn().Err(err).Str("item", name).Msg("playback start failed")
		o.finishItem(session)
		return
	}

	o.bus.Publish(events.EventAfterPlayback, events.Payload{"item": name, "id": id, "session": session})
	o.logger.Info().Str("item", name).Str("session", session).Msg("playback started")
}

func (o *Orchestrator) handleFinished(payload events.Payload) {
	session, ok := payload["session"].(string)
	if !ok {
		return
	}
	o.finishItem(session)
}

func (o *Orchestrator) finishItem(session string) {
	o.sessMu.Lock()
	id, ok := o.sessions[session]
	delete(o.sessions, session)
	o.sessMu.Unlock()
	if !ok {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.mat.WithItems(func(items []*models.RuntimeScheduleItem) {
		for _, item := range items {
			if item.ID == id {
				item.Status = models.StatusPlayed
				item.CurrentPlayingIndex = -1
				o.logger.Info().Str("item", item.Name).Msg("playback complete")
				return
			}
		}
	})
}
