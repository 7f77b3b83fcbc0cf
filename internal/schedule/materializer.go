/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule turns authored item definitions into the live, playable
// item set. The materializer exclusively owns item creation and replacement;
// everyone else reads and mutates items only inside WithItems, under the
// single live-set lock.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/seda/internal/config"
	"github.com/friendsincode/seda/internal/events"
	"github.com/friendsincode/seda/internal/media"
	"github.com/friendsincode/seda/internal/models"
	"github.com/friendsincode/seda/internal/recurrence"
	"github.com/friendsincode/seda/internal/telemetry"
)

// ErrItemNotFound reports a reload-by-id against an id not in the live set.
var ErrItemNotFound = errors.New("schedule item not found")

// Materializer loads, validates and expands schedule item definitions.
type Materializer struct {
	schedulePath string
	mediaRoot    string
	queue        *QueueStore
	prober       media.Prober
	bus          *events.Bus
	logger       zerolog.Logger

	mu     sync.Mutex
	items  []*models.RuntimeScheduleItem
	nextID int
}

// NewMaterializer creates a materializer over the given schedule source.
func NewMaterializer(schedulePath, mediaRoot string, queue *QueueStore, prober media.Prober, bus *events.Bus, logger zerolog.Logger) *Materializer {
	return &Materializer{
		schedulePath: schedulePath,
		mediaRoot:    mediaRoot,
		queue:        queue,
		prober:       prober,
		bus:          bus,
		logger:       logger,
		nextID:       1,
	}
}

// ReloadAll replaces the entire live set from the schedule source. An
// unreadable source clears the set rather than keeping stale items.
func (m *Materializer) ReloadAll(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "materializer", "ReloadAll")
	defer span.End()
	start := time.Now()

	defs, err := config.LoadSchedule(m.schedulePath)
	if err != nil {
		telemetry.RecordError(span, err)
		m.logger.Warn().Err(err).Str("path", m.schedulePath).Msg("schedule source unavailable, clearing live set")
		m.mu.Lock()
		m.items = nil
		m.mu.Unlock()
		telemetry.ItemsLive.Set(0)
		m.bus.Publish(events.EventScheduleReloaded, events.Payload{"items": 0})
		return
	}

	built := make([]*models.RuntimeScheduleItem, 0, len(defs))
	for idx, def := range defs {
		if def.Disabled {
			m.logger.Info().Str("item", def.Name).Msg("disabled item skipped")
			continue
		}
		family, err := m.materializeDefinition(ctx, idx, def)
		if err != nil {
			m.logger.Warn().Err(err).Str("item", def.Name).Msg("invalid item excluded")
			continue
		}
		built = append(built, family...)
	}

	m.mu.Lock()
	for _, item := range built {
		item.ID = m.nextID
		m.nextID++
	}
	m.items = built
	m.mu.Unlock()

	telemetry.AddSpanAttributes(span, map[string]any{
		"schedule.definitions": len(defs),
		"schedule.items":       len(built),
	})
	telemetry.ItemsLive.Set(float64(len(built)))
	telemetry.ReloadsTotal.WithLabelValues("all").Inc()
	telemetry.MaterializeDuration.Observe(time.Since(start).Seconds())
	m.bus.Publish(events.EventScheduleReloaded, events.Payload{"items": len(built)})
	m.logger.Info().Int("items", len(built)).Msg("schedule materialized")
}

// ReloadOne re-resolves exactly one item in place. An item whose backing
// definition disappeared or is now disabled is removed from the live set.
func (m *Materializer) ReloadOne(ctx context.Context, id int) error {
	m.mu.Lock()
	var configIndex int
	var trigger string
	found := false
	for _, item := range m.items {
		if item.ID == id {
			configIndex = item.ConfigIndex
			trigger = item.Trigger
			found = true
			break
		}
	}
	m.mu.Unlock()
	if !found {
		return ErrItemNotFound
	}

	defs, err := config.LoadSchedule(m.schedulePath)
	if err != nil {
		m.logger.Warn().Err(err).Int("id", id).Msg("schedule source unavailable, reload-one skipped")
		return nil
	}

	if configIndex >= len(defs) || defs[configIndex].Disabled {
		m.removeItem(id, "definition removed or disabled")
		return nil
	}

	family, err := m.materializeDefinition(ctx, configIndex, defs[configIndex])
	if err != nil {
		m.logger.Warn().Err(err).Int("id", id).Msg("item no longer valid, removed")
		m.removeItem(id, "definition invalid")
		return nil
	}

	var replacement *models.RuntimeScheduleItem
	for _, member := range family {
		if strings.EqualFold(member.Trigger, trigger) {
			replacement = member
			break
		}
	}
	if replacement == nil {
		m.removeItem(id, "fanned trigger removed")
		return nil
	}
	replacement.ID = id

	m.mu.Lock()
	for i, item := range m.items {
		if item.ID == id {
			m.items[i] = replacement
			break
		}
	}
	m.mu.Unlock()

	telemetry.ReloadsTotal.WithLabelValues("one").Inc()
	m.bus.Publish(events.EventScheduleReloaded, events.Payload{"items": 1, "id": id})
	m.logger.Info().Int("id", id).Str("item", replacement.Name).Msg("item rematerialized")
	return nil
}

func (m *Materializer) removeItem(id int, reason string) {
	m.mu.Lock()
	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			m.logger.Info().Int("id", id).Str("item", item.Name).Str("reason", reason).Msg("item removed from live set")
			break
		}
	}
	count := len(m.items)
	m.mu.Unlock()
	telemetry.ItemsLive.Set(float64(count))
}

// ValidateDefinition runs the hard checks that exclude a definition from the
// live set. Soft fields like priority and delay fall back instead of failing.
func ValidateDefinition(def models.ScheduleItemDefinition) error {
	if strings.TrimSpace(def.Name) == "" {
		return fmt.Errorf("missing item name")
	}
	scheduleType, err := models.ParseScheduleType(def.Type)
	if err != nil {
		return err
	}
	if _, err := models.ParseCalendarType(def.Calendar); err != nil {
		return err
	}
	if _, err := models.ParseTriggerType(def.TriggerType); err != nil {
		return err
	}
	if err := recurrence.ValidateFields(def.Cron); err != nil {
		return err
	}
	if scheduleType == models.ScheduleNonPeriodic && def.Trigger == "" && len(def.Triggers) == 0 {
		return fmt.Errorf("non-periodic item needs a trigger")
	}
	return nil
}

// materializeDefinition validates one definition and fans it out into
// runtime items. IDs are assigned by the caller under the live-set lock.
func (m *Materializer) materializeDefinition(ctx context.Context, configIndex int, def models.ScheduleItemDefinition) ([]*models.RuntimeScheduleItem, error) {
	if err := ValidateDefinition(def); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(def.Name)
	scheduleType, _ := models.ParseScheduleType(def.Type)
	calendarType, _ := models.ParseCalendarType(def.Calendar)
	triggerType, _ := models.ParseTriggerType(def.TriggerType)

	priority, err := models.ParsePriority(def.Priority)
	if err != nil {
		m.logger.Warn().Str("item", name).Str("priority", def.Priority).Msg("bad priority, defaulting to low")
		priority = models.PriorityLow
	}

	var delay time.Duration
	if triggerType == models.TriggerDelayed && def.DelayTime != "" {
		delay, err = time.ParseDuration(def.DelayTime)
		if err != nil {
			m.logger.Warn().Str("item", name).Str("delay", def.DelayTime).Msg("bad delay, defaulting to zero")
			delay = 0
		}
	}

	playlist := m.resolvePlaylist(ctx, name, def.Entries)
	var total time.Duration
	for _, entry := range playlist {
		total += entry.Duration
	}

	build := func(itemName, trigger string) *models.RuntimeScheduleItem {
		return &models.RuntimeScheduleItem{
			ConfigIndex:         configIndex,
			Name:                itemName,
			Trigger:             trigger,
			Type:                scheduleType,
			Calendar:            calendarType,
			Cron:                def.Cron,
			TriggerType:         triggerType,
			Delay:               delay,
			Priority:            priority,
			PlayList:            playlist,
			TotalDuration:       total,
			CurrentPlayingIndex: -1,
			Status:              models.WaitingStatus(scheduleType),
		}
	}

	if len(def.Triggers) > 0 {
		family := make([]*models.RuntimeScheduleItem, 0, len(def.Triggers))
		for _, trigger := range def.Triggers {
			family = append(family, build(fmt.Sprintf("%s(%s)", name, trigger), trigger))
		}
		return family, nil
	}
	return []*models.RuntimeScheduleItem{build(name, def.Trigger)}, nil
}

// WithItems runs fn over the live set under the shared live-set lock. All
// item state mutation outside the materializer happens inside fn.
func (m *Materializer) WithItems(fn func(items []*models.RuntimeScheduleItem)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.items)
}

// Items returns a snapshot copy of the live set for read-only consumers.
func (m *Materializer) Items() []models.RuntimeScheduleItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.RuntimeScheduleItem, len(m.items))
	for i, item := range m.items {
		out[i] = *item
	}
	return out
}

// Get returns a snapshot copy of one item.
func (m *Materializer) Get(id int) (models.RuntimeScheduleItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.ID == id {
			return *item, true
		}
	}
	return models.RuntimeScheduleItem{}, false
}
