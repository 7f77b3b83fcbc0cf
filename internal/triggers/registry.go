/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package triggers keeps the process-wide registry of named trigger events.
// One instance is constructed at startup and injected into the orchestrator
// and the API layer.
package triggers

import (
	"strings"
	"sync"
	"time"

	"github.com/friendsincode/seda/internal/models"
)

// Record is one live trigger event.
type Record struct {
	Name    string               `json:"name"`
	FiredAt *time.Time           `json:"fired_at,omitempty"`
	Source  models.TriggerSource `json:"source"`
}

// Registry maps event names to their most recent record. Names are
// case-insensitive and at most one record exists per name.
type Registry struct {
	mu      sync.RWMutex
	records []Record
	// lastFired tracks the most recently asserted event for the
	// orchestrator's non-periodic matching.
	lastFired string
}

// NewRegistry creates an empty trigger registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddOrReplace inserts a record, replacing any record with the same name in
// place. The new record becomes the most recently fired event.
func (r *Registry) AddOrReplace(name string, firedAt *time.Time, source models.TriggerSource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := Record{Name: name, FiredAt: firedAt, Source: source}
	r.lastFired = name
	for i, existing := range r.records {
		if strings.EqualFold(existing.Name, name) {
			r.records[i] = rec
			return
		}
	}
	r.records = append(r.records, rec)
}

// Remove deletes the record with the given name, if present.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.records {
		if strings.EqualFold(existing.Name, name) {
			r.records = append(r.records[:i], r.records[i+1:]...)
			break
		}
	}
	if strings.EqualFold(r.lastFired, name) {
		r.lastFired = ""
	}
}

// Contains reports whether a record with the given name exists.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Get returns the record with the given name.
func (r *Registry) Get(name string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, existing := range r.records {
		if strings.EqualFold(existing.Name, name) {
			return existing, true
		}
	}
	return Record{}, false
}

// LastFired returns the most recently asserted record.
func (r *Registry) LastFired() (Record, bool) {
	r.mu.RLock()
	name := r.lastFired
	r.mu.RUnlock()

	if name == "" {
		return Record{}, false
	}
	return r.Get(name)
}

// List returns a snapshot of all records.
func (r *Registry) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// ClearAll removes every record.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = nil
	r.lastFired = ""
}
