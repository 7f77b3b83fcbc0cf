/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package orchestrator

import (
	"sync"
	"time"

	"github.com/friendsincode/seda/internal/telemetry"
)

// timerArena owns the one-shot playback timers, keyed by schedule item id.
// Arming an id again replaces its previous timer, so an item never has two
// live timers.
type timerArena struct {
	mu     sync.Mutex
	timers map[int]*time.Timer
}

func newTimerArena() *timerArena {
	return &timerArena{timers: make(map[int]*time.Timer)}
}

// Arm schedules fn at the given instant for the item, replacing any timer
// already armed for it.
func (a *timerArena) Arm(id int, at time.Time, fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if existing, ok := a.timers[id]; ok {
		existing.Stop()
	}
	a.timers[id] = time.AfterFunc(time.Until(at), fn)
	telemetry.TimersArmed.Set(float64(len(a.timers)))
}

// Armed reports whether the item currently has a live timer.
func (a *timerArena) Armed(id int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.timers[id]
	return ok
}

// Retire stops and discards the item's timer, if any.
func (a *timerArena) Retire(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if timer, ok := a.timers[id]; ok {
		timer.Stop()
		delete(a.timers, id)
	}
	telemetry.TimersArmed.Set(float64(len(a.timers)))
}

// RetireAll stops every timer. Used before a full reload so no stale timer
// fires against a rebuilt live set.
func (a *timerArena) RetireAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, timer := range a.timers {
		timer.Stop()
		delete(a.timers, id)
	}
	telemetry.TimersArmed.Set(0)
}
