/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package triggers

import (
	"sync"
	"testing"
	"time"

	"github.com/friendsincode/seda/internal/models"
)

func TestAddOrReplaceKeepsOneRecordPerName(t *testing.T) {
	r := NewRegistry()
	t1 := time.Date(2026, 8, 28, 12, 30, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	r.AddOrReplace("azan_zohr", &t1, models.TriggerSystematic)
	r.AddOrReplace("azan_zohr", &t2, models.TriggerManual)

	records := r.List()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Name != "azan_zohr" || rec.Source != models.TriggerManual || !rec.FiredAt.Equal(t2) {
		t.Fatalf("record = %+v, want manual at %v", rec, t2)
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.AddOrReplace("Sunrise", nil, models.TriggerSystematic)

	if !r.Contains("sunrise") {
		t.Fatal("case-insensitive lookup failed")
	}
	r.AddOrReplace("SUNRISE", nil, models.TriggerManual)
	if got := len(r.List()); got != 1 {
		t.Fatalf("records = %d, want 1", got)
	}

	r.Remove("sunRISE")
	if r.Contains("Sunrise") {
		t.Fatal("remove by different case failed")
	}
}

func TestLastFiredTracksMostRecentAssertion(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.LastFired(); ok {
		t.Fatal("empty registry reported a last fired event")
	}

	r.AddOrReplace("sunrise", nil, models.TriggerSystematic)
	r.AddOrReplace("sunset", nil, models.TriggerSystematic)
	r.AddOrReplace("sunrise", nil, models.TriggerManual)

	rec, ok := r.LastFired()
	if !ok || rec.Name != "sunrise" || rec.Source != models.TriggerManual {
		t.Fatalf("last fired = %+v ok=%v, want manual sunrise", rec, ok)
	}

	r.Remove("sunrise")
	if _, ok := r.LastFired(); ok {
		t.Fatal("removed event still reported as last fired")
	}
}

func TestClearAll(t *testing.T) {
	r := NewRegistry()
	r.AddOrReplace("a", nil, models.TriggerSystematic)
	r.AddOrReplace("b", nil, models.TriggerSystematic)

	r.ClearAll()
	if got := len(r.List()); got != 0 {
		t.Fatalf("records = %d after clear, want 0", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.AddOrReplace("evt", nil, models.TriggerSystematic)
				r.Get("evt")
				r.List()
			}
		}()
	}
	wg.Wait()

	if got := len(r.List()); got != 1 {
		t.Fatalf("records = %d, want 1", got)
	}
}
