/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/seda/internal/events"
	"github.com/friendsincode/seda/internal/models"
)

func TestPlayPublishesFinished(t *testing.T) {
	bus := events.NewBus()
	finished := bus.Subscribe(events.EventPlaybackFinished)
	defer bus.Unsubscribe(events.EventPlaybackFinished, finished)

	// "true" swallows the pipeline arguments and exits immediately.
	p := NewGStreamer("true", "true", bus, zerolog.Nop())

	entries := []models.PlaylistEntry{
		{Kind: models.PlaylistFile, Path: "/tmp/a.mp3"},
		{Kind: models.PlaylistSpeech, Text: "top of the hour"},
	}
	if err := p.Play(context.Background(), "session-1", entries); err != nil {
		t.Fatalf("play: %v", err)
	}

	select {
	case payload := <-finished:
		if payload["session"] != "session-1" {
			t.Fatalf("unexpected session %v", payload["session"])
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("playback finished event never arrived")
	}
}

func TestPlayEmptyPlaylist(t *testing.T) {
	p := NewGStreamer("true", "true", events.NewBus(), zerolog.Nop())
	if err := p.Play(context.Background(), "session-1", nil); err == nil {
		t.Fatalf("expected error for empty playlist")
	}
}

func TestStopIdlePlayer(t *testing.T) {
	p := NewGStreamer("true", "true", events.NewBus(), zerolog.Nop())
	if err := p.Stop(); err != nil {
		t.Fatalf("stop idle: %v", err)
	}
}
