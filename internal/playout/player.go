/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playout runs resolved playlists through external audio processes:
// gst-launch for file entries and espeak for synthesized speech.
package playout

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/seda/internal/events"
	"github.com/friendsincode/seda/internal/models"
	"github.com/friendsincode/seda/internal/telemetry"
)

// Player starts and stops playlist playback sessions. Play launches the
// session and returns; completion is announced on the event bus as
// EventPlaybackFinished with the session id.
type Player interface {
	Play(ctx context.Context, sessionID string, entries []models.PlaylistEntry) error
	Stop() error
}

// GStreamer plays entries sequentially, one external process per entry.
type GStreamer struct {
	gstBin    string
	espeakBin string
	bus       *events.Bus
	logger    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	cmd    *exec.Cmd
	done   chan struct{} // closed when the session goroutine exits
}

// NewGStreamer constructs a player over the given binaries.
func NewGStreamer(gstBin, espeakBin string, bus *events.Bus, logger zerolog.Logger) *GStreamer {
	return &GStreamer{gstBin: gstBin, espeakBin: espeakBin, bus: bus, logger: logger}
}

// Play starts a playback session. A running session is stopped first, so the
// newest request always owns the audio output.
func (p *GStreamer) Play(ctx context.Context, sessionID string, entries []models.PlaylistEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("empty playlist")
	}
	if err := p.Stop(); err != nil {
		return err
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	telemetry.PlaybacksStartedTotal.Inc()
	go p.runSession(sessionCtx, sessionID, entries, done)
	return nil
}

func (p *GStreamer) runSession(ctx context.Context, sessionID string, entries []models.PlaylistEntry, done chan struct{}) {
	defer close(done)
	for i, entry := range entries {
		if ctx.Err() != nil {
			p.logger.Info().Str("session", sessionID).Msg("playback session canceled")
			return
		}
		p.bus.Publish(events.EventNowPlaying, events.Payload{
			"session": sessionID,
			"index":   i,
			"path":    entry.Path,
		})
		if err := p.runEntry(ctx, entry); err != nil {
			if ctx.Err() != nil {
				p.logger.Info().Str("session", sessionID).Msg("playback session canceled")
				return
			}
			p.logger.Warn().Err(err).Str("session", sessionID).Str("path", entry.Path).Msg("entry playback failed, continuing")
		}
	}
	p.bus.Publish(events.EventPlaybackFinished, events.Payload{"session": sessionID})
	p.logger.Info().Str("session", sessionID).Int("entries", len(entries)).Msg("playback session finished")
}

// runEntry plays one entry to completion. The launch string goes through a
// shell so GStreamer pipeline syntax parses the way operators expect.
func (p *GStreamer) runEntry(ctx context.Context, entry models.PlaylistEntry) error {
	var shellCmd string
	switch entry.Kind {
	case models.PlaylistSpeech:
		shellCmd = fmt.Sprintf("%s %q", p.espeakBin, entry.Text)
	default:
		launch := fmt.Sprintf("filesrc location=%q ! decodebin ! audioconvert ! audioresample ! autoaudiosink", entry.Path)
		shellCmd = fmt.Sprintf("%s -e %s", p.gstBin, launch)
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", shellCmd)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start playback process: %w", err)
	}

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	return cmd.Wait()
}

// Stop cancels the running session, if any, and waits for it to wind down.
// The process gets an interrupt first; a stubborn one is killed.
func (p *GStreamer) Stop() error {
	p.mu.Lock()
	cancel := p.cancel
	cmd := p.cmd
	done := p.done
	p.cancel = nil
	p.cmd = nil
	p.done = nil
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	default:
	}

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Signal(os.Interrupt)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		if cmd != nil && cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
	}
	return nil
}
