/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/seda/internal/events"
	"github.com/friendsincode/seda/internal/models"
)

func playlistMaterializer(t *testing.T, mediaRoot string) *Materializer {
	t.Helper()
	queue := NewQueueStore(testDB(t), zerolog.Nop())
	prober := &stubProber{durations: map[string]time.Duration{
		"a.mp3": 10 * time.Second,
		"b.mp3": 20 * time.Second,
		"c.mp3": 30 * time.Second,
	}}
	return NewMaterializer("", mediaRoot, queue, prober, events.NewBus(), zerolog.Nop())
}

func writeAudioFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("audio"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestResolvePlaylistFolderAll(t *testing.T) {
	dir := t.TempDir()
	writeAudioFiles(t, dir, "b.mp3", "a.mp3", "c.mp3", "notes.txt")
	m := playlistMaterializer(t, dir)

	playlist := m.resolvePlaylist(context.Background(), "jingles", []models.FilePathEntry{
		{Path: dir, Mode: "all"},
	})

	if len(playlist) != 3 {
		t.Fatalf("expected 3 audio entries, got %d", len(playlist))
	}
	// Lexicographic order, non-audio excluded.
	for i, want := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		if filepath.Base(playlist[i].Path) != want {
			t.Fatalf("entry %d: expected %s, got %s", i, want, playlist[i].Path)
		}
	}
	if playlist[1].Duration != 20*time.Second {
		t.Fatalf("expected probed duration, got %s", playlist[1].Duration)
	}
}

func TestResolvePlaylistFolderQueueRotates(t *testing.T) {
	dir := t.TempDir()
	writeAudioFiles(t, dir, "a.mp3", "b.mp3", "c.mp3")
	m := playlistMaterializer(t, dir)
	m.queue.SetLastPlayed(dir, filepath.Join(dir, "b.mp3"))

	playlist := m.resolvePlaylist(context.Background(), "rotation", []models.FilePathEntry{
		{Path: dir, Mode: "queue"},
	})

	if len(playlist) != 1 {
		t.Fatalf("expected one entry, got %d", len(playlist))
	}
	if filepath.Base(playlist[0].Path) != "c.mp3" {
		t.Fatalf("expected c.mp3 after b.mp3, got %s", playlist[0].Path)
	}
	if last, ok := m.queue.LastPlayed(dir); !ok || filepath.Base(last) != "c.mp3" {
		t.Fatalf("expected rotation persisted, got %q ok=%v", last, ok)
	}

	// A second expansion wraps back to the start of the sort order.
	playlist = m.resolvePlaylist(context.Background(), "rotation", []models.FilePathEntry{
		{Path: dir, Mode: "queue"},
	})
	if filepath.Base(playlist[0].Path) != "a.mp3" {
		t.Fatalf("expected wrap to a.mp3, got %s", playlist[0].Path)
	}
}

func TestResolvePlaylistFolderSingle(t *testing.T) {
	dir := t.TempDir()
	writeAudioFiles(t, dir, "a.mp3", "b.mp3", "c.mp3")
	m := playlistMaterializer(t, dir)

	playlist := m.resolvePlaylist(context.Background(), "station_id", []models.FilePathEntry{
		{Path: dir, Mode: "single"},
	})

	if len(playlist) != 1 {
		t.Fatalf("expected one entry, got %d", len(playlist))
	}
	switch filepath.Base(playlist[0].Path) {
	case "a.mp3", "b.mp3", "c.mp3":
	default:
		t.Fatalf("pick outside folder: %s", playlist[0].Path)
	}
}

func TestResolvePlaylistSkipsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	writeAudioFiles(t, dir, "a.mp3")
	m := playlistMaterializer(t, dir)

	playlist := m.resolvePlaylist(context.Background(), "partial", []models.FilePathEntry{
		{Path: "does-not-exist.mp3"},
		{Path: "a.mp3"},
	})

	if len(playlist) != 1 {
		t.Fatalf("expected missing path skipped, got %d entries", len(playlist))
	}
	if filepath.Base(playlist[0].Path) != "a.mp3" {
		t.Fatalf("unexpected entry %s", playlist[0].Path)
	}
}

func TestResolvePlaylistRelativePathsJoinMediaRoot(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "ads")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeAudioFiles(t, sub, "a.mp3")
	m := playlistMaterializer(t, dir)

	playlist := m.resolvePlaylist(context.Background(), "ads", []models.FilePathEntry{
		{Path: filepath.Join("ads", "a.mp3")},
	})

	if len(playlist) != 1 {
		t.Fatalf("expected one entry, got %d", len(playlist))
	}
	if playlist[0].Path != filepath.Join(sub, "a.mp3") {
		t.Fatalf("expected media-root join, got %s", playlist[0].Path)
	}
}

func TestSpeechEntryDuration(t *testing.T) {
	entry := speechEntry("the quick brown fox jumps")
	if entry.Kind != models.PlaylistSpeech {
		t.Fatalf("expected speech kind, got %s", entry.Kind)
	}
	if entry.Duration != 2*time.Second {
		t.Fatalf("expected 2s for five words, got %s", entry.Duration)
	}
}

func TestEmptyFolderSkipped(t *testing.T) {
	dir := t.TempDir()
	m := playlistMaterializer(t, dir)

	playlist := m.resolvePlaylist(context.Background(), "empty", []models.FilePathEntry{
		{Path: dir, Mode: "all"},
	})
	if len(playlist) != 0 {
		t.Fatalf("expected empty playlist, got %d entries", len(playlist))
	}
}
