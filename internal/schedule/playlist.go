/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/friendsincode/seda/internal/models"
)

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".ogg":  {},
	".opus": {},
	".flac": {},
	".m4a":  {},
	".aac":  {},
}

// speechSecondsPerWord approximates synthesized speech pacing for duration
// accounting; playback itself is driven by the collaborator, not this figure.
const speechSecondsPerWord = 0.4

// resolvePlaylist expands authored entries into concrete playlist references.
// Missing files and folders are logged and skipped, never a load failure.
func (m *Materializer) resolvePlaylist(ctx context.Context, itemName string, entries []models.FilePathEntry) []models.PlaylistEntry {
	playlist := make([]models.PlaylistEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Text != "" {
			playlist = append(playlist, speechEntry(entry.Text))
			continue
		}
		if entry.Path == "" {
			m.logger.Warn().Str("item", itemName).Msg("empty playlist entry skipped")
			continue
		}

		path := entry.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(m.mediaRoot, path)
		}

		info, err := os.Stat(path)
		if err != nil {
			m.logger.Warn().Err(err).Str("item", itemName).Str("path", path).Msg("playlist path missing, skipped")
			continue
		}

		if !info.IsDir() {
			playlist = append(playlist, m.fileEntry(ctx, path))
			continue
		}

		mode, err := models.ParseFolderPlayMode(entry.Mode)
		if err != nil {
			m.logger.Warn().Err(err).Str("item", itemName).Str("path", path).Msg("bad folder mode, using all")
			mode = models.FolderPlayAll
		}
		playlist = append(playlist, m.folderEntries(ctx, path, mode)...)
	}
	return playlist
}

func (m *Materializer) fileEntry(ctx context.Context, path string) models.PlaylistEntry {
	entry := models.PlaylistEntry{Kind: models.PlaylistFile, Path: path}
	duration, err := m.prober.Duration(ctx, path)
	if err != nil {
		m.logger.Warn().Err(err).Str("path", path).Msg("duration probe failed, assuming zero")
		return entry
	}
	entry.Duration = duration
	return entry
}

// folderEntries enumerates matching audio files in lexicographic order and
// applies the folder play mode.
func (m *Materializer) folderEntries(ctx context.Context, dir string, mode models.FolderPlayMode) []models.PlaylistEntry {
	files := listAudioFiles(dir)
	if len(files) == 0 {
		m.logger.Warn().Str("path", dir).Msg("folder holds no audio files, skipped")
		return nil
	}

	switch mode {
	case models.FolderPlaySingle:
		pick := files[rand.Intn(len(files))]
		return []models.PlaylistEntry{m.fileEntry(ctx, pick)}
	case models.FolderPlayQueue:
		pick := m.nextInQueue(dir, files)
		return []models.PlaylistEntry{m.fileEntry(ctx, pick)}
	default:
		out := make([]models.PlaylistEntry, 0, len(files))
		for _, f := range files {
			out = append(out, m.fileEntry(ctx, f))
		}
		return out
	}
}

// nextInQueue picks the file after the persisted last-played one in sort
// order, wrapping to the first, and persists the new choice.
func (m *Materializer) nextInQueue(dir string, files []string) string {
	pick := files[0]
	if last, ok := m.queue.LastPlayed(dir); ok {
		for i, f := range files {
			if f == last {
				pick = files[(i+1)%len(files)]
				break
			}
		}
	}
	m.queue.SetLastPlayed(dir, pick)
	return pick
}

func listAudioFiles(dir string) []string {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	files := make([]string, 0, len(dirents))
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		if _, ok := audioExtensions[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
			continue
		}
		files = append(files, filepath.Join(dir, d.Name()))
	}
	sort.Strings(files)
	return files
}

func speechEntry(text string) models.PlaylistEntry {
	words := len(strings.Fields(text))
	return models.PlaylistEntry{
		Kind:     models.PlaylistSpeech,
		Text:     text,
		Duration: time.Duration(float64(words) * speechSecondsPerWord * float64(time.Second)),
	}
}
