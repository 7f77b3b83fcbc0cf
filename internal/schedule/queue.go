/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package schedule

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/seda/internal/models"
)

// QueueStore persists queue-mode folder rotation across reloads and restarts.
type QueueStore struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewQueueStore creates a queue rotation store.
func NewQueueStore(db *gorm.DB, logger zerolog.Logger) *QueueStore {
	return &QueueStore{db: db, logger: logger}
}

// LastPlayed returns the file most recently selected for the folder.
func (s *QueueStore) LastPlayed(folder string) (string, bool) {
	var state models.FolderQueueState
	err := s.db.First(&state, "folder = ?", folder).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Str("folder", folder).Msg("queue state lookup failed")
		}
		return "", false
	}
	return state.LastPlayed, true
}

// SetLastPlayed records the file selected for the folder.
func (s *QueueStore) SetLastPlayed(folder, file string) {
	state := models.FolderQueueState{Folder: folder, LastPlayed: file, UpdatedAt: time.Now().UTC()}
	if err := s.db.Save(&state).Error; err != nil {
		s.logger.Warn().Err(err).Str("folder", folder).Msg("queue state save failed")
	}
}
