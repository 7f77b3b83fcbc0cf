/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"crypto/sha256"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/seda/internal/models"
)

// ScheduleFile is the on-disk shape of the schedule source.
type ScheduleFile struct {
	Items []models.ScheduleItemDefinition `yaml:"items"`
}

// LoadSchedule reads and decodes the schedule source. Callers treat a missing
// or unparseable file as an empty live set, not a fatal error.
func LoadSchedule(path string) ([]models.ScheduleItemDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule source: %w", err)
	}

	var file ScheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode schedule source: %w", err)
	}
	return file.Items, nil
}

// HashSchedule returns a content hash of the schedule source for change
// detection. A missing file hashes to the empty string.
func HashSchedule(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read schedule source: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}
