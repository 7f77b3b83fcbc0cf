/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleType distinguishes calendar-recurring items from trigger-driven ones.
type ScheduleType string

const (
	SchedulePeriodic    ScheduleType = "periodic"
	ScheduleNonPeriodic ScheduleType = "non_periodic"
)

// ParseScheduleType validates a raw schedule type value.
func ParseScheduleType(raw string) (ScheduleType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "periodic":
		return SchedulePeriodic, nil
	case "non_periodic", "nonperiodic", "non-periodic":
		return ScheduleNonPeriodic, nil
	default:
		return "", fmt.Errorf("unknown schedule type %q", raw)
	}
}

// CalendarType selects the civil calendar used for recurrence arithmetic.
type CalendarType string

const (
	CalendarGregorian CalendarType = "gregorian"
	CalendarHijri     CalendarType = "hijri"
	CalendarPersian   CalendarType = "persian"
)

// ParseCalendarType validates a raw calendar value.
func ParseCalendarType(raw string) (CalendarType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "gregorian":
		return CalendarGregorian, nil
	case "hijri", "islamic":
		return CalendarHijri, nil
	case "persian", "jalali", "shamsi":
		return CalendarPersian, nil
	default:
		return "", fmt.Errorf("unknown calendar type %q", raw)
	}
}

// TriggerType controls how a playlist start anchors to the occurrence instant.
type TriggerType string

const (
	// TriggerImmediate starts the playlist at the occurrence instant.
	TriggerImmediate TriggerType = "immediate"
	// TriggerDelayed starts the playlist a configured delay after the occurrence.
	TriggerDelayed TriggerType = "delayed"
	// TriggerTimed ends the playlist at the occurrence instant, so playback
	// starts occurrence minus total playlist duration.
	TriggerTimed TriggerType = "timed"
)

// ParseTriggerType validates a raw trigger type value.
func ParseTriggerType(raw string) (TriggerType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "immediate":
		return TriggerImmediate, nil
	case "delayed":
		return TriggerDelayed, nil
	case "timed":
		return TriggerTimed, nil
	default:
		return "", fmt.Errorf("unknown trigger type %q", raw)
	}
}

// Priority orders items competing for the playback collaborator.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a raw priority value.
func ParsePriority(raw string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return PriorityLow, nil
	case "normal", "medium":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("unknown priority %q", raw)
	}
}

// FolderPlayMode governs how a directory entry expands into playlist entries.
type FolderPlayMode string

const (
	// FolderPlayAll appends every audio file in the folder.
	FolderPlayAll FolderPlayMode = "all"
	// FolderPlaySingle appends one uniformly random file.
	FolderPlaySingle FolderPlayMode = "single"
	// FolderPlayQueue appends the file after the last played one in sort
	// order, wrapping to the first, and persists the choice.
	FolderPlayQueue FolderPlayMode = "queue"
)

// ParseFolderPlayMode validates a raw folder play mode value.
func ParseFolderPlayMode(raw string) (FolderPlayMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return FolderPlayAll, nil
	case "single", "random":
		return FolderPlaySingle, nil
	case "queue":
		return FolderPlayQueue, nil
	default:
		return "", fmt.Errorf("unknown folder play mode %q", raw)
	}
}

// TriggerSource records who asserted a trigger event.
type TriggerSource string

const (
	TriggerSystematic TriggerSource = "systematic"
	TriggerManual     TriggerSource = "manual"
)

// ItemStatus is the runtime state of a schedule item.
type ItemStatus string

const (
	StatusTimeWaiting  ItemStatus = "time_waiting"
	StatusEventWaiting ItemStatus = "event_waiting"
	StatusPlaying      ItemStatus = "playing"
	StatusPlayed       ItemStatus = "played"
	StatusCanceled     ItemStatus = "canceled"
)

// WaitingStatus returns the initial status for a schedule type.
func WaitingStatus(t ScheduleType) ItemStatus {
	if t == ScheduleNonPeriodic {
		return StatusEventWaiting
	}
	return StatusTimeWaiting
}

// CronFields are the six cron-style recurrence fields. Each field is "*",
// "*/N", or a decimal literal.
type CronFields struct {
	Second     string `yaml:"second" json:"second"`
	Minute     string `yaml:"minute" json:"minute"`
	Hour       string `yaml:"hour" json:"hour"`
	DayOfMonth string `yaml:"day_of_month" json:"day_of_month"`
	Month      string `yaml:"month" json:"month"`
	DayOfWeek  string `yaml:"day_of_week" json:"day_of_week"`
}

// FilePathEntry is one authored playlist source: a concrete file, a folder
// with a play mode, or literal text to be spoken.
type FilePathEntry struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	Text string `yaml:"text,omitempty" json:"text,omitempty"`
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// ScheduleItemDefinition is an authored schedule item, immutable per load.
type ScheduleItemDefinition struct {
	Name        string          `yaml:"name" json:"name"`
	Type        string          `yaml:"type" json:"type"`
	Calendar    string          `yaml:"calendar" json:"calendar"`
	Cron        CronFields      `yaml:"cron" json:"cron"`
	TriggerType string          `yaml:"trigger_type" json:"trigger_type"`
	DelayTime   string          `yaml:"delay_time,omitempty" json:"delay_time,omitempty"`
	Trigger     string          `yaml:"trigger,omitempty" json:"trigger,omitempty"`
	Triggers    []string        `yaml:"triggers,omitempty" json:"triggers,omitempty"`
	Entries     []FilePathEntry `yaml:"entries" json:"entries"`
	Priority    string          `yaml:"priority,omitempty" json:"priority,omitempty"`
	Disabled    bool            `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// PlaylistEntryKind discriminates resolved playlist references.
type PlaylistEntryKind string

const (
	PlaylistFile   PlaylistEntryKind = "file"
	PlaylistSpeech PlaylistEntryKind = "speech"
)

// PlaylistEntry is a resolved audio reference: a concrete file path or a
// synthesized speech text.
type PlaylistEntry struct {
	Kind     PlaylistEntryKind `json:"kind"`
	Path     string            `json:"path,omitempty"`
	Text     string            `json:"text,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// RuntimeScheduleItem is the live, playable form of a definition. The
// materializer owns creation and replacement; the orchestrator mutates only
// Status and CurrentPlayingIndex under the shared live-set lock.
type RuntimeScheduleItem struct {
	ID          int    `json:"id"`
	ConfigIndex int    `json:"config_index"`
	Name        string `json:"name"`
	// Trigger is the event name this item listens on. For items fanned out
	// from a multi-trigger definition it is the fanned trigger.
	Trigger string `json:"trigger,omitempty"`

	Type        ScheduleType  `json:"type"`
	Calendar    CalendarType  `json:"calendar"`
	Cron        CronFields    `json:"cron"`
	TriggerType TriggerType   `json:"trigger_type"`
	Delay       time.Duration `json:"delay"`
	Priority    Priority      `json:"priority"`

	PlayList      []PlaylistEntry `json:"playlist"`
	TotalDuration time.Duration   `json:"total_duration"`

	NextOccurrence time.Time `json:"next_occurrence"`
	// TriggerTime is the computed playback start instant for the armed timer.
	TriggerTime time.Time `json:"trigger_time"`
	// LastTriggerName is the trigger event most recently consumed by this item.
	LastTriggerName string    `json:"last_trigger_name,omitempty"`
	LastTriggerAt   time.Time `json:"last_trigger_at"`

	CurrentPlayingIndex int        `json:"current_playing_index"`
	Status              ItemStatus `json:"status"`
}

// FolderQueueState persists queue-mode rotation per folder across reloads and
// restarts.
type FolderQueueState struct {
	Folder     string `gorm:"primaryKey"`
	LastPlayed string
	UpdatedAt  time.Time
}

// TableName returns the table name for GORM.
func (FolderQueueState) TableName() string {
	return "folder_queue_states"
}

// ManualTrigger persists operator-asserted triggers so they survive restarts.
type ManualTrigger struct {
	Name      string `gorm:"primaryKey"`
	FiredAt   *time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM.
func (ManualTrigger) TableName() string {
	return "manual_triggers"
}
