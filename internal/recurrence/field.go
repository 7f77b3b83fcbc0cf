/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package recurrence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/friendsincode/seda/internal/models"
)

type fieldKind int

const (
	fieldAny fieldKind = iota
	fieldStep
	fieldLiteral
)

// field is one parsed cron-style field: "*", "*/N", or a decimal literal.
type field struct {
	kind  fieldKind
	value int
}

func parseField(raw string) (field, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == "*":
		return field{kind: fieldAny}, nil
	case strings.HasPrefix(raw, "*/"):
		n, err := strconv.Atoi(raw[2:])
		if err != nil || n <= 0 {
			return field{}, fmt.Errorf("bad step field %q", raw)
		}
		return field{kind: fieldStep, value: n}, nil
	default:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return field{}, fmt.Errorf("bad literal field %q", raw)
		}
		return field{kind: fieldLiteral, value: n}, nil
	}
}

// ValidateFields rejects recurrence fields that are neither "*", "*/N", nor
// a decimal literal.
func ValidateFields(f models.CronFields) error {
	fields := []struct {
		name string
		raw  string
	}{
		{"second", f.Second},
		{"minute", f.Minute},
		{"hour", f.Hour},
		{"day_of_month", f.DayOfMonth},
		{"month", f.Month},
		{"day_of_week", f.DayOfWeek},
	}
	for _, fd := range fields {
		if _, err := parseField(fd.raw); err != nil {
			return fmt.Errorf("%s: %w", fd.name, err)
		}
	}
	return nil
}

// matches reports whether a literal filter admits the current value. Non
// literal fields admit everything.
func (f field) matches(current int) bool {
	if f.kind != fieldLiteral {
		return true
	}
	return f.value == current
}
