/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package calendar

import (
	"testing"
	"time"

	"github.com/friendsincode/seda/internal/models"
)

func TestConvertGregorianIsIdentity(t *testing.T) {
	instant := time.Date(2026, 8, 28, 13, 45, 9, 0, time.UTC)
	cd := Convert(instant, models.CalendarGregorian)

	if cd.Year != 2026 || cd.Month != 8 || cd.Day != 28 {
		t.Fatalf("date = %d-%d-%d, want 2026-8-28", cd.Year, cd.Month, cd.Day)
	}
	if cd.Hour != 13 || cd.Minute != 45 || cd.Second != 9 {
		t.Fatalf("clock = %d:%d:%d, want 13:45:9", cd.Hour, cd.Minute, cd.Second)
	}
	if cd.DayOfWeek != time.Friday {
		t.Fatalf("weekday = %v, want Friday", cd.DayOfWeek)
	}
}

func TestConvertPersianNewYear(t *testing.T) {
	// 1 Farvardin 1404 began on 21 March 2025.
	instant := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)
	cd := Convert(instant, models.CalendarPersian)

	if cd.Year != 1404 || cd.Month != 1 || cd.Day != 1 {
		t.Fatalf("persian date = %d-%d-%d, want 1404-1-1", cd.Year, cd.Month, cd.Day)
	}
}

func TestConvertHijriNewYear(t *testing.T) {
	// Tabular civil calendar: 1 Muharram 1447 falls on 27 June 2025.
	instant := time.Date(2025, 6, 27, 0, 0, 0, 0, time.UTC)
	cd := Convert(instant, models.CalendarHijri)

	if cd.Year != 1447 || cd.Month != 1 || cd.Day != 1 {
		t.Fatalf("hijri date = %d-%d-%d, want 1447-1-1", cd.Year, cd.Month, cd.Day)
	}
}

func TestWeekdayUnaffectedByCalendar(t *testing.T) {
	instant := time.Date(2025, 6, 27, 10, 0, 0, 0, time.UTC)
	for _, cal := range []models.CalendarType{models.CalendarGregorian, models.CalendarHijri, models.CalendarPersian} {
		cd := Convert(instant, cal)
		if cd.DayOfWeek != instant.Weekday() {
			t.Fatalf("calendar %s weekday = %v, want %v", cal, cd.DayOfWeek, instant.Weekday())
		}
	}
}

func TestRoundTripAllCalendars(t *testing.T) {
	loc := time.UTC
	for _, cal := range []models.CalendarType{models.CalendarGregorian, models.CalendarHijri, models.CalendarPersian} {
		instant := time.Date(2020, 1, 1, 6, 30, 0, 0, loc)
		for day := 0; day < 3000; day += 17 {
			probe := instant.AddDate(0, 0, day)
			cd := Convert(probe, cal)
			back := ToTime(cd, cal, loc)
			if !back.Equal(probe) {
				t.Fatalf("calendar %s round trip of %v = %v", cal, probe, back)
			}
		}
	}
}

func TestDaysInMonthRanges(t *testing.T) {
	if got := DaysInMonth(models.CalendarGregorian, 2024, 2); got != 29 {
		t.Fatalf("gregorian feb 2024 = %d, want 29", got)
	}
	if got := DaysInMonth(models.CalendarGregorian, 2025, 2); got != 28 {
		t.Fatalf("gregorian feb 2025 = %d, want 28", got)
	}
	for m := 1; m <= 12; m++ {
		h := DaysInMonth(models.CalendarHijri, 1447, m)
		if h < 29 || h > 30 {
			t.Fatalf("hijri month %d = %d days", m, h)
		}
		p := DaysInMonth(models.CalendarPersian, 1404, m)
		if p < 29 || p > 31 {
			t.Fatalf("persian month %d = %d days", m, p)
		}
	}
}
