/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package recurrence computes the next valid occurrence of a schedule item's
// cron-style fields against a civil calendar. One resolver exists per
// calendar; all share the same field-by-field roll-forward algorithm, where
// each field's decision is based on the candidate already adjusted by the
// preceding fields.
package recurrence

import (
	"time"

	"github.com/friendsincode/seda/internal/calendar"
	"github.com/friendsincode/seda/internal/models"
)

// Resolver answers occurrence questions for one calendar.
type Resolver interface {
	// GetNextOccurrence returns the next occurrence strictly after now, or
	// false when the fields admit none.
	GetNextOccurrence(item *models.RuntimeScheduleItem, now time.Time) (time.Time, bool)
	// IsNonPeriodicTriggerValid reports whether the item's day-of-month,
	// month and day-of-week filters match now in the item's calendar.
	IsNonPeriodicTriggerValid(item *models.RuntimeScheduleItem, now time.Time) bool
}

// ForCalendar selects the resolver for a calendar type.
func ForCalendar(cal models.CalendarType) Resolver {
	switch cal {
	case models.CalendarHijri:
		return hijriResolver{}
	case models.CalendarPersian:
		return persianResolver{}
	default:
		return gregorianResolver{}
	}
}

type gregorianResolver struct{}

func (gregorianResolver) GetNextOccurrence(item *models.RuntimeScheduleItem, now time.Time) (time.Time, bool) {
	return nextOccurrence(models.CalendarGregorian, item.Cron, now)
}

func (gregorianResolver) IsNonPeriodicTriggerValid(item *models.RuntimeScheduleItem, now time.Time) bool {
	return dayFiltersMatch(models.CalendarGregorian, item.Cron, now)
}

type hijriResolver struct{}

func (hijriResolver) GetNextOccurrence(item *models.RuntimeScheduleItem, now time.Time) (time.Time, bool) {
	return nextOccurrence(models.CalendarHijri, item.Cron, now)
}

func (hijriResolver) IsNonPeriodicTriggerValid(item *models.RuntimeScheduleItem, now time.Time) bool {
	return dayFiltersMatch(models.CalendarHijri, item.Cron, now)
}

type persianResolver struct{}

func (persianResolver) GetNextOccurrence(item *models.RuntimeScheduleItem, now time.Time) (time.Time, bool) {
	return nextOccurrence(models.CalendarPersian, item.Cron, now)
}

func (persianResolver) IsNonPeriodicTriggerValid(item *models.RuntimeScheduleItem, now time.Time) bool {
	return dayFiltersMatch(models.CalendarPersian, item.Cron, now)
}

// candidate is a mutable civil date-time in one calendar.
type candidate struct {
	cal models.CalendarType
	loc *time.Location

	year, month, day     int
	hour, minute, second int
}

func newCandidate(cal models.CalendarType, now time.Time) candidate {
	cd := calendar.Convert(now, cal)
	return candidate{
		cal: cal, loc: now.Location(),
		year: cd.Year, month: cd.Month, day: cd.Day,
		hour: cd.Hour, minute: cd.Minute, second: cd.Second,
	}
}

func (c *candidate) addSeconds(n int) {
	c.second += n
	c.addMinutes(c.second / 60)
	c.second %= 60
}

func (c *candidate) addMinutes(n int) {
	c.minute += n
	c.addHours(c.minute / 60)
	c.minute %= 60
}

func (c *candidate) addHours(n int) {
	c.hour += n
	c.addDays(c.hour / 24)
	c.hour %= 24
}

func (c *candidate) addDays(n int) {
	if n == 0 {
		return
	}
	jdn := calendar.ToJDN(c.cal, c.year, c.month, c.day) + int64(n)
	c.year, c.month, c.day = calendar.FromJDN(c.cal, jdn)
}

func (c *candidate) addMonths(n int) {
	total := c.year*12 + (c.month - 1) + n
	c.year = total / 12
	c.month = total%12 + 1
	c.clampDay()
}

func (c *candidate) addYears(n int) {
	c.year += n
	c.clampDay()
}

func (c *candidate) clampDay() {
	if max := calendar.DaysInMonth(c.cal, c.year, c.month); c.day > max {
		c.day = max
	}
}

func (c *candidate) toTime() time.Time {
	return calendar.ToTime(calendar.CivilDate{
		Year: c.year, Month: c.month, Day: c.day,
		Hour: c.hour, Minute: c.minute, Second: c.second,
	}, c.cal, c.loc)
}

// nextOccurrence applies the roll-forward rules in authoritative field order:
// seconds, minutes, hours, day of month, month, day of week. A candidate that
// does not land strictly after now means no occurrence.
func nextOccurrence(cal models.CalendarType, cron models.CronFields, now time.Time) (time.Time, bool) {
	sec, _ := parseField(cron.Second)
	min, _ := parseField(cron.Minute)
	hour, _ := parseField(cron.Hour)
	dom, _ := parseField(cron.DayOfMonth)
	month, _ := parseField(cron.Month)
	dow, _ := parseField(cron.DayOfWeek)

	c := newCandidate(cal, now)

	switch sec.kind {
	case fieldStep:
		c.addSeconds(sec.value)
	case fieldLiteral:
		if sec.value <= c.second {
			c.addMinutes(1)
		}
		c.second = sec.value
	}

	switch min.kind {
	case fieldStep:
		c.addMinutes(min.value)
	case fieldLiteral:
		if min.value <= c.minute {
			c.addHours(1)
		}
		c.minute = min.value
	}

	switch hour.kind {
	case fieldStep:
		c.addHours(hour.value)
	case fieldLiteral:
		if hour.value <= c.hour {
			c.addDays(1)
		}
		c.hour = hour.value
	}

	if dom.kind == fieldLiteral {
		if dom.value <= c.day {
			c.addMonths(1)
		}
		c.day = dom.value
		c.clampDay()
	}

	if month.kind == fieldLiteral {
		if month.value <= c.month {
			c.addYears(1)
		}
		c.month = month.value
		c.clampDay()
	}

	if dow.kind == fieldLiteral {
		current := int(c.toTime().Weekday())
		delta := (dow.value - current + 7) % 7
		if delta == 0 && !c.toTime().After(now) {
			delta = 7
		}
		c.addDays(delta)
	}

	t := c.toTime()
	if !t.After(now) {
		return time.Time{}, false
	}
	return t, true
}

// dayFiltersMatch gates non-periodic items on the trigger's calendar day.
func dayFiltersMatch(cal models.CalendarType, cron models.CronFields, now time.Time) bool {
	dom, _ := parseField(cron.DayOfMonth)
	month, _ := parseField(cron.Month)
	dow, _ := parseField(cron.DayOfWeek)

	cd := calendar.Convert(now, cal)
	return dom.matches(cd.Day) && month.matches(cd.Month) && dow.matches(int(cd.DayOfWeek))
}
