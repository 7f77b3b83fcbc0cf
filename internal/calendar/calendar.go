/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package calendar maps absolute instants to civil date fields in the three
// supported calendars and back. Day-of-week always derives from the absolute
// instant, never from the converted fields.
package calendar

import (
	"time"

	"github.com/friendsincode/seda/internal/models"
)

// CivilDate is a point in time expressed in one civil calendar.
type CivilDate struct {
	Year      int
	Month     int
	Day       int
	Hour      int
	Minute    int
	Second    int
	DayOfWeek time.Weekday
}

// Convert expresses t in the given calendar. CalendarType is validated at
// item load time, so an unknown value falls through to Gregorian here.
func Convert(t time.Time, cal models.CalendarType) CivilDate {
	hour, minute, second := t.Clock()
	cd := CivilDate{Hour: hour, Minute: minute, Second: second, DayOfWeek: t.Weekday()}

	gy, gm, gd := t.Date()
	switch cal {
	case models.CalendarHijri:
		cd.Year, cd.Month, cd.Day = jdnToHijri(gregorianToJDN(gy, int(gm), gd))
	case models.CalendarPersian:
		cd.Year, cd.Month, cd.Day = jdnToPersian(gregorianToJDN(gy, int(gm), gd))
	default:
		cd.Year, cd.Month, cd.Day = gy, int(gm), gd
	}
	return cd
}

// ToTime converts civil date fields back to an absolute instant in loc.
func ToTime(cd CivilDate, cal models.CalendarType, loc *time.Location) time.Time {
	var gy, gm, gd int
	switch cal {
	case models.CalendarHijri:
		gy, gm, gd = jdnToGregorian(hijriToJDN(cd.Year, cd.Month, cd.Day))
	case models.CalendarPersian:
		gy, gm, gd = jdnToGregorian(persianToJDN(cd.Year, cd.Month, cd.Day))
	default:
		gy, gm, gd = cd.Year, cd.Month, cd.Day
	}
	return time.Date(gy, time.Month(gm), gd, cd.Hour, cd.Minute, cd.Second, 0, loc)
}

// DaysInMonth returns the month length for the calendar, derived from the
// first-of-month day numbers so leap handling stays in one place.
func DaysInMonth(cal models.CalendarType, year, month int) int {
	ny, nm := year, month+1
	if nm > 12 {
		ny, nm = year+1, 1
	}
	switch cal {
	case models.CalendarHijri:
		return int(hijriToJDN(ny, nm, 1) - hijriToJDN(year, month, 1))
	case models.CalendarPersian:
		return int(persianToJDN(ny, nm, 1) - persianToJDN(year, month, 1))
	default:
		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, 1, -1).Day()
	}
}

// ToJDN returns the Julian day number for civil date fields in the calendar.
func ToJDN(cal models.CalendarType, year, month, day int) int64 {
	switch cal {
	case models.CalendarHijri:
		return hijriToJDN(year, month, day)
	case models.CalendarPersian:
		return persianToJDN(year, month, day)
	default:
		return gregorianToJDN(year, month, day)
	}
}

// FromJDN converts a Julian day number to civil date fields in the calendar.
func FromJDN(cal models.CalendarType, jdn int64) (year, month, day int) {
	switch cal {
	case models.CalendarHijri:
		return jdnToHijri(jdn)
	case models.CalendarPersian:
		return jdnToPersian(jdn)
	default:
		return jdnToGregorian(jdn)
	}
}

// gregorianToJDN uses the standard Fliegel-Van Flandern conversion.
func gregorianToJDN(year, month, day int) int64 {
	a := int64((14 - month) / 12)
	y := int64(year) + 4800 - a
	m := int64(month) + 12*a - 3
	return int64(day) + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

func jdnToGregorian(jdn int64) (year, month, day int) {
	a := jdn + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153
	day = int(e - (153*m+2)/5 + 1)
	month = int(m + 3 - 12*(m/10))
	year = int(100*b + d - 4800 + m/10)
	return year, month, day
}
