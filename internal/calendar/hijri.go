/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package calendar

// Tabular Islamic calendar (civil epoch, 30-year intercalation cycle).
// 1 Muharram 1 AH = JDN 1948440 (Friday, 16 July 622 CE).

const hijriEpoch = 1948440

func hijriToJDN(year, month, day int) int64 {
	y := int64(year)
	m := int64(month)
	return int64(day) +
		(m-1)*29 + m/2 +
		(y-1)*354 + (3+11*y)/30 +
		hijriEpoch - 1
}

func jdnToHijri(jdn int64) (year, month, day int) {
	l := jdn - hijriEpoch + 10632
	n := (l - 1) / 10631
	l = l - 10631*n + 354
	j := ((10985-l)/5316)*((50*l)/17719) + (l/5670)*((43*l)/15238)
	l = l - ((30-j)/15)*((17719*j)/50) - (j/16)*((15238*j)/43) + 29
	month = int((24 * l) / 709)
	day = int(l - (709*int64(month))/24)
	year = int(30*n + j - 30)
	return year, month, day
}
