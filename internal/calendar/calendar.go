// Package calendar implements Solar Hijri month arithmetic.
//
// Dates convert through Julian day numbers using the 2820-year cycle for
// both the conversion and the leap rule, so every civil date round-trips
// and month lengths agree with the conversion.
package calendar

import (
	"fmt"
	"time"
)

const (
	// JDN of 1/1/1 Solar Hijri is epochJDN + 1
	epochJDN = 1948320

	daysPer2820 = 1029983
	unixEpoch   = 2440588
)

// Date is a Solar Hijri civil date
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// IsLeap reports whether year has 366 days
func IsLeap(year int) bool {
	return toJDN(year+1, 1, 1)-toJDN(year, 1, 1) == 366
}

// DaysInMonth returns the length of a month: 31 for months 1-6, 30 for
// 7-11, and 29 or 30 for the last month depending on the leap rule.
func DaysInMonth(year, month int) int {
	switch {
	case month <= 6:
		return 31
	case month <= 11:
		return 30
	case IsLeap(year):
		return 30
	default:
		return 29
	}
}

// FromTime returns the civil date of t in t's location
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return FromJDN(gregorianToJDN(y, m, d))
}

// ToTime returns the instant at the given civil date and wall clock in loc
func (d Date) ToTime(hour, min, sec, nsec int, loc *time.Location) time.Time {
	gy, gm, gd := jdnToGregorian(toJDN(d.Year, d.Month, d.Day))
	return time.Date(gy, gm, gd, hour, min, sec, nsec, loc)
}

// AddMonths advances t by n civil months. The day is clamped to the length
// of the target month and the wall-clock time in t's location is kept.
func AddMonths(t time.Time, n int) time.Time {
	d := FromTime(t)

	total := d.Month - 1 + n
	year := d.Year + floorDiv(total, 12)
	month := mod(total, 12) + 1

	day := d.Day
	if last := DaysInMonth(year, month); day > last {
		day = last
	}

	target := Date{Year: year, Month: month, Day: day}
	return target.ToTime(t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Format renders t as "YYYY/MM/DD HH:MM" in loc
func Format(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%s %02d:%02d", FromTime(local), local.Hour(), local.Minute())
}

func toJDN(year, month, day int) int {
	epbase := year - 474
	if year < 0 {
		epbase = year - 473
	}
	epyear := 474 + mod(epbase, 2820)

	var mdays int
	if month <= 7 {
		mdays = (month - 1) * 31
	} else {
		mdays = (month-1)*30 + 6
	}

	return day + mdays +
		floorDiv(epyear*682-110, 2816) +
		(epyear-1)*365 +
		floorDiv(epbase, 2820)*daysPer2820 +
		epochJDN
}

// FromJDN converts a Julian day number to a civil date
func FromJDN(jdn int) Date {
	// Estimate, then correct against the exact year starts.
	year := floorDiv((jdn-toJDN(475, 1, 1))*2820, daysPer2820) + 475
	for toJDN(year, 1, 1) > jdn {
		year--
	}
	for toJDN(year+1, 1, 1) <= jdn {
		year++
	}

	yday := jdn - toJDN(year, 1, 1)
	if yday < 186 {
		return Date{Year: year, Month: yday/31 + 1, Day: yday%31 + 1}
	}
	yday -= 186
	return Date{Year: year, Month: yday/30 + 7, Day: yday%30 + 1}
}

// ToJDN converts a civil date to a Julian day number
func (d Date) ToJDN() int {
	return toJDN(d.Year, d.Month, d.Day)
}

func gregorianToJDN(y int, m time.Month, d int) int {
	days := time.Date(y, m, d, 12, 0, 0, 0, time.UTC).Unix()
	return int(floorDiv64(days, 86400)) + unixEpoch
}

func jdnToGregorian(jdn int) (int, time.Month, int) {
	t := time.Unix(int64(jdn-unixEpoch)*86400, 0).UTC()
	return t.Year(), t.Month(), t.Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorDiv64(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	return a - floorDiv(a, b)*b
}
