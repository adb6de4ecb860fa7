package utils

import (
	"time"
)

// DateLayout is the date format used for column labels and CLI flags.
const DateLayout = "2006-01-02"

// Today returns the current UTC date at midnight.
func Today() time.Time {
	return truncateDay(time.Now().UTC())
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate formats t as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsTradingDay reports whether t is a weekday that is not a TARGET2 closing day.
func IsTradingDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !IsTradingHoliday(t)
}

// IsTradingHoliday reports whether t is a TARGET2 closing day: New Year,
// Good Friday, Easter Monday, Labour Day, Christmas and Boxing Day.
func IsTradingHoliday(t time.Time) bool {
	t = truncateDay(t)
	switch {
	case t.Month() == time.January && t.Day() == 1,
		t.Month() == time.May && t.Day() == 1,
		t.Month() == time.December && t.Day() == 25,
		t.Month() == time.December && t.Day() == 26:
		return true
	}
	easter := EasterSunday(t.Year())
	return t.Equal(easter.AddDate(0, 0, -2)) || t.Equal(easter.AddDate(0, 0, 1))
}

// EasterSunday returns the Gregorian Easter date for year (anonymous
// Gregorian algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// LastTradingDay returns t itself when it is a trading day, otherwise the
// closest earlier trading day.
func LastTradingDay(t time.Time) time.Time {
	t = truncateDay(t)
	for !IsTradingDay(t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// PrevTradingDay returns the trading day before t.
func PrevTradingDay(t time.Time) time.Time {
	return LastTradingDay(truncateDay(t).AddDate(0, 0, -1))
}

// TradingDaysEndingAt returns n trading days, oldest first, the last of which
// is LastTradingDay(asOf).
func TradingDaysEndingAt(asOf time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	days := make([]time.Time, n)
	d := LastTradingDay(asOf)
	for i := n - 1; i >= 0; i-- {
		days[i] = d
		d = PrevTradingDay(d)
	}
	return days
}
