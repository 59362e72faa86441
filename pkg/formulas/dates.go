package formulas

import "time"

// MonthsBetween returns the number of whole calendar months from a to b.
// A month is complete when b's day of month (and time of day) reaches a's.
// The result is negative when b is before a.
func MonthsBetween(a, b time.Time) int {
	if b.Before(a) {
		return -MonthsBetween(b, a)
	}
	months := (b.Year()-a.Year())*12 + int(b.Month()-a.Month())
	if months > 0 && addMonths(a, months).After(b) {
		months--
	}
	return months
}

// DaysBetween returns the number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// AgeAt splits the time from dob to at into whole years, then whole months,
// then days.
func AgeAt(dob, at time.Time) (years, months, days int) {
	total := MonthsBetween(dob, at)
	years, months = total/12, total%12
	anchor := addMonths(dob, total)
	return years, months, DaysBetween(anchor, at)
}

// addMonths adds n calendar months to t, clamping the day to the last day
// of the target month: Jan 31 + 1 month is Feb 28 (or 29).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(d, last)-1)
}
