package models

import "time"

// DayKey identifies a local calendar day in YYYY-MM-DD form. All day
// bucketing in the service derives from the server's local clock; wall
// timestamps are never compared directly.
type DayKey string

// DayKeyOf returns the key of the local calendar day containing t.
func DayKeyOf(t time.Time) DayKey {
	return DayKey(t.Local().Format("2006-01-02"))
}

// Time returns the midnight instant of the day in local time. Invalid
// keys yield the zero time and a non-nil error.
func (k DayKey) Time() (time.Time, error) {
	return time.ParseInLocation("2006-01-02", string(k), time.Local)
}

func (k DayKey) String() string { return string(k) }

// SameLocalDay reports whether two instants fall on the same local
// calendar day (year, month and day all equal).
func SameLocalDay(a, b time.Time) bool {
	al, bl := a.Local(), b.Local()
	return al.Year() == bl.Year() && al.Month() == bl.Month() && al.Day() == bl.Day()
}
