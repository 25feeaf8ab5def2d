package core

import "time"

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

var NowFunc = time.Now // mockable

// Today returns the current calendar date (UTC midnight).
func Today() time.Time {
	return Date(NowFunc())
}

// Date truncates t to its calendar date, at midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from `from` to `to` (negative if `to` is before `from`).
func DaysBetween(from, to time.Time) int {
	return int(Date(to).Sub(Date(from)).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, CleanString(s))
	if err != nil {
		return time.Time{}, err
	}
	return Date(t), nil
}
