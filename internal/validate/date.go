package validate

import (
	"time"

	"github.com/araddon/dateparse"
)

// dateMonthName renders dates in messages, e.g. "May 13 2018".
const dateMonthName = "Jan 02 2006"

// FutureDate parses s with a permissive parser and returns the last instant
// (23:59:59.999999 UTC) of the calendar day as written.  An explicit offset
// does not move the day; zone-less input is read as UTC.  Today is accepted
// and any earlier day is rejected.
func FutureDate(s string) (time.Time, error) {
	return futureDateAt(s, time.Now())
}

func futureDateAt(s string, now time.Time) (time.Time, error) {
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, newError(InvalidDate,
			"Failed to parse '%s' as a valid date. Any common format is accepted, for example all of "+
				"these are the same date: '2018-5-13' -or- '05/13/2018' -or- 'May 13 2018'.", s)
	}
	day := truncateDay(parsed)
	today := truncateDay(now.UTC())
	if day.Before(today) {
		return time.Time{}, newError(InvalidDate,
			"Successfully parsed %s as %s. However, this value must be a date in the future and %s is BEFORE %s",
			s, parsed.Format(dateMonthName), parsed.Format(dateMonthName), now.UTC().Format(dateMonthName))
	}
	return EndOfDay(day), nil
}

// ParseTime parses a timestamp in any format the permissive parser knows,
// interpreting zone-less input as UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// EndOfDay returns 23:59:59.999999 UTC on t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999999000, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Timestamp parses s permissively and reports failure as InvalidDate.  Unlike
// FutureDate it keeps the time of day and accepts the past.
func Timestamp(s string) (time.Time, error) {
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, newError(InvalidDate, "Failed to parse '%s' as a valid date and time.", s)
	}
	return t, nil
}
