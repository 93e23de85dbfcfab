package generic

import (
	"time"
)

// =============================================================================
// DAY ARITHMETIC - Calendar-day floors in the timestamp's own location
// =============================================================================

// DayStart returns midnight of the calendar day containing t.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FinishDay returns the calendar day a finish timestamp belongs to. A finish
// exactly at midnight closes the previous day.
func FinishDay(t time.Time) time.Time {
	day := DayStart(t)
	if t.Equal(day) {
		return day.AddDate(0, 0, -1)
	}
	return day
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DayStart(a).Equal(DayStart(b))
}

// AtClock returns the wall-clock time clock on the date of d, in d's
// location. An offset of 24h yields the following midnight. Offsets are
// wall-clock readings, so a shift keeps its hours on daylight-saving days.
func AtClock(d time.Time, clock time.Duration) time.Time {
	hour := clock / time.Hour
	minute := clock % time.Hour / time.Minute
	sec := clock % time.Minute / time.Second
	nsec := clock % time.Second
	return time.Date(d.Year(), d.Month(), d.Day(), int(hour), int(minute), int(sec), int(nsec), d.Location())
}

// NextDay returns midnight of the calendar day after t.
func NextDay(t time.Time) time.Time {
	return DayStart(t).AddDate(0, 0, 1)
}

// =============================================================================
// CALENDAR - Working-time authority consumed by the normalizer
// =============================================================================

// Calendar answers working-time questions. Implementations must be
// consistent: NextWorkStart never returns a time before its argument.
type Calendar interface {
	// IsWorkingDate reports whether the date containing t has any working time.
	IsWorkingDate(t time.Time) bool

	// FinishTime returns the time-of-day at which work ends on the date
	// containing t, as an offset from midnight. Zero on non-working dates.
	FinishTime(t time.Time) time.Duration

	// Work returns the working time in [start, finish).
	Work(start, finish time.Time, unit Unit) Duration

	// DayWork returns the total working time of the date containing t.
	DayWork(t time.Time, unit Unit) Duration

	// NextWorkStart returns t if it lies in a working period, otherwise the
	// start of the next working period after t.
	NextWorkStart(t time.Time) time.Time
}
