package timephased

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/timephased-engine/calendar"
	"github.com/warp/timephased-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// March 10, 2025 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

func minutes(v float64) generic.Duration {
	return generic.Minutes(v)
}

func seg(start, finish time.Time, total, perDay float64) generic.Segment {
	return generic.Segment{
		Start:      start,
		Finish:     finish,
		TotalWork:  minutes(total),
		WorkPerDay: minutes(perDay),
	}
}

// eightToFour is Mon-Fri 08:00-16:00, exactly one canonical day.
func eightToFour() *calendar.ProjectCalendar {
	return calendar.NewWeekdays("8-16", "Eight to four", calendar.NewShift(8, 0, 16, 0))
}

// dailyEightToFour works 08:00-16:00 on every day of the week.
func dailyEightToFour() *calendar.ProjectCalendar {
	cal := eightToFour()
	cal.Week[time.Saturday] = []calendar.Shift{calendar.NewShift(8, 0, 16, 0)}
	cal.Week[time.Sunday] = []calendar.Shift{calendar.NewShift(8, 0, 16, 0)}
	return cal
}

// standard is Mon-Fri 08:00-12:00, 13:00-17:00.
func standard() *calendar.ProjectCalendar {
	return calendar.Standard("std", "Standard")
}

func assertMinutes(t *testing.T, want float64, got generic.Duration, msgAndArgs ...any) {
	t.Helper()
	assert.InDelta(t, want, got.Convert(generic.UnitMinutes).Float(), 0.001, msgAndArgs...)
}

func sumMinutes(segments []generic.Segment) float64 {
	return generic.TotalWork(segments).Float()
}

// panicCalendar fails any test that consults it.
type panicCalendar struct {
	generic.Calendar
}
