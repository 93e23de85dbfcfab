package calendar_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timephased-engine/calendar"
	"github.com/warp/timephased-engine/generic"
)

// March 10, 2025 is a Monday.
func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

func workMinutes(t *testing.T, cal *calendar.ProjectCalendar, start, finish time.Time) float64 {
	t.Helper()
	return cal.Work(start, finish, generic.UnitMinutes).Float()
}

// =============================================================================
// SHIFTS
// =============================================================================

func TestParseShift(t *testing.T) {
	tests := []struct {
		in      string
		want    calendar.Shift
		wantErr bool
	}{
		{"08:00-12:00", calendar.NewShift(8, 0, 12, 0), false},
		{"13:30-17:45", calendar.NewShift(13, 30, 17, 45), false},
		{"22:00-24:00", calendar.NewShift(22, 0, 24, 0), false},
		{"12:00-08:00", calendar.Shift{}, true},
		{"08:00-25:00", calendar.Shift{}, true},
		{"eight to noon", calendar.Shift{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := calendar.ParseShift(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, generic.ErrInvalidShift)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestValidate_SortsAndRejectsOverlaps(t *testing.T) {
	// GIVEN: Shifts listed out of order
	// WHEN: Validating
	// THEN: They are sorted in place

	cal := calendar.NewWeekdays("c", "C", calendar.NewShift(13, 0, 17, 0), calendar.NewShift(8, 0, 12, 0))
	require.NoError(t, cal.Validate())
	assert.Equal(t, 8*time.Hour, cal.Week[time.Monday][0].From)

	// GIVEN: Overlapping shifts
	// THEN: Validation fails
	bad := calendar.NewWeekdays("c", "C", calendar.NewShift(8, 0, 12, 0), calendar.NewShift(11, 0, 15, 0))
	assert.ErrorIs(t, bad.Validate(), generic.ErrInvalidShift)
}

func TestValidate_ExceptionShifts(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	cal.Exceptions = []calendar.Exception{{
		Date:   at(15, 0, 0),
		Shifts: []calendar.Shift{{From: 10 * time.Hour, To: 9 * time.Hour}},
	}}

	assert.ErrorIs(t, cal.Validate(), generic.ErrInvalidShift)
}

// =============================================================================
// WORKING TIME
// =============================================================================

func TestStandard_WorkingDays(t *testing.T) {
	cal := calendar.Standard("std", "Standard")

	assert.True(t, cal.IsWorkingDate(at(10, 0, 0)))
	assert.True(t, cal.IsWorkingDate(at(14, 0, 0)))
	assert.False(t, cal.IsWorkingDate(at(15, 12, 0)))
	assert.False(t, cal.IsWorkingDate(at(16, 12, 0)))

	assert.Equal(t, 17*time.Hour, cal.FinishTime(at(10, 0, 0)))
	assert.Equal(t, time.Duration(0), cal.FinishTime(at(15, 0, 0)))

	assert.InDelta(t, 480, cal.DayWork(at(10, 0, 0), generic.UnitMinutes).Float(), 0.0001)
	assert.InDelta(t, 8, cal.DayWork(at(10, 0, 0), generic.UnitHours).Float(), 0.0001)
	assert.True(t, cal.DayWork(at(15, 0, 0), generic.UnitMinutes).IsZero())
}

func TestWork(t *testing.T) {
	cal := calendar.Standard("std", "Standard")

	tests := []struct {
		name   string
		start  time.Time
		finish time.Time
		want   float64
	}{
		{"full day", at(10, 0, 0), at(11, 0, 0), 480},
		{"morning only", at(10, 8, 0), at(10, 12, 0), 240},
		{"across lunch", at(10, 10, 0), at(10, 14, 0), 180},
		{"inside lunch", at(10, 12, 0), at(10, 13, 0), 0},
		{"week", at(10, 0, 0), at(17, 0, 0), 2400},
		{"weekend", at(15, 0, 0), at(17, 0, 0), 0},
		{"finish before start", at(10, 17, 0), at(10, 8, 0), 0},
		{"partial seconds", at(10, 8, 0), at(10, 8, 0).Add(90 * time.Second), 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, workMinutes(t, cal, tt.start, tt.finish), 0.0001)
		})
	}
}

func TestNextWorkStart(t *testing.T) {
	cal := calendar.Standard("std", "Standard")

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"inside a shift", at(10, 9, 30), at(10, 9, 30)},
		{"at a shift start", at(10, 8, 0), at(10, 8, 0)},
		{"before the day starts", at(10, 6, 0), at(10, 8, 0)},
		{"lunch break", at(10, 12, 0), at(10, 13, 0)},
		{"end of day", at(10, 17, 0), at(11, 8, 0)},
		{"friday evening", at(14, 17, 0), at(17, 8, 0)},
		{"saturday", at(15, 10, 0), at(17, 8, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cal.NextWorkStart(tt.in))
		})
	}
}

func TestNextWorkStart_NoWorkingTime_ReturnsInput(t *testing.T) {
	cal := &calendar.ProjectCalendar{ID: "never", Week: map[time.Weekday][]calendar.Shift{}}

	assert.Equal(t, at(10, 9, 0), cal.NextWorkStart(at(10, 9, 0)))
}

func TestMidnightShift(t *testing.T) {
	// GIVEN: A night calendar working 22:00-24:00 on weekdays
	// THEN: The finish time is 24h and work stops at the next midnight

	cal := calendar.NewWeekdays("night", "Night", calendar.NewShift(22, 0, 24, 0))

	assert.Equal(t, 24*time.Hour, cal.FinishTime(at(10, 0, 0)))
	assert.InDelta(t, 120, workMinutes(t, cal, at(10, 0, 0), at(11, 0, 0)), 0.0001)
	assert.Equal(t, at(10, 22, 0), cal.NextWorkStart(at(10, 12, 0)))
}

// =============================================================================
// EXCEPTIONS
// =============================================================================

func TestExceptions(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	cal.Exceptions = []calendar.Exception{
		calendar.Holiday("h1", at(11, 0, 0), "Company day", false),
		{
			ID:     "sat",
			Date:   at(15, 0, 0),
			Name:   "Release weekend",
			Shifts: []calendar.Shift{calendar.NewShift(9, 0, 13, 0)},
		},
	}
	require.NoError(t, cal.Validate())

	// Holiday on Tuesday
	assert.False(t, cal.IsWorkingDate(at(11, 10, 0)))
	assert.InDelta(t, 0, workMinutes(t, cal, at(11, 0, 0), at(12, 0, 0)), 0.0001)
	assert.Equal(t, at(12, 8, 0), cal.NextWorkStart(at(10, 17, 0)))

	// Working Saturday
	assert.True(t, cal.IsWorkingDate(at(15, 10, 0)))
	assert.Equal(t, 13*time.Hour, cal.FinishTime(at(15, 0, 0)))
	assert.InDelta(t, 240, workMinutes(t, cal, at(15, 0, 0), at(16, 0, 0)), 0.0001)
	assert.Equal(t, at(15, 9, 0), cal.NextWorkStart(at(14, 17, 0)))
}

func TestRecurringException_MatchesEveryYear(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	xmas := time.Date(2020, time.December, 25, 0, 0, 0, 0, time.UTC)
	cal.Exceptions = []calendar.Exception{calendar.Holiday("xmas", xmas, "Christmas", true)}

	// December 25, 2025 is a Thursday.
	assert.False(t, cal.IsWorkingDate(time.Date(2025, time.December, 25, 10, 0, 0, 0, time.UTC)))
	assert.True(t, cal.IsWorkingDate(time.Date(2025, time.December, 24, 10, 0, 0, 0, time.UTC)))
}

func TestExactException_WinsOverRecurring(t *testing.T) {
	cal := calendar.Standard("std", "Standard")
	cal.Exceptions = []calendar.Exception{
		calendar.Holiday("xmas", time.Date(2020, time.December, 25, 0, 0, 0, 0, time.UTC), "Christmas", true),
		{
			ID:     "xmas-2025",
			Date:   time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC),
			Name:   "Year-end push",
			Shifts: []calendar.Shift{calendar.NewShift(10, 0, 14, 0)},
		},
	}

	day := time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)
	assert.True(t, cal.IsWorkingDate(day))
	assert.InDelta(t, 240, cal.DayWork(day, generic.UnitMinutes).Float(), 0.0001)
}

// =============================================================================
// DAYLIGHT SAVING
// =============================================================================

func everyDay(shift calendar.Shift) *calendar.ProjectCalendar {
	week := make(map[time.Weekday][]calendar.Shift)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		week[wd] = []calendar.Shift{shift}
	}
	return &calendar.ProjectCalendar{ID: "daily", Name: "Daily", Week: week}
}

func TestDaylightSaving_ShiftsKeepWallClock(t *testing.T) {
	// GIVEN: A daily 08:00-16:00 calendar in Berlin
	// WHEN: Querying the days the clocks move forward and back
	// THEN: Shifts start and end at 08:00 and 16:00 local time and last 8h

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	cal := everyDay(calendar.NewShift(8, 0, 16, 0))

	for _, day := range []time.Time{
		time.Date(2025, time.March, 30, 0, 0, 0, 0, berlin),
		time.Date(2025, time.October, 26, 0, 0, 0, 0, berlin),
	} {
		t.Run(day.Format("2006-01-02"), func(t *testing.T) {
			eight := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, berlin)
			four := time.Date(day.Year(), day.Month(), day.Day(), 16, 0, 0, 0, berlin)

			assert.InDelta(t, 480, workMinutes(t, cal, eight, four), 0.0001)
			assert.InDelta(t, 480, workMinutes(t, cal, day, generic.NextDay(day)), 0.0001)
			assert.Equal(t, eight, cal.NextWorkStart(time.Date(day.Year(), day.Month(), day.Day(), 7, 0, 0, 0, berlin)))
			assert.Equal(t, 16*time.Hour, cal.FinishTime(day))
			assert.Equal(t, four, generic.AtClock(day, cal.FinishTime(day)))
		})
	}
}
