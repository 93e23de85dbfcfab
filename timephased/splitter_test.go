package timephased

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timephased-engine/generic"
)

var canonicalDay = decimal.NewFromInt(generic.CanonicalDayMinutes)

// =============================================================================
// SCENARIOS
// =============================================================================

func TestSplitDays_MultiDaySegment_OnePerDay(t *testing.T) {
	// GIVEN: Mon 08:00 -> Wed 17:00, 960 minutes at 480/day
	// AND: A calendar working 08:00-16:00
	// WHEN: Splitting into days
	// THEN: Mon and Tue carry a full day, Wed carries what is left (nothing)

	in := []generic.Segment{seg(at(10, 8, 0), at(12, 17, 0), 960, 480)}

	out := SplitDays(eightToFour(), in, generic.CanonicalDayMinutes)

	require.Len(t, out, 3)
	assert.Equal(t, at(10, 8, 0), out[0].Start)
	assert.Equal(t, at(10, 16, 0), out[0].Finish)
	assert.Equal(t, at(11, 8, 0), out[1].Start)
	assert.Equal(t, at(11, 16, 0), out[1].Finish)
	assert.Equal(t, at(12, 8, 0), out[2].Start)
	assert.Equal(t, at(12, 17, 0), out[2].Finish)

	assertMinutes(t, 480, out[0].TotalWork)
	assertMinutes(t, 480, out[1].TotalWork)
	assertMinutes(t, 0, out[2].TotalWork)
	assert.InDelta(t, 960, sumMinutes(out), 0.1)
}

func TestSplitDays_WeekendSegment_Dropped(t *testing.T) {
	// GIVEN: A segment entirely over Saturday and Sunday
	// WHEN: Splitting into days
	// THEN: Nothing is emitted

	in := []generic.Segment{seg(at(15, 8, 0), at(16, 17, 0), 0, 480)}

	out := SplitDays(standard(), in, generic.CanonicalDayMinutes)

	assert.Empty(t, out)
}

func TestSplitDays_SingleDayWithinRate_Unchanged(t *testing.T) {
	// GIVEN: A same-day segment whose work fits the calendar day
	// WHEN: Splitting
	// THEN: It passes through untouched and no remainder is created

	in := []generic.Segment{seg(at(10, 8, 0), at(10, 12, 0), 240, 480)}

	out := SplitDays(standard(), in, generic.CanonicalDayMinutes)

	require.Len(t, out, 1)
	assert.Equal(t, in[0], out[0])
}

func TestSplitDays_StartsOnNonWorkingDay(t *testing.T) {
	// GIVEN: A segment from Saturday 10:00 to Tuesday 17:00
	// WHEN: Splitting
	// THEN: The weekend yields no piece and work lands on Monday and Tuesday

	in := []generic.Segment{seg(at(15, 10, 0), at(18, 17, 0), 960, 480)}

	out := SplitDays(standard(), in, generic.CanonicalDayMinutes)

	require.Len(t, out, 2)
	assert.Equal(t, at(17, 8, 0), out[0].Start)
	assert.Equal(t, at(17, 17, 0), out[0].Finish)
	assertMinutes(t, 480, out[0].TotalWork)
	assert.Equal(t, at(18, 8, 0), out[1].Start)
	assertMinutes(t, 480, out[1].TotalWork)
}

func TestSplitDays_PartialFirstDay_Prorated(t *testing.T) {
	// GIVEN: Mon 10:00 -> Tue 17:00 at 480/day on the standard calendar
	// WHEN: Splitting
	// THEN: Monday gets 360 of its 480 working minutes' worth (10-12, 13-17)

	in := []generic.Segment{seg(at(10, 10, 0), at(11, 17, 0), 840, 480)}

	out := SplitDays(standard(), in, generic.CanonicalDayMinutes)

	require.Len(t, out, 2)
	assertMinutes(t, 360, out[0].TotalWork)
	assert.Equal(t, at(10, 17, 0), out[0].Finish)
	assertMinutes(t, 480, out[1].TotalWork)
	assert.Equal(t, at(11, 8, 0), out[1].Start)
}

func TestSplitDays_DayMinutesBaseline(t *testing.T) {
	// GIVEN: The same partial first day, but rates expressed against a
	// 600-minute day
	// WHEN: Splitting
	// THEN: Monday's share is 480 * 360 / 600

	in := []generic.Segment{seg(at(10, 10, 0), at(11, 17, 0), 840, 480)}

	out := SplitDays(standard(), in, 600)

	require.NotEmpty(t, out)
	assertMinutes(t, 288, out[0].TotalWork)
	assert.InDelta(t, 840, sumMinutes(out), 0.1)
}

func TestSplitDays_NonPositiveDayMinutes_UsesCanonical(t *testing.T) {
	in := []generic.Segment{seg(at(10, 10, 0), at(11, 17, 0), 840, 480)}

	assert.Equal(t,
		SplitDays(standard(), in, generic.CanonicalDayMinutes),
		SplitDays(standard(), in, 0))
}

// =============================================================================
// REMAINDER HANDLING
// =============================================================================

func TestSplitDays_ExcessWork_PushedToNextDay(t *testing.T) {
	// GIVEN: Monday 08:00-17:00 with 600 minutes recorded at 480/day
	// AND: The following segment starting Tuesday
	// WHEN: Splitting
	// THEN: Monday is capped at 480, a 120-minute remainder occupies Tuesday,
	// and the next segment is shifted to Wednesday

	in := []generic.Segment{
		seg(at(10, 8, 0), at(10, 17, 0), 600, 480),
		seg(at(11, 8, 0), at(12, 17, 0), 480, 480),
	}

	out := SplitDays(standard(), in, generic.CanonicalDayMinutes)

	require.Len(t, out, 3)
	assertMinutes(t, 480, out[0].TotalWork)

	remainder := out[1]
	assert.Equal(t, at(11, 0, 0), remainder.Start)
	assert.Equal(t, at(12, 0, 0), remainder.Finish)
	assertMinutes(t, 120, remainder.TotalWork)
	assert.True(t, remainder.WorkPerDay.IsZero())

	assert.Equal(t, at(12, 8, 0), out[2].Start, "next segment starts a day later")
	assert.InDelta(t, 1080, sumMinutes(out), 0.1)
}

func TestSplitDays_ExcessWithinDelta_NoRemainder(t *testing.T) {
	// GIVEN: A day overshooting its rate by less than EqualityDelta
	// WHEN: Splitting
	// THEN: No remainder is inserted

	in := []generic.Segment{seg(at(10, 8, 0), at(10, 17, 0), 480.05, 480)}

	out := SplitDays(standard(), in, generic.CanonicalDayMinutes)

	require.Len(t, out, 1)
	assertMinutes(t, 480.05, out[0].TotalWork)
}

func TestSplitStep_RemainderFlag_ShiftsAndClears(t *testing.T) {
	// GIVEN: State recording that a remainder was just inserted
	// WHEN: Processing the next segment
	// THEN: Its start moves forward one day and the flag is cleared

	state := splitState{remainderInserted: true}
	next := seg(at(11, 8, 0), at(12, 17, 0), 480, 480)

	state = splitStep(standard(), state, next, canonicalDay)

	assert.False(t, state.remainderInserted)
	require.Len(t, state.out, 1)
	assert.Equal(t, at(12, 8, 0), state.out[0].Start)
	assertMinutes(t, 480, state.out[0].TotalWork)
}

// =============================================================================
// FIRST-DAY SPLIT
// =============================================================================

func TestSplitFirstDay_NoCalendarWork_BothNil(t *testing.T) {
	first, rest := splitFirstDay(standard(), seg(at(15, 8, 0), at(16, 17, 0), 480, 480), canonicalDay)

	assert.Nil(t, first)
	assert.Nil(t, rest)
}

func TestSplitFirstDay_FullDayMatchingRate_UsesRateDirectly(t *testing.T) {
	first, rest := splitFirstDay(standard(), seg(at(10, 8, 0), at(11, 17, 0), 960, 480), canonicalDay)

	require.NotNil(t, first)
	require.NotNil(t, rest)
	assert.Equal(t, minutes(480).Value.String(), first.TotalWork.Value.String())
	assert.Equal(t, at(11, 8, 0), rest.Start)
	assertMinutes(t, 480, rest.TotalWork)
}

func TestSplitFirstDay_RemainderStartAfterFinish_NoRest(t *testing.T) {
	// GIVEN: Mon 10:00 -> Tue 07:00; the next working start (Tue 08:00) is
	// after the finish
	// WHEN: Splitting the first day
	// THEN: Only the first-day piece is returned

	first, rest := splitFirstDay(standard(), seg(at(10, 10, 0), at(11, 7, 0), 360, 480), canonicalDay)

	require.NotNil(t, first)
	assert.Nil(t, rest)
	assert.Equal(t, at(10, 17, 0), first.Finish)
	assertMinutes(t, 360, first.TotalWork)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func propertyInputs() map[string][]generic.Segment {
	return map[string][]generic.Segment{
		"week at full rate": {seg(at(10, 8, 0), at(14, 17, 0), 2400, 480)},
		"half-time over a weekend": {
			seg(at(13, 8, 0), at(18, 17, 0), 960, 240),
		},
		"partial first day": {seg(at(10, 10, 0), at(11, 17, 0), 840, 480)},
		"overtime then normal": {
			seg(at(10, 8, 0), at(10, 17, 0), 600, 480),
			seg(at(11, 8, 0), at(13, 17, 0), 960, 480),
		},
		"several same-day fragments": {
			seg(at(10, 8, 0), at(10, 10, 0), 120, 480),
			seg(at(10, 10, 0), at(10, 12, 0), 120, 480),
			seg(at(10, 13, 0), at(10, 17, 0), 240, 480),
			seg(at(11, 8, 0), at(11, 12, 0), 240, 480),
		},
	}
}

func TestSplitDays_ConservesWork(t *testing.T) {
	for name, in := range propertyInputs() {
		t.Run(name, func(t *testing.T) {
			out := SplitDays(standard(), in, generic.CanonicalDayMinutes)

			tolerance := 0.1 * float64(len(out)+1)
			assert.InDelta(t, sumMinutes(in), sumMinutes(out), tolerance)
		})
	}
}

func TestSplitDays_SingleDayConfinement(t *testing.T) {
	for name, in := range propertyInputs() {
		t.Run(name, func(t *testing.T) {
			out := SplitDays(standard(), in, generic.CanonicalDayMinutes)

			for i, s := range out {
				if s.WorkPerDay.IsZero() {
					continue // remainder placeholder
				}
				assert.True(t, generic.DayStart(s.Start).Equal(generic.FinishDay(s.Finish)),
					"segment %d %s spans more than one day", i, s)
			}
		})
	}
}

func TestSplitDays_InputNotModified(t *testing.T) {
	in := []generic.Segment{
		seg(at(10, 8, 0), at(10, 17, 0), 600, 480),
		seg(at(11, 8, 0), at(12, 17, 0), 480, 480),
	}
	before := append([]generic.Segment(nil), in...)

	SplitDays(standard(), in, generic.CanonicalDayMinutes)

	assert.Equal(t, before, in)
}

func TestSplitDays_DaylightSavingDay_NoSpuriousRemainder(t *testing.T) {
	// GIVEN: Two days of work at 480/day over Berlin's spring-forward weekend
	// AND: A calendar working 08:00-16:00 every day
	// WHEN: Splitting into days
	// THEN: Sunday keeps a full 8h day at local 08:00-16:00 and nothing spills over

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	local := func(day, hour int) time.Time {
		return time.Date(2025, time.March, day, hour, 0, 0, 0, berlin)
	}
	in := []generic.Segment{seg(local(29, 8), local(30, 16), 960, 480)}

	out := SplitDays(dailyEightToFour(), in, generic.CanonicalDayMinutes)

	require.Len(t, out, 2)
	assert.Equal(t, local(29, 16), out[0].Finish)
	assert.Equal(t, local(30, 8), out[1].Start)
	assert.Equal(t, local(30, 16), out[1].Finish)
	assertMinutes(t, 480, out[0].TotalWork)
	assertMinutes(t, 480, out[1].TotalWork)
}
