package timephased

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timephased-engine/generic"
)

// =============================================================================
// DAY SPLITTER - One segment per calendar day
// =============================================================================

// splitState is threaded through the splitter one input segment at a time.
// remainderInserted is set when the previous step pushed leftover work into
// the following day; the next input segment then starts one day later so it
// does not re-occupy that slot.
type splitState struct {
	out               []generic.Segment
	remainderInserted bool
}

// SplitDays breaks every segment spanning more than one calendar day into
// one segment per day, pro-rating TotalWork by calendar working time against
// a day of dayMinutes (CanonicalDayMinutes when not positive). The input
// slice is not modified.
func SplitDays(cal generic.Calendar, segments []generic.Segment, dayMinutes int) []generic.Segment {
	if dayMinutes <= 0 {
		dayMinutes = generic.CanonicalDayMinutes
	}
	state := splitState{out: make([]generic.Segment, 0, len(segments))}
	for _, seg := range segments {
		state = splitStep(cal, state, seg, decimal.NewFromInt(int64(dayMinutes)))
	}
	return state.out
}

func splitStep(cal generic.Calendar, state splitState, seg generic.Segment, dayMinutes decimal.Decimal) splitState {
	if state.remainderInserted {
		seg.Start = seg.Start.AddDate(0, 0, 1)
		state.remainderInserted = false
	}

	current := &seg
	for current != nil {
		startDay := generic.DayStart(current.Start)
		finishDay := generic.FinishDay(current.Finish)

		if startDay.Equal(finishDay) {
			attributed := attributedWork(cal, *current, dayMinutes)
			excess := current.TotalWork.Sub(attributed)
			if excess.Minutes().GreaterThan(generic.EqualityDelta) {
				capped := *current
				capped.TotalWork = attributed.Convert(current.TotalWork.Unit)
				remainderStart := finishDay.AddDate(0, 0, 1)
				state.out = append(state.out, capped, generic.Segment{
					Start:      remainderStart,
					Finish:     remainderStart.AddDate(0, 0, 1),
					TotalWork:  excess.Convert(generic.UnitMinutes),
					WorkPerDay: generic.ZeroMinutes(),
				})
				state.remainderInserted = true
			} else {
				state.out = append(state.out, *current)
			}
			break
		}

		first, rest := splitFirstDay(cal, *current, dayMinutes)
		if first != nil {
			state.out = append(state.out, *first)
		}
		current = rest
	}
	return state
}

// splitFirstDay splits the first calendar day off a multi-day segment. Either
// piece may be nil: the first when the segment starts on a non-working date,
// the rest when no working time remains before the finish, both when the
// segment covers no working time at all.
func splitFirstDay(cal generic.Calendar, seg generic.Segment, dayMinutes decimal.Decimal) (*generic.Segment, *generic.Segment) {
	calendarWork := cal.Work(seg.Start, seg.Finish, generic.UnitMinutes)
	if calendarWork.IsZero() {
		return nil, nil
	}

	var first *generic.Segment
	splitFinish := seg.Start
	splitWork := generic.ZeroMinutes()

	if cal.IsWorkingDate(seg.Start) {
		splitFinish = dayFinish(cal, seg.Start)

		calendarSplitWork := cal.Work(seg.Start, splitFinish, generic.UnitMinutes)
		calendarDayWork := cal.DayWork(seg.Start, generic.UnitMinutes)
		if calendarSplitWork.Equal(calendarDayWork) && calendarSplitWork.Equal(seg.WorkPerDay) {
			splitWork = seg.WorkPerDay.Convert(generic.UnitMinutes)
		} else {
			splitWork = prorate(seg.WorkPerDay, calendarSplitWork, dayMinutes)
		}

		first = &generic.Segment{
			Start:      seg.Start,
			Finish:     splitFinish,
			TotalWork:  splitWork,
			WorkPerDay: seg.WorkPerDay,
		}
	}

	restStart := cal.NextWorkStart(splitFinish)
	if restStart.After(seg.Finish) || !restStart.After(seg.Start) {
		return first, nil
	}
	return first, &generic.Segment{
		Start:      restStart,
		Finish:     seg.Finish,
		TotalWork:  seg.TotalWork.Convert(generic.UnitMinutes).Sub(splitWork),
		WorkPerDay: seg.WorkPerDay,
	}
}

// attributedWork is the share of a same-day segment's WorkPerDay that the
// calendar allows between its start and the end of that working day.
func attributedWork(cal generic.Calendar, seg generic.Segment, dayMinutes decimal.Decimal) generic.Duration {
	calendarSplitWork := cal.Work(seg.Start, dayFinish(cal, seg.Start), generic.UnitMinutes)
	return prorate(seg.WorkPerDay, calendarSplitWork, dayMinutes)
}

// prorate scales a daily rate by calendar minutes over a fixed-length day.
func prorate(workPerDay, calendarWork generic.Duration, dayMinutes decimal.Decimal) generic.Duration {
	minutes := workPerDay.Minutes().Mul(calendarWork.Minutes()).Div(dayMinutes)
	return generic.Duration{Value: minutes, Unit: generic.UnitMinutes}
}

// dayFinish is the end of the working day containing t, never before t.
func dayFinish(cal generic.Calendar, t time.Time) time.Time {
	finish := generic.AtClock(t, cal.FinishTime(t))
	if finish.Before(t) {
		return t
	}
	return finish
}
