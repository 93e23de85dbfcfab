package timephased

import (
	"github.com/warp/timephased-engine/generic"
)

// =============================================================================
// SAME-DAY MERGER - At most one segment per calendar day
// =============================================================================

// MergeSameDay collapses calendar-adjacent segments that start on the same
// day and drops segments carrying neither calendar working time nor work.
// Every retained segment gets WorkPerDay = TotalWork. The input slice is not
// modified.
func MergeSameDay(cal generic.Calendar, segments []generic.Segment) []generic.Segment {
	out := make([]generic.Segment, 0, len(segments))

	for _, seg := range segments {
		merged := false

		if len(out) > 0 {
			prev := out[len(out)-1]
			if generic.SameDay(prev.Start, seg.Start) {
				if !prev.TotalWork.IsZero() && seg.TotalWork.IsZero() {
					continue
				}

				if prev.Finish.Equal(seg.Start) || cal.NextWorkStart(prev.Finish).Equal(seg.Start) {
					switch {
					case !prev.TotalWork.IsZero() && !seg.TotalWork.IsZero():
						seg = generic.Segment{
							Start:     prev.Start,
							Finish:    seg.Finish,
							TotalWork: prev.TotalWork.Convert(generic.UnitMinutes).Add(seg.TotalWork),
						}
					case seg.TotalWork.IsZero():
						seg = prev
					}
					merged = true
				}
			}
		}

		seg.WorkPerDay = seg.TotalWork
		degenerate := seg.TotalWork.IsZero() && cal.Work(seg.Start, seg.Finish, generic.UnitMinutes).IsZero()

		switch {
		case merged && degenerate:
			out = out[:len(out)-1]
		case merged:
			out[len(out)-1] = seg
		case !degenerate:
			out = append(out, seg)
		}
	}
	return out
}

// =============================================================================
// SAME-RATE MERGER - Runs of identical daily work
// =============================================================================

// MergeSameRate merges consecutive segments whose daily work matches the
// running rate of the previous retained segment within EqualityDelta. The
// merged segment spans the run, sums TotalWork, and keeps the run's rate.
func MergeSameRate(segments []generic.Segment) []generic.Segment {
	out := make([]generic.Segment, 0, len(segments))

	for _, seg := range segments {
		if len(out) > 0 {
			prev := out[len(out)-1]
			if prev.WorkPerDay.ApproxEqual(seg.TotalWork, generic.EqualityDelta) {
				out[len(out)-1] = generic.Segment{
					Start:      prev.Start,
					Finish:     seg.Finish,
					TotalWork:  prev.TotalWork.Convert(generic.UnitMinutes).Add(seg.TotalWork),
					WorkPerDay: seg.TotalWork.Convert(generic.UnitMinutes),
				}
				continue
			}
		}
		seg.WorkPerDay = seg.TotalWork
		out = append(out, seg)
	}
	return out
}

// =============================================================================
// UNIT CONVERTER
// =============================================================================

// ConvertUnits rewrites TotalWork and WorkPerDay of every segment into unit.
// An unknown unit leaves the values as they are.
func ConvertUnits(segments []generic.Segment, unit generic.Unit) []generic.Segment {
	out := make([]generic.Segment, len(segments))
	for i, seg := range segments {
		seg.TotalWork = seg.TotalWork.Convert(unit)
		seg.WorkPerDay = seg.WorkPerDay.Convert(unit)
		out[i] = seg
	}
	return out
}
