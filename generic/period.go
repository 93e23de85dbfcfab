package generic

import "time"

// =============================================================================
// SPAN - Half-open time range [Start, Finish)
// =============================================================================

type Span struct {
	Start  time.Time
	Finish time.Time
}

// Contains returns true if t is within [Start, Finish).
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.Finish)
}

// Empty reports whether the span covers no time at all.
func (s Span) Empty() bool {
	return !s.Finish.After(s.Start)
}

// Overlap returns the intersection of two spans. The result is Empty when
// they do not intersect.
func (s Span) Overlap(o Span) Span {
	start := s.Start
	if o.Start.After(start) {
		start = o.Start
	}
	finish := s.Finish
	if o.Finish.Before(finish) {
		finish = o.Finish
	}
	if finish.Before(start) {
		finish = start
	}
	return Span{Start: start, Finish: finish}
}

// Days returns midnight of every calendar day the span touches. A finish at
// midnight does not add the following day.
func (s Span) Days() []time.Time {
	if s.Empty() {
		return []time.Time{DayStart(s.Start)}
	}
	var days []time.Time
	last := FinishDay(s.Finish)
	for current := DayStart(s.Start); !current.After(last); current = current.AddDate(0, 0, 1) {
		days = append(days, current)
	}
	return days
}

// String returns a string representation of the span.
func (s Span) String() string {
	return "[" + s.Start.Format(time.RFC3339) + ", " + s.Finish.Format(time.RFC3339) + ")"
}
