/*
Package calendar provides a concrete project calendar.

PURPOSE:
  Implements generic.Calendar from a weekly pattern of working shifts plus
  dated exceptions. This is the authority the normalizer consults for
  "how much work happens between two timestamps".

KEY CONCEPTS:
  Shift:
    A working period within a day, as offsets from midnight. A day may have
    several shifts (e.g., 08:00-12:00 and 13:00-17:00).

  Exception:
    Overrides the weekly pattern for one date. No shifts means the date is
    a holiday; shifts mean alternate hours. Recurring exceptions repeat on
    the same month/day every year.

LOOKUP ORDER:
  1. Exception for the exact date (non-recurring first)
  2. Recurring exception for the month/day
  3. Weekly pattern for the weekday

EXAMPLE:
  cal := calendar.Standard("std", "Standard")
  cal.Exceptions = append(cal.Exceptions, calendar.Holiday("xmas", time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC), "Christmas", true))
  work := cal.Work(start, finish, generic.UnitMinutes)

SEE ALSO:
  - generic/time.go: The Calendar interface
  - store/sqlite/sqlite.go: Calendar persistence
*/
package calendar

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/timephased-engine/generic"
)

// MaxLookaheadDays bounds the NextWorkStart search.
const MaxLookaheadDays = 5 * 366

// =============================================================================
// SHIFT
// =============================================================================

type Shift struct {
	From time.Duration
	To   time.Duration
}

// NewShift builds a shift from wall-clock hours and minutes.
func NewShift(fromHour, fromMinute, toHour, toMinute int) Shift {
	return Shift{
		From: time.Duration(fromHour)*time.Hour + time.Duration(fromMinute)*time.Minute,
		To:   time.Duration(toHour)*time.Hour + time.Duration(toMinute)*time.Minute,
	}
}

// ParseShift parses "HH:MM-HH:MM". "24:00" is accepted as an end time.
func ParseShift(s string) (Shift, error) {
	var fh, fm, th, tm int
	if _, err := fmt.Sscanf(s, "%d:%d-%d:%d", &fh, &fm, &th, &tm); err != nil {
		return Shift{}, fmt.Errorf("%w: %q", generic.ErrInvalidShift, s)
	}
	shift := NewShift(fh, fm, th, tm)
	if err := shift.validate(); err != nil {
		return Shift{}, err
	}
	return shift, nil
}

func (s Shift) Duration() time.Duration { return s.To - s.From }

func (s Shift) String() string {
	return formatClock(s.From) + "-" + formatClock(s.To)
}

func (s Shift) validate() error {
	if s.From < 0 || s.To > 24*time.Hour || s.From >= s.To {
		return fmt.Errorf("%w: %s", generic.ErrInvalidShift, s)
	}
	return nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

// =============================================================================
// EXCEPTION
// =============================================================================

type Exception struct {
	ID         string
	CalendarID generic.CalendarID
	Date       time.Time
	Name       string
	Recurring  bool
	Shifts     []Shift
}

// Holiday builds a non-working exception.
func Holiday(id string, date time.Time, name string, recurring bool) Exception {
	return Exception{ID: id, Date: generic.DayStart(date), Name: name, Recurring: recurring}
}

// Matches reports whether the exception applies to the date containing t.
func (e Exception) Matches(t time.Time) bool {
	if e.Recurring {
		return e.Date.Month() == t.Month() && e.Date.Day() == t.Day()
	}
	return e.Date.Year() == t.Year() && e.Date.Month() == t.Month() && e.Date.Day() == t.Day()
}

// =============================================================================
// PROJECT CALENDAR
// =============================================================================

type ProjectCalendar struct {
	ID         generic.CalendarID
	Name       string
	Week       map[time.Weekday][]Shift
	Exceptions []Exception
}

var _ generic.Calendar = (*ProjectCalendar)(nil)

// NewWeekdays returns a Monday-Friday calendar working the given shifts.
func NewWeekdays(id generic.CalendarID, name string, shifts ...Shift) *ProjectCalendar {
	week := make(map[time.Weekday][]Shift)
	for wd := time.Monday; wd <= time.Friday; wd++ {
		week[wd] = append([]Shift(nil), shifts...)
	}
	return &ProjectCalendar{ID: id, Name: name, Week: week}
}

// Standard returns the conventional 08:00-12:00, 13:00-17:00 weekday calendar.
func Standard(id generic.CalendarID, name string) *ProjectCalendar {
	return NewWeekdays(id, name, NewShift(8, 0, 12, 0), NewShift(13, 0, 17, 0))
}

// Validate sorts every shift list and rejects out-of-range or overlapping shifts.
func (c *ProjectCalendar) Validate() error {
	for wd, shifts := range c.Week {
		if err := sortAndCheck(shifts); err != nil {
			return fmt.Errorf("%s: %w", wd, err)
		}
	}
	for _, e := range c.Exceptions {
		if err := sortAndCheck(e.Shifts); err != nil {
			return fmt.Errorf("exception %s: %w", e.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

func sortAndCheck(shifts []Shift) error {
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].From < shifts[j].From })
	for i, s := range shifts {
		if err := s.validate(); err != nil {
			return err
		}
		if i > 0 && s.From < shifts[i-1].To {
			return fmt.Errorf("%w: %s overlaps %s", generic.ErrInvalidShift, s, shifts[i-1])
		}
	}
	return nil
}

// ShiftsFor returns the working shifts of the date containing t, ordered by start.
func (c *ProjectCalendar) ShiftsFor(t time.Time) []Shift {
	var recurring *Exception
	for i := range c.Exceptions {
		e := &c.Exceptions[i]
		if !e.Matches(t) {
			continue
		}
		if !e.Recurring {
			return sorted(e.Shifts)
		}
		if recurring == nil {
			recurring = e
		}
	}
	if recurring != nil {
		return sorted(recurring.Shifts)
	}
	return sorted(c.Week[t.Weekday()])
}

func sorted(shifts []Shift) []Shift {
	if sort.SliceIsSorted(shifts, func(i, j int) bool { return shifts[i].From < shifts[j].From }) {
		return shifts
	}
	out := append([]Shift(nil), shifts...)
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

func (c *ProjectCalendar) IsWorkingDate(t time.Time) bool {
	return len(c.ShiftsFor(t)) > 0
}

func (c *ProjectCalendar) FinishTime(t time.Time) time.Duration {
	shifts := c.ShiftsFor(t)
	if len(shifts) == 0 {
		return 0
	}
	return shifts[len(shifts)-1].To
}

func (c *ProjectCalendar) Work(start, finish time.Time, unit generic.Unit) generic.Duration {
	span := generic.Span{Start: start, Finish: finish}
	var total time.Duration
	if !span.Empty() {
		for _, day := range span.Days() {
			for _, s := range c.ShiftsFor(day) {
				shift := generic.Span{Start: generic.AtClock(day, s.From), Finish: generic.AtClock(day, s.To)}
				overlap := span.Overlap(shift)
				total += overlap.Finish.Sub(overlap.Start)
			}
		}
	}
	return toDuration(total, unit)
}

func (c *ProjectCalendar) DayWork(t time.Time, unit generic.Unit) generic.Duration {
	var total time.Duration
	for _, s := range c.ShiftsFor(t) {
		total += s.Duration()
	}
	return toDuration(total, unit)
}

func (c *ProjectCalendar) NextWorkStart(t time.Time) time.Time {
	day := generic.DayStart(t)
	for i := 0; i <= MaxLookaheadDays; i++ {
		d := day.AddDate(0, 0, i)
		for _, s := range c.ShiftsFor(d) {
			from, to := generic.AtClock(d, s.From), generic.AtClock(d, s.To)
			if !t.Before(to) {
				continue
			}
			if t.Before(from) {
				return from
			}
			return t
		}
	}
	return t
}

func toDuration(d time.Duration, unit generic.Unit) generic.Duration {
	minutes := decimal.NewFromInt(int64(d / time.Second)).Div(decimal.NewFromInt(60))
	return generic.Duration{Value: minutes, Unit: generic.UnitMinutes}.Convert(unit)
}
