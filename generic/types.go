/*
Package generic provides the core types shared by the timephased engine.

PURPOSE:
  This package contains the calendar-agnostic vocabulary used by every other
  package: work durations, timephased segments, assignments, and the query
  surface a project calendar must offer. Normalization algorithms live in the
  timephased package; concrete calendars live in the calendar package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Duration: A work quantity with a unit (e.g., 480 minutes, 8 hours)
  - Segment: A span of time with the work recorded inside it
  - Assignment: The raw timephased data of one resource assignment

DESIGN PRINCIPLES:
  1. Minutes are the canonical internal unit
  2. Precision: Uses decimal.Decimal so pro-ration does not drift
  3. Comparisons always happen on normalized minute values
  4. Segments are plain values, copied freely between pipeline stages

USAGE:
  work := generic.NewDuration(480, generic.UnitMinutes)
  seg := generic.Segment{
      Start:      monday8am,
      Finish:     monday4pm,
      TotalWork:  work,
      WorkPerDay: work,
  }

SEE ALSO:
  - time.go: Day arithmetic and the Calendar interface
  - errors.go: Validation errors for segment lists
  - timephased/normalizer.go: The pipeline operating on segments
*/
package generic

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DURATION - Work quantity with unit
// =============================================================================

type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
)

// CanonicalDayMinutes is the length of the nominal working day that daily
// work rates are expressed against.
const CanonicalDayMinutes = 480

// EqualityDelta is the tolerance, in minutes, under which two work values
// are treated as equal.
var EqualityDelta = decimal.NewFromFloat(0.1)

var minutesPerUnit = map[Unit]decimal.Decimal{
	UnitMinutes: decimal.NewFromInt(1),
	UnitHours:   decimal.NewFromInt(60),
	UnitDays:    decimal.NewFromInt(CanonicalDayMinutes),
}

// ParseUnit maps a unit name to a Unit.
func ParseUnit(s string) (Unit, error) {
	u := Unit(s)
	if _, ok := minutesPerUnit[u]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
	return u, nil
}

// Valid reports whether the unit is one the engine knows how to convert.
func (u Unit) Valid() bool {
	_, ok := minutesPerUnit[u]
	return ok
}

type Duration struct {
	Value decimal.Decimal
	Unit  Unit
}

func NewDuration(value float64, unit Unit) Duration {
	return Duration{Value: decimal.NewFromFloat(value), Unit: unit}
}

func Minutes(value float64) Duration { return NewDuration(value, UnitMinutes) }
func Hours(value float64) Duration   { return NewDuration(value, UnitHours) }

// ZeroMinutes is a zero duration in the canonical unit.
func ZeroMinutes() Duration { return Duration{Value: decimal.Zero, Unit: UnitMinutes} }

func (d Duration) unit() Unit {
	if d.Unit == "" {
		return UnitMinutes
	}
	return d.Unit
}

// Minutes returns the magnitude of d expressed in minutes.
func (d Duration) Minutes() decimal.Decimal {
	return d.Value.Mul(minutesPerUnit[d.unit()])
}

// Convert returns d expressed in unit u. When either unit is unknown, d is
// returned unchanged.
func (d Duration) Convert(u Unit) Duration {
	if u == "" {
		u = UnitMinutes
	}
	if !u.Valid() || !d.unit().Valid() {
		return d
	}
	if d.unit() == u {
		return Duration{Value: d.Value, Unit: u}
	}
	return Duration{Value: d.Minutes().Div(minutesPerUnit[u]), Unit: u}
}

func (d Duration) Zero() Duration                { return Duration{Value: decimal.Zero, Unit: d.unit()} }
func (d Duration) Add(b Duration) Duration       { return Duration{Value: d.Value.Add(b.Convert(d.unit()).Value), Unit: d.unit()} }
func (d Duration) Sub(b Duration) Duration       { return Duration{Value: d.Value.Sub(b.Convert(d.unit()).Value), Unit: d.unit()} }
func (d Duration) Mul(s decimal.Decimal) Duration { return Duration{Value: d.Value.Mul(s), Unit: d.unit()} }
func (d Duration) Div(s decimal.Decimal) Duration { return Duration{Value: d.Value.Div(s), Unit: d.unit()} }
func (d Duration) IsZero() bool                  { return d.Value.IsZero() }
func (d Duration) IsNegative() bool              { return d.Value.IsNegative() }
func (d Duration) IsPositive() bool              { return d.Value.IsPositive() }
func (d Duration) Compare(b Duration) int        { return d.Minutes().Cmp(b.Minutes()) }
func (d Duration) Equal(b Duration) bool         { return d.Compare(b) == 0 }
func (d Duration) GreaterThan(b Duration) bool   { return d.Compare(b) > 0 }
func (d Duration) LessThan(b Duration) bool      { return d.Compare(b) < 0 }

// ApproxEqual reports whether d and b differ by no more than tolerance minutes.
func (d Duration) ApproxEqual(b Duration, tolerance decimal.Decimal) bool {
	return d.Minutes().Sub(b.Minutes()).Abs().LessThanOrEqual(tolerance)
}

// Float returns the magnitude in the duration's own unit.
func (d Duration) Float() float64 {
	f, _ := d.Value.Float64()
	return f
}

func (d Duration) String() string {
	return d.Value.StringFixed(2) + " " + string(d.unit())
}

// =============================================================================
// SEGMENT - Work recorded over a span of time
// =============================================================================

// Segment is one entry of an assignment's timephased data: TotalWork was
// performed within [Start, Finish). WorkPerDay is the rate for one full
// working day and is the basis for pro-ration.
type Segment struct {
	Start      time.Time
	Finish     time.Time
	TotalWork  Duration
	WorkPerDay Duration
}

// Span returns the time range covered by the segment.
func (s Segment) Span() Span { return Span{Start: s.Start, Finish: s.Finish} }

func (s Segment) String() string {
	return fmt.Sprintf("[%s -> %s] work=%s perDay=%s",
		s.Start.Format("2006-01-02 15:04"), s.Finish.Format("2006-01-02 15:04"),
		s.TotalWork, s.WorkPerDay)
}

// TotalWork sums the recorded work of a segment list in minutes.
func TotalWork(segments []Segment) Duration {
	total := ZeroMinutes()
	for _, s := range segments {
		total = total.Add(s.TotalWork)
	}
	return total
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type CalendarID string
type AssignmentID string

// =============================================================================
// ASSIGNMENT - Raw timephased data of one resource assignment
// =============================================================================

type Assignment struct {
	ID         AssignmentID
	CalendarID CalendarID
	Name       string
	Segments   []Segment
	CreatedAt  time.Time
}
