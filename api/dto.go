/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

  The same types carry yaml tags; the tpnorm CLI reads calendar and segment
  files with them.

NAMING CONVENTION:
  - *DTO: Data carried in both directions
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

FORMATS:
  Timestamps: RFC3339 ("2025-03-10T08:00:00Z")
  Dates:      "2006-01-02"
  Shifts:     "HH:MM-HH:MM" ("08:00-12:00", "22:00-24:00")
  Weekdays:   "monday" or "mon", case-insensitive
  Durations:  {"value": 480, "unit": "minutes"}

SEE ALSO:
  - handlers.go: Uses these types
  - cmd/tpnorm: Reads them from YAML
*/
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/timephased-engine/calendar"
	"github.com/warp/timephased-engine/generic"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// DurationDTO is a work quantity.
type DurationDTO struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  string  `json:"unit" yaml:"unit"`
}

// SegmentDTO is one timephased entry.
type SegmentDTO struct {
	Start      string      `json:"start" yaml:"start"`
	Finish     string      `json:"finish" yaml:"finish"`
	TotalWork  DurationDTO `json:"total_work" yaml:"total_work"`
	WorkPerDay DurationDTO `json:"work_per_day" yaml:"work_per_day"`
}

// ExceptionDTO is a holiday or alternate working day.
type ExceptionDTO struct {
	ID        string   `json:"id,omitempty" yaml:"id,omitempty"`
	Date      string   `json:"date" yaml:"date"`
	Name      string   `json:"name" yaml:"name"`
	Recurring bool     `json:"recurring" yaml:"recurring"`
	Shifts    []string `json:"shifts,omitempty" yaml:"shifts,omitempty"`
}

// CalendarDTO is a project calendar.
type CalendarDTO struct {
	ID         string              `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string              `json:"name" yaml:"name"`
	Week       map[string][]string `json:"week" yaml:"week"`
	Exceptions []ExceptionDTO      `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
}

// AssignmentDTO is an assignment with its raw segments.
type AssignmentDTO struct {
	ID         string       `json:"id"`
	CalendarID string       `json:"calendar_id"`
	Name       string       `json:"name"`
	CreatedAt  string       `json:"created_at,omitempty"`
	Segments   []SegmentDTO `json:"segments"`
}

// CreateAssignmentRequest is the request to store raw timephased data.
type CreateAssignmentRequest struct {
	ID         string       `json:"id,omitempty"`
	CalendarID string       `json:"calendar_id"`
	Name       string       `json:"name"`
	Segments   []SegmentDTO `json:"segments"`
}

// NormalizeRequest is the stateless normalization request.
type NormalizeRequest struct {
	Calendar   CalendarDTO  `json:"calendar"`
	Segments   []SegmentDTO `json:"segments"`
	DayMinutes int          `json:"day_minutes,omitempty"`
	OutputUnit string       `json:"output_unit,omitempty"`
	Stage      string       `json:"stage,omitempty"`
}

// NormalizeResponse carries normalized segments.
type NormalizeResponse struct {
	Segments  []SegmentDTO `json:"segments"`
	Count     int          `json:"count"`
	TotalWork DurationDTO  `json:"total_work"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func ToDurationDTO(d generic.Duration) DurationDTO {
	unit := d.Unit
	if unit == "" {
		unit = generic.UnitMinutes
	}
	return DurationDTO{Value: d.Float(), Unit: string(unit)}
}

func (d DurationDTO) ToDuration() (generic.Duration, error) {
	if d.Unit == "" {
		return generic.NewDuration(d.Value, generic.UnitMinutes), nil
	}
	unit, err := generic.ParseUnit(d.Unit)
	if err != nil {
		return generic.Duration{}, err
	}
	return generic.NewDuration(d.Value, unit), nil
}

func ToSegmentDTO(s generic.Segment) SegmentDTO {
	return SegmentDTO{
		Start:      s.Start.Format(time.RFC3339),
		Finish:     s.Finish.Format(time.RFC3339),
		TotalWork:  ToDurationDTO(s.TotalWork),
		WorkPerDay: ToDurationDTO(s.WorkPerDay),
	}
}

func ToSegmentDTOs(segments []generic.Segment) []SegmentDTO {
	dtos := make([]SegmentDTO, len(segments))
	for i, s := range segments {
		dtos[i] = ToSegmentDTO(s)
	}
	return dtos
}

func (s SegmentDTO) ToSegment() (generic.Segment, error) {
	var seg generic.Segment
	var err error
	if seg.Start, err = time.Parse(time.RFC3339, s.Start); err != nil {
		return seg, fmt.Errorf("invalid start %q: %w", s.Start, err)
	}
	if seg.Finish, err = time.Parse(time.RFC3339, s.Finish); err != nil {
		return seg, fmt.Errorf("invalid finish %q: %w", s.Finish, err)
	}
	if seg.TotalWork, err = s.TotalWork.ToDuration(); err != nil {
		return seg, err
	}
	if seg.WorkPerDay, err = s.WorkPerDay.ToDuration(); err != nil {
		return seg, err
	}
	return seg, nil
}

// SegmentsFromDTOs converts a list, reporting the index of the first bad entry.
func SegmentsFromDTOs(dtos []SegmentDTO) ([]generic.Segment, error) {
	segments := make([]generic.Segment, 0, len(dtos))
	for i, d := range dtos {
		seg, err := d.ToSegment()
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

var weekdayNames = map[string]time.Weekday{}

func init() {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		weekdayNames[name] = wd
		weekdayNames[name[:3]] = wd
	}
}

func parseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return wd, nil
}

func parseShifts(raw []string) ([]calendar.Shift, error) {
	shifts := make([]calendar.Shift, 0, len(raw))
	for _, r := range raw {
		sh, err := calendar.ParseShift(r)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, sh)
	}
	return shifts, nil
}

func shiftStrings(shifts []calendar.Shift) []string {
	out := make([]string, len(shifts))
	for i, sh := range shifts {
		out[i] = sh.String()
	}
	return out
}

func ToExceptionDTO(e calendar.Exception) ExceptionDTO {
	return ExceptionDTO{
		ID:        e.ID,
		Date:      e.Date.Format("2006-01-02"),
		Name:      e.Name,
		Recurring: e.Recurring,
		Shifts:    shiftStrings(e.Shifts),
	}
}

func (e ExceptionDTO) ToException(calendarID generic.CalendarID) (calendar.Exception, error) {
	date, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return calendar.Exception{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", e.Date, err)
	}
	shifts, err := parseShifts(e.Shifts)
	if err != nil {
		return calendar.Exception{}, err
	}
	return calendar.Exception{
		ID:         e.ID,
		CalendarID: calendarID,
		Date:       date,
		Name:       e.Name,
		Recurring:  e.Recurring,
		Shifts:     shifts,
	}, nil
}

func ToCalendarDTO(cal *calendar.ProjectCalendar) CalendarDTO {
	dto := CalendarDTO{
		ID:         string(cal.ID),
		Name:       cal.Name,
		Week:       make(map[string][]string, len(cal.Week)),
		Exceptions: make([]ExceptionDTO, 0, len(cal.Exceptions)),
	}
	for wd, shifts := range cal.Week {
		dto.Week[strings.ToLower(wd.String())] = shiftStrings(shifts)
	}
	for _, e := range cal.Exceptions {
		dto.Exceptions = append(dto.Exceptions, ToExceptionDTO(e))
	}
	return dto
}

// ToCalendar builds and validates a calendar.
func (c CalendarDTO) ToCalendar() (*calendar.ProjectCalendar, error) {
	cal := &calendar.ProjectCalendar{
		ID:   generic.CalendarID(c.ID),
		Name: c.Name,
		Week: make(map[time.Weekday][]calendar.Shift, len(c.Week)),
	}
	for name, raw := range c.Week {
		wd, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		shifts, err := parseShifts(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		cal.Week[wd] = shifts
	}
	for _, e := range c.Exceptions {
		ex, err := e.ToException(cal.ID)
		if err != nil {
			return nil, err
		}
		cal.Exceptions = append(cal.Exceptions, ex)
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return cal, nil
}

func ToAssignmentDTO(a generic.Assignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:         string(a.ID),
		CalendarID: string(a.CalendarID),
		Name:       a.Name,
		Segments:   ToSegmentDTOs(a.Segments),
	}
	if !a.CreatedAt.IsZero() {
		dto.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	return dto
}
