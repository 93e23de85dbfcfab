/*
errors.go - Centralized error types for the timephased engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The normalization stages themselves never fail; these errors come from
  input validation at service and API boundaries, and from the stores.

ERROR CATEGORIES:
  1. Validation errors - Segment lists that break the producer contract
  2. Lookup errors - Missing calendars or assignments
  3. Calendar errors - Malformed shift definitions

USAGE:
  if err := generic.ValidateSegments(segs); err != nil {
      var segErr *generic.SegmentError
      if errors.As(err, &segErr) {
          log.Printf("bad segment %d: %s", segErr.Index, segErr.Reason)
      }
  }

SEE ALSO:
  - timephased/service.go: Validates before normalizing
  - store/sqlite/sqlite.go: Returns the lookup errors
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidSegment is returned when a segment finishes before it starts.
	ErrInvalidSegment = errors.New("invalid segment: finish before start")

	// ErrNegativeWork is returned when a segment records negative work.
	ErrNegativeWork = errors.New("invalid segment: negative work")

	// ErrUnorderedSegments is returned when segments are not ordered by start.
	ErrUnorderedSegments = errors.New("segments not ordered by start")

	// ErrUnknownUnit is returned for a duration unit the engine cannot convert.
	ErrUnknownUnit = errors.New("unknown duration unit")

	// ErrInvalidShift is returned when a calendar shift is out of range or
	// overlaps another shift on the same day.
	ErrInvalidShift = errors.New("invalid calendar shift")

	// ErrCalendarNotFound is returned when a referenced calendar doesn't exist.
	ErrCalendarNotFound = errors.New("calendar not found")

	// ErrAssignmentNotFound is returned when a referenced assignment doesn't exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SegmentError identifies the offending entry of a segment list.
type SegmentError struct {
	Index   int
	Segment Segment
	Reason  error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d %s: %v", e.Index, e.Segment.Span(), e.Reason)
}

func (e *SegmentError) Unwrap() error {
	return e.Reason
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateSegments checks the producer contract of a raw segment list:
// start <= finish, non-negative work, ordered by start.
func ValidateSegments(segments []Segment) error {
	for i, s := range segments {
		if s.Finish.Before(s.Start) {
			return &SegmentError{Index: i, Segment: s, Reason: ErrInvalidSegment}
		}
		if s.TotalWork.IsNegative() || s.WorkPerDay.IsNegative() {
			return &SegmentError{Index: i, Segment: s, Reason: ErrNegativeWork}
		}
		if !validUnit(s.TotalWork.Unit) || !validUnit(s.WorkPerDay.Unit) {
			return &SegmentError{Index: i, Segment: s, Reason: ErrUnknownUnit}
		}
		if i > 0 && s.Start.Before(segments[i-1].Start) {
			return &SegmentError{Index: i, Segment: s, Reason: ErrUnorderedSegments}
		}
	}
	return nil
}

// validUnit accepts the empty unit, which means minutes.
func validUnit(u Unit) bool {
	return u == "" || u.Valid()
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSegment) ||
		errors.Is(err, ErrNegativeWork) ||
		errors.Is(err, ErrUnorderedSegments) ||
		errors.Is(err, ErrUnknownUnit) ||
		errors.Is(err, ErrInvalidShift)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCalendarNotFound) ||
		errors.Is(err, ErrAssignmentNotFound)
}
