/*
store.go - Persistence interfaces for assignments and calendars

PURPOSE:
  Defines the interface between the normalization service and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  AssignmentStore: Raw and normalized timephased data per assignment
  CalendarStore:   Calendar lookup for the normalizer

RAW VS NORMALIZED:
  An assignment keeps the segment list it was created with untouched.
  Normalization output is stored separately and replaced wholesale on each
  run, so normalizing twice never compounds.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - timephased/service.go: Uses both interfaces
*/
package generic

import "context"

// =============================================================================
// ASSIGNMENT STORE
// =============================================================================

type AssignmentStore interface {
	// SaveAssignment creates or replaces an assignment and its raw segments.
	SaveAssignment(ctx context.Context, a Assignment) error

	// GetAssignment returns ErrAssignmentNotFound when id is unknown.
	GetAssignment(ctx context.Context, id AssignmentID) (*Assignment, error)

	ListAssignments(ctx context.Context) ([]Assignment, error)

	DeleteAssignment(ctx context.Context, id AssignmentID) error

	// SaveNormalized replaces the normalized segments of an assignment.
	SaveNormalized(ctx context.Context, id AssignmentID, segments []Segment) error

	// GetNormalized returns the last normalized segments, nil if never run.
	GetNormalized(ctx context.Context, id AssignmentID) ([]Segment, error)
}

// =============================================================================
// CALENDAR STORE
// =============================================================================

type CalendarStore interface {
	// LoadCalendar returns ErrCalendarNotFound when id is unknown.
	LoadCalendar(ctx context.Context, id CalendarID) (Calendar, error)
}
