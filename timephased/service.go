package timephased

import (
	"context"
	"fmt"

	"github.com/warp/timephased-engine/generic"
)

// =============================================================================
// SERVICE - Store-backed normalization
// =============================================================================

// Service normalizes stored assignments against stored calendars.
type Service struct {
	Assignments generic.AssignmentStore
	Calendars   generic.CalendarStore
	Normalizer  *Normalizer
}

func NewService(assignments generic.AssignmentStore, calendars generic.CalendarStore, n *Normalizer) *Service {
	if n == nil {
		n = NewNormalizer()
	}
	return &Service{Assignments: assignments, Calendars: calendars, Normalizer: n}
}

// Normalize loads the raw segments of an assignment, normalizes them against
// the assignment's calendar, stores the result and returns it.
func (s *Service) Normalize(ctx context.Context, id generic.AssignmentID) ([]generic.Segment, error) {
	a, err := s.Assignments.GetAssignment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load assignment %s: %w", id, err)
	}

	cal, err := s.Calendars.LoadCalendar(ctx, a.CalendarID)
	if err != nil {
		return nil, fmt.Errorf("load calendar %s: %w", a.CalendarID, err)
	}

	normalized, err := s.Preview(cal, a.Segments)
	if err != nil {
		return nil, fmt.Errorf("assignment %s: %w", id, err)
	}

	if err := s.Assignments.SaveNormalized(ctx, id, normalized); err != nil {
		return nil, fmt.Errorf("save normalized %s: %w", id, err)
	}
	return normalized, nil
}

// Preview validates and normalizes segments without touching the stores.
func (s *Service) Preview(cal generic.Calendar, segments []generic.Segment) ([]generic.Segment, error) {
	if err := generic.ValidateSegments(segments); err != nil {
		return nil, err
	}
	return s.Normalizer.Normalize(cal, segments), nil
}
