// Package store provides in-memory store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/timephased-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	assignments map[generic.AssignmentID]generic.Assignment
	normalized  map[generic.AssignmentID][]generic.Segment
	calendars   map[generic.CalendarID]generic.Calendar
}

func NewMemory() *Memory {
	return &Memory{
		assignments: make(map[generic.AssignmentID]generic.Assignment),
		normalized:  make(map[generic.AssignmentID][]generic.Segment),
		calendars:   make(map[generic.CalendarID]generic.Calendar),
	}
}

// PutCalendar registers a calendar under id.
func (m *Memory) PutCalendar(id generic.CalendarID, cal generic.Calendar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendars[id] = cal
}

func (m *Memory) LoadCalendar(_ context.Context, id generic.CalendarID) (generic.Calendar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cal, ok := m.calendars[id]
	if !ok {
		return nil, generic.ErrCalendarNotFound
	}
	return cal, nil
}

func (m *Memory) SaveAssignment(_ context.Context, a generic.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.Segments = copySegments(a.Segments)
	m.assignments[a.ID] = a
	delete(m.normalized, a.ID)
	return nil
}

func (m *Memory) GetAssignment(_ context.Context, id generic.AssignmentID) (*generic.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.assignments[id]
	if !ok {
		return nil, generic.ErrAssignmentNotFound
	}
	a.Segments = copySegments(a.Segments)
	return &a, nil
}

func (m *Memory) ListAssignments(_ context.Context) ([]generic.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]generic.Assignment, 0, len(m.assignments))
	for _, a := range m.assignments {
		a.Segments = copySegments(a.Segments)
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) DeleteAssignment(_ context.Context, id generic.AssignmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assignments[id]; !ok {
		return generic.ErrAssignmentNotFound
	}
	delete(m.assignments, id)
	delete(m.normalized, id)
	return nil
}

func (m *Memory) SaveNormalized(_ context.Context, id generic.AssignmentID, segments []generic.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.assignments[id]; !ok {
		return generic.ErrAssignmentNotFound
	}
	m.normalized[id] = copySegments(segments)
	return nil
}

func (m *Memory) GetNormalized(_ context.Context, id generic.AssignmentID) ([]generic.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.assignments[id]; !ok {
		return nil, generic.ErrAssignmentNotFound
	}
	return copySegments(m.normalized[id]), nil
}

func copySegments(segments []generic.Segment) []generic.Segment {
	if segments == nil {
		return nil
	}
	result := make([]generic.Segment, len(segments))
	copy(result, segments)
	return result
}
