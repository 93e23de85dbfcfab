/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists project calendars and assignment timephased data. Implements
  generic.AssignmentStore and generic.CalendarStore.

KEY TABLES:
  calendars:            Calendar header and weekly shift pattern (JSON)
  calendar_exceptions:  Holidays and alternate working days per calendar
  assignments:          Assignment header (calendar reference)
  timephased_segments:  Segment lists, kind = 'raw' | 'normalized'

SEGMENT STORAGE:
  Segments are stored one row each, ordered by seq within (assignment, kind).
  Durations are stored as decimal strings plus unit so no precision is lost
  between normalization runs. Timestamps are RFC3339 with nanoseconds.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to a
  single connection, since each SQLite connection owns its own in-memory
  database.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/timephased.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/timephased-engine/calendar"
	"github.com/warp/timephased-engine/generic"
)

const (
	kindRaw        = "raw"
	kindNormalized = "normalized"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ generic.AssignmentStore = (*Store)(nil)
	_ generic.CalendarStore   = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calendars (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		week_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Holidays (no shifts) and alternate working days (shifts)
	CREATE TABLE IF NOT EXISTS calendar_exceptions (
		id TEXT PRIMARY KEY,
		calendar_id TEXT NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		shifts_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exceptions_calendar_date
		ON calendar_exceptions(calendar_id, date);

	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		calendar_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_calendar
		ON assignments(calendar_id);

	CREATE TABLE IF NOT EXISTS timephased_segments (
		assignment_id TEXT NOT NULL REFERENCES assignments(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		seq INTEGER NOT NULL,
		start TEXT NOT NULL,
		finish TEXT NOT NULL,
		total_work_value TEXT NOT NULL,
		total_work_unit TEXT NOT NULL,
		work_per_day_value TEXT NOT NULL,
		work_per_day_unit TEXT NOT NULL,
		PRIMARY KEY (assignment_id, kind, seq)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset drops all data (for tests and demos).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"timephased_segments", "assignments", "calendar_exceptions", "calendars"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// CALENDARS
// =============================================================================

// weekJSON is the stored form of a weekly pattern: weekday name -> shifts.
type weekJSON map[string][]string

func encodeShifts(shifts []calendar.Shift) []string {
	out := make([]string, len(shifts))
	for i, sh := range shifts {
		out[i] = sh.String()
	}
	return out
}

func decodeShifts(raw []string) ([]calendar.Shift, error) {
	out := make([]calendar.Shift, 0, len(raw))
	for _, r := range raw {
		sh, err := calendar.ParseShift(r)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, nil
}

// SaveCalendar creates or replaces a calendar together with its exceptions.
func (s *Store) SaveCalendar(ctx context.Context, cal *calendar.ProjectCalendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	week := make(weekJSON, len(cal.Week))
	for wd, shifts := range cal.Week {
		week[wd.String()] = encodeShifts(shifts)
	}
	weekData, err := json.Marshal(week)
	if err != nil {
		return fmt.Errorf("encode week: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO calendars (id, name, week_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			week_json = excluded.week_json,
			updated_at = excluded.updated_at
	`, string(cal.ID), cal.Name, string(weekData), now, now)
	if err != nil {
		return fmt.Errorf("save calendar: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM calendar_exceptions WHERE calendar_id = ?", string(cal.ID)); err != nil {
		return fmt.Errorf("clear exceptions: %w", err)
	}
	for _, e := range cal.Exceptions {
		e.CalendarID = cal.ID
		if err := insertException(ctx, tx, e); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertException(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, e calendar.Exception) error {
	shiftsData, err := json.Marshal(encodeShifts(e.Shifts))
	if err != nil {
		return fmt.Errorf("encode shifts: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO calendar_exceptions (id, calendar_id, date, name, recurring, shifts_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			name = excluded.name,
			recurring = excluded.recurring,
			shifts_json = excluded.shifts_json
	`,
		e.ID,
		string(e.CalendarID),
		e.Date.Format("2006-01-02"),
		e.Name,
		e.Recurring,
		string(shiftsData),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save exception %s: %w", e.ID, err)
	}
	return nil
}

// GetCalendar returns generic.ErrCalendarNotFound when id is unknown.
func (s *Store) GetCalendar(ctx context.Context, id generic.CalendarID) (*calendar.ProjectCalendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCalendar(ctx, id)
}

// LoadCalendar implements generic.CalendarStore.
func (s *Store) LoadCalendar(ctx context.Context, id generic.CalendarID) (generic.Calendar, error) {
	cal, err := s.GetCalendar(ctx, id)
	if err != nil {
		return nil, err
	}
	return cal, nil
}

func (s *Store) getCalendar(ctx context.Context, id generic.CalendarID) (*calendar.ProjectCalendar, error) {
	var name, weekData string
	err := s.db.QueryRowContext(ctx,
		"SELECT name, week_json FROM calendars WHERE id = ?", string(id),
	).Scan(&name, &weekData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrCalendarNotFound
	}
	if err != nil {
		return nil, err
	}

	var week weekJSON
	if err := json.Unmarshal([]byte(weekData), &week); err != nil {
		return nil, fmt.Errorf("decode week of %s: %w", id, err)
	}

	cal := &calendar.ProjectCalendar{ID: id, Name: name, Week: make(map[time.Weekday][]calendar.Shift)}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		raw, ok := week[wd.String()]
		if !ok {
			continue
		}
		shifts, err := decodeShifts(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s of %s: %w", wd, id, err)
		}
		cal.Week[wd] = shifts
	}

	exceptions, err := s.listExceptions(ctx, id)
	if err != nil {
		return nil, err
	}
	cal.Exceptions = exceptions
	return cal, nil
}

func (s *Store) listExceptions(ctx context.Context, id generic.CalendarID) ([]calendar.Exception, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, recurring, shifts_json
		FROM calendar_exceptions
		WHERE calendar_id = ?
		ORDER BY date ASC, id ASC
	`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exceptions []calendar.Exception
	for rows.Next() {
		var e calendar.Exception
		var dateStr, shiftsData string
		if err := rows.Scan(&e.ID, &dateStr, &e.Name, &e.Recurring, &shiftsData); err != nil {
			return nil, err
		}
		e.CalendarID = id
		e.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse exception date %q: %w", dateStr, err)
		}
		var raw []string
		if err := json.Unmarshal([]byte(shiftsData), &raw); err != nil {
			return nil, fmt.Errorf("decode exception shifts: %w", err)
		}
		if e.Shifts, err = decodeShifts(raw); err != nil {
			return nil, err
		}
		exceptions = append(exceptions, e)
	}
	return exceptions, rows.Err()
}

// ListCalendars returns all calendars ordered by ID.
func (s *Store) ListCalendars(ctx context.Context) ([]*calendar.ProjectCalendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM calendars ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	var ids []generic.CalendarID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, generic.CalendarID(id))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	calendars := make([]*calendar.ProjectCalendar, 0, len(ids))
	for _, id := range ids {
		cal, err := s.getCalendar(ctx, id)
		if err != nil {
			return nil, err
		}
		calendars = append(calendars, cal)
	}
	return calendars, nil
}

// DeleteCalendar deletes a calendar and its exceptions.
func (s *Store) DeleteCalendar(ctx context.Context, id generic.CalendarID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM calendars WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrCalendarNotFound
	}
	return nil
}

// SaveException adds or replaces a single exception of an existing calendar.
func (s *Store) SaveException(ctx context.Context, e calendar.Exception) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM calendars WHERE id = ?", string(e.CalendarID),
	).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return generic.ErrCalendarNotFound
	}
	return insertException(ctx, s.db, e)
}

// DeleteException deletes an exception by ID.
func (s *Store) DeleteException(ctx context.Context, calendarID generic.CalendarID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM calendar_exceptions WHERE calendar_id = ? AND id = ?", string(calendarID), id)
	return err
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// SaveAssignment creates or replaces an assignment and its raw segments.
// Previously normalized segments are discarded.
func (s *Store) SaveAssignment(ctx context.Context, a generic.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assignments (id, calendar_id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			calendar_id = excluded.calendar_id,
			name = excluded.name
	`, string(a.ID), string(a.CalendarID), a.Name, createdAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save assignment: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM timephased_segments WHERE assignment_id = ?", string(a.ID)); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}
	if err := insertSegments(ctx, tx, a.ID, kindRaw, a.Segments); err != nil {
		return err
	}

	return tx.Commit()
}

// GetAssignment returns generic.ErrAssignmentNotFound when id is unknown.
func (s *Store) GetAssignment(ctx context.Context, id generic.AssignmentID) (*generic.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getAssignment(ctx, id)
}

func (s *Store) getAssignment(ctx context.Context, id generic.AssignmentID) (*generic.Assignment, error) {
	a := generic.Assignment{ID: id}
	var calendarID, createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT calendar_id, name, created_at FROM assignments WHERE id = ?", string(id),
	).Scan(&calendarID, &a.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, err
	}
	a.CalendarID = generic.CalendarID(calendarID)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	a.Segments, err = s.loadSegments(ctx, id, kindRaw)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAssignments returns all assignments ordered by ID, with raw segments.
func (s *Store) ListAssignments(ctx context.Context) ([]generic.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id FROM assignments ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	var ids []generic.AssignmentID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, generic.AssignmentID(id))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]generic.Assignment, 0, len(ids))
	for _, id := range ids {
		a, err := s.getAssignment(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, nil
}

// DeleteAssignment deletes an assignment and all of its segments.
func (s *Store) DeleteAssignment(ctx context.Context, id generic.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = ?", string(id))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrAssignmentNotFound
	}
	return nil
}

// SaveNormalized replaces the normalized segments of an assignment.
func (s *Store) SaveNormalized(ctx context.Context, id generic.AssignmentID, segments []generic.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assignments WHERE id = ?", string(id)).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return generic.ErrAssignmentNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM timephased_segments WHERE assignment_id = ? AND kind = ?", string(id), kindNormalized); err != nil {
		return fmt.Errorf("clear normalized: %w", err)
	}
	if err := insertSegments(ctx, tx, id, kindNormalized, segments); err != nil {
		return err
	}
	return tx.Commit()
}

// GetNormalized returns the last normalized segments, nil if never run.
func (s *Store) GetNormalized(ctx context.Context, id generic.AssignmentID) ([]generic.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM assignments WHERE id = ?", string(id)).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, generic.ErrAssignmentNotFound
	}
	return s.loadSegments(ctx, id, kindNormalized)
}

// =============================================================================
// SEGMENT ROWS
// =============================================================================

func insertSegments(ctx context.Context, tx *sql.Tx, id generic.AssignmentID, kind string, segments []generic.Segment) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO timephased_segments (
			assignment_id, kind, seq, start, finish,
			total_work_value, total_work_unit, work_per_day_value, work_per_day_unit
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, seg := range segments {
		total := seg.TotalWork.Convert(seg.TotalWork.Unit)
		perDay := seg.WorkPerDay.Convert(seg.WorkPerDay.Unit)
		_, err := stmt.ExecContext(ctx,
			string(id), kind, i,
			seg.Start.Format(time.RFC3339Nano),
			seg.Finish.Format(time.RFC3339Nano),
			total.Value.String(), string(total.Unit),
			perDay.Value.String(), string(perDay.Unit),
		)
		if err != nil {
			return fmt.Errorf("insert segment %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) loadSegments(ctx context.Context, id generic.AssignmentID, kind string) ([]generic.Segment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT start, finish, total_work_value, total_work_unit, work_per_day_value, work_per_day_unit
		FROM timephased_segments
		WHERE assignment_id = ? AND kind = ?
		ORDER BY seq ASC
	`, string(id), kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []generic.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

func scanSegment(rows *sql.Rows) (generic.Segment, error) {
	var (
		seg                     generic.Segment
		startStr, finishStr     string
		totalValue, totalUnit   string
		perDayValue, perDayUnit string
	)
	if err := rows.Scan(&startStr, &finishStr, &totalValue, &totalUnit, &perDayValue, &perDayUnit); err != nil {
		return seg, err
	}

	var err error
	if seg.Start, err = time.Parse(time.RFC3339Nano, startStr); err != nil {
		return seg, fmt.Errorf("parse start %q: %w", startStr, err)
	}
	if seg.Finish, err = time.Parse(time.RFC3339Nano, finishStr); err != nil {
		return seg, fmt.Errorf("parse finish %q: %w", finishStr, err)
	}
	if seg.TotalWork, err = parseDuration(totalValue, totalUnit); err != nil {
		return seg, err
	}
	if seg.WorkPerDay, err = parseDuration(perDayValue, perDayUnit); err != nil {
		return seg, err
	}
	return seg, nil
}

func parseDuration(value, unit string) (generic.Duration, error) {
	v, err := decimal.NewFromString(value)
	if err != nil {
		return generic.Duration{}, fmt.Errorf("parse duration %q: %w", value, err)
	}
	u, err := generic.ParseUnit(unit)
	if err != nil {
		return generic.Duration{}, err
	}
	return generic.Duration{Value: v, Unit: u}, nil
}
