/*
handlers.go - HTTP API handlers for the timephased normalization service

PURPOSE:
  Exposes calendars, assignments and the normalizer via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Normalization:
    POST   /api/normalize                          Stateless normalize (calendar + segments in body)

  Calendars:
    GET    /api/calendars                          List calendars
    POST   /api/calendars                          Create or replace calendar
    GET    /api/calendars/{id}                     Get calendar
    DELETE /api/calendars/{id}                     Delete calendar
    POST   /api/calendars/{id}/exceptions          Add holiday / working exception
    DELETE /api/calendars/{id}/exceptions/{exceptionID}

  Assignments:
    GET    /api/assignments                        List assignments
    POST   /api/assignments                        Store raw timephased data
    GET    /api/assignments/{id}                   Get assignment with raw segments
    DELETE /api/assignments/{id}                   Delete assignment
    POST   /api/assignments/{id}/normalize         Normalize and persist
    GET    /api/assignments/{id}/timephased        Last normalized result

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access (calendars, assignments, segments)
  - Service: Store-backed normalization
  - Normalizer: Defaults for stateless requests

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Calendar or assignment not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - timephased/service.go: Normalization pipeline entry point
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/timephased-engine/generic"
	"github.com/warp/timephased-engine/store/sqlite"
	"github.com/warp/timephased-engine/timephased"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Service    *timephased.Service
	Normalizer *timephased.Normalizer
	Logger     *zap.SugaredLogger
}

// NewHandler creates a new handler backed by store. A nil normalizer uses
// the canonical defaults.
func NewHandler(store *sqlite.Store, n *timephased.Normalizer) *Handler {
	if n == nil {
		n = timephased.NewNormalizer()
	}
	logger := zap.NewNop().Sugar()
	if n.Logger != nil {
		logger = n.Logger.Sugar()
	}
	return &Handler{
		Store:      store,
		Service:    timephased.NewService(store, store, n),
		Normalizer: n,
		Logger:     logger,
	}
}

// Health reports liveness.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// =============================================================================
// NORMALIZATION ENDPOINTS
// =============================================================================

// Normalize runs the pipeline on a calendar and segments supplied in the body.
// Nothing is persisted.
// POST /api/normalize
func (h *Handler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cal, err := req.Calendar.ToCalendar()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calendar", err)
		return
	}

	segments, err := SegmentsFromDTOs(req.Segments)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid segments", err)
		return
	}
	if err := generic.ValidateSegments(segments); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid segments", err)
		return
	}

	// Per-request overrides work on a copy so the shared defaults stay put.
	n := *h.Normalizer
	if req.DayMinutes != 0 {
		if req.DayMinutes < 0 {
			writeError(w, http.StatusBadRequest, "day_minutes must be positive", nil)
			return
		}
		n.DayMinutes = req.DayMinutes
	}
	if req.OutputUnit != "" {
		unit, err := generic.ParseUnit(req.OutputUnit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid output unit", err)
			return
		}
		n.OutputUnit = unit
	}

	stage, err := timephased.ParseStage(req.Stage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid stage", err)
		return
	}

	out := n.NormalizeThrough(cal, segments, stage)
	writeJSON(w, http.StatusOK, toNormalizeResponse(out))
}

func toNormalizeResponse(segments []generic.Segment) NormalizeResponse {
	total := generic.TotalWork(segments)
	if len(segments) > 0 {
		total = total.Convert(segments[0].TotalWork.Unit)
	}
	return NormalizeResponse{
		Segments:  ToSegmentDTOs(segments),
		Count:     len(segments),
		TotalWork: ToDurationDTO(total),
	}
}

// =============================================================================
// CALENDAR ENDPOINTS
// =============================================================================

// ListCalendars returns all calendars.
// GET /api/calendars
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	cals, err := h.Store.ListCalendars(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calendars", err)
		return
	}

	dtos := make([]CalendarDTO, 0, len(cals))
	for _, c := range cals {
		dtos = append(dtos, ToCalendarDTO(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"calendars": dtos})
}

// CreateCalendar creates or replaces a calendar.
// POST /api/calendars
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req CalendarDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = "cal-" + uuid.NewString()
	}
	for i := range req.Exceptions {
		if req.Exceptions[i].ID == "" {
			req.Exceptions[i].ID = "exc-" + uuid.NewString()
		}
	}

	cal, err := req.ToCalendar()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calendar", err)
		return
	}

	if err := h.Store.SaveCalendar(r.Context(), cal); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save calendar", err)
		return
	}

	h.Logger.Infow("calendar saved", "calendar", cal.ID, "exceptions", len(cal.Exceptions))
	writeJSON(w, http.StatusCreated, ToCalendarDTO(cal))
}

// GetCalendar returns one calendar with its exceptions.
// GET /api/calendars/{id}
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	id := generic.CalendarID(chi.URLParam(r, "id"))

	cal, err := h.Store.GetCalendar(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, ToCalendarDTO(cal))
}

// DeleteCalendar removes a calendar and its exceptions.
// DELETE /api/calendars/{id}
func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	id := generic.CalendarID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteCalendar(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// CreateException adds a holiday (no shifts) or an alternate working day.
// POST /api/calendars/{id}/exceptions
func (h *Handler) CreateException(w http.ResponseWriter, r *http.Request) {
	calID := generic.CalendarID(chi.URLParam(r, "id"))

	var req ExceptionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}
	if req.ID == "" {
		req.ID = "exc-" + uuid.NewString()
	}

	exc, err := req.ToException(calID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid exception", err)
		return
	}

	if err := h.Store.SaveException(r.Context(), exc); err != nil {
		writeDomainError(w, "Failed to create exception", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":    "created",
		"exception": exc.ID,
	})
}

// DeleteException removes one exception.
// DELETE /api/calendars/{id}/exceptions/{exceptionID}
func (h *Handler) DeleteException(w http.ResponseWriter, r *http.Request) {
	calID := generic.CalendarID(chi.URLParam(r, "id"))
	excID := chi.URLParam(r, "exceptionID")

	if err := h.Store.DeleteException(r.Context(), calID, excID); err != nil {
		writeDomainError(w, "Failed to delete exception", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// ASSIGNMENT ENDPOINTS
// =============================================================================

// ListAssignments returns all assignments with their raw segments.
// GET /api/assignments
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListAssignments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}

	dtos := make([]AssignmentDTO, 0, len(list))
	for _, a := range list {
		dtos = append(dtos, ToAssignmentDTO(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": dtos})
}

// CreateAssignment stores raw timephased segments against a calendar.
// POST /api/assignments
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CalendarID == "" {
		writeError(w, http.StatusBadRequest, "calendar_id is required", nil)
		return
	}

	segments, err := SegmentsFromDTOs(req.Segments)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid segments", err)
		return
	}
	if err := generic.ValidateSegments(segments); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid segments", err)
		return
	}

	calID := generic.CalendarID(req.CalendarID)
	if _, err := h.Store.GetCalendar(ctx, calID); err != nil {
		writeDomainError(w, "Unknown calendar", err)
		return
	}

	if req.ID == "" {
		req.ID = "asg-" + uuid.NewString()
	}
	a := generic.Assignment{
		ID:         generic.AssignmentID(req.ID),
		CalendarID: calID,
		Name:       req.Name,
		Segments:   segments,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.Store.SaveAssignment(ctx, a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save assignment", err)
		return
	}

	h.Logger.Infow("assignment saved", "assignment", a.ID, "calendar", a.CalendarID, "segments", len(segments))
	writeJSON(w, http.StatusCreated, ToAssignmentDTO(a))
}

// GetAssignment returns one assignment.
// GET /api/assignments/{id}
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id := generic.AssignmentID(chi.URLParam(r, "id"))

	a, err := h.Store.GetAssignment(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, ToAssignmentDTO(*a))
}

// DeleteAssignment removes an assignment and all its segments.
// DELETE /api/assignments/{id}
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := generic.AssignmentID(chi.URLParam(r, "id"))

	if err := h.Store.DeleteAssignment(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// NormalizeAssignment normalizes the stored raw segments and persists the result.
// POST /api/assignments/{id}/normalize
func (h *Handler) NormalizeAssignment(w http.ResponseWriter, r *http.Request) {
	id := generic.AssignmentID(chi.URLParam(r, "id"))

	out, err := h.Service.Normalize(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to normalize assignment", err)
		return
	}

	h.Logger.Infow("assignment normalized", "assignment", id, "segments", len(out))
	writeJSON(w, http.StatusOK, toNormalizeResponse(out))
}

// GetTimephased returns the last normalized result for an assignment.
// GET /api/assignments/{id}/timephased
func (h *Handler) GetTimephased(w http.ResponseWriter, r *http.Request) {
	id := generic.AssignmentID(chi.URLParam(r, "id"))

	out, err := h.Store.GetNormalized(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get timephased data", err)
		return
	}
	writeJSON(w, http.StatusOK, toNormalizeResponse(out))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error chain.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
