package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/wedding-admin/domains/events/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	platformlogging "github.com/zenGate-Global/wedding-admin/platform/go/logging"
	"github.com/zenGate-Global/wedding-admin/platform/go/pagination"
	"github.com/zenGate-Global/wedding-admin/platform/go/requesttrace"
)

const eventsBasePath = "/api/v1/events"

type operation string

const (
	listOperation       operation = "listEvents"
	searchOperation     operation = "searchEvents"
	createOperation     operation = "createEvent"
	getOperation        operation = "getEvent"
	getBySlugOperation  operation = "getEventBySlug"
	updateOperation     operation = "updateEvent"
	deleteOperation     operation = "deleteEvent"
	restoreOperation    operation = "restoreEvent"
	referencesOperation operation = "checkEventReferences"
	conflictsOperation  operation = "checkEventConflicts"
)

// Handler wires the events service to HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("events service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the event endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListEvents)
	r.Post("/", h.CreateEvent)
	r.Get("/search", h.SearchEvents)
	r.Post("/conflicts", h.CheckConflicts)
	r.Get("/slug/{slug}", h.GetEventBySlug)
	r.Route("/{eventId}", func(r chi.Router) {
		r.Get("/", h.GetEvent)
		r.Patch("/", h.UpdateEvent)
		r.Delete("/", h.DeleteEvent)
		r.Post("/restore", h.RestoreEvent)
		r.Get("/references", h.CheckEventReferences)
	})
}

type conflictRequest struct {
	LocationID     *uuid.UUID `json:"locationId"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	ExcludeEventID *uuid.UUID `json:"excludeEventId"`
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	var params service.ListParams
	err := httpapi.BindQueries(r, map[string]any{
		"eventType":     &params.EventType,
		"status":        &params.Status,
		"startDateFrom": &params.StartDateFrom,
		"startDateTo":   &params.StartDateTo,
		"page":          &params.Page,
		"pageSize":      &params.PageSize,
	})
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	if params.LocationID, err = httpapi.QueryUUID(r, "locationId"); err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	page, err := h.svc.List(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	var query string
	var params pagination.Params
	err := httpapi.BindQueries(r, map[string]any{
		"q":        &query,
		"page":     &params.Page,
		"pageSize": &params.PageSize,
	})
	if err != nil {
		h.writeError(w, r, err, searchOperation)
		return
	}

	page, err := h.svc.Search(r.Context(), query, params)
	if err != nil {
		h.writeError(w, r, err, searchOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var input service.CreateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	event, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", eventsBasePath, event.ID))
	httpapi.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req conflictRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err, conflictsOperation)
		return
	}

	res, err := h.svc.CheckSchedulingConflicts(r.Context(), service.ConflictQuery(req))
	if err != nil {
		h.writeError(w, r, err, conflictsOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}

	event, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) GetEventBySlug(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err, getBySlugOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	var input service.UpdateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	event, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err, deleteOperation)
		return
	}

	permanent := false
	if err := httpapi.BindQuery(r, "permanent", &permanent); err != nil {
		h.writeError(w, r, err, deleteOperation)
		return
	}

	opts := lifecycle.DeleteOptions{Permanent: permanent, DeletedBy: requesttrace.ActorFrom(r.Context())}
	if err := h.svc.Delete(r.Context(), id, opts); err != nil {
		h.writeError(w, r, err, deleteOperation)
		return
	}
	httpapi.NoContent(w)
}

func (h *Handler) RestoreEvent(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err, restoreOperation)
		return
	}

	event, err := h.svc.Restore(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, restoreOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) CheckEventReferences(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err, referencesOperation)
		return
	}

	refs, err := h.svc.CheckReferences(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, referencesOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, refs)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	problem := httpapi.ProblemFromError(err, r.URL.Path)

	logger := platformlogging.FromContextOr(r.Context(), h.logger)
	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", problem.Status),
		zap.Error(err),
	}

	switch {
	case problem.Status >= http.StatusInternalServerError:
		logger.Error("events operation failed", fields...)
	case problem.Status == http.StatusNotFound:
		logger.Info("event not found", fields...)
	default:
		logger.Warn("events request rejected", fields...)
	}

	httpapi.WriteProblem(w, problem)
}
