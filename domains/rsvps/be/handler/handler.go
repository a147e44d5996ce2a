package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/wedding-admin/domains/rsvps/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/wedding-admin/platform/go/logging"
)

const rsvpsBasePath = "/api/v1/rsvps"

type operation string

const (
	listOperation          operation = "listRsvps"
	createOperation        operation = "createRsvp"
	getOperation           operation = "getRsvp"
	updateOperation        operation = "updateRsvp"
	deleteOperation        operation = "deleteRsvp"
	byGuestOperation       operation = "listRsvpsByGuest"
	byEventOperation       operation = "listRsvpsByEvent"
	byActivityOperation    operation = "listRsvpsByActivity"
	statisticsOperation    operation = "getRsvpStatistics"
	capacityOperation      operation = "getActivityCapacity"
	checkCapacityOperation operation = "checkActivityCapacity"
	alertsOperation        operation = "listCapacityAlerts"
)

// Handler wires the RSVP service to HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("rsvps service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the RSVP endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListRSVPs)
	r.Post("/", h.CreateRSVP)
	r.Get("/statistics", h.GetStatistics)
	r.Get("/guests/{guestId}", h.ListByGuest)
	r.Get("/events/{eventId}", h.ListByEvent)
	r.Get("/activities/{activityId}", h.ListByActivity)
	r.Route("/capacity", func(r chi.Router) {
		r.Get("/alerts", h.ListCapacityAlerts)
		r.Get("/{activityId}", h.GetActivityCapacity)
		r.Get("/{activityId}/check", h.CheckCapacity)
	})
	r.Route("/{rsvpId}", func(r chi.Router) {
		r.Get("/", h.GetRSVP)
		r.Patch("/", h.UpdateRSVP)
		r.Delete("/", h.DeleteRSVP)
	})
}

type rsvpList struct {
	Items []service.RSVP `json:"items"`
}

type alertList struct {
	Items []service.CapacityAlert `json:"items"`
}

func (h *Handler) ListRSVPs(w http.ResponseWriter, r *http.Request) {
	var params service.ListParams
	err := httpapi.BindQueries(r, map[string]any{
		"status":   &params.Status,
		"page":     &params.Page,
		"pageSize": &params.PageSize,
	})
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	for name, dest := range map[string]**uuid.UUID{
		"guestId":    &params.GuestID,
		"eventId":    &params.EventID,
		"activityId": &params.ActivityID,
	} {
		if *dest, err = httpapi.QueryUUID(r, name); err != nil {
			h.writeError(w, r, err, listOperation)
			return
		}
	}

	page, err := h.svc.List(r.Context(), params)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) CreateRSVP(w http.ResponseWriter, r *http.Request) {
	var input service.CreateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	rsvp, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", rsvpsBasePath, rsvp.ID))
	httpapi.WriteJSON(w, http.StatusCreated, rsvp)
}

func (h *Handler) GetRSVP(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "rsvpId")
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}

	rsvp, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, rsvp)
}

func (h *Handler) UpdateRSVP(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "rsvpId")
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	var input service.UpdateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	rsvp, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, rsvp)
}

func (h *Handler) DeleteRSVP(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "rsvpId")
	if err != nil {
		h.writeError(w, r, err, deleteOperation)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err, deleteOperation)
		return
	}
	httpapi.NoContent(w)
}

func (h *Handler) ListByGuest(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "guestId")
	if err != nil {
		h.writeError(w, r, err, byGuestOperation)
		return
	}

	rsvps, err := h.svc.ByGuest(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, byGuestOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, rsvpList{Items: rsvps})
}

func (h *Handler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "eventId")
	if err != nil {
		h.writeError(w, r, err, byEventOperation)
		return
	}

	rsvps, err := h.svc.ByEvent(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, byEventOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, rsvpList{Items: rsvps})
}

func (h *Handler) ListByActivity(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "activityId")
	if err != nil {
		h.writeError(w, r, err, byActivityOperation)
		return
	}

	rsvps, err := h.svc.ByActivity(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, byActivityOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, rsvpList{Items: rsvps})
}

func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	var filter service.StatisticsFilter
	var err error
	if filter.EventID, err = httpapi.QueryUUID(r, "eventId"); err != nil {
		h.writeError(w, r, err, statisticsOperation)
		return
	}
	if filter.ActivityID, err = httpapi.QueryUUID(r, "activityId"); err != nil {
		h.writeError(w, r, err, statisticsOperation)
		return
	}

	stats, err := h.svc.Statistics(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err, statisticsOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) GetActivityCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "activityId")
	if err != nil {
		h.writeError(w, r, err, capacityOperation)
		return
	}

	capacity, err := h.svc.ActivityCapacity(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, capacityOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, capacity)
}

// CheckCapacity answers whether ?guests more attendees fit. guests defaults to 1.
func (h *Handler) CheckCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "activityId")
	if err != nil {
		h.writeError(w, r, err, checkCapacityOperation)
		return
	}

	guests := 1
	if err := httpapi.BindQuery(r, "guests", &guests); err != nil {
		h.writeError(w, r, err, checkCapacityOperation)
		return
	}

	availability, err := h.svc.CheckCapacityAvailable(r.Context(), id, guests)
	if err != nil {
		h.writeError(w, r, err, checkCapacityOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, availability)
}

func (h *Handler) ListCapacityAlerts(w http.ResponseWriter, r *http.Request) {
	threshold := service.DefaultAlertThreshold
	if err := httpapi.BindQuery(r, "threshold", &threshold); err != nil {
		h.writeError(w, r, err, alertsOperation)
		return
	}

	alerts, err := h.svc.CapacityAlerts(r.Context(), threshold)
	if err != nil {
		h.writeError(w, r, err, alertsOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, alertList{Items: alerts})
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
		logger.Error("rsvps operation failed", fields...)
	case problem.Status == http.StatusNotFound:
		logger.Info("rsvp not found", fields...)
	default:
		logger.Warn("rsvps request rejected", fields...)
	}

	httpapi.WriteProblem(w, problem)
}
