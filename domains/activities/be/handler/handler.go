package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/wedding-admin/domains/activities/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	platformlogging "github.com/zenGate-Global/wedding-admin/platform/go/logging"
	"github.com/zenGate-Global/wedding-admin/platform/go/pagination"
	"github.com/zenGate-Global/wedding-admin/platform/go/requesttrace"
)

const activitiesBasePath = "/api/v1/activities"

type operation string

const (
	listOperation       operation = "listActivities"
	searchOperation     operation = "searchActivities"
	createOperation     operation = "createActivity"
	getOperation        operation = "getActivity"
	getBySlugOperation  operation = "getActivityBySlug"
	updateOperation     operation = "updateActivity"
	deleteOperation     operation = "deleteActivity"
	restoreOperation    operation = "restoreActivity"
	referencesOperation operation = "checkActivityReferences"
	capacityOperation   operation = "getActivityCapacity"
	netCostOperation    operation = "getActivityNetCost"
)

// Handler wires the activities service to HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("activities service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the activity endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListActivities)
	r.Post("/", h.CreateActivity)
	r.Get("/search", h.SearchActivities)
	r.Get("/slug/{slug}", h.GetActivityBySlug)
	r.Route("/{activityId}", func(r chi.Router) {
		r.Get("/", h.GetActivity)
		r.Patch("/", h.UpdateActivity)
		r.Delete("/", h.DeleteActivity)
		r.Post("/restore", h.RestoreActivity)
		r.Get("/references", h.CheckActivityReferences)
		r.Get("/capacity", h.GetCapacity)
		r.Get("/net-cost", h.GetNetCost)
	})
}

type netCostResponse struct {
	ActivityID uuid.UUID `json:"activityId"`
	NetCost    float64   `json:"netCost"`
}

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	var params service.ListParams
	err := httpapi.BindQueries(r, map[string]any{
		"eventId":       &params.EventID,
		"activityType":  &params.ActivityType,
		"status":        &params.Status,
		"adultsOnly":    &params.AdultsOnly,
		"startTimeFrom": &params.StartTimeFrom,
		"startTimeTo":   &params.StartTimeTo,
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

func (h *Handler) SearchActivities(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var input service.CreateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	activity, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", activitiesBasePath, activity.ID))
	httpapi.WriteJSON(w, http.StatusCreated, activity)
}

func (h *Handler) GetActivity(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "activityId")
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}

	activity, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, activity)
}

func (h *Handler) GetActivityBySlug(w http.ResponseWriter, r *http.Request) {
	activity, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err, getBySlugOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, activity)
}

func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "activityId")
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	var input service.UpdateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	activity, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, activity)
}

func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "activityId")
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

func (h *Handler) RestoreActivity(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "activityId")
	if err != nil {
		h.writeError(w, r, err, restoreOperation)
		return
	}

	activity, err := h.svc.Restore(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, restoreOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, activity)
}

func (h *Handler) CheckActivityReferences(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "activityId")
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

func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "activityId")
	if err != nil {
		h.writeError(w, r, err, capacityOperation)
		return
	}

	info, err := h.svc.CapacityInfo(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, capacityOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) GetNetCost(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "activityId")
	if err != nil {
		h.writeError(w, r, err, netCostOperation)
		return
	}

	cost, err := h.svc.NetCost(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, netCostOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, netCostResponse{ActivityID: id, NetCost: cost})
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
		logger.Error("activities operation failed", fields...)
	case problem.Status == http.StatusNotFound:
		logger.Info("activity not found", fields...)
	default:
		logger.Warn("activities request rejected", fields...)
	}

	httpapi.WriteProblem(w, problem)
}
