package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/wedding-admin/domains/reports/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/wedding-admin/platform/go/logging"
)

const reportsBasePath = "/api/v1/reports"

type operation string

const (
	capacityReportOperation operation = "getCapacityReport"
	exportOperation         operation = "exportRsvps"
)

// Handler wires the reports service to HTTP.
type Handler struct {
	svc              service.Service
	logger           *zap.Logger
	exportMiddleware []func(http.Handler) http.Handler
}

// New constructs a Handler. exportMiddleware wraps only the CSV export route, typically with a rate limiter.
func New(svc service.Service, logger *zap.Logger, exportMiddleware ...func(http.Handler) http.Handler) *Handler {
	if svc == nil {
		panic("reports service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger, exportMiddleware: exportMiddleware}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/capacity", h.GetCapacityReport)
	r.With(h.exportMiddleware...).Get("/rsvps/export", h.ExportRSVPs)
}

func (h *Handler) GetCapacityReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.CapacityReport(r.Context())
	if err != nil {
		h.writeError(w, r, err, capacityReportOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) ExportRSVPs(w http.ResponseWriter, r *http.Request) {
	var filter service.ExportFilter
	if err := httpapi.BindQuery(r, "status", &filter.Status); err != nil {
		h.writeError(w, r, err, exportOperation)
		return
	}
	var err error
	for name, dest := range map[string]**uuid.UUID{
		"guestId":    &filter.GuestID,
		"eventId":    &filter.EventID,
		"activityId": &filter.ActivityID,
	} {
		if *dest, err = httpapi.QueryUUID(r, name); err != nil {
			h.writeError(w, r, err, exportOperation)
			return
		}
	}

	export, err := h.svc.ExportRSVPs(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err, exportOperation)
		return
	}

	logger := platformlogging.FromContextOr(r.Context(), h.logger)
	if export.ArchiveErr != nil {
		logger.Warn("rsvp export archive failed", zap.Error(export.ArchiveErr))
	} else if export.Archived != nil {
		logger.Info("rsvp export archived",
			zap.String("bucket", export.Archived.Bucket),
			zap.String("path", export.Archived.FullPath),
			zap.Int("rows", export.Rows),
		)
	}

	w.Header().Set("Content-Type", service.CSVContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Data)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op operation) {
	problem := httpapi.ProblemFromError(err, r.URL.Path)

	logger := platformlogging.FromContextOr(r.Context(), h.logger)
	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", problem.Status),
		zap.Error(err),
	}

	if problem.Status >= http.StatusInternalServerError {
		logger.Error("reports operation failed", fields...)
	} else {
		logger.Warn("reports request rejected", fields...)
	}

	httpapi.WriteProblem(w, problem)
}
