package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zenGate-Global/wedding-admin/domains/content-pages/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	platformlogging "github.com/zenGate-Global/wedding-admin/platform/go/logging"
	"github.com/zenGate-Global/wedding-admin/platform/go/requesttrace"
)

const contentPagesBasePath = "/api/v1/content-pages"

type operation string

const (
	listOperation       operation = "listContentPages"
	createOperation     operation = "createContentPage"
	getOperation        operation = "getContentPage"
	getBySlugOperation  operation = "getContentPageBySlug"
	updateOperation     operation = "updateContentPage"
	deleteOperation     operation = "deleteContentPage"
	restoreOperation    operation = "restoreContentPage"
	referencesOperation operation = "checkContentPageReferences"
)

// Handler wires the content pages service to HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("content pages service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the content page endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListContentPages)
	r.Post("/", h.CreateContentPage)
	r.Get("/slug/{slug}", h.GetContentPageBySlug)
	r.Route("/{pageId}", func(r chi.Router) {
		r.Get("/", h.GetContentPage)
		r.Patch("/", h.UpdateContentPage)
		r.Delete("/", h.DeleteContentPage)
		r.Post("/restore", h.RestoreContentPage)
		r.Get("/references", h.CheckContentPageReferences)
	})
}

type contentPageList struct {
	Items []service.Page `json:"items"`
}

func (h *Handler) ListContentPages(w http.ResponseWriter, r *http.Request) {
	var status *string
	if err := httpapi.BindQuery(r, "status", &status); err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	pages, err := h.svc.List(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, contentPageList{Items: pages})
}

func (h *Handler) CreateContentPage(w http.ResponseWriter, r *http.Request) {
	var input service.CreateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	page, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", contentPagesBasePath, page.ID))
	httpapi.WriteJSON(w, http.StatusCreated, page)
}

func (h *Handler) GetContentPage(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "pageId")
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}

	page, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetContentPageBySlug(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err, getBySlugOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) UpdateContentPage(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "pageId")
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	var input service.UpdateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	page, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) DeleteContentPage(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "pageId")
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

func (h *Handler) RestoreContentPage(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "pageId")
	if err != nil {
		h.writeError(w, r, err, restoreOperation)
		return
	}

	page, err := h.svc.Restore(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, restoreOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) CheckContentPageReferences(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "pageId")
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

	logger := h.loggerFrom(r.Context())
	fields := []zap.Field{
		zap.String("operation", string(op)),
		zap.Int("status", problem.Status),
		zap.Error(err),
	}

	switch {
	case problem.Status >= http.StatusInternalServerError:
		logger.Error("content pages operation failed", fields...)
	case problem.Status == http.StatusNotFound:
		logger.Info("content page not found", fields...)
	default:
		logger.Warn("content pages request rejected", fields...)
	}

	httpapi.WriteProblem(w, problem)
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOr(ctx, h.logger)
}
