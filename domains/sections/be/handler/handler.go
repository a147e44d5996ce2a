package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/wedding-admin/domains/sections/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	platformlogging "github.com/zenGate-Global/wedding-admin/platform/go/logging"
	"github.com/zenGate-Global/wedding-admin/platform/go/requesttrace"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

const sectionsBasePath = "/api/v1/sections"

type operation string

const (
	listOperation               operation = "listSections"
	createOperation             operation = "createSection"
	getOperation                operation = "getSection"
	updateOperation             operation = "updateSection"
	deleteOperation             operation = "deleteSection"
	reorderOperation            operation = "reorderSections"
	validateReferencesOperation operation = "validateSectionReferences"
	listVersionsOperation       operation = "listPageVersions"
	createVersionOperation      operation = "createPageVersion"
	revertVersionOperation      operation = "revertPageVersion"
)

// Handler wires the sections service to HTTP.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("sections service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListSections)
	r.Post("/", h.CreateSection)
	r.Put("/reorder", h.ReorderSections)
	r.Post("/validate-references", h.ValidateReferences)
	r.Route("/versions", func(r chi.Router) {
		r.Get("/", h.ListVersions)
		r.Post("/", h.CreateVersion)
		r.Post("/{versionId}/revert", h.RevertVersion)
	})
	r.Route("/{sectionId}", func(r chi.Router) {
		r.Get("/", h.GetSection)
		r.Patch("/", h.UpdateSection)
		r.Delete("/", h.DeleteSection)
	})
}

type sectionList struct {
	Items []service.Section `json:"items"`
}

type versionList struct {
	Items []service.Version `json:"items"`
}

type pageRef struct {
	PageType string    `json:"pageType"`
	PageID   uuid.UUID `json:"pageId"`
}

type reorderRequest struct {
	PageType   string      `json:"pageType"`
	PageID     uuid.UUID   `json:"pageId"`
	SectionIDs []uuid.UUID `json:"sectionIds"`
}

type validateReferencesRequest struct {
	PageID     *uuid.UUID          `json:"pageId"`
	References []service.Reference `json:"references"`
}

type validateReferencesResponse struct {
	service.ReferenceValidation
	Circular bool `json:"circular"`
}

type revertRequest struct {
	PageID uuid.UUID `json:"pageId"`
}

func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	var pageType string
	if err := httpapi.BindQuery(r, "pageType", &pageType); err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	pageID, err := httpapi.QueryUUID(r, "pageId")
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	if pageID == nil {
		h.writeError(w, r, result.InvalidField("pageId", "pageId is required"), listOperation)
		return
	}

	sections, err := h.svc.ListByPage(r.Context(), pageType, *pageID)
	if err != nil {
		h.writeError(w, r, err, listOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, sectionList{Items: sections})
}

func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var input service.CreateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	section, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err, createOperation)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", sectionsBasePath, section.ID))
	httpapi.WriteJSON(w, http.StatusCreated, section)
}

func (h *Handler) GetSection(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "sectionId")
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}

	section, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err, getOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, section)
}

func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "sectionId")
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	var input service.UpdateInput
	if err := httpapi.DecodeJSON(r, &input); err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}

	section, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, r, err, updateOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, section)
}

func (h *Handler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	id, err := httpapi.PathUUID(r, "sectionId")
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

func (h *Handler) ReorderSections(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err, reorderOperation)
		return
	}

	if err := h.svc.Reorder(r.Context(), req.PageType, req.PageID, req.SectionIDs); err != nil {
		h.writeError(w, r, err, reorderOperation)
		return
	}
	httpapi.NoContent(w)
}

// ValidateReferences reports broken references and, when pageId is given, whether saving them
// on that page would form a cycle.
func (h *Handler) ValidateReferences(w http.ResponseWriter, r *http.Request) {
	var req validateReferencesRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err, validateReferencesOperation)
		return
	}

	validated, err := h.svc.ValidateReferences(r.Context(), req.References)
	if err != nil {
		h.writeError(w, r, err, validateReferencesOperation)
		return
	}

	resp := validateReferencesResponse{ReferenceValidation: validated}
	if req.PageID != nil {
		resp.Circular, err = h.svc.DetectCircularReferences(r.Context(), *req.PageID, req.References)
		if err != nil {
			h.writeError(w, r, err, validateReferencesOperation)
			return
		}
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	pageID, err := httpapi.QueryUUID(r, "pageId")
	if err != nil {
		h.writeError(w, r, err, listVersionsOperation)
		return
	}
	if pageID == nil {
		h.writeError(w, r, result.InvalidField("pageId", "pageId is required"), listVersionsOperation)
		return
	}

	versions, err := h.svc.VersionHistory(r.Context(), *pageID)
	if err != nil {
		h.writeError(w, r, err, listVersionsOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, versionList{Items: versions})
}

func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	var req pageRef
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err, createVersionOperation)
		return
	}

	version, err := h.svc.CreateVersionSnapshot(r.Context(), req.PageType, req.PageID, requesttrace.ActorFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err, createVersionOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, version)
}

func (h *Handler) RevertVersion(w http.ResponseWriter, r *http.Request) {
	versionID, err := httpapi.PathUUID(r, "versionId")
	if err != nil {
		h.writeError(w, r, err, revertVersionOperation)
		return
	}

	var req revertRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err, revertVersionOperation)
		return
	}

	sections, err := h.svc.RevertToVersion(r.Context(), req.PageID, versionID)
	if err != nil {
		h.writeError(w, r, err, revertVersionOperation)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, sectionList{Items: sections})
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
		logger.Error("sections operation failed", fields...)
	case problem.Status == http.StatusNotFound:
		logger.Info("section not found", fields...)
	default:
		logger.Warn("sections request rejected", fields...)
	}

	httpapi.WriteProblem(w, problem)
}

