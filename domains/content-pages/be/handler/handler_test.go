package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/wedding-admin/domains/content-pages/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/requesttrace"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

type mockService struct {
	createFn     func(ctx context.Context, input service.CreateInput) (service.Page, error)
	getFn        func(ctx context.Context, id uuid.UUID) (service.Page, error)
	getBySlugFn  func(ctx context.Context, slug string) (service.Page, error)
	listFn       func(ctx context.Context, status *string) ([]service.Page, error)
	updateFn     func(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Page, error)
	deleteFn     func(ctx context.Context, id uuid.UUID, opts lifecycle.DeleteOptions) error
	restoreFn    func(ctx context.Context, id uuid.UUID) (service.Page, error)
	referencesFn func(ctx context.Context, id uuid.UUID) (lifecycle.References, error)
}

func (m *mockService) Create(ctx context.Context, input service.CreateInput) (service.Page, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, input)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (service.Page, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockService) GetBySlug(ctx context.Context, slug string) (service.Page, error) {
	if m.getBySlugFn == nil {
		panic("getBySlugFn not configured")
	}
	return m.getBySlugFn(ctx, slug)
}

func (m *mockService) List(ctx context.Context, status *string) ([]service.Page, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, status)
}

func (m *mockService) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Page, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, id, input)
}

func (m *mockService) Delete(ctx context.Context, id uuid.UUID, opts lifecycle.DeleteOptions) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, id, opts)
}

func (m *mockService) Restore(ctx context.Context, id uuid.UUID) (service.Page, error) {
	if m.restoreFn == nil {
		panic("restoreFn not configured")
	}
	return m.restoreFn(ctx, id)
}

func (m *mockService) CheckReferences(ctx context.Context, id uuid.UUID) (lifecycle.References, error) {
	if m.referencesFn == nil {
		panic("referencesFn not configured")
	}
	return m.referencesFn(ctx, id)
}

func newRouter(t *testing.T, svc service.Service) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Route(contentPagesBasePath, New(svc, zaptest.NewLogger(t)).Routes)
	return r
}

func TestHandlerCreateContentPage(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.createFn = func(ctx context.Context, input service.CreateInput) (service.Page, error) {
		require.Equal(t, "Welcome", input.Title)
		require.Nil(t, input.Slug)
		now := time.Now().UTC()
		return service.Page{ID: id, Title: input.Title, Slug: "welcome", Status: "draft", CreatedAt: now, UpdatedAt: now}, nil
	}

	req := httptest.NewRequest(http.MethodPost, contentPagesBasePath, strings.NewReader(`{"title":"Welcome"}`))
	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, contentPagesBasePath+"/"+id.String(), rec.Header().Get("Location"))

	var body service.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "welcome", body.Slug)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	require.Contains(t, raw, "createdAt")
	require.Contains(t, raw, "updatedAt")
	require.NotContains(t, raw, "CreatedAt")
	require.NotContains(t, raw, "deletedAt")
}

func TestHandlerCreateContentPageValidation(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.createFn = func(context.Context, service.CreateInput) (service.Page, error) {
		return service.Page{}, result.InvalidField("slug", "slug must contain at least one letter or digit")
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, contentPagesBasePath, strings.NewReader(`{"title":"!!!"}`)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, httpapi.ContentTypeProblem, rec.Header().Get("Content-Type"))

	var problem httpapi.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, result.CodeValidation, problem.Code)
	require.Contains(t, problem.Errors, "slug")
}

func TestHandlerCreateContentPageRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newRouter(t, &mockService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, contentPagesBasePath, strings.NewReader(`{"name":"x"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListContentPages(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.listFn = func(ctx context.Context, status *string) ([]service.Page, error) {
		require.Equal(t, "published", *status)
		return []service.Page{{ID: uuid.New(), Title: "FAQ", Slug: "faq", Status: "published"}}, nil
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, contentPagesBasePath+"?status=published", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body contentPageList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
}

func TestHandlerGetContentPageNotFound(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.getFn = func(context.Context, uuid.UUID) (service.Page, error) {
		return service.Page{}, result.NotFound("content page not found")
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, contentPagesBasePath+"/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, contentPagesBasePath+"/not-a-uuid", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGetContentPageBySlug(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.getBySlugFn = func(ctx context.Context, slug string) (service.Page, error) {
		require.Equal(t, "travel", slug)
		return service.Page{ID: uuid.New(), Slug: slug}, nil
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, contentPagesBasePath+"/slug/travel", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerDeleteContentPage(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.deleteFn = func(ctx context.Context, gotID uuid.UUID, opts lifecycle.DeleteOptions) error {
		require.Equal(t, id, gotID)
		require.True(t, opts.Permanent)
		require.Equal(t, "admin-7", *opts.DeletedBy)
		return nil
	}

	userID := "admin-7"
	req := httptest.NewRequest(http.MethodDelete, contentPagesBasePath+"/"+id.String()+"?permanent=true", nil)
	req = req.WithContext(requesttrace.IntoContext(req.Context(), requesttrace.AuditInfo{
		ActorKind: requesttrace.ActorKindUser,
		UserID:    &userID,
	}))

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandlerUpdateRestoreAndReferences(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.updateFn = func(ctx context.Context, gotID uuid.UUID, input service.UpdateInput) (service.Page, error) {
		require.Equal(t, "published", *input.Status)
		return service.Page{ID: gotID, Status: *input.Status}, nil
	}
	svc.restoreFn = func(ctx context.Context, gotID uuid.UUID) (service.Page, error) {
		return service.Page{ID: gotID}, nil
	}
	svc.referencesFn = func(ctx context.Context, gotID uuid.UUID) (lifecycle.References, error) {
		return lifecycle.NewReferences(lifecycle.DependentRecord{Type: "sections", Count: 2}), nil
	}

	router := newRouter(t, svc)
	base := contentPagesBasePath + "/" + id.String()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, base, strings.NewReader(`{"status":"published"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base+"/restore", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"/references", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var refs lifecycle.References
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refs))
	require.Equal(t, 2, refs.TotalCount)
}
