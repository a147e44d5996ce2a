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

	"github.com/zenGate-Global/wedding-admin/domains/events/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/httpapi"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/pagination"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

type mockService struct {
	createFn     func(ctx context.Context, input service.CreateInput) (service.Event, error)
	getFn        func(ctx context.Context, id uuid.UUID) (service.Event, error)
	getBySlugFn  func(ctx context.Context, slug string) (service.Event, error)
	listFn       func(ctx context.Context, params service.ListParams) (pagination.Page[service.Event], error)
	searchFn     func(ctx context.Context, query string, params pagination.Params) (pagination.Page[service.Event], error)
	updateFn     func(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Event, error)
	deleteFn     func(ctx context.Context, id uuid.UUID, opts lifecycle.DeleteOptions) error
	restoreFn    func(ctx context.Context, id uuid.UUID) (service.Event, error)
	referencesFn func(ctx context.Context, id uuid.UUID) (lifecycle.References, error)
	conflictsFn  func(ctx context.Context, query service.ConflictQuery) (service.ConflictResult, error)
}

func (m *mockService) Create(ctx context.Context, input service.CreateInput) (service.Event, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, input)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (service.Event, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockService) GetBySlug(ctx context.Context, slug string) (service.Event, error) {
	if m.getBySlugFn == nil {
		panic("getBySlugFn not configured")
	}
	return m.getBySlugFn(ctx, slug)
}

func (m *mockService) List(ctx context.Context, params service.ListParams) (pagination.Page[service.Event], error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, params)
}

func (m *mockService) Search(ctx context.Context, query string, params pagination.Params) (pagination.Page[service.Event], error) {
	if m.searchFn == nil {
		panic("searchFn not configured")
	}
	return m.searchFn(ctx, query, params)
}

func (m *mockService) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Event, error) {
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

func (m *mockService) Restore(ctx context.Context, id uuid.UUID) (service.Event, error) {
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

func (m *mockService) CheckSchedulingConflicts(ctx context.Context, query service.ConflictQuery) (service.ConflictResult, error) {
	if m.conflictsFn == nil {
		panic("conflictsFn not configured")
	}
	return m.conflictsFn(ctx, query)
}

func newRouter(t *testing.T, svc service.Service) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Route(eventsBasePath, New(svc, zaptest.NewLogger(t)).Routes)
	return r
}

func TestHandlerListEvents(t *testing.T) {
	t.Parallel()

	location := uuid.New()
	svc := &mockService{}
	svc.listFn = func(_ context.Context, params service.ListParams) (pagination.Page[service.Event], error) {
		require.Equal(t, "ceremony", *params.EventType)
		require.Equal(t, location, *params.LocationID)
		require.Equal(t, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC), params.StartDateFrom.UTC())
		require.Nil(t, params.StartDateTo)
		require.Equal(t, 2, params.Page)
		require.Equal(t, 10, params.PageSize)
		return pagination.NewPage([]service.Event{{ID: uuid.New()}}, 11, pagination.Params{Page: 2, PageSize: 10}), nil
	}

	url := eventsBasePath + "?eventType=ceremony&locationId=" + location.String() +
		"&startDateFrom=2026-06-01T00:00:00Z&page=2&pageSize=10"
	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body pagination.Page[service.Event]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 11, body.Total)
	require.Equal(t, 2, body.TotalPages)
}

func TestHandlerListEventsRejectsBadQuery(t *testing.T) {
	t.Parallel()

	router := newRouter(t, &mockService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, eventsBasePath+"?page=abc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, eventsBasePath+"?locationId=nope", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSearchEvents(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.searchFn = func(_ context.Context, query string, params pagination.Params) (pagination.Page[service.Event], error) {
		require.Equal(t, "beach", query)
		require.Zero(t, params.Page)
		return pagination.NewPage[service.Event](nil, 0, pagination.Params{Page: 1, PageSize: 50}), nil
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, eventsBasePath+"/search?q=beach", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"items":[],"total":0,"page":1,"pageSize":50,"totalPages":0}`, rec.Body.String())
}

func TestHandlerCreateEventConflict(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.createFn = func(_ context.Context, input service.CreateInput) (service.Event, error) {
		require.Equal(t, "Cocktails", input.Name)
		return service.Event{}, result.SchedulingConflict("event overlaps another event at the same location",
			[]service.ConflictingEvent{{ID: uuid.New(), Name: "Ceremony"}})
	}

	body := `{"name":"Cocktails","eventType":"reception","startDate":"2026-06-12T16:00:00Z"}`
	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, eventsBasePath, strings.NewReader(body)))

	require.Equal(t, http.StatusConflict, rec.Code)
	var problem httpapi.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, result.CodeSchedulingConflict, problem.Code)
	require.NotNil(t, problem.Details)
}

func TestHandlerCreateEvent(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.createFn = func(_ context.Context, input service.CreateInput) (service.Event, error) {
		return service.Event{ID: id, Name: input.Name, Slug: "ceremony", StartDate: input.StartDate}, nil
	}

	body := `{"name":"Ceremony","eventType":"ceremony","startDate":"2026-06-12T14:00:00Z"}`
	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, eventsBasePath, strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, eventsBasePath+"/"+id.String(), rec.Header().Get("Location"))
}

func TestHandlerCheckConflicts(t *testing.T) {
	t.Parallel()

	location := uuid.New()
	exclude := uuid.New()
	svc := &mockService{}
	svc.conflictsFn = func(_ context.Context, query service.ConflictQuery) (service.ConflictResult, error) {
		require.Equal(t, location, *query.LocationID)
		require.Equal(t, exclude, *query.ExcludeEventID)
		require.Nil(t, query.EndDate)
		return service.ConflictResult{ConflictingEvents: []service.ConflictingEvent{}}, nil
	}

	body := `{"locationId":"` + location.String() + `","startDate":"2026-06-12T14:00:00Z","excludeEventId":"` + exclude.String() + `"}`
	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, eventsBasePath+"/conflicts", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"hasConflict":false,"conflictingEvents":[]}`, rec.Body.String())
}

func TestHandlerEventLifecycle(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.getBySlugFn = func(_ context.Context, slug string) (service.Event, error) {
		return service.Event{}, result.NotFound("event not found")
	}
	svc.updateFn = func(_ context.Context, got uuid.UUID, input service.UpdateInput) (service.Event, error) {
		require.Equal(t, "published", *input.Status)
		return service.Event{ID: got, Status: *input.Status}, nil
	}
	svc.deleteFn = func(_ context.Context, got uuid.UUID, opts lifecycle.DeleteOptions) error {
		require.False(t, opts.Permanent)
		require.Nil(t, opts.DeletedBy)
		return nil
	}
	svc.restoreFn = func(_ context.Context, got uuid.UUID) (service.Event, error) {
		return service.Event{ID: got}, nil
	}
	svc.referencesFn = func(context.Context, uuid.UUID) (lifecycle.References, error) {
		return lifecycle.NewReferences(lifecycle.DependentRecord{Type: "activities", Count: 1}), nil
	}
	router := newRouter(t, svc)
	base := eventsBasePath + "/" + id.String()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, eventsBasePath+"/slug/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, base, strings.NewReader(`{"status":"published"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, base, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base+"/restore", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"/references", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"totalCount":1`)
}
