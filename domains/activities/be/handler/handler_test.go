package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/zenGate-Global/wedding-admin/domains/activities/be/service"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/pagination"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

type mockService struct {
	createFn     func(ctx context.Context, input service.CreateInput) (service.Activity, error)
	getFn        func(ctx context.Context, id uuid.UUID) (service.Activity, error)
	getBySlugFn  func(ctx context.Context, slug string) (service.Activity, error)
	listFn       func(ctx context.Context, params service.ListParams) (pagination.Page[service.Activity], error)
	searchFn     func(ctx context.Context, query string, params pagination.Params) (pagination.Page[service.Activity], error)
	updateFn     func(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Activity, error)
	deleteFn     func(ctx context.Context, id uuid.UUID, opts lifecycle.DeleteOptions) error
	restoreFn    func(ctx context.Context, id uuid.UUID) (service.Activity, error)
	referencesFn func(ctx context.Context, id uuid.UUID) (lifecycle.References, error)
	capacityFn   func(ctx context.Context, id uuid.UUID) (service.CapacityInfo, error)
	netCostFn    func(ctx context.Context, id uuid.UUID) (float64, error)
}

func (m *mockService) Create(ctx context.Context, input service.CreateInput) (service.Activity, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, input)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (service.Activity, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockService) GetBySlug(ctx context.Context, slug string) (service.Activity, error) {
	if m.getBySlugFn == nil {
		panic("getBySlugFn not configured")
	}
	return m.getBySlugFn(ctx, slug)
}

func (m *mockService) List(ctx context.Context, params service.ListParams) (pagination.Page[service.Activity], error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, params)
}

func (m *mockService) Search(ctx context.Context, query string, params pagination.Params) (pagination.Page[service.Activity], error) {
	if m.searchFn == nil {
		panic("searchFn not configured")
	}
	return m.searchFn(ctx, query, params)
}

func (m *mockService) Update(ctx context.Context, id uuid.UUID, input service.UpdateInput) (service.Activity, error) {
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

func (m *mockService) Restore(ctx context.Context, id uuid.UUID) (service.Activity, error) {
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

func (m *mockService) CapacityInfo(ctx context.Context, id uuid.UUID) (service.CapacityInfo, error) {
	if m.capacityFn == nil {
		panic("capacityFn not configured")
	}
	return m.capacityFn(ctx, id)
}

func (m *mockService) NetCost(ctx context.Context, id uuid.UUID) (float64, error) {
	if m.netCostFn == nil {
		panic("netCostFn not configured")
	}
	return m.netCostFn(ctx, id)
}

func newRouter(t *testing.T, svc service.Service) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Route(activitiesBasePath, New(svc, zaptest.NewLogger(t)).Routes)
	return r
}

func TestHandlerListActivities(t *testing.T) {
	t.Parallel()

	svc := &mockService{}
	svc.listFn = func(_ context.Context, params service.ListParams) (pagination.Page[service.Activity], error) {
		require.Equal(t, "none", *params.EventID)
		require.True(t, *params.AdultsOnly)
		require.Nil(t, params.Status)
		require.Nil(t, params.LocationID)
		require.Equal(t, 25, params.PageSize)
		return pagination.NewPage([]service.Activity{{ID: uuid.New(), Name: "Hike"}}, 1, pagination.Params{Page: 1, PageSize: 25}), nil
	}

	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, activitiesBasePath+"?eventId=none&adultsOnly=true&pageSize=25", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body pagination.Page[service.Activity]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	require.Equal(t, 1, body.TotalPages)
}

func TestHandlerListActivitiesRejectsBadQuery(t *testing.T) {
	t.Parallel()

	router := newRouter(t, &mockService{})

	for _, query := range []string{"?adultsOnly=maybe", "?startTimeFrom=tomorrow", "?locationId=beach"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, activitiesBasePath+query, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestHandlerCreateActivity(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.createFn = func(_ context.Context, input service.CreateInput) (service.Activity, error) {
		require.Equal(t, 12, *input.Capacity)
		return service.Activity{ID: id, Name: input.Name, Slug: "snorkel-trip", Capacity: input.Capacity}, nil
	}

	body := `{"name":"Snorkel trip","activityType":"excursion","startTime":"2026-06-13T09:00:00Z","capacity":12}`
	rec := httptest.NewRecorder()
	newRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, activitiesBasePath, strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, activitiesBasePath+"/"+id.String(), rec.Header().Get("Location"))
}

func TestHandlerCreateActivityRejectsUnknownField(t *testing.T) {
	t.Parallel()

	body := `{"name":"Snorkel trip","price":10}`
	rec := httptest.NewRecorder()
	newRouter(t, &mockService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, activitiesBasePath, strings.NewReader(body)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCapacityAndNetCost(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	capacity, spots := 10, 1
	svc := &mockService{}
	svc.capacityFn = func(_ context.Context, got uuid.UUID) (service.CapacityInfo, error) {
		require.Equal(t, id, got)
		return service.CapacityInfo{
			ActivityID: id, ActivityName: "Dinner", Capacity: &capacity, CurrentAttendees: 9,
			AvailableSpots: &spots, UtilizationPercentage: 90, IsNearCapacity: true,
		}, nil
	}
	svc.netCostFn = func(context.Context, uuid.UUID) (float64, error) { return 42.5, nil }
	router := newRouter(t, svc)
	base := activitiesBasePath + "/" + id.String()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"/capacity", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"isNearCapacity":true`)
	require.Contains(t, rec.Body.String(), `"availableSpots":1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"/net-cost", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"activityId":"`+id.String()+`","netCost":42.5}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, activitiesBasePath+"/not-a-uuid/capacity", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerActivityLifecycle(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	svc := &mockService{}
	svc.getFn = func(context.Context, uuid.UUID) (service.Activity, error) {
		return service.Activity{}, result.NotFound("activity not found")
	}
	svc.getBySlugFn = func(_ context.Context, slug string) (service.Activity, error) {
		return service.Activity{ID: id, Slug: slug}, nil
	}
	svc.searchFn = func(_ context.Context, query string, _ pagination.Params) (pagination.Page[service.Activity], error) {
		require.Equal(t, "yoga", query)
		return pagination.NewPage[service.Activity](nil, 0, pagination.Params{Page: 1, PageSize: 50}), nil
	}
	svc.updateFn = func(_ context.Context, got uuid.UUID, input service.UpdateInput) (service.Activity, error) {
		require.Equal(t, 20, *input.Capacity)
		return service.Activity{ID: got, Capacity: input.Capacity}, nil
	}
	svc.deleteFn = func(_ context.Context, _ uuid.UUID, opts lifecycle.DeleteOptions) error {
		require.True(t, opts.Permanent)
		return nil
	}
	svc.restoreFn = func(_ context.Context, got uuid.UUID) (service.Activity, error) {
		return service.Activity{ID: got}, nil
	}
	svc.referencesFn = func(context.Context, uuid.UUID) (lifecycle.References, error) {
		return lifecycle.NewReferences(lifecycle.DependentRecord{Type: "rsvps", Count: 3}), nil
	}
	router := newRouter(t, svc)
	base := activitiesBasePath + "/" + id.String()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, activitiesBasePath+"/slug/sunset-yoga", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"slug":"sunset-yoga"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, activitiesBasePath+"/search?q=yoga", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, base, strings.NewReader(`{"capacity":20}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, base+"?permanent=true", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base+"/restore", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"/references", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"totalCount":3`)
}
