package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/wedding-admin/platform/go/events"
	"github.com/zenGate-Global/wedding-admin/platform/go/lifecycle"
	"github.com/zenGate-Global/wedding-admin/platform/go/pagination"
	"github.com/zenGate-Global/wedding-admin/platform/go/persistence"
	"github.com/zenGate-Global/wedding-admin/platform/go/result"
)

type mockRepository struct {
	createFn          func(ctx context.Context, id uuid.UUID, fields persistence.EventFields, at time.Time) (persistence.EventRecord, error)
	getFn             func(ctx context.Context, id uuid.UUID) (persistence.EventRecord, error)
	getBySlugFn       func(ctx context.Context, slug string) (persistence.EventRecord, error)
	updateFn          func(ctx context.Context, id uuid.UUID, fields persistence.EventFields, at time.Time) (persistence.EventRecord, error)
	listFn            func(ctx context.Context, params persistence.ListEventsParams) (persistence.ListEventsResult, error)
	atLocationFn      func(ctx context.Context, locationID uuid.UUID, excludeID *uuid.UUID) ([]persistence.EventRecord, error)
	slugExistsFn      func(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	softDeleteFn      func(ctx context.Context, id uuid.UUID, at time.Time, deletedBy *string) error
	deleteFn          func(ctx context.Context, id uuid.UUID, at time.Time) error
	restoreFn         func(ctx context.Context, id uuid.UUID) (persistence.EventRecord, error)
	countActivitiesFn func(ctx context.Context, id uuid.UUID) (int, error)
	countRSVPsFn      func(ctx context.Context, id uuid.UUID) (int, error)
	countReferencesFn func(ctx context.Context, id uuid.UUID) (int, error)
}

func (m *mockRepository) Create(ctx context.Context, id uuid.UUID, fields persistence.EventFields, at time.Time) (persistence.EventRecord, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, id, fields, at)
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (persistence.EventRecord, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockRepository) GetBySlug(ctx context.Context, slug string) (persistence.EventRecord, error) {
	if m.getBySlugFn == nil {
		panic("getBySlugFn not configured")
	}
	return m.getBySlugFn(ctx, slug)
}

func (m *mockRepository) Update(ctx context.Context, id uuid.UUID, fields persistence.EventFields, at time.Time) (persistence.EventRecord, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, id, fields, at)
}

func (m *mockRepository) List(ctx context.Context, params persistence.ListEventsParams) (persistence.ListEventsResult, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, params)
}

func (m *mockRepository) AtLocation(ctx context.Context, locationID uuid.UUID, excludeID *uuid.UUID) ([]persistence.EventRecord, error) {
	if m.atLocationFn == nil {
		panic("atLocationFn not configured")
	}
	return m.atLocationFn(ctx, locationID, excludeID)
}

func (m *mockRepository) SlugExists(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
	if m.slugExistsFn == nil {
		panic("slugExistsFn not configured")
	}
	return m.slugExistsFn(ctx, slug, excludeID)
}

func (m *mockRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time, deletedBy *string) error {
	if m.softDeleteFn == nil {
		panic("softDeleteFn not configured")
	}
	return m.softDeleteFn(ctx, id, at, deletedBy)
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, id, at)
}

func (m *mockRepository) Restore(ctx context.Context, id uuid.UUID) (persistence.EventRecord, error) {
	if m.restoreFn == nil {
		panic("restoreFn not configured")
	}
	return m.restoreFn(ctx, id)
}

func (m *mockRepository) CountActivities(ctx context.Context, id uuid.UUID) (int, error) {
	if m.countActivitiesFn == nil {
		panic("countActivitiesFn not configured")
	}
	return m.countActivitiesFn(ctx, id)
}

func (m *mockRepository) CountRSVPs(ctx context.Context, id uuid.UUID) (int, error) {
	if m.countRSVPsFn == nil {
		panic("countRSVPsFn not configured")
	}
	return m.countRSVPsFn(ctx, id)
}

func (m *mockRepository) CountReferences(ctx context.Context, id uuid.UUID) (int, error) {
	if m.countReferencesFn == nil {
		panic("countReferencesFn not configured")
	}
	return m.countReferencesFn(ctx, id)
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newTestService(repo *mockRepository, now time.Time) (*service, *recordingPublisher) {
	publisher := &recordingPublisher{}
	svc := New(repo, publisher).(*service)
	svc.now = func() time.Time { return now }
	return svc, publisher
}

func at(hour int) time.Time {
	return time.Date(2026, time.June, 12, hour, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func echoEvent(id uuid.UUID, fields persistence.EventFields, now time.Time) persistence.EventRecord {
	return persistence.EventRecord{
		ID: id, Name: fields.Name, Slug: fields.Slug, Description: fields.Description, EventType: fields.EventType,
		LocationID: fields.LocationID, StartDate: fields.StartDate, EndDate: fields.EndDate,
		RSVPRequired: fields.RSVPRequired, RSVPDeadline: fields.RSVPDeadline, Status: fields.Status,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestCreateGeneratesUniqueSlug(t *testing.T) {
	t.Parallel()

	now := at(8)
	repo := &mockRepository{
		slugExistsFn: func(_ context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
			require.Nil(t, excludeID)
			return slug == "welcome-dinner", nil
		},
		createFn: func(_ context.Context, id uuid.UUID, fields persistence.EventFields, created time.Time) (persistence.EventRecord, error) {
			require.Equal(t, now, created)
			return echoEvent(id, fields, created), nil
		},
	}
	svc, _ := newTestService(repo, now)

	description := `<p>Dress code</p><img src=x onerror="alert(1)">`
	event, err := svc.Create(context.Background(), CreateInput{
		Name:        "Welcome Dinner",
		Description: &description,
		EventType:   "dinner",
		StartDate:   at(19),
	})
	require.NoError(t, err)
	require.Equal(t, "welcome-dinner-2", event.Slug)
	require.Equal(t, StatusDraft, event.Status)
	require.NotContains(t, *event.Description, "onerror")
}

func TestCreateValidatesDates(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&mockRepository{}, at(8))

	_, err := svc.Create(context.Background(), CreateInput{
		Name:      "Brunch",
		EventType: "meal",
		StartDate: at(11),
		EndDate:   timePtr(at(10)),
	})
	appErr, ok := result.As(err)
	require.True(t, ok)
	require.Contains(t, appErr.Fields, "endDate")

	_, err = svc.Create(context.Background(), CreateInput{EventType: "meal"})
	appErr, ok = result.As(err)
	require.True(t, ok)
	require.Contains(t, appErr.Fields, "name")
	require.Contains(t, appErr.Fields, "startDate")
}

func TestCreateRejectsSchedulingConflict(t *testing.T) {
	t.Parallel()

	location := uuid.New()
	existing := persistence.EventRecord{ID: uuid.New(), Name: "Ceremony", LocationID: &location, StartDate: at(14), EndDate: timePtr(at(16))}

	repo := &mockRepository{
		atLocationFn: func(_ context.Context, got uuid.UUID, excludeID *uuid.UUID) ([]persistence.EventRecord, error) {
			require.Equal(t, location, got)
			require.Nil(t, excludeID)
			return []persistence.EventRecord{existing}, nil
		},
	}
	svc, _ := newTestService(repo, at(8))

	_, err := svc.Create(context.Background(), CreateInput{
		Name: "Cocktails", EventType: "reception", LocationID: &location,
		StartDate: at(16), EndDate: timePtr(at(18)),
	})

	appErr, ok := result.As(err)
	require.True(t, ok)
	require.Equal(t, result.CodeSchedulingConflict, appErr.Code)

	conflicts, ok := appErr.Details.([]ConflictingEvent)
	require.True(t, ok)
	require.Len(t, conflicts, 1)
	require.Equal(t, existing.ID, conflicts[0].ID)
}

func TestCheckSchedulingConflicts(t *testing.T) {
	t.Parallel()

	location := uuid.New()
	early := persistence.EventRecord{ID: uuid.New(), Name: "Brunch", LocationID: &location, StartDate: at(9), EndDate: timePtr(at(12))}
	late := persistence.EventRecord{ID: uuid.New(), Name: "Party", LocationID: &location, StartDate: at(20)}

	repo := &mockRepository{
		atLocationFn: func(context.Context, uuid.UUID, *uuid.UUID) ([]persistence.EventRecord, error) {
			return []persistence.EventRecord{late, early}, nil
		},
	}
	svc, _ := newTestService(repo, at(8))

	res, err := svc.CheckSchedulingConflicts(context.Background(), ConflictQuery{
		LocationID: &location, StartDate: at(11), EndDate: timePtr(at(20)),
	})
	require.NoError(t, err)
	require.True(t, res.HasConflict)
	require.Len(t, res.ConflictingEvents, 2)
	require.Equal(t, early.ID, res.ConflictingEvents[0].ID)

	res, err = svc.CheckSchedulingConflicts(context.Background(), ConflictQuery{StartDate: at(11)})
	require.NoError(t, err)
	require.False(t, res.HasConflict)
	require.NotNil(t, res.ConflictingEvents)
}

func TestUpdateMergesAndRechecksConflictsExcludingSelf(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	location := uuid.New()
	current := persistence.EventRecord{
		ID: id, Name: "Ceremony", Slug: "ceremony", EventType: "ceremony",
		LocationID: &location, StartDate: at(14), EndDate: timePtr(at(15)), Status: StatusDraft,
	}

	var conflictChecked bool
	repo := &mockRepository{
		getFn: func(context.Context, uuid.UUID) (persistence.EventRecord, error) { return current, nil },
		atLocationFn: func(_ context.Context, got uuid.UUID, excludeID *uuid.UUID) ([]persistence.EventRecord, error) {
			conflictChecked = true
			require.Equal(t, location, got)
			require.Equal(t, id, *excludeID)
			return nil, nil
		},
		updateFn: func(_ context.Context, got uuid.UUID, fields persistence.EventFields, updated time.Time) (persistence.EventRecord, error) {
			require.Equal(t, "ceremony", fields.Slug)
			require.Equal(t, "Ceremony", fields.Name)
			require.Equal(t, at(15), fields.StartDate)
			require.Equal(t, at(16), *fields.EndDate)
			return echoEvent(got, fields, updated), nil
		},
	}
	svc, _ := newTestService(repo, at(8))

	event, err := svc.Update(context.Background(), id, UpdateInput{StartDate: timePtr(at(15)), EndDate: timePtr(at(16))})
	require.NoError(t, err)
	require.True(t, conflictChecked)
	require.Equal(t, at(15), event.StartDate)
}

func TestUpdateRejectsEndBeforeMergedStart(t *testing.T) {
	t.Parallel()

	current := persistence.EventRecord{ID: uuid.New(), Name: "Ceremony", StartDate: at(14)}
	repo := &mockRepository{
		getFn: func(context.Context, uuid.UUID) (persistence.EventRecord, error) { return current, nil },
	}
	svc, _ := newTestService(repo, at(8))

	_, err := svc.Update(context.Background(), current.ID, UpdateInput{EndDate: timePtr(at(13))})
	appErr, ok := result.As(err)
	require.True(t, ok)
	require.Contains(t, appErr.Fields, "endDate")
}

func TestUpdateExplicitSlug(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	repo := &mockRepository{
		getFn: func(context.Context, uuid.UUID) (persistence.EventRecord, error) {
			return persistence.EventRecord{ID: id, Name: "Ceremony", Slug: "ceremony", StartDate: at(14)}, nil
		},
		slugExistsFn: func(_ context.Context, slug string, excludeID *uuid.UUID) (bool, error) {
			require.Equal(t, id, *excludeID)
			return false, nil
		},
		updateFn: func(_ context.Context, got uuid.UUID, fields persistence.EventFields, updated time.Time) (persistence.EventRecord, error) {
			return echoEvent(got, fields, updated), nil
		},
	}
	svc, _ := newTestService(repo, at(8))

	slug := "The Big Day"
	event, err := svc.Update(context.Background(), id, UpdateInput{Slug: &slug})
	require.NoError(t, err)
	require.Equal(t, "the-big-day", event.Slug)

	empty := "!!!"
	_, err = svc.Update(context.Background(), id, UpdateInput{Slug: &empty})
	appErr, ok := result.As(err)
	require.True(t, ok)
	require.Contains(t, appErr.Fields, "slug")
}

func TestListNormalizesPagination(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		listFn: func(_ context.Context, params persistence.ListEventsParams) (persistence.ListEventsResult, error) {
			require.Equal(t, 1, params.Page)
			require.Equal(t, pagination.MaxPageSize, params.PageSize)
			require.Equal(t, "ceremony", *params.EventType)
			return persistence.ListEventsResult{Events: []persistence.EventRecord{{ID: uuid.New()}}, Total: 101}, nil
		},
	}
	svc, _ := newTestService(repo, at(8))

	eventType := "ceremony"
	page, err := svc.List(context.Background(), ListParams{EventType: &eventType, Params: pagination.Params{PageSize: 500}})
	require.NoError(t, err)
	require.Equal(t, 101, page.Total)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)

	bad := "archived"
	_, err = svc.List(context.Background(), ListParams{Status: &bad})
	require.Equal(t, result.CodeValidation, result.CodeOf(err))
}

func TestSearch(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		listFn: func(_ context.Context, params persistence.ListEventsParams) (persistence.ListEventsResult, error) {
			require.Equal(t, "beach", *params.Search)
			require.Equal(t, pagination.DefaultPageSize, params.PageSize)
			return persistence.ListEventsResult{Events: []persistence.EventRecord{}}, nil
		},
	}
	svc, _ := newTestService(repo, at(8))

	page, err := svc.Search(context.Background(), "beach", pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Zero(t, page.TotalPages)
}

func TestDeleteAndRestorePublishEvents(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	now := at(9)
	admin := "admin-3"

	repo := &mockRepository{
		softDeleteFn: func(_ context.Context, got uuid.UUID, deletedAt time.Time, deletedBy *string) error {
			require.Equal(t, id, got)
			require.Equal(t, now, deletedAt)
			require.Equal(t, &admin, deletedBy)
			return nil
		},
		deleteFn: func(_ context.Context, got uuid.UUID, deletedAt time.Time) error {
			return persistence.ErrNotFound
		},
		restoreFn: func(_ context.Context, got uuid.UUID) (persistence.EventRecord, error) {
			return persistence.EventRecord{ID: got}, nil
		},
	}
	svc, publisher := newTestService(repo, now)

	require.NoError(t, svc.Delete(context.Background(), id, lifecycle.DeleteOptions{DeletedBy: &admin}))
	err := svc.Delete(context.Background(), id, lifecycle.DeleteOptions{Permanent: true})
	require.Equal(t, result.CodeNotFound, result.CodeOf(err))

	_, err = svc.Restore(context.Background(), id)
	require.NoError(t, err)

	require.Len(t, publisher.events, 2)
	require.Equal(t, events.TypeEventDeleted, publisher.events[0].Type)
	require.JSONEq(t, `{"permanent":false}`, string(publisher.events[0].Payload))
	require.Equal(t, events.TypeEventRestored, publisher.events[1].Type)
}

func TestCheckReferences(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{
		countActivitiesFn: func(context.Context, uuid.UUID) (int, error) { return 2, nil },
		countRSVPsFn:      func(context.Context, uuid.UUID) (int, error) { return 0, nil },
		countReferencesFn: func(context.Context, uuid.UUID) (int, error) { return 1, nil },
	}
	svc, _ := newTestService(repo, at(8))

	refs, err := svc.CheckReferences(context.Background(), uuid.New())
	require.NoError(t, err)
	require.True(t, refs.HasReferences)
	require.Equal(t, 3, refs.TotalCount)
	require.Equal(t, []lifecycle.DependentRecord{{Type: "activities", Count: 2}, {Type: "references", Count: 1}}, refs.DependentRecords)

	repo.countRSVPsFn = func(context.Context, uuid.UUID) (int, error) { return 0, errors.New("timeout") }
	_, err = svc.CheckReferences(context.Background(), uuid.New())
	require.Equal(t, result.CodeDatabase, result.CodeOf(err))
}
