package app

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/pkg/gateway"
	"github.com/grovetools/seqrkit/pkg/models"
	"github.com/grovetools/seqrkit/pkg/reducer"
	"github.com/grovetools/seqrkit/pkg/store"
	"github.com/grovetools/seqrkit/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, settings reducer.Record) *store.Store {
	t.Helper()
	s := store.New(Slices(settings)...)
	s.Start(context.Background())
	t.Cleanup(func() {
		require.NoError(t, s.Stop(context.Background()))
	})
	return s
}

func newTestActions(t *testing.T, routes map[string]http.HandlerFunc) (*Actions, *store.Store, *testutil.APIServer) {
	t.Helper()
	api := testutil.NewAPIServer(t, routes)
	s := newTestStore(t, nil)
	return NewActions(s, gateway.New(api.URL)), s, api
}

func TestInitialState(t *testing.T) {
	s := newTestStore(t, reducer.Record{"sortOrder": "name"})
	state := s.Get()

	assert.Equal(t, models.User{}, CurrentUser(state))
	assert.Empty(t, Users(state))
	assert.Equal(t, reducer.LoadStatus{}, UsersLoading(state))
	assert.Empty(t, ProjectsByGUID(state))
	assert.Equal(t, reducer.Record{"sortOrder": "name"}, UISettings(state))
	assert.Empty(t, SearchResults(state))
}

func TestLoadUsers(t *testing.T) {
	actions, s, api := newTestActions(t, map[string]http.HandlerFunc{
		"GET " + UsersURL: testutil.JSON(http.StatusOK, map[string]any{
			"users": []map[string]any{
				{"username": "alice", "email": "a@example.org", "isAnalyst": true},
				{"username": "bob", "email": "b@example.org"},
			},
		}),
	})

	require.NoError(t, actions.LoadUsers(context.Background()))

	state := s.Get()
	users := Users(state)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.True(t, users[0].IsAnalyst)
	assert.Equal(t, reducer.LoadStatus{}, UsersLoading(state))
	assert.Len(t, api.Calls(), 1)
}

func TestLoadUsersFailure(t *testing.T) {
	actions, s, _ := newTestActions(t, map[string]http.HandlerFunc{
		"GET " + UsersURL: testutil.JSON(http.StatusForbidden, map[string]any{"error": "permission denied"}),
	})

	err := actions.LoadUsers(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeHTTPStatus))
	status := UsersLoading(s.Get())
	assert.False(t, status.IsLoading)
	assert.Equal(t, "permission denied", status.ErrorMessage)
	assert.Empty(t, Users(s.Get()))
}

func TestLoadUsersSkipIfLoading(t *testing.T) {
	actions, s, api := newTestActions(t, map[string]http.HandlerFunc{
		"GET " + UsersURL: testutil.JSON(http.StatusOK, map[string]any{"users": []any{}}),
	})
	ctx := context.Background()
	require.NoError(t, s.Dispatch(ctx, reducer.Request{Type: RequestUsers}))

	require.NoError(t, actions.LoadUsers(ctx, SkipIfLoading()))
	assert.Empty(t, api.Calls())

	require.NoError(t, actions.LoadUsers(ctx))
	assert.Len(t, api.Calls(), 1)
	assert.False(t, UsersLoading(s.Get()).IsLoading)
}

func TestLoadProject(t *testing.T) {
	actions, s, _ := newTestActions(t, map[string]http.HandlerFunc{
		"GET /api/project/R0001_cardio/details": testutil.JSON(http.StatusOK, map[string]any{
			"projectsByGuid": map[string]any{
				"R0001_cardio": map[string]any{"projectGuid": "R0001_cardio", "name": "Cardio", "canEdit": true},
			},
			"familiesByGuid": map[string]any{
				"F2": map[string]any{"familyGuid": "F2", "projectGuid": "R0001_cardio", "familyId": "2"},
				"F1": map[string]any{"familyGuid": "F1", "projectGuid": "R0001_cardio", "familyId": "1"},
				"F9": map[string]any{"familyGuid": "F9", "projectGuid": "R0002_other", "familyId": "9"},
			},
		}),
	})

	require.NoError(t, actions.LoadProject(context.Background(), "R0001_cardio"))

	state := s.Get()
	project, ok := Project(state, "R0001_cardio")
	require.True(t, ok)
	assert.Equal(t, "Cardio", project.Name)
	assert.True(t, project.CanEdit)

	families := ProjectFamilies(state, "R0001_cardio")
	require.Len(t, families, 2)
	assert.Equal(t, "F1", families[0].FamilyGUID)
	assert.Equal(t, "F2", families[1].FamilyGUID)
	assert.False(t, ProjectsLoading(state).IsLoading)

	_, ok = Project(state, "R0003_missing")
	assert.False(t, ok)
}

func TestLoadProjectRejectsMalformedTables(t *testing.T) {
	actions, s, _ := newTestActions(t, map[string]http.HandlerFunc{
		"GET /api/project/R1/details": testutil.JSON(http.StatusOK, map[string]any{"projectsByGuid": []string{"R1"}}),
	})

	err := actions.LoadProject(context.Background(), "R1")

	assert.True(t, errors.Is(err, errors.ErrCodeDecode))
	assert.NotEmpty(t, ProjectsLoading(s.Get()).ErrorMessage)
	assert.Empty(t, ProjectsByGUID(s.Get()))
}

func TestUpdateProject(t *testing.T) {
	seed := func(t *testing.T, s *store.Store) {
		t.Helper()
		require.NoError(t, s.Dispatch(context.Background(), projectPatch("R1", reducer.Record{
			"projectGuid": "R1", "name": "Old",
		})))
	}

	t.Run("success keeps the change and applies the response", func(t *testing.T) {
		actions, s, api := newTestActions(t, map[string]http.HandlerFunc{
			"POST /api/project/R1/update": testutil.JSON(http.StatusOK, map[string]any{
				"projectsByGuid": map[string]any{"R1": map[string]any{"lastModifiedDate": "2024-05-01"}},
			}),
		})
		seed(t, s)

		require.NoError(t, actions.UpdateProject(context.Background(), "R1", reducer.Record{"name": "New"}))

		assert.Equal(t, reducer.Record{
			"projectGuid": "R1", "name": "New", "lastModifiedDate": "2024-05-01",
		}, ProjectsByGUID(s.Get())["R1"])
		require.Len(t, api.Calls(), 1)
		assert.Equal(t, "New", api.Calls()[0].Body["name"])
	})

	t.Run("failure rolls back", func(t *testing.T) {
		actions, s, _ := newTestActions(t, map[string]http.HandlerFunc{
			"POST /api/project/R1/update": testutil.JSON(http.StatusBadRequest, map[string]any{"error": "name taken"}),
		})
		seed(t, s)
		updates := make(chan store.Update, 10)
		sub := s.Subscribe()
		defer s.Unsubscribe(sub)
		go func() {
			for u := range sub {
				updates <- u
			}
		}()

		err := actions.UpdateProject(context.Background(), "R1", reducer.Record{"name": "New", "description": "x"})

		require.Error(t, err)
		assert.Equal(t, reducer.Record{"projectGuid": "R1", "name": "Old"}, ProjectsByGUID(s.Get())["R1"])
		optimistic := <-updates
		assert.Equal(t, "New", store.Select[reducer.Table](optimistic.State, SliceProjectsByGUID)["R1"]["name"])
	})

	t.Run("failure on a new project removes it", func(t *testing.T) {
		actions, s, _ := newTestActions(t, nil)

		err := actions.UpdateProject(context.Background(), "R2", reducer.Record{"name": "Draft"})

		require.Error(t, err)
		assert.NotContains(t, ProjectsByGUID(s.Get()), "R2")
	})
}

func TestSetPassword(t *testing.T) {
	actions, _, api := newTestActions(t, map[string]http.HandlerFunc{
		"POST /api/users/alice/set_password": testutil.JSON(http.StatusOK, map[string]any{}),
	})

	require.NoError(t, actions.SetPassword(context.Background(), "alice", "hunter22"))

	calls := api.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "hunter22", calls[0].Body["password"])
}

func TestUpdateSettings(t *testing.T) {
	s := newTestStore(t, reducer.Record{"sortOrder": "name", "pageSize": 10})
	actions := NewActions(s, nil)

	require.NoError(t, actions.UpdateSettings(context.Background(), map[string]any{"pageSize": 25}))

	assert.Equal(t, reducer.Record{"sortOrder": "name", "pageSize": 25}, UISettings(s.Get()))
}

func TestSetCurrentUser(t *testing.T) {
	s := newTestStore(t, nil)
	actions := NewActions(s, nil)

	require.NoError(t, actions.SetCurrentUser(context.Background(), models.User{Username: "alice"}))

	assert.Equal(t, "alice", CurrentUser(s.Get()).Username)
}

// blockingAPI answers searches in an order the test controls.
type blockingAPI struct {
	mu      sync.Mutex
	release map[string]chan struct{}
	started chan string
}

func (b *blockingAPI) Get(ctx context.Context, url string, params map[string]any) (gateway.Response, error) {
	query := params["query"].(string)
	b.mu.Lock()
	gate := b.release[query]
	b.mu.Unlock()
	b.started <- query
	if gate != nil {
		<-gate
	}
	return gateway.Response{
		Status: http.StatusOK,
		Body:   []byte(`{"results":[{"query":"` + query + `"}]}`),
		Params: params,
	}, nil
}

func (b *blockingAPI) Post(ctx context.Context, url string, body any) (gateway.Response, error) {
	return gateway.Response{}, nil
}

func TestSearchDropsStaleResponses(t *testing.T) {
	api := &blockingAPI{
		release: map[string]chan struct{}{"BRCA": make(chan struct{})},
		started: make(chan string, 2),
	}
	s := newTestStore(t, nil)
	actions := NewActions(s, api)
	ctx := context.Background()

	slow := make(chan error, 1)
	go func() { slow <- actions.Search(ctx, "BRCA") }()
	require.Equal(t, "BRCA", <-api.started)

	require.NoError(t, actions.Search(ctx, "BRCA1"))
	<-api.started
	close(api.release["BRCA"])
	require.NoError(t, <-slow)

	assert.Equal(t, []reducer.Record{{"query": "BRCA1"}}, SearchResults(s.Get()))
}

func TestSearchFailure(t *testing.T) {
	actions, s, _ := newTestActions(t, map[string]http.HandlerFunc{
		"GET " + SearchURL: testutil.JSON(http.StatusBadRequest, map[string]any{"error": "query too short"}),
	})

	err := actions.Search(context.Background(), "B")

	require.Error(t, err)
	assert.Equal(t, "query too short", SearchLoading(s.Get()).ErrorMessage)
}
