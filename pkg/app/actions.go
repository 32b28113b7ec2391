package app

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/logging"
	"github.com/grovetools/seqrkit/pkg/gateway"
	"github.com/grovetools/seqrkit/pkg/models"
	"github.com/grovetools/seqrkit/pkg/reducer"
	"github.com/grovetools/seqrkit/pkg/store"
	"github.com/sirupsen/logrus"
)

// API endpoints.
const (
	UsersURL         = "/api/data_management/get_all_users"
	SearchURL        = "/api/search"
	projectDetailURL = "/api/project/%s/details"
	projectUpdateURL = "/api/project/%s/update"
	setPasswordURL   = "/api/users/%s/set_password"
)

// API is the remote API as used by the action creators. *gateway.Client
// satisfies it.
type API interface {
	Get(ctx context.Context, url string, params map[string]any) (gateway.Response, error)
	Post(ctx context.Context, url string, body any) (gateway.Response, error)
}

// Actions issues requests and dispatches their outcomes.
type Actions struct {
	store  store.Dispatcher
	api    API
	logger *logrus.Entry

	mu          sync.Mutex
	searchQuery string
}

// NewActions creates the action creators over a store and an API.
func NewActions(d store.Dispatcher, api API) *Actions {
	return &Actions{
		store:  d,
		api:    api,
		logger: logging.NewLogger("app"),
	}
}

type loadOptions struct {
	skipIfLoading bool
}

// LoadOption configures a load action.
type LoadOption func(*loadOptions)

// SkipIfLoading makes a load a no-op while the same load is in flight.
func SkipIfLoading() LoadOption {
	return func(o *loadOptions) { o.skipIfLoading = true }
}

// SetCurrentUser records the signed-in user.
func (a *Actions) SetCurrentUser(ctx context.Context, user models.User) error {
	return a.store.Dispatch(ctx, reducer.Set{Type: UpdateCurrentUser, Value: user})
}

// LoadUsers fetches every user. Without SkipIfLoading a second call while
// loading starts a new request.
func (a *Actions) LoadUsers(ctx context.Context, opts ...LoadOption) error {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.skipIfLoading && UsersLoading(a.store.Get()).IsLoading {
		a.logger.Debug("users already loading, skipping")
		return nil
	}

	if err := a.store.Dispatch(ctx, reducer.Request{Type: RequestUsers}); err != nil {
		return err
	}

	var body struct {
		Users []models.User `json:"users"`
	}
	resp, err := a.api.Get(ctx, UsersURL, nil)
	if err == nil {
		err = resp.Decode(&body)
	}
	if err != nil {
		return a.fail(ctx, ReceiveUsers, err)
	}
	if body.Users == nil {
		body.Users = []models.User{}
	}

	return a.store.Dispatch(ctx, reducer.Batch{
		reducer.Set{Type: UpdateUsers, Value: body.Users},
		reducer.Receive{Type: ReceiveUsers},
	})
}

// LoadProject fetches one project with its families.
func (a *Actions) LoadProject(ctx context.Context, guid string, opts ...LoadOption) error {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.skipIfLoading && ProjectsLoading(a.store.Get()).IsLoading {
		return nil
	}

	if err := a.store.Dispatch(ctx, reducer.Request{Type: RequestProjects}); err != nil {
		return err
	}

	resp, err := a.api.Get(ctx, fmt.Sprintf(projectDetailURL, url.PathEscape(guid)), nil)
	var patch reducer.Patch
	if err == nil {
		patch, err = entityPatch(resp)
	}
	if err != nil {
		return a.fail(ctx, ReceiveProjects, err)
	}

	return a.store.Dispatch(ctx, reducer.Batch{
		patch,
		reducer.Receive{Type: ReceiveProjects},
	})
}

// UpdateProject applies updates to a project immediately and posts them. If
// the post fails the project is restored to its prior record.
func (a *Actions) UpdateProject(ctx context.Context, guid string, updates reducer.Record) error {
	previous, existed := ProjectsByGUID(a.store.Get())[guid]

	if err := a.store.Dispatch(ctx, projectPatch(guid, updates)); err != nil {
		return err
	}

	resp, err := a.api.Post(ctx, fmt.Sprintf(projectUpdateURL, url.PathEscape(guid)), updates)
	if err != nil {
		a.logger.WithError(err).WithField("project", guid).Warn("project update failed, rolling back")
		rollback := reducer.Batch{projectPatch(guid, nil)}
		if existed {
			rollback = append(rollback, projectPatch(guid, previous))
		}
		if dispatchErr := a.store.Dispatch(ctx, rollback); dispatchErr != nil {
			return dispatchErr
		}
		return err
	}

	patch, err := entityPatch(resp)
	if err != nil {
		return err
	}
	if len(patch.Groups) == 0 {
		return nil
	}
	return a.store.Dispatch(ctx, patch)
}

// SetPassword changes a user's password.
func (a *Actions) SetPassword(ctx context.Context, username, password string) error {
	_, err := a.api.Post(ctx, fmt.Sprintf(setPasswordURL, url.PathEscape(username)), map[string]any{
		"password": password,
	})
	return err
}

// UpdateSettings merges updates into the UI settings.
func (a *Actions) UpdateSettings(ctx context.Context, updates map[string]any) error {
	return a.store.Dispatch(ctx, reducer.Merge{Type: UpdateUISettings, Updates: updates})
}

// Search runs a search for query. Responses for a query that is no longer
// the latest one are dropped, so out-of-order replies cannot overwrite newer
// results.
func (a *Actions) Search(ctx context.Context, query string) error {
	a.mu.Lock()
	a.searchQuery = query
	a.mu.Unlock()

	if err := a.store.Dispatch(ctx, reducer.Request{Type: RequestSearch}); err != nil {
		return err
	}

	resp, err := a.api.Get(ctx, SearchURL, map[string]any{"query": query})
	if !a.isLatest(query, resp.Params) {
		a.logger.WithField("query", query).Debug("dropping stale search response")
		return nil
	}

	var body struct {
		Results []reducer.Record `json:"results"`
	}
	if err == nil {
		err = resp.Decode(&body)
	}
	if err != nil {
		return a.fail(ctx, ReceiveSearch, err)
	}
	if body.Results == nil {
		body.Results = []reducer.Record{}
	}

	return a.store.Dispatch(ctx, reducer.Batch{
		reducer.Set{Type: UpdateSearchResults, Value: body.Results},
		reducer.Receive{Type: ReceiveSearch},
	})
}

// isLatest compares the query a response answers against the live query.
func (a *Actions) isLatest(query string, params any) bool {
	if echoed, ok := params.(map[string]any); ok {
		if q, ok := echoed["query"].(string); ok {
			query = q
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return query == a.searchQuery
}

func (a *Actions) fail(ctx context.Context, receiveType string, err error) error {
	if dispatchErr := a.store.Dispatch(ctx, reducer.Receive{Type: receiveType, Err: err}); dispatchErr != nil {
		return dispatchErr
	}
	return err
}

func projectPatch(guid string, rec reducer.Record) reducer.Patch {
	return reducer.Patch{
		Type: UpdateEntities,
		Groups: map[string]map[string]reducer.Record{
			SliceProjectsByGUID: {guid: rec},
		},
	}
}

// entityPatch turns a response carrying entity tables keyed by slice name
// into one grouped patch. A null entry deletes that id.
func entityPatch(resp gateway.Response) (reducer.Patch, error) {
	body, err := resp.JSON()
	if err != nil {
		return reducer.Patch{}, err
	}

	patch := reducer.Patch{Type: UpdateEntities, Groups: map[string]map[string]reducer.Record{}}
	for _, group := range []string{SliceProjectsByGUID, SliceFamiliesByGUID} {
		raw, ok := body[group]
		if !ok {
			continue
		}
		table, ok := raw.(map[string]any)
		if !ok {
			return reducer.Patch{}, errors.New(errors.ErrCodeDecode, fmt.Sprintf("%s must be an object", group))
		}
		updates := make(map[string]reducer.Record, len(table))
		for id, value := range table {
			if value == nil {
				updates[id] = nil
				continue
			}
			rec, ok := value.(map[string]any)
			if !ok {
				return reducer.Patch{}, errors.New(errors.ErrCodeDecode, fmt.Sprintf("%s.%s must be an object", group, id))
			}
			updates[id] = reducer.Record(rec)
		}
		patch.Groups[group] = updates
	}
	return patch, nil
}
