// Package app wires the platform's state slices, the action creators that
// load and change them through the remote API, and the selectors views read.
package app

import (
	"sort"

	"github.com/grovetools/seqrkit/pkg/models"
	"github.com/grovetools/seqrkit/pkg/reducer"
	"github.com/grovetools/seqrkit/pkg/store"
)

// Slice names.
const (
	SliceUser            = "user"
	SliceUsers           = "users"
	SliceUsersLoading    = "usersLoading"
	SliceProjectsByGUID  = "projectsByGuid"
	SliceFamiliesByGUID  = "familiesByGuid"
	SliceProjectsLoading = "projectsLoading"
	SliceUISettings      = "uiSettings"
	SliceSearchResults   = "searchResults"
	SliceSearchLoading   = "searchLoading"
)

// Action types.
const (
	UpdateCurrentUser   = "UPDATE_CURRENT_USER"
	UpdateUsers         = "UPDATE_USERS"
	RequestUsers        = "REQUEST_USERS"
	ReceiveUsers        = "RECEIVE_USERS"
	UpdateEntities      = "UPDATE_ENTITIES"
	RequestProjects     = "REQUEST_PROJECTS"
	ReceiveProjects     = "RECEIVE_PROJECTS"
	UpdateUISettings    = "UPDATE_UI_SETTINGS"
	UpdateSearchResults = "UPDATE_SEARCH_RESULTS"
	RequestSearch       = "REQUEST_SEARCH"
	ReceiveSearch       = "RECEIVE_SEARCH"
)

// Slices returns every application slice. settings seeds the UI settings,
// typically from a persisted snapshot.
func Slices(settings reducer.Record) []store.Slice {
	return []store.Slice{
		store.Register(SliceUser, reducer.Value(UpdateCurrentUser, models.User{})),
		store.Register(SliceUsers, reducer.Value(UpdateUsers, []models.User{})),
		store.Register(SliceUsersLoading, reducer.Loading(RequestUsers, ReceiveUsers)),
		store.Register(SliceProjectsByGUID, reducer.ByID(UpdateEntities, nil, reducer.WithGroup(SliceProjectsByGUID))),
		store.Register(SliceFamiliesByGUID, reducer.ByID(UpdateEntities, nil, reducer.WithGroup(SliceFamiliesByGUID))),
		store.Register(SliceProjectsLoading, reducer.Loading(RequestProjects, ReceiveProjects)),
		store.Register(SliceUISettings, reducer.Object(UpdateUISettings, settings)),
		store.Register(SliceSearchResults, reducer.Value(UpdateSearchResults, []reducer.Record{})),
		store.Register(SliceSearchLoading, reducer.Loading(RequestSearch, ReceiveSearch)),
	}
}

// CurrentUser selects the signed-in user.
func CurrentUser(state store.State) models.User {
	return store.Select[models.User](state, SliceUser)
}

// Users selects all loaded users.
func Users(state store.State) []models.User {
	return store.Select[[]models.User](state, SliceUsers)
}

// UsersLoading selects the users load status.
func UsersLoading(state store.State) reducer.LoadStatus {
	return store.Select[reducer.LoadStatus](state, SliceUsersLoading)
}

// ProjectsByGUID selects the project table.
func ProjectsByGUID(state store.State) reducer.Table {
	return store.Select[reducer.Table](state, SliceProjectsByGUID)
}

// FamiliesByGUID selects the family table.
func FamiliesByGUID(state store.State) reducer.Table {
	return store.Select[reducer.Table](state, SliceFamiliesByGUID)
}

// ProjectsLoading selects the project load status.
func ProjectsLoading(state store.State) reducer.LoadStatus {
	return store.Select[reducer.LoadStatus](state, SliceProjectsLoading)
}

// UISettings selects the UI settings record.
func UISettings(state store.State) reducer.Record {
	return store.Select[reducer.Record](state, SliceUISettings)
}

// SearchResults selects the latest accepted search results.
func SearchResults(state store.State) []reducer.Record {
	return store.Select[[]reducer.Record](state, SliceSearchResults)
}

// SearchLoading selects the search load status.
func SearchLoading(state store.State) reducer.LoadStatus {
	return store.Select[reducer.LoadStatus](state, SliceSearchLoading)
}

// Project returns one project, decoded from its table record.
func Project(state store.State, guid string) (models.Project, bool) {
	rec, ok := ProjectsByGUID(state)[guid]
	if !ok {
		return models.Project{}, false
	}
	project, err := models.FromRecord[models.Project](rec)
	if err != nil {
		return models.Project{}, false
	}
	return project, true
}

// ProjectFamilies returns the families belonging to a project ordered by
// family id.
func ProjectFamilies(state store.State, projectGUID string) []models.Family {
	var families []models.Family
	for _, rec := range FamiliesByGUID(state) {
		if rec["projectGuid"] != projectGUID {
			continue
		}
		family, err := models.FromRecord[models.Family](rec)
		if err != nil {
			continue
		}
		families = append(families, family)
	}
	sort.Slice(families, func(i, j int) bool {
		return families[i].FamilyID < families[j].FamilyID
	})
	return families
}
