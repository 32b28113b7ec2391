// Package report loads scope-dependent tabular reports into the store and
// renders or exports them.
package report

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/logging"
	"github.com/grovetools/seqrkit/pkg/gateway"
	"github.com/grovetools/seqrkit/pkg/reducer"
	"github.com/grovetools/seqrkit/pkg/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize = 5
	DefaultAllScope  = "all"
	DefaultRowsKey   = "rows"
)

// Fetcher issues report requests. *gateway.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string, params map[string]any) (gateway.Response, error)
}

// ScopeLister returns the scopes the all-scope fans out over.
type ScopeLister func(ctx context.Context) ([]string, error)

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize bounds how many requests run at once for the all scope.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithAllScope sets the sentinel scope that fans out over every scope.
func WithAllScope(scope string) Option {
	return func(l *Loader) { l.allScope = scope }
}

// WithRowsKey sets the response field that holds the rows.
func WithRowsKey(key string) Option {
	return func(l *Loader) { l.rowsKey = key }
}

// WithScopeLister sets where the all scope gets its scopes from.
func WithScopeLister(fn ScopeLister) Option {
	return func(l *Loader) { l.listScopes = fn }
}

// WithURL overrides the endpoint for a scope.
func WithURL(fn func(scope string) string) Option {
	return func(l *Loader) { l.url = fn }
}

// Loader fetches rows for the current scope and stores them under its own
// rows and loading slices.
type Loader struct {
	name       string
	fetcher    Fetcher
	dispatcher store.Dispatcher

	batchSize  int
	allScope   string
	rowsKey    string
	listScopes ScopeLister
	url        func(scope string) string

	mu         sync.Mutex
	scope      string
	generation int

	logger *logrus.Entry
}

// NewLoader creates a loader for the report called name. Rows are fetched
// from /api/report/<name>/<scope> unless WithURL says otherwise.
func NewLoader(name string, fetcher Fetcher, dispatcher store.Dispatcher, opts ...Option) *Loader {
	l := &Loader{
		name:       name,
		fetcher:    fetcher,
		dispatcher: dispatcher,
		batchSize:  DefaultBatchSize,
		allScope:   DefaultAllScope,
		rowsKey:    DefaultRowsKey,
	}
	l.url = func(scope string) string { return fmt.Sprintf("/api/report/%s/%s", name, scope) }
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.NewLogger("report").WithField("report", name)
	return l
}

// Attach points the loader at the store built from its slices.
func (l *Loader) Attach(d store.Dispatcher) {
	l.dispatcher = d
}

func (l *Loader) actionName() string {
	return strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(l.name))
}

// RequestType is the action dispatched when a load starts.
func (l *Loader) RequestType() string { return "REQUEST_" + l.actionName() }

// ReceiveType is the action dispatched when a load ends.
func (l *Loader) ReceiveType() string { return "RECEIVE_" + l.actionName() }

// UpdateType is the action that replaces the rows.
func (l *Loader) UpdateType() string { return "UPDATE_" + l.actionName() + "_ROWS" }

// RowsSlice names the slice holding the rows.
func (l *Loader) RowsSlice() string { return l.name + "Rows" }

// LoadingSlice names the slice holding the load status.
func (l *Loader) LoadingSlice() string { return l.name + "Loading" }

// Slices returns the store slices this loader writes to.
func (l *Loader) Slices() []store.Slice {
	return []store.Slice{
		store.Register(l.RowsSlice(), reducer.Value(l.UpdateType(), []Row{})),
		store.Register(l.LoadingSlice(), reducer.Loading(l.RequestType(), l.ReceiveType())),
	}
}

// Rows selects the loaded rows.
func (l *Loader) Rows(state store.State) []Row {
	return store.Select[[]Row](state, l.RowsSlice())
}

// Status selects the load status.
func (l *Loader) Status(state store.State) reducer.LoadStatus {
	return store.Select[reducer.LoadStatus](state, l.LoadingSlice())
}

// Scope returns the current scope.
func (l *Loader) Scope() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scope
}

// SetScope loads rows when scope differs from the current scope. Any load in
// flight for the previous scope is superseded. An empty scope clears the
// stored rows without fetching.
func (l *Loader) SetScope(ctx context.Context, scope string) error {
	l.mu.Lock()
	if scope == l.scope {
		l.mu.Unlock()
		return nil
	}
	l.scope = scope
	l.generation++
	l.mu.Unlock()

	if scope == "" {
		l.logger.Debug("scope cleared")
		return l.dispatcher.Dispatch(ctx, reducer.Batch{
			reducer.Set{Type: l.UpdateType(), Value: []Row{}},
			reducer.Receive{Type: l.ReceiveType()},
		})
	}
	return l.Load(ctx)
}

// Load fetches rows for the current scope and replaces the stored rows. A
// response for a scope that is no longer current is dropped.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	scope := l.scope
	l.generation++
	generation := l.generation
	l.mu.Unlock()

	if scope == "" {
		return errors.New(errors.ErrCodeInvalidInput, "report scope is empty")
	}

	if err := l.dispatcher.Dispatch(ctx, reducer.Request{Type: l.RequestType()}); err != nil {
		return err
	}

	logger := l.logger.WithField("scope", scope)
	var rows []Row
	var fetchErr error
	if scope == l.allScope {
		rows, fetchErr = l.fetchAll(ctx)
	} else {
		rows, fetchErr = l.fetchScope(ctx, scope)
	}

	l.mu.Lock()
	stale := generation != l.generation
	l.mu.Unlock()
	if stale {
		logger.Debug("dropping rows for superseded load")
		return nil
	}

	if fetchErr != nil {
		logger.WithError(fetchErr).Warn("report load failed")
		if err := l.dispatcher.Dispatch(ctx, reducer.Batch{
			reducer.Set{Type: l.UpdateType(), Value: []Row{}},
			reducer.Receive{Type: l.ReceiveType(), Err: fetchErr},
		}); err != nil {
			return err
		}
		return fetchErr
	}

	logger.WithField("rows", len(rows)).Debug("report loaded")
	return l.dispatcher.Dispatch(ctx, reducer.Batch{
		reducer.Set{Type: l.UpdateType(), Value: rows},
		reducer.Receive{Type: l.ReceiveType()},
	})
}

func (l *Loader) fetchScope(ctx context.Context, scope string) ([]Row, error) {
	resp, err := l.fetcher.Get(ctx, l.url(scope), nil)
	if err != nil {
		return nil, err
	}
	body, err := resp.JSON()
	if err != nil {
		return nil, err
	}
	return rowsFrom(body[l.rowsKey])
}

// fetchAll fetches every scope in batches. Requests within a batch run
// concurrently; a batch starts only after the previous one has settled. Any
// failure fails the whole load.
func (l *Loader) fetchAll(ctx context.Context) ([]Row, error) {
	if l.listScopes == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "report has no scope lister for the all scope")
	}
	scopes, err := l.listScopes(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]Row, len(scopes))
	failures := make([]error, len(scopes))

	for start := 0; start < len(scopes); start += l.batchSize {
		end := start + l.batchSize
		if end > len(scopes) {
			end = len(scopes)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				results[i], failures[i] = l.fetchScope(ctx, scopes[i])
				return nil
			})
		}
		_ = g.Wait()

		l.logger.WithFields(logrus.Fields{
			"batch_start": start,
			"batch_size":  end - start,
		}).Debug("batch settled")
	}

	var messages []string
	for _, err := range failures {
		if err != nil {
			messages = append(messages, reducer.ErrorMessage(err))
		}
	}
	if len(messages) > 0 {
		return nil, errors.PartialFetch(messages)
	}

	var rows []Row
	for _, r := range results {
		rows = append(rows, r...)
	}
	if rows == nil {
		rows = []Row{}
	}
	return rows, nil
}

func rowsFrom(raw any) ([]Row, error) {
	if raw == nil {
		return []Row{}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeDecode, fmt.Sprintf("report rows must be a list, got %T", raw))
	}
	rows := make([]Row, 0, len(list))
	for _, item := range list {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, errors.New(errors.ErrCodeDecode, fmt.Sprintf("report row must be an object, got %T", item))
		}
		rows = append(rows, Row(record))
	}
	return rows, nil
}
