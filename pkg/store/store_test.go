package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/pkg/reducer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(
		Register("users", reducer.Value[[]string]("UPDATE_USERS", nil)),
		Register("usersLoading", reducer.Loading("REQUEST_USERS", "RECEIVE_USERS")),
		Register("settings", reducer.Object("UPDATE_SETTINGS", reducer.Record{"page": 1})),
	)
	s.Start(context.Background())
	t.Cleanup(func() {
		require.NoError(t, s.Stop(context.Background()))
	})
	return s
}

func TestStoreInitialState(t *testing.T) {
	s := New(Register("count", reducer.Value("SET_COUNT", 3)))

	assert.Equal(t, 3, Select[int](s.Get(), "count"))
	assert.Equal(t, 0, Select[int](s.Get(), "missing"))
	assert.Equal(t, "", Select[string](s.Get(), "count"))
}

func TestDispatchBeforeStart(t *testing.T) {
	s := New(Register("count", reducer.Value("SET_COUNT", 0)))

	err := s.Dispatch(context.Background(), reducer.Set{Type: "SET_COUNT", Value: 1})

	assert.True(t, errors.Is(err, errors.ErrCodeStoreClosed))
}

func TestDispatchAppliesInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Dispatch(ctx, reducer.Request{Type: "REQUEST_USERS"}))
	assert.True(t, Select[reducer.LoadStatus](s.Get(), "usersLoading").IsLoading)

	require.NoError(t, s.Dispatch(ctx, reducer.Batch{
		reducer.Set{Type: "UPDATE_USERS", Value: []string{"alice", "bob"}},
		reducer.Receive{Type: "RECEIVE_USERS"},
	}))

	state := s.Get()
	assert.Equal(t, []string{"alice", "bob"}, Select[[]string](state, "users"))
	assert.Equal(t, reducer.LoadStatus{}, Select[reducer.LoadStatus](state, "usersLoading"))
	assert.Equal(t, reducer.Record{"page": 1}, Select[reducer.Record](state, "settings"))
}

func TestBatchProducesOneUpdate(t *testing.T) {
	s := newTestStore(t)
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	require.NoError(t, s.Dispatch(context.Background(), reducer.Batch{
		reducer.Set{Type: "UPDATE_USERS", Value: []string{"alice"}},
		reducer.Receive{Type: "RECEIVE_USERS", Err: fmt.Errorf("late")},
	}))

	select {
	case u := <-ch:
		assert.Equal(t, reducer.BatchType, u.Action.ActionType())
		assert.ElementsMatch(t, []string{"users", "usersLoading"}, u.Changed)
		assert.Equal(t, "late", Select[reducer.LoadStatus](u.State, "usersLoading").ErrorMessage)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	select {
	case u := <-ch:
		t.Fatalf("unexpected second update: %v", u.Action)
	default:
	}
}

func TestUnchangedDispatchReportsNoChanges(t *testing.T) {
	s := newTestStore(t)
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	require.NoError(t, s.Dispatch(context.Background(), reducer.Set{Type: "UNKNOWN", Value: 1}))

	u := <-ch
	assert.Empty(t, u.Changed)
}

func TestConcurrentDispatchIsSerialized(t *testing.T) {
	s := New(Register("settings", reducer.Object("UPDATE_SETTINGS", nil)))
	s.Start(context.Background())
	defer func() { require.NoError(t, s.Stop(context.Background())) }()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			assert.NoError(t, s.Dispatch(context.Background(), reducer.Merge{Type: "UPDATE_SETTINGS", Updates: map[string]any{key: i}}))
		}(i)
	}
	wg.Wait()

	assert.Len(t, Select[reducer.Record](s.Get(), "settings"), 50)
}

func TestStopEndsLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := New(Register("count", reducer.Value("SET_COUNT", 0)))
	s.Start(context.Background())
	s.Start(context.Background())
	require.NoError(t, s.Dispatch(context.Background(), reducer.Set{Type: "SET_COUNT", Value: 1}))

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	err := s.Dispatch(context.Background(), reducer.Set{Type: "SET_COUNT", Value: 2})
	assert.True(t, errors.Is(err, errors.ErrCodeStoreClosed))
	assert.Equal(t, 1, Select[int](s.Get(), "count"))
}

func TestParentContextCancelStopsLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	s := New(Register("count", reducer.Value("SET_COUNT", 0)))
	s.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		return errors.Is(s.Dispatch(context.Background(), reducer.Set{Type: "SET_COUNT", Value: 1}), errors.ErrCodeStoreClosed)
	}, time.Second, 10*time.Millisecond)
}

func TestUnsubscribeTwice(t *testing.T) {
	s := New()
	ch := s.Subscribe()
	s.Unsubscribe(ch)
	s.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)
}
