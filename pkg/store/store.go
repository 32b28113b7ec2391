// Package store holds application state and applies actions to it one at a
// time on a single goroutine.
package store

import (
	"context"
	"reflect"
	"sync"

	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/logging"
	"github.com/grovetools/seqrkit/pkg/reducer"
	"github.com/sirupsen/logrus"
)

// Dispatcher is the part of the store action creators depend on.
type Dispatcher interface {
	Dispatch(ctx context.Context, a reducer.Action) error
	Get() State
}

// Update is broadcast to subscribers after an action is applied.
type Update struct {
	Action  reducer.Action
	State   State
	Changed []string // names of slices whose value changed
}

type envelope struct {
	action  reducer.Action
	applied chan struct{}
}

// Store is the state container. Actions sent through Dispatch are applied
// in arrival order by the loop started with Start.
type Store struct {
	slices []Slice

	mu          sync.RWMutex
	state       State
	subscribers map[chan Update]struct{}

	actions chan envelope
	stopped chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	logger *logrus.Entry
}

// New creates a store with the given slices at their initial values.
func New(slices ...Slice) *Store {
	state := make(State, len(slices))
	for _, sl := range slices {
		state[sl.Name()] = sl.initial()
	}
	return &Store{
		slices:      slices,
		state:       state,
		subscribers: make(map[chan Update]struct{}),
		actions:     make(chan envelope),
		logger:      logging.NewLogger("store"),
	}
}

// Start begins the dispatch loop. It is a no-op if the loop is running.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.running = true

	s.wg.Add(1)
	go s.loop(loopCtx, s.stopped)
}

// Stop halts the dispatch loop and waits for it to exit.
func (s *Store) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) loop(ctx context.Context, stopped chan struct{}) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.running = false
		close(stopped)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-s.actions:
			s.apply(env.action)
			close(env.applied)
		}
	}
}

// Dispatch hands an action to the loop and waits until it has been applied.
// A Batch is applied as one step and produces one Update.
func (s *Store) Dispatch(ctx context.Context, a reducer.Action) error {
	s.mu.RLock()
	running, stopped := s.running, s.stopped
	s.mu.RUnlock()
	if !running {
		return errors.StoreClosed()
	}

	env := envelope{action: a, applied: make(chan struct{})}
	select {
	case s.actions <- env:
	case <-stopped:
		return errors.StoreClosed()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-env.applied:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) apply(a reducer.Action) {
	leaves := reducer.Flatten(a)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(State, len(s.state))
	var changed []string
	for _, sl := range s.slices {
		name := sl.Name()
		before := s.state[name]
		after := before
		for _, leaf := range leaves {
			after = sl.reduce(after, leaf)
		}
		next[name] = after
		if !reflect.DeepEqual(before, after) {
			changed = append(changed, name)
		}
	}
	s.state = next

	s.logger.WithFields(logrus.Fields{
		"type":    a.ActionType(),
		"changed": changed,
	}).Debug("action applied")

	update := Update{Action: a, State: next, Changed: changed}
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			// Non-blocking send so a slow subscriber cannot stall dispatch
		}
	}
}

// Get returns the current state. The returned map must be treated as read-only.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe creates a new subscription channel for state updates.
func (s *Store) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100)
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Store) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; !ok {
		return
	}
	delete(s.subscribers, ch)
	close(ch)
}
