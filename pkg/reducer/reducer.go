package reducer

import (
	"fmt"
	"reflect"

	"github.com/grovetools/seqrkit/errors"
	"github.com/grovetools/seqrkit/logging"
)

// Reducer maps the current state and an action to the next state.
type Reducer[S any] func(S, Action) S

// Apply folds an action into state, expanding batches in order.
func Apply[S any](r Reducer[S], state S, a Action) S {
	for _, leaf := range Flatten(a) {
		state = r(state, leaf)
	}
	return state
}

// malformed logs a diagnostic for an action that matched a reducer's type
// but carried no usable payload.
func malformed(actionType, field string, got any) {
	err := errors.MalformedAction(actionType, field)
	logging.NewLogger("reducer").
		WithError(err).
		WithField("payload_type", fmt.Sprintf("%T", got)).
		Error("ignoring malformed action")
}

// Shape pairs a reducer with the state it starts from.
type Shape[S any] struct {
	Initial S
	Reduce  Reducer[S]
}

// Value returns a single value replaced wholesale by Set actions of updateType.
// A nil value clears the state to its zero value when T is a pointer, slice,
// map, or interface type; for any other T it is malformed.
func Value[T any](updateType string, initial T) Shape[T] {
	clearable := nilable[T]()
	return Shape[T]{Initial: initial, Reduce: func(state T, a Action) T {
		set, ok := a.(Set)
		if !ok || set.Type != updateType {
			return state
		}
		if set.Value == nil && clearable {
			var zero T
			return zero
		}
		value, ok := set.Value.(T)
		if set.Value == nil || !ok {
			malformed(updateType, "value", set.Value)
			return state
		}
		return value
	}}
}

func nilable[T any]() bool {
	switch reflect.TypeOf((*T)(nil)).Elem().Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

// Object returns a keyed record shallow-merged by Merge actions of updateType.
func Object(updateType string, initial Record) Shape[Record] {
	if initial == nil {
		initial = Record{}
	}
	return Shape[Record]{Initial: initial, Reduce: func(state Record, a Action) Record {
		merge, ok := a.(Merge)
		if !ok || merge.Type != updateType {
			return state
		}
		if merge.Updates == nil {
			malformed(updateType, "updates", nil)
			return state
		}
		return MergeRecords(state, merge.Updates)
	}}
}

type byIDOptions struct {
	group    string
	hasGroup bool
}

// ByIDOption configures a ByID reducer.
type ByIDOption func(*byIDOptions)

// WithGroup binds the table to one group of a shared Patch action.
func WithGroup(key string) ByIDOption {
	return func(o *byIDOptions) {
		o.group = key
		o.hasGroup = true
	}
}

// ByID returns an entity table patched by Patch actions of updateType.
// Per id: a nil record deletes, an existing id is shallow-merged, a new id is
// inserted as a copy.
func ByID(updateType string, initial Table, opts ...ByIDOption) Shape[Table] {
	var o byIDOptions
	for _, opt := range opts {
		opt(&o)
	}
	if initial == nil {
		initial = Table{}
	}

	return Shape[Table]{Initial: initial, Reduce: func(state Table, a Action) Table {
		patch, ok := a.(Patch)
		if !ok || patch.Type != updateType {
			return state
		}

		updates := patch.ByID
		if o.hasGroup {
			// A payload without this table's group belongs to a sibling table.
			group, present := patch.Groups[o.group]
			if !present {
				return state
			}
			updates = group
		} else if updates == nil {
			malformed(updateType, "byId", nil)
			return state
		}

		next := state.Clone()
		for id, rec := range updates {
			if rec == nil {
				delete(next, id)
				continue
			}
			if existing, found := next[id]; found {
				next[id] = MergeRecords(existing, rec)
			} else {
				next[id] = MergeRecords(nil, rec)
			}
		}
		return next
	}}
}

// LoadStatus tracks one async fetch. An empty ErrorMessage means no error.
type LoadStatus struct {
	IsLoading    bool   `json:"isLoading" yaml:"is_loading"`
	ErrorMessage string `json:"errorMessage,omitempty" yaml:"error_message,omitempty"`
}

// Loading returns a load status driven by a request/receive pair. A request
// while already loading restarts the cycle.
func Loading(requestType, receiveType string) Shape[LoadStatus] {
	return Shape[LoadStatus]{Reduce: func(state LoadStatus, a Action) LoadStatus {
		switch act := a.(type) {
		case Request:
			if act.Type == requestType {
				state.IsLoading = true
			}
		case Receive:
			if act.Type == receiveType {
				state.IsLoading = false
				state.ErrorMessage = ErrorMessage(act.Err)
			}
		}
		return state
	}}
}
