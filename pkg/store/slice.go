package store

import (
	"github.com/grovetools/seqrkit/pkg/reducer"
)

// Slice is one named portion of state owned by a single reducer.
type Slice interface {
	Name() string
	initial() any
	reduce(state any, a reducer.Action) any
}

type slice[S any] struct {
	name  string
	shape reducer.Shape[S]
}

// Register binds a reducer shape to a slice name.
func Register[S any](name string, shape reducer.Shape[S]) Slice {
	return &slice[S]{name: name, shape: shape}
}

func (s *slice[S]) Name() string { return s.name }

func (s *slice[S]) initial() any { return s.shape.Initial }

func (s *slice[S]) reduce(state any, a reducer.Action) any {
	typed, ok := state.(S)
	if !ok {
		typed = s.shape.Initial
	}
	return s.shape.Reduce(typed, a)
}

// State is a snapshot of every slice keyed by slice name.
type State map[string]any

// Select returns the named slice as S, or the zero value if it is missing.
func Select[S any](state State, name string) S {
	value, _ := state[name].(S)
	return value
}
