// Package reducer builds reducers for the four state shapes used across
// seqrkit: atomic values, keyed records, entity tables, and load status.
//
// Actions are a closed set of variants. Each factory only reacts to the
// variant and type tag it was bound to; everything else passes through.
package reducer

import (
	"strings"

	"github.com/grovetools/seqrkit/errors"
)

// Action is a value describing an intended state change.
type Action interface {
	ActionType() string
}

// Set replaces an atomic value.
type Set struct {
	Type  string
	Value any
}

func (a Set) ActionType() string { return a.Type }

// Merge shallow-merges updates into a keyed record.
type Merge struct {
	Type    string
	Updates map[string]any
}

func (a Merge) ActionType() string { return a.Type }

// Patch updates an entity table by id. A nil Record deletes its id.
// Groups addresses several tables that share one action type; a table bound
// to a group key reads only its own entry.
type Patch struct {
	Type   string
	ByID   map[string]Record
	Groups map[string]map[string]Record
}

func (a Patch) ActionType() string { return a.Type }

// Request marks the start of an async load.
type Request struct {
	Type string
}

func (a Request) ActionType() string { return a.Type }

// Receive marks the end of an async load. Err is nil on success.
type Receive struct {
	Type string
	Err  error
}

func (a Receive) ActionType() string { return a.Type }

// Batch groups actions that must be applied together.
type Batch []Action

// BatchType is the type tag reported by Batch.
const BatchType = "BATCH"

func (Batch) ActionType() string { return BatchType }

// Flatten expands nested batches into the ordered list of leaf actions.
func Flatten(a Action) []Action {
	batch, ok := a.(Batch)
	if !ok {
		if a == nil {
			return nil
		}
		return []Action{a}
	}
	var out []Action
	for _, inner := range batch {
		out = append(out, Flatten(inner)...)
	}
	return out
}

// ErrorMessage renders an error the way it is shown to users: the API's
// error list joined by ", ", or the error message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return strings.Join(errors.UserMessages(err), ", ")
}
