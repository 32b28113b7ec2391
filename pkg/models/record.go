package models

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/seqrkit/pkg/reducer"
	"github.com/mitchellh/mapstructure"
)

// ToRecord converts a model into the generic record stored in entity tables.
func ToRecord(v any) (reducer.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var rec reducer.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// FromRecord decodes a stored record into a model. Unknown fields are ignored.
func FromRecord[T any](rec reducer.Record) (T, error) {
	var out T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(rec)); err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	return out, nil
}
