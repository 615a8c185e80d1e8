package dto

import (
	"encoding/json"

	"busyness/internal/models/task"
)

// Optional tells an absent JSON key apart from an explicit null. Set is true
// whenever the key was present; Value is nil for null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// IsZero makes omitzero drop absent fields when encoding.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// option maps the three states onto an edit: nil when absent, clear for null
// and set for a value.
func (o Optional[T]) option(set func(*T) task.Option, clear func() task.Option) task.Option {
	switch {
	case !o.Set:
		return nil
	case o.Value == nil:
		return clear()
	default:
		return set(o.Value)
	}
}
