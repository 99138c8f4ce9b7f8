package serializer

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type JSONSerializer[T any] struct{}

func NewJSONSerializer[T any]() *JSONSerializer[T] {
	return &JSONSerializer[T]{}
}

func (s *JSONSerializer[T]) Serialize(from T) ([]byte, error) {
	buf, err := json.Marshal(from)
	if err != nil {
		return nil, errors.Wrap(err, "json.Marshal failed")
	}
	return buf, nil
}

func (s *JSONSerializer[T]) Deserialize(to []byte) (T, error) {
	var result T
	if err := json.Unmarshal(to, &result); err != nil {
		return result, errors.Wrap(err, "json.Unmarshal failed")
	}
	return result, nil
}
