package model

import (
	"github.com/bytedance/sonic"

	"github.com/hourstack-io/hourstack/internal/docstore"
)

// DecodeRecord maps a store record onto a typed model via its json tags.
func DecodeRecord[T any](rec docstore.Record) (T, error) {
	var out T
	b, err := sonic.Marshal(rec)
	if err != nil {
		return out, err
	}
	if err := sonic.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}

// DecodeRecords maps a result set onto typed models, preserving order.
func DecodeRecords[T any](records []docstore.Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		item, err := DecodeRecord[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
