package docstore

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// errStop ends a scan early without surfacing an error.
var errStop = errors.New("docstore: stop")

// Insert allocates an id for table, builds the row with it and stages the write.
func Insert[T any](tx *Tx, table string, build func(id int64) T) (T, error) {
	var zero T
	id, err := tx.NextID(table)
	if err != nil {
		return zero, err
	}
	row := build(id)
	if err := tx.put(table, id, row); err != nil {
		return zero, err
	}
	return row, nil
}

// Put stages a full replacement of the row stored under id.
func Put[T any](tx *Tx, table string, id int64, row T) error {
	return tx.put(table, id, row)
}

// Get decodes the row stored under id.
func Get[T any](tx *Tx, table string, id int64) (T, bool, error) {
	var row T
	raw, ok := tx.get(table, id)
	if !ok {
		return row, false, nil
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return row, false, fmt.Errorf("decode %s/%d: %w", table, id, err)
	}
	return row, true, nil
}

// Filter returns every row matching match (all rows when match is nil), in id order.
func Filter[T any](tx *Tx, table string, match func(T) bool) ([]T, error) {
	var out []T
	err := tx.scan(table, func(id int64, raw json.RawMessage) error {
		var row T
		if err := json.Unmarshal(raw, &row); err != nil {
			return fmt.Errorf("decode %s/%d: %w", table, id, err)
		}
		if match == nil || match(row) {
			out = append(out, row)
		}
		return nil
	})
	return out, err
}

// First returns the lowest-id row matching match.
func First[T any](tx *Tx, table string, match func(T) bool) (T, bool, error) {
	var (
		found T
		ok    bool
	)
	err := tx.scan(table, func(id int64, raw json.RawMessage) error {
		var row T
		if err := json.Unmarshal(raw, &row); err != nil {
			return fmt.Errorf("decode %s/%d: %w", table, id, err)
		}
		if match(row) {
			found, ok = row, true
			return errStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return found, false, err
	}
	return found, ok, nil
}

// Count returns how many rows satisfy match.
func Count[T any](tx *Tx, table string, match func(T) bool) (int, error) {
	n := 0
	err := tx.scan(table, func(id int64, raw json.RawMessage) error {
		var row T
		if err := json.Unmarshal(raw, &row); err != nil {
			return fmt.Errorf("decode %s/%d: %w", table, id, err)
		}
		if match == nil || match(row) {
			n++
		}
		return nil
	})
	return n, err
}
