package docstore

import (
	"fmt"
	"maps"
	"slices"

	"github.com/goccy/go-json"
)

// Tx is a view of the document inside View or Update.
type Tx struct {
	doc      *document
	writable bool
	rows     map[string]map[int64]json.RawMessage
	next     map[string]int64
}

// NextID allocates the next identifier for table. Identifiers start at 1 and
// are never reused; an allocation is discarded with the rest of a failed Update.
func (tx *Tx) NextID(table string) (int64, error) {
	if !tx.writable {
		return 0, ErrReadOnly
	}
	id, ok := tx.next[table]
	if !ok {
		id = tx.doc.Meta[table]
	}
	if id < 1 {
		id = 1
	}
	tx.next[table] = id + 1
	return id, nil
}

func (tx *Tx) put(table string, id int64, v any) error {
	if !tx.writable {
		return ErrReadOnly
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%d: %w", table, id, err)
	}
	staged, ok := tx.rows[table]
	if !ok {
		staged = map[int64]json.RawMessage{}
		tx.rows[table] = staged
	}
	staged[id] = raw
	// Rows written with explicit ids still advance the counter.
	if current := tx.peekNext(table); id >= current {
		tx.next[table] = id + 1
	}
	return nil
}

func (tx *Tx) peekNext(table string) int64 {
	if id, ok := tx.next[table]; ok {
		return id
	}
	if id := tx.doc.Meta[table]; id > 0 {
		return id
	}
	return 1
}

func (tx *Tx) get(table string, id int64) (json.RawMessage, bool) {
	if staged, ok := tx.rows[table][id]; ok {
		return staged, true
	}
	raw, ok := tx.doc.Tables[table][id]
	return raw, ok
}

// scan visits rows in ascending id order, staged writes shadowing committed ones.
func (tx *Tx) scan(table string, fn func(id int64, raw json.RawMessage) error) error {
	committed := tx.doc.Tables[table]
	staged := tx.rows[table]

	ids := make([]int64, 0, len(committed)+len(staged))
	for id := range committed {
		ids = append(ids, id)
	}
	for id := range staged {
		if _, ok := committed[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	for _, id := range ids {
		raw, ok := staged[id]
		if !ok {
			raw = committed[id]
		}
		if err := fn(id, raw); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Tx) dirty() bool {
	return len(tx.rows) > 0 || len(tx.next) > 0
}

// merged returns a copy of the document with the staged writes applied.
func (tx *Tx) merged() document {
	out := document{
		Tables: make(map[string]map[int64]json.RawMessage, len(tx.doc.Tables)+len(tx.rows)),
		Meta:   maps.Clone(tx.doc.Meta),
	}
	if out.Meta == nil {
		out.Meta = map[string]int64{}
	}
	for name, rows := range tx.doc.Tables {
		out.Tables[name] = rows
	}
	for name, staged := range tx.rows {
		rows := maps.Clone(out.Tables[name])
		if rows == nil {
			rows = make(map[int64]json.RawMessage, len(staged))
		}
		maps.Copy(rows, staged)
		out.Tables[name] = rows
	}
	maps.Copy(out.Meta, tx.next)
	return out
}
