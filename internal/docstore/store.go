// Package docstore keeps every table of the service in one JSON document.
//
// The document has the shape
//
//	{"tables": {"users": {"1": {...}}}, "meta": {"users": 2}}
//
// where meta holds the next identifier to hand out per table. All mutations go
// through Update, which runs a single-writer transaction: identifier allocation
// and row writes are staged and become visible (and are persisted) together, or
// not at all when the callback fails.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// ErrReadOnly is returned when a write is attempted inside View.
var ErrReadOnly = errors.New("docstore: write in read-only transaction")

type document struct {
	Tables map[string]map[int64]json.RawMessage `json:"tables"`
	Meta   map[string]int64                     `json:"meta"`
}

func newDocument() document {
	return document{
		Tables: map[string]map[int64]json.RawMessage{},
		Meta:   map[string]int64{},
	}
}

// Store is a mutex-guarded JSON document, optionally mirrored to a file.
type Store struct {
	mu   sync.RWMutex
	path string
	doc  document
}

// NewMemory returns a store that never touches the filesystem.
func NewMemory() *Store {
	return &Store{doc: newDocument()}
}

// Open loads the document at path, creating the parent directory when needed.
// A missing file yields an empty document that is written on the first Update.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("docstore: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{path: path, doc: newDocument()}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}

	var loaded document
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", path, err)
	}
	if loaded.Tables == nil {
		loaded.Tables = map[string]map[int64]json.RawMessage{}
	}
	if loaded.Meta == nil {
		loaded.Meta = map[string]int64{}
	}
	s.doc = loaded
	return s, nil
}

// Path returns the backing file, or "" for memory stores.
func (s *Store) Path() string {
	return s.path
}

// View runs fn with shared access; writes inside fn fail with ErrReadOnly.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{doc: &s.doc})
}

// Update runs fn with exclusive access and commits its staged writes when fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{
		doc:      &s.doc,
		writable: true,
		rows:     map[string]map[int64]json.RawMessage{},
		next:     map[string]int64{},
	}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty() {
		return nil
	}

	next := tx.merged()
	if s.path != "" {
		if err := writeAtomic(s.path, next); err != nil {
			return err
		}
	}
	s.doc = next
	return nil
}

func writeAtomic(path string, doc document) error {
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".questgo-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename document: %w", err)
	}
	return nil
}
