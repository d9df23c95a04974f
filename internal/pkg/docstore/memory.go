package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Document)}
}

func (s *MemoryStore) Create(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.New().String()

	stored := make(Document, len(doc)+1)
	for k, v := range doc {
		stored[k] = v
	}
	stored["id"] = id

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}
	s.collections[collection][id] = stored
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(doc), nil
}

func (s *MemoryStore) List(ctx context.Context, collection, orderByField string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		docs = append(docs, cloneDoc(doc))
	}

	sort.Slice(docs, func(i, j int) bool {
		return fieldKey(docs[i], orderByField) < fieldKey(docs[j], orderByField)
	})
	return docs, nil
}

func (s *MemoryStore) Remove(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[collection][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

func cloneDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// fieldKey renders a field value as its string sort key, matching the
// text ordering the Postgres implementation uses.
func fieldKey(doc Document, field string) string {
	v, ok := doc[field]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}
