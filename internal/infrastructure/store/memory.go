package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// MemoryStore is an in-process Store used for tests and local development.
// Documents are held as JSON so encode/decode behavior matches the remote
// backends. All operations, including IncrementIf, are atomic under one mutex.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage // collection -> id -> doc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]json.RawMessage),
	}
}

func (s *MemoryStore) Insert(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[collection] == nil {
		s.data[collection] = make(map[string]json.RawMessage)
	}
	if _, exists := s.data[collection][id]; exists {
		return ErrDuplicateID
	}
	s.data[collection][id] = raw
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string, out any) error {
	s.mu.RLock()
	raw, ok := s.data[collection][id]
	s.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(raw, out)
}

func (s *MemoryStore) Find(ctx context.Context, collection string, filter map[string]any, out any) error {
	normalized, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	s.mu.RLock()
	var matches []json.RawMessage
	for _, raw := range s.data[collection] {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			s.mu.RUnlock()
			return err
		}
		if matchesFilter(doc, normalized) {
			matches = append(matches, raw)
		}
	}
	s.mu.RUnlock()

	combined, err := json.Marshal(matches)
	if err != nil {
		return err
	}
	return json.Unmarshal(combined, out)
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	normalized, err := normalizeFilter(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[collection][id]
	if !ok {
		return ErrNotFound
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, v := range normalized {
		doc[k] = v
	}
	updated, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.data[collection][id] = updated
	return nil
}

func (s *MemoryStore) IncrementIf(ctx context.Context, collection, id, field string, delta, min int) (int, error) {
	return s.increment(collection, id, field, delta, &min)
}

func (s *MemoryStore) Increment(ctx context.Context, collection, id, field string, delta int) (int, error) {
	return s.increment(collection, id, field, delta, nil)
}

func (s *MemoryStore) increment(collection, id, field string, delta int, min *int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[collection][id]
	if !ok {
		return 0, ErrNotFound
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, err
	}
	current, ok := doc[field].(float64)
	if !ok {
		return 0, fmt.Errorf("field %q is not numeric", field)
	}
	if min != nil && int(current) < *min {
		return 0, ErrConditionFailed
	}

	next := int(current) + delta
	doc[field] = next
	updated, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}
	s.data[collection][id] = updated
	return next, nil
}

func (s *MemoryStore) Close() error { return nil }

// normalizeFilter runs values through a JSON round trip so comparisons see the
// same types the stored documents decode to (e.g. all numbers as float64).
func normalizeFilter(filter map[string]any) (map[string]any, error) {
	if filter == nil {
		return nil, nil
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return nil, err
	}
	var normalized map[string]any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

func matchesFilter(doc, filter map[string]any) bool {
	for k, want := range filter {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}
