package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound reports a FindUnique with no matching record.
var ErrNotFound = errors.New("record not found")

// MemoryStore is a mutex-guarded in-memory Datastore. It backs tests and
// deployments that have not wired a real database; every record carries an
// "id" field assigned on create.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Record)}
}

func matches(record Record, filter Filter) bool {
	for key, want := range filter {
		if record[key] != want {
			return false
		}
	}
	return true
}

func cloneRecord(record Record) Record {
	out := make(Record, len(record))
	for key, value := range record {
		out[key] = value
	}
	return out
}

func (m *MemoryStore) FindMany(_ context.Context, collection string, filter Filter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, record := range m.collections[collection] {
		if matches(record, filter) {
			out = append(out, cloneRecord(record))
		}
	}
	return out, nil
}

func (m *MemoryStore) FindUnique(_ context.Context, collection string, filter Filter) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, record := range m.collections[collection] {
		if matches(record, filter) {
			return cloneRecord(record), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) Count(_ context.Context, collection string, filter Filter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, record := range m.collections[collection] {
		if matches(record, filter) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Create(_ context.Context, collection string, record Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return createLocked(m.collections, collection, record)
}

func (m *MemoryStore) Update(_ context.Context, collection string, filter Filter, record Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return updateLocked(m.collections, collection, filter, record), nil
}

func (m *MemoryStore) Delete(_ context.Context, collection string, filter Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return deleteLocked(m.collections, collection, filter), nil
}

// Batch applies every sub-operation against a snapshot and commits the
// snapshot only if all of them succeed, so a failing op leaves the store
// untouched.
func (m *MemoryStore) Batch(_ context.Context, ops []BatchOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[string][]Record, len(m.collections))
	for name, records := range m.collections {
		copied := make([]Record, len(records))
		for i, record := range records {
			copied[i] = cloneRecord(record)
		}
		staged[name] = copied
	}

	for i, op := range ops {
		switch op.Kind {
		case OpCreate:
			if _, err := createLocked(staged, op.Collection, op.Record); err != nil {
				return fmt.Errorf("batch op %d: %w", i, err)
			}
		case OpUpdate:
			if n := updateLocked(staged, op.Collection, op.Filter, op.Record); n == 0 {
				return fmt.Errorf("batch op %d: %w", i, ErrNotFound)
			}
		case OpDelete:
			deleteLocked(staged, op.Collection, op.Filter)
		default:
			return fmt.Errorf("batch op %d: unknown kind %d", i, op.Kind)
		}
	}

	m.collections = staged
	return nil
}

func createLocked(collections map[string][]Record, collection string, record Record) (string, error) {
	if record == nil {
		return "", errors.New("nil record")
	}
	stored := cloneRecord(record)
	id, ok := stored["id"].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		stored["id"] = id
	}
	collections[collection] = append(collections[collection], stored)
	return id, nil
}

func updateLocked(collections map[string][]Record, collection string, filter Filter, record Record) int {
	n := 0
	for _, existing := range collections[collection] {
		if !matches(existing, filter) {
			continue
		}
		for key, value := range record {
			if key == "id" {
				continue
			}
			existing[key] = value
		}
		n++
	}
	return n
}

func deleteLocked(collections map[string][]Record, collection string, filter Filter) int {
	kept := collections[collection][:0]
	n := 0
	for _, existing := range collections[collection] {
		if matches(existing, filter) {
			n++
			continue
		}
		kept = append(kept, existing)
	}
	collections[collection] = kept
	return n
}
