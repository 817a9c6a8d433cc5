package memory

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/agentkernel/core"
)

// TrimPolicy selects the records to keep, given all records in insertion order.
type TrimPolicy func(records []core.MemoryRecord) []core.MemoryRecord

// KeepLast keeps the n most recent records.
func KeepLast(n int) TrimPolicy {
	return func(records []core.MemoryRecord) []core.MemoryRecord {
		if n <= 0 {
			return nil
		}
		if len(records) <= n {
			return records
		}
		return records[len(records)-n:]
	}
}

// Options configures an InMemoryStore.
type Options struct {
	// Clock stamps records that arrive without CreatedAt.
	Clock func() time.Time
	// CaseInsensitive makes Query ignore case.
	CaseInsensitive bool
}

// InMemoryStore is a naive process-local core.MemoryPort.
//
// Records are kept in insertion order. Query is a linear substring scan that
// returns the oldest matches first; an empty query matches everything.
// Suitable for tests and demos; swap for a vector index for real retrieval.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []core.MemoryRecord
	nextID  int
	opts    Options
}

var _ core.MemoryPort = (*InMemoryStore)(nil)

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &InMemoryStore{opts: opts}
}

// Append stores a copy of rec. Records without an ID get "mem_<n>".
func (m *InMemoryStore) Append(ctx context.Context, rec core.MemoryRecord) (core.MemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return core.MemoryRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == "" {
		rec.ID = fmt.Sprintf("mem_%d", m.nextID)
	}
	m.nextID++

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.opts.Clock()
	}

	rec.Metadata = maps.Clone(rec.Metadata)
	m.records = append(m.records, rec)

	return copyRecord(rec), nil
}

// Query returns up to limit records whose content contains query. A limit
// of zero or less means no limit.
func (m *InMemoryStore) Query(ctx context.Context, query string, limit int) ([]core.MemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.opts.CaseInsensitive {
		query = strings.ToLower(query)
	}

	results := make([]core.MemoryRecord, 0)
	for _, rec := range m.records {
		if limit > 0 && len(results) >= limit {
			break
		}

		content := rec.Content
		if m.opts.CaseInsensitive {
			content = strings.ToLower(content)
		}

		if query == "" || strings.Contains(content, query) {
			results = append(results, copyRecord(rec))
		}
	}

	return results, nil
}

// Delete removes the record with the given id.
func (m *InMemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, rec := range m.records {
		if rec.ID == id {
			m.records = append(m.records[:i:i], m.records[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("memory %q not found", id)
}

// Trim replaces the stored records with the ones selected by policy and
// returns how many were dropped.
func (m *InMemoryStore) Trim(_ context.Context, policy TrimPolicy) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.records)
	kept := policy(append([]core.MemoryRecord(nil), m.records...))
	m.records = append([]core.MemoryRecord(nil), kept...)

	return before - len(m.records)
}

// Len returns the number of stored records.
func (m *InMemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Clear removes every record. IDs keep increasing afterwards.
func (m *InMemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	return nil
}

func copyRecord(rec core.MemoryRecord) core.MemoryRecord {
	rec.Metadata = maps.Clone(rec.Metadata)
	return rec
}
