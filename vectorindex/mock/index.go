package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/vectorindex"
)

// MockIndex is an in-memory vectorindex.Index using exact cosine similarity.
// It is intended for tests and local development.
// Note: Returns concrete type from NewMockIndex to allow failure injection.
type MockIndex struct {
	mu      sync.RWMutex
	records map[core.ID]vectorindex.Record
	dims    int

	// UpsertErr, QueryErr, DeleteErr and StatsErr, when set, are returned by
	// the corresponding operations. Used to simulate an unreachable index.
	UpsertErr error
	QueryErr  error
	DeleteErr error
	StatsErr  error

	queryCount int
}

var _ vectorindex.Index = (*MockIndex)(nil)

// NewMockIndex creates an empty in-memory index for vectors of the given
// dimension.
func NewMockIndex(dims int) *MockIndex {
	return &MockIndex{
		records: make(map[core.ID]vectorindex.Record),
		dims:    dims,
	}
}

// Upsert inserts or replaces a single record.
func (m *MockIndex) Upsert(ctx context.Context, record vectorindex.Record) error {
	return m.UpsertBatch(ctx, []vectorindex.Record{record})
}

// UpsertBatch inserts or replaces multiple records.
func (m *MockIndex) UpsertBatch(_ context.Context, records []vectorindex.Record) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.Id] = r
	}
	return nil
}

// Query returns up to topK stored records by cosine similarity, highest first.
// Similarity reduces to a dot product because stored vectors are normalized
// by the indexer.
func (m *MockIndex) Query(_ context.Context, vector []float32, topK int, minScore float32) ([]vectorindex.Match, error) {
	m.mu.Lock()
	m.queryCount++
	m.mu.Unlock()

	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]vectorindex.Match, 0, len(m.records))
	for _, r := range m.records {
		score := dotProduct(vector, r.Vector)
		if score >= minScore {
			matches = append(matches, vectorindex.Match{
				Id:       r.Id,
				Score:    score,
				Metadata: r.Metadata,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Delete removes a record by id. Absent ids are ignored.
func (m *MockIndex) Delete(ctx context.Context, id core.ID) error {
	return m.DeleteBatch(ctx, []core.ID{id})
}

// DeleteBatch removes multiple records by id.
func (m *MockIndex) DeleteBatch(_ context.Context, ids []core.ID) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.records, id)
	}
	return nil
}

// Stats returns the stored vector count and dimension.
func (m *MockIndex) Stats(_ context.Context) (*vectorindex.Stats, error) {
	if m.StatsErr != nil {
		return nil, m.StatsErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return &vectorindex.Stats{
		VectorCount: uint64(len(m.records)),
		Dimension:   m.dims,
	}, nil
}

// Close is a no-op.
func (m *MockIndex) Close() error {
	return nil
}

// Has reports whether a record with the given id is stored.
func (m *MockIndex) Has(id core.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[id]
	return ok
}

// Record returns the stored record for id, if present.
func (m *MockIndex) Record(id core.ID) (vectorindex.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	return r, ok
}

// QueryCount returns how many times Query was called.
func (m *MockIndex) QueryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryCount
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
