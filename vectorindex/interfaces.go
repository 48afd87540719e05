package vectorindex

import (
	"context"

	"github.com/poiesic/faqit/core"
)

// Metadata is the denormalized entry data attached to every stored vector.
// It exists for cheap post-filtering and debugging; the corpus store remains
// the source of truth.
type Metadata struct {
	Question     string
	Category     string
	HelpfulRatio float32
}

// Record is one (id, vector, metadata) triple held by the index.
// Ids mirror KnowledgeEntry ids; the collection name is the namespace.
type Record struct {
	Id       core.ID
	Vector   []float32
	Metadata Metadata
}

// Match is a single nearest-neighbor hit.
type Match struct {
	Id       core.ID
	Score    float32
	Metadata Metadata
}

// Stats describes the index contents.
type Stats struct {
	VectorCount uint64
	Dimension   int
}

// Index is the external vector index consumed by the indexer and the query
// engine. Implementations must be safe for concurrent use.
type Index interface {
	// Upsert inserts or replaces a single record.
	Upsert(ctx context.Context, record Record) error

	// UpsertBatch inserts or replaces multiple records in one call.
	UpsertBatch(ctx context.Context, records []Record) error

	// Query returns up to topK nearest neighbors of vector, highest score
	// first. Matches scoring below minScore are excluded; pass 0 to disable
	// the threshold.
	Query(ctx context.Context, vector []float32, topK int, minScore float32) ([]Match, error)

	// Delete removes a record by id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id core.ID) error

	// DeleteBatch removes multiple records by id.
	DeleteBatch(ctx context.Context, ids []core.ID) error

	// Stats returns the current vector count and dimension.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases resources held by the client.
	Close() error
}
