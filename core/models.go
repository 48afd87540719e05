package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID uniquely identifies a stored record (knowledge entry, query log row).
type ID uint64

// ContentHash generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same hash. The indexer stores the hash of
// the text it embedded, so a later content edit is detectable even if the refresh
// flag was never set.
func ContentHash(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// SearchMethod identifies which retrieval path produced a search response.
type SearchMethod int

const (
	// SearchMethodSemantic means results came from vector similarity search.
	SearchMethodSemantic SearchMethod = iota + 1
	// SearchMethodKeyword means results came from lexical token matching.
	SearchMethodKeyword
)

// String returns the wire name of the method.
func (m SearchMethod) String() string {
	switch m {
	case SearchMethodSemantic:
		return "semantic"
	case SearchMethodKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// KnowledgeEntry represents a single FAQ/article in the knowledge base.
// Content fields are owned by content-management flows; embedding fields are
// mutated exclusively by the batch indexer; popularity and feedback counters
// are mutated by the query engine and click recording.
type KnowledgeEntry struct {
	Id       ID
	Question string
	Answer   string
	Category string // optional label

	IsPublished bool // visibility gate; unpublished entries never appear in results
	IsPinned    bool // manual ranking boost

	Views          int64
	HelpfulCount   int64
	UnhelpfulCount int64
	ClickCount     int64 // search result clicks (feedback signal)
	SearchHits     int64 // times returned as the top search result

	Vector                []float32 // embedding for semantic search (populated by the indexer)
	EmbeddingModel        string    // model tag, for migration safety
	EmbeddingDims         int
	EmbeddingHash         ID // ContentHash of the text that was embedded
	NeedsEmbeddingRefresh bool
	EmbeddingGeneratedAt  time.Time

	InsertedAt time.Time
	UpdatedAt  time.Time
}

// EmbeddingInput returns the text the indexer embeds for this entry.
// Answer context is included because it improves downstream match quality.
func (e *KnowledgeEntry) EmbeddingInput() string {
	return e.Question + "\n\n" + e.Answer
}

// HelpfulRatio returns the helpfulness percentage (0-100) derived from
// feedback counters. Returns 0 when no feedback has been recorded.
func (e *KnowledgeEntry) HelpfulRatio() float32 {
	total := e.HelpfulCount + e.UnhelpfulCount
	if total == 0 {
		return 0
	}
	return float32(e.HelpfulCount) / float32(total) * 100
}

// SearchEligible reports whether the entry may be served by the semantic path.
func (e *KnowledgeEntry) SearchEligible() bool {
	return e.IsPublished && len(e.Vector) > 0 && !e.NeedsEmbeddingRefresh
}

// SearchResult pairs an entry with its blended relevance score.
type SearchResult struct {
	Entry *KnowledgeEntry
	Score float32
}

// SearchResponse is the uniform result shape returned by the query engine,
// regardless of which retrieval path served the request.
type SearchResponse struct {
	Results        []*SearchResult
	TotalResults   int
	ResponseTimeMs int64
	Method         SearchMethod
	FallbackUsed   bool // semantic path was attempted and abandoned
	Success        bool
	Error          string // set only when Success is false
}

// SearchQueryLog is one telemetry row per search query. It is written when the
// query completes and mutated at most once by a later click event.
type SearchQueryLog struct {
	Id              ID
	Query           string
	ResultCount     int
	TopResultId     ID // 0 when the query returned nothing
	TopResultScore  float32
	ResponseTimeMs  int64
	Method          SearchMethod
	FallbackUsed    bool
	ClickedEntryId  ID // 0 until a click is recorded
	ClickedPosition int
	CreatedAt       time.Time
}

// RunError records a single entry-level failure during an indexing run.
type RunError struct {
	EntryId ID
	Message string
}

// IndexRun is the durable state of one batch indexing run. It is persisted
// after every batch so a crashed run can be inspected and resumed.
type IndexRun struct {
	RunId            string
	TotalEntries     int
	ProcessedEntries int
	SuccessCount     int
	FailureCount     int
	TokensUsed       int64
	LastProcessedId  ID
	Errors           []RunError
	Aborted          bool
	StartedAt        time.Time
	EndedAt          time.Time
}

// Duration returns the run's elapsed time, using the current time while the
// run is still in progress.
func (r *IndexRun) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// SuccessRate returns the fraction of processed entries that succeeded, in [0,1].
func (r *IndexRun) SuccessRate() float64 {
	if r.ProcessedEntries == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.ProcessedEntries)
}
