package indexer

import (
	"time"

	"github.com/poiesic/faqit/core"
)

const (
	// DefaultBatchSize is the default number of entries embedded per provider call
	DefaultBatchSize = 10

	// DefaultBatchesPerSecond is the default pacing rate between batches
	DefaultBatchesPerSecond = 2.0

	// DefaultCostPerMillionTokens is the assumed embedding price used for the
	// estimated cost in the final report, in dollars per million tokens.
	DefaultCostPerMillionTokens = 0.02
)

// Options holds configuration for an indexing run.
type Options struct {
	// ForceAll bypasses the freshness check and regenerates every published entry
	ForceAll bool

	// Limit caps the number of entries processed (0 = no limit)
	Limit int

	// ResumeFromID skips entries with an id below this value
	ResumeFromID core.ID

	// BatchSize is the number of entries embedded per provider call
	BatchSize int

	// SkipVectorIndex writes embeddings to the corpus store only
	SkipVectorIndex bool

	// DryRun computes embeddings but persists nothing
	DryRun bool

	// MaxRetries is the maximum number of attempts per embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// BatchesPerSecond paces batches to respect provider rate limits
	BatchesPerSecond float64

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		BatchSize:        DefaultBatchSize,
		MaxRetries:       3,
		RetryDelay:       1 * time.Second,
		BatchesPerSecond: DefaultBatchesPerSecond,
		ReportInterval:   10,
	}
}

// normalize fills in zero values with defaults.
func (o *Options) normalize() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 1 * time.Second
	}
	if o.BatchesPerSecond <= 0 {
		o.BatchesPerSecond = DefaultBatchesPerSecond
	}
	if o.ReportInterval <= 0 {
		o.ReportInterval = 10
	}
}

// EstimateCost converts a token count into an estimated dollar cost.
func EstimateCost(tokens int64) float64 {
	return float64(tokens) / 1_000_000 * DefaultCostPerMillionTokens
}
