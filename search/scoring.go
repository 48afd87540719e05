package search

import (
	"math"

	"github.com/poiesic/faqit/core"
)

// ScoringConfig holds the weights that blend popularity, helpfulness, and
// pinning signals into the final relevance score.
type ScoringConfig struct {
	// PopularityWeight scales log(views+1)
	PopularityWeight float32

	// PopularityCap bounds the popularity boost
	PopularityCap float32

	// HelpfulnessWeight scales helpfulRatio/100
	HelpfulnessWeight float32

	// PinnedBoost is added to manually pinned entries
	PinnedBoost float32

	// KeywordScore is the fixed relevance assigned to keyword matches,
	// kept clearly below typical semantic scores so the two kinds of
	// results are never confusingly interleaved.
	KeywordScore float32
}

// DefaultScoringConfig returns the standard blend weights.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		PopularityWeight:  0.05,
		PopularityCap:     0.10,
		HelpfulnessWeight: 0.10,
		PinnedBoost:       0.15,
		KeywordScore:      0.30,
	}
}

// Blend computes the relevance score for an entry given its semantic
// similarity score. The result is clamped to 1.0.
func (c ScoringConfig) Blend(semanticScore float32, entry *core.KnowledgeEntry) float32 {
	relevance := semanticScore

	popularity := float32(math.Log(float64(entry.Views)+1)) * c.PopularityWeight
	if popularity > c.PopularityCap {
		popularity = c.PopularityCap
	}
	relevance += popularity

	if ratio := entry.HelpfulRatio(); ratio > 0 {
		relevance += ratio / 100 * c.HelpfulnessWeight
	}

	if entry.IsPinned {
		relevance += c.PinnedBoost
	}

	if relevance > 1.0 {
		relevance = 1.0
	}

	return relevance
}
