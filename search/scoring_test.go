package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/faqit/core"
)

func TestBlend(t *testing.T) {
	config := DefaultScoringConfig()

	t.Run("no signals passes semantic score through", func(t *testing.T) {
		entry := &core.KnowledgeEntry{}
		assert.InDelta(t, 0.8, config.Blend(0.8, entry), 1e-6)
	})

	t.Run("popularity boost", func(t *testing.T) {
		entry := &core.KnowledgeEntry{Views: 10}
		expected := 0.5 + float32(math.Log(11))*0.05
		assert.InDelta(t, expected, config.Blend(0.5, entry), 1e-6)
	})

	t.Run("popularity boost is capped", func(t *testing.T) {
		entry := &core.KnowledgeEntry{Views: 1_000_000}
		assert.InDelta(t, 0.5+0.10, config.Blend(0.5, entry), 1e-6)
	})

	t.Run("helpfulness boost", func(t *testing.T) {
		// 3 of 4 votes helpful: ratio 75
		entry := &core.KnowledgeEntry{HelpfulCount: 3, UnhelpfulCount: 1}
		assert.InDelta(t, 0.5+0.75*0.10, config.Blend(0.5, entry), 1e-5)
	})

	t.Run("no helpfulness boost without votes", func(t *testing.T) {
		entry := &core.KnowledgeEntry{}
		assert.InDelta(t, 0.5, config.Blend(0.5, entry), 1e-6)
	})

	t.Run("pinned boost", func(t *testing.T) {
		entry := &core.KnowledgeEntry{IsPinned: true}
		assert.InDelta(t, 0.5+0.15, config.Blend(0.5, entry), 1e-6)
	})

	t.Run("clamped to one", func(t *testing.T) {
		entry := &core.KnowledgeEntry{
			IsPinned:     true,
			Views:        1_000_000,
			HelpfulCount: 100,
		}
		assert.Equal(t, float32(1.0), config.Blend(0.99, entry))
	})
}
