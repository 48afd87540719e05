package search

import (
	"context"
	"sort"
	"time"

	"github.com/poiesic/faqit/core"
)

// Suggested returns published entries for browsing a category, ordered
// pinned first, then by click count, then by views.
func (e *Engine) Suggested(ctx context.Context, category string, limit int) ([]*core.KnowledgeEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	published, err := e.entries.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]*core.KnowledgeEntry, 0, len(published))
	for _, entry := range published {
		if category != "" && entry.Category != category {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}
		if a.ClickCount != b.ClickCount {
			return a.ClickCount > b.ClickCount
		}
		return a.Views > b.Views
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Trending returns published entries updated within the last days days,
// ordered by views, then helpfulness.
func (e *Engine) Trending(ctx context.Context, days, limit int) ([]*core.KnowledgeEntry, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	published, err := e.entries.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	entries := make([]*core.KnowledgeEntry, 0, len(published))
	for _, entry := range published {
		if entry.UpdatedAt.Before(cutoff) {
			continue
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Views != b.Views {
			return a.Views > b.Views
		}
		return a.HelpfulRatio() > b.HelpfulRatio()
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
