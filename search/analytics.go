package search

import (
	"context"
	"sort"
	"time"

	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/storage"
)

// QueryStats summarizes one distinct query string.
type QueryStats struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

// Analytics aggregates query log telemetry over a recent window.
type Analytics struct {
	Days              int          `json:"days"`
	TotalQueries      int          `json:"totalQueries"`
	AvgResponseTimeMs float64      `json:"avgResponseTimeMs"`
	FallbackRate      float64      `json:"fallbackRate"`
	ClickThroughRate  float64      `json:"clickThroughRate"`
	SemanticCount     int          `json:"semanticCount"`
	KeywordCount      int          `json:"keywordCount"`
	TopQueries        []QueryStats `json:"topQueries"`
}

// maxTopQueries caps the length of the TopQueries list.
const maxTopQueries = 10

// WithQueryLogs sets the query log repository used by Analytics.
func WithQueryLogs(logs storage.QueryLogRepository) Option {
	return func(e *Engine) error {
		e.logs = logs
		return nil
	}
}

// Analytics aggregates query telemetry for the last days days.
func (e *Engine) Analytics(ctx context.Context, days int) (*Analytics, error) {
	if e.logs == nil {
		return nil, ErrQueryLogRepositoryRequired
	}
	if days <= 0 {
		days = 7
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := e.logs.ListQueryLogsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	stats := &Analytics{Days: days, TotalQueries: len(rows)}
	if len(rows) == 0 {
		return stats, nil
	}

	var totalMs int64
	var fallbacks, clicks int
	counts := make(map[string]int)

	for _, row := range rows {
		totalMs += row.ResponseTimeMs
		if row.FallbackUsed {
			fallbacks++
		}
		if row.ClickedEntryId != 0 {
			clicks++
		}
		switch row.Method {
		case core.SearchMethodSemantic:
			stats.SemanticCount++
		case core.SearchMethodKeyword:
			stats.KeywordCount++
		}
		counts[row.Query]++
	}

	stats.AvgResponseTimeMs = float64(totalMs) / float64(len(rows))
	stats.FallbackRate = float64(fallbacks) / float64(len(rows))
	stats.ClickThroughRate = float64(clicks) / float64(len(rows))

	for query, count := range counts {
		stats.TopQueries = append(stats.TopQueries, QueryStats{Query: query, Count: count})
	}
	sort.SliceStable(stats.TopQueries, func(i, j int) bool {
		if stats.TopQueries[i].Count != stats.TopQueries[j].Count {
			return stats.TopQueries[i].Count > stats.TopQueries[j].Count
		}
		return stats.TopQueries[i].Query < stats.TopQueries[j].Query
	})
	if len(stats.TopQueries) > maxTopQueries {
		stats.TopQueries = stats.TopQueries[:maxTopQueries]
	}

	return stats, nil
}
