package search

import (
	"github.com/poiesic/faqit/core"
	"github.com/poiesic/faqit/vectorindex"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(vector []float32)
	AfterVectorQuery(matches []vectorindex.Match)
	AfterEntryFetch(entries []*core.KnowledgeEntry)
	FellBack(reason string)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                         {}
func (n *noopMonitor) AfterQueryEmbedding(_ []float32)        {}
func (n *noopMonitor) AfterVectorQuery(_ []vectorindex.Match) {}
func (n *noopMonitor) AfterEntryFetch(_ []*core.KnowledgeEntry) {}
func (n *noopMonitor) FellBack(_ string)                      {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)          {}
