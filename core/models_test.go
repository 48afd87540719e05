package core

import (
	"testing"
)

func TestContentHash(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same hash",
			content: "How do I reset my password?",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := ContentHash(tt.content)
			id2 := ContentHash(tt.content)

			if id1 != id2 {
				t.Errorf("ContentHash() produced different hashes for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestContentHash_Different(t *testing.T) {
	id1 := ContentHash("content1")
	id2 := ContentHash("content2")

	if id1 == id2 {
		t.Errorf("ContentHash() produced same hash for different content")
	}
}

func TestKnowledgeEntry_HelpfulRatio(t *testing.T) {
	tests := []struct {
		name      string
		helpful   int64
		unhelpful int64
		want      float32
	}{
		{name: "no feedback", helpful: 0, unhelpful: 0, want: 0},
		{name: "all helpful", helpful: 10, unhelpful: 0, want: 100},
		{name: "all unhelpful", helpful: 0, unhelpful: 5, want: 0},
		{name: "three quarters", helpful: 3, unhelpful: 1, want: 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := KnowledgeEntry{HelpfulCount: tt.helpful, UnhelpfulCount: tt.unhelpful}
			if got := e.HelpfulRatio(); got != tt.want {
				t.Errorf("HelpfulRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKnowledgeEntry_SearchEligible(t *testing.T) {
	tests := []struct {
		name  string
		entry KnowledgeEntry
		want  bool
	}{
		{
			name:  "published with fresh vector",
			entry: KnowledgeEntry{IsPublished: true, Vector: []float32{0.1, 0.2}},
			want:  true,
		},
		{
			name:  "unpublished",
			entry: KnowledgeEntry{IsPublished: false, Vector: []float32{0.1, 0.2}},
			want:  false,
		},
		{
			name:  "no vector",
			entry: KnowledgeEntry{IsPublished: true},
			want:  false,
		},
		{
			name:  "stale vector",
			entry: KnowledgeEntry{IsPublished: true, Vector: []float32{0.1}, NeedsEmbeddingRefresh: true},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.SearchEligible(); got != tt.want {
				t.Errorf("SearchEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKnowledgeEntry_EmbeddingInput(t *testing.T) {
	e := KnowledgeEntry{Question: "What is the refund window?", Answer: "Thirty days."}
	want := "What is the refund window?\n\nThirty days."
	if got := e.EmbeddingInput(); got != want {
		t.Errorf("EmbeddingInput() = %q, want %q", got, want)
	}
}

func TestSearchMethod_String(t *testing.T) {
	if SearchMethodSemantic.String() != "semantic" {
		t.Errorf("SearchMethodSemantic.String() = %q", SearchMethodSemantic.String())
	}
	if SearchMethodKeyword.String() != "keyword" {
		t.Errorf("SearchMethodKeyword.String() = %q", SearchMethodKeyword.String())
	}
	if SearchMethod(0).String() != "unknown" {
		t.Errorf("SearchMethod(0).String() = %q", SearchMethod(0).String())
	}
}

func TestIndexRun_SuccessRate(t *testing.T) {
	r := IndexRun{}
	if r.SuccessRate() != 0 {
		t.Errorf("SuccessRate() on empty run = %v, want 0", r.SuccessRate())
	}

	r = IndexRun{ProcessedEntries: 4, SuccessCount: 3}
	if r.SuccessRate() != 0.75 {
		t.Errorf("SuccessRate() = %v, want 0.75", r.SuccessRate())
	}
}
