// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidateKnowledgeEntry validates a KnowledgeEntry according to domain rules.
//
// Validation rules:
//   - Question must not be empty
//   - Answer must not be empty
//   - Popularity and feedback counters must not be negative
//   - Vector length must match EmbeddingDims when both are set
//
// NOT validated (populated by the indexer):
//   - Vector (can be empty until the entry is embedded)
//   - ID (0 is valid from database sequences)
func ValidateKnowledgeEntry(entry *KnowledgeEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidEntry)
	}

	if strings.TrimSpace(entry.Question) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyQuestion)
	}

	if strings.TrimSpace(entry.Answer) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrEmptyAnswer)
	}

	if entry.Views < 0 || entry.HelpfulCount < 0 || entry.UnhelpfulCount < 0 ||
		entry.ClickCount < 0 || entry.SearchHits < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, ErrNegativeCounter)
	}

	if len(entry.Vector) > 0 && entry.EmbeddingDims > 0 && len(entry.Vector) != entry.EmbeddingDims {
		return fmt.Errorf("%w: %w: have %d, want %d",
			ErrInvalidEntry, ErrVectorDimensionMismatch, len(entry.Vector), entry.EmbeddingDims)
	}

	return nil
}

// ValidateSearchQuery validates free-text query input.
// A query that is blank after trimming is a validation failure, not a search
// with zero results.
func ValidateSearchQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// ValidateMinScore checks that a similarity threshold is within [0,1].
func ValidateMinScore(minScore float32) error {
	if minScore < 0 || minScore > 1 {
		return fmt.Errorf("%w: value %v", ErrInvalidMinScore, minScore)
	}
	return nil
}
