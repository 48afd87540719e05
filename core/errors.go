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

import "errors"

// Domain validation errors
var (
	// ErrInvalidEntry wraps all knowledge entry validation failures.
	ErrInvalidEntry = errors.New("invalid knowledge entry")

	// ErrEmptyQuestion indicates a knowledge entry with no question text.
	ErrEmptyQuestion = errors.New("question must not be empty")

	// ErrEmptyAnswer indicates a knowledge entry with no answer text.
	ErrEmptyAnswer = errors.New("answer must not be empty")

	// ErrEmptyQuery indicates a search query that is blank after trimming.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrInvalidLimit indicates a non-positive result limit.
	ErrInvalidLimit = errors.New("limit must be greater than 0")

	// ErrInvalidMinScore indicates a similarity threshold outside [0,1].
	ErrInvalidMinScore = errors.New("min score must be between 0 and 1")

	// ErrNegativeCounter indicates a negative popularity or feedback counter.
	ErrNegativeCounter = errors.New("counters must not be negative")

	// ErrVectorDimensionMismatch indicates an embedding whose length does not
	// match the entry's recorded dimension.
	ErrVectorDimensionMismatch = errors.New("vector dimension mismatch")
)
