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


// Package search provides hybrid semantic and keyword search over the
// knowledge base.
//
// The Engine type attempts vector similarity search first, blending the
// semantic score with popularity, helpfulness, and pinning signals into a
// single relevance score. When semantic search is disabled, errors, or
// returns nothing, it falls back to keyword matching over published
// entries so the caller always gets a usable response in the same shape.
package search
