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


// Package vectorindex defines the vector index abstraction consumed by the
// batch indexer and the query engine.
//
// The index stores (id, vector, metadata) records and answers top-K
// nearest-neighbor queries with an optional score threshold. Ids mirror
// knowledge entry ids; an index record whose entry has been deleted is
// orphaned and is removed by the next indexer pass.
//
// # Implementation Packages
//
//   - vectorindex/qdrant: Production implementation backed by Qdrant over gRPC
//   - vectorindex/mock: In-memory cosine index for tests and local development
package vectorindex
