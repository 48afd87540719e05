// Package indexer provides the batch embedding pipeline for the knowledge
// base. It selects entries whose embeddings are missing or stale, generates
// vectors in rate-limited batches, writes them back to the corpus store and
// the vector index, and checkpoints run state after every batch so an
// interrupted run can be resumed.
package indexer
