// Package store persists embedded chunks and answers nearest-neighbour
// queries over them. Two backends exist: an embedded chromem-go database and
// Postgres with pgvector.
package store

import "context"

// Record is the persisted shape of one chunk. Records are written in bulk by
// one ingestion run and never mutated or deleted afterwards.
type Record struct {
	Text      string
	Embedding []float32
	Filename  string
	ChunkID   int
}

// SearchResult pairs a stored record with its cosine similarity to the query.
type SearchResult struct {
	Record
	Similarity float32
}

// Store is the gateway capability both pipelines share.
//
// InsertMany persists records independently: one failing record does not
// block the others. It returns how many records were stored; a non-nil error
// reports the failures and is returned even on partial success.
//
// SimilaritySearch returns at most k records ordered by descending cosine
// similarity. An empty store yields an empty result, never an error.
type Store interface {
	InsertMany(ctx context.Context, records []Record) (int, error)
	SimilaritySearch(ctx context.Context, query []float32, k int) ([]SearchResult, error)
}
