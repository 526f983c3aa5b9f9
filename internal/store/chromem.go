package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"docchat/internal/errs"
)

// Chromem is the embedded vector store backend, persistent or in-memory.
type Chromem struct {
	db         *chromem.DB
	collection *chromem.Collection
	dimensions int
}

const chromemCompress = false

// NewChromem opens (or creates) the database and collection.
func NewChromem(path, collectionName string, inMemory bool, dimensions int) (*Chromem, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, chromemCompress)
		if err != nil {
			return nil, fmt.Errorf("%w: open database: %v", errs.ErrStore, err)
		}
	}
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open collection: %v", errs.ErrStore, err)
	}
	return &Chromem{db: db, collection: collection, dimensions: dimensions}, nil
}

func (c *Chromem) InsertMany(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	stored := 0
	var failures []error
	for _, r := range records {
		if len(r.Embedding) != c.dimensions {
			return stored, fmt.Errorf("%w: embedding dimension %d, store configured for %d",
				errs.ErrConfig, len(r.Embedding), c.dimensions)
		}
		doc := chromem.Document{
			ID:      uuid.NewString(),
			Content: r.Text,
			Metadata: map[string]string{
				"filename": r.Filename,
				"chunk_id": strconv.Itoa(r.ChunkID),
			},
			Embedding: r.Embedding,
		}
		if err := c.collection.AddDocument(ctx, doc); err != nil {
			failures = append(failures, fmt.Errorf("chunk %d: %w", r.ChunkID, err))
			continue
		}
		stored++
	}
	if len(failures) > 0 {
		return stored, fmt.Errorf("%w: %v", errs.ErrStore, errors.Join(failures...))
	}
	return stored, nil
}

func (c *Chromem) SimilaritySearch(ctx context.Context, query []float32, k int) ([]SearchResult, error) {
	// chromem rejects nResults above the collection size.
	if count := c.collection.Count(); count < k {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}
	results, err := c.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: query,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", errs.ErrStore, err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, res := range results {
		chunkID, err := strconv.Atoi(res.Metadata["chunk_id"])
		if err != nil {
			log.Warn().Str("id", res.ID).Msg("stored document has no chunk_id")
		}
		out = append(out, SearchResult{
			Record: Record{
				Text:      res.Content,
				Embedding: res.Embedding,
				Filename:  res.Metadata["filename"],
				ChunkID:   chunkID,
			},
			Similarity: res.Similarity,
		})
	}
	return out, nil
}

// Reset drops and recreates the collection. Test and maintenance helper; no
// HTTP surface exposes it.
func (c *Chromem) Reset(ctx context.Context) error {
	name := c.collection.Name
	if err := c.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("%w: drop collection: %v", errs.ErrStore, err)
	}
	collection, err := c.db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: recreate collection: %v", errs.ErrStore, err)
	}
	c.collection = collection
	return nil
}
