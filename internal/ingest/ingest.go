// Package ingest orchestrates extraction, embedding and storage for one
// uploaded document.
package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"docchat/internal/embedding"
	"docchat/internal/extract"
	"docchat/internal/store"
)

// Result reports one ingestion run.
type Result struct {
	Filename       string
	PagesExtracted int
	Stored         int
}

type Pipeline struct {
	embedder     embedding.Embedder
	store        store.Store
	concurrency  int
	embedTimeout time.Duration
	storeTimeout time.Duration
}

func New(embedder embedding.Embedder, st store.Store, concurrency int, embedTimeout, storeTimeout time.Duration) *Pipeline {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		embedder:     embedder,
		store:        st,
		concurrency:  concurrency,
		embedTimeout: embedTimeout,
		storeTimeout: storeTimeout,
	}
}

// Run ingests one document: extract pages (capped at maxPages), embed every
// non-empty page, persist the batch, report the stored count.
//
// Embedding is fail-fast: the first failure cancels the in-flight calls and
// nothing is persisted, so a document never ends up half-stored. Chunk IDs
// are assigned by page order, not completion order, and form a contiguous
// range starting at 0.
//
// Partial store success is tolerated: the stored count is reported alongside
// the joined per-record error.
func (p *Pipeline) Run(ctx context.Context, data []byte, filename string, maxPages int) (Result, error) {
	res := Result{Filename: filename}

	pages, err := extract.Extract(data, filename, maxPages)
	if err != nil {
		return res, err
	}
	res.PagesExtracted = len(pages)
	if len(pages) == 0 {
		log.Info().Str("filename", filename).Msg("no extractable text, nothing to store")
		return res, nil
	}

	vectors := make([][]float32, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, page := range pages {
		g.Go(func() error {
			ectx, cancel := context.WithTimeout(gctx, p.embedTimeout)
			defer cancel()
			vecs, err := p.embedder.EmbedDocuments(ectx, []string{page.Text})
			if err != nil {
				return err
			}
			vectors[i] = vecs[0]
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	records := make([]store.Record, len(pages))
	for i, page := range pages {
		records[i] = store.Record{
			Text:      page.Text,
			Embedding: vectors[i],
			Filename:  filename,
			ChunkID:   i,
		}
	}

	sctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()
	stored, err := p.store.InsertMany(sctx, records)
	res.Stored = stored
	if err != nil {
		return res, err
	}

	log.Info().
		Str("filename", filename).
		Int("pages_extracted", res.PagesExtracted).
		Int("stored", stored).
		Msg("ingestion complete")
	return res, nil
}
