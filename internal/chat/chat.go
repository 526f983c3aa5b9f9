// Package chat answers questions over the ingested documents: embed the
// question, retrieve the nearest chunks, and stream a grounded model answer.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"docchat/internal/embedding"
	"docchat/internal/errs"
	"docchat/internal/models"
	"docchat/internal/store"
)

// Generator is the generation capability, satisfied by llms.Model.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Event is one element of the answer stream. Exactly one field group is set:
// Sources (first event), Answer (a text fragment), Done or Err (terminal).
type Event struct {
	Sources []string
	Answer  string
	Done    bool
	Err     error
}

type Pipeline struct {
	embedder        embedding.Embedder
	store           store.Store
	generator       Generator
	topK            int
	embedTimeout    time.Duration
	storeTimeout    time.Duration
	generateTimeout time.Duration
}

func New(embedder embedding.Embedder, st store.Store, generator Generator, topK int,
	embedTimeout, storeTimeout, generateTimeout time.Duration) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	return &Pipeline{
		embedder:        embedder,
		store:           st,
		generator:       generator,
		topK:            topK,
		embedTimeout:    embedTimeout,
		storeTimeout:    storeTimeout,
		generateTimeout: generateTimeout,
	}
}

// Stream answers a question against the store, forwarding generation output
// fragment by fragment as it arrives.
//
// Retrieval failures happen before any stream exists and are returned
// directly, so the caller can still send a plain error response. Once the
// channel is handed out, failures arrive as a terminal Err event; fragments
// already delivered are never retracted. The channel closes after the
// terminal event. Cancelling ctx stops generation and releases the goroutine.
func (p *Pipeline) Stream(ctx context.Context, question string, history []models.HistoryItem) (<-chan Event, error) {
	ectx, cancel := context.WithTimeout(ctx, p.embedTimeout)
	queryVec, err := p.embedder.EmbedQuery(ectx, question)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	sctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	results, err := p.store.SimilaritySearch(sctx, queryVec, p.topK)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	contextBlock, sources := buildContext(results)
	messages := BuildMessages(contextBlock, history, question)
	log.Debug().Int("retrieved", len(results)).Strs("sources", sources).Msg("context assembled")

	events := make(chan Event, 8)
	go p.generate(ctx, messages, sources, events)
	return events, nil
}

func (p *Pipeline) generate(ctx context.Context, messages []llms.MessageContent, sources []string, events chan<- Event) {
	defer close(events)

	gctx, cancel := context.WithTimeout(ctx, p.generateTimeout)
	defer cancel()

	if !send(gctx, events, Event{Sources: sources}) {
		return
	}
	_, err := p.generator.GenerateContent(gctx, messages,
		llms.WithStreamingFunc(func(cbCtx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			if !send(cbCtx, events, Event{Answer: string(chunk)}) {
				return cbCtx.Err()
			}
			return nil
		}),
	)
	// Terminal events go out against the caller's ctx: gctx may already be
	// done (a generation timeout is exactly the failure being reported), and
	// the stream must still end with an observable Done or Err.
	if err != nil {
		send(ctx, events, Event{Err: fmt.Errorf("%w: %v", errs.ErrGeneration, err)})
		return
	}
	send(ctx, events, Event{Done: true})
}

// send delivers an event unless the request is gone. The channel buffer keeps
// fragments flowing; a vanished consumer is detected through ctx.
func send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// buildContext joins retrieved texts in returned order and collects the
// distinct source filenames.
func buildContext(results []store.SearchResult) (string, []string) {
	var blocks []string
	sources := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, res := range results {
		blocks = append(blocks, res.Text)
		if _, ok := seen[res.Filename]; !ok && res.Filename != "" {
			seen[res.Filename] = struct{}{}
			sources = append(sources, res.Filename)
		}
	}
	return strings.Join(blocks, "\n\n"), sources
}
