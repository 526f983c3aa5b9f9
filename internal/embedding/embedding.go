// Package embedding maps text to fixed-length vectors through langchaingo.
//
// Document and query embeddings go through distinct methods so backends that
// distinguish retrieval task types can hint them, but both live in the same
// vector space: similarity comparisons between the two stay meaningful.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"docchat/internal/config"
	"docchat/internal/errs"
)

// Embedder is the capability the pipelines depend on. Satisfied by
// langchaingo's embeddings.Embedder; tests substitute deterministic fakes.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder builds the configured backend wrapped with error tagging.
func NewEmbedder(cfg *config.LLMConfig) (Embedder, error) {
	var impl embeddings.Embedder
	var err error
	switch cfg.Provider {
	case "ollama":
		impl, err = newOllamaEmbedder(cfg)
	case "openai":
		impl, err = newOpenAIEmbedder(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return &tagged{impl: impl}, nil
}

func newOpenAIEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init embedding llm: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

func newOllamaEmbedder(cfg *config.LLMConfig) (embeddings.Embedder, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init embedding llm: %w", err)
	}
	return embeddings.NewEmbedder(llm)
}

// tagged wraps backend failures with the embedding error kind so callers can
// map them to a stable status code without knowing the provider.
type tagged struct {
	impl embeddings.Embedder
}

func (t *tagged) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := t.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEmbedding, err)
	}
	return vecs, nil
}

func (t *tagged) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := t.impl.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrEmbedding, err)
	}
	return vec, nil
}
