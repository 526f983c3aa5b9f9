package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docchat/internal/chat"
	"docchat/internal/config"
	"docchat/internal/embedding"
	"docchat/internal/ingest"
	"docchat/internal/llmservice"
	"docchat/internal/server"
	"docchat/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	st, err := newStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	model, err := llmservice.NewModel(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat model")
	}

	ingestPipeline := ingest.New(embedder, st, cfg.RAG.EmbedConcurrency,
		cfg.EmbedLLM.Timeout(), cfg.Store.Timeout())
	chatPipeline := chat.New(embedder, st, model, cfg.RAG.TopK,
		cfg.EmbedLLM.Timeout(), cfg.Store.Timeout(), cfg.ChatLLM.Timeout())

	srv := server.New(cfg, ingestPipeline, chatPipeline)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store.Type).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
	log.Info().Msg("Server stopped")
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Type {
	case config.StorePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.Timeout())
		defer cancel()
		return store.NewPostgres(ctx, cfg.Store.DSN, cfg.Store.Password, cfg.EmbedLLM.Dimensions, cfg.Store.Debug)
	default:
		return store.NewChromem(cfg.Store.Path, cfg.Store.Collection, cfg.Store.InMemory, cfg.EmbedLLM.Dimensions)
	}
}
