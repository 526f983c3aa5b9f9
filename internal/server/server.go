// Package server exposes the pipelines over HTTP: multipart ingestion, an
// SSE chat stream, and a keep-alive health probe.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docchat/internal/chat"
	"docchat/internal/config"
	"docchat/internal/errs"
	"docchat/internal/ingest"
	"docchat/internal/models"
)

const endOfStream = "[DONE]"

type Server struct {
	cfg    *config.Config
	ingest *ingest.Pipeline
	chat   *chat.Pipeline
}

func New(cfg *config.Config, ingestPipeline *ingest.Pipeline, chatPipeline *chat.Pipeline) *Server {
	return &Server{cfg: cfg, ingest: ingestPipeline, chat: chatPipeline}
}

// Router wires the routes. /health stays outside the authenticated group and
// touches neither the store nor the AI services.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors())

	r.GET("/health", s.handleHealth)

	api := r.Group("/api", apiKeyAuth(s.cfg.Server.APIKey))
	api.POST("/ingest", s.handleIngest)
	api.POST("/chat", s.handleChat)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "awake"})
}

func (s *Server) handleIngest(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "multipart field 'file' is required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "cannot read uploaded file"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "cannot read uploaded file"})
		return
	}

	maxPages := s.cfg.RAG.MaxPages
	if v := c.PostForm("max_pages"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "max_pages must be a positive integer"})
			return
		}
		maxPages = n
	}

	res, err := s.ingest.Run(c.Request.Context(), data, fileHeader.Filename, maxPages)
	if err != nil {
		if res.Stored == 0 {
			log.Error().Err(err).Str("filename", res.Filename).Msg("ingestion failed")
			c.JSON(errs.HTTPStatus(err), models.ErrorResponse{Detail: err.Error()})
			return
		}
		// Partial store success: the stored count is still the contract.
		log.Warn().Err(err).Str("filename", res.Filename).Int("stored", res.Stored).
			Msg("ingestion stored a partial batch")
	}
	c.JSON(http.StatusOK, models.IngestResponse{
		Message:      "Success",
		ChunksStored: res.Stored,
		Filename:     res.Filename,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Detail: "question must not be empty"})
		return
	}

	events, err := s.chat.Stream(c.Request.Context(), req.Question, req.History)
	if err != nil {
		log.Error().Err(err).Msg("chat failed before streaming")
		c.JSON(errs.HTTPStatus(err), models.ErrorResponse{Detail: err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		switch {
		case ev.Err != nil:
			log.Error().Err(ev.Err).Msg("chat stream terminated")
			writeData(w, map[string]string{"error": ev.Err.Error()})
			return false
		case ev.Done:
			fmt.Fprintf(w, "data: %s\n\n", endOfStream)
			return false
		case ev.Sources != nil:
			writeData(w, map[string][]string{"sources": ev.Sources})
		default:
			writeData(w, map[string]string{"answer": ev.Answer})
		}
		return true
	})
}

func writeData(w io.Writer, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
