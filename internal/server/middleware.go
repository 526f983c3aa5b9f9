package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"docchat/internal/models"
)

const apiKeyHeader = "X-API-Key"

// apiKeyAuth guards the ingestion and chat routes with a shared API key.
func apiKeyAuth(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(apiKeyHeader)
		if got == "" {
			log.Warn().Str("path", c.Request.URL.Path).Msg("request without API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "API key is required"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			log.Warn().Str("path", c.Request.URL.Path).Msg("request with invalid API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Detail: "Invalid API key"})
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+apiKeyHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
