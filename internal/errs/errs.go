// Package errs defines the error kinds shared across the ingestion and chat
// pipelines and their mapping to HTTP status codes.
package errs

import (
	"errors"
	"net/http"
)

var (
	// ErrExtraction means the uploaded bytes are not a parsable document.
	ErrExtraction = errors.New("document extraction failed")
	// ErrUnsupportedType means the file extension has no extractor.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrEmbedding means the embedding service rejected or failed on input.
	ErrEmbedding = errors.New("embedding generation failed")
	// ErrStore means the vector store is unreachable or a query/write failed.
	ErrStore = errors.New("vector store unavailable")
	// ErrGeneration means the chat model failed or was interrupted mid-stream.
	ErrGeneration = errors.New("answer generation failed")
	// ErrConfig means a startup-level invariant was violated at request time,
	// e.g. an embedding dimension mismatch against the store.
	ErrConfig = errors.New("configuration error")
	// ErrUnauthorized means the API key is missing or wrong.
	ErrUnauthorized = errors.New("invalid or missing API key")
)

// HTTPStatus maps an error to the status code reported to clients.
// Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrExtraction), errors.Is(err, ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrEmbedding), errors.Is(err, ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, ErrStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
