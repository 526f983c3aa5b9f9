package models

// Roles accepted in conversation history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// HistoryPart is one text segment of a conversation turn.
type HistoryPart struct {
	Text string `json:"text"`
}

// HistoryItem is one role-attributed turn in the caller-replayed history.
type HistoryItem struct {
	Role  string        `json:"role"`
	Parts []HistoryPart `json:"parts"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Question string        `json:"question"`
	History  []HistoryItem `json:"history"`
}

// IngestResponse is the body of a successful POST /api/ingest.
type IngestResponse struct {
	Message      string `json:"message"`
	ChunksStored int    `json:"chunks_stored"`
	Filename     string `json:"filename"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the uniform error body for non-streaming failures.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
