package api

// ScoreRequest is the single-phrase evaluation payload.
type ScoreRequest struct {
	Phrase string `json:"phrase" binding:"required"`
}

// BatchScoreRequest is the batch evaluation payload.
type BatchScoreRequest struct {
	Phrases []string `json:"phrases" binding:"required"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse reports service liveness and reference-store row counts.
type HealthResponse struct {
	Status   string `json:"status"`
	Entities int64  `json:"entities"`
	Ngrams   int64  `json:"ngrams"`
}

// ConfigResponse exposes the effective scoring configuration for review
// tooling.
type ConfigResponse struct {
	Weights    map[string]float64 `json:"weights"`
	Thresholds map[string]float64 `json:"thresholds"`
	BatchLimit int                `json:"batch_limit"`
}
