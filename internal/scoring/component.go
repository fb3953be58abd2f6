package scoring

import "context"

// ComponentResult is the common output shape for every component scorer.
// Score stays within [0, Max] except for the documented cultural-validation
// bonus allowance.
type ComponentResult struct {
	Score      float64        `json:"score"`
	Max        float64        `json:"max"`
	Band       string         `json:"band"`
	Details    map[string]any `json:"details,omitempty"`
	DurationMs int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

// Failed reports whether the result carries a recovered lookup failure.
func (r ComponentResult) Failed() bool {
	return r.Error != ""
}

// Scorer is the contract every component scorer satisfies. Score never
// returns an error: lookup failures are recovered into a zero-score result
// with the message attached.
type Scorer interface {
	Name() string
	Score(ctx context.Context, phrase string) ComponentResult
	Stats() map[string]any
	Close() error
}

// Band names shared across scorers.
const (
	BandError            = "error"
	BandTimeout          = "timeout"
	BandInvalidWordCount = "invalid_word_count"
	BandDisabled         = "disabled"
	BandNoEvidence       = "no_evidence"
)
