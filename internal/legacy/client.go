package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"phrase-quality-eval/internal/metrics"
	"phrase-quality-eval/internal/scoring"
	"phrase-quality-eval/internal/util"
)

// Config drives the legacy heuristics client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	CacheTTL   time.Duration
	MaxRetries int
	NominalMax float64
}

// Client consumes the opaque legacy heuristics service through its
// score-in-range contract. How the service computes its score is
// deliberately undocumented here.
type Client struct {
	httpClient *http.Client
	baseURL    string
	nominalMax float64
	maxRetries int
	cache      *gocache.Cache
	sink       metrics.Sink
}

const (
	defaultTimeout    = 5 * time.Second
	defaultCacheTTL   = 30 * time.Minute
	defaultMaxRetries = 3
	defaultNominalMax = 30.0
	initialBackoff    = 250 * time.Millisecond
	maxBackoff        = 2 * time.Second
)

// NewClient constructs the legacy client. An empty BaseURL yields a disabled
// client that reports zero-score results rather than an error: the engine
// still aggregates the other three components.
func NewClient(cfg Config, sink metrics.Sink) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	nominalMax := cfg.NominalMax
	if nominalMax <= 0 {
		nominalMax = defaultNominalMax
	}
	if sink == nil {
		sink = metrics.Nop{}
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		nominalMax: nominalMax,
		maxRetries: retries,
		cache:      gocache.New(ttl, 2*ttl),
		sink:       sink,
	}
}

// Name identifies the scorer in aggregate output.
func (c *Client) Name() string { return "legacy_heuristics" }

// Enabled reports whether a service URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Score calls the legacy service, recovering any transport failure into a
// zero-score result with the message attached.
func (c *Client) Score(ctx context.Context, phrase string) scoring.ComponentResult {
	timer := util.StartTimer()
	result := scoring.ComponentResult{Max: c.nominalMax}
	defer func() {
		result.DurationMs = timer.ElapsedMs()
		c.sink.Observe(c.Name(), timer.Elapsed(), result.Failed())
	}()

	if !c.Enabled() {
		result.Band = scoring.BandDisabled
		return result
	}

	key := strings.ToLower(strings.TrimSpace(phrase))
	if key == "" {
		result.Band = scoring.BandError
		result.Error = "empty phrase"
		return result
	}

	if cached, ok := c.cache.Get(key); ok {
		if payload, ok := cached.(scorePayload); ok {
			return c.fromPayload(payload, timer)
		}
	}

	payload, err := c.scoreWithRetry(ctx, key)
	if err != nil {
		result.Band = scoring.BandError
		result.Error = err.Error()
		logrus.WithError(err).WithField("phrase", key).Warn("legacy heuristics unavailable")
		return result
	}

	c.cache.SetDefault(key, payload)
	return c.fromPayload(payload, timer)
}

func (c *Client) fromPayload(payload scorePayload, timer util.Timer) scoring.ComponentResult {
	score := payload.Score
	if score < 0 {
		score = 0
	}
	if score > c.nominalMax {
		score = c.nominalMax
	}
	return scoring.ComponentResult{
		Score:      score,
		Max:        c.nominalMax,
		Band:       payload.Band,
		Details:    payload.Details,
		DurationMs: timer.ElapsedMs(),
	}
}

func (c *Client) scoreWithRetry(ctx context.Context, phrase string) (scorePayload, error) {
	delay := initialBackoff
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		payload, err := c.performRequest(ctx, phrase)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return scorePayload{}, ctx.Err()
		}
		if !shouldRetry(err) {
			break
		}
		select {
		case <-ctx.Done():
			return scorePayload{}, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
	return scorePayload{}, lastErr
}

func (c *Client) performRequest(ctx context.Context, phrase string) (scorePayload, error) {
	body, err := json.Marshal(scoreRequest{Phrase: phrase})
	if err != nil {
		return scorePayload{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return scorePayload{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return scorePayload{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return scorePayload{}, &statusError{code: resp.StatusCode}
	}

	var payload scorePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return scorePayload{}, fmt.Errorf("decode legacy response: %w", err)
	}
	return payload, nil
}

// statusError carries the HTTP status of a rejected legacy-service call so
// retry eligibility is decided on the code, not the message text.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("legacy service status %d", e.code)
}

// shouldRetry retries rate limiting and every server-side failure; client
// errors are terminal.
func shouldRetry(err error) bool {
	var se *statusError
	if !errors.As(err, &se) {
		return false
	}
	return se.code == http.StatusTooManyRequests || se.code >= 500
}

type scoreRequest struct {
	Phrase string `json:"phrase"`
}

type scorePayload struct {
	Score   float64        `json:"score"`
	Band    string         `json:"band"`
	Details map[string]any `json:"details,omitempty"`
}

// Stats returns processing diagnostics.
func (c *Client) Stats() map[string]any {
	stats := map[string]any{"enabled": c.Enabled()}
	if rec, ok := c.sink.(*metrics.Recorder); ok {
		for k, v := range rec.Stats(c.Name()) {
			stats[k] = v
		}
	}
	return stats
}

// Close releases the client's cached entries.
func (c *Client) Close() error {
	if c != nil && c.cache != nil {
		c.cache.Flush()
	}
	return nil
}
