package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"phrase-quality-eval/internal/phrase"
	"phrase-quality-eval/internal/scoring"
	"phrase-quality-eval/internal/util"
)

// BatchLimit is the hard cap on phrases per batch call. It bounds worst-case
// tail latency and memory; batching policy above it belongs to callers.
const BatchLimit = 20

// Contract errors surfaced synchronously to callers.
var (
	ErrInvalidPhrase     = errors.New("phrase must contain 2-4 words")
	ErrEmptyPhrase       = errors.New("phrase is empty")
	ErrBatchSizeExceeded = fmt.Errorf("batch size exceeds limit of %d phrases", BatchLimit)
)

// Weights assigns each component's share of the final score. They sum to 1.
type Weights struct {
	Distinctiveness    float64
	Describability     float64
	LegacyHeuristics   float64
	CulturalValidation float64
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Distinctiveness:    0.25,
		Describability:     0.30,
		LegacyHeuristics:   0.25,
		CulturalValidation: 0.20,
	}
}

func (w Weights) forComponent(name string) float64 {
	switch name {
	case "distinctiveness":
		return w.Distinctiveness
	case "describability":
		return w.Describability
	case "legacy_heuristics":
		return w.LegacyHeuristics
	case "cultural_validation":
		return w.CulturalValidation
	default:
		return 0
	}
}

// Thresholds are the quality-classification cut points (lower bound
// inclusive per band).
type Thresholds struct {
	Excellent  float64
	Good       float64
	Acceptable float64
	Poor       float64
}

// DefaultThresholds returns the production classification bounds.
func DefaultThresholds() Thresholds {
	return Thresholds{Excellent: 80, Good: 60, Acceptable: 40, Poor: 20}
}

// Config tunes the engine.
type Config struct {
	Weights    Weights
	Thresholds Thresholds
	// OverflowCaps bounds each component's normalized contribution. The
	// default 1.25 applies uniformly; today only cultural validation's
	// bonus path exceeds 1.0.
	OverflowCaps map[string]float64
	// Deadlines bound each component's fan-out wait; expiry is treated as a
	// lookup failure, never a call failure.
	Deadlines map[string]time.Duration
	// TargetDuration and MaxDuration are per-phrase monitoring targets.
	TargetDuration time.Duration
	MaxDuration    time.Duration
}

const defaultOverflowCap = 1.25

// DefaultConfig returns the production engine configuration.
func DefaultConfig() Config {
	return Config{
		Weights:    DefaultWeights(),
		Thresholds: DefaultThresholds(),
		Deadlines: map[string]time.Duration{
			"distinctiveness":     300 * time.Millisecond,
			"describability":      300 * time.Millisecond,
			"cultural_validation": 100 * time.Millisecond,
			"legacy_heuristics":   1200 * time.Millisecond,
		},
		TargetDuration: 800 * time.Millisecond,
		MaxDuration:    1500 * time.Millisecond,
	}
}

// Decision is the accept/reject verdict derived from the classification.
type Decision struct {
	Accept         bool   `json:"accept"`
	Confidence     string `json:"confidence"`
	Recommendation string `json:"recommendation"`
	Reasoning      string `json:"reasoning"`
}

// Contribution breaks down one component's share of the final score.
type Contribution struct {
	Raw          float64 `json:"raw"`
	Max          float64 `json:"max"`
	Normalized   float64 `json:"normalized"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Performance carries per-request duration instrumentation.
type Performance struct {
	TotalDurationMs    int64            `json:"total_duration_ms"`
	ComponentDurations map[string]int64 `json:"component_durations"`
	WithinTarget       bool             `json:"within_target"`
}

// AggregateResult is the full evaluation output for one phrase.
type AggregateResult struct {
	Phrase           string                             `json:"phrase"`
	FinalScore       float64                            `json:"final_score"`
	Quality          string                             `json:"quality_classification"`
	Decision         Decision                           `json:"decision"`
	ComponentScores  map[string]float64                 `json:"component_scores"`
	ComponentDetails map[string]scoring.ComponentResult `json:"component_details"`
	WeightedAnalysis map[string]Contribution            `json:"weighted_analysis"`
	Performance      Performance                        `json:"performance"`
}

// BatchItem is one entry of a batch evaluation.
type BatchItem struct {
	Phrase string           `json:"phrase"`
	Result *AggregateResult `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// BatchSummary aggregates a batch run.
type BatchSummary struct {
	TotalPhrases         int            `json:"total_phrases"`
	AvgFinalScore        float64        `json:"avg_final_score"`
	QualityDistribution  map[string]int `json:"quality_distribution"`
	DecisionDistribution map[string]int `json:"decision_distribution"`
	AcceptanceRate       float64        `json:"acceptance_rate"`
	PerformanceRate      float64        `json:"performance_rate"`
	AvgDurationMs        float64        `json:"avg_duration_ms"`
}

// BatchResult is the batch evaluation output.
type BatchResult struct {
	Results []BatchItem  `json:"results"`
	Summary BatchSummary `json:"summary"`
}

// Engine orchestrates the four component scorers. It is stateless per
// request; every evaluation is independent.
type Engine struct {
	cfg     Config
	scorers []scoring.Scorer
}

// New constructs the engine over the supplied scorers. Scorer order fixes
// the display order of component output.
func New(cfg Config, scorers ...scoring.Scorer) *Engine {
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	if cfg.TargetDuration <= 0 {
		cfg.TargetDuration = DefaultConfig().TargetDuration
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = DefaultConfig().MaxDuration
	}
	return &Engine{cfg: cfg, scorers: scorers}
}

type componentOutcome struct {
	name   string
	result scoring.ComponentResult
}

// ScorePhrase validates the phrase, fans out to all scorers concurrently,
// and aggregates their results into a verdict.
func (e *Engine) ScorePhrase(ctx context.Context, raw string) (AggregateResult, error) {
	timer := util.StartTimer()

	profile := phrase.Normalize(raw)
	if profile.Normalized == "" {
		return AggregateResult{}, ErrEmptyPhrase
	}
	if !profile.Valid() {
		return AggregateResult{}, fmt.Errorf("%w: got %d", ErrInvalidPhrase, profile.WordCount())
	}

	// Scorers receive the raw input, not the normalized form: each one
	// normalizes for itself, and describability reads the original casing
	// for its proper-noun detection.
	outcomes := make(chan componentOutcome, len(e.scorers))
	for _, scorer := range e.scorers {
		go e.runComponent(ctx, scorer, raw, outcomes)
	}

	result := AggregateResult{
		Phrase:           profile.Normalized,
		ComponentScores:  make(map[string]float64, len(e.scorers)),
		ComponentDetails: make(map[string]scoring.ComponentResult, len(e.scorers)),
		WeightedAnalysis: make(map[string]Contribution, len(e.scorers)),
		Performance: Performance{
			ComponentDurations: make(map[string]int64, len(e.scorers)),
		},
	}

	final := 0.0
	for range e.scorers {
		outcome := <-outcomes
		component := outcome.result

		if component.Failed() {
			logrus.WithFields(logrus.Fields{
				"phrase":    profile.Normalized,
				"component": outcome.name,
				"band":      component.Band,
				"error":     component.Error,
			}).Warn("component degraded; scoring continues")
		}

		contribution := e.contribution(outcome.name, component)
		final += contribution.Contribution

		result.ComponentScores[outcome.name] = component.Score
		result.ComponentDetails[outcome.name] = component
		result.WeightedAnalysis[outcome.name] = contribution
		result.Performance.ComponentDurations[outcome.name] = component.DurationMs
	}

	result.FinalScore = round2(final)
	result.Quality = e.ClassifyQuality(result.FinalScore)
	result.Decision = e.decide(result)
	result.Performance.TotalDurationMs = timer.ElapsedMs()
	result.Performance.WithinTarget = timer.Elapsed() <= e.cfg.TargetDuration

	if timer.Elapsed() > e.cfg.MaxDuration {
		logrus.WithFields(logrus.Fields{
			"phrase":   profile.Normalized,
			"total_ms": result.Performance.TotalDurationMs,
			"max_ms":   e.cfg.MaxDuration.Milliseconds(),
		}).Warn("phrase evaluation exceeded max duration target")
	}
	return result, nil
}

// runComponent executes one scorer under its fan-out deadline with panic
// isolation. A deadline expiry is reported as a timeout result; the
// abandoned call finishes in the background.
func (e *Engine) runComponent(ctx context.Context, scorer scoring.Scorer, raw string, out chan<- componentOutcome) {
	deadline := e.deadlineFor(scorer.Name())
	callCtx, cancel := context.WithTimeout(ctx, deadline)

	inner := make(chan scoring.ComponentResult, 1)
	start := time.Now()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				inner <- scoring.ComponentResult{
					Band:  scoring.BandError,
					Error: fmt.Sprintf("panic: %v", r),
				}
			}
		}()
		inner <- scorer.Score(callCtx, raw)
	}()

	select {
	case result := <-inner:
		cancel()
		out <- componentOutcome{name: scorer.Name(), result: result}
	case <-callCtx.Done():
		cancel()
		out <- componentOutcome{name: scorer.Name(), result: scoring.ComponentResult{
			Band:       scoring.BandTimeout,
			Error:      fmt.Sprintf("component deadline %s exceeded", deadline),
			DurationMs: time.Since(start).Milliseconds(),
		}}
	}
}

func (e *Engine) deadlineFor(name string) time.Duration {
	if d, ok := e.cfg.Deadlines[name]; ok && d > 0 {
		return d
	}
	return 300 * time.Millisecond
}

// contribution computes clamp(raw/max, 0, cap) * 100 * weight.
func (e *Engine) contribution(name string, r scoring.ComponentResult) Contribution {
	weight := e.cfg.Weights.forComponent(name)
	max := r.Max
	normalized := 0.0
	if max > 0 {
		normalized = r.Score / max
	}
	if normalized < 0 {
		normalized = 0
	}
	overflowCap := defaultOverflowCap
	if override, ok := e.cfg.OverflowCaps[name]; ok && override > 0 {
		overflowCap = override
	}
	if normalized > overflowCap {
		normalized = overflowCap
	}
	return Contribution{
		Raw:          r.Score,
		Max:          max,
		Normalized:   normalized,
		Weight:       weight,
		Contribution: normalized * 100 * weight,
	}
}

// ClassifyQuality maps a final score to its quality band (lower bound
// inclusive).
func (e *Engine) ClassifyQuality(score float64) string {
	t := e.cfg.Thresholds
	switch {
	case score >= t.Excellent:
		return "excellent"
	case score >= t.Good:
		return "good"
	case score >= t.Acceptable:
		return "acceptable"
	case score >= t.Poor:
		return "poor"
	default:
		return "unacceptable"
	}
}

func (e *Engine) decide(result AggregateResult) Decision {
	var d Decision
	switch result.Quality {
	case "excellent":
		d = Decision{Accept: true, Confidence: "high", Recommendation: "auto_accept"}
	case "good":
		d = Decision{Accept: true, Confidence: "medium", Recommendation: "likely_accept"}
	case "acceptable":
		d = Decision{Accept: true, Confidence: "low", Recommendation: "conditional_accept"}
	case "poor":
		d = Decision{Accept: false, Confidence: "reject", Recommendation: "likely_reject"}
	default:
		d = Decision{Accept: false, Confidence: "reject", Recommendation: "auto_reject"}
	}
	d.Reasoning = buildReasoning(result)
	return d
}

// buildReasoning summarizes the strongest and weakest contributions so a
// reviewer can see why the verdict landed where it did.
func buildReasoning(result AggregateResult) string {
	type ranked struct {
		name string
		c    Contribution
	}
	entries := make([]ranked, 0, len(result.WeightedAnalysis))
	for name, c := range result.WeightedAnalysis {
		entries = append(entries, ranked{name: name, c: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].c.Contribution != entries[j].c.Contribution {
			return entries[i].c.Contribution > entries[j].c.Contribution
		}
		return entries[i].name < entries[j].name
	})

	parts := make([]string, 0, len(entries)+1)
	parts = append(parts, fmt.Sprintf("final score %.2f (%s)", result.FinalScore, result.Quality))
	for _, entry := range entries {
		parts = append(parts, fmt.Sprintf("%s %.1f/%.0f", entry.name, entry.c.Raw, entry.c.Max))
	}
	return strings.Join(parts, "; ")
}

// BatchScorePhrases evaluates up to BatchLimit phrases. Exceeding the cap
// fails the whole call before any per-phrase work; per-item invalid input
// produces an error entry without aborting the batch.
func (e *Engine) BatchScorePhrases(ctx context.Context, phrases []string) (BatchResult, error) {
	if len(phrases) > BatchLimit {
		return BatchResult{}, ErrBatchSizeExceeded
	}

	batch := BatchResult{
		Results: make([]BatchItem, 0, len(phrases)),
		Summary: BatchSummary{
			TotalPhrases:         len(phrases),
			QualityDistribution:  make(map[string]int),
			DecisionDistribution: make(map[string]int),
		},
	}

	var (
		scored        int
		accepted      int
		withinTarget  int
		scoreSum      float64
		durationSumMs int64
	)

	for _, raw := range phrases {
		item := BatchItem{Phrase: strings.TrimSpace(raw)}
		result, err := e.ScorePhrase(ctx, raw)
		if err != nil {
			item.Error = err.Error()
			batch.Results = append(batch.Results, item)
			continue
		}
		item.Phrase = result.Phrase
		item.Result = &result
		batch.Results = append(batch.Results, item)

		scored++
		scoreSum += result.FinalScore
		durationSumMs += result.Performance.TotalDurationMs
		batch.Summary.QualityDistribution[result.Quality]++
		batch.Summary.DecisionDistribution[result.Decision.Recommendation]++
		if result.Decision.Accept {
			accepted++
		}
		if result.Performance.WithinTarget {
			withinTarget++
		}
	}

	if scored > 0 {
		batch.Summary.AvgFinalScore = round2(scoreSum / float64(scored))
		batch.Summary.AcceptanceRate = round2(float64(accepted) / float64(scored))
		batch.Summary.PerformanceRate = round2(float64(withinTarget) / float64(scored))
		batch.Summary.AvgDurationMs = round2(float64(durationSumMs) / float64(scored))
	}
	return batch, nil
}

// Stats aggregates per-scorer diagnostics.
func (e *Engine) Stats() map[string]any {
	stats := make(map[string]any, len(e.scorers))
	for _, scorer := range e.scorers {
		stats[scorer.Name()] = scorer.Stats()
	}
	return stats
}

// Close releases all scorers. Individual close failures are logged and
// swallowed so shutdown always completes.
func (e *Engine) Close() {
	for _, scorer := range e.scorers {
		if err := scorer.Close(); err != nil {
			logrus.WithError(err).WithField("component", scorer.Name()).Warn("close scorer")
		}
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
