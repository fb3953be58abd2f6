package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phrase-quality-eval/internal/scoring"
)

// stubScorer returns a fixed result, optionally after a delay or a panic.
type stubScorer struct {
	name   string
	score  float64
	max    float64
	band   string
	delay  time.Duration
	panics bool
	closed bool
	err    string
}

func (s *stubScorer) Name() string { return s.name }

func (s *stubScorer) Score(ctx context.Context, phrase string) scoring.ComponentResult {
	if s.panics {
		panic("stub scorer exploded")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	return scoring.ComponentResult{Score: s.score, Max: s.max, Band: s.band, Error: s.err}
}

func (s *stubScorer) Stats() map[string]any { return map[string]any{} }

func (s *stubScorer) Close() error {
	s.closed = true
	return nil
}

func fullStack(scores map[string]float64) []scoring.Scorer {
	maxes := map[string]float64{
		"distinctiveness":     25,
		"describability":      20,
		"legacy_heuristics":   30,
		"cultural_validation": 20,
	}
	var scorers []scoring.Scorer
	for _, name := range []string{"distinctiveness", "describability", "legacy_heuristics", "cultural_validation"} {
		scorers = append(scorers, &stubScorer{name: name, score: scores[name], max: maxes[name]})
	}
	return scorers
}

func TestWeightedScoreAllMax(t *testing.T) {
	eng := New(DefaultConfig(), fullStack(map[string]float64{
		"distinctiveness":     25,
		"describability":      20,
		"legacy_heuristics":   30,
		"cultural_validation": 20,
	})...)

	result, err := eng.ScorePhrase(context.Background(), "deep dish")
	require.NoError(t, err)
	assert.Equal(t, 100.00, result.FinalScore)
	assert.Equal(t, "excellent", result.Quality)
	assert.True(t, result.Decision.Accept)
	assert.Equal(t, "auto_accept", result.Decision.Recommendation)
}

func TestWeightedScoreAllZero(t *testing.T) {
	eng := New(DefaultConfig(), fullStack(map[string]float64{})...)

	result, err := eng.ScorePhrase(context.Background(), "deep dish")
	require.NoError(t, err)
	assert.Equal(t, 0.00, result.FinalScore)
	assert.Equal(t, "unacceptable", result.Quality)
	assert.False(t, result.Decision.Accept)
	assert.Equal(t, "auto_reject", result.Decision.Recommendation)
}

func TestOverflowCapAppliesToBonus(t *testing.T) {
	// Cultural at 25/20 exercises the 1.25 cap exactly.
	eng := New(DefaultConfig(), fullStack(map[string]float64{
		"cultural_validation": 25,
	})...)

	result, err := eng.ScorePhrase(context.Background(), "deep dish")
	require.NoError(t, err)
	assert.Equal(t, 25.00, result.FinalScore) // 1.25 * 100 * 0.20
	assert.Equal(t, 1.25, result.WeightedAnalysis["cultural_validation"].Normalized)
}

func TestClassifyQualityBoundaries(t *testing.T) {
	eng := New(DefaultConfig())

	tests := []struct {
		score    float64
		expected string
	}{
		{80, "excellent"},
		{60, "good"},
		{40, "acceptable"},
		{20, "poor"},
		{0, "unacceptable"},
		{79.99, "good"},
		{19.99, "unacceptable"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, eng.ClassifyQuality(tc.score), "score %v", tc.score)
	}
}

func TestDecisionMapping(t *testing.T) {
	tests := []struct {
		name           string
		scores         map[string]float64
		expectedFinal  float64
		accept         bool
		confidence     string
		recommendation string
	}{
		{
			// 25 + 30 + 10 = 65 -> good
			name: "good likely accept",
			scores: map[string]float64{
				"distinctiveness":   25,
				"describability":    20,
				"legacy_heuristics": 12,
			},
			expectedFinal:  65.00,
			accept:         true,
			confidence:     "medium",
			recommendation: "likely_accept",
		},
		{
			// 25 + 20 = 45 -> acceptable
			name: "acceptable conditional",
			scores: map[string]float64{
				"distinctiveness":     25,
				"cultural_validation": 20,
			},
			expectedFinal:  45.00,
			accept:         true,
			confidence:     "low",
			recommendation: "conditional_accept",
		},
		{
			// 25 -> poor
			name:           "poor likely reject",
			scores:         map[string]float64{"distinctiveness": 25},
			expectedFinal:  25.00,
			accept:         false,
			confidence:     "reject",
			recommendation: "likely_reject",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			eng := New(DefaultConfig(), fullStack(tc.scores)...)
			result, err := eng.ScorePhrase(context.Background(), "deep dish")
			require.NoError(t, err)
			assert.Equal(t, tc.expectedFinal, result.FinalScore)
			assert.Equal(t, tc.accept, result.Decision.Accept)
			assert.Equal(t, tc.confidence, result.Decision.Confidence)
			assert.Equal(t, tc.recommendation, result.Decision.Recommendation)
			assert.NotEmpty(t, result.Decision.Reasoning)
		})
	}
}

func TestScorePhraseValidation(t *testing.T) {
	eng := New(DefaultConfig(), fullStack(nil)...)

	_, err := eng.ScorePhrase(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPhrase)

	_, err = eng.ScorePhrase(context.Background(), "pizza")
	assert.ErrorIs(t, err, ErrInvalidPhrase)

	_, err = eng.ScorePhrase(context.Background(), "one two three four five")
	assert.ErrorIs(t, err, ErrInvalidPhrase)
}

func TestComponentPanicIsolated(t *testing.T) {
	scorers := fullStack(map[string]float64{"describability": 20})
	scorers[0] = &stubScorer{name: "distinctiveness", panics: true, max: 25}
	eng := New(DefaultConfig(), scorers...)

	result, err := eng.ScorePhrase(context.Background(), "deep dish")
	require.NoError(t, err)
	assert.Equal(t, scoring.BandError, result.ComponentDetails["distinctiveness"].Band)
	assert.Equal(t, 0.0, result.ComponentScores["distinctiveness"])
	// Remaining components still contribute: describability 1.0 * 100 * 0.30.
	assert.Equal(t, 30.00, result.FinalScore)
}

func TestComponentTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Deadlines = map[string]time.Duration{
		"distinctiveness":     20 * time.Millisecond,
		"describability":      200 * time.Millisecond,
		"legacy_heuristics":   200 * time.Millisecond,
		"cultural_validation": 200 * time.Millisecond,
	}
	scorers := fullStack(map[string]float64{"cultural_validation": 20})
	scorers[0] = &stubScorer{name: "distinctiveness", score: 25, max: 25, delay: 500 * time.Millisecond}
	eng := New(cfg, scorers...)

	result, err := eng.ScorePhrase(context.Background(), "deep dish")
	require.NoError(t, err)
	assert.Equal(t, scoring.BandTimeout, result.ComponentDetails["distinctiveness"].Band)
	assert.Equal(t, 0.0, result.ComponentScores["distinctiveness"])
	// cultural 1.0 * 100 * 0.20 survives.
	assert.Equal(t, 20.00, result.FinalScore)
}

func TestBatchSizeExceeded(t *testing.T) {
	eng := New(DefaultConfig(), fullStack(nil)...)

	phrases := make([]string, BatchLimit+1)
	for i := range phrases {
		phrases[i] = "deep dish"
	}

	result, err := eng.BatchScorePhrases(context.Background(), phrases)
	assert.ErrorIs(t, err, ErrBatchSizeExceeded)
	assert.Empty(t, result.Results)
}

func TestBatchPerItemErrors(t *testing.T) {
	eng := New(DefaultConfig(), fullStack(map[string]float64{
		"distinctiveness":     25,
		"describability":      20,
		"legacy_heuristics":   30,
		"cultural_validation": 20,
	})...)

	batch, err := eng.BatchScorePhrases(context.Background(), []string{
		"deep dish pizza",
		"",
		"pizza",
		"roller coaster",
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 4)

	assert.Empty(t, batch.Results[0].Error)
	assert.NotEmpty(t, batch.Results[1].Error)
	assert.NotEmpty(t, batch.Results[2].Error)
	assert.Empty(t, batch.Results[3].Error)

	assert.Equal(t, 4, batch.Summary.TotalPhrases)
	assert.Equal(t, 100.00, batch.Summary.AvgFinalScore)
	assert.Equal(t, 1.00, batch.Summary.AcceptanceRate)
	assert.Equal(t, 2, batch.Summary.QualityDistribution["excellent"])
	assert.Equal(t, 2, batch.Summary.DecisionDistribution["auto_accept"])
}

func TestCloseAlwaysCompletes(t *testing.T) {
	scorers := fullStack(nil)
	eng := New(DefaultConfig(), scorers...)
	eng.Close()
	for _, s := range scorers {
		assert.True(t, s.(*stubScorer).closed)
	}
}

type mapRatings map[string]float64

func (m mapRatings) ConcretenessRatings(words []string) (map[string]float64, error) {
	out := make(map[string]float64, len(words))
	for _, word := range words {
		if rating, ok := m[word]; ok {
			out[word] = rating
		}
	}
	return out, nil
}

func TestProperNounBonusSurvivesFanOut(t *testing.T) {
	// The original casing must reach the describability scorer so the
	// name-detection bonus fires on the integrated path, not just when the
	// scorer is called directly.
	scorers := fullStack(nil)
	ratings := mapRatings{"taylor": 4.5, "swift": 4.2}
	scorers[1] = scoring.NewDescribabilityScorer(ratings, nil)
	eng := New(DefaultConfig(), scorers...)

	result, err := eng.ScorePhrase(context.Background(), "Taylor Swift")
	require.NoError(t, err)

	// Concreteness high band 15 plus the flat name bonus 5.
	assert.Equal(t, 20.0, result.ComponentScores["describability"])
	details := result.ComponentDetails["describability"].Details
	assert.Equal(t, 5.0, details["proper_noun_bonus"])
	assert.Equal(t, "taylor swift", result.Phrase)
}

func TestDeterministicScoring(t *testing.T) {
	eng := New(DefaultConfig(), fullStack(map[string]float64{
		"distinctiveness":     15,
		"describability":      8,
		"legacy_heuristics":   12,
		"cultural_validation": 17,
	})...)

	first, err := eng.ScorePhrase(context.Background(), "  Deep   Dish  ")
	require.NoError(t, err)
	second, err := eng.ScorePhrase(context.Background(), "deep dish")
	require.NoError(t, err)

	assert.Equal(t, "deep dish", first.Phrase)
	assert.Equal(t, first.FinalScore, second.FinalScore)
	assert.Equal(t, first.Quality, second.Quality)
	assert.Equal(t, first.ComponentScores, second.ComponentScores)
}
