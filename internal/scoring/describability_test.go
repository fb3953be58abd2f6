package scoring

import (
	"context"
	"errors"
	"testing"
)

type fakeRatings struct {
	ratings map[string]float64
	err     error
}

func (f *fakeRatings) ConcretenessRatings(words []string) (map[string]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]float64)
	for _, word := range words {
		if rating, ok := f.ratings[word]; ok {
			out[word] = rating
		}
	}
	return out, nil
}

func TestDescribabilityScoring(t *testing.T) {
	ratings := &fakeRatings{ratings: map[string]float64{
		"fire":      4.3,
		"truck":     4.8,
		"marketing": 3.2,
		"strategy":  3.8,
		"quantum":   2.1,
		"physics":   2.4,
	}}

	tests := []struct {
		name     string
		phrase   string
		expected float64
	}{
		// avg 4.55 -> high band.
		{"concrete phrase", "fire truck", 15},
		// avg 3.5 -> medium 8, weak head -10, floored at 0.
		{"weak head wipes medium", "marketing strategy", 0},
		// avg 2.25 -> low band 0.
		{"abstract words", "quantum physics", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scorer := NewDescribabilityScorer(ratings, nil)
			result := scorer.Score(context.Background(), tc.phrase)
			if result.Score != tc.expected {
				t.Fatalf("expected %v got %v", tc.expected, result.Score)
			}
			if result.Score < 0 || result.Score > DescribabilityMax {
				t.Fatalf("score %v outside [0,%v]", result.Score, DescribabilityMax)
			}
		})
	}
}

func TestDescribabilityProperNounBonus(t *testing.T) {
	ratings := &fakeRatings{ratings: map[string]float64{"taylor": 4.1, "swift": 4.1}}
	scorer := NewDescribabilityScorer(ratings, nil)

	result := scorer.Score(context.Background(), "Taylor Swift")
	// high concreteness 15 + flat proper-noun bonus 5
	if result.Score != 20 {
		t.Fatalf("expected 20 got %v", result.Score)
	}

	// Duplicate mentions of the same entity still earn one flat bonus.
	repeated := scorer.Score(context.Background(), "Taylor Swift Taylor Swift")
	if repeated.Score != 20 {
		t.Fatalf("expected deduplicated bonus to hold at 20, got %v", repeated.Score)
	}
}

func TestDescribabilityLookupFailure(t *testing.T) {
	scorer := NewDescribabilityScorer(&fakeRatings{err: errors.New("ratings table offline")}, nil)

	result := scorer.Score(context.Background(), "Mount Everest")
	if result.Band != BandError {
		t.Fatalf("expected error band, got %q", result.Band)
	}
	if result.Error == "" {
		t.Fatal("expected lookup failure message attached")
	}
	// Proper-noun detection is unaffected by the ratings failure.
	if result.Score != 5 {
		t.Fatalf("expected proper-noun bonus to survive, got %v", result.Score)
	}
}

func TestDescribabilityEmptyPhrase(t *testing.T) {
	scorer := NewDescribabilityScorer(&fakeRatings{}, nil)
	result := scorer.Score(context.Background(), "   ")
	if result.Score != 0 || result.Band != BandError {
		t.Fatalf("expected error result for empty phrase, got score=%v band=%q", result.Score, result.Band)
	}
}
