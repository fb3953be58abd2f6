package scoring

import (
	"context"
	"errors"
	"testing"

	"phrase-quality-eval/internal/store"
)

type fakeEntities struct {
	labels  map[string]*store.Entity
	aliases map[string]*store.Entity
	err     error
}

func (f *fakeEntities) EntityByLabel(label string) (*store.Entity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if entity, ok := f.labels[label]; ok {
		return entity, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeEntities) AliasEntity(alias string) (*store.Entity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if entity, ok := f.aliases[alias]; ok {
		return entity, nil
	}
	return nil, store.ErrNotFound
}

type fakeNgrams struct {
	counts map[string]int64
	total  int64
	err    error
}

func (f *fakeNgrams) NgramCount(gram string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[gram], nil
}

func (f *fakeNgrams) CorpusTotal() (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.total, nil
}

type fakeCompounds struct {
	entries map[string]struct{}
}

func (f *fakeCompounds) Contains(normalized string) bool {
	_, ok := f.entries[normalized]
	return ok
}

func (f *fakeCompounds) MatchPattern(words []string) (string, bool) {
	return "", false
}

func emptySources() (*fakeEntities, *fakeNgrams, *fakeCompounds) {
	return &fakeEntities{labels: map[string]*store.Entity{}, aliases: map[string]*store.Entity{}},
		&fakeNgrams{counts: map[string]int64{}, total: 1024},
		&fakeCompounds{entries: map[string]struct{}{}}
}

func TestDistinctivenessChannels(t *testing.T) {
	entity := &store.Entity{Label: "eiffel tower", PopularityWeight: 0.9}

	tests := []struct {
		name        string
		phrase      string
		setup       func(*fakeEntities, *fakeNgrams, *fakeCompounds)
		expectScore float64
		expectBand  string
	}{
		{
			name:   "exact entity match wins",
			phrase: "Eiffel Tower",
			setup: func(e *fakeEntities, n *fakeNgrams, c *fakeCompounds) {
				e.labels["eiffel tower"] = entity
				e.aliases["tower"] = entity
			},
			expectScore: 25,
			expectBand:  "exact_entity",
		},
		{
			name:   "alias match",
			phrase: "crooked tower",
			setup: func(e *fakeEntities, n *fakeNgrams, c *fakeCompounds) {
				e.aliases["tower"] = entity
			},
			expectScore: 20,
			expectBand:  "alias_match",
		},
		{
			// joint 32/1024 vs (32/1024)^2: ratio 32, PMI 5.
			name:   "pmi high band",
			phrase: "quantum computing",
			setup: func(e *fakeEntities, n *fakeNgrams, c *fakeCompounds) {
				n.counts["quantum computing"] = 32
				n.counts["quantum"] = 32
				n.counts["computing"] = 32
			},
			expectScore: 15,
			expectBand:  "pmi",
		},
		{
			// ratio 8, PMI 3.
			name:   "pmi medium band",
			phrase: "quantum computing",
			setup: func(e *fakeEntities, n *fakeNgrams, c *fakeCompounds) {
				n.counts["quantum computing"] = 8
				n.counts["quantum"] = 32
				n.counts["computing"] = 32
			},
			expectScore: 10,
			expectBand:  "pmi",
		},
		{
			// ratio 2, PMI 1.
			name:   "pmi low band",
			phrase: "quantum computing",
			setup: func(e *fakeEntities, n *fakeNgrams, c *fakeCompounds) {
				n.counts["quantum computing"] = 2
				n.counts["quantum"] = 32
				n.counts["computing"] = 32
			},
			expectScore: 5,
			expectBand:  "pmi",
		},
		{
			name:   "compound dictionary entry",
			phrase: "ice cream",
			setup: func(e *fakeEntities, n *fakeNgrams, c *fakeCompounds) {
				c.entries["ice cream"] = struct{}{}
			},
			expectScore: 10,
			expectBand:  "compound",
		},
		{
			name:        "no evidence",
			phrase:      "purple nonsense",
			setup:       func(*fakeEntities, *fakeNgrams, *fakeCompounds) {},
			expectScore: 0,
			expectBand:  BandNoEvidence,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entities, ngrams, compounds := emptySources()
			tc.setup(entities, ngrams, compounds)
			scorer := NewDistinctivenessScorer(entities, ngrams, compounds, nil)

			result := scorer.Score(context.Background(), tc.phrase)
			if result.Score != tc.expectScore {
				t.Fatalf("expected score %v got %v", tc.expectScore, result.Score)
			}
			if tc.expectBand != "" && result.Band != tc.expectBand {
				t.Fatalf("expected band %q got %q", tc.expectBand, result.Band)
			}
			if result.Max != DistinctivenessMax {
				t.Fatalf("expected max %v got %v", DistinctivenessMax, result.Max)
			}
		})
	}
}

func TestDistinctivenessScoreSet(t *testing.T) {
	valid := map[float64]struct{}{0: {}, 5: {}, 10: {}, 15: {}, 20: {}, 25: {}}
	entities, ngrams, compounds := emptySources()
	ngrams.counts["deep dish"] = 8
	ngrams.counts["deep"] = 32
	ngrams.counts["dish"] = 32
	scorer := NewDistinctivenessScorer(entities, ngrams, compounds, nil)

	for _, phrase := range []string{"deep dish", "nothing here", "one two three four"} {
		result := scorer.Score(context.Background(), phrase)
		if _, ok := valid[result.Score]; !ok {
			t.Fatalf("score %v for %q outside the banded set", result.Score, phrase)
		}
	}
}

func TestDistinctivenessInvalidWordCount(t *testing.T) {
	entities, ngrams, compounds := emptySources()
	scorer := NewDistinctivenessScorer(entities, ngrams, compounds, nil)

	for _, phrase := range []string{"pizza", "one two three four five", ""} {
		result := scorer.Score(context.Background(), phrase)
		if result.Score != 0 || result.Band != BandInvalidWordCount {
			t.Fatalf("expected invalid_word_count for %q, got score=%v band=%q", phrase, result.Score, result.Band)
		}
	}
}

func TestDistinctivenessChannelIsolation(t *testing.T) {
	// Entity source broken; PMI channel still carries the score.
	entities := &fakeEntities{err: errors.New("entity store unreachable")}
	ngrams := &fakeNgrams{counts: map[string]int64{
		"quantum computing": 32,
		"quantum":           32,
		"computing":         32,
	}, total: 1024}
	scorer := NewDistinctivenessScorer(entities, ngrams, &fakeCompounds{entries: map[string]struct{}{}}, nil)

	result := scorer.Score(context.Background(), "quantum computing")
	if result.Score != 15 {
		t.Fatalf("expected PMI score 15 despite entity failure, got %v", result.Score)
	}
	if result.Error == "" {
		t.Fatal("expected channel failure recorded in error")
	}
}

func TestDistinctivenessWholeScorerFailure(t *testing.T) {
	entities := &fakeEntities{err: errors.New("store unreachable")}
	ngrams := &fakeNgrams{err: errors.New("store unreachable")}
	scorer := NewDistinctivenessScorer(entities, ngrams, nil, nil)

	result := scorer.Score(context.Background(), "deep dish")
	// The compound channel has no backing data and cannot fail, so the
	// score is zero with the failures attached rather than a hard error.
	if result.Score != 0 {
		t.Fatalf("expected zero score, got %v", result.Score)
	}
	if result.Band != BandNoEvidence {
		t.Fatalf("expected %q got %q", BandNoEvidence, result.Band)
	}
	if result.Error == "" {
		t.Fatal("expected failure details attached")
	}
}
