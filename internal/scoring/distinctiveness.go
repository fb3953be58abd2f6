package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"phrase-quality-eval/internal/metrics"
	"phrase-quality-eval/internal/phrase"
	"phrase-quality-eval/internal/store"
	"phrase-quality-eval/internal/util"
)

// Distinctiveness channel point values.
const (
	DistinctivenessMax  = 25.0
	exactEntityPoints   = 25.0
	aliasMatchPoints    = 20.0
	pmiHighPoints       = 15.0
	pmiMediumPoints     = 10.0
	pmiLowPoints        = 5.0
	compoundEntryPoints = 10.0
	pmiHighThreshold    = 4.0
	pmiMediumThreshold  = 2.0
	pmiLowThreshold     = 0.0
)

// EntitySource resolves phrases and words against the encyclopedic reference
// store.
type EntitySource interface {
	EntityByLabel(label string) (*store.Entity, error)
	AliasEntity(alias string) (*store.Entity, error)
}

// NgramSource provides corpus frequency counts for PMI computation.
type NgramSource interface {
	NgramCount(gram string) (int64, error)
	CorpusTotal() (int64, error)
}

// CompoundLookup answers membership queries against the curated compound
// dictionary and its structural patterns.
type CompoundLookup interface {
	Contains(normalized string) bool
	MatchPattern(words []string) (string, bool)
}

// DistinctivenessScorer decides whether a phrase names a recognized, specific
// concept. Four evidence channels run independently and the strongest single
// signal wins.
type DistinctivenessScorer struct {
	entities  EntitySource
	ngrams    NgramSource
	compounds CompoundLookup
	sink      metrics.Sink
}

// channelEvidence is one entry of the ranked evidence list kept in Details.
type channelEvidence struct {
	Channel  string         `json:"channel"`
	Score    float64        `json:"score"`
	Evidence map[string]any `json:"evidence,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// NewDistinctivenessScorer wires the scorer to its reference sources.
func NewDistinctivenessScorer(entities EntitySource, ngrams NgramSource, compounds CompoundLookup, sink metrics.Sink) *DistinctivenessScorer {
	if sink == nil {
		sink = metrics.Nop{}
	}
	return &DistinctivenessScorer{
		entities:  entities,
		ngrams:    ngrams,
		compounds: compounds,
		sink:      sink,
	}
}

// Name identifies the scorer in aggregate output.
func (s *DistinctivenessScorer) Name() string { return "distinctiveness" }

// Score runs the four evidence channels and returns the maximum sub-score.
// A failing channel contributes zero without aborting the others.
func (s *DistinctivenessScorer) Score(ctx context.Context, raw string) ComponentResult {
	timer := util.StartTimer()
	result := ComponentResult{Max: DistinctivenessMax}
	defer func() {
		result.DurationMs = timer.ElapsedMs()
		s.sink.Observe(s.Name(), timer.Elapsed(), result.Failed())
	}()

	profile := phrase.Normalize(raw)
	if !profile.Valid() {
		result.Band = BandInvalidWordCount
		result.Details = map[string]any{"word_count": profile.WordCount()}
		return result
	}

	channels := []channelEvidence{
		s.exactChannel(ctx, profile),
		s.aliasChannel(ctx, profile),
		s.pmiChannel(ctx, profile),
		s.compoundChannel(profile),
	}

	// Channels are ranked by score; slice order breaks ties by priority.
	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].Score > channels[j].Score
	})

	winner := channels[0]
	result.Score = winner.Score
	result.Band = winner.Channel
	result.Details = map[string]any{
		"channels": channels,
		"winner":   winner.Channel,
	}
	if winner.Score == 0 {
		result.Band = BandNoEvidence
		result.Details["winner"] = "none"
	}

	var failures []string
	for _, ch := range channels {
		if ch.Error != "" {
			failures = append(failures, fmt.Sprintf("%s: %s", ch.Channel, ch.Error))
		}
	}
	if len(failures) == len(channels) {
		result.Score = 0
		result.Band = BandError
		result.Error = strings.Join(failures, "; ")
		return result
	}
	if len(failures) > 0 {
		result.Error = strings.Join(failures, "; ")
		logrus.WithFields(logrus.Fields{
			"phrase":   profile.Normalized,
			"failures": failures,
		}).Warn("distinctiveness channel degraded")
	}
	return result
}

func (s *DistinctivenessScorer) exactChannel(ctx context.Context, p phrase.Profile) (ev channelEvidence) {
	ev = channelEvidence{Channel: "exact_entity"}
	defer recoverChannel(&ev)
	if err := ctx.Err(); err != nil {
		ev.Error = err.Error()
		return ev
	}
	entity, err := s.entities.EntityByLabel(p.Normalized)
	if errors.Is(err, store.ErrNotFound) {
		return ev
	}
	if err != nil {
		ev.Error = err.Error()
		return ev
	}
	ev.Score = exactEntityPoints
	ev.Evidence = map[string]any{
		"label":             entity.Label,
		"popularity_weight": entity.PopularityWeight,
	}
	return ev
}

func (s *DistinctivenessScorer) aliasChannel(ctx context.Context, p phrase.Profile) (ev channelEvidence) {
	ev = channelEvidence{Channel: "alias_match"}
	defer recoverChannel(&ev)
	if err := ctx.Err(); err != nil {
		ev.Error = err.Error()
		return ev
	}
	for _, word := range p.Words {
		entity, err := s.entities.AliasEntity(word)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			ev.Error = err.Error()
			return ev
		}
		ev.Score = aliasMatchPoints
		ev.Evidence = map[string]any{
			"alias": word,
			"label": entity.Label,
		}
		return ev
	}
	return ev
}

func (s *DistinctivenessScorer) pmiChannel(ctx context.Context, p phrase.Profile) (ev channelEvidence) {
	ev = channelEvidence{Channel: "pmi"}
	defer recoverChannel(&ev)
	if err := ctx.Err(); err != nil {
		ev.Error = err.Error()
		return ev
	}

	phraseCount, err := s.ngrams.NgramCount(p.Normalized)
	if err != nil {
		ev.Error = err.Error()
		return ev
	}
	if phraseCount == 0 {
		return ev
	}
	total, err := s.ngrams.CorpusTotal()
	if err != nil {
		ev.Error = err.Error()
		return ev
	}
	if total <= 0 {
		ev.Error = "corpus total is zero"
		return ev
	}

	jointProb := float64(phraseCount) / float64(total)
	independentProb := 1.0
	for _, word := range p.Words {
		count, err := s.ngrams.NgramCount(word)
		if err != nil {
			ev.Error = err.Error()
			return ev
		}
		if count == 0 {
			// An unseen constituent word makes the ratio undefined.
			return ev
		}
		independentProb *= float64(count) / float64(total)
	}

	pmi := math.Log2(jointProb / independentProb)
	ev.Score = pmiPoints(pmi)
	ev.Evidence = map[string]any{
		"pmi":          pmi,
		"phrase_count": phraseCount,
		"corpus_total": total,
	}
	return ev
}

func (s *DistinctivenessScorer) compoundChannel(p phrase.Profile) (ev channelEvidence) {
	ev = channelEvidence{Channel: "compound"}
	defer recoverChannel(&ev)
	if s.compounds == nil {
		return ev
	}
	if s.compounds.Contains(p.Normalized) {
		ev.Score = compoundEntryPoints
		ev.Evidence = map[string]any{"source": "dictionary"}
		return ev
	}
	if pattern, ok := s.compounds.MatchPattern(p.Words); ok {
		ev.Score = compoundEntryPoints
		ev.Evidence = map[string]any{"source": "pattern", "pattern": pattern}
	}
	return ev
}

func pmiPoints(pmi float64) float64 {
	switch {
	case pmi >= pmiHighThreshold:
		return pmiHighPoints
	case pmi >= pmiMediumThreshold:
		return pmiMediumPoints
	case pmi >= pmiLowThreshold:
		return pmiLowPoints
	default:
		return 0
	}
}

func recoverChannel(ev *channelEvidence) {
	if r := recover(); r != nil {
		ev.Score = 0
		ev.Error = fmt.Sprintf("panic: %v", r)
	}
}

// Stats returns processing diagnostics.
func (s *DistinctivenessScorer) Stats() map[string]any {
	if rec, ok := s.sink.(*metrics.Recorder); ok {
		return rec.Stats(s.Name())
	}
	return map[string]any{}
}

// Close releases the scorer. The reference store is owned by the caller and
// closed separately.
func (s *DistinctivenessScorer) Close() error { return nil }
