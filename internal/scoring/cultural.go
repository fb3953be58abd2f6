package scoring

import (
	"context"
	"sort"
	"strings"

	"phrase-quality-eval/internal/metrics"
	"phrase-quality-eval/internal/phrase"
	"phrase-quality-eval/internal/util"
)

// Cultural validation point values. The reach bonus is the one documented
// source of a score above the nominal per-component max.
const (
	CulturalNominalMax    = 20.0
	CulturalBonusMax      = 25.0
	categoryExactPoints   = 10.0
	categoryPartialPoints = 5.0
	tierHighPoints        = 10.0
	tierMediumPoints      = 7.0
	tierLowPoints         = 3.0
	reachGlobalPoints     = 5.0
	reachWidePoints       = 3.0
	reachRegionalPoints   = 1.0
)

// Cultural classification labels.
const (
	ClassHighlyPopular     = "highly_popular"
	ClassModeratelyPopular = "moderately_popular"
	ClassObscure           = "obscure"
)

// CulturalConfig holds the classification cut points. They are tuning knobs,
// not business logic, so they arrive from configuration.
type CulturalConfig struct {
	HighlyPopularMin     float64
	ModeratelyPopularMin float64
}

// DefaultCulturalConfig returns the production cut points.
func DefaultCulturalConfig() CulturalConfig {
	return CulturalConfig{HighlyPopularMin: 15, ModeratelyPopularMin: 6}
}

// CulturalValidationScorer estimates general-audience familiarity from
// compiled-in curated sets; it performs no external lookups.
type CulturalValidationScorer struct {
	cfg  CulturalConfig
	sink metrics.Sink
}

// NewCulturalValidationScorer constructs the scorer with the supplied cut
// points.
func NewCulturalValidationScorer(cfg CulturalConfig, sink metrics.Sink) *CulturalValidationScorer {
	if cfg.HighlyPopularMin <= 0 {
		cfg = DefaultCulturalConfig()
	}
	if sink == nil {
		sink = metrics.Nop{}
	}
	return &CulturalValidationScorer{cfg: cfg, sink: sink}
}

// Name identifies the scorer in aggregate output.
func (s *CulturalValidationScorer) Name() string { return "cultural_validation" }

// Score combines the category boost, the popularity-tier match, and the
// cross-language reach bonus.
func (s *CulturalValidationScorer) Score(ctx context.Context, raw string) ComponentResult {
	timer := util.StartTimer()
	result := ComponentResult{Max: CulturalNominalMax}
	defer func() {
		result.DurationMs = timer.ElapsedMs()
		s.sink.Observe(s.Name(), timer.Elapsed(), result.Failed())
	}()

	if err := ctx.Err(); err != nil {
		result.Band = BandError
		result.Error = err.Error()
		return result
	}

	profile := phrase.Normalize(raw)
	if profile.Normalized == "" {
		result.Band = BandError
		result.Error = "empty phrase"
		return result
	}

	categoryPoints, primaryCategory := categoryBoost(profile)
	tierPoints, tierName := popularityTier(profile)
	reachPoints, reachTier := crossLanguageReach(profile)

	total := categoryPoints + tierPoints + reachPoints
	result.Score = total
	result.Band = s.classify(total)
	result.Details = map[string]any{
		"category_boost":   categoryPoints,
		"primary_category": primaryCategory,
		"popularity_tier":  tierName,
		"tier_points":      tierPoints,
		"reach_bonus":      reachPoints,
		"reach_tier":       reachTier,
	}
	return result
}

func (s *CulturalValidationScorer) classify(total float64) string {
	switch {
	case total >= s.cfg.HighlyPopularMin:
		return ClassHighlyPopular
	case total >= s.cfg.ModeratelyPopularMin:
		return ClassModeratelyPopular
	default:
		return ClassObscure
	}
}

// categoryBoost matches the phrase against the curated category-member sets.
// An exact member match scores full points; a substring overlap scores a
// smaller positive value. Categories are checked in sorted name order so the
// reported category is stable when a phrase overlaps more than one.
func categoryBoost(p phrase.Profile) (float64, any) {
	names := make([]string, 0, len(categoryMembers))
	for category := range categoryMembers {
		names = append(names, category)
	}
	sort.Strings(names)

	for _, category := range names {
		if _, ok := categoryMembers[category][p.Normalized]; ok {
			return categoryExactPoints, category
		}
	}
	for _, category := range names {
		for member := range categoryMembers[category] {
			if strings.Contains(p.Normalized, member) || strings.Contains(member, p.Normalized) {
				return categoryPartialPoints, category
			}
		}
	}
	return 0, nil
}

// popularityTier returns the strongest tier found across the constituent
// words (and the whole phrase, so multi-word staples still match).
func popularityTier(p phrase.Profile) (float64, string) {
	candidates := append([]string{p.Normalized}, p.Words...)
	best := 0.0
	bestName := "none"
	for _, candidate := range candidates {
		switch {
		case hasTier(highPopularityWords, candidate):
			return tierHighPoints, "high"
		case hasTier(mediumPopularityWords, candidate) && best < tierMediumPoints:
			best = tierMediumPoints
			bestName = "medium"
		case hasTier(lowPopularityWords, candidate) && best < tierLowPoints:
			best = tierLowPoints
			bestName = "low"
		}
	}
	return best, bestName
}

func hasTier(set map[string]struct{}, word string) bool {
	_, ok := set[word]
	return ok
}

// crossLanguageReach awards the additive bonus for phrases whose words
// travel across languages.
func crossLanguageReach(p phrase.Profile) (float64, string) {
	candidates := append([]string{p.Normalized}, p.Words...)
	best := 0.0
	bestTier := "none"
	for _, candidate := range candidates {
		switch {
		case hasTier(globalReachWords, candidate):
			return reachGlobalPoints, "global"
		case hasTier(wideReachWords, candidate) && best < reachWidePoints:
			best = reachWidePoints
			bestTier = "wide"
		case hasTier(regionalReachWords, candidate) && best < reachRegionalPoints:
			best = reachRegionalPoints
			bestTier = "regional"
		}
	}
	return best, bestTier
}

// Stats returns processing diagnostics.
func (s *CulturalValidationScorer) Stats() map[string]any {
	if rec, ok := s.sink.(*metrics.Recorder); ok {
		return rec.Stats(s.Name())
	}
	return map[string]any{}
}

// Close releases the scorer.
func (s *CulturalValidationScorer) Close() error { return nil }
