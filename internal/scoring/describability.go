package scoring

import (
	"context"
	"regexp"
	"strings"

	"phrase-quality-eval/internal/metrics"
	"phrase-quality-eval/internal/phrase"
	"phrase-quality-eval/internal/util"
)

// Describability banding and bonuses.
const (
	DescribabilityMax        = 20.0
	concretenessHighPoints   = 15.0
	concretenessMediumPoints = 8.0
	concretenessHighCutoff   = 4.0
	concretenessMediumCutoff = 3.0
	properNounBonus          = 5.0
	weakHeadPenalty          = -10.0
)

// ConcretenessSource resolves word-concreteness ratings. Injected at
// construction so tests substitute fakes without touching scorer internals.
type ConcretenessSource interface {
	ConcretenessRatings(words []string) (map[string]float64, error)
}

// DescribabilityScorer estimates how easy a phrase is to act out or
// describe: concrete wording helps, named entities help, an abstract head
// noun hurts.
type DescribabilityScorer struct {
	ratings ConcretenessSource
	sink    metrics.Sink
}

// NewDescribabilityScorer wires the scorer to its ratings source.
func NewDescribabilityScorer(ratings ConcretenessSource, sink metrics.Sink) *DescribabilityScorer {
	if sink == nil {
		sink = metrics.Nop{}
	}
	return &DescribabilityScorer{ratings: ratings, sink: sink}
}

// Name identifies the scorer in aggregate output.
func (s *DescribabilityScorer) Name() string { return "describability" }

// Score sums the concreteness band, the proper-noun bonus, and the weak-head
// penalty, floored at zero. A ratings-lookup failure zeroes only the
// concreteness sub-score.
func (s *DescribabilityScorer) Score(ctx context.Context, raw string) ComponentResult {
	timer := util.StartTimer()
	result := ComponentResult{Max: DescribabilityMax}
	defer func() {
		result.DurationMs = timer.ElapsedMs()
		s.sink.Observe(s.Name(), timer.Elapsed(), result.Failed())
	}()

	profile := phrase.Normalize(raw)
	if profile.Normalized == "" {
		result.Band = BandError
		result.Error = "empty phrase"
		return result
	}

	concreteness, concreteBand, concreteDetails, err := s.concretenessScore(ctx, profile)
	if err != nil {
		concreteBand = BandError
		result.Error = err.Error()
	}

	properBonus, properDetails := properNounScore(profile)
	headPenalty, headWord := weakHeadScore(profile)

	total := concreteness + properBonus + headPenalty
	if total < 0 {
		total = 0
	}

	result.Score = total
	result.Band = concreteBand
	result.Details = map[string]any{
		"concreteness":      concreteDetails,
		"concreteness_band": concreteBand,
		"proper_noun_bonus": properBonus,
		"proper_nouns":      properDetails,
		"weak_head_penalty": headPenalty,
	}
	if headWord != "" {
		result.Details["weak_head_word"] = headWord
	}
	return result
}

func (s *DescribabilityScorer) concretenessScore(ctx context.Context, p phrase.Profile) (float64, string, map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return 0, BandError, nil, err
	}
	ratings, err := s.ratings.ConcretenessRatings(p.Words)
	if err != nil {
		return 0, BandError, nil, err
	}

	var sum float64
	var rated int
	for _, word := range p.Words {
		if rating, ok := ratings[word]; ok {
			sum += rating
			rated++
		}
	}
	details := map[string]any{
		"rated_words": rated,
		"total_words": len(p.Words),
	}
	if rated == 0 {
		details["avg_rating"] = 0.0
		return 0, "low", details, nil
	}

	avg := sum / float64(rated)
	details["avg_rating"] = avg
	switch {
	case avg >= concretenessHighCutoff:
		return concretenessHighPoints, "high", details, nil
	case avg >= concretenessMediumCutoff:
		return concretenessMediumPoints, "medium", details, nil
	default:
		return 0, "low", details, nil
	}
}

var (
	capitalizedRun = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	orgSuffix      = regexp.MustCompile(`\b(?:inc|corp|ltd|llc|studios|records|university|airlines)\b`)
	placeIndicator = regexp.MustCompile(`\b(?:city|river|mount|lake|island|bay|beach|valley)\b`)
)

// properNounScore applies a single flat bonus when the phrase carries a
// person, organization, or place name. Repeated mentions of the same entity
// collapse to one before the bonus is applied.
func properNounScore(p phrase.Profile) (float64, []string) {
	seen := make(map[string]struct{})
	var mentions []string
	record := func(value string) {
		key := strings.ToLower(strings.TrimSpace(value))
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		mentions = append(mentions, key)
	}

	for _, match := range capitalizedRun.FindAllString(p.Original, -1) {
		record(match)
	}
	for _, match := range orgSuffix.FindAllString(p.Normalized, -1) {
		record(match)
	}
	for _, match := range placeIndicator.FindAllString(p.Normalized, -1) {
		record(match)
	}

	if len(mentions) == 0 {
		return 0, nil
	}
	return properNounBonus, mentions
}

// weakHeadScore applies one flat penalty when the trailing word is abstract,
// however many weak words the phrase contains.
func weakHeadScore(p phrase.Profile) (float64, string) {
	head := p.HeadWord()
	if _, ok := weakHeadWords[head]; ok {
		return weakHeadPenalty, head
	}
	return 0, ""
}

// Stats returns processing diagnostics.
func (s *DescribabilityScorer) Stats() map[string]any {
	if rec, ok := s.sink.(*metrics.Recorder); ok {
		return rec.Stats(s.Name())
	}
	return map[string]any{}
}

// Close releases the scorer.
func (s *DescribabilityScorer) Close() error { return nil }

// weakHeadWords holds abstract head nouns that undermine a phrase's
// suitability for acting out, curated from reviewer feedback.
var weakHeadWords = map[string]struct{}{
	"strategy":    {},
	"vibe":        {},
	"vibes":       {},
	"energy":      {},
	"culture":     {},
	"fail":        {},
	"concept":     {},
	"situation":   {},
	"moment":      {},
	"mindset":     {},
	"lifestyle":   {},
	"aesthetic":   {},
	"experience":  {},
	"journey":     {},
	"dynamic":     {},
	"paradigm":    {},
	"synergy":     {},
	"awareness":   {},
	"wellness":    {},
	"mentality":   {},
	"philosophy":  {},
	"ideology":    {},
	"theory":      {},
	"approach":    {},
	"method":      {},
	"process":     {},
	"system":      {},
	"framework":   {},
	"agenda":      {},
	"initiative":  {},
	"phenomenon":  {},
	"tendency":    {},
	"behavior":    {},
	"attitude":    {},
	"perspective": {},
	"outlook":     {},
	"notion":      {},
	"principle":   {},
	"factor":      {},
	"aspect":      {},
	"context":     {},
	"discourse":   {},
	"narrative":   {},
	"rhetoric":    {},
	"sentiment":   {},
	"consensus":   {},
	"ambiance":    {},
	"essence":     {},
	"spirit":      {},
	"mood":        {},
	"feeling":     {},
	"quality":     {},
	"potential":   {},
	"momentum":    {},
	"influence":   {},
}
