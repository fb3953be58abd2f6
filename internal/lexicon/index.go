package lexicon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Index answers membership queries against the curated compound-phrase
// dictionary and a small set of structural compound patterns. Entries are
// immutable after construction; lookups are safe for concurrent use.
type Index struct {
	entries map[string]struct{}
	mu      sync.RWMutex
	hits    map[string]int
}

// NewIndex builds the index from the compiled-in entries, optionally merged
// with a JSON seed file (a flat array of phrases).
func NewIndex(seedPath string) (*Index, error) {
	entries := defaultCompounds()
	if seedPath != "" {
		seeds, err := loadSeeds(seedPath)
		if err != nil {
			return nil, err
		}
		for entry := range seeds {
			entries[entry] = struct{}{}
		}
		logrus.WithFields(logrus.Fields{
			"seed_path": seedPath,
			"entries":   len(entries),
		}).Info("compound dictionary loaded with seed overrides")
	}
	return &Index{
		entries: entries,
		hits:    make(map[string]int),
	}, nil
}

// Contains reports whether the normalized phrase is a curated compound entry.
func (i *Index) Contains(normalized string) bool {
	if i == nil {
		return false
	}
	key := normalizeEntry(normalized)
	if key == "" {
		return false
	}
	_, ok := i.entries[key]
	if ok {
		i.mu.Lock()
		i.hits["dictionary"]++
		i.mu.Unlock()
	}
	return ok
}

// MatchPattern checks the word sequence against structural compound
// patterns, e.g. a modifier plus a geographic or food head noun.
func (i *Index) MatchPattern(words []string) (string, bool) {
	if i == nil || len(words) != 2 {
		return "", false
	}
	head := words[len(words)-1]
	for name, heads := range patternHeads {
		if _, ok := heads[head]; ok {
			i.mu.Lock()
			i.hits[name]++
			i.mu.Unlock()
			return name, true
		}
	}
	return "", false
}

// Stats returns per-pattern hit counts.
func (i *Index) Stats() map[string]any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := map[string]any{"entries": len(i.entries)}
	for name, count := range i.hits {
		out["hits_"+name] = count
	}
	return out
}

func loadSeeds(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read compound seeds: %w", err)
	}
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal compound seeds: %w", err)
	}
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if normalized := normalizeEntry(entry); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set, nil
}

func normalizeEntry(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// patternHeads are head nouns that form recognizable noun+noun compounds.
var patternHeads = map[string]map[string]struct{}{
	"geographic": {
		"island": {}, "mountain": {}, "river": {}, "desert": {}, "canyon": {},
		"harbor": {}, "peninsula": {}, "glacier": {},
	},
	"food": {
		"soup": {}, "salad": {}, "bread": {}, "cake": {}, "sauce": {},
		"stew": {}, "pie": {}, "curry": {}, "noodles": {},
	},
}

func defaultCompounds() map[string]struct{} {
	entries := []string{
		"ice cream", "hot dog", "french fries", "peanut butter",
		"roller coaster", "washing machine", "fire truck", "traffic jam",
		"shooting star", "full moon", "black hole", "rush hour",
		"couch potato", "brain freeze", "food truck", "video game",
		"bubble bath", "paper airplane", "snow globe", "time machine",
	}
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		set[entry] = struct{}{}
	}
	return set
}
