package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Entity is an encyclopedic reference entry built offline from the knowledge
// base dump. Rows are read-only at request time.
type Entity struct {
	ID               uint   `gorm:"primaryKey"`
	Label            string `gorm:"size:255;uniqueIndex"`
	AliasesJSON      string `gorm:"type:text"`
	PopularityWeight float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SetAliases persists the alias list as JSON.
func (e *Entity) SetAliases(aliases []string) {
	if aliases == nil {
		e.AliasesJSON = "[]"
		return
	}
	payload, _ := json.Marshal(aliases)
	e.AliasesJSON = string(payload)
}

// Aliases returns the unmarshalled alias list.
func (e *Entity) Aliases() []string {
	if strings.TrimSpace(e.AliasesJSON) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(e.AliasesJSON), &out); err != nil {
		return nil
	}
	return out
}

// EntityAlias is the flattened alias index used for per-word lookups.
type EntityAlias struct {
	ID       uint   `gorm:"primaryKey"`
	EntityID uint   `gorm:"index"`
	Alias    string `gorm:"size:255;index"`
}

// NgramStat holds an aggregated frequency count from the text corpus. Words
// records how many tokens the gram spans (1 for unigrams).
type NgramStat struct {
	ID    uint   `gorm:"primaryKey"`
	Gram  string `gorm:"size:255;uniqueIndex"`
	Words int    `gorm:"index"`
	Count int64
}

// ConcretenessRating stores a word's mean concreteness rating.
type ConcretenessRating struct {
	Word   string `gorm:"primaryKey;size:64"`
	Rating float64
}

// CorpusMeta keeps corpus-wide aggregates such as the total token count.
type CorpusMeta struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value int64
}

// MetaCorpusTotal is the CorpusMeta key for the corpus-wide token total.
const MetaCorpusTotal = "corpus_total"
