package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"phrase-quality-eval/internal/config"
	"phrase-quality-eval/internal/engine"
	"phrase-quality-eval/internal/legacy"
	"phrase-quality-eval/internal/lexicon"
	"phrase-quality-eval/internal/metrics"
	"phrase-quality-eval/internal/scoring"
	"phrase-quality-eval/internal/store"
)

// scorecli evaluates newline-delimited phrases from a file (or stdin) in
// capped batches and prints a review table plus summary. It exists for bulk
// review runs outside the HTTP service.
func main() {
	input := flag.String("input", "-", "phrase file, one per line ('-' for stdin)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load configuration: %v", err)
	}

	db, err := store.Open(cfg.DBPath, true)
	if err != nil {
		logrus.Fatalf("open reference store: %v", err)
	}
	defer db.Close()

	compounds, err := lexicon.NewIndex(cfg.CompoundSeeds)
	if err != nil {
		logrus.Fatalf("compound dictionary: %v", err)
	}

	recorder := metrics.NewRecorder()
	eng := engine.New(
		engine.DefaultConfig(),
		scoring.NewDistinctivenessScorer(db, db, compounds, recorder),
		scoring.NewDescribabilityScorer(db, recorder),
		legacy.NewClient(legacy.Config{
			BaseURL:    cfg.LegacyBaseURL,
			Timeout:    cfg.LegacyTimeout,
			CacheTTL:   cfg.LegacyCacheTTL,
			NominalMax: cfg.LegacyNominalMax,
		}, recorder),
		scoring.NewCulturalValidationScorer(scoring.CulturalConfig{
			HighlyPopularMin:     cfg.CulturalHighlyPopularMin,
			ModeratelyPopularMin: cfg.CulturalModeratelyMin,
		}, recorder),
	)
	defer eng.Close()

	phrases, err := readPhrases(*input)
	if err != nil {
		logrus.Fatalf("read phrases: %v", err)
	}
	if len(phrases) == 0 {
		logrus.Fatal("no phrases to evaluate")
	}

	ctx := context.Background()
	var accepted, total int
	fmt.Printf("%-40s %8s %-14s %-20s\n", "PHRASE", "SCORE", "QUALITY", "RECOMMENDATION")

	for start := 0; start < len(phrases); start += engine.BatchLimit {
		end := start + engine.BatchLimit
		if end > len(phrases) {
			end = len(phrases)
		}
		batch, err := eng.BatchScorePhrases(ctx, phrases[start:end])
		if err != nil {
			logrus.Fatalf("batch evaluation: %v", err)
		}
		for _, item := range batch.Results {
			if item.Error != "" {
				fmt.Printf("%-40s %8s %-14s %-20s\n", item.Phrase, "-", "error", item.Error)
				continue
			}
			total++
			if item.Result.Decision.Accept {
				accepted++
			}
			fmt.Printf("%-40s %8.2f %-14s %-20s\n",
				item.Phrase,
				item.Result.FinalScore,
				item.Result.Quality,
				item.Result.Decision.Recommendation,
			)
		}
	}

	if total > 0 {
		fmt.Printf("\nevaluated %d phrases, accepted %d (%.0f%%)\n",
			total, accepted, 100*float64(accepted)/float64(total))
	}
}

func readPhrases(path string) ([]string, error) {
	var file *os.File
	if path == "-" {
		file = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		file = f
	}

	var phrases []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			phrases = append(phrases, line)
		}
	}
	return phrases, scanner.Err()
}
