package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"phrase-quality-eval/internal/api"
	"phrase-quality-eval/internal/config"
	"phrase-quality-eval/internal/engine"
	"phrase-quality-eval/internal/legacy"
	"phrase-quality-eval/internal/lexicon"
	"phrase-quality-eval/internal/metrics"
	"phrase-quality-eval/internal/scoring"
	"phrase-quality-eval/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load configuration: %v", err)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logrus.Fatalf("create data directory: %v", err)
		}
	}

	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		logrus.Fatalf("open reference store: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("close reference store")
		}
	}()

	compounds, err := lexicon.NewIndex(cfg.CompoundSeeds)
	if err != nil {
		logrus.Fatalf("compound dictionary: %v", err)
	}

	recorder := metrics.NewRecorder()

	distinct := scoring.NewDistinctivenessScorer(db, db, compounds, recorder)
	describ := scoring.NewDescribabilityScorer(db, recorder)
	cultural := scoring.NewCulturalValidationScorer(scoring.CulturalConfig{
		HighlyPopularMin:     cfg.CulturalHighlyPopularMin,
		ModeratelyPopularMin: cfg.CulturalModeratelyMin,
	}, recorder)
	legacyClient := legacy.NewClient(legacy.Config{
		BaseURL:    cfg.LegacyBaseURL,
		Timeout:    cfg.LegacyTimeout,
		CacheTTL:   cfg.LegacyCacheTTL,
		NominalMax: cfg.LegacyNominalMax,
	}, recorder)
	if !legacyClient.Enabled() {
		logrus.Info("legacy heuristics disabled - no service URL configured")
	}

	weights := engine.Weights{
		Distinctiveness:    cfg.WeightDistinctiveness,
		Describability:     cfg.WeightDescribability,
		LegacyHeuristics:   cfg.WeightLegacy,
		CulturalValidation: cfg.WeightCultural,
	}
	thresholds := engine.Thresholds{
		Excellent:  cfg.ThresholdExcellent,
		Good:       cfg.ThresholdGood,
		Acceptable: cfg.ThresholdAcceptable,
		Poor:       cfg.ThresholdPoor,
	}
	engineCfg := engine.DefaultConfig()
	engineCfg.Weights = weights
	engineCfg.Thresholds = thresholds
	if len(cfg.OverflowCaps) > 0 {
		engineCfg.OverflowCaps = cfg.OverflowCaps
	}
	engineCfg.TargetDuration = cfg.TargetDuration
	engineCfg.MaxDuration = cfg.MaxDuration

	eng := engine.New(engineCfg, distinct, describ, legacyClient, cultural)
	defer eng.Close()

	server, err := api.NewServer(api.Config{
		Engine:         eng,
		DB:             db,
		AllowedOrigins: cfg.AllowedOrigins,
		Weights:        weights,
		Thresholds:     thresholds,
	})
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	logrus.Infof("starting phrase-quality-eval backend on :%s", cfg.Port)
	if err := server.Router().Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
