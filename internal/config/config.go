package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config gathers every tunable for the evaluation service.
type Config struct {
	Port           string
	DBPath         string
	SilentDB       bool
	CompoundSeeds  string
	AllowedOrigins []string

	LegacyBaseURL    string
	LegacyTimeout    time.Duration
	LegacyCacheTTL   time.Duration
	LegacyNominalMax float64

	WeightDistinctiveness    float64
	WeightDescribability     float64
	WeightLegacy             float64
	WeightCultural           float64
	OverflowCaps             map[string]float64
	ThresholdExcellent       float64
	ThresholdGood            float64
	ThresholdAcceptable      float64
	ThresholdPoor            float64
	CulturalHighlyPopularMin float64
	CulturalModeratelyMin    float64

	TargetDuration time.Duration
	MaxDuration    time.Duration
}

// Load reads configuration from the environment with production defaults.
// Every key is overridable via PHRASE_EVAL_* variables.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("phrase_eval")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "2000")
	v.SetDefault("db_path", "data/phrase-ref.db")
	v.SetDefault("silent_db", false)
	v.SetDefault("compound_seeds", "")
	v.SetDefault("allowed_origins", "")

	v.SetDefault("legacy_base_url", "")
	v.SetDefault("legacy_timeout", "5s")
	v.SetDefault("legacy_cache_ttl", "30m")
	v.SetDefault("legacy_nominal_max", 30.0)

	v.SetDefault("weight_distinctiveness", 0.25)
	v.SetDefault("weight_describability", 0.30)
	v.SetDefault("weight_legacy", 0.25)
	v.SetDefault("weight_cultural", 0.20)
	v.SetDefault("overflow_cap", 1.25)
	for _, component := range componentNames {
		v.SetDefault("overflow_cap_"+component, 0.0)
	}
	v.SetDefault("threshold_excellent", 80.0)
	v.SetDefault("threshold_good", 60.0)
	v.SetDefault("threshold_acceptable", 40.0)
	v.SetDefault("threshold_poor", 20.0)
	v.SetDefault("cultural_highly_popular_min", 15.0)
	v.SetDefault("cultural_moderately_popular_min", 6.0)

	v.SetDefault("target_duration", "800ms")
	v.SetDefault("max_duration", "1500ms")

	cfg := Config{
		Port:           v.GetString("port"),
		DBPath:         v.GetString("db_path"),
		SilentDB:       v.GetBool("silent_db"),
		CompoundSeeds:  v.GetString("compound_seeds"),
		AllowedOrigins: splitOrigins(v.GetString("allowed_origins")),

		LegacyBaseURL:    v.GetString("legacy_base_url"),
		LegacyTimeout:    v.GetDuration("legacy_timeout"),
		LegacyCacheTTL:   v.GetDuration("legacy_cache_ttl"),
		LegacyNominalMax: v.GetFloat64("legacy_nominal_max"),

		WeightDistinctiveness:    v.GetFloat64("weight_distinctiveness"),
		WeightDescribability:     v.GetFloat64("weight_describability"),
		WeightLegacy:             v.GetFloat64("weight_legacy"),
		WeightCultural:           v.GetFloat64("weight_cultural"),
		OverflowCaps:             overflowCaps(v),
		ThresholdExcellent:       v.GetFloat64("threshold_excellent"),
		ThresholdGood:            v.GetFloat64("threshold_good"),
		ThresholdAcceptable:      v.GetFloat64("threshold_acceptable"),
		ThresholdPoor:            v.GetFloat64("threshold_poor"),
		CulturalHighlyPopularMin: v.GetFloat64("cultural_highly_popular_min"),
		CulturalModeratelyMin:    v.GetFloat64("cultural_moderately_popular_min"),

		TargetDuration: v.GetDuration("target_duration"),
		MaxDuration:    v.GetDuration("max_duration"),
	}
	return cfg, nil
}

var componentNames = []string{
	"distinctiveness",
	"describability",
	"legacy_heuristics",
	"cultural_validation",
}

// overflowCaps fans the uniform cap out to every component, then applies any
// per-component override (PHRASE_EVAL_OVERFLOW_CAP_<COMPONENT>).
func overflowCaps(v *viper.Viper) map[string]float64 {
	uniform := v.GetFloat64("overflow_cap")
	caps := make(map[string]float64, len(componentNames))
	for _, component := range componentNames {
		caps[component] = uniform
		if override := v.GetFloat64("overflow_cap_" + component); override > 0 {
			caps[component] = override
		}
	}
	return caps
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
