package config

import (
	"os"
	"strconv"
	"strings"

	"driftwatch/domain/risk"
	"driftwatch/internal/errors"
)

// Config is the complete pipeline configuration. Loaded once at startup
// and shared read-only for the process lifetime; every knob has a
// documented default so the pipeline runs with an empty environment.
type Config struct {
	Baseline BaselineConfig
	Signals  SignalConfig
	Target   TargetConfig
	Model    ModelConfig
	Category CategoryConfig
	Explain  ExplainConfig
	Server   ServerConfig
	Database DatabaseConfig
}

// BaselineConfig controls the personal reference window
type BaselineConfig struct {
	// Waves is the number of earliest waves forming the baseline window.
	// 0 means "first half of each person's history". Fixed at load time
	// and identical across persons for comparability.
	Waves int
}

// SignalConfig controls weak-signal extraction
type SignalConfig struct {
	TrailingWindow int     // moving average / trend slope window
	SlopeThreshold float64 // |slope| above this, in the worse direction, raises the decline flag
}

// TargetConfig defines the terminal-wave label
type TargetConfig struct {
	Feature   string  // designated outcome feature
	Threshold float64 // label = 1 when the terminal value crosses this toward the worse polarity
	// ExcludedFeatures are direct outcome proxies that must never appear
	// among model inputs; checked against the assembled vector names
	ExcludedFeatures []string
}

// ModelConfig controls training and scoring
type ModelConfig struct {
	Seed              int64
	HoldoutFraction   float64
	ImbalanceStrategy string // "class_weight" | "none"
	Iterations        int
	LearningRate      float64
	Cutoffs           risk.BandCutoffs
}

// CategoryConfig controls risk categorization
type CategoryConfig struct {
	// Aggregate is the per-group abnormality statistic: "abs_z" (sum of
	// absolute z-scores) or "decline_count" (number of decline flags)
	Aggregate string
	// TieBreak is the explicit priority order when group aggregates tie
	TieBreak []risk.Category
}

// ExplainConfig controls the explanation output
type ExplainConfig struct {
	TopK int
}

// ServerConfig holds HTTP surface settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds the optional Postgres export settings
type DatabaseConfig struct {
	URL     string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Baseline: BaselineConfig{
			Waves: getEnvIntOrDefault("BASELINE_WAVES", 0),
		},
		Signals: SignalConfig{
			TrailingWindow: getEnvIntOrDefault("TRAILING_WINDOW", 3),
			SlopeThreshold: getEnvFloatOrDefault("DECLINE_SLOPE_THRESHOLD", 0.05),
		},
		Target: TargetConfig{
			Feature:          getEnvOrDefault("TARGET_FEATURE", "health_rating"),
			Threshold:        getEnvFloatOrDefault("TARGET_THRESHOLD", 2.5),
			ExcludedFeatures: getEnvListOrDefault("EXCLUDED_FEATURES", nil),
		},
		Model: ModelConfig{
			Seed:              int64(getEnvIntOrDefault("RANDOM_SEED", 42)),
			HoldoutFraction:   getEnvFloatOrDefault("HOLDOUT_FRACTION", 0.2),
			ImbalanceStrategy: getEnvOrDefault("IMBALANCE_STRATEGY", "class_weight"),
			Iterations:        getEnvIntOrDefault("MODEL_ITERATIONS", 500),
			LearningRate:      getEnvFloatOrDefault("MODEL_LEARNING_RATE", 0.1),
			Cutoffs: risk.BandCutoffs{
				Low:      getEnvFloatOrDefault("BAND_CUTOFF_LOW", 30),
				Moderate: getEnvFloatOrDefault("BAND_CUTOFF_MODERATE", 60),
			},
		},
		Category: CategoryConfig{
			Aggregate: getEnvOrDefault("CATEGORY_AGGREGATE", "abs_z"),
			TieBreak:  parseTieBreak(getEnvOrDefault("CATEGORY_TIE_BREAK", "Cardiovascular,Metabolic,Psycho-emotional")),
		},
		Explain: ExplainConfig{
			TopK: getEnvIntOrDefault("EXPLAIN_TOP_K", 5),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			Enabled: os.Getenv("DATABASE_URL") != "",
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Baseline.Waves < 0 {
		return errors.ConfigInvalid("BASELINE_WAVES must be >= 0")
	}
	if cfg.Signals.TrailingWindow < 2 {
		return errors.ConfigInvalid("TRAILING_WINDOW must be >= 2")
	}
	if cfg.Signals.SlopeThreshold < 0 {
		return errors.ConfigInvalid("DECLINE_SLOPE_THRESHOLD must be >= 0")
	}
	if cfg.Target.Feature == "" {
		return errors.ConfigInvalid("TARGET_FEATURE is required")
	}
	if cfg.Model.HoldoutFraction <= 0 || cfg.Model.HoldoutFraction >= 1 {
		return errors.ConfigInvalid("HOLDOUT_FRACTION must be in (0, 1)")
	}
	switch cfg.Model.ImbalanceStrategy {
	case "class_weight", "none":
	default:
		return errors.ConfigInvalid("IMBALANCE_STRATEGY must be class_weight or none")
	}
	if cfg.Model.Cutoffs.Low <= 0 || cfg.Model.Cutoffs.Moderate <= cfg.Model.Cutoffs.Low {
		return errors.ConfigInvalid("band cutoffs must satisfy 0 < low < moderate")
	}
	switch cfg.Category.Aggregate {
	case "abs_z", "decline_count":
	default:
		return errors.ConfigInvalid("CATEGORY_AGGREGATE must be abs_z or decline_count")
	}
	if len(cfg.Category.TieBreak) != 3 {
		return errors.ConfigInvalid("CATEGORY_TIE_BREAK must list all three categories")
	}
	if cfg.Explain.TopK < 1 {
		return errors.ConfigInvalid("EXPLAIN_TOP_K must be >= 1")
	}
	return nil
}

func parseTieBreak(raw string) []risk.Category {
	parts := strings.Split(raw, ",")
	order := make([]risk.Category, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		order = append(order, risk.Category(p))
	}
	return order
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	}
	return defaultValue
}
