// Package config loads and validates the recommendation pipeline's
// configuration: quadrant thresholds and weights, candidate counts, the
// embedding provider's connection details, the RNG seed, and verbose
// tracing.
//
// Loaded with github.com/spf13/viper (env + optional YAML file), following
// the AsterZephyr-polyagent and elchinoo-stormdb examples' layered
// viper.SetDefault/AutomaticEnv/ReadInConfig pattern, replacing the
// teacher's raw os.Getenv-based internal/config/config.go while keeping its
// shape: typed fields, a Validate() method, sane defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v2"

	pkgerrors "movie-recommend-engine/pkg/errors"
)

// Thresholds configures the quadrant-classification boundary.
type Thresholds struct {
	HighEmbedding float64 `mapstructure:"high_embedding"`
	HighMatch     float64 `mapstructure:"high_match"`
}

// Weights is one quadrant's scoring weight vector.
type Weights struct {
	Embedding  float64 `mapstructure:"embedding" yaml:"embedding"`
	MatchRatio float64 `mapstructure:"match_ratio" yaml:"match_ratio"`
	Feature    float64 `mapstructure:"feature" yaml:"feature"`
}

// WeightTable holds the per-quadrant weight vectors, loaded from
// config.yaml (tabular weight data belongs in a data file, not flat env
// vars).
type WeightTable struct {
	Q1 Weights `mapstructure:"q1" yaml:"q1"`
	Q2 Weights `mapstructure:"q2" yaml:"q2"`
	Q4 Weights `mapstructure:"q4" yaml:"q4"`
}

// CandidateCounts configures how many candidates flow through each stage.
type CandidateCounts struct {
	EmbeddingTopK        int `mapstructure:"embedding_top_k"`
	FeatureFilterK       int `mapstructure:"feature_filter_k"`
	FinalRecommendations int `mapstructure:"final_recommendations"`
	GuaranteedTop        int `mapstructure:"guaranteed_top"`
	RandomPoolSize       int `mapstructure:"random_pool_size"`
}

// EmbeddingSearch configures the global semantic search stage.
type EmbeddingSearch struct {
	MinSimilarity float64 `mapstructure:"min_similarity"`
}

// FeatureFiltering configures the tiered filter's tier boundaries.
type FeatureFiltering struct {
	Tier1Threshold float64 `mapstructure:"tier1_threshold"`
	Tier2Threshold float64 `mapstructure:"tier2_threshold"`
}

// Debug configures diagnostic tracing.
type Debug struct {
	Verbose bool `mapstructure:"verbose"`
}

// EmbeddingProvider configures the external embedding service adapter.
type EmbeddingProvider struct {
	BaseURL   string `mapstructure:"base_url"`
	Dimension int    `mapstructure:"dimension"`
}

// Catalog configures the read-only movie catalog loader.
type Catalog struct {
	// DSN is the sqlite data source, e.g. "./movies.db" or ":memory:".
	DSN string `mapstructure:"dsn"`
}

// Config is the pipeline's single configuration record.
type Config struct {
	QuadrantThresholds Thresholds        `mapstructure:"quadrant_thresholds"`
	QuadrantWeights    WeightTable       `mapstructure:"quadrant_weights"`
	CandidateCounts    CandidateCounts   `mapstructure:"candidate_counts"`
	EmbeddingSearch    EmbeddingSearch   `mapstructure:"embedding_search"`
	FeatureFiltering   FeatureFiltering  `mapstructure:"feature_filtering"`
	RNGSeed            int64             `mapstructure:"rng_seed"`
	Debug              Debug             `mapstructure:"debug"`
	EmbeddingProvider  EmbeddingProvider `mapstructure:"embedding_provider"`
	Catalog            Catalog           `mapstructure:"catalog"`
	LogLevel           string            `mapstructure:"log_level"`
}

const envPrefix = "RECOMMEND"

// Load reads configuration from (in increasing precedence) built-in
// defaults, an optional config.yaml in the working directory, and
// RECOMMEND_-prefixed environment variables, then validates the result.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, pkgerrors.NewInvalidConfiguration("failed to read config.yaml", map[string]interface{}{"error": err.Error()})
		}
	} else if err := validateWeightsAgainstSchema(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, pkgerrors.NewInvalidConfiguration("failed to unmarshal config", map[string]interface{}{"error": err.Error()})
	}

	if cfg.RNGSeed == 0 {
		cfg.RNGSeed = defaultRNGSeed()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("quadrant_thresholds.high_embedding", 0.60)
	v.SetDefault("quadrant_thresholds.high_match", 0.40)

	v.SetDefault("quadrant_weights.q1.embedding", 0.50)
	v.SetDefault("quadrant_weights.q1.match_ratio", 0.20)
	v.SetDefault("quadrant_weights.q1.feature", 0.0)
	v.SetDefault("quadrant_weights.q2.embedding", 0.70)
	v.SetDefault("quadrant_weights.q2.match_ratio", 0.20)
	v.SetDefault("quadrant_weights.q2.feature", 0.0)
	v.SetDefault("quadrant_weights.q4.embedding", 0.30)
	v.SetDefault("quadrant_weights.q4.match_ratio", 0.30)
	v.SetDefault("quadrant_weights.q4.feature", 0.0)

	v.SetDefault("candidate_counts.embedding_top_k", 300)
	v.SetDefault("candidate_counts.feature_filter_k", 150)
	v.SetDefault("candidate_counts.final_recommendations", 10)
	v.SetDefault("candidate_counts.guaranteed_top", 3)
	v.SetDefault("candidate_counts.random_pool_size", 30)

	v.SetDefault("embedding_search.min_similarity", 0.0)

	v.SetDefault("feature_filtering.tier1_threshold", 0.80)
	v.SetDefault("feature_filtering.tier2_threshold", 0.50)

	v.SetDefault("debug.verbose", false)

	v.SetDefault("embedding_provider.base_url", "http://localhost:8081")
	v.SetDefault("embedding_provider.dimension", 1536)

	v.SetDefault("catalog.dsn", "./movies.db")

	v.SetDefault("log_level", "info")
}

// defaultRNGSeed derives a process-provided seed from the PID when neither
// config.yaml nor RECOMMEND_RNG_SEED supplies one. It is read once at
// startup, never re-derived per request: the seed is an explicit input,
// not something computed from wall-clock time.
func defaultRNGSeed() int64 {
	return int64(os.Getpid())
}

// weightsSchema is the fixed JSON Schema config.yaml's quadrant_weights
// table is validated against before unmarshalling, giving a precise
// InvalidConfiguration error (field path + constraint) instead of a
// generic unmarshal failure (grounded on the teacher's use of
// gojsonschema for MCP tool-argument validation in internal/schemas/).
const weightsSchema = `{
  "type": "object",
  "properties": {
    "quadrant_weights": {
      "type": "object",
      "properties": {
        "q1": {"$ref": "#/definitions/weights"},
        "q2": {"$ref": "#/definitions/weights"},
        "q4": {"$ref": "#/definitions/weights"}
      }
    }
  },
  "definitions": {
    "weights": {
      "type": "object",
      "properties": {
        "embedding":   {"type": "number", "minimum": 0, "maximum": 1},
        "match_ratio": {"type": "number", "minimum": 0, "maximum": 1},
        "feature":     {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

// validateWeightsAgainstSchema validates the raw config.yaml contents (if
// any quadrant_weights key is present) against weightsSchema.
func validateWeightsAgainstSchema(v *viper.Viper) error {
	raw := v.AllSettings()
	if _, ok := raw["quadrant_weights"]; !ok {
		return nil
	}

	// viper.AllSettings() returns YAML-sourced nested maps keyed with
	// map[string]interface{}; gojsonschema needs a JSON-shaped document.
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return pkgerrors.NewInvalidConfiguration("failed to re-marshal config for validation", map[string]interface{}{"error": err.Error()})
	}

	schemaLoader := gojsonschema.NewStringLoader(weightsSchema)
	docLoader := gojsonschema.NewBytesLoader(asJSON)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return pkgerrors.NewInvalidConfiguration("failed to validate config.yaml", map[string]interface{}{"error": err.Error()})
	}
	if !result.Valid() {
		details := make(map[string]interface{}, len(result.Errors()))
		for _, e := range result.Errors() {
			details[e.Field()] = e.Description()
		}
		return pkgerrors.NewInvalidConfiguration("config.yaml quadrant_weights failed schema validation", details)
	}
	return nil
}

// Validate enforces the pipeline's configuration invariants: thresholds
// are in [0,1], quadrant weights are non-negative (they are a weighted
// sum, not a normalized distribution, so the three quadrants' weight
// vectors need not sum to 1), and the candidate counts are ordered
// embedding_top_k >= feature_filter_k >= final_recommendations.
func (c *Config) Validate() error {
	if err := validateThreshold("quadrant_thresholds.high_embedding", c.QuadrantThresholds.HighEmbedding); err != nil {
		return err
	}
	if err := validateThreshold("quadrant_thresholds.high_match", c.QuadrantThresholds.HighMatch); err != nil {
		return err
	}
	if err := validateThreshold("feature_filtering.tier1_threshold", c.FeatureFiltering.Tier1Threshold); err != nil {
		return err
	}
	if err := validateThreshold("feature_filtering.tier2_threshold", c.FeatureFiltering.Tier2Threshold); err != nil {
		return err
	}
	if c.FeatureFiltering.Tier1Threshold < c.FeatureFiltering.Tier2Threshold {
		return pkgerrors.NewInvalidConfiguration(
			"feature_filtering.tier1_threshold must be >= tier2_threshold",
			map[string]interface{}{"tier1": c.FeatureFiltering.Tier1Threshold, "tier2": c.FeatureFiltering.Tier2Threshold},
		)
	}

	for name, w := range map[string]Weights{"q1": c.QuadrantWeights.Q1, "q2": c.QuadrantWeights.Q2, "q4": c.QuadrantWeights.Q4} {
		if w.Embedding < 0 || w.MatchRatio < 0 || w.Feature < 0 {
			return pkgerrors.NewInvalidConfiguration(
				fmt.Sprintf("quadrant_weights.%s must not contain negative weights", name),
				map[string]interface{}{"quadrant": name, "embedding": w.Embedding, "match_ratio": w.MatchRatio, "feature": w.Feature},
			)
		}
	}

	cc := c.CandidateCounts
	if !(cc.EmbeddingTopK >= cc.FeatureFilterK && cc.FeatureFilterK >= cc.FinalRecommendations) {
		return pkgerrors.NewInvalidConfiguration(
			"candidate_counts must satisfy embedding_top_k >= feature_filter_k >= final_recommendations",
			map[string]interface{}{
				"embedding_top_k":        cc.EmbeddingTopK,
				"feature_filter_k":       cc.FeatureFilterK,
				"final_recommendations": cc.FinalRecommendations,
			},
		)
	}
	if cc.GuaranteedTop < 0 || cc.RandomPoolSize < 0 {
		return pkgerrors.NewInvalidConfiguration(
			"candidate_counts.guaranteed_top and random_pool_size must be non-negative",
			map[string]interface{}{"guaranteed_top": cc.GuaranteedTop, "random_pool_size": cc.RandomPoolSize},
		)
	}

	if c.EmbeddingProvider.Dimension <= 0 {
		return pkgerrors.NewInvalidConfiguration("embedding_provider.dimension must be positive", map[string]interface{}{"dimension": c.EmbeddingProvider.Dimension})
	}

	return nil
}

func validateThreshold(name string, v float64) error {
	if v < 0 || v > 1 {
		return pkgerrors.NewInvalidConfiguration(fmt.Sprintf("%s must be in [0,1]", name), map[string]interface{}{"value": v})
	}
	return nil
}

// MarshalWeightTableYAML is a small helper for tests and the CLI to write
// a sample config.yaml's quadrant_weights section.
func MarshalWeightTableYAML(w WeightTable) ([]byte, error) {
	return yaml.Marshal(map[string]WeightTable{"quadrant_weights": w})
}
