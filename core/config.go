package core

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config contains runtime configuration for the SDK. Zero values are
// replaced with defaults by Default and Load; hosts can also build a
// Config literal and call Validate themselves.
type Config struct {
	// Model is the model identifier passed to the provider.
	Model string `yaml:"model"`

	// MaxTokens caps response length per model call.
	MaxTokens int64 `yaml:"max_tokens"`

	// ContextBudget is the default token budget for retrieved context.
	ContextBudget int `yaml:"context_budget"`

	// Keywords is the number of TF-IDF terms extracted from a query.
	Keywords int `yaml:"keywords"`

	// BlendWeight weights the keyword side when merging ranked lists;
	// the semantic side receives 1-BlendWeight.
	BlendWeight float64 `yaml:"blend_weight"`

	// CandidateLimit caps how many candidates the semantic ranker pulls
	// from the store. 0 means the whole corpus.
	CandidateLimit int `yaml:"candidate_limit"`

	// DistanceThreshold is the maximum embedding distance for an
	// existing summary to count as a near-duplicate.
	DistanceThreshold float64 `yaml:"distance_threshold"`

	// SimilarityThreshold is the minimum common-substring ratio for an
	// existing summary to count as a near-duplicate.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// CycleLimit bounds consecutive call-producing cycles per turn.
	CycleLimit int `yaml:"cycle_limit"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns a Config populated with safe defaults.
func Default() Config {
	return Config{
		Model:               "claude-sonnet-4-20250514",
		MaxTokens:           4096,
		ContextBudget:       2048,
		Keywords:            5,
		BlendWeight:         0.5,
		CandidateLimit:      0,
		DistanceThreshold:   0.2,
		SimilarityThreshold: 0.4,
		CycleLimit:          5,
		LogLevel:            "info",
	}
}

// Load loads config from disk; if path is empty or does not exist, the
// default config is returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks configuration sanity.
func (c *Config) Validate() error {
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	if c.MaxTokens <= 0 {
		return errors.New("max_tokens must be > 0")
	}
	if c.ContextBudget <= 0 {
		return errors.New("context_budget must be > 0")
	}
	if c.Keywords <= 0 {
		return errors.New("keywords must be > 0")
	}
	if c.BlendWeight < 0 || c.BlendWeight > 1 {
		return fmt.Errorf("blend_weight %v outside [0,1]", c.BlendWeight)
	}
	if c.CandidateLimit < 0 {
		return errors.New("candidate_limit must be >= 0")
	}
	if c.DistanceThreshold < 0 || c.DistanceThreshold > 1 {
		return fmt.Errorf("distance_threshold %v outside [0,1]", c.DistanceThreshold)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold %v outside [0,1]", c.SimilarityThreshold)
	}
	if c.CycleLimit <= 0 {
		return errors.New("cycle_limit must be > 0")
	}
	return nil
}
