// Package config provides FlowMind's configuration surface: the
// recognized options of spec §6, loaded in the reference agent's own
// layering (environment over file over defaults).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config is the effective configuration surface named by spec §6.
// Every field is optional with a documented default; all are written
// into each Persistence.Snapshot. Persistence.Restore does not read
// them back: the stored config is not applied on restore.
type Config struct {
	OllamaModel                  string  `json:"ollamaModel"`
	OllamaAPIBaseURL              string  `json:"ollamaApiBaseUrl"`
	NumWorkers                   int     `json:"numWorkers"`
	MemorySearchLimit            int     `json:"memorySearchLimit"`
	MaxRetries                   int     `json:"maxRetries"`
	PollIntervalMillis           int     `json:"pollIntervalMillis"`
	ThoughtProcessingTimeoutMillis int   `json:"thoughtProcessingTimeoutMillis"`
	UIRefreshMillis               int    `json:"uiRefreshMillis"`
	PersistenceFilePath           string `json:"persistenceFilePath"`
	PersistenceIntervalMillis     int    `json:"persistenceIntervalMillis"`
	BeliefDecayRatePerMillis      float64 `json:"beliefDecayRatePerMillis"`
	ContextSimilarityBoostFactor  float64 `json:"contextSimilarityBoostFactor"`
	EnableSchemaValidation        bool    `json:"enableSchemaValidation"`
}

// Default returns the agent's built-in defaults, matching the
// reference config package's Default() entry point.
func Default() *Config {
	return &Config{
		OllamaModel:                    "llama3",
		OllamaAPIBaseURL:               "http://localhost:11434",
		NumWorkers:                     4,
		MemorySearchLimit:              5,
		MaxRetries:                     3,
		PollIntervalMillis:             200,
		ThoughtProcessingTimeoutMillis: 30000,
		UIRefreshMillis:                1000,
		PersistenceFilePath:            "flowmind.db",
		PersistenceIntervalMillis:      60000,
		BeliefDecayRatePerMillis:       0,
		ContextSimilarityBoostFactor:   0,
		EnableSchemaValidation:         true,
	}
}

// Load builds a Config from Default(), overridden by any recognized
// FLOWMIND_<SECTION>_<KEY> environment variable, following the
// reference config package's env-over-defaults layering.
func Load() *Config {
	cfg := Default()
	applyEnv(cfg)
	return cfg
}

// LoadFromFile reads a JSON config file, merges it over Default(),
// then applies environment overrides on top — file-over-defaults,
// env-over-file, matching the reference layering order.
func LoadFromFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FLOWMIND_OLLAMA_MODEL"); v != "" {
		cfg.OllamaModel = v
	}
	if v := os.Getenv("FLOWMIND_OLLAMA_API_BASE_URL"); v != "" {
		cfg.OllamaAPIBaseURL = v
	}
	if v, ok := envInt("FLOWMIND_NUM_WORKERS"); ok {
		cfg.NumWorkers = v
	}
	if v, ok := envInt("FLOWMIND_MEMORY_SEARCH_LIMIT"); ok {
		cfg.MemorySearchLimit = v
	}
	if v, ok := envInt("FLOWMIND_MAX_RETRIES"); ok {
		cfg.MaxRetries = v
	}
	if v, ok := envInt("FLOWMIND_POLL_INTERVAL_MILLIS"); ok {
		cfg.PollIntervalMillis = v
	}
	if v, ok := envInt("FLOWMIND_THOUGHT_PROCESSING_TIMEOUT_MILLIS"); ok {
		cfg.ThoughtProcessingTimeoutMillis = v
	}
	if v, ok := envInt("FLOWMIND_UI_REFRESH_MILLIS"); ok {
		cfg.UIRefreshMillis = v
	}
	if v := os.Getenv("FLOWMIND_PERSISTENCE_FILE_PATH"); v != "" {
		cfg.PersistenceFilePath = v
	}
	if v, ok := envInt("FLOWMIND_PERSISTENCE_INTERVAL_MILLIS"); ok {
		cfg.PersistenceIntervalMillis = v
	}
	if v, ok := envFloat("FLOWMIND_BELIEF_DECAY_RATE_PER_MILLIS"); ok {
		cfg.BeliefDecayRatePerMillis = v
	}
	if v, ok := envFloat("FLOWMIND_CONTEXT_SIMILARITY_BOOST_FACTOR"); ok {
		cfg.ContextSimilarityBoostFactor = v
	}
	if v, ok := envBool("FLOWMIND_ENABLE_SCHEMA_VALIDATION"); ok {
		cfg.EnableSchemaValidation = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Validate rejects configurations the agent cannot run with.
func (c *Config) Validate() error {
	if c.NumWorkers < 1 {
		return fmt.Errorf("numWorkers must be >= 1, got %d", c.NumWorkers)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("maxRetries must be >= 0, got %d", c.MaxRetries)
	}
	if c.ThoughtProcessingTimeoutMillis <= 0 {
		return fmt.Errorf("thoughtProcessingTimeoutMillis must be > 0, got %d", c.ThoughtProcessingTimeoutMillis)
	}
	if c.ContextSimilarityBoostFactor < 0 {
		return fmt.Errorf("contextSimilarityBoostFactor must be >= 0, got %f", c.ContextSimilarityBoostFactor)
	}
	if c.BeliefDecayRatePerMillis < 0 {
		return fmt.Errorf("beliefDecayRatePerMillis must be >= 0, got %f", c.BeliefDecayRatePerMillis)
	}
	return nil
}

// ToJSON renders the config as indented JSON, for display and for the
// effective-config field of a persistence snapshot.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// SaveToFile writes the config as JSON to path.
func (c *Config) SaveToFile(path string) error {
	data, err := c.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file %s: %w", path, err)
	}
	return nil
}
