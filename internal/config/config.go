package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studyforge/studyforge-backend/internal/platform/envutil"
)

// Config holds every pipeline knob. Values come from an optional YAML file,
// then environment variables override non-zero entries.
type Config struct {
	LogMode string `yaml:"log_mode"`

	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	SchemaDir string `yaml:"schema_dir"`
	DBPath    string `yaml:"db_path"`

	Title string `yaml:"title"`

	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	MaxWorkers          int     `yaml:"max_workers"`
	PerDocTimeoutSec    int     `yaml:"per_doc_timeout_sec"`
	CentralityCap       int     `yaml:"centrality_cap"`
	CycleBreakCap       int     `yaml:"cycle_break_cap"`

	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIModel   string `yaml:"openai_model"`
}

func Default() Config {
	return Config{
		LogMode:             "development",
		InputDir:            "./documents",
		OutputDir:           "./output",
		SchemaDir:           "./schema",
		DBPath:              "./studyforge.db",
		Title:               "Study Guide",
		SimilarityThreshold: 0.3,
		MaxWorkers:          4,
		PerDocTimeoutSec:    0,
		CentralityCap:       200,
		CycleBreakCap:       1000,
		OpenAIModel:         "gpt-4o-mini",
	}
}

// Load reads the YAML file at path (missing file is fine), then layers env
// overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogMode = envutil.Str("LOG_MODE", c.LogMode)
	c.InputDir = envutil.Str("INPUT_DIR", c.InputDir)
	c.OutputDir = envutil.Str("OUTPUT_DIR", c.OutputDir)
	c.SchemaDir = envutil.Str("SCHEMA_DIR", c.SchemaDir)
	c.DBPath = envutil.Str("DB_PATH", c.DBPath)
	c.Title = envutil.Str("RUN_TITLE", c.Title)
	c.SimilarityThreshold = envutil.Float("SIMILARITY_THRESHOLD", c.SimilarityThreshold)
	c.MaxWorkers = envutil.Int("MAX_ANALYSIS_WORKERS", c.MaxWorkers)
	c.PerDocTimeoutSec = envutil.Int("PER_DOC_TIMEOUT_SEC", c.PerDocTimeoutSec)
	c.CentralityCap = envutil.Int("CENTRALITY_CAP", c.CentralityCap)
	c.CycleBreakCap = envutil.Int("CYCLE_BREAK_CAP", c.CycleBreakCap)
	c.OpenAIBaseURL = envutil.Str("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.OpenAIAPIKey = envutil.Str("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIModel = envutil.Str("OPENAI_MODEL", c.OpenAIModel)
}

func (c Config) PerDocTimeout() time.Duration {
	if c.PerDocTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(c.PerDocTimeoutSec) * time.Second
}
