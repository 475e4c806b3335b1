// Package config loads the resume-scorer configuration from an optional YAML file, the
// environment and command line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/spigell/resume-scorer/internal/jobs"
)

const (
	// AppName is used for the default config file name.
	AppName = "resume-scorer"
	// EnvPrefix prefixes every environment override, e.g. RESUME_SCORER_LLM_ENABLED.
	EnvPrefix = "RESUME_SCORER"

	// MaxLLMTimeout is the hard cap on one chat round-trip.
	MaxLLMTimeout = 60 * time.Second
)

// Config is the full application configuration.
type Config struct {
	LLM     LLM            `mapstructure:"llm"`
	Logging Logging        `mapstructure:"logging"`
	Batch   Batch          `mapstructure:"batch"`
	Job     map[string]any `mapstructure:"job"`
}

// LLM configures the optional chat backend used for ai_review.
type LLM struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider" validate:"oneof=gemini"`
	Model        string        `mapstructure:"model" validate:"required_if=Enabled true"`
	Temperature  float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int           `mapstructure:"max-tokens" validate:"gt=0"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0,lte=60s"`
	MaxRetries   int           `mapstructure:"max-retries" validate:"gte=1,lte=10"`
	APIKey       string        `mapstructure:"api-key" json:"-"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	MaxLogLength int           `mapstructure:"max-log-length" validate:"gte=0"`
}

// Logging selects the log encoding and level.
type Logging struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// Batch configures the batch command.
type Batch struct {
	Concurrency int `mapstructure:"concurrency" validate:"gte=1,lte=64"`
}

var validate = validator.New()

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		LLM: LLM{
			Enabled:      false,
			Provider:     "gemini",
			Model:        "gemini-2.5-flash",
			Temperature:  0.7,
			MaxTokens:    1200,
			Timeout:      MaxLLMTimeout,
			MaxRetries:   2,
			MaxLogLength: 200,
		},
		Batch: Batch{Concurrency: 4},
	}
}

// SetDefaults registers every default on v so that environment overrides of nested keys are
// picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("llm.enabled", d.LLM.Enabled)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max-tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max-retries", d.LLM.MaxRetries)
	v.SetDefault("llm.api-key", "")
	v.SetDefault("llm.api-key-file", "")
	v.SetDefault("llm.max-log-length", d.LLM.MaxLogLength)
	v.SetDefault("logging.json", d.Logging.JSON)
	v.SetDefault("logging.debug", d.Logging.Debug)
	v.SetDefault("batch.concurrency", d.Batch.Concurrency)
}

// Load reads the configuration into v and decodes it. file may be empty, in which case
// resume-scorer.yaml in the working directory is used when present.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags of every section.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is required")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// JobSpec decodes the optional job section.
func (c *Config) JobSpec() (jobs.Spec, error) {
	return jobs.Decode(c.Job)
}
