// Package config holds the credentials and tunables for the reading
// companion. Missing credentials disable the subsystem; they are surfaced
// to the caller, never fatal to the host application.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// ErrMissingCredentials is returned by Validate when the API key or
// replica id is absent.
var ErrMissingCredentials = errors.New("api key and replica id are required")

// Budget holds the session time-budget thresholds, in seconds from join.
type Budget struct {
	SoftWarningSeconds int `yaml:"soft_warning_seconds"`
	HardWarningSeconds int `yaml:"hard_warning_seconds"`
	HardStopSeconds    int `yaml:"hard_stop_seconds"`
}

// SoftWarning returns the soft-warning offset as a duration.
func (b Budget) SoftWarning() time.Duration {
	return time.Duration(b.SoftWarningSeconds) * time.Second
}

// HardWarning returns the hard-warning offset as a duration.
func (b Budget) HardWarning() time.Duration {
	return time.Duration(b.HardWarningSeconds) * time.Second
}

// HardStop returns the termination offset as a duration.
func (b Budget) HardStop() time.Duration {
	return time.Duration(b.HardStopSeconds) * time.Second
}

// Config is the subsystem configuration.
type Config struct {
	APIKey     string `yaml:"api_key"`
	ReplicaID  string `yaml:"replica_id"`
	PersonaID  string `yaml:"persona_id"`
	APIBaseURL string `yaml:"api_base_url"`

	// Greeting is the agent's opening line for new conversations.
	Greeting string `yaml:"greeting"`

	LocalAudio bool `yaml:"local_audio"`
	LocalVideo bool `yaml:"local_video"`

	// InferFromSpeech enables the keyword fallback that synthesizes tool
	// calls from user utterances when the agent emits none.
	InferFromSpeech bool `yaml:"infer_from_speech"`

	Budget Budget `yaml:"budget"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBaseURL:      "https://api.shelftalk.ai",
		Greeting:        "You are a friendly reading companion helping a young reader pick books.",
		LocalAudio:      true,
		LocalVideo:      true,
		InferFromSpeech: true,
		Budget: Budget{
			SoftWarningSeconds: 45,
			HardWarningSeconds: 55,
			HardStopSeconds:    60,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// SHELFTALK_* environment overrides, in that precedence order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("SHELFTALK_API_KEY", &cfg.APIKey)
	setString("SHELFTALK_REPLICA_ID", &cfg.ReplicaID)
	setString("SHELFTALK_PERSONA_ID", &cfg.PersonaID)
	setString("SHELFTALK_API_BASE_URL", &cfg.APIBaseURL)

	if v := os.Getenv("SHELFTALK_HARD_STOP_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Budget.HardStopSeconds = n
		}
	}
}

// Validate reports whether the configuration can start a session.
func (c Config) Validate() error {
	if c.APIKey == "" || c.ReplicaID == "" {
		return ErrMissingCredentials
	}
	if c.Budget.HardStopSeconds <= 0 {
		return errors.New("budget hard stop must be positive")
	}
	if c.Budget.SoftWarningSeconds >= c.Budget.HardStopSeconds ||
		c.Budget.HardWarningSeconds >= c.Budget.HardStopSeconds {
		return errors.New("budget warnings must precede the hard stop")
	}
	return nil
}
