package app

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by LoadConfig, e.g.
// DSPCHAIN_CHAIN_PATHS.
const EnvPrefix = "DSPCHAIN"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ChainPaths are the chain documents (.hcl, .json, .yaml or .yml) or
	// directories of .hcl documents. All paths must use the same format.
	ChainPaths []string `envconfig:"CHAIN_PATHS"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	// Workers is the size of the executor's pool; 0 uses GOMAXPROCS.
	Workers int `envconfig:"WORKERS" default:"0" validate:"gte=0"`
	// MetricsPort serves /health and /metrics while running. 0 is disabled.
	MetricsPort int `envconfig:"METRICS_PORT" default:"0" validate:"gte=0,lte=65535"`

	WaveformLength int     `envconfig:"WAVEFORM_LENGTH" validate:"gt=0"`
	SamplePeriod   float64 `envconfig:"SAMPLE_PERIOD" validate:"gte=0"`
	// Params override db.<name> defaults, e.g. "pz_tau:50,trap_rise:8".
	Params map[string]float64 `envconfig:"PARAMS"`
}

var configValidator = validator.New()

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ChainPaths) == 0 {
		return nil, errors.New("ChainPaths is a required configuration field and cannot be empty")
	}
	if err := configValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("invalid %s: %v fails %q", fe.Field(), fe.Value(), fe.ActualTag())
		}
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	return NewConfig(cfg)
}
