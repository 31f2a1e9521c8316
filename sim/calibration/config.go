package calibration

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/mm1-sim/sim/production"
)

// ErrInvalidParameter is returned by Config.Validate.
var ErrInvalidParameter = production.ErrInvalidParameter

// Config holds every calibration parameter. Loaded from YAML via LoadConfig(path);
// keys missing from the file keep their DefaultConfig values.
type Config struct {
	Servers       int     `yaml:"servers" json:"servers"`               // number of servers; only 1 is supported
	ServiceMean   float64 `yaml:"service_mean" json:"service_mean"`     // mean service duration
	ArrivalMean   float64 `yaml:"arrival_mean" json:"arrival_mean"`     // base mean inter-arrival time of iteration 1
	ShrinkFactor  float64 `yaml:"shrink_factor" json:"shrink_factor"`   // multiplier applied to the arrival mean each iteration
	TimeBudget    float64 `yaml:"time_budget" json:"time_budget"`       // simulated time per run
	Seed          int64   `yaml:"seed" json:"seed"`                     // same seed for every iteration
	InitialBurst  int     `yaml:"initial_burst" json:"initial_burst"`   // orders admitted at time zero
	MaxIterations int     `yaml:"max_iterations" json:"max_iterations"` // guard against a loop that never turns unstable
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		Servers:       1,
		ServiceMean:   2,
		ArrivalMean:   10,
		ShrinkFactor:  0.9,
		TimeBudget:    100000,
		Seed:          42,
		InitialBurst:  production.DefaultInitialBurst,
		MaxIterations: 1000,
	}
}

// LoadConfig reads a YAML calibration config on top of DefaultConfig.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading calibration config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing calibration config: %w", err)
	}
	return cfg, nil
}

// Validate checks that all fields describe a runnable calibration.
func (c Config) Validate() error {
	if c.Servers != 1 {
		return fmt.Errorf("%w: servers must be 1, got %d", ErrInvalidParameter, c.Servers)
	}
	if err := validateFinitePositive("service_mean", c.ServiceMean); err != nil {
		return err
	}
	if err := validateFinitePositive("arrival_mean", c.ArrivalMean); err != nil {
		return err
	}
	if err := validateFinitePositive("time_budget", c.TimeBudget); err != nil {
		return err
	}
	if !(c.ShrinkFactor > 0 && c.ShrinkFactor < 1) {
		return fmt.Errorf("%w: shrink_factor must be in (0, 1), got %v", ErrInvalidParameter, c.ShrinkFactor)
	}
	if c.InitialBurst < 0 {
		return fmt.Errorf("%w: initial_burst must be non-negative, got %d", ErrInvalidParameter, c.InitialBurst)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive, got %d", ErrInvalidParameter, c.MaxIterations)
	}
	return nil
}

// RunConfig returns the production run parameters for one iteration.
func (c Config) RunConfig(arrivalMean float64) production.RunConfig {
	return production.RunConfig{
		ServiceMean:  c.ServiceMean,
		ArrivalMean:  arrivalMean,
		TimeBudget:   c.TimeBudget,
		InitialBurst: c.InitialBurst,
		Seed:         c.Seed,
	}
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %s must be a finite number, got %f", ErrInvalidParameter, name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %f", ErrInvalidParameter, name, val)
	}
	return nil
}
