package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inference-sim/mm1-sim/sim/calibration"
)

// envPrefix is the prefix of environment overrides, e.g. MM1SIM_SERVICE_MEAN.
const envPrefix = "MM1SIM"

var (
	// CLI flags for the calibration parameters
	configPath    string  // YAML config file
	servers       int     // Number of servers (only 1 is supported)
	serviceMean   float64 // Mean service duration
	arrivalMean   float64 // Base mean inter-arrival time
	shrinkFactor  float64 // Per-iteration multiplier of the arrival mean
	timeBudget    float64 // Simulated time per run
	seed          int64   // Seed shared by every iteration
	initialBurst  int     // Orders admitted at time zero
	maxIterations int     // Calibration iteration guard
)

// registerConfigFlags attaches the calibration parameter flags to cmd with
// DefaultConfig values as defaults.
func registerConfigFlags(cmd *cobra.Command) {
	def := calibration.DefaultConfig()
	cmd.Flags().StringVar(&configPath, "config", "", "YAML calibration config file")
	cmd.Flags().IntVar(&servers, "servers", def.Servers, "Number of servers (only 1 is supported)")
	cmd.Flags().Float64Var(&serviceMean, "service-mean", def.ServiceMean, "Mean service duration")
	cmd.Flags().Float64Var(&arrivalMean, "arrival-mean", def.ArrivalMean, "Mean inter-arrival time (base value for calibration)")
	cmd.Flags().Float64Var(&timeBudget, "time-budget", def.TimeBudget, "Simulated time per run")
	cmd.Flags().Int64Var(&seed, "seed", def.Seed, "Seed for service and arrival sampling")
	cmd.Flags().IntVar(&initialBurst, "initial-burst", def.InitialBurst, "Orders admitted at time zero")
}

// registerCalibrationFlags adds the flags only the calibration loop uses.
func registerCalibrationFlags(cmd *cobra.Command) {
	def := calibration.DefaultConfig()
	cmd.Flags().Float64Var(&shrinkFactor, "shrink-factor", def.ShrinkFactor, "Multiplier applied to the arrival mean each iteration")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", def.MaxIterations, "Give up when the system is still stable after this many iterations")
}

// loadConfig builds the effective configuration. Precedence, lowest first:
// DefaultConfig, the --config YAML file, MM1SIM_* environment variables, flags
// set on the command line.
func loadConfig(cmd *cobra.Command) (calibration.Config, error) {
	cfg := calibration.DefaultConfig()
	if configPath != "" {
		loaded, err := calibration.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return cfg, fmt.Errorf("binding flags: %w", err)
	}

	if v.IsSet("servers") {
		cfg.Servers = v.GetInt("servers")
	}
	if v.IsSet("service-mean") {
		cfg.ServiceMean = v.GetFloat64("service-mean")
	}
	if v.IsSet("arrival-mean") {
		cfg.ArrivalMean = v.GetFloat64("arrival-mean")
	}
	if v.IsSet("time-budget") {
		cfg.TimeBudget = v.GetFloat64("time-budget")
	}
	if v.IsSet("seed") {
		cfg.Seed = v.GetInt64("seed")
	}
	if v.IsSet("initial-burst") {
		cfg.InitialBurst = v.GetInt("initial-burst")
	}
	if cmd.Flags().Lookup("shrink-factor") != nil && v.IsSet("shrink-factor") {
		cfg.ShrinkFactor = v.GetFloat64("shrink-factor")
	}
	if cmd.Flags().Lookup("max-iterations") != nil && v.IsSet("max-iterations") {
		cfg.MaxIterations = v.GetInt("max-iterations")
	}
	return cfg, nil
}
