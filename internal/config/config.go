// Package config defines all configuration for the simulation engine.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// fields overridable via AMMARENA_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure.
type Config struct {
	Simulation  SimulationConfig  `mapstructure:"simulation"`
	Hyperparams HyperparamConfig  `mapstructure:"hyperparameters"`
	Batch       BatchConfig       `mapstructure:"batch"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
}

// SimulationConfig holds the per-simulation baseline, immutable for the
// duration of one run.
//
//   - StepCount: number of steps the driver advances per simulation.
//   - InitialPrice: the GBM's starting fair price.
//   - InitialX, InitialY: starting reserves for the submission AMM; the
//     normalizer's reserves are these scaled by NormLiquidityMult.
//   - GBMMu, GBMSigma, GBMDt: geometric Brownian motion drift,
//     volatility, and time step.
//   - RetailArrivalRate: Poisson arrival rate for retail orders per step.
//   - RetailMeanSize, RetailSizeSigma: log-normal parameters for retail
//     order size.
//   - RetailBuyProb: Bernoulli probability a retail order is a buy.
//   - MinArbProfit: the arbitrageur's profit floor; trades below this
//     are skipped entirely.
//   - NormFeeBps: the normalizer's constant-product fee, in basis
//     points.
//   - NormLiquidityMult: scales the normalizer's initial reserves
//     relative to the submission's.
type SimulationConfig struct {
	StepCount         int     `mapstructure:"step_count"`
	InitialPrice      float64 `mapstructure:"initial_price"`
	InitialX          float64 `mapstructure:"initial_x"`
	InitialY          float64 `mapstructure:"initial_y"`
	GBMMu             float64 `mapstructure:"gbm_mu"`
	GBMSigma          float64 `mapstructure:"gbm_sigma"`
	GBMDt             float64 `mapstructure:"gbm_dt"`
	RetailArrivalRate float64 `mapstructure:"retail_arrival_rate"`
	RetailMeanSize    float64 `mapstructure:"retail_mean_size"`
	RetailSizeSigma   float64 `mapstructure:"retail_size_sigma"`
	RetailBuyProb     float64 `mapstructure:"retail_buy_prob"`
	MinArbProfit      float64 `mapstructure:"min_arb_profit"`
	Seed              uint64  `mapstructure:"seed"`
	NormFeeBps        int     `mapstructure:"norm_fee_bps"`
	NormLiquidityMult float64 `mapstructure:"norm_liquidity_mult"`
}

// DefaultSimulationConfig returns the baseline simulation config,
// matching original_source's SimulationConfig::default().
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		StepCount:         10_000,
		InitialPrice:      100.0,
		InitialX:          100.0,
		InitialY:          10_000.0,
		GBMMu:             0.0,
		GBMSigma:          0.000945,
		GBMDt:             1.0,
		RetailArrivalRate: 0.8,
		RetailMeanSize:    20.0,
		RetailSizeSigma:   1.2,
		RetailBuyProb:     0.5,
		MinArbProfit:      0.01,
		Seed:              0,
		NormFeeBps:        30,
		NormLiquidityMult: 1.0,
	}
}

// HyperparamConfig holds the ranges the hyperparameter sampler draws
// from to perturb one simulation's config.
type HyperparamConfig struct {
	GBMSigmaMin          float64 `mapstructure:"gbm_sigma_min"`
	GBMSigmaMax          float64 `mapstructure:"gbm_sigma_max"`
	RetailArrivalMin     float64 `mapstructure:"retail_arrival_rate_min"`
	RetailArrivalMax     float64 `mapstructure:"retail_arrival_rate_max"`
	RetailMeanSizeMin    float64 `mapstructure:"retail_mean_size_min"`
	RetailMeanSizeMax    float64 `mapstructure:"retail_mean_size_max"`
	NormFeeBpsMin        int     `mapstructure:"norm_fee_bps_min"`
	NormFeeBpsMax        int     `mapstructure:"norm_fee_bps_max"`
	NormLiquidityMultMin float64 `mapstructure:"norm_liquidity_mult_min"`
	NormLiquidityMultMax float64 `mapstructure:"norm_liquidity_mult_max"`
}

// DefaultHyperparamConfig returns the baseline hyperparameter ranges,
// matching original_source's HyperparameterVariance::default().
func DefaultHyperparamConfig() HyperparamConfig {
	return HyperparamConfig{
		GBMSigmaMin:          0.0005,
		GBMSigmaMax:          0.002,
		RetailArrivalMin:     0.6,
		RetailArrivalMax:     1.0,
		RetailMeanSizeMin:    19.0,
		RetailMeanSizeMax:    21.0,
		NormFeeBpsMin:        10,
		NormFeeBpsMax:        100,
		NormLiquidityMultMin: 0.5,
		NormLiquidityMultMax: 2.0,
	}
}

// BatchConfig holds the per-batch inputs: how many simulations to run,
// how to seed them, and how much parallelism to use.
//
//   - NSims: number of simulations in the batch.
//   - WorkerCount: worker pool size; 0 means auto (min(cores, 8)).
//   - SeedStart: the first simulation's seed.
//   - SeedStride: the increment between consecutive simulations' seeds;
//     per-sim seed is SeedStart + i*SeedStride.
type BatchConfig struct {
	NSims       int    `mapstructure:"n_sims"`
	WorkerCount int    `mapstructure:"worker_count"`
	SeedStart   uint64 `mapstructure:"seed_start"`
	SeedStride  uint64 `mapstructure:"seed_stride"`
}

// DefaultBatchConfig returns the baseline batch config, matching
// original_source's BASELINE_SIMS default.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		NSims:       1_000,
		WorkerCount: 0,
		SeedStart:   0,
		SeedStride:  1,
	}
}

// LoggingConfig controls the CLI entrypoint's slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DiagnosticsConfig controls the optional Prometheus diagnostics server.
// Disabled by default: the server is opt-in. The diagnostic counters
// themselves are not gated by this setting; the simulation driver
// increments them on every executed trade.
type DiagnosticsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads config from a YAML file with env var overrides
// (AMMARENA_SIMULATION_GBM_SIGMA, etc.), falling back to the baseline
// defaults for any field the file does not set.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AMMARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	sim := DefaultSimulationConfig()
	v.SetDefault("simulation.step_count", sim.StepCount)
	v.SetDefault("simulation.initial_price", sim.InitialPrice)
	v.SetDefault("simulation.initial_x", sim.InitialX)
	v.SetDefault("simulation.initial_y", sim.InitialY)
	v.SetDefault("simulation.gbm_mu", sim.GBMMu)
	v.SetDefault("simulation.gbm_sigma", sim.GBMSigma)
	v.SetDefault("simulation.gbm_dt", sim.GBMDt)
	v.SetDefault("simulation.retail_arrival_rate", sim.RetailArrivalRate)
	v.SetDefault("simulation.retail_mean_size", sim.RetailMeanSize)
	v.SetDefault("simulation.retail_size_sigma", sim.RetailSizeSigma)
	v.SetDefault("simulation.retail_buy_prob", sim.RetailBuyProb)
	v.SetDefault("simulation.min_arb_profit", sim.MinArbProfit)
	v.SetDefault("simulation.seed", sim.Seed)
	v.SetDefault("simulation.norm_fee_bps", sim.NormFeeBps)
	v.SetDefault("simulation.norm_liquidity_mult", sim.NormLiquidityMult)

	hp := DefaultHyperparamConfig()
	v.SetDefault("hyperparameters.gbm_sigma_min", hp.GBMSigmaMin)
	v.SetDefault("hyperparameters.gbm_sigma_max", hp.GBMSigmaMax)
	v.SetDefault("hyperparameters.retail_arrival_rate_min", hp.RetailArrivalMin)
	v.SetDefault("hyperparameters.retail_arrival_rate_max", hp.RetailArrivalMax)
	v.SetDefault("hyperparameters.retail_mean_size_min", hp.RetailMeanSizeMin)
	v.SetDefault("hyperparameters.retail_mean_size_max", hp.RetailMeanSizeMax)
	v.SetDefault("hyperparameters.norm_fee_bps_min", hp.NormFeeBpsMin)
	v.SetDefault("hyperparameters.norm_fee_bps_max", hp.NormFeeBpsMax)
	v.SetDefault("hyperparameters.norm_liquidity_mult_min", hp.NormLiquidityMultMin)
	v.SetDefault("hyperparameters.norm_liquidity_mult_max", hp.NormLiquidityMultMax)

	batch := DefaultBatchConfig()
	v.SetDefault("batch.n_sims", batch.NSims)
	v.SetDefault("batch.worker_count", batch.WorkerCount)
	v.SetDefault("batch.seed_start", batch.SeedStart)
	v.SetDefault("batch.seed_stride", batch.SeedStride)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("diagnostics.enabled", false)
	v.SetDefault("diagnostics.addr", ":9090")
}

// Validate checks all invariants from the data model and clamps
// out-of-domain hyperparameters to the minimum positive value, per the
// error-handling design's "clamped at construction" policy rather than
// rejecting the config outright.
func (c *Config) Validate() error {
	if c.Simulation.GBMSigma < 0 {
		c.Simulation.GBMSigma = 0
	}
	if c.Simulation.RetailArrivalRate <= 0 {
		c.Simulation.RetailArrivalRate = 0.01
	}
	if c.Simulation.RetailBuyProb < 0 || c.Simulation.RetailBuyProb > 1 {
		return fmt.Errorf("simulation.retail_buy_prob must be in [0, 1], got %v", c.Simulation.RetailBuyProb)
	}
	if c.Simulation.NormLiquidityMult <= 0 {
		return fmt.Errorf("simulation.norm_liquidity_mult must be > 0, got %v", c.Simulation.NormLiquidityMult)
	}
	if c.Simulation.StepCount <= 0 {
		return fmt.Errorf("simulation.step_count must be > 0, got %d", c.Simulation.StepCount)
	}
	if c.Batch.NSims <= 0 {
		return fmt.Errorf("batch.n_sims must be > 0, got %d", c.Batch.NSims)
	}
	if c.Batch.WorkerCount < 0 {
		return fmt.Errorf("batch.worker_count must be >= 0, got %d", c.Batch.WorkerCount)
	}
	if c.Batch.SeedStride == 0 {
		return fmt.Errorf("batch.seed_stride must be nonzero")
	}
	return nil
}
