// Package batch implements the hyperparameter sampler and the parallel
// batch runner: deriving each simulation's config from a seed, and
// running the resulting configs across a worker pool.
package batch

import (
	"ammarena/internal/config"
	"ammarena/internal/stochastic"
)

// SampleConfig derives one simulation's config from base, perturbed by
// hp's ranges and seeded by seed. The five perturbed fields are drawn,
// in fixed order, from a single PCG stream seeded by seed:
// gbm_sigma, retail_arrival_rate, retail_mean_size (the original three),
// then norm_fee_bps (inclusive range), then norm_liquidity_mult (appended
// later). This order is a stable part of the contract — changing it
// changes every derived config.
func SampleConfig(base config.SimulationConfig, hp config.HyperparamConfig, seed uint64) config.SimulationConfig {
	rng := stochastic.New(seed)

	cfg := base
	cfg.Seed = seed
	cfg.GBMSigma = rng.Uniform(hp.GBMSigmaMin, hp.GBMSigmaMax)
	cfg.RetailArrivalRate = rng.Uniform(hp.RetailArrivalMin, hp.RetailArrivalMax)
	cfg.RetailMeanSize = rng.Uniform(hp.RetailMeanSizeMin, hp.RetailMeanSizeMax)
	cfg.NormFeeBps = rng.UniformInclusive(hp.NormFeeBpsMin, hp.NormFeeBpsMax)
	cfg.NormLiquidityMult = rng.Uniform(hp.NormLiquidityMultMin, hp.NormLiquidityMultMax)
	return cfg
}

// GenerateConfigs builds n simulation configs from seeds
// seedStart, seedStart+seedStride, ..., deriving each via SampleConfig.
func GenerateConfigs(base config.SimulationConfig, hp config.HyperparamConfig, n int, seedStart, seedStride uint64) []config.SimulationConfig {
	configs := make([]config.SimulationConfig, n)
	seed := seedStart
	for i := 0; i < n; i++ {
		configs[i] = SampleConfig(base, hp, seed)
		seed += seedStride
	}
	return configs
}
