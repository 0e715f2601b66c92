// Package stochastic provides the seeded random generator and the
// distribution samplers (normal, Poisson, log-normal, uniform) shared by
// the price process, the retail generator, the arbitrageur, and the
// hyperparameter sampler. Every stochastic component in the engine owns
// its own instance; none are shared across goroutines.
package stochastic

import (
	"math"
	"math/rand/v2"
)

// Rng wraps a seeded PCG source with the distribution samplers the
// simulation engine needs. It is not safe for concurrent use; each
// simulation component constructs its own from a seed derived from the
// simulation's master seed.
type Rng struct {
	r *rand.Rand

	haveSpare bool
	spare     float64
}

// New builds an Rng seeded deterministically from seed. Two Rngs built
// from the same seed produce identical draw sequences.
func New(seed uint64) *Rng {
	return &Rng{r: rand.New(rand.NewPCG(seed, seed))}
}

// Uniform draws a value from U[lo, hi).
func (g *Rng) Uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + g.r.Float64()*(hi-lo)
}

// UniformInclusive draws an integer uniformly from [lo, hi], both bounds
// included; used for the fee-bps range in the hyperparameter sampler,
// where the upper bound is sampled inclusively.
func (g *Rng) UniformInclusive(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	span := hi - lo + 1
	return lo + int(g.r.Uint32N(uint32(span)))
}

// StandardNormal draws a single N(0,1) sample using the Box-Muller
// transform, caching the second value of each generated pair.
func (g *Rng) StandardNormal() float64 {
	if g.haveSpare {
		g.haveSpare = false
		return g.spare
	}
	var u1, u2 float64
	for {
		u1 = g.r.Float64()
		if u1 > 0 {
			break
		}
	}
	u2 = g.r.Float64()
	radius := math.Sqrt(-2 * math.Log(u1))
	theta := 2 * math.Pi * u2
	g.spare = radius * math.Sin(theta)
	g.haveSpare = true
	return radius * math.Cos(theta)
}

// Normal draws a sample from N(mu, sigma).
func (g *Rng) Normal(mu, sigma float64) float64 {
	return mu + sigma*g.StandardNormal()
}

// LogNormal draws a sample from a log-normal distribution parameterized
// by the mean and sigma of the underlying normal, i.e. exp(Normal(mu,
// sigma)).
func (g *Rng) LogNormal(mu, sigma float64) float64 {
	return math.Exp(g.Normal(mu, sigma))
}

// Poisson draws a sample from Poisson(lambda) using Knuth's algorithm.
// lambda is assumed small enough (retail arrival rates are O(1)) that
// this direct method is appropriate; no large-lambda approximation is
// implemented.
func (g *Rng) Poisson(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		k++
		p *= g.r.Float64()
		if p <= l {
			return k - 1
		}
	}
}

// Bernoulli draws true with probability p.
func (g *Rng) Bernoulli(p float64) bool {
	return g.r.Float64() < p
}
