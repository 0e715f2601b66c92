// Package priceprocess implements the deterministic geometric Brownian
// motion producer used as the simulation's fair-price reference.
package priceprocess

import (
	"math"

	"ammarena/internal/stochastic"
)

// GBM is a geometric Brownian motion price process: given drift mu,
// volatility sigma, and time step dt, each Step samples a standard
// normal and updates the current price by
//
//	p <- p * exp(drift + vol*z)
//
// where drift = (mu - sigma^2/2)*dt and vol = sigma*sqrt(dt), both
// precomputed at construction.
type GBM struct {
	price float64
	drift float64
	vol   float64
	rng   *stochastic.Rng
}

// New builds a GBM process starting at initialPrice, with the given
// drift/volatility/time-step parameters, seeded deterministically from
// seed.
func New(initialPrice, mu, sigma, dt float64, seed uint64) *GBM {
	return &GBM{
		price: initialPrice,
		drift: (mu - sigma*sigma/2) * dt,
		vol:   sigma * math.Sqrt(dt),
		rng:   stochastic.New(seed),
	}
}

// Step advances the process by one increment and returns the new price.
func (g *GBM) Step() float64 {
	z := g.rng.StandardNormal()
	g.price *= math.Exp(g.drift + g.vol*z)
	return g.price
}

// Price returns the current price without advancing the process.
func (g *GBM) Price() float64 {
	return g.price
}
