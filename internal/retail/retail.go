// Package retail implements the Poisson-arrival, log-normal-size retail
// order generator.
package retail

import (
	"math"

	"ammarena/internal/stochastic"
	"ammarena/pkg/simtypes"
)

// minSizeParam is the floor applied to the arrival rate, the mean order
// size, and the size sigma at construction, matching the "clamped to minimum
// positive value" error-handling policy for out-of-domain
// hyperparameters.
const minSizeParam = 0.01

// Generator draws a Poisson-distributed number of retail orders per
// step, with log-normal sizes and a fixed buy/sell probability.
type Generator struct {
	arrivalRate float64
	muLn        float64
	sigma       float64
	buyProb     float64
	rng         *stochastic.Rng
}

// New builds a Generator. arrivalRate, meanSize, and sigma are each
// clamped to minSizeParam if below it; sigma is the log-normal's
// underlying standard deviation.
func New(arrivalRate, meanSize, sigma, buyProb float64, seed uint64) *Generator {
	if arrivalRate < minSizeParam {
		arrivalRate = minSizeParam
	}
	if meanSize < minSizeParam {
		meanSize = minSizeParam
	}
	if sigma < minSizeParam {
		sigma = minSizeParam
	}
	muLn := math.Log(meanSize) - sigma*sigma/2
	return &Generator{
		arrivalRate: arrivalRate,
		muLn:        muLn,
		sigma:       sigma,
		buyProb:     buyProb,
		rng:         stochastic.New(seed),
	}
}

// GenerateOrders draws this step's batch of retail orders. Size is
// always denominated in quote token Y; the simulation driver (the
// router's caller) converts to X at the prevailing fair price for sell
// orders.
func (g *Generator) GenerateOrders() []simtypes.Order {
	n := g.rng.Poisson(g.arrivalRate)
	if n == 0 {
		return nil
	}
	orders := make([]simtypes.Order, n)
	for i := 0; i < n; i++ {
		orders[i] = simtypes.Order{
			IsBuy: g.rng.Bernoulli(g.buyProb),
			Size:  g.rng.LogNormal(g.muLn, g.sigma),
		}
	}
	return orders
}
