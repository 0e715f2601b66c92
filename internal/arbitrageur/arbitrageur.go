// Package arbitrageur implements the per-step optimal-trade search: a
// closed-form solution against the constant-product normalizer, and a
// bracket-then-golden-section search against an arbitrary submission
// quote function.
package arbitrageur

import (
	"math"

	"ammarena/internal/amm"
	"ammarena/internal/curvecheck"
	"ammarena/internal/normalizer"
	"ammarena/internal/stochastic"
	"ammarena/pkg/simtypes"
)

const (
	// MinInput is the smallest trade size the search will evaluate.
	MinInput = 1e-6
	// MaxInput is the largest trade size the search will evaluate.
	MaxInput = 1e12

	goldenRatioConjugate = 0.6180339887498948
	bracketMaxSteps      = 24
	bracketGrowth        = 2.0
	goldenMaxIters       = 12
	goldenWidthTol       = 0.01
)

// Arbitrageur searches for and executes the profit-maximizing trade
// against one AMM per step. It owns a seeded RNG used only to sample a
// starting trade size for the submission-side bracketing search.
type Arbitrageur struct {
	minProfit float64
	rng       *stochastic.Rng
	startMuLn float64
	startSig  float64
}

// New builds an Arbitrageur with the given minimum-profit floor, seeded
// from seed, sampling its bracket starting size from a log-normal with
// the retail distribution's parameters (meanSize, sigma).
func New(minProfit, meanSize, sigma float64, seed uint64) *Arbitrageur {
	if meanSize < 0.01 {
		meanSize = 0.01
	}
	return &Arbitrageur{
		minProfit: minProfit,
		rng:       stochastic.New(seed),
		startMuLn: math.Log(meanSize) - sigma*sigma/2,
		startSig:  sigma,
	}
}

// Execute runs one arbitrageur pass against a, valuing trades at
// fairPrice, and streaming every quote sample into validator (the shape
// validator for a's curve; pass a no-op validator for the normalizer).
// It returns whether a trade was committed and, if so, its result.
func (ab *Arbitrageur) Execute(a *amm.AMM, fairPrice float64, validator *curvecheck.Validator) simtypes.ArbResult {
	var buyProfit, sellProfit, buyInput, sellInput float64
	if a.Name == "normalizer" {
		buyInput, buyProfit = ab.closedFormBuy(a, fairPrice)
		sellInput, sellProfit = ab.closedFormSell(a, fairPrice)
	} else {
		buyInput, buyProfit = ab.searchBuy(a, fairPrice, validator)
		sellInput, sellProfit = ab.searchSell(a, fairPrice, validator)
	}

	buyX := buyProfit >= sellProfit
	profit := buyProfit
	input := buyInput
	if !buyX {
		profit = sellProfit
		input = sellInput
	}

	if profit <= 0 || profit < ab.minProfit {
		return simtypes.ArbResult{}
	}

	// Edge follows the Trade record convention (spec §3): amm_buys_x
	// true -> amount_x*fair - amount_y, else amount_y - amount_x*fair.
	// This is the negation of the arbitrageur's own realized profit,
	// i.e. the AMM's own gain at fair value.
	if buyX {
		out := a.ExecuteBuyX(input)
		if out <= 0 {
			return simtypes.ArbResult{}
		}
		trade := simtypes.RoutedTrade{AmmBuysX: false, AmountX: out, AmountY: input}
		return simtypes.ArbResult{Executed: true, AmmBuysX: false, AmountX: out, AmountY: input, Edge: trade.Edge(fairPrice)}
	}
	out := a.ExecuteSellX(input)
	if out <= 0 {
		return simtypes.ArbResult{}
	}
	trade := simtypes.RoutedTrade{AmmBuysX: true, AmountX: input, AmountY: out}
	return simtypes.ArbResult{Executed: true, AmmBuysX: true, AmountX: input, AmountY: out, Edge: trade.Edge(fairPrice)}
}

func feeGamma(a *amm.AMM) float64 {
	storage := a.Storage()
	feeBps := normalizer.FeeBpsFromStorage(storage[:])
	return (10000.0 - float64(feeBps)) / 10000.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// closedFormBuy computes the optimal buy-X input against a
// constant-product-with-fee AMM: y* = (sqrt(fair*rx*gamma*ry) - ry) /
// gamma, clamped to [MinInput, MaxInput].
func (ab *Arbitrageur) closedFormBuy(a *amm.AMM, fairPrice float64) (input, profit float64) {
	rx, ry := a.ReserveX(), a.ReserveY()
	gamma := feeGamma(a)
	if gamma <= 0 || rx <= 0 || ry <= 0 || fairPrice <= 0 {
		return 0, 0
	}
	radicand := fairPrice * rx * gamma * ry
	if radicand < 0 {
		return 0, 0
	}
	target := (math.Sqrt(radicand) - ry) / gamma
	input = clamp(target, MinInput, MaxInput)
	out := a.QuoteBuyX(input)
	if out <= 0 {
		return input, 0
	}
	profit = out*fairPrice - input
	if profit < 0 {
		profit = 0
	}
	return input, profit
}

// closedFormSell computes the optimal sell-X input against a
// constant-product-with-fee AMM: x* = (sqrt(ry*rx*gamma/fair) - rx) /
// gamma, clamped to [MinInput, MaxInput].
func (ab *Arbitrageur) closedFormSell(a *amm.AMM, fairPrice float64) (input, profit float64) {
	rx, ry := a.ReserveX(), a.ReserveY()
	gamma := feeGamma(a)
	if gamma <= 0 || rx <= 0 || ry <= 0 || fairPrice <= 0 {
		return 0, 0
	}
	radicand := ry * rx * gamma / fairPrice
	if radicand < 0 {
		return 0, 0
	}
	target := (math.Sqrt(radicand) - rx) / gamma
	input = clamp(target, MinInput, MaxInput)
	out := a.QuoteSellX(input)
	if out <= 0 {
		return input, 0
	}
	profit = out - input*fairPrice
	if profit < 0 {
		profit = 0
	}
	return input, profit
}

// buyProfitAt and sellProfitAt are the search objectives: profit as a
// function of input size against an arbitrary quote function, with
// every quote sample streamed into the shape validator.
func buyProfitAt(a *amm.AMM, fairPrice, input float64, v *curvecheck.Validator) float64 {
	out := a.QuoteBuyX(input)
	v.Add(input, out)
	return out*fairPrice - input
}

func sellProfitAt(a *amm.AMM, fairPrice, input float64, v *curvecheck.Validator) float64 {
	out := a.QuoteSellX(input)
	v.Add(input, out)
	return out - input*fairPrice
}

func (ab *Arbitrageur) startingSize() float64 {
	size := ab.rng.LogNormal(ab.startMuLn, ab.startSig)
	return clamp(size, MinInput, MaxInput)
}

func (ab *Arbitrageur) searchBuy(a *amm.AMM, fairPrice float64, v *curvecheck.Validator) (input, profit float64) {
	return goldenSectionMaximize(ab.startingSize(), func(x float64) float64 {
		return buyProfitAt(a, fairPrice, x, v)
	})
}

func (ab *Arbitrageur) searchSell(a *amm.AMM, fairPrice float64, v *curvecheck.Validator) (input, profit float64) {
	return goldenSectionMaximize(ab.startingSize(), func(x float64) float64 {
		return sellProfitAt(a, fairPrice, x, v)
	})
}

// goldenSectionMaximize runs the bracket-then-golden-section search
// described in spec §4.8: expand a bracket [lo, hi] from start while
// profit keeps increasing, then golden-section search within it. It
// returns the best (input, profit) pair it evaluated, never
// re-evaluating the bracket midpoint. If neither initial endpoint is
// profitable it returns (midpoint of [lo, hi], 0) without searching.
func goldenSectionMaximize(start float64, profitAt func(float64) float64) (bestInput, bestProfit float64) {
	lo := MinInput
	hi := start
	loProfit := profitAt(lo)
	hiProfit := profitAt(hi)
	bestInput, bestProfit = lo, loProfit
	if hiProfit > bestProfit {
		bestInput, bestProfit = hi, hiProfit
	}

	if hiProfit <= 0 && loProfit <= 0 {
		mid := (lo + hi) / 2
		return mid, 0
	}

	for i := 0; i < bracketMaxSteps && hiProfit > loProfit && hi < MaxInput; i++ {
		lo = hi
		loProfit = hiProfit
		hi = clamp(hi*bracketGrowth, MinInput, MaxInput)
		hiProfit = profitAt(hi)
		if hiProfit > bestProfit {
			bestInput, bestProfit = hi, hiProfit
		}
		if hi >= MaxInput {
			break
		}
	}

	left, right := lo, hi
	if right <= left {
		return bestInput, bestProfit
	}

	c := right - goldenRatioConjugate*(right-left)
	d := left + goldenRatioConjugate*(right-left)
	fc := profitAt(c)
	fd := profitAt(d)
	if fc > bestProfit {
		bestInput, bestProfit = c, fc
	}
	if fd > bestProfit {
		bestInput, bestProfit = d, fd
	}

	for i := 0; i < goldenMaxIters; i++ {
		width := right - left
		mid := (left + right) / 2
		if width <= goldenWidthTol*math.Max(math.Abs(mid), 1) {
			break
		}
		if fc > fd {
			right = d
			d = c
			fd = fc
			c = right - goldenRatioConjugate*(right-left)
			fc = profitAt(c)
			if fc > bestProfit {
				bestInput, bestProfit = c, fc
			}
		} else {
			left = c
			c = d
			fc = fd
			d = left + goldenRatioConjugate*(right-left)
			fd = profitAt(d)
			if fd > bestProfit {
				bestInput, bestProfit = d, fd
			}
		}
	}
	return bestInput, bestProfit
}
