// Package router implements the order-splitting router: dividing one
// retail order's input between the submission and normalizer AMMs to
// maximize total output, via a golden-section search over the split
// fraction.
package router

import (
	"math"

	"ammarena/internal/amm"
	"ammarena/internal/curvecheck"
	"ammarena/pkg/simtypes"
)

const (
	// MinTrade is the smallest leg size that is quoted or committed;
	// anything smaller contributes 0 and is never executed.
	MinTrade = 0.001

	goldenRatioConjugate = 0.6180339887498948
	maxIters             = 14
	alphaWidthTol        = 1e-3
	inputWidthRelTol     = 0.01
	objectiveRelTol      = 0.01
)

// quotePoint is one (alpha, total-output) sample taken during the
// search.
type quotePoint struct {
	alpha   float64
	total   float64
	subOut  float64
	normOut float64
}

func quoteSplit(isBuy bool, totalInput, alpha float64, sub, norm *amm.AMM, v *curvecheck.Validator) quotePoint {
	subIn := alpha * totalInput
	normIn := (1 - alpha) * totalInput

	var subOut, normOut float64
	if isBuy {
		if subIn >= MinTrade {
			subOut = sub.QuoteBuyX(subIn)
			v.Add(subIn, subOut)
		}
		if normIn >= MinTrade {
			normOut = norm.QuoteBuyX(normIn)
		}
	} else {
		if subIn >= MinTrade {
			subOut = sub.QuoteSellX(subIn)
			v.Add(subIn, subOut)
		}
		if normIn >= MinTrade {
			normOut = norm.QuoteSellX(normIn)
		}
	}
	return quotePoint{alpha: alpha, total: subOut + normOut, subOut: subOut, normOut: normOut}
}

// RouteBuy splits a buy order's Y input between sub and norm, executing
// the best sampled split. Samples taken against sub are streamed into
// validator.
func RouteBuy(totalInput float64, sub, norm *amm.AMM, validator *curvecheck.Validator) []simtypes.RoutedTrade {
	return route(true, totalInput, sub, norm, validator)
}

// RouteSell splits a sell order's X input between sub and norm,
// executing the best sampled split. Samples taken against sub are
// streamed into validator.
func RouteSell(totalInput float64, sub, norm *amm.AMM, validator *curvecheck.Validator) []simtypes.RoutedTrade {
	return route(false, totalInput, sub, norm, validator)
}

func route(isBuy bool, totalInput float64, sub, norm *amm.AMM, validator *curvecheck.Validator) []simtypes.RoutedTrade {
	if totalInput < MinTrade {
		return nil
	}
	best := maximizeSplit(isBuy, totalInput, sub, norm, validator)
	return commit(isBuy, totalInput, best.alpha, sub, norm)
}

// maximizeSplit runs the golden-section search over alpha in [0,1],
// returning the best sampled quotePoint.
func maximizeSplit(isBuy bool, totalInput float64, sub, norm *amm.AMM, v *curvecheck.Validator) quotePoint {
	left, right := 0.0, 1.0

	pLeft := quoteSplit(isBuy, totalInput, left, sub, norm, v)
	pRight := quoteSplit(isBuy, totalInput, right, sub, norm, v)
	best := pLeft
	if pRight.total > best.total {
		best = pRight
	}

	c := right - goldenRatioConjugate*(right-left)
	d := left + goldenRatioConjugate*(right-left)
	pc := quoteSplit(isBuy, totalInput, c, sub, norm, v)
	pd := quoteSplit(isBuy, totalInput, d, sub, norm, v)
	if pc.total > best.total {
		best = pc
	}
	if pd.total > best.total {
		best = pd
	}

	for i := 0; i < maxIters; i++ {
		if right-left <= alphaWidthTol {
			break
		}
		midInput := totalInput * (left + right) / 2
		if midInput > 0 && (right-left)*totalInput <= inputWidthRelTol*math.Max(midInput, 1) {
			break
		}
		if relClose(pc.total, pd.total, objectiveRelTol) {
			break
		}
		if pc.total > pd.total {
			right = d
			d = c
			pd = pc
			c = right - goldenRatioConjugate*(right-left)
			pc = quoteSplit(isBuy, totalInput, c, sub, norm, v)
			if pc.total > best.total {
				best = pc
			}
		} else {
			left = c
			c = d
			pc = pd
			d = left + goldenRatioConjugate*(right-left)
			pd = quoteSplit(isBuy, totalInput, d, sub, norm, v)
			if pd.total > best.total {
				best = pd
			}
		}
	}
	return best
}

func relClose(a, b, tol float64) bool {
	denom := math.Max(math.Abs(a), math.Max(math.Abs(b), 1e-12))
	return math.Abs(a-b)/denom <= tol
}

// commit re-quotes and executes the two legs of the chosen split,
// omitting any leg below MinTrade or whose realized output is 0.
func commit(isBuy bool, totalInput, alpha float64, sub, norm *amm.AMM) []simtypes.RoutedTrade {
	var trades []simtypes.RoutedTrade
	subIn := alpha * totalInput
	normIn := (1 - alpha) * totalInput

	addLeg := func(a *amm.AMM, in float64, isSubmission bool) {
		if in < MinTrade {
			return
		}
		var out float64
		if isBuy {
			out = a.ExecuteBuyX(in)
		} else {
			out = a.ExecuteSellX(in)
		}
		if out <= 0 {
			return
		}
		trades = append(trades, simtypes.RoutedTrade{
			IsSubmission: isSubmission,
			AmmBuysX:     !isBuy,
			AmountX:      legAmountX(isBuy, in, out),
			AmountY:      legAmountY(isBuy, in, out),
		})
	}

	addLeg(sub, subIn, true)
	addLeg(norm, normIn, false)
	return trades
}

// legAmountX/legAmountY map (input, output) for a buy (input in Y,
// output in X) or sell (input in X, output in Y) leg onto the
// RoutedTrade's (AmountX, AmountY) fields.
func legAmountX(isBuy bool, in, out float64) float64 {
	if isBuy {
		return out
	}
	return in
}

func legAmountY(isBuy bool, in, out float64) float64 {
	if isBuy {
		return in
	}
	return out
}
