package router

import (
	"math"
	"math/rand/v2"
	"testing"

	"ammarena/internal/amm"
	"ammarena/internal/curvecheck"
	"ammarena/internal/executor"
	"ammarena/internal/normalizer"
)

func newAMM(name string, rx, ry float64, feeBps uint16) *amm.AMM {
	prog := executor.NewNativeExecutor(normalizer.Quote, normalizer.AfterTrade)
	a := amm.New(name, rx, ry, prog)
	a.SetInitialStorage([]byte{byte(feeBps), byte(feeBps >> 8)})
	return a
}

// bruteForceBestBuy grid-searches alpha over steps points and returns the
// best total output found, used as a ground truth the golden-section
// search must stay within 1% of.
func bruteForceBestBuy(totalInput float64, sub, norm *amm.AMM, steps int) float64 {
	best := 0.0
	for i := 0; i <= steps; i++ {
		alpha := float64(i) / float64(steps)
		subIn := alpha * totalInput
		normIn := (1 - alpha) * totalInput
		var out float64
		if subIn >= MinTrade {
			out += sub.QuoteBuyX(subIn)
		}
		if normIn >= MinTrade {
			out += norm.QuoteBuyX(normIn)
		}
		if out > best {
			best = out
		}
	}
	return best
}

func TestRouteBuyNearOptimal(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(11, 22))
	for trial := 0; trial < 30; trial++ {
		rx1 := 100 + rng.Float64()*10000
		ry1 := 100 + rng.Float64()*10000
		rx2 := 100 + rng.Float64()*10000
		ry2 := 100 + rng.Float64()*10000
		fee1 := uint16(rng.Uint32N(500))
		fee2 := uint16(rng.Uint32N(500))

		sub := newAMM("submission", rx1, ry1, fee1)
		norm := newAMM("normalizer", rx2, ry2, fee2)
		totalInput := 1 + rng.Float64()*500

		bruteBest := bruteForceBestBuy(totalInput, sub, norm, 4000)
		if bruteBest <= 0 {
			continue
		}

		sub2 := newAMM("submission", rx1, ry1, fee1)
		norm2 := newAMM("normalizer", rx2, ry2, fee2)
		best := maximizeSplit(true, totalInput, sub2, norm2, curvecheck.New("submission"))

		if best.total < bruteBest*0.99 {
			t.Errorf("trial %d: router found %v, brute force found %v (more than 1%% worse)",
				trial, best.total, bruteBest)
		}
	}
}

func TestRouteBuyBelowMinTradeContributesNothing(t *testing.T) {
	t.Parallel()
	sub := newAMM("submission", 100, 10000, 30)
	norm := newAMM("normalizer", 100, 10000, 30)
	trades := RouteBuy(0.0001, sub, norm, curvecheck.New("submission"))
	if len(trades) != 0 {
		t.Errorf("expected no trades below MinTrade, got %+v", trades)
	}
}

func TestRouteBuyCommitsBothLegsWhenBalanced(t *testing.T) {
	t.Parallel()
	sub := newAMM("submission", 1000, 100000, 30)
	norm := newAMM("normalizer", 1000, 100000, 30)
	trades := RouteBuy(500, sub, norm, curvecheck.New("submission"))
	if len(trades) != 2 {
		t.Fatalf("expected both legs routed for a symmetric split, got %+v", trades)
	}
	for _, tr := range trades {
		if tr.AmountX <= 0 || tr.AmountY <= 0 {
			t.Errorf("routed trade has non-positive leg: %+v", tr)
		}
	}
}

func TestRouteSellSymmetric(t *testing.T) {
	t.Parallel()
	sub := newAMM("submission", 1000, 100000, 30)
	norm := newAMM("normalizer", 1000, 100000, 30)
	trades := RouteSell(50, sub, norm, curvecheck.New("submission"))
	if len(trades) == 0 {
		t.Fatal("expected at least one routed sell leg")
	}
}

func TestRelClose(t *testing.T) {
	t.Parallel()
	if !relClose(100, 100.5, 0.01) {
		t.Error("100 vs 100.5 should be within 1% relative tolerance")
	}
	if relClose(100, 200, 0.01) {
		t.Error("100 vs 200 should not be within 1% relative tolerance")
	}
}

func TestTotalInputBelowMinTradeRoutesNothing(t *testing.T) {
	t.Parallel()
	sub := newAMM("submission", 100, 10000, 30)
	norm := newAMM("normalizer", 100, 10000, 30)
	if trades := RouteBuy(MinTrade/2, sub, norm, curvecheck.New("submission")); trades != nil {
		t.Errorf("expected nil trades for sub-MinTrade input, got %+v", trades)
	}
}

func TestRoutedSubmissionSamplesPassShapeCheck(t *testing.T) {
	t.Parallel()
	sub := newAMM("submission", 1000, 100000, 30)
	norm := newAMM("normalizer", 1000, 100000, 30)
	v := curvecheck.New("submission")
	RouteBuy(500, sub, norm, v)
	if err := v.Check(); err != nil {
		t.Errorf("constant-product submission samples should never violate shape: %v", err)
	}
}

func TestMaximizeSplitBoundedAlpha(t *testing.T) {
	t.Parallel()
	sub := newAMM("submission", 1000, 100000, 30)
	norm := newAMM("normalizer", 1000, 100000, 30)
	best := maximizeSplit(true, 200, sub, norm, curvecheck.New("submission"))
	if best.alpha < 0 || best.alpha > 1 || math.IsNaN(best.alpha) {
		t.Errorf("best.alpha = %v, out of [0,1]", best.alpha)
	}
}
