package curvecheck

import (
	"math"
	"math/rand/v2"
	"testing"
)

func samplesFromFunc(f func(float64) float64, inputs []float64) []Sample {
	out := make([]Sample, len(inputs))
	for i, in := range inputs {
		out[i] = Sample{Input: in, Output: f(in)}
	}
	return out
}

func linSpace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func TestAcceptsLogCurve(t *testing.T) {
	t.Parallel()
	f := func(x float64) float64 { return math.Log(1 + x) }
	samples := samplesFromFunc(f, linSpace(1, 10000, 500))
	if err := CheckShape("submission", samples); err != nil {
		t.Errorf("ln(1+x) rejected: %v", err)
	}
}

func TestAcceptsStableSqrtForm(t *testing.T) {
	t.Parallel()
	const c = 1e16
	// Stable algebraic form: x / (sqrt(C+x) + sqrt(C)), equal to
	// sqrt(C+x) - sqrt(C) but without catastrophic cancellation.
	f := func(x float64) float64 { return x / (math.Sqrt(c+x) + math.Sqrt(c)) }
	samples := samplesFromFunc(f, linSpace(1, 1e9, 500))
	if err := CheckShape("submission", samples); err != nil {
		t.Errorf("stable sqrt(C+x)-sqrt(C) form rejected: %v", err)
	}
}

func TestAcceptsConstantProductAcrossRandomReserves(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 400; trial++ {
		rx := 10 + rng.Float64()*1e6
		ry := 10 + rng.Float64()*1e6
		f := func(in float64) float64 {
			k := rx * ry
			newRy := ry + in
			return rx - k/newRy
		}
		samples := samplesFromFunc(f, linSpace(1, rx*0.9, 50))
		if err := CheckShape("submission", samples); err != nil {
			t.Fatalf("trial %d: constant-product buy curve rejected: %v", trial, err)
		}
	}
}

func TestRejectsNonMonotone(t *testing.T) {
	t.Parallel()
	samples := []Sample{
		{Input: 1, Output: 10},
		{Input: 2, Output: 20},
		{Input: 3, Output: 5}, // drop: violates monotonicity
	}
	err := CheckShape("submission", samples)
	if err == nil {
		t.Fatal("expected a shape violation for a non-monotone sequence")
	}
	var sve *ShapeViolationError
	if !errorsAs(err, &sve) {
		t.Errorf("error is not a *ShapeViolationError: %v", err)
	}
}

func TestRejectsNonConcave(t *testing.T) {
	t.Parallel()
	// A convex (accelerating) curve: output = input^2.
	samples := samplesFromFunc(func(x float64) float64 { return x * x }, linSpace(1, 100, 20))
	if err := CheckShape("submission", samples); err == nil {
		t.Fatal("expected a shape violation for a convex curve")
	}
}

func TestMergesNearEqualInputsKeepingLargerOutput(t *testing.T) {
	t.Parallel()
	samples := []Sample{
		{Input: 1.0, Output: 5},
		{Input: 1.0 + 1e-13, Output: 7},
		{Input: 2.0, Output: 8},
	}
	if err := CheckShape("submission", samples); err != nil {
		t.Errorf("near-equal inputs should merge without violation: %v", err)
	}
	merged := mergeNearEqual(filterAndSort(samples))
	if len(merged) != 2 || merged[0].Output != 7 {
		t.Errorf("merged = %+v, want 2 points with the first keeping output 7", merged)
	}
}

func TestFiltersBelowMinInput(t *testing.T) {
	t.Parallel()
	samples := []Sample{
		{Input: 0, Output: 100}, // would violate monotonicity if kept
		{Input: 1, Output: 1},
		{Input: 2, Output: 2},
	}
	if err := CheckShape("submission", samples); err != nil {
		t.Errorf("sub-minimum input should be filtered out: %v", err)
	}
}

func TestValidatorSkipsNonSubmissionNames(t *testing.T) {
	t.Parallel()
	v := New("normalizer")
	v.Add(1, 100)
	v.Add(2, 1) // would be a violation if checked
	if err := v.Check(); err != nil {
		t.Errorf("Validator for a non-submission AMM should never check shape: %v", err)
	}
}

func TestValidatorChecksSubmission(t *testing.T) {
	t.Parallel()
	v := New("submission")
	v.Add(1, 100)
	v.Add(2, 1)
	if err := v.Check(); err == nil {
		t.Error("Validator for submission should have flagged the violation")
	}
}

func TestTooFewPointsNeverViolates(t *testing.T) {
	t.Parallel()
	if err := CheckShape("submission", nil); err != nil {
		t.Errorf("empty sample set should not violate: %v", err)
	}
	if err := CheckShape("submission", []Sample{{Input: 1, Output: 1}}); err != nil {
		t.Errorf("single sample should not violate: %v", err)
	}
}

func TestAnalyticBlendFamily(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(7, 9))
	for trial := 0; trial < 200; trial++ {
		wLog := rng.Float64()
		wSqrt := 1 - wLog
		f := func(x float64) float64 {
			return wLog*math.Log(1+x) + wSqrt*(x/(math.Sqrt(1e9+x)+math.Sqrt(1e9)))
		}
		samples := samplesFromFunc(f, linSpace(1, 1e6, 100))
		if err := CheckShape("submission", samples); err != nil {
			t.Fatalf("trial %d: blended concave family rejected: %v", trial, err)
		}
	}
}

func TestPiecewiseLinearConcave(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(3, 4))
	for trial := 0; trial < 200; trial++ {
		// Build decreasing positive slopes to guarantee concavity.
		slopes := make([]float64, 10)
		s := 10.0
		for i := range slopes {
			s *= 0.5 + rng.Float64()*0.4 // each slope <= previous
			slopes[i] = s
		}
		out := 0.0
		in := 0.0
		samples := make([]Sample, 0, len(slopes)+1)
		samples = append(samples, Sample{Input: 1, Output: 0})
		in = 1
		for _, sl := range slopes {
			out += sl * 10
			in += 10
			samples = append(samples, Sample{Input: in, Output: out})
		}
		if err := CheckShape("submission", samples); err != nil {
			t.Fatalf("trial %d: piecewise-linear concave curve rejected: %v", trial, err)
		}
	}
}

// errorsAs is a tiny local helper avoiding an import of errors just for
// a single type assertion in tests.
func errorsAs(err error, target **ShapeViolationError) bool {
	sve, ok := err.(*ShapeViolationError)
	if ok {
		*target = sve
	}
	return ok
}
