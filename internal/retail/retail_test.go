package retail

import "testing"

func TestDeterministicGivenSeed(t *testing.T) {
	t.Parallel()
	a := New(0.8, 20, 1.2, 0.5, 11)
	b := New(0.8, 20, 1.2, 0.5, 11)
	for step := 0; step < 50; step++ {
		oa := a.GenerateOrders()
		ob := b.GenerateOrders()
		if len(oa) != len(ob) {
			t.Fatalf("step %d: order count diverged: %d != %d", step, len(oa), len(ob))
		}
		for i := range oa {
			if oa[i] != ob[i] {
				t.Fatalf("step %d order %d diverged: %+v != %+v", step, i, oa[i], ob[i])
			}
		}
	}
}

func TestOrderSizesArePositive(t *testing.T) {
	t.Parallel()
	g := New(2.0, 20, 1.2, 0.5, 1)
	for step := 0; step < 200; step++ {
		for _, o := range g.GenerateOrders() {
			if o.Size < minSizeParam {
				t.Fatalf("order size %v below floor %v", o.Size, minSizeParam)
			}
		}
	}
}

func TestZeroArrivalRateClampedNotZeroOrders(t *testing.T) {
	t.Parallel()
	g := New(0, 20, 1.2, 0.5, 1)
	total := 0
	for step := 0; step < 1000; step++ {
		total += len(g.GenerateOrders())
	}
	if total == 0 {
		t.Error("arrival rate of 0 should be clamped to a small positive value, not produce zero orders across 1000 steps")
	}
}

func TestBuyProbabilityExtremes(t *testing.T) {
	t.Parallel()
	allBuy := New(5, 20, 1.2, 1.0, 1)
	for step := 0; step < 50; step++ {
		for _, o := range allBuy.GenerateOrders() {
			if !o.IsBuy {
				t.Fatal("buyProb=1.0 produced a sell order")
			}
		}
	}
	allSell := New(5, 20, 1.2, 0.0, 1)
	for step := 0; step < 50; step++ {
		for _, o := range allSell.GenerateOrders() {
			if o.IsBuy {
				t.Fatal("buyProb=0.0 produced a buy order")
			}
		}
	}
}
