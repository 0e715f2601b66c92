// Package normalizer implements the reference constant-product-with-fee
// quote function used by the normalizer AMM, plus the no-op after-trade
// hook it pairs with.
package normalizer

import (
	"math/big"

	"ammarena/internal/wire"
)

// DefaultFeeBps is the fee applied when an AMM's storage does not carry
// an explicit fee (too short, or stored as the literal value 0).
const DefaultFeeBps = 30

// feeBpsDenominator is the basis-point denominator (10,000 bps = 100%).
const feeBpsDenominator = 10_000

// FeeBpsFromStorage reads a little-endian u16 fee-in-basis-points from
// the first two bytes of storage, defaulting to DefaultFeeBps if storage
// is too short or the stored value is 0.
func FeeBpsFromStorage(storage []byte) uint16 {
	if len(storage) < 2 {
		return DefaultFeeBps
	}
	raw := uint16(storage[0]) | uint16(storage[1])<<8
	if raw == 0 {
		return DefaultFeeBps
	}
	return raw
}

// Quote implements the constant-product-with-fee reference curve as a
// native executor.SwapFn: k = rx*ry is preserved after a fee-adjusted
// input is added to the input-side reserve, and the output is the
// resulting decrease in the output-side reserve. The retained
// output-side reserve is rounded up, so the output is rounded down (the
// AMM never gives away more than it must retain to preserve k).
func Quote(frame wire.QuoteFrame) uint64 {
	feeBps := FeeBpsFromStorage(frame.Storage[:])
	gammaNum := big.NewInt(int64(feeBpsDenominator - feeBps))
	gammaDen := big.NewInt(feeBpsDenominator)

	rx := new(big.Int).SetUint64(frame.ReserveX)
	ry := new(big.Int).SetUint64(frame.ReserveY)
	in := new(big.Int).SetUint64(frame.InputAmount)

	k := new(big.Int).Mul(rx, ry)

	effectiveIn := new(big.Int).Mul(in, gammaNum)
	effectiveIn.Div(effectiveIn, gammaDen)

	switch frame.Side {
	case wire.SideBuyX:
		newRy := new(big.Int).Add(ry, effectiveIn)
		if newRy.Sign() <= 0 {
			return 0
		}
		newRx := ceilDiv(k, newRy)
		out := new(big.Int).Sub(rx, newRx)
		if out.Sign() <= 0 {
			return 0
		}
		if !out.IsUint64() {
			return 0
		}
		return out.Uint64()
	case wire.SideSellX:
		newRx := new(big.Int).Add(rx, effectiveIn)
		if newRx.Sign() <= 0 {
			return 0
		}
		newRy := ceilDiv(k, newRx)
		out := new(big.Int).Sub(ry, newRy)
		if out.Sign() <= 0 {
			return 0
		}
		if !out.IsUint64() {
			return 0
		}
		return out.Uint64()
	default:
		return 0
	}
}

// ceilDiv computes ceil(a/b) for non-negative a, positive b.
func ceilDiv(a, b *big.Int) *big.Int {
	num := new(big.Int).Add(a, new(big.Int).Sub(b, big.NewInt(1)))
	return num.Div(num, b)
}

// AfterTrade is the normalizer's after-trade hook: a pure no-op, since
// the reference curve carries no state beyond the reserves the AMM
// already tracks. It always reports failure (no storage change),
// matching original_source's no-op after_swap.
func AfterTrade(frame wire.AfterTradeFrame) ([wire.StorageSize]byte, bool) {
	return [wire.StorageSize]byte{}, false
}
