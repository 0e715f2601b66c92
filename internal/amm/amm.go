// Package amm implements the AMM state machine: reserves, per-AMM
// storage, and the quote/execute operations that drive the simulation.
package amm

import (
	"math"

	"ammarena/internal/executor"
	"ammarena/internal/nano"
	"ammarena/internal/wire"
)

// MinReserve is the smallest strictly-positive reserve value the engine
// will tolerate; any operation that would push a reserve to or below
// this floor is rejected.
const MinReserve = 1e-12

// AMM holds one market's reserves, opaque strategy storage, and the
// quote executor backing its pricing decisions. Two instances exist per
// simulation: "submission" and "normalizer".
type AMM struct {
	// Name identifies this AMM for the shape validator ("submission" or
	// "normalizer"); only "submission" curves are shape-checked.
	Name string

	rx, ry  float64
	storage [wire.StorageSize]byte
	step    uint64
	program executor.Program
}

// New constructs an AMM with the given initial reserves and backend.
func New(name string, rx, ry float64, program executor.Program) *AMM {
	return &AMM{Name: name, rx: rx, ry: ry, program: program}
}

// SetInitialStorage copies up to 1024 bytes of buf into the AMM's
// storage at construction time.
func (a *AMM) SetInitialStorage(buf []byte) {
	n := copy(a.storage[:], buf)
	for i := n; i < wire.StorageSize; i++ {
		a.storage[i] = 0
	}
}

// Reset restores reserves to (rx, ry) and zero-fills storage.
func (a *AMM) Reset(rx, ry float64) {
	a.rx = rx
	a.ry = ry
	a.storage = [wire.StorageSize]byte{}
}

// SetStep records the current simulation step. The step is not passed
// to the executor: neither the quote frame nor the after-trade frame
// has a field for it.
func (a *AMM) SetStep(step uint64) {
	a.step = step
}

// ReserveX returns the current X reserve.
func (a *AMM) ReserveX() float64 { return a.rx }

// ReserveY returns the current Y reserve.
func (a *AMM) ReserveY() float64 { return a.ry }

// Storage returns a copy of the AMM's current storage buffer.
func (a *AMM) Storage() [wire.StorageSize]byte { return a.storage }

// SpotPrice returns ry/rx, or NaN if rx is at or below MinReserve.
func (a *AMM) SpotPrice() float64 {
	if a.rx <= MinReserve {
		return math.NaN()
	}
	return a.ry / a.rx
}

func validReserves(rx, ry float64) bool {
	return rx > MinReserve && ry > MinReserve &&
		!math.IsNaN(rx) && !math.IsInf(rx, 0) &&
		!math.IsNaN(ry) && !math.IsInf(ry, 0)
}

func validOutput(out, ceiling float64) bool {
	return !math.IsNaN(out) && !math.IsInf(out, 0) && out > 0 && out <= ceiling
}

// QuoteBuyX returns the amount of X obtainable for yIn units of Y, or 0
// if the input, reserves, or resulting quote are out of bounds.
func (a *AMM) QuoteBuyX(yIn float64) float64 {
	if !finitePositive(yIn) || !validReserves(a.rx, a.ry) {
		return 0
	}
	frame := wire.QuoteFrame{
		Side:        wire.SideBuyX,
		InputAmount: nano.ToNano(yIn),
		ReserveX:    nano.ToNano(a.rx),
		ReserveY:    nano.ToNano(a.ry),
		Storage:     a.storage,
	}
	out := nano.FromNano(a.program.Quote(frame))
	if !validOutput(out, a.rx) {
		return 0
	}
	return out
}

// QuoteSellX returns the amount of Y obtainable for xIn units of X, or 0
// if the input, reserves, or resulting quote are out of bounds.
func (a *AMM) QuoteSellX(xIn float64) float64 {
	if !finitePositive(xIn) || !validReserves(a.rx, a.ry) {
		return 0
	}
	frame := wire.QuoteFrame{
		Side:        wire.SideSellX,
		InputAmount: nano.ToNano(xIn),
		ReserveX:    nano.ToNano(a.rx),
		ReserveY:    nano.ToNano(a.ry),
		Storage:     a.storage,
	}
	out := nano.FromNano(a.program.Quote(frame))
	if !validOutput(out, a.ry) {
		return 0
	}
	return out
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// ExecuteBuyX quotes yIn, applies the resulting reserve mutation, and
// invokes the after-trade hook on success. Returns 0 and leaves reserves
// unchanged if the quote is 0 or the resulting reserves would be
// invalid.
func (a *AMM) ExecuteBuyX(yIn float64) float64 {
	xOut := a.QuoteBuyX(yIn)
	if xOut <= 0 {
		return 0
	}
	newRx := a.rx - xOut
	newRy := a.ry + yIn
	if !validReserves(newRx, newRy) {
		return 0
	}
	a.rx, a.ry = newRx, newRy
	a.runAfterTrade(wire.SideBuyX, yIn, xOut)
	return xOut
}

// ExecuteSellX quotes xIn, applies the resulting reserve mutation, and
// invokes the after-trade hook on success. Returns 0 and leaves reserves
// unchanged if the quote is 0 or the resulting reserves would be
// invalid.
func (a *AMM) ExecuteSellX(xIn float64) float64 {
	yOut := a.QuoteSellX(xIn)
	if yOut <= 0 {
		return 0
	}
	newRx := a.rx + xIn
	newRy := a.ry - yOut
	if !validReserves(newRx, newRy) {
		return 0
	}
	a.rx, a.ry = newRx, newRy
	a.runAfterTrade(wire.SideSellX, xIn, yOut)
	return yOut
}

func (a *AMM) runAfterTrade(side wire.Side, input, output float64) {
	frame := wire.AfterTradeFrame{
		Side:         side,
		InputAmount:  nano.ToNano(input),
		OutputAmount: nano.ToNano(output),
		PostReserveX: nano.ToNano(a.rx),
		PostReserveY: nano.ToNano(a.ry),
		Storage:      a.storage,
	}
	if storage, ok := a.program.AfterTrade(frame); ok {
		a.storage = storage
	}
}
