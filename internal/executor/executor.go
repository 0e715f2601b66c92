// Package executor defines the polymorphic quote/after-trade execution
// contract shared by native and sandboxed pricing strategies. An AMM
// owns exactly one Program; dispatch between the two backends is a
// closed, two-variant choice, never open-ended dynamic dispatch.
package executor

import (
	"ammarena/internal/diagnostics"
	"ammarena/internal/wire"
)

// Program is the uniform interface an AMM calls into for pricing
// decisions, regardless of whether the strategy behind it is a native Go
// function or a sandboxed bytecode program.
//
// Quote must be pure and side-effect free; a failed execution returns 0,
// never an error, matching the "quote never fails loudly" contract in
// the error-handling design: a misbehaving strategy simply earns no
// trade.
//
// AfterTrade may return an updated storage buffer; ok is false if the
// hook failed (sandbox abort, meter exhaustion, or no native hook
// configured), in which case the caller must leave storage unchanged.
type Program interface {
	Quote(frame wire.QuoteFrame) uint64
	AfterTrade(frame wire.AfterTradeFrame) (storage [wire.StorageSize]byte, ok bool)
}

// SwapFn is a native quote function: the direct-call variant of Program.
type SwapFn func(frame wire.QuoteFrame) uint64

// AfterTradeFn is a native after-trade hook. A nil AfterTradeFn means the
// strategy has no storage-mutation behavior; NativeExecutor treats this
// as an always-fails hook (ok=false, storage unchanged), matching the
// sandboxed no-op-log convention of "absence is not an error."
type AfterTradeFn func(frame wire.AfterTradeFrame) (storage [wire.StorageSize]byte, ok bool)

// NativeExecutor is the direct-function-call Program variant, the
// function-pointer equivalent described in Design Notes §9. It is cheap
// to build; simulation.RunNative and RunMixed build a fresh one per
// simulation run.
type NativeExecutor struct {
	SwapFunc       SwapFn
	AfterTradeFunc AfterTradeFn
}

// NewNativeExecutor builds a NativeExecutor from a swap function and an
// optional after-trade hook (nil is permitted).
func NewNativeExecutor(swap SwapFn, after AfterTradeFn) *NativeExecutor {
	return &NativeExecutor{SwapFunc: swap, AfterTradeFunc: after}
}

// Quote calls the wrapped swap function directly. A nil SwapFunc quotes
// 0, matching "failed execution returns 0."
func (n *NativeExecutor) Quote(frame wire.QuoteFrame) uint64 {
	if n.SwapFunc == nil {
		return 0
	}
	return n.SwapFunc(frame)
}

// AfterTrade calls the wrapped hook if one is configured.
func (n *NativeExecutor) AfterTrade(frame wire.AfterTradeFrame) ([wire.StorageSize]byte, bool) {
	if n.AfterTradeFunc == nil {
		return [wire.StorageSize]byte{}, false
	}
	return n.AfterTradeFunc(frame)
}

// SandboxProgram is the bytecode-VM Program variant. Its Quote and
// AfterTrade entry points run an untrusted, metered program under a
// compute-resource bound; exceeding the bound fails the call rather than
// running unbounded, matching the sandboxed contract in spec §4.3.
type SandboxProgram interface {
	// RunQuote executes the program's quote entry point against the
	// encoded frame, returning the raw 8-byte return-data slot and
	// whether execution completed within its compute budget.
	RunQuote(frameBytes []byte) (result uint64, ok bool)
	// RunAfterTrade executes the program's after-trade entry point,
	// returning an updated storage buffer and whether it completed
	// within budget.
	RunAfterTrade(frameBytes []byte) (storage [wire.StorageSize]byte, ok bool)
}

// SandboxExecutor adapts a SandboxProgram to the Program interface,
// handling frame encoding and the "failure means zero/unchanged"
// contract uniformly for callers.
type SandboxExecutor struct {
	Prog SandboxProgram
}

// NewSandboxExecutor wraps prog as a Program.
func NewSandboxExecutor(prog SandboxProgram) *SandboxExecutor {
	return &SandboxExecutor{Prog: prog}
}

// Quote encodes frame and invokes the sandboxed program; an aborted or
// over-budget run quotes 0.
func (s *SandboxExecutor) Quote(frame wire.QuoteFrame) uint64 {
	out, ok := s.Prog.RunQuote(wire.EncodeQuoteFrame(frame))
	if !ok {
		diagnostics.IncSandboxAbort()
		return 0
	}
	return out
}

// AfterTrade encodes frame and invokes the sandboxed after-trade entry
// point; an aborted or over-budget run leaves storage unchanged.
func (s *SandboxExecutor) AfterTrade(frame wire.AfterTradeFrame) ([wire.StorageSize]byte, bool) {
	storage, ok := s.Prog.RunAfterTrade(wire.EncodeAfterTradeFrame(frame))
	if !ok {
		diagnostics.IncSandboxAbort()
	}
	return storage, ok
}
