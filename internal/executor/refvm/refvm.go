// Package refvm is a minimal reference bytecode interpreter implementing
// the executor.SandboxProgram contract. It exists to give the sandboxed
// execution path (meter, host calls, storage mutation) real code to run
// against in tests, not to model the production ELF/BPF toolchain, which
// is genuinely out of scope: there is no loader, no JIT, and no
// Solana-specific ABI beyond the byte layout already fixed by the wire
// package.
//
// A Program is a flat sequence of Insn values executed against a small
// stack machine. The instruction set is deliberately tiny: just enough to
// express a constant-product-with-fee quote and a last-trade EMA stored
// in the AMM's storage buffer, the two reference strategies used to
// exercise this package's tests.
package refvm

import (
	"encoding/binary"
	"math"

	"ammarena/internal/wire"
)

// Op identifies a single stack-machine instruction.
type Op int

const (
	// OpPushInput pushes the quote frame's input_amount as a float64.
	OpPushInput Op = iota
	// OpPushReserveX pushes reserve_x as a float64.
	OpPushReserveX
	// OpPushReserveY pushes reserve_y as a float64.
	OpPushReserveY
	// OpPushConst pushes Insn.Arg verbatim.
	OpPushConst
	// OpPushStorageF64 pushes the float64 stored at byte offset Arg (as
	// an int) in the frame's storage buffer, or 0.0 if unset.
	OpPushStorageF64
	// OpAdd pops b, a and pushes a+b.
	OpAdd
	// OpSub pops b, a and pushes a-b.
	OpSub
	// OpMul pops b, a and pushes a*b.
	OpMul
	// OpDiv pops b, a and pushes a/b, or 0 if b == 0.
	OpDiv
	// OpReturn stops execution; the top of the stack is the quote
	// result (converted to nano) or, for after-trade programs, ignored.
	OpReturn
	// OpStoreF64 pops a value and writes it as a float64 into the
	// returned storage buffer at byte offset Arg.
	OpStoreF64
	// OpAbort halts execution and fails the call, modeling a guest
	// program's abort host call.
	OpAbort
)

// Insn is one bytecode instruction: an opcode plus an optional operand.
type Insn struct {
	Op  Op
	Arg float64
}

// Program is a fixed instruction sequence plus a compute budget. Each
// instruction executed costs one unit against the budget; exceeding it
// aborts the run, modeling the production sandbox's compute meter.
type Program struct {
	Quote      []Insn
	AfterTrade []Insn
	Budget     int
}

// New builds a Program with the given quote and after-trade instruction
// sequences and a per-call compute budget.
func New(quote, afterTrade []Insn, budget int) *Program {
	return &Program{Quote: quote, AfterTrade: afterTrade, Budget: budget}
}

// RunQuote implements executor.SandboxProgram. It decodes frameBytes as a
// QuoteFrame, runs the Quote program, and returns the top-of-stack value
// converted to a nano amount. ok is false on abort, meter exhaustion, or
// malformed input.
func (p *Program) RunQuote(frameBytes []byte) (uint64, bool) {
	frame, decOK := wire.DecodeQuoteFrame(frameBytes)
	if !decOK {
		return 0, false
	}
	m := &machine{
		budget:   p.Budget,
		input:    float64(frame.InputAmount) / 1e9,
		reserveX: float64(frame.ReserveX) / 1e9,
		reserveY: float64(frame.ReserveY) / 1e9,
		storage:  frame.Storage,
	}
	if !m.run(p.Quote) {
		return 0, false
	}
	top, ok := m.top()
	if !ok || !finitePositive(top) {
		return 0, false
	}
	return toNano(top), true
}

// RunAfterTrade implements executor.SandboxProgram. It decodes
// frameBytes as an AfterTradeFrame, runs the AfterTrade program, and
// returns the storage buffer the program wrote to (via OpStoreF64
// instructions). ok is false on abort or meter exhaustion, in which case
// the returned storage is the zero value and must be ignored by the
// caller.
func (p *Program) RunAfterTrade(frameBytes []byte) ([wire.StorageSize]byte, bool) {
	frame, decOK := wire.DecodeAfterTradeFrame(frameBytes)
	if !decOK {
		return [wire.StorageSize]byte{}, false
	}
	m := &machine{
		budget:   p.Budget,
		input:    float64(frame.InputAmount) / 1e9,
		reserveX: float64(frame.PostReserveX) / 1e9,
		reserveY: float64(frame.PostReserveY) / 1e9,
		storage:  frame.Storage,
	}
	if !m.run(p.AfterTrade) {
		return [wire.StorageSize]byte{}, false
	}
	return m.storage, true
}

func toNano(v float64) uint64 {
	scaled := v * 1e9
	if scaled < 0 {
		return 0
	}
	if scaled >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(scaled)
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// machine is the interpreter's mutable state for one call.
type machine struct {
	budget   int
	stack    []float64
	input    float64
	reserveX float64
	reserveY float64
	storage  [wire.StorageSize]byte
}

func (m *machine) top() (float64, bool) {
	if len(m.stack) == 0 {
		return 0, false
	}
	return m.stack[len(m.stack)-1], true
}

func (m *machine) pop() float64 {
	if len(m.stack) == 0 {
		return 0
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *machine) push(v float64) {
	m.stack = append(m.stack, v)
}

// run executes insns against the machine's budget, returning false if
// the program aborts or runs out of compute.
func (m *machine) run(insns []Insn) bool {
	for _, insn := range insns {
		if m.budget <= 0 {
			return false
		}
		m.budget--
		switch insn.Op {
		case OpPushInput:
			m.push(m.input)
		case OpPushReserveX:
			m.push(m.reserveX)
		case OpPushReserveY:
			m.push(m.reserveY)
		case OpPushConst:
			m.push(insn.Arg)
		case OpPushStorageF64:
			off := int(insn.Arg)
			if off < 0 || off+8 > wire.StorageSize {
				return false
			}
			m.push(math.Float64frombits(binary.LittleEndian.Uint64(m.storage[off : off+8])))
		case OpAdd:
			b, a := m.pop(), m.pop()
			m.push(a + b)
		case OpSub:
			b, a := m.pop(), m.pop()
			m.push(a - b)
		case OpMul:
			b, a := m.pop(), m.pop()
			m.push(a * b)
		case OpDiv:
			b, a := m.pop(), m.pop()
			if b == 0 {
				m.push(0)
			} else {
				m.push(a / b)
			}
		case OpStoreF64:
			off := int(insn.Arg)
			if off < 0 || off+8 > wire.StorageSize {
				return false
			}
			v := m.pop()
			binary.LittleEndian.PutUint64(m.storage[off:off+8], math.Float64bits(v))
		case OpReturn:
			return true
		case OpAbort:
			return false
		default:
			return false
		}
	}
	return true
}
