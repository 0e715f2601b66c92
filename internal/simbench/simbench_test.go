// Benchmarks comparing the native and sandboxed quote executor paths,
// and one full simulation run in each backend combination.
// Run with: go test -bench=. -benchmem ./internal/simbench/
package simbench

import (
	"testing"

	"ammarena/internal/config"
	"ammarena/internal/executor"
	"ammarena/internal/executor/refvm"
	"ammarena/internal/normalizer"
	"ammarena/internal/simulation"
	"ammarena/internal/wire"
)

// normalizerRefvmProgram builds a refvm.Program computing the same
// constant-product-with-fee quote as internal/normalizer, exercising the
// sandboxed path against a realistic instruction sequence rather than a
// trivial one.
func normalizerRefvmProgram() *refvm.Program {
	// out = rx - rx*ry / (ry + input*0.997), i.e. a fixed-30bps swap,
	// evaluated in the reference stack machine.
	quote := []refvm.Insn{
		{Op: refvm.OpPushReserveX},
		{Op: refvm.OpPushReserveX},
		{Op: refvm.OpPushReserveY},
		{Op: refvm.OpMul},
		{Op: refvm.OpPushReserveY},
		{Op: refvm.OpPushInput},
		{Op: refvm.OpPushConst, Arg: 0.997},
		{Op: refvm.OpMul},
		{Op: refvm.OpAdd},
		{Op: refvm.OpDiv},
		{Op: refvm.OpSub},
		{Op: refvm.OpReturn},
	}
	return refvm.New(quote, nil, 1000)
}

func quoteFrameBytes(b *testing.B, rx, ry, input float64) []byte {
	b.Helper()
	frame := wire.QuoteFrame{
		Side:        wire.SideBuyX,
		InputAmount: uint64(input * 1e9),
		ReserveX:    uint64(rx * 1e9),
		ReserveY:    uint64(ry * 1e9),
	}
	return wire.EncodeQuoteFrame(frame)
}

// BenchmarkNativeQuote measures the direct-function-call executor path.
func BenchmarkNativeQuote(b *testing.B) {
	exec := executor.NewNativeExecutor(normalizer.Quote, normalizer.AfterTrade)
	frame := wire.QuoteFrame{
		Side:        wire.SideBuyX,
		InputAmount: 10 * 1e9,
		ReserveX:    100 * 1e9,
		ReserveY:    10000 * 1e9,
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exec.Quote(frame)
	}
}

// BenchmarkSandboxedQuote measures the metered bytecode-VM executor
// path for an equivalent constant-product quote.
func BenchmarkSandboxedQuote(b *testing.B) {
	prog := normalizerRefvmProgram()
	exec := executor.NewSandboxExecutor(prog)
	frameBytes := quoteFrameBytes(b, 100, 10000, 10)
	frame, ok := wire.DecodeQuoteFrame(frameBytes)
	if !ok {
		b.Fatal("failed to decode benchmark quote frame")
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exec.Quote(frame)
	}
}

// BenchmarkSimulation runs one 1000-step simulation per backend
// combination, mirroring original_source's bench.rs "1k-step sim
// benchmark" comparison.
func BenchmarkSimulation(b *testing.B) {
	cfg := config.DefaultSimulationConfig()
	cfg.StepCount = 1000
	cfg.Seed = 42

	b.Run("NativeNative", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := simulation.RunNative(cfg, normalizer.Quote, normalizer.AfterTrade); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("SandboxedNative", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			prog := normalizerRefvmProgram()
			if _, err := simulation.RunMixed(cfg, prog); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("SandboxedSandboxed", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			sub := normalizerRefvmProgram()
			norm := normalizerRefvmProgram()
			if _, err := simulation.RunSandboxed(cfg, sub, norm); err != nil {
				b.Fatal(err)
			}
		}
	})
}
