// Package simulation implements the per-simulation driver: wiring a
// submission AMM and a normalizer AMM to the price process, retail
// generator, arbitrageur, and router for N steps, and accumulating the
// submission's edge score.
package simulation

import (
	"encoding/binary"

	"ammarena/internal/amm"
	"ammarena/internal/arbitrageur"
	"ammarena/internal/config"
	"ammarena/internal/curvecheck"
	"ammarena/internal/diagnostics"
	"ammarena/internal/executor"
	"ammarena/internal/normalizer"
	"ammarena/internal/priceprocess"
	"ammarena/internal/retail"
	"ammarena/internal/router"
	"ammarena/pkg/simtypes"
)

// Three independent seed offsets, derived from the config seed, give the
// price process, arbitrageur, and retail generator their own PCG
// streams (spec §4.10: "seed, seed+1, seed+2").
const (
	priceProcessSeedOffset = 0
	arbitrageurSeedOffset  = 1
	retailSeedOffset       = 2
)

// normalizerStorage returns a 2-byte buffer holding feeBps as a
// little-endian u16; SetInitialStorage places it in bytes 0..2 and
// zero-fills the rest of the 1024-byte storage, matching spec §4.10's
// normalizer construction.
func normalizerStorage(feeBps int) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(feeBps))
	return buf
}

// Run assembles one simulation from cfg and the given submission/
// normalizer programs, and drives it to completion. The shape validator
// checks the submission's sampled curve once per step — samples from
// different steps reflect different reserve states and are not
// comparable as one function, so pooling them across the whole
// simulation would produce spurious violations; a fresh Validator is
// built and checked after each step's arb and router calls against the
// submission AMM.
//
// Returns a *curvecheck.ShapeViolationError if any step's submission
// samples fail the shape check; this is the one fatal, user-visible
// failure mode in the simulation engine.
func Run(cfg config.SimulationConfig, submissionProgram, normalizerProgram executor.Program) (simtypes.SimResult, error) {
	sub := amm.New("submission", cfg.InitialX, cfg.InitialY, submissionProgram)
	norm := amm.New("normalizer", cfg.InitialX*cfg.NormLiquidityMult, cfg.InitialY*cfg.NormLiquidityMult, normalizerProgram)
	norm.SetInitialStorage(normalizerStorage(cfg.NormFeeBps))

	prices := priceprocess.New(cfg.InitialPrice, cfg.GBMMu, cfg.GBMSigma, cfg.GBMDt, cfg.Seed+priceProcessSeedOffset)
	arb := arbitrageur.New(cfg.MinArbProfit, cfg.RetailMeanSize, cfg.RetailSizeSigma, cfg.Seed+arbitrageurSeedOffset)
	orders := retail.New(cfg.RetailArrivalRate, cfg.RetailMeanSize, cfg.RetailSizeSigma, cfg.RetailBuyProb, cfg.Seed+retailSeedOffset)

	var submissionEdge float64

	for step := 0; step < cfg.StepCount; step++ {
		sub.SetStep(uint64(step))
		norm.SetStep(uint64(step))

		fairPrice := prices.Step()

		validator := curvecheck.New("submission")

		subResult := arb.Execute(sub, fairPrice, validator)
		if subResult.Executed {
			submissionEdge += subResult.Edge
			diagnostics.IncTradeExecuted("submission")
		}

		// The normalizer is never shape-checked; New("normalizer")
		// builds a no-op validator.
		normResult := arb.Execute(norm, fairPrice, curvecheck.New("normalizer"))
		if normResult.Executed {
			diagnostics.IncTradeExecuted("normalizer")
		}

		for _, order := range orders.GenerateOrders() {
			var trades []simtypes.RoutedTrade
			if order.IsBuy {
				trades = router.RouteBuy(order.Size, sub, norm, validator)
			} else {
				// Order sizes are always denominated in Y; a sell
				// order's total X input is its Y-denominated size
				// converted at the step's fair price.
				trades = router.RouteSell(order.Size/fairPrice, sub, norm, validator)
			}
			for _, trade := range trades {
				if trade.IsSubmission {
					submissionEdge += trade.Edge(fairPrice)
					diagnostics.IncTradeExecuted("submission")
				} else {
					diagnostics.IncTradeExecuted("normalizer")
				}
			}
		}

		if err := validator.Check(); err != nil {
			diagnostics.IncShapeViolation()
			return simtypes.SimResult{}, err
		}
	}

	return simtypes.SimResult{Seed: cfg.Seed, SubmissionEdge: submissionEdge}, nil
}

// RunNative drives a simulation with both the submission and normalizer
// AMMs backed by native (direct function call) quote executors.
func RunNative(cfg config.SimulationConfig, submissionSwap executor.SwapFn, submissionAfterTrade executor.AfterTradeFn) (simtypes.SimResult, error) {
	submission := executor.NewNativeExecutor(submissionSwap, submissionAfterTrade)
	norm := executor.NewNativeExecutor(normalizer.Quote, normalizer.AfterTrade)
	return Run(cfg, submission, norm)
}

// RunSandboxed drives a simulation with both AMMs backed by sandboxed
// bytecode programs, exercising the full metered execution path on both
// sides.
func RunSandboxed(cfg config.SimulationConfig, submissionProgram, normalizerProgram executor.SandboxProgram) (simtypes.SimResult, error) {
	submission := executor.NewSandboxExecutor(submissionProgram)
	norm := executor.NewSandboxExecutor(normalizerProgram)
	return Run(cfg, submission, norm)
}

// RunMixed drives a simulation with the submission under test sandboxed
// and the normalizer backed natively, the configuration a live arena
// actually runs: untrusted strategy code against a trusted reference
// curve.
func RunMixed(cfg config.SimulationConfig, submissionProgram executor.SandboxProgram) (simtypes.SimResult, error) {
	submission := executor.NewSandboxExecutor(submissionProgram)
	norm := executor.NewNativeExecutor(normalizer.Quote, normalizer.AfterTrade)
	return Run(cfg, submission, norm)
}
