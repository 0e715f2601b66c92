// Package diagnostics exposes optional, process-global counters for the
// simulation engine: sandbox aborts, shape violations caught, and
// trades executed. Counters are backed by atomic.Int64 so they are
// always safe to increment from the hot per-step path regardless of
// whether the Prometheus server is running; the server itself is
// opt-in and never started unless explicitly enabled (spec §5:
// "disabled by default").
package diagnostics

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sandboxAborts   atomic.Int64
	shapeViolations atomic.Int64
	tradesExecuted  atomic.Int64
)

var (
	mtxSandboxAborts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ammarena_sandbox_aborts_total",
		Help: "Sandboxed quote/after-trade calls that failed their compute budget or aborted.",
	})
	mtxShapeViolations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ammarena_shape_violations_total",
		Help: "Submission curves caught violating the monotone-concave shape check.",
	})
	mtxTradesExecuted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ammarena_trades_executed_total",
		Help: "Trades committed against an AMM, by amm name (submission|normalizer).",
	}, []string{"amm"})
)

func init() {
	prometheus.MustRegister(mtxSandboxAborts, mtxShapeViolations, mtxTradesExecuted)
}

// IncSandboxAbort records one sandboxed execution that failed to
// complete within its compute budget.
func IncSandboxAbort() {
	sandboxAborts.Add(1)
	mtxSandboxAborts.Inc()
}

// IncShapeViolation records one submission shape-check failure.
func IncShapeViolation() {
	shapeViolations.Add(1)
	mtxShapeViolations.Inc()
}

// IncTradeExecuted records one committed trade against the named AMM.
func IncTradeExecuted(ammName string) {
	tradesExecuted.Add(1)
	mtxTradesExecuted.WithLabelValues(ammName).Inc()
}

// Snapshot is a point-in-time read of the atomic counters, usable for
// logging a batch summary without scraping the HTTP endpoint.
type Snapshot struct {
	SandboxAborts   int64
	ShapeViolations int64
	TradesExecuted  int64
}

// Read returns the current counter values.
func Read() Snapshot {
	return Snapshot{
		SandboxAborts:   sandboxAborts.Load(),
		ShapeViolations: shapeViolations.Load(),
		TradesExecuted:  tradesExecuted.Load(),
	}
}

// Serve starts the Prometheus metrics endpoint at addr (e.g. ":9090")
// and blocks until ctx is canceled, then shuts the server down
// gracefully. Only called when diagnostics are explicitly enabled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
