// Package simtypes holds the value types shared across the simulation
// engine: the retail order/trade records an individual simulation
// produces, and the result records a batch run aggregates.
package simtypes

// Order is a single retail order drawn by the retail generator. Size is
// always denominated in quote token Y; a sell order's size is converted
// to base token X (by dividing by the prevailing fair price) before it
// reaches the router.
type Order struct {
	IsBuy bool
	Size  float64
}

// RoutedTrade is one leg of a routed order actually committed against an
// AMM. AmmBuysX is true when the AMM itself bought X (i.e. the retail
// side sold X).
type RoutedTrade struct {
	IsSubmission bool
	AmmBuysX     bool
	AmountX      float64
	AmountY      float64
}

// Edge returns the signed contribution of this trade to the submission's
// edge score: the AMM's own realized gain at fair value (received minus
// the fair-priced value given up). Positive is good for the AMM.
func (t RoutedTrade) Edge(fairPrice float64) float64 {
	if t.AmmBuysX {
		return t.AmountX*fairPrice - t.AmountY
	}
	return t.AmountY - t.AmountX*fairPrice
}

// ArbResult is the outcome of one arbitrageur pass against one AMM.
// Edge is the AMM's own realized gain for this trade (Edge = -arb
// profit): an arbitrageur only trades when it profits, so Edge is
// typically negative here, dragging the AMM's cumulative score down.
type ArbResult struct {
	Executed bool
	AmmBuysX bool
	AmountX  float64
	AmountY  float64
	Edge     float64
}

// SimResult is the outcome of one simulation run.
type SimResult struct {
	Seed           uint64
	SubmissionEdge float64
}

// BatchResult aggregates the outcomes of a batch of simulations, in the
// same order as the configs that produced them.
type BatchResult struct {
	Results   []SimResult
	TotalEdge float64
}

// FromResults builds a BatchResult from an ordered slice of per-sim
// results, summing TotalEdge.
func FromResults(results []SimResult) BatchResult {
	var total float64
	for _, r := range results {
		total += r.SubmissionEdge
	}
	return BatchResult{Results: results, TotalEdge: total}
}

// NSims returns the number of simulations represented in the batch.
func (b BatchResult) NSims() int {
	return len(b.Results)
}

// AvgEdge returns TotalEdge / NSims, or 0 if the batch is empty.
func (b BatchResult) AvgEdge() float64 {
	if len(b.Results) == 0 {
		return 0
	}
	return b.TotalEdge / float64(len(b.Results))
}
