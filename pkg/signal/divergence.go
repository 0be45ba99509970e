package signal

// DivergenceInput holds two independent model spreads and the book's spread
type DivergenceInput struct {
	Model1Spread     float64 `json:"model1_spread"`
	Model2Spread     float64 `json:"model2_spread"`
	SportsbookSpread float64 `json:"sportsbook_spread"`
}

// DivergenceResult reports how far the consensus model spread sits from the book
type DivergenceResult struct {
	Signal             Tag      `json:"signal"`
	Side               Side     `json:"side,omitempty"`
	AverageModelSpread *float64 `json:"average_model_spread,omitempty"`
	Divergence         *float64 `json:"divergence,omitempty"`
	Message            string   `json:"message,omitempty"`
}

// Divergence averages two model spreads and compares them to the sportsbook.
// A negative divergence means the book undervalues the favorite.
func (e *Engine) Divergence(in DivergenceInput) DivergenceResult {
	if !isFinite(in.Model1Spread, in.Model2Spread, in.SportsbookSpread) {
		return DivergenceResult{Signal: TagError, Message: "spreads must be finite numbers"}
	}

	avg := (in.Model1Spread + in.Model2Spread) / 2
	divergence := avg - in.SportsbookSpread

	result := DivergenceResult{
		Signal:             TagNoBet,
		AverageModelSpread: roundedPtr(avg),
		Divergence:         roundedPtr(divergence),
	}

	switch {
	case divergence < -e.params.DivergenceThreshold:
		result.Signal = TagBet
		result.Side = SideFavorite
	case divergence > e.params.DivergenceThreshold:
		result.Signal = TagBet
		result.Side = SideUnderdog
	}

	return result
}
