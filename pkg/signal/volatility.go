package signal

import (
	"math"

	"github.com/shopspring/decimal"
)

// VolatilityInput holds a live totals market and the caller's pace assumptions
type VolatilityInput struct {
	PregameTotal     float64 `json:"pregame_total"` // echoed for display only
	LiveTotal        float64 `json:"live_total"`
	CurrentScore     float64 `json:"current_score"`    // combined score so far
	TimeRemaining    float64 `json:"time_remaining"`   // minutes
	Pace             float64 `json:"pace"`             // pace coefficient
	HistPointsPerMin float64 `json:"hist_ppm"`         // historical points per minute
	ThresholdPct     float64 `json:"threshold_pct"`    // relative band, 0.10 = 10%
	Bankroll         float64 `json:"bankroll"`
	KellyMultiplier  float64 `json:"kelly_multiplier"`
	OverOdds         Quote   `json:"over_odds"`
	UnderOdds        Quote   `json:"under_odds"`
}

// VolatilityResult is the over/under pace signal
type VolatilityResult struct {
	Signal            Tag              `json:"signal"`
	PregameTotal      *float64         `json:"pregame_total,omitempty"`
	MarketImpliedRate *float64         `json:"market_implied_rate,omitempty"`
	TrueRate          *float64         `json:"true_rate,omitempty"`
	VolatilityEdge    *float64         `json:"volatility_edge,omitempty"`
	EdgeEstimate      *float64         `json:"edge_estimate,omitempty"`
	SuggestedStake    *decimal.Decimal `json:"suggested_stake,omitempty"`
	OddsUsed          *float64         `json:"odds_used,omitempty"`
	Message           string           `json:"message,omitempty"`
}

// Volatility compares the scoring rate the live total implies for the rest of the
// game with pace * historical rate, and signals the side the market underprices.
func (e *Engine) Volatility(in VolatilityInput) VolatilityResult {
	if !isFinite(in.PregameTotal, in.LiveTotal, in.CurrentScore, in.TimeRemaining,
		in.Pace, in.HistPointsPerMin, in.ThresholdPct, in.Bankroll, in.KellyMultiplier) {
		return VolatilityResult{Signal: TagError, Message: "volatility inputs must be finite numbers"}
	}

	remaining := math.Max(in.TimeRemaining, MinTimeRemaining)
	marketRate := (in.LiveTotal - in.CurrentScore) / remaining
	trueRate := in.Pace * in.HistPointsPerMin
	diff := trueRate - marketRate

	// Reference magnitude for the band and z; a zero market rate falls back to 1.
	ref := math.Abs(marketRate)
	if marketRate == 0 {
		ref = 1.0
	}
	band := math.Abs(in.ThresholdPct) * ref

	result := VolatilityResult{
		Signal:            TagNoBet,
		PregameTotal:      roundedPtr(in.PregameTotal),
		MarketImpliedRate: roundedPtr(marketRate),
		TrueRate:          roundedPtr(trueRate),
		VolatilityEdge:    roundedPtr(diff),
	}

	var z float64
	var quote Quote
	switch {
	case diff > band:
		result.Signal = TagBetOver
		z = diff / ref
		quote = in.OverOdds
	case diff < -band:
		result.Signal = TagBetUnder
		z = -diff / ref
		quote = in.UnderOdds
	default:
		return result
	}

	edge := e.params.clampEdge(e.params.VolatilityEdgeScale * z)
	decimalOdds := decimalOrDefault(quote, e.params.ReferenceDecimalOdds)
	stake := SizedStake(in.Bankroll, 0.5+edge, decimalOdds, in.KellyMultiplier)

	result.EdgeEstimate = roundedPtr(edge)
	result.SuggestedStake = stakeAmount(stake)
	result.OddsUsed = roundedPtr(decimalOdds)
	return result
}
