package signal

import (
	"math"

	"github.com/shopspring/decimal"
)

// KellyFraction returns the full-Kelly fraction of bankroll to stake.
//
// Kelly Criterion: f = (p*d - 1) / (d - 1)
// where p = probability of winning
//       d = decimal odds (total return per unit staked)
//
// Returns 0 when there is no edge or the payout ratio d-1 is not positive.
func KellyFraction(winProb, decimalOdds float64) float64 {
	b := decimalOdds - 1.0
	if !(b > 0) {
		return 0
	}

	edge := winProb*decimalOdds - 1.0
	if !(edge > 0) {
		return 0
	}

	f := edge / b
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// SizedStake applies a fractional-Kelly multiplier and caps the stake at the
// full bankroll. Non-positive bankroll or multiplier stakes nothing.
func SizedStake(bankroll, winProb, decimalOdds, kellyMultiplier float64) float64 {
	if !(bankroll > 0) || !(kellyMultiplier > 0) {
		return 0
	}

	fraction := math.Min(1.0, KellyFraction(winProb, decimalOdds)*kellyMultiplier)
	if !(fraction > 0) {
		return 0
	}
	return bankroll * fraction
}

// KellyInput holds the inputs of a standalone Kelly sizing request
type KellyInput struct {
	Bankroll        float64 `json:"bankroll"`
	WinProbability  float64 `json:"win_probability"`
	DecimalOdds     float64 `json:"decimal_odds"`
	KellyMultiplier float64 `json:"kelly_multiplier"`
}

// KellyResult is the sizing recommendation for a single bet
type KellyResult struct {
	Signal         Tag              `json:"signal"`
	KellyFraction  *float64         `json:"kelly_fraction,omitempty"`
	SuggestedStake *decimal.Decimal `json:"suggested_stake,omitempty"`
	Message        string           `json:"message,omitempty"`
}

// KellySizing sizes a bet from the caller's own probability estimate.
// A zero fraction means no edge and yields NO_BET.
func KellySizing(in KellyInput) KellyResult {
	if !isFinite(in.Bankroll, in.WinProbability, in.DecimalOdds, in.KellyMultiplier) {
		return KellyResult{Signal: TagError, Message: "kelly inputs must be finite numbers"}
	}

	fraction := KellyFraction(in.WinProbability, in.DecimalOdds)
	stake := SizedStake(in.Bankroll, in.WinProbability, in.DecimalOdds, in.KellyMultiplier)

	signal := TagBet
	if fraction == 0 {
		signal = TagNoBet
	}

	return KellyResult{
		Signal:         signal,
		KellyFraction:  roundedPtr(fraction),
		SuggestedStake: stakeAmount(stake),
	}
}
