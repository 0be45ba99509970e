package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrUndefinedSpread is returned when no fair spread can be derived from two prices
var ErrUndefinedSpread = errors.New("fair spread undefined")

// StatArbInput holds a posted spread and the two moneylines it is priced against
type StatArbInput struct {
	PostedSpread    float64 `json:"posted_spread"`
	OddsA           Quote   `json:"odds_a"`
	OddsB           Quote   `json:"odds_b"`
	Threshold       float64 `json:"threshold"`
	Bankroll        float64 `json:"bankroll"`
	KellyMultiplier float64 `json:"kelly_multiplier"`
}

// StatArbResult is the spread mispricing signal
type StatArbResult struct {
	Signal         Tag              `json:"signal"`
	Side           Side             `json:"side,omitempty"`
	FairSpread     *float64         `json:"fair_spread,omitempty"`
	Mispricing     *float64         `json:"mispricing,omitempty"`
	EdgeEstimate   *float64         `json:"edge_estimate,omitempty"`
	SuggestedStake *decimal.Decimal `json:"suggested_stake,omitempty"`
	Message        string           `json:"message,omitempty"`
}

// FairSpread derives a point spread from two moneylines:
// fair = -ln(P_A / P_B) / SpreadScale
func (e *Engine) FairSpread(oddsA, oddsB AmericanOdds) (float64, error) {
	pA, err := ToImpliedProbability(oddsA)
	if err != nil {
		return 0, fmt.Errorf("leg A: %w", err)
	}
	pB, err := ToImpliedProbability(oddsB)
	if err != nil {
		return 0, fmt.Errorf("leg B: %w", err)
	}
	if pA <= 0 || pB <= 0 {
		return 0, fmt.Errorf("%w: non-positive implied probability", ErrUndefinedSpread)
	}

	ratio := pA / pB
	if !(ratio > 0) || math.IsInf(ratio, 0) || e.params.SpreadScale == 0 {
		return 0, fmt.Errorf("%w: log ratio argument %v", ErrUndefinedSpread, ratio)
	}

	fair := -math.Log(ratio) / e.params.SpreadScale
	if !isFinite(fair) {
		return 0, fmt.Errorf("%w: non-finite result", ErrUndefinedSpread)
	}
	return fair, nil
}

// StatArb compares a posted spread to the fair spread implied by the moneylines
// and sizes a bet when the gap reaches the threshold. The edge is a fixed linear
// mapping of points of mispricing, not a fitted statistic, and the payout is
// assumed to be ReferenceDecimalOdds.
func (e *Engine) StatArb(in StatArbInput) StatArbResult {
	if !isFinite(in.PostedSpread, in.Threshold, in.Bankroll, in.KellyMultiplier) {
		return StatArbResult{Signal: TagError, Message: "stat arb inputs must be finite numbers"}
	}

	oddsA, err := in.OddsA.American()
	if err != nil {
		return StatArbResult{Signal: TagError, Message: fmt.Sprintf("could not compute fair spread: odds A: %v", err)}
	}
	oddsB, err := in.OddsB.American()
	if err != nil {
		return StatArbResult{Signal: TagError, Message: fmt.Sprintf("could not compute fair spread: odds B: %v", err)}
	}

	fair, err := e.FairSpread(oddsA, oddsB)
	if err != nil {
		return StatArbResult{Signal: TagError, Message: fmt.Sprintf("could not compute fair spread: %v", err)}
	}

	mispricing := in.PostedSpread - fair
	if math.Abs(mispricing) < in.Threshold {
		return StatArbResult{
			Signal:     TagNoBet,
			FairSpread: roundedPtr(fair),
			Mispricing: roundedPtr(mispricing),
		}
	}

	side := SideUnderdog
	if mispricing < 0 {
		side = SideFavorite
	}

	edge := e.params.clampEdge(math.Abs(mispricing) * e.params.EdgePerPoint)
	winProb := 0.5 + edge
	stake := SizedStake(in.Bankroll, winProb, e.params.ReferenceDecimalOdds, in.KellyMultiplier)

	return StatArbResult{
		Signal:         TagBet,
		Side:           side,
		FairSpread:     roundedPtr(fair),
		Mispricing:     roundedPtr(mispricing),
		EdgeEstimate:   roundedPtr(edge),
		SuggestedStake: stakeAmount(stake),
	}
}
