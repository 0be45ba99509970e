package signal

// Label is the verdict of the mean reversion model
type Label string

const (
	LabelBetOpportunity Label = "BET_OPPORTUNITY" // odds generous versus fair value
	LabelAvoidHedge     Label = "AVOID_HEDGE"     // odds too low, expected to revert upward
	LabelEfficient      Label = "EFFICIENT"
	LabelError          Label = "ERROR"
)

// MeanReversionInput holds the current price and its historical distribution
type MeanReversionInput struct {
	CurrentOdds    float64 `json:"current_odds"`
	HistoricalMean float64 `json:"historical_mean"`
	Volatility     float64 `json:"volatility"`
}

// MeanReversionResult reports the fair value and how far the price sits from it
type MeanReversionResult struct {
	Label     Label    `json:"label"`
	FairValue *float64 `json:"fair_value,omitempty"`
	ZScore    *float64 `json:"z_score,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// MeanReversion scores the current odds against their historical mean.
// Zero (or negative) volatility gives a z-score of 0 instead of dividing by zero.
func (e *Engine) MeanReversion(in MeanReversionInput) MeanReversionResult {
	if !isFinite(in.CurrentOdds, in.HistoricalMean, in.Volatility) {
		return MeanReversionResult{Label: LabelError, Message: "mean reversion inputs must be finite numbers"}
	}

	z := 0.0
	if in.Volatility > 0 {
		z = (in.CurrentOdds - in.HistoricalMean) / in.Volatility
	}

	label := LabelEfficient
	switch {
	case z > e.params.ZScoreThreshold:
		label = LabelBetOpportunity
	case z < -e.params.ZScoreThreshold:
		label = LabelAvoidHedge
	}

	return MeanReversionResult{
		Label:     label,
		FairValue: roundedPtr(in.HistoricalMean),
		ZScore:    roundedPtr(z),
	}
}
