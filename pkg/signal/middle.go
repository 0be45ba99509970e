package signal

import "math"

// MiddleInput holds two books' lines on the same market
type MiddleInput struct {
	LineA       float64  `json:"line_a"`
	LineB       float64  `json:"line_b"`
	Mean        *float64 `json:"mean,omitempty"`    // defaults to the midpoint
	StdDev      *float64 `json:"std_dev,omitempty"` // defaults to Params.DefaultStdDev
	JuiceBuffer float64  `json:"juice_buffer"`      // cost of both legs in probability units
}

// MiddleResult reports whether backing both sides is worth it
type MiddleResult struct {
	Signal        Tag      `json:"signal"`
	Lower         *float64 `json:"lower,omitempty"`
	Upper         *float64 `json:"upper,omitempty"`
	Gap           *float64 `json:"gap,omitempty"`
	Mean          *float64 `json:"mean,omitempty"`
	StdDev        *float64 `json:"std_dev,omitempty"`
	ProbMiddle    *float64 `json:"prob_middle,omitempty"`
	ExpectedValue *float64 `json:"expected_value,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// Middle estimates the probability that the outcome lands between two divergent
// lines under a normal model, net of the juice paid on both legs.
func (e *Engine) Middle(in MiddleInput) MiddleResult {
	if !isFinite(in.LineA, in.LineB, in.JuiceBuffer) {
		return MiddleResult{Signal: TagError, Message: "middle lines and juice buffer must be finite numbers"}
	}

	lower := math.Min(in.LineA, in.LineB)
	upper := math.Max(in.LineA, in.LineB)
	gap := upper - lower

	if gap < e.params.MinMiddleGap {
		return MiddleResult{Signal: TagNoTrade, Gap: roundedPtr(gap)}
	}

	mean := (lower + upper) / 2
	if in.Mean != nil {
		mean = *in.Mean
	}
	sd := e.params.DefaultStdDev
	if in.StdDev != nil {
		sd = *in.StdDev
	}
	if !isFinite(mean, sd) {
		return MiddleResult{Signal: TagError, Message: "mean and standard deviation overrides must be finite numbers"}
	}
	if sd <= 0 {
		sd = StdDevFloor
	}

	probMiddle := NormalCDF((upper-mean)/sd) - NormalCDF((lower-mean)/sd)
	ev := probMiddle - in.JuiceBuffer

	signal := TagAvoidMiddle
	if ev > 0 {
		signal = TagMiddleScalp
	}

	return MiddleResult{
		Signal:        signal,
		Lower:         roundedPtr(lower),
		Upper:         roundedPtr(upper),
		Gap:           roundedPtr(gap),
		Mean:          roundedPtr(mean),
		StdDev:        &sd,
		ProbMiddle:    roundedPtr(probMiddle),
		ExpectedValue: roundedPtr(ev),
	}
}
