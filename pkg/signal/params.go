package signal

// Calibration constants used by the models. They are empirical placeholders
// rather than fitted values and can be overridden through Params.
const (
	DefaultSpreadScale          = 0.23 // log-probability ratio to spread points
	DefaultEdgePerPoint         = 0.02 // assumed edge per point of spread mispricing
	DefaultVolatilityEdgeScale  = 0.05 // assumed edge per unit of pace z-score
	DefaultMiddleStdDev         = 7.0  // sport-agnostic outcome standard deviation
	DefaultMinMiddleGap         = 0.5  // smallest line gap worth trading
	DefaultReferenceDecimalOdds = 1.91 // American -110
	DefaultMinEdge              = 0.01
	DefaultMaxEdge              = 0.45
	DefaultZScoreThreshold      = 1.0
	DefaultDivergenceThreshold  = 1.0
)

// Fallbacks for degenerate inputs. These are policy, not calibration.
// Multipliers applied when a payload leaves kelly_multiplier out
const (
	DefaultKellyMultiplier = 1.0 // standalone sizing stakes full Kelly
	DefaultFractionalKelly = 0.5 // model signals stake half Kelly
)

const (
	MinTimeRemaining = 1.0  // minutes
	StdDevFloor      = 1e-9 // replaces a non-positive standard deviation override
)

// Params holds the heuristic constants the models are calibrated with
type Params struct {
	SpreadScale          float64 // Divides -ln(P_A/P_B) to get a fair spread
	EdgePerPoint         float64 // Stat-arb edge per point of mispricing
	VolatilityEdgeScale  float64 // Volatility edge per unit z
	DefaultStdDev        float64 // Middle model standard deviation when no override is given
	MinMiddleGap         float64 // Minimum gap between two lines for a middle
	ReferenceDecimalOdds float64 // Payout assumed when the true line is unknown
	MinEdge              float64 // Lower clamp for estimated edges
	MaxEdge              float64 // Upper clamp for estimated edges
	ZScoreThreshold      float64 // Mean reversion label threshold (standard deviations)
	DivergenceThreshold  float64 // Dual-model divergence threshold (points)
}

// DefaultParams returns the stock calibration
func DefaultParams() Params {
	return Params{
		SpreadScale:          DefaultSpreadScale,
		EdgePerPoint:         DefaultEdgePerPoint,
		VolatilityEdgeScale:  DefaultVolatilityEdgeScale,
		DefaultStdDev:        DefaultMiddleStdDev,
		MinMiddleGap:         DefaultMinMiddleGap,
		ReferenceDecimalOdds: DefaultReferenceDecimalOdds,
		MinEdge:              DefaultMinEdge,
		MaxEdge:              DefaultMaxEdge,
		ZScoreThreshold:      DefaultZScoreThreshold,
		DivergenceThreshold:  DefaultDivergenceThreshold,
	}
}

// clampEdge bounds an estimated edge to [MinEdge, MaxEdge]
func (p Params) clampEdge(edge float64) float64 {
	if edge < p.MinEdge {
		return p.MinEdge
	}
	if edge > p.MaxEdge {
		return p.MaxEdge
	}
	return edge
}
