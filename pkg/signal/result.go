package signal

import (
	"math"

	"github.com/shopspring/decimal"
)

// Tag classifies the outcome of a model evaluation
type Tag string

const (
	TagNoBet       Tag = "NO_BET"
	TagNoTrade     Tag = "NO_TRADE"
	TagBet         Tag = "BET"
	TagBetOver     Tag = "BET_OVER"
	TagBetUnder    Tag = "BET_UNDER"
	TagMiddleScalp Tag = "MIDDLE_SCALP"
	TagAvoidMiddle Tag = "AVOID_MIDDLE"
	TagError       Tag = "ERROR"
)

// Kind groups tags into actionable, no-signal and error outcomes
type Kind int

const (
	KindNoSignal Kind = iota
	KindActionable
	KindError
)

// String returns the kind name used in logs and metrics
func (k Kind) String() string {
	switch k {
	case KindActionable:
		return "actionable"
	case KindError:
		return "error"
	default:
		return "no_signal"
	}
}

// Kind returns the group a tag belongs to
func (t Tag) Kind() Kind {
	switch t {
	case TagBet, TagBetOver, TagBetUnder, TagMiddleScalp:
		return KindActionable
	case TagError:
		return KindError
	default:
		return KindNoSignal
	}
}

// Side is the leg a spread signal favours
type Side string

const (
	SideFavorite Side = "FAVORITE"
	SideUnderdog Side = "UNDERDOG"
)

// Probabilities and edges are reported to 4 places, stakes to cents.
const (
	probabilityPlaces = 4
	stakePlaces       = 2
)

func isFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// round4 rounds a diagnostic value for reporting. Non-finite values pass through.
func round4(v float64) float64 {
	if !isFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(probabilityPlaces).InexactFloat64()
}

// roundedPtr returns a pointer to v rounded to 4 places
func roundedPtr(v float64) *float64 {
	r := round4(v)
	return &r
}

// stakeAmount converts a stake to a cent-rounded decimal
func stakeAmount(v float64) *decimal.Decimal {
	if !isFinite(v) || v < 0 {
		v = 0
	}
	d := decimal.NewFromFloat(v).Round(stakePlaces)
	return &d
}
