package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidOdds is returned when a quote cannot be used as American odds
var ErrInvalidOdds = errors.New("invalid American odds")

// AmericanOdds is a signed moneyline price, e.g. -150 or +130
type AmericanOdds int

// Quote is an American odds quote as entered by a user, e.g. "+130".
// It decodes from either a JSON string or a JSON number.
type Quote string

// UnmarshalJSON accepts "-110", "+130" or a bare number
func (q *Quote) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = Quote(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quote must be a string or number: %w", err)
	}
	*q = Quote(n.String())
	return nil
}

// American parses the quote
func (q Quote) American() (AmericanOdds, error) {
	return ParseAmerican(string(q))
}

// ParseAmerican parses a quote such as "+130" or "-150".
// Zero and non-integer input are rejected with ErrInvalidOdds.
func ParseAmerican(s string) (AmericanOdds, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "+")

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidOdds, s)
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: odds cannot be 0", ErrInvalidOdds)
	}

	return AmericanOdds(n), nil
}

// ToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func ToDecimal(odds AmericanOdds) (float64, error) {
	if odds == 0 {
		return 0, fmt.Errorf("%w: odds cannot be 0", ErrInvalidOdds)
	}

	o := float64(odds)
	if o > 0 {
		return 1.0 + o/100.0, nil
	}
	return 1.0 + 100.0/(-o), nil
}

// ToImpliedProbability converts American odds to the win probability they imply,
// vig included.
// American +100 → 0.50
// American -110 → 0.5238
func ToImpliedProbability(odds AmericanOdds) (float64, error) {
	if odds == 0 {
		return 0, fmt.Errorf("%w: odds cannot be 0", ErrInvalidOdds)
	}

	o := float64(odds)
	if o > 0 {
		return 100.0 / (o + 100.0), nil
	}
	return -o / (-o + 100.0), nil
}

// ToAmerican converts decimal odds back to the nearest American price
// Decimal 2.50 → American +150
// Decimal 1.50 → American -200
func ToAmerican(decimalOdds float64) (AmericanOdds, error) {
	if !isFinite(decimalOdds) || decimalOdds <= 1.0 {
		return 0, fmt.Errorf("%w: decimal odds %v must be greater than 1", ErrInvalidOdds, decimalOdds)
	}

	if decimalOdds >= 2.0 {
		return AmericanOdds(math.Round((decimalOdds - 1.0) * 100.0)), nil
	}
	return AmericanOdds(math.Round(-100.0 / (decimalOdds - 1.0))), nil
}

// decimalOrDefault converts a quote, falling back when it is unusable
func decimalOrDefault(q Quote, fallback float64) float64 {
	odds, err := q.American()
	if err != nil {
		return fallback
	}
	d, err := ToDecimal(odds)
	if err != nil {
		return fallback
	}
	return d
}
