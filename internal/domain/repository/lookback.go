package repository

// Lookback is the history window requested from the market-data provider.
type Lookback string

const (
	LB1mo Lookback = "1mo"
	LB3mo Lookback = "3mo"
	LB6mo Lookback = "6mo"
	LB1y  Lookback = "1y"
)

// IsValidLookback returns true if lb is a supported window.
func IsValidLookback(lb Lookback) bool {
	switch lb {
	case LB1mo, LB3mo, LB6mo, LB1y:
		return true
	default:
		return false
	}
}

// DefaultLookback returns the default window.
func DefaultLookback() Lookback { return LB1mo }

// NormalizeLookback converts raw string to a valid window (or default).
func NormalizeLookback(s string) Lookback {
	if s == "" {
		return DefaultLookback()
	}
	lb := Lookback(s)
	if IsValidLookback(lb) {
		return lb
	}
	return DefaultLookback()
}

// Lookbacks lists the supported windows from shortest to longest.
func Lookbacks() []Lookback { return []Lookback{LB1mo, LB3mo, LB6mo, LB1y} }
