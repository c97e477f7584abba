package models

import (
	"fmt"
	"strings"
)

// CurrencyMode says whether prices are shown as quoted or converted.
type CurrencyMode int

const (
	Native CurrencyMode = iota
	Converted
)

func (m CurrencyMode) String() string {
	switch m {
	case Native:
		return "NATIVE"
	case Converted:
		return "CONVERTED"
	default:
		return fmt.Sprintf("CurrencyMode(%d)", int(m))
	}
}

func (m CurrencyMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *CurrencyMode) UnmarshalText(b []byte) error {
	switch strings.ToUpper(string(b)) {
	case "NATIVE":
		*m = Native
	case "CONVERTED":
		*m = Converted
	default:
		return fmt.Errorf("unknown currency mode %q", string(b))
	}
	return nil
}

// ModeFor returns Converted when the display currency differs from the
// currency the market data is quoted in.
func ModeFor(base, display string) CurrencyMode {
	if strings.EqualFold(base, display) {
		return Native
	}
	return Converted
}
