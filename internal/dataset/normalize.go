package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/schema"
)

const (
	mileageUnit    = " km"
	turboModifier  = " Turbo"
	turboMarker    = "Turbo"
	turboYes       = "Yes"
	turboNo        = "No"
	invalidNumeric = "invalid numeric format"
)

// deriveTurbo reports whether an engine-volume text carries the turbo marker.
func deriveTurbo(engine string) bool {
	return strings.Contains(engine, turboMarker)
}

// parseMileage strips the unit suffix and parses an integer distance. Integral floats
// ("80000.0") are accepted so prepared tables can be read back.
func parseMileage(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), mileageUnit))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return float64(n), nil
	}

	v, err := parseDecimal(s)
	if err != nil || v != math.Trunc(v) {
		return 0, common.ErrCoercion
	}
	return v, nil
}

// parseEngineVolume strips a trailing turbo modifier and parses the displacement in
// litres.
func parseEngineVolume(s string) (float64, error) {
	return parseDecimal(strings.TrimSuffix(strings.TrimSpace(s), turboModifier))
}

func parseNumber(s string) (float64, error) {
	return parseDecimal(s)
}

// parseDecimal accepts plain decimal notation only. Hex floats, digit separators and
// Inf/NaN spellings that strconv would take are rejected.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.IndexFunc(s, notDecimal) >= 0 {
		return 0, common.ErrCoercion
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return 0, common.ErrCoercion
	}
	return v, nil
}

func notDecimal(r rune) bool {
	return !strings.ContainsRune("0123456789.+-eE", r)
}

func numericParser(feature string) func(string) (float64, error) {
	switch feature {
	case schema.Mileage:
		return parseMileage
	case schema.EngineVolume:
		return parseEngineVolume
	default:
		return parseNumber
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
