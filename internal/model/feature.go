package model

import (
	"fmt"
	"strings"
)

// Kind is the type a feature is coerced to by the preparation pipeline.
type Kind string

const (
	// KindCategorical features hold one of a fixed set of strings.
	KindCategorical Kind = "categorical"
	// KindNumerical features hold a float64 bounded by an optional min/max.
	KindNumerical Kind = "numerical"
	// KindLogical features hold a string-encoded boolean ("True" or "False").
	KindLogical Kind = "logical"
)

// ParseKind converts a schema document type name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCategorical, KindNumerical, KindLogical:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown feature type %q", s)
	}
}

// Feature is one entry of the validator schema.
type Feature struct {
	Min    *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Name   string   `json:"-" yaml:"-"`
	Kind   Kind     `json:"type" yaml:"type"`
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
}

// Allows reports whether a categorical value belongs to the feature's domain.
// A categorical feature without listed values accepts any string.
func (f Feature) Allows(value string) bool {
	if len(f.Values) == 0 {
		return true
	}
	for _, v := range f.Values {
		if v == value {
			return true
		}
	}
	return false
}

// InRange reports whether a numerical value lies within [Min, Max], both inclusive.
func (f Feature) InRange(value float64) bool {
	if f.Min != nil && value < *f.Min {
		return false
	}
	if f.Max != nil && value > *f.Max {
		return false
	}
	return true
}

// ParseLogical decodes a raw boolean. It accepts true/false, yes/no and 1/0 in any case.
func ParseLogical(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("cannot interpret %q as a boolean", s)
	}
}
