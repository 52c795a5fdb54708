// Package schema holds the validator: the static per-feature type and domain contract
// enforced identically by training and inference preparation.
package schema

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/model"
)

//go:embed validator.yaml
var defaultDocument []byte

// Error reports a feature referenced by code or configuration that the schema does not
// define, or a malformed schema document.
type Error struct {
	Feature string
	Reason  string
}

func (e *Error) Error() string {
	if e.Feature == "" {
		return fmt.Sprintf("schema: %s", e.Reason)
	}
	return fmt.Sprintf("schema: feature %q: %s", e.Feature, e.Reason)
}

func (e *Error) Unwrap() error {
	return common.ErrSchema
}

// Schema is an immutable, ordered set of feature definitions. It is safe for
// concurrent use.
type Schema struct {
	index    map[string]int
	features []model.Feature
}

type entry struct {
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
	Type   string   `yaml:"type"`
	Values []string `yaml:"values"`
}

// Default returns the schema compiled into the binary.
func Default() (*Schema, error) {
	return parse(defaultDocument)
}

// LoadFile reads a schema document from disk.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from trusted configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return parse(data)
}

// Load reads a schema document from r.
func Load(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("invalid document: %v", err)}
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, &Error{Reason: "document must be a mapping of feature name to definition"}
	}

	root := doc.Content[0]
	s := &Schema{index: make(map[string]int, len(root.Content)/2)}

	for i := 0; i+1 < len(root.Content); i += 2 {
		name := root.Content[i].Value
		if _, dup := s.index[name]; dup {
			return nil, &Error{Feature: name, Reason: "defined more than once"}
		}

		var e entry
		if err := root.Content[i+1].Decode(&e); err != nil {
			return nil, &Error{Feature: name, Reason: fmt.Sprintf("invalid definition: %v", err)}
		}

		f, err := e.feature(name)
		if err != nil {
			return nil, err
		}

		s.index[name] = len(s.features)
		s.features = append(s.features, f)
	}

	if len(s.features) == 0 {
		return nil, &Error{Reason: "no features defined"}
	}
	return s, nil
}

func (e entry) feature(name string) (model.Feature, error) {
	kind, err := model.ParseKind(e.Type)
	if err != nil {
		return model.Feature{}, &Error{Feature: name, Reason: err.Error()}
	}

	f := model.Feature{Name: name, Kind: kind}
	switch kind {
	case model.KindCategorical:
		f.Values = append([]string(nil), e.Values...)
	case model.KindNumerical:
		if e.Min != nil && e.Max != nil && *e.Min > *e.Max {
			return model.Feature{}, &Error{Feature: name, Reason: fmt.Sprintf("min %v exceeds max %v", *e.Min, *e.Max)}
		}
		f.Min, f.Max = e.Min, e.Max
	case model.KindLogical:
	}
	return f, nil
}

// Names returns the feature names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.features))
	for i, f := range s.features {
		names[i] = f.Name
	}
	return names
}

// Features returns a copy of every feature definition in schema order.
func (s *Schema) Features() []model.Feature {
	out := make([]model.Feature, len(s.features))
	copy(out, s.features)
	return out
}

// NamesOf returns the names of all features of the given kind, in schema order.
func (s *Schema) NamesOf(kind model.Kind) []string {
	var names []string
	for _, f := range s.features {
		if f.Kind == kind {
			names = append(names, f.Name)
		}
	}
	return names
}

// Has reports whether the feature is defined.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Domain returns the full definition of a feature.
func (s *Schema) Domain(name string) (model.Feature, error) {
	i, ok := s.index[name]
	if !ok {
		return model.Feature{}, &Error{Feature: name, Reason: "not defined in schema"}
	}
	return s.features[i], nil
}

// Kind returns the type of a feature.
func (s *Schema) Kind(name string) (model.Kind, error) {
	f, err := s.Domain(name)
	if err != nil {
		return "", err
	}
	return f.Kind, nil
}

// Require fails with a schema error naming the first feature that is not defined.
func (s *Schema) Require(names ...string) error {
	for _, name := range names {
		if !s.Has(name) {
			return &Error{Feature: name, Reason: "referenced but not defined in schema"}
		}
	}
	return nil
}

// Accepts reports whether a typed value satisfies the feature's domain constraint.
// Numerical values must lie within [min, max], categorical values must be listed, and
// logical values must encode a boolean.
func (s *Schema) Accepts(name string, v model.Value) (bool, error) {
	f, err := s.Domain(name)
	if err != nil {
		return false, err
	}

	switch f.Kind {
	case model.KindNumerical:
		return v.Kind == model.KindNumerical && f.InRange(v.Number), nil
	case model.KindLogical:
		_, perr := model.ParseLogical(v.Text)
		return perr == nil, nil
	default:
		return f.Allows(v.Text), nil
	}
}
