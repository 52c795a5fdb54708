// Package dataset turns raw car listings into schema-conformant, typed datasets.
//
// One Pipeline serves both training and inference. The mode only decides whether
// outlier rows are eliminated (training) or the single row is validated against the
// schema domain (inference); derivation, normalization, selection and coercion are shared.
package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/outlier"
	"github.com/Veraticus/carprice/internal/schema"
)

// Pipeline prepares raw records according to a schema. It holds no per-call state and
// is safe for concurrent use.
type Pipeline struct {
	schema *schema.Schema
	logger *slog.Logger
	target string
	rules  []Rule
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTarget sets the column the model predicts. Defaults to schema.Target.
func WithTarget(name string) Option {
	return func(p *Pipeline) {
		p.target = name
	}
}

// WithRules replaces the outlier elimination table.
func WithRules(rules ...Rule) Option {
	return func(p *Pipeline) {
		p.rules = append([]Rule(nil), rules...)
	}
}

// WithLogger sets the logger used for step diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline builds a pipeline and checks that every feature it references is defined
// in the schema.
func NewPipeline(s *schema.Schema, opts ...Option) (*Pipeline, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: schema is required", common.ErrInvalidConfig)
	}

	p := &Pipeline{
		schema: s,
		target: schema.Target,
		rules:  DefaultRules(),
	}
	for _, opt := range opts {
		opt(p)
	}

	referenced := []string{p.target, schema.EngineVolume, schema.Mileage, schema.IsTurbo}
	for _, r := range p.rules {
		referenced = append(referenced, r.Feature)
	}
	if err := s.Require(referenced...); err != nil {
		return nil, err
	}

	for _, r := range p.rules {
		kind, _ := s.Kind(r.Feature)
		if kind == model.KindLogical {
			return nil, &schema.Error{Feature: r.Feature, Reason: "outlier rules apply to categorical or numerical features only"}
		}
	}

	return p, nil
}

// Schema returns the schema the pipeline enforces.
func (p *Pipeline) Schema() *schema.Schema {
	return p.schema
}

// Target returns the target column name.
func (p *Pipeline) Target() string {
	return p.target
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// Prepare runs the full preparation over rows.
//
// Steps run in a fixed order: derive isTurbo, normalize raw text encodings, then either
// eliminate outliers (training) or validate the single row (inference), select the
// schema features and coerce types. The first violation aborts the call.
func (p *Pipeline) Prepare(rows []model.RawRecord, mode model.Mode) (*model.Dataset, error) {
	switch mode {
	case model.ModeTraining, model.ModeInference:
	default:
		return nil, preparationErrorf("unknown mode %q", mode)
	}
	if len(rows) == 0 {
		return nil, preparationErrorf("no rows to prepare")
	}
	if mode == model.ModeInference && len(rows) != 1 {
		return nil, preparationErrorf("inference requires exactly one row, got %d", len(rows))
	}

	f := newFrame(rows)

	if err := p.deriveFeatures(f); err != nil {
		return nil, err
	}
	if err := p.normalize(f, mode); err != nil {
		return nil, err
	}

	if mode == model.ModeTraining {
		if err := p.eliminateOutliers(f); err != nil {
			return nil, err
		}
	} else {
		if err := p.validate(f); err != nil {
			return nil, err
		}
	}

	columns, err := p.selectFeatures(f, mode)
	if err != nil {
		return nil, err
	}

	ds, err := p.coerce(f, mode, columns)
	if err != nil {
		return nil, err
	}

	p.log().Info("Prepared dataset",
		"mode", mode,
		"rows_in", len(rows),
		"rows_out", ds.Len(),
		"columns", len(ds.Columns))

	return ds, nil
}

// Restore rebuilds a typed training dataset from a table that was already prepared, for
// example one read back from storage. It skips outlier elimination so the rows are kept
// exactly as they were written.
func (p *Pipeline) Restore(rows []model.RawRecord) (*model.Dataset, error) {
	if len(rows) == 0 {
		return nil, preparationErrorf("no rows to restore")
	}

	f := newFrame(rows)
	if err := p.deriveFeatures(f); err != nil {
		return nil, err
	}
	if err := p.normalize(f, model.ModeTraining); err != nil {
		return nil, err
	}
	columns, err := p.selectFeatures(f, model.ModeTraining)
	if err != nil {
		return nil, err
	}
	return p.coerce(f, model.ModeTraining, columns)
}

// deriveFeatures computes isTurbo from the raw engine-volume text. A value already
// present in the input is kept when the text carries no marker, so re-preparing a
// prepared table is stable.
func (p *Pipeline) deriveFeatures(f *frame) error {
	engine, ok := f.text[schema.EngineVolume]
	if !ok {
		return preparationErrorf("missing column %q", schema.EngineVolume)
	}

	existing := f.text[schema.IsTurbo]
	derived := make([]string, f.n)
	for i, text := range engine {
		switch {
		case deriveTurbo(text):
			derived[i] = turboYes
		case existing != nil && existing[i] != "":
			derived[i] = existing[i]
		default:
			derived[i] = turboNo
		}
	}
	f.text[schema.IsTurbo] = derived
	return nil
}

// normalize parses every numerical column present in the input. Mileage drops its unit
// suffix and must be integral; engine volume drops its turbo modifier. The target is
// not read in inference mode.
func (p *Pipeline) normalize(f *frame, mode model.Mode) error {
	for _, name := range p.schema.NamesOf(model.KindNumerical) {
		if mode == model.ModeInference && name == p.target {
			continue
		}
		raw, ok := f.text[name]
		if !ok {
			continue
		}

		parse := numericParser(name)
		nums := make([]float64, f.n)
		for i, s := range raw {
			v, err := parse(s)
			if err != nil {
				return &ValueError{Name: name, Value: s, Reason: invalidNumeric, Err: err}
			}
			nums[i] = v
		}
		f.nums[name] = nums
	}
	return nil
}

// eliminateOutliers applies each rule in order, dropping the flagged rows before the
// next rule is evaluated.
func (p *Pipeline) eliminateOutliers(f *frame) error {
	for _, rule := range p.rules {
		feature, err := p.schema.Domain(rule.Feature)
		if err != nil {
			return err
		}

		before := f.n
		var res outlier.Result
		switch feature.Kind {
		case model.KindNumerical:
			values, ok := f.nums[rule.Feature]
			if !ok {
				return preparationErrorf("missing column %q", rule.Feature)
			}
			lo, hi := math.Inf(-1), math.Inf(1)
			if feature.Min != nil {
				lo = *feature.Min
			}
			if feature.Max != nil {
				hi = *feature.Max
			}
			res = outlier.Numeric(values, rule.IQRMultiplier, lo, hi)
			p.log().Info("Outlier bounds",
				"feature", rule.Feature,
				"lower", res.Lower,
				"upper", res.Upper)
		default:
			values, ok := f.text[rule.Feature]
			if !ok {
				return preparationErrorf("missing column %q", rule.Feature)
			}
			res = outlier.Categorical(values, rule.MinFrequency)
		}

		f.drop(res.Indices)

		p.log().Info("Outliers removed",
			"feature", rule.Feature,
			"count", res.Count(),
			"percent", fmt.Sprintf("%.2f", res.Percent()),
			"before", before,
			"after", f.n)
	}

	if f.n == 0 {
		return preparationErrorf("no rows left after outlier elimination")
	}
	return nil
}

// validate checks the single inference row against every schema feature except the
// target and stops at the first violation.
func (p *Pipeline) validate(f *frame) error {
	for _, feature := range p.schema.Features() {
		if feature.Name == p.target {
			continue
		}

		raw, present := f.text[feature.Name]
		if !present || (feature.Kind != model.KindCategorical && raw[0] == "") {
			return &ValueError{Name: feature.Name, Reason: "missing value"}
		}

		v := model.Str(raw[0])
		if feature.Kind == model.KindNumerical {
			v = model.Num(f.nums[feature.Name][0])
		}

		ok, err := p.schema.Accepts(feature.Name, v)
		if err != nil {
			return err
		}
		if !ok {
			return &ValueError{Name: feature.Name, Value: raw[0], Reason: "outside the allowed domain"}
		}
	}
	return nil
}

// selectFeatures returns the output columns in schema order. The target is dropped in
// inference mode; every other schema feature must be present.
func (p *Pipeline) selectFeatures(f *frame, mode model.Mode) ([]string, error) {
	names := p.schema.Names()
	columns := make([]string, 0, len(names))
	for _, name := range names {
		if mode == model.ModeInference && name == p.target {
			continue
		}
		if !f.has(name) {
			return nil, preparationErrorf("missing column %q", name)
		}
		columns = append(columns, name)
	}

	if dropped := len(f.text) - len(columns); dropped > 0 {
		p.log().Debug("Dropped columns outside the schema",
			"count", dropped,
			"input_columns", f.columns())
	}
	return columns, nil
}

// coerce builds the typed dataset: numerical features as float64, categorical features
// as strings and logical features as "True"/"False".
func (p *Pipeline) coerce(f *frame, mode model.Mode, columns []string) (*model.Dataset, error) {
	kinds := make([]model.Kind, len(columns))
	for j, name := range columns {
		kind, err := p.schema.Kind(name)
		if err != nil {
			return nil, err
		}
		kinds[j] = kind
	}

	ds := model.NewDataset(mode, p.target, columns, kinds)
	ds.Rows = make([][]model.Value, f.n)

	for i := 0; i < f.n; i++ {
		row := make([]model.Value, len(columns))
		for j, name := range columns {
			v, err := coerceCell(f, name, kinds[j], i)
			if err != nil {
				return nil, err
			}
			row[j] = v
		}
		ds.Rows[i] = row
	}
	return ds, nil
}

func coerceCell(f *frame, name string, kind model.Kind, i int) (model.Value, error) {
	switch kind {
	case model.KindNumerical:
		nums, ok := f.nums[name]
		if !ok {
			return model.Value{}, &ValueError{Name: name, Value: f.text[name][i], Reason: "cannot convert to float", Err: common.ErrCoercion}
		}
		return model.Num(nums[i]), nil
	case model.KindLogical:
		b, err := model.ParseLogical(f.text[name][i])
		if err != nil {
			return model.Value{}, &ValueError{
				Name:   name,
				Value:  f.text[name][i],
				Reason: "cannot convert to boolean",
				Err:    errors.Join(common.ErrCoercion, err),
			}
		}
		return model.Bool(b), nil
	default:
		return model.Str(f.text[name][i]), nil
	}
}
