package dataset

import (
	"context"
	"fmt"
	"os"

	"github.com/Veraticus/carprice/internal/model"
)

// TableReader loads a raw table from a location such as a local path or an object key.
type TableReader interface {
	ReadTable(ctx context.Context, path string) ([]model.RawRecord, error)
}

// Source supplies the raw rows of an Input. It is resolved exactly once.
type Source interface {
	rows(ctx context.Context) ([]model.RawRecord, error)
	describe() string
}

type recordSource struct {
	records []model.RawRecord
}

func (s recordSource) rows(context.Context) ([]model.RawRecord, error) {
	return s.records, nil
}

func (s recordSource) describe() string {
	return fmt.Sprintf("%d in-memory records", len(s.records))
}

type pathSource struct {
	reader TableReader
	path   string
}

func (s pathSource) rows(ctx context.Context) ([]model.RawRecord, error) {
	if s.reader == nil {
		return nil, preparationErrorf("no reader for %q", s.path)
	}
	return s.reader.ReadTable(ctx, s.path)
}

func (s pathSource) describe() string {
	return s.path
}

// Records binds rows already held in memory.
func Records(rows ...model.RawRecord) Source {
	return recordSource{records: rows}
}

// Path binds a table that reader loads from path.
func Path(path string, reader TableReader) Source {
	return pathSource{path: path, reader: reader}
}

// Input is a raw table bound to a preparation mode.
type Input struct {
	Mode   model.Mode
	Origin string
	Rows   []model.RawRecord
}

// NewInput resolves source and binds the rows to mode.
func NewInput(ctx context.Context, mode model.Mode, source Source) (*Input, error) {
	if source == nil {
		return nil, preparationErrorf("no input source")
	}

	rows, err := source.rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load input from %s: %w", source.describe(), err)
	}

	return &Input{
		Mode:   mode,
		Origin: source.describe(),
		Rows:   rows,
	}, nil
}

// Run prepares a bound input in its own mode.
func (p *Pipeline) Run(in *Input) (*model.Dataset, error) {
	if in == nil {
		return nil, preparationErrorf("no input")
	}
	p.log().Debug("Preparing input", "origin", in.Origin, "mode", in.Mode, "rows", len(in.Rows))
	return p.Prepare(in.Rows, in.Mode)
}

// FileReader reads CSV tables from the local filesystem.
type FileReader struct{}

// ReadTable implements TableReader.
func (FileReader) ReadTable(_ context.Context, path string) ([]model.RawRecord, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(f)
}
