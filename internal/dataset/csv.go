package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/carprice/internal/model"
)

const utf8BOM = "\ufeff"

// ReadCSV decodes a UTF-8 table whose first row names the raw columns. Every following
// row becomes one record; cells are kept as text.
func ReadCSV(r io.Reader) ([]model.RawRecord, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, preparationErrorf("table has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	seen := make(map[string]bool, len(header))
	for _, col := range header {
		if seen[col] {
			return nil, preparationErrorf("duplicate column %q", col)
		}
		seen[col] = true
	}

	var records []model.RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+1, err)
		}

		rec := make(model.RawRecord, len(header))
		for i, col := range header {
			rec[col] = row[i]
		}
		records = append(records, rec)
	}

	return records, nil
}

// WriteCSV encodes a prepared dataset with its columns as the header row.
func WriteCSV(w io.Writer, ds *model.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	line := make([]string, len(ds.Columns))
	for i, row := range ds.Rows {
		for j, v := range row {
			line[j] = v.String()
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRecords encodes raw records using columns as the header row. Cells missing from
// a record are written empty.
func WriteRecords(w io.Writer, columns []string, records []model.RawRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	line := make([]string, len(columns))
	for i, rec := range records {
		for j, col := range columns {
			line[j] = rec[col]
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// EncodeCSV renders a prepared dataset into memory.
func EncodeCSV(ds *model.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
