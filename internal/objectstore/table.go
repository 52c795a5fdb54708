package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
)

// Tables adapts a Store to dataset.TableReader so stored CSV tables can feed the
// preparation pipeline directly.
type Tables struct {
	Store Store
}

// ReadTable implements dataset.TableReader.
func (t Tables) ReadTable(ctx context.Context, key string) ([]model.RawRecord, error) {
	return ReadTable(ctx, t.Store, key)
}

// ReadTable downloads a CSV object and decodes it into raw records.
func ReadTable(ctx context.Context, store Store, key string) ([]model.RawRecord, error) {
	body, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	records, err := dataset.ReadCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode table %s: %w", key, err)
	}
	return records, nil
}

// WriteTable encodes a prepared dataset as CSV and stores it under key.
func WriteTable(ctx context.Context, store Store, key string, ds *model.Dataset) error {
	body, err := dataset.EncodeCSV(ds)
	if err != nil {
		return fmt.Errorf("failed to encode table %s: %w", key, err)
	}
	return store.Put(ctx, key, body, ContentTypeCSV)
}

// PutJSON stores v as an indented JSON document.
func PutJSON(ctx context.Context, store Store, key string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return store.Put(ctx, key, body, ContentTypeJSON)
}

// GetJSON decodes the JSON document stored under key into v.
func GetJSON(ctx context.Context, store Store, key string, v any) error {
	body, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}
