package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/carprice/internal/common"
	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/schema"
)

// RequestFields are the JSON keys a pricing request may carry. They are the raw
// listing column names, so a request maps onto one raw record without renaming.
var RequestFields = []string{
	schema.Manufacturer,
	schema.CarModel,
	schema.ProdYear,
	schema.Category,
	schema.Mileage,
	schema.FuelType,
	schema.EngineVolume,
	schema.Cylinders,
	schema.GearBoxType,
	schema.DriveWheels,
	schema.Wheel,
	schema.Color,
	schema.Airbags,
	schema.LeatherInterior,
}

// DecodeCar reads one JSON object into a raw record. Strings are kept verbatim, numbers
// keep their JSON spelling and booleans become "True" or "False". Null and absent
// fields are left out; keys outside RequestFields are ignored.
func DecodeCar(r io.Reader) (model.RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: request body must be a JSON object: %w", common.ErrInvalidValue, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: request body must hold a single JSON object", common.ErrInvalidValue)
	}

	rec := make(model.RawRecord, len(RequestFields))
	for _, field := range RequestFields {
		v, ok := body[field]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			rec[field] = val
		case json.Number:
			rec[field] = val.String()
		case bool:
			rec[field] = model.Bool(val).Text
		default:
			return nil, &dataset.ValueError{
				Name:   field,
				Value:  fmt.Sprint(val),
				Reason: "must be a string, number or boolean",
			}
		}
	}
	return rec, nil
}
