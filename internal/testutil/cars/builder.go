package cars

import (
	"strconv"
	"testing"

	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/schema"
)

// Extra raw columns present in listing exports but not in the schema.
const (
	ColumnID    = "ID"
	ColumnLevy  = "Levy"
	ColumnDoors = "Doors"
)

// Columns returns the raw column order of a listing export.
func Columns() []string {
	return []string{
		ColumnID,
		schema.Price,
		ColumnLevy,
		schema.Manufacturer,
		schema.CarModel,
		schema.ProdYear,
		schema.Category,
		schema.LeatherInterior,
		schema.FuelType,
		schema.EngineVolume,
		schema.Mileage,
		schema.Cylinders,
		schema.GearBoxType,
		schema.DriveWheels,
		ColumnDoors,
		schema.Wheel,
		schema.Color,
		schema.Airbags,
	}
}

// Camry returns the reference inference row: a 2018 Toyota Camry sedan without a price.
func Camry() model.RawRecord {
	return model.RawRecord{
		schema.Manufacturer:    "Toyota",
		schema.CarModel:        "Camry",
		schema.ProdYear:        "2018",
		schema.Category:        "Sedan",
		schema.LeatherInterior: "True",
		schema.FuelType:        "Petrol",
		schema.EngineVolume:    "2.5 Turbo",
		schema.Mileage:         "80000 km",
		schema.Cylinders:       "4",
		schema.GearBoxType:     "Automatic",
		schema.DriveWheels:     "Front",
		schema.Wheel:           "Left wheel",
		schema.Color:           "White",
		schema.Airbags:         "6",
	}
}

// Builder provides a fluent interface for constructing a raw record.
type Builder interface {
	// With sets a raw column to a value.
	With(column, value string) Builder

	// Without removes a raw column.
	Without(column string) Builder

	// WithManufacturer sets the manufacturer and model.
	WithManufacturer(manufacturer, carModel string) Builder

	// WithCategory sets the body category.
	WithCategory(category string) Builder

	// WithEngine sets the raw engine-volume text.
	WithEngine(text string) Builder

	// WithMileage sets the mileage in kilometres, rendered with the unit suffix.
	WithMileage(km int) Builder

	// WithYear sets the production year.
	WithYear(year int) Builder

	// WithPrice sets the target column.
	WithPrice(price int) Builder

	// Build returns a copy of the record.
	Build() model.RawRecord
}

type recordBuilder struct {
	t   *testing.T
	rec model.RawRecord
}

// NewBuilder starts from Camry.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &recordBuilder{t: t, rec: Camry()}
}

func (b *recordBuilder) With(column, value string) Builder {
	b.rec[column] = value
	return b
}

func (b *recordBuilder) Without(column string) Builder {
	delete(b.rec, column)
	return b
}

func (b *recordBuilder) WithManufacturer(manufacturer, carModel string) Builder {
	b.rec[schema.Manufacturer] = manufacturer
	b.rec[schema.CarModel] = carModel
	return b
}

func (b *recordBuilder) WithCategory(category string) Builder {
	return b.With(schema.Category, category)
}

func (b *recordBuilder) WithEngine(text string) Builder {
	return b.With(schema.EngineVolume, text)
}

func (b *recordBuilder) WithMileage(km int) Builder {
	return b.With(schema.Mileage, strconv.Itoa(km)+" km")
}

func (b *recordBuilder) WithYear(year int) Builder {
	return b.With(schema.ProdYear, strconv.Itoa(year))
}

func (b *recordBuilder) WithPrice(price int) Builder {
	return b.With(schema.Price, strconv.Itoa(price))
}

func (b *recordBuilder) Build() model.RawRecord {
	b.t.Helper()
	return b.rec.Clone()
}
