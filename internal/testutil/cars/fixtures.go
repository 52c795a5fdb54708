package cars

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/model"
	"github.com/Veraticus/carprice/internal/schema"
)

// MinFleet is the smallest fleet in which every profile survives the default
// frequency thresholds.
const MinFleet = 36

// Profile is one make/model a fleet cycles through.
type Profile struct {
	Manufacturer string
	Model        string
	Category     string
	FuelType     string
	Engine       string
	DriveWheels  string
	BasePrice    int
	Cylinders    int
	Airbags      int
}

// Profiles returns the fleet profiles in cycle order.
func Profiles() []Profile {
	return []Profile{
		{Manufacturer: "Toyota", Model: "Camry", Category: "Sedan", FuelType: "Petrol", Engine: "2.5", DriveWheels: "Front", BasePrice: 12000, Cylinders: 4, Airbags: 8},
		{Manufacturer: "Hyundai", Model: "Elantra", Category: "Sedan", FuelType: "Hybrid", Engine: "1.6", DriveWheels: "Front", BasePrice: 9000, Cylinders: 4, Airbags: 6},
		{Manufacturer: "Ford", Model: "Escape", Category: "Jeep", FuelType: "Petrol", Engine: "2.0 Turbo", DriveWheels: "4x4", BasePrice: 15000, Cylinders: 4, Airbags: 10},
	}
}

var colors = []string{"White", "Black", "Silver", "Grey"}

// PriceOf is the price formula fleets are generated with.
func PriceOf(p Profile, year, km int) int {
	return p.BasePrice + (year-2010)*800 - (km-50000)/100
}

// Fleet returns n deterministic listings with prices.
func Fleet(n int) []model.RawRecord {
	profiles := Profiles()
	out := make([]model.RawRecord, n)
	for i := 0; i < n; i++ {
		p := profiles[i%len(profiles)]
		step := i / len(profiles)
		year := 2010 + step%10
		km := 50000 + (step%20)*5000

		leather := "No"
		if i%2 == 0 {
			leather = "Yes"
		}
		levy := "-"
		if i%3 == 0 {
			levy = strconv.Itoa(600 + i)
		}

		out[i] = model.RawRecord{
			ColumnID:               strconv.Itoa(45000000 + i),
			schema.Price:           strconv.Itoa(PriceOf(p, year, km)),
			ColumnLevy:             levy,
			schema.Manufacturer:    p.Manufacturer,
			schema.CarModel:        p.Model,
			schema.ProdYear:        strconv.Itoa(year),
			schema.Category:        p.Category,
			schema.LeatherInterior: leather,
			schema.FuelType:        p.FuelType,
			schema.EngineVolume:    p.Engine,
			schema.Mileage:         strconv.Itoa(km) + " km",
			schema.Cylinders:       strconv.Itoa(p.Cylinders) + ".0",
			schema.GearBoxType:     "Automatic",
			schema.DriveWheels:     p.DriveWheels,
			ColumnDoors:            "04-May",
			schema.Wheel:           "Left wheel",
			schema.Color:           colors[i%len(colors)],
			schema.Airbags:         strconv.Itoa(p.Airbags),
		}
	}
	return out
}

// CSV encodes records in listing-export column order.
func CSV(t *testing.T, records []model.RawRecord) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := dataset.WriteRecords(&buf, Columns(), records); err != nil {
		t.Fatalf("failed to encode records: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes records as CSV to dir/name, creating parent directories, and returns
// the path.
func WriteFile(t *testing.T, dir, name string, records []model.RawRecord) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, CSV(t, records), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
