// Package cars provides test fixtures for raw car listings. It offers a fluent builder
// for single records and deterministic fleets that survive outlier elimination.
//
// # Basic Usage
//
// A single inference row, optionally tweaked:
//
//	rec := cars.NewBuilder(t).
//		WithCategory("Spaceship").
//		Build()
//
// A training batch written to a CSV file:
//
//	path := cars.WriteFile(t, dir, "cars.csv", cars.Fleet(60))
//
// # Fleets
//
// Fleet cycles through a small set of profiles (see Profiles). Prices follow a simple
// formula over production year and mileage so regression tests can assert a useful fit.
// A fleet of at least MinFleet rows keeps every profile above the default frequency
// thresholds.
package cars
