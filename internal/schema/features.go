package schema

// Raw column names referenced by the preparation pipeline and the HTTP layer.
const (
	Manufacturer    = "Manufacturer"
	CarModel        = "Model"
	ProdYear        = "Prod. year"
	Category        = "Category"
	LeatherInterior = "Leather interior"
	FuelType        = "Fuel type"
	EngineVolume    = "Engine volume"
	Mileage         = "Mileage"
	Cylinders       = "Cylinders"
	GearBoxType     = "Gear box type"
	DriveWheels     = "Drive wheels"
	Wheel           = "Wheel"
	Color           = "Color"
	Airbags         = "Airbags"
	IsTurbo         = "isTurbo"
	Price           = "Price"
)

// Target is the feature the pricing model predicts.
const Target = Price
