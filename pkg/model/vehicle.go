package model

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "Available"
	VehicleBooked      VehicleStatus = "Booked"
	VehicleMaintenance VehicleStatus = "Maintenance"
	VehicleRetired     VehicleStatus = "Retired"
)

type Vehicle struct {
	ID           int64         `json:"car_id" bson:"car_id"`
	Make         string        `json:"car_make" bson:"car_make"`
	Model        string        `json:"car_model" bson:"car_model"`
	Year         int           `json:"year" bson:"year"`
	Category     string        `json:"category,omitempty" bson:"category,omitempty"`
	DailyRate    Decimal       `json:"daily_rate" bson:"daily_rate"`
	LicensePlate string        `json:"license_plate" bson:"license_plate"`
	Status       VehicleStatus `json:"status,omitempty" bson:"status,omitempty"`
	BranchID     int64         `json:"branch_id,omitempty" bson:"branch_id,omitempty"`
	BranchName   string        `json:"branch_name,omitempty" bson:"branch_name,omitempty"`
}

// Serviceable reports whether the car can be put into maintenance.
func (v Vehicle) Serviceable() bool {
	return v.Status != VehicleMaintenance && v.Status != VehicleRetired
}

type Branch struct {
	ID      int64  `json:"branch_id" bson:"branch_id"`
	Name    string `json:"branch_name" bson:"branch_name"`
	Address string `json:"address,omitempty" bson:"address,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
}
