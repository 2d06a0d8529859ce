package model

// MaintenanceLog is the rental API payload that moves a car into maintenance.
type MaintenanceLog struct {
	CarID       int64   `json:"car_id"`
	EmployeeID  int64   `json:"emp_id"`
	DateIn      string  `json:"date_in"`
	DateOut     *string `json:"date_out"`
	Description string  `json:"description"`
	Cost        Decimal `json:"cost"`
}
