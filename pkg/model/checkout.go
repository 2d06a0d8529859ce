package model

import "time"

type Step string

const (
	StepSearch        Step = "search"
	StepSelectVehicle Step = "select_vehicle"
	StepConfigure     Step = "configure"
	StepPay           Step = "pay"
	StepDone          Step = "done"
)

var stepOrder = map[Step]int{
	StepSearch:        1,
	StepSelectVehicle: 2,
	StepConfigure:     3,
	StepPay:           4,
	StepDone:          5,
}

// AtLeast reports whether s is at or beyond other in checkout order.
func (s Step) AtLeast(other Step) bool {
	return stepOrder[s] >= stepOrder[other]
}

func (s Step) Valid() bool {
	_, ok := stepOrder[s]
	return ok
}

type SearchCriteria struct {
	PickupBranchID  int64     `json:"pickup_branch_id" bson:"pickup_branch_id"`
	DropoffBranchID int64     `json:"dropoff_branch_id" bson:"dropoff_branch_id"`
	Start           time.Time `json:"start" bson:"start"`
	End             time.Time `json:"end" bson:"end"`
}

type Quote struct {
	DailyRateWithInsurance Decimal `json:"daily_rate_with_insurance"`
	NumberOfDays           int     `json:"number_of_days"`
	Subtotal               Decimal `json:"subtotal"`
	DiscountedTotal        Decimal `json:"discounted_total"`
}

// CheckoutSession is the persisted state of one checkout attempt.
type CheckoutSession struct {
	ID              string          `json:"id" bson:"id"`
	Step            Step            `json:"step" bson:"step"`
	Criteria        *SearchCriteria `json:"search_criteria,omitempty" bson:"search_criteria,omitempty"`
	Vehicles        []Vehicle       `json:"vehicles" bson:"vehicles"`
	SelectedVehicle *Vehicle        `json:"selected_vehicle,omitempty" bson:"selected_vehicle,omitempty"`
	InsuranceID     int64           `json:"insurance_id,omitempty" bson:"insurance_id,omitempty"`
	PromoCode       string          `json:"promo_code,omitempty" bson:"promo_code,omitempty"`
	BookingID       int64           `json:"created_booking_id,omitempty" bson:"created_booking_id,omitempty"`
	Amount          Decimal         `json:"created_amount,omitempty" bson:"created_amount,omitempty"`
	PaymentID       int64           `json:"payment_id,omitempty" bson:"payment_id,omitempty"`
	Loading         bool            `json:"loading" bson:"loading"`
	LastError       string          `json:"last_error,omitempty" bson:"last_error,omitempty"`
	// Version increases with every change. Stores keep the highest version
	// saved so a slow request cannot overwrite newer state.
	Version int64 `json:"version" bson:"version"`
}

// EditForm holds editable booking fields. Dates use the form layout
// "YYYY-MM-DDTHH:MM".
type EditForm struct {
	StartDatetime     string `json:"start_datetime" bson:"start_datetime" validate:"required"`
	EndDatetime       string `json:"end_datetime" bson:"end_datetime" validate:"required"`
	InsurancePolicyID int64  `json:"insurance_policy_id" bson:"insurance_policy_id" validate:"required,gt=0"`
	PromoCode         string `json:"promo_code" bson:"promo_code" validate:"omitempty,max=30"`
}

// EditSession is the in-progress edit of a single booking.
type EditSession struct {
	BookingID int64    `json:"booking_id" bson:"booking_id"`
	Form      EditForm `json:"form" bson:"form"`
	Saving    bool     `json:"saving" bson:"saving"`
	LastError string   `json:"last_error,omitempty" bson:"last_error,omitempty"`
}

// SearchRequest is the search form as submitted by the browser. Dates use the
// form layout and are read as UTC.
type SearchRequest struct {
	PickupBranchID  int64  `json:"pickup_branch_id" validate:"required,gt=0"`
	DropoffBranchID int64  `json:"dropoff_branch_id" validate:"required,gt=0"`
	StartDatetime   string `json:"start_datetime" validate:"required"`
	EndDatetime     string `json:"end_datetime" validate:"required"`
}

type ConfigureRequest struct {
	InsurancePolicyID int64  `json:"insurance_policy_id" validate:"required,gt=0"`
	PromoCode         string `json:"promo_code" validate:"omitempty,max=30"`
}
