package model

import (
	"rentawheel/pkg/wiretime"
)

type BookingStatus string

const (
	BookingBooked    BookingStatus = "Booked"
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
	BookingCompleted BookingStatus = "Completed"
)

const PaymentModeCard = "card"

type Booking struct {
	ID                int64              `json:"booking_id"`
	CustomerID        int64              `json:"cust_id"`
	CarID             int64              `json:"car_id,omitempty"`
	CarMake           string             `json:"car_make"`
	CarModel          string             `json:"car_model"`
	Year              int                `json:"year,omitempty"`
	PickupBranchID    int64              `json:"pickup_branch_id,omitempty"`
	DropoffBranchID   int64              `json:"dropoff_branch_id,omitempty"`
	Start             wiretime.Timestamp `json:"start_datetime"`
	End               wiretime.Timestamp `json:"end_datetime"`
	InsurancePolicyID int64              `json:"insurance_policy_id,omitempty"`
	PromoCode         string             `json:"promo_code,omitempty"`
	TotalAmount       Decimal            `json:"total_amount"`
	Status            BookingStatus      `json:"status"`
	CanReview         int                `json:"can_review,omitempty"`
	CreatedAt         wiretime.Timestamp `json:"created_at"`
}

// Modifiable reports whether the booking may still be edited or cancelled.
func (b Booking) Modifiable() bool {
	return b.Status == BookingBooked || b.Status == BookingConfirmed
}

func (b Booking) Reviewable() bool {
	return b.CanReview == 1
}

// CreateBookingRequest is the rental API payload for a new booking.
// Timestamps are already in wire format.
type CreateBookingRequest struct {
	CustomerID        int64   `json:"cust_id"`
	CarID             int64   `json:"car_id"`
	CarMake           string  `json:"car_make"`
	CarModel          string  `json:"car_model"`
	Year              int     `json:"year"`
	PickupBranchID    int64   `json:"pickup_branch_id"`
	DropoffBranchID   int64   `json:"dropoff_branch_id"`
	StartDatetime     string  `json:"start_datetime"`
	EndDatetime       string  `json:"end_datetime"`
	InsurancePolicyID int64   `json:"insurance_policy_id"`
	PromoCode         *string `json:"promo_code"`
}

type UpdateBookingRequest struct {
	StartDatetime     string  `json:"start_datetime"`
	EndDatetime       string  `json:"end_datetime"`
	InsurancePolicyID int64   `json:"insurance_policy_id"`
	PromoCode         *string `json:"promo_code"`
}

type PaymentRequest struct {
	BookingID   int64   `json:"booking_id"`
	Amount      Decimal `json:"amount"`
	PaymentMode string  `json:"payment_mode"`
}

// OptionalCode returns nil for an empty code so the API receives null.
func OptionalCode(code string) *string {
	if code == "" {
		return nil
	}
	return &code
}
