package errors

import "errors"

var (
	ErrActionInProgress = errors.New("another checkout action is in progress")

	ErrBookingExists = errors.New("a booking already exists for this checkout")

	ErrInvalidStep = errors.New("action not allowed at the current step")

	ErrInvalidRange = errors.New("end must be after start")

	ErrVehicleNotListed = errors.New("vehicle is not in the search results")

	ErrInsuranceRequired = errors.New("an insurance package must be selected")

	ErrUnknownInsurance = errors.New("insurance package not found")

	ErrNoBooking = errors.New("no booking to pay for")

	ErrDiscarded = errors.New("checkout was discarded")
)
