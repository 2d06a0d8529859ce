package validator

import (
	"time"

	bookingserrors "rentawheel/internal/bookings/errors"
	"rentawheel/pkg/model"
	"rentawheel/pkg/validation"
	"rentawheel/pkg/wiretime"
)

type BookingValidator struct {
	validate *validation.Validator
}

func NewBookingValidator(v *validation.Validator) *BookingValidator {
	return &BookingValidator{validate: v}
}

// ValidateEditForm checks the edit form and returns its dates as UTC times.
func (v *BookingValidator) ValidateEditForm(form *model.EditForm) (time.Time, time.Time, error) {
	if err := v.validate.Struct(form); err != nil {
		return time.Time{}, time.Time{}, err
	}

	var errs validation.ValidationErrors
	start, err := wiretime.FromInput(form.StartDatetime)
	if err != nil {
		errs = append(errs, validation.ValidationError{Field: "start_datetime", Message: err.Error()})
	}
	end, err := wiretime.FromInput(form.EndDatetime)
	if err != nil {
		errs = append(errs, validation.ValidationError{Field: "end_datetime", Message: err.Error()})
	}
	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, validation.ValidationErrors{
			validation.ValidationError{
				Field:   "end_datetime",
				Message: bookingserrors.ErrInvalidTimeRange.Error(),
			},
		}
	}

	return start, end, nil
}
