package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrNotModifiable = errors.New("only booked or confirmed bookings can be changed")

	ErrNoActiveEdit = errors.New("no booking is being edited")

	ErrInvalidTimeRange = errors.New("end time must be after start time")

	ErrCancelNotConfirmed = errors.New("cancellation was not confirmed")

	ErrSaveInProgress = errors.New("a save is already in progress")
)
