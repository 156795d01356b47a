package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrDatesUnavailable = errors.New("requested dates overlap an existing booking")

	ErrInvalidDateRange = errors.New("end date must not be before start date")
)
