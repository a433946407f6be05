package engine

import "errors"

var (
	ErrUnauthorized         = errors.New("not logged in or wrong role")
	ErrForbidden            = errors.New("not a party to this appointment")
	ErrInvalidDate          = errors.New("invalid date")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrNoCaregiverAvailable = errors.New("no caregiver available")
	ErrVaccineNotFound      = errors.New("vaccine not found")
	ErrInsufficientDoses    = errors.New("not enough available doses")
	ErrAppointmentNotFound  = errors.New("appointment not found")
)
