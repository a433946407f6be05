// Package engine implements the reservation and inventory transaction
// engine: matching a reservation to an open caregiver slot, enforcing dose
// inventory limits, assigning appointment ids, and reversing all effects on
// cancellation. Every multi-step mutation runs as one serializable
// transaction, so a partially applied booking is never visible.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vaccine-scheduler-api/internal/model"
	"vaccine-scheduler-api/internal/store"
)

// DateLayout is the canonical calendar-day form accepted by every dated
// command. Dates are opaque day keys; no time-zone semantics apply.
const DateLayout = "2006-01-02"

type Engine struct {
	store *store.Store
}

func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// ParseDate validates the YYYY-MM-DD form before anything touches the store.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// Reservation is the successful result of Reserve.
type Reservation struct {
	AppointmentID int
	Caregiver     string
}

// Reserve books the requesting patient with the lexicographically smallest
// caregiver holding a slot on date, consuming the slot and one dose. The
// id assignment, slot removal, appointment insert and dose decrement commit
// together or not at all.
func (e *Engine) Reserve(ctx context.Context, sess model.Session, date, vaccineName string) (*Reservation, error) {
	if sess.Role != model.RolePatient {
		return nil, ErrUnauthorized
	}
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	var res Reservation
	err = e.store.InTx(ctx, func(tx *store.Store) error {
		caregiver, err := tx.FindBookableCaregiver(ctx, d)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoCaregiverAvailable
		}
		if err != nil {
			return fmt.Errorf("find caregiver: %w", err)
		}

		vaccine, err := tx.VaccineByName(ctx, vaccineName)
		if errors.Is(err, store.ErrNotFound) {
			return ErrVaccineNotFound
		}
		if err != nil {
			return fmt.Errorf("load vaccine: %w", err)
		}
		if vaccine.Doses <= 0 {
			return ErrInsufficientDoses
		}

		id, err := tx.NextFreeAppointmentID(ctx)
		if err != nil {
			return fmt.Errorf("assign id: %w", err)
		}
		if err := tx.RemoveSlot(ctx, caregiver, d); err != nil {
			return fmt.Errorf("consume slot: %w", err)
		}
		if err := tx.CreateAppointment(ctx, &model.Appointment{
			ID:                id,
			CaregiverUsername: caregiver,
			VaccineName:       vaccineName,
			Date:              d,
			PatientUsername:   sess.Username,
		}); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		if err := tx.DecreaseDoses(ctx, vaccineName, 1); err != nil {
			if errors.Is(err, store.ErrInsufficientDoses) {
				return ErrInsufficientDoses
			}
			return fmt.Errorf("decrease doses: %w", err)
		}
		res = Reservation{AppointmentID: id, Caregiver: caregiver}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Cancel reverses a reservation: the appointment record is deleted, the
// (date, caregiver) slot re-inserted, and the dose returned — atomically.
// Only the appointment's own caregiver or patient may cancel it; the freed
// id becomes reusable.
func (e *Engine) Cancel(ctx context.Context, sess model.Session, appointmentID int) error {
	if !sess.Active() {
		return ErrUnauthorized
	}

	appt, err := e.store.AppointmentByID(ctx, appointmentID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup appointment: %w", err)
	}

	switch sess.Role {
	case model.RoleCaregiver:
		if appt.CaregiverUsername != sess.Username {
			return ErrForbidden
		}
	case model.RolePatient:
		if appt.PatientUsername != sess.Username {
			return ErrForbidden
		}
	}

	return e.store.InTx(ctx, func(tx *store.Store) error {
		if err := tx.DeleteAppointment(ctx, appointmentID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// lost a race with a concurrent cancel
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("delete appointment: %w", err)
		}
		if err := tx.AddSlot(ctx, appt.CaregiverUsername, appt.Date); err != nil {
			return fmt.Errorf("restore slot: %w", err)
		}
		if err := tx.IncreaseDoses(ctx, appt.VaccineName, 1); err != nil {
			return fmt.Errorf("restore dose: %w", err)
		}
		return nil
	})
}

// ScheduleEntry pairs a bookable caregiver with one vaccine's inventory.
type ScheduleEntry struct {
	Caregiver   string
	VaccineName string
	Doses       int
}

// SearchSchedule returns, for every caregiver with a slot on date (ascending
// by username), the product with every known vaccine and its dose count.
// Slots are not bound to a vaccine, so every pairing is shown.
func (e *Engine) SearchSchedule(ctx context.Context, sess model.Session, date string) ([]ScheduleEntry, error) {
	if !sess.Active() {
		return nil, ErrUnauthorized
	}
	d, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	caregivers, err := e.store.ListCaregiversByDate(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("list caregivers: %w", err)
	}
	vaccines, err := e.store.ListVaccines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vaccines: %w", err)
	}

	var out []ScheduleEntry
	for _, c := range caregivers {
		for _, v := range vaccines {
			out = append(out, ScheduleEntry{Caregiver: c, VaccineName: v.Name, Doses: v.Doses})
		}
	}
	return out, nil
}

// ShowAppointments lists the session principal's own appointments ascending
// by id.
func (e *Engine) ShowAppointments(ctx context.Context, sess model.Session) ([]model.Appointment, error) {
	switch sess.Role {
	case model.RoleCaregiver:
		return e.store.ListAppointmentsByCaregiver(ctx, sess.Username)
	case model.RolePatient:
		return e.store.ListAppointmentsByPatient(ctx, sess.Username)
	}
	return nil, ErrUnauthorized
}

// UploadAvailability publishes a slot for the session caregiver on date.
func (e *Engine) UploadAvailability(ctx context.Context, sess model.Session, date string) error {
	if sess.Role != model.RoleCaregiver {
		return ErrUnauthorized
	}
	d, err := ParseDate(date)
	if err != nil {
		return err
	}
	if err := e.store.AddSlot(ctx, sess.Username, d); err != nil {
		return fmt.Errorf("add slot: %w", err)
	}
	return nil
}

// AddDoses creates the vaccine on first sight (doses = amount) or adds to
// its counter.
func (e *Engine) AddDoses(ctx context.Context, sess model.Session, vaccineName string, amount int) error {
	if sess.Role != model.RoleCaregiver {
		return ErrUnauthorized
	}
	if amount < 0 {
		return ErrInvalidAmount
	}
	if err := e.store.CreateOrIncreaseDoses(ctx, vaccineName, amount); err != nil {
		if errors.Is(err, store.ErrInvalidAmount) {
			return ErrInvalidAmount
		}
		return fmt.Errorf("add doses: %w", err)
	}
	return nil
}
