package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"vaccine-scheduler-api/internal/model"
)

// NextFreeAppointmentID returns the smallest non-negative integer not
// assigned to a live appointment. Ids are enumerated ascending and the
// candidate advanced past every match, so ids freed by cancellation are
// reused instead of growing unbounded. Call inside the same transaction
// that inserts the appointment.
func (s *Store) NextFreeAppointmentID(ctx context.Context) (int, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM appointments ORDER BY id`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	candidate := 0
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		if id != candidate {
			break
		}
		candidate++
	}
	return candidate, rows.Err()
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO appointments (id, caregiver_username, vaccine_name, appointment_on, patient_username)
		 VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.CaregiverUsername, a.VaccineName, a.Date, a.PatientUsername,
	)
	return err
}

func (s *Store) DeleteAppointment(ctx context.Context, id int) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AppointmentByID(ctx context.Context, id int) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := s.db.QueryRow(ctx,
		`SELECT id, caregiver_username, vaccine_name, appointment_on, patient_username
		 FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.CaregiverUsername, &a.VaccineName, &a.Date, &a.PatientUsername)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) ListAppointmentsByCaregiver(ctx context.Context, username string) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		`SELECT id, caregiver_username, vaccine_name, appointment_on, patient_username
		 FROM appointments WHERE caregiver_username = $1 ORDER BY id`, username)
}

func (s *Store) ListAppointmentsByPatient(ctx context.Context, username string) ([]model.Appointment, error) {
	return s.listAppointments(ctx,
		`SELECT id, caregiver_username, vaccine_name, appointment_on, patient_username
		 FROM appointments WHERE patient_username = $1 ORDER BY id`, username)
}

func (s *Store) listAppointments(ctx context.Context, q, username string) ([]model.Appointment, error) {
	rows, err := s.db.Query(ctx, q, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.CaregiverUsername, &a.VaccineName, &a.Date, &a.PatientUsername); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
