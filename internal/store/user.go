package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"vaccine-scheduler-api/internal/model"
)

func (s *Store) CreatePatient(ctx context.Context, p *model.Patient) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO patients (username, salt, hash) VALUES ($1,$2,$3)`,
		p.Username, p.Salt, p.Hash,
	)
	return err
}

func (s *Store) PatientByUsername(ctx context.Context, username string) (*model.Patient, error) {
	p := &model.Patient{}
	err := s.db.QueryRow(ctx,
		`SELECT username, salt, hash FROM patients WHERE username = $1`, username,
	).Scan(&p.Username, &p.Salt, &p.Hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) CreateCaregiver(ctx context.Context, c *model.Caregiver) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO caregivers (username, salt, hash) VALUES ($1,$2,$3)`,
		c.Username, c.Salt, c.Hash,
	)
	return err
}

func (s *Store) CaregiverByUsername(ctx context.Context, username string) (*model.Caregiver, error) {
	c := &model.Caregiver{}
	err := s.db.QueryRow(ctx,
		`SELECT username, salt, hash FROM caregivers WHERE username = $1`, username,
	).Scan(&c.Username, &c.Salt, &c.Hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UsernameTaken checks both principal tables so a patient and caregiver can
// never share a username.
func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM patients WHERE username = $1)
		     OR EXISTS(SELECT 1 FROM caregivers WHERE username = $1)`,
		username,
	).Scan(&taken)
	return taken, err
}
