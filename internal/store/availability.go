package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// AddSlot publishes a (date, caregiver) slot. Inserting an existing pair is
// a no-op: a slot is a single capacity unit, never a duplicate row.
func (s *Store) AddSlot(ctx context.Context, caregiver string, date time.Time) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO availabilities (available_on, caregiver_username)
		 VALUES ($1,$2)
		 ON CONFLICT (available_on, caregiver_username) DO NOTHING`,
		date, caregiver,
	)
	return err
}

// RemoveSlot deletes the pair; absent pairs are a no-op so cancellation
// rollback paths can call it defensively.
func (s *Store) RemoveSlot(ctx context.Context, caregiver string, date time.Time) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM availabilities WHERE available_on = $1 AND caregiver_username = $2`,
		date, caregiver,
	)
	return err
}

// FindBookableCaregiver picks the caregiver to assign for a reservation on
// date: the lexicographically smallest username with a slot that day.
// Availability is not vaccine-specific; dose checks happen separately.
func (s *Store) FindBookableCaregiver(ctx context.Context, date time.Time) (string, error) {
	var username string
	err := s.db.QueryRow(ctx,
		`SELECT caregiver_username FROM availabilities
		 WHERE available_on = $1
		 ORDER BY caregiver_username
		 LIMIT 1`, date,
	).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return username, nil
}

// ListCaregiversByDate returns the caregivers with a slot on date, ascending
// by username.
func (s *Store) ListCaregiversByDate(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT caregiver_username FROM availabilities
		 WHERE available_on = $1
		 ORDER BY caregiver_username`, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// HasSlot reports whether the exact (date, caregiver) pair exists.
func (s *Store) HasSlot(ctx context.Context, caregiver string, date time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM availabilities
			WHERE available_on = $1 AND caregiver_username = $2)`,
		date, caregiver,
	).Scan(&exists)
	return exists, err
}
