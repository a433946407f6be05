package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"vaccine-scheduler-api/internal/model"
)

func (s *Store) VaccineByName(ctx context.Context, name string) (*model.Vaccine, error) {
	v := &model.Vaccine{}
	err := s.db.QueryRow(ctx,
		`SELECT name, doses FROM vaccines WHERE name = $1`, name,
	).Scan(&v.Name, &v.Doses)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) ListVaccines(ctx context.Context) ([]model.Vaccine, error) {
	rows, err := s.db.Query(ctx, `SELECT name, doses FROM vaccines ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Vaccine
	for rows.Next() {
		var v model.Vaccine
		if err := rows.Scan(&v.Name, &v.Doses); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateOrIncreaseDoses creates an unseen vaccine with doses = delta, or
// adds delta to an existing one. A negative delta is rejected on the create
// path and would violate the doses check otherwise.
func (s *Store) CreateOrIncreaseDoses(ctx context.Context, name string, delta int) error {
	if delta < 0 {
		return ErrInvalidAmount
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO vaccines (name, doses) VALUES ($1,$2)
		 ON CONFLICT (name) DO UPDATE SET doses = vaccines.doses + EXCLUDED.doses`,
		name, delta,
	)
	return err
}

// IncreaseDoses adds amount unconditionally (cancellation restock).
func (s *Store) IncreaseDoses(ctx context.Context, name string, amount int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE vaccines SET doses = doses + $2 WHERE name = $1`, name, amount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DecreaseDoses removes amount, refusing to drive the count negative. The
// guard in the WHERE clause makes the decrement safe under contention; the
// schema CHECK backs it up.
func (s *Store) DecreaseDoses(ctx context.Context, name string, amount int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE vaccines SET doses = doses - $2 WHERE name = $1 AND doses >= $2`,
		name, amount,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientDoses
	}
	return nil
}
