// Package identity owns credential storage and session issuance. The
// engine never sees passwords; it only consumes the Session carried by the
// tokens issued here.
package identity

import (
	"context"
	"errors"
	"fmt"

	"vaccine-scheduler-api/internal/auth"
	"vaccine-scheduler-api/internal/model"
	"vaccine-scheduler-api/internal/store"
)

var (
	ErrUsernameTaken  = errors.New("username taken")
	ErrBadCredentials = errors.New("bad credentials")
	ErrThrottled      = errors.New("too many attempts")
)

type Service struct {
	store   *store.Store
	secret  string
	limiter *Limiter
}

func New(st *store.Store, secret string, limiter *Limiter) *Service {
	return &Service{store: st, secret: secret, limiter: limiter}
}

// CreatePatient registers a patient and logs them straight in, returning a
// session token.
func (s *Service) CreatePatient(ctx context.Context, username, password string) (string, error) {
	if err := s.create(ctx, username, password, model.RolePatient); err != nil {
		return "", err
	}
	return auth.MakeToken(model.Session{Role: model.RolePatient, Username: username}, s.secret)
}

func (s *Service) CreateCaregiver(ctx context.Context, username, password string) (string, error) {
	if err := s.create(ctx, username, password, model.RoleCaregiver); err != nil {
		return "", err
	}
	return auth.MakeToken(model.Session{Role: model.RoleCaregiver, Username: username}, s.secret)
}

func (s *Service) create(ctx context.Context, username, password string, role model.Role) error {
	if !s.limiter.Allow(username) {
		return ErrThrottled
	}
	taken, err := s.store.UsernameTaken(ctx, username)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return ErrUsernameTaken
	}

	salt, err := auth.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	hash := auth.HashPassword(password, salt)

	switch role {
	case model.RolePatient:
		err = s.store.CreatePatient(ctx, &model.Patient{Username: username, Salt: salt, Hash: hash})
	case model.RoleCaregiver:
		err = s.store.CreateCaregiver(ctx, &model.Caregiver{Username: username, Salt: salt, Hash: hash})
	}
	if err != nil {
		// unique violation = lost a race for the name, but don't reveal which table
		return ErrUsernameTaken
	}
	return nil
}

// LoginPatient verifies credentials and issues a session token. Unknown
// user and wrong password are indistinguishable to the caller.
func (s *Service) LoginPatient(ctx context.Context, username, password string) (string, error) {
	if !s.limiter.Allow(username) {
		return "", ErrThrottled
	}
	p, err := s.store.PatientByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrBadCredentials
	}
	if err != nil {
		return "", fmt.Errorf("load patient: %w", err)
	}
	if !auth.CheckPassword(password, p.Salt, p.Hash) {
		return "", ErrBadCredentials
	}
	return auth.MakeToken(model.Session{Role: model.RolePatient, Username: username}, s.secret)
}

func (s *Service) LoginCaregiver(ctx context.Context, username, password string) (string, error) {
	if !s.limiter.Allow(username) {
		return "", ErrThrottled
	}
	c, err := s.store.CaregiverByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrBadCredentials
	}
	if err != nil {
		return "", fmt.Errorf("load caregiver: %w", err)
	}
	if !auth.CheckPassword(password, c.Salt, c.Hash) {
		return "", ErrBadCredentials
	}
	return auth.MakeToken(model.Session{Role: model.RoleCaregiver, Username: username}, s.secret)
}

// SessionFromToken rebuilds the acting principal from a session token.
func (s *Service) SessionFromToken(raw string) (model.Session, error) {
	return auth.ParseToken(raw, s.secret)
}
