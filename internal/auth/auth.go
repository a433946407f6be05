package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"

	"vaccine-scheduler-api/internal/model"
)

var ErrBadToken = errors.New("invalid token")

const (
	saltLen    = 16
	hashLen    = 32
	iterations = 210_000
)

// GenerateSalt returns a fresh random salt for credential hashing.
func GenerateSalt() ([]byte, error) {
	b := make([]byte, saltLen)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// HashPassword derives a PBKDF2-SHA256 hash. Salt and hash are stored as
// separate columns.
func HashPassword(pw string, salt []byte) []byte {
	return pbkdf2.Key([]byte(pw), salt, iterations, hashLen, sha256.New)
}

func CheckPassword(pw string, salt, hash []byte) bool {
	derived := pbkdf2.Key([]byte(pw), salt, iterations, hashLen, sha256.New)
	return subtle.ConstantTimeCompare(derived, hash) == 1
}

type Claims struct {
	Username string `json:"uname"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// MakeToken issues a session token for the working day (8h).
func MakeToken(sess model.Session, secret string) (string, error) {
	c := Claims{
		Username: sess.Username,
		Role:     sess.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(8 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// ParseToken validates a session token and rebuilds the Session value.
func ParseToken(raw, secret string) (model.Session, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return model.Session{}, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return model.Session{}, ErrBadToken
	}
	sess := model.Session{Username: c.Username}
	switch c.Role {
	case model.RoleCaregiver.String():
		sess.Role = model.RoleCaregiver
	case model.RolePatient.String():
		sess.Role = model.RolePatient
	default:
		return model.Session{}, ErrBadToken
	}
	return sess, nil
}
