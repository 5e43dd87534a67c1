// Package tokens issues and verifies the three JWT kinds the backend
// uses: short-lived access tokens, rotating refresh tokens and
// single-use password-reset tokens. Access and refresh tokens are
// signed with independent process-wide secrets so compromising one
// cannot forge the other.
package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sholdev/music_school/internal/models"
)

var (
	// ErrExpired means the token was well-formed and correctly signed
	// but its lifetime is over. Callers surface this distinctly so
	// clients know to re-authenticate instead of retrying.
	ErrExpired = errors.New("token expired")
	// ErrInvalid covers every other verification failure: bad
	// signature, wrong signing method, garbage input.
	ErrInvalid = errors.New("invalid token")
)

const (
	AccessTTL  = 10 * time.Minute
	RefreshTTL = 24 * time.Hour
	ResetTTL   = 10 * time.Minute
)

func SignAccessToken(userID uint, role, name string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func SignRefreshToken(userID uint, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseAccessToken(tokenStr string, secret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parse(tokenStr, &claims, secret); err != nil {
		return nil, err
	}
	return &claims, nil
}

func ParseRefreshToken(tokenStr string, secret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parse(tokenStr, &claims, secret); err != nil {
		return nil, err
	}
	return &claims, nil
}

// ResetSecret derives the per-user signing secret for password-reset
// tokens from the current password hash and the account creation time.
// Changing the password changes the secret, which invalidates every
// previously issued reset token for that user.
func ResetSecret(user *models.User) []byte {
	sum := sha256.Sum256([]byte(user.PasswordHash + "-" + user.CreatedAt.UTC().Format(time.RFC3339)))
	return []byte(hex.EncodeToString(sum[:]))
}

func SignResetToken(userID uint, perUserSecret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(perUserSecret)
}

func ParseResetToken(tokenStr string, perUserSecret []byte) (*ResetClaims, error) {
	var claims ResetClaims
	if err := parse(tokenStr, &claims, perUserSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

func parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return ErrInvalid
	}
	if !tkn.Valid {
		return ErrInvalid
	}
	return nil
}

// SubjectID converts a token subject back into a user id.
func SubjectID(sub string) (uint, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, ErrInvalid
	}
	return uint(id), nil
}
