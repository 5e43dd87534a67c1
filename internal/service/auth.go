package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sholdev/music_school/internal/hash"
	"github.com/sholdev/music_school/internal/logging"
	"github.com/sholdev/music_school/internal/models"
	"github.com/sholdev/music_school/internal/repo"
	"github.com/sholdev/music_school/internal/tokens"
)

type AuthService struct {
	Repo          *repo.UserRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ResetTTL      time.Duration
	Mailer        Mailer
	Events        EventPublisher
	BaseURL       string
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Zero TTL fields fall back to the package defaults. Any non-zero
// value, including a negative one, is used as-is.
func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL != 0 {
		return s.AccessTTL
	}
	return tokens.AccessTTL
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL != 0 {
		return s.RefreshTTL
	}
	return tokens.RefreshTTL
}

func (s *AuthService) resetTTL() time.Duration {
	if s.ResetTTL != 0 {
		return s.ResetTTL
	}
	return tokens.ResetTTL
}

// issuePair signs a fresh access+refresh pair and stores the refresh
// token on the user record, superseding any previous session.
func (s *AuthService) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := tokens.SignAccessToken(user.ID, user.Role, user.Name, s.AccessSecret, s.accessTTL())
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := tokens.SignRefreshToken(user.ID, s.RefreshSecret, s.refreshTTL())
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := s.Repo.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) publish(ctx context.Context, event map[string]interface{}, key string) {
	if s.Events == nil {
		return
	}
	l := logging.FromContext(ctx)
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Events.PublishEvent(pubCtx, "user_events", key, event); err != nil {
		l.Error("event publish failed", "error", err)
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if _, err := s.Repo.FindByEmail(ctx, email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		l.Error("register failed", "error", err)
		return nil, nil, ErrInternal
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register failed", "reason", "cannot hash the password", "error", err)
		return nil, nil, ErrInternal
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         "basic",
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		l.Error("register failed", "error", err)
		return nil, nil, ErrInternal
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		l.Error("register failed", "error", err)
		return nil, nil, ErrInternal
	}

	s.publish(ctx, map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	}, fmt.Sprint(user.ID))

	return user, pair, nil
}

// Login returns the same ErrInvalidCredentials whether the email is
// unknown or the password is wrong, so responses cannot be used to
// enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		l.Error("login failed", "error", err)
		return nil, nil, ErrInternal
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		l.Error("login failed", "error", err)
		return nil, nil, ErrInternal
	}

	s.publish(ctx, map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	}, fmt.Sprint(user.ID))

	return user, pair, nil
}

// Refresh rotates the refresh token. Exactly one refresh token per
// user is valid at a time; presenting a superseded one clears the
// session and fails as reuse, whichever party presents it first.
func (s *AuthService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.ParseRefreshToken(presented, s.RefreshSecret)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	userID, err := tokens.SubjectID(claims.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		l.Error("refresh failed", "error", err)
		return nil, ErrInternal
	}

	if user.RefreshToken == "" {
		return nil, ErrTokenInvalid
	}
	if user.RefreshToken != presented {
		// The presented token verified but is not the stored one:
		// someone is replaying a rotated token. Kill the session.
		l.Warn("refresh token reuse detected", "userID", user.ID)
		if err := s.Repo.SetRefreshToken(ctx, user.ID, ""); err != nil {
			l.Error("clearing session failed", "error", err)
		}
		return nil, ErrTokenReuse
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		l.Error("refresh failed", "error", err)
		return nil, ErrInternal
	}
	return pair, nil
}

// Logout clears the stored refresh token. It is idempotent: an
// already-cleared or undecodable token still counts as logged out.
func (s *AuthService) Logout(ctx context.Context, presented string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	claims, err := tokens.ParseRefreshToken(presented, s.RefreshSecret)
	if err != nil {
		return nil
	}
	userID, err := tokens.SubjectID(claims.Subject)
	if err != nil {
		return nil
	}
	if err := s.Repo.SetRefreshToken(ctx, userID, ""); err != nil {
		l.Error("logout failed", "error", err)
		return ErrInternal
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, ErrInternal
	}
	return user, nil
}

// ForgotPassword issues a reset token signed with a secret derived
// from the user's current password hash and creation time, then hands
// the reset URL to the mail collaborator.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	l := logging.FromContext(ctx).With("svc", "auth.forgot_password")

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		l.Error("forgot password failed", "error", err)
		return ErrInternal
	}

	token, err := tokens.SignResetToken(user.ID, tokens.ResetSecret(user), s.resetTTL())
	if err != nil {
		l.Error("forgot password failed", "error", err)
		return ErrInternal
	}

	resetURL := fmt.Sprintf("%s/new_password/%d/%s", s.BaseURL, user.ID, token)
	if err := s.Mailer.SendResetEmail(ctx, user, resetURL); err != nil {
		l.Error("reset email delivery failed", "error", err)
		return ErrEmailDelivery
	}
	return nil
}

// ResetPassword verifies the token against the secret derived from the
// *current* password hash. Overwriting the password changes that
// secret, so a reset token can never be used twice.
func (s *AuthService) ResetPassword(ctx context.Context, userID uint, token, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	user, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		l.Error("reset password failed", "error", err)
		return ErrInternal
	}

	claims, err := tokens.ParseResetToken(token, tokens.ResetSecret(user))
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			return ErrTokenExpired
		}
		return ErrResetToken
	}
	if claims.UserID != user.ID {
		return ErrResetToken
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		l.Error("reset password failed", "error", err)
		return ErrInternal
	}
	user.PasswordHash = pwHash
	if err := s.Repo.Save(ctx, user); err != nil {
		l.Error("reset password failed", "error", err)
		return ErrInternal
	}

	s.publish(ctx, map[string]interface{}{
		"type":   "password_reset",
		"userID": user.ID,
	}, fmt.Sprint(user.ID))

	return nil
}
