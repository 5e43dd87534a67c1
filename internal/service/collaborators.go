package service

import (
	"context"

	"github.com/sholdev/music_school/internal/models"
)

// EventPublisher pushes domain events to the message broker.
// Publishing is best effort: failures are logged, never surfaced to
// the client.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event interface{}) error
}

// Mailer delivers the password-reset email. The service only builds
// the reset URL; delivery belongs to the collaborator.
type Mailer interface {
	SendResetEmail(ctx context.Context, user *models.User, resetURL string) error
}
