package repository

import (
	"context"

	"auth-broker/internal/domain"
)

// SessionRepository defines persistence operations for Session entities.
// Sessions are never deleted; Revoke is the only mutation and must be atomic
// with respect to concurrent revocations of the same session.
type SessionRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	// Revoke marks a session revoked if it is not already. Returns true if
	// this call performed the transition, false if the session was already
	// revoked.
	Revoke(ctx context.Context, sessionID string) (bool, error)
}
