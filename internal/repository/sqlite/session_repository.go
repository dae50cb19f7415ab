package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"auth-broker/internal/domain"
	"auth-broker/internal/repository"
)

const createSessionsTable = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	app_id TEXT NOT NULL,
	token TEXT NOT NULL,
	revoked INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	revoked_at DATETIME NULL,
	FOREIGN KEY(user_id) REFERENCES users(id)
);
`

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	session.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (session_id, user_id, app_id, token, revoked, created_at)
VALUES (?, ?, ?, ?, 0, ?)`,
		session.ID,
		session.UserID,
		session.AppID,
		session.Token,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT session_id, user_id, app_id, token, revoked, created_at, revoked_at
FROM sessions
WHERE session_id = ?`,
		sessionID,
	)

	var (
		session   domain.Session
		revoked   int
		revokedAt sql.NullTime
	)
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.AppID,
		&session.Token,
		&revoked,
		&session.CreatedAt,
		&revokedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	session.Revoked = revoked != 0
	if revokedAt.Valid {
		t := revokedAt.Time
		session.RevokedAt = &t
	}
	return &session, nil
}

// Revoke flips the revoked flag with a single conditional UPDATE so that
// concurrent logouts of the same session cannot both claim the transition.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE sessions
SET revoked = 1, revoked_at = ?
WHERE session_id = ? AND revoked = 0`,
		time.Now().UTC(),
		sessionID,
	)
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke session rows affected: %w", err)
	}
	return affected == 1, nil
}
