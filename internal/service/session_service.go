package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"auth-broker/internal/domain"
	"auth-broker/internal/metrics"
	"auth-broker/internal/repository"
	"auth-broker/internal/token"
)

const (
	bcryptCost        = 12
	minUsernameLength = 3
	minPasswordLength = 8
)

// Introspection is the read-only answer to "is this session usable".
// Every negative case collapses into Active=false so one app cannot
// distinguish a foreign session from a missing or revoked one.
type Introspection struct {
	Active bool
	UserID int64
	AppID  string
}

// SessionService orchestrates signup, login, logout and introspection.
// The caller's app identity must already be authenticated against the
// registry before any of these run.
type SessionService interface {
	Signup(ctx context.Context, appID, username, password string) (*domain.Session, error)
	Login(ctx context.Context, appID, username, password string) (*domain.Session, error)
	Logout(ctx context.Context, appID, sessionID string) (alreadyRevoked bool, err error)
	Introspect(ctx context.Context, appID, sessionID string) *Introspection
}

type sessionService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	codec    *token.Codec
	recorder metrics.Recorder
	logger   *logrus.Logger
}

func NewSessionService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	codec *token.Codec,
	recorder metrics.Recorder,
	logger *logrus.Logger,
) SessionService {
	return &sessionService{
		users:    users,
		sessions: sessions,
		codec:    codec,
		recorder: recorder,
		logger:   logger,
	}
}

// Signup creates a user and mints its first session. Username uniqueness is
// enforced by the store; validation failures happen before any store mutation.
func (s *sessionService) Signup(ctx context.Context, appID, username, password string) (*domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrInvalidInput)
	}
	if len(username) < minUsernameLength || len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: username>=%d chars, password>=%d chars",
			domain.ErrInvalidInput, minUsernameLength, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		s.recorder.RecordInternalError("signup")
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			s.recorder.RecordSignup("username_taken")
		} else {
			s.recorder.RecordInternalError("signup")
		}
		return nil, err
	}

	session, err := s.mintSession(ctx, user.ID, user.Username, appID)
	if err != nil {
		s.recorder.RecordInternalError("signup")
		return nil, err
	}
	s.recorder.RecordSignup("ok")
	return session, nil
}

// Login verifies credentials and always mints a brand-new session; logins are
// not deduplicated, so a user may hold many simultaneous live sessions.
func (s *sessionService) Login(ctx context.Context, appID, username, password string) (*domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.recorder.RecordLogin("account_not_found")
			return nil, err
		}
		s.recorder.RecordInternalError("login")
		return nil, err
	}

	// a bcrypt internal error is indistinguishable from a mismatch
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recorder.RecordLogin("invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	session, err := s.mintSession(ctx, user.ID, user.Username, appID)
	if err != nil {
		s.recorder.RecordInternalError("login")
		return nil, err
	}
	s.recorder.RecordLogin("ok")
	return session, nil
}

// Logout revokes a session. Re-revoking an already revoked session succeeds
// idempotently. Cross-app revocation is impossible even with a known id.
func (s *sessionService) Logout(ctx context.Context, appID, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, domain.ErrMissingSession
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.recorder.RecordInternalError("logout")
		}
		return false, err
	}
	if session.AppID != appID {
		return false, domain.ErrWrongApp
	}
	if session.Revoked {
		s.recorder.RecordRevocation(true)
		return true, nil
	}

	performed, err := s.sessions.Revoke(ctx, sessionID)
	if err != nil {
		s.recorder.RecordInternalError("logout")
		return false, err
	}
	// a concurrent logout may have won the conditional update
	s.recorder.RecordRevocation(!performed)
	return !performed, nil
}

// Introspect reports whether a session is currently usable. It never returns
// an error: missing, unknown, foreign and revoked sessions, invalid tokens and
// store failures all yield the same inactive answer.
func (s *sessionService) Introspect(ctx context.Context, appID, sessionID string) *Introspection {
	inactive := &Introspection{Active: false}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		s.recorder.RecordIntrospection(false)
		return inactive
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.recorder.RecordInternalError("introspect")
			s.logger.WithError(err).Warn("introspect: session lookup failed")
		}
		s.recorder.RecordIntrospection(false)
		return inactive
	}

	if session.AppID != appID || session.Revoked {
		s.recorder.RecordIntrospection(false)
		return inactive
	}

	// signature validity alone is not sufficient, but it is still necessary
	if _, err := s.codec.Decode(session.Token); err != nil {
		s.recorder.RecordIntrospection(false)
		return inactive
	}

	s.recorder.RecordIntrospection(true)
	return &Introspection{
		Active: true,
		UserID: session.UserID,
		AppID:  session.AppID,
	}
}

func (s *sessionService) mintSession(ctx context.Context, userID int64, username, appID string) (*domain.Session, error) {
	signed, err := s.codec.Encode(userID, username, appID)
	if err != nil {
		return nil, fmt.Errorf("encode token: %w", err)
	}

	session := &domain.Session{
		ID:     uuid.NewString(),
		UserID: userID,
		AppID:  appID,
		Token:  signed,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
