package service

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"auth-broker/internal/domain"
	"auth-broker/internal/metrics"
	"auth-broker/internal/token"
)

// --- fakes ---

type fakeUserRepo struct {
	byName map[string]*domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byName: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Init(ctx context.Context) error { return nil }

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) (int64, error) {
	if _, exists := f.byName[user.Username]; exists {
		return 0, domain.ErrUsernameTaken
	}
	f.nextID++
	user.ID = f.nextID
	copied := *user
	f.byName[user.Username] = &copied
	return user.ID, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, ok := f.byName[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	for _, user := range f.byName {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

type fakeSessionRepo struct {
	byID map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byID: map[string]*domain.Session{}}
}

func (f *fakeSessionRepo) Init(ctx context.Context) error { return nil }

func (f *fakeSessionRepo) Create(ctx context.Context, session *domain.Session) error {
	copied := *session
	f.byID[session.ID] = &copied
	return nil
}

func (f *fakeSessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, ok := f.byID[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (f *fakeSessionRepo) Revoke(ctx context.Context, sessionID string) (bool, error) {
	session, ok := f.byID[sessionID]
	if !ok || session.Revoked {
		return false, nil
	}
	session.Revoked = true
	return true, nil
}

// --- helpers ---

const testSecret = "test-jwt-secret"

func newTestService(t *testing.T) (SessionService, *fakeUserRepo, *fakeSessionRepo) {
	t.Helper()
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	svc := NewSessionService(users, sessions, token.NewCodec(testSecret), metrics.NewCollector(), logger)
	return svc, users, sessions
}

func signupDemoUser(t *testing.T, svc SessionService, appID string) *domain.Session {
	t.Helper()
	session, err := svc.Signup(context.Background(), appID, "demo_user", "password123")
	require.NoError(t, err)
	return session
}

// --- signup ---

func TestSignup_Success(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	session, err := svc.Signup(ctx, "workouts-app", "demo_user", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "workouts-app", session.AppID)
	assert.Positive(t, session.UserID)

	stored, err := users.GetByUsername(ctx, "demo_user")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password123")))

	claims, err := token.NewCodec(testSecret).Decode(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "demo_user", claims.Username)
	assert.Equal(t, "workouts-app", claims.AppID)
}

func TestSignup_InvalidInput(t *testing.T) {
	svc, users, sessions := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "password123"},
		{"empty password", "demo_user", ""},
		{"whitespace username", "   ", "password123"},
		{"short username", "ab", "password123"},
		{"short password", "demo_user", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, "workouts-app", tt.username, tt.password)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	assert.Empty(t, users.byName, "no store mutation on validation failure")
	assert.Empty(t, sessions.byID)
}

func TestSignup_UsernameTaken(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	signupDemoUser(t, svc, "workouts-app")

	_, err := svc.Signup(ctx, "workouts-app", "demo_user", "password123")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	assert.Len(t, users.byName, 1)
}

func TestSignup_UsernameGloballyUnique(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	signupDemoUser(t, svc, "workouts-app")

	// same username under a different app is still taken
	_, err := svc.Signup(ctx, "notes-app", "demo_user", "password123")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

// --- login ---

func TestLogin_Success_MintsFreshSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first := signupDemoUser(t, svc, "workouts-app")

	second, err := svc.Login(ctx, "workouts-app", "demo_user", "password123")
	require.NoError(t, err)
	third, err := svc.Login(ctx, "workouts-app", "demo_user", "password123")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEqual(t, second.ID, third.ID)
	assert.Equal(t, first.UserID, second.UserID)

	// all three remain simultaneously active
	for _, session := range []*domain.Session{first, second, third} {
		result := svc.Introspect(ctx, "workouts-app", session.ID)
		assert.True(t, result.Active)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "workouts-app", "", "password123")
	assert.ErrorIs(t, err, domain.ErrMissingFields)

	_, err = svc.Login(context.Background(), "workouts-app", "demo_user", "")
	assert.ErrorIs(t, err, domain.ErrMissingFields)
}

func TestLogin_AccountNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Login(context.Background(), "workouts-app", "ghost", "password123")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	signupDemoUser(t, svc, "workouts-app")

	_, err := svc.Login(context.Background(), "workouts-app", "demo_user", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

// --- logout ---

func TestLogout_Flow(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session := signupDemoUser(t, svc, "workouts-app")

	alreadyRevoked, err := svc.Logout(ctx, "workouts-app", session.ID)
	require.NoError(t, err)
	assert.False(t, alreadyRevoked)

	// idempotent repeat
	alreadyRevoked, err = svc.Logout(ctx, "workouts-app", session.ID)
	require.NoError(t, err)
	assert.True(t, alreadyRevoked)
}

func TestLogout_MissingSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Logout(context.Background(), "workouts-app", "")
	assert.ErrorIs(t, err, domain.ErrMissingSession)
}

func TestLogout_UnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Logout(context.Background(), "workouts-app", "no-such-session")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLogout_WrongApp(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session := signupDemoUser(t, svc, "workouts-app")

	_, err := svc.Logout(ctx, "notes-app", session.ID)
	assert.ErrorIs(t, err, domain.ErrWrongApp)

	// the session is untouched
	result := svc.Introspect(ctx, "workouts-app", session.ID)
	assert.True(t, result.Active)
}

// --- introspect ---

func TestIntrospect_ActiveAfterSignup(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session := signupDemoUser(t, svc, "workouts-app")

	result := svc.Introspect(ctx, "workouts-app", session.ID)
	assert.True(t, result.Active)
	assert.Equal(t, session.UserID, result.UserID)
	assert.Equal(t, "workouts-app", result.AppID)
}

func TestIntrospect_UniformInactive(t *testing.T) {
	svc, _, sessions := newTestService(t)
	ctx := context.Background()

	session := signupDemoUser(t, svc, "workouts-app")
	_, err := svc.Logout(ctx, "workouts-app", session.ID)
	require.NoError(t, err)

	// a session whose stored token no longer verifies
	badToken, err := token.NewCodec("some-other-secret").Encode(99, "other", "workouts-app")
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, &domain.Session{
		ID:     "tampered-session",
		UserID: 99,
		AppID:  "workouts-app",
		Token:  badToken,
	}))

	tests := []struct {
		name      string
		appID     string
		sessionID string
	}{
		{"empty session id", "workouts-app", ""},
		{"unknown session id", "workouts-app", "no-such-session"},
		{"revoked session", "workouts-app", session.ID},
		{"invalid stored token", "workouts-app", "tampered-session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.Introspect(ctx, tt.appID, tt.sessionID)
			assert.False(t, result.Active)
			assert.Zero(t, result.UserID)
			assert.Empty(t, result.AppID)
		})
	}
}

func TestIntrospect_CrossAppIsolation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	session := signupDemoUser(t, svc, "workouts-app")

	foreign := svc.Introspect(ctx, "notes-app", session.ID)
	assert.False(t, foreign.Active, "a foreign app must see the same inactive answer")

	owner := svc.Introspect(ctx, "workouts-app", session.ID)
	assert.True(t, owner.Active, "the owning app still sees the session as active")
}
