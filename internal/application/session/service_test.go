package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/teachmatch/accounts-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, sessionID)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}

func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

type fakeSigner struct{}

func (fakeSigner) Sign(userID, role, sessionID string) (string, error) {
	return "signed:" + userID + ":" + role + ":" + sessionID, nil
}

func newTestService() (Service, *mockSessionStore, *mockUserStore) {
	sessions := &mockSessionStore{}
	users := &mockUserStore{}
	svc := NewService(ServiceDeps{
		SessionRepo:     sessions,
		UserRepo:        users,
		JWTProvider:     fakeSigner{},
		RefreshTokenDur: 7 * 24 * time.Hour,
	})
	return svc, sessions, users
}

func activeUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		UserID:       "u1",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleStudent,
		Enable:       true,
	}
}

// --- Login ---

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, users := newTestService()
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "whatever1"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, sessions, users := newTestService()
	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(t, "rightpass1"), nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "wrongpass1"})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	sessions.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLogin_SameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc, _, users := newTestService()
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)
	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(t, "rightpass1"), nil)
	users.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	_, errMiss := svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "x1234567"})
	_, errWrong := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "x1234567"})

	assert.EqualError(t, errMiss, errWrong.Error())
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, _, users := newTestService()
	u := activeUser(t, "rightpass1")
	u.Enable = false
	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(u, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "alice@example.com", Password: "rightpass1"})

	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLogin_HappyPath_BumpsLastSeen(t *testing.T) {
	svc, sessions, users := newTestService()
	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(activeUser(t, "rightpass1"), nil)
	users.On("Update", mock.Anything, "u1", mock.MatchedBy(func(updates map[string]interface{}) bool {
		_, ok := updates["last_seen"].(string)
		return ok
	})).Return(nil)
	sessions.On("Put", mock.Anything, mock.MatchedBy(func(s *domain.Session) bool {
		return s.UserID == "u1" && s.Enable && s.RefreshToken != "" && s.RefreshExpiresAt > time.Now().Unix()
	})).Return(nil)

	res, err := svc.Login(context.Background(), LoginRequest{Email: "ALICE@example.com", Password: "rightpass1"})

	require.NoError(t, err)
	assert.NotEmpty(t, res.Bearer)
	assert.NotEmpty(t, res.RefreshToken)
	require.NotNil(t, res.Session.User)
	assert.NotNil(t, res.Session.User.LastSeen)
	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

// --- Refresh ---

func TestRefresh_UnknownToken(t *testing.T) {
	svc, sessions, _ := newTestService()
	sessions.On("GetByRefreshToken", mock.Anything, "bogus").Return(nil, domain.ErrNotFound)

	_, _, err := svc.Refresh(context.Background(), "bogus")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	svc, sessions, _ := newTestService()
	sessions.On("GetByRefreshToken", mock.Anything, "old").Return(&domain.Session{
		SessionID:        "s1",
		UserID:           "u1",
		RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}, nil)

	_, _, err := svc.Refresh(context.Background(), "old")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	sessions.AssertNotCalled(t, "RotateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, sessions, users := newTestService()
	sessions.On("GetByRefreshToken", mock.Anything, "old").Return(&domain.Session{
		SessionID:        "s1",
		UserID:           "u1",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}, nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Role: domain.RoleStudent}, nil)
	sessions.On("RotateRefreshToken", mock.Anything, "s1", mock.Anything, mock.Anything).Return(nil)

	bearer, newToken, err := svc.Refresh(context.Background(), "old")

	require.NoError(t, err)
	assert.NotEmpty(t, bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "old", newToken)
	sessions.AssertExpectations(t)
}

// --- Logout / GetCurrent ---

func TestLogout_DisablesSession(t *testing.T) {
	svc, sessions, _ := newTestService()
	sessions.On("Update", mock.Anything, "s1", map[string]interface{}{"enable": false}).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), "s1"))
	sessions.AssertExpectations(t)
}

func TestGetCurrent_AttachesUser(t *testing.T) {
	svc, sessions, users := newTestService()
	sessions.On("Get", mock.Anything, "s1").Return(&domain.Session{SessionID: "s1", UserID: "u1"}, nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", Email: "alice@example.com"}, nil)

	sess, err := svc.GetCurrent(context.Background(), "s1")

	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.Equal(t, "alice@example.com", sess.User.Email)
}
