package user

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/teachmatch/accounts-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
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

func (m *mockUserStore) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	args := m.Called(ctx, limit, cursor)
	return args.Get(0).([]domain.User), args.String(1), args.Error(2)
}

func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) SoftDeleteByUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockFileStore struct{ mock.Mock }

func (m *mockFileStore) Put(ctx context.Context, f *domain.File) error {
	return m.Called(ctx, f).Error(0)
}

func (m *mockFileStore) SoftDelete(ctx context.Context, fileID string) error {
	return m.Called(ctx, fileID).Error(0)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, key, r, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newTestService() (Service, *mockUserStore, *mockSessionStore, *mockFileStore, *mockObjectStore) {
	users := &mockUserStore{}
	sessions := &mockSessionStore{}
	files := &mockFileStore{}
	objects := &mockObjectStore{}
	svc := NewService(ServiceDeps{
		UserRepo:    users,
		SessionRepo: sessions,
		FileRepo:    files,
		ObjectStore: objects,
	})
	return svc, users, sessions, files, objects
}

// --- Register ---

func TestRegister_NormalizesEmailAndHashesPassword(t *testing.T) {
	svc, users, _, _, _ := newTestService()
	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	users.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "alice@example.com" &&
			u.Role == domain.RoleStudent &&
			u.Enable &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1234")) == nil
	})).Return(nil)

	u, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email: "ALICE@Example.COM", Password: "secret1234",
		FirstName: "Alice", LastName: "Smith", Country: "AR",
	})

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEmpty(t, u.UserID)
	users.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, users, _, _, _ := newTestService()
	users.On("GetByEmail", mock.Anything, "alice@example.com").
		Return(&domain.User{UserID: "u1", Email: "alice@example.com"}, nil)

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email: "alice@example.com", Password: "secret1234",
		FirstName: "Alice", LastName: "Smith", Country: "AR",
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
	users.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- Get ---

func TestGet_AttachesPresignedAvatarURL(t *testing.T) {
	svc, users, _, _, objects := newTestService()
	users.On("Get", mock.Anything, "u1").
		Return(&domain.User{UserID: "u1", AvatarKey: "avatars/u1/f1"}, nil)
	objects.On("PresignedURL", mock.Anything, "avatars/u1/f1", avatarURLTTL).
		Return("https://bucket.s3.amazonaws.com/avatars/u1/f1?sig=abc", nil)

	u, err := svc.Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/avatars/u1/f1?sig=abc", u.AvatarURL)
	objects.AssertExpectations(t)
}

func TestGet_NoAvatar_SkipsPresign(t *testing.T) {
	svc, users, _, _, objects := newTestService()
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	u, err := svc.Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Empty(t, u.AvatarURL)
	objects.AssertNotCalled(t, "PresignedURL", mock.Anything, mock.Anything, mock.Anything)
}

// --- UpdateProfile ---

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	svc, users, _, _, _ := newTestService()
	users.On("Update", mock.Anything, "u1", mock.MatchedBy(func(updates map[string]interface{}) bool {
		_, hasLast := updates["last_name"]
		return updates["first_name"] == "Alicia" && !hasLast
	})).Return(nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", FirstName: "Alicia"}, nil)

	name := "Alicia"
	u, err := svc.UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{FirstName: &name})

	require.NoError(t, err)
	assert.Equal(t, "Alicia", u.FirstName)
	users.AssertExpectations(t)
}

func TestUpdateProfile_BadDateOfBirth(t *testing.T) {
	svc, users, _, _, _ := newTestService()
	dob := "31-12-1999"
	_, err := svc.UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{DateOfBirth: &dob})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfile_EmptyRequest_JustReads(t *testing.T) {
	svc, users, _, _, _ := newTestService()
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	_, err := svc.UpdateProfile(context.Background(), "u1", domain.UpdateProfileRequest{})

	require.NoError(t, err)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// --- UploadAvatar ---

func TestUploadAvatar_StoresObjectMetadataAndKey(t *testing.T) {
	svc, users, _, files, objects := newTestService()
	body := strings.NewReader("fake-image-bytes")

	objects.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "avatars/u1/")
	}), body, "image/png").Return("etag", nil)
	files.On("Put", mock.Anything, mock.MatchedBy(func(f *domain.File) bool {
		return f.OwnerUserID == "u1" && f.ContentType == "image/png" && f.Size == 16 && f.Enable
	})).Return(nil)
	users.On("Update", mock.Anything, "u1", mock.MatchedBy(func(updates map[string]interface{}) bool {
		key, ok := updates["avatar_key"].(string)
		return ok && strings.HasPrefix(key, "avatars/u1/")
	})).Return(nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	_, err := svc.UploadAvatar(context.Background(), "u1", "me.png", "image/png", 16, body)

	require.NoError(t, err)
	// first upload: nothing to clean up
	objects.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	files.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
	objects.AssertExpectations(t)
	files.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestUploadAvatar_ReplacementCleansUpOldObject(t *testing.T) {
	svc, users, _, files, objects := newTestService()
	body := strings.NewReader("fake-image-bytes")

	// the account already points at an avatar from a previous upload
	users.On("Get", mock.Anything, "u1").
		Return(&domain.User{UserID: "u1", AvatarKey: "avatars/u1/oldfile"}, nil).Once()
	objects.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "avatars/u1/") && key != "avatars/u1/oldfile"
	}), body, "image/png").Return("etag", nil)
	files.On("Put", mock.Anything, mock.Anything).Return(nil)
	users.On("Update", mock.Anything, "u1", mock.Anything).Return(nil)
	objects.On("Delete", mock.Anything, "avatars/u1/oldfile").Return(nil)
	files.On("SoftDelete", mock.Anything, "oldfile").Return(nil)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1"}, nil)

	_, err := svc.UploadAvatar(context.Background(), "u1", "me.png", "image/png", 16, body)

	require.NoError(t, err)
	objects.AssertExpectations(t)
	files.AssertExpectations(t)
	users.AssertExpectations(t)
}

// --- ChangePassword ---

func TestChangePassword_WrongOldPassword(t *testing.T) {
	svc, users, _, _, _ := newTestService()
	hash, _ := bcrypt.GenerateFromPassword([]byte("rightpass1"), bcrypt.MinCost)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", PasswordHash: string(hash)}, nil)

	err := svc.ChangePassword(context.Background(), "u1", "wrongpass1", "newpass1234")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangePassword_HappyPath(t *testing.T) {
	svc, users, _, _, _ := newTestService()
	hash, _ := bcrypt.GenerateFromPassword([]byte("rightpass1"), bcrypt.MinCost)
	users.On("Get", mock.Anything, "u1").Return(&domain.User{UserID: "u1", PasswordHash: string(hash)}, nil)
	users.On("Update", mock.Anything, "u1", mock.MatchedBy(func(updates map[string]interface{}) bool {
		newHash, ok := updates["password_hash"].(string)
		return ok && bcrypt.CompareHashAndPassword([]byte(newHash), []byte("newpass1234")) == nil
	})).Return(nil)

	err := svc.ChangePassword(context.Background(), "u1", "rightpass1", "newpass1234")

	require.NoError(t, err)
	users.AssertExpectations(t)
}

// --- List / Delete ---

func TestList_DefaultsLimit(t *testing.T) {
	svc, users, _, _, _ := newTestService()
	users.On("ScanPage", mock.Anything, int32(50), "").Return([]domain.User{}, "", nil)

	_, _, err := svc.List(context.Background(), 0, "")

	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestDelete_DisablesUserAndSessions(t *testing.T) {
	svc, users, sessions, _, _ := newTestService()
	users.On("SoftDelete", mock.Anything, "u1").Return(nil)
	sessions.On("SoftDeleteByUser", mock.Anything, "u1").Return(nil)

	err := svc.Delete(context.Background(), "u1")

	require.NoError(t, err)
	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}
