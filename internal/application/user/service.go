package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/teachmatch/accounts-api/internal/domain"
	"github.com/teachmatch/accounts-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldFirstName    = "first_name"
	fieldLastName     = "last_name"
	fieldPhone        = "phone_number"
	fieldCountry      = "country"
	fieldLocation     = "location"
	fieldDateOfBirth  = "date_of_birth"
	fieldGender       = "gender"
	fieldBio          = "bio"
	fieldAvatarKey    = "avatar_key"
	fieldPasswordHash = "password_hash"
)

const avatarURLTTL = 24 * time.Hour

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)
	UploadAvatar(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error)
	Delete(ctx context.Context, userID string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	SoftDelete(ctx context.Context, userID string) error
}

type sessionStore interface {
	SoftDeleteByUser(ctx context.Context, userID string) error
}

type fileStore interface {
	Put(ctx context.Context, f *domain.File) error
	SoftDelete(ctx context.Context, fileID string) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo        userStore
	sessionRepo sessionStore
	fileRepo    fileStore
	objects     objectStore
}

type ServiceDeps struct {
	UserRepo    userStore
	SessionRepo sessionStore
	FileRepo    fileStore
	ObjectStore objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:        deps.UserRepo,
		sessionRepo: deps.SessionRepo,
		fileRepo:    deps.FileRepo,
		objects:     deps.ObjectStore,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	email := strings.ToLower(req.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleStudent,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Country:      req.Country,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.attachAvatarURL(ctx, u)
	return u, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.Country != nil {
		updates[fieldCountry] = *req.Country
	}
	if req.Location != nil {
		updates[fieldLocation] = *req.Location
	}
	if req.DateOfBirth != nil {
		t, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("date_of_birth must be in YYYY-MM-DD format: %w", domain.ErrBadRequest)
		}
		updates[fieldDateOfBirth] = t
	}
	if req.Gender != nil {
		updates[fieldGender] = *req.Gender
	}
	if req.Bio != nil {
		updates[fieldBio] = *req.Bio
	}
	if len(updates) == 0 {
		return s.Get(ctx, userID)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *service) UploadAvatar(ctx context.Context, userID, filename, contentType string, size int64, r io.Reader) (*domain.User, error) {
	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldKey := current.AvatarKey

	fileID := id.New()
	key := fmt.Sprintf("avatars/%s/%s", userID, fileID)
	if _, err := s.objects.Upload(ctx, key, r, contentType); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	f := &domain.File{
		FileID:      fileID,
		Object:      key,
		Size:        size,
		ContentType: contentType,
		Name:        filename,
		OwnerUserID: userID,
		Enable:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.fileRepo.Put(ctx, f); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, map[string]interface{}{fieldAvatarKey: key}); err != nil {
		return nil, err
	}
	s.removeOldAvatar(ctx, oldKey)
	return s.Get(ctx, userID)
}

// removeOldAvatar drops the superseded object and disables its file record.
// Best effort: a failure leaves an orphaned object and nothing more.
func (s *service) removeOldAvatar(ctx context.Context, oldKey string) {
	if oldKey == "" {
		return
	}
	if err := s.objects.Delete(ctx, oldKey); err != nil {
		slog.Warn("failed to delete replaced avatar object", "key", oldKey, "err", err)
	}
	oldFileID := path.Base(oldKey)
	if err := s.fileRepo.SoftDelete(ctx, oldFileID); err != nil {
		slog.Warn("failed to disable replaced avatar record", "file_id", oldFileID, "err", err)
	}
}

func (s *service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("incorrect password: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, userID, map[string]interface{}{fieldPasswordHash: string(hash)})
}

func (s *service) List(ctx context.Context, limit int, cursor string) ([]domain.User, string, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ScanPage(ctx, int32(limit), cursor)
}

func (s *service) Delete(ctx context.Context, userID string) error {
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}
	return s.sessionRepo.SoftDeleteByUser(ctx, userID)
}

// attachAvatarURL fills the transient presigned URL for the avatar object, if any.
// A presign failure degrades to an empty URL rather than failing the read.
func (s *service) attachAvatarURL(ctx context.Context, u *domain.User) {
	if u.AvatarKey == "" || s.objects == nil {
		return
	}
	if url, err := s.objects.PresignedURL(ctx, u.AvatarKey, avatarURLTTL); err == nil {
		u.AvatarURL = url
	}
}
