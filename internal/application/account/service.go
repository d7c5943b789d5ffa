package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teachmatch/accounts-api/internal/domain"
	"github.com/teachmatch/accounts-api/internal/pkg/accounttoken"
	pkgtoken "github.com/teachmatch/accounts-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// Kind selects which confirmation email a dispatched token belongs to.
type Kind string

const (
	KindPasswordReset Kind = "password-reset"
	KindEmailVerify   Kind = "email-verify"
)

const otpTTL = 15 * time.Minute

type ResetConfirmRequest struct {
	Identifier  string `json:"identifier" validate:"required"`
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// Service implements the password-reset, email-verification and
// phone-confirmation flows.
type Service interface {
	// RequestPasswordReset never reports whether the email matched an
	// account; callers must answer with a fixed body either way.
	RequestPasswordReset(ctx context.Context, email string)
	ConfirmPasswordReset(ctx context.Context, req ResetConfirmRequest) error
	// RequestEmailVerification returns alreadyVerified=true without sending
	// anything when the account's email is confirmed.
	RequestEmailVerification(ctx context.Context, userID string) (alreadyVerified bool, err error)
	VerifyEmail(ctx context.Context, identifier, token string) error
	RequestPhoneConfirmation(ctx context.Context, userID string) error
	ConfirmPhone(ctx context.Context, userID, otp string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.UserVerification) error
	Get(ctx context.Context, userID, verType string) (*domain.UserVerification, error)
	Delete(ctx context.Context, userID, verType string) error
}

type dispatcher interface {
	Send(u *domain.User, kind Kind, identifier, token string)
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type service struct {
	userRepo         userStore
	verificationRepo verificationStore
	dispatcher       dispatcher
	smsSender        smsSender
	tokens           *accounttoken.Generator
}

type ServiceDeps struct {
	UserRepo         userStore
	VerificationRepo verificationStore
	Dispatcher       dispatcher
	SMSSender        smsSender
	Tokens           *accounttoken.Generator
}

func NewService(deps ServiceDeps) Service {
	return &service{
		userRepo:         deps.UserRepo,
		verificationRepo: deps.VerificationRepo,
		dispatcher:       deps.Dispatcher,
		smsSender:        deps.SMSSender,
		tokens:           deps.Tokens,
	}
}

// enumerationDecoy keeps the miss path of RequestPasswordReset doing the same
// token derivation as the hit path, so response timing does not reveal
// whether the email matched an account.
var enumerationDecoy = &domain.User{
	UserID:       "00000000000000000000000000",
	PasswordHash: "!",
}

func (s *service) RequestPasswordReset(ctx context.Context, email string) {
	u, err := s.userRepo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		s.tokens.Issue(enumerationDecoy)
		return
	}
	identifier, tok := s.tokens.Issue(u)
	s.dispatcher.Send(u, KindPasswordReset, identifier, tok)
}

func (s *service) ConfirmPasswordReset(ctx context.Context, req ResetConfirmRequest) error {
	u, err := s.resolve(ctx, req.Identifier, req.Token)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.Update(ctx, u.UserID, map[string]interface{}{"password_hash": string(hash)})
}

func (s *service) RequestEmailVerification(ctx context.Context, userID string) (bool, error) {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if u.Verified {
		return true, nil
	}
	identifier, tok := s.tokens.Issue(u)
	s.dispatcher.Send(u, KindEmailVerify, identifier, tok)
	return false, nil
}

func (s *service) VerifyEmail(ctx context.Context, identifier, token string) error {
	u, err := s.resolve(ctx, identifier, token)
	if err != nil {
		return err
	}
	return s.userRepo.Update(ctx, u.UserID, map[string]interface{}{"verified": true})
}

// resolve implements the verifier half of the token protocol: decode the
// identifier, load the principal, recheck the MAC against current state.
// An undecodable identifier and an unknown principal collapse into the same
// ErrInvalidLink so callers cannot probe for account existence.
func (s *service) resolve(ctx context.Context, identifier, token string) (*domain.User, error) {
	userID, err := accounttoken.DecodeID(identifier)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve principal: %w", domain.ErrInvalidLink)
	}
	if err := s.tokens.Check(u, token); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) RequestPhoneConfirmation(ctx context.Context, userID string) error {
	u, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if u.Phone == nil {
		return fmt.Errorf("no phone number on account: %w", domain.ErrBadRequest)
	}
	otp, err := pkgtoken.NewOTP(6)
	if err != nil {
		return err
	}
	v := &domain.UserVerification{
		UserID:    userID,
		Type:      "phone",
		Code:      otp,
		ExpiresAt: time.Now().Add(otpTTL).Unix(),
	}
	if err := s.verificationRepo.Put(ctx, v); err != nil {
		return err
	}
	return s.smsSender.SendSMS(ctx, *u.Phone, "Your TeachMatch verification code: "+otp)
}

func (s *service) ConfirmPhone(ctx context.Context, userID, otp string) error {
	v, err := s.verificationRepo.Get(ctx, userID, "phone")
	if err != nil {
		return fmt.Errorf("OTP not found: %w", domain.ErrNotFound)
	}
	if v.Code != otp {
		return fmt.Errorf("invalid OTP: %w", domain.ErrUnauthorized)
	}
	if v.ExpiresAt < time.Now().Unix() {
		return fmt.Errorf("OTP expired: %w", domain.ErrUnauthorized)
	}
	if err := s.verificationRepo.Delete(ctx, userID, "phone"); err != nil {
		slog.Warn("failed to delete phone verification record", "user_id", userID, "err", err)
	}
	return s.userRepo.Update(ctx, userID, map[string]interface{}{"phone_confirmed": true})
}
