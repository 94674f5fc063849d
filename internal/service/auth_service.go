package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gosembako/config"
	"gosembako/internal/auth"
	"gosembako/internal/logging"
	"gosembako/internal/models"
	"gosembako/internal/phone"
	"gosembako/internal/repository"
)

var (
	ErrPhoneExists  = errors.New("phone already registered")
	ErrInvalidCreds = errors.New("invalid phone or PIN")
	ErrInvalidPIN   = errors.New("PIN must be exactly 6 digits")
)

var pinPattern = regexp.MustCompile(`^[0-9]{6}$`)

// AuthService handles phone + PIN registration and login. Registration goes
// through the directory so a referred signup gets its referrer attached the
// same way an order-first signup does.
type AuthService struct {
	cfg       *config.Config
	users     *repository.UserRepository
	directory *Directory
	log       logging.Logger
}

func NewAuthService(cfg *config.Config, users *repository.UserRepository, directory *Directory, log logging.Logger) *AuthService {
	return &AuthService{cfg: cfg, users: users, directory: directory, log: log}
}

func (s *AuthService) Register(ctx context.Context, rawPhone, name, pin string) (*models.User, string, string, error) {
	if !pinPattern.MatchString(pin) {
		return nil, "", "", ErrInvalidPIN
	}
	user, created, err := s.directory.FindOrCreate(ctx, rawPhone, name)
	if err != nil {
		return nil, "", "", err
	}
	if !created {
		return nil, "", "", ErrPhoneExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", "", err
	}
	if err := s.users.SetPINHash(ctx, user.UserID, string(hash)); err != nil {
		return nil, "", "", err
	}
	user.PINHash = string(hash)

	access, refresh, err := s.issueTokens(user)
	return user, access, refresh, err
}

func (s *AuthService) Login(ctx context.Context, rawPhone, pin string) (*models.User, string, string, error) {
	canonical, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	storePhone, err := phone.ForStore(canonical, repository.SheetUsers)
	if err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	user, err := s.users.FindByPhone(ctx, storePhone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	if user.PINHash == "" {
		return nil, "", "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(pin)); err != nil {
		return nil, "", "", ErrInvalidCreds
	}

	// Best-effort; a failed touch must not fail the login.
	at := time.Now().Format(models.TimeLayout)
	if err := s.users.TouchLastLogin(ctx, user.UserID, at); err != nil {
		s.log.Warn(ctx, "last_login touch failed", "user_id", user.UserID, "err", err)
	}

	access, refresh, err := s.issueTokens(user)
	return user, access, refresh, err
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, string, string, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, "", "", ErrInvalidCreds
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", "", ErrInvalidCreds
		}
		return nil, "", "", err
	}
	access, refresh, err := s.issueTokens(user)
	return user, access, refresh, err
}

func (s *AuthService) issueTokens(u *models.User) (string, string, error) {
	access, err := auth.GenerateAccessToken(&s.cfg.JWT, u.UserID, u.Phone)
	if err != nil {
		return "", "", err
	}
	refresh, err := auth.GenerateRefreshToken(&s.cfg.JWT, u.UserID)
	if err != nil {
		return access, "", err
	}
	return access, refresh, nil
}
