package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/pantau/pantau/internal/domain"
	"github.com/pantau/pantau/internal/store/sqlite"
)

// AuthService checks operator credentials and manages accounts.
type AuthService struct {
	userRepo *sqlite.UserRepository
	cost     int
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo *sqlite.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo, cost: bcrypt.DefaultCost}
}

// Authenticate returns the user whose bcrypt hash matches password.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.NewValidationError([]string{"Username dan password wajib diisi."})
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NewUnauthorizedError("Username tidak ditemukan.")
		}
		return nil, domain.NewInternalError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, domain.NewUnauthorizedError("Password salah.")
		}
		return nil, domain.NewInternalError(err)
	}
	return user, nil
}

// CreateUser adds an operator account.
func (s *AuthService) CreateUser(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.NewValidationError([]string{"Username dan password wajib diisi."})
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, domain.NewValidationError([]string{"Username sudah digunakan."})
	} else if !isNoRows(err) {
		return nil, domain.NewInternalError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    nowUTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, domain.NewInternalError(err)
	}
	return user, nil
}

// SetPassword replaces the password of an existing account.
func (s *AuthService) SetPassword(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.NewValidationError([]string{"Username dan password wajib diisi."})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.NewInternalError(err)
	}
	n, err := s.userRepo.UpdatePassword(ctx, username, string(hash))
	if err != nil {
		return domain.NewInternalError(err)
	}
	if n == 0 {
		return domain.NewUnauthorizedError("Username tidak ditemukan.")
	}
	return nil
}
