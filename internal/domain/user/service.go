// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/infrastructure/database"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Service handles user registration, login and identity lookups
type Service struct {
	db        *gorm.DB
	passwords *auth.PasswordManager
	tokens    *auth.JWTManager
	log       *logrus.Logger
}

// NewService creates a new user service
func NewService(db *gorm.DB, passwords *auth.PasswordManager, tokens *auth.JWTManager, log *logrus.Logger) *Service {
	return &Service{
		db:        db,
		passwords: passwords,
		tokens:    tokens,
		log:       log,
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

var errBadCredentials = apperror.Unauthorized("invalid email or password")

// Register creates a regular (non-admin) account with its profile and signs it in
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, apperror.InvalidArgument("passwords do not match")
	}

	hashed, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := User{
		Email:       NormalizeEmail(req.Email),
		Password:    hashed,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		IsActive:    true,
		LastLoginAt: &now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		return tx.Create(&Profile{
			UserID:    u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		}).Error
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperror.Conflict("user with this email already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.WithField("user_id", u.ID).Info("user registered")
	return s.issue(&u)
}

// Login authenticates an active user by email and password
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var u User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", NormalizeEmail(req.Email), true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.passwords.VerifyPassword(req.Password, u.Password) {
		return nil, errBadCredentials
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&u).Update("last_login_at", now).Error; err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Warn("failed to record last login")
	}
	u.LastLoginAt = &now

	return s.issue(&u)
}

// Active resolves the account behind a token. Deleted or deactivated
// accounts are reported as Unauthorized.
func (s *Service) Active(ctx context.Context, userID uint) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", userID, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("user not found or inactive")
		}
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return &u, nil
}

func (s *Service) issue(u *User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateAccessToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &AuthResponse{
		User:        u,
		AccessToken: token,
		ExpiresIn:   int64(s.tokens.Expiry().Seconds()),
	}, nil
}
