// internal/domain/user/profile.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/apperror"
	"gorm.io/gorm"
)

// Profile is the contact record a user keeps alongside the account
type Profile struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Email     string    `gorm:"size:255" json:"email"`
	Address   string    `gorm:"size:255" json:"address"`
	City      string    `gorm:"size:100" json:"city"`
	State     string    `gorm:"size:100" json:"state"`
	Zip       string    `gorm:"size:20" json:"zip"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name for Profile
func (Profile) TableName() string {
	return "profiles"
}

// UpdateProfileRequest carries the profile fields to change; absent fields are kept
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" binding:"omitempty,max=20"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email,max=255"`
	Address   *string `json:"address,omitempty" binding:"omitempty,max=255"`
	City      *string `json:"city,omitempty" binding:"omitempty,max=100"`
	State     *string `json:"state,omitempty" binding:"omitempty,max=100"`
	Zip       *string `json:"zip,omitempty" binding:"omitempty,max=20"`
}

func (r *UpdateProfileRequest) updates() map[string]interface{} {
	updates := make(map[string]interface{})
	set := func(column string, v *string) {
		if v != nil {
			updates[column] = strings.TrimSpace(*v)
		}
	}
	set("first_name", r.FirstName)
	set("last_name", r.LastName)
	set("phone", r.Phone)
	set("address", r.Address)
	set("city", r.City)
	set("state", r.State)
	set("zip", r.Zip)
	if r.Email != nil {
		updates["email"] = NormalizeEmail(*r.Email)
	}
	return updates
}

// Profile returns the user's profile
func (s *Service) Profile(ctx context.Context, userID uint) (*Profile, error) {
	var p Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("profile not found")
		}
		return nil, fmt.Errorf("failed to retrieve profile: %w", err)
	}
	return &p, nil
}

// UpdateProfile applies req to the user's profile and returns the stored result
func (s *Service) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*Profile, error) {
	updates := req.updates()
	if len(updates) == 0 {
		return s.Profile(ctx, userID)
	}
	updates["updated_at"] = time.Now().UTC()

	result := s.db.WithContext(ctx).Model(&Profile{}).Where("user_id = ?", userID).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.NotFound("profile not found")
	}

	s.log.WithField("user_id", userID).Info("profile updated")
	return s.Profile(ctx, userID)
}
