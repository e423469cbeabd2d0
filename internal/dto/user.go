package dto

import (
	"time"

	"github.com/SscSPs/referral_vault/internal/core/domain"
)

// SignupRequest defines data for creating a local account.
// Either email or phone must be present.
type SignupRequest struct {
	Email     *string `json:"email" binding:"required_without=Phone,omitempty,email,max=254"`
	Phone     *string `json:"phone" binding:"required_without=Email,omitempty,e164"`
	Password  string  `json:"password" binding:"required,password"`
	FirstName string  `json:"firstName" binding:"max=100"`
	LastName  string  `json:"lastName" binding:"max=100"`
}

// LoginRequest defines the credentials for a local login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest starts the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest redeems a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,password"`
}

// UserResponse is the public view of a user. It never carries credential or
// lockout fields.
type UserResponse struct {
	UserID        string     `json:"id"`
	Email         *string    `json:"email,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Name          string     `json:"name"`
	AvatarURL     *string    `json:"avatar,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	HasPassword   bool       `json:"hasPassword"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ToUserResponse converts domain.User to DTO.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:        user.UserID,
		Email:         user.Email,
		Phone:         user.Phone,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Name:          user.DisplayName(),
		AvatarURL:     user.AvatarURL,
		EmailVerified: user.EmailVerified,
		HasPassword:   user.HasPassword(),
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
	}
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// MessageResponse carries a human readable status.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProvidersResponse lists the OAuth providers enabled on this deployment.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}
