package dto

import "github.com/usiug6/auth-service/internal/domain/auth/model"

type RegisterDTO struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName"  validate:"required,max=100"`
	Email     string `json:"email"     validate:"required,email,max=120"`
	Password  string `json:"password"  validate:"required"`
}

type LoginDTO struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordDTO struct {
	Token       string `json:"token"       validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type UserDTO struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type SessionResponse struct {
	Message     string  `json:"message"`
	AccessToken string  `json:"access_token"`
	User        UserDTO `json:"user"`
}

type UserResponse struct {
	User UserDTO `json:"user"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func FromUser(u model.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
	}
}
