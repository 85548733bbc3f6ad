package auth

import "errors"

// LoginDTO represents the login request payload
type LoginDTO struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// Validate validates the LoginDTO
func (dto LoginDTO) Validate() error {
	if dto.Email == "" {
		return errors.New("email is required")
	}
	if dto.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// ForgotPasswordDTO represents the forgot-password request payload
type ForgotPasswordDTO struct {
	Email string `json:"email" validate:"required,email"`
}

func (dto ForgotPasswordDTO) Validate() error {
	if dto.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

// ResetPasswordDTO represents the reset-password request payload
type ResetPasswordDTO struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

func (dto ResetPasswordDTO) Validate() error {
	if dto.Token == "" {
		return errors.New("token is required")
	}
	if len(dto.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// VerifyEmailDTO represents the email verification payload
type VerifyEmailDTO struct {
	Token string `json:"token" validate:"required"`
}

func (dto VerifyEmailDTO) Validate() error {
	if dto.Token == "" {
		return errors.New("token is required")
	}
	return nil
}
