package payload

import "time"

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=35,alphanum"`
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type RegisterResponse struct {
	Account AccountResponse `json:"account"`
	// EmailSent is false when the activation e-mail could not be delivered.
	EmailSent bool `json:"email_sent"`
}

type ResendConfirmationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ConfirmEmailResponse struct {
	Kind    string          `json:"kind"`
	Account AccountResponse `json:"account"`
}

type LoginRequest struct {
	Email      string `json:"email"       validate:"required,email"`
	Password   string `json:"password"    validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type LoginResponse struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Reactivated bool      `json:"reactivated"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=128,nefield=CurrentPassword"`
}

type ChangeEmailRequest struct {
	Password string `json:"password"  validate:"required"`
	NewEmail string `json:"new_email" validate:"required,email,max=254"`
}

type TerminateRequest struct {
	Password string `json:"password" validate:"required"`
	State    string `json:"state"    validate:"required,oneof=freeze delete"`
}

type TerminateResponse struct {
	State       string    `json:"state"`
	RequestedAt time.Time `json:"requested_at"`
}

type AccountResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Active   bool   `json:"active"`
}

type StatusResponse struct {
	Account     AccountResponse `json:"account"`
	State       string          `json:"state"`
	RequestedAt *time.Time      `json:"requested_at,omitempty"`
	DeletesAt   *time.Time      `json:"deletes_at,omitempty"`
	LastLoginAt *time.Time      `json:"last_login_at,omitempty"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
