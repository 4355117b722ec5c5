package user

import (
	"errors"
	"time"
)

// Status is the activation state of an account. New accounts start pending
// and become active once their verification code is validated.
type Status string

const (
	StatusPendingActivation Status = "pending_activation"
	StatusActive            Status = "active"
)

// User represents an account as persisted. Credential and code fields are
// stored alongside the profile; API responses use Public instead.
type User struct {
	ID                  string    `json:"id"`
	FullName            string    `json:"full_name"`
	Age                 int       `json:"age"`
	Email               string    `json:"email"`
	CellNumber          string    `json:"cell_number"`
	Status              Status    `json:"status"`
	PasswordHash        string    `json:"password_hash"`
	VerificationCode    string    `json:"verification_code,omitempty"`
	CodeExpiresAt       time.Time `json:"code_expires_at"`
	ResetToken          string    `json:"reset_token,omitempty"`
	ResetTokenExpiresAt time.Time `json:"reset_token_expires_at"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Public is the API-safe view of a user, with credentials, verification
// codes and reset tokens stripped.
type Public struct {
	ID         string    `json:"id"`
	FullName   string    `json:"full_name"`
	Age        int       `json:"age"`
	Email      string    `json:"email"`
	CellNumber string    `json:"cell_number"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// Public returns the API-safe view of the user.
func (u *User) Public() Public {
	return Public{
		ID:         u.ID,
		FullName:   u.FullName,
		Age:        u.Age,
		Email:      u.Email,
		CellNumber: u.CellNumber,
		Status:     u.Status,
		CreatedAt:  u.CreatedAt,
	}
}

// Sentinel errors that handlers map to HTTP status codes.
var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailInUse         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotActivated       = errors.New("account not activated")
	ErrInvalidCode        = errors.New("invalid code")
	ErrCodeExpired        = errors.New("code expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrInvalidInput       = errors.New("invalid input")
)
