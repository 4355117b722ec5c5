package receipt

import (
	"errors"
	"time"
)

// Receipt represents a saved expense belonging to a user. Amounts are
// stored in cents; Total is the amount plus tax at the rate configured
// when the receipt was created.
type Receipt struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Amount      int       `json:"amount"` // Pre-tax amount in cents
	Total       int       `json:"total"`  // Amount plus tax in cents
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Sentinel errors that handlers map to HTTP status codes.
var (
	ErrNotFound     = errors.New("receipt not found")
	ErrForbidden    = errors.New("receipt belongs to another user")
	ErrInvalidInput = errors.New("invalid input")
)
