package user

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDGenerator generates unique IDs for users
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// CodeGenerator produces verification codes and reset tokens
type CodeGenerator interface {
	// VerificationCode returns a 6-digit code
	VerificationCode() string

	// ResetToken returns a 32-byte random token in hex
	ResetToken() string
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

type defaultCodeGenerator struct{}

func (g *defaultCodeGenerator) VerificationCode() string {
	// 6 digits, 100000-999999
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		panic(fmt.Sprintf("reading random source: %v", err))
	}
	return fmt.Sprintf("%d", n.Int64()+100000)
}

func (g *defaultCodeGenerator) ResetToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("reading random source: %v", err))
	}
	return hex.EncodeToString(buf)
}

const (
	codeTTL       = 10 * time.Minute
	resetTokenTTL = time.Hour
)

// Service handles account operations
type Service struct {
	db          DB
	mailer      Mailer
	tokens      *TokenIssuer
	idGenerator IDGenerator
	timeSource  TimeSource
	codes       CodeGenerator
}

// NewService creates a new Service with default generators and time source
func NewService(db DB, mailer Mailer, tokens *TokenIssuer) *Service {
	return &Service{
		db:          db,
		mailer:      mailer,
		tokens:      tokens,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
		codes:       &defaultCodeGenerator{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, mailer Mailer, tokens *TokenIssuer, idGen IDGenerator, timeSrc TimeSource, codes CodeGenerator) *Service {
	return &Service{
		db:          db,
		mailer:      mailer,
		tokens:      tokens,
		idGenerator: idGen,
		timeSource:  timeSrc,
		codes:       codes,
	}
}

// SignupInput carries the fields accepted at signup.
type SignupInput struct {
	FullName   string `json:"full_name"`
	Age        int    `json:"age"`
	Email      string `json:"email"`
	CellNumber string `json:"cell_number"`
	Password   string `json:"password"`
}

func (in *SignupInput) validate() error {
	if strings.TrimSpace(in.FullName) == "" {
		return fmt.Errorf("%w: full name is required", ErrInvalidInput)
	}
	if in.Age < 0 {
		return fmt.Errorf("%w: age must be a non-negative integer", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if in.CellNumber == "" || strings.ContainsFunc(in.CellNumber, func(r rune) bool {
		return r < '0' || r > '9'
	}) {
		return fmt.Errorf("%w: cell number must contain only digits", ErrInvalidInput)
	}
	return ValidatePasswordStrength(in.Password)
}

// Signup creates a pending account, stores a verification code and mails
// it to the new user. Mail delivery failure does not fail the signup; the
// code can be re-sent later.
func (s *Service) Signup(in SignupInput) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.db.GetUserByEmail(email); err == nil {
		return nil, ErrEmailInUse
	} else if err != ErrNotFound {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.timeSource.Now()
	u := &User{
		ID:               s.idGenerator.Generate(),
		FullName:         strings.TrimSpace(in.FullName),
		Age:              in.Age,
		Email:            email,
		CellNumber:       in.CellNumber,
		Status:           StatusPendingActivation,
		PasswordHash:     hash,
		VerificationCode: s.codes.VerificationCode(),
		CodeExpiresAt:    now.Add(codeTTL),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.db.SaveUser(u); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}

	if err := s.mailer.SendVerificationCode(u.Email, u.VerificationCode); err != nil {
		slog.Warn("Failed to send verification code", "email", u.Email, "error", err)
	}

	return u, nil
}

// Login verifies credentials and returns the user with a bearer token.
// Accounts that have not validated their verification code cannot log in.
func (s *Service) Login(email, password string) (*User, string, error) {
	u, err := s.db.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == ErrNotFound {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("getting user: %w", err)
	}

	if !CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	if u.Status != StatusActive {
		return nil, "", ErrNotActivated
	}

	token, err := s.tokens.Issue(u.ID, u.Email, s.timeSource.Now())
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ValidateCode checks a verification code and activates the account,
// returning a bearer token. An already active account is a no-op success
// with an empty token.
func (s *Service) ValidateCode(email, code string) (string, error) {
	u, err := s.db.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == ErrNotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting user: %w", err)
	}

	// Re-validating an already activated account is a no-op success. The
	// stored code is cleared on activation, so this must come before the
	// code comparison.
	if u.Status != StatusPendingActivation {
		return "", nil
	}

	if u.VerificationCode == "" || u.VerificationCode != code {
		return "", ErrInvalidCode
	}

	now := s.timeSource.Now()
	if now.After(u.CodeExpiresAt) {
		return "", ErrCodeExpired
	}

	u.Status = StatusActive
	u.VerificationCode = ""
	u.UpdatedAt = now
	if err := s.db.SaveUser(u); err != nil {
		return "", fmt.Errorf("activating user: %w", err)
	}

	return s.tokens.Issue(u.ID, u.Email, now)
}

// ResendCode generates a fresh verification code for a pending account and
// mails it. Active accounts are a no-op.
func (s *Service) ResendCode(email string) error {
	u, err := s.db.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("getting user: %w", err)
	}

	if u.Status != StatusPendingActivation {
		return nil
	}

	now := s.timeSource.Now()
	u.VerificationCode = s.codes.VerificationCode()
	u.CodeExpiresAt = now.Add(codeTTL)
	u.UpdatedAt = now
	if err := s.db.SaveUser(u); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}

	if err := s.mailer.SendVerificationCode(u.Email, u.VerificationCode); err != nil {
		return fmt.Errorf("sending verification code: %w", err)
	}
	return nil
}

// RequestPasswordReset stores a reset token for an active account and
// mails it.
func (s *Service) RequestPasswordReset(email string) error {
	u, err := s.db.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("getting user: %w", err)
	}
	if u.Status != StatusActive {
		return ErrNotActivated
	}

	now := s.timeSource.Now()
	u.ResetToken = s.codes.ResetToken()
	u.ResetTokenExpiresAt = now.Add(resetTokenTTL)
	u.UpdatedAt = now
	if err := s.db.SaveUser(u); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}

	if err := s.mailer.SendPasswordReset(u.Email, u.ResetToken); err != nil {
		return fmt.Errorf("sending reset token: %w", err)
	}
	return nil
}

// ResetPassword replaces the password after validating the reset token.
func (s *Service) ResetPassword(email, resetToken, newPassword string) error {
	u, err := s.db.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("getting user: %w", err)
	}
	if u.Status != StatusActive {
		return ErrNotActivated
	}

	now := s.timeSource.Now()
	if u.ResetToken == "" || now.After(u.ResetTokenExpiresAt) {
		return ErrInvalidResetToken
	}
	if subtle.ConstantTimeCompare([]byte(resetToken), []byte(u.ResetToken)) != 1 {
		return ErrInvalidResetToken
	}

	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	u.PasswordHash = hash
	u.ResetToken = ""
	u.ResetTokenExpiresAt = time.Time{}
	u.UpdatedAt = now
	if err := s.db.SaveUser(u); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// Delete removes an active account by ID.
func (s *Service) Delete(id string) error {
	u, err := s.db.GetUserByID(id)
	if err != nil {
		if err == ErrNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("getting user: %w", err)
	}
	if u.Status != StatusActive {
		return ErrNotActivated
	}

	if err := s.db.DeleteUser(id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID.
func (s *Service) Get(id string) (*User, error) {
	u, err := s.db.GetUserByID(id)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// List returns the API-safe view of every user.
func (s *Service) List() ([]Public, error) {
	users, err := s.db.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	public := make([]Public, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	return public, nil
}

// Tokens exposes the token issuer for the HTTP auth middleware.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}
