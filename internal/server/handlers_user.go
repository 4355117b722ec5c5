package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ofarias/receipt-tracker/internal/user"
)

// userErrorStatus maps account service errors to HTTP status codes.
func userErrorStatus(err error) int {
	switch {
	case errors.Is(err, user.ErrInvalidInput),
		errors.Is(err, user.ErrEmailInUse),
		errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrInvalidCode),
		errors.Is(err, user.ErrCodeExpired),
		errors.Is(err, user.ErrInvalidResetToken):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrNotActivated):
		return http.StatusForbidden
	case errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) userError(w http.ResponseWriter, err error) {
	status := userErrorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("User operation failed", "error", err)
		corsError(w, "Internal server error", status)
		return
	}
	corsError(w, err.Error(), status)
}

// handleSignup creates a pending account and mails its verification code
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in user.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, err := s.users.Signup(in)
	if err != nil {
		s.userError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "success",
		"user":   u.Public(),
	})
}

// handleLogin verifies credentials and returns a bearer token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	u, token, err := s.users.Login(req.Email, req.Password)
	if err != nil {
		s.userError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  u.Public(),
		"token": token,
	})
}

// handleValidateCode activates a pending account from its verification code
func (s *Server) handleValidateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Code == "" {
		corsError(w, "Missing mandatory field", http.StatusBadRequest)
		return
	}

	token, err := s.users.ValidateCode(req.Email, req.Code)
	if err != nil {
		s.userError(w, err)
		return
	}

	resp := map[string]any{
		"status":  "success",
		"message": "Code validated. Account activated.",
	}
	if token != "" {
		resp["token"] = token
	} else {
		resp["message"] = "Code validated, but account already active."
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleResendCode generates and mails a fresh verification code
func (s *Server) handleResendCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.users.ResendCode(req.Email); err != nil {
		s.userError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleResetRequest generates and mails a password reset token
func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.users.RequestPasswordReset(req.Email); err != nil {
		s.userError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Password reset token sent",
	})
}

// handleResetPassword replaces the password after validating the reset token
func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		NewPassword string `json:"new_password"`
		ResetToken  string `json:"reset_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ResetToken == "" {
		corsError(w, "Reset token is required", http.StatusBadRequest)
		return
	}

	if err := s.users.ResetPassword(req.Email, req.ResetToken, req.NewPassword); err != nil {
		s.userError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Password reset successfully",
	})
}

// handleListUsers returns the API-safe view of all users
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List()
	if err != nil {
		slog.Error("Error listing users", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleDeleteUser deletes the authenticated user's account
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	if err := s.users.Delete(claims.UserID); err != nil {
		s.userError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "User deleted successfully",
	})
}
