package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ofarias/receipt-tracker/internal/receipt"
	"github.com/ofarias/receipt-tracker/internal/user"
)

// Server handles HTTP requests for accounts and receipts
type Server struct {
	users    *user.Service
	receipts *receipt.Service
	mux      *http.ServeMux
}

// New creates a new Server with default mux
func New(users *user.Service, receipts *receipt.Service) *Server {
	return NewWithMux(users, receipts, http.NewServeMux())
}

// NewWithMux creates a new Server with a custom mux for testing
func NewWithMux(users *user.Service, receipts *receipt.Service, mux *http.ServeMux) *Server {
	s := &Server{
		users:    users,
		receipts: receipts,
		mux:      mux,
	}
	s.registerRoutes()
	return s
}

type contextKey string

const claimsKey contextKey = "claims"

// claimsFrom returns the authenticated user's claims from the request
// context. Only valid inside handlers wrapped with requireAuth.
func claimsFrom(r *http.Request) *user.Claims {
	claims, _ := r.Context().Value(claimsKey).(*user.Claims)
	return claims
}

// requireAuth verifies the bearer token and attaches its claims to the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			corsError(w, "Unauthorized. Token missing or invalid", http.StatusUnauthorized)
			return
		}

		claims, err := s.users.Tokens().Verify(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			corsError(w, "Unauthorized. Token missing or invalid", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// corsError writes a JSON error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// registerRoutes registers all API routes on the server's mux
// Routes must be registered from most specific to least specific to avoid conflicts
func (s *Server) registerRoutes() {
	// API endpoints - users
	s.mux.HandleFunc("POST /api/users/signup", s.handleSignup)
	s.mux.HandleFunc("POST /api/users/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/users/validate-code", s.handleValidateCode)
	s.mux.HandleFunc("POST /api/users/resend-code", s.handleResendCode)
	s.mux.HandleFunc("POST /api/users/reset-request", s.handleResetRequest)
	s.mux.HandleFunc("POST /api/users/reset-password", s.handleResetPassword)
	s.mux.HandleFunc("GET /api/users", s.handleListUsers)
	s.mux.HandleFunc("DELETE /api/users", s.requireAuth(s.handleDeleteUser))

	// API endpoints - receipts (most specific paths first)
	s.mux.HandleFunc("POST /api/receipts/scan", s.requireAuth(s.handleScanReceipt))
	s.mux.HandleFunc("GET /api/receipts/{id}/file", s.requireAuth(s.handleGetReceiptFile))
	s.mux.HandleFunc("GET /api/receipts/{id}", s.requireAuth(s.handleGetReceipt))
	s.mux.HandleFunc("DELETE /api/receipts/{id}", s.requireAuth(s.handleDeleteReceipt))
	s.mux.HandleFunc("GET /api/receipts", s.requireAuth(s.handleListReceipts))
	s.mux.HandleFunc("POST /api/receipts", s.requireAuth(s.handleCreateReceipt))

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// Wrap the mux with CORS middleware to handle all requests including OPTIONS
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
