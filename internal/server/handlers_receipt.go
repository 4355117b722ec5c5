package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ofarias/receipt-tracker/internal/receipt"
)

// maxUploadSize caps receipt image uploads; high resolution phone photos
// can be large.
const maxUploadSize = int64(50 << 20) // 50MB

func (s *Server) receiptError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, receipt.ErrInvalidInput):
		corsError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, receipt.ErrForbidden):
		corsError(w, "Forbidden: you cannot view receipts of other users", http.StatusForbidden)
	case errors.Is(err, receipt.ErrNotFound):
		corsError(w, "Receipt not found", http.StatusNotFound)
	default:
		slog.Error("Receipt operation failed", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleCreateReceipt saves a new receipt for the authenticated user
func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var in receipt.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.receipts.Create(claimsFrom(r).UserID, in)
	if err != nil {
		s.receiptError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleListReceipts returns the authenticated user's receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.receipts.ListByOwner(claimsFrom(r).UserID)
	if err != nil {
		s.receiptError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Receipt ID required", http.StatusBadRequest)
		return
	}

	found, err := s.receipts.Get(claimsFrom(r).UserID, id)
	if err != nil {
		s.receiptError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

// handleGetReceiptFile returns the stored image for a receipt
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Receipt ID required", http.StatusBadRequest)
		return
	}

	data, contentType, err := s.receipts.GetFile(claimsFrom(r).UserID, id)
	if err != nil {
		s.receiptError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteReceipt deletes a receipt and its stored file
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Receipt ID required", http.StatusBadRequest)
		return
	}

	if err := s.receipts.Delete(claimsFrom(r).UserID, id); err != nil {
		s.receiptError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleScanReceipt accepts an uploaded receipt image, runs it through the
// OCR engine and returns the extracted fields for review before saving
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			msg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		corsError(w, msg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		corsError(w, "No file was selected. Please choose a file to upload.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		corsError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		corsError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromExt(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	result, err := s.receipts.Scan(r.Context(), header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error scanning receipt", "filename", header.Filename, "error", err)
		corsError(w, "Failed to scan receipt image", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
