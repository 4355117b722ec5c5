package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ofarias/receipt-tracker/internal/extract"
	"github.com/ofarias/receipt-tracker/internal/ocr"
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations
type Service struct {
	db          DB
	engine      ocr.Engine
	storage     Storage
	taxRate     float64
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, engine ocr.Engine, storage Storage, taxRate float64) *Service {
	return &Service{
		db:          db,
		engine:      engine,
		storage:     storage,
		taxRate:     taxRate,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, engine ocr.Engine, storage Storage, taxRate float64, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		engine:      engine,
		storage:     storage,
		taxRate:     taxRate,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// CreateInput carries the fields accepted when saving a receipt. Amount is
// the pre-tax value in dollars; Filename optionally references the stored
// image from a prior scan.
type CreateInput struct {
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
}

// Create validates and saves a new receipt for the given owner. The total
// is computed from the amount at the service's tax rate.
func (s *Service) Create(ownerID string, in CreateInput) (*Receipt, error) {
	if in.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must be a positive number", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}

	now := s.timeSource.Now()
	date := now
	if in.Date != "" {
		parsed, err := time.Parse("2006-01-02", in.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrInvalidInput)
		}
		date = parsed
	}

	total, err := extract.TotalWithTax(in.Amount, s.taxRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	receipt := &Receipt{
		ID:          s.idGenerator.Generate(),
		OwnerID:     ownerID,
		Amount:      toCents(in.Amount),
		Total:       toCents(total),
		Date:        date,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Filename:    in.Filename,
		ContentType: in.ContentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		return nil, fmt.Errorf("saving receipt: %w", err)
	}
	return receipt, nil
}

// ScanResult is the outcome of scanning an uploaded receipt image: the
// extracted fields plus the stored file, which a later Create call may
// attach to the saved receipt.
type ScanResult struct {
	Parsed      extract.ParsedReceipt `json:"parsed"`
	Filename    string                `json:"filename"`
	ContentType string                `json:"content_type"`
}

// Scan stores the uploaded image, sends it to the OCR engine and runs
// field extraction over the recognized lines. The stored file is removed
// again if the OCR call fails.
func (s *Service) Scan(ctx context.Context, filename string, data []byte, contentType string) (*ScanResult, error) {
	id := s.idGenerator.Generate()

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	lines, err := s.engine.Recognize(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to recognize receipt text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("recognizing receipt: %w", err)
	}

	return &ScanResult{
		Parsed:      extract.Extract(lines),
		Filename:    savedPath,
		ContentType: contentType,
	}, nil
}

// Get retrieves a receipt by ID, checking ownership.
func (s *Service) Get(ownerID, id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, err
	}
	if receipt.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return receipt, nil
}

// ListByOwner returns the receipts of one user, newest first.
func (s *Service) ListByOwner(ownerID string) ([]*Receipt, error) {
	all, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	receipts := make([]*Receipt, 0)
	for _, r := range all {
		if r.OwnerID == ownerID {
			receipts = append(receipts, r)
		}
	}
	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].Date.After(receipts[j].Date)
	})
	return receipts, nil
}

// Delete removes a receipt and its stored file, checking ownership.
func (s *Service) Delete(ownerID, id string) error {
	receipt, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}

	if receipt.Filename != "" {
		if err := s.storage.Delete(receipt.Filename); err != nil {
			slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
		}
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt: %w", err)
	}
	return nil
}

// GetFile retrieves the stored image for a receipt, checking ownership.
func (s *Service) GetFile(ownerID, id string) ([]byte, string, error) {
	receipt, err := s.Get(ownerID, id)
	if err != nil {
		return nil, "", err
	}
	if receipt.Filename == "" {
		return nil, "", ErrNotFound
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt file: %w", err)
	}
	return data, receipt.ContentType, nil
}

func toCents(dollars float64) int {
	return int(math.Round(dollars * 100))
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaceRuns   = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and
// truncating length; phone cameras produce long, messy names.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeChars.ReplaceAllString(base, "")
	base = spaceRuns.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	const maxLen = 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}
