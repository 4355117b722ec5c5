package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// HTTPEngine implements Engine against an OCR service reachable over HTTP,
// such as the PaddleOCR sidecar. The image is uploaded as a multipart form
// and the service answers with the recognized text lines.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEngine creates an HTTPEngine for the given base URL.
func NewHTTPEngine(baseURL string) (*HTTPEngine, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	return &HTTPEngine{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second, // OCR on large photos can be slow
		},
	}, nil
}

// ocrResponse is the wire format of the OCR service. Older deployments
// return a single text blob instead of pre-split lines.
type ocrResponse struct {
	Lines []string `json:"lines"`
	Text  string   `json:"text"`
}

// Recognize uploads the image and returns its text lines. Transient
// failures (connection errors, 5xx) are retried a few times before giving
// up; 4xx responses fail immediately.
func (e *HTTPEngine) Recognize(ctx context.Context, imageData []byte, contentType string) ([]string, error) {
	// Normalize to PNG so the OCR service never sees HEIC or PDF input.
	pngData, err := preparePNG(imageData, contentType)
	if err != nil {
		return nil, err
	}

	var lines []string
	err = retry.Do(
		func() error {
			var attemptErr error
			lines, attemptErr = e.recognizeOnce(ctx, pngData)
			return attemptErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.RetryIf(func(err error) bool {
			var pe *permanentError
			return !errors.As(err, &pe)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("calling ocr service: %w", err)
	}
	return lines, nil
}

func (e *HTTPEngine) recognizeOnce(ctx context.Context, pngData []byte) ([]string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "receipt.png")
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(pngData); err != nil {
		return nil, fmt.Errorf("writing form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	url := fmt.Sprintf("%s/ocr", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("ocr service error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, &permanentError{err: err}
		}
		return nil, err
	}

	var ocrResp ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return nil, &permanentError{err: fmt.Errorf("decoding response: %w", err)}
	}

	lines := ocrResp.Lines
	if lines == nil && ocrResp.Text != "" {
		lines = strings.Split(ocrResp.Text, "\n")
	}

	// Trim here so every consumer sees clean lines.
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, strings.TrimSpace(line))
	}
	return cleaned, nil
}

// permanentError marks failures that retrying cannot fix.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }

func (p *permanentError) Unwrap() error { return p.err }
