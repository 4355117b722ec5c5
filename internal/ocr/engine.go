package ocr

import "context"

// Engine is the external OCR collaborator. It receives image bytes and
// returns the detected text lines in top-to-bottom reading order. The
// lines carry no guarantee of correctness; downstream classification is
// expected to tolerate OCR noise.
type Engine interface {
	Recognize(ctx context.Context, imageData []byte, contentType string) ([]string, error)
}
