package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/image-captioner/internal/imaging"
)

const (
	// DefaultLanguage is the Tesseract language used when none is configured.
	DefaultLanguage = "eng"

	// DefaultMinConfidence is the word confidence below which words are
	// dropped from Result.Text.
	DefaultMinConfidence = 0.6
)

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Word is a recognised word with its location and OCR confidence.
type Word struct {
	// Text is the recognized word.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around this word in the image.
	Bounds Bounds `json:"bounds"`
}

// Result contains the text found in an image.
type Result struct {
	// FullText is all recognized text with original spacing/newlines.
	FullText string `json:"full_text"`

	// Words contains the confident words in reading order. It is nil when
	// bounding box extraction failed (text will still be in FullText).
	Words []Word `json:"words"`
}

// Text returns the confident words joined by single spaces. When word boxes
// could not be extracted (Words is nil) it falls back to the trimmed FullText.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	if r.Words == nil {
		return strings.Join(strings.Fields(r.FullText), " ")
	}
	parts := make([]string, 0, len(r.Words))
	for _, w := range r.Words {
		parts = append(parts, w.Text)
	}
	return strings.Join(parts, " ")
}

// Reader extracts text from in-memory images with Tesseract.
type Reader struct {
	language      string
	minConfidence float64
}

// NewReader creates a Reader for the given Tesseract language code.
//
// Parameters:
//   - language: Tesseract language code such as "eng". Empty selects
//     DefaultLanguage. The language data must be installed on the system.
//   - minConfidence: Words scoring below this (0-1) are dropped. Values <= 0
//     select DefaultMinConfidence.
func NewReader(language string, minConfidence float64) *Reader {
	if language == "" {
		language = DefaultLanguage
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Reader{language: language, minConfidence: minConfidence}
}

// Language returns the configured Tesseract language.
func (r *Reader) Language() string {
	return r.language
}

// ReadText performs OCR on img.
//
// The image is encoded as PNG and handed to Tesseract from memory. OCR is
// CPU-bound and cannot be interrupted; if ctx is cancelled first, ReadText
// returns ctx.Err() and the recognition result is discarded.
//
// If word-level bounding box extraction fails, the full text is still
// returned with a nil Words slice.
func (r *Reader) ReadText(ctx context.Context, img image.Image) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		result *Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := r.recognize(data)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.result, o.err
	}
}

func (r *Reader) recognize(data []byte) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return &Result{FullText: text}, nil
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		words = append(words, Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Bounds: Bounds{
				X1: box.Box.Min.X,
				Y1: box.Box.Min.Y,
				X2: box.Box.Max.X,
				Y2: box.Box.Max.Y,
			},
		})
	}

	return &Result{
		FullText: text,
		Words:    filterWords(words, r.minConfidence),
	}, nil
}

// filterWords drops blank words and words below minConfidence.
func filterWords(words []Word, minConfidence float64) []Word {
	kept := make([]Word, 0, len(words))
	for _, w := range words {
		w.Text = strings.TrimSpace(w.Text)
		if w.Text == "" || w.Confidence < minConfidence {
			continue
		}
		kept = append(kept, w)
	}
	return kept
}
