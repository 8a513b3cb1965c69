package caption

import (
	"context"
	"fmt"

	"github.com/ironsheep/image-captioner/internal/imaging"
)

// Mode selects the prompt and model used for a caption.
type Mode string

const (
	ModeCreative Mode = "creative"
	ModeFactual  Mode = "factual"
	ModeDeep     Mode = "deep"
)

// ParseMode converts a tool argument into a Mode. The empty string selects
// ModeCreative.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeCreative:
		return ModeCreative, nil
	case ModeFactual:
		return ModeFactual, nil
	case ModeDeep:
		return ModeDeep, nil
	default:
		return "", fmt.Errorf("invalid mode: %s (must be creative, factual, or deep)", s)
	}
}

// Grounded reports whether the mode uses OCR and palette hints.
func (m Mode) Grounded() bool {
	return m == ModeFactual || m == ModeDeep
}

// Hints carry locally extracted facts that ground factual and deep captions.
type Hints struct {
	Text    string
	Palette string
}

// Request describes a single caption request.
type Request struct {
	Image imaging.Payload
	Mode  Mode
	Hints Hints
}

// Result is a complete caption.
type Result struct {
	Text  string `json:"text"`
	Mode  Mode   `json:"mode"`
	Model string `json:"model"`
}

// Speech is synthesized audio for a caption.
type Speech struct {
	AudioBase64 string `json:"audio_base64"`
	MimeType    string `json:"mime_type"`
	Voice       string `json:"voice"`
}

// Service is the remote collaborator the upload panel depends on.
type Service interface {
	Generate(ctx context.Context, req Request) (*Result, error)
	Stream(ctx context.Context, req Request) (*Stream, error)
	Speak(ctx context.Context, text string) (*Speech, error)
	ExplainError(ctx context.Context, err error) string
}
