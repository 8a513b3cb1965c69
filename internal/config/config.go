// Package config loads image-captioner settings from defaults, an optional
// YAML file, a .env file and the environment, in that order of precedence
// (later sources win).
package config

import (
	"fmt"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Config is the complete runtime configuration.
type Config struct {
	Caption CaptionConfig `yaml:"caption"`
	Speech  SpeechConfig  `yaml:"speech"`
	Upload  UploadConfig  `yaml:"upload"`
	Preview PreviewConfig `yaml:"preview"`
	OCR     OCRConfig     `yaml:"ocr"`
	Log     LogConfig     `yaml:"log"`
}

// CaptionConfig configures the caption service.
type CaptionConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	DeepModel string        `yaml:"deep_model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SpeechConfig configures speech synthesis.
type SpeechConfig struct {
	Voice string `yaml:"voice"`
}

// UploadConfig limits what can be selected.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
	// MaxSide and MaxPixels bound decoded dimensions, checked from the
	// image header before decoding.
	MaxSide   int   `yaml:"max_side"`
	MaxPixels int64 `yaml:"max_pixels"`
	// PayloadMaxDim is the longest side sent to the model; larger images
	// are downscaled.
	PayloadMaxDim int `yaml:"payload_max_dim"`
}

// PreviewConfig sizes the rendered viewport surface.
type PreviewConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	MaxSide    int    `yaml:"max_side"`
	Background string `yaml:"background"`
}

// OCRConfig configures text hints for factual and deep captions.
type OCRConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Language      string  `yaml:"language"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Caption.Timeout <= 0 {
		return fmt.Errorf("caption.timeout must be positive, got %s", c.Caption.Timeout)
	}
	if c.Caption.MaxTokens < 0 {
		return fmt.Errorf("caption.max_tokens must not be negative, got %d", c.Caption.MaxTokens)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.Upload.MaxSide <= 0 || c.Upload.MaxPixels <= 0 {
		return fmt.Errorf("upload.max_side and upload.max_pixels must be positive, got %d and %d", c.Upload.MaxSide, c.Upload.MaxPixels)
	}
	if c.Upload.PayloadMaxDim < 0 {
		return fmt.Errorf("upload.payload_max_dim must not be negative, got %d", c.Upload.PayloadMaxDim)
	}
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		return fmt.Errorf("preview size must be positive, got %dx%d", c.Preview.Width, c.Preview.Height)
	}
	if c.Preview.MaxSide < c.Preview.Width || c.Preview.MaxSide < c.Preview.Height {
		return fmt.Errorf("preview.max_side %d is smaller than the default preview %dx%d", c.Preview.MaxSide, c.Preview.Width, c.Preview.Height)
	}
	if _, err := colorful.Hex(c.Preview.Background); err != nil {
		return fmt.Errorf("preview.background: invalid hex color %q", c.Preview.Background)
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr.min_confidence must be between 0 and 1, got %v", c.OCR.MinConfidence)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
