package config

import "time"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Caption: CaptionConfig{
			BaseURL:   "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:     "gemini-2.5-flash",
			DeepModel: "gemini-2.5-pro",
			Timeout:   60 * time.Second,
		},
		Speech: SpeechConfig{
			Voice: "en-US-AriaNeural",
		},
		Upload: UploadConfig{
			MaxBytes:      10 << 20,
			MaxSide:       16384,
			MaxPixels:     40_000_000,
			PayloadMaxDim: 2048,
		},
		Preview: PreviewConfig{
			Width:      640,
			Height:     320,
			MaxSide:    4096,
			Background: "#111827",
		},
		OCR: OCRConfig{
			Enabled:       true,
			Language:      "eng",
			MinConfidence: 0.6,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
