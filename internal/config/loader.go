package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override except the API key.
const EnvPrefix = "IMAGE_CAPTIONER_"

// Loader assembles a Config.
type Loader struct {
	path       string
	useDotEnv  bool
	dotEnvPath string
}

// NewLoader creates a loader that reads .env from the working directory.
func NewLoader() *Loader {
	return &Loader{useDotEnv: true}
}

// WithPath sets the YAML file to read. An empty path skips the file.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading the
// environment. An empty path means ".env".
func (l *Loader) WithDotEnv(enabled bool, path string) *Loader {
	l.useDotEnv = enabled
	l.dotEnvPath = path
	return l
}

// Load builds the configuration and validates it.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		if err := l.loadDotEnv(); err != nil {
			return nil, err
		}
	}

	cfg := Default()

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", l.path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads .env without overriding variables already set. A missing
// file is not an error.
func (l *Loader) loadDotEnv() error {
	path := l.dotEnvPath
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides cfg from the environment.
func applyEnv(cfg *Config) error {
	// API_KEY matches the variable the web client used; GEMINI_API_KEY is
	// accepted when it is absent.
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.Caption.APIKey = v
	} else if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Caption.APIKey = v
	}

	setString(&cfg.Caption.BaseURL, "BASE_URL")
	setString(&cfg.Caption.Model, "MODEL")
	setString(&cfg.Caption.DeepModel, "DEEP_MODEL")
	setString(&cfg.Speech.Voice, "VOICE")
	setString(&cfg.OCR.Language, "OCR_LANG")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.File, "LOG_FILE")

	if v, ok := lookup("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Caption.Timeout = d
	}
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_UPLOAD_BYTES: %w", EnvPrefix, err)
		}
		cfg.Upload.MaxBytes = n
	}
	if v, ok := lookup("OCR"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sOCR: %w", EnvPrefix, err)
		}
		cfg.OCR.Enabled = enabled
	}
	return nil
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}
