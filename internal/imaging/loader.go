package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

const (
	// DefaultMaxUploadBytes is the largest upload accepted when no limit is
	// configured (10 MB).
	DefaultMaxUploadBytes int64 = 10 << 20

	// DefaultMaxUploadSide is the longest image side accepted by default.
	DefaultMaxUploadSide = 16384

	// DefaultMaxUploadPixels is the largest pixel count accepted by default.
	DefaultMaxUploadPixels int64 = 40_000_000
)

// Limits bound what an upload may be. Zero fields select the defaults.
type Limits struct {
	MaxBytes  int64
	MaxSide   int
	MaxPixels int64
}

func (l Limits) withDefaults() Limits {
	if l.MaxBytes <= 0 {
		l.MaxBytes = DefaultMaxUploadBytes
	}
	if l.MaxSide <= 0 {
		l.MaxSide = DefaultMaxUploadSide
	}
	if l.MaxPixels <= 0 {
		l.MaxPixels = DefaultMaxUploadPixels
	}
	return l
}

var (
	// ErrEmptyUpload is returned for zero-length payloads.
	ErrEmptyUpload = errors.New("image payload is empty")

	// ErrUploadTooLarge is returned when a payload exceeds the size limit.
	ErrUploadTooLarge = errors.New("image exceeds the upload size limit")

	// ErrNotImage is returned when the payload is not PNG, JPEG, GIF or WebP.
	ErrNotImage = errors.New("file is not a supported image")

	// ErrImageTooLarge is returned when the image dimensions exceed the
	// limits. It is detected from the header before any pixels are decoded.
	ErrImageTooLarge = errors.New("image dimensions exceed the upload limit")
)

// Upload is an image selected by the user, decoded and validated.
type Upload struct {
	// ID uniquely identifies this decoded upload.
	ID string `json:"id"`

	// Name is the base name of the file the image came from.
	Name string `json:"name"`

	// Data holds the original encoded bytes.
	Data []byte `json:"-"`

	// Image is the decoded image.
	Image image.Image `json:"-"`

	// Info describes the image.
	Info ImageInfo `json:"info"`
}

// ImageInfo contains metadata about an uploaded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the sniffed format: "png", "jpeg", "gif" or "webp".
	// Detection is based on file contents, not the extension.
	Format string `json:"format"`

	// MimeType is the MIME type matching Format.
	MimeType string `json:"mime_type"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the encoded payload in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

var signatures = []struct {
	format string
	magic  []byte
	offset int
}{
	{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, 0},
	{"jpeg", []byte{0xFF, 0xD8, 0xFF}, 0},
	{"gif", []byte("GIF8"), 0},
	{"webp", []byte("WEBP"), 8},
}

// SniffFormat identifies the image format from the leading bytes of data.
// It returns "" when the payload matches none of the supported formats.
func SniffFormat(data []byte) string {
	for _, sig := range signatures {
		end := sig.offset + len(sig.magic)
		if len(data) < end {
			continue
		}
		if sig.format == "webp" && !bytes.HasPrefix(data, []byte("RIFF")) {
			continue
		}
		if bytes.Equal(data[sig.offset:end], sig.magic) {
			return sig.format
		}
	}
	return ""
}

// MimeType returns the MIME type for a sniffed format.
func MimeType(format string) string {
	if format == "" {
		return "application/octet-stream"
	}
	return "image/" + format
}

// DecodeUpload validates and decodes an in-memory image.
//
// Parameters:
//   - name: Display name of the file (only the base name is kept).
//   - data: Encoded image bytes.
//   - limits: Size and dimension limits; zero fields select the defaults.
//
// Returns:
//   - *Upload: The decoded upload with a fresh ID.
//   - error: ErrEmptyUpload, ErrUploadTooLarge, ErrImageTooLarge or
//     ErrNotImage (wrapped), or a decode error for corrupt payloads.
func DecodeUpload(name string, data []byte, limits Limits) (*Upload, error) {
	limits = limits.withDefaults()
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if int64(len(data)) > limits.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrUploadTooLarge, len(data), limits.MaxBytes)
	}

	format := SniffFormat(data)
	if format == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, filepath.Base(name))
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width > limits.MaxSide || cfg.Height > limits.MaxSide {
		return nil, fmt.Errorf("%w: %dx%d, max side %d", ErrImageTooLarge, cfg.Width, cfg.Height, limits.MaxSide)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > limits.MaxPixels {
		return nil, fmt.Errorf("%w: %d pixels, limit %d", ErrImageTooLarge, pixels, limits.MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return &Upload{
		ID:    uuid.New().String(),
		Name:  filepath.Base(name),
		Data:  data,
		Image: img,
		Info:  describe(img, format, int64(len(data))),
	}, nil
}

// LoadUpload reads an image file from disk and decodes it with DecodeUpload.
// The byte limit is checked before the file is read.
func LoadUpload(path string, limits Limits) (*Upload, error) {
	u, _, err := loadUpload(path, limits)
	return u, err
}

func loadUpload(path string, limits Limits) (*Upload, os.FileInfo, error) {
	limits = limits.withDefaults()
	stat, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if stat.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s is a directory", ErrNotImage, path)
	}
	if stat.Size() > limits.MaxBytes {
		return nil, nil, fmt.Errorf("%w: %d bytes, limit %d", ErrUploadTooLarge, stat.Size(), limits.MaxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	u, err := DecodeUpload(path, data, limits)
	if err != nil {
		return nil, nil, err
	}
	return u, stat, nil
}

func describe(img image.Image, format string, size int64) ImageInfo {
	bounds := img.Bounds()

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA, *image.Paletted:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	return ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		MimeType:      MimeType(format),
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: size,
	}
}

// ImageCache provides thread-safe caching of decoded uploads keyed by path,
// so re-selecting an unchanged file does not decode it again.
//
// Every Load returns an Upload with a fresh ID. A file whose size or
// modification time changed since it was cached is decoded again.
// Cached uploads remain in memory until explicitly removed via Evict() or
// Clear().
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	limits  Limits
}

type cacheEntry struct {
	upload  *Upload
	size    int64
	modTime time.Time
}

// NewImageCache creates an empty cache that enforces limits on loads.
func NewImageCache(limits Limits) *ImageCache {
	return &ImageCache{
		entries: make(map[string]cacheEntry),
		limits:  limits.withDefaults(),
	}
}

// Limits returns the upload limits enforced by the cache.
func (c *ImageCache) Limits() Limits {
	return c.limits
}

// Load returns the upload for path, decoding the file only when it is not
// cached or has changed on disk.
//
// The upload is cached using the exact path string provided. Different paths
// to the same file result in separate cache entries.
func (c *ImageCache) Load(path string) (*Upload, error) {
	c.mu.RLock()
	entry, ok := c.entries[path]
	c.mu.RUnlock()

	if ok {
		if stat, err := os.Stat(path); err == nil && stat.Size() == entry.size && stat.ModTime().Equal(entry.modTime) {
			u := *entry.upload
			u.ID = uuid.New().String()
			return &u, nil
		}
	}

	u, stat, err := loadUpload(path, c.limits)
	if err != nil {
		c.Evict(path)
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{upload: u, size: stat.Size(), modTime: stat.ModTime()}
	c.mu.Unlock()

	return u, nil
}

// Len returns the number of cached uploads.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all uploads from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Evict removes the upload cached for path. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}
