package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// createTestImage creates a simple test image file and returns its path.
// The caller is responsible for removing the file.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	tmpFile, err := os.CreateTemp("", "test-image-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// encodeTestImage encodes a solid image in the given format.
func encodeTestImage(t *testing.T, format string, width, height int) []byte {
	t.Helper()
	img := createInMemoryImage(width, height, color.RGBA{10, 200, 30, 255})

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		t.Fatalf("unsupported test format %s", format)
	}
	if err != nil {
		t.Fatalf("failed to encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", encodeTestImage(t, "png", 4, 4), "png"},
		{"jpeg", encodeTestImage(t, "jpeg", 4, 4), "jpeg"},
		{"gif", encodeTestImage(t, "gif", 4, 4), "gif"},
		{"webp header", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp"},
		{"riff but not webp", []byte("RIFF\x00\x00\x00\x00WAVEfmt "), ""},
		{"text", []byte("hello, world"), ""},
		{"short", []byte{0x89}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SniffFormat(tt.data); got != tt.want {
				t.Errorf("SniffFormat: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeUpload(t *testing.T) {
	for _, format := range []string{"png", "jpeg", "gif"} {
		t.Run(format, func(t *testing.T) {
			data := encodeTestImage(t, format, 30, 20)

			u, err := DecodeUpload("/some/dir/photo."+format, data, Limits{})
			if err != nil {
				t.Fatalf("DecodeUpload failed: %v", err)
			}
			if u.ID == "" {
				t.Error("ID should be set")
			}
			if u.Name != "photo."+format {
				t.Errorf("Name: got %s", u.Name)
			}
			if u.Info.Width != 30 || u.Info.Height != 20 {
				t.Errorf("dimensions: got %dx%d, want 30x20", u.Info.Width, u.Info.Height)
			}
			if u.Info.Format != format {
				t.Errorf("Format: got %s, want %s", u.Info.Format, format)
			}
			if u.Info.MimeType != "image/"+format {
				t.Errorf("MimeType: got %s", u.Info.MimeType)
			}
			if u.Info.FileSizeBytes != int64(len(data)) {
				t.Errorf("FileSizeBytes: got %d, want %d", u.Info.FileSizeBytes, len(data))
			}
		})
	}
}

func TestDecodeUpload_FreshIDs(t *testing.T) {
	data := encodeTestImage(t, "png", 2, 2)
	a, err := DecodeUpload("a.png", data, Limits{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := DecodeUpload("a.png", data, Limits{})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Error("two decodes should not share an ID")
	}
}

func TestDecodeUpload_Rejects(t *testing.T) {
	valid := encodeTestImage(t, "png", 10, 10)

	tests := []struct {
		name     string
		data     []byte
		maxBytes int64
		want     error
	}{
		{"empty", nil, 0, ErrEmptyUpload},
		{"too large", valid, int64(len(valid) - 1), ErrUploadTooLarge},
		{"not an image", []byte("%PDF-1.7 not an image"), 0, ErrNotImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUpload("x", tt.data, Limits{MaxBytes: tt.maxBytes})
			if !errors.Is(err, tt.want) {
				t.Errorf("error: got %v, want %v", err, tt.want)
			}
		})
	}
}

// pngWithHeaderSize returns a small PNG whose header claims width x height.
// Decoding its pixels would fail; only the header is valid.
func pngWithHeaderSize(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := encodeTestImage(t, "png", 2, 2)
	// Signature (8) + IHDR length (4) + "IHDR" (4), then width and height.
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestDecodeUpload_DimensionLimits(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		limits Limits
	}{
		{"header claims 12000x12000", pngWithHeaderSize(t, 12000, 12000), Limits{}},
		{"side over limit", encodeTestImage(t, "png", 40, 10), Limits{MaxSide: 32}},
		{"pixels over limit", encodeTestImage(t, "png", 20, 20), Limits{MaxPixels: 399}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeUpload("big.png", tt.data, tt.limits)
			if !errors.Is(err, ErrImageTooLarge) {
				t.Errorf("error: got %v, want ErrImageTooLarge", err)
			}
		})
	}

	if _, err := DecodeUpload("ok.png", encodeTestImage(t, "png", 20, 20), Limits{MaxSide: 20, MaxPixels: 400}); err != nil {
		t.Errorf("image at the limits should be accepted: %v", err)
	}
}

func TestDecodeUpload_Corrupt(t *testing.T) {
	data := encodeTestImage(t, "png", 10, 10)
	data = data[:len(data)/2]

	if _, err := DecodeUpload("broken.png", data, Limits{}); err == nil {
		t.Error("expected decode error for truncated png")
	}
}

func TestLoadUpload(t *testing.T) {
	path := createTestImage(t, 64, 48, color.RGBA{255, 0, 0, 255})
	defer os.Remove(path)

	u, err := LoadUpload(path, Limits{})
	if err != nil {
		t.Fatalf("LoadUpload failed: %v", err)
	}
	if u.Info.Width != 64 || u.Info.Height != 48 {
		t.Errorf("dimensions: got %dx%d, want 64x48", u.Info.Width, u.Info.Height)
	}
	if !u.Info.HasAlpha {
		t.Error("RGBA png should report alpha")
	}
	if u.Info.ColorDepth != "8-bit" {
		t.Errorf("ColorDepth: got %s", u.Info.ColorDepth)
	}
}

func TestLoadUpload_SizeLimit(t *testing.T) {
	path := createTestImage(t, 64, 48, color.RGBA{255, 0, 0, 255})
	defer os.Remove(path)

	_, err := LoadUpload(path, Limits{MaxBytes: 10})
	if !errors.Is(err, ErrUploadTooLarge) {
		t.Errorf("error: got %v, want ErrUploadTooLarge", err)
	}
}

func TestLoadUpload_NonExistent(t *testing.T) {
	if _, err := LoadUpload("/nonexistent/path/image.png", Limits{}); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLoadUpload_Directory(t *testing.T) {
	_, err := LoadUpload(t.TempDir(), Limits{})
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("error: got %v, want ErrNotImage", err)
	}
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache(Limits{})
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if cache.entries == nil {
		t.Fatal("NewImageCache did not initialize entries map")
	}
	want := Limits{MaxBytes: DefaultMaxUploadBytes, MaxSide: DefaultMaxUploadSide, MaxPixels: DefaultMaxUploadPixels}
	if cache.Limits() != want {
		t.Errorf("Limits: got %+v, want %+v", cache.Limits(), want)
	}
}

func TestImageCache_Load(t *testing.T) {
	path := createTestImage(t, 20, 20, color.RGBA{0, 0, 255, 255})
	defer os.Remove(path)

	cache := NewImageCache(Limits{})
	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if first.Image != second.Image {
		t.Error("second Load should reuse the cached pixels")
	}
	if first.ID == second.ID {
		t.Error("each Load should assign a fresh ID")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestImageCache_Load_ReloadsChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	write := func(width, height int) {
		if err := os.WriteFile(path, encodeTestImage(t, "png", width, height), 0644); err != nil {
			t.Fatal(err)
		}
	}

	write(20, 20)
	cache := NewImageCache(Limits{})
	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	write(30, 10)
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}

	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if second.Info.Width != 30 || second.Info.Height != 10 {
		t.Errorf("dimensions: got %dx%d, want 30x10 from the new file", second.Info.Width, second.Info.Height)
	}
	if first.ID == second.ID {
		t.Error("reloaded upload should have a new ID")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestImageCache_Load_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("definitely not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewImageCache(Limits{})
	if _, err := cache.Load(path); !errors.Is(err, ErrNotImage) {
		t.Errorf("error: got %v, want ErrNotImage", err)
	}
	if cache.Len() != 0 {
		t.Error("failed loads should not be cached")
	}
}

func TestImageCache_EvictAndClear(t *testing.T) {
	p1 := createTestImage(t, 5, 5, color.White)
	p2 := createTestImage(t, 5, 5, color.Black)
	defer os.Remove(p1)
	defer os.Remove(p2)

	cache := NewImageCache(Limits{})
	for _, p := range []string{p1, p2} {
		if _, err := cache.Load(p); err != nil {
			t.Fatal(err)
		}
	}

	cache.Evict(p1)
	cache.Evict("/never/loaded.png")
	if cache.Len() != 1 {
		t.Errorf("Len after Evict: got %d, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	path := createTestImage(t, 30, 30, color.RGBA{1, 2, 3, 255})
	defer os.Remove(path)

	cache := NewImageCache(Limits{})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				t.Errorf("concurrent Load failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}
