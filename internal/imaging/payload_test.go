package imaging

import (
	"bytes"
	"image"
	"strings"
	"testing"
)

func TestPreparePayload_PassThrough(t *testing.T) {
	data := encodeTestImage(t, "png", 40, 30)
	u, err := DecodeUpload("small.png", data, Limits{})
	if err != nil {
		t.Fatal(err)
	}

	p, err := PreparePayload(u, 1024)
	if err != nil {
		t.Fatalf("PreparePayload failed: %v", err)
	}
	if p.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", p.MimeType)
	}
	if !bytes.Equal(p.Data, data) {
		t.Error("small png should be sent unchanged")
	}
}

func TestPreparePayload_Downscales(t *testing.T) {
	data := encodeTestImage(t, "png", 400, 200)
	u, err := DecodeUpload("big.png", data, Limits{})
	if err != nil {
		t.Fatal(err)
	}

	p, err := PreparePayload(u, 100)
	if err != nil {
		t.Fatalf("PreparePayload failed: %v", err)
	}
	if p.MimeType != "image/jpeg" {
		t.Errorf("MimeType: got %s, want image/jpeg", p.MimeType)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(p.Data))
	if err != nil {
		t.Fatalf("payload does not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format: got %s, want jpeg", format)
	}
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("size: got %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
}

func TestPreparePayload_GIFBecomesPNG(t *testing.T) {
	u, err := DecodeUpload("anim.gif", encodeTestImage(t, "gif", 20, 20), Limits{})
	if err != nil {
		t.Fatal(err)
	}

	p, err := PreparePayload(u, 0)
	if err != nil {
		t.Fatalf("PreparePayload failed: %v", err)
	}
	if p.MimeType != "image/png" || SniffFormat(p.Data) != "png" {
		t.Errorf("got %s / %s, want png", p.MimeType, SniffFormat(p.Data))
	}
}

func TestPreparePayload_NoImage(t *testing.T) {
	if _, err := PreparePayload(nil, 0); err == nil {
		t.Error("expected error for nil upload")
	}
}

func TestPayload_DataURL(t *testing.T) {
	p := Payload{MimeType: "image/png", Data: []byte{1, 2, 3}}
	if got := p.DataURL(); got != "data:image/png;base64,AQID" {
		t.Errorf("DataURL: got %s", got)
	}
	if !strings.HasPrefix(p.DataURL(), "data:image/png;base64,") {
		t.Error("missing data URL prefix")
	}
}
