package panel

import (
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/ironsheep/image-captioner/internal/caption"
	"github.com/ironsheep/image-captioner/internal/viewport"
)

func TestGenerate_NoImage(t *testing.T) {
	svc := &fakeService{text: "x"}
	p := newTestPanel(svc)

	_, err := p.Generate(context.Background(), caption.ModeCreative, nil)
	if !caption.IsKind(err, caption.KindInput) {
		t.Errorf("error: got %v, want input", err)
	}
	if got := p.Snapshot().Error; got != "Please upload an image first." {
		t.Errorf("Error: got %q", got)
	}
	if len(svc.requests) != 0 {
		t.Error("service should not be called without an image")
	}
}

func TestGenerate_Creative(t *testing.T) {
	svc := &fakeService{text: "A lighthouse at dawn."}
	p := New(Options{Service: svc, OCR: &fakeOCR{text: "unused"}})
	if _, err := p.SelectBytes("a.png", encodePNG(t, 20, 20, color.White)); err != nil {
		t.Fatal(err)
	}

	result, err := p.Generate(context.Background(), caption.ModeCreative, nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Text != "A lighthouse at dawn." {
		t.Errorf("Text: got %q", result.Text)
	}

	req := svc.lastRequest(t)
	if req.Image.MimeType != "image/png" || len(req.Image.Data) == 0 {
		t.Errorf("payload: got %s with %d bytes", req.Image.MimeType, len(req.Image.Data))
	}
	if req.Hints != (caption.Hints{}) {
		t.Errorf("creative captions should not gather hints, got %+v", req.Hints)
	}

	s := p.Snapshot()
	if s.Caption != "A lighthouse at dawn." || s.Loading || s.Error != "" {
		t.Errorf("snapshot: %+v", s)
	}
}

func TestGenerate_DeepGathersHints(t *testing.T) {
	svc := &fakeService{text: "analysis"}
	p := New(Options{Service: svc, OCR: &fakeOCR{text: "NO PARKING"}})
	if _, err := p.SelectBytes("a.png", encodePNG(t, 20, 20, color.RGBA{255, 0, 0, 255})); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Generate(context.Background(), caption.ModeDeep, nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	hints := svc.lastRequest(t).Hints
	if hints.Text != "NO PARKING" {
		t.Errorf("text hint: got %q", hints.Text)
	}
	if !strings.Contains(hints.Palette, "#F00000") {
		t.Errorf("palette hint: got %q", hints.Palette)
	}
}

func TestGenerate_FactualSkipsFailedHints(t *testing.T) {
	svc := &fakeService{text: "facts"}
	p := New(Options{Service: svc, OCR: &fakeOCR{err: errors.New("tesseract missing")}})
	if _, err := p.SelectBytes("a.png", encodePNG(t, 20, 20, color.White)); err != nil {
		t.Fatal(err)
	}

	if _, err := p.Generate(context.Background(), caption.ModeFactual, nil); err != nil {
		t.Fatalf("hint failures should not fail the caption: %v", err)
	}
	hints := svc.lastRequest(t).Hints
	if hints.Text != "" || hints.Palette != "" {
		t.Errorf("hints: got %+v, want empty", hints)
	}
}

func TestGenerate_Stream(t *testing.T) {
	svc := &fakeService{chunks: []string{"A ", "calm ", "lake."}}
	p := newTestPanel(svc)
	if _, err := p.SelectBytes("a.png", encodePNG(t, 20, 20, color.White)); err != nil {
		t.Fatal(err)
	}

	var got []string
	result, err := p.Generate(context.Background(), caption.ModeCreative, func(c string) { got = append(got, c) })
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d chunks, want 3", len(got))
	}
	if result.Text != "A calm lake." || result.Model != "fake-stream" {
		t.Errorf("result: %+v", result)
	}
	if p.Snapshot().Caption != "A calm lake." {
		t.Errorf("snapshot caption: %q", p.Snapshot().Caption)
	}
}

func TestGenerate_EmptyStream(t *testing.T) {
	p := newTestPanel(&fakeService{chunks: []string{"  "}})
	if _, err := p.SelectBytes("a.png", encodePNG(t, 20, 20, color.White)); err != nil {
		t.Fatal(err)
	}

	_, err := p.Generate(context.Background(), caption.ModeCreative, func(string) {})
	if !caption.IsKind(err, caption.KindResponse) {
		t.Errorf("error: got %v, want response", err)
	}
}

func TestGenerate_FailureIsExplained(t *testing.T) {
	svc := &fakeService{err: caption.NewError(caption.KindTransport, "generate", "call failed")}
	p := newTestPanel(svc)
	if _, err := p.SelectBytes("a.png", encodePNG(t, 20, 20, color.White)); err != nil {
		t.Fatal(err)
	}

	_, err := p.Generate(context.Background(), caption.ModeCreative, nil)
	if !caption.IsKind(err, caption.KindTransport) {
		t.Fatalf("error: got %v, want transport", err)
	}

	s := p.Snapshot()
	if s.Error != "friendly: call failed" {
		t.Errorf("Error: got %q", s.Error)
	}
	if s.Caption != "" || s.Loading {
		t.Errorf("snapshot after failure: %+v", s)
	}
	if len(svc.explained) != 1 {
		t.Errorf("ExplainError called %d times, want 1", len(svc.explained))
	}
}

func TestGenerate_ErrorCarriesExplanation(t *testing.T) {
	svc := &fakeService{err: caption.NewError(caption.KindTransport, "generate", "call failed")}
	p := newTestPanel(svc)
	if _, err := p.SelectBytes("a.png", encodePNG(t, 20, 20, color.White)); err != nil {
		t.Fatal(err)
	}

	_, err := p.Generate(context.Background(), caption.ModeCreative, nil)
	if err == nil {
		t.Fatal("expected an error")
	}

	// A selection change clears the panel's stored error, not the returned one.
	if err := p.Clear(); err != nil {
		t.Fatal(err)
	}
	if p.Snapshot().Error != "" {
		t.Errorf("Error after Clear: got %q", p.Snapshot().Error)
	}
	if got := caption.Message(err); got != "friendly: call failed" {
		t.Errorf("Message: got %q, want the explanation", got)
	}
}

func TestGenerate_BusyIgnoresInput(t *testing.T) {
	svc := &fakeService{text: "done", block: make(chan struct{}), started: make(chan struct{})}
	p := newTestPanel(svc)
	if _, err := p.SelectBytes("a.png", encodePNG(t, 20, 20, color.White)); err != nil {
		t.Fatal(err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := p.Generate(context.Background(), caption.ModeCreative, nil)
		errc <- err
	}()
	<-svc.started

	if !p.Snapshot().Loading {
		t.Error("panel should report loading")
	}
	if p.Wheel(-100) {
		t.Error("wheel should be ignored while loading")
	}
	if p.PointerDown(1, 1, viewport.ButtonPrimary) {
		t.Error("pointer should be ignored while loading")
	}
	if _, err := p.SelectBytes("b.png", encodePNG(t, 5, 5, color.Black)); !errors.Is(err, ErrBusy) {
		t.Errorf("Select while loading: got %v, want ErrBusy", err)
	}
	if err := p.Clear(); !errors.Is(err, ErrBusy) {
		t.Errorf("Clear while loading: got %v, want ErrBusy", err)
	}
	if _, err := p.Generate(context.Background(), caption.ModeCreative, nil); !errors.Is(err, ErrBusy) {
		t.Errorf("second Generate: got %v, want ErrBusy", err)
	}

	close(svc.block)
	if err := <-errc; err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	s := p.Snapshot()
	if s.Loading || s.Transform != viewport.Identity() || s.Name != "a.png" {
		t.Errorf("snapshot after loading: %+v", s)
	}
}

func TestSpeak(t *testing.T) {
	svc := &fakeService{text: "A cat."}
	p := newTestPanel(svc)

	if _, err := p.Speak(context.Background()); !caption.IsKind(err, caption.KindInput) {
		t.Errorf("Speak without caption: got %v, want input", err)
	}

	if _, err := p.SelectBytes("a.png", encodePNG(t, 20, 20, color.White)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Generate(context.Background(), caption.ModeCreative, nil); err != nil {
		t.Fatal(err)
	}

	speech, err := p.Speak(context.Background())
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if speech.AudioBase64 == "" || svc.spoken != "A cat." {
		t.Errorf("got %+v, spoken %q", speech, svc.spoken)
	}
}
