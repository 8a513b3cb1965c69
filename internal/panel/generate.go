package panel

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-captioner/internal/caption"
	"github.com/ironsheep/image-captioner/internal/imaging"
)

// paletteColors is how many dominant colours are passed as a deep hint.
const paletteColors = 5

// Generate captions the current image.
//
// onChunk, when non-nil, selects streaming: it receives each chunk as it
// arrives and the returned Result carries the full text. On failure the
// returned error carries a user-facing explanation as its caption.Message;
// the panel also keeps it for Snapshot.
func (p *Panel) Generate(ctx context.Context, mode caption.Mode, onChunk func(string)) (*caption.Result, error) {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return nil, ErrBusy
	}
	if p.upload == nil {
		err := caption.NewError(caption.KindInput, "generate", "Please upload an image first.")
		p.errMsg = err.Message
		p.mu.Unlock()
		return nil, err
	}
	if p.service == nil {
		p.mu.Unlock()
		return nil, caption.NewError(caption.KindConfig, "generate", "No caption service is configured.")
	}

	u := p.upload
	p.loading = true
	p.caption = nil
	p.errMsg = ""
	p.mu.Unlock()

	p.logger.Info("generating caption", "id", u.ID, "mode", mode, "stream", onChunk != nil)

	result, err := p.generate(ctx, u, mode, onChunk)

	var explanation string
	if err != nil {
		p.logger.Error("caption failed", "id", u.ID, "mode", mode, "error", err)
		explanation = p.explain(ctx, err)
	}

	p.mu.Lock()
	p.loading = false
	if err != nil {
		p.errMsg = explanation
	} else {
		p.caption = result
	}
	p.mu.Unlock()

	if err != nil {
		return nil, caption.WithMessage(err, "generate", explanation)
	}
	p.logger.Info("caption ready", "id", u.ID, "model", result.Model, "chars", len(result.Text))
	return result, nil
}

func (p *Panel) generate(ctx context.Context, u *imaging.Upload, mode caption.Mode, onChunk func(string)) (*caption.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	payload, err := imaging.PreparePayload(u, p.payloadMaxDim)
	if err != nil {
		return nil, caption.Wrap(caption.KindInput, "generate", "The selected image could not be prepared.", err)
	}

	req := caption.Request{Image: payload, Mode: mode}
	if mode.Grounded() {
		req.Hints = p.gatherHints(ctx, u, mode)
	}

	if onChunk == nil {
		return p.service.Generate(ctx, req)
	}

	stream, err := p.service.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	text, err := caption.Drain(stream, onChunk)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, caption.NewError(caption.KindResponse, "stream", "The caption service returned an empty caption.")
	}
	return &caption.Result{Text: text, Mode: mode, Model: stream.Model()}, nil
}

// gatherHints runs OCR and palette extraction concurrently. Hints are best
// effort: failures are logged and the hint is left empty.
func (p *Panel) gatherHints(ctx context.Context, u *imaging.Upload, mode caption.Mode) caption.Hints {
	var hints caption.Hints
	g, gctx := errgroup.WithContext(ctx)

	if p.ocr != nil {
		g.Go(func() error {
			res, err := p.ocr.ReadText(gctx, u.Image)
			if err != nil {
				p.logger.Warn("ocr hint skipped", "id", u.ID, "error", err)
				return nil
			}
			hints.Text = res.Text()
			return nil
		})
	}

	if mode == caption.ModeDeep {
		g.Go(func() error {
			res, err := imaging.DominantColors(u.Image, paletteColors)
			if err != nil {
				p.logger.Warn("palette hint skipped", "id", u.ID, "error", err)
				return nil
			}
			hints.Palette = res.Summary()
			return nil
		})
	}

	_ = g.Wait()
	p.logger.Debug("hints gathered", "id", u.ID, "text_chars", len(hints.Text), "palette", hints.Palette)
	return hints
}

// explain turns err into the message shown to the user.
func (p *Panel) explain(ctx context.Context, err error) string {
	if caption.IsKind(err, caption.KindInput) {
		return caption.Message(err)
	}
	if errors.Is(err, context.Canceled) {
		return caption.FallbackExplanation
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	return p.service.ExplainError(ctx, err)
}

// Speak reads the current caption aloud.
func (p *Panel) Speak(ctx context.Context) (*caption.Speech, error) {
	p.mu.Lock()
	var text string
	if p.caption != nil {
		text = p.caption.Text
	}
	service := p.service
	p.mu.Unlock()

	if text == "" {
		return nil, caption.NewError(caption.KindInput, "speak", "There is no caption to read yet.")
	}
	if service == nil {
		return nil, caption.NewError(caption.KindConfig, "speak", "No caption service is configured.")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	speech, err := service.Speak(ctx, text)
	if err != nil {
		p.logger.Error("speech failed", "error", err)
		return nil, err
	}
	return speech, nil
}
