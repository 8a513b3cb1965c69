// Package panel hosts the image upload panel: the selected image, the
// viewport that pans and zooms it, and the caption produced for it.
//
// A Panel is safe for concurrent use. While a caption request is running
// the panel is busy: selecting, clearing and pointer input are ignored,
// matching a UI that disables the drop zone during generation.
package panel

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/ironsheep/image-captioner/internal/caption"
	"github.com/ironsheep/image-captioner/internal/imaging"
	"github.com/ironsheep/image-captioner/internal/ocr"
	"github.com/ironsheep/image-captioner/internal/viewport"
)

// ErrBusy is returned when an operation is attempted while a caption request
// is running.
var ErrBusy = errors.New("a caption request is in progress")

// ErrNoImage is returned by operations that need a selected image.
var ErrNoImage = errors.New("no image selected")

// ErrPreviewTooLarge is returned by Render for surfaces above the
// configured maximum side.
var ErrPreviewTooLarge = errors.New("preview size exceeds the limit")

// DefaultPreviewMaxSide is the largest preview side rendered by default.
const DefaultPreviewMaxSide = 4096

// TextReader extracts text from an image. *ocr.Reader implements it.
type TextReader interface {
	ReadText(ctx context.Context, img image.Image) (*ocr.Result, error)
}

// Options configure a Panel.
type Options struct {
	Service caption.Service

	// OCR is optional; without it grounded captions get no text hints.
	OCR TextReader

	Upload         imaging.Limits
	PayloadMaxDim  int
	PreviewWidth   int
	PreviewHeight  int
	PreviewMaxSide int
	Background     color.Color

	// Timeout bounds each caption, speech or explanation call.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Panel is the headless upload panel.
type Panel struct {
	mu sync.Mutex

	view  *viewport.Viewport
	cache *imaging.ImageCache

	service caption.Service
	ocr     TextReader
	logger  *slog.Logger

	payloadMaxDim int
	previewW      int
	previewH      int
	previewMax    int
	background    color.Color
	timeout       time.Duration

	upload  *imaging.Upload
	path    string
	caption *caption.Result
	errMsg  string
	loading bool
}

// New creates an empty panel.
func New(opts Options) *Panel {
	p := &Panel{
		view:          viewport.New(),
		cache:         imaging.NewImageCache(opts.Upload),
		service:       opts.Service,
		ocr:           opts.OCR,
		logger:        opts.Logger,
		payloadMaxDim: opts.PayloadMaxDim,
		previewW:      opts.PreviewWidth,
		previewH:      opts.PreviewHeight,
		previewMax:    opts.PreviewMaxSide,
		background:    opts.Background,
		timeout:       opts.Timeout,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.previewW <= 0 {
		p.previewW = 640
	}
	if p.previewH <= 0 {
		p.previewH = 320
	}
	if p.previewMax <= 0 {
		p.previewMax = DefaultPreviewMaxSide
	}
	if p.background == nil {
		p.background = color.NRGBA{0x11, 0x18, 0x27, 0xff}
	}
	if p.timeout <= 0 {
		p.timeout = 60 * time.Second
	}
	return p
}

// Select loads the image at path and makes it the current image. The view
// resets and any previous caption or error is cleared. A file that is not a
// supported image leaves the panel unchanged.
func (p *Panel) Select(path string) (*imaging.Upload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loading {
		return nil, ErrBusy
	}

	u, err := p.cache.Load(path)
	if err != nil {
		return nil, err
	}
	p.replace(u, path)
	return u, nil
}

// SelectBytes is Select for an in-memory upload such as a dropped file.
func (p *Panel) SelectBytes(name string, data []byte) (*imaging.Upload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loading {
		return nil, ErrBusy
	}

	u, err := imaging.DecodeUpload(name, data, p.cache.Limits())
	if err != nil {
		return nil, err
	}
	p.replace(u, "")
	return u, nil
}

// replace swaps in u. Callers hold p.mu.
func (p *Panel) replace(u *imaging.Upload, path string) {
	if p.path != "" && p.path != path {
		p.cache.Evict(p.path)
	}

	p.view.OnImagePresenceChange(false)
	p.upload = u
	p.path = path
	p.view.OnImagePresenceChange(true)

	p.caption = nil
	p.errMsg = ""

	p.logger.Info("image selected", "id", u.ID, "name", u.Name,
		"width", u.Info.Width, "height", u.Info.Height, "format", u.Info.Format)
}

// Clear removes the current image.
func (p *Panel) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loading {
		return ErrBusy
	}

	if p.path != "" {
		p.cache.Evict(p.path)
	}
	p.upload = nil
	p.path = ""
	p.caption = nil
	p.errMsg = ""
	p.view.OnImagePresenceChange(false)

	p.logger.Info("image cleared")
	return nil
}

// input runs fn against the viewport unless the panel is busy. It reports
// whether fn ran.
func (p *Panel) input(fn func(v *viewport.Viewport)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loading {
		return false
	}
	fn(p.view)
	return true
}

// PointerDown starts a drag at (x, y).
func (p *Panel) PointerDown(x, y float64, button viewport.Button) bool {
	return p.input(func(v *viewport.Viewport) { v.BeginDrag(viewport.Point{X: x, Y: y}, button) })
}

// PointerMove continues a drag.
func (p *Panel) PointerMove(x, y float64) bool {
	return p.input(func(v *viewport.Viewport) { v.UpdateDrag(viewport.Point{X: x, Y: y}) })
}

// PointerUp ends a drag.
func (p *Panel) PointerUp() bool {
	return p.input(func(v *viewport.Viewport) { v.EndDrag() })
}

// PointerLeave ends a drag when the pointer leaves the surface.
func (p *Panel) PointerLeave() bool {
	return p.input(func(v *viewport.Viewport) { v.EndDrag() })
}

// Wheel zooms by a wheel delta.
func (p *Panel) Wheel(deltaY float64) bool {
	return p.input(func(v *viewport.Viewport) { v.ZoomByWheel(deltaY) })
}

// Zoom applies one zoom button press.
func (p *Panel) Zoom(dir viewport.Direction) bool {
	return p.input(func(v *viewport.Viewport) { v.ZoomStep(dir) })
}

// Reset restores the natural view.
func (p *Panel) Reset() bool {
	return p.input(func(v *viewport.Viewport) { v.ResetView() })
}

// Snapshot is the observable state of the panel.
type Snapshot struct {
	Image        *imaging.ImageInfo     `json:"image,omitempty"`
	UploadID     string                 `json:"upload_id,omitempty"`
	Name         string                 `json:"name,omitempty"`
	Transform    viewport.ViewTransform `json:"transform"`
	Mode         string                 `json:"mode"`
	Cursor       string                 `json:"cursor"`
	CSSTransform string                 `json:"css_transform"`
	Caption      string                 `json:"caption,omitempty"`
	CaptionMode  caption.Mode           `json:"caption_mode,omitempty"`
	Model        string                 `json:"model,omitempty"`
	Error        string                 `json:"error,omitempty"`
	Loading      bool                   `json:"loading"`
}

// Snapshot returns the current state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.view.Transform()
	s := Snapshot{
		Transform:    t,
		Mode:         p.view.Mode().String(),
		Cursor:       p.view.Cursor(),
		CSSTransform: t.CSS(),
		Error:        p.errMsg,
		Loading:      p.loading,
	}
	if p.upload != nil {
		info := p.upload.Info
		s.Image = &info
		s.UploadID = p.upload.ID
		s.Name = p.upload.Name
	}
	if p.caption != nil {
		s.Caption = p.caption.Text
		s.CaptionMode = p.caption.Mode
		s.Model = p.caption.Model
	}
	return s
}

// Render draws the current view onto a width x height surface with an
// optional coordinate grid. Zero sizes use the configured preview size;
// sides above the configured maximum return ErrPreviewTooLarge.
func (p *Panel) Render(width, height int, grid imaging.Grid) (*imaging.RenderResult, error) {
	p.mu.Lock()
	u := p.upload
	t := p.view.Transform()
	bg := p.background
	if width <= 0 {
		width = p.previewW
	}
	if height <= 0 {
		height = p.previewH
	}
	maxSide := p.previewMax
	p.mu.Unlock()

	if u == nil {
		return nil, ErrNoImage
	}
	if width > maxSide || height > maxSide {
		return nil, fmt.Errorf("%w: %dx%d, max side %d", ErrPreviewTooLarge, width, height, maxSide)
	}

	result, err := imaging.RenderPreview(u.Image, t, width, height, bg, grid)
	if err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}
	return result, nil
}
