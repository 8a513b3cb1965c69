package imaging

import (
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

// DefaultPayloadQuality is the JPEG quality used when an upload has to be
// re-encoded before it is sent to the caption service.
const DefaultPayloadQuality = 90

// Payload is the encoded image handed to the caption service.
type Payload struct {
	MimeType string
	Data     []byte
}

// Base64 returns the payload bytes as standard base64.
func (p Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// DataURL returns the payload as a data: URL.
func (p Payload) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MimeType, p.Base64())
}

// PreparePayload returns the bytes to send for an upload.
//
// PNG, JPEG and WebP uploads that fit within maxDim on their longest side are
// sent as-is. Larger images are downscaled to fit maxDim and re-encoded as
// JPEG. GIFs are always re-encoded as PNG (first frame) because multimodal
// endpoints do not reliably accept them. maxDim <= 0 disables downscaling.
func PreparePayload(u *Upload, maxDim int) (Payload, error) {
	if u == nil || u.Image == nil {
		return Payload{}, fmt.Errorf("no image to encode")
	}

	w, h := u.Info.Width, u.Info.Height
	tooLarge := maxDim > 0 && (w > maxDim || h > maxDim)

	switch {
	case tooLarge:
		fitted := imaging.Fit(u.Image, maxDim, maxDim, imaging.Lanczos)
		data, err := EncodeJPEG(fitted, DefaultPayloadQuality)
		if err != nil {
			return Payload{}, err
		}
		return Payload{MimeType: "image/jpeg", Data: data}, nil

	case u.Info.Format == "gif":
		data, err := EncodePNG(u.Image)
		if err != nil {
			return Payload{}, err
		}
		return Payload{MimeType: "image/png", Data: data}, nil

	default:
		return Payload{MimeType: u.Info.MimeType, Data: u.Data}, nil
	}
}
