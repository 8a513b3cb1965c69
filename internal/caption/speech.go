package caption

import (
	"context"
	"fmt"

	"github.com/wujunwei928/edge-tts-go/edge_tts"
)

// DefaultVoice is the Edge TTS voice used when none is configured.
const DefaultVoice = "en-US-AriaNeural"

// SpeechMimeType is the format produced by Edge TTS.
const SpeechMimeType = "audio/mpeg"

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, voice, text string) ([]byte, error)
}

// EdgeSynthesizer synthesizes MP3 audio with Microsoft Edge TTS.
type EdgeSynthesizer struct{}

// Synthesize runs one Edge TTS session. The library call is not
// cancellable, so a cancelled ctx abandons the session rather than stopping it.
func (EdgeSynthesizer) Synthesize(ctx context.Context, voice, text string) ([]byte, error) {
	if voice == "" {
		voice = DefaultVoice
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		audio []byte
		err   error
	}
	done := make(chan result, 1)

	go func() {
		communicate, err := edge_tts.NewCommunicate(text, edge_tts.SetVoice(voice))
		if err != nil {
			done <- result{err: fmt.Errorf("failed to create Edge TTS communicator: %w", err)}
			return
		}

		audio, err := communicate.Stream()
		if err != nil {
			done <- result{err: fmt.Errorf("Edge TTS synthesis failed: %w", err)}
			return
		}
		done <- result{audio: audio}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.audio, r.err
	}
}
