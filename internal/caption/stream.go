package caption

import (
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrStreamConsumed is returned by Next once a stream has finished or been
// closed.
var ErrStreamConsumed = errors.New("caption: stream already consumed")

// Stream is a lazy, finite sequence of caption chunks. It is read once.
type Stream struct {
	mu    sync.Mutex
	recv  func() (string, error)
	close func() error
	model string
	done  bool
	text  strings.Builder
}

// NewStream builds a Stream from a receive function and an optional close
// function. recv returns io.EOF after the last chunk.
func NewStream(model string, recv func() (string, error), close func() error) *Stream {
	return &Stream{recv: recv, close: close, model: model}
}

// Next returns the next non-empty chunk. It returns io.EOF once after the
// last chunk and ErrStreamConsumed on every call after that.
func (s *Stream) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return "", ErrStreamConsumed
	}

	for {
		chunk, err := s.recv()
		if err != nil {
			s.finish()
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", Wrap(KindTransport, "stream", "The caption stream was interrupted.", err)
		}
		if chunk == "" {
			continue
		}
		s.text.WriteString(chunk)
		return chunk, nil
	}
}

// Text returns everything received so far.
func (s *Stream) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// Model returns the model producing the stream.
func (s *Stream) Model() string {
	return s.model
}

// Close releases the underlying connection. It is safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finish()
}

func (s *Stream) finish() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.close != nil {
		return s.close()
	}
	return nil
}

// Drain reads s to the end, passing each chunk to onChunk, and returns the
// full text. It does not close s.
func Drain(s *Stream, onChunk func(string)) (string, error) {
	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			return s.Text(), nil
		}
		if err != nil {
			return s.Text(), err
		}
		if onChunk != nil {
			onChunk(chunk)
		}
	}
}
