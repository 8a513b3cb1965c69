package caption

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestServiceError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ServiceError
		contains []string
	}{
		{
			name:     "with cause",
			err:      Wrap(KindTransport, "generate", "call failed", errors.New("connection refused")),
			contains: []string{"[transport:generate]", "call failed", "connection refused"},
		},
		{
			name:     "without cause",
			err:      NewError(KindConfig, "generate", "API_KEY environment variable is not set."),
			contains: []string{"[config:generate]", "API_KEY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("error string %q does not contain %q", got, want)
				}
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(KindTransport, "op", "msg", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	cause := errors.New("boom")
	wrapped := Wrap(KindTransport, "op", "msg", cause)
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error should unwrap to its cause")
	}

	// The innermost classification wins.
	inner := NewError(KindResponse, "inner", "empty")
	outer := Wrap(KindTransport, "outer", "msg", fmt.Errorf("context: %w", inner))
	if outer.Kind != KindResponse || outer.Op != "inner" {
		t.Errorf("got %s:%s, want response:inner", outer.Kind, outer.Op)
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("panel: %w", NewError(KindConfig, "generate", "no key"))

	if !IsKind(err, KindConfig) {
		t.Error("IsKind should find config in the chain")
	}
	if IsKind(err, KindTransport) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(errors.New("plain"), KindConfig) {
		t.Error("plain errors have no kind")
	}
	if IsKind(nil, KindConfig) {
		t.Error("nil has no kind")
	}
}

func TestMessage(t *testing.T) {
	if got := Message(nil); got != "" {
		t.Errorf("Message(nil): got %q", got)
	}
	if got := Message(errors.New("plain")); got != "plain" {
		t.Errorf("Message(plain): got %q", got)
	}
	wrapped := fmt.Errorf("x: %w", NewError(KindInput, "generate", "Please upload an image first."))
	if got := Message(wrapped); got != "Please upload an image first." {
		t.Errorf("Message(service error): got %q", got)
	}
}

func TestWithMessage(t *testing.T) {
	if WithMessage(nil, "generate", "msg") != nil {
		t.Error("WithMessage(nil) should return nil")
	}

	inner := Wrap(KindTransport, "stream", "raw", errors.New("502"))
	got := WithMessage(inner, "generate", "The service is temporarily down.")
	if got.Kind != KindTransport || got.Op != "stream" {
		t.Errorf("got %s:%s, want transport:stream", got.Kind, got.Op)
	}
	if Message(got) != "The service is temporarily down." {
		t.Errorf("Message: got %q", Message(got))
	}
	if !errors.Is(got, inner) {
		t.Error("explained error should unwrap to the original")
	}

	plain := WithMessage(errors.New("boom"), "generate", "Something broke.")
	if plain.Kind != KindTransport || plain.Op != "generate" {
		t.Errorf("plain: got %s:%s, want transport:generate", plain.Kind, plain.Op)
	}
}
