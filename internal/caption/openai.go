package caption

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the model used for creative and factual captions.
	DefaultModel = "gemini-2.5-flash"
	// DefaultDeepModel is the model used for deep analysis.
	DefaultDeepModel = "gemini-2.5-pro"
	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

// Options configure a Client.
type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	DeepModel string
	MaxTokens int
	Voice     string

	// Synthesizer defaults to EdgeSynthesizer.
	Synthesizer Synthesizer
	Logger      *slog.Logger
}

// Client implements Service against an OpenAI-compatible endpoint.
type Client struct {
	api         *openai.Client
	model       string
	deepModel   string
	maxTokens   int
	voice       string
	synthesizer Synthesizer
	logger      *slog.Logger
}

// NewClient creates a Client. Without an API key every remote call fails
// with a KindConfig error.
func NewClient(opts Options) *Client {
	c := &Client{
		model:       opts.Model,
		deepModel:   opts.DeepModel,
		maxTokens:   opts.MaxTokens,
		voice:       opts.Voice,
		synthesizer: opts.Synthesizer,
		logger:      opts.Logger,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.deepModel == "" {
		c.deepModel = DefaultDeepModel
	}
	if c.voice == "" {
		c.voice = DefaultVoice
	}
	if c.synthesizer == nil {
		c.synthesizer = EdgeSynthesizer{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	if opts.APIKey != "" {
		clientConfig := openai.DefaultConfig(opts.APIKey)
		clientConfig.BaseURL = DefaultBaseURL
		if opts.BaseURL != "" {
			clientConfig.BaseURL = opts.BaseURL
		}
		c.api = openai.NewClientWithConfig(clientConfig)
	}

	return c
}

// ModelFor returns the model used for mode.
func (c *Client) ModelFor(mode Mode) string {
	if mode == ModeDeep {
		return c.deepModel
	}
	return c.model
}

func (c *Client) checkConfigured(op string) error {
	if c.api == nil {
		return NewError(KindConfig, op, "API_KEY environment variable is not set.")
	}
	return nil
}

func (c *Client) chatRequest(req Request) (openai.ChatCompletionRequest, error) {
	if len(req.Image.Data) == 0 {
		return openai.ChatCompletionRequest{}, NewError(KindInput, "generate", "Please upload an image first.")
	}

	mode := req.Mode
	if mode == "" {
		mode = ModeCreative
	}

	return openai.ChatCompletionRequest{
		Model:     c.ModelFor(mode),
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: req.Image.DataURL(),
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: BuildPrompt(mode, req.Hints),
					},
				},
			},
		},
	}, nil
}

// Generate returns a complete caption.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := c.checkConfigured("generate"); err != nil {
		return nil, err
	}

	chatReq, err := c.chatRequest(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("requesting caption", "model", chatReq.Model, "mode", req.Mode, "bytes", len(req.Image.Data))

	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, Wrap(KindTransport, "generate", "Failed to generate caption. Please check your API key and try again.", err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewError(KindResponse, "generate", "The caption service returned no choices.")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, NewError(KindResponse, "generate", "The caption service returned an empty caption.")
	}

	mode := req.Mode
	if mode == "" {
		mode = ModeCreative
	}
	return &Result{Text: text, Mode: mode, Model: chatReq.Model}, nil
}

// Stream starts a streaming caption. The caller must Close the stream.
func (c *Client) Stream(ctx context.Context, req Request) (*Stream, error) {
	if err := c.checkConfigured("stream"); err != nil {
		return nil, err
	}

	chatReq, err := c.chatRequest(req)
	if err != nil {
		return nil, err
	}
	chatReq.Stream = true

	c.logger.Debug("streaming caption", "model", chatReq.Model, "mode", req.Mode, "bytes", len(req.Image.Data))

	stream, err := c.api.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, Wrap(KindTransport, "stream", "Failed to generate caption. Please check your API key and try again.", err)
	}

	recv := func() (string, error) {
		response, err := stream.Recv()
		if err != nil {
			return "", err
		}
		if len(response.Choices) == 0 {
			return "", nil
		}
		return response.Choices[0].Delta.Content, nil
	}

	return NewStream(chatReq.Model, recv, stream.Close), nil
}

// Speak synthesizes text with the configured voice.
func (c *Client) Speak(ctx context.Context, text string) (*Speech, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewError(KindInput, "speak", "There is no caption to read yet.")
	}

	audio, err := c.synthesizer.Synthesize(ctx, c.voice, text)
	if err != nil {
		return nil, Wrap(KindTransport, "speak", "Failed to synthesize speech.", err)
	}
	if len(audio) == 0 {
		return nil, NewError(KindResponse, "speak", "The speech service returned no audio.")
	}

	return &Speech{
		AudioBase64: base64.StdEncoding.EncodeToString(audio),
		MimeType:    SpeechMimeType,
		Voice:       c.voice,
	}, nil
}

// ExplainError asks the model for a friendly rephrasing of err. It returns
// FallbackExplanation when the model cannot be reached or answers with
// nothing. Input errors are already friendly and are returned as is.
func (c *Client) ExplainError(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}
	if IsKind(err, KindInput) {
		return Message(err)
	}
	if c.api == nil || errors.Is(err, context.Canceled) {
		return FallbackExplanation
	}

	resp, callErr := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildExplainPrompt(err)},
		},
	})
	if callErr != nil {
		c.logger.Warn("error explanation failed", "error", callErr)
		return FallbackExplanation
	}
	if len(resp.Choices) == 0 {
		return FallbackExplanation
	}

	explanation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if explanation == "" {
		return FallbackExplanation
	}
	return explanation
}

var _ Service = (*Client)(nil)

