package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-captioner/internal/caption"
	"github.com/ironsheep/image-captioner/internal/imaging"
	"github.com/ironsheep/image-captioner/internal/panel"
	"github.com/ironsheep/image-captioner/internal/viewport"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_select", "viewport_wheel").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// longRunningTools call the caption service and are served off the read loop.
var longRunningTools = map[string]bool{
	"caption_generate": true,
	"caption_speak":    true,
}

// isLongRunning reports whether req calls a long-running tool.
func isLongRunning(req *MCPRequest) bool {
	if req.Method != "tools/call" {
		return false
	}
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return false
	}
	return longRunningTools[params.Name]
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, req.ID, params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Forwards the operation to the panel
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, id interface{}, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Selection
	case "image_select":
		return s.handleImageSelect(args)
	case "image_clear":
		return s.handleImageClear()

	// Viewport
	case "viewport_state":
		return s.panel.Snapshot(), nil
	case "viewport_pointer_down":
		return s.handlePointerDown(args)
	case "viewport_pointer_move":
		return s.handlePointerMove(args)
	case "viewport_pointer_up":
		return s.inputResult(s.panel.PointerUp()), nil
	case "viewport_pointer_leave":
		return s.inputResult(s.panel.PointerLeave()), nil
	case "viewport_wheel":
		return s.handleWheel(args)
	case "viewport_zoom":
		return s.handleZoom(args)
	case "viewport_reset":
		return s.inputResult(s.panel.Reset()), nil
	case "viewport_render":
		return s.handleRender(args)

	// Captions
	case "caption_generate":
		return s.handleCaptionGenerate(ctx, id, args)
	case "caption_speak":
		return s.handleCaptionSpeak(ctx)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes optional arguments; missing arguments leave v zero.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}

// userError carries a message meant for the person using the client.
type userError struct {
	message string
	cause   error
}

func (e *userError) Error() string { return e.message }
func (e *userError) Unwrap() error { return e.cause }

// === Image Selection Handlers ===

type imageSelectArgs struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	DataBase64 string `json:"data_base64"`
}

func (s *Server) handleImageSelect(args json.RawMessage) (interface{}, error) {
	var a imageSelectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	switch {
	case a.Path != "":
		if _, err := s.panel.Select(a.Path); err != nil {
			return nil, err
		}
	case a.DataBase64 != "":
		data, err := base64.StdEncoding.DecodeString(a.DataBase64)
		if err != nil {
			return nil, fmt.Errorf("invalid data_base64: %w", err)
		}
		if a.Name == "" {
			a.Name = "upload"
		}
		if _, err := s.panel.SelectBytes(a.Name, data); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("either path or data_base64 is required")
	}

	return s.panel.Snapshot(), nil
}

func (s *Server) handleImageClear() (interface{}, error) {
	if err := s.panel.Clear(); err != nil {
		return nil, err
	}
	return s.panel.Snapshot(), nil
}

// === Viewport Handlers ===

// InputResult reports whether an input event was applied and the state after it.
type InputResult struct {
	Applied bool           `json:"applied"`
	State   panel.Snapshot `json:"state"`
}

func (s *Server) inputResult(applied bool) *InputResult {
	return &InputResult{Applied: applied, State: s.panel.Snapshot()}
}

type pointerArgs struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button string  `json:"button"`
}

func parseButton(name string) (viewport.Button, error) {
	switch name {
	case "", "primary":
		return viewport.ButtonPrimary, nil
	case "auxiliary":
		return viewport.ButtonAuxiliary, nil
	case "secondary":
		return viewport.ButtonSecondary, nil
	default:
		return 0, fmt.Errorf("invalid button: %s (must be primary, auxiliary, or secondary)", name)
	}
}

func (s *Server) handlePointerDown(args json.RawMessage) (interface{}, error) {
	var a pointerArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	button, err := parseButton(a.Button)
	if err != nil {
		return nil, err
	}
	return s.inputResult(s.panel.PointerDown(a.X, a.Y, button)), nil
}

func (s *Server) handlePointerMove(args json.RawMessage) (interface{}, error) {
	var a pointerArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.inputResult(s.panel.PointerMove(a.X, a.Y)), nil
}

type wheelArgs struct {
	DeltaY float64 `json:"delta_y"`
}

func (s *Server) handleWheel(args json.RawMessage) (interface{}, error) {
	var a wheelArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.inputResult(s.panel.Wheel(a.DeltaY)), nil
}

type zoomArgs struct {
	Direction string `json:"direction"`
}

func (s *Server) handleZoom(args json.RawMessage) (interface{}, error) {
	var a zoomArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	dir, ok := viewport.ParseDirection(a.Direction)
	if !ok {
		return nil, fmt.Errorf("invalid direction: %s (must be in or out)", a.Direction)
	}
	return s.inputResult(s.panel.Zoom(dir)), nil
}

type renderArgs struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	GridSpacing int    `json:"grid_spacing"`
	GridLabels  bool   `json:"grid_labels"`
	GridColor   string `json:"grid_color"`
}

func (s *Server) handleRender(args json.RawMessage) (interface{}, error) {
	var a renderArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Width < 0 || a.Height < 0 {
		return nil, fmt.Errorf("width and height must not be negative")
	}
	if a.GridSpacing < 0 {
		return nil, fmt.Errorf("grid_spacing must not be negative")
	}

	grid := imaging.Grid{Spacing: a.GridSpacing, Labels: a.GridLabels}
	if a.GridColor != "" {
		c, err := colorful.Hex(a.GridColor)
		if err != nil {
			return nil, fmt.Errorf("invalid grid_color %q: %w", a.GridColor, err)
		}
		grid.Color = c
	}
	return s.panel.Render(a.Width, a.Height, grid)
}

// === Caption Handlers ===

type captionGenerateArgs struct {
	Mode   string `json:"mode"`
	Stream bool   `json:"stream"`
}

// CaptionChunk is the data of a streaming notification.
type CaptionChunk struct {
	RequestID interface{} `json:"request_id"`
	Index     int         `json:"index"`
	Text      string      `json:"text"`
}

func (s *Server) handleCaptionGenerate(ctx context.Context, id interface{}, args json.RawMessage) (interface{}, error) {
	var a captionGenerateArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	mode, err := caption.ParseMode(a.Mode)
	if err != nil {
		return nil, err
	}

	var onChunk func(string)
	if a.Stream {
		index := 0
		onChunk = func(text string) {
			s.notify("caption", CaptionChunk{RequestID: id, Index: index, Text: text})
			index++
		}
	}

	result, err := s.panel.Generate(ctx, mode, onChunk)
	if err != nil {
		return nil, &userError{message: caption.Message(err), cause: err}
	}
	return result, nil
}

func (s *Server) handleCaptionSpeak(ctx context.Context) (interface{}, error) {
	speech, err := s.panel.Speak(ctx)
	if err != nil {
		return nil, &userError{message: caption.Message(err), cause: err}
	}
	return speech, nil
}
