// Package server implements the MCP (Model Context Protocol) server for the
// image captioner.
//
// This package provides a JSON-RPC 2.0 server that exposes a single upload
// panel through the MCP protocol: an MCP client selects an image, pans and
// zooms it the way a user would with a mouse, renders the preview and asks
// for captions.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Selection:
//   - image_select: Select an image from a path or base64 data
//   - image_clear: Remove the image
//
// Viewport:
//   - viewport_state: Panel state, transform and cursor
//   - viewport_pointer_down, viewport_pointer_move, viewport_pointer_up,
//     viewport_pointer_leave: Drag to pan
//   - viewport_wheel: Wheel zoom
//   - viewport_zoom: Zoom buttons
//   - viewport_reset: Reset button
//   - viewport_render: Preview as base64 PNG
//
// Captions:
//   - caption_generate: Creative, factual or deep caption, optionally streamed
//   - caption_speak: Caption as base64 MP3
//
// Viewport tools return {"applied": bool, "state": {...}}; applied is false
// when the input was ignored because a caption request is running.
//
// # Streaming
//
// With stream=true, caption_generate sends each chunk as a
// notifications/message notification whose data holds the request id, the
// chunk index and the text. The tools/call response follows the last chunk.
// Caption tools are served concurrently with the read loop, so viewport
// tools keep answering while a caption is generated.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The message to show the user; for caption failures this is the
//     explanation produced by the caption service
//
// # Usage
//
//	srv := server.New(panel.New(opts), logger, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
