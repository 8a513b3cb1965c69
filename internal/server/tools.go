package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func pointSchema(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"x": map[string]interface{}{
			"type":        "number",
			"description": "Pointer X coordinate in surface pixels",
		},
		"y": map[string]interface{}{
			"type":        "number",
			"description": "Pointer Y coordinate in surface pixels",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   []string{"x", "y"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Selection
		{
			Name:        "image_select",
			Description: "Select the image to caption, either from a file path or from base64 data. Accepts PNG, JPG, GIF and WebP up to 10MB. Replacing the image resets the view and clears the previous caption.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "File name for base64 uploads",
					},
					"data_base64": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded image bytes (used when path is empty)",
					},
				},
			},
		},
		{
			Name:        "image_clear",
			Description: "Remove the selected image, its caption and any error.",
			InputSchema: emptySchema(),
		},

		// Viewport
		{
			Name:        "viewport_state",
			Description: "Get the panel state: image info, pan/zoom transform, interaction mode, cursor, caption and error.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "viewport_pointer_down",
			Description: "Press a pointer button over the preview. A primary press starts dragging the image.",
			InputSchema: pointSchema(map[string]interface{}{
				"button": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"primary", "auxiliary", "secondary"},
					"description": "Pointer button. Default primary",
					"default":     "primary",
				},
			}),
		},
		{
			Name:        "viewport_pointer_move",
			Description: "Move the pointer. While dragging, the image follows the pointer.",
			InputSchema: pointSchema(nil),
		},
		{
			Name:        "viewport_pointer_up",
			Description: "Release the pointer button, ending any drag.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "viewport_pointer_leave",
			Description: "Move the pointer off the preview, ending any drag.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "viewport_wheel",
			Description: "Scroll the mouse wheel over the preview. Negative delta_y zooms in, positive zooms out. Scale stays within 0.5x to 5x.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"delta_y": map[string]interface{}{
						"type":        "number",
						"description": "Wheel deltaY in pixels (100 is one typical notch)",
					},
				},
				"required": []string{"delta_y"},
			},
		},
		{
			Name:        "viewport_zoom",
			Description: "Press the zoom-in or zoom-out button (a factor of 1.2 per press).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"direction": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"in", "out"},
						"description": "Zoom direction",
					},
				},
				"required": []string{"direction"},
			},
		},
		{
			Name:        "viewport_reset",
			Description: "Press the reset button: natural size, centred, no drag.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "viewport_render",
			Description: "Render the preview as the user sees it (pan and zoom applied) and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Surface width in pixels. Default from configuration",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Surface height in pixels. Default from configuration",
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Draw a coordinate grid every N surface pixels. 0 for no grid",
					},
					"grid_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Label grid intersections with their surface coordinates. Default: false",
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line colour as hex, e.g. '#FF0000'. Default: semi-transparent red",
					},
				},
			},
		},

		// Captions
		{
			Name:        "caption_generate",
			Description: "Generate a caption for the selected image. With stream=true, text chunks are sent as notifications/message before the final result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"creative", "factual", "deep"},
						"description": "Caption style. factual and deep are grounded on OCR text; deep also uses the colour palette and the deep model. Default creative",
						"default":     "creative",
					},
					"stream": map[string]interface{}{
						"type":        "boolean",
						"description": "Stream the caption as it is generated. Default false",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "caption_speak",
			Description: "Read the current caption aloud. Returns base64-encoded MP3 audio.",
			InputSchema: emptySchema(),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
