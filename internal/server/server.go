package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ironsheep/image-captioner/internal/panel"
)

// Server handles MCP protocol communication
type Server struct {
	panel   *panel.Panel
	logger  *slog.Logger
	version string

	writeMu sync.Mutex
	encoder *json.Encoder
	wg      sync.WaitGroup
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server driving p
func New(p *panel.Panel, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}
	return &Server{
		panel:   p,
		logger:  logger,
		version: version,
		encoder: json.NewEncoder(io.Discard),
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve processes requests from r until EOF or until ctx is done, writing
// responses and notifications to w. Caption tools run in the background so
// viewport tools keep answering while a caption is generated; Serve waits
// for them before returning.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.writeMu.Lock()
	s.encoder = json.NewEncoder(w)
	s.writeMu.Unlock()

	defer s.wg.Wait()

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go scanLines(ctx, r, lines, scanErr)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("server stopping", "reason", ctx.Err())
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			s.dispatch(ctx, line)
		}
	}
}

// scanLines sends each non-empty line of r on lines and closes it at EOF,
// reporting the scanner error on errc. A blocked Read outlives ctx; the
// goroutine exits on the next line or EOF.
func scanLines(ctx context.Context, r io.Reader, lines chan<- []byte, errc chan<- error) {
	defer close(lines)

	scanner := bufio.NewScanner(r)
	// Uploads arrive base64-encoded, so allow lines well above the 10 MB limit
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case lines <- line:
		case <-ctx.Done():
			errc <- nil
			return
		}
	}
	errc <- scanner.Err()
}

// dispatch handles one request line.
func (s *Server) dispatch(ctx context.Context, line []byte) {
	var req MCPRequest
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("failed to parse request", "error", err)
		return
	}

	if isLongRunning(&req) {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.reply(s.handleRequest(ctx, &req))
		}()
		return
	}

	s.reply(s.handleRequest(ctx, &req))
}

// reply writes resp unless it is nil
func (s *Server) reply(resp *MCPResponse) {
	if resp != nil {
		s.send(resp)
	}
}

// send writes one JSON-RPC message
func (s *Server) send(v interface{}) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.encoder.Encode(v); err != nil {
		s.logger.Error("failed to encode message", "error", err)
	}
}

// notify sends a notifications/message log notification
func (s *Server) notify(logger string, data interface{}) {
	s.send(&MCPNotification{
		JSONRPC: "2.0",
		Method:  "notifications/message",
		Params: map[string]interface{}{
			"level":  "info",
			"logger": logger,
			"data":   data,
		},
	})
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools":   map[string]interface{}{},
				"logging": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "image-captioner",
				"version": s.version,
			},
		},
	}
}
