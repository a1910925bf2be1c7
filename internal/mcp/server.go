package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/miniapp-bridge-go/internal/command"
	"github.com/wagiedev/miniapp-bridge-go/internal/message"
)

// Dispatcher sends validated commands to the host.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd string, args ...message.Payload) message.Response
	Commands() []string
	Entry(name string) (*command.Entry, bool)
}

// Server serves bridge commands as MCP tools.
type Server struct {
	log        *slog.Logger
	dispatcher Dispatcher
	server     *mcp.Server
}

// NewServer creates a server with one tool per command of d.
func NewServer(d Dispatcher, log *slog.Logger, name, version string) *Server {
	s := &Server{
		log:        log.With("component", "mcp"),
		dispatcher: d,
		server:     mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
	}

	for _, cmd := range d.Commands() {
		entry, ok := d.Entry(cmd)
		if !ok {
			continue
		}

		s.server.AddTool(NewTool(entry), s.handler(entry))
	}

	return s
}

// NewTool creates the tool describing entry.
func NewTool(entry *command.Entry) *mcp.Tool {
	description := entry.Description
	if description == "" {
		description = "Call " + entry.Name + " on the host"
	}

	return &mcp.Tool{
		Name:        entry.Name,
		Description: description,
		InputSchema: InputSchema(entry),
	}
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.server
}

// Run serves MCP over transport until ctx is done or the peer disconnects.
// Context cancellation is a clean shutdown.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.log.Info("Serving MCP")

	err := s.server.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}

	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}

	return nil
}

func (s *Server) handler(entry *command.Entry) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := ParseArguments(req)
		if err != nil {
			return ErrorResult(err.Error()), nil
		}

		resp := s.dispatcher.Dispatch(ctx, entry.Name, CallArguments(entry, args)...)

		s.log.Debug("Tool call settled", "tool", entry.Name, "code", resp.Code)

		return ResponseResult(resp), nil
	}
}

// CallArguments maps tool arguments onto the calling convention of entry.
// The signature block is read from the certificate argument.
func CallArguments(entry *command.Entry, args map[string]any) []message.Payload {
	certificate, _ := args[certificateField].(map[string]any)

	switch entry.Convention {
	case command.ConventionPayload:
		return []message.Payload{args}
	case command.ConventionSignature:
		return []message.Payload{certificate}
	case command.ConventionPayloadAndSignature:
		payload := maps.Clone(args)
		delete(payload, certificateField)

		return []message.Payload{payload, certificate}
	default:
		return nil
	}
}

// ResponseResult renders resp as JSON text. Host replies are rendered
// verbatim; non-success responses are flagged as errors.
func ResponseResult(resp message.Response) *mcp.CallToolResult {
	var body any = resp
	if resp.Raw != nil {
		body = resp.Raw
	}

	data, err := json.Marshal(body)
	if err != nil {
		return ErrorResult("failed to encode response: " + err.Error())
	}

	result := TextResult(string(data))
	result.IsError = !resp.IsSuccess()

	return result
}

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

// ParseArguments unmarshals CallToolRequest arguments into a map.
func ParseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return make(map[string]any), nil
	}

	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
	}

	if args == nil {
		args = make(map[string]any)
	}

	return args, nil
}
