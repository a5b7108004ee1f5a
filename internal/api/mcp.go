package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/learnzverse/tutord/internal/persona"
	"github.com/learnzverse/tutord/internal/tutor"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Dispatcher *tutor.Dispatcher
	Registry   *persona.Registry
}

// NewMCPServer creates an MCP server exposing the tutor chat as tools, backed
// by the same dispatcher as the HTTP endpoint.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"tutord",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("tutord — subject tutor chat backed by persona-prompted language models."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_tutor",
			mcp.WithDescription("Ask a subject tutor a question. Returns the tutor's reply."),
			mcp.WithString("tutor", mcp.Description("Tutor identifier (physics, chemistry, biology, math)"), mcp.Required()),
			mcp.WithString("message", mcp.Description("The question to ask"), mcp.Required()),
		),
		mcpAskTutor(deps),
	)

	s.AddTool(
		mcp.NewTool("list_tutors",
			mcp.WithDescription("List the available tutor personas."),
		),
		mcpListTutors(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"tutor://personas",
			"Tutor Personas",
			mcp.WithResourceDescription("Available tutor personas as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourcePersonas(deps),
	)

	return s
}

func mcpAskTutor(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tutorID, err := req.RequireString("tutor")
		if err != nil {
			return mcpError("tutor is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		reply, err := deps.Dispatcher.HandleChat(ctx, tutorID, message, nil)
		if err != nil {
			switch {
			case errors.Is(err, tutor.ErrUnknownTutor):
				return mcpError(fmt.Sprintf("unknown tutor %q; use list_tutors for valid identifiers", tutorID)), nil
			case errors.Is(err, tutor.ErrEmptyMessage):
				return mcpError("message must not be empty"), nil
			default:
				return mcpError(fmt.Sprintf("tutor service unavailable: %v", err)), nil
			}
		}

		return mcpText(reply.Text), nil
	}
}

func mcpListTutors(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		b, err := json.Marshal(deps.Registry.All())
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal tutors: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourcePersonas(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Registry.All())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal personas: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
