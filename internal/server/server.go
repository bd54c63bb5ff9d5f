// Package server exposes a domain.ToolManager as an MCP server.
package server

import (
	"context"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/fpt/codeassist/pkg/domain"
	"github.com/fpt/codeassist/pkg/message"
)

// Version is set at build time via ldflags.
var Version = "dev"

const instructions = "Content tools for a coding assistant. " +
	"Local tools (search_files, read_file, write_file, list_directory, grep_files) work on the workspace tree. " +
	"GitHub tools (github_get_file_contents, github_list_directory_contents, github_search_code) are read-only and need GITHUB_TOKEN. " +
	"Every result is a JSON object whose success field tells whether the call worked."

// Tool pairs an MCP definition with the handler that serves it.
type Tool struct {
	Definition mcp.Tool
	Handler    mcpserver.ToolHandlerFunc
}

// New creates an MCP server with every tool of tm registered.
func New(tm domain.ToolManager) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer(
		"codeassist",
		Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions(instructions),
	)
	for _, t := range Tools(tm) {
		s.AddTool(t.Definition, t.Handler)
	}
	return s
}

// Tools converts the tools of tm in name order.
func Tools(tm domain.ToolManager) []Tool {
	tools := tm.GetTools()
	names := make([]message.ToolName, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]Tool, 0, len(names))
	for _, name := range names {
		out = append(out, Tool{
			Definition: Definition(tools[name]),
			Handler:    Handler(tm, name),
		})
	}
	return out
}

// Definition builds the MCP schema of t from its argument list.
func Definition(t message.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description().String())}
	for _, arg := range t.Arguments() {
		opts = append(opts, argumentOption(arg))
	}
	return mcp.NewTool(t.Name().String(), opts...)
}

func argumentOption(arg message.ToolArgument) mcp.ToolOption {
	props := []mcp.PropertyOption{mcp.Description(arg.Description.String())}
	if arg.Required {
		props = append(props, mcp.Required())
	}

	name := arg.Name.String()
	switch arg.Type {
	case "number", "integer":
		return mcp.WithNumber(name, props...)
	case "boolean":
		return mcp.WithBoolean(name, props...)
	case "array":
		if items, ok := arg.Properties["items"]; ok {
			props = append(props, mcp.Items(items))
		}
		return mcp.WithArray(name, props...)
	case "object":
		if fields, ok := arg.Properties["properties"].(map[string]any); ok {
			props = append(props, mcp.Properties(fields))
		}
		return mcp.WithObject(name, props...)
	default:
		return mcp.WithString(name, props...)
	}
}

// Handler dispatches MCP calls for name to tm. The request context is
// passed through unchanged; failure envelopes are flagged with IsError.
func Handler(tm domain.ToolManager, name message.ToolName) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := tm.CallTool(ctx, name, message.ToolArgumentValues(req.GetArguments()))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if result.IsError() {
			text := result.Text
			if text == "" {
				text = result.Error
			}
			return mcp.NewToolResultError(text), nil
		}
		return mcp.NewToolResultText(result.Text), nil
	}
}
