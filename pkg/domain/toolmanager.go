package domain

import (
	"context"

	"github.com/fpt/codeassist/pkg/message"
)

// ToolAnnotator is optionally implemented by ToolManagers that provide
// dynamic annotations for their tools (e.g., backend status).
// Annotations are appended to tool descriptions.
type ToolAnnotator interface {
	AnnotateTools() map[message.ToolName]string
}

type ToolManager interface {
	// RegisterTool registers a new tool with the manager
	RegisterTool(name message.ToolName, description message.ToolDescription, arguments []message.ToolArgument, handler func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error))

	// GetTools returns all registered tools
	GetTools() map[message.ToolName]message.Tool

	// CallTool executes a tool with the provided arguments
	CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error)
}

// ToolResultDescriber is optionally implemented by ToolManagers that can
// name the payload type each tool returns on success.
type ToolResultDescriber interface {
	ResultTypes() map[message.ToolName]any
}
