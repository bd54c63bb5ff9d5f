package message

import (
	"context"
)

type ToolName string
type ToolDescription string
type ToolArgumentValues map[string]any

// ToolResult is what a tool handler hands back to the transport.
// Text carries the rendered payload; Error is set when the call failed.
type ToolResult struct {
	Text  string
	Error string
	Kind  ErrorKind // set with Error when the failure was classified
}

// NewToolResultText creates a tool result with only text content
func NewToolResultText(text string) ToolResult {
	return ToolResult{Text: text}
}

// NewToolResultError creates a tool result with an error
func NewToolResultError(errorMsg string) ToolResult {
	return ToolResult{Error: errorMsg}
}

// IsError reports whether the tool call failed.
func (r ToolResult) IsError() bool {
	return r.Error != ""
}

func (t ToolName) String() string {
	return string(t)
}

func (t ToolDescription) String() string {
	return string(t)
}

// ToolHandler executes a tool call.
type ToolHandler func(ctx context.Context, args ToolArgumentValues) (ToolResult, error)

// Tool represents a tool definition
type Tool interface {
	RawName() ToolName
	Name() ToolName
	Description() ToolDescription
	Arguments() []ToolArgument
	Handler() func(ctx context.Context, args ToolArgumentValues) (ToolResult, error)
}

// ToolArgument describes one input of a tool. Type is a JSON schema
// primitive: "string", "number", "boolean", "array" or "object".
type ToolArgument struct {
	Name        ToolName
	Description ToolDescription
	Required    bool
	Type        string
	// Properties defines schema for complex types (objects, arrays)
	// For arrays: Properties["items"] = schema for array items
	Properties map[string]any `json:"properties,omitempty"`
}
