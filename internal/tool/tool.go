package tool

import (
	"context"
	"fmt"

	pkgLogger "github.com/fpt/codeassist/pkg/logger"
	"github.com/fpt/codeassist/pkg/message"
)

var logger = pkgLogger.NewComponentLogger("tool")

// registeredTool is the message.Tool every manager in this package hands out.
type registeredTool struct {
	name        message.ToolName
	description message.ToolDescription
	arguments   []message.ToolArgument
	handler     message.ToolHandler
}

func (t *registeredTool) RawName() message.ToolName {
	return t.name
}

func (t *registeredTool) Name() message.ToolName {
	return t.name
}

func (t *registeredTool) Description() message.ToolDescription {
	return t.description
}

func (t *registeredTool) Arguments() []message.ToolArgument {
	return t.arguments
}

func (t *registeredTool) Handler() func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	return t.handler
}

// registry implements the lookup half of domain.ToolManager. Managers embed
// it and register their handlers from the constructor.
type registry struct {
	tools map[message.ToolName]message.Tool
}

func newRegistry() registry {
	return registry{tools: make(map[message.ToolName]message.Tool)}
}

func (r *registry) GetTool(name message.ToolName) (message.Tool, bool) {
	tool, exists := r.tools[name]
	return tool, exists
}

func (r *registry) GetTools() map[message.ToolName]message.Tool {
	return r.tools
}

func (r *registry) CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error) {
	tool, exists := r.tools[name]
	if !exists {
		return message.NewToolResultError(fmt.Sprintf("tool %s not found", name)), nil
	}
	return tool.Handler()(ctx, args)
}

func (r *registry) RegisterTool(name message.ToolName, description message.ToolDescription, args []message.ToolArgument, handler func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error)) {
	r.tools[name] = &registeredTool{
		name:        name,
		description: description,
		arguments:   args,
		handler:     handler,
	}
}
