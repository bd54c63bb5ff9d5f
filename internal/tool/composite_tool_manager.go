package tool

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/fpt/codeassist/internal/metrics"
	"github.com/fpt/codeassist/pkg/domain"
	pkgLogger "github.com/fpt/codeassist/pkg/logger"
	"github.com/fpt/codeassist/pkg/message"
)

// CompositeToolManager combines multiple tool managers into one and records
// every call it dispatches.
type CompositeToolManager struct {
	managers    []domain.ToolManager
	annotators  []domain.ToolAnnotator
	toolsMap    map[message.ToolName]message.Tool
	resultTypes map[message.ToolName]any
}

// NewCompositeToolManager creates a new composite tool manager from multiple managers
func NewCompositeToolManager(managers ...domain.ToolManager) *CompositeToolManager {
	composite := &CompositeToolManager{
		managers:    managers,
		toolsMap:    make(map[message.ToolName]message.Tool),
		resultTypes: make(map[message.ToolName]any),
	}

	for _, manager := range managers {
		for _, tool := range manager.GetTools() {
			composite.toolsMap[tool.Name()] = tool
		}
		if ann, ok := manager.(domain.ToolAnnotator); ok {
			composite.annotators = append(composite.annotators, ann)
		}
		if desc, ok := manager.(domain.ToolResultDescriber); ok {
			maps.Copy(composite.resultTypes, desc.ResultTypes())
		}
	}

	return composite
}

// GetTool returns a tool by name from any of the managed tool managers
func (c *CompositeToolManager) GetTool(name message.ToolName) (message.Tool, bool) {
	tool, exists := c.toolsMap[name]
	return tool, exists
}

// GetTools returns all tools, applying dynamic annotations from any ToolAnnotator managers.
func (c *CompositeToolManager) GetTools() map[message.ToolName]message.Tool {
	if len(c.annotators) == 0 {
		return c.toolsMap
	}

	annotations := make(map[message.ToolName]string)
	for _, ann := range c.annotators {
		for name, text := range ann.AnnotateTools() {
			if text != "" {
				annotations[name] = text
			}
		}
	}
	if len(annotations) == 0 {
		return c.toolsMap
	}

	result := make(map[message.ToolName]message.Tool, len(c.toolsMap))
	for name, tool := range c.toolsMap {
		if ann, ok := annotations[name]; ok {
			result[name] = &annotatedTool{
				Tool: tool,
				desc: message.ToolDescription(fmt.Sprintf("%s (%s)", tool.Description(), ann)),
			}
		} else {
			result[name] = tool
		}
	}
	return result
}

// ResultTypes merges the payload types of the managed tool managers.
func (c *CompositeToolManager) ResultTypes() map[message.ToolName]any {
	return c.resultTypes
}

// CallTool executes a tool from any of the managed tool managers. Each call
// gets an id that tags its log lines.
func (c *CompositeToolManager) CallTool(ctx context.Context, name message.ToolName, args message.ToolArgumentValues) (message.ToolResult, error) {
	tool, exists := c.toolsMap[name]
	if !exists {
		return message.NewToolResultError(fmt.Sprintf("tool %s not found", name)), nil
	}

	callLogger := logger.WithCall(uuid.NewString())
	callLogger.InfoWithIntention(pkgLogger.IntentionTool, "Tool call started", "tool", name)

	start := time.Now()
	result, err := tool.Handler()(ctx, args)
	elapsed := time.Since(start)

	outcome := callOutcome(result, err)
	metrics.RecordToolCall(name.String(), outcome, elapsed)
	if outcome == "success" {
		callLogger.InfoWithIntention(pkgLogger.IntentionSuccess, "Tool call finished", "tool", name, "duration", elapsed)
	} else {
		callLogger.WarnWithIntention(pkgLogger.IntentionWarning, "Tool call failed", "tool", name, "kind", outcome, "error", result.Error, "duration", elapsed)
	}
	return result, err
}

// callOutcome is the metrics label for a finished call: "success" or the
// error kind.
func callOutcome(result message.ToolResult, err error) string {
	switch {
	case err != nil:
		return string(message.KindUnexpected)
	case !result.IsError():
		return "success"
	case result.Kind != "":
		return string(result.Kind)
	default:
		return string(message.KindUnexpected)
	}
}

// RegisterTool is not supported on composite managers since tools should be registered on the underlying managers
func (c *CompositeToolManager) RegisterTool(name message.ToolName, description message.ToolDescription, args []message.ToolArgument, handler func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error)) {
	panic("RegisterTool not supported on CompositeToolManager - register on underlying managers instead")
}

// annotatedTool wraps a Tool with a dynamically enhanced description.
type annotatedTool struct {
	message.Tool
	desc message.ToolDescription
}

func (a *annotatedTool) Description() message.ToolDescription {
	return a.desc
}
