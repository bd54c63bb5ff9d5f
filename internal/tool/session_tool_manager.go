package tool

import (
	"context"
	"fmt"

	"github.com/fpt/codeassist/internal/session"
	"github.com/fpt/codeassist/pkg/message"
)

// SessionToolManager provides memorize and recall over the session state.
type SessionToolManager struct {
	registry

	state *session.State
}

func NewSessionToolManager(state *session.State) *SessionToolManager {
	m := &SessionToolManager{
		registry: newRegistry(),
		state:    state,
	}
	m.register()
	return m
}

func (m *SessionToolManager) register() {
	m.RegisterTool("memorize", "Remember a value under a key for the rest of the session",
		[]message.ToolArgument{
			{Name: "key", Description: "Name to store the value under", Required: true, Type: "string"},
			{Name: "value", Description: "Value to remember", Required: true, Type: "string"},
		},
		m.handleMemorize)

	m.RegisterTool("recall", "Return a remembered value, or the whole session state when no key is given",
		[]message.ToolArgument{
			{Name: "key", Description: "Key to look up (optional)", Required: false, Type: "string"},
		},
		m.handleRecall)
}

func (m *SessionToolManager) Memorize(key, value string) message.Result[MemorizeResult] {
	if key == "" {
		return message.Fail[MemorizeResult](message.Errorf(message.KindConfiguration, "key parameter is required"))
	}
	if err := m.state.Set(key, value); err != nil {
		return message.Fail[MemorizeResult](message.WithKind(err, message.KindIOFailure))
	}
	return message.OK(MemorizeResult{Status: fmt.Sprintf(`Stored "%s": "%s"`, key, value)})
}

func (m *SessionToolManager) Recall(key string) message.Result[RecallResult] {
	if key == "" {
		return message.OK(RecallResult{Found: true, State: m.state.Snapshot()})
	}
	value, found := m.state.Get(key)
	return message.OK(RecallResult{Key: key, Value: value, Found: found})
}

func (m *SessionToolManager) handleMemorize(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	key, _ := stringArg(args, "key")
	value, ok := args["value"]
	if !ok {
		return missingArgument("value"), nil
	}
	text, ok := value.(string)
	if !ok {
		text = fmt.Sprint(value)
	}
	return m.Memorize(key, text).ToolResult(), nil
}

func (m *SessionToolManager) handleRecall(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	key, _ := stringArg(args, "key")
	return m.Recall(key).ToolResult(), nil
}

func (m *SessionToolManager) ResultTypes() map[message.ToolName]any {
	return map[message.ToolName]any{
		"memorize": MemorizeResult{},
		"recall":   RecallResult{},
	}
}
