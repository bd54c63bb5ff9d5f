package tool

import (
	"strconv"
	"strings"

	"github.com/fpt/codeassist/pkg/message"
)

// stringArg returns args[name] when it is a string.
func stringArg(args message.ToolArgumentValues, name string) (string, bool) {
	s, ok := args[name].(string)
	return s, ok
}

// intArg accepts JSON numbers and numeric strings.
func intArg(args message.ToolArgumentValues, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// missingArgument renders the configuration failure for a required argument.
func missingArgument(name string) message.ToolResult {
	return message.Fail[struct{}](message.Errorf(message.KindConfiguration, "%s parameter is required", name)).ToolResult()
}
