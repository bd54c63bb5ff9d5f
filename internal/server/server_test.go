package server

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fpt/codeassist/internal/infra"
	"github.com/fpt/codeassist/internal/repository"
	"github.com/fpt/codeassist/internal/tool"
)

func newTestToolManager(t *testing.T) *tool.CompositeToolManager {
	t.Helper()
	dir := t.TempDir()
	fsRepo := infra.NewOSFilesystemRepository()
	return tool.NewCompositeToolManager(
		tool.NewFileSystemToolManager(fsRepo, repository.FileSystemConfig{}, dir),
		tool.NewSearchToolManager(fsRepo, tool.SearchConfig{WorkingDir: dir}),
	)
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func findTool(t *testing.T, tools []Tool, name string) Tool {
	t.Helper()
	for _, tl := range tools {
		if tl.Definition.Name == name {
			return tl
		}
	}
	t.Fatalf("tool %s not registered", name)
	return Tool{}
}

func TestTools_Definitions(t *testing.T) {
	tools := Tools(newTestToolManager(t))

	var names []string
	for _, tl := range tools {
		names = append(names, tl.Definition.Name)
	}
	want := []string{"grep_files", "list_directory", "read_file", "search_files", "write_file"}
	if !slices.Equal(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}

	grep := findTool(t, tools, "grep_files").Definition
	for _, prop := range []string{"directory", "pattern", "file_extension", "context_lines"} {
		if _, ok := grep.InputSchema.Properties[prop]; !ok {
			t.Errorf("grep_files is missing property %q", prop)
		}
	}
	if !slices.Contains(grep.InputSchema.Required, "pattern") || slices.Contains(grep.InputSchema.Required, "context_lines") {
		t.Errorf("unexpected required list %v", grep.InputSchema.Required)
	}
	contextProp, _ := grep.InputSchema.Properties["context_lines"].(map[string]any)
	if contextProp["type"] != "number" {
		t.Errorf("context_lines should be a number, got %v", contextProp)
	}
}

func TestHandler_RoundTrip(t *testing.T) {
	tools := Tools(newTestToolManager(t))
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{
		"path":    "notes/todo.md",
		"content": "- ship it\n",
	}
	result, err := findTool(t, tools, "write_file").Handler(ctx, req)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got: %s", getResultText(result))
	}

	req = mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"path": "notes/todo.md"}
	result, err = findTool(t, tools, "read_file").Handler(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(getResultText(result)), &out); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if out["success"] != true || out["content"] != "- ship it\n" {
		t.Errorf("unexpected read result %v", out)
	}

	req = mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"path": "nope.md"}
	result, _ = findTool(t, tools, "read_file").Handler(ctx, req)
	if !result.IsError {
		t.Error("failure envelope should set IsError")
	}
	if text := getResultText(result); !strings.Contains(text, `"success":false`) || !strings.Contains(text, `"error_kind":"not_found"`) {
		t.Errorf("failure should carry the JSON envelope, got %s", text)
	}
}

func TestCatalog(t *testing.T) {
	entries, err := Catalog(newTestToolManager(t))
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(entries) != 5 || entries[0].Name != "grep_files" {
		t.Fatalf("unexpected catalog %+v", entries)
	}

	var grepSchema map[string]any
	if err := json.Unmarshal(entries[0].ResultSchema, &grepSchema); err != nil {
		t.Fatalf("bad schema: %v", err)
	}
	props, _ := grepSchema["properties"].(map[string]any)
	for _, key := range []string{"file_matches", "files_with_matches", "total_matches"} {
		if _, ok := props[key]; !ok {
			t.Errorf("grep_files schema is missing %s", key)
		}
	}
}
