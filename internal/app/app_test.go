package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fpt/codeassist/internal/config"
	"github.com/fpt/codeassist/internal/infra"
	"github.com/fpt/codeassist/internal/session"
	"github.com/fpt/codeassist/pkg/message"
	"github.com/fpt/codeassist/pkg/remote"
)

func newTestApp(t *testing.T, env map[string]string) *App {
	t.Helper()
	a, err := New(config.GetDefaultSettings(), Options{
		SessionRepository: infra.NewInMemorySessionRepository(),
		Detector:          remote.NewDetector(nil),
		Getenv:            func(k string) string { return env[k] },
		Now:               func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func TestNewUsesProjectPathFromInitialContext(t *testing.T) {
	project := t.TempDir()
	if err := os.WriteFile(filepath.Join(project, "main.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	contextFile := filepath.Join(t.TempDir(), "context.json")
	doc := `{"state":{"project_path":"` + filepath.ToSlash(project) + `","project_language":"go"}}`
	if err := os.WriteFile(contextFile, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	a := newTestApp(t, map[string]string{config.EnvInitialContext: contextFile})

	if a.WorkingDir != filepath.Clean(project) {
		t.Errorf("working dir = %s, want %s", a.WorkingDir, project)
	}
	if a.State.String(session.KeyProjectLanguage) != "go" {
		t.Errorf("initial context not applied: %v", a.State.Snapshot())
	}
	if a.State.String(session.KeySystemTime) != "2026-03-04 05:06:07.000000" {
		t.Errorf("system_time = %q", a.State.String(session.KeySystemTime))
	}

	result, err := a.Tools.CallTool(context.Background(), "search_files", message.ToolArgumentValues{
		"base_path": project,
		"pattern":   "main",
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if result.IsError() || !strings.Contains(result.Text, `"count":1`) {
		t.Errorf("unexpected search result %+v", result)
	}
}

func TestNewRegistersAllTools(t *testing.T) {
	a := newTestApp(t, nil)
	want := []message.ToolName{
		"read_file", "write_file", "list_directory", "search_files", "grep_files",
		"github_get_file_contents", "github_list_directory_contents", "github_search_code", "memorize", "recall",
	}
	tools := a.Tools.GetTools()
	for _, name := range want {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestNewReadsGitHubEnvironment(t *testing.T) {
	a := newTestApp(t, map[string]string{
		config.EnvGitHubToken:      "ghp_test",
		config.EnvGitHubRepository: "octo/hello",
	})
	if a.GitHub.Token != "ghp_test" || a.GitHub.Repository != "octo/hello" {
		t.Errorf("unexpected GitHub config %+v", a.GitHub)
	}

	result, err := a.Tools.CallTool(context.Background(), "github_get_file_contents", message.ToolArgumentValues{"path": "README.md"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Kind != message.KindCapabilityUnavailable {
		t.Errorf("expected capability failure without backends, got %+v", result)
	}
}

func TestWriteToolResult(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteToolResult(&buf, message.ToolResult{Text: `{"success":true,"data":{"count":0}}`}, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n  \"success\": true") {
		t.Errorf("expected indented output, got %q", buf.String())
	}

	buf.Reset()
	if err := WriteToolResult(&buf, message.ToolResult{Error: "boom"}, true); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "boom\n" {
		t.Errorf("got %q", buf.String())
	}
}
