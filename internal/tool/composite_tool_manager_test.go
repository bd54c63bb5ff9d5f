package tool

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/fpt/codeassist/internal/infra"
	"github.com/fpt/codeassist/internal/metrics"
	"github.com/fpt/codeassist/internal/repository"
	"github.com/fpt/codeassist/pkg/message"
)

// mockAnnotator implements domain.ToolAnnotator for testing.
type mockAnnotator struct {
	annotations map[message.ToolName]string
}

func (m *mockAnnotator) AnnotateTools() map[message.ToolName]string {
	return m.annotations
}

// mockToolManager is a simple tool manager for testing.
type mockToolManager struct {
	registry
}

func newMockToolManager(names ...string) *mockToolManager {
	m := &mockToolManager{registry: newRegistry()}
	for _, name := range names {
		m.RegisterTool(message.ToolName(name), message.ToolDescription("Description for "+name), nil,
			func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
				return message.NewToolResultText("ok"), nil
			})
	}
	return m
}

// mockAnnotatingToolManager is both a ToolManager and ToolAnnotator.
type mockAnnotatingToolManager struct {
	*mockToolManager
	*mockAnnotator
}

func TestCompositeToolManager_NoAnnotators(t *testing.T) {
	mgr := newMockToolManager("read_file", "write_file")
	composite := NewCompositeToolManager(mgr)

	tools := composite.GetTools()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	for _, tool := range tools {
		desc := tool.Description().String()
		if strings.Contains(desc, "(") {
			t.Errorf("expected no annotation in description, got: %s", desc)
		}
	}
}

func TestCompositeToolManager_AnnotatorDynamic(t *testing.T) {
	ann := &mockAnnotator{annotations: nil}
	mgr := &mockAnnotatingToolManager{
		mockToolManager: newMockToolManager("github_search_code", "read_file"),
		mockAnnotator:   ann,
	}

	composite := NewCompositeToolManager(mgr)

	desc1 := composite.GetTools()["github_search_code"].Description().String()
	if strings.Contains(desc1, "backend") {
		t.Errorf("expected no annotation initially, got: %s", desc1)
	}

	ann.annotations = map[message.ToolName]string{
		"github_search_code": "backend: gh",
	}

	tools := composite.GetTools()
	if desc := tools["github_search_code"].Description().String(); !strings.HasSuffix(desc, "(backend: gh)") {
		t.Errorf("expected dynamic annotation, got: %s", desc)
	}
	if desc := tools["read_file"].Description().String(); strings.Contains(desc, "backend") {
		t.Errorf("read_file should not be annotated, got: %s", desc)
	}

	result, err := composite.CallTool(context.Background(), "github_search_code", nil)
	if err != nil || result.Text != "ok" {
		t.Errorf("annotation must not affect calls: %+v %v", result, err)
	}
}

func TestCompositeToolManager_RecordsOutcomes(t *testing.T) {
	dir := t.TempDir()
	fsManager := NewFileSystemToolManager(infra.NewOSFilesystemRepository(), repository.FileSystemConfig{}, dir)
	composite := NewCompositeToolManager(fsManager, newMockToolManager("ping"))
	ctx := context.Background()

	beforeNotFound := scrapeToolCalls(t, "read_file", "not_found")
	beforeSuccess := scrapeToolCalls(t, "ping", "success")

	result, err := composite.CallTool(ctx, "read_file", map[string]any{"path": "missing.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Kind != message.KindNotFound {
		t.Errorf("expected not_found, got %+v", result)
	}
	if _, err := composite.CallTool(ctx, "ping", nil); err != nil {
		t.Fatal(err)
	}

	if got := scrapeToolCalls(t, "read_file", "not_found") - beforeNotFound; got != 1 {
		t.Errorf("not_found counter moved by %v", got)
	}
	if got := scrapeToolCalls(t, "ping", "success") - beforeSuccess; got != 1 {
		t.Errorf("success counter moved by %v", got)
	}

	if r, _ := composite.CallTool(ctx, "nope", nil); !r.IsError() {
		t.Error("unknown tool should fail")
	}
	if _, ok := composite.ResultTypes()["read_file"]; !ok {
		t.Error("result types of managed tools should be merged")
	}
}

// scrapeToolCalls reads the call counter from the metrics endpoint; an
// absent series counts as zero.
func scrapeToolCalls(t *testing.T, tool, outcome string) float64 {
	t.Helper()
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	prefix := fmt.Sprintf(`codeassist_tool_calls_total{outcome=%q,tool=%q} `, outcome, tool)
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if value, ok := strings.CutPrefix(line, prefix); ok {
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				t.Fatalf("bad sample %q: %v", line, err)
			}
			return v
		}
	}
	return 0
}
