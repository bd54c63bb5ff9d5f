package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/fpt/codeassist/internal/infra"
	"github.com/fpt/codeassist/internal/repository"
	"github.com/fpt/codeassist/pkg/message"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func newTestSearchManager(t *testing.T, workingDir string) *SearchToolManager {
	t.Helper()
	return NewSearchToolManager(infra.NewOSFilesystemRepository(), SearchConfig{
		WorkingDir: workingDir,
		FileSystem: repository.FileSystemConfig{BlacklistedFiles: []string{"*.pem"}},
	})
}

func TestSearchToolManager_Scenario(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"src/a.py":  "x=1",
		"src/b.txt": "hello world",
	})
	manager := newTestSearchManager(t, dir)
	ctx := context.Background()

	search := manager.Search(ctx, "src", "a")
	if !search.Success {
		t.Fatalf("search failed: %s", search.Error)
	}
	if search.Value.Count != 1 || len(search.Value.Matches) != 1 {
		t.Fatalf("expected one match, got %+v", search.Value)
	}
	if m := search.Value.Matches[0]; m.Path != filepath.Join("src", "a.py") || m.Type != EntryTypeFile {
		t.Errorf("unexpected match %+v", m)
	}

	grep := manager.Grep(ctx, "src", "hello", ".txt", 0)
	if !grep.Success {
		t.Fatalf("grep failed: %s", grep.Error)
	}
	if grep.Value.TotalMatches != 1 || grep.Value.FilesWithMatches != 1 {
		t.Fatalf("unexpected counts %+v", grep.Value)
	}
	fm := grep.Value.FileMatches[0]
	if filepath.Base(fm.File) != "b.txt" || fm.Matches[0].LineNumber != 1 || fm.Matches[0].Match != "hello world" {
		t.Errorf("unexpected file match %+v", fm)
	}
}

func TestSearchToolManager_Search(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"proj/cmd/main.go":        "package main",
		"proj/internal/main_test": "",
		"proj/mainframe/x.txt":    "",
		"proj/other.go":           "",
	})
	manager := newTestSearchManager(t, dir)
	ctx := context.Background()

	result := manager.Search(ctx, "proj", "main")
	if !result.Success {
		t.Fatalf("search failed: %s", result.Error)
	}
	var got []string
	for _, m := range result.Value.Matches {
		if !strings.Contains(m.Name, "main") {
			t.Errorf("%s does not contain pattern", m.Name)
		}
		got = append(got, filepath.ToSlash(m.Path)+":"+m.Type)
	}
	want := []string{
		"proj/cmd/main.go:FILE",
		"proj/internal/main_test:FILE",
		"proj/mainframe:DIR",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("matches (-want +got):\n%s", diff)
	}
	if result.Value.Count != len(result.Value.Matches) {
		t.Error("count must equal number of matches")
	}

	t.Run("NoMatches", func(t *testing.T) {
		result, err := manager.handleSearchFiles(ctx, map[string]any{"base_path": "proj", "pattern": "zzz"})
		if err != nil {
			t.Fatal(err)
		}
		if result.Text != `{"success":true,"matches":[],"count":0}` {
			t.Errorf("unexpected result %s", result.Text)
		}
	})

	t.Run("GlobCharactersAreLiteral", func(t *testing.T) {
		result := manager.Search(ctx, "proj", "ma*n")
		if !result.Success || result.Value.Count != 0 {
			t.Errorf("expected literal match only, got %+v", result.Value)
		}
	})

	t.Run("RootErrors", func(t *testing.T) {
		if r := manager.Search(ctx, "missing", "a"); r.Success || r.Kind != message.KindNotFound {
			t.Errorf("expected not_found, got %+v", r)
		}
		if r := manager.Search(ctx, "proj/other.go", "a"); r.Success || r.Kind != message.KindWrongKind {
			t.Errorf("expected wrong_kind, got %+v", r)
		}
	})
}

func TestSearchToolManager_GrepContextWindows(t *testing.T) {
	dir := t.TempDir()
	lines := []string{"match 1", "two", "three", "match 4", "five", "six", "seven", "match 8"}
	writeTree(t, dir, map[string]string{"f.txt": strings.Join(lines, "\n") + "\n"})
	manager := newTestSearchManager(t, dir)
	ctx := context.Background()

	for _, k := range []int{0, 1, 2, 5} {
		result := manager.Grep(ctx, ".", "^match", "", k)
		if !result.Success {
			t.Fatalf("k=%d: grep failed: %s", k, result.Error)
		}
		matches := result.Value.FileMatches[0].Matches
		if len(matches) != 3 {
			t.Fatalf("k=%d: expected 3 matches, got %d", k, len(matches))
		}
		for _, m := range matches {
			wantBefore := min(k, m.LineNumber-1)
			wantAfter := min(k, len(lines)-m.LineNumber)
			if len(m.ContextBefore) != wantBefore || len(m.ContextAfter) != wantAfter {
				t.Errorf("k=%d line %d: context %d/%d, want %d/%d",
					k, m.LineNumber, len(m.ContextBefore), len(m.ContextAfter), wantBefore, wantAfter)
			}
		}
	}

	result := manager.Grep(ctx, ".", "match 4", "", 1)
	got := result.Value.FileMatches[0].Matches[0]
	want := GrepMatch{LineNumber: 4, Match: "match 4", ContextBefore: []string{"three"}, ContextAfter: []string{"five"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("match (-want +got):\n%s", diff)
	}

	if r := manager.Grep(ctx, ".", "^match", "", -3); !r.Success || len(r.Value.FileMatches[0].Matches[0].ContextAfter) != 0 {
		t.Errorf("negative context should behave as zero, got %+v", r)
	}
}

func TestSearchToolManager_GrepFiltering(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.go":          "func main() {}\n  func helper() {}\r\n",
		"b.go":          "package b\n",
		"c.txt":         "func in text\n",
		"nested/d.go":   "func nested() {}\n",
		"server.pem":    "func secret\n",
		"notes.go.orig": "func old\n",
	})
	if err := os.WriteFile(filepath.Join(dir, "bin.go"), []byte{'f', 'u', 'n', 'c', 0xff, 0xfe}, 0644); err != nil {
		t.Fatal(err)
	}
	manager := newTestSearchManager(t, dir)
	ctx := context.Background()

	result, err := manager.handleGrepFiles(ctx, map[string]any{
		"directory":      ".",
		"pattern":        `func \w+\(`,
		"file_extension": ".go",
	})
	if err != nil {
		t.Fatal(err)
	}
	out := decodeEnvelope(t, result)
	if out["success"] != true {
		t.Fatalf("grep failed: %v", out)
	}
	if out["files_with_matches"] != float64(2) || out["total_matches"] != float64(3) {
		t.Errorf("unexpected counts: %v", out)
	}

	typed := manager.Grep(ctx, ".", `func \w+\(`, ".go", 0)
	var files []string
	for _, f := range typed.Value.FileMatches {
		files = append(files, filepath.ToSlash(f.File))
	}
	if diff := cmp.Diff([]string{"a.go", "nested/d.go"}, files); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
	if m := typed.Value.FileMatches[0].Matches[1]; m.LineNumber != 2 || m.Match != "func helper() {}" {
		t.Errorf("second match should be trimmed without CR, got %+v", m)
	}

	t.Run("Lookaround", func(t *testing.T) {
		r := manager.Grep(ctx, ".", `func (?!main)\w+`, ".go", 0)
		if !r.Success || r.Value.TotalMatches != 2 {
			t.Errorf("expected lookahead support, got %+v", r.Value)
		}
	})

	t.Run("InvalidRegex", func(t *testing.T) {
		r := manager.Grep(ctx, ".", "(unclosed", "", 0)
		if r.Success || r.Kind != message.KindConfiguration {
			t.Errorf("expected configuration error, got %+v", r)
		}
	})

	t.Run("EmptyPatternMatchesEveryLine", func(t *testing.T) {
		r, _ := manager.handleGrepFiles(ctx, map[string]any{"directory": "nested", "pattern": ""})
		out := decodeEnvelope(t, r)
		if out["success"] != true || out["total_matches"] != float64(1) {
			t.Errorf("unexpected result %v", out)
		}
	})

	t.Run("MissingPattern", func(t *testing.T) {
		r, _ := manager.handleGrepFiles(ctx, map[string]any{"directory": "."})
		if r.Kind != message.KindConfiguration {
			t.Errorf("expected configuration error, got %+v", r)
		}
	})

	t.Run("NoMatchesIsSuccess", func(t *testing.T) {
		r, _ := manager.handleGrepFiles(ctx, map[string]any{"directory": ".", "pattern": "nothing-here"})
		want := `{"success":true,"pattern":"nothing-here","directory":".","file_matches":[],"files_with_matches":0,"total_matches":0}`
		if r.Text != want {
			t.Errorf("got %s", r.Text)
		}
	})
}

func TestSearchToolManager_SymlinkedRoot(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"src/a.py":  "x=1",
		"src/b.txt": "hello world",
	})
	if err := os.Symlink(filepath.Join(dir, "src"), filepath.Join(dir, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	ctx := context.Background()

	t.Run("LinkedBasePath", func(t *testing.T) {
		manager := newTestSearchManager(t, dir)

		search := manager.Search(ctx, "link", "a")
		if !search.Success || search.Value.Count != 1 {
			t.Fatalf("expected one match through the link, got %+v", search)
		}
		if got := search.Value.Matches[0].Path; got != filepath.Join("link", "a.py") {
			t.Errorf("path should keep the caller's spelling, got %s", got)
		}

		grep := manager.Grep(ctx, "link", "hello", "", 0)
		if !grep.Success || grep.Value.TotalMatches != 1 {
			t.Fatalf("expected one grep match through the link, got %+v", grep)
		}
		if got := grep.Value.FileMatches[0].File; got != filepath.Join("link", "b.txt") {
			t.Errorf("file = %s", got)
		}
	})

	t.Run("LinkedWorkingDirectory", func(t *testing.T) {
		manager := newTestSearchManager(t, filepath.Join(dir, "link"))

		search := manager.Search(ctx, ".", "a")
		if !search.Success || search.Value.Count != 1 {
			t.Fatalf("expected one match in a linked working directory, got %+v", search)
		}
		if got := search.Value.Matches[0].Path; got != "a.py" {
			t.Errorf("path = %s", got)
		}
	})
}
