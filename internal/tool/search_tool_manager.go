package tool

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/fpt/codeassist/internal/metrics"
	"github.com/fpt/codeassist/internal/repository"
	pkgLogger "github.com/fpt/codeassist/pkg/logger"
	"github.com/fpt/codeassist/pkg/message"
)

const defaultMatchTimeout = 2 * time.Second

// SearchToolManager provides name search and content grep over the local tree.
type SearchToolManager struct {
	registry

	fsRepo       repository.FilesystemRepository
	ws           workspace
	matchTimeout time.Duration
}

type SearchConfig struct {
	WorkingDir   string
	FileSystem   repository.FileSystemConfig
	MatchTimeout time.Duration // per-line regex budget for grep
}

func NewSearchToolManager(fsRepo repository.FilesystemRepository, cfg SearchConfig) *SearchToolManager {
	if cfg.MatchTimeout <= 0 {
		cfg.MatchTimeout = defaultMatchTimeout
	}
	m := &SearchToolManager{
		registry:     newRegistry(),
		fsRepo:       fsRepo,
		ws:           newWorkspace(cfg.FileSystem, cfg.WorkingDir),
		matchTimeout: cfg.MatchTimeout,
	}
	m.register()
	return m
}

func (m *SearchToolManager) register() {
	m.RegisterTool("search_files", "Recursively find files and directories whose name contains the pattern",
		[]message.ToolArgument{
			{Name: "base_path", Description: "Directory to search from", Required: true, Type: "string"},
			{Name: "pattern", Description: "Text the base name must contain", Required: true, Type: "string"},
		}, m.handleSearchFiles)

	m.RegisterTool("grep_files", "Search file contents line by line with a regular expression",
		[]message.ToolArgument{
			{Name: "directory", Description: "Directory to search recursively", Required: true, Type: "string"},
			{Name: "pattern", Description: "Regular expression applied to each line", Required: true, Type: "string"},
			{Name: "file_extension", Description: "Only search files whose name ends with this suffix, e.g. .go", Required: false, Type: "string"},
			{Name: "context_lines", Description: "Lines of context before and after each match (default 0)", Required: false, Type: "number"},
		}, m.handleGrepFiles)
}

// openRoot resolves a traversal root, checks that it is a directory and
// returns it with symlinks evaluated.
func (m *SearchToolManager) openRoot(ctx context.Context, path string) (string, error) {
	root, err := m.ws.resolve(path)
	if err != nil {
		return "", err
	}
	info, err := m.fsRepo.Stat(ctx, root)
	if err != nil {
		return "", ioError(err, "opening", path)
	}
	if !info.IsDir() {
		return "", message.Errorf(message.KindWrongKind, "path is not a directory: %s", path)
	}
	// WalkDir does not descend into a symlinked root.
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", ioError(err, "opening", path)
	}
	return walkRoot, nil
}

// Search walks basePath and returns every file and directory below it
// whose base name contains pattern. Reported paths are joined onto
// basePath as the caller spelled it.
func (m *SearchToolManager) Search(ctx context.Context, basePath, pattern string) message.Result[SearchResult] {
	root, err := m.openRoot(ctx, basePath)
	if err != nil {
		return message.Fail[SearchResult](err)
	}

	matches := []FileEntry{}
	scanned := 0
	walkErr := m.fsRepo.WalkDir(ctx, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.DebugWithIntention(pkgLogger.IntentionSearch, "Skipping unreadable entry", "path", path, "error", err)
			return nil
		}
		if path == root {
			return nil
		}
		scanned++
		if !strings.Contains(d.Name(), pattern) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		matches = append(matches, newFileEntry(displayPath(basePath, root, path), info))
		return nil
	})
	metrics.AddFilesScanned("search", scanned)
	if walkErr != nil {
		return message.Fail[SearchResult](ioError(walkErr, "searching", basePath))
	}

	return message.OK(SearchResult{Matches: matches, Count: len(matches)})
}

// Grep applies pattern to every line of every UTF-8 file below directory.
// Files that cannot be read or decoded are skipped.
func (m *SearchToolManager) Grep(ctx context.Context, directory, pattern, fileExtension string, contextLines int) message.Result[GrepResult] {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return message.Fail[GrepResult](message.WrapErrorf(err, message.KindConfiguration, "invalid regular expression %q", pattern))
	}
	re.MatchTimeout = m.matchTimeout

	root, err := m.openRoot(ctx, directory)
	if err != nil {
		return message.Fail[GrepResult](err)
	}
	contextLines = max(contextLines, 0)

	var files []GrepFileResult
	scanned := 0
	walkErr := m.fsRepo.WalkDir(ctx, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), fileExtension) {
			return nil
		}
		if !m.isRegularFile(ctx, path, d) || m.ws.isFileBlacklisted(path) != nil {
			return nil
		}

		scanned++
		data, err := m.fsRepo.ReadFile(ctx, path)
		if err != nil || !utf8.Valid(data) {
			return nil
		}
		if found := grepLines(re, splitLines(string(data)), contextLines); len(found) > 0 {
			files = append(files, GrepFileResult{File: displayPath(directory, root, path), Matches: found})
		}
		return nil
	})
	metrics.AddFilesScanned("grep", scanned)
	if walkErr != nil {
		return message.Fail[GrepResult](ioError(walkErr, "searching", directory))
	}

	return message.OK(newGrepResult(pattern, directory, files))
}

// isRegularFile follows symlinks; pipes, sockets and devices are skipped.
func (m *SearchToolManager) isRegularFile(ctx context.Context, path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := m.fsRepo.Stat(ctx, path)
	return err == nil && info.Mode().IsRegular()
}

// grepLines matches each line in isolation. A line whose match exceeds the
// regex time budget counts as a non-match.
func grepLines(re *regexp2.Regexp, lines []string, contextLines int) []GrepMatch {
	var found []GrepMatch
	for i, line := range lines {
		ok, err := re.MatchString(line)
		if err != nil {
			logger.DebugWithIntention(pkgLogger.IntentionSearch, "Regex match aborted", "line", i+1, "error", err)
			continue
		}
		if !ok {
			continue
		}
		start := max(0, i-contextLines)
		end := min(len(lines), i+contextLines+1)
		found = append(found, GrepMatch{
			LineNumber:    i + 1,
			Match:         strings.TrimSpace(line),
			ContextBefore: trimLines(lines[start:i]),
			ContextAfter:  trimLines(lines[i+1 : end]),
		})
	}
	return found
}

// splitLines drops line terminators. A final newline does not start an
// extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func trimLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

// displayPath rebases path from the resolved root onto the caller's base.
func displayPath(base, root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.Join(base, rel)
}

func (m *SearchToolManager) handleSearchFiles(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	basePath, ok := stringArg(args, "base_path")
	if !ok || basePath == "" {
		return missingArgument("base_path"), nil
	}
	pattern, ok := stringArg(args, "pattern")
	if !ok {
		return missingArgument("pattern"), nil
	}
	return m.Search(ctx, basePath, pattern).ToolResult(), nil
}

func (m *SearchToolManager) handleGrepFiles(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	directory, ok := stringArg(args, "directory")
	if !ok || directory == "" {
		return missingArgument("directory"), nil
	}
	pattern, ok := stringArg(args, "pattern")
	if !ok {
		return missingArgument("pattern"), nil
	}
	ext, _ := stringArg(args, "file_extension")
	return m.Grep(ctx, directory, pattern, ext, intArg(args, "context_lines", 0)).ToolResult(), nil
}

func (m *SearchToolManager) ResultTypes() map[message.ToolName]any {
	return map[message.ToolName]any{
		"search_files": SearchResult{},
		"grep_files":   GrepResult{},
	}
}
