package tool

import (
	"context"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/fpt/codeassist/internal/repository"
	pkgLogger "github.com/fpt/codeassist/pkg/logger"
	"github.com/fpt/codeassist/pkg/message"
)

// FileSystemToolManager provides read, write and list over the local tree,
// confined to the allowed directories.
type FileSystemToolManager struct {
	registry

	fsRepo repository.FilesystemRepository
	ws     workspace
}

// NewFileSystemToolManager creates a filesystem tool manager. The working
// directory is always added to the allowed directories.
func NewFileSystemToolManager(fsRepo repository.FilesystemRepository, config repository.FileSystemConfig, workingDir string) *FileSystemToolManager {
	m := &FileSystemToolManager{
		registry: newRegistry(),
		fsRepo:   fsRepo,
		ws:       newWorkspace(config, workingDir),
	}
	m.registerFileSystemTools()
	return m
}

func (m *FileSystemToolManager) registerFileSystemTools() {
	m.RegisterTool("read_file", "Read a file. Text files return their content; binary files return only their size in bytes.",
		[]message.ToolArgument{
			{Name: "path", Description: "Path to the file, relative to the working directory or absolute", Required: true, Type: "string"},
		},
		m.handleReadFile)

	m.RegisterTool("write_file", "Write text to a file, creating missing parent directories and replacing any existing content",
		[]message.ToolArgument{
			{Name: "path", Description: "Path to the file to write", Required: true, Type: "string"},
			{Name: "content", Description: "Full file content", Required: true, Type: "string"},
		},
		m.handleWriteFile)

	m.RegisterTool("list_directory", "List the immediate children of a directory with type, size and modification time",
		[]message.ToolArgument{
			{Name: "path", Description: "Directory to list", Required: true, Type: "string"},
		},
		m.handleListDirectory)
}

// Read returns the file at path as text, or as a binary marker when its
// bytes are not valid UTF-8.
func (m *FileSystemToolManager) Read(ctx context.Context, path string) message.Result[FileContent] {
	absPath, err := m.ws.resolve(path)
	if err != nil {
		return message.Fail[FileContent](err)
	}
	if err := m.ws.isFileBlacklisted(absPath); err != nil {
		return message.Fail[FileContent](err)
	}

	info, err := m.fsRepo.Stat(ctx, absPath)
	if err != nil {
		return message.Fail[FileContent](ioError(err, "reading", path))
	}
	if info.IsDir() {
		return message.Fail[FileContent](message.Errorf(message.KindWrongKind, "path is a directory, not a file: %s", path))
	}
	if !info.Mode().IsRegular() {
		return message.Fail[FileContent](message.Errorf(message.KindWrongKind, "path is not a regular file: %s", path))
	}

	data, err := m.fsRepo.ReadFile(ctx, absPath)
	if err != nil {
		return message.Fail[FileContent](ioError(err, "reading", path))
	}

	if !utf8.Valid(data) {
		logger.DebugWithIntention(pkgLogger.IntentionTool, "File is not valid UTF-8, reporting as binary", "path", path, "bytes", len(data))
		return message.OK(FileContent{Path: path, IsBinary: true, Size: len(data)})
	}
	content := string(data)
	return message.OK(FileContent{
		Path:    path,
		Content: &content,
		Size:    utf8.RuneCount(data),
	})
}

// Write replaces the file at path with content.
func (m *FileSystemToolManager) Write(ctx context.Context, path, content string) message.Result[WriteResult] {
	absPath, err := m.ws.resolve(path)
	if err != nil {
		return message.Fail[WriteResult](err)
	}

	if info, err := m.fsRepo.Stat(ctx, absPath); err == nil && info.IsDir() {
		return message.Fail[WriteResult](message.Errorf(message.KindWrongKind, "path is a directory, not a file: %s", path))
	}
	if err := m.fsRepo.MkdirAll(ctx, filepath.Dir(absPath), 0o755); err != nil {
		return message.Fail[WriteResult](ioError(err, "creating parent directories for", path))
	}
	if err := m.fsRepo.WriteFile(ctx, absPath, []byte(content), 0o644); err != nil {
		return message.Fail[WriteResult](ioError(err, "writing", path))
	}

	logger.DebugWithIntention(pkgLogger.IntentionTool, "File written", "path", absPath, "bytes", len(content))
	return message.OK(WriteResult{
		Message:      fmt.Sprintf("Successfully wrote to %s", path),
		Path:         path,
		BytesWritten: len(content),
	})
}

// List returns the immediate children of the directory at path. Children
// that vanish between enumeration and stat are left out.
func (m *FileSystemToolManager) List(ctx context.Context, path string) message.Result[ListResult] {
	absPath, err := m.ws.resolve(path)
	if err != nil {
		return message.Fail[ListResult](err)
	}

	info, err := m.fsRepo.Stat(ctx, absPath)
	if err != nil {
		return message.Fail[ListResult](ioError(err, "listing", path))
	}
	if !info.IsDir() {
		return message.Fail[ListResult](message.Errorf(message.KindWrongKind, "path is not a directory: %s", path))
	}

	dirEntries, err := m.fsRepo.ReadDir(ctx, absPath)
	if err != nil {
		return message.Fail[ListResult](ioError(err, "listing", path))
	}

	entries := make([]FileEntry, 0, len(dirEntries))
	for _, e := range dirEntries {
		entryInfo, err := e.Info()
		if err != nil {
			continue
		}
		entries = append(entries, newFileEntry(filepath.Join(path, e.Name()), entryInfo))
	}
	return message.OK(ListResult{Entries: entries, Count: len(entries)})
}

func (m *FileSystemToolManager) handleReadFile(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	path, ok := stringArg(args, "path")
	if !ok || path == "" {
		return missingArgument("path"), nil
	}
	return m.Read(ctx, path).ToolResult(), nil
}

func (m *FileSystemToolManager) handleWriteFile(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	path, ok := stringArg(args, "path")
	if !ok || path == "" {
		return missingArgument("path"), nil
	}
	content, ok := stringArg(args, "content")
	if !ok {
		return missingArgument("content"), nil
	}
	return m.Write(ctx, path, content).ToolResult(), nil
}

func (m *FileSystemToolManager) handleListDirectory(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
	path, ok := stringArg(args, "path")
	if !ok || path == "" {
		return missingArgument("path"), nil
	}
	return m.List(ctx, path).ToolResult(), nil
}

func (m *FileSystemToolManager) ResultTypes() map[message.ToolName]any {
	return map[message.ToolName]any{
		"read_file":      FileContent{},
		"write_file":     WriteResult{},
		"list_directory": ListResult{},
	}
}
