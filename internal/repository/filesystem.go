package repository

import (
	"context"
	"io/fs"
)

// FileSystemConfig holds access rules for local file operations
type FileSystemConfig struct {
	AllowedDirectories []string `json:"allowed_directories" yaml:"allowed_directories"` // Paths where file operations are allowed
	BlacklistedFiles   []string `json:"blacklisted_files" yaml:"blacklisted_files"`     // Files that cannot be read
}

// FilesystemRepository abstracts filesystem operations for the local content tools
type FilesystemRepository interface {
	// File operations
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error
	Stat(ctx context.Context, path string) (fs.FileInfo, error)

	// Directory operations
	ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error)
	MkdirAll(ctx context.Context, path string, perm fs.FileMode) error
	WalkDir(ctx context.Context, root string, fn fs.WalkDirFunc) error
}
