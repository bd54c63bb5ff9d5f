package infra

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fpt/codeassist/internal/repository"
)

// DefaultFileSystemConfig allows the working directory and hides files
// that commonly carry credentials.
func DefaultFileSystemConfig(workingDir string) repository.FileSystemConfig {
	absWorkingDir, err := filepath.Abs(workingDir)
	if err != nil {
		absWorkingDir = workingDir
	}

	return repository.FileSystemConfig{
		AllowedDirectories: []string{absWorkingDir},
		BlacklistedFiles:   DefaultBlacklist(),
	}
}

// DefaultBlacklist lists base-name globs that are never read or grepped.
func DefaultBlacklist() []string {
	return []string{
		".env",
		".env.*",
		"*.key",
		"*.pem",
		"*.p12",
		"*.pfx",
		"id_rsa",
		"id_ed25519",
		".netrc",
		".npmrc",
		".pypirc",
		"credentials.json",
		"secrets.json",
	}
}

// OSFilesystemRepository implements repository.FilesystemRepository using os package
type OSFilesystemRepository struct{}

// NewOSFilesystemRepository creates a new OS-based filesystem repository
func NewOSFilesystemRepository() repository.FilesystemRepository {
	return &OSFilesystemRepository{}
}

func (r *OSFilesystemRepository) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (r *OSFilesystemRepository) WriteFile(ctx context.Context, path string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (r *OSFilesystemRepository) Stat(ctx context.Context, path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

func (r *OSFilesystemRepository) ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

func (r *OSFilesystemRepository) MkdirAll(ctx context.Context, path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WalkDir walks root in lexical order. It stops early with ctx.Err() once
// ctx is cancelled.
func (r *OSFilesystemRepository) WalkDir(ctx context.Context, root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fn(path, d, err)
	})
}
