package tool

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/fpt/codeassist/internal/repository"
	"github.com/fpt/codeassist/pkg/message"
)

const errNotInAllowedDirectory = "file access denied: path is not within allowed directories"

// workspace resolves caller paths against the working directory and
// enforces the allowed-directory and blacklist rules shared by the local
// content tools.
type workspace struct {
	workingDir         string
	allowedDirectories []string
	blacklistedFiles   []string
}

func newWorkspace(config repository.FileSystemConfig, workingDir string) workspace {
	absWorkingDir, err := filepath.Abs(workingDir)
	if err != nil {
		absWorkingDir = workingDir
	}
	return workspace{
		workingDir:         absWorkingDir,
		allowedDirectories: ensureWorkingDirectoryInAllowedList(config.AllowedDirectories, absWorkingDir),
		blacklistedFiles:   config.BlacklistedFiles,
	}
}

// ensureWorkingDirectoryInAllowedList returns a copy of configuredDirectories
// that includes absWorkingDir.
func ensureWorkingDirectoryInAllowedList(configuredDirectories []string, absWorkingDir string) []string {
	allowedDirs := make([]string, len(configuredDirectories))
	copy(allowedDirs, configuredDirectories)

	for _, dir := range allowedDirs {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if absDir == absWorkingDir {
			return allowedDirs
		}
	}
	return append(allowedDirs, absWorkingDir)
}

// abs resolves path against the working directory rather than the
// process's current directory.
func (w workspace) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(w.workingDir, path))
}

// resolve returns the absolute form of path after checking it lies inside
// an allowed directory.
func (w workspace) resolve(path string) (string, error) {
	absPath := w.abs(path)
	if err := w.isPathAllowed(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

// isPathAllowed expects an absolute path.
func (w workspace) isPathAllowed(absPath string) error {
	for _, allowedDir := range w.allowedDirectories {
		allowedAbs := w.abs(allowedDir)
		if strings.HasPrefix(absPath, allowedAbs+string(os.PathSeparator)) || absPath == allowedAbs {
			return nil
		}
	}
	return message.Errorf(message.KindIOFailure, errNotInAllowedDirectory)
}

// isFileBlacklisted matches patterns against both the base name and the
// absolute path.
func (w workspace) isFileBlacklisted(absPath string) error {
	fileName := filepath.Base(absPath)
	for _, blacklisted := range w.blacklistedFiles {
		if matched, _ := filepath.Match(blacklisted, fileName); matched || fileName == blacklisted {
			return message.Errorf(message.KindIOFailure, "file access denied: %s matches blacklisted pattern %s", fileName, blacklisted)
		}
		if matched, _ := filepath.Match(blacklisted, absPath); matched || absPath == blacklisted {
			return message.Errorf(message.KindIOFailure, "file access denied: %s matches blacklisted pattern %s", absPath, blacklisted)
		}
	}
	return nil
}

// ioError classifies a filesystem error for path.
func ioError(err error, action, path string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return message.Errorf(message.KindNotFound, "path not found: %s", path)
	case errors.Is(err, fs.ErrPermission):
		return message.WrapErrorf(err, message.KindIOFailure, "permission denied %s %s", action, path)
	default:
		return message.WrapErrorf(err, message.KindIOFailure, "failed %s %s", action, path)
	}
}
