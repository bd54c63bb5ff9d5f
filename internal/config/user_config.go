package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	pkgLogger "github.com/fpt/codeassist/pkg/logger"
)

// UserConfig manages per-user configuration and data directories
type UserConfig struct {
	BaseDir     string // $HOME/.codeassist
	ProjectsDir string // $HOME/.codeassist/projects
}

// DefaultUserConfig creates the default user configuration
func DefaultUserConfig() (*UserConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user home directory")
	}
	return NewUserConfig(filepath.Join(homeDir, ".codeassist"))
}

// NewUserConfig roots the per-user directories at baseDir and creates them.
func NewUserConfig(baseDir string) (*UserConfig, error) {
	config := &UserConfig{
		BaseDir:     baseDir,
		ProjectsDir: filepath.Join(baseDir, "projects"),
	}
	for _, dir := range []string{config.BaseDir, config.ProjectsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	return config, nil
}

// GetProjectDataDir returns a project-specific data directory
// Creates $HOME/.codeassist/projects/{project-hash}/
func (c *UserConfig) GetProjectDataDir(projectPath string) (string, error) {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to get absolute path")
	}

	projectDir := filepath.Join(c.ProjectsDir, generateProjectHash(absPath))
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create project directory")
	}

	infoFile := filepath.Join(projectDir, "project_info.txt")
	if _, err := os.Stat(infoFile); os.IsNotExist(err) {
		info := fmt.Sprintf("Project Path: %s\nCreated: %s\n", absPath, time.Now().Format("2006-01-02 15:04:05"))
		if err := os.WriteFile(infoFile, []byte(info), 0o644); err != nil {
			pkgLogger.NewComponentLogger("user-config").WarnWithIntention(pkgLogger.IntentionWarning, "Failed to create project info file", "error", err)
		}
	}

	return projectDir, nil
}

// GetProjectSessionFile returns the session state file path for a specific project
func (c *UserConfig) GetProjectSessionFile(projectPath string) (string, error) {
	projectDir, err := c.GetProjectDataDir(projectPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(projectDir, "session.json"), nil
}

// generateProjectHash turns an absolute path into a directory name:
// separators become dashes and anything outside [A-Za-z0-9._-] becomes '_'.
func generateProjectHash(projectPath string) string {
	dashPath := strings.ReplaceAll(filepath.ToSlash(projectPath), "/", "-")

	var b strings.Builder
	b.Grow(len(dashPath))
	for _, r := range dashPath {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
