// Package app wires settings, environment and session state into the
// composite tool manager served by the codeassist binary.
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/fpt/codeassist/internal/config"
	"github.com/fpt/codeassist/internal/infra"
	"github.com/fpt/codeassist/internal/repository"
	"github.com/fpt/codeassist/internal/session"
	"github.com/fpt/codeassist/internal/tool"
	pkgLogger "github.com/fpt/codeassist/pkg/logger"
	"github.com/fpt/codeassist/pkg/remote"
)

var logger = pkgLogger.NewComponentLogger("app")

// Options control how the tool set is assembled.
type Options struct {
	WorkingDir string // empty means the session's project_path, then cwd
	// SessionRepository overrides the per-project session file.
	SessionRepository repository.SessionRepository
	// Detector overrides backend detection over the built-in providers.
	Detector tool.BackendDetector
	// Getenv overrides os.Getenv.
	Getenv func(string) string
	Now    func() time.Time
}

// App holds the assembled tool set.
type App struct {
	Tools      *tool.CompositeToolManager
	State      *session.State
	WorkingDir string
	GitHub     config.GitHubConfig
}

// New builds the tool managers from settings. The session state is seeded
// from the initial context file before the working directory is resolved,
// so a project_path in that file becomes the workspace root.
func New(settings *config.Settings, opts Options) (*App, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get current directory")
	}

	sessionRepo := opts.SessionRepository
	if sessionRepo == nil {
		sessionRepo = projectSessionRepository(firstNonEmpty(opts.WorkingDir, cwd))
	}
	state, err := session.NewState(sessionRepo)
	if err != nil {
		return nil, err
	}
	initial, err := config.ReadInitialContext(getenv(config.EnvInitialContext))
	if err != nil {
		logger.WarnWithIntention(pkgLogger.IntentionWarning, "Ignoring initial context", "error", err)
		initial = map[string]any{}
	}
	if err := state.Seed(initial, cwd, now()); err != nil {
		return nil, err
	}

	workingDir := firstNonEmpty(opts.WorkingDir, state.String(session.KeyProjectPath), cwd)
	workingDir, err = filepath.Abs(workingDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve working directory")
	}

	gh := config.GitHubConfigFromLookup(getenv)
	gh = gh.WithSettings(settings.Remote)

	detector := opts.Detector
	if detector == nil {
		detector = remote.NewDefaultDetector(gh.BackendPreference(settings.Remote))
	}

	fsRepo := infra.NewOSFilesystemRepository()
	fsConfig := settings.Workspace.FileSystemConfig(workingDir)

	filesystemManager := tool.NewFileSystemToolManager(fsRepo, fsConfig, workingDir)
	searchManager := tool.NewSearchToolManager(fsRepo, tool.SearchConfig{
		WorkingDir:   workingDir,
		FileSystem:   fsConfig,
		MatchTimeout: time.Duration(settings.Workspace.GrepTimeoutMillis) * time.Millisecond,
	})
	githubManager := tool.NewGitHubToolManager(gh, detector, settings.Remote.PreviewConcurrent)
	sessionManager := tool.NewSessionToolManager(state)

	logger.DebugWithIntention(pkgLogger.IntentionConfig, "Tool set assembled",
		"working_dir", workingDir, "allowed_dirs", len(fsConfig.AllowedDirectories),
		"default_repository", gh.Repository, "token_set", gh.Token != "")

	return &App{
		Tools:      tool.NewCompositeToolManager(filesystemManager, searchManager, githubManager, sessionManager),
		State:      state,
		WorkingDir: workingDir,
		GitHub:     gh,
	}, nil
}

// projectSessionRepository persists under ~/.codeassist/projects when the
// user directory is usable and falls back to memory otherwise.
func projectSessionRepository(projectPath string) repository.SessionRepository {
	userConfig, err := config.DefaultUserConfig()
	if err != nil {
		logger.WarnWithIntention(pkgLogger.IntentionWarning, "Could not access user config for session persistence", "error", err)
		return infra.NewInMemorySessionRepository()
	}
	path, err := userConfig.GetProjectSessionFile(projectPath)
	if err != nil {
		logger.WarnWithIntention(pkgLogger.IntentionWarning, "Could not get session file path", "error", err)
		return infra.NewInMemorySessionRepository()
	}
	logger.DebugWithIntention(pkgLogger.IntentionSession, "Using session file", "path", path)
	return infra.NewFileSessionRepository(path)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
