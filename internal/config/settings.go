package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fpt/codeassist/internal/infra"
	"github.com/fpt/codeassist/internal/repository"
	pkgLogger "github.com/fpt/codeassist/pkg/logger"
	"github.com/fpt/codeassist/pkg/remote"
)

// Settings represents the main application settings
type Settings struct {
	Workspace WorkspaceSettings `json:"workspace" yaml:"workspace"`
	Remote    RemoteSettings    `json:"remote" yaml:"remote"`
	Agent     AgentSettings     `json:"agent" yaml:"agent"`

	// Repository for persistence (nil for in-memory only)
	settingsRepository repository.SettingsRepository
}

// WorkspaceSettings controls which local paths the content tools may touch
type WorkspaceSettings struct {
	AllowedDirectories []string `json:"allowed_directories,omitempty" yaml:"allowed_directories,omitempty"`
	BlacklistedFiles   []string `json:"blacklisted_files,omitempty" yaml:"blacklisted_files,omitempty"`
	GrepTimeoutMillis  int      `json:"grep_timeout_ms,omitempty" yaml:"grep_timeout_ms,omitempty"` // per-line regex budget
}

// RemoteSettings contains remote repository backend configuration
type RemoteSettings struct {
	Backends          []string `json:"backends,omitempty" yaml:"backends,omitempty"`         // preference order
	APIBaseURL        string   `json:"api_base_url,omitempty" yaml:"api_base_url,omitempty"` // GitHub Enterprise
	PreviewConcurrent int      `json:"preview_concurrency,omitempty" yaml:"preview_concurrency,omitempty"`
}

// AgentSettings contains process-level behaviour
type AgentSettings struct {
	LogLevel    string `json:"log_level" yaml:"log_level"`
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
}

// FileSystemConfig merges the workspace settings over the defaults for workingDir.
func (w WorkspaceSettings) FileSystemConfig(workingDir string) repository.FileSystemConfig {
	cfg := infra.DefaultFileSystemConfig(workingDir)
	cfg.AllowedDirectories = append(cfg.AllowedDirectories, w.AllowedDirectories...)
	if len(w.BlacklistedFiles) > 0 {
		cfg.BlacklistedFiles = w.BlacklistedFiles
	}
	return cfg
}

// NewSettings creates new settings with in-memory repository
func NewSettings() *Settings {
	return NewSettingsWithRepository(infra.NewInMemorySettingsRepository())
}

// NewSettingsWithRepository creates new settings with injected repository
func NewSettingsWithRepository(settingsRepository repository.SettingsRepository) *Settings {
	settings := GetDefaultSettings()
	settings.settingsRepository = settingsRepository
	return settings
}

// NewSettingsWithPath creates new settings with file-based repository
func NewSettingsWithPath(configPath string) *Settings {
	return NewSettingsWithRepository(infra.NewFileSettingsRepository(configPath))
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load loads settings from the repository
func (s *Settings) Load() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	data, err := s.settingsRepository.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load settings")
	}

	if isYAML(s.settingsRepository.Location()) {
		err = yaml.Unmarshal(data, s)
	} else {
		err = json.Unmarshal(data, s)
	}
	if err != nil {
		return errors.Wrap(err, "failed to parse settings")
	}

	applyDefaults(s)
	return nil
}

// Save saves settings to the repository in the format its location implies
func (s *Settings) Save() error {
	if s.settingsRepository == nil {
		return errors.New("no settings repository configured")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(s.settingsRepository.Location()) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal settings")
	}

	return s.settingsRepository.Save(data)
}

// LoadSettings loads settings from configPath, or from the first settings
// file found when configPath is empty. An explicit path that does not exist
// is created with defaults; no file at all yields in-memory defaults.
func LoadSettings(configPath string) (*Settings, error) {
	settings := NewSettingsWithPath(configPath)

	if configPath == "" {
		foundPath, _ := settings.settingsRepository.FindSettingsFile()
		if foundPath == "" {
			return NewSettings(), nil
		}
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return createSettingsFileAtPath(configPath)
		}
	}

	if err := settings.Load(); err != nil {
		return nil, err
	}

	return settings, nil
}

// GetDefaultSettings returns default application settings
func GetDefaultSettings() *Settings {
	return &Settings{
		Workspace: WorkspaceSettings{
			GrepTimeoutMillis: 2000,
		},
		Remote: RemoteSettings{
			Backends:          slices.Clone(remote.DefaultBackends),
			PreviewConcurrent: 4,
		},
		Agent: AgentSettings{
			LogLevel: "info",
		},
	}
}

// applyDefaults fills in missing fields with default values
func applyDefaults(settings *Settings) {
	defaults := GetDefaultSettings()

	if settings.Workspace.GrepTimeoutMillis <= 0 {
		settings.Workspace.GrepTimeoutMillis = defaults.Workspace.GrepTimeoutMillis
	}
	if len(settings.Remote.Backends) == 0 {
		settings.Remote.Backends = defaults.Remote.Backends
	}
	if settings.Remote.PreviewConcurrent <= 0 {
		settings.Remote.PreviewConcurrent = defaults.Remote.PreviewConcurrent
	}
	if settings.Agent.LogLevel == "" {
		settings.Agent.LogLevel = defaults.Agent.LogLevel
	}
}

// ValidateSettings validates the settings configuration
func ValidateSettings(settings *Settings) error {
	for _, b := range settings.Remote.Backends {
		if !slices.Contains(remote.DefaultBackends, b) {
			return errors.Errorf("unsupported remote backend: %s (must be one of %s)", b, strings.Join(remote.DefaultBackends, ", "))
		}
	}

	switch pkgLogger.LogLevel(settings.Agent.LogLevel) {
	case pkgLogger.LogLevelDebug, pkgLogger.LogLevelInfo, pkgLogger.LogLevelWarn, pkgLogger.LogLevelError:
	default:
		return errors.Errorf("unsupported log level: %s", settings.Agent.LogLevel)
	}

	for _, pattern := range settings.Workspace.BlacklistedFiles {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return errors.Wrapf(err, "invalid blacklist pattern %q", pattern)
		}
	}

	return nil
}

// createSettingsFileAtPath creates a default settings file at the specified path
func createSettingsFileAtPath(settingsPath string) (*Settings, error) {
	settings := NewSettingsWithPath(settingsPath)

	if err := settings.Save(); err != nil {
		return nil, errors.Wrapf(err, "failed to create settings file %s", settingsPath)
	}

	pkgLogger.NewComponentLogger("settings").InfoWithIntention(pkgLogger.IntentionConfig, "Created default settings file", "path", settingsPath)
	return settings, nil
}
