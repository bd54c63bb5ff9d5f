package config

import (
	"strings"

	"github.com/fpt/codeassist/pkg/domain"
)

// Environment variables read by GitHubConfigFromLookup.
const (
	EnvGitHubToken      = "GITHUB_TOKEN"
	EnvGitHubRepository = "GITHUB_REPOSITORY"
	EnvGitHubAPIURL     = "GITHUB_API_URL"
	EnvGitHubBackend    = "GITHUB_BACKEND"
)

// GitHubConfig is the process-level remote configuration. It is built once
// at startup and handed to the GitHub tools.
type GitHubConfig struct {
	Token      string
	Repository string // default owner/name when a call names none
	APIBaseURL string
	Backend    string // pins a single backend when set
}

// GitHubConfigFromLookup reads the GITHUB_* variables through getenv,
// usually os.Getenv.
func GitHubConfigFromLookup(getenv func(string) string) GitHubConfig {
	return GitHubConfig{
		Token:      strings.TrimSpace(getenv(EnvGitHubToken)),
		Repository: strings.TrimSpace(getenv(EnvGitHubRepository)),
		APIBaseURL: strings.TrimSpace(getenv(EnvGitHubAPIURL)),
		Backend:    strings.TrimSpace(getenv(EnvGitHubBackend)),
	}
}

// WithSettings fills fields the environment left empty from settings.
func (c GitHubConfig) WithSettings(s RemoteSettings) GitHubConfig {
	if c.APIBaseURL == "" {
		c.APIBaseURL = s.APIBaseURL
	}
	return c
}

// BackendPreference is the backend order to try: the pinned backend alone,
// or the settings order.
func (c GitHubConfig) BackendPreference(s RemoteSettings) []string {
	if c.Backend != "" {
		return []string{c.Backend}
	}
	return s.Backends
}

// Credentials returns what a backend needs to connect.
func (c GitHubConfig) Credentials() domain.RemoteCredentials {
	return domain.RemoteCredentials{Token: c.Token, APIBaseURL: c.APIBaseURL}
}

// ResolveRepository prefers an explicit repository over the default.
func (c GitHubConfig) ResolveRepository(override string) string {
	if r := strings.TrimSpace(override); r != "" {
		return r
	}
	return c.Repository
}
