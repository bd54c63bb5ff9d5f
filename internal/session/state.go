// Package session holds the key/value state shared across tool calls of
// one assistant session.
package session

import (
	"maps"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/fpt/codeassist/internal/repository"
	pkgLogger "github.com/fpt/codeassist/pkg/logger"
)

var logger = pkgLogger.NewComponentLogger("session")

// Well-known keys.
const (
	KeySystemTime       = "system_time"
	KeyContextLoaded    = "context_loaded"
	KeyProjectPath      = "project_path"
	KeyProjectLanguage  = "project_language"
	KeyProjectFramework = "project_framework"
)

const (
	defaultLanguage  = "python"
	defaultFramework = "unknown"
)

// State is a mutex-guarded string-keyed map persisted through a
// SessionRepository after every change.
type State struct {
	mu     sync.RWMutex
	values map[string]any
	repo   repository.SessionRepository
}

// NewState loads previously persisted values from repo.
func NewState(repo repository.SessionRepository) (*State, error) {
	values, err := repo.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session state")
	}
	if values == nil {
		values = map[string]any{}
	}
	return &State{values: values, repo: repo}, nil
}

// Seed applies the initial context: system_time and context_loaded are set
// only when absent, source values overwrite, then project defaults fill
// whatever is still missing.
func (s *State) Seed(source map[string]any, cwd string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[KeySystemTime]; !ok {
		s.values[KeySystemTime] = now.Format("2006-01-02 15:04:05.000000")
	}
	if _, ok := s.values[KeyContextLoaded]; !ok {
		s.values[KeyContextLoaded] = true
	}
	maps.Copy(s.values, source)

	defaults := map[string]any{
		KeyProjectPath:      cwd,
		KeyProjectLanguage:  defaultLanguage,
		KeyProjectFramework: defaultFramework,
	}
	for k, v := range defaults {
		if _, ok := s.values[k]; !ok {
			s.values[k] = v
		}
	}

	logger.DebugWithIntention(pkgLogger.IntentionSession, "Initial context applied", "keys", len(s.values))
	return s.persistLocked()
}

// Set stores value under key and persists the state.
func (s *State) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.persistLocked()
}

// Get returns the value stored under key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// String returns the value under key when it is a string.
func (s *State) String(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// Snapshot returns a copy of all values.
func (s *State) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

func (s *State) persistLocked() error {
	if err := s.repo.Save(s.values); err != nil {
		return errors.Wrap(err, "failed to persist session state")
	}
	return nil
}
