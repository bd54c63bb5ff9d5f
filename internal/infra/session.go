package infra

import (
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileSessionRepository stores session state as a JSON object on disk.
type FileSessionRepository struct {
	path string
}

func NewFileSessionRepository(path string) *FileSessionRepository {
	return &FileSessionRepository{path: path}
}

// Load returns an empty map when the file does not exist yet or holds null.
func (r *FileSessionRepository) Load() (map[string]any, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, errors.Wrap(err, "failed to read session file")
	}
	state := map[string]any{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrapf(err, "failed to parse session file %s", r.path)
	}
	if state == nil {
		// a file holding JSON null
		return map[string]any{}, nil
	}
	return state, nil
}

func (r *FileSessionRepository) Save(state map[string]any) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal session state")
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create session directory")
	}
	// Replace atomically via rename.
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write session file")
	}
	return errors.Wrap(os.Rename(tmp, r.path), "failed to replace session file")
}

// InMemorySessionRepository keeps session state for the process only.
type InMemorySessionRepository struct {
	mu    sync.Mutex
	state map[string]any
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{}
}

func (r *InMemorySessionRepository) Load() (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == nil {
		return map[string]any{}, nil
	}
	return maps.Clone(r.state), nil
}

func (r *InMemorySessionRepository) Save(state map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = maps.Clone(state)
	return nil
}
