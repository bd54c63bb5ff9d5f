package infra

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// settingsFileNames are tried in order inside each settings directory.
var settingsFileNames = []string{"settings.json", "settings.yaml", "settings.yml"}

// FileSettingsRepository represents file-persisted settings repository
type FileSettingsRepository struct {
	configPath string // Specific path (empty means search for file)
}

// InMemorySettingsRepository represents in-memory-only settings repository
type InMemorySettingsRepository struct {
	data []byte
}

// NewFileSettingsRepository creates a new file-based settings repository
func NewFileSettingsRepository(configPath string) *FileSettingsRepository {
	return &FileSettingsRepository{
		configPath: configPath,
	}
}

// NewInMemorySettingsRepository creates a new in-memory settings repository
func NewInMemorySettingsRepository() *InMemorySettingsRepository {
	return &InMemorySettingsRepository{}
}

// Location returns the explicit path, or the discovered settings file.
func (fr *FileSettingsRepository) Location() string {
	if fr.configPath != "" {
		return fr.configPath
	}
	found, _ := fr.FindSettingsFile()
	return found
}

func (fr *FileSettingsRepository) Load() ([]byte, error) {
	configPath := fr.Location()
	if configPath == "" {
		return nil, errors.New("no settings file found")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("settings file does not exist: %s", configPath)
		}
		return nil, errors.Wrap(err, "failed to read settings file")
	}
	return data, nil
}

func (fr *FileSettingsRepository) Save(data []byte) error {
	configPath := fr.Location()
	if configPath == "" {
		configPath = filepath.Join(".codeassist", "settings.json")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write settings file")
	}
	return nil
}

// FindSettingsFile searches .codeassist/ in the current directory, then
// $HOME/.codeassist/. It returns "" when nothing is found.
func (fr *FileSettingsRepository) FindSettingsFile() (string, error) {
	dirs := []string{".codeassist"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".codeassist"))
	}
	for _, dir := range dirs {
		for _, name := range settingsFileNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
	}
	return "", nil
}

func (mr *InMemorySettingsRepository) Load() ([]byte, error) {
	if mr.data == nil {
		return nil, errors.New("no data stored in memory repository")
	}
	return mr.data, nil
}

func (mr *InMemorySettingsRepository) Save(data []byte) error {
	mr.data = make([]byte, len(data))
	copy(mr.data, data)
	return nil
}

func (mr *InMemorySettingsRepository) FindSettingsFile() (string, error) {
	return "", nil
}

func (mr *InMemorySettingsRepository) Location() string { return "" }
