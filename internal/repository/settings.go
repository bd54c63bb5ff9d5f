package repository

// SettingsRepository abstracts settings persistence
type SettingsRepository interface {
	Load() ([]byte, error)
	Save(data []byte) error
	FindSettingsFile() (string, error)
	// Location is the file backing the repository, "" when in memory.
	// Its extension selects the encoding.
	Location() string
}
