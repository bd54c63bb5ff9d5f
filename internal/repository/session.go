package repository

// SessionRepository persists the key/value session state of a project
type SessionRepository interface {
	Load() (map[string]any, error)
	Save(state map[string]any) error
}
