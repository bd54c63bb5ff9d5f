package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// EnvInitialContext names a JSON file of the form {"state": {...}} that
// seeds the session state at startup.
const EnvInitialContext = "CODING_ASSISTANT_CONTEXT"

type initialContextFile struct {
	State map[string]any `json:"state"`
}

// ReadInitialContext returns the "state" object of the context file at path.
// An empty path or a missing file yields an empty map.
func ReadInitialContext(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, errors.Wrapf(err, "failed to read context file %s", path)
	}
	var doc initialContextFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse context file %s", path)
	}
	if doc.State == nil {
		doc.State = map[string]any{}
	}
	return doc.State, nil
}
