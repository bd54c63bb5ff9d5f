package server

import (
	"encoding/json"
	"sort"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/fpt/codeassist/pkg/domain"
	"github.com/fpt/codeassist/pkg/message"
)

// CatalogEntry documents one tool for the tools command.
type CatalogEntry struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Arguments    []CatalogArgument `json:"arguments"`
	ResultSchema json.RawMessage   `json:"result_schema,omitempty"` // fields sent next to "success"
}

type CatalogArgument struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
}

// Catalog lists the tools of tm in name order. Result schemas are included
// when tm can name its payload types.
func Catalog(tm domain.ToolManager) ([]CatalogEntry, error) {
	var resultTypes map[message.ToolName]any
	if desc, ok := tm.(domain.ToolResultDescriber); ok {
		resultTypes = desc.ResultTypes()
	}
	reflector := newReflector()

	var entries []CatalogEntry
	for name, tool := range tm.GetTools() {
		entry := CatalogEntry{
			Name:        name.String(),
			Description: tool.Description().String(),
			Arguments:   make([]CatalogArgument, 0, len(tool.Arguments())),
		}
		for _, arg := range tool.Arguments() {
			entry.Arguments = append(entry.Arguments, CatalogArgument{
				Name:        arg.Name.String(),
				Type:        arg.Type,
				Required:    arg.Required,
				Description: arg.Description.String(),
			})
		}
		if v, ok := resultTypes[name]; ok {
			schema, err := json.Marshal(reflector.Reflect(v))
			if err != nil {
				return nil, errors.Wrapf(err, "failed to build result schema for %s", name)
			}
			entry.ResultSchema = schema
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
